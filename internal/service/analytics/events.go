package analytics

import "codecalm/internal/repository/db"

// EventFromLog converts a persisted routing log into an Event.
func EventFromLog(l db.RoutingLog) Event {
	return Event{
		Provider:  l.SelectedModel,
		QueryType: l.QueryType,
		Query:     l.Query,
		Reasoning: l.Reasoning,
		Tokens:    l.Tokens,
		LatencyMS: l.LatencyMS,
		At:        l.CreatedAt,
	}
}

// EventsFromLogs converts a slice of routing logs.
func EventsFromLogs(logs []db.RoutingLog) []Event {
	events := make([]Event, 0, len(logs))
	for _, l := range logs {
		events = append(events, EventFromLog(l))
	}
	return events
}
