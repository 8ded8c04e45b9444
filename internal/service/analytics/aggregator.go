// Package analytics keeps the process-wide routing statistics.
package analytics

import (
	"math"
	"sort"
	"sync"
	"time"
)

// DefaultRecentReasons is how many reasoning entries each provider keeps for display.
const DefaultRecentReasons = 20

const queryPreviewRunes = 50

// Event is one routed request.
type Event struct {
	Provider  string
	QueryType string
	Query     string
	Reasoning string
	Tokens    int
	LatencyMS int64
	At        time.Time
}

// ReasonEntry is a display record of a recent routing decision.
type ReasonEntry struct {
	Query     string    `json:"query"`
	Reason    string    `json:"reason"`
	Tokens    int       `json:"tokens"`
	Timestamp time.Time `json:"timestamp"`
}

// ProviderSummary is the per-provider slice of a Summary.
type ProviderSummary struct {
	Queries           int64         `json:"queries"`
	Tokens            int64         `json:"tokens"`
	Percentage        float64       `json:"percentage"`
	AvgTokensPerQuery float64       `json:"avg_tokens_per_query"`
	AvgLatencyMS      float64       `json:"avg_latency_ms"`
	RecentReasons     []ReasonEntry `json:"recent_reasons,omitempty"`
}

// Summary covers every event recorded since construction or the last Rebuild.
type Summary struct {
	TotalQueries int64                      `json:"total_queries"`
	TotalTokens  int64                      `json:"total_tokens"`
	AvgLatencyMS float64                    `json:"avg_latency_ms"`
	Providers    map[string]ProviderSummary `json:"model_distribution"`
}

type bucket struct {
	mu        sync.Mutex
	queries   int64
	tokens    int64
	latencyMS int64
	recent    []ReasonEntry
}

// Aggregator accumulates routing events. Counters are unbounded; only the per-provider
// reason list is capped. Safe for concurrent use.
type Aggregator struct {
	mu         sync.RWMutex
	buckets    map[string]*bucket
	now        func() time.Time
	maxReasons int
}

type Option func(*Aggregator)

// WithClock sets the clock used to stamp events recorded without a time.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) { a.now = now }
}

// WithRecentReasons caps the per-provider reason list.
func WithRecentReasons(n int) Option {
	return func(a *Aggregator) {
		if n > 0 {
			a.maxReasons = n
		}
	}
}

func NewAggregator(opts ...Option) *Aggregator {
	a := &Aggregator{
		buckets:    make(map[string]*bucket),
		now:        time.Now,
		maxReasons: DefaultRecentReasons,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Record adds ev to its provider bucket. Counters and the reason list are updated together.
func (a *Aggregator) Record(ev Event) {
	if ev.At.IsZero() {
		ev.At = a.now()
	}
	b := a.bucketFor(ev.Provider)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.queries++
	b.tokens += int64(ev.Tokens)
	b.latencyMS += ev.LatencyMS
	b.recent = append(b.recent, ReasonEntry{
		Query:     QueryPreview(ev.Query),
		Reason:    ev.Reasoning,
		Tokens:    ev.Tokens,
		Timestamp: ev.At,
	})
	if over := len(b.recent) - a.maxReasons; over > 0 {
		b.recent = append(b.recent[:0:0], b.recent[over:]...)
	}
}

func (a *Aggregator) bucketFor(provider string) *bucket {
	a.mu.RLock()
	b, ok := a.buckets[provider]
	a.mu.RUnlock()
	if ok {
		return b
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if b, ok = a.buckets[provider]; !ok {
		b = &bucket{}
		a.buckets[provider] = b
	}
	return b
}

// Rebuild discards current state and replays events in chronological order.
func (a *Aggregator) Rebuild(events []Event) {
	sorted := make([]Event, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].At.Before(sorted[j].At) })

	a.mu.Lock()
	a.buckets = make(map[string]*bucket)
	a.mu.Unlock()

	for _, ev := range sorted {
		a.Record(ev)
	}
}

// Recent returns a copy of the provider's recent reasons, oldest first.
func (a *Aggregator) Recent(provider string) []ReasonEntry {
	a.mu.RLock()
	b, ok := a.buckets[provider]
	a.mu.RUnlock()
	if !ok {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]ReasonEntry, len(b.recent))
	copy(out, b.recent)
	return out
}

// Summarize computes distribution and averages over everything recorded. With no
// events every figure is zero.
func (a *Aggregator) Summarize() Summary {
	a.mu.RLock()
	names := make([]string, 0, len(a.buckets))
	buckets := make([]*bucket, 0, len(a.buckets))
	for name, b := range a.buckets {
		names = append(names, name)
		buckets = append(buckets, b)
	}
	a.mu.RUnlock()

	snap := make([]totals, len(buckets))
	for i, b := range buckets {
		b.mu.Lock()
		snap[i] = totals{
			queries:   b.queries,
			tokens:    b.tokens,
			latencyMS: b.latencyMS,
			recent:    append([]ReasonEntry(nil), b.recent...),
		}
		b.mu.Unlock()
	}

	return summarize(names, snap)
}

type totals struct {
	queries   int64
	tokens    int64
	latencyMS int64
	recent    []ReasonEntry
}

func summarize(names []string, per []totals) Summary {
	s := Summary{Providers: make(map[string]ProviderSummary, len(names))}
	var latency int64
	for _, t := range per {
		s.TotalQueries += t.queries
		s.TotalTokens += t.tokens
		latency += t.latencyMS
	}
	s.AvgLatencyMS = ratio(float64(latency), float64(s.TotalQueries))

	for i, name := range names {
		t := per[i]
		s.Providers[name] = ProviderSummary{
			Queries:           t.queries,
			Tokens:            t.tokens,
			Percentage:        round2(ratio(float64(t.queries)*100, float64(s.TotalQueries))),
			AvgTokensPerQuery: round2(ratio(float64(t.tokens), float64(t.queries))),
			AvgLatencyMS:      round2(ratio(float64(t.latencyMS), float64(t.queries))),
			RecentReasons:     t.recent,
		}
	}
	s.AvgLatencyMS = round2(s.AvgLatencyMS)
	return s
}

// SummarizeEvents computes a Summary over a fixed event list, such as persisted routing
// logs, without touching any aggregator.
func SummarizeEvents(events []Event) Summary {
	index := make(map[string]int)
	var names []string
	var per []totals
	for _, ev := range events {
		i, ok := index[ev.Provider]
		if !ok {
			i = len(names)
			index[ev.Provider] = i
			names = append(names, ev.Provider)
			per = append(per, totals{})
		}
		per[i].queries++
		per[i].tokens += int64(ev.Tokens)
		per[i].latencyMS += ev.LatencyMS
	}
	return summarize(names, per)
}

func ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// QueryPreview returns the first 50 characters of a user message for display.
func QueryPreview(s string) string {
	r := []rune(s)
	if len(r) <= queryPreviewRunes {
		return s
	}
	return string(r[:queryPreviewRunes])
}
