package postgres

import (
	"codecalm/internal/common"
	"codecalm/internal/repository/db"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// CreateRoutingLog appends a routing decision to a live conversation owned by userID.
// A message reference must belong to the same conversation.
func (p *PostgresDB) CreateRoutingLog(ctx context.Context, userID int64, log db.RoutingLog) (*db.RoutingLog, error) {
	return insertRoutingLog(ctx, p.conn, userID, log)
}

func insertRoutingLog(ctx context.Context, q DBTX, userID int64, log db.RoutingLog) (*db.RoutingLog, error) {
	query := `
	INSERT INTO routing_logs (conversation_id, message_id, selected_model, query_type, latency_ms, cost_estimate, reasoning, query_preview)
	SELECT c.id, $3, $4, $5, $6, $7, $8, $9
	FROM conversations c
	WHERE c.id = $1 AND c.user_id = $2 AND c.deleted_at IS NULL
	  AND ($3::bigint IS NULL OR EXISTS (SELECT 1 FROM messages m WHERE m.id = $3 AND m.conversation_id = c.id))
	RETURNING id, created_at
	`

	out := log
	err := q.QueryRowContext(ctx, query,
		log.ConversationID, userID, nullableInt64(log.MessageID),
		log.SelectedModel, log.QueryType, log.LatencyMS, log.CostEstimate, log.Reasoning, log.Query,
	).Scan(&out.ID, &out.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("conversation %d: %w", log.ConversationID, common.ErrNotFound)
		}
		return nil, fmt.Errorf("error creating routing log: %w", err)
	}
	return &out, nil
}

// ListRoutingLogs returns routing logs newest first, with the token count of the
// referenced message. A zero Limit returns every matching row.
func (p *PostgresDB) ListRoutingLogs(ctx context.Context, filter db.RoutingLogFilter) ([]db.RoutingLog, error) {
	var b strings.Builder
	b.WriteString(`
	SELECT rl.id, rl.conversation_id, rl.message_id, rl.selected_model, rl.query_type,
	       rl.latency_ms, rl.cost_estimate, rl.reasoning, rl.query_preview, rl.created_at, COALESCE(m.tokens, 0)
	FROM routing_logs rl
	JOIN conversations c ON c.id = rl.conversation_id
	LEFT JOIN messages m ON m.id = rl.message_id
	WHERE ($1::bigint IS NULL OR c.user_id = $1)
	  AND ($2::bigint IS NULL OR rl.conversation_id = $2)
	ORDER BY rl.created_at DESC, rl.id DESC`)

	args := []any{nullableInt64(filter.UserID), nullableInt64(filter.ConversationID)}
	if filter.Limit > 0 {
		b.WriteString("\n\tLIMIT $3")
		args = append(args, filter.Limit)
	}

	rows, err := p.conn.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("error querying routing logs: %w", err)
	}
	defer rows.Close()

	logs := []db.RoutingLog{}
	for rows.Next() {
		var (
			l         db.RoutingLog
			messageID sql.NullInt64
		)
		if err := rows.Scan(&l.ID, &l.ConversationID, &messageID, &l.SelectedModel, &l.QueryType,
			&l.LatencyMS, &l.CostEstimate, &l.Reasoning, &l.Query, &l.CreatedAt, &l.Tokens); err != nil {
			return nil, fmt.Errorf("error scanning routing log: %w", err)
		}
		if messageID.Valid {
			id := messageID.Int64
			l.MessageID = &id
		}
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating routing logs: %w", err)
	}
	return logs, nil
}
