package postgres

import (
	"codecalm/internal/common"
	"codecalm/internal/repository/db"
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// AppendMessage inserts one message into a live conversation owned by userID and bumps
// the conversation's updated_at, atomically.
func (p *PostgresDB) AppendMessage(ctx context.Context, userID, conversationID int64, msg db.NewMessage) (*db.Message, error) {
	var out *db.Message
	err := p.withTx(ctx, func(ctx context.Context, tx DBTX) error {
		m, err := insertMessage(ctx, tx, userID, conversationID, msg)
		if err != nil {
			return err
		}
		out = m
		return touchConversation(ctx, tx, conversationID)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// insertMessage performs the ownership check and the insert in one statement so
// concurrent appends never interleave a read-modify-write of the history.
func insertMessage(ctx context.Context, q DBTX, userID, conversationID int64, msg db.NewMessage) (*db.Message, error) {
	query := `
	INSERT INTO messages (conversation_id, role, content, model, tokens)
	SELECT c.id, $3, $4, $5, $6
	FROM conversations c
	WHERE c.id = $1 AND c.user_id = $2 AND c.deleted_at IS NULL
	RETURNING id, created_at
	`

	out := &db.Message{
		ConversationID: conversationID,
		Role:           msg.Role,
		Content:        msg.Content,
		Model:          msg.Model,
		Tokens:         msg.Tokens,
	}
	err := q.QueryRowContext(ctx, query, conversationID, userID, msg.Role, msg.Content, msg.Model, msg.Tokens).
		Scan(&out.ID, &out.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("conversation %d: %w", conversationID, common.ErrNotFound)
		}
		return nil, fmt.Errorf("error adding message: %w", err)
	}
	return out, nil
}

const messageColumns = `id, conversation_id, role, content, model, tokens, created_at`

// GetMessages returns the live messages of a conversation in creation order
func (p *PostgresDB) GetMessages(ctx context.Context, conversationID int64) ([]db.Message, error) {
	query := `
	SELECT ` + messageColumns + `
	FROM messages
	WHERE conversation_id = $1 AND deleted_at IS NULL
	ORDER BY created_at ASC, id ASC
	`

	rows, err := p.conn.QueryContext(ctx, query, conversationID)
	if err != nil {
		return nil, fmt.Errorf("error querying messages: %w", err)
	}
	return scanMessages(rows)
}

// GetRecentMessages returns the last limit live messages, still in creation order
func (p *PostgresDB) GetRecentMessages(ctx context.Context, conversationID int64, limit int) ([]db.Message, error) {
	query := `
	SELECT ` + messageColumns + ` FROM (
		SELECT ` + messageColumns + `
		FROM messages
		WHERE conversation_id = $1 AND deleted_at IS NULL
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	) recent
	ORDER BY created_at ASC, id ASC
	`

	rows, err := p.conn.QueryContext(ctx, query, conversationID, limit)
	if err != nil {
		return nil, fmt.Errorf("error querying recent messages: %w", err)
	}
	return scanMessages(rows)
}

func scanMessages(rows *sql.Rows) ([]db.Message, error) {
	defer rows.Close()

	messages := []db.Message{}
	for rows.Next() {
		var m db.Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Role, &m.Content, &m.Model, &m.Tokens, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning message: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating messages: %w", err)
	}
	return messages, nil
}
