package postgres

import (
	"codecalm/internal/common"
	"codecalm/internal/logger"
	"codecalm/internal/repository/db"
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
)

// CreateConversation creates a new conversation for a user
func (p *PostgresDB) CreateConversation(ctx context.Context, userID int64, assistantType, title string) (*db.Conversation, error) {
	return createConversation(ctx, p.conn, userID, assistantType, title)
}

func createConversation(ctx context.Context, q DBTX, userID int64, assistantType, title string) (*db.Conversation, error) {
	conv := &db.Conversation{
		UserID:        userID,
		AssistantType: assistantType,
		Title:         title,
	}

	query := `
	INSERT INTO conversations (user_id, assistant_type, title)
	VALUES ($1, $2, $3)
	RETURNING id, created_at, updated_at
	`

	err := q.QueryRowContext(ctx, query, userID, assistantType, title).Scan(&conv.ID, &conv.CreatedAt, &conv.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("error creating conversation: %w", err)
	}

	logger.FromContext(ctx).WithFields(logrus.Fields{
		"conversation_id": conv.ID,
		"user_id":         userID,
		"assistant_type":  assistantType,
	}).Info("Created new conversation")

	return conv, nil
}

// GetConversation returns a live conversation owned by userID
func (p *PostgresDB) GetConversation(ctx context.Context, userID, conversationID int64) (*db.Conversation, error) {
	query := `
	SELECT id, user_id, assistant_type, title, created_at, updated_at
	FROM conversations
	WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL
	`

	var conv db.Conversation
	err := p.conn.QueryRowContext(ctx, query, conversationID, userID).
		Scan(&conv.ID, &conv.UserID, &conv.AssistantType, &conv.Title, &conv.CreatedAt, &conv.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("conversation %d: %w", conversationID, common.ErrNotFound)
		}
		return nil, fmt.Errorf("error querying conversation: %w", err)
	}
	return &conv, nil
}

// ListConversations returns the user's live conversations, most recently updated first
func (p *PostgresDB) ListConversations(ctx context.Context, userID int64, filter db.ListConversationsFilter) ([]db.Conversation, error) {
	query := `
	SELECT c.id, c.user_id, c.assistant_type, c.title, c.created_at, c.updated_at,
	       (SELECT COUNT(*) FROM messages m WHERE m.conversation_id = c.id AND m.deleted_at IS NULL)
	FROM conversations c
	WHERE c.user_id = $1 AND c.deleted_at IS NULL AND ($2::text = '' OR c.assistant_type = $2)
	ORDER BY c.updated_at DESC, c.id DESC
	LIMIT $3
	`

	rows, err := p.conn.QueryContext(ctx, query, userID, filter.AssistantType, filter.Limit)
	if err != nil {
		return nil, fmt.Errorf("error querying conversations: %w", err)
	}
	defer rows.Close()

	conversations := []db.Conversation{}
	for rows.Next() {
		var conv db.Conversation
		if err := rows.Scan(&conv.ID, &conv.UserID, &conv.AssistantType, &conv.Title, &conv.CreatedAt, &conv.UpdatedAt, &conv.MessageCount); err != nil {
			return nil, fmt.Errorf("error scanning conversation: %w", err)
		}
		conversations = append(conversations, conv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating conversations: %w", err)
	}

	if filter.IncludeMessages {
		for i := range conversations {
			msgs, err := p.GetMessages(ctx, conversations[i].ID)
			if err != nil {
				return nil, err
			}
			conversations[i].Messages = msgs
		}
	}

	return conversations, nil
}

// SoftDeleteConversation hides the conversation from every read path. Rows are kept.
func (p *PostgresDB) SoftDeleteConversation(ctx context.Context, userID, conversationID int64) error {
	query := `
	UPDATE conversations
	SET deleted_at = NOW(), updated_at = NOW()
	WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL
	`

	res, err := p.conn.ExecContext(ctx, query, conversationID, userID)
	if err != nil {
		return fmt.Errorf("error deleting conversation: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error deleting conversation: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("conversation %d: %w", conversationID, common.ErrNotFound)
	}

	logger.FromContext(ctx).WithFields(logrus.Fields{"conversation_id": conversationID, "user_id": userID}).Info("Soft-deleted conversation")
	return nil
}

func touchConversation(ctx context.Context, q DBTX, conversationID int64) error {
	if _, err := q.ExecContext(ctx, `UPDATE conversations SET updated_at = NOW() WHERE id = $1`, conversationID); err != nil {
		return fmt.Errorf("error updating conversation timestamp: %w", err)
	}
	return nil
}
