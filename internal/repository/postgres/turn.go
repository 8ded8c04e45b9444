package postgres

import (
	"codecalm/internal/logger"
	"codecalm/internal/repository/db"
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

// RecordTurn writes one chat turn in a single transaction: the conversation when new,
// the user message, the assistant reply, the routing log and the updated_at bump.
// Nothing is written if any step fails.
func (p *PostgresDB) RecordTurn(ctx context.Context, turn db.TurnRecord) (*db.TurnResult, error) {
	var result db.TurnResult

	err := p.withTx(ctx, func(ctx context.Context, tx DBTX) error {
		if turn.ConversationID == nil {
			conv, err := createConversation(ctx, tx, turn.UserID, turn.AssistantType, turn.Title)
			if err != nil {
				return err
			}
			result.ConversationID = conv.ID
		} else {
			result.ConversationID = *turn.ConversationID
		}

		userMsg, err := insertMessage(ctx, tx, turn.UserID, result.ConversationID, turn.UserMessage)
		if err != nil {
			return err
		}
		result.UserMessage = *userMsg

		reply, err := insertMessage(ctx, tx, turn.UserID, result.ConversationID, turn.Reply)
		if err != nil {
			return err
		}
		result.Reply = *reply

		routing := turn.Routing
		routing.ConversationID = result.ConversationID
		routing.MessageID = &reply.ID
		log, err := insertRoutingLog(ctx, tx, turn.UserID, routing)
		if err != nil {
			return err
		}
		result.RoutingLogID = log.ID

		return touchConversation(ctx, tx, result.ConversationID)
	})
	if err != nil {
		return nil, fmt.Errorf("error recording turn: %w", err)
	}

	logger.FromContext(ctx).WithFields(logrus.Fields{
		"conversation_id": result.ConversationID,
		"reply_id":        result.Reply.ID,
		"routing_log_id":  result.RoutingLogID,
	}).Debug("Recorded chat turn")

	return &result, nil
}
