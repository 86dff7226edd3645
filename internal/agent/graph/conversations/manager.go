package conversations

import (
	"context"
	"strconv"

	"github.com/cloudwego/eino/schema"

	"github.com/energy-exec/server/internal/agent/model"
)

// MessagesManager keeps the free chat memory of each user.
type MessagesManager struct {
	conversationRepo model.ConversationRepository
	maxTurns         int
}

func NewMessagesManager(conversationRepo model.ConversationRepository, config model.ConversationConfig) *MessagesManager {
	return &MessagesManager{
		conversationRepo: conversationRepo,
		maxTurns:         config.MaxTurns,
	}
}

// ConversationID is the memory key of a chat user.
func ConversationID(userID int64) string {
	return strconv.FormatInt(userID, 10)
}

// History returns the last turns to send along with a new message.
func (mm *MessagesManager) History(ctx context.Context, userID int64) ([]*schema.Message, error) {
	history, err := mm.conversationRepo.LoadHistory(ctx, ConversationID(userID))
	if err != nil {
		return nil, err
	}
	return history.LastTurns(mm.maxTurns), nil
}

// SaveExchange stores a completed user/assistant exchange.
func (mm *MessagesManager) SaveExchange(ctx context.Context, userID int64, query, reply string) error {
	id := ConversationID(userID)
	if err := mm.conversationRepo.AddMessage(ctx, id, schema.UserMessage(query)); err != nil {
		return err
	}
	return mm.conversationRepo.AddMessage(ctx, id, schema.AssistantMessage(reply, nil))
}

func (mm *MessagesManager) Clear(ctx context.Context, userID int64) error {
	return mm.conversationRepo.ClearHistory(ctx, ConversationID(userID))
}
