package model

import (
	"context"

	"github.com/cloudwego/eino/schema"
)

// ConversationRepository keeps the short-term free chat memory for a user.
type ConversationRepository interface {
	// AddMessage appends a message to the conversation history.
	AddMessage(ctx context.Context, conversationID string, message *schema.Message) error

	// LoadHistory retrieves the conversation history, oldest first.
	LoadHistory(ctx context.Context, conversationID string) (*ConversationHistory, error)

	// ClearHistory removes all conversation history.
	ClearHistory(ctx context.Context, conversationID string) error

	// GetMessageCount returns the number of messages in the conversation.
	GetMessageCount(ctx context.Context, conversationID string) (int, error)
}

// ConversationHistory represents loaded conversation data with metadata.
type ConversationHistory struct {
	ConversationID string
	Messages       []*schema.Message
}

// LastTurns returns at most n user/assistant pairs from the end of the history.
func (h *ConversationHistory) LastTurns(n int) []*schema.Message {
	if h == nil || n <= 0 {
		return nil
	}
	max := n * 2
	if len(h.Messages) <= max {
		return h.Messages
	}
	return h.Messages[len(h.Messages)-max:]
}
