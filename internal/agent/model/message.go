package model

import (
	"context"
	"time"
)

type Direction string

const (
	DirectionIncoming Direction = "incoming"
	DirectionOutgoing Direction = "outgoing"
)

// MessageLogEntry is an append-only audit record of a chat message.
type MessageLogEntry struct {
	ID            int64     `json:"id"`
	ChatMessageID int64     `json:"chatMessageId"`
	Direction     Direction `json:"direction"`
	Content       string    `json:"content"`
	CreatedAt     time.Time `json:"createdAt"`
}

type MessageLogRepository interface {
	Append(ctx context.Context, entry MessageLogEntry) (*MessageLogEntry, error)

	// GetByChatMessageID returns nil, nil on a miss.
	GetByChatMessageID(ctx context.Context, chatMessageID int64) (*MessageLogEntry, error)

	// ListRecent returns the newest entries first.
	ListRecent(ctx context.Context, limit int) ([]MessageLogEntry, error)

	// ListByDate returns entries created on the given UTC date, oldest first.
	ListByDate(ctx context.Context, date string) ([]MessageLogEntry, error)
}
