// Package channel defines how the assistant talks to a chat network.
package channel

import "context"

// Message is an incoming text message.
type Message struct {
	// Source identifies the channel, e.g. "telegram".
	Source string

	// SenderID is 0 when the sender could not be identified.
	SenderID int64

	ChatID    int64
	MessageID int64
	Content   string

	// Timestamp in unix milliseconds.
	Timestamp int64
}

// Response is an outgoing message.
type Response struct {
	ChatID  int64
	Content string

	// Markdown asks for Markdown rendering; channels fall back to plain text
	// when the content does not parse.
	Markdown bool
}

// Channel is a chat transport.
type Channel interface {
	Name() string

	// Start delivers messages to handler one at a time. Blocks until ctx is cancelled.
	Start(ctx context.Context, handler MessageHandler) error

	// Send delivers resp and returns the id of the last message sent.
	Send(ctx context.Context, resp Response) (int64, error)

	Stop() error
}

// MessageHandler is called for each received message.
type MessageHandler func(ctx context.Context, msg Message) error
