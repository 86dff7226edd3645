package repo

import (
	"context"
	"sync"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/energy-exec/server/internal/agent/model"
)

type memoryConversation struct {
	messages []*schema.Message
	touched  time.Time
}

// MemoryConversationRepository is the in-process chat memory used when Redis is not configured.
type MemoryConversationRepository struct {
	mu       sync.Mutex
	ttl      time.Duration
	maxItems int
	now      func() time.Time
	convs    map[string]*memoryConversation
}

func NewMemoryConversationRepository(ttl time.Duration, maxTurns int) *MemoryConversationRepository {
	return &MemoryConversationRepository{
		ttl:      ttl,
		maxItems: maxTurns * 2,
		now:      time.Now,
		convs:    map[string]*memoryConversation{},
	}
}

// live returns the conversation, dropping it first if it expired.
func (r *MemoryConversationRepository) live(id string) *memoryConversation {
	c, ok := r.convs[id]
	if !ok {
		return nil
	}
	if r.ttl > 0 && r.now().Sub(c.touched) > r.ttl {
		delete(r.convs, id)
		return nil
	}
	return c
}

func (r *MemoryConversationRepository) AddMessage(_ context.Context, conversationID string, message *schema.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c := r.live(conversationID)
	if c == nil {
		c = &memoryConversation{}
		r.convs[conversationID] = c
	}
	c.messages = append(c.messages, message)
	if r.maxItems > 0 && len(c.messages) > r.maxItems {
		c.messages = c.messages[len(c.messages)-r.maxItems:]
	}
	c.touched = r.now()
	return nil
}

func (r *MemoryConversationRepository) LoadHistory(_ context.Context, conversationID string) (*model.ConversationHistory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	h := &model.ConversationHistory{ConversationID: conversationID, Messages: []*schema.Message{}}
	if c := r.live(conversationID); c != nil {
		h.Messages = append(h.Messages, c.messages...)
	}
	return h, nil
}

func (r *MemoryConversationRepository) ClearHistory(_ context.Context, conversationID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.convs, conversationID)
	return nil
}

func (r *MemoryConversationRepository) GetMessageCount(_ context.Context, conversationID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c := r.live(conversationID); c != nil {
		return len(c.messages), nil
	}
	return 0, nil
}

var _ model.ConversationRepository = (*MemoryConversationRepository)(nil)
