package repo

import (
	"context"
	"sync"

	"github.com/energy-exec/server/internal/agent/model"
)

// MemorySessionRepository keeps sessions in process memory. Sessions never expire.
type MemorySessionRepository struct {
	mu       sync.RWMutex
	sessions map[int64]model.Session
}

func NewMemorySessionRepository() *MemorySessionRepository {
	return &MemorySessionRepository{sessions: map[int64]model.Session{}}
}

func (r *MemorySessionRepository) Get(_ context.Context, userID int64) (*model.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[userID]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (r *MemorySessionRepository) Save(_ context.Context, s *model.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.UserID] = *s
	return nil
}

func (r *MemorySessionRepository) Delete(_ context.Context, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, userID)
	return nil
}

var _ model.SessionRepository = (*MemorySessionRepository)(nil)
