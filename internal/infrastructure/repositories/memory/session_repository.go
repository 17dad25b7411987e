package memory

import (
	"context"
	"sync"

	"gridcast/internal/core/domain"
	"gridcast/internal/core/ports"
)

// MemorySessionRepository keeps the single session snapshot in process
// memory. Used when Redis is disabled or unreachable.
type MemorySessionRepository struct {
	session *domain.Session
	mu      sync.RWMutex
}

func NewMemorySessionRepository() ports.SessionRepository {
	return &MemorySessionRepository{}
}

func (r *MemorySessionRepository) Save(ctx context.Context, session *domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.session = session.Clone()
	return nil
}

func (r *MemorySessionRepository) Load(ctx context.Context) (*domain.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.session == nil {
		return domain.NewSession(), nil
	}
	return r.session.Clone(), nil
}

func (r *MemorySessionRepository) Clear(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.session = nil
	return nil
}
