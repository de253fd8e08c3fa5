package repository

import (
	"context"
	"sort"
	"sync"

	"chat-sync/internal/domain"
)

// MemoryMessageRepository implementa MessageRepository en memoria.
type MemoryMessageRepository struct {
	mu    sync.Mutex
	items []domain.Message
}

func NewMemoryMessageRepository() *MemoryMessageRepository {
	return &MemoryMessageRepository{}
}

func (r *MemoryMessageRepository) Create(_ context.Context, message domain.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, message)
	return nil
}

func (r *MemoryMessageRepository) ListBySessionID(_ context.Context, sessionID string) ([]domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []domain.Message
	for _, m := range r.items {
		if m.SessionID == sessionID {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}
