package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"chat-sync/internal/domain"
)

// MemorySessionRepository implementa SessionRepository en memoria. Lo usa
// el servidor de referencia cuando no hay DATABASE_URL, y los tests.
type MemorySessionRepository struct {
	mu    sync.Mutex
	items map[string]domain.Session
}

func NewMemorySessionRepository() *MemorySessionRepository {
	return &MemorySessionRepository{items: make(map[string]domain.Session)}
}

func (r *MemorySessionRepository) Create(_ context.Context, session domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[session.ID] = session
	return nil
}

func (r *MemorySessionRepository) GetByID(_ context.Context, id string) (domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.items[id]
	if !ok {
		return domain.Session{}, ErrNotFound
	}
	return s, nil
}

func (r *MemorySessionRepository) List(_ context.Context, userID string, page, pageSize int) ([]domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	all := make([]domain.Session, 0, len(r.items))
	for _, s := range r.items {
		if s.UserID == userID {
			all = append(all, s)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].UpdatedAt.Equal(all[j].UpdatedAt) {
			return all[i].UpdatedAt.After(all[j].UpdatedAt)
		}
		return all[i].ID > all[j].ID
	})

	start := (page - 1) * pageSize
	if start >= len(all) {
		return []domain.Session{}, nil
	}
	end := start + pageSize
	if end > len(all) {
		end = len(all)
	}
	out := make([]domain.Session, end-start)
	copy(out, all[start:end])
	return out, nil
}

func (r *MemorySessionRepository) Update(_ context.Context, session domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[session.ID]; !ok {
		return ErrNotFound
	}
	r.items[session.ID] = session
	return nil
}

func (r *MemorySessionRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return ErrNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *MemorySessionRepository) Touch(_ context.Context, id, preview string, when time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.items[id]
	if !ok {
		return ErrNotFound
	}
	s.Preview = preview
	s.UpdatedAt = when
	r.items[id] = s
	return nil
}
