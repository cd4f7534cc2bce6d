package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"registros/internal/core"
	"registros/internal/records"
)

// Store keeps records in process memory, one collection per user.
type Store struct {
	mu    sync.Mutex
	now   func() time.Time
	items map[string][]core.Record
}

func New() *Store {
	return &Store{now: time.Now, items: make(map[string][]core.Record)}
}

// Create stores the record under a fresh UUIDv7.
func (s *Store) Create(_ context.Context, userID string, r core.Record) (string, error) {
	if userID == "" {
		return "", records.ErrEmptyUser
	}
	if err := r.Validate(); err != nil {
		return "", err
	}
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate id: %w", err)
	}
	r.ID = id.String()
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.CreatedAt == 0 {
		r.CreatedAt = s.now().UnixMilli()
	}
	s.items[userID] = append(s.items[userID], r)
	return r.ID, nil
}

func (s *Store) Delete(_ context.Context, userID, id string) error {
	if userID == "" {
		return records.ErrEmptyUser
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	items := s.items[userID]
	for i, r := range items {
		if r.ID == id {
			s.items[userID] = append(items[:i:i], items[i+1:]...)
			return nil
		}
	}
	return records.ErrNotFound
}

// List returns a copy of the user's records in insertion order.
func (s *Store) List(_ context.Context, userID string) ([]core.Record, error) {
	if userID == "" {
		return nil, records.ErrEmptyUser
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Record(nil), s.items[userID]...), nil
}

func (s *Store) Ping(context.Context) error { return nil }
