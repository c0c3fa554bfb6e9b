package repository

import (
	"context"
	"sync"

	"banknote-review-service/internal/model"
)

// MemoryReviewStore keeps aggregates in process memory with the same
// versioned write semantics as ReviewRepository.
type MemoryReviewStore struct {
	mu    sync.RWMutex
	items map[string]*model.ReviewAggregate
}

func NewMemoryReviewStore() *MemoryReviewStore {
	return &MemoryReviewStore{items: make(map[string]*model.ReviewAggregate)}
}

func (s *MemoryReviewStore) Find(_ context.Context, key string) (*model.ReviewAggregate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	agg, ok := s.items[key]
	if !ok {
		return nil, ErrNotFound
	}
	return agg.Clone(), nil
}

func (s *MemoryReviewStore) Insert(_ context.Context, agg *model.ReviewAggregate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[agg.ID]; ok {
		return ErrConflict
	}
	s.items[agg.ID] = agg.Clone()
	return nil
}

func (s *MemoryReviewStore) Replace(_ context.Context, agg *model.ReviewAggregate, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.items[agg.ID]
	if !ok || cur.Version != expectedVersion {
		return ErrConflict
	}
	s.items[agg.ID] = agg.Clone()
	return nil
}
