package memory

import (
	"context"
	"sync"

	"quiz-runner/internal/domain"
)

// HistoryStore is a volatile history backend; entries are lost on exit.
type HistoryStore struct {
	mu      sync.RWMutex
	entries []domain.HistoryEntry
	saves   int
}

func NewHistoryStore(seed ...domain.HistoryEntry) *HistoryStore {
	return &HistoryStore{entries: append([]domain.HistoryEntry(nil), seed...)}
}

func (s *HistoryStore) Load(_ context.Context) ([]domain.HistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.HistoryEntry(nil), s.entries...), nil
}

func (s *HistoryStore) Save(_ context.Context, entries []domain.HistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append([]domain.HistoryEntry(nil), entries...)
	s.saves++
	return nil
}

// Saves reports how many times the full sequence was written.
func (s *HistoryStore) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}
