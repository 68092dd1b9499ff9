package app

import (
	"context"
	"fmt"
	"sync"

	"quiz-runner/internal/domain"
)

// HistoryBackend persists the full history sequence (file, Redis, Postgres, memory).
type HistoryBackend interface {
	// Load returns the persisted entries oldest first, or none when nothing was saved yet.
	Load(ctx context.Context) ([]domain.HistoryEntry, error)
	// Save overwrites the persisted sequence with entries.
	Save(ctx context.Context, entries []domain.HistoryEntry) error
}

// HistoryStore is the append-only log of completed attempts.
// Entries are kept in memory and written through to the backend on every append.
type HistoryStore struct {
	backend HistoryBackend

	mu      sync.RWMutex
	entries []domain.HistoryEntry
}

func NewHistoryStore(backend HistoryBackend) *HistoryStore {
	return &HistoryStore{backend: backend}
}

// Load replaces the in-memory sequence with the backend's contents.
func (h *HistoryStore) Load(ctx context.Context) error {
	entries, err := h.backend.Load(ctx)
	if err != nil {
		return err
	}
	h.mu.Lock()
	h.entries = append([]domain.HistoryEntry(nil), entries...)
	h.mu.Unlock()
	return nil
}

// Append adds entry and persists the whole sequence before returning.
// On a failed write the entry is dropped again so memory matches storage.
func (h *HistoryStore) Append(ctx context.Context, entry domain.HistoryEntry) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.entries = append(h.entries, entry)
	snapshot := append([]domain.HistoryEntry(nil), h.entries...)
	if err := h.backend.Save(ctx, snapshot); err != nil {
		h.entries = h.entries[:len(h.entries)-1]
		return fmt.Errorf("save history: %w", err)
	}
	return nil
}

// All returns a copy of the entries, oldest first.
func (h *HistoryStore) All() []domain.HistoryEntry {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return append([]domain.HistoryEntry(nil), h.entries...)
}
