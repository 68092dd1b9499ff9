package memory

import (
	"context"
	"testing"

	"quiz-runner/internal/domain"
)

func TestHistoryStoreLifecycle(t *testing.T) {
	seed := domain.HistoryEntry{Date: "2024-01-01 10:00:00", Score: 1, Total: 2, Percentage: 50}
	store := NewHistoryStore(seed)

	entries, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(entries) != 1 || entries[0] != seed {
		t.Fatalf("expected seeded entry, got %+v", entries)
	}

	next := domain.HistoryEntry{Date: "2024-01-02 10:00:00", Score: 2, Total: 2, Percentage: 100}
	if err := store.Save(context.Background(), append(entries, next)); err != nil {
		t.Fatalf("save: %v", err)
	}
	entries, _ = store.Load(context.Background())
	if len(entries) != 2 || entries[1] != next {
		t.Fatalf("expected two entries after save, got %+v", entries)
	}
	if store.Saves() != 1 {
		t.Fatalf("expected one save, got %d", store.Saves())
	}
}
