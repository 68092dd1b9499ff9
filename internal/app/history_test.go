package app_test

import (
	"context"
	"errors"
	"testing"

	"quiz-runner/internal/app"
	"quiz-runner/internal/domain"
	"quiz-runner/internal/infra/memory"
)

func TestHistoryStoreAppendPersistsWholeSequence(t *testing.T) {
	ctx := context.Background()
	first := domain.HistoryEntry{Date: "2024-01-01 08:00:00", Score: 1, Total: 4, Percentage: 25}
	backend := memory.NewHistoryStore(first)
	store := app.NewHistoryStore(backend)
	if err := store.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}

	second := domain.HistoryEntry{Date: "2024-01-02 08:00:00", Score: 4, Total: 4, Percentage: 100}
	if err := store.Append(ctx, second); err != nil {
		t.Fatalf("append: %v", err)
	}

	persisted, _ := backend.Load(ctx)
	if len(persisted) != 2 || persisted[0] != first || persisted[1] != second {
		t.Fatalf("expected both entries persisted in order, got %+v", persisted)
	}

	all := store.All()
	all[0].Score = 99
	if store.All()[0].Score != 1 {
		t.Fatalf("All must return a copy")
	}
}

func TestHistoryStoreRollsBackFailedSave(t *testing.T) {
	store := app.NewHistoryStore(failingBackend{})
	err := store.Append(context.Background(), domain.HistoryEntry{Date: "2024-01-01 08:00:00", Score: 1, Total: 1, Percentage: 100})
	if !errors.Is(err, errBackendDown) {
		t.Fatalf("expected wrapped backend error, got %v", err)
	}
	if len(store.All()) != 0 {
		t.Fatalf("failed append stayed in memory")
	}
}

func TestHistoryStoreLoadError(t *testing.T) {
	store := app.NewHistoryStore(failingBackend{})
	err := store.Load(context.Background())
	var loadErr *domain.LoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("expected load error, got %v", err)
	}
}

var errBackendDown = errors.New("backend down")

type failingBackend struct{}

func (failingBackend) Load(context.Context) ([]domain.HistoryEntry, error) {
	return nil, &domain.LoadError{Source: "test", Err: errBackendDown}
}

func (failingBackend) Save(context.Context, []domain.HistoryEntry) error {
	return errBackendDown
}
