package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"quiz-runner/internal/domain"
)

// DefaultKey is where the history array lives when no key is configured.
const DefaultKey = "quiz:history"

// HistoryStore keeps the history as one JSON array under a single key:
//
//	SET quiz:history [{"date":...,"score":...,"total":...,"percentage":...}, ...]
//
// Every save overwrites the value, matching the file backend's semantics.
type HistoryStore struct {
	client *redis.Client
	key    string
}

func NewHistoryStore(client *redis.Client, key string) *HistoryStore {
	if key == "" {
		key = DefaultKey
	}
	return &HistoryStore{client: client, key: key}
}

func (s *HistoryStore) Load(ctx context.Context) ([]domain.HistoryEntry, error) {
	raw, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, &domain.LoadError{Source: "redis " + s.key, Err: err}
	}
	var entries []domain.HistoryEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, &domain.LoadError{Source: "redis " + s.key, Err: fmt.Errorf("decode history: %w", err)}
	}
	return entries, nil
}

func (s *HistoryStore) Save(ctx context.Context, entries []domain.HistoryEntry) error {
	if entries == nil {
		entries = []domain.HistoryEntry{}
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", s.key, err)
	}
	return nil
}
