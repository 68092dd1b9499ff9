package cli

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"quiz-runner/internal/app"
	"quiz-runner/internal/config"
	"quiz-runner/internal/infra/file"
	"quiz-runner/internal/infra/memory"
	pghistory "quiz-runner/internal/infra/postgres"
	redishistory "quiz-runner/internal/infra/redis"
	"quiz-runner/internal/loader"
	"quiz-runner/internal/logger"
)

// deps holds everything a command needs once config has been applied.
type deps struct {
	cfg     config.Config
	log     *zap.Logger
	history *app.HistoryStore
	source  app.QuestionSource
	closers []func()
}

func setup(ctx context.Context, configPath string) (*deps, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	log, err := logger.New(cfg)
	if err != nil {
		return nil, err
	}

	rt := &deps{cfg: cfg, log: log}
	backend, err := rt.historyBackend(ctx)
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.history = app.NewHistoryStore(backend)
	if err := rt.history.Load(ctx); err != nil {
		rt.Close()
		return nil, err
	}

	cacheTTL := config.Duration(cfg.Quiz.CacheTTL, 0)
	rt.source = memory.NewQuestionCache(loader.NewFileLoader(cfg.Quiz.Strict), cacheTTL)

	log.Debug("dependencies ready",
		zap.String("config", configPath),
		zap.String("history_backend", cfg.History.Backend),
		zap.Int("history_entries", len(rt.history.All())),
		zap.Duration("cache_ttl", cacheTTL),
	)
	return rt, nil
}

func (rt *deps) historyBackend(ctx context.Context) (app.HistoryBackend, error) {
	cfg := rt.cfg
	switch cfg.History.Backend {
	case config.BackendFile:
		return file.NewHistoryStore(cfg.History.Path), nil
	case config.BackendMemory:
		return memory.NewHistoryStore(), nil
	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		rt.closers = append(rt.closers, func() { _ = client.Close() })
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("redis ping: %w", err)
		}
		return redishistory.NewHistoryStore(client, cfg.Redis.Key), nil
	case config.BackendPostgres:
		if err := runMigrationsWithConfig(ctx, cfg, rt.log); err != nil {
			return nil, err
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, fmt.Errorf("postgres connect: %w", err)
		}
		rt.closers = append(rt.closers, pool.Close)
		return pghistory.NewHistoryStore(pool), nil
	default:
		return nil, fmt.Errorf("unknown history backend %q", cfg.History.Backend)
	}
}

// Close releases backend connections and flushes the logger.
func (rt *deps) Close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		rt.closers[i]()
	}
	_ = rt.log.Sync()
}
