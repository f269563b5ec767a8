package main

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"casenote-nlp/internal/config"
	"casenote-nlp/internal/db"
	"casenote-nlp/internal/llm"
	"casenote-nlp/internal/metrics"
	"casenote-nlp/internal/nlp"
	"casenote-nlp/internal/repository"
	"casenote-nlp/internal/service"
)

// app reúne las dependencias compartidas por todos los comandos.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	recorder *metrics.Recorder

	analyses repository.AnalysisRepository
	notes    repository.NoteRepository
	cache    service.MetricsCache

	analyzer *service.NoteAnalyzer
	progress *service.ProgressService
	batch    *service.BatchService
	queries  *service.NoteQueryService

	closers []func()
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	a := &app{cfg: cfg, logger: logger, recorder: metrics.NewRecorder()}
	a.closers = append(a.closers, func() { _ = logger.Sync() })

	if err := a.openStore(ctx); err != nil {
		a.close()
		return nil, err
	}
	a.openCache(ctx)

	lex, err := nlp.LoadLexicon(cfg.LexiconPath)
	if err != nil {
		a.close()
		return nil, err
	}
	client, err := llm.NewFromConfig(cfg, logger)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("init llm client: %w", err)
	}

	opts := nlp.OptionsFromConfig(cfg, client, a.recorder)
	a.analyzer = service.NewNoteAnalyzer(lex, opts, a.analyses, a.cache, logger)
	a.progress = service.NewProgressService(a.analyses, a.cache, logger)
	a.batch = service.NewBatchService(a.notes, a.analyzer, cfg.AnalysisWorkers, a.recorder, logger)
	a.queries = service.NewNoteQueryService(a.analyses, logger)
	return a, nil
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.LogDevelopment {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// openStore usa Postgres cuando hay DATABASE_URL y SQLite local en otro caso.
func (a *app) openStore(ctx context.Context) error {
	if a.cfg.DatabaseURL != "" {
		pool, err := db.NewPool(ctx, a.cfg)
		if err != nil {
			return fmt.Errorf("db connect: %w", err)
		}
		a.closers = append(a.closers, pool.Close)
		if err := db.EnsureSchema(ctx, pool); err != nil {
			return err
		}
		a.analyses = repository.NewPgAnalysisRepository(pool)
		a.notes = repository.NewPgNoteRepository(pool)
		a.logger.Debug("using postgres store")
		return nil
	}

	conn, err := db.OpenSQLite(a.cfg.SQLitePath)
	if err != nil {
		return err
	}
	a.closers = append(a.closers, func() { _ = conn.Close() })
	store := repository.NewSQLiteStore(conn)
	a.analyses = store
	a.notes = store.Notes()
	a.logger.Debug("using sqlite store", zap.String("path", a.cfg.SQLitePath))
	return nil
}

func (a *app) openCache(ctx context.Context) {
	if a.cfg.RedisAddr == "" {
		return
	}
	client := redis.NewClient(&redis.Options{
		Addr:     a.cfg.RedisAddr,
		Password: a.cfg.RedisPassword,
		DB:       a.cfg.RedisDB,
	})
	ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(ctxPing).Err(); err != nil {
		// Sin cache los agregados se recalculan siempre.
		a.logger.Warn("redis ping failed, metrics cache disabled", zap.Error(err))
		_ = client.Close()
		return
	}
	a.closers = append(a.closers, func() { _ = client.Close() })
	a.cache = service.NewRedisMetricsCache(client, a.cfg.MetricsCacheTTL, a.recorder, a.logger)
}

// serveMetrics expone /metrics en segundo plano si METRICS_ADDR está definido.
func (a *app) serveMetrics(ctx context.Context) {
	if a.cfg.MetricsAddr == "" {
		return
	}
	go func() {
		if err := a.recorder.Serve(ctx, a.cfg.MetricsAddr, a.logger); err != nil {
			a.logger.Warn("metrics server stopped", zap.Error(err))
		}
	}()
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}
