// cmd/dealbot-server/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"dealbot/internal/audit"
	"dealbot/internal/backend"
	"dealbot/internal/brain"
	"dealbot/internal/common/config"
	"dealbot/internal/common/database"
	"dealbot/internal/common/logger"
	"dealbot/internal/common/observability"
	"dealbot/internal/resolver"
	"dealbot/internal/server"
	"dealbot/internal/store"
)

func main() {
	zapLog := logger.New("info", "console")
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting answer server...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	obs := observability.New("dealbot-server")
	defer obs.Shutdown()

	tracing, err := observability.NewTracing("dealbot-server", os.Getenv("JAEGER_ENDPOINT"))
	if err != nil {
		zapLog.Fatal("tracing setup failed", zap.Error(err))
	}
	defer tracing.Shutdown()

	ctx := context.Background()

	// --- Load the deal record snapshot ---
	var snapshot *store.Store
	switch cfg.Records.Source {
	case "postgres":
		pg, err := database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			zapLog.Fatal("postgres connection failed", zap.Error(err))
		}
		defer pg.Close()
		snapshot, err = store.LoadFromPostgres(ctx, pg.GetDB(), cfg.Database.Postgres, log)
		if err != nil {
			zapLog.Fatal("record load from postgres failed", zap.Error(err))
		}
	default:
		snapshot, err = store.LoadFromCSV(cfg.Records.CSVPath, log)
		if err != nil {
			zapLog.Fatal("record load from csv failed", zap.Error(err))
		}
	}
	zapLog.Info("Deal records loaded", zap.Int("count", snapshot.Size()))

	// --- Load the synonym brain ---
	b, err := brain.Load(cfg.Brain, cfg.Resolver, log)
	if err != nil {
		zapLog.Fatal("brain load failed", zap.Error(err))
	}
	zapLog.Info("Synonym brain loaded", zap.String("version", b.Version()))

	res := resolver.New(b, snapshot)

	// --- Pick the answer backend ---
	model := cfg.Server.Model
	if model == "" {
		model = cfg.Backends.Default
	}
	var answerer backend.Answerer
	switch model {
	case "local":
		answerer = backend.NewLocal(res)
	case "ollama":
		answerer = backend.NewOllama(cfg.Backends.Ollama, res, b, log)
	default:
		remoteCfg, ok := cfg.Backends.Remote[model]
		if !ok {
			zapLog.Fatal("unknown backend", zap.String("backend", model))
		}
		answerer = backend.NewRemote(model, remoteCfg)
	}
	zapLog.Info("Answer backend selected", zap.String("backend", answerer.Name()))

	// --- Optional answer cache ---
	var cache *database.RedisClient
	if cfg.Server.CacheTTL > 0 {
		cache, err = database.NewRedis(cfg.Database.Redis)
		if err == nil {
			err = cache.Ping(ctx)
		}
		if err != nil {
			zapLog.Warn("redis unavailable, running without answer cache", zap.Error(err))
			cache = nil
		} else {
			defer cache.Close()
			zapLog.Info("Answer cache enabled", zap.Int("ttl_seconds", cfg.Server.CacheTTL))
		}
	}

	// --- Optional audit sink ---
	sink := audit.NewNoopSink()
	if cfg.Audit.Enabled && cfg.Database.Elasticsearch.Enabled {
		esClient, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			zapLog.Fatal("elasticsearch connection failed", zap.Error(err))
		}
		sink = audit.NewElasticSink(esClient, cfg.Database.Elasticsearch.IndexName, log)
		zapLog.Info("Audit sink enabled", zap.String("index", cfg.Database.Elasticsearch.IndexName))
	}

	srv := server.New(cfg.Server, answerer, cache, sink, tracing, obs, server.Info{
		AppVersion:   cfg.App.Version,
		BrainVersion: b.Version(),
		BrainSize:    len(b.Patterns()),
		Records:      snapshot.Size(),
	}, log)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		zapLog.Info("Shutdown signal received", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			zapLog.Fatal("server failed", zap.Error(err))
		}
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Millisecond)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("shutdown failed", zap.Error(err))
	}
	zapLog.Info("Answer server stopped gracefully")
}
