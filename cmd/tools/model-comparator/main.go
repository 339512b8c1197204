// cmd/tools/model-comparator/main.go

// model-comparator benchmarks several backend flavors against the same
// generated question batch. It boots one managed answer-server process
// per model, runs the batch through each, and writes a ranked
// comparison report with pairwise disagreement rates.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"dealbot/internal/backend"
	"dealbot/internal/common/config"
	"dealbot/internal/common/database"
	"dealbot/internal/common/logger"
	"dealbot/internal/comparator"
	"dealbot/internal/harness"
	"dealbot/internal/store"
)

func main() {
	var (
		models       = flag.String("models", "local,ollama", "comma-separated backend flavors to compare")
		basePort     = flag.Int("base-port", 5101, "first port for managed servers; each model gets the next one")
		questions    = flag.Int("questions", 50, "number of shared questions to generate")
		seed         = flag.Int64("seed", time.Now().UnixNano(), "random seed for the shared batch")
		reference    = flag.String("reference", "", "model disagreement is measured against (default: first model)")
		concurrent   = flag.Bool("concurrent", false, "run all backends at the same time instead of sequentially")
		serverCmd    = flag.String("server-cmd", "./bin/dealbot-server", "answer server binary to launch per model")
		startTimeout = flag.Duration("start-timeout", 30*time.Second, "how long to wait for each server's /health")
		outputFolder = flag.String("output-folder", "", "folder for the comparison report (default from config)")
	)
	flag.Parse()

	zapLog := logger.New("info", "console")
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}
	if *outputFolder == "" {
		*outputFolder = cfg.Harness.OutputFolder
	}

	names := splitModels(*models)
	if len(names) < 2 {
		zapLog.Fatal("need at least two models to compare", zap.String("models", *models))
	}
	if *reference == "" {
		*reference = names[0]
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		zapLog.Info("Interrupt received, stopping comparison...")
		cancel()
	}()

	snapshot := loadStore(ctx, cfg, zapLog, log)

	gen := harness.NewGenerator(snapshot, *seed)
	cases, err := gen.Generate(*questions, "")
	if err != nil {
		zapLog.Fatal("case generation failed", zap.Error(err))
	}
	zapLog.Info("Shared question batch generated",
		zap.Int("cases", len(cases)),
		zap.Int64("seed", *seed),
	)

	// One managed server per model, each told which backend to serve and
	// where to listen through its environment.
	var backends []backend.Answerer
	for i, name := range names {
		port := *basePort + i
		baseURL := fmt.Sprintf("http://127.0.0.1:%d", port)

		srv, err := comparator.StartServer(ctx, name, []string{*serverCmd}, baseURL, *startTimeout, log,
			fmt.Sprintf("SERVER_MODEL=%s", name),
			fmt.Sprintf("SERVER_PORT=%d", port),
			"SERVER_CACHE_TTL=0",
		)
		if err != nil {
			zapLog.Fatal("failed to start managed server", zap.String("model", name), zap.Error(err))
		}
		defer srv.Stop(10 * time.Second)

		backends = append(backends, backend.NewRemote(name, config.RemoteConfig{
			URL:        srv.BaseURL(),
			Timeout:    cfg.Harness.Timeout,
			MaxRetries: cfg.Harness.MaxRetries,
		}))
	}

	opts := harness.Options{
		Concurrency: cfg.Harness.Concurrency,
		MaxRetries:  cfg.Harness.MaxRetries,
		RetryDelay:  time.Duration(cfg.Harness.RetryDelay) * time.Millisecond,
		CaseTimeout: time.Duration(cfg.Harness.Timeout) * time.Millisecond,
	}

	runs := comparator.RunBackends(ctx, backends, cases, opts, *concurrent, *seed, log)

	report := comparator.RenderComparison(runs, *reference)
	fmt.Print(report)

	if err := os.MkdirAll(*outputFolder, 0o755); err != nil {
		zapLog.Fatal("failed to create output folder", zap.Error(err))
	}

	// Each backend's full summary lands in its own subfolder so a run can
	// later serve as that model's baseline.
	for _, run := range runs {
		jsonPath, _, err := harness.Save(run.Summary, run.Results, filepath.Join(*outputFolder, run.Backend))
		if err != nil {
			zapLog.Fatal("failed to write backend summary", zap.String("model", run.Backend), zap.Error(err))
		}
		fmt.Printf("Summary for %s written to %s\n", run.Backend, jsonPath)
	}

	path := filepath.Join(*outputFolder, fmt.Sprintf("comparison_%s.md", time.Now().Format("20060102_150405")))
	if err := os.WriteFile(path, []byte(report), 0o644); err != nil {
		zapLog.Fatal("failed to write comparison report", zap.Error(err))
	}
	fmt.Printf("\nReport written to %s\n", path)
}

func splitModels(list string) []string {
	var names []string
	for _, part := range strings.Split(list, ",") {
		if name := strings.TrimSpace(part); name != "" {
			names = append(names, name)
		}
	}
	return names
}

func loadStore(ctx context.Context, cfg *config.Config, zapLog *zap.Logger, log logger.Logger) *store.Store {
	if cfg.Records.Source == "postgres" {
		pg, err := database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			zapLog.Fatal("postgres connection failed", zap.Error(err))
		}
		defer pg.Close()
		snapshot, err := store.LoadFromPostgres(ctx, pg.GetDB(), cfg.Database.Postgres, log)
		if err != nil {
			zapLog.Fatal("record load from postgres failed", zap.Error(err))
		}
		return snapshot
	}

	snapshot, err := store.LoadFromCSV(cfg.Records.CSVPath, log)
	if err != nil {
		zapLog.Fatal("record load from csv failed", zap.Error(err))
	}
	return snapshot
}
