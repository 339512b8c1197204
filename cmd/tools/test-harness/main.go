// cmd/tools/test-harness/main.go

// test-harness generates synthetic question batches, runs them against a
// backend and reports accuracy. With --baseline it additionally compares
// the fresh run against a promoted baseline; --promote saves the fresh
// summary as a new baseline.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"go.uber.org/zap"

	"dealbot/internal/alerts"
	"dealbot/internal/backend"
	"dealbot/internal/brain"
	"dealbot/internal/common/config"
	"dealbot/internal/common/database"
	"dealbot/internal/common/logger"
	"dealbot/internal/comparator"
	"dealbot/internal/harness"
	"dealbot/internal/models"
	"dealbot/internal/resolver"
	"dealbot/internal/store"
	"dealbot/pkg/baseline"
)

func main() {
	var (
		target       = flag.String("target", "", "backend to test: local, ollama or a configured remote name (default from config)")
		casesPath    = flag.String("cases", "", "JSON file with a fixed case batch; skips generation")
		testSize     = flag.Int("test-size", 100, "number of test cases to generate")
		category     = flag.String("category", "", "restrict generation to one field category")
		seed         = flag.Int64("seed", time.Now().UnixNano(), "random seed for reproducible batches")
		concurrency  = flag.Int("concurrency", 0, "worker count (default from config)")
		baselinePath = flag.String("baseline", "", "baseline summary to compare the fresh run against")
		outputFolder = flag.String("output-folder", "", "folder for summary.json and the markdown report (default from config)")
		promotePath  = flag.String("promote", "", "promote the fresh summary as a baseline at this path")
		force        = flag.Bool("force", false, "allow --promote to overwrite an existing baseline")
		bench        = flag.Bool("bench", false, "print the per-category latency table to stdout")
	)
	flag.Parse()

	zapLog := logger.New("info", "console")
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	if *target == "" {
		*target = cfg.Backends.Default
	}
	if *concurrency <= 0 {
		*concurrency = cfg.Harness.Concurrency
	}
	if *outputFolder == "" {
		*outputFolder = cfg.Harness.OutputFolder
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		zapLog.Info("Interrupt received, draining in-flight cases...")
		cancel()
	}()

	snapshot := loadStore(ctx, cfg, zapLog, log)
	answerer := buildBackend(*target, cfg, snapshot, zapLog, log)

	var cases []models.TestCase
	if *casesPath != "" {
		cases, err = harness.LoadCases(*casesPath)
		if err != nil {
			zapLog.Fatal("case file load failed", zap.Error(err))
		}
		zapLog.Info("Fixed case batch loaded",
			zap.Int("cases", len(cases)),
			zap.String("file", *casesPath),
			zap.String("backend", answerer.Name()),
		)
	} else {
		cases, err = harness.NewGenerator(snapshot, *seed).Generate(*testSize, *category)
		if err != nil {
			zapLog.Fatal("case generation failed", zap.Error(err))
		}
		zapLog.Info("Test batch generated",
			zap.Int("cases", len(cases)),
			zap.Int64("seed", *seed),
			zap.String("backend", answerer.Name()),
		)
	}

	h := harness.New(answerer, harness.Options{
		Concurrency: *concurrency,
		MaxRetries:  cfg.Harness.MaxRetries,
		RetryDelay:  time.Duration(cfg.Harness.RetryDelay) * time.Millisecond,
		CaseTimeout: time.Duration(cfg.Harness.Timeout) * time.Millisecond,
	}, log)

	results, partial := h.Run(ctx, cases)
	summary := harness.Summarize(results, answerer.Name(), *seed, partial)

	jsonPath, mdPath, err := harness.Save(summary, results, *outputFolder)
	if err != nil {
		zapLog.Fatal("failed to write reports", zap.Error(err))
	}

	fmt.Printf("Total:     %d\n", summary.Total)
	fmt.Printf("Passed:    %d\n", summary.Correct)
	fmt.Printf("Failed:    %d\n", summary.Incorrect)
	fmt.Printf("Errors:    %d\n", summary.Errors)
	fmt.Printf("Pass rate: %.1f%%\n", summary.Accuracy*100)
	fmt.Printf("Reports:   %s, %s\n", jsonPath, mdPath)
	if partial {
		fmt.Println("Run was interrupted; the summary covers completed cases only.")
	}

	if *bench {
		fmt.Println("\nCategory latency:")
		for _, name := range sortedCategories(summary) {
			cs := summary.Categories[name]
			fmt.Printf("  %-18s mean %7.1f ms   p95 %7.1f ms\n", name, cs.MeanMs, cs.P95Ms)
		}
	}

	exitCode := 0
	if *baselinePath != "" {
		base, err := baseline.Load(*baselinePath)
		if err != nil {
			zapLog.Fatal("baseline load failed", zap.Error(err))
		}

		report := comparator.Compare(summary, base, comparator.DefaultThresholds())
		fmt.Println()
		fmt.Print(comparator.RenderRegressionReport(report))

		if report.Regressed() {
			exitCode = 1
			if cfg.Alerts.Enabled {
				notifier, err := alerts.NewNotifier(ctx, cfg.Alerts, log)
				if err != nil {
					zapLog.Error("alert setup failed", zap.Error(err))
				} else if err := notifier.NotifyRegression(ctx, report); err != nil {
					zapLog.Error("alert delivery failed", zap.Error(err))
				}
			}
		}
	}

	if *promotePath != "" {
		if partial {
			zapLog.Fatal("refusing to promote a partial run as baseline")
		}
		if err := baseline.Save(summary, *promotePath, *force); err != nil {
			zapLog.Fatal("baseline promotion failed", zap.Error(err))
		}
		fmt.Printf("Baseline promoted to %s\n", *promotePath)
	}

	os.Exit(exitCode)
}

func sortedCategories(s models.Summary) []string {
	names := make([]string, 0, len(s.Categories))
	for name := range s.Categories {
		names = append(names, name)
	}
	sort.Strings(names)
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

func buildBackend(target string, cfg *config.Config, snapshot *store.Store, zapLog *zap.Logger, log logger.Logger) backend.Answerer {
	b, err := brain.Load(cfg.Brain, cfg.Resolver, log)
	if err != nil {
		zapLog.Fatal("brain load failed", zap.Error(err))
	}
	res := resolver.New(b, snapshot)

	switch target {
	case "local":
		return backend.NewLocal(res)
	case "ollama":
		return backend.NewOllama(cfg.Backends.Ollama, res, b, log)
	default:
		remoteCfg, ok := cfg.Backends.Remote[target]
		if !ok {
			zapLog.Fatal("unknown backend", zap.String("backend", target))
		}
		return backend.NewRemote(target, remoteCfg)
	}
}
