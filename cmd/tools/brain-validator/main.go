// cmd/tools/brain-validator/main.go

// brain-validator checks a synonym artifact and the assembled brain
// before deployment: structural invariants first, then an optional
// accuracy battery against the local resolver. Any violation makes the
// exit code nonzero so CI can gate on it.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"dealbot/internal/brain"
	"dealbot/internal/common/config"
	"dealbot/internal/common/database"
	"dealbot/internal/common/logger"
	"dealbot/internal/store"
	"dealbot/internal/validator"
)

func main() {
	var (
		artifactPath = flag.String("artifact", "", "synonym artifact to validate (default from config)")
		batterySize  = flag.Int("battery-size", 500, "number of generated cases in the accuracy battery")
		minAccuracy  = flag.Float64("min-accuracy", 0.9, "per-category accuracy floor for the battery")
		seed         = flag.Int64("seed", 42, "random seed for the battery batch")
		skipBattery  = flag.Bool("skip-battery", false, "only run structural checks")
	)
	flag.Parse()

	zapLog := logger.New("info", "console")
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}
	if *artifactPath == "" {
		*artifactPath = cfg.Brain.ArtifactPath
	}

	var violations []validator.Violation

	// Structural checks on the raw artifact document.
	artifactViolations, err := validator.ValidateArtifact(*artifactPath)
	if err != nil {
		zapLog.Fatal("artifact validation failed", zap.Error(err))
	}
	violations = append(violations, artifactViolations...)

	// Structural checks on the fully assembled brain (seed + artifact +
	// learned), which is what resolution actually runs against.
	brainCfg := cfg.Brain
	brainCfg.ArtifactPath = *artifactPath
	b, err := brain.Load(brainCfg, cfg.Resolver, log)
	if err != nil {
		zapLog.Fatal("brain load failed", zap.Error(err))
	}
	violations = append(violations, validator.ValidateBrain(b)...)

	if !*skipBattery {
		snapshot := loadStore(cfg, zapLog, log)
		batteryViolations, err := validator.RunBattery(context.Background(), b, snapshot, validator.BatteryOptions{
			Size:        *batterySize,
			Seed:        *seed,
			MinAccuracy: *minAccuracy,
			Concurrency: cfg.Harness.Concurrency,
		}, log)
		if err != nil {
			zapLog.Fatal("accuracy battery failed", zap.Error(err))
		}
		violations = append(violations, batteryViolations...)
	}

	if len(violations) == 0 {
		fmt.Printf("Brain OK: artifact %s, %d fields covered\n", *artifactPath, len(b.FieldCoverage()))
		return
	}

	fmt.Printf("Found %d violation(s):\n", len(violations))
	for _, v := range violations {
		fmt.Printf("  %s\n", v)
	}
	os.Exit(1)
}

func loadStore(cfg *config.Config, zapLog *zap.Logger, log logger.Logger) *store.Store {
	if cfg.Records.Source == "postgres" {
		pg, err := database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			zapLog.Fatal("postgres connection failed", zap.Error(err))
		}
		defer pg.Close()
		snapshot, err := store.LoadFromPostgres(context.Background(), pg.GetDB(), cfg.Database.Postgres, log)
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
