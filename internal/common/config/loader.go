// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

func Load() (*Config, error) {
	loadEnvFile()

	// Base config
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../../configs")
	viper.AddConfigPath(".")

	// Enable ENV override like SERVER_PORT or DATABASE_POSTGRES_PASSWORD
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	// Environment overlay, e.g. config.production.yaml
	envConfigFile := fmt.Sprintf("config.%s", env)
	viper.SetConfigName(envConfigFile)
	_ = viper.MergeInConfig() // ignore error if not found

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Load .env from multiple possible locations so tools work from any directory.
func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// Find project root by looking for go.mod
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "dealbot"
	}
	if cfg.App.Environment == "" {
		cfg.App.Environment = "development"
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 5000
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 10000
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 30000
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 15000
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 10
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}
	if cfg.Database.Postgres.DealsTable == "" {
		cfg.Database.Postgres.DealsTable = "master_deals"
	}
	if cfg.Database.Elasticsearch.IndexName == "" {
		cfg.Database.Elasticsearch.IndexName = "deal-interactions"
	}
	if cfg.Brain.ArtifactPath == "" {
		cfg.Brain.ArtifactPath = "configs/brain.json"
	}
	if cfg.Records.Source == "" {
		cfg.Records.Source = "csv"
	}
	if cfg.Records.CSVPath == "" {
		cfg.Records.CSVPath = "configs/master_deals.csv"
	}
	if cfg.Resolver.AcceptThreshold == 0 {
		cfg.Resolver.AcceptThreshold = 0.55
	}
	if cfg.Resolver.FuzzyScale == 0 {
		cfg.Resolver.FuzzyScale = 0.6
	}
	if cfg.Resolver.FuzzyMinLen == 0 {
		cfg.Resolver.FuzzyMinLen = 4
	}
	if cfg.Harness.Concurrency == 0 {
		cfg.Harness.Concurrency = 4
	}
	if cfg.Harness.MaxRetries == 0 {
		cfg.Harness.MaxRetries = 3
	}
	if cfg.Harness.RetryDelay == 0 {
		cfg.Harness.RetryDelay = 100
	}
	if cfg.Harness.Timeout == 0 {
		cfg.Harness.Timeout = 20000
	}
	if cfg.Harness.OutputFolder == "" {
		cfg.Harness.OutputFolder = "test_results"
	}
	if cfg.Backends.Default == "" {
		cfg.Backends.Default = "local"
	}
	if cfg.Backends.Ollama.BaseURL == "" {
		cfg.Backends.Ollama.BaseURL = "http://localhost:11434"
	}
	if cfg.Backends.Ollama.DefaultModel == "" {
		cfg.Backends.Ollama.DefaultModel = "mistral"
	}
	if cfg.Backends.Ollama.Timeout == 0 {
		cfg.Backends.Ollama.Timeout = 60000
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

func validateConfig(cfg *Config) error {
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", cfg.Server.Port)
	}
	switch cfg.Records.Source {
	case "postgres", "csv":
	default:
		return fmt.Errorf("records.source must be 'postgres' or 'csv', got %q", cfg.Records.Source)
	}
	if cfg.Records.Source == "postgres" && cfg.Database.Postgres.Host == "" {
		return fmt.Errorf("records.source is postgres but database.postgres.host is empty")
	}
	if cfg.Resolver.AcceptThreshold < 0 || cfg.Resolver.AcceptThreshold > 1 {
		return fmt.Errorf("resolver.accept_threshold must be in [0,1], got %v", cfg.Resolver.AcceptThreshold)
	}
	if cfg.Resolver.FuzzyScale <= 0 || cfg.Resolver.FuzzyScale > 1 {
		return fmt.Errorf("resolver.fuzzy_scale must be in (0,1], got %v", cfg.Resolver.FuzzyScale)
	}
	if cfg.Harness.Concurrency < 1 {
		return fmt.Errorf("harness.concurrency must be >= 1, got %d", cfg.Harness.Concurrency)
	}
	if cfg.Alerts.Enabled && cfg.Alerts.Region == "" {
		return fmt.Errorf("alerts.enabled requires alerts.region")
	}
	if cfg.Audit.Enabled && !cfg.Database.Elasticsearch.Enabled {
		return fmt.Errorf("audit.enabled requires database.elasticsearch.enabled")
	}
	return nil
}
