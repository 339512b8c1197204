// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Brain    BrainConfig    `mapstructure:"brain"`
	Records  RecordsConfig  `mapstructure:"records"`
	Resolver ResolverConfig `mapstructure:"resolver"`
	Harness  HarnessConfig  `mapstructure:"harness"`
	Backends BackendsConfig `mapstructure:"backends"`
	Audit    AuditConfig    `mapstructure:"audit"`
	Alerts   AlertsConfig   `mapstructure:"alerts"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	ReadTimeout     int    `mapstructure:"read_timeout"`     // milliseconds
	WriteTimeout    int    `mapstructure:"write_timeout"`    // milliseconds
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"` // milliseconds
	CacheTTL        int    `mapstructure:"cache_ttl"`        // seconds, 0 disables the answer cache
	Model           string `mapstructure:"model"`            // backend flavor served by /ask
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
	DealsTable     string `mapstructure:"deals_table"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Enabled    bool     `mapstructure:"enabled"`
	Addresses  []string `mapstructure:"addresses"`
	Username   string   `mapstructure:"username"`
	Password   string   `mapstructure:"password"`
	IndexName  string   `mapstructure:"index_name"`
	SSLEnabled bool     `mapstructure:"ssl_enabled"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// --- Engine Configuration Sections ---

// BrainConfig locates the synonym brain sources, layered in priority order:
// embedded seed brain, JSON artifact, learned CSV.
type BrainConfig struct {
	ArtifactPath string `mapstructure:"artifact_path"`
	LearnedPath  string `mapstructure:"learned_path"` // optional CSV of learned synonyms
	SeedEnabled  bool   `mapstructure:"seed_enabled"`
}

// RecordsConfig selects where the deal record snapshot comes from.
type RecordsConfig struct {
	Source  string `mapstructure:"source"` // "postgres" or "csv"
	CSVPath string `mapstructure:"csv_path"`
}

// ResolverConfig carries the matcher tunables. Thresholds are deliberately
// configuration, not constants; the harness accuracy battery guards them.
type ResolverConfig struct {
	AcceptThreshold float64 `mapstructure:"accept_threshold"`
	FuzzyScale      float64 `mapstructure:"fuzzy_scale"`
	FuzzyMinLen     int     `mapstructure:"fuzzy_min_len"`
}

type HarnessConfig struct {
	Concurrency  int    `mapstructure:"concurrency"`
	MaxRetries   int    `mapstructure:"max_retries"`
	RetryDelay   int    `mapstructure:"retry_delay"` // milliseconds, initial backoff
	Timeout      int    `mapstructure:"timeout"`     // milliseconds per case
	OutputFolder string `mapstructure:"output_folder"`
}

// BackendsConfig configures the interchangeable answer backends.
type BackendsConfig struct {
	Default string                  `mapstructure:"default"`
	Ollama  OllamaConfig            `mapstructure:"ollama"`
	Remote  map[string]RemoteConfig `mapstructure:"remote"`
}

type OllamaConfig struct {
	BaseURL       string `mapstructure:"base_url"`
	DefaultModel  string `mapstructure:"default_model"`
	Timeout       int    `mapstructure:"timeout"` // milliseconds
	LearnSynonyms bool   `mapstructure:"learn_synonyms"`
}

type RemoteConfig struct {
	URL        string `mapstructure:"url"`
	Timeout    int    `mapstructure:"timeout"` // milliseconds
	MaxRetries int    `mapstructure:"max_retries"`
}

type AuditConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// AlertsConfig controls optional regression notifications. Sending an alert
// never touches the baseline file.
type AlertsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Region    string `mapstructure:"region"`
	FromEmail string `mapstructure:"from_email"`
	ToEmail   string `mapstructure:"to_email"`
	SNSTopic  string `mapstructure:"sns_topic"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}
