package config

import "time"

// Supported database drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Supported pending store backends
const (
	PendingBackendMemory = "memory"
	PendingBackendRedis  = "redis"
)

// Config represents the complete application configuration
type Config struct {
	Environment string           `mapstructure:"environment"`
	Server      ServerConfig     `mapstructure:"server"`
	Database    DatabaseConfig   `mapstructure:"database"`
	Apify       ApifyConfig      `mapstructure:"apify"`
	Pending     PendingConfig    `mapstructure:"pending"`
	Redis       RedisConfig      `mapstructure:"redis"`
	Processing  ProcessingConfig `mapstructure:"processing"`
	Classifier  ClassifierConfig `mapstructure:"classifier"`
	Cleaning    CleaningConfig   `mapstructure:"cleaning"`
	Cleanup     CleanupConfig    `mapstructure:"cleanup"`
	Upload      UploadConfig     `mapstructure:"upload"`
	Logging     LoggingConfig    `mapstructure:"logging"`
	Monitoring  MonitoringConfig `mapstructure:"monitoring"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxHeaderBytes  int           `mapstructure:"max_header_bytes"`
}

// DatabaseConfig contains database settings
type DatabaseConfig struct {
	Driver                string        `mapstructure:"driver"`
	Path                  string        `mapstructure:"path"`
	DSN                   string        `mapstructure:"dsn"`
	MaxConnections        int           `mapstructure:"max_connections"`
	MaxIdleConnections    int           `mapstructure:"max_idle_connections"`
	ConnectionMaxLifetime time.Duration `mapstructure:"connection_max_lifetime"`
	Verbose               bool          `mapstructure:"verbose"`
}

// ApifyConfig contains scraping service settings
type ApifyConfig struct {
	APIToken   string            `mapstructure:"api_token"`
	BaseURL    string            `mapstructure:"base_url"`
	Timeout    time.Duration     `mapstructure:"timeout"`
	MaxRetries int               `mapstructure:"max_retries"`
	RetryDelay time.Duration     `mapstructure:"retry_delay"`
	RateLimit  int               `mapstructure:"rate_limit"`
	Wait       ApifyWaitConfig   `mapstructure:"wait"`
	Actors     map[string]string `mapstructure:"actors"`
}

// ApifyWaitConfig bounds the run completion poll loop
type ApifyWaitConfig struct {
	MaxWait       time.Duration `mapstructure:"max_wait"`
	CheckInterval time.Duration `mapstructure:"check_interval"`
}

// PendingConfig contains settings for staged scrape results
type PendingConfig struct {
	Backend   string        `mapstructure:"backend"`
	TTL       time.Duration `mapstructure:"ttl"`
	MaxSizeMB int64         `mapstructure:"max_size_mb"`
}

// RedisConfig contains Redis connection settings
type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// ProcessingConfig contains background worker settings
type ProcessingConfig struct {
	Workers      int           `mapstructure:"workers"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	JobRetention time.Duration `mapstructure:"job_retention"`
}

// ClassifierConfig points at the embedding and model files
type ClassifierConfig struct {
	Word2VecPath string            `mapstructure:"word2vec_path"`
	VectorSize   int               `mapstructure:"vector_size"`
	Models       map[string]string `mapstructure:"models"`
}

// CleaningConfig contains cleaning stage settings
type CleaningConfig struct {
	DedupScope string `mapstructure:"dedup_scope"`
}

// CleanupConfig contains the maintenance scheduler settings
type CleanupConfig struct {
	Enabled   bool     `mapstructure:"enabled"`
	Schedules []string `mapstructure:"schedules"`
}

// UploadConfig contains file upload settings
type UploadConfig struct {
	MaxSize int64 `mapstructure:"max_size"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// MonitoringConfig contains metrics settings
type MonitoringConfig struct {
	MetricsEnabled bool   `mapstructure:"metrics_enabled"`
	MetricsPath    string `mapstructure:"metrics_path"`
}
