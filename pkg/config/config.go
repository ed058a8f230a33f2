package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "WASKITA"

var (
	once    sync.Once
	initErr error
)

// Init initializes the configuration system.
// It loads .env (if present), defaults, ./config/settings.yaml and WASKITA_* env overrides.
func Init() error {
	once.Do(func() {
		// .env is optional; real environment variables take precedence over it
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			initErr = fmt.Errorf("error loading .env file: %w", err)
			return
		}

		setDefaults()

		viper.SetEnvPrefix(envPrefix)
		viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		viper.AutomaticEnv()
		bindLegacyEnv()

		configPath := filepath.Clean("./config/settings.yaml")
		viper.SetConfigFile(configPath)
		if err := viper.ReadInConfig(); err != nil {
			if !os.IsNotExist(err) && !errors.Is(err, fs.ErrNotExist) {
				initErr = fmt.Errorf("error reading config file %s: %w", configPath, err)
				return
			}
		}

		if err := validate(); err != nil {
			initErr = fmt.Errorf("invalid configuration: %w", err)
		}
	})

	return initErr
}

// bindLegacyEnv lets deployments keep the APIFY_* variable names
func bindLegacyEnv() {
	_ = viper.BindEnv("apify.api_token", envPrefix+"_APIFY_API_TOKEN", "APIFY_API_TOKEN")
	_ = viper.BindEnv("apify.base_url", envPrefix+"_APIFY_BASE_URL", "APIFY_BASE_URL")
	_ = viper.BindEnv("apify.actors.twitter", envPrefix+"_APIFY_ACTORS_TWITTER", "APIFY_TWITTER_ACTOR")
	_ = viper.BindEnv("apify.actors.facebook", envPrefix+"_APIFY_ACTORS_FACEBOOK", "APIFY_FACEBOOK_ACTOR")
	_ = viper.BindEnv("apify.actors.instagram", envPrefix+"_APIFY_ACTORS_INSTAGRAM", "APIFY_INSTAGRAM_ACTOR")
	_ = viper.BindEnv("apify.actors.tiktok", envPrefix+"_APIFY_ACTORS_TIKTOK", "APIFY_TIKTOK_ACTOR")
	_ = viper.BindEnv("apify.timeout", envPrefix+"_APIFY_TIMEOUT", "APIFY_TIMEOUT")
	_ = viper.BindEnv("apify.max_retries", envPrefix+"_APIFY_MAX_RETRIES", "APIFY_MAX_RETRIES")
	_ = viper.BindEnv("apify.retry_delay", envPrefix+"_APIFY_RETRY_DELAY", "APIFY_RETRY_DELAY")
	_ = viper.BindEnv("database.dsn", envPrefix+"_DATABASE_DSN", "DATABASE_URL")
}

// GetConfig returns the current configuration as a struct
// Init() must be called before using this
func GetConfig() (*Config, error) {
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return &config, nil
}

// Get returns a config value by key using Viper directly
func Get(key string) any {
	return viper.Get(key)
}

// GetString returns a string config value
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetDuration returns a time.Duration config value
func GetDuration(key string) time.Duration {
	return viper.GetDuration(key)
}

// GetStringMapString returns a map config value
func GetStringMapString(key string) map[string]string {
	return viper.GetStringMapString(key)
}

// validate validates the configuration using Viper values
func validate() error {
	port := viper.GetInt("server.port")
	if port <= 0 || port > 65535 {
		return fmt.Errorf("invalid server port: %d", port)
	}

	switch driver := viper.GetString("database.driver"); driver {
	case DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("unsupported database driver: %q", driver)
	}

	switch backend := viper.GetString("pending.backend"); backend {
	case PendingBackendMemory, PendingBackendRedis:
	default:
		return fmt.Errorf("unsupported pending store backend: %q", backend)
	}

	switch scope := viper.GetString("cleaning.dedup_scope"); scope {
	case "global", "dataset":
	default:
		return fmt.Errorf("unsupported cleaning dedup scope: %q", scope)
	}

	if viper.GetInt("processing.workers") <= 0 {
		viper.Set("processing.workers", 2)
	}
	if viper.GetDuration("processing.poll_interval") <= 0 {
		viper.Set("processing.poll_interval", 2*time.Second)
	}
	if viper.GetDuration("pending.ttl") <= 0 {
		viper.Set("pending.ttl", time.Hour)
	}

	return nil
}

// Validate validates a Config struct (for testing)
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Database.Driver == DriverPostgres && c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required for the postgres driver")
	}
	if c.Pending.Backend == PendingBackendRedis && c.Redis.Address == "" {
		return fmt.Errorf("redis.address is required for the redis pending backend")
	}
	if c.Processing.Workers <= 0 {
		c.Processing.Workers = 2
	}
	return nil
}

// setDefaults sets default configuration values
func setDefaults() {
	viper.SetDefault("environment", "development")

	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", 30*time.Second)
	viper.SetDefault("server.write_timeout", 60*time.Second)
	viper.SetDefault("server.shutdown_timeout", 10*time.Second)
	viper.SetDefault("server.max_header_bytes", 1048576)

	// Database defaults
	viper.SetDefault("database.driver", DriverSQLite)
	viper.SetDefault("database.path", "./data/waskita.db")
	viper.SetDefault("database.dsn", "")
	viper.SetDefault("database.max_connections", 25)
	viper.SetDefault("database.max_idle_connections", 5)
	viper.SetDefault("database.connection_max_lifetime", 30*time.Minute)
	viper.SetDefault("database.verbose", false)

	// Apify defaults
	viper.SetDefault("apify.api_token", "")
	viper.SetDefault("apify.base_url", "https://api.apify.com/v2")
	viper.SetDefault("apify.timeout", 30*time.Second)
	viper.SetDefault("apify.max_retries", 3)
	viper.SetDefault("apify.retry_delay", 2*time.Second)
	viper.SetDefault("apify.rate_limit", 5)
	viper.SetDefault("apify.wait.max_wait", 300*time.Second)
	viper.SetDefault("apify.wait.check_interval", 10*time.Second)
	viper.SetDefault("apify.actors.twitter", "kaitoeasyapi/twitter-x-data-tweet-scraper-pay-per-result-cheapest")
	viper.SetDefault("apify.actors.facebook", "apify/facebook-scraper")
	viper.SetDefault("apify.actors.instagram", "apify/instagram-scraper")
	viper.SetDefault("apify.actors.tiktok", "clockworks/free-tiktok-scraper")

	// Pending mapping store defaults
	viper.SetDefault("pending.backend", PendingBackendMemory)
	viper.SetDefault("pending.ttl", time.Hour)
	viper.SetDefault("pending.max_size_mb", 256)

	// Redis defaults
	viper.SetDefault("redis.address", "localhost:6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)

	// Processing defaults
	viper.SetDefault("processing.workers", 2)
	viper.SetDefault("processing.poll_interval", 2*time.Second)
	viper.SetDefault("processing.job_retention", 7*24*time.Hour)

	// Classifier defaults
	viper.SetDefault("classifier.word2vec_path", "./models/word2vec.txt")
	viper.SetDefault("classifier.vector_size", 100)
	viper.SetDefault("classifier.models", map[string]string{
		"model1": "./models/naive_bayes_model1.json",
		"model2": "./models/naive_bayes_model2.json",
		"model3": "./models/naive_bayes_model3.json",
	})

	// Cleaning defaults
	viper.SetDefault("cleaning.dedup_scope", "global")

	// Cleanup scheduler defaults
	viper.SetDefault("cleanup.enabled", true)
	viper.SetDefault("cleanup.schedules", []string{"0 */6 * * *", "0 2 * * *"})

	// Upload defaults
	viper.SetDefault("upload.max_size", 16*1024*1024)

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")

	// Monitoring defaults
	viper.SetDefault("monitoring.metrics_enabled", true)
	viper.SetDefault("monitoring.metrics_path", "/metrics")
}
