package app

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/agentstation/venuemap/internal/config"
	"github.com/agentstation/venuemap/pkg/constants"
	"github.com/agentstation/venuemap/pkg/errors"
)

// Curated and feed backends.
const (
	CuratedMemory   = "memory"
	CuratedPostgres = "postgres"

	FeedOverpass = "overpass"
	FeedElastic  = "elastic"
	FeedNone     = "none"
)

// Config holds the application configuration loaded from various sources
// including config files, environment variables, and .env files.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool
	NoColor bool
	Format  string

	// Config file
	ConfigFile string

	// State
	StatePath   string
	CacheVenues bool

	// Sources
	Curated      string
	PostgresDSN  string
	Feed         string
	OverpassURL  string
	ElasticURL   string
	ElasticIndex string
	RedisAddr    string
	FeedCacheTTL time.Duration
	RatesURL     string
	RatesAPIKey  string

	// Store behavior
	BaseCurrency        string
	SearchRadius        int
	MergeTolerance      float64
	ViewThreshold       float64
	AutoRefreshInterval time.Duration

	// Operator auth
	AuthSigningKey string
	AuthUsers      map[string]string

	// Logging configuration
	LogLevel  string
	LogFormat string
	LogOutput string
}

// LoadConfig loads configuration from all sources in order of precedence:
// 1. Command-line flags (handled by cobra)
// 2. Environment variables (VENUEMAP_ prefix)
// 3. .env files
// 4. Config file (~/.venuemap.yaml)
// 5. Defaults
func LoadConfig() (*Config, error) {
	loadEnvFiles()

	viper.SetEnvPrefix("VENUEMAP")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	setDefaults()

	configFile := viper.GetString("config")
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
			viper.AddConfigPath(".")
			viper.SetConfigType("yaml")
			viper.SetConfigName(".venuemap")
		}
	}

	if err := viper.ReadInConfig(); err != nil && configFile != "" {
		// only an explicitly named file has to exist
		return nil, errors.NewConfigError("config", "could not read "+configFile, err)
	}

	cfg := &Config{
		Format:     viper.GetString("format"),
		ConfigFile: viper.ConfigFileUsed(),

		StatePath:   viper.GetString("state_path"),
		CacheVenues: viper.GetBool("cache_venues"),

		Curated:      strings.ToLower(viper.GetString("curated")),
		PostgresDSN:  viper.GetString("postgres_dsn"),
		Feed:         strings.ToLower(viper.GetString("feed")),
		OverpassURL:  viper.GetString("overpass_url"),
		ElasticURL:   viper.GetString("elastic_url"),
		ElasticIndex: viper.GetString("elastic_index"),
		RedisAddr:    viper.GetString("redis_addr"),
		FeedCacheTTL: config.GetDuration("feed_cache_ttl", constants.FeedCacheTTL),
		RatesURL:     viper.GetString("rates_url"),
		RatesAPIKey:  viper.GetString("rates_api_key"),

		BaseCurrency:        viper.GetString("base_currency"),
		SearchRadius:        config.GetInt("search_radius", constants.DefaultSearchRadius),
		MergeTolerance:      config.GetFloat("merge_tolerance", constants.DefaultMergeTolerance),
		ViewThreshold:       config.GetFloat("view_threshold", constants.DefaultViewThreshold),
		AutoRefreshInterval: config.GetDuration("auto_refresh_interval", constants.DefaultRefreshInterval),

		AuthSigningKey: viper.GetString("auth_signing_key"),
		AuthUsers:      config.GetUsers("auth_users"),

		LogLevel:  getEnvOrDefault("LOG_LEVEL", ""),
		LogFormat: getEnvOrDefault("LOG_FORMAT", "auto"),
		LogOutput: getEnvOrDefault("LOG_OUTPUT", "stderr"),
	}

	return cfg, nil
}

func setDefaults() {
	viper.SetDefault("state_path", constants.DefaultStatePath)
	viper.SetDefault("cache_venues", true)
	viper.SetDefault("curated", CuratedMemory)
	viper.SetDefault("feed", FeedOverpass)
	viper.SetDefault("overpass_url", constants.OverpassURL)
	viper.SetDefault("elastic_index", "places")
	viper.SetDefault("rates_url", constants.RatesURL)
	viper.SetDefault("base_currency", "USD")
}

// UpdateFromFlags updates config values from parsed command flags.
// This should be called after cobra parses flags to ensure flag
// values take precedence over config file and env vars.
func (c *Config) UpdateFromFlags(verbose, quiet, noColor bool, format, logLevel string) {
	c.Verbose = verbose
	c.Quiet = quiet
	c.NoColor = noColor
	if format != "" {
		c.Format = format
	}
	if logLevel != "" {
		c.LogLevel = logLevel
	}
}

// loadEnvFiles loads environment variables from .env files.
// .env.local overrides .env
func loadEnvFiles() {
	for _, envFile := range []string{".env.local", ".env"} {
		// godotenv never overwrites, so the first file wins
		_ = godotenv.Load(envFile)
	}
}

// getEnvOrDefault returns the environment variable value or the default if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
