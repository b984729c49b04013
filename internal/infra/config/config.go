package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// EndpointConfig is one model server candidate, probed in list order.
type EndpointConfig struct {
	URL     string `toml:"url"`
	Dialect string `toml:"dialect"`
}

// StoreConfig selects and parameterizes the cache persistence backend.
type StoreConfig struct {
	Backend    string `toml:"backend"` // sqlite | postgres | memory
	SQLitePath string `toml:"sqlite_path"`
	DBHost     string `toml:"db_host"`
	DBPort     string `toml:"db_port"`
	DBUser     string `toml:"db_user"`
	DBPassword string `toml:"-"`
	DBName     string `toml:"db_name"`
}

// ModelConfig names the model and the endpoints that may serve it.
type ModelConfig struct {
	Name      string           `toml:"name"`
	Timeout   int              `toml:"timeout_seconds"`
	Endpoints []EndpointConfig `toml:"endpoints"`
}

// CacheConfig bounds the analysis cache.
type CacheConfig struct {
	TTLDays              int `toml:"ttl_days"`
	JanitorIntervalHours int `toml:"janitor_interval_hours"`
}

// EnrichConfig points at the metadata services used for prompt enrichment.
type EnrichConfig struct {
	Enabled        bool   `toml:"enabled"`
	GitHubAPIURL   string `toml:"github_api_url"`
	OEmbedURL      string `toml:"oembed_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

type Config struct {
	Env    string       `toml:"env"`
	Port   string       `toml:"port"`
	Store  StoreConfig  `toml:"store"`
	Model  ModelConfig  `toml:"model"`
	Cache  CacheConfig  `toml:"cache"`
	Enrich EnrichConfig `toml:"enrich"`
}

// Load builds the configuration from defaults, an optional TOML file named
// by ANALYZER_CONFIG, and environment variable overrides, in that order.
func Load() *Config {
	cfg := defaults()

	if path := os.Getenv("ANALYZER_CONFIG"); path != "" {
		if data, err := os.ReadFile(path); err == nil {
			// A malformed file falls back to defaults rather than aborting.
			_ = toml.Unmarshal(data, cfg)
		}
	}

	cfg.Env = getEnv("ENV", cfg.Env)
	cfg.Port = getEnv("PORT", cfg.Port)

	cfg.Store.Backend = getEnv("CACHE_BACKEND", cfg.Store.Backend)
	cfg.Store.SQLitePath = getEnv("CACHE_SQLITE_PATH", cfg.Store.SQLitePath)
	cfg.Store.DBHost = getEnv("DB_HOST", cfg.Store.DBHost)
	cfg.Store.DBPort = getEnv("DB_PORT", cfg.Store.DBPort)
	cfg.Store.DBUser = getEnv("DB_USER", cfg.Store.DBUser)
	cfg.Store.DBPassword = getSecret("DB_PASSWORD", "DB_PASSWORD_FILE", cfg.Store.DBPassword)
	cfg.Store.DBName = getEnv("DB_NAME", cfg.Store.DBName)

	cfg.Model.Name = getEnv("MODEL_NAME", cfg.Model.Name)
	cfg.Model.Timeout = getEnvInt("MODEL_TIMEOUT", cfg.Model.Timeout)
	if url := os.Getenv("MODEL_URL"); url != "" {
		// A single explicit endpoint replaces the probe list; dialect
		// defaults to chat unless MODEL_DIALECT says otherwise.
		cfg.Model.Endpoints = []EndpointConfig{{
			URL:     url,
			Dialect: getEnv("MODEL_DIALECT", "chat"),
		}}
	}

	cfg.Cache.TTLDays = getEnvInt("CACHE_TTL_DAYS", cfg.Cache.TTLDays)
	cfg.Cache.JanitorIntervalHours = getEnvInt("CACHE_JANITOR_INTERVAL_HOURS", cfg.Cache.JanitorIntervalHours)

	cfg.Enrich.GitHubAPIURL = getEnv("ENRICH_GITHUB_API_URL", cfg.Enrich.GitHubAPIURL)
	cfg.Enrich.OEmbedURL = getEnv("ENRICH_OEMBED_URL", cfg.Enrich.OEmbedURL)
	cfg.Enrich.TimeoutSeconds = getEnvInt("ENRICH_TIMEOUT", cfg.Enrich.TimeoutSeconds)
	if v, ok := os.LookupEnv("ENRICH_ENABLED"); ok {
		cfg.Enrich.Enabled = v == "true" || v == "1"
	}

	return cfg
}

func defaults() *Config {
	return &Config{
		Env:  "development",
		Port: "9020",
		Store: StoreConfig{
			Backend:    "sqlite",
			SQLitePath: defaultSQLitePath(),
			DBHost:     "localhost",
			DBPort:     "5432",
			DBUser:     "analyzer_user",
			DBPassword: "analyzer_password",
			DBName:     "analyzer_db",
		},
		Model: ModelConfig{
			Name:    "local-model",
			Timeout: 30,
			Endpoints: []EndpointConfig{
				{URL: "http://localhost:1234", Dialect: "chat"},
				{URL: "http://localhost:1234", Dialect: "completion"},
				{URL: "http://localhost:11434", Dialect: "generate"},
				{URL: "http://localhost:8080", Dialect: "chat"},
			},
		},
		Cache: CacheConfig{
			TTLDays:              7,
			JanitorIntervalHours: 6,
		},
		Enrich: EnrichConfig{
			Enabled:        true,
			TimeoutSeconds: 10,
		},
	}
}

func defaultSQLitePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "analysis-cache.db"
	}
	return home + "/.bookmark-analyzer/cache.db"
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getSecret(envKey, fileEnvKey, fallback string) string {
	if value, ok := os.LookupEnv(envKey); ok {
		return value
	}
	if filePath, ok := os.LookupEnv(fileEnvKey); ok {
		content, err := os.ReadFile(filePath)
		if err == nil {
			return strings.TrimSpace(string(content))
		}
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}
