package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the prodsearch API configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Cache     CacheConfig     `yaml:"cache"`
	Catalog   CatalogConfig   `yaml:"catalog"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Search    SearchConfig    `yaml:"search"`
	Auth      AuthConfig      `yaml:"auth"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings. Empty APIKeys disables auth.
type AuthConfig struct {
	APIKeys   []string `yaml:"api_keys"`
	AdminKeys []string `yaml:"admin_keys"` // required for /events and /cache when set
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// CacheConfig holds result cache settings.
type CacheConfig struct {
	Driver                string   `yaml:"driver"` // valkey, redis, memory (default: valkey)
	Addrs                 []string `yaml:"addrs"`
	Username              string   `yaml:"username"`
	Password              string   `yaml:"password"`
	DB                    int      `yaml:"db"`
	KeyPrefix             string   `yaml:"key_prefix"`
	MaxEntries            int      `yaml:"max_entries"` // memory driver only
	ReadinessTimeout      int      `yaml:"readiness_timeout_sec"`
	SearchTTLSec          int      `yaml:"search_ttl_sec"`
	RecommendationsTTLSec int      `yaml:"recommendations_ttl_sec"`
}

// CatalogConfig holds the Postgres catalog settings.
type CatalogConfig struct {
	DSN                string `yaml:"dsn"`
	MaxOpenConns       int    `yaml:"max_open_conns"`
	MaxIdleConns       int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeSec int    `yaml:"conn_max_lifetime_sec"`
	NotifyChannel      string `yaml:"notify_channel"` // empty disables LISTEN
	MaxOrders          int    `yaml:"max_orders"`
}

// SearchConfig holds pipeline tuning.
type SearchConfig struct {
	MaxCandidates  int `yaml:"max_candidates"`
	MaxQueryLength int `yaml:"max_query_length"`
}

// EmbeddingConfig holds embedding settings.
type EmbeddingConfig struct {
	Providers         map[string]ProviderConfig   `yaml:"providers"`
	Vectorizers       map[string]VectorizerConfig `yaml:"vectorizers"`
	Vectorizer        string                      `yaml:"vectorizer"` // key in Vectorizers; optional with one entry
	Concurrency       int                         `yaml:"concurrency"`
	RequestsPerSecond float64                     `yaml:"requests_per_second"` // 0 = unlimited
	Burst             int                         `yaml:"burst"`
	TimeoutSec        int                         `yaml:"timeout_sec"`
}

// BudgetConfig holds token budget settings.
type BudgetConfig struct {
	DailyTokenLimit   int64  `yaml:"daily_token_limit"`   // 0 = unlimited
	MonthlyTokenLimit int64  `yaml:"monthly_token_limit"` // 0 = unlimited
	Action            string `yaml:"action"`              // "reject" | "warn" (default)
}

// Enabled reports whether any limit is configured.
func (b BudgetConfig) Enabled() bool {
	return b.DailyTokenLimit > 0 || b.MonthlyTokenLimit > 0
}

// ProviderConfig holds embedding provider settings.
type ProviderConfig struct {
	APIKey  string       `yaml:"api_key"`
	BaseURL string       `yaml:"base_url"`
	User    string       `yaml:"user"`
	Budget  BudgetConfig `yaml:"budget"`
}

// VectorizerConfig holds vectorizer settings.
type VectorizerConfig struct {
	Provider   string `yaml:"provider"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse expands env variables, decodes YAML, applies defaults and validates.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 60
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Cache.Driver == "" {
		c.Cache.Driver = "valkey"
	}
	if c.Cache.ReadinessTimeout <= 0 {
		c.Cache.ReadinessTimeout = 10
	}
	if c.Cache.KeyPrefix == "" {
		c.Cache.KeyPrefix = "prodsearch:"
	}
	if c.Cache.SearchTTLSec <= 0 {
		c.Cache.SearchTTLSec = 3600
	}
	if c.Cache.RecommendationsTTLSec <= 0 {
		c.Cache.RecommendationsTTLSec = 7200
	}
	if c.Catalog.MaxOpenConns <= 0 {
		c.Catalog.MaxOpenConns = 20
	}
	if c.Catalog.MaxIdleConns <= 0 {
		c.Catalog.MaxIdleConns = 5
	}
	if c.Catalog.ConnMaxLifetimeSec <= 0 {
		c.Catalog.ConnMaxLifetimeSec = 300
	}
	if c.Catalog.MaxOrders <= 0 {
		c.Catalog.MaxOrders = 50
	}
	if c.Embedding.Concurrency <= 0 {
		c.Embedding.Concurrency = 8
	}
	if c.Embedding.TimeoutSec <= 0 {
		c.Embedding.TimeoutSec = 15
	}
	if c.Search.MaxCandidates <= 0 {
		c.Search.MaxCandidates = 200
	}
	if c.Search.MaxQueryLength <= 0 {
		c.Search.MaxQueryLength = 4096
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Cache.Driver {
	case "valkey", "redis":
		if len(c.Cache.Addrs) == 0 {
			return fmt.Errorf("cache.addrs is required for driver %q", c.Cache.Driver)
		}
	case "memory":
	default:
		return fmt.Errorf("cache.driver must be \"valkey\", \"redis\" or \"memory\", got %q", c.Cache.Driver)
	}
	if c.Catalog.DSN == "" {
		return fmt.Errorf("catalog.dsn is required")
	}
	if c.Cache.RecommendationsTTLSec < c.Cache.SearchTTLSec {
		return fmt.Errorf(
			"cache.recommendations_ttl_sec (%d) must not be shorter than cache.search_ttl_sec (%d)",
			c.Cache.RecommendationsTTLSec, c.Cache.SearchTTLSec,
		)
	}
	if c.Embedding.RequestsPerSecond < 0 {
		return fmt.Errorf("embedding.requests_per_second must not be negative")
	}
	for name, p := range c.Embedding.Providers {
		switch p.Budget.Action {
		case "", "warn", "reject":
			// ok
		default:
			return fmt.Errorf(
				"embedding.providers.%s.budget.action must be \"warn\" or \"reject\", got %q",
				name, p.Budget.Action,
			)
		}
	}
	if _, _, err := c.Embedding.Active(); err != nil {
		return err
	}
	return nil
}

// Active resolves the selected vectorizer and its provider.
func (e EmbeddingConfig) Active() (VectorizerConfig, ProviderConfig, error) {
	name := e.Vectorizer
	if name == "" {
		if len(e.Vectorizers) != 1 {
			return VectorizerConfig{}, ProviderConfig{}, fmt.Errorf(
				"embedding.vectorizer is required when %d vectorizers are configured", len(e.Vectorizers),
			)
		}
		for n := range e.Vectorizers {
			name = n
		}
	}
	vec, ok := e.Vectorizers[name]
	if !ok {
		return VectorizerConfig{}, ProviderConfig{}, fmt.Errorf("embedding.vectorizers.%s is not defined", name)
	}
	if vec.Model == "" {
		return VectorizerConfig{}, ProviderConfig{}, fmt.Errorf("embedding.vectorizers.%s.model is required", name)
	}
	prov, ok := e.Providers[vec.Provider]
	if !ok {
		return VectorizerConfig{}, ProviderConfig{}, fmt.Errorf(
			"embedding.vectorizers.%s.provider %q is not defined", name, vec.Provider,
		)
	}
	return vec, prov, nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
