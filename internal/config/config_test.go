package config

import (
	"strings"
	"testing"
)

func validConfig() Config {
	return Config{
		HTTP: HTTPConfig{Port: 8080},
		Cache: CacheConfig{
			Driver:                "valkey",
			Addrs:                 []string{"localhost:6379"},
			SearchTTLSec:          3600,
			RecommendationsTTLSec: 7200,
		},
		Catalog: CatalogConfig{DSN: "postgres://localhost/shop"},
		Embedding: EmbeddingConfig{
			Providers: map[string]ProviderConfig{
				"openai": {APIKey: "test-key"},
			},
			Vectorizers: map[string]VectorizerConfig{
				"default": {Provider: "openai", Model: "text-embedding-3-small"},
			},
		},
	}
}

func TestValidate_Valid(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_InvalidBudgetAction(t *testing.T) {
	cfg := validConfig()
	cfg.Embedding.Providers["nebius"] = ProviderConfig{
		APIKey:  "test-key",
		BaseURL: "https://api.example.com/v1/",
		Budget: BudgetConfig{
			DailyTokenLimit: 1000000,
			Action:          "invalid_action",
		},
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for invalid budget action")
	}

	expected := `embedding.providers.nebius.budget.action must be "warn" or "reject", got "invalid_action"`
	if err.Error() != expected {
		t.Errorf("unexpected error message:\ngot:  %q\nwant: %q", err.Error(), expected)
	}
}

func TestValidate_ValidBudgetActions(t *testing.T) {
	validActions := []string{"", "warn", "reject"}

	for _, action := range validActions {
		t.Run("action="+action, func(t *testing.T) {
			cfg := validConfig()
			cfg.Embedding.Providers["openai"] = ProviderConfig{
				APIKey: "test-key",
				Budget: BudgetConfig{Action: action},
			}

			if err := cfg.Validate(); err != nil {
				t.Fatalf("unexpected error for valid action %q: %v", action, err)
			}
		})
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Port = 0

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_MissingCacheAddrs(t *testing.T) {
	for _, driver := range []string{"valkey", "redis"} {
		t.Run(driver, func(t *testing.T) {
			cfg := validConfig()
			cfg.Cache.Driver = driver
			cfg.Cache.Addrs = nil

			if err := cfg.Validate(); err == nil {
				t.Fatal("expected error for missing cache addrs")
			}
		})
	}
}

func TestValidate_MemoryDriverNeedsNoAddrs(t *testing.T) {
	cfg := validConfig()
	cfg.Cache.Driver = "memory"
	cfg.Cache.Addrs = nil

	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_UnknownDriver(t *testing.T) {
	cfg := validConfig()
	cfg.Cache.Driver = "memcached"

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestValidate_MissingDSN(t *testing.T) {
	cfg := validConfig()
	cfg.Catalog.DSN = ""

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing catalog dsn")
	}
}

func TestValidate_RecommendationsTTLShorterThanSearch(t *testing.T) {
	cfg := validConfig()
	cfg.Cache.RecommendationsTTLSec = 60

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for recommendations ttl below search ttl")
	}
}

func TestValidate_VectorizerSelection(t *testing.T) {
	cfg := validConfig()
	cfg.Embedding.Vectorizers["large"] = VectorizerConfig{Provider: "openai", Model: "text-embedding-3-large"}

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when several vectorizers and none selected")
	}

	cfg.Embedding.Vectorizer = "large"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	vec, prov, err := cfg.Embedding.Active()
	if err != nil {
		t.Fatalf("Active: %v", err)
	}
	if vec.Model != "text-embedding-3-large" || prov.APIKey != "test-key" {
		t.Errorf("Active = %+v, %+v", vec, prov)
	}
}

func TestValidate_UnknownProvider(t *testing.T) {
	cfg := validConfig()
	cfg.Embedding.Vectorizers["default"] = VectorizerConfig{Provider: "gemini", Model: "m"}

	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), `"gemini"`) {
		t.Fatalf("expected unknown provider error, got %v", err)
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("expected ReadTimeoutSec=10, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.WriteTimeoutSec != 60 {
		t.Errorf("expected WriteTimeoutSec=60, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.Cache.Driver != "valkey" {
		t.Errorf("expected Driver=valkey, got %q", cfg.Cache.Driver)
	}
	if cfg.Cache.KeyPrefix != "prodsearch:" {
		t.Errorf("expected KeyPrefix='prodsearch:', got %q", cfg.Cache.KeyPrefix)
	}
	if cfg.Cache.SearchTTLSec != 3600 {
		t.Errorf("expected SearchTTLSec=3600, got %d", cfg.Cache.SearchTTLSec)
	}
	if cfg.Cache.RecommendationsTTLSec != 7200 {
		t.Errorf("expected RecommendationsTTLSec=7200, got %d", cfg.Cache.RecommendationsTTLSec)
	}
	if cfg.Catalog.MaxOrders != 50 {
		t.Errorf("expected MaxOrders=50, got %d", cfg.Catalog.MaxOrders)
	}
	if cfg.Embedding.Concurrency != 8 {
		t.Errorf("expected Concurrency=8, got %d", cfg.Embedding.Concurrency)
	}
	if cfg.Search.MaxCandidates != 200 {
		t.Errorf("expected MaxCandidates=200, got %d", cfg.Search.MaxCandidates)
	}
	if cfg.Search.MaxQueryLength != 4096 {
		t.Errorf("expected MaxQueryLength=4096, got %d", cfg.Search.MaxQueryLength)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		HTTP:   HTTPConfig{ReadTimeoutSec: 30, WriteTimeoutSec: 90, ShutdownSec: 5},
		Cache:  CacheConfig{Driver: "memory", KeyPrefix: "custom:", SearchTTLSec: 60},
		Search: SearchConfig{MaxCandidates: 50},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 30 {
		t.Errorf("expected ReadTimeoutSec=30, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.WriteTimeoutSec != 90 {
		t.Errorf("expected WriteTimeoutSec=90, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.Cache.Driver != "memory" {
		t.Errorf("expected Driver=memory, got %q", cfg.Cache.Driver)
	}
	if cfg.Cache.KeyPrefix != "custom:" {
		t.Errorf("expected KeyPrefix='custom:', got %q", cfg.Cache.KeyPrefix)
	}
	if cfg.Cache.SearchTTLSec != 60 {
		t.Errorf("expected SearchTTLSec=60, got %d", cfg.Cache.SearchTTLSec)
	}
	if cfg.Search.MaxCandidates != 50 {
		t.Errorf("expected MaxCandidates=50, got %d", cfg.Search.MaxCandidates)
	}
}

func TestParse_ExpandsEnvVars(t *testing.T) {
	t.Setenv("PRODSEARCH_TEST_KEY", "sk-live")
	t.Setenv("PRODSEARCH_TEST_DSN", "")

	data := []byte(`
http:
  port: 8080
cache:
  driver: memory
catalog:
  dsn: ${PRODSEARCH_TEST_DSN:-postgres://localhost/shop}
embedding:
  providers:
    openai:
      api_key: ${PRODSEARCH_TEST_KEY}
  vectorizers:
    default:
      provider: openai
      model: text-embedding-3-small
`)

	cfg, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Catalog.DSN != "postgres://localhost/shop" {
		t.Errorf("DSN = %q, want default", cfg.Catalog.DSN)
	}
	if got := cfg.Embedding.Providers["openai"].APIKey; got != "sk-live" {
		t.Errorf("APIKey = %q, want sk-live", got)
	}
	if cfg.Cache.KeyPrefix != "prodsearch:" {
		t.Errorf("defaults not applied: KeyPrefix = %q", cfg.Cache.KeyPrefix)
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	if _, err := Parse([]byte("http: [")); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestBudgetConfig_Enabled(t *testing.T) {
	if (BudgetConfig{}).Enabled() {
		t.Error("zero budget must be disabled")
	}
	if !(BudgetConfig{MonthlyTokenLimit: 1}).Enabled() {
		t.Error("monthly limit must enable budget")
	}
}

func TestLoad_Local(t *testing.T) {
	cfg, err := Load("local")
	if err != nil {
		t.Fatalf("Load(local): %v", err)
	}
	if cfg.HTTP.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.HTTP.Port)
	}
}

func TestLoad_Missing(t *testing.T) {
	if _, err := Load("does-not-exist"); err == nil {
		t.Fatal("expected error for missing config file")
	}
}
