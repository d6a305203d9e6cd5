package prodsearch

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	driver     string // "valkey", "redis" or "memory"
	addrs      []string
	password   string
	maxEntries int
	keyPrefix  string

	embedder Embedder
	openAI   *openAIConfig

	catalog     Catalog
	orders      Orders
	postgresDSN string

	concurrency        int
	searchTTL          time.Duration
	recommendationsTTL time.Duration
	maxCandidates      int

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

type openAIConfig struct {
	apiKey  string
	baseURL string
	model   string
}

// WithValkey caches results in a Valkey instance.
func WithValkey(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "valkey"
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithRedis caches results in a Redis instance.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "redis"
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithMemoryCache caches results in process memory, bounded to maxEntries (LRU).
// This is the default when no cache option is given.
func WithMemoryCache(maxEntries int) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "memory"
		c.addrs = nil
		c.maxEntries = maxEntries
	})
}

// WithKeyPrefix namespaces cache keys. Default: "prodsearch:".
func WithKeyPrefix(prefix string) Option {
	return optionFunc(func(c *clientConfig) {
		c.keyPrefix = prefix
	})
}

// WithEmbedder sets the text embedding provider.
func WithEmbedder(e Embedder) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedder = e
		c.openAI = nil
	})
}

// WithOpenAI embeds through an OpenAI-compatible API. baseURL may be empty.
func WithOpenAI(apiKey, baseURL, model string) Option {
	return optionFunc(func(c *clientConfig) {
		c.openAI = &openAIConfig{apiKey: apiKey, baseURL: baseURL, model: model}
		c.embedder = nil
	})
}

// WithCatalog sets a custom product source.
func WithCatalog(cat Catalog) Option {
	return optionFunc(func(c *clientConfig) {
		c.catalog = cat
	})
}

// WithOrders sets a custom order history source for recommendations.
func WithOrders(o Orders) Option {
	return optionFunc(func(c *clientConfig) {
		c.orders = o
	})
}

// WithPostgres reads products and orders from a Postgres shop database.
// WithCatalog and WithOrders take precedence when also given.
func WithPostgres(dsn string) Option {
	return optionFunc(func(c *clientConfig) {
		c.postgresDSN = dsn
	})
}

// WithConcurrency caps in-flight embedding calls. Default: 8.
func WithConcurrency(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.concurrency = n
	})
}

// WithTTL sets result cache lifetimes. Zero keeps the default (1h search, 2h recommendations).
func WithTTL(search, recommendations time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.searchTTL = search
		c.recommendationsTTL = recommendations
	})
}

// WithMaxCandidates caps how many catalog products are embedded per call. Default: 200.
func WithMaxCandidates(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.maxCandidates = n
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts, durations, hit counts)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
