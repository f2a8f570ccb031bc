package keywordlab

import (
	"log/slog"

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
	addrs    []string
	password string
	db       int

	llmProvider string
	llmAPIKey   string
	llmBaseURL  string
	llmModel    string

	volumeBaseURL string
	volumeAPIKey  string

	suggestBaseURL string

	keyPrefix        string
	maxBatchSize     int
	cacheTTLSec      int
	generatePersonas bool

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithRedis configures the client to connect to a Redis instance.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithDB selects the Redis logical database.
func WithDB(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.db = n
	})
}

// WithOpenAI uses an OpenAI chat completion model.
func WithOpenAI(apiKey, model string) Option {
	return optionFunc(func(c *clientConfig) {
		c.llmProvider = "openai"
		c.llmAPIKey = apiKey
		c.llmModel = model
	})
}

// WithOpenAICompatible uses any server that speaks the OpenAI chat API (vLLM, Ollama, OpenRouter).
func WithOpenAICompatible(baseURL, apiKey, model string) Option {
	return optionFunc(func(c *clientConfig) {
		c.llmProvider = "openai"
		c.llmBaseURL = baseURL
		c.llmAPIKey = apiKey
		c.llmModel = model
	})
}

// WithGemini uses a Gemini model.
func WithGemini(apiKey, model string) Option {
	return optionFunc(func(c *clientConfig) {
		c.llmProvider = "gemini"
		c.llmAPIKey = apiKey
		c.llmModel = model
	})
}

// WithVolumeAPI sets the search volume provider; an empty baseURL keeps the default
// endpoint. Without an API key keywords carry zero volume.
func WithVolumeAPI(baseURL, apiKey string) Option {
	return optionFunc(func(c *clientConfig) {
		c.volumeBaseURL = baseURL
		c.volumeAPIKey = apiKey
	})
}

// WithAutosuggestURL overrides the autosuggest endpoint.
func WithAutosuggestURL(baseURL string) Option {
	return optionFunc(func(c *clientConfig) {
		c.suggestBaseURL = baseURL
	})
}

// WithKeyPrefix namespaces every stored key. Default: "keywordlab:".
func WithKeyPrefix(prefix string) Option {
	return optionFunc(func(c *clientConfig) {
		c.keyPrefix = prefix
	})
}

// WithMaxBatchSize sets the maximum number of queries per Batch call.
// Default: 50.
func WithMaxBatchSize(size int) Option {
	return optionFunc(func(c *clientConfig) {
		c.maxBatchSize = size
	})
}

// WithCompletionCache caches identical model requests for ttlSec seconds.
// Disabled by default.
func WithCompletionCache(ttlSec int) Option {
	return optionFunc(func(c *clientConfig) {
		c.cacheTTLSec = ttlSec
	})
}

// WithPersonas generates a persona for every cluster after clustering succeeds.
func WithPersonas() Option {
	return optionFunc(func(c *clientConfig) {
		c.generatePersonas = true
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
