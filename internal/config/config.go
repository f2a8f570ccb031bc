package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/keywordlab/internal/domain"
)

// Config holds the keywordlab configuration.
type Config struct {
	HTTP        HTTPConfig        `yaml:"http"`
	Database    DatabaseConfig    `yaml:"database"`
	LLM         LLMConfig         `yaml:"llm"`
	Autosuggest AutosuggestConfig `yaml:"autosuggest"`
	Volume      VolumeConfig      `yaml:"volume"`
	Clustering  ClusteringConfig  `yaml:"clustering"`
	Cache       CacheConfig       `yaml:"cache"`
	Auth        AuthConfig        `yaml:"auth"`
	Index       IndexConfig       `yaml:"index"`
	Storage     StorageConfig     `yaml:"storage"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // redis
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// IndexConfig holds pagination and batch settings.
type IndexConfig struct {
	DefaultPageSize int `yaml:"default_page_size"`
	MaxPageSize     int `yaml:"max_page_size"`
	MaxBatchSize    int `yaml:"max_batch_size"`
}

// StorageConfig holds storage settings.
type StorageConfig struct {
	KeyPrefix string `yaml:"key_prefix"`
}

// BudgetConfig holds daily/monthly limits of one metered resource.
type BudgetConfig struct {
	DailyLimit   int64  `yaml:"daily_limit"`   // 0 = unlimited
	MonthlyLimit int64  `yaml:"monthly_limit"` // 0 = unlimited
	Action       string `yaml:"action"`        // "reject" | "warn" (default)
}

// Enabled reports whether any limit is set.
func (b BudgetConfig) Enabled() bool {
	return b.DailyLimit > 0 || b.MonthlyLimit > 0
}

// ModelsConfig selects the model per prompt family. Empty uses the provider default.
type ModelsConfig struct {
	Suggest string `yaml:"suggest"`
	Cluster string `yaml:"cluster"`
	Persona string `yaml:"persona"`
}

// LLMConfig holds language model provider settings.
type LLMConfig struct {
	Provider        string       `yaml:"provider"` // openai (default, any compatible API) | gemini
	APIKey          string       `yaml:"api_key"`
	BaseURL         string       `yaml:"base_url"`
	Model           string       `yaml:"model"`
	Models          ModelsConfig `yaml:"models"`
	MaxTokens       int          `yaml:"max_tokens"`
	Temperature     float32      `yaml:"temperature"`
	SuggestionCount int          `yaml:"suggestion_count"`
	CacheTTLSec     int          `yaml:"cache_ttl_sec"` // 0 = completion cache disabled
	Budget          BudgetConfig `yaml:"budget"`
}

// AutosuggestConfig holds search engine autosuggest settings.
type AutosuggestConfig struct {
	BaseURL     string `yaml:"base_url"`
	Client      string `yaml:"client"`
	TimeoutSec  int    `yaml:"timeout_sec"`
	Concurrency int    `yaml:"concurrency"`
	Alphabet    bool   `yaml:"alphabet"` // default for requests that do not ask
	Symbols     bool   `yaml:"symbols"`
}

// VolumeConfig holds search volume provider settings.
type VolumeConfig struct {
	BaseURL     string       `yaml:"base_url"`
	APIKey      string       `yaml:"api_key"`
	Country     string       `yaml:"country"`
	Currency    string       `yaml:"currency"`
	DataSource  string       `yaml:"data_source"`
	TimeoutSec  int          `yaml:"timeout_sec"`
	MaxKeywords int          `yaml:"max_keywords"`
	Budget      BudgetConfig `yaml:"budget"`
}

// ClusteringConfig holds clustering orchestrator settings.
type ClusteringConfig struct {
	MinKeywords      int  `yaml:"min_keywords"`
	TimeoutSec       int  `yaml:"timeout_sec"` // 0 = no supervisor timeout
	GeneratePersonas bool `yaml:"generate_personas"`
}

// CacheConfig holds research read cache settings.
type CacheConfig struct {
	Enabled bool `yaml:"enabled"`
	TTLSec  int  `yaml:"ttl_sec"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from an explicit YAML path.
func LoadFile(configPath string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
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
	pipeline := domain.DefaultPipelineConfig()
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 120
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 30
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "redis"
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.LLM.Provider == "" {
		c.LLM.Provider = "openai"
	}
	if c.LLM.SuggestionCount <= 0 {
		c.LLM.SuggestionCount = pipeline.SuggestionCount
	}
	if c.LLM.Temperature <= 0 {
		c.LLM.Temperature = 0.3
	}
	if c.Autosuggest.TimeoutSec <= 0 {
		c.Autosuggest.TimeoutSec = 10
	}
	if c.Autosuggest.Concurrency <= 0 {
		c.Autosuggest.Concurrency = 4
	}
	if c.Volume.TimeoutSec <= 0 {
		c.Volume.TimeoutSec = 30
	}
	if c.Volume.MaxKeywords <= 0 {
		c.Volume.MaxKeywords = pipeline.MaxVolumeCheckKeywords
	}
	if c.Clustering.MinKeywords <= 0 {
		c.Clustering.MinKeywords = pipeline.MinClusterKeywords
	}
	if c.Cache.TTLSec <= 0 {
		c.Cache.TTLSec = 300
	}
	if c.Index.DefaultPageSize <= 0 {
		c.Index.DefaultPageSize = 20
	}
	if c.Index.MaxPageSize <= 0 {
		c.Index.MaxPageSize = 100
	}
	if c.Index.MaxBatchSize <= 0 {
		c.Index.MaxBatchSize = 50
	}
	if c.Storage.KeyPrefix == "" {
		c.Storage.KeyPrefix = "keywordlab:"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Database.Driver != "redis" {
		return fmt.Errorf("database.driver must be \"redis\", got %q", c.Database.Driver)
	}
	if len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required")
	}
	switch c.LLM.Provider {
	case "openai", "gemini":
	default:
		return fmt.Errorf("llm.provider must be \"openai\" or \"gemini\", got %q", c.LLM.Provider)
	}
	if c.LLM.Provider == "gemini" && c.LLM.APIKey == "" {
		return fmt.Errorf("llm.api_key is required for gemini")
	}
	if c.LLM.Temperature > 2 {
		return fmt.Errorf("llm.temperature must be between 0 and 2, got %v", c.LLM.Temperature)
	}
	if c.Clustering.MinKeywords < 5 {
		return fmt.Errorf("clustering.min_keywords must be at least 5, got %d", c.Clustering.MinKeywords)
	}
	if c.Clustering.TimeoutSec < 0 {
		return fmt.Errorf("clustering.timeout_sec must not be negative, got %d", c.Clustering.TimeoutSec)
	}
	budgets := map[string]BudgetConfig{"llm": c.LLM.Budget, "volume": c.Volume.Budget}
	for _, name := range []string{"llm", "volume"} {
		switch budgets[name].Action {
		case "", "warn", "reject":
		default:
			return fmt.Errorf("%s.budget.action must be \"warn\" or \"reject\", got %q", name, budgets[name].Action)
		}
	}
	return nil
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
