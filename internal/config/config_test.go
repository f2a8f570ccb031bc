package config

import (
	"os"
	"path/filepath"
	"testing"
)

func validConfig() Config {
	cfg := Config{
		HTTP:     HTTPConfig{Port: 8080},
		Database: DatabaseConfig{Addrs: []string{"localhost:6379"}},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestValidate_InvalidBudgetAction(t *testing.T) {
	cfg := validConfig()
	cfg.Volume.Budget = BudgetConfig{DailyLimit: 1000, Action: "invalid_action"}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for invalid budget action")
	}

	expected := `volume.budget.action must be "warn" or "reject", got "invalid_action"`
	if err.Error() != expected {
		t.Errorf("unexpected error message:\ngot:  %q\nwant: %q", err.Error(), expected)
	}
}

func TestValidate_ValidBudgetActions(t *testing.T) {
	for _, action := range []string{"", "warn", "reject"} {
		t.Run("action="+action, func(t *testing.T) {
			cfg := validConfig()
			cfg.LLM.Budget.Action = action
			cfg.Volume.Budget.Action = action
			if err := cfg.Validate(); err != nil {
				t.Fatalf("unexpected error for valid action %q: %v", action, err)
			}
		})
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"invalid port", func(c *Config) { c.HTTP.Port = 0 }},
		{"missing addrs", func(c *Config) { c.Database.Addrs = nil }},
		{"unknown driver", func(c *Config) { c.Database.Driver = "valkey" }},
		{"unknown provider", func(c *Config) { c.LLM.Provider = "claude-local" }},
		{"gemini without key", func(c *Config) { c.LLM.Provider = "gemini" }},
		{"temperature too high", func(c *Config) { c.LLM.Temperature = 2.5 }},
		{"min keywords below floor", func(c *Config) { c.Clustering.MinKeywords = 3 }},
		{"negative timeout", func(c *Config) { c.Clustering.TimeoutSec = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	checks := []struct {
		name      string
		got, want any
	}{
		{"ReadTimeoutSec", cfg.HTTP.ReadTimeoutSec, 10},
		{"WriteTimeoutSec", cfg.HTTP.WriteTimeoutSec, 120},
		{"ShutdownSec", cfg.HTTP.ShutdownSec, 30},
		{"Driver", cfg.Database.Driver, "redis"},
		{"ReadinessTimeout", cfg.Database.ReadinessTimeout, 10},
		{"Provider", cfg.LLM.Provider, "openai"},
		{"SuggestionCount", cfg.LLM.SuggestionCount, 10},
		{"Temperature", cfg.LLM.Temperature, float32(0.3)},
		{"Autosuggest.Concurrency", cfg.Autosuggest.Concurrency, 4},
		{"Volume.MaxKeywords", cfg.Volume.MaxKeywords, 60},
		{"MinKeywords", cfg.Clustering.MinKeywords, 5},
		{"Clustering.TimeoutSec", cfg.Clustering.TimeoutSec, 0},
		{"Cache.TTLSec", cfg.Cache.TTLSec, 300},
		{"DefaultPageSize", cfg.Index.DefaultPageSize, 20},
		{"MaxPageSize", cfg.Index.MaxPageSize, 100},
		{"MaxBatchSize", cfg.Index.MaxBatchSize, 50},
		{"KeyPrefix", cfg.Storage.KeyPrefix, "keywordlab:"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		HTTP:       HTTPConfig{ReadTimeoutSec: 30, WriteTimeoutSec: 60, ShutdownSec: 5},
		LLM:        LLMConfig{Provider: "gemini", SuggestionCount: 25},
		Clustering: ClusteringConfig{MinKeywords: 8},
		Index:      IndexConfig{DefaultPageSize: 50, MaxPageSize: 500, MaxBatchSize: 10},
		Storage:    StorageConfig{KeyPrefix: "custom:"},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.WriteTimeoutSec != 60 {
		t.Errorf("expected WriteTimeoutSec=60, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.LLM.Provider != "gemini" || cfg.LLM.SuggestionCount != 25 {
		t.Errorf("llm overridden: %+v", cfg.LLM)
	}
	if cfg.Clustering.MinKeywords != 8 {
		t.Errorf("expected MinKeywords=8, got %d", cfg.Clustering.MinKeywords)
	}
	if cfg.Index.MaxBatchSize != 10 {
		t.Errorf("expected MaxBatchSize=10, got %d", cfg.Index.MaxBatchSize)
	}
	if cfg.Storage.KeyPrefix != "custom:" {
		t.Errorf("expected KeyPrefix='custom:', got %q", cfg.Storage.KeyPrefix)
	}
}

func TestBudgetConfig_Enabled(t *testing.T) {
	if (BudgetConfig{}).Enabled() {
		t.Error("zero budget must be disabled")
	}
	if !(BudgetConfig{MonthlyLimit: 1}).Enabled() {
		t.Error("monthly limit must enable the budget")
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("KWL_TEST_KEY", "sk-test")
	t.Setenv("KWL_TEST_EMPTY", "")

	got := string(expandEnvVars([]byte(
		"a: ${KWL_TEST_KEY}\nb: ${KWL_TEST_EMPTY:-fallback}\nc: ${KWL_TEST_UNSET}\n",
	)))
	want := "a: sk-test\nb: fallback\nc: \n"
	if got != want {
		t.Errorf("expandEnvVars:\ngot:  %q\nwant: %q", got, want)
	}
}

func TestLoadFile(t *testing.T) {
	t.Setenv("KWL_TEST_LLM_KEY", "sk-from-env")

	path := filepath.Join(t.TempDir(), "test.yaml")
	data := []byte(`
http:
  port: 9090
database:
  addrs: ["redis:6379"]
llm:
  api_key: ${KWL_TEST_LLM_KEY}
  models:
    cluster: gpt-4o
  budget:
    daily_limit: 200000
    action: reject
volume:
  country: ${KWL_TEST_COUNTRY:-de}
clustering:
  timeout_sec: 90
  generate_personas: true
auth:
  api_keys: ["k1"]
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.HTTP.Port != 9090 || cfg.LLM.APIKey != "sk-from-env" || cfg.Volume.Country != "de" {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if cfg.LLM.Models.Cluster != "gpt-4o" || !cfg.LLM.Budget.Enabled() || cfg.LLM.Budget.Action != "reject" {
		t.Errorf("llm section: %+v", cfg.LLM)
	}
	if cfg.Clustering.TimeoutSec != 90 || !cfg.Clustering.GeneratePersonas {
		t.Errorf("clustering section: %+v", cfg.Clustering)
	}
	if cfg.Storage.KeyPrefix != "keywordlab:" {
		t.Errorf("defaults not applied: %q", cfg.Storage.KeyPrefix)
	}
}

func TestLoadFile_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("http:\n  port: 0\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(path); err == nil {
		t.Fatal("expected validation error")
	}
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected read error")
	}
}
