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

// Config holds the roomrank API configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	LLM       LLMConfig       `yaml:"llm"`
	Rerank    RerankConfig    `yaml:"rerank"`
	Pipelines PipelinesConfig `yaml:"pipelines"`
	Auth      AuthConfig      `yaml:"auth"`
	Logging   LoggingConfig   `yaml:"logging"`
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

// DatabaseConfig holds Redis connection settings.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// EmbeddingConfig holds embedding provider settings. Model, dimensions and
// metric must match the collection manifests; the startup gate enforces it.
type EmbeddingConfig struct {
	Provider    string `yaml:"provider"`
	BaseURL     string `yaml:"base_url"`
	APIKey      string `yaml:"api_key"`
	Model       string `yaml:"model"`
	Dimensions  int    `yaml:"dimensions"`
	Metric      string `yaml:"metric"` // cosine, l2, ip
	CacheTTLSec int    `yaml:"cache_ttl_sec"`
}

// LLMConfig holds completion provider settings, shared by the constraint
// extractor and the compatibility scorer.
type LLMConfig struct {
	Provider    string  `yaml:"provider"`
	BaseURL     string  `yaml:"base_url"`
	APIKey      string  `yaml:"api_key"`
	Model       string  `yaml:"model"`
	Temperature float32 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
	MaxAttempts int     `yaml:"max_attempts"`
	RetryBaseMS int     `yaml:"retry_base_ms"`
}

// RerankConfig holds cross-encoder rerank API settings. Disabled means
// rankings are built from vector similarity (and compatibility) alone.
type RerankConfig struct {
	Enabled       bool   `yaml:"enabled"`
	BaseURL       string `yaml:"base_url"`
	APIKey        string `yaml:"api_key"`
	Model         string `yaml:"model"`
	TimeoutSec    int    `yaml:"timeout_sec"`
	MaxCandidates int    `yaml:"max_candidates"`
}

// WeightsConfig holds aggregation channel weights.
type WeightsConfig struct {
	Vector float64 `yaml:"vector"`
	Rerank float64 `yaml:"rerank"`
	Compat float64 `yaml:"compat"`
}

// PipelineConfig holds the per-pipeline knobs.
type PipelineConfig struct {
	RetrieveK       int           `yaml:"retrieve_k"`
	PairLimit       int           `yaml:"pair_limit"`
	PairConcurrency int           `yaml:"pair_concurrency"`
	TopK            int           `yaml:"top_k"`
	TimeoutSec      int           `yaml:"timeout_sec"`
	Weights         WeightsConfig `yaml:"weights"`
}

// PipelinesConfig holds both recommendation pipelines.
type PipelinesConfig struct {
	Apartments PipelineConfig `yaml:"apartments"`
	Roommates  PipelineConfig `yaml:"roommates"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

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
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		// Pipelines block on LLM round trips; the write timeout has to
		// outlast the pipeline timeout.
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "all-MiniLM-L6-v2"
	}
	if c.Embedding.Dimensions <= 0 {
		c.Embedding.Dimensions = 384
	}
	if c.Embedding.Metric == "" {
		c.Embedding.Metric = "cosine"
	}
	if c.Embedding.CacheTTLSec <= 0 {
		c.Embedding.CacheTTLSec = 86400
	}
	if c.LLM.MaxAttempts <= 0 {
		c.LLM.MaxAttempts = 3
	}
	if c.LLM.RetryBaseMS <= 0 {
		c.LLM.RetryBaseMS = 200
	}
	if c.LLM.MaxTokens <= 0 {
		c.LLM.MaxTokens = 2048
	}
	if c.Rerank.TimeoutSec <= 0 {
		c.Rerank.TimeoutSec = 30
	}
	if c.Rerank.MaxCandidates <= 0 {
		c.Rerank.MaxCandidates = 50
	}

	applyPipelineDefaults(&c.Pipelines.Apartments, WeightsConfig{Vector: 0.35, Rerank: 0.65})
	applyPipelineDefaults(&c.Pipelines.Roommates, WeightsConfig{Vector: 0.25, Rerank: 0.35, Compat: 0.40})
	if c.Pipelines.Roommates.PairLimit <= 0 {
		c.Pipelines.Roommates.PairLimit = 10
	}
	if c.Pipelines.Roommates.PairConcurrency <= 0 {
		c.Pipelines.Roommates.PairConcurrency = 4
	}
}

func applyPipelineDefaults(p *PipelineConfig, weights WeightsConfig) {
	if p.RetrieveK <= 0 {
		p.RetrieveK = 25
	}
	if p.TopK <= 0 {
		p.TopK = 3
	}
	if p.TimeoutSec <= 0 {
		p.TimeoutSec = 20
	}
	if p.Weights == (WeightsConfig{}) {
		p.Weights = weights
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required")
	}
	if c.Embedding.BaseURL == "" {
		return fmt.Errorf("embedding.base_url is required")
	}
	switch c.Embedding.Metric {
	case "cosine", "l2", "ip":
	default:
		return fmt.Errorf("embedding.metric must be cosine, l2 or ip, got %q", c.Embedding.Metric)
	}
	if c.LLM.BaseURL == "" {
		return fmt.Errorf("llm.base_url is required")
	}
	if c.Rerank.Enabled && c.Rerank.BaseURL == "" {
		return fmt.Errorf("rerank.base_url is required when rerank is enabled")
	}

	if err := validatePipeline("apartments", c.Pipelines.Apartments); err != nil {
		return err
	}
	if err := validatePipeline("roommates", c.Pipelines.Roommates); err != nil {
		return err
	}
	if c.Pipelines.Roommates.PairLimit < c.Pipelines.Roommates.TopK {
		return fmt.Errorf("pipelines.roommates.pair_limit (%d) must be >= top_k (%d)",
			c.Pipelines.Roommates.PairLimit, c.Pipelines.Roommates.TopK)
	}
	return nil
}

func validatePipeline(name string, p PipelineConfig) error {
	w := p.Weights
	if w.Vector < 0 || w.Rerank < 0 || w.Compat < 0 {
		return fmt.Errorf("pipelines.%s.weights must be non-negative", name)
	}
	if w.Vector+w.Rerank+w.Compat <= 0 {
		return fmt.Errorf("pipelines.%s.weights must not all be zero", name)
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
