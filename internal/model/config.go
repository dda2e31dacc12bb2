package model

import "time"

// Config is the full runtime configuration. Constructed once at startup and
// passed by reference into the pipeline; never mutated afterwards.
type Config struct {
	CorpusPath  string            `json:"corpus_path" yaml:"corpus_path"`
	Reviewer    ReviewerConfig    `json:"reviewer" yaml:"reviewer"`
	Retrieval   RetrievalConfig   `json:"retrieval" yaml:"retrieval"`
	Concurrency ConcurrencyConfig `json:"concurrency" yaml:"concurrency"`
	Resilience  ResilienceConfig  `json:"resilience" yaml:"resilience"`
	Checkpoint  CheckpointConfig  `json:"checkpoint" yaml:"checkpoint"`
	Cache       CacheConfig       `json:"cache" yaml:"cache"`
	Output      OutputConfig      `json:"output" yaml:"output"`
}

// ReviewerConfig configures the reasoning-service client.
type ReviewerConfig struct {
	Provider  string `json:"provider" yaml:"provider"` // openai, anthropic, ollama
	Model     string `json:"model" yaml:"model"`
	APIKey    string `json:"-" yaml:"-"` // env only, never persisted
	BaseURL   string `json:"base_url,omitempty" yaml:"base_url"`
	Timeout   int    `json:"timeout_seconds" yaml:"timeout_seconds"`
	MaxTokens int    `json:"max_tokens" yaml:"max_tokens"`
}

// RetrievalConfig configures the rule retriever.
type RetrievalConfig struct {
	TopK int `json:"top_k" yaml:"top_k"` // per namespace
}

// ConcurrencyConfig configures the citation worker pool.
type ConcurrencyConfig struct {
	Workers    int `json:"workers" yaml:"workers"`
	MaxRetries int `json:"max_retries" yaml:"max_retries"` // strict re-invocations after a rejected response
}

// ResilienceConfig configures the shared resilient call wrapper around the
// reasoning service.
type ResilienceConfig struct {
	RequestsPerSecond float64       `json:"requests_per_second" yaml:"requests_per_second"`
	Burst             int           `json:"burst" yaml:"burst"`
	BreakerThreshold  int           `json:"breaker_threshold" yaml:"breaker_threshold"` // consecutive failures before opening
	BreakerCooldown   time.Duration `json:"breaker_cooldown" yaml:"breaker_cooldown"`
	CallTimeout       time.Duration `json:"call_timeout" yaml:"call_timeout"`
	CallRetries       int           `json:"call_retries" yaml:"call_retries"` // transport-level retries per invocation
	BackoffBase       time.Duration `json:"backoff_base" yaml:"backoff_base"`
}

// CheckpointConfig configures batch resumability.
type CheckpointConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Path    string `json:"path,omitempty" yaml:"path"`
}

// CacheConfig configures reviewer response caching.
type CacheConfig struct {
	Enabled bool          `json:"enabled" yaml:"enabled"`
	Dir     string        `json:"dir,omitempty" yaml:"dir"`
	TTL     time.Duration `json:"ttl" yaml:"ttl"`
}

// OutputConfig configures rendering.
type OutputConfig struct {
	Verbose       bool `json:"verbose" yaml:"verbose"`
	IncludeFooter bool `json:"include_footer" yaml:"include_footer"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Reviewer: ReviewerConfig{
			Provider:  "openai",
			Timeout:   30,
			MaxTokens: 1500,
		},
		Retrieval: RetrievalConfig{
			TopK: 5,
		},
		Concurrency: ConcurrencyConfig{
			Workers:    4,
			MaxRetries: 2,
		},
		Resilience: ResilienceConfig{
			RequestsPerSecond: 2,
			Burst:             4,
			BreakerThreshold:  5,
			BreakerCooldown:   30 * time.Second,
			CallTimeout:       45 * time.Second,
			CallRetries:       3,
			BackoffBase:       time.Second,
		},
		Checkpoint: CheckpointConfig{
			Enabled: false,
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     24 * time.Hour,
		},
		Output: OutputConfig{
			IncludeFooter: true,
		},
	}
}
