package model

import "time"

// Config holds the complete runtime configuration
type Config struct {
	HTTP   HTTPConfig   `yaml:"http"`
	Search SearchConfig `yaml:"search"`
	Cache  CacheConfig  `yaml:"cache"`
	Engine EngineConfig `yaml:"engine"`
	Score  ScoreConfig  `yaml:"score"`
	LLM    LLMConfig    `yaml:"llm"`
	Output OutputConfig `yaml:"output"`
}

// HTTPConfig controls outbound HTTP behavior
type HTTPConfig struct {
	Timeout      time.Duration `yaml:"timeout"`
	UserAgent    string        `yaml:"user_agent"`
	MaxBodyBytes int64         `yaml:"max_body_bytes"`
}

// SearchConfig controls the web-search evidence path
type SearchConfig struct {
	Enabled     bool          `yaml:"enabled"`      // Use live web search when no text provided
	MaxResults  int           `yaml:"max_results"`  // Snippets kept per query
	MaxPages    int           `yaml:"max_pages"`    // Result pages fetched per record
	RateDelay   time.Duration `yaml:"rate_delay"`   // Minimum delay between any two network requests
	MaxRetries  int           `yaml:"max_retries"`  // Retries per request on transient failure
	MaxSnippet  int           `yaml:"max_snippet"`  // Per-snippet character cap
	MaxEvidence int           `yaml:"max_evidence"` // Total evidence character cap per record
}

// CacheConfig controls the search-response cache
type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	Dir     string        `yaml:"dir"`
	TTL     time.Duration `yaml:"ttl"`
}

// EngineConfig controls the batch loop
type EngineConfig struct {
	MaxRows      int   `yaml:"max_rows"`       // Row ceiling, enforced before processing
	MaxFileBytes int64 `yaml:"max_file_bytes"` // Input file size ceiling
}

// ScoreConfig holds the verdict thresholds. These are defaults, not
// requirements: callers may tune them per dataset.
type ScoreConfig struct {
	LikelyThreshold    float64 `yaml:"likely_threshold"`
	ConfirmedThreshold float64 `yaml:"confirmed_threshold"`
}

// LLMConfig controls the optional audit annotation. The annotation
// never affects verdicts or confidence.
type LLMConfig struct {
	Enabled bool   `yaml:"enabled"`
	Model   string `yaml:"model"`
	APIKey  string `yaml:"-"` // From OPENAI_API_KEY, never persisted
	BaseURL string `yaml:"base_url,omitempty"`
}

// OutputConfig controls reporting
type OutputConfig struct {
	Verbose bool `yaml:"verbose"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Timeout:      15 * time.Second,
			UserAgent:    "ldverify/0.1 (+https://github.com/rkaragin/ldverify)",
			MaxBodyBytes: 2_000_000,
		},
		Search: SearchConfig{
			Enabled:     false,
			MaxResults:  5,
			MaxPages:    2,
			RateDelay:   2 * time.Second,
			MaxRetries:  3,
			MaxSnippet:  1000,
			MaxEvidence: 8192,
		},
		Cache: CacheConfig{
			Enabled: true,
			Dir:     "", // Resolved to ~/.ldverify/cache by the CLI
			TTL:     24 * time.Hour,
		},
		Engine: EngineConfig{
			MaxRows:      500,
			MaxFileBytes: 10 * 1024 * 1024,
		},
		Score: ScoreConfig{
			LikelyThreshold:    0.33,
			ConfirmedThreshold: 0.66,
		},
		LLM: LLMConfig{
			Enabled: false,
			Model:   "gpt-4o-mini",
		},
		Output: OutputConfig{
			Verbose: false,
		},
	}
}
