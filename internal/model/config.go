package model

import "time"

// Config is the complete runtime configuration.
// Field tags carry both yaml (config show/init) and mapstructure (viper) names.
type Config struct {
	Graph      GraphConfig      `yaml:"graph" mapstructure:"graph"`
	Scoring    ScoringConfig    `yaml:"scoring" mapstructure:"scoring"`
	Extraction ExtractionConfig `yaml:"extraction" mapstructure:"extraction"`
	Cache      CacheConfig      `yaml:"cache" mapstructure:"cache"`
	Rerank     RerankConfig     `yaml:"rerank" mapstructure:"rerank"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// GraphConfig controls claim graph construction and adjudication
type GraphConfig struct {
	ClusterThreshold float64 `yaml:"cluster_threshold" mapstructure:"cluster_threshold"`
	Lambda           float64 `yaml:"lambda" mapstructure:"lambda"`                     // Contradiction penalty factor
	TopK             int     `yaml:"top_k" mapstructure:"top_k"`                       // Decisions returned per key
	TopN             int     `yaml:"top_n" mapstructure:"top_n"`                       // Evidence items fed into the graph
	NormalizeValues  bool    `yaml:"normalize_values" mapstructure:"normalize_values"` // 60 sec -> 60s, true -> on, ...
}

// ScoringConfig controls evidence weights
type ScoringConfig struct {
	SourceWeights        map[string]float64 `yaml:"source_weights" mapstructure:"source_weights"`
	FreshnessHorizonDays int                `yaml:"freshness_horizon_days" mapstructure:"freshness_horizon_days"`
}

// ExtractionConfig configures the claim extractor
type ExtractionConfig struct {
	Provider          string        `yaml:"provider" mapstructure:"provider"` // openai, anthropic, ollama
	Model             string        `yaml:"model" mapstructure:"model"`
	APIKey            string        `yaml:"-" mapstructure:"api_key"` // Never written to disk
	BaseURL           string        `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout           time.Duration `yaml:"timeout" mapstructure:"timeout"` // Per extraction call
	Workers           int           `yaml:"workers" mapstructure:"workers"`
	RequestsPerSecond float64       `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int           `yaml:"burst" mapstructure:"burst"`
	MaxTokens         int           `yaml:"max_tokens" mapstructure:"max_tokens"`
	HTTPProxy         string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy        string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy           string        `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// CacheConfig configures the extraction result cache
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
	RedisURL  string        `yaml:"redis_url,omitempty" mapstructure:"redis_url"` // Optional shared layer
}

// RerankConfig configures the optional cross-encoder reranking service
type RerankConfig struct {
	Enabled bool          `yaml:"enabled" mapstructure:"enabled"`
	URL     string        `yaml:"url" mapstructure:"url"`
	Model   string        `yaml:"model" mapstructure:"model"`
	TopN    int           `yaml:"top_n" mapstructure:"top_n"`
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// LogConfig configures logging and the per-query text log
type LogConfig struct {
	Mode        string `yaml:"mode" mapstructure:"mode"` // dev or prod
	TextLog     string `yaml:"text_log,omitempty" mapstructure:"text_log"`
	MetricsFile string `yaml:"metrics_file,omitempty" mapstructure:"metrics_file"` // Prometheus textfile written after each check
}

// DefaultSourceWeights are the trust weights per source type
func DefaultSourceWeights() map[string]float64 {
	return map[string]float64{
		string(SourceDocs):   1.0,
		string(SourceForums): 0.88,
		string(SourceBlogs):  0.75,
	}
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Graph: GraphConfig{
			ClusterThreshold: 0.62,
			Lambda:           0.7,
			TopK:             2,
			TopN:             10,
		},
		Scoring: ScoringConfig{
			SourceWeights:        DefaultSourceWeights(),
			FreshnessHorizonDays: 180,
		},
		Extraction: ExtractionConfig{
			Provider:          "openai",
			Model:             "gpt-4o-mini",
			Timeout:           30 * time.Second,
			Workers:           4,
			RequestsPerSecond: 5,
			Burst:             5,
			MaxTokens:         800,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       ".astarml/cache",
			MemoryTTL: 30 * time.Minute,
			DiskTTL:   7 * 24 * time.Hour,
		},
		Rerank: RerankConfig{
			Model:   "cross-encoder/ms-marco-MiniLM-L-6-v2",
			TopN:    10,
			Timeout: 20 * time.Second,
		},
		Log: LogConfig{
			Mode: "dev",
		},
	}
}
