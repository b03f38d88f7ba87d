package model

import (
	"os"
	"path/filepath"
	"time"
)

// Config holds the complete shepard configuration
type Config struct {
	API      APIConfig      `yaml:"api" mapstructure:"api"`
	Oracle   OracleConfig   `yaml:"oracle" mapstructure:"oracle"`
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Cache    CacheConfig    `yaml:"cache" mapstructure:"cache"`
	Analysis AnalysisConfig `yaml:"analysis" mapstructure:"analysis"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Output   OutputConfig   `yaml:"output" mapstructure:"output"`
}

// APIConfig configures the external legal-data service used to resolve
// opinions and their citations
type APIConfig struct {
	BaseURL         string        `yaml:"base_url" mapstructure:"base_url"`
	Token           string        `yaml:"token" mapstructure:"token"`
	Timeout         time.Duration `yaml:"timeout" mapstructure:"timeout"`
	RequestsPerHour int           `yaml:"requests_per_hour" mapstructure:"requests_per_hour"`
	MaxRetries      int           `yaml:"max_retries" mapstructure:"max_retries"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	UserAgent       string        `yaml:"user_agent" mapstructure:"user_agent"`
}

// OracleConfig configures the assessment oracle
type OracleConfig struct {
	// Provider name: "openai", "ollama", "rules", ""
	// Empty and "rules" both select the deterministic rule-based provider.
	Provider  string `yaml:"provider" mapstructure:"provider"`
	Model     string `yaml:"model" mapstructure:"model"`
	APIKey    string `yaml:"api_key" mapstructure:"api_key"`
	BaseURL   string `yaml:"base_url" mapstructure:"base_url"`
	Timeout   int    `yaml:"timeout" mapstructure:"timeout"` // seconds
	MaxTokens int    `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// StoreConfig configures the durable tree/assessment store
type StoreConfig struct {
	Dir      string `yaml:"dir" mapstructure:"dir"`
	InMemory bool   `yaml:"in_memory" mapstructure:"in_memory"`
}

// CacheConfig configures the in-memory cache layers
type CacheConfig struct {
	MemoryTTL   time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	NotFoundTTL time.Duration `yaml:"not_found_ttl" mapstructure:"not_found_ttl"`
}

// AnalysisConfig configures the recursive analyzer
type AnalysisConfig struct {
	DefaultDepth int `yaml:"default_depth" mapstructure:"default_depth"`
	MaxDepth     int `yaml:"max_depth" mapstructure:"max_depth"`
	Workers      int `yaml:"workers" mapstructure:"workers"`
}

// ServerConfig configures the HTTP operation surface
type ServerConfig struct {
	Addr string `yaml:"addr" mapstructure:"addr"`
}

// OutputConfig controls CLI output behavior
type OutputConfig struct {
	Verbose bool `yaml:"verbose" mapstructure:"verbose"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	dataDir := filepath.Join(home, ".shepard")

	return &Config{
		API: APIConfig{
			BaseURL:         "https://www.courtlistener.com/api/rest/v4",
			Timeout:         30 * time.Second,
			RequestsPerHour: 1000,
			MaxRetries:      3,
			MaxBodyBytes:    5_000_000,
			UserAgent:       "Shepard/0.1 (+https://github.com/okravets/shepard)",
		},
		Oracle: OracleConfig{
			Provider:  "", // Rule-based by default
			Timeout:   30,
			MaxTokens: 500,
		},
		Store: StoreConfig{
			Dir: filepath.Join(dataDir, "store"),
		},
		Cache: CacheConfig{
			MemoryTTL:   30 * time.Minute,
			NotFoundTTL: 24 * time.Hour,
		},
		Analysis: AnalysisConfig{
			DefaultDepth: 2,
			MaxDepth:     5,
			Workers:      4,
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
	}
}
