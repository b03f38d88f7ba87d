package oracle

import (
	"fmt"
	"strings"

	"github.com/okravets/shepard/internal/model"
)

// Config holds oracle provider configuration
type Config struct {
	// Provider name: "openai", "ollama", "rules", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI
	APIKey string

	// BaseURL for custom endpoints (e.g. Ollama)
	BaseURL string

	// Timeout for API requests, seconds
	Timeout int

	// MaxTokens for response generation
	MaxTokens int
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:  "", // Rule-based
		Timeout:   30,
		MaxTokens: 500,
	}
}

// ConfigFromModel converts model.OracleConfig to oracle.Config
func ConfigFromModel(cfg model.OracleConfig) Config {
	return Config{
		Provider:  cfg.Provider,
		Model:     cfg.Model,
		APIKey:    cfg.APIKey,
		BaseURL:   cfg.BaseURL,
		Timeout:   cfg.Timeout,
		MaxTokens: cfg.MaxTokens,
	}
}

// NewProvider creates a provider based on configuration. Remote providers are
// wrapped in a circuit breaker so a struggling service is given time to
// recover instead of being hammered by every level of a traversal.
func NewProvider(config Config) (Provider, error) {
	switch strings.ToLower(config.Provider) {
	case "openai":
		p, err := NewOpenAIProvider(config)
		if err != nil {
			return nil, err
		}
		return WithBreaker(p), nil

	case "ollama":
		p, err := NewOllamaProvider(config)
		if err != nil {
			return nil, err
		}
		return WithBreaker(p), nil

	case "rules", "":
		return NewRulesProvider(), nil

	default:
		return nil, fmt.Errorf("unknown oracle provider: %s (supported: openai, ollama, rules)", config.Provider)
	}
}
