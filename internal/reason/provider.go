// Package reason is the boundary to the external reasoning service. The
// pipeline depends only on the Provider interface and the ReviewResponse
// shape, never on a vendor API.
package reason

import (
	"context"

	"github.com/ruleproof/ruleproof/internal/model"
)

// Provider defines the interface for reasoning-service backends.
type Provider interface {
	// Name returns the provider name
	Name() string

	// Review judges one citation against the rule excerpts it is shown
	Review(ctx context.Context, req ReviewRequest) (*model.ReviewResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// ReviewRequest contains the input for one citation review. Rules is the
// complete shortlist shown to the service; the evidence gate later rejects
// any verdict citing outside it.
type ReviewRequest struct {
	Citation model.Citation

	// Rules are the retrieved rule excerpts. Never the full corpus.
	Rules []model.Rule

	// Strict reinforces verbatim quoting after a rejected response.
	Strict bool

	// Model overrides the configured model (provider-specific).
	Model string

	// MaxTokens limits the response length.
	MaxTokens int
}

// Config holds reasoning-service provider configuration.
type Config struct {
	// Provider name: "openai", "anthropic", "ollama", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI/Anthropic
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama, proxies)
	BaseURL string

	// Timeout for API requests, seconds
	Timeout int

	// MaxTokens for response generation
	MaxTokens int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Timeout:   30,
		MaxTokens: 1500,
	}
}
