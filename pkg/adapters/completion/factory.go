package completion

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aretw0/storyloom/pkg/domain"
	"github.com/aretw0/storyloom/pkg/ports"
)

// Provider names accepted by New.
const (
	ProviderOpenAI    = "openai"
	ProviderGroq      = "groq"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
	ProviderScripted  = "scripted"
)

// Defaults per provider.
const (
	GroqBaseURL           = "https://api.groq.com/openai/v1"
	DefaultGroqModel      = "llama-3.3-70b-versatile"
	DefaultOpenAIModel    = "gpt-4o-mini"
	DefaultAnthropicModel = "claude-sonnet-4-5"
	DefaultGeminiModel    = "gemini-2.5-flash"
)

// Config selects and configures a provider.
type Config struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string
	Timeout  time.Duration
}

// New builds the client for cfg.Provider.
// A missing credential is reported as domain.ErrConfiguration.
func New(ctx context.Context, cfg Config) (ports.CompletionClient, error) {
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	if provider == "" {
		provider = ProviderGroq
	}

	if provider != ProviderScripted && strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("%w: no API key for provider %q", domain.ErrConfiguration, provider)
	}

	switch provider {
	case ProviderOpenAI:
		return NewOpenAI(cfg.APIKey, firstNonEmpty(cfg.Model, DefaultOpenAIModel), cfg.BaseURL), nil
	case ProviderGroq:
		return NewOpenAI(cfg.APIKey, firstNonEmpty(cfg.Model, DefaultGroqModel), firstNonEmpty(cfg.BaseURL, GroqBaseURL)), nil
	case ProviderAnthropic:
		return NewAnthropic(cfg.APIKey, firstNonEmpty(cfg.Model, DefaultAnthropicModel), cfg.BaseURL), nil
	case ProviderGemini:
		return NewGemini(ctx, cfg.APIKey, firstNonEmpty(cfg.Model, DefaultGeminiModel))
	case ProviderScripted:
		return NewScripted(), nil
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", domain.ErrConfiguration, cfg.Provider)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
