package article

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Generator requests articles from a text-generation service.
type Generator interface {
	// Generate returns the complete, validated article for topic.
	Generate(ctx context.Context, topic string) (*Document, error)
	// Stream calls fn with every new partial article, in arrival order.
	// An error returned by fn stops the stream and is returned.
	Stream(ctx context.Context, topic string, fn func(Partial) error) error
}

// Provider names accepted by NewGenerator.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderStub      = "stub"
)

// Settings configures a provider.
type Settings struct {
	Provider        string
	Model           string
	BaseURL         string
	OpenAIAPIKey    string
	AnthropicAPIKey string
	AnthropicModel  string
	Temperature     float64
	MaxTokens       int
	Timeout         time.Duration
}

// ResolveProvider returns the provider to use for s: the explicit one, or
// the first provider with an API key, or the stub.
func ResolveProvider(s Settings) string {
	if p := strings.ToLower(strings.TrimSpace(s.Provider)); p != "" {
		return p
	}
	switch {
	case s.OpenAIAPIKey != "":
		return ProviderOpenAI
	case s.AnthropicAPIKey != "":
		return ProviderAnthropic
	default:
		return ProviderStub
	}
}

// NewGenerator builds the Generator selected by s.
func NewGenerator(s Settings) (Generator, error) {
	switch provider := ResolveProvider(s); provider {
	case ProviderOpenAI:
		g, err := NewOpenAIGenerator(s)
		if err != nil {
			return nil, err
		}
		return g, nil
	case ProviderAnthropic:
		g, err := NewAnthropicGenerator(s)
		if err != nil {
			return nil, err
		}
		return g, nil
	case ProviderStub:
		return StubGenerator{}, nil
	default:
		return nil, fmt.Errorf("provider %q not supported", provider)
	}
}

// withTimeout bounds ctx by d when d is positive.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
