package article

import (
	"context"
	"errors"
	"time"

	"github.com/aktagon/llmkit/anthropic"
	"github.com/aktagon/llmkit/anthropic/types"
)

const (
	defaultAnthropicModel     = "claude-sonnet-4-20250514"
	defaultAnthropicMaxTokens = 8000
)

type anthropicSettings = types.RequestSettings

// AnthropicGenerator requests articles from the Anthropic messages API with
// the article schema as structured output.
type AnthropicGenerator struct {
	apiKey   string
	settings anthropicSettings
	timeout  time.Duration

	prompt func(system, user, schema, apiKey string, settings anthropicSettings) (string, error)
}

// NewAnthropicGenerator builds a generator from s.
func NewAnthropicGenerator(s Settings) (*AnthropicGenerator, error) {
	if s.AnthropicAPIKey == "" {
		return nil, errors.New("anthropic api key missing; set ANTHROPIC_API_KEY")
	}
	model := s.AnthropicModel
	if model == "" {
		model = defaultAnthropicModel
	}
	maxTokens := s.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultAnthropicMaxTokens
	}

	return &AnthropicGenerator{
		apiKey: s.AnthropicAPIKey,
		settings: anthropicSettings{
			Model:       model,
			MaxTokens:   maxTokens,
			Temperature: s.Temperature,
		},
		timeout: s.Timeout,
		prompt:  promptAnthropic,
	}, nil
}

func promptAnthropic(system, user, schema, apiKey string, settings anthropicSettings) (string, error) {
	response, err := anthropic.PromptWithSettings(system, user, schema, apiKey, settings)
	if err != nil {
		return "", err
	}
	if len(response.Content) == 0 {
		return "", errors.New("no content in response")
	}
	return response.Content[0].Text, nil
}

// Generate implements Generator. llmkit calls are not context aware, so a
// cancelled context abandons the call rather than aborting it.
func (g *AnthropicGenerator) Generate(ctx context.Context, topic string) (*Document, error) {
	ctx, cancel := withTimeout(ctx, g.timeout)
	defer cancel()

	type result struct {
		text string
		err  error
	}
	done := make(chan result, 1)
	prompt := BuildPrompt(topic)
	go func() {
		text, err := g.prompt(prompt.System, prompt.User, SchemaString(), g.apiKey, g.settings)
		done <- result{text: text, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, upstream(ProviderAnthropic, ctx.Err())
	case r := <-done:
		if r.err != nil {
			return nil, upstream(ProviderAnthropic, r.err)
		}
		return Decode(r.text)
	}
}

// Stream implements Generator with a single chunk carrying the whole article.
func (g *AnthropicGenerator) Stream(ctx context.Context, topic string, fn func(Partial) error) error {
	doc, err := g.Generate(ctx, topic)
	if err != nil {
		return err
	}
	return fn(PartialOf(*doc))
}
