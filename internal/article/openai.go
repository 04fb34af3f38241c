package article

import (
	"context"
	"errors"
	"net/http"
	"time"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

const defaultOpenAIModel = "gpt-4o"

// OpenAIGenerator requests articles from an OpenAI-compatible chat
// completions endpoint using a strict JSON schema response format.
type OpenAIGenerator struct {
	client      openai.Client
	model       string
	temperature float64
	maxTokens   int
	timeout     time.Duration
}

// NewOpenAIGenerator builds a generator from s. An extra option, such as a
// test HTTP client, may be appended through opts.
func NewOpenAIGenerator(s Settings, opts ...option.RequestOption) (*OpenAIGenerator, error) {
	if s.OpenAIAPIKey == "" {
		return nil, errors.New("openai api key missing; set OPENAI_API_KEY")
	}
	model := s.Model
	if model == "" {
		model = defaultOpenAIModel
	}

	reqOpts := []option.RequestOption{option.WithAPIKey(s.OpenAIAPIKey)}
	if s.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(s.BaseURL))
	}
	if s.Timeout > 0 {
		reqOpts = append(reqOpts, option.WithHTTPClient(&http.Client{Timeout: s.Timeout}))
	}
	reqOpts = append(reqOpts, opts...)

	return &OpenAIGenerator{
		client:      openai.NewClient(reqOpts...),
		model:       model,
		temperature: s.Temperature,
		maxTokens:   s.MaxTokens,
		timeout:     s.Timeout,
	}, nil
}

func (g *OpenAIGenerator) params(topic string) openai.ChatCompletionNewParams {
	prompt := BuildPrompt(topic)
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(g.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(prompt.System),
			openai.UserMessage(prompt.User),
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &shared.ResponseFormatJSONSchemaParam{
				JSONSchema: shared.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:        "wikipedia_article",
					Description: openai.String("A fictional encyclopedia article with info card and hyperlink keywords"),
					Schema:      Schema(),
					Strict:      openai.Bool(true),
				},
			},
		},
	}
	if g.temperature > 0 {
		params.Temperature = openai.Float(g.temperature)
	}
	if g.maxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(g.maxTokens))
	}
	return params
}

// Generate implements Generator.
func (g *OpenAIGenerator) Generate(ctx context.Context, topic string) (*Document, error) {
	ctx, cancel := withTimeout(ctx, g.timeout)
	defer cancel()

	resp, err := g.client.Chat.Completions.New(ctx, g.params(topic))
	if err != nil {
		return nil, upstream(ProviderOpenAI, err)
	}
	if len(resp.Choices) == 0 {
		return nil, upstreamf(ProviderOpenAI, "response missing choices")
	}

	choice := resp.Choices[0]
	if choice.Message.Refusal != "" {
		return nil, upstreamf(ProviderOpenAI, "model refused: %s", truncate(choice.Message.Refusal, 200))
	}
	if choice.FinishReason == "length" {
		return nil, upstreamf(ProviderOpenAI, "output truncated at max tokens")
	}

	return Decode(choice.Message.Content)
}

// Stream implements Generator. Text deltas are accumulated and every new
// decodable prefix is reported as a partial article.
func (g *OpenAIGenerator) Stream(ctx context.Context, topic string, fn func(Partial) error) error {
	ctx, cancel := withTimeout(ctx, g.timeout)
	defer cancel()

	stream := g.client.Chat.Completions.NewStreaming(ctx, g.params(topic))
	defer stream.Close()

	var dec partialDecoder
	finish := ""
	for stream.Next() {
		chunk := stream.Current()
		if len(chunk.Choices) == 0 {
			continue
		}
		choice := chunk.Choices[0]
		if choice.FinishReason != "" {
			finish = choice.FinishReason
		}
		if choice.Delta.Content == "" {
			continue
		}
		if p, ok := dec.Push(choice.Delta.Content); ok {
			if err := fn(p); err != nil {
				return err
			}
		}
	}
	if err := stream.Err(); err != nil {
		return upstream(ProviderOpenAI, err)
	}
	if finish == "length" {
		return upstreamf(ProviderOpenAI, "output truncated at max tokens")
	}

	_, err := Decode(dec.Text())
	return err
}
