package article

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/openai/openai-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOpenAI(t *testing.T, handler http.HandlerFunc) *OpenAIGenerator {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	g, err := NewOpenAIGenerator(Settings{
		OpenAIAPIKey: "test-key",
		BaseURL:      srv.URL,
		Model:        "test-model",
	}, option.WithMaxRetries(0))
	require.NoError(t, err)
	return g
}

func completionBody(content, finish string) []byte {
	body, _ := json.Marshal(map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 0,
		"model":   "test-model",
		"choices": []map[string]any{{
			"index":         0,
			"finish_reason": finish,
			"message": map[string]any{
				"role":    "assistant",
				"content": content,
				"refusal": nil,
			},
		}},
	})
	return body
}

func TestOpenAIGenerateSendsSchema(t *testing.T) {
	doc := sampleDocument()
	content, err := json.Marshal(doc)
	require.NoError(t, err)

	var request map[string]any
	g := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		raw, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(raw, &request))

		w.Header().Set("Content-Type", "application/json")
		w.Write(completionBody(string(content), "stop"))
	})

	got, err := g.Generate(context.Background(), "Lunar Dairy")
	require.NoError(t, err)
	assert.Equal(t, doc, *got)

	assert.Equal(t, "test-model", request["model"])
	format, ok := request["response_format"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "json_schema", format["type"])
	schema := format["json_schema"].(map[string]any)
	assert.Equal(t, "wikipedia_article", schema["name"])
	assert.Equal(t, true, schema["strict"])

	messages := request["messages"].([]any)
	require.Len(t, messages, 2)
	user := messages[1].(map[string]any)
	assert.Contains(t, user["content"], "Lunar Dairy")
}

func TestOpenAIGenerateErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		target  error
	}{
		{
			name: "bad status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte(`{"error":{"message":"nope","type":"invalid_request_error"}}`))
			},
			target: ErrUpstream,
		},
		{
			name: "truncated",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.Write(completionBody(`{"wikipedia_article_title":"x`, "length"))
			},
			target: ErrUpstream,
		},
		{
			name: "not the schema",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.Write(completionBody(`I cannot write that`, "stop"))
			},
			target: ErrSchemaValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newTestOpenAI(t, tt.handler)
			_, err := g.Generate(context.Background(), "topic")
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.target)
		})
	}
}

func streamHandler(t *testing.T, deltas []string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		raw, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(raw, &req))
		assert.Equal(t, true, req["stream"])

		w.Header().Set("Content-Type", "text/event-stream")
		for i, delta := range deltas {
			finish := any(nil)
			if i == len(deltas)-1 {
				finish = "stop"
			}
			chunk, _ := json.Marshal(map[string]any{
				"id":      "chatcmpl-1",
				"object":  "chat.completion.chunk",
				"created": 0,
				"model":   "test-model",
				"choices": []map[string]any{{
					"index":         0,
					"delta":         map[string]any{"content": delta},
					"finish_reason": finish,
				}},
			})
			fmt.Fprintf(w, "data: %s\n\n", chunk)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}
}

func TestOpenAIStreamMergesToFinalDocument(t *testing.T) {
	doc := sampleDocument()
	full, err := json.Marshal(doc)
	require.NoError(t, err)

	var deltas []string
	for i := 0; i < len(full); i += 7 {
		end := min(i+7, len(full))
		deltas = append(deltas, string(full[i:end]))
	}

	g := newTestOpenAI(t, streamHandler(t, deltas))

	state := Empty()
	chunks := 0
	err = g.Stream(context.Background(), "Lunar Dairy", func(p Partial) error {
		chunks++
		state = Merge(state, p)
		return nil
	})
	require.NoError(t, err)
	assert.Greater(t, chunks, 5)
	assert.Equal(t, doc, state)
}

func TestOpenAIStreamCallbackErrorStops(t *testing.T) {
	g := newTestOpenAI(t, streamHandler(t, []string{`{"wikipedia_article_title":"A`, `B"}`}))

	stop := fmt.Errorf("client went away")
	calls := 0
	err := g.Stream(context.Background(), "x", func(Partial) error {
		calls++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, calls)
}

func TestOpenAIStreamRejectsInvalidFinalDocument(t *testing.T) {
	g := newTestOpenAI(t, streamHandler(t, []string{`{"wikipedia_article_title":"Only a title"}`}))

	err := g.Stream(context.Background(), "x", func(Partial) error { return nil })
	assert.ErrorIs(t, err, ErrSchemaValidation)
}

func TestNewOpenAIGeneratorRequiresKey(t *testing.T) {
	_, err := NewOpenAIGenerator(Settings{})
	assert.Error(t, err)
}
