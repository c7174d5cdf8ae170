package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGemini(t *testing.T, handler http.HandlerFunc) *Gemini {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewGemini(GeminiConfig{
		APIKey:  "test-key",
		BaseURL: srv.URL,
	})
	require.NoError(t, err)

	return client
}

func TestNewGemini(t *testing.T) {
	_, err := NewGemini(GeminiConfig{})
	assert.Error(t, err, "missing API key must be rejected")

	client, err := NewGemini(GeminiConfig{APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, client.Model())

	client, err = NewGemini(GeminiConfig{APIKey: "k", Model: "gemini-1.5-pro"})
	require.NoError(t, err)
	assert.Equal(t, "gemini-1.5-pro", client.Model())
}

func TestGenerateTextRequestShape(t *testing.T) {
	var (
		gotPath   string
		gotKey    string
		gotPrompt string
	)

	client := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.URL.Query().Get("key")

		var req geminiRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Contents, 1)
		require.Len(t, req.Contents[0].Parts, 1)
		gotPrompt = req.Contents[0].Parts[0].Text

		json.NewEncoder(w).Encode(geminiResponse{
			Candidates: []geminiCandidate{
				{Content: geminiContent{Parts: []geminiPart{{Text: "ok"}}}},
			},
		})
	})

	text, err := client.GenerateText(context.Background(), "hello")
	require.NoError(t, err)

	assert.Equal(t, "ok", text)
	assert.Equal(t, "/v1beta/models/gemini-1.5-flash:generateContent", gotPath)
	assert.Equal(t, "test-key", gotKey)
	assert.Equal(t, "hello", gotPrompt)
}

func TestGenerateTextExtraction(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "single candidate single part",
			body: `{"candidates":[{"content":{"parts":[{"text":"a definition"}]}}]}`,
			want: "a definition",
		},
		{
			name: "fragments joined across candidates",
			body: `{"candidates":[
				{"content":{"parts":[{"text":"first"},{"text":"second"}]}},
				{"content":{"parts":[{"text":"third"}]}}]}`,
			want: "first\nsecond\nthird",
		},
		{
			name: "blank fragments skipped and text trimmed",
			body: `{"candidates":[{"content":{"parts":[{"text":"  padded  "},{"text":"   "},{"text":""}]}}]}`,
			want: "padded",
		},
		{
			name: "top level parts when candidates empty",
			body: `{"parts":[{"text":"fallback shape"}]}`,
			want: "fallback shape",
		},
		{
			name: "candidates take priority over top level parts",
			body: `{"candidates":[{"content":{"parts":[{"text":"nested"}]}}],"parts":[{"text":"flat"}]}`,
			want: "nested",
		},
		{
			name: "no text anywhere",
			body: `{"candidates":[{"content":{"parts":[]}}]}`,
			want: "",
		},
		{
			name: "empty object",
			body: `{}`,
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestGemini(t, func(w http.ResponseWriter, _ *http.Request) {
				w.Write([]byte(tt.body))
			})

			text, err := client.GenerateText(context.Background(), "prompt")
			require.NoError(t, err)
			assert.Equal(t, tt.want, text)
		})
	}
}

func TestGenerateTextErrors(t *testing.T) {
	t.Run("http status error", func(t *testing.T) {
		client := newTestGemini(t, func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, `{"error":{"code":429,"message":"quota"}}`, http.StatusTooManyRequests)
		})

		_, err := client.GenerateText(context.Background(), "p")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "status 429")
	})

	t.Run("error object in body", func(t *testing.T) {
		client := newTestGemini(t, func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte(`{"error":{"code":400,"message":"bad model"}}`))
		})

		_, err := client.GenerateText(context.Background(), "p")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bad model")
	})

	t.Run("malformed body", func(t *testing.T) {
		client := newTestGemini(t, func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte("not json"))
		})

		_, err := client.GenerateText(context.Background(), "p")
		assert.Error(t, err)
	})

	t.Run("context cancelled", func(t *testing.T) {
		client := newTestGemini(t, func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte(`{}`))
		})

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := client.GenerateText(ctx, "p")
		assert.Error(t, err)
	})
}
