package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultModel is the fast, inexpensive variant used unless the
	// configuration names another one.
	DefaultModel = "gemini-1.5-flash"

	defaultBaseURL = "https://generativelanguage.googleapis.com"
)

// GeminiConfig carries the settings for the Gemini REST API.
type GeminiConfig struct {
	APIKey  string
	Model   string
	BaseURL string // empty means the public endpoint; tests point it at a local server
}

// Gemini implements Client against the Google Generative Language REST
// API.
type Gemini struct {
	config     GeminiConfig
	httpClient *http.Client
}

// NewGemini creates a Gemini client with the given configuration. The
// API key is required; model and base URL fall back to defaults.
func NewGemini(config GeminiConfig) (*Gemini, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if config.Model == "" {
		config.Model = DefaultModel
	}
	if config.BaseURL == "" {
		config.BaseURL = defaultBaseURL
	}

	return &Gemini{
		config: config,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}, nil
}

// Model returns the model identifier the client sends requests to.
func (g *Gemini) Model() string {
	return g.config.Model
}

// Gemini generateContent API structures
type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiCandidate struct {
	Content geminiContent `json:"content"`
}

type geminiResponse struct {
	Candidates []geminiCandidate `json:"candidates"`
	Parts      []geminiPart      `json:"parts"`
	Error      *geminiError      `json:"error,omitempty"`
}

type geminiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// GenerateText sends prompt to the generateContent endpoint and returns
// the plain text extracted from the response. An empty string with a
// nil error means the service answered but produced no usable text.
func (g *Gemini) GenerateText(ctx context.Context, prompt string) (string, error) {
	reqBody := geminiRequest{
		Contents: []geminiContent{
			{Parts: []geminiPart{{Text: prompt}}},
		},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		g.config.BaseURL, g.config.Model, g.config.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var response geminiResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	if response.Error != nil {
		return "", fmt.Errorf("API error %d: %s", response.Error.Code, response.Error.Message)
	}

	return extractText(response), nil
}

// extractText pulls plain text out of a generateContent response. Text
// has shipped in two shapes: nested under candidates, or as top-level
// parts. Shapes are tried in that order; every non-blank fragment is
// trimmed and kept, joined by newlines.
func extractText(resp geminiResponse) string {
	var texts []string

	for _, candidate := range resp.Candidates {
		for _, part := range candidate.Content.Parts {
			if text := strings.TrimSpace(part.Text); text != "" {
				texts = append(texts, text)
			}
		}
	}

	if len(texts) == 0 {
		for _, part := range resp.Parts {
			if text := strings.TrimSpace(part.Text); text != "" {
				texts = append(texts, text)
			}
		}
	}

	return strings.TrimSpace(strings.Join(texts, "\n"))
}
