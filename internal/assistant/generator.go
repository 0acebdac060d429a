package assistant

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

const noAnswer = "I don't know. I can only answer questions about the Bus Pass Management System."

// ExtractiveGenerator answers with the retrieved passages themselves.
type ExtractiveGenerator struct{}

func (ExtractiveGenerator) Generate(_ context.Context, _ string, passages []Passage) (string, error) {
	if len(passages) == 0 {
		return noAnswer, nil
	}
	parts := make([]string, 0, len(passages))
	for _, p := range passages {
		parts = append(parts, strings.TrimSpace(p.Text))
	}
	return strings.Join(parts, "\n\n"), nil
}

const (
	defaultOpenAIBaseURL = "https://api.openai.com/v1"
	defaultOpenAIModel   = "gpt-3.5-turbo"
)

// OpenAIGenerator writes the answer with any OpenAI-compatible chat
// completions endpoint.
type OpenAIGenerator struct {
	HTTPClient  *http.Client
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
}

func NewOpenAIGenerator(apiKey, baseURL, model string) *OpenAIGenerator {
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	if model == "" {
		model = defaultOpenAIModel
	}
	return &OpenAIGenerator{
		HTTPClient:  &http.Client{Timeout: 30 * time.Second},
		BaseURL:     strings.TrimRight(baseURL, "/"),
		APIKey:      apiKey,
		Model:       model,
		Temperature: 0.7,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func buildPrompt(question string, passages []Passage) string {
	texts := make([]string, 0, len(passages))
	for _, p := range passages {
		texts = append(texts, strings.TrimSpace(p.Text))
	}
	return "You are a helpful assistant for the Bus Pass Management System.\n" +
		"Use the following context to answer the user's question. If you don't know the answer, " +
		"say that you don't know. Don't make up information.\n\n" +
		"Context:\n" + strings.Join(texts, "\n\n") + "\n\n" +
		"User Question: " + question + "\n\nAnswer:"
}

func (g *OpenAIGenerator) Generate(ctx context.Context, question string, passages []Passage) (string, error) {
	payload, err := json.Marshal(chatRequest{
		Model:       g.Model,
		Messages:    []chatMessage{{Role: "user", Content: buildPrompt(question, passages)}},
		Temperature: g.Temperature,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.BaseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("openai: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.APIKey)

	res, err := g.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("openai: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("openai: read body: %w", err)
	}

	var out chatResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("openai: status %d: decode: %w", res.StatusCode, err)
	}
	if res.StatusCode >= 300 {
		if out.Error != nil {
			return "", fmt.Errorf("openai: status %d: %s: %s", res.StatusCode, out.Error.Type, out.Error.Message)
		}
		return "", fmt.Errorf("openai: status %d", res.StatusCode)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("openai: empty choices")
	}
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}
