// Package formatter runs a transcription through a chat-completions
// model, applying the active mode's system prompt before delivery.
package formatter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"dikt/internal/api"
)

type Config struct {
	APIKey  string
	BaseURL string
	Client  *http.Client
}

type Client struct {
	cfg      Config
	endpoint string
	client   *http.Client
}

func New(cfg Config) *Client {
	httpClient := cfg.Client
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		cfg:      cfg,
		endpoint: api.Endpoint(cfg.BaseURL, "/chat/completions"),
		client:   httpClient,
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Format rewrites text under the given system prompt. The reply is
// trimmed and stripped of a surrounding markdown code fence.
func (c *Client) Format(ctx context.Context, systemPrompt, model, text string) (string, error) {
	reqBody := chatRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: text},
		},
		Temperature: 0.2,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", api.Wrap("format", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", api.Wrap("format", err)
	}
	if resp.StatusCode != 200 {
		return "", api.FromStatus("format", resp.StatusCode, data)
	}

	var parsed chatResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", fmt.Errorf("format response parse error: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("format response has no choices")
	}

	return stripFences(parsed.Choices[0].Message.Content), nil
}

// stripFences removes one surrounding markdown code fence, info string
// included. Chat models like to wrap rewritten text in one.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	inner := strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(inner, '\n'); i >= 0 {
		inner = inner[i+1:]
	}
	inner = strings.TrimSuffix(strings.TrimSpace(inner), "```")
	return strings.TrimSpace(inner)
}
