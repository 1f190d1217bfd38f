package transcriber

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"dikt/audio"
	"dikt/internal/api"
)

// Client speaks the OpenAI audio transcription API, which Groq and
// several self-hosted Whisper servers also implement.
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
		endpoint: api.Endpoint(cfg.BaseURL, "/audio/transcriptions"),
		client:   httpClient,
	}
}

func (c *Client) Provider() string { return providerName(c.endpoint) }

// Transcribe uploads one capture. language and prompt are optional; the
// prompt carries the vocabulary hint.
func (c *Client) Transcribe(ctx context.Context, cap audio.Capture, language, prompt string) (Result, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", "audio."+cap.Format)
	if err != nil {
		return Result{}, err
	}
	if _, err := part.Write(cap.Bytes); err != nil {
		return Result{}, err
	}

	writer.WriteField("model", c.cfg.Model)
	writer.WriteField("response_format", "verbose_json")
	if language != "" {
		writer.WriteField("language", language)
	}
	if prompt != "" {
		writer.WriteField("prompt", prompt)
	}
	writer.Close()

	req, err := http.NewRequestWithContext(ctx, "POST", c.endpoint, &body)
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return Result{}, api.Wrap("transcribe", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, api.Wrap("transcribe", err)
	}
	if resp.StatusCode != 200 {
		return Result{}, api.FromStatus("transcribe", resp.StatusCode, data)
	}

	var parsed struct {
		Text     string  `json:"text"`
		Language string  `json:"language"`
		Duration float64 `json:"duration"`
	}
	if err := json.Unmarshal(data, &parsed); err != nil {
		return Result{}, fmt.Errorf("transcribe response parse error: %w", err)
	}

	return Result{
		Text:     parsed.Text,
		Language: parsed.Language,
		Duration: parsed.Duration,
	}, nil
}
