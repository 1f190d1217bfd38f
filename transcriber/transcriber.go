// Package transcriber sends recorded audio to an OpenAI-compatible
// speech-to-text endpoint and returns the recognized text.
package transcriber

import (
	"net/http"
	"net/url"
	"strings"
)

// Result is one finished transcription.
type Result struct {
	Text     string
	Language string
	Duration float64
}

// Config selects the endpoint. BaseURL may be an API root like
// "https://api.openai.com/v1" or a complete transcription URL.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Client  *http.Client
}

// providerName labels an endpoint for logs and diagnostics: "openai",
// "groq", or the bare host for anything else.
func providerName(endpoint string) string {
	u, err := url.Parse(endpoint)
	if err != nil || u.Hostname() == "" {
		return "custom"
	}
	host := u.Hostname()
	switch {
	case strings.HasSuffix(host, "openai.com"):
		return "openai"
	case strings.HasSuffix(host, "groq.com"):
		return "groq"
	default:
		return host
	}
}
