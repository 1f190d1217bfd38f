package api

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestEndpoint(t *testing.T) {
	tests := []struct {
		name string
		base string
		path string
		want string
	}{
		{"plain base", "https://api.openai.com/v1", "/audio/transcriptions", "https://api.openai.com/v1/audio/transcriptions"},
		{"trailing slash", "https://api.openai.com/v1/", "/audio/transcriptions", "https://api.openai.com/v1/audio/transcriptions"},
		{"full endpoint given", "https://api.groq.com/openai/v1/audio/transcriptions", "/audio/transcriptions", "https://api.groq.com/openai/v1/audio/transcriptions"},
		{"full endpoint trailing slash", "https://example.com/v1/audio/transcriptions/", "/audio/transcriptions", "https://example.com/v1/audio/transcriptions"},
		{"chat completions", "https://api.openai.com/v1", "/chat/completions", "https://api.openai.com/v1/chat/completions"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Endpoint(tt.base, tt.path)
			if got != tt.want {
				t.Errorf("Endpoint(%q, %q) = %q, want %q", tt.base, tt.path, got, tt.want)
			}
		})
	}
}

func TestFromStatusKinds(t *testing.T) {
	tests := []struct {
		status int
		want   Kind
	}{
		{401, KindAuth},
		{403, KindAuth},
		{413, KindPayload},
		{429, KindRateLimit},
		{400, KindAPI},
		{500, KindAPI},
	}

	for _, tt := range tests {
		err := FromStatus("transcribe", tt.status, []byte("boom"))
		if err.Kind != tt.want {
			t.Errorf("status %d: got kind %v, want %v", tt.status, err.Kind, tt.want)
		}
		if err.Status != tt.status {
			t.Errorf("status %d not recorded, got %d", tt.status, err.Status)
		}
	}
}

func TestFromStatusTruncatesBody(t *testing.T) {
	body := strings.Repeat("x", 1000)
	err := FromStatus("transcribe", 500, []byte(body))
	if len(err.Body) != maxBodyLen {
		t.Errorf("body length %d, want %d", len(err.Body), maxBodyLen)
	}
}

func TestErrorMessage(t *testing.T) {
	err := FromStatus("format", 401, []byte(`{"error":"bad key"}`))
	msg := err.Error()
	if !strings.Contains(msg, "format") || !strings.Contains(msg, "401") {
		t.Errorf("unexpected message: %q", msg)
	}
}

func TestWrapTimeout(t *testing.T) {
	wrapped := Wrap("transcribe", fmt.Errorf("doing thing: %w", context.DeadlineExceeded))
	var ae *Error
	if !errors.As(wrapped, &ae) {
		t.Fatalf("expected *Error, got %T", wrapped)
	}
	if ae.Kind != KindTimeout {
		t.Errorf("got kind %v, want KindTimeout", ae.Kind)
	}
}

func TestWrapNetwork(t *testing.T) {
	wrapped := Wrap("transcribe", errors.New("connection refused"))
	var ae *Error
	if !errors.As(wrapped, &ae) {
		t.Fatalf("expected *Error, got %T", wrapped)
	}
	if ae.Kind != KindNetwork {
		t.Errorf("got kind %v, want KindNetwork", ae.Kind)
	}
}

func TestWrapPassesThroughCancellation(t *testing.T) {
	wrapped := Wrap("transcribe", context.Canceled)
	if !errors.Is(wrapped, context.Canceled) {
		t.Error("cancellation should be preserved")
	}
	var ae *Error
	if errors.As(wrapped, &ae) {
		t.Error("cancellation should not be classified as an API error")
	}
}

func TestUnwrap(t *testing.T) {
	inner := errors.New("inner")
	wrapped := Wrap("format", inner)
	if !errors.Is(wrapped, inner) {
		t.Error("Unwrap chain broken")
	}
}
