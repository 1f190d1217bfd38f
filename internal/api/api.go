// Package api carries the HTTP plumbing shared by the transcription and
// formatting clients: endpoint construction and the error classification
// the session layer turns into user-facing messages.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

type Kind int

const (
	KindAPI Kind = iota
	KindNetwork
	KindTimeout
	KindAuth
	KindRateLimit
	KindPayload
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindTimeout:
		return "timeout"
	case KindAuth:
		return "auth"
	case KindRateLimit:
		return "rate_limit"
	case KindPayload:
		return "payload"
	default:
		return "api"
	}
}

// maxBodyLen bounds how much of an error response body is kept around.
const maxBodyLen = 300

type Error struct {
	Op     string
	Status int
	Kind   Kind
	Body   string
	Err    error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: API error %d: %s", e.Op, e.Status, e.Body)
	}
	return fmt.Sprintf("%s: request failed: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// FromStatus builds an Error for a non-2xx response.
func FromStatus(op string, status int, body []byte) *Error {
	kind := KindAPI
	switch status {
	case 401, 403:
		kind = KindAuth
	case 413:
		kind = KindPayload
	case 429:
		kind = KindRateLimit
	}

	b := strings.TrimSpace(string(body))
	if len(b) > maxBodyLen {
		b = b[:maxBodyLen]
	}

	return &Error{Op: op, Status: status, Kind: kind, Body: b}
}

// Wrap classifies a transport-level failure. Context cancellation passes
// through untouched so callers can tell an aborted session from a dead
// network.
func Wrap(op string, err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}

	kind := KindNetwork
	var ne net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
		kind = KindTimeout
	}

	return &Error{Op: op, Kind: kind, Err: err}
}

// Endpoint joins a configured base URL with an API path. A base that
// already names the full endpoint is used as-is, so both
// "https://api.openai.com/v1" and a provider's complete transcription URL
// work unchanged.
func Endpoint(base, path string) string {
	trimmed := strings.TrimRight(base, "/")
	if strings.HasSuffix(trimmed, path) {
		return trimmed
	}
	return trimmed + path
}
