// Package session turns hotkey edges into dictation sessions: audio
// capture, transcription, optional mode formatting, and delivery, with
// one status update emitted per state transition.
package session

import (
	"encoding/json"
	"errors"
	"fmt"

	"dikt/internal/api"
)

// State is the observable phase of a dictation session.
type State int

const (
	Idle State = iota
	Recording
	Transcribing
	Formatting
	Pasting
	Done
	Error
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Recording:
		return "recording"
	case Transcribing:
		return "transcribing"
	case Formatting:
		return "formatting"
	case Pasting:
		return "pasting"
	case Done:
		return "done"
	case Error:
		return "error"
	}
	return "unknown"
}

func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// Update is emitted exactly once per state transition. Text is set only
// on Done, Message only on Error.
type Update struct {
	State   State  `json:"state"`
	Message string `json:"message,omitempty"`
	Text    string `json:"text,omitempty"`
}

// errorMessage renders err as a status line for the given pipeline
// stage. API failures get a short explanation; the full error goes to
// the diagnostics log, not the status line.
func errorMessage(stage string, err error) string {
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Kind {
		case api.KindAuth:
			return "Authentication failed. Check your API key."
		case api.KindRateLimit:
			return "Rate limited by the provider. Try again in a moment."
		case api.KindPayload:
			return "Recording too large for the provider."
		case api.KindTimeout:
			return stage + " timed out. Check your connection."
		case api.KindNetwork:
			return stage + " failed: network error."
		}
		return fmt.Sprintf("%s failed: API error %d.", stage, apiErr.Status)
	}
	return stage + " failed: " + err.Error()
}
