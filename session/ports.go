package session

import (
	"context"

	"dikt/audio"
	"dikt/config"
	"dikt/history"
	"dikt/transcriber"
)

// Recorder owns the microphone and the payload encoder.
type Recorder interface {
	Start() error
	Stop() (audio.Capture, error)
	Abort()
}

// Transcriber converts a finished capture into text.
type Transcriber interface {
	Transcribe(ctx context.Context, cap audio.Capture, language, prompt string) (transcriber.Result, error)
}

// Formatter applies a mode's LLM pass to transcribed text.
type Formatter interface {
	Format(ctx context.Context, systemPrompt, model, text string) (string, error)
}

// Deliverer pastes the final text into the focused application.
type Deliverer interface {
	Deliver(ctx context.Context, text, policy string) error
}

// History records completed dictations.
type History interface {
	Append(item history.Item) error
}

// Deps wires the manager's collaborators. Settings is called once per
// session to snapshot the live configuration. Sink receives every
// status update while the manager lock is held, so it must not block or
// call back into the manager.
type Deps struct {
	Recorder    Recorder
	Transcriber Transcriber
	Formatter   Formatter
	Deliverer   Deliverer
	History     History
	Settings    func() config.Settings
	Sink        func(Update)
}
