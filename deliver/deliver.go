// Package deliver puts finished text into the focused application via
// the clipboard and a synthesized paste keystroke.
package deliver

import (
	"context"
	"fmt"
	"time"

	"dikt/log"
)

// Output policies.
const (
	PolicyPaste     = "paste"      // paste, then restore the previous clipboard
	PolicyPasteCopy = "paste+copy" // paste and leave the text on the clipboard
)

// Clipboard is the system clipboard for plain text.
type Clipboard interface {
	Read() (string, error)
	Write(text string) error
}

// Keystroker emits the platform paste chord.
type Keystroker interface {
	SendPaste() error
}

type Engine struct {
	clip    Clipboard
	keys    Keystroker
	settle  time.Duration
	restore time.Duration
}

type Option func(*Engine)

// WithSettleDelay sets how long to wait between the clipboard write and
// the paste chord.
func WithSettleDelay(d time.Duration) Option {
	return func(e *Engine) { e.settle = d }
}

// WithRestoreDelay sets how long to wait after the paste chord before
// restoring the previous clipboard contents.
func WithRestoreDelay(d time.Duration) Option {
	return func(e *Engine) { e.restore = d }
}

func New(clip Clipboard, keys Keystroker, opts ...Option) *Engine {
	e := &Engine{
		clip:    clip,
		keys:    keys,
		settle:  50 * time.Millisecond,
		restore: 600 * time.Millisecond,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Deliver writes text to the clipboard, waits for it to propagate, and
// emits the paste chord. Under PolicyPaste the previous clipboard
// contents come back once the target application has had time to read
// the paste; an empty previous clipboard is never restored. The write
// happens before the keystroke, so a failed injection still leaves the
// text recoverable from the clipboard.
func (e *Engine) Deliver(ctx context.Context, text, policy string) error {
	prev, prevErr := e.clip.Read()

	if err := e.clip.Write(text); err != nil {
		return fmt.Errorf("clipboard write: %w", err)
	}

	if err := sleepCtx(ctx, e.settle); err != nil {
		return err
	}

	if err := e.keys.SendPaste(); err != nil {
		return fmt.Errorf("paste keystroke: %w", err)
	}

	if policy == PolicyPaste && prevErr == nil && prev != "" {
		if err := sleepCtx(ctx, e.restore); err != nil {
			return err
		}
		if err := e.clip.Write(prev); err != nil {
			log.Warnf("clipboard restore failed: %v", err)
		}
	}

	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
