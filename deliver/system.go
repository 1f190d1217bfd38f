package deliver

import (
	"dikt/clipboard"
	"dikt/paste"
)

// SystemClipboard backs the engine with the desktop clipboard.
type SystemClipboard struct{}

func (SystemClipboard) Read() (string, error)   { return clipboard.Read() }
func (SystemClipboard) Write(text string) error { return clipboard.Copy(text) }

// SystemKeys emits the paste chord through the platform injector.
// paste.Init must have run first.
type SystemKeys struct{}

func (SystemKeys) SendPaste() error { return paste.Send() }
