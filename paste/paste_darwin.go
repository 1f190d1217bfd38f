//go:build darwin

// Package paste synthesizes the platform paste chord into whatever
// application holds keyboard focus.
package paste

import (
	"sync"

	"github.com/micmonay/keybd_event"
)

var (
	kb     keybd_event.KeyBonding
	kbOnce sync.Once
	kbErr  error
)

func Init() error {
	kbOnce.Do(func() {
		kb, kbErr = keybd_event.NewKeyBonding()
	})
	return kbErr
}

// Send emits Cmd+V.
func Send() error {
	if err := Init(); err != nil {
		return err
	}
	kb.SetKeys(keybd_event.VK_V)
	kb.HasSuper(true)
	return kb.Launching()
}

// Diagnose reports whether keystroke injection is available. Failure
// usually means the accessibility permission has not been granted.
func Diagnose() error {
	return Init()
}
