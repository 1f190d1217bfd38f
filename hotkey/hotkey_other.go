//go:build !linux

package hotkey

import (
	"fmt"
	"sync"

	"golang.design/x/hotkey"
)

var keyMap = map[string]hotkey.Key{
	"a": hotkey.KeyA, "b": hotkey.KeyB, "c": hotkey.KeyC, "d": hotkey.KeyD,
	"e": hotkey.KeyE, "f": hotkey.KeyF, "g": hotkey.KeyG, "h": hotkey.KeyH,
	"i": hotkey.KeyI, "j": hotkey.KeyJ, "k": hotkey.KeyK, "l": hotkey.KeyL,
	"m": hotkey.KeyM, "n": hotkey.KeyN, "o": hotkey.KeyO, "p": hotkey.KeyP,
	"q": hotkey.KeyQ, "r": hotkey.KeyR, "s": hotkey.KeyS, "t": hotkey.KeyT,
	"u": hotkey.KeyU, "v": hotkey.KeyV, "w": hotkey.KeyW, "x": hotkey.KeyX,
	"y": hotkey.KeyY, "z": hotkey.KeyZ,
	"0": hotkey.Key0, "1": hotkey.Key1, "2": hotkey.Key2, "3": hotkey.Key3,
	"4": hotkey.Key4, "5": hotkey.Key5, "6": hotkey.Key6, "7": hotkey.Key7,
	"8": hotkey.Key8, "9": hotkey.Key9,
	"space": hotkey.KeySpace, "enter": hotkey.KeyReturn,
	"escape": hotkey.KeyEscape, "tab": hotkey.KeyTab,
	"delete": hotkey.KeyDelete,
	"up":     hotkey.KeyUp, "down": hotkey.KeyDown,
	"left": hotkey.KeyLeft, "right": hotkey.KeyRight,
	"f1": hotkey.KeyF1, "f2": hotkey.KeyF2, "f3": hotkey.KeyF3,
	"f4": hotkey.KeyF4, "f5": hotkey.KeyF5, "f6": hotkey.KeyF6,
	"f7": hotkey.KeyF7, "f8": hotkey.KeyF8, "f9": hotkey.KeyF9,
	"f10": hotkey.KeyF10, "f11": hotkey.KeyF11, "f12": hotkey.KeyF12,
}

func translateChord(c Chord) ([]hotkey.Modifier, hotkey.Key, error) {
	var mods []hotkey.Modifier
	for _, m := range c.Mods {
		mod, ok := modMap[m]
		if !ok {
			return nil, 0, fmt.Errorf("modifier %q not supported on this platform", m)
		}
		mods = append(mods, mod)
	}
	key, ok := keyMap[c.Key]
	if !ok {
		return nil, 0, fmt.Errorf("key %q not supported on this platform", c.Key)
	}
	return mods, key, nil
}

// xHotkey wraps golang.design/x/hotkey. A registration owns a stop
// channel; Reconfigure registers the new chord before dropping the old
// one, so a failed swap leaves the old chord live.
type xHotkey struct {
	mu      sync.Mutex
	hk      *hotkey.Hotkey
	stop    chan struct{}
	keydown chan struct{}
	keyup   chan struct{}
}

func New() Hotkey {
	return &xHotkey{
		keydown: make(chan struct{}, 1),
		keyup:   make(chan struct{}, 1),
	}
}

func (h *xHotkey) Register(c Chord) error {
	return h.Reconfigure(c)
}

func (h *xHotkey) Reconfigure(c Chord) error {
	mods, key, err := translateChord(c)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	next := hotkey.New(mods, key)
	if err := next.Register(); err != nil {
		return err
	}

	old, oldStop := h.hk, h.stop
	stop := make(chan struct{})
	h.hk, h.stop = next, stop
	go forward(next.Keydown(), h.keydown, stop)
	go forward(next.Keyup(), h.keyup, stop)

	if old != nil {
		close(oldStop)
		old.Unregister()
	}
	return nil
}

func forward(src <-chan hotkey.Event, dst chan struct{}, stop chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case <-src:
			select {
			case dst <- struct{}{}:
			default:
			}
		}
	}
}

func (h *xHotkey) Unregister() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.hk == nil {
		return
	}
	close(h.stop)
	h.hk.Unregister()
	h.hk, h.stop = nil, nil
}

func (h *xHotkey) Keydown() <-chan struct{} {
	return h.keydown
}

func (h *xHotkey) Keyup() <-chan struct{} {
	return h.keyup
}

func Diagnose() (string, error) {
	return "global hotkey support available", nil
}
