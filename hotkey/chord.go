// Package hotkey registers a global key chord and translates its press
// and release events into recording edges.
package hotkey

import (
	"fmt"
	"runtime"
	"strconv"
	"strings"
)

// Trigger modes for translating key events into recording edges.
const (
	ModeHold   = "hold"
	ModeToggle = "toggle"
	ModeHybrid = "hybrid"
)

// Modifier is a platform-neutral modifier name.
type Modifier string

const (
	ModCtrl  Modifier = "ctrl"
	ModShift Modifier = "shift"
	ModAlt   Modifier = "alt"
	ModSuper Modifier = "super"
)

// Chord is a parsed key combination: one or more modifiers plus a key.
type Chord struct {
	Mods []Modifier
	Key  string
}

func (c Chord) String() string {
	parts := make([]string, 0, len(c.Mods)+1)
	for _, m := range c.Mods {
		parts = append(parts, string(m))
	}
	parts = append(parts, c.Key)
	return strings.Join(parts, "+")
}

func (c Chord) hasMod(m Modifier) bool {
	for _, have := range c.Mods {
		if have == m {
			return true
		}
	}
	return false
}

// ParseChord parses chord strings like "CommandOrControl+Shift+Space".
// The last token is the key, everything before it a modifier.
// CommandOrControl resolves to cmd on darwin and ctrl elsewhere.
func ParseChord(s string) (Chord, error) {
	tokens := strings.Split(s, "+")
	if len(tokens) < 2 {
		return Chord{}, fmt.Errorf("chord %q needs at least one modifier and a key", s)
	}

	var c Chord
	for _, tok := range tokens[:len(tokens)-1] {
		mod, err := parseModifier(tok)
		if err != nil {
			return Chord{}, err
		}
		if !c.hasMod(mod) {
			c.Mods = append(c.Mods, mod)
		}
	}

	key := normalizeKey(tokens[len(tokens)-1])
	if !validKey(key) {
		return Chord{}, fmt.Errorf("unknown key %q", tokens[len(tokens)-1])
	}
	c.Key = key
	return c, nil
}

func parseModifier(tok string) (Modifier, error) {
	switch strings.ToLower(strings.TrimSpace(tok)) {
	case "commandorcontrol", "cmdorctrl":
		if runtime.GOOS == "darwin" {
			return ModSuper, nil
		}
		return ModCtrl, nil
	case "control", "ctrl":
		return ModCtrl, nil
	case "shift":
		return ModShift, nil
	case "alt", "option":
		return ModAlt, nil
	case "command", "cmd", "super", "win", "meta":
		return ModSuper, nil
	}
	return "", fmt.Errorf("unknown modifier %q", tok)
}

func normalizeKey(tok string) string {
	key := strings.ToLower(strings.TrimSpace(tok))
	switch key {
	case "return":
		return "enter"
	case "esc":
		return "escape"
	}
	return key
}

// validKey reports whether both backends can bind the key: letters,
// digits, f1-f12, and a small set of named keys.
func validKey(key string) bool {
	if len(key) == 1 {
		r := key[0]
		return (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
	}
	switch key {
	case "space", "enter", "escape", "tab", "delete", "up", "down", "left", "right":
		return true
	}
	if rest, ok := strings.CutPrefix(key, "f"); ok {
		n, err := strconv.Atoi(rest)
		return err == nil && n >= 1 && n <= 12
	}
	return false
}
