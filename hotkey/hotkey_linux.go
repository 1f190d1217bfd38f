//go:build linux

package hotkey

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
)

const (
	evKey      = 1
	keyPress   = 1
	keyRelease = 0
)

const inputEventSize = 24

// modCodes maps each modifier to its left/right evdev key codes.
var modCodes = map[Modifier][2]uint16{
	ModCtrl:  {29, 97},
	ModShift: {42, 54},
	ModAlt:   {56, 100},
	ModSuper: {125, 126},
}

var keyCodes = map[string]uint16{
	"a": 30, "b": 48, "c": 46, "d": 32, "e": 18, "f": 33, "g": 34,
	"h": 35, "i": 23, "j": 36, "k": 37, "l": 38, "m": 50, "n": 49,
	"o": 24, "p": 25, "q": 16, "r": 19, "s": 31, "t": 20, "u": 22,
	"v": 47, "w": 17, "x": 45, "y": 21, "z": 44,
	"1": 2, "2": 3, "3": 4, "4": 5, "5": 6, "6": 7, "7": 8, "8": 9,
	"9": 10, "0": 11,
	"space": 57, "enter": 28, "escape": 1, "tab": 15, "delete": 111,
	"up": 103, "down": 108, "left": 105, "right": 106,
	"f1": 59, "f2": 60, "f3": 61, "f4": 62, "f5": 63, "f6": 64,
	"f7": 65, "f8": 66, "f9": 67, "f10": 68, "f11": 87, "f12": 88,
}

// chordSpec is the evdev view of a chord. Readers load it per event, so
// Reconfigure is a single atomic swap.
type chordSpec struct {
	mods [][2]uint16
	key  uint16
}

func (s *chordSpec) satisfied(held map[uint16]bool) bool {
	for _, pair := range s.mods {
		if !held[pair[0]] && !held[pair[1]] {
			return false
		}
	}
	return true
}

func compileChord(c Chord) (*chordSpec, error) {
	spec := &chordSpec{}
	for _, m := range c.Mods {
		pair, ok := modCodes[m]
		if !ok {
			return nil, fmt.Errorf("modifier %q not supported on linux", m)
		}
		spec.mods = append(spec.mods, pair)
	}
	code, ok := keyCodes[c.Key]
	if !ok {
		return nil, fmt.Errorf("key %q not supported on linux", c.Key)
	}
	spec.key = code
	return spec, nil
}

// linuxHotkey watches raw evdev keyboard devices. It needs read access
// to /dev/input/event*, usually via the input group.
type linuxHotkey struct {
	keydown chan struct{}
	keyup   chan struct{}
	spec    atomic.Pointer[chordSpec]
	files   []*os.File
	stop    chan struct{}
	once    sync.Once
}

func New() Hotkey {
	return &linuxHotkey{
		keydown: make(chan struct{}, 1),
		keyup:   make(chan struct{}, 1),
	}
}

func (h *linuxHotkey) Register(c Chord) error {
	spec, err := compileChord(c)
	if err != nil {
		return err
	}
	h.spec.Store(spec)

	keyboards, err := findKeyboards()
	if err != nil {
		return fmt.Errorf("finding keyboards: %w", err)
	}
	if len(keyboards) == 0 {
		return fmt.Errorf("no keyboard devices found (is user in 'input' group?)")
	}

	h.stop = make(chan struct{})

	for _, path := range keyboards {
		f, err := os.Open(path)
		if err != nil {
			continue
		}
		h.files = append(h.files, f)
		go h.readEvents(f)
	}

	if len(h.files) == 0 {
		return fmt.Errorf("could not open any keyboard device (run: sudo usermod -aG input $USER, then re-login)")
	}

	return nil
}

// Reconfigure swaps the watched chord. The device readers pick up the
// new spec on their next event; no re-open is needed.
func (h *linuxHotkey) Reconfigure(c Chord) error {
	spec, err := compileChord(c)
	if err != nil {
		return err
	}
	h.spec.Store(spec)
	return nil
}

func (h *linuxHotkey) readEvents(f *os.File) {
	buf := make([]byte, inputEventSize*16)
	held := make(map[uint16]bool)
	// heldKey remembers which code fired keydown, so its release still
	// fires keyup even if the chord was reconfigured mid-hold.
	var heldKey uint16
	keyHeld := false

	for {
		select {
		case <-h.stop:
			return
		default:
		}

		n, err := f.Read(buf)
		if err != nil {
			return
		}

		for i := 0; i+inputEventSize <= n; i += inputEventSize {
			evType := binary.LittleEndian.Uint16(buf[i+16:])
			evCode := binary.LittleEndian.Uint16(buf[i+18:])
			evValue := int32(binary.LittleEndian.Uint32(buf[i+20:]))

			if evType != evKey {
				continue
			}

			pressed := evValue == keyPress
			released := evValue == keyRelease

			if isModifierCode(evCode) {
				if pressed {
					held[evCode] = true
				} else if released {
					held[evCode] = false
				}
				continue
			}

			spec := h.spec.Load()
			if spec == nil {
				continue
			}
			if pressed && !keyHeld && evCode == spec.key && spec.satisfied(held) {
				keyHeld = true
				heldKey = evCode
				select {
				case h.keydown <- struct{}{}:
				default:
				}
			} else if released && keyHeld && evCode == heldKey {
				keyHeld = false
				select {
				case h.keyup <- struct{}{}:
				default:
				}
			}
		}
	}
}

func isModifierCode(code uint16) bool {
	for _, pair := range modCodes {
		if code == pair[0] || code == pair[1] {
			return true
		}
	}
	return false
}

func (h *linuxHotkey) Unregister() {
	h.once.Do(func() {
		if h.stop != nil {
			close(h.stop)
		}
		for _, f := range h.files {
			f.Close()
		}
	})
}

func (h *linuxHotkey) Keydown() <-chan struct{} {
	return h.keydown
}

func (h *linuxHotkey) Keyup() <-chan struct{} {
	return h.keyup
}

func findKeyboards() ([]string, error) {
	entries, err := os.ReadDir("/dev/input")
	if err != nil {
		return nil, err
	}

	var keyboards []string
	for _, e := range entries {
		if !strings.HasPrefix(e.Name(), "event") {
			continue
		}
		path := filepath.Join("/dev/input", e.Name())
		if isKeyboard(e.Name()) {
			keyboards = append(keyboards, path)
		}
	}
	return keyboards, nil
}

func isKeyboard(eventName string) bool {
	capsPath := filepath.Join("/sys/class/input", eventName, "device", "capabilities", "key")
	data, err := os.ReadFile(capsPath)
	if err != nil {
		return false
	}
	caps := strings.TrimSpace(string(data))
	return len(caps) > 10
}

func Diagnose() (string, error) {
	keyboards, err := findKeyboards()
	if err != nil {
		return "", fmt.Errorf("cannot scan input devices: %w", err)
	}
	if len(keyboards) == 0 {
		return "", fmt.Errorf("no keyboard devices found (is user in 'input' group?)")
	}

	var opened string
	for _, path := range keyboards {
		f, err := os.Open(path)
		if err == nil {
			f.Close()
			opened = path
			break
		}
	}
	if opened == "" {
		return "", fmt.Errorf("found %d keyboard(s) but cannot open any (run: sudo usermod -aG input $USER)", len(keyboards))
	}

	return fmt.Sprintf("%d keyboard(s) found, opened %s", len(keyboards), opened), nil
}
