package hotkey

// Hotkey delivers global chord press and release events. The Keydown
// and Keyup channels stay valid across Reconfigure.
type Hotkey interface {
	Register(Chord) error
	Unregister()
	Reconfigure(Chord) error
	Keydown() <-chan struct{}
	Keyup() <-chan struct{}
}
