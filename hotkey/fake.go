package hotkey

// FakeHotkey drives the edge translator from tests and the stdin test
// harness.
type FakeHotkey struct {
	Chord   Chord
	keydown chan struct{}
	keyup   chan struct{}
}

func NewFake() *FakeHotkey {
	return &FakeHotkey{
		keydown: make(chan struct{}, 1),
		keyup:   make(chan struct{}, 1),
	}
}

func (f *FakeHotkey) Register(c Chord) error    { f.Chord = c; return nil }
func (f *FakeHotkey) Reconfigure(c Chord) error { f.Chord = c; return nil }
func (f *FakeHotkey) Unregister()               {}
func (f *FakeHotkey) Keydown() <-chan struct{}  { return f.keydown }
func (f *FakeHotkey) Keyup() <-chan struct{}    { return f.keyup }

func (f *FakeHotkey) SimKeydown() { f.keydown <- struct{}{} }
func (f *FakeHotkey) SimKeyup()   { f.keyup <- struct{}{} }
