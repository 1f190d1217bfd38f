package audio

import (
	"encoding/binary"
	"errors"
	"testing"

	"dikt/encoder"
)

// scriptedCapture delivers exactly the samples a test pushes, so frame
// counts are deterministic.
type scriptedCapture struct {
	cb       DataCallback
	started  bool
	startErr error
}

func (s *scriptedCapture) Start() error {
	if s.startErr != nil {
		return s.startErr
	}
	s.started = true
	return nil
}

func (s *scriptedCapture) Stop()                       { s.started = false }
func (s *scriptedCapture) Close()                      {}
func (s *scriptedCapture) SetCallback(cb DataCallback) { s.cb = cb }
func (s *scriptedCapture) ClearCallback()              { s.cb = nil }
func (s *scriptedCapture) DeviceName() string          { return "scripted" }

func (s *scriptedCapture) push(t *testing.T, samples []int16) {
	t.Helper()
	if s.cb == nil {
		t.Fatal("push before SetCallback")
	}
	data := make([]byte, len(samples)*2)
	for i, v := range samples {
		binary.LittleEndian.PutUint16(data[i*2:], uint16(v))
	}
	s.cb(data, uint32(len(samples)))
}

func rampSamples(n int) []int16 {
	s := make([]int16, n)
	for i := range s {
		s[i] = int16((i % 200) * 50)
	}
	return s
}

func TestRecorderStartStop(t *testing.T) {
	cap := &scriptedCapture{}
	rec := NewRecorder(cap, "wav")

	if err := rec.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !cap.started {
		t.Fatal("capture device not started")
	}

	samples := rampSamples(encoder.BlockSize + 500)
	cap.push(t, samples[:encoder.BlockSize])
	cap.push(t, samples[encoder.BlockSize:])

	got, err := rec.Stop()
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if cap.started {
		t.Error("capture device still running after Stop")
	}
	if got.Frames != uint64(len(samples)) {
		t.Errorf("Frames = %d, want %d", got.Frames, len(samples))
	}
	if got.Format != "wav" {
		t.Errorf("Format = %q, want wav", got.Format)
	}
	if len(got.Bytes) < WAVHeaderSize || string(got.Bytes[:4]) != "RIFF" {
		t.Error("payload is not a WAV file")
	}
	wantDur := float64(len(samples)) / float64(encoder.SampleRate)
	if got.Duration.Seconds() < wantDur*0.99 || got.Duration.Seconds() > wantDur*1.01 {
		t.Errorf("Duration = %v, want ~%.3fs", got.Duration, wantDur)
	}
}

func TestRecorderFlac(t *testing.T) {
	cap := &scriptedCapture{}
	rec := NewRecorder(cap, "flac")

	if err := rec.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	cap.push(t, rampSamples(2*encoder.BlockSize))

	got, err := rec.Stop()
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if len(got.Bytes) < 4 || string(got.Bytes[:4]) != "fLaC" {
		t.Error("payload is not a FLAC stream")
	}
	if got.Frames != uint64(2*encoder.BlockSize) {
		t.Errorf("Frames = %d, want %d", got.Frames, 2*encoder.BlockSize)
	}
}

func TestRecorderAbortDiscardsAndRecovers(t *testing.T) {
	cap := &scriptedCapture{}
	rec := NewRecorder(cap, "wav")

	if err := rec.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	cap.push(t, rampSamples(1000))
	rec.Abort()

	if cap.started {
		t.Error("capture device still running after Abort")
	}
	if rec.Level() != 0 {
		t.Error("level not reset after Abort")
	}

	// The recorder must be reusable for the next session.
	if err := rec.Start(); err != nil {
		t.Fatalf("Start after Abort: %v", err)
	}
	cap.push(t, rampSamples(300))
	got, err := rec.Stop()
	if err != nil {
		t.Fatalf("Stop after Abort: %v", err)
	}
	if got.Frames != 300 {
		t.Errorf("Frames = %d, want 300 (aborted data leaked in)", got.Frames)
	}
}

func TestRecorderDoubleStart(t *testing.T) {
	rec := NewRecorder(&scriptedCapture{}, "wav")
	if err := rec.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := rec.Start(); err == nil {
		t.Error("second Start should fail")
	}
	if _, err := rec.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}

func TestRecorderStopWithoutStart(t *testing.T) {
	rec := NewRecorder(&scriptedCapture{}, "wav")
	if _, err := rec.Stop(); err == nil {
		t.Error("Stop without Start should fail")
	}
}

func TestRecorderStartFailure(t *testing.T) {
	boom := errors.New("device gone")
	cap := &scriptedCapture{startErr: boom}
	rec := NewRecorder(cap, "wav")

	if err := rec.Start(); !errors.Is(err, boom) {
		t.Fatalf("Start error = %v, want wrapped %v", err, boom)
	}

	// A later Start against a healthy device must work.
	cap.startErr = nil
	if err := rec.Start(); err != nil {
		t.Fatalf("Start after failure: %v", err)
	}
	cap.push(t, rampSamples(100))
	if _, err := rec.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}

func TestRecorderLevel(t *testing.T) {
	cap := &scriptedCapture{}
	rec := NewRecorder(cap, "wav")
	if err := rec.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	loud := make([]int16, 512)
	for i := range loud {
		loud[i] = 16000
	}
	cap.push(t, loud)

	if lvl := rec.Level(); lvl < 0.4 || lvl > 0.6 {
		t.Errorf("Level = %f, want ~0.49", lvl)
	}
	if _, err := rec.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}

func TestRecorderUnknownFormat(t *testing.T) {
	rec := NewRecorder(&scriptedCapture{}, "ogg")
	if err := rec.Start(); err == nil {
		t.Error("unknown format should fail Start")
	}
}
