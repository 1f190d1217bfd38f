package encoder

import (
	"encoding/binary"
	"testing"
)

func TestWavEncoder(t *testing.T) {
	samples := genSamples(BlockSize + 100)

	enc := NewWav()
	if err := enc.EncodeBlock(samples[:BlockSize]); err != nil {
		t.Fatalf("EncodeBlock: %v", err)
	}
	if err := enc.EncodeBlock(samples[BlockSize:]); err != nil {
		t.Fatalf("EncodeBlock partial: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	b := enc.Bytes()
	if len(b) != wavHeaderSize+len(samples)*2 {
		t.Fatalf("output size = %d, want %d", len(b), wavHeaderSize+len(samples)*2)
	}
	if string(b[0:4]) != "RIFF" || string(b[8:12]) != "WAVE" {
		t.Fatal("missing RIFF/WAVE markers")
	}
	if got := binary.LittleEndian.Uint32(b[24:28]); got != SampleRate {
		t.Errorf("sample rate = %d, want %d", got, SampleRate)
	}
	if got := binary.LittleEndian.Uint16(b[22:24]); got != Channels {
		t.Errorf("channels = %d, want %d", got, Channels)
	}
	if got := binary.LittleEndian.Uint32(b[40:44]); got != uint32(len(samples)*2) {
		t.Errorf("data length = %d, want %d", got, len(samples)*2)
	}
	if got := int16(binary.LittleEndian.Uint16(b[44:46])); got != samples[0] {
		t.Errorf("first sample = %d, want %d", got, samples[0])
	}
	if enc.TotalFrames() != uint64(len(samples)) {
		t.Errorf("TotalFrames = %d, want %d", enc.TotalFrames(), len(samples))
	}
}

func TestWavEncoderEmpty(t *testing.T) {
	enc := NewWav()
	if err := enc.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	b := enc.Bytes()
	if len(b) != wavHeaderSize {
		t.Fatalf("empty output size = %d, want %d", len(b), wavHeaderSize)
	}
	if got := binary.LittleEndian.Uint32(b[40:44]); got != 0 {
		t.Errorf("data length = %d, want 0", got)
	}
}

func TestNewFormat(t *testing.T) {
	for _, format := range []string{"wav", "flac"} {
		enc, err := New(format)
		if err != nil {
			t.Errorf("New(%q): %v", format, err)
		}
		if enc == nil {
			t.Errorf("New(%q) returned nil encoder", format)
		}
	}

	if _, err := New("ogg"); err == nil {
		t.Error("expected error for unknown format")
	}
}
