// Package encoder turns 16 kHz mono PCM into the payload formats the
// transcription API accepts.
package encoder

import (
	"fmt"
	"sync"
	"time"
)

const (
	SampleRate    = 16000
	Channels      = 1
	BitsPerSample = 16
	BlockSize     = 4096
)

// Encoder accumulates PCM blocks into an encoded payload. EncodeBlock is
// meant to be driven from a single goroutine; Bytes is only valid after
// Close.
type Encoder interface {
	EncodeBlock(block []int16) error
	Close() error
	Bytes() []byte
	TotalFrames() uint64
	AddEncodeTime(d time.Duration)
	EncodeTime() time.Duration
}

// New returns an encoder for the given upload format.
func New(format string) (Encoder, error) {
	switch format {
	case "wav":
		return NewWav(), nil
	case "flac":
		return NewFlac()
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
}

// meter holds the bookkeeping shared by all encoders. Counters are read
// from other goroutines while encoding runs.
type meter struct {
	mu         sync.Mutex
	frames     uint64
	encodeTime time.Duration
}

func (m *meter) addFrames(n int) {
	m.mu.Lock()
	m.frames += uint64(n)
	m.mu.Unlock()
}

func (m *meter) TotalFrames() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.frames
}

func (m *meter) AddEncodeTime(d time.Duration) {
	m.mu.Lock()
	m.encodeTime += d
	m.mu.Unlock()
}

func (m *meter) EncodeTime() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.encodeTime
}
