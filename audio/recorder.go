package audio

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"dikt/encoder"
)

// Recorder owns a capture device and turns one recording at a time into
// an encoded payload. Samples stream from the device callback into a
// concurrent encode goroutine, so Stop only has to flush what is already
// buffered instead of encoding the whole take at once.
type Recorder struct {
	mu      sync.Mutex
	capture CaptureDevice
	format  string

	enc        encoder.Encoder
	blockChan  chan []int16
	encodeDone chan struct{}
	recording  bool

	bufMu     sync.Mutex
	sampleBuf []int16

	level atomic.Uint64 // RMS of the latest callback, math.Float64bits
}

func NewRecorder(capture CaptureDevice, format string) *Recorder {
	return &Recorder{capture: capture, format: format}
}

// SetCapture swaps the underlying device. Callers must not swap while a
// recording is active.
func (r *Recorder) SetCapture(c CaptureDevice) {
	r.mu.Lock()
	r.capture = c
	r.mu.Unlock()
}

func (r *Recorder) DeviceName() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.capture.DeviceName()
}

// Level reports the RMS of the most recent audio callback, in [0, 1].
func (r *Recorder) Level() float64 {
	return math.Float64frombits(r.level.Load())
}

func (r *Recorder) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.recording {
		return fmt.Errorf("already recording")
	}

	enc, err := encoder.New(r.format)
	if err != nil {
		return err
	}
	r.enc = enc
	r.blockChan = make(chan []int16, 64)
	r.encodeDone = make(chan struct{})
	r.bufMu.Lock()
	r.sampleBuf = r.sampleBuf[:0]
	r.bufMu.Unlock()

	go func(enc encoder.Encoder, blocks <-chan []int16, done chan<- struct{}) {
		defer close(done)
		for block := range blocks {
			start := time.Now()
			enc.EncodeBlock(block)
			enc.AddEncodeTime(time.Since(start))
		}
	}(enc, r.blockChan, r.encodeDone)

	r.capture.SetCallback(r.feed)
	if err := r.capture.Start(); err != nil {
		r.capture.ClearCallback()
		close(r.blockChan)
		<-r.encodeDone
		return fmt.Errorf("starting capture: %w", err)
	}

	r.recording = true
	return nil
}

// Stop halts the device, drains the encode pipeline and returns the
// finished payload.
func (r *Recorder) Stop() (Capture, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.recording {
		return Capture{}, fmt.Errorf("not recording")
	}
	r.teardownLocked()

	if err := r.enc.Close(); err != nil {
		return Capture{}, fmt.Errorf("closing encoder: %w", err)
	}

	frames := r.enc.TotalFrames()
	return Capture{
		Bytes:      r.enc.Bytes(),
		Format:     r.format,
		Frames:     frames,
		Duration:   time.Duration(frames) * time.Second / encoder.SampleRate,
		EncodeTime: r.enc.EncodeTime(),
	}, nil
}

// Abort releases the device and discards everything captured so far.
func (r *Recorder) Abort() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.recording {
		return
	}
	r.teardownLocked()
	r.enc.Close()
	r.level.Store(0)
}

// teardownLocked stops the device first so no callback can race the
// channel close, then flushes the partial block and joins the encoder.
func (r *Recorder) teardownLocked() {
	r.capture.Stop()
	r.capture.ClearCallback()
	r.recording = false

	r.bufMu.Lock()
	if len(r.sampleBuf) > 0 {
		partial := make([]int16, len(r.sampleBuf))
		copy(partial, r.sampleBuf)
		r.sampleBuf = r.sampleBuf[:0]
		r.blockChan <- partial
	}
	r.bufMu.Unlock()

	close(r.blockChan)
	<-r.encodeDone
}

func (r *Recorder) feed(data []byte, _ uint32) {
	var sum float64

	r.bufMu.Lock()
	for i := 0; i+1 < len(data); i += 2 {
		s := int16(binary.LittleEndian.Uint16(data[i:]))
		r.sampleBuf = append(r.sampleBuf, s)
		f := float64(s) / 32768
		sum += f * f
	}
	var blocks [][]int16
	for len(r.sampleBuf) >= encoder.BlockSize {
		block := make([]int16, encoder.BlockSize)
		copy(block, r.sampleBuf[:encoder.BlockSize])
		r.sampleBuf = r.sampleBuf[encoder.BlockSize:]
		blocks = append(blocks, block)
	}
	r.bufMu.Unlock()

	if n := len(data) / 2; n > 0 {
		r.level.Store(math.Float64bits(math.Sqrt(sum / float64(n))))
	}

	for _, block := range blocks {
		r.blockChan <- block
	}
}
