package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"dikt/config"
	"dikt/history"
	"dikt/log"
	"dikt/vocabulary"
)

const (
	defaultDisplayTimeout = 1500 * time.Millisecond
	defaultRequestTimeout = 30 * time.Second
)

// Manager serializes hotkey edges and pipeline completions into one
// consistent session state. Every transition happens under mu and emits
// exactly one update. Pipeline completions carry the generation they
// were started under; a completion whose generation is stale (the
// session was cancelled or superseded) is dropped without an event.
type Manager struct {
	deps           Deps
	displayTimeout time.Duration

	mu       sync.Mutex
	state    State
	run      uint64
	ctx      context.Context
	cancel   context.CancelFunc
	revert   *time.Timer
	snap     config.Settings
	recStart time.Time
}

type Option func(*Manager)

// WithDisplayTimeout sets how long Done and Error stay visible before
// reverting to Idle.
func WithDisplayTimeout(d time.Duration) Option {
	return func(m *Manager) { m.displayTimeout = d }
}

func NewManager(deps Deps, opts ...Option) *Manager {
	m := &Manager{deps: deps, displayTimeout: defaultDisplayTimeout}
	for _, o := range opts {
		o(m)
	}
	return m
}

// State returns the current session state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Press handles a hold-mode key-down. Valid from Idle and from the Done
// and Error display states; anywhere else it is a no-op.
func (m *Manager) Press() {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch m.state {
	case Idle, Done, Error:
		m.beginLocked()
	}
}

// Release handles a hold-mode key-up. A no-op unless Recording.
func (m *Manager) Release() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == Recording {
		m.finishLocked()
	}
}

// Toggle starts recording where Press would and stops it where Release
// would. While the pipeline is running it is a no-op.
func (m *Manager) Toggle() {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch m.state {
	case Idle, Done, Error:
		m.beginLocked()
	case Recording:
		m.finishLocked()
	}
}

// Cancel aborts the active session: it releases the audio device,
// cancels in-flight requests, and emits a single Idle update. A no-op
// in Idle.
func (m *Manager) Cancel() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == Idle {
		return
	}
	if m.state == Recording {
		m.deps.Recorder.Abort()
	}
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.stopRevertLocked()
	m.run++
	m.setLocked(Update{State: Idle})
}

// beginLocked starts a new session. The audio device is opened while
// the lock is held, so a Release racing the key-down serializes behind
// it and classifies against the settled state. On start failure the
// only emitted event is the Error; no Recording update is observed.
func (m *Manager) beginLocked() {
	m.stopRevertLocked()
	m.run++
	run := m.run
	m.snap = m.deps.Settings()

	if err := m.deps.Recorder.Start(); err != nil {
		log.Errorf("audio start: %v", err)
		m.setLocked(Update{State: Error, Message: "Could not start recording: " + err.Error()})
		m.armRevertLocked(run)
		return
	}

	m.ctx, m.cancel = context.WithCancel(context.Background())
	m.recStart = time.Now()
	m.setLocked(Update{State: Recording})
}

// finishLocked moves Recording to Transcribing and hands the rest of
// the pipeline to its own goroutine.
func (m *Manager) finishLocked() {
	run := m.run
	ctx := m.ctx
	snap := m.snap
	recDur := time.Since(m.recStart)
	m.setLocked(Update{State: Transcribing})
	go m.process(ctx, run, snap, recDur)
}

// process runs stop/transcribe/format/deliver for one session. It
// re-enters the serialized section only to advance state, and bails out
// as soon as its generation goes stale.
func (m *Manager) process(ctx context.Context, run uint64, snap config.Settings, recDur time.Duration) {
	start := time.Now()

	capture, err := m.deps.Recorder.Stop()
	if err != nil {
		if m.fail(run, "Recording failed: "+err.Error()) {
			log.Errorf("audio stop: %v", err)
		}
		return
	}
	if capture.Frames == 0 {
		m.fail(run, "No audio captured. Check your microphone.")
		return
	}

	timeout := defaultRequestTimeout
	if snap.RequestTimeoutSecs > 0 {
		timeout = time.Duration(snap.RequestTimeoutSecs) * time.Second
	}

	prompt := vocabulary.Prompt(snap.Vocabulary)
	tctx, tcancel := context.WithTimeout(ctx, timeout)
	tstart := time.Now()
	res, err := m.deps.Transcriber.Transcribe(tctx, capture, snap.Language, prompt)
	tcancel()
	transcribeMs := float64(time.Since(tstart).Milliseconds())
	if err != nil {
		if m.fail(run, errorMessage("Transcription", err)) {
			log.Errorf("transcribe: %v", err)
		}
		return
	}

	text := strings.TrimSpace(res.Text)
	if text == "" {
		log.Info("no_speech")
		m.fail(run, "No speech detected.")
		return
	}
	text = vocabulary.NewCorrector(snap.Vocabulary).Apply(text)

	original := ""
	modeName := ""
	var formatMs float64
	if mode := snap.ActiveMode(); mode != nil {
		if !m.advance(run, Update{State: Formatting}) {
			return
		}
		fctx, fcancel := context.WithTimeout(ctx, timeout)
		fstart := time.Now()
		formatted, err := m.deps.Formatter.Format(fctx, mode.SystemPrompt, mode.Model, text)
		fcancel()
		formatMs = float64(time.Since(fstart).Milliseconds())
		if err != nil {
			if m.fail(run, errorMessage("Formatting", err)) {
				log.Errorf("format: %v", err)
			}
			return
		}
		formatted = strings.TrimSpace(formatted)
		if formatted == "" {
			m.fail(run, "Formatting produced no text.")
			return
		}
		if formatted != text {
			original = text
		}
		modeName = mode.Name
		text = formatted
	}

	if !m.advance(run, Update{State: Pasting}) {
		return
	}
	dstart := time.Now()
	if err := m.deps.Deliverer.Deliver(ctx, text, snap.OutputPolicy); err != nil {
		if m.fail(run, errorMessage("Delivery", err)) {
			log.Errorf("deliver: %v", err)
		}
		return
	}
	deliverMs := float64(time.Since(dstart).Milliseconds())

	// The paste landed, so the session is recorded even if a racing
	// cancel suppresses the Done event below.
	if m.deps.History != nil {
		item := history.Item{
			Text:         text,
			OriginalText: original,
			DurationSecs: recDur.Seconds(),
			Language:     res.Language,
			ModeName:     modeName,
		}
		if err := m.deps.History.Append(item); err != nil {
			log.Warnf("history append: %v", err)
		}
	}

	if !m.complete(run, text) {
		return
	}

	log.TranscriptionText(text)
	log.DictationMetrics(log.Metrics{
		AudioLengthS: capture.Duration.Seconds(),
		PayloadKB:    float64(len(capture.Bytes)) / 1024.0,
		EncodeTimeMs: float64(capture.EncodeTime.Milliseconds()),
		TranscribeMs: transcribeMs,
		FormatMs:     formatMs,
		DeliverMs:    deliverMs,
		TotalTimeMs:  float64(time.Since(start).Milliseconds()),
	}, modeName, capture.Format, m.provider())
}

// advance applies an intermediate transition if run is still current.
func (m *Manager) advance(run uint64, u Update) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.run != run {
		return false
	}
	m.setLocked(u)
	return true
}

// fail moves the session to Error if run is still current.
func (m *Manager) fail(run uint64, msg string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.run != run {
		return false
	}
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.setLocked(Update{State: Error, Message: msg})
	m.armRevertLocked(run)
	return true
}

// complete moves the session to Done if run is still current.
func (m *Manager) complete(run uint64, text string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.run != run {
		return false
	}
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.setLocked(Update{State: Done, Text: text})
	m.armRevertLocked(run)
	return true
}

// setLocked applies a transition and emits its update. Caller holds mu.
func (m *Manager) setLocked(u Update) {
	from := m.state
	m.state = u.State
	log.State(from.String(), u.State.String())
	if m.deps.Sink != nil {
		m.deps.Sink(u)
	}
}

// armRevertLocked schedules the Done/Error display state to fall back
// to Idle unless a new edge preempts it first.
func (m *Manager) armRevertLocked(run uint64) {
	m.revert = time.AfterFunc(m.displayTimeout, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if m.run != run || (m.state != Done && m.state != Error) {
			return
		}
		m.setLocked(Update{State: Idle})
	})
}

func (m *Manager) stopRevertLocked() {
	if m.revert != nil {
		m.revert.Stop()
		m.revert = nil
	}
}

func (m *Manager) provider() string {
	if p, ok := m.deps.Transcriber.(interface{ Provider() string }); ok {
		return p.Provider()
	}
	return "unknown"
}
