package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"dikt/audio"
	"dikt/beep"
	"dikt/config"
	"dikt/deliver"
	"dikt/encoder"
	"dikt/formatter"
	"dikt/history"
	"dikt/hotkey"
	"dikt/log"
	"dikt/paste"
	"dikt/session"
	"dikt/status"
	"dikt/transcriber"
)

// runTestMode drives the full pipeline from a WAV file and stdin
// commands instead of a microphone and a global hotkey. Used by the
// integration tests.
func runTestMode(wavPath string, cfg config.Settings) {
	beep.Disable()

	if err := paste.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: paste init failed: %v\n", err)
	}

	fakeCtx, err := audio.NewFakeContext(wavPath, false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading WAV: %v\n", err)
		os.Exit(1)
	}

	capture, err := fakeCtx.NewCapture(nil, audio.CaptureConfig{
		SampleRate: encoder.SampleRate, Channels: encoder.Channels,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating capture: %v\n", err)
		os.Exit(1)
	}
	defer capture.Close()
	fakeCapture := capture.(*audio.FakeCapture)

	recorder := audio.NewRecorder(capture, cfg.Format)

	tclient := transcriber.New(transcriber.Config{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Model:   cfg.Model,
	})
	fclient := formatter.New(formatter.Config{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
	})
	eng := deliver.New(deliver.SystemClipboard{}, deliver.SystemKeys{})

	var histPort session.History
	histStore, err = history.Open(history.DefaultPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: history unavailable: %v\n", err)
	} else {
		histPort = histStore
	}

	store := config.NewStore(cfg)

	termCh := make(chan struct{}, 1)
	bc := status.NewBroadcaster()
	bc.Subscribe(func(u session.Update) {
		switch u.State {
		case session.Done:
			sessionCount.Add(1)
			select {
			case termCh <- struct{}{}:
			default:
			}
		case session.Error:
			select {
			case termCh <- struct{}{}:
			default:
			}
		}
	})

	mgr := session.NewManager(session.Deps{
		Recorder:    recorder,
		Transcriber: tclient,
		Formatter:   fclient,
		Deliverer:   eng,
		History:     histPort,
		Settings:    store.Snapshot,
		Sink:        bc.Emit,
	})

	hk := hotkey.NewFake()
	edges := hotkey.WatchEdges(hk, cfg.TriggerMode, 350*time.Millisecond)

	log.SessionStart(tclient.Provider(), cfg.TriggerMode, cfg.Format)

	// Stdin driver in background. Key commands feed the fake hotkey,
	// WAIT variants block until the pipeline reaches the named point.
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			cmd := strings.TrimSpace(scanner.Text())
			switch cmd {
			case "KEYDOWN":
				hk.SimKeydown()
			case "KEYUP":
				hk.SimKeyup()
			case "TOGGLE":
				mgr.Toggle()
			case "CANCEL":
				mgr.Cancel()
			case "WAIT":
				<-termCh
			case "WAIT_IDLE":
				for mgr.State() != session.Idle {
					time.Sleep(10 * time.Millisecond)
				}
			case "WAIT_AUDIO_DONE":
				<-fakeCapture.AudioDone()
			case "QUIT":
				log.SessionEnd(int(sessionCount.Load()))
				if histStore != nil {
					histStore.Close()
				}
				log.Close()
				os.Exit(0)
			default:
				if strings.HasPrefix(cmd, "SLEEP ") {
					if ms, err := strconv.Atoi(cmd[6:]); err == nil {
						time.Sleep(time.Duration(ms) * time.Millisecond)
					}
				}
			}
		}
		os.Exit(0)
	}()

	for edge := range edges {
		switch edge {
		case hotkey.Press:
			mgr.Press()
		case hotkey.Release:
			mgr.Release()
		case hotkey.Toggle:
			mgr.Toggle()
		}
	}
}
