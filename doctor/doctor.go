// Package doctor walks through everything a dictation session touches:
// configuration, the global hotkey, the microphone, the clipboard and
// synthetic paste. With an API key configured it also round-trips the
// test recording through the transcription endpoint.
package doctor

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"dikt/audio"
	"dikt/clipboard"
	"dikt/config"
	"dikt/encoder"
	"dikt/hotkey"
	"dikt/paste"
	"dikt/transcriber"
)

// Run executes the diagnostic checks in order and returns an exit code
// (0 when everything passes, 1 otherwise).
func Run(configPath string) int {
	resetTerminal()
	setupInterruptHandler()

	fmt.Println("dikt doctor - interactive system diagnostics")
	fmt.Println("============================================")

	cfg, allPass := checkConfig(configPath)

	if allPass && !checkHotkey(cfg) {
		allPass = false
	}

	var capture audio.Capture
	if allPass {
		var ok bool
		capture, ok = checkMicrophone(cfg)
		if !ok {
			allPass = false
		}
	}

	if allPass && !checkClipboardRoundTrip() {
		allPass = false
	}
	if allPass && !checkPaste() {
		allPass = false
	}
	if allPass && cfg.APIKey != "" && !checkTranscription(cfg, capture) {
		allPass = false
	}

	fmt.Println()
	if allPass {
		fmt.Println("All checks passed!")
		return 0
	}
	fmt.Println("Some checks failed. See details above.")
	return 1
}

func checkConfig(path string) (config.Settings, bool) {
	fmt.Println()
	fmt.Println("[1/5] Configuration")

	if path == "" {
		path = config.Path()
	}
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Printf("  FAIL: %v\n", err)
		return cfg, false
	}

	fmt.Printf("  hotkey: %s (%s mode)\n", cfg.Hotkey, cfg.TriggerMode)
	fmt.Printf("  endpoint: %s (model %s)\n", cfg.BaseURL, cfg.Model)
	if cfg.APIKey == "" {
		fmt.Println("  note: no API key configured, the transcription check will be skipped")
	}
	fmt.Println("  PASS: settings loaded")
	return cfg, true
}

func checkHotkey(cfg config.Settings) bool {
	fmt.Println()
	fmt.Println("[2/5] Hotkey detection")

	chord, err := hotkey.ParseChord(cfg.Hotkey)
	if err != nil {
		fmt.Printf("  FAIL: %v\n", err)
		return false
	}

	hk := hotkey.New()
	if err := hk.Register(chord); err != nil {
		fmt.Printf("  FAIL: could not register hotkey: %v\n", err)
		if msg, derr := hotkey.Diagnose(); derr != nil {
			fmt.Printf("  %v\n", derr)
		} else {
			fmt.Printf("  %s\n", msg)
		}
		return false
	}
	defer hk.Unregister()

	fmt.Printf("Press %s...\n", chord)
	select {
	case <-hk.Keydown():
		fmt.Println("  PASS: hotkey detected")
		// Wait for the release so it does not leak into the next check.
		select {
		case <-hk.Keyup():
		case <-time.After(5 * time.Second):
		}
		// The grab may leave the terminal in raw mode.
		resetTerminal()
		return true
	case <-time.After(10 * time.Second):
		fmt.Println("  FAIL: timeout waiting for hotkey")
		return false
	}
}

func checkMicrophone(cfg config.Settings) (audio.Capture, bool) {
	fmt.Println()
	fmt.Println("[3/5] Microphone")

	ctx, err := audio.NewContext()
	if err != nil {
		fmt.Printf("  FAIL: cannot connect to audio: %v\n", err)
		return audio.Capture{}, false
	}
	defer ctx.Close()

	var device *audio.DeviceInfo
	if cfg.Device != "" {
		device, err = audio.FindDevice(ctx, cfg.Device)
	} else {
		device, err = audio.SelectDevice(ctx)
	}
	if err != nil {
		fmt.Printf("  FAIL: %v\n", err)
		return audio.Capture{}, false
	}
	fmt.Printf("Using device: %s\n", device.Name)

	cap, err := ctx.NewCapture(device, audio.CaptureConfig{
		SampleRate: encoder.SampleRate,
		Channels:   encoder.Channels,
	})
	if err != nil {
		fmt.Printf("  FAIL: cannot open capture device: %v\n", err)
		return audio.Capture{}, false
	}
	defer cap.Close()

	rec := audio.NewRecorder(cap, cfg.Format)
	fmt.Print("Speak for 3 seconds")
	if err := rec.Start(); err != nil {
		fmt.Println()
		fmt.Printf("  FAIL: recording error: %v\n", err)
		return audio.Capture{}, false
	}

	var peak float64
	for i := 0; i < 6; i++ {
		time.Sleep(500 * time.Millisecond)
		if l := rec.Level(); l > peak {
			peak = l
		}
		fmt.Print(".")
	}
	fmt.Println(" done")

	capture, err := rec.Stop()
	if err != nil {
		fmt.Printf("  FAIL: %v\n", err)
		return audio.Capture{}, false
	}
	if capture.Frames == 0 {
		fmt.Println("  FAIL: no audio captured")
		return audio.Capture{}, false
	}
	if peak < 0.01 {
		fmt.Printf("  FAIL: microphone is silent (peak level %.3f). Wrong device?\n", peak)
		return audio.Capture{}, false
	}

	fmt.Printf("  PASS: %.1f KB captured (%s, peak level %.2f)\n",
		float64(len(capture.Bytes))/1024, capture.Format, peak)
	return capture, true
}

func checkClipboardRoundTrip() bool {
	fmt.Println()
	fmt.Println("[4/5] Clipboard round-trip")

	sentinel := fmt.Sprintf("dikt-doctor-%d", time.Now().UnixNano())

	type result struct {
		readback string
		err      error
		phase    string
	}
	ch := make(chan result, 1)
	go func() {
		if err := clipboard.Copy(sentinel); err != nil {
			ch <- result{err: err, phase: "write"}
			return
		}
		got, err := clipboard.Read()
		if err != nil {
			ch <- result{err: err, phase: "read"}
			return
		}
		ch <- result{readback: got}
	}()

	select {
	case res := <-ch:
		if res.err != nil {
			fmt.Printf("  FAIL: clipboard %s failed: %v\n", res.phase, res.err)
			return false
		}
		if res.readback != sentinel {
			fmt.Printf("  FAIL: clipboard mismatch: wrote %q, got %q\n", sentinel, res.readback)
			return false
		}
		fmt.Println("  PASS: clipboard write/read verified")
		return true
	case <-time.After(3 * time.Second):
		fmt.Println("  FAIL: clipboard timed out (compositor not accessible?)")
		return false
	}
}

func checkPaste() bool {
	fmt.Println()
	fmt.Println("[5/5] Paste synthesis")

	if err := paste.Init(); err != nil {
		fmt.Printf("  FAIL: %v\n", err)
		if derr := paste.Diagnose(); derr != nil {
			fmt.Printf("  %v\n", derr)
		}
		return false
	}

	fmt.Println("Focus a text editor window...")
	for i := 5; i > 0; i-- {
		fmt.Printf("  %d...\n", i)
		time.Sleep(1 * time.Second)
	}

	if err := clipboard.Copy("dikt-doctor-test"); err != nil {
		fmt.Printf("  FAIL: clipboard copy failed: %v\n", err)
		return false
	}
	if err := paste.Send(); err != nil {
		fmt.Printf("  FAIL: paste failed: %v\n", err)
		return false
	}

	resetTerminal()
	reader := bufio.NewReader(os.Stdin)
	fmt.Println()
	fmt.Print("Did the text \"dikt-doctor-test\" appear? [y/n]: ")
	confirm, _ := reader.ReadString('\n')
	confirm = strings.TrimSpace(strings.ToLower(confirm))

	if confirm != "y" && confirm != "yes" {
		fmt.Println("  FAIL: paste not confirmed")
		return false
	}
	fmt.Println("  PASS: paste verified by user")
	return true
}

func checkTranscription(cfg config.Settings, capture audio.Capture) bool {
	fmt.Println()
	fmt.Println("[bonus] Live transcription")
	fmt.Printf("  Sending the %0.1f KB test recording to %s...\n",
		float64(len(capture.Bytes))/1024, cfg.BaseURL)

	client := transcriber.New(transcriber.Config{
		BaseURL: cfg.BaseURL,
		APIKey:  cfg.APIKey,
		Model:   cfg.Model,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	result, err := client.Transcribe(ctx, capture, cfg.Language, "")
	if err != nil {
		fmt.Printf("  FAIL: %v\n", err)
		return false
	}

	text := strings.TrimSpace(result.Text)
	if text == "" {
		text = "(no speech detected)"
	}
	fmt.Printf("\n  Transcribed text: %s\n\n", text)

	reader := bufio.NewReader(os.Stdin)
	fmt.Print("Is this correct? [y/n]: ")
	confirm, _ := reader.ReadString('\n')
	confirm = strings.TrimSpace(strings.ToLower(confirm))

	if confirm == "y" || confirm == "yes" {
		fmt.Println("  PASS: transcription verified by user")
		return true
	}
	fmt.Println("  FAIL: transcription not confirmed")
	return false
}
