package main

import (
	"flag"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/exec"
	"path/filepath"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"dikt/audio"
	"dikt/beep"
	"dikt/config"
	"dikt/deliver"
	"dikt/doctor"
	"dikt/encoder"
	"dikt/formatter"
	"dikt/history"
	"dikt/hotkey"
	"dikt/log"
	"dikt/paste"
	"dikt/session"
	"dikt/shutdown"
	"dikt/status"
	"dikt/transcriber"
)

var version = "dev"

var (
	deviceSelectChan = make(chan struct{}, 1)
	histStore        *history.Store
	sessionCount     atomic.Int64
	shutdownOnce     sync.Once
)

func gracefulShutdown() {
	shutdownOnce.Do(func() {
		if n := sessionCount.Load(); n > 0 {
			log.SessionEnd(int(n))
		}
		if histStore != nil {
			histStore.Close()
		}
		log.Close()
		tuiQuit()
		os.Exit(0)
	})
}

func deviceLine(dev *audio.DeviceInfo) string {
	name := "system default"
	suffix := ""
	if dev != nil {
		name = dev.Name
		if audio.IsBluetooth(dev.Name) {
			suffix = " (BT!)"
		}
	}
	return "mic: " + name + suffix + " (ctrl+g)"
}

func modeLine(cfg config.Settings, provider string) string {
	label := provider
	if cfg.Language != "" {
		label += " (" + cfg.Language + ")"
	}
	if mode := cfg.ActiveMode(); mode != nil {
		return fmt.Sprintf("[%s | %s | %s]", cfg.Format, label, mode.Name)
	}
	return fmt.Sprintf("[%s | %s]", cfg.Format, label)
}

func printHistory(n int) int {
	store, err := history.Open(history.DefaultPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer store.Close()

	items, err := store.Recent(n)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if len(items) == 0 {
		fmt.Println("No dictations yet.")
		return 0
	}
	for _, it := range items {
		line := fmt.Sprintf("%s  %s", it.CreatedAt.Format("2006-01-02 15:04"), it.Text)
		if it.ModeName != "" {
			line += "  [" + it.ModeName + "]"
		}
		fmt.Println(line)
	}
	return 0
}

func run() {
	configFlag := flag.String("config", "", "Settings file path (default: OS config dir)")
	logPathFlag := flag.String("logpath", "", "Log directory path (default: OS-specific location, use ./ for current dir)")
	setupFlag := flag.Bool("setup", false, "Select microphone device interactively")
	deviceFlag := flag.String("device", "", "Use named microphone device")
	formatFlag := flag.String("format", "", "Audio payload format: flac or wav (default from settings)")
	langFlag := flag.String("lang", "", "Language code hint for transcription (e.g. en, es). Empty = auto-detect")
	hotkeyFlag := flag.String("hotkey", "", "Hotkey chord (e.g. CommandOrControl+Shift+Space)")
	triggerFlag := flag.String("trigger", "", "Trigger mode: hold, toggle, or hybrid")
	outputFlag := flag.String("output", "", "Output policy: paste or paste+copy")
	longPressFlag := flag.Duration("longpress", 350*time.Millisecond, "Long-press threshold separating tap from hold in hybrid mode")
	historyFlag := flag.Int("history", 0, "Print the most recent n dictations and exit")
	versionFlag := flag.Bool("version", false, "Print version and exit")
	doctorFlag := flag.Bool("doctor", false, "Run system diagnostics and exit")
	testFlag := flag.Bool("test", false, "Test mode (headless, stdin-driven)")
	tuiFlag := flag.Bool("tui", true, "Run with terminal UI")
	profileFlag := flag.String("profile", "", "Enable pprof profiling server (e.g. :6060)")
	crashFlag := flag.Bool("crash", false, "Trigger synthetic panic to verify crash logging")
	flag.Parse()

	logPath, err := log.ResolveDir(*logPathFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to resolve log directory: %v\n", err)
		os.Exit(1)
	}
	log.SetDir(logPath)

	if err := log.EnsureDir(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not create log directory: %v\n", err)
	}

	crashPath := filepath.Join(log.Dir(), "crash_log.txt")
	crashFile, err := os.OpenFile(crashPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err == nil {
		fmt.Fprintf(crashFile, "\n=== Session %s [pid=%d] ===\n", time.Now().Format("2006-01-02 15:04:05"), os.Getpid())
		debug.SetCrashOutput(crashFile, debug.CrashOptions{})
	}

	if *profileFlag != "" {
		go func() {
			fmt.Fprintf(os.Stderr, "pprof server listening on http://%s/debug/pprof/\n", *profileFlag)
			if err := http.ListenAndServe(*profileFlag, nil); err != nil {
				fmt.Fprintf(os.Stderr, "pprof server error: %v\n", err)
			}
		}()
	}

	if *crashFlag {
		panic("TEST CRASH: synthetic panic to verify crash logging")
	}

	if *versionFlag {
		fmt.Printf("dikt %s\n", version)
		os.Exit(0)
	}

	if *doctorFlag {
		os.Exit(doctor.Run(*configFlag))
	}

	if *historyFlag > 0 {
		os.Exit(printHistory(*historyFlag))
	}

	settingsPath := *configFlag
	if settingsPath == "" {
		settingsPath = config.Path()
	}
	cfg, err := config.Load(settingsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	overrides := map[string]func(){
		"device":  func() { cfg.Device = *deviceFlag },
		"format":  func() { cfg.Format = *formatFlag },
		"lang":    func() { cfg.Language = *langFlag },
		"hotkey":  func() { cfg.Hotkey = *hotkeyFlag },
		"trigger": func() { cfg.TriggerMode = *triggerFlag },
		"output":  func() { cfg.OutputPolicy = *outputFlag },
	}
	flag.Visit(func(f *flag.Flag) {
		if apply, ok := overrides[f.Name]; ok {
			apply()
		}
	})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if cfg.APIKey == "" {
		fmt.Fprintf(os.Stderr, "Error: no API key found. Set DIKT_API_KEY, or api_key in %s\n", settingsPath)
		os.Exit(1)
	}

	// Resolve -setup before daemonizing; the background child has no
	// terminal for the picker. The child re-runs with -device set, which
	// skips this block.
	if *setupFlag && *deviceFlag == "" {
		actx, err := audio.NewContext()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error initializing audio: %v\n", err)
			os.Exit(1)
		}
		dev, err := audio.SelectDevice(actx)
		actx.Close()
		if err != nil {
			fmt.Printf("Warning: device selection failed: %v\n", err)
			fmt.Println("Falling back to default device")
		} else if dev != nil {
			cfg.Device = dev.Name
		}
	}

	// Daemonize in non-TUI mode: re-exec in background, return the shell
	// prompt.
	if !*tuiFlag && !*testFlag && os.Getenv("_DIKT_BG") == "" {
		args := os.Args[1:]
		if *setupFlag && cfg.Device != "" {
			args = append(args, "-device", cfg.Device)
		}
		exe, _ := os.Executable()
		cmd := exec.Command(exe, args...)
		cmd.Env = append(os.Environ(), "_DIKT_BG=1")
		devnull, _ := os.OpenFile(os.DevNull, os.O_RDWR, 0)
		cmd.Stdin, cmd.Stdout, cmd.Stderr = devnull, devnull, devnull
		if err := cmd.Start(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	if err := log.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not init logging: %v\n", err)
	}

	if *testFlag {
		args := flag.Args()
		if len(args) == 0 {
			fmt.Fprintln(os.Stderr, "Usage: dikt -test <wav-file>")
			os.Exit(1)
		}
		runTestMode(args[0], cfg)
		return
	}

	if err := paste.Init(); err != nil {
		fmt.Printf("Warning: paste init failed: %v\n", err)
		fmt.Println("Fix with: sudo chmod 660 /dev/uinput && sudo chgrp input /dev/uinput")
	}

	ctx, err := audio.NewContext()
	if err != nil {
		log.Errorf("audio context init error: %v", err)
		fmt.Fprintf(os.Stderr, "Error initializing audio context: %v\n", err)
		os.Exit(1)
	}
	defer ctx.Close()

	var selectedDevice *audio.DeviceInfo
	if cfg.Device != "" {
		selectedDevice, err = audio.FindDevice(ctx, cfg.Device)
		if err != nil {
			log.Warnf("configured device unavailable: %v", err)
			fmt.Printf("Warning: %v, falling back to default device\n", err)
			selectedDevice = nil
		}
	}

	captureConfig := audio.CaptureConfig{
		SampleRate: encoder.SampleRate,
		Channels:   encoder.Channels,
	}
	captureDevice, err := ctx.NewCapture(selectedDevice, captureConfig)
	if err != nil {
		log.Errorf("capture device init error: %v", err)
		fmt.Fprintf(os.Stderr, "Error initializing capture device: %v\n", err)
		os.Exit(1)
	}
	defer captureDevice.Close()

	recorder := audio.NewRecorder(captureDevice, cfg.Format)

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
		log.Warnf("history unavailable: %v", err)
		fmt.Printf("Warning: history unavailable: %v\n", err)
	} else {
		histPort = histStore
	}

	store := config.NewStore(cfg)

	bc := status.NewBroadcaster()
	bc.Subscribe(beep.Cues())
	bc.Subscribe(func(u session.Update) {
		if u.State == session.Done {
			sessionCount.Add(1)
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

	chord, err := hotkey.ParseChord(cfg.Hotkey)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	hk := hotkey.New()
	if err := hk.Register(chord); err != nil {
		log.Errorf("hotkey register error: %v", err)
		fmt.Fprintf(os.Stderr, "Error registering hotkey: %v\n", err)
		if msg, derr := hotkey.Diagnose(); derr != nil {
			fmt.Fprintf(os.Stderr, "%v\n", derr)
		} else {
			fmt.Fprintln(os.Stderr, msg)
		}
		os.Exit(1)
	}
	defer hk.Unregister()

	edges := hotkey.WatchEdges(hk, cfg.TriggerMode, *longPressFlag)

	if *tuiFlag {
		startTUI(tuiConfig{
			version: version,
			chord:   cfg.Hotkey,
			trigger: cfg.TriggerMode,
			level:   recorder.Level,
			cancel:  mgr.Cancel,
			selectDevice: func() {
				select {
				case deviceSelectChan <- struct{}{}:
				default:
				}
			},
		})
	}
	bc.Subscribe(func(u session.Update) { tuiSend(sessionMsg(u)) })
	tuiSend(modeLineMsg(modeLine(cfg, tclient.Provider())))
	tuiSend(deviceLineMsg(deviceLine(selectedDevice)))

	sigChan := make(chan os.Signal, 1)
	shutdown.Notify(sigChan)
	go func() {
		<-sigChan
		gracefulShutdown()
	}()

	go beep.Init()

	log.SessionStart(tclient.Provider(), cfg.TriggerMode, cfg.Format)

	for {
		select {
		case edge := <-edges:
			switch edge {
			case hotkey.Press:
				mgr.Press()
			case hotkey.Release:
				mgr.Release()
			case hotkey.Toggle:
				mgr.Toggle()
			}

		case <-deviceSelectChan:
			if mgr.State() != session.Idle {
				log.Warn("device switch ignored while a session is active")
				continue
			}
			tuiReleaseTerminal()
			dev, err := audio.SelectDevice(ctx)
			tuiRestoreTerminal()
			if err != nil {
				log.Warnf("device selection failed: %v", err)
				continue
			}
			newCapture, err := ctx.NewCapture(dev, captureConfig)
			if err != nil {
				log.Errorf("capture device reinit error: %v", err)
				continue
			}
			captureDevice.Close()
			captureDevice = newCapture
			selectedDevice = dev
			recorder.SetCapture(newCapture)
			store.Update(func(s *config.Settings) { s.Device = dev.Name })
			log.Info("device_switch: " + dev.Name)
			tuiSend(deviceLineMsg(deviceLine(dev)))
		}
	}
}
