package main

import (
	"fmt"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"dikt/session"
)

// Messages posted into the TUI from outside.
type sessionMsg session.Update
type modeLineMsg string
type deviceLineMsg string
type tickMsg time.Time

type tuiConfig struct {
	version      string
	chord        string
	trigger      string
	level        func() float64
	cancel       func()
	selectDevice func()
}

type tuiModel struct {
	cfg tuiConfig

	state    session.State
	message  string // error text while state == Error
	lastText string
	count    int

	frame       int
	recordStart time.Time
	elapsed     float64
	level       float64
	peak        float64

	modeLine   string
	deviceLine string

	width, height int
}

var (
	tuiProgram *tea.Program
	tuiMu      sync.Mutex
)

var (
	styleRec      = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	styleBusy     = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	styleDone     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	styleErr      = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	styleWarn     = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	styleMode     = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	styleFaint    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	styleHelp     = lipgloss.NewStyle().Foreground(lipgloss.Color("239"))
	styleHelpHi   = lipgloss.NewStyle().Foreground(lipgloss.Color("239")).Bold(true)
	styleTitle    = lipgloss.NewStyle().Foreground(lipgloss.Color("246"))
	styleText     = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	styleMeterLo  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	styleMeterMid = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	styleMeterHi  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	styleMeterOff = lipgloss.NewStyle().Foreground(lipgloss.Color("236"))
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

func startTUI(cfg tuiConfig) {
	p := tea.NewProgram(tuiModel{cfg: cfg}, tea.WithAltScreen())
	tuiMu.Lock()
	tuiProgram = p
	tuiMu.Unlock()
	go func() {
		_, _ = p.Run()
		gracefulShutdown()
	}()
}

// tuiSend posts a message to the TUI. Safe to call when the TUI is not
// running.
func tuiSend(msg tea.Msg) {
	tuiMu.Lock()
	p := tuiProgram
	tuiMu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

func tuiQuit() {
	tuiMu.Lock()
	p := tuiProgram
	tuiMu.Unlock()
	if p != nil {
		p.Quit()
		p.Wait()
	}
}

// tuiReleaseTerminal hands the terminal back to the caller so another
// raw-mode reader (the device picker) can use it.
func tuiReleaseTerminal() {
	tuiMu.Lock()
	p := tuiProgram
	tuiMu.Unlock()
	if p != nil {
		p.ReleaseTerminal()
	}
}

func tuiRestoreTerminal() {
	tuiMu.Lock()
	p := tuiProgram
	tuiMu.Unlock()
	if p != nil {
		p.RestoreTerminal()
	}
}

func tuiTick() tea.Cmd {
	return tea.Tick(60*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m tuiModel) Init() tea.Cmd {
	return tuiTick()
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc":
			if m.cfg.cancel != nil {
				m.cfg.cancel()
			}
		case "ctrl+g":
			if m.cfg.selectDevice != nil {
				m.cfg.selectDevice()
			}
		}

	case tickMsg:
		m.frame++
		if m.state == session.Recording {
			m.elapsed = time.Since(m.recordStart).Seconds()
			if m.cfg.level != nil {
				raw := m.cfg.level()
				m.level = m.level*0.6 + raw*0.4
				if raw > m.peak {
					m.peak = raw
				}
			}
		}
		return m, tuiTick()

	case sessionMsg:
		u := session.Update(msg)
		m.state = u.State
		m.message = ""
		switch u.State {
		case session.Recording:
			m.recordStart = time.Now()
			m.elapsed = 0
			m.level = 0
			m.peak = 0
		case session.Done:
			m.count++
			if u.Text != "" {
				m.lastText = u.Text
			}
		case session.Error:
			m.message = u.Message
		}

	case modeLineMsg:
		m.modeLine = string(msg)

	case deviceLineMsg:
		m.deviceLine = string(msg)
	}
	return m, nil
}

const statusWidth = 34

func (m tuiModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var lines []string
	lines = append(lines, "")
	lines = append(lines, m.statusLine())
	if m.state == session.Recording {
		lines = append(lines, renderMeter(m.level))
		// Warn after 1s of recording with nothing on the meter.
		if m.elapsed > 1.0 && m.peak < 0.02 {
			lines = append(lines, styleWarn.Render("⚠ no voice detected"))
		}
	}
	lines = append(lines, "")
	if m.modeLine != "" {
		lines = append(lines, styleMode.Render(m.modeLine))
	}
	if m.deviceLine != "" {
		lines = append(lines, styleFaint.Render(m.deviceLine))
	}
	lines = append(lines, "")
	lines = append(lines, styleHelpHi.Render(m.cfg.chord)+styleHelp.Render(" to dictate ("+m.cfg.trigger+")"))
	lines = append(lines, styleHelp.Render("esc cancel · ctrl+g mic · ctrl+c quit"))
	lines = append(lines, styleHelp.Render("dikt "+m.cfg.version))

	logWidth := m.width - statusWidth - 1
	if logWidth < 20 {
		logWidth = 20
	}
	wrapWidth := logWidth - 2
	if wrapWidth < 10 {
		wrapWidth = 10
	}

	var right strings.Builder
	if m.lastText != "" {
		title := styleTitle.Render(fmt.Sprintf("Last dictation (#%d)", m.count))
		right.WriteString(title + "\n\n")
		for _, line := range wrapText(m.lastText, wrapWidth) {
			right.WriteString(styleText.Render(line) + "\n")
		}
	} else {
		right.WriteString(styleFaint.Render("No dictations yet"))
	}

	leftPanel := lipgloss.NewStyle().
		Width(statusWidth).
		Height(m.height).
		PaddingLeft(2).
		Render(strings.Join(lines, "\n"))
	rightPanel := lipgloss.NewStyle().
		Width(logWidth).
		Height(m.height).
		PaddingLeft(1).
		Render(right.String())

	return lipgloss.JoinHorizontal(lipgloss.Top, leftPanel, rightPanel)
}

func (m tuiModel) statusLine() string {
	spinner := spinnerFrames[m.frame%len(spinnerFrames)]
	switch m.state {
	case session.Recording:
		return styleRec.Render(fmt.Sprintf("● REC %.1fs", m.elapsed))
	case session.Transcribing:
		return styleBusy.Render(spinner + " transcribing")
	case session.Formatting:
		return styleBusy.Render(spinner + " formatting")
	case session.Pasting:
		return styleBusy.Render(spinner + " pasting")
	case session.Done:
		return styleDone.Render("✓ pasted")
	case session.Error:
		return styleErr.Render("✗ " + m.message)
	default:
		return styleFaint.Render("○ STANDBY")
	}
}

func renderMeter(level float64) string {
	const width = 24
	filled := int(level * 6 * width)
	if filled > width {
		filled = width
	}
	var b strings.Builder
	for i := 0; i < width; i++ {
		switch {
		case i >= filled:
			b.WriteString(styleMeterOff.Render("░"))
		case i >= width*3/4:
			b.WriteString(styleMeterHi.Render("█"))
		case i >= width/2:
			b.WriteString(styleMeterMid.Render("█"))
		default:
			b.WriteString(styleMeterLo.Render("█"))
		}
	}
	return b.String()
}

func wrapText(text string, width int) []string {
	if text == "" {
		return []string{""}
	}
	if width < 1 {
		width = 1
	}
	var lines []string
	line := ""
	for _, word := range strings.Fields(text) {
		switch {
		case line == "":
			line = word
		case len(line)+1+len(word) <= width:
			line += " " + word
		default:
			lines = append(lines, line)
			line = word
		}
	}
	if line != "" {
		lines = append(lines, line)
	}
	// Hard-break words longer than the panel.
	var out []string
	for _, l := range lines {
		for len(l) > width {
			out = append(out, l[:width])
			l = l[width:]
		}
		out = append(out, l)
	}
	return out
}
