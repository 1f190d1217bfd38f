// Package config loads and holds runtime settings: provider endpoint and
// credentials, hotkey chord, trigger behavior, output policy, vocabulary,
// and formatting modes.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"dikt/deliver"
	"dikt/hotkey"
	"dikt/log"
	"dikt/vocabulary"
)

// Mode is a secondary LLM pass applied to transcriptions before delivery.
type Mode struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	SystemPrompt string `json:"system_prompt"`
	Model        string `json:"model"`
}

// Settings is the full runtime configuration. The zero value is not
// usable; start from Default or Load.
type Settings struct {
	BaseURL            string             `json:"base_url"`
	Model              string             `json:"model"`
	APIKey             string             `json:"api_key"`
	Hotkey             string             `json:"hotkey"`
	TriggerMode        string             `json:"trigger_mode"`
	OutputPolicy       string             `json:"output_policy"`
	Language           string             `json:"language"`
	Format             string             `json:"format"`
	Device             string             `json:"device"`
	RequestTimeoutSecs int                `json:"request_timeout_secs"`
	Vocabulary         []vocabulary.Entry `json:"vocabulary"`
	Modes              []Mode             `json:"modes"`
	ActiveModeID       string             `json:"active_mode_id"`
}

// Default returns the out-of-the-box settings.
func Default() Settings {
	return Settings{
		BaseURL:            "https://api.openai.com/v1",
		Model:              "whisper-1",
		Hotkey:             "CommandOrControl+Shift+Space",
		TriggerMode:        hotkey.ModeHold,
		OutputPolicy:       deliver.PolicyPaste,
		Format:             "flac",
		RequestTimeoutSecs: 30,
	}
}

// Path returns the settings file path under the user config dir.
func Path() string {
	base, err := os.UserConfigDir()
	if err != nil {
		base = os.TempDir()
	}
	return filepath.Join(base, "dikt", "settings.json")
}

// Load reads settings from path, layered over the defaults. A missing
// file is not an error. An empty api_key falls back to the environment.
// A dangling active_mode_id is cleared with a warning rather than
// failing the load.
func Load(path string) (Settings, error) {
	s := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return s, fmt.Errorf("read settings: %w", err)
	default:
		if err := json.Unmarshal(data, &s); err != nil {
			return s, fmt.Errorf("parse settings: %w", err)
		}
	}

	if s.APIKey == "" {
		s.APIKey = keyFromEnv(s.BaseURL)
	}
	if s.ActiveModeID != "" && s.ActiveMode() == nil {
		log.Warnf("config: active mode %q not found, clearing", s.ActiveModeID)
		s.ActiveModeID = ""
	}
	if err := s.Validate(); err != nil {
		return s, err
	}
	return s, nil
}

func keyFromEnv(baseURL string) string {
	if k := os.Getenv("DIKT_API_KEY"); k != "" {
		return k
	}
	if strings.Contains(baseURL, "groq.com") {
		if k := os.Getenv("GROQ_API_KEY"); k != "" {
			return k
		}
	}
	return os.Getenv("OPENAI_API_KEY")
}

// Validate checks enum fields and collection invariants.
func (s *Settings) Validate() error {
	if s.BaseURL == "" {
		return fmt.Errorf("base_url must be set")
	}
	if s.Model == "" {
		return fmt.Errorf("model must be set")
	}
	if _, err := hotkey.ParseChord(s.Hotkey); err != nil {
		return fmt.Errorf("hotkey: %w", err)
	}
	switch s.TriggerMode {
	case hotkey.ModeHold, hotkey.ModeToggle, hotkey.ModeHybrid:
	default:
		return fmt.Errorf("invalid trigger_mode %q (hold, toggle, or hybrid)", s.TriggerMode)
	}
	switch s.OutputPolicy {
	case deliver.PolicyPaste, deliver.PolicyPasteCopy:
	default:
		return fmt.Errorf("invalid output_policy %q (paste or paste+copy)", s.OutputPolicy)
	}
	switch s.Format {
	case "wav", "flac":
	default:
		return fmt.Errorf("invalid format %q (wav or flac)", s.Format)
	}
	if s.RequestTimeoutSecs <= 0 {
		return fmt.Errorf("request_timeout_secs must be positive")
	}
	if len(s.Vocabulary) > vocabulary.MaxEntries {
		return fmt.Errorf("vocabulary has %d entries (limit %d)", len(s.Vocabulary), vocabulary.MaxEntries)
	}
	seen := make(map[string]bool, len(s.Vocabulary))
	for _, e := range s.Vocabulary {
		if strings.TrimSpace(e.Word) == "" {
			return fmt.Errorf("vocabulary entry %q has an empty word", e.ID)
		}
		if e.ID != "" {
			if seen[e.ID] {
				return fmt.Errorf("duplicate vocabulary entry id %q", e.ID)
			}
			seen[e.ID] = true
		}
	}
	return nil
}

// ActiveMode resolves active_mode_id against Modes, or nil when unset or
// dangling.
func (s *Settings) ActiveMode() *Mode {
	if s.ActiveModeID == "" {
		return nil
	}
	for i := range s.Modes {
		if s.Modes[i].ID == s.ActiveModeID {
			return &s.Modes[i]
		}
	}
	return nil
}

func (s Settings) clone() Settings {
	out := s
	out.Vocabulary = append([]vocabulary.Entry(nil), s.Vocabulary...)
	for i := range out.Vocabulary {
		out.Vocabulary[i].Replacements = append([]string(nil), s.Vocabulary[i].Replacements...)
	}
	out.Modes = append([]Mode(nil), s.Modes...)
	return out
}

// Store holds the live settings behind a mutex. Sessions work from a
// Snapshot taken at start, so later edits never affect a running
// session.
type Store struct {
	mu sync.Mutex
	s  Settings
}

func NewStore(s Settings) *Store {
	return &Store{s: s.clone()}
}

// Snapshot returns a deep copy of the current settings.
func (st *Store) Snapshot() Settings {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.s.clone()
}

// Update applies fn to the live settings under the lock.
func (st *Store) Update(fn func(*Settings)) {
	st.mu.Lock()
	defer st.mu.Unlock()
	fn(&st.s)
}
