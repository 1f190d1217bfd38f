// Package vocabulary corrects recurring mishearings in transcribed text
// and builds the hint prompt sent along with transcription requests.
package vocabulary

import (
	"regexp"
	"strings"
	"unicode"

	"dikt/log"
)

const (
	// MaxEntries bounds the configured vocabulary collection.
	MaxEntries = 100

	maxPromptEntries = 50
	maxPromptChars   = 800
	maxReplacements  = 10
)

type Entry struct {
	ID           string   `json:"id"`
	Word         string   `json:"word"`
	Replacements []string `json:"replacements"`
	Enabled      bool     `json:"enabled"`
}

type rule struct {
	re   *regexp.Regexp
	word string
}

// Corrector rewrites misheard phrases back to their canonical words.
// Rules apply in entry order, replacements within an entry in listed
// order, so overlapping phrases resolve to whichever rule runs first.
type Corrector struct {
	rules []rule
}

// NewCorrector compiles the enabled entries. Only the first 10
// replacements of an entry are considered; phrases that fail to compile
// are skipped.
func NewCorrector(entries []Entry) *Corrector {
	c := &Corrector{}
	for _, e := range entries {
		if !e.Enabled {
			continue
		}
		word := strings.TrimSpace(e.Word)
		if word == "" {
			continue
		}
		reps := e.Replacements
		if len(reps) > maxReplacements {
			reps = reps[:maxReplacements]
		}
		for _, r := range reps {
			phrase := strings.TrimSpace(r)
			if phrase == "" {
				continue
			}
			re, err := regexp.Compile(boundaryPattern(phrase))
			if err != nil {
				log.Warnf("vocabulary: skipping %q: %v", phrase, err)
				continue
			}
			c.rules = append(c.rules, rule{re: re, word: word})
		}
	}
	return c
}

func (c *Corrector) Empty() bool { return len(c.rules) == 0 }

// Apply runs every rule over text. Replacement words are inserted
// literally, with no expansion of $ references.
func (c *Corrector) Apply(text string) string {
	for _, r := range c.rules {
		text = r.re.ReplaceAllLiteralString(text, r.word)
	}
	return text
}

// boundaryPattern builds a case-insensitive pattern for phrase, with a
// word-boundary assertion only on sides that begin or end with a word
// character. "see sharp" gets boundaries on both sides; ":-)" gets none.
func boundaryPattern(phrase string) string {
	var b strings.Builder
	b.WriteString("(?i)")
	runes := []rune(phrase)
	if isWordChar(runes[0]) {
		b.WriteString(`\b`)
	}
	b.WriteString(regexp.QuoteMeta(phrase))
	if isWordChar(runes[len(runes)-1]) {
		b.WriteString(`\b`)
	}
	return b.String()
}

func isWordChar(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// Prompt lists the enabled canonical words as a transcription hint,
// bounded to 50 entries and 800 characters. Empty when nothing
// qualifies.
func Prompt(entries []Entry) string {
	var words []string
	for _, e := range entries {
		if !e.Enabled {
			continue
		}
		w := strings.TrimSpace(e.Word)
		if w == "" {
			continue
		}
		words = append(words, w)
		if len(words) == maxPromptEntries {
			break
		}
	}
	if len(words) == 0 {
		return ""
	}

	prompt := "Vocabulary: "
	added := false
	for _, w := range words {
		candidate := prompt + w
		if added {
			candidate = prompt + ", " + w
		}
		if len(candidate) > maxPromptChars {
			break
		}
		prompt = candidate
		added = true
	}
	if !added {
		return ""
	}
	return prompt
}
