package vocabulary

import (
	"strings"
	"testing"
)

func TestCorrectorReplaces(t *testing.T) {
	entries := []Entry{{
		ID:           "1",
		Word:         "Kubernetes",
		Replacements: []string{"cube and eighties", "kuber nettis"},
		Enabled:      true,
	}}

	c := NewCorrector(entries)
	got := c.Apply("deployed it on kuber nettis yesterday")
	want := "deployed it on Kubernetes yesterday"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestCorrectorDisabledEntry(t *testing.T) {
	entries := []Entry{{
		ID:           "1",
		Word:         "Kubernetes",
		Replacements: []string{"kuber nettis"},
		Enabled:      false,
	}}

	c := NewCorrector(entries)
	in := "deployed it on kuber nettis yesterday"
	if got := c.Apply(in); got != in {
		t.Errorf("disabled entry altered text: %q", got)
	}
	if !c.Empty() {
		t.Error("corrector with only disabled entries should be empty")
	}
}

func TestCorrectorCaseInsensitive(t *testing.T) {
	c := NewCorrector([]Entry{{
		ID: "1", Word: "PostgreSQL", Replacements: []string{"postgres sequel"}, Enabled: true,
	}})
	got := c.Apply("we use Postgres Sequel here")
	if got != "we use PostgreSQL here" {
		t.Errorf("got %q", got)
	}
}

func TestCorrectorWordBoundaries(t *testing.T) {
	c := NewCorrector([]Entry{{
		ID: "1", Word: "Kat", Replacements: []string{"cat"}, Enabled: true,
	}})

	if got := c.Apply("the cat sat"); got != "the Kat sat" {
		t.Errorf("whole word not replaced: %q", got)
	}
	if got := c.Apply("check the catalog"); got != "check the catalog" {
		t.Errorf("partial word replaced: %q", got)
	}
}

func TestCorrectorNonWordEdges(t *testing.T) {
	// No boundary assertion on a side that is not a word character.
	c := NewCorrector([]Entry{{
		ID: "1", Word: "smiley", Replacements: []string{":-)"}, Enabled: true,
	}})
	if got := c.Apply("ok:-)bye"); got != "oksmileybye" {
		t.Errorf("got %q", got)
	}
}

func TestCorrectorLiteralReplacement(t *testing.T) {
	// $ in the canonical word must land verbatim.
	c := NewCorrector([]Entry{{
		ID: "1", Word: "US$", Replacements: []string{"u s dollars"}, Enabled: true,
	}})
	if got := c.Apply("paid in u s dollars today"); got != "paid in US$ today" {
		t.Errorf("got %q", got)
	}
}

func TestCorrectorReplacementCap(t *testing.T) {
	reps := make([]string, 11)
	for i := range reps {
		reps[i] = "variant" + string(rune('a'+i))
	}
	c := NewCorrector([]Entry{{
		ID: "1", Word: "fixed", Replacements: reps, Enabled: true,
	}})

	if got := c.Apply("varianta and variantj"); got != "fixed and fixed" {
		t.Errorf("first ten replacements should apply: %q", got)
	}
	if got := c.Apply("variantk stays"); got != "variantk stays" {
		t.Errorf("eleventh replacement should be ignored: %q", got)
	}
}

func TestCorrectorSkipsEmpty(t *testing.T) {
	c := NewCorrector([]Entry{
		{ID: "1", Word: "   ", Replacements: []string{"anything"}, Enabled: true},
		{ID: "2", Word: "ok", Replacements: []string{"  ", ""}, Enabled: true},
	})
	if !c.Empty() {
		t.Error("blank words and phrases should produce no rules")
	}
}

func TestCorrectorEntryOrder(t *testing.T) {
	entries := []Entry{
		{ID: "1", Word: "alpha", Replacements: []string{"foo bar"}, Enabled: true},
		{ID: "2", Word: "beta", Replacements: []string{"foo"}, Enabled: true},
	}
	c := NewCorrector(entries)
	if got := c.Apply("foo bar"); got != "alpha" {
		t.Errorf("entry order not respected: %q", got)
	}
}

func TestPrompt(t *testing.T) {
	entries := []Entry{
		{ID: "1", Word: "Kubernetes", Enabled: true},
		{ID: "2", Word: "disabled", Enabled: false},
		{ID: "3", Word: " PostgreSQL ", Enabled: true},
	}
	got := Prompt(entries)
	want := "Vocabulary: Kubernetes, PostgreSQL"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestPromptEmpty(t *testing.T) {
	if got := Prompt(nil); got != "" {
		t.Errorf("got %q, want empty", got)
	}
	if got := Prompt([]Entry{{ID: "1", Word: "x", Enabled: false}}); got != "" {
		t.Errorf("got %q, want empty", got)
	}
}

func TestPromptEntryCap(t *testing.T) {
	var entries []Entry
	for i := 0; i < 60; i++ {
		entries = append(entries, Entry{ID: string(rune('a' + i)), Word: "w", Enabled: true})
	}
	got := Prompt(entries)
	if n := strings.Count(got, "w"); n != 50 {
		t.Errorf("prompt lists %d words, want 50", n)
	}
}

func TestPromptCharCap(t *testing.T) {
	long := strings.Repeat("x", 700)
	entries := []Entry{
		{ID: "1", Word: long, Enabled: true},
		{ID: "2", Word: strings.Repeat("y", 200), Enabled: true},
		{ID: "3", Word: "short", Enabled: true},
	}
	got := Prompt(entries)
	if strings.Contains(got, "y") {
		t.Error("word pushing past the character cap should stop accumulation")
	}
	if !strings.Contains(got, long) {
		t.Error("first fitting word should be present")
	}
}
