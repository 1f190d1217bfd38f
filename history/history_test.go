package history

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestAppendAndRecent(t *testing.T) {
	s := openTestStore(t)

	base := time.Now()
	first := Item{
		Text:         "hello world",
		OriginalText: "hello, world",
		CreatedAt:    base,
		DurationSecs: 2.5,
		Language:     "en",
		ModeName:     "Email",
	}
	second := Item{Text: "second", CreatedAt: base.Add(time.Second)}

	if err := s.Append(first); err != nil {
		t.Fatalf("append first: %v", err)
	}
	if err := s.Append(second); err != nil {
		t.Fatalf("append second: %v", err)
	}

	items, err := s.Recent(10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}

	if items[0].Text != "second" {
		t.Errorf("items[0].Text = %q, want newest first", items[0].Text)
	}
	got := items[1]
	if got.ID == "" {
		t.Error("append should generate an id")
	}
	if got.OriginalText != "hello, world" {
		t.Errorf("OriginalText = %q, want %q", got.OriginalText, "hello, world")
	}
	if got.DurationSecs != 2.5 {
		t.Errorf("DurationSecs = %v, want 2.5", got.DurationSecs)
	}
	if got.Language != "en" || got.ModeName != "Email" {
		t.Errorf("Language/ModeName = %q/%q, want en/Email", got.Language, got.ModeName)
	}
	if got.CreatedAt.Sub(base) > time.Millisecond || base.Sub(got.CreatedAt) > time.Millisecond {
		t.Errorf("CreatedAt = %v, want ~%v", got.CreatedAt, base)
	}
}

func TestOptionalFieldsEmpty(t *testing.T) {
	s := openTestStore(t)

	if err := s.Append(Item{Text: "bare"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	items, err := s.Recent(1)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("got %d items, want 1", len(items))
	}
	it := items[0]
	if it.OriginalText != "" || it.Language != "" || it.ModeName != "" {
		t.Errorf("optional strings = %q/%q/%q, want empty", it.OriginalText, it.Language, it.ModeName)
	}
	if it.DurationSecs != 0 {
		t.Errorf("DurationSecs = %v, want 0", it.DurationSecs)
	}
}

func TestRecentEmpty(t *testing.T) {
	s := openTestStore(t)

	items, err := s.Recent(5)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("got %d items, want 0", len(items))
	}
}

func TestRecentLimit(t *testing.T) {
	s := openTestStore(t)

	base := time.Now()
	for i := 0; i < 5; i++ {
		item := Item{Text: fmt.Sprintf("item %d", i), CreatedAt: base.Add(time.Duration(i) * time.Second)}
		if err := s.Append(item); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	items, err := s.Recent(3)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("got %d items, want 3", len(items))
	}
	if items[0].Text != "item 4" || items[2].Text != "item 2" {
		t.Errorf("window = %q..%q, want item 4..item 2", items[0].Text, items[2].Text)
	}
}

func TestAppendPrunesToCap(t *testing.T) {
	s := openTestStore(t)

	base := time.Now()
	for i := 0; i < maxItems+5; i++ {
		item := Item{Text: fmt.Sprintf("item %d", i), CreatedAt: base.Add(time.Duration(i) * time.Second)}
		if err := s.Append(item); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	items, err := s.Recent(maxItems + 100)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(items) != maxItems {
		t.Fatalf("got %d items, want %d", len(items), maxItems)
	}
	if items[0].Text != fmt.Sprintf("item %d", maxItems+4) {
		t.Errorf("newest = %q, want item %d", items[0].Text, maxItems+4)
	}
	if items[len(items)-1].Text != "item 5" {
		t.Errorf("oldest kept = %q, want item 5", items[len(items)-1].Text)
	}
}

func TestDelete(t *testing.T) {
	s := openTestStore(t)

	base := time.Now()
	if err := s.Append(Item{ID: "a", Text: "two", CreatedAt: base}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := s.Append(Item{ID: "b", Text: "one", CreatedAt: base.Add(time.Second)}); err != nil {
		t.Fatalf("append: %v", err)
	}

	if err := s.Delete("a"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	items, err := s.Recent(10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(items) != 1 || items[0].ID != "b" {
		t.Fatalf("after delete got %+v, want only item b", items)
	}

	// Unknown ids are a no-op.
	if err := s.Delete("missing"); err != nil {
		t.Errorf("delete unknown id: %v", err)
	}
}

func TestClear(t *testing.T) {
	s := openTestStore(t)

	if err := s.Append(Item{Text: "hello"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := s.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}

	items, err := s.Recent(10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("got %d items after clear, want 0", len(items))
	}
}

func TestOpenCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "history.sqlite")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.Append(Item{Text: "persisted"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()

	items, err := s2.Recent(10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(items) != 1 || items[0].Text != "persisted" {
		t.Fatalf("after reopen got %+v, want the persisted item", items)
	}
}
