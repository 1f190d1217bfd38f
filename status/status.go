// Package status fans session updates out to the display surfaces. The
// TUI, the audio cues and the transcript log all observe the same
// ordered stream instead of wiring into the manager individually.
package status

import (
	"sync"

	"dikt/session"
)

// Observer receives every session update in transition order. Observers
// run synchronously on the emitting goroutine and must not block.
type Observer func(session.Update)

type subscription struct {
	id int
	fn Observer
}

// Broadcaster delivers each update to all observers in subscription
// order. The manager emits while holding its own lock, so updates
// arrive here already serialized.
type Broadcaster struct {
	mu   sync.Mutex
	next int
	subs []subscription
}

func NewBroadcaster() *Broadcaster { return &Broadcaster{} }

// Subscribe registers fn and returns a function that removes it again.
// Removing a subscription twice is harmless.
func (b *Broadcaster) Subscribe(fn Observer) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.next
	b.next++
	b.subs = append(b.subs, subscription{id: id, fn: fn})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, s := range b.subs {
			if s.id == id {
				b.subs = append(b.subs[:i], b.subs[i+1:]...)
				return
			}
		}
	}
}

// Emit delivers u to every current observer. The observer list is
// copied first so a callback may subscribe or unsubscribe without
// deadlocking.
func (b *Broadcaster) Emit(u session.Update) {
	b.mu.Lock()
	subs := make([]subscription, len(b.subs))
	copy(subs, b.subs)
	b.mu.Unlock()

	for _, s := range subs {
		s.fn(u)
	}
}
