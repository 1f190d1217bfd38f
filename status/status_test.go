package status

import (
	"testing"

	"dikt/session"
)

func TestEmitInSubscriptionOrder(t *testing.T) {
	b := NewBroadcaster()

	var order []string
	b.Subscribe(func(session.Update) { order = append(order, "first") })
	b.Subscribe(func(session.Update) { order = append(order, "second") })
	b.Subscribe(func(session.Update) { order = append(order, "third") })

	b.Emit(session.Update{State: session.Recording})

	if len(order) != 3 || order[0] != "first" || order[1] != "second" || order[2] != "third" {
		t.Fatalf("order = %v", order)
	}
}

func TestEveryObserverSeesEveryUpdate(t *testing.T) {
	b := NewBroadcaster()

	var a, c []session.State
	b.Subscribe(func(u session.Update) { a = append(a, u.State) })
	b.Subscribe(func(u session.Update) { c = append(c, u.State) })

	for _, st := range []session.State{session.Recording, session.Transcribing, session.Done} {
		b.Emit(session.Update{State: st})
	}

	want := []session.State{session.Recording, session.Transcribing, session.Done}
	for name, got := range map[string][]session.State{"a": a, "c": c} {
		if len(got) != len(want) {
			t.Fatalf("observer %s saw %v", name, got)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("observer %s saw %v", name, got)
			}
		}
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	b := NewBroadcaster()

	var kept, dropped int
	b.Subscribe(func(session.Update) { kept++ })
	cancel := b.Subscribe(func(session.Update) { dropped++ })

	b.Emit(session.Update{State: session.Recording})
	cancel()
	cancel() // second call is a no-op
	b.Emit(session.Update{State: session.Done, Text: "x"})

	if kept != 2 {
		t.Errorf("kept observer saw %d updates, want 2", kept)
	}
	if dropped != 1 {
		t.Errorf("cancelled observer saw %d updates, want 1", dropped)
	}
}

func TestObserverMaySubscribeDuringEmit(t *testing.T) {
	b := NewBroadcaster()

	var late int
	b.Subscribe(func(session.Update) {
		b.Subscribe(func(session.Update) { late++ })
	})

	b.Emit(session.Update{State: session.Recording})
	if late != 0 {
		t.Fatalf("new observer saw the update that registered it")
	}
	b.Emit(session.Update{State: session.Done, Text: "x"})
	if late != 1 {
		t.Fatalf("late = %d, want 1", late)
	}
}
