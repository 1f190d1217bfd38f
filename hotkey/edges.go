package hotkey

import "time"

// EdgeKind is a translated hotkey event. Hold mode produces Press and
// Release pairs; toggle and hybrid modes produce Toggle edges only.
type EdgeKind int

const (
	Press EdgeKind = iota
	Release
	Toggle
)

func (k EdgeKind) String() string {
	switch k {
	case Press:
		return "press"
	case Release:
		return "release"
	case Toggle:
		return "toggle"
	}
	return "unknown"
}

// WatchEdges translates key events from hk into recording edges
// according to the trigger mode. In hybrid mode a press immediately
// starts recording; releasing before longPress leaves it running until
// the next press, holding past longPress stops it on release. The
// watcher runs for the life of the process.
func WatchEdges(hk Hotkey, mode string, longPress time.Duration) <-chan EdgeKind {
	out := make(chan EdgeKind, 4)
	switch mode {
	case ModeToggle:
		go watchToggle(hk, out)
	case ModeHybrid:
		go watchHybrid(hk, longPress, out)
	default:
		go watchHold(hk, out)
	}
	return out
}

func watchHold(hk Hotkey, out chan<- EdgeKind) {
	for {
		select {
		case <-hk.Keydown():
			out <- Press
		case <-hk.Keyup():
			out <- Release
		}
	}
}

func watchToggle(hk Hotkey, out chan<- EdgeKind) {
	for {
		select {
		case <-hk.Keydown():
			out <- Toggle
		case <-hk.Keyup():
		}
	}
}

func watchHybrid(hk Hotkey, longPress time.Duration, out chan<- EdgeKind) {
	for {
		// Any press starts recording; how it stops depends on whether
		// the key is released before the long-press threshold.
		<-hk.Keydown()
		out <- Toggle

		timer := time.NewTimer(longPress)
		select {
		case <-timer.C:
			// Held past the threshold: push-to-talk, stop on release.
			<-hk.Keyup()
			out <- Toggle
		case <-hk.Keyup():
			// Short tap: recording stays on until the next press.
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			<-hk.Keydown()
			<-hk.Keyup()
			out <- Toggle
		}
	}
}
