package beep

import "dikt/session"

// Cues returns a status observer that maps session transitions to
// audio feedback: the start tick when recording begins, the stop tick
// when it ends and the double beep on failure.
func Cues() func(session.Update) {
	return func(u session.Update) {
		switch u.State {
		case session.Recording:
			PlayStart()
		case session.Transcribing:
			PlayEnd()
		case session.Error:
			PlayError()
		}
	}
}
