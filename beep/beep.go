// Package beep plays the short audio cues that bracket a dictation: a
// high tick when recording starts, a lower one when it stops and a
// double beep on failure.
package beep

import (
	"math"
	"sync"
)

var (
	disabled bool

	startSamples []int16
	endSamples   []int16
	errorSamples []int16
	once         sync.Once
)

// Disable silences all cues for the rest of the process.
func Disable() { disabled = true }

const (
	sampleRate = 44100

	// Start cue: high pitch, short
	startFreq   = 1200
	startDur    = 0.05
	startVolume = 0.5
	startDecay  = 60

	// Stop cue: medium pitch, slightly longer
	endFreq   = 900
	endDur    = 0.07
	endVolume = 0.5
	endDecay  = 40

	// Error cue: low pitch double beep
	errorFreq   = 350
	errorDur    = 0.08
	errorGap    = 0.05
	errorVolume = 0.6
	errorDecay  = 30
)

func initSound() {
	startSamples = generateTone(sampleRate, startFreq, startDur, startVolume, startDecay)
	endSamples = generateTone(sampleRate, endFreq, endDur, endVolume, endDecay)
	errorSamples = generateDoubleBeep(sampleRate, errorFreq, errorDur, errorGap, errorVolume, errorDecay)
	platformInit()
}

// Init warms up sample generation and the playback device so the first
// cue does not lag behind the keypress.
func Init() {
	if disabled {
		return
	}
	once.Do(initSound)
}

func PlayStart() { play(&startSamples) }
func PlayEnd()   { play(&endSamples) }
func PlayError() { play(&errorSamples) }

func play(samples *[]int16) {
	if disabled {
		return
	}
	once.Do(initSound)
	playTone(*samples)
}

// generateTone renders an exponentially decaying sine as mono int16
// samples.
func generateTone(sampleRate int, freq, duration, volume, decay float64) []int16 {
	n := int(float64(sampleRate) * duration)
	samples := make([]int16, n)
	for i := 0; i < n; i++ {
		t := float64(i) / float64(sampleRate)
		envelope := math.Exp(-t * decay)
		samples[i] = int16(math.Sin(2*math.Pi*freq*t) * 32767 * volume * envelope)
	}
	return samples
}

func generateDoubleBeep(sampleRate int, freq, beepDur, gapDur, volume, decay float64) []int16 {
	tone := generateTone(sampleRate, freq, beepDur, volume, decay)
	gap := make([]int16, int(float64(sampleRate)*gapDur))
	result := make([]int16, 0, len(tone)*2+len(gap))
	result = append(result, tone...)
	result = append(result, gap...)
	result = append(result, tone...)
	return result
}
