package beep

import (
	"math"
	"testing"
)

func TestGenerateToneShape(t *testing.T) {
	samples := generateTone(sampleRate, 1000, 0.05, 0.5, 60)

	if want := int(0.05 * sampleRate); len(samples) != want {
		t.Fatalf("len = %d, want %d", len(samples), want)
	}
	if samples[0] != 0 {
		t.Errorf("first sample = %d, want 0 (sine starts at zero)", samples[0])
	}

	// The envelope must pull the tail well below the head.
	peak := func(s []int16) int16 {
		var max int16
		for _, v := range s {
			if v > max {
				max = v
			}
		}
		return max
	}
	head := peak(samples[:len(samples)/4])
	tail := peak(samples[3*len(samples)/4:])
	if tail >= head/4 {
		t.Errorf("tail peak %d not decayed from head peak %d", tail, head)
	}

	if head > int16(math.Round(32767*0.5)) {
		t.Errorf("head peak %d exceeds the volume ceiling", head)
	}
}

func TestGenerateDoubleBeepLength(t *testing.T) {
	tone := generateTone(sampleRate, 350, 0.08, 0.6, 30)
	double := generateDoubleBeep(sampleRate, 350, 0.08, 0.05, 0.6, 30)

	gap := int(0.05 * sampleRate)
	if want := 2*len(tone) + gap; len(double) != want {
		t.Fatalf("len = %d, want %d", len(double), want)
	}

	// The gap between the two beeps is silent.
	for i := len(tone); i < len(tone)+gap; i++ {
		if double[i] != 0 {
			t.Fatalf("gap sample %d = %d, want silence", i, double[i])
		}
	}
}
