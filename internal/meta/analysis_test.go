package meta

import (
	"math"
	"strings"
	"testing"
)

// sine renders a tone into an existing buffer, summing in place
func sine(buf []float32, freqHz, amplitude float64) {
	for i := range buf {
		buf[i] += float32(amplitude * math.Sin(2*math.Pi*freqHz*float64(i)/analysisSampleRate))
	}
}

func TestSampleFingerprintDeterministic(t *testing.T) {
	a := make([]float32, analysisSampleRate)
	sine(a, 440, 0.5)
	b := make([]float32, analysisSampleRate)
	sine(b, 440, 0.5)

	fpA := sampleFingerprint(a)
	fpB := sampleFingerprint(b)
	if fpA != fpB {
		t.Error("identical signals produced different fingerprints")
	}
	if len(fpA) != 40 {
		t.Errorf("fingerprint length = %d, want 40 hex chars", len(fpA))
	}

	c := make([]float32, analysisSampleRate)
	sine(c, 441, 0.5)
	if sampleFingerprint(c) == fpA {
		t.Error("different signals collided")
	}
}

func TestEstimateTempoClickTrack(t *testing.T) {
	// 120 BPM click track: a short burst every half second
	const bpm = 120.0
	samples := make([]float32, analysisSampleRate*15)
	period := int(float64(analysisSampleRate) * 60 / bpm)
	for start := 0; start < len(samples); start += period {
		for i := 0; i < 2048 && start+i < len(samples); i++ {
			samples[start+i] = 0.9
		}
	}

	got := estimateTempo(samples)
	if got < bpm*0.95 || got > bpm*1.05 {
		t.Errorf("tempo = %.1f, want within 5%% of %.0f", got, bpm)
	}
}

func TestEstimateTempoSilence(t *testing.T) {
	samples := make([]float32, analysisSampleRate*10)
	if got := estimateTempo(samples); got != 0 {
		t.Errorf("tempo of silence = %.1f, want 0", got)
	}
}

func TestEstimateTempoTooShort(t *testing.T) {
	samples := make([]float32, 4096)
	if got := estimateTempo(samples); got != 0 {
		t.Errorf("tempo of a tiny clip = %.1f, want 0", got)
	}
}

func TestAssessQualityFullSpectrum(t *testing.T) {
	// Energy in the reference band and every check band
	samples := make([]float32, analysisSampleRate*2)
	sine(samples, 15000, 0.2)
	for f := 17500.0; f < float64(analysisSampleRate/2); f += 1000 {
		sine(samples, f, 0.2)
	}

	score, verdict := assessQuality(samples)
	if verdict != "full spectrum" {
		t.Errorf("verdict = %q, want full spectrum", verdict)
	}
	if score != 1.0 {
		t.Errorf("score = %.2f, want 1.0", score)
	}
}

func TestAssessQualityLossyCutoff(t *testing.T) {
	// Reference band only: everything above 16 kHz is missing, the
	// signature of a lossy encode.
	samples := make([]float32, analysisSampleRate*2)
	sine(samples, 15000, 0.2)

	score, verdict := assessQuality(samples)
	if !strings.HasPrefix(verdict, "cutoff near 17") {
		t.Errorf("verdict = %q, want cutoff near 17 kHz", verdict)
	}
	if score != 0 {
		t.Errorf("score = %.2f, want 0", score)
	}
}

func TestAssessQualityInconclusive(t *testing.T) {
	// Narrowband material with nothing in the reference band
	tests := []struct {
		name    string
		samples []float32
	}{
		{"silence", make([]float32, analysisSampleRate*2)},
		{"too short", make([]float32, 100)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, verdict := assessQuality(tt.samples)
			if verdict != "inconclusive" {
				t.Errorf("verdict = %q, want inconclusive", verdict)
			}
		})
	}
}

func TestGoertzelPowerPeaksAtFrequency(t *testing.T) {
	samples := make([]float32, analysisSampleRate)
	sine(samples, 15000, 0.5)

	on := goertzelPower(samples, 15000)
	off := goertzelPower(samples, 18000)
	if on <= off*100 {
		t.Errorf("on-frequency power %g not dominant over off-frequency %g", on, off)
	}
}
