package meta

import (
	"crypto/sha1"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"os/exec"
)

// Analysis parameters. The decode is mono at a fixed rate so every
// format lands in the same domain before measurement.
const (
	analysisSampleRate = 44100

	// At most 60s of decoded audio feeds the analysis. Long enough
	// for a stable tempo estimate, short enough to stay cheap.
	analysisMaxSamples = analysisSampleRate * 60

	// Spectral cutoff detection: energy in 1 kHz bands above 17 kHz
	// is compared against a 14-16 kHz reference band. A drop past
	// the threshold marks where a lossy encoder cut the spectrum.
	refBandLowHz     = 14000
	refBandHighHz    = 16000
	checkBandStartHz = 17000
	checkBandWidthHz = 1000
	checkBandCount   = 6
	cutoffDropDB     = 18.0
)

// ErrDecoderUnavailable means ffmpeg is not installed. Analysis
// degrades to a raw-bytes fingerprint with no tempo or quality data.
var ErrDecoderUnavailable = errors.New("ffmpeg not found in PATH")

// Analyze decodes path and fills the acoustic fields of m: a content
// fingerprint, an estimated tempo and a spectral quality verdict.
// Without ffmpeg the fingerprint falls back to hashing the file bytes
// and the quality verdict is inconclusive.
func Analyze(path string, m *FileMetadata) error {
	samples, err := decodeMono(path)
	if err != nil {
		if errors.Is(err, ErrDecoderUnavailable) {
			m.Fingerprint, err = rawFingerprint(path)
			m.QualityAssessment = "inconclusive"
			return err
		}
		return err
	}
	if len(samples) == 0 {
		m.QualityAssessment = "inconclusive"
		return fmt.Errorf("decoded zero samples from %s", path)
	}

	m.Fingerprint = sampleFingerprint(samples)
	m.BPM = estimateTempo(samples)
	m.QualityScore, m.QualityAssessment = assessQuality(samples)
	return nil
}

// decodeMono decodes up to analysisMaxSamples of mono float32 PCM
func decodeMono(path string) ([]float32, error) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return nil, ErrDecoderUnavailable
	}

	cmd := exec.Command("ffmpeg",
		"-v", "quiet",
		"-i", path,
		"-f", "f32le",
		"-ac", "1",
		"-ar", fmt.Sprintf("%d", analysisSampleRate),
		"pipe:1",
	)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg pipe failed: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("ffmpeg start failed: %w", err)
	}

	raw, err := io.ReadAll(io.LimitReader(stdout, analysisMaxSamples*4))
	// Drain whatever the limit left behind so ffmpeg can exit
	io.Copy(io.Discard, stdout)
	waitErr := cmd.Wait()

	if err != nil {
		return nil, fmt.Errorf("ffmpeg read failed: %w", err)
	}
	if len(raw) == 0 && waitErr != nil {
		return nil, fmt.Errorf("ffmpeg decode failed: %w", waitErr)
	}

	samples := make([]float32, len(raw)/4)
	for i := range samples {
		bits := binary.LittleEndian.Uint32(raw[i*4:])
		samples[i] = math.Float32frombits(bits)
	}
	return samples, nil
}

// sampleFingerprint hashes the decoded signal, so the same audio in
// different containers fingerprints identically.
func sampleFingerprint(samples []float32) string {
	h := sha1.New()
	buf := make([]byte, 4)
	for _, s := range samples {
		binary.LittleEndian.PutUint32(buf, math.Float32bits(s))
		h.Write(buf)
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}

// rawFingerprint hashes the file bytes as a decoder-free fallback
func rawFingerprint(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha1.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

// estimateTempo finds the dominant beat period by autocorrelating the
// onset strength envelope. Returns 0 when no clear tempo emerges.
func estimateTempo(samples []float32) float64 {
	const (
		frameSize = 1024
		hopSize   = 512
		minBPM    = 60.0
		maxBPM    = 200.0
	)

	frames := (len(samples) - frameSize) / hopSize
	if frames < 64 {
		return 0
	}

	// Energy per frame, then half-wave rectified difference as the
	// onset envelope.
	energy := make([]float64, frames)
	for i := 0; i < frames; i++ {
		var e float64
		for _, s := range samples[i*hopSize : i*hopSize+frameSize] {
			e += float64(s) * float64(s)
		}
		energy[i] = e
	}

	onset := make([]float64, frames-1)
	var mean float64
	for i := 1; i < frames; i++ {
		d := energy[i] - energy[i-1]
		if d > 0 {
			onset[i-1] = d
		}
		mean += onset[i-1]
	}
	mean /= float64(len(onset))
	for i := range onset {
		onset[i] -= mean
	}

	framesPerSec := float64(analysisSampleRate) / hopSize
	minLag := int(framesPerSec * 60 / maxBPM)
	maxLag := int(framesPerSec * 60 / minBPM)
	if maxLag >= len(onset) {
		maxLag = len(onset) - 1
	}
	if minLag < 1 || minLag >= maxLag {
		return 0
	}

	var zeroLag float64
	for _, v := range onset {
		zeroLag += v * v
	}
	if zeroLag == 0 {
		return 0
	}

	bestLag, bestCorr := 0, 0.0
	for lag := minLag; lag <= maxLag; lag++ {
		var corr float64
		for i := 0; i+lag < len(onset); i++ {
			corr += onset[i] * onset[i+lag]
		}
		if corr > bestCorr {
			bestCorr = corr
			bestLag = lag
		}
	}

	// Require the beat correlation to stand out from the noise floor
	if bestLag == 0 || bestCorr/zeroLag < 0.05 {
		return 0
	}

	bpm := 60 * framesPerSec / float64(bestLag)
	return math.Round(bpm*10) / 10
}

// assessQuality looks for the hard spectral ceiling that lossy
// encoders leave behind. The score is the fraction of high-frequency
// bands that still carry energy relative to the reference band.
func assessQuality(samples []float32) (float64, string) {
	if len(samples) < analysisSampleRate {
		return 0, "inconclusive"
	}

	// Analyze a window from the middle of the signal, away from
	// fade-in and fade-out.
	windowLen := analysisSampleRate * 10
	if windowLen > len(samples) {
		windowLen = len(samples)
	}
	start := (len(samples) - windowLen) / 2
	window := samples[start : start+windowLen]

	refPower := bandPower(window, refBandLowHz, refBandHighHz)
	if refPower <= 0 {
		// Nothing even in the reference band: quiet or narrowband
		// material, no verdict possible.
		return 0, "inconclusive"
	}
	refDB := 10 * math.Log10(refPower)

	nyquist := analysisSampleRate / 2
	retained := 0
	usable := 0
	cutoffHz := 0

	for i := 0; i < checkBandCount; i++ {
		low := checkBandStartHz + i*checkBandWidthHz
		high := low + checkBandWidthHz
		if high > nyquist {
			break
		}
		usable++

		power := bandPower(window, low, high)
		bandDB := -120.0
		if power > 0 {
			bandDB = 10 * math.Log10(power)
		}

		if refDB-bandDB > cutoffDropDB {
			if cutoffHz == 0 {
				cutoffHz = low
			}
			continue
		}
		retained++
	}

	if usable == 0 {
		return 0, "inconclusive"
	}

	score := float64(retained) / float64(usable)
	if cutoffHz == 0 {
		return score, "full spectrum"
	}
	return score, fmt.Sprintf("cutoff near %d kHz", cutoffHz/1000)
}

// bandPower is the mean Goertzel power over probe frequencies spaced
// 250 Hz apart within [lowHz, highHz).
func bandPower(samples []float32, lowHz, highHz int) float64 {
	const probeStepHz = 250

	var total float64
	probes := 0
	for f := lowHz; f < highHz; f += probeStepHz {
		total += goertzelPower(samples, float64(f))
		probes++
	}
	if probes == 0 {
		return 0
	}
	return total / float64(probes)
}

// goertzelPower computes normalized signal power at one frequency
func goertzelPower(samples []float32, freqHz float64) float64 {
	omega := 2 * math.Pi * freqHz / analysisSampleRate
	coeff := 2 * math.Cos(omega)

	var s0, s1, s2 float64
	for _, x := range samples {
		s0 = float64(x) + coeff*s1 - s2
		s2 = s1
		s1 = s0
	}

	power := s1*s1 + s2*s2 - coeff*s1*s2
	n := float64(len(samples))
	return power / (n * n)
}
