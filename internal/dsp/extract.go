package dsp

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/stat"

	"github.com/jtkoskela/melograph/internal/errors"
)

// Features is the five-dimensional physics vector of one clip. BPM is a
// real tempo estimate; the other four are normalized to [0,1].
//
// Warmth stores the normalized 85% spectral roll-off directly: higher
// values mean a brighter spectrum, not a warmer one. Downstream
// consumers rely on this stored semantic, so it is not inverted here.
type Features struct {
	BPM        int
	Brightness float64
	Noisiness  float64
	Warmth     float64
	Complexity float64
}

// Calibration holds the divisors and scales mapping raw spectral
// measurements onto [0,1]. The values are empirically fit, not derived;
// they belong to the decode/resample pipeline they were fit against.
type Calibration struct {
	BrightnessDivisor float64 // Hz
	NoisinessScale    float64
	WarmthDivisor     float64 // Hz
	ComplexityScale   float64
}

// DefaultCalibration returns the constants fit against the reference
// pipeline on a corpus spanning ambient through technical metal.
func DefaultCalibration() Calibration {
	return Calibration{
		BrightnessDivisor: 3000.0,
		NoisinessScale:    10.0,
		WarmthDivisor:     5000.0,
		ComplexityScale:   5.0,
	}
}

const (
	frameSize = 2048
	hopSize   = 512

	// Tempo search range in beats per minute.
	minBPM = 40
	maxBPM = 220
)

// Extractor computes Features from decoded clips. Safe for reuse across
// clips; not safe for concurrent use (the FFT scratch state is shared).
type Extractor struct {
	cal    Calibration
	fft    *fourier.FFT
	window []float64
}

// NewExtractor creates an extractor with the given calibration.
func NewExtractor(cal Calibration) *Extractor {
	return &Extractor{
		cal:    cal,
		fft:    fourier.NewFFT(frameSize),
		window: hannWindow(frameSize),
	}
}

// Extract runs the fixed analysis pipeline over the clip. Any failure
// yields an error, never a zero-valued Features: callers must be able to
// distinguish "measured 0.0" from "could not measure".
func (e *Extractor) Extract(clip *Clip) (Features, error) {
	if clip == nil || len(clip.Samples) < frameSize {
		return Features{}, errors.Newf("clip too short for analysis: %d samples", clipLen(clip)).
			Category(errors.CategoryAudioAnalysis).
			Component("dsp").
			Build()
	}

	spec := e.spectrogram(clip.Samples)
	if len(spec) < 2 {
		return Features{}, errors.Newf("clip yields too few frames for analysis").
			Category(errors.CategoryAudioAnalysis).
			Component("dsp").
			Build()
	}

	sr := clip.SampleRate

	bpm := estimateTempo(onsetEnvelope(spec), float64(sr)/float64(hopSize))

	brightness := stat.Mean(spectralCentroids(spec, sr), nil)
	rolloff := stat.Mean(spectralRolloffs(spec, sr, 0.85), nil)
	zcr := zeroCrossingRate(clip.Samples)
	complexity := chromaDeviation(spec, sr)

	return Features{
		BPM:        bpm,
		Brightness: clamp01(brightness / e.cal.BrightnessDivisor),
		Noisiness:  clamp01(zcr * e.cal.NoisinessScale),
		Warmth:     clamp01(rolloff / e.cal.WarmthDivisor),
		Complexity: clamp01(complexity * e.cal.ComplexityScale),
	}, nil
}

// spectrogram returns per-frame magnitude spectra (frameSize/2+1 bins).
func (e *Extractor) spectrogram(samples []float64) [][]float64 {
	numFrames := 1 + (len(samples)-frameSize)/hopSize
	spec := make([][]float64, 0, numFrames)

	windowed := make([]float64, frameSize)
	coeffs := make([]complex128, frameSize/2+1)

	for f := 0; f < numFrames; f++ {
		offset := f * hopSize
		for i := 0; i < frameSize; i++ {
			windowed[i] = samples[offset+i] * e.window[i]
		}
		coeffs = e.fft.Coefficients(coeffs, windowed)

		mags := make([]float64, len(coeffs))
		for i, c := range coeffs {
			mags[i] = math.Hypot(real(c), imag(c))
		}
		spec = append(spec, mags)
	}
	return spec
}

func hannWindow(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n-1)))
	}
	return w
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

func clipLen(c *Clip) int {
	if c == nil {
		return 0
	}
	return len(c.Samples)
}
