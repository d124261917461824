package dsp

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// onsetEnvelope returns the rectified spectral flux between consecutive
// frames: a per-frame measure of how much new energy appeared.
func onsetEnvelope(spec [][]float64) []float64 {
	if len(spec) < 2 {
		return nil
	}
	env := make([]float64, len(spec)-1)
	for f := 1; f < len(spec); f++ {
		var flux float64
		for k := range spec[f] {
			if d := spec[f][k] - spec[f-1][k]; d > 0 {
				flux += d
			}
		}
		env[f-1] = flux
	}
	return env
}

// estimateTempo picks the dominant tempo from the onset envelope by
// autocorrelation over lags covering minBPM..maxBPM, refined with
// parabolic interpolation around the peak lag. frameRate is onset
// frames per second. Returns 0 when the envelope is too short or flat
// to carry a beat.
func estimateTempo(env []float64, frameRate float64) int {
	if len(env) == 0 {
		return 0
	}

	// Mean-subtract so silence between onsets does not correlate.
	mean := stat.Mean(env, nil)
	centered := make([]float64, len(env))
	flat := true
	for i, v := range env {
		centered[i] = v - mean
		if centered[i] != 0 {
			flat = false
		}
	}
	if flat {
		return 0
	}

	minLag := int(math.Floor(60 * frameRate / maxBPM))
	maxLag := int(math.Ceil(60 * frameRate / minBPM))
	if minLag < 1 {
		minLag = 1
	}
	if maxLag >= len(centered) {
		maxLag = len(centered) - 1
	}
	if maxLag < minLag {
		return 0
	}

	autocorr := make([]float64, maxLag+1)
	bestLag, bestVal := 0, math.Inf(-1)
	for lag := minLag; lag <= maxLag; lag++ {
		var sum float64
		for i := 0; i+lag < len(centered); i++ {
			sum += centered[i] * centered[i+lag]
		}
		autocorr[lag] = sum
		if sum > bestVal {
			bestVal = sum
			bestLag = lag
		}
	}

	if bestLag == 0 || bestVal <= 0 {
		return 0
	}

	lag := refineLag(autocorr, bestLag, minLag, maxLag)
	bpm := 60 * frameRate / lag
	return int(math.Round(bpm))
}

// refineLag applies parabolic interpolation around the integer peak to
// recover sub-lag tempo resolution.
func refineLag(autocorr []float64, peak, minLag, maxLag int) float64 {
	if peak <= minLag || peak >= maxLag {
		return float64(peak)
	}
	prev, cur, next := autocorr[peak-1], autocorr[peak], autocorr[peak+1]
	denom := prev - 2*cur + next
	if denom == 0 {
		return float64(peak)
	}
	shift := 0.5 * (prev - next) / denom
	if shift < -1 || shift > 1 {
		return float64(peak)
	}
	return float64(peak) + shift
}
