package dsp

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// binFrequency returns the center frequency of FFT bin k.
func binFrequency(k, sampleRate int) float64 {
	return float64(k) * float64(sampleRate) / float64(frameSize)
}

// spectralCentroids returns the magnitude-weighted mean frequency of
// each frame: the timbral "brightness" of the spectrum.
func spectralCentroids(spec [][]float64, sampleRate int) []float64 {
	centroids := make([]float64, len(spec))
	for f, mags := range spec {
		var num, den float64
		for k, m := range mags {
			num += binFrequency(k, sampleRate) * m
			den += m
		}
		if den > 0 {
			centroids[f] = num / den
		}
	}
	return centroids
}

// spectralRolloffs returns, per frame, the frequency below which the
// given fraction of spectral magnitude lies.
func spectralRolloffs(spec [][]float64, sampleRate int, fraction float64) []float64 {
	rolloffs := make([]float64, len(spec))
	for f, mags := range spec {
		var total float64
		for _, m := range mags {
			total += m
		}
		if total == 0 {
			continue
		}
		threshold := fraction * total
		var cum float64
		for k, m := range mags {
			cum += m
			if cum >= threshold {
				rolloffs[f] = binFrequency(k, sampleRate)
				break
			}
		}
	}
	return rolloffs
}

// zeroCrossingRate returns the fraction of adjacent sample pairs whose
// signs differ, over the whole signal.
func zeroCrossingRate(samples []float64) float64 {
	if len(samples) < 2 {
		return 0
	}
	crossings := 0
	for i := 1; i < len(samples); i++ {
		if (samples[i-1] >= 0) != (samples[i] >= 0) {
			crossings++
		}
	}
	return float64(crossings) / float64(len(samples)-1)
}

// chromaDeviation folds each frame's spectrum into 12 pitch classes,
// normalizes each frame to its peak, then averages the per-class
// standard deviation across frames. High values mean the harmonic
// content moves around; a drone scores near zero.
func chromaDeviation(spec [][]float64, sampleRate int) float64 {
	const numClasses = 12
	const minFreq = 27.5 // below A0 the bin-to-pitch mapping is meaningless

	chroma := make([][]float64, len(spec))
	for f, mags := range spec {
		classes := make([]float64, numClasses)
		for k, m := range mags {
			freq := binFrequency(k, sampleRate)
			if freq < minFreq {
				continue
			}
			pc := pitchClass(freq)
			classes[pc] += m
		}
		// Per-frame peak normalization keeps loudness out of the
		// deviation measure.
		peak := 0.0
		for _, v := range classes {
			if v > peak {
				peak = v
			}
		}
		if peak > 0 {
			for i := range classes {
				classes[i] /= peak
			}
		}
		chroma[f] = classes
	}

	var sum float64
	perClass := make([]float64, len(chroma))
	for c := 0; c < numClasses; c++ {
		for f := range chroma {
			perClass[f] = chroma[f][c]
		}
		sum += stat.PopStdDev(perClass, nil)
	}
	return sum / numClasses
}

// pitchClass maps a frequency to its chromatic pitch class (0 = C).
func pitchClass(freq float64) int {
	// MIDI note number, A4 = 440 Hz = 69.
	note := int(math.Round(12*math.Log2(freq/440.0))) + 69
	pc := note % 12
	if pc < 0 {
		pc += 12
	}
	return pc
}
