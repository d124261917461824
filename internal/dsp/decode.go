// Package dsp turns short audio clips into normalized physics features:
// tempo, brightness, noisiness, warmth and complexity. The pipeline is
// fixed (decode, mono, resample, framed spectral analysis) so repeated
// extraction of the same clip is deterministic.
package dsp

import (
	"io"

	"github.com/hajimehoshi/go-mp3"

	"github.com/jtkoskela/melograph/internal/errors"
)

// Clip is a decoded mono audio signal at a known sample rate, with
// samples normalized to [-1,1].
type Clip struct {
	Samples    []float64
	SampleRate int
}

// Duration returns the clip length in seconds.
func (c *Clip) Duration() float64 {
	if c.SampleRate == 0 {
		return 0
	}
	return float64(len(c.Samples)) / float64(c.SampleRate)
}

// Decode reads an MP3 stream, downmixes to mono, resamples to
// targetRate and truncates to maxSeconds. The decoded buffer lives only
// for the duration of the caller's analysis; nothing is retained here.
func Decode(r io.Reader, targetRate, maxSeconds int) (*Clip, error) {
	decoder, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, errors.Newf("mp3 decode failed: %w", err).
			Category(errors.CategoryAudioDecode).
			Component("dsp").
			Build()
	}

	srcRate := decoder.SampleRate()
	if srcRate <= 0 {
		return nil, errors.Newf("mp3 reports invalid sample rate %d", srcRate).
			Category(errors.CategoryAudioDecode).
			Component("dsp").
			Build()
	}

	// go-mp3 output is always 16-bit little-endian stereo.
	maxSrcSamples := srcRate * maxSeconds
	mono := make([]float64, 0, maxSrcSamples)
	buf := make([]byte, 8192)

	for len(mono) < maxSrcSamples {
		n, readErr := decoder.Read(buf)
		if n > 0 {
			mono = appendMonoSamples(mono, buf[:n], maxSrcSamples)
		}
		if readErr != nil {
			if readErr == io.EOF {
				break
			}
			return nil, errors.Newf("mp3 read failed: %w", readErr).
				Category(errors.CategoryAudioDecode).
				Component("dsp").
				Build()
		}
	}

	if len(mono) == 0 {
		return nil, errors.Newf("mp3 stream contained no samples").
			Category(errors.CategoryAudioDecode).
			Component("dsp").
			Build()
	}

	samples := mono
	if srcRate != targetRate {
		samples = resampleLinear(mono, srcRate, targetRate)
	}

	return &Clip{Samples: samples, SampleRate: targetRate}, nil
}

// appendMonoSamples converts interleaved 16-bit stereo frames to mono
// float64 samples, appending at most limit samples in total.
func appendMonoSamples(dst []float64, pcm []byte, limit int) []float64 {
	for i := 0; i+3 < len(pcm) && len(dst) < limit; i += 4 {
		left := int16(pcm[i]) | int16(pcm[i+1])<<8
		right := int16(pcm[i+2]) | int16(pcm[i+3])<<8
		dst = append(dst, (float64(left)+float64(right))/2/32768.0)
	}
	return dst
}

// resampleLinear resamples in from srcRate to dstRate with linear
// interpolation. Sufficient for feature extraction; the calibration
// constants were fit against this same resampler.
func resampleLinear(in []float64, srcRate, dstRate int) []float64 {
	if srcRate == dstRate || len(in) == 0 {
		out := make([]float64, len(in))
		copy(out, in)
		return out
	}

	ratio := float64(srcRate) / float64(dstRate)
	outLen := int(float64(len(in)) / ratio)
	if outLen == 0 {
		outLen = 1
	}
	out := make([]float64, outLen)

	for i := range out {
		pos := float64(i) * ratio
		idx := int(pos)
		if idx >= len(in)-1 {
			out[i] = in[len(in)-1]
			continue
		}
		frac := pos - float64(idx)
		out[i] = in[idx]*(1-frac) + in[idx+1]*frac
	}
	return out
}
