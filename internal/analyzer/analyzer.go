// Package analyzer turns a track's preview clip URL into a physics
// feature vector: download, decode, extract.
package analyzer

import (
	"bytes"
	"context"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/jtkoskela/melograph/internal/conf"
	"github.com/jtkoskela/melograph/internal/dsp"
	"github.com/jtkoskela/melograph/internal/errors"
	"github.com/jtkoskela/melograph/internal/logging"
)

var log = logging.ForService("analyzer")

// Some preview CDNs refuse requests with a default Go user agent.
const downloadUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"

const downloadTimeout = 15 * time.Second

// Analyzer downloads preview clips and extracts their features. Safe
// for reuse across clips; not safe for concurrent use.
type Analyzer struct {
	client     *resty.Client
	extractor  *dsp.Extractor
	sampleRate int
	maxSeconds int
}

// New creates an analyzer from extractor settings.
func New(settings conf.ExtractorSettings) *Analyzer {
	client := resty.New().
		SetTimeout(downloadTimeout).
		SetHeader("User-Agent", downloadUserAgent).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			code := r.StatusCode()
			return code >= 500 || code == http.StatusTooManyRequests || code == http.StatusForbidden
		})

	return &Analyzer{
		client:     client,
		extractor:  dsp.NewExtractor(calibration(settings.Calibration)),
		sampleRate: settings.SampleRate,
		maxSeconds: settings.MaxSeconds,
	}
}

func calibration(s conf.CalibrationSettings) dsp.Calibration {
	cal := dsp.DefaultCalibration()
	if s.BrightnessDivisor > 0 {
		cal.BrightnessDivisor = s.BrightnessDivisor
	}
	if s.NoisinessScale > 0 {
		cal.NoisinessScale = s.NoisinessScale
	}
	if s.WarmthDivisor > 0 {
		cal.WarmthDivisor = s.WarmthDivisor
	}
	if s.ComplexityScale > 0 {
		cal.ComplexityScale = s.ComplexityScale
	}
	return cal
}

// Analyze fetches the clip at previewURL and runs the extraction
// pipeline over it.
func (a *Analyzer) Analyze(ctx context.Context, previewURL string) (dsp.Features, error) {
	if previewURL == "" {
		return dsp.Features{}, errors.Newf("preview URL is empty").
			Category(errors.CategoryValidation).
			Component("analyzer").
			Build()
	}

	body, err := a.download(ctx, previewURL)
	if err != nil {
		return dsp.Features{}, err
	}

	clip, err := dsp.Decode(bytes.NewReader(body), a.sampleRate, a.maxSeconds)
	if err != nil {
		return dsp.Features{}, err
	}

	features, err := a.extractor.Extract(clip)
	if err != nil {
		return dsp.Features{}, err
	}

	log.Debug("Clip analyzed",
		"url", previewURL,
		"samples", len(clip.Samples),
		"bpm", features.BPM)
	return features, nil
}

// download fetches the clip body. Transient failures are retried by the
// underlying client before this returns.
func (a *Analyzer) download(ctx context.Context, previewURL string) ([]byte, error) {
	resp, err := a.client.R().
		SetContext(ctx).
		Get(previewURL)
	if err != nil {
		log.Error("Preview download failed", "url", previewURL, "error", err)
		return nil, errors.Newf("preview download failed: %w", err).
			Category(errors.CategoryNetwork).
			Component("analyzer").
			Context("url", previewURL).
			Build()
	}
	if resp.StatusCode() >= 400 {
		log.Warn("Preview download rejected",
			"url", previewURL,
			"status_code", resp.StatusCode())
		category := errors.CategoryNetwork
		if resp.StatusCode() == http.StatusNotFound {
			category = errors.CategoryNotFound
		}
		return nil, errors.Newf("preview download rejected (status %d)", resp.StatusCode()).
			Category(category).
			Component("analyzer").
			Context("url", previewURL).
			Context("status_code", resp.StatusCode()).
			Build()
	}
	if len(resp.Body()) == 0 {
		return nil, errors.Newf("preview download returned an empty body").
			Category(errors.CategoryAudioDecode).
			Component("analyzer").
			Context("url", previewURL).
			Build()
	}
	return resp.Body(), nil
}
