package analyzer

import (
	"context"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jtkoskela/melograph/internal/conf"
	"github.com/jtkoskela/melograph/internal/errors"
)

const previewURL = "https://cdn.preview.test/clip.mp3"

func newTestAnalyzer(t *testing.T) *Analyzer {
	t.Helper()

	a := New(conf.ExtractorSettings{SampleRate: 22050, MaxSeconds: 30})

	httpmock.ActivateNonDefault(a.client.GetClient())
	t.Cleanup(httpmock.DeactivateAndReset)

	return a
}

func TestAnalyzeEmptyURL(t *testing.T) {
	a := newTestAnalyzer(t)

	_, err := a.Analyze(context.Background(), "")
	require.Error(t, err)
	assert.Equal(t, errors.CategoryValidation, errors.CategoryOf(err))
}

func TestAnalyzeNotFound(t *testing.T) {
	a := newTestAnalyzer(t)

	httpmock.RegisterResponder("GET", previewURL,
		httpmock.NewStringResponder(http.StatusNotFound, ""))

	_, err := a.Analyze(context.Background(), previewURL)
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestAnalyzeEmptyBody(t *testing.T) {
	a := newTestAnalyzer(t)

	httpmock.RegisterResponder("GET", previewURL,
		httpmock.NewStringResponder(http.StatusOK, ""))

	_, err := a.Analyze(context.Background(), previewURL)
	require.Error(t, err)
	assert.Equal(t, errors.CategoryAudioDecode, errors.CategoryOf(err))
}

func TestAnalyzeUndecodableBody(t *testing.T) {
	a := newTestAnalyzer(t)

	httpmock.RegisterResponder("GET", previewURL,
		httpmock.NewStringResponder(http.StatusOK, "this is not an mpeg stream"))

	_, err := a.Analyze(context.Background(), previewURL)
	require.Error(t, err)
	assert.Equal(t, errors.CategoryAudioDecode, errors.CategoryOf(err))
}

func TestAnalyzeRetriesServerErrors(t *testing.T) {
	a := newTestAnalyzer(t)

	calls := 0
	httpmock.RegisterResponder("GET", previewURL,
		func(*http.Request) (*http.Response, error) {
			calls++
			if calls < 3 {
				return httpmock.NewStringResponse(http.StatusServiceUnavailable, ""), nil
			}
			return httpmock.NewStringResponse(http.StatusOK, "junk"), nil
		})

	// Download succeeds on the third attempt; the junk body then fails
	// decode, which is the expected terminal error here.
	_, err := a.Analyze(context.Background(), previewURL)
	require.Error(t, err)
	assert.Equal(t, errors.CategoryAudioDecode, errors.CategoryOf(err))
	assert.Equal(t, 3, calls)
}

func TestAnalyzeSendsBrowserUserAgent(t *testing.T) {
	a := newTestAnalyzer(t)

	var gotUA string
	httpmock.RegisterResponder("GET", previewURL,
		func(req *http.Request) (*http.Response, error) {
			gotUA = req.Header.Get("User-Agent")
			return httpmock.NewStringResponse(http.StatusOK, "junk"), nil
		})

	_, _ = a.Analyze(context.Background(), previewURL)
	assert.Equal(t, downloadUserAgent, gotUA)
}
