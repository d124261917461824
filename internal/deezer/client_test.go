package deezer

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jtkoskela/melograph/internal/errors"
)

const testBaseURL = "https://api.deezer.test"

func newTestClient(t *testing.T) *Client {
	t.Helper()

	client := NewClient(Config{
		BaseURL:     testBaseURL,
		RateLimitMS: 1,
		MaxRetries:  3,
	})
	t.Cleanup(client.Close)

	httpmock.ActivateNonDefault(client.httpClient)
	t.Cleanup(httpmock.DeactivateAndReset)

	return client
}

func TestSearchArtistReturnsFirstMatch(t *testing.T) {
	client := newTestClient(t)

	httpmock.RegisterResponder("GET", testBaseURL+"/search/artist",
		httpmock.NewStringResponder(http.StatusOK, `{
			"data": [
				{"id": 119, "name": "Metallica", "nb_fan": 9000000,
				 "picture_medium": "https://cdn.deezer.test/119.jpg",
				 "link": "https://deezer.test/artist/119"},
				{"id": 120, "name": "Metallica Tribute", "nb_fan": 12}
			]
		}`))

	artist, err := client.SearchArtist(context.Background(), "metallica")
	require.NoError(t, err)
	assert.Equal(t, int64(119), artist.ID)
	assert.Equal(t, "Metallica", artist.Name)
	assert.Equal(t, 9000000, artist.NbFan)
	assert.Equal(t, "https://cdn.deezer.test/119.jpg", artist.PictureMedium)
}

func TestSearchArtistNoMatch(t *testing.T) {
	client := newTestClient(t)

	httpmock.RegisterResponder("GET", testBaseURL+"/search/artist",
		httpmock.NewStringResponder(http.StatusOK, `{"data": []}`))

	_, err := client.SearchArtist(context.Background(), "zzzz nobody")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestSearchArtistCached(t *testing.T) {
	client := newTestClient(t)

	httpmock.RegisterResponder("GET", testBaseURL+"/search/artist",
		httpmock.NewStringResponder(http.StatusOK, `{
			"data": [{"id": 119, "name": "Metallica"}]
		}`))

	_, err := client.SearchArtist(context.Background(), "metallica")
	require.NoError(t, err)
	_, err = client.SearchArtist(context.Background(), "metallica")
	require.NoError(t, err)

	assert.Equal(t, 1, httpmock.GetTotalCallCount())
}

func TestTopTracks(t *testing.T) {
	client := newTestClient(t)

	httpmock.RegisterResponder("GET", testBaseURL+"/artist/119/top",
		httpmock.NewStringResponder(http.StatusOK, `{
			"data": [
				{"id": 1, "title": "One", "preview": "https://cdn.deezer.test/one.mp3"},
				{"id": 2, "title": "Battery", "preview": ""}
			]
		}`))

	tracks, err := client.TopTracks(context.Background(), 119, 5)
	require.NoError(t, err)
	require.Len(t, tracks, 2)
	assert.Equal(t, "One", tracks[0].Title)
	assert.Equal(t, "https://cdn.deezer.test/one.mp3", tracks[0].Preview)
	assert.Empty(t, tracks[1].Preview)
}

func TestEarliestReleaseYearAcrossPages(t *testing.T) {
	client := newTestClient(t)

	page := func(startYear, n int, next string) string {
		body := `{"data": [`
		for i := 0; i < n; i++ {
			if i > 0 {
				body += ","
			}
			body += fmt.Sprintf(`{"id": %d, "title": "Album %d", "release_date": "%d-01-01"}`,
				i, i, startYear+i)
		}
		return body + fmt.Sprintf(`], "total": 60, "next": %q}`, next)
	}

	httpmock.RegisterResponder("GET", testBaseURL+"/artist/119/albums",
		func(req *http.Request) (*http.Response, error) {
			if req.URL.Query().Get("index") == "0" {
				return httpmock.NewStringResponse(http.StatusOK,
					page(1990, albumsPageSize, "https://api.deezer.test/artist/119/albums?index=50")), nil
			}
			return httpmock.NewStringResponse(http.StatusOK, page(1983, 10, "")), nil
		})

	year, err := client.EarliestReleaseYear(context.Background(), 119)
	require.NoError(t, err)
	assert.Equal(t, 1983, year)
}

func TestEarliestReleaseYearIgnoresUnknownDates(t *testing.T) {
	client := newTestClient(t)

	httpmock.RegisterResponder("GET", testBaseURL+"/artist/119/albums",
		httpmock.NewStringResponder(http.StatusOK, `{
			"data": [
				{"id": 1, "title": "Bootleg", "release_date": "0000-00-00"},
				{"id": 2, "title": "Single", "release_date": ""}
			],
			"total": 2, "next": ""
		}`))

	year, err := client.EarliestReleaseYear(context.Background(), 119)
	require.NoError(t, err)
	assert.Equal(t, 0, year)
}

func TestEarliestReleaseYearDegradesMidWalk(t *testing.T) {
	client := newTestClient(t)

	httpmock.RegisterResponder("GET", testBaseURL+"/artist/119/albums",
		func(req *http.Request) (*http.Response, error) {
			if req.URL.Query().Get("index") == "0" {
				body := `{"data": [`
				for i := 0; i < albumsPageSize; i++ {
					if i > 0 {
						body += ","
					}
					body += fmt.Sprintf(`{"id": %d, "title": "A", "release_date": "1991-06-01"}`, i)
				}
				body += `], "total": 60, "next": "https://api.deezer.test/artist/119/albums?index=50"}`
				return httpmock.NewStringResponse(http.StatusOK, body), nil
			}
			return httpmock.NewStringResponse(http.StatusBadRequest, `{}`), nil
		})

	year, err := client.EarliestReleaseYear(context.Background(), 119)
	require.NoError(t, err)
	assert.Equal(t, 1991, year)
}

func TestEarliestReleaseYearFirstPageFails(t *testing.T) {
	client := newTestClient(t)

	httpmock.RegisterResponder("GET", testBaseURL+"/artist/119/albums",
		httpmock.NewStringResponder(http.StatusNotFound, ""))

	_, err := client.EarliestReleaseYear(context.Background(), 119)
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestQuotaErrorInsideOKResponse(t *testing.T) {
	client := newTestClient(t)

	calls := 0
	httpmock.RegisterResponder("GET", testBaseURL+"/artist/119/top",
		func(*http.Request) (*http.Response, error) {
			calls++
			if calls == 1 {
				return httpmock.NewStringResponse(http.StatusOK,
					`{"error": {"type": "QuotaException", "message": "Quota limit exceeded", "code": 4}}`), nil
			}
			return httpmock.NewStringResponse(http.StatusOK,
				`{"data": [{"id": 1, "title": "One", "preview": "p"}]}`), nil
		})

	tracks, err := client.TopTracks(context.Background(), 119, 5)
	require.NoError(t, err)
	require.Len(t, tracks, 1)
	assert.Equal(t, 2, calls)
}

func TestRetryServerErrors(t *testing.T) {
	client := newTestClient(t)

	httpmock.RegisterResponder("GET", testBaseURL+"/search/artist",
		httpmock.NewStringResponder(http.StatusServiceUnavailable, ""))

	_, err := client.SearchArtist(context.Background(), "metallica")
	require.Error(t, err)
	assert.True(t, errors.IsTransient(err))
	assert.Equal(t, 3, httpmock.GetTotalCallCount())
}

func TestReleaseYear(t *testing.T) {
	assert.Equal(t, 1983, releaseYear("1983-07-25"))
	assert.Equal(t, 0, releaseYear("0000-00-00"))
	assert.Equal(t, 0, releaseYear(""))
	assert.Equal(t, 0, releaseYear("bad"))
}
