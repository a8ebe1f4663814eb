package scraper

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ervin-khamoido/saga-telegram-bot/services/cache"
)

const searchHTML = `
<!DOCTYPE html>
<html>
<body>
	<div class="search-results">
		<a href="/immobiliensuche/immo-detail/146550.1174.30/">Schöne 2-Zimmer-Wohnung in Barmbek</a>
		<a href="/immobiliensuche/immo-detail/146550.1174.30/">Schöne 2-Zimmer-Wohnung in Barmbek</a>
		<a href="/immobiliensuche/immo-detail/147001.2001.11/">Helle 3-Zimmer-Wohnung in Altona</a>
		<a href="/impressum/">Impressum</a>
	</div>
</body>
</html>
`

func testSource(url string) Source {
	return Source{
		Name:    "saga",
		URL:     url,
		BaseURL: "https://www.saga.hamburg",
		Selectors: Selectors{
			Item:      `a[href*="/immobiliensuche/immo-detail/"]`,
			IDPattern: `/immo-detail/([^/]+)`,
		},
	}
}

func TestFetchListings(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(searchHTML))
	}))
	defer server.Close()

	s, err := New(testSource(server.URL), cache.NewMemoryService())
	require.NoError(t, err)

	listings, err := s.FetchListings()
	require.NoError(t, err)

	// Duplicate anchors collapse to one listing, unrelated links are skipped
	require.Len(t, listings, 2)

	assert.Equal(t, "146550.1174.30", listings[0].ID)
	assert.Equal(t, "Schöne 2-Zimmer-Wohnung in Barmbek", listings[0].Title)
	assert.Equal(t, "https://www.saga.hamburg/immobiliensuche/immo-detail/146550.1174.30/", listings[0].URL)
	assert.Equal(t, "saga", listings[0].Source)
	// No price selector configured, so no price is scraped
	assert.Empty(t, listings[0].Price)

	assert.Equal(t, "147001.2001.11", listings[1].ID)
}

func TestFetchListingsMalformedPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<<<<not really html`))
	}))
	defer server.Close()

	s, err := New(testSource(server.URL), cache.NewMemoryService())
	require.NoError(t, err)

	// Content the selectors cannot match yields an empty result, not a failure
	listings, err := s.FetchListings()
	require.NoError(t, err)
	assert.Empty(t, listings)
}

func TestFetchListingsServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	s, err := New(testSource(server.URL), cache.NewMemoryService())
	require.NoError(t, err)

	_, err = s.FetchListings()
	assert.Error(t, err)
}

func TestFetchListingsRateLimitBlocks(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Header().Set("Retry-After", "120")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	src := testSource(server.URL)
	src.BlockSeconds = 60

	s, err := New(src, cache.NewMemoryService())
	require.NoError(t, err)

	_, err = s.FetchListings()
	require.Error(t, err)

	// The block-guard suppresses the next fetch entirely
	_, err = s.FetchListings()
	require.Error(t, err)
	assert.Equal(t, 1, requests)
}

func TestExtractID(t *testing.T) {
	s, err := New(testSource("https://example.com"), nil)
	require.NoError(t, err)
	assert.Equal(t, "146550.1174.30", s.extractID("https://www.saga.hamburg/immobiliensuche/immo-detail/146550.1174.30/"))
	assert.Equal(t, "", s.extractID("https://www.saga.hamburg/impressum/"))

	// Without a pattern the last path segment is the id
	src := testSource("https://example.com")
	src.Selectors.IDPattern = ""
	s, err = New(src, nil)
	require.NoError(t, err)
	assert.Equal(t, "42", s.extractID("https://example.com/deal/42"))
	assert.Equal(t, "42", s.extractID("/deal/42/"))
}

func TestResolveURL(t *testing.T) {
	s, err := New(testSource("https://example.com"), nil)
	require.NoError(t, err)

	assert.Equal(t, "https://www.saga.hamburg/a/b/", s.resolveURL("/a/b/"))
	assert.Equal(t, "https://www.saga.hamburg/a", s.resolveURL("a"))
	assert.Equal(t, "https://other.example/x", s.resolveURL("https://other.example/x"))
}

func TestNewRejectsBadSource(t *testing.T) {
	_, err := New(Source{Name: "x", URL: "https://example.com"}, nil)
	assert.Error(t, err)

	src := testSource("https://example.com")
	src.Selectors.IDPattern = `no-capture-group`
	_, err = New(src, nil)
	assert.Error(t, err)

	src.Selectors.IDPattern = `([unclosed`
	_, err = New(src, nil)
	assert.Error(t, err)
}

func TestBlockTimeDefault(t *testing.T) {
	s, err := New(testSource("https://example.com"), nil)
	require.NoError(t, err)
	assert.Equal(t, 300*time.Second, s.blockTime)

	src := testSource("https://example.com")
	src.BlockSeconds = 30
	s, err = New(src, nil)
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, s.blockTime)
}
