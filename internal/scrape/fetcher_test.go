package scrape

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"dealtrack-engine/internal/domain"
)

func testFetcher() *Fetcher {
	return &Fetcher{
		Client:       &http.Client{Timeout: 5 * time.Second},
		UserAgent:    browserUserAgent,
		BatchSize:    10,
		MaxTextChars: 15000,
		MinTextChars: 50,
		Limiter:      NewHostLimiter(100, 100),
		Log:          zap.NewNop().Sugar(),
	}
}

const dealPage = `<html><head><title>News</title><script>var x = "tracking";</script>
<style>.hidden { display: none; }</style></head>
<body>
<nav>Home | About | Portfolio</nav>
<header>Firm Masthead</header>
<main>
<h1>Summit Partners announces growth investment in Acme Corp</h1>
<p>Acme Corp, a provider of billing software, today announced a $50 million
growth equity investment led by Summit Partners. The round closed on
January 15 and will fund product expansion across North America.</p>
</main>
<aside>Related stories</aside>
<footer>Copyright 2026</footer>
</body></html>`

func TestFetchAllCleansText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.Header.Get("User-Agent"), "Mozilla/5.0")
		_, _ = w.Write([]byte(dealPage))
	}))
	defer srv.Close()

	f := testFetcher()
	results := f.FetchAll(context.Background(), []domain.Source{
		{Name: "Test Firm", URL: srv.URL, Category: domain.SourceFirm},
	})

	require.Len(t, results, 1)
	text := results[0].Text

	assert.Contains(t, text, "growth equity investment")
	assert.NotContains(t, text, "tracking")
	assert.NotContains(t, text, "display: none")
	assert.NotContains(t, text, "Home | About")
	assert.NotContains(t, text, "Firm Masthead")
	assert.NotContains(t, text, "Related stories")
	assert.NotContains(t, text, "Copyright 2026")
	assert.Equal(t, "Test Firm", results[0].SourceName)
	assert.Equal(t, srv.URL, results[0].SourceURL)
}

func TestFetchAllDropsServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	f := testFetcher()
	results := f.FetchAll(context.Background(), []domain.Source{
		{Name: "Broken", URL: srv.URL},
	})
	assert.Empty(t, results)
}

func TestFetchAllDropsShortPages(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html><body>hi</body></html>"))
	}))
	defer srv.Close()

	f := testFetcher()
	results := f.FetchAll(context.Background(), []domain.Source{{Name: "Tiny", URL: srv.URL}})
	assert.Empty(t, results)
}

func TestFetchAllTruncatesLongPages(t *testing.T) {
	long := "<html><body><p>" + strings.Repeat("deal news ", 5000) + "</p></body></html>"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(long))
	}))
	defer srv.Close()

	f := testFetcher()
	f.MaxTextChars = 15000
	results := f.FetchAll(context.Background(), []domain.Source{{Name: "Long", URL: srv.URL}})

	require.Len(t, results, 1)
	assert.LessOrEqual(t, len(results[0].Text), 15000)
}

func TestFetchAllIsolatesFailures(t *testing.T) {
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(dealPage))
	}))
	defer good.Close()
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer bad.Close()

	f := testFetcher()
	f.BatchSize = 3
	results := f.FetchAll(context.Background(), []domain.Source{
		{Name: "A", URL: good.URL},
		{Name: "B", URL: bad.URL},
		{Name: "C", URL: good.URL + "/other"},
	})

	require.Len(t, results, 2)
	assert.Equal(t, "A", results[0].SourceName)
	assert.Equal(t, "C", results[1].SourceName)
}

func TestExtractTextNormalizesWhitespace(t *testing.T) {
	html := "<html><body><div>  line one  </div>\n\n<div>\n   line two\n</div></body></html>"
	text, err := ExtractText(strings.NewReader(html), 15000)
	require.NoError(t, err)

	for _, line := range strings.Split(text, "\n") {
		assert.Equal(t, strings.TrimSpace(line), line)
		assert.NotEmpty(t, line)
	}
}

func TestTruncateRespectsUTF8(t *testing.T) {
	s := strings.Repeat("é", 10)
	cut := truncate(s, 5)
	assert.LessOrEqual(t, len(cut), 5)
	assert.True(t, strings.HasPrefix(s, cut))
}
