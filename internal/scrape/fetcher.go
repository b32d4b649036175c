package scrape

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"dealtrack-engine/internal/config"
	"dealtrack-engine/internal/domain"
)

const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Elements stripped before text extraction; everything inside them is
// boilerplate, not deal announcements.
const strippedElements = "script, style, nav, footer, header, aside"

// Fetcher retrieves source pages and reduces them to clean, bounded text.
type Fetcher struct {
	Client       *http.Client
	UserAgent    string
	BatchSize    int
	MaxTextChars int
	MinTextChars int
	Limiter      *HostLimiter
	Log          *zap.SugaredLogger
}

func NewFetcher(cfg config.Config, log *zap.SugaredLogger) *Fetcher {
	return &Fetcher{
		Client: &http.Client{
			Timeout: time.Duration(cfg.Scrape.TimeoutSeconds) * time.Second,
		},
		UserAgent:    browserUserAgent,
		BatchSize:    cfg.Scrape.BatchSize,
		MaxTextChars: cfg.Scrape.MaxTextChars,
		MinTextChars: cfg.Scrape.MinTextChars,
		Limiter:      NewHostLimiter(cfg.Scrape.HostReqPerSec, cfg.Scrape.HostBurst),
		Log:          log,
	}
}

// FetchAll processes sources in sequential batches of BatchSize; within a
// batch every fetch runs concurrently and settles on its own. A failed
// source is simply absent from the output — the next scheduled run retries
// it naturally.
func (f *Fetcher) FetchAll(ctx context.Context, sources []domain.Source) []domain.FetchResult {
	var results []domain.FetchResult

	for start := 0; start < len(sources); start += f.BatchSize {
		end := start + f.BatchSize
		if end > len(sources) {
			end = len(sources)
		}
		batch := sources[start:end]

		out := make([]*domain.FetchResult, len(batch))
		var g errgroup.Group
		for i, src := range batch {
			i, src := i, src
			g.Go(func() error {
				res, err := f.fetchOne(ctx, src)
				if err != nil {
					f.Log.Warnw("fetch dropped", "source", src.Name, "url", src.URL, "err", err)
					return nil // best-effort: never cancel siblings
				}
				out[i] = res
				return nil
			})
		}
		_ = g.Wait()

		for _, r := range out {
			if r != nil {
				results = append(results, *r)
			}
		}
	}

	return results
}

func (f *Fetcher) fetchOne(ctx context.Context, src domain.Source) (*domain.FetchResult, error) {
	if err := f.Limiter.WaitURL(ctx, src.URL); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", f.UserAgent)

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("http %d", resp.StatusCode)
	}

	text, err := ExtractText(resp.Body, f.MaxTextChars)
	if err != nil {
		return nil, err
	}
	if len(text) < f.MinTextChars {
		return nil, fmt.Errorf("page text too short (%d chars)", len(text))
	}

	return &domain.FetchResult{
		SourceName: src.Name,
		SourceURL:  src.URL,
		Text:       text,
	}, nil
}

// ExtractText parses HTML, strips non-content elements, collapses the rest
// to whitespace-normalized lines, and truncates to maxChars to bound the
// extraction prompt size.
func ExtractText(r io.Reader, maxChars int) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	doc.Find(strippedElements).Remove()

	var lines []string
	for _, line := range strings.Split(doc.Text(), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}

	return truncate(strings.Join(lines, "\n"), maxChars), nil
}

// truncate cuts at maxChars without splitting a UTF-8 sequence.
func truncate(s string, maxChars int) string {
	if len(s) <= maxChars {
		return s
	}
	cut := s[:maxChars]
	for !utf8.ValidString(cut) {
		cut = cut[:len(cut)-1]
	}
	return cut
}
