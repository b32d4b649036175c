package extract

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"dealtrack-engine/internal/config"
	"dealtrack-engine/internal/domain"
)

const dateLayout = "2006-01-02"

// Extractor turns fetched page text into candidate deals through the
// completion service, in sequential batches of concurrent calls. The small
// batch size doubles as rate limiting against the completion API.
type Extractor struct {
	Completer   Completer
	BatchSize   int
	RecencyDays int
	EndMarkets  []string
	Now         func() time.Time
	Log         *zap.SugaredLogger
}

func NewExtractor(completer Completer, cfg config.Config, log *zap.SugaredLogger) *Extractor {
	return &Extractor{
		Completer:   completer,
		BatchSize:   cfg.Extract.BatchSize,
		RecencyDays: cfg.Extract.RecencyDays,
		EndMarkets:  domain.EndMarkets,
		Now:         time.Now,
		Log:         log,
	}
}

// ExtractAll returns the concatenated candidates plus one labeled error
// string per failed source. A source failure contributes zero candidates
// and never affects its siblings.
func (e *Extractor) ExtractAll(ctx context.Context, fetches []domain.FetchResult) ([]domain.CandidateDeal, []string) {
	today := e.Now().UTC().Format(dateLayout)

	var all []domain.CandidateDeal
	var errs []string

	for start := 0; start < len(fetches); start += e.BatchSize {
		end := start + e.BatchSize
		if end > len(fetches) {
			end = len(fetches)
		}
		batch := fetches[start:end]

		type outcome struct {
			deals []domain.CandidateDeal
			err   error
		}
		outs := make([]outcome, len(batch))

		var g errgroup.Group
		for i, src := range batch {
			i, src := i, src
			g.Go(func() error {
				deals, err := e.extractOne(ctx, src, today)
				outs[i] = outcome{deals: deals, err: err}
				return nil // settle-all: failures are captured, not propagated
			})
		}
		_ = g.Wait()

		for i, o := range outs {
			if o.err != nil {
				e.Log.Warnw("extraction failed", "source", batch[i].SourceName, "err", o.err)
				errs = append(errs, fmt.Sprintf("%s: %s", batch[i].SourceName, o.err))
				continue
			}
			all = append(all, o.deals...)
		}
	}

	return all, errs
}

func (e *Extractor) extractOne(ctx context.Context, src domain.FetchResult, today string) ([]domain.CandidateDeal, error) {
	prompt := buildPrompt(src, e.EndMarkets, today, strconv.Itoa(e.RecencyDays))

	resp, err := e.Completer.Complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	deals, err := parseDeals(resp)
	if err != nil {
		return nil, err
	}

	kept := deals[:0]
	for _, d := range deals {
		if !e.dateAcceptable(d.Date, today) {
			e.Log.Debugw("candidate dropped for bad date",
				"source", src.SourceName, "company", d.CompanyName, "date", d.Date)
			continue
		}
		kept = append(kept, d)
	}

	if len(kept) > 0 {
		e.Log.Infow("deals extracted", "source", src.SourceName, "count", len(kept))
	}
	return kept, nil
}

// dateAcceptable enforces what the prompt already demands: an explicit
// calendar date no older than the recency window. The model occasionally
// ignores instructions, so the engine re-checks.
func (e *Extractor) dateAcceptable(date, today string) bool {
	if date == "" {
		return false
	}
	d, err := time.Parse(dateLayout, date)
	if err != nil {
		return false
	}
	t, err := time.Parse(dateLayout, today)
	if err != nil {
		return false
	}
	cutoff := t.AddDate(0, 0, -e.RecencyDays)
	return !d.Before(cutoff)
}
