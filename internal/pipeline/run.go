// Package pipeline drives one full scrape → extract → dedup → insert run.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"dealtrack-engine/internal/dedup"
	"dealtrack-engine/internal/domain"
)

// Store is the slice of the persistent store the pipeline needs.
type Store interface {
	ListDealProjections(ctx context.Context) ([]domain.DealProjection, error)
	BulkInsertDeals(ctx context.Context, deals []domain.CandidateDeal) (int, error)
	AppendRunLog(ctx context.Context, recordsInserted int, duration time.Duration) error
}

// Fetcher produces cleaned text for every source that yielded any.
type Fetcher interface {
	FetchAll(ctx context.Context, sources []domain.Source) []domain.FetchResult
}

// Extractor produces candidate deals plus per-source error strings.
type Extractor interface {
	ExtractAll(ctx context.Context, fetches []domain.FetchResult) ([]domain.CandidateDeal, []string)
}

// Notifier posts a best-effort summary of inserted deals.
type Notifier interface {
	NotifyNewDeals(ctx context.Context, deals []domain.CandidateDeal) error
}

// Runner owns one pipeline configuration. Runs are sequential; the caller
// guarantees single-run-at-a-time (the engine holds a file lock and the
// HTTP trigger refuses overlapping runs).
type Runner struct {
	Sources []domain.Source

	Fetcher   Fetcher
	Extractor Extractor // nil when the completion credential is missing
	Dedup     *dedup.Filter
	Store     Store
	Notifier  Notifier

	// OnInserted fires after a run that wrote at least one record.
	OnInserted func(count int)

	Log *zap.SugaredLogger
}

// Run executes the full pipeline and always returns a well-formed result.
// Success means the pipeline reached completion; expected partial failures
// (source timeouts, single-source extraction errors, insert failures)
// accumulate in Errors without flipping it. Only a panic inside the
// orchestration itself yields Success=false.
func (r *Runner) Run(ctx context.Context) (res domain.RunResult) {
	start := time.Now()

	defer func() {
		if rec := recover(); rec != nil {
			r.Log.Errorw("pipeline panicked", "err", rec)
			res = domain.RunResult{
				Success:    false,
				Errors:     []string{fmt.Sprintf("pipeline panic: %v", rec)},
				DurationMs: time.Since(start).Milliseconds(),
			}
		}
	}()

	errs := []string{}

	// An unconfigured completion service is not a failure; the run just has
	// nothing to do.
	if r.Extractor == nil {
		r.Log.Warnw("completion credential missing, skipping run")
		return domain.RunResult{
			Success:    true,
			Errors:     []string{"ANTHROPIC_API_KEY not set"},
			DurationMs: time.Since(start).Milliseconds(),
		}
	}

	// 1. Fetch all sources.
	r.Log.Infow("fetching sources", "count", len(r.Sources))
	fetched := r.Fetcher.FetchAll(ctx, r.Sources)
	r.Log.Infow("sources fetched", "ok", len(fetched), "of", len(r.Sources))

	// 2. Extract candidates.
	candidates, extractErrs := r.Extractor.ExtractAll(ctx, fetched)
	errs = append(errs, extractErrs...)
	r.Log.Infow("candidates extracted", "count", len(candidates), "errors", len(extractErrs))

	// 3. Nothing extracted: a completed, successful run.
	if len(candidates) == 0 {
		r.Log.Infow("no candidates, nothing to do")
		return domain.RunResult{
			Success:        true,
			SourcesFetched: len(fetched),
			Errors:         errs,
			DurationMs:     time.Since(start).Milliseconds(),
		}
	}

	// 4. History, soft-deleted included, is the sole duplicate authority.
	existing, err := r.Store.ListDealProjections(ctx)
	if err != nil {
		errs = append(errs, fmt.Sprintf("list deal history: %s", err))
		return domain.RunResult{
			Success:             false,
			SourcesFetched:      len(fetched),
			CandidatesExtracted: len(candidates),
			Errors:              errs,
			DurationMs:          time.Since(start).Milliseconds(),
		}
	}

	// 5. Dedup.
	dd := r.Dedup.Apply(candidates, existing)
	r.Log.Infow("deduplicated", "accepted", len(dd.Accepted), "skipped", dd.Skipped)

	// 6. Insert. A failed batch leaves inserted at what the store confirmed
	// (0 for the all-or-nothing sqlite transaction) and the run continues.
	inserted := 0
	if len(dd.Accepted) > 0 {
		inserted, err = r.Store.BulkInsertDeals(ctx, dd.Accepted)
		if err != nil {
			r.Log.Errorw("bulk insert failed", "err", err)
			errs = append(errs, fmt.Sprintf("insert failed: %s", err))
		}
	}

	// 7. Best-effort notification.
	if inserted > 0 {
		if err := r.Notifier.NotifyNewDeals(ctx, dd.Accepted[:inserted]); err != nil {
			r.Log.Warnw("notification failed", "err", err)
		}
		if r.OnInserted != nil {
			r.OnInserted(inserted)
		}
	}

	// 8. Run log.
	r.appendRunLog(ctx, inserted, start)

	r.Log.Infow("run complete",
		"inserted", inserted, "skipped", dd.Skipped, "duration_ms", time.Since(start).Milliseconds())

	return domain.RunResult{
		Success:             true,
		SourcesFetched:      len(fetched),
		CandidatesExtracted: len(candidates),
		RecordsInserted:     inserted,
		Errors:              errs,
		DurationMs:          time.Since(start).Milliseconds(),
	}
}

func (r *Runner) appendRunLog(ctx context.Context, inserted int, start time.Time) {
	if err := r.Store.AppendRunLog(ctx, inserted, time.Since(start)); err != nil {
		r.Log.Warnw("run log append failed", "err", err)
	}
}
