package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"dealtrack-engine/internal/domain"
)

// Migrate brings the schema to the current version. Deals are soft-deleted
// (deleted_at set, row retained) so the scraper never re-inserts a deal a
// user removed by hand.
func Migrate(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var v int
	if err := tx.QueryRow(`PRAGMA user_version;`).Scan(&v); err != nil {
		return err
	}
	if v >= 1 {
		return tx.Commit()
	}

	// ---- Schema v1 ----

	if _, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS deals (
  id TEXT PRIMARY KEY,
  date TEXT NOT NULL,
  company_name TEXT NOT NULL,
  investor TEXT NOT NULL,
  amount_raised REAL,
  end_market TEXT NOT NULL DEFAULT 'Other',
  description TEXT NOT NULL DEFAULT '',
  source_url TEXT NOT NULL DEFAULT '',
  status TEXT,
  comments TEXT NOT NULL DEFAULT '',
  created_at TEXT NOT NULL,
  updated_at TEXT NOT NULL,
  deleted_at TEXT
);
`); err != nil {
		return err
	}

	if _, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS scan_logs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  deals_found INTEGER NOT NULL,
  duration_ms INTEGER NOT NULL,
  created_at TEXT NOT NULL
);
`); err != nil {
		return err
	}

	if _, err := tx.Exec(`
CREATE INDEX IF NOT EXISTS idx_deals_date
ON deals(date);
`); err != nil {
		return err
	}

	if _, err := tx.Exec(`PRAGMA user_version = 1;`); err != nil {
		return err
	}

	return tx.Commit()
}

// ListDealProjections returns the duplicate-comparison slice of every deal,
// soft-deleted rows included — a deleted deal must keep suppressing
// re-insertion across runs.
func (d *DB) ListDealProjections(ctx context.Context) ([]domain.DealProjection, error) {
	rows, err := d.Pool.QueryContext(ctx, `
SELECT id, company_name, investor, date
FROM deals;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.DealProjection
	for rows.Next() {
		var p domain.DealProjection
		if err := rows.Scan(&p.ID, &p.CompanyName, &p.Investor, &p.Date); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// BulkInsertDeals inserts accepted candidates in one transaction and
// returns how many rows were written. The transaction is all-or-nothing:
// on failure the count is 0 and nothing is persisted.
func (d *DB) BulkInsertDeals(ctx context.Context, deals []domain.CandidateDeal) (int, error) {
	if len(deals) == 0 {
		return 0, nil
	}

	tx, err := d.Pool.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC().Format(time.RFC3339)
	inserted := 0
	for _, deal := range deals {
		var amount sql.NullFloat64
		if deal.AmountRaised != nil {
			amount = sql.NullFloat64{Float64: *deal.AmountRaised, Valid: true}
		}
		if _, err := tx.ExecContext(ctx, `
INSERT INTO deals(id, date, company_name, investor, amount_raised, end_market,
                  description, source_url, status, comments, created_at, updated_at)
VALUES(?,?,?,?,?,?,?,?,NULL,'',?,?);`,
			uuid.NewString(),
			deal.Date,
			deal.CompanyName,
			deal.Investor,
			amount,
			domain.NormalizeEndMarket(deal.EndMarket),
			deal.Description,
			deal.SourceURL,
			now,
			now,
		); err != nil {
			return 0, err
		}
		inserted++
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return inserted, nil
}

// AppendRunLog records one pipeline run for the dashboard's scan history.
func (d *DB) AppendRunLog(ctx context.Context, recordsInserted int, duration time.Duration) error {
	_, err := d.Pool.ExecContext(ctx, `
INSERT INTO scan_logs(deals_found, duration_ms, created_at)
VALUES(?,?,?);`,
		recordsInserted,
		duration.Milliseconds(),
		time.Now().UTC().Format(time.RFC3339),
	)
	return err
}
