// Package postgres is the optional database backend of the comparison
// results ledger, for deployments where several people read the same
// results. Selected at startup when STUDY_DATABASE_URL is set.
package postgres

import (
	"context"
	"math"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/tamslo/pharme-study-result-analyses/domain/stats"
	"github.com/tamslo/pharme-study-result-analyses/internal/errors"
)

const schema = `
CREATE TABLE IF NOT EXISTS comparison_results (
	comparison    TEXT NOT NULL,
	item          TEXT NOT NULL,
	title         TEXT NOT NULL,
	p_value       DOUBLE PRECISION,
	statistic     TEXT NOT NULL,
	effect_size   DOUBLE PRECISION,
	effect_method TEXT NOT NULL,
	notes         TEXT NOT NULL DEFAULT '',
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (comparison, item)
)`

// Ledger is the sqlx-backed results ledger. The (comparison, item) primary
// key gives the same upsert contract as the CSV backend.
type Ledger struct {
	db *sqlx.DB
}

// Connect opens the database and ensures the schema exists.
func Connect(databaseURL string) (*Ledger, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, errors.ExternalServiceError("postgres", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.ExternalServiceError("postgres", err)
	}
	return &Ledger{db: db}, nil
}

// Close releases the database connection.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// Upsert writes one comparison result. NaN values are stored as NULL;
// DOUBLE PRECISION rejects NaN in some drivers and NULL reads back cleanly.
func (l *Ledger) Upsert(ctx context.Context, comparison stats.Comparison, item, title string, result stats.ComparisonResult) error {
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO comparison_results (
			comparison, item, title, p_value, statistic, effect_size, effect_method, notes, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		ON CONFLICT (comparison, item) DO UPDATE SET
			title = EXCLUDED.title,
			p_value = EXCLUDED.p_value,
			statistic = EXCLUDED.statistic,
			effect_size = EXCLUDED.effect_size,
			effect_method = EXCLUDED.effect_method,
			notes = EXCLUDED.notes,
			updated_at = NOW()`,
		comparison, item, title,
		nullableFloat(result.PValue), result.Statistic,
		nullableFloat(result.EffectSize), result.EffectMethod, result.Notes,
	)
	if err != nil {
		return errors.ExternalServiceError("postgres", err)
	}
	return nil
}

// Rows returns all ledger entries in insertion order.
func (l *Ledger) Rows(ctx context.Context) ([]stats.LedgerRow, error) {
	type dbRow struct {
		Comparison   string   `db:"comparison"`
		Item         string   `db:"item"`
		Title        string   `db:"title"`
		PValue       *float64 `db:"p_value"`
		Statistic    string   `db:"statistic"`
		EffectSize   *float64 `db:"effect_size"`
		EffectMethod string   `db:"effect_method"`
		Notes        string   `db:"notes"`
	}
	var raw []dbRow
	err := l.db.SelectContext(ctx, &raw, `
		SELECT comparison, item, title, p_value, statistic, effect_size, effect_method, notes
		FROM comparison_results
		ORDER BY updated_at, comparison, item`)
	if err != nil {
		return nil, errors.ExternalServiceError("postgres", err)
	}
	rows := make([]stats.LedgerRow, 0, len(raw))
	for _, row := range raw {
		rows = append(rows, stats.LedgerRow{
			Comparison: stats.Comparison(row.Comparison),
			Item:       row.Item,
			Title:      row.Title,
			Result: stats.ComparisonResult{
				PValue:       floatOrNaN(row.PValue),
				Statistic:    row.Statistic,
				EffectSize:   floatOrNaN(row.EffectSize),
				EffectMethod: row.EffectMethod,
				Notes:        row.Notes,
			},
		})
	}
	return rows, nil
}

func nullableFloat(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}

func floatOrNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}
