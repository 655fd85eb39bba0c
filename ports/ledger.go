package ports

import (
	"context"

	"github.com/tamslo/pharme-study-result-analyses/domain/stats"
)

// LedgerWriter provides upsert access to the comparison results ledger.
// Rows are keyed by (comparison, item): a new key appends, an existing key
// is overwritten in place, duplicate keys are warned about and left alone.
type LedgerWriter interface {
	Upsert(ctx context.Context, comparison stats.Comparison, item, title string, result stats.ComparisonResult) error
}

// LedgerReader provides read-only access to the ledger for reporting and
// the API surfaces.
type LedgerReader interface {
	Rows(ctx context.Context) ([]stats.LedgerRow, error)
}

// ResultLedger combines write and read access.
type ResultLedger interface {
	LedgerWriter
	LedgerReader
}
