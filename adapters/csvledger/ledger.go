// Package csvledger stores the comparison results ledger as a CSV file in
// the results directory. It is the default ledger backend; the postgres
// adapter implements the same port for shared deployments.
package csvledger

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"

	"github.com/tamslo/pharme-study-result-analyses/domain/stats"
	"github.com/tamslo/pharme-study-result-analyses/internal"
	"github.com/tamslo/pharme-study-result-analyses/internal/errors"
)

var headers = []string{"comparison", "item", "title", "p_value", "statistic", "effect_size", "effect_method", "notes"}

// Ledger is the CSV-backed results ledger. Rows are keyed by
// (comparison, item): a new key appends, an existing key is overwritten in
// place, and duplicate keys are warned about and left untouched so a human
// can clean the file up.
type Ledger struct {
	path   string
	logger *internal.Logger
}

// New creates a ledger at the given CSV path.
func New(path string, logger *internal.Logger) *Ledger {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Ledger{path: path, logger: logger}
}

// Upsert writes one comparison result.
func (l *Ledger) Upsert(_ context.Context, comparison stats.Comparison, item, title string, result stats.ComparisonResult) error {
	rows, err := l.read()
	if err != nil {
		return err
	}
	newRow := stats.LedgerRow{Comparison: comparison, Item: item, Title: title, Result: result}

	var matches []int
	for i, row := range rows {
		if row.Comparison == comparison && row.Item == item {
			matches = append(matches, i)
		}
	}
	switch len(matches) {
	case 0:
		rows = append(rows, newRow)
	case 1:
		rows[matches[0]] = newRow
	default:
		l.logger.Warn(
			"Found %d rows for %s/%s in %s; not updating, please fix the file",
			len(matches), comparison, item, l.path,
		)
		return nil
	}
	return l.write(rows)
}

// Rows returns all ledger entries. A missing file is an empty ledger.
func (l *Ledger) Rows(_ context.Context) ([]stats.LedgerRow, error) {
	return l.read()
}

func (l *Ledger) read() ([]stats.LedgerRow, error) {
	file, err := os.Open(l.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open results table %s", l.path)
	}
	defer file.Close()
	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read results table %s", l.path)
	}
	var rows []stats.LedgerRow
	for i, record := range records {
		if i == 0 {
			continue
		}
		if len(record) != len(headers) {
			return nil, errors.DataIntegrityErrorf(
				"results table %s row %d has %d columns, expected %d", l.path, i, len(record), len(headers),
			)
		}
		pValue, err := strconv.ParseFloat(record[3], 64)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid p-value in results table %s row %d", l.path, i)
		}
		effectSize, err := strconv.ParseFloat(record[5], 64)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid effect size in results table %s row %d", l.path, i)
		}
		rows = append(rows, stats.LedgerRow{
			Comparison: stats.Comparison(record[0]),
			Item:       record[1],
			Title:      record[2],
			Result: stats.ComparisonResult{
				PValue:       pValue,
				Statistic:    record[4],
				EffectSize:   effectSize,
				EffectMethod: record[6],
				Notes:        record[7],
			},
		})
	}
	return rows, nil
}

func (l *Ledger) write(rows []stats.LedgerRow) error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return errors.Wrapf(err, "failed to create directory for %s", l.path)
	}
	file, err := os.Create(l.path)
	if err != nil {
		return errors.Wrapf(err, "failed to create results table %s", l.path)
	}
	defer file.Close()
	writer := csv.NewWriter(file)
	if err := writer.Write(headers); err != nil {
		return errors.Wrapf(err, "failed to write results table %s", l.path)
	}
	for _, row := range rows {
		record := []string{
			string(row.Comparison),
			row.Item,
			row.Title,
			strconv.FormatFloat(row.Result.PValue, 'g', -1, 64),
			row.Result.Statistic,
			strconv.FormatFloat(row.Result.EffectSize, 'g', -1, 64),
			row.Result.EffectMethod,
			row.Result.Notes,
		}
		if err := writer.Write(record); err != nil {
			return errors.Wrapf(err, "failed to write results table %s", l.path)
		}
	}
	writer.Flush()
	return writer.Error()
}
