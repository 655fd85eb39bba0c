package csvledger

import (
	"context"
	"encoding/csv"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/tamslo/pharme-study-result-analyses/domain/stats"
)

func newTestLedger(t *testing.T) *Ledger {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "results_table.csv"), nil)
}

func TestLedger_UpsertCreatesAndAppends(t *testing.T) {
	ledger := newTestLedger(t)
	ctx := context.Background()

	if err := ledger.Upsert(ctx, stats.ComparisonStudyGroups, "comprehension_t0", "Comprehension at result return", stats.TTestResult(0.12, 0.4, "")); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := ledger.Upsert(ctx, stats.ComparisonTimePoints, "comprehension_pharme_t0_t30", "Comprehension over time (PharMe)", stats.WilcoxonResult(0.7, -0.1, "")); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	rows, err := ledger.Rows(ctx)
	if err != nil {
		t.Fatalf("Rows: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].Item != "comprehension_t0" || rows[1].Item != "comprehension_pharme_t0_t30" {
		t.Errorf("unexpected row order: %+v", rows)
	}
}

func TestLedger_UpsertOverwritesSingleMatch(t *testing.T) {
	ledger := newTestLedger(t)
	ctx := context.Background()

	if err := ledger.Upsert(ctx, stats.ComparisonStudyGroups, "brief_t0", "BRIEF at result return", stats.TTestResult(0.9, 0.01, "")); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := ledger.Upsert(ctx, stats.ComparisonStudyGroups, "brief_t0", "BRIEF at result return", stats.MannWhitneyUResult(0.04, 0.6, "")); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	rows, err := ledger.Rows(ctx)
	if err != nil {
		t.Fatalf("Rows: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected the row to be overwritten, got %d rows", len(rows))
	}
	if rows[0].Result.Statistic != stats.StatisticMannWhitney || rows[0].Result.PValue != 0.04 {
		t.Errorf("unexpected surviving row: %+v", rows[0])
	}
}

func TestLedger_UpsertLeavesDuplicatesAlone(t *testing.T) {
	ledger := newTestLedger(t)
	ctx := context.Background()

	// Hand-craft a file with a duplicated key.
	file, err := os.Create(ledger.path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	writer := csv.NewWriter(file)
	records := [][]string{
		headers,
		{"study_groups", "gse_t0", "GSE at result return", "0.5", "t-test", "0.1", "d", ""},
		{"study_groups", "gse_t0", "GSE at result return", "0.6", "t-test", "0.2", "d", ""},
	}
	if err := writer.WriteAll(records); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	file.Close()

	if err := ledger.Upsert(ctx, stats.ComparisonStudyGroups, "gse_t0", "GSE at result return", stats.TTestResult(0.01, 0.9, "")); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	rows, err := ledger.Rows(ctx)
	if err != nil {
		t.Fatalf("Rows: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected duplicates to survive untouched, got %d rows", len(rows))
	}
	if rows[0].Result.PValue != 0.5 || rows[1].Result.PValue != 0.6 {
		t.Errorf("duplicate rows were modified: %+v", rows)
	}
}

func TestLedger_RoundTripsNaNEffects(t *testing.T) {
	ledger := newTestLedger(t)
	ctx := context.Background()

	result := stats.McNemarResult(math.NaN(), math.NaN(), "No paired data")
	if err := ledger.Upsert(ctx, stats.ComparisonTimePoints, "actions_pharme_t0_t30", "Actions over time (PharMe)", result); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	rows, err := ledger.Rows(ctx)
	if err != nil {
		t.Fatalf("Rows: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected one row, got %d", len(rows))
	}
	if !math.IsNaN(rows[0].Result.PValue) || rows[0].Result.HasEffect() {
		t.Errorf("NaN values did not survive the round trip: %+v", rows[0])
	}
	if rows[0].Result.Notes != "No paired data" {
		t.Errorf("unexpected notes: %q", rows[0].Result.Notes)
	}
}

func TestLedger_MissingFileIsEmpty(t *testing.T) {
	ledger := newTestLedger(t)

	rows, err := ledger.Rows(context.Background())
	if err != nil {
		t.Fatalf("Rows: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("expected empty ledger, got %d rows", len(rows))
	}
}
