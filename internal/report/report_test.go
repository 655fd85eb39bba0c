package report

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/tamslo/pharme-study-result-analyses/domain/core"
	"github.com/tamslo/pharme-study-result-analyses/domain/stats"
)

func intPtr(v int) *int { return &v }

func TestSummarizeScores(t *testing.T) {
	table := stats.ScoreTable{
		{ParticipantID: "p1", Score: intPtr(3)},
		{ParticipantID: "p2", Score: intPtr(1)},
		{ParticipantID: "p3", Score: nil},
		{ParticipantID: "p4", Score: intPtr(2)},
	}
	summary, err := SummarizeScores("comprehension_t0", table)
	if err != nil {
		t.Fatal(err)
	}
	if summary.Count != 3 {
		t.Errorf("Count = %d, want 3 (undefined scores skipped)", summary.Count)
	}
	if summary.Mean != 2 || summary.Median != 2 || summary.Min != 1 || summary.Max != 3 {
		t.Errorf("unexpected summary: %+v", summary)
	}

	empty, err := SummarizeScores("satisfaction_t90", nil)
	if err != nil {
		t.Fatal(err)
	}
	if empty.Count != 0 || empty.Name != "satisfaction_t90" {
		t.Errorf("unexpected empty summary: %+v", empty)
	}
}

func TestRender(t *testing.T) {
	generated := core.Timestamp(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	info := SessionInfo{
		GeneratedAt: generated,
		Files: []FileStatus{
			{Name: "ground_truth.json", ModTime: generated, Outdated: true},
		},
	}
	rows := []stats.LedgerRow{
		{
			Comparison: stats.ComparisonStudyGroups,
			Item:       "comprehension_t0",
			Title:      "Comprehension (result return)",
			Result:     stats.MannWhitneyUResult(0.1573, -0.7778, "large effect"),
		},
		{
			Comparison: stats.ComparisonTimePoints,
			Item:       "gse_pharme_t0_t30",
			Title:      "GSE over time",
			Result:     stats.McNemarResult(math.NaN(), math.NaN(), "No paired data"),
		},
	}
	summaries := []ScoreSummary{
		{Name: "comprehension_t0", Count: 6, Mean: 1.83, Median: 2, Min: 1, Max: 3},
	}

	rendered := Render(info, rows, summaries)

	for _, fragment := range []string{
		"# Study Results",
		"older than the newest export",
		"| comprehension_t0 | 6 |",
		"| study_groups | comprehension_t0 |",
		"mannwhitneyu",
		"No paired data",
	} {
		if !strings.Contains(rendered, fragment) {
			t.Errorf("rendered report is missing %q", fragment)
		}
	}
	// An undefined effect renders as an empty cell, not as NaN.
	if !strings.Contains(rendered, "| mcnemar |  | ɸ |") {
		t.Error("undefined effects should render as an empty cell")
	}
}

func TestRenderWithoutResults(t *testing.T) {
	rendered := Render(SessionInfo{GeneratedAt: core.Now()}, nil, nil)
	if !strings.Contains(rendered, "No comparison results yet.") {
		t.Error("expected the empty-ledger message")
	}
}

func TestToHTMLRendersTables(t *testing.T) {
	source := "| a | b |\n| --- | --- |\n| 1 | 2 |\n"
	rendered := string(ToHTML([]byte(source)))
	if !strings.Contains(rendered, "<table>") {
		t.Errorf("expected an HTML table, got %s", rendered)
	}
}
