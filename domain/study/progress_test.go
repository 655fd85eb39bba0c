package study

import (
	"strings"
	"testing"

	"github.com/tamslo/pharme-study-result-analyses/domain/core"
)

func TestProgressMergeOuterJoins(t *testing.T) {
	progress := NewProgressTable()
	if err := progress.Merge("p1", map[string]string{"brief_t0": "2024-01-10", "brief_t30": ""}); err != nil {
		t.Fatalf("first merge failed: %v", err)
	}
	if err := progress.Merge("p1", map[string]string{"brief_t30": "2024-02-10", "gse_t0": "2024-01-10"}); err != nil {
		t.Fatalf("second merge failed: %v", err)
	}

	row, ok := progress.Row("p1")
	if !ok {
		t.Fatal("expected a row for p1")
	}
	want := map[string]string{"brief_t0": "2024-01-10", "brief_t30": "2024-02-10", "gse_t0": "2024-01-10"}
	for column, value := range want {
		if row[column] != value {
			t.Errorf("column %s = %q, want %q", column, row[column], value)
		}
	}
}

func TestProgressMergeRejectsConflictingDuplicates(t *testing.T) {
	progress := NewProgressTable()
	if err := progress.Merge("p1", map[string]string{"brief_t0": "2024-01-10"}); err != nil {
		t.Fatalf("first merge failed: %v", err)
	}

	err := progress.Merge("p1", map[string]string{"brief_t0": "2024-01-11"})
	if err == nil {
		t.Fatal("expected a uniqueness violation")
	}
	if !strings.Contains(err.Error(), "unique") {
		t.Errorf("unexpected error: %v", err)
	}

	// An agreeing duplicate is not a conflict.
	if err := progress.Merge("p1", map[string]string{"brief_t0": "2024-01-10"}); err != nil {
		t.Errorf("agreeing duplicate rejected: %v", err)
	}
}

func TestProgressOverrideWinsOverMergedData(t *testing.T) {
	progress := NewProgressTable()
	if err := progress.Merge("p1", map[string]string{"brief_t0": "2024-01-10"}); err != nil {
		t.Fatal(err)
	}
	if err := progress.Override("p1", "brief_t0", ""); err != nil {
		t.Fatalf("override failed: %v", err)
	}

	completed, hasRecord := progress.Completed("p1", "brief", ResultReturn)
	if !hasRecord {
		t.Fatal("expected a progress record")
	}
	if completed {
		t.Error("override should have cleared the completion")
	}

	if err := progress.Override("p2", "brief_t0", "2024-01-10"); err == nil {
		t.Error("override without a row should fail")
	}
}

func TestProgressCompleted(t *testing.T) {
	progress := NewProgressTable()
	if err := progress.Merge("p1", map[string]string{"brief_t0": "2024-01-10", "brief_t30": " "}); err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		name          string
		participantID core.ParticipantID
		timePoint     TimePoint
		completed     bool
		hasRecord     bool
	}{
		{"non-empty cell", "p1", ResultReturn, true, true},
		{"whitespace cell", "p1", OneMonthFollowUp, false, true},
		{"absent column", "p1", ThreeMonthFollowUp, false, true},
		{"unknown participant", "p2", ResultReturn, false, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			completed, hasRecord := progress.Completed(c.participantID, "brief", c.timePoint)
			if completed != c.completed || hasRecord != c.hasRecord {
				t.Errorf("Completed = (%t, %t), want (%t, %t)", completed, hasRecord, c.completed, c.hasRecord)
			}
		})
	}
}
