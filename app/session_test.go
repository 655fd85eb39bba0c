package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestSessionFlagsStaleManualInputs(t *testing.T) {
	rawDir := t.TempDir()
	dataDir := t.TempDir()

	exportTime := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	export := filepath.Join(rawDir, "pharme::comprehension-app.csv")
	writeFile(t, export, "participant_id\n")
	if err := os.Chtimes(export, exportTime, exportTime); err != nil {
		t.Fatal(err)
	}

	stale := filepath.Join(dataDir, "ground_truth.json")
	writeFile(t, stale, "{}")
	if err := os.Chtimes(stale, exportTime.Add(-time.Hour), exportTime.Add(-time.Hour)); err != nil {
		t.Fatal(err)
	}
	fresh := filepath.Join(dataDir, "progress_overrides.json")
	writeFile(t, fresh, "{}")
	if err := os.Chtimes(fresh, exportTime.Add(time.Hour), exportTime.Add(time.Hour)); err != nil {
		t.Fatal(err)
	}
	missing := filepath.Join(dataDir, "enrollment.csv")

	info := NewSessionBuilder(rawDir, nil, stale, fresh, missing).Build()

	if info.GeneratedAt.IsZero() {
		t.Error("expected a generation timestamp")
	}
	if len(info.Files) != 2 {
		t.Fatalf("expected 2 tracked files, got %d", len(info.Files))
	}
	// Sorted ascending by modification time: the stale file first.
	if info.Files[0].Name != "ground_truth.json" || !info.Files[0].Outdated {
		t.Errorf("expected ground_truth.json to be flagged stale, got %+v", info.Files[0])
	}
	if info.Files[1].Name != "progress_overrides.json" || info.Files[1].Outdated {
		t.Errorf("expected progress_overrides.json to be fresh, got %+v", info.Files[1])
	}
}

func TestSessionWithoutExportsFlagsNothing(t *testing.T) {
	rawDir := t.TempDir()
	dataDir := t.TempDir()
	tracked := filepath.Join(dataDir, "ground_truth.json")
	writeFile(t, tracked, "{}")

	info := NewSessionBuilder(rawDir, nil, tracked).Build()
	if len(info.Files) != 1 {
		t.Fatalf("expected 1 tracked file, got %d", len(info.Files))
	}
	if info.Files[0].Outdated {
		t.Error("no export to compare against, nothing should be stale")
	}
}
