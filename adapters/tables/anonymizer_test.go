package tables

import (
	"path/filepath"
	"testing"

	"github.com/tamslo/pharme-study-result-analyses/domain/core"
	"github.com/tamslo/pharme-study-result-analyses/internal/errors"
)

func TestAnonymizerRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "participant_ids.csv")
	anonymizer, err := NewCSVAnonymizer(path)
	if err != nil {
		t.Fatal(err)
	}

	first, err := anonymizer.Anonymize("subject-42")
	if err != nil {
		t.Fatal(err)
	}
	again, err := anonymizer.Anonymize("subject-42")
	if err != nil {
		t.Fatal(err)
	}
	if first != again {
		t.Errorf("same source ID mapped to %s and %s", first, again)
	}

	sourceID, err := anonymizer.Reveal(first)
	if err != nil {
		t.Fatal(err)
	}
	if sourceID != "subject-42" {
		t.Errorf("Reveal = %s, want subject-42", sourceID)
	}

	if err := anonymizer.Save(); err != nil {
		t.Fatal(err)
	}
	reloaded, err := NewCSVAnonymizer(path)
	if err != nil {
		t.Fatal(err)
	}
	persisted, err := reloaded.Anonymize("subject-42")
	if err != nil {
		t.Fatal(err)
	}
	if persisted != first {
		t.Errorf("mapping not stable across reloads: %s vs %s", persisted, first)
	}
}

func TestAnonymizerRejectsDoubleAnonymization(t *testing.T) {
	anonymizer, err := NewCSVAnonymizer(filepath.Join(t.TempDir(), "ids.csv"))
	if err != nil {
		t.Fatal(err)
	}
	participantID, err := anonymizer.Anonymize("subject-1")
	if err != nil {
		t.Fatal(err)
	}

	_, err = anonymizer.Anonymize(core.SourceID(participantID.String()))
	if err == nil {
		t.Fatal("expected double anonymization to fail")
	}
	if !errors.HasCode(err, errors.CodeDataIntegrity) {
		t.Errorf("unexpected error code: %v", err)
	}
}

func TestAnonymizerRevealUnknownID(t *testing.T) {
	anonymizer, err := NewCSVAnonymizer(filepath.Join(t.TempDir(), "ids.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := anonymizer.Reveal("nobody"); err == nil {
		t.Error("expected a lookup error")
	}
}
