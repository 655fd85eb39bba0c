package survey

import (
	"testing"
)

func TestParseOptions_ValidJSON(t *testing.T) {
	options, err := ParseOptions(`[{"key": "agree", "label": "Agree", "score": 3}]`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(options) != 1 {
		t.Fatalf("expected one option, got %d", len(options))
	}
	if options[0].Key != "agree" || options[0].Label != "Agree" {
		t.Errorf("unexpected option: %+v", options[0])
	}
	if options[0].Score == nil || *options[0].Score != 3 {
		t.Errorf("expected score 3, got %v", options[0].Score)
	}
}

func TestParseOptions_Empty(t *testing.T) {
	options, err := ParseOptions("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if options != nil {
		t.Errorf("expected nil options for empty schema, got %v", options)
	}
}

func TestParseOptions_LegacySingleQuoted(t *testing.T) {
	raw := `[{'key': 'strongly_agree', 'label': 'Strongly agree'}, {'key': 'disagree', 'label': 'Disagree'}]`
	options, err := ParseOptions(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(options) != 2 {
		t.Fatalf("expected two options, got %d", len(options))
	}
	if options[0].Key != "strongly_agree" || options[1].Label != "Disagree" {
		t.Errorf("unexpected options: %+v", options)
	}
}

func TestParseOptions_ApostropheInsideLabel(t *testing.T) {
	raw := `[{'key': 'dont_know', 'label': 'I don't know'}]`
	options, err := ParseOptions(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if options[0].Label != "I don't know" {
		t.Errorf("apostrophe corrupted label: %q", options[0].Label)
	}
}

func TestParseOptions_BracesInsideLabel(t *testing.T) {
	raw := `[{'key': 'other', 'label': 'Other {please specify}'}]`
	options, err := ParseOptions(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if options[0].Label != "Other {please specify}" {
		t.Errorf("braces corrupted label: %q", options[0].Label)
	}
}

func TestParseOptions_LegacyEqualsCleanJSON(t *testing.T) {
	legacy := `[{'key': 'yes', 'label': 'Yes', 'score': 1}, {'key': 'no', 'label': 'No', 'score': 0}]`
	clean := `[{"key": "yes", "label": "Yes", "score": 1}, {"key": "no", "label": "No", "score": 0}]`
	fromLegacy, err := ParseOptions(legacy)
	if err != nil {
		t.Fatalf("legacy parse failed: %v", err)
	}
	fromClean, err := ParseOptions(clean)
	if err != nil {
		t.Fatalf("clean parse failed: %v", err)
	}
	if len(fromLegacy) != len(fromClean) {
		t.Fatalf("length mismatch: %d vs %d", len(fromLegacy), len(fromClean))
	}
	for i := range fromClean {
		if fromLegacy[i].Key != fromClean[i].Key || fromLegacy[i].Label != fromClean[i].Label {
			t.Errorf("option %d differs: %+v vs %+v", i, fromLegacy[i], fromClean[i])
		}
		if (fromLegacy[i].Score == nil) != (fromClean[i].Score == nil) {
			t.Errorf("option %d score presence differs", i)
		}
	}
}
