package survey

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ParseOptions decodes a stored option schema into an option list. Schemas
// are JSON; exports from the legacy platform use a single-quoted dialect
// instead, which is normalized before decoding. An empty schema yields nil,
// meaning no ordinal/categorical label mapping exists for the question.
func ParseOptions(raw string) ([]AnswerOption, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, nil
	}
	var options []AnswerOption
	if err := json.Unmarshal([]byte(trimmed), &options); err == nil {
		return options, nil
	}
	normalized := normalizeLegacyOptions(trimmed)
	if err := json.Unmarshal([]byte(normalized), &options); err != nil {
		return nil, fmt.Errorf("invalid option schema %q: %w", raw, err)
	}
	return options, nil
}

// normalizeLegacyOptions converts the single-quoted schema dialect to valid
// JSON. Quote characters are tracked positionally so apostrophes and braces
// inside label text survive: a single quote only opens a string right after
// a structural character, and only closes one right before a structural
// character.
func normalizeLegacyOptions(raw string) string {
	var b strings.Builder
	runes := []rune(raw)
	inString := false
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if !inString {
			if r == '\'' && isStringStart(prevStructural(runes, i)) {
				inString = true
				b.WriteRune('"')
				continue
			}
			b.WriteRune(r)
			continue
		}
		switch r {
		case '\'':
			if isStringEnd(nextStructural(runes, i)) {
				inString = false
				b.WriteRune('"')
				continue
			}
			// Apostrophe inside label text.
			b.WriteRune(r)
		case '"':
			b.WriteString(`\"`)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func prevStructural(runes []rune, i int) rune {
	for j := i - 1; j >= 0; j-- {
		if runes[j] == ' ' || runes[j] == '\t' || runes[j] == '\n' {
			continue
		}
		return runes[j]
	}
	return 0
}

func nextStructural(runes []rune, i int) rune {
	for j := i + 1; j < len(runes); j++ {
		if runes[j] == ' ' || runes[j] == '\t' || runes[j] == '\n' {
			continue
		}
		return runes[j]
	}
	return 0
}

func isStringStart(prev rune) bool {
	switch prev {
	case '{', '[', ',', ':':
		return true
	}
	return false
}

func isStringEnd(next rune) bool {
	switch next {
	case '}', ']', ',', ':':
		return true
	}
	return false
}
