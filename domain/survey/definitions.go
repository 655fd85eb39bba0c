package survey

// AnswerType tags how a question's answers are structured. The tags are the
// literal type strings of the export platform's definition tables.
type AnswerType string

const (
	// AnswerSingleChoice questions carry an ordered option list.
	AnswerSingleChoice AnswerType = "RADIO_CHOICE"
	// AnswerYesNo questions synthesize a fixed yes/no option pair.
	AnswerYesNo AnswerType = "YESNO_CHOICE"
	// AnswerFreeText questions have no option mapping at all.
	AnswerFreeText AnswerType = "TEXTAREA"
	// AnswerScale questions are numeric sliders with labeled bounds.
	AnswerScale AnswerType = "H_SCALE"
)

// AnswerOption is one entry of a single-choice (or synthesized yes/no)
// option list. Score is nil when the schema defines no explicit score for
// the option.
type AnswerOption struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Score *int   `json:"score,omitempty"`
}

// ScaleDefinition holds the bounds of an H_SCALE question.
type ScaleDefinition struct {
	Min         float64
	MinLabel    string
	Max         float64
	MaxLabel    string
	Description string
}

// AnswerDefinition is the per-question answer metadata from a survey's
// definition table.
type AnswerDefinition struct {
	Title   string
	Type    AnswerType
	Options []AnswerOption
	Scale   *ScaleDefinition
}

// YesNoOptions is the fixed pair synthesized for AnswerYesNo questions;
// the stored schema is not consulted for these.
func YesNoOptions() []AnswerOption {
	return []AnswerOption{
		{Key: "yes", Label: "Yes"},
		{Key: "no", Label: "No"},
	}
}

// DefinitionTable is the ordered list of answer definitions for one survey.
type DefinitionTable struct {
	Survey      Survey
	Definitions []AnswerDefinition
}

// ByTitle returns the definition with the given question title.
func (t *DefinitionTable) ByTitle(title string) (AnswerDefinition, bool) {
	for _, def := range t.Definitions {
		if def.Title == title {
			return def, true
		}
	}
	return AnswerDefinition{}, false
}

// ByIndex returns the definition at the given position.
func (t *DefinitionTable) ByIndex(index int) (AnswerDefinition, bool) {
	if index < 0 || index >= len(t.Definitions) {
		return AnswerDefinition{}, false
	}
	return t.Definitions[index], true
}

// Titles returns the question titles in definition order.
func (t *DefinitionTable) Titles() []string {
	titles := make([]string, len(t.Definitions))
	for i, def := range t.Definitions {
		titles[i] = def.Title
	}
	return titles
}
