package scoring

import (
	"github.com/tamslo/pharme-study-result-analyses/domain/survey"
	"github.com/tamslo/pharme-study-result-analyses/internal/errors"
	"github.com/tamslo/pharme-study-result-analyses/ports"
)

// DefinitionResolver answers metadata questions about survey answers:
// option lists, label definitions and per-answer scores. Definition tables
// are loaded once per survey and cached for the run.
type DefinitionResolver struct {
	source ports.DefinitionSource
	rules  *Rules
	cache  map[string]*survey.DefinitionTable
}

// NewDefinitionResolver creates a resolver over a definition source.
func NewDefinitionResolver(source ports.DefinitionSource, rules *Rules) *DefinitionResolver {
	if rules == nil {
		rules = DefaultRules()
	}
	return &DefinitionResolver{
		source: source,
		rules:  rules,
		cache:  make(map[string]*survey.DefinitionTable),
	}
}

// Table returns the (cached) definition table of a survey.
func (r *DefinitionResolver) Table(s survey.Survey) (*survey.DefinitionTable, error) {
	if table, ok := r.cache[s.Name]; ok {
		return table, nil
	}
	table, err := r.source.DefinitionTable(s)
	if err != nil {
		return nil, err
	}
	r.cache[s.Name] = table
	return table, nil
}

// Definition resolves the answer definition for a question title. Questions
// absent from the definition table fail loudly; every question referenced in
// a survey row must resolve to exactly one definition.
func (r *DefinitionResolver) Definition(s survey.Survey, title string) (survey.AnswerDefinition, error) {
	table, err := r.Table(s)
	if err != nil {
		return survey.AnswerDefinition{}, err
	}
	def, ok := table.ByTitle(title)
	if !ok {
		return survey.AnswerDefinition{}, errors.LookupErrorf(
			"question %q not found in definition table of %s", title, s.Name,
		)
	}
	return def, nil
}

// DefinitionByIndex resolves the answer definition at a position of the
// definition ordering.
func (r *DefinitionResolver) DefinitionByIndex(s survey.Survey, index int) (survey.AnswerDefinition, error) {
	table, err := r.Table(s)
	if err != nil {
		return survey.AnswerDefinition{}, err
	}
	def, ok := table.ByIndex(index)
	if !ok {
		return survey.AnswerDefinition{}, errors.LookupErrorf(
			"no question at index %d in definition table of %s", index, s.Name,
		)
	}
	return def, nil
}

// Options returns the option list for a question. Yes/no questions
// synthesize the fixed pair without consulting the stored schema; free-text
// questions and questions without a stored schema return nil, meaning no
// ordinal/categorical label mapping exists and the caller must branch.
func (r *DefinitionResolver) Options(s survey.Survey, title string) ([]survey.AnswerOption, error) {
	def, err := r.Definition(s, title)
	if err != nil {
		return nil, err
	}
	switch def.Type {
	case survey.AnswerYesNo:
		return survey.YesNoOptions(), nil
	case survey.AnswerFreeText:
		return nil, nil
	}
	return def.Options, nil
}

// LabelDefinition maps option keys to display labels, in option order.
// Returns nil keys when no option mapping exists.
func (r *DefinitionResolver) LabelDefinition(s survey.Survey, title string) (keys []string, labels map[string]string, err error) {
	options, err := r.Options(s, title)
	if err != nil || options == nil {
		return nil, nil, err
	}
	labels = make(map[string]string, len(options))
	for _, option := range options {
		keys = append(keys, option.Key)
		labels[option.Key] = option.Label
	}
	return keys, labels, nil
}

// SingleScore returns the score for one answer key, or nil when the key has
// no matching definition entry (e.g. the entry was removed from the schema).
// The comprehension survey falls back to the fixed Likert mapping when the
// schema carries no explicit score; any other survey without explicit scores
// is a configuration error.
func (r *DefinitionResolver) SingleScore(s survey.Survey, title, answerKey string) (*int, error) {
	options, err := r.Options(s, title)
	if err != nil {
		return nil, err
	}
	var match *survey.AnswerOption
	for i := range options {
		if options[i].Key == answerKey {
			match = &options[i]
			break
		}
	}
	if match == nil {
		return nil, nil
	}
	if match.Score != nil {
		score := *match.Score
		return &score, nil
	}
	if s.Name == survey.Comprehension.Name {
		score, ok := r.rules.ComprehensionFallbackScores[match.Key]
		if !ok {
			return nil, errors.ConfigurationErrorf(
				"no fallback score for comprehension answer %q", match.Key,
			)
		}
		return &score, nil
	}
	return nil, errors.ConfigurationErrorf("define scores for %s", s.Name)
}

// IsOrdinal reports whether a question's answers are rank-orderable: the
// option keys contain one of the configured ordinal markers.
func (r *DefinitionResolver) IsOrdinal(s survey.Survey, title string) (bool, error) {
	options, err := r.Options(s, title)
	if err != nil || options == nil {
		return false, err
	}
	for _, option := range options {
		for _, marker := range r.rules.OrdinalMarkers {
			if option.Key == marker {
				return true, nil
			}
		}
	}
	return false, nil
}

// IsFreeText reports whether a question collects free text.
func (r *DefinitionResolver) IsFreeText(s survey.Survey, title string) (bool, error) {
	def, err := r.Definition(s, title)
	if err != nil {
		return false, err
	}
	return def.Type == survey.AnswerFreeText, nil
}
