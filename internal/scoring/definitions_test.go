package scoring

import (
	"testing"

	"github.com/tamslo/pharme-study-result-analyses/domain/survey"
	"github.com/tamslo/pharme-study-result-analyses/internal/errors"
)

type fakeDefinitionSource struct {
	tables map[string]*survey.DefinitionTable
	loads  int
}

func (f *fakeDefinitionSource) DefinitionTable(s survey.Survey) (*survey.DefinitionTable, error) {
	f.loads++
	table, ok := f.tables[s.Name]
	if !ok {
		return nil, errors.LookupErrorf("no definition table for %s", s.Name)
	}
	return table, nil
}

func intPtr(v int) *int {
	return &v
}

func definitionFixture(s survey.Survey, defs ...survey.AnswerDefinition) *fakeDefinitionSource {
	return &fakeDefinitionSource{tables: map[string]*survey.DefinitionTable{
		s.Name: {Survey: s, Definitions: defs},
	}}
}

func TestDefinitionResolver_CachesTables(t *testing.T) {
	source := definitionFixture(survey.HealthLiteracy, survey.AnswerDefinition{
		Title: "How confident are you filling out medical forms by yourself?",
		Type:  survey.AnswerSingleChoice,
	})
	resolver := NewDefinitionResolver(source, nil)

	for i := 0; i < 3; i++ {
		if _, err := resolver.Table(survey.HealthLiteracy); err != nil {
			t.Fatalf("Table: %v", err)
		}
	}
	if source.loads != 1 {
		t.Errorf("expected one source load, got %d", source.loads)
	}
}

func TestDefinitionResolver_YesNoSynthesizesOptions(t *testing.T) {
	source := definitionFixture(survey.Comprehension, survey.AnswerDefinition{
		Title: "Do you know where to find your PGx test results?",
		Type:  survey.AnswerYesNo,
		// A stored schema on a yes/no question must be ignored.
		Options: []survey.AnswerOption{{Key: "maybe", Label: "Maybe"}},
	})
	resolver := NewDefinitionResolver(source, nil)

	options, err := resolver.Options(survey.Comprehension, "Do you know where to find your PGx test results?")
	if err != nil {
		t.Fatalf("Options: %v", err)
	}
	if len(options) != 2 || options[0].Key != "yes" || options[1].Key != "no" {
		t.Errorf("unexpected yes/no options: %+v", options)
	}
}

func TestDefinitionResolver_FreeTextHasNoOptions(t *testing.T) {
	source := definitionFixture(survey.Comprehension, survey.AnswerDefinition{
		Title: "Anything else you would like to share?",
		Type:  survey.AnswerFreeText,
	})
	resolver := NewDefinitionResolver(source, nil)

	options, err := resolver.Options(survey.Comprehension, "Anything else you would like to share?")
	if err != nil {
		t.Fatalf("Options: %v", err)
	}
	if options != nil {
		t.Errorf("expected nil options for free text, got %+v", options)
	}
	freeText, err := resolver.IsFreeText(survey.Comprehension, "Anything else you would like to share?")
	if err != nil {
		t.Fatalf("IsFreeText: %v", err)
	}
	if !freeText {
		t.Error("expected free-text question")
	}
}

func TestDefinitionResolver_UnknownTitleFailsLookup(t *testing.T) {
	source := definitionFixture(survey.GeneralSelfEfficacy)
	resolver := NewDefinitionResolver(source, nil)

	_, err := resolver.Definition(survey.GeneralSelfEfficacy, "I can always manage to solve difficult problems")
	if !errors.HasCode(err, errors.CodeLookup) {
		t.Errorf("expected lookup error, got %v", err)
	}
}

func TestDefinitionResolver_SingleScore(t *testing.T) {
	scored := survey.AnswerDefinition{
		Title: "I feel well informed about my test results",
		Type:  survey.AnswerSingleChoice,
		Options: []survey.AnswerOption{
			{Key: "not_at_all_true", Label: "Not at all true", Score: intPtr(1)},
			{Key: "exactly_true", Label: "Exactly true", Score: intPtr(4)},
		},
	}
	unscored := survey.AnswerDefinition{
		Title: "My test results are easy to understand",
		Type:  survey.AnswerSingleChoice,
		Options: []survey.AnswerOption{
			{Key: "agree", Label: "Agree"},
		},
	}

	t.Run("explicit score", func(t *testing.T) {
		resolver := NewDefinitionResolver(definitionFixture(survey.GeneralSelfEfficacy, scored), nil)
		score, err := resolver.SingleScore(survey.GeneralSelfEfficacy, scored.Title, "exactly_true")
		if err != nil {
			t.Fatalf("SingleScore: %v", err)
		}
		if score == nil || *score != 4 {
			t.Errorf("expected score 4, got %v", score)
		}
	})

	t.Run("removed answer key scores nil", func(t *testing.T) {
		resolver := NewDefinitionResolver(definitionFixture(survey.GeneralSelfEfficacy, scored), nil)
		score, err := resolver.SingleScore(survey.GeneralSelfEfficacy, scored.Title, "somewhat_true")
		if err != nil {
			t.Fatalf("SingleScore: %v", err)
		}
		if score != nil {
			t.Errorf("expected nil score for removed key, got %d", *score)
		}
	})

	t.Run("comprehension falls back to likert", func(t *testing.T) {
		resolver := NewDefinitionResolver(definitionFixture(survey.Comprehension, unscored), nil)
		score, err := resolver.SingleScore(survey.Comprehension, unscored.Title, "agree")
		if err != nil {
			t.Fatalf("SingleScore: %v", err)
		}
		if score == nil || *score != 3 {
			t.Errorf("expected fallback score 3, got %v", score)
		}
	})

	t.Run("other surveys without scores fail loudly", func(t *testing.T) {
		resolver := NewDefinitionResolver(definitionFixture(survey.GeneralSelfEfficacy, unscored), nil)
		_, err := resolver.SingleScore(survey.GeneralSelfEfficacy, unscored.Title, "agree")
		if !errors.HasCode(err, errors.CodeConfiguration) {
			t.Errorf("expected configuration error, got %v", err)
		}
	})
}

func TestDefinitionResolver_IsOrdinal(t *testing.T) {
	ordinal := survey.AnswerDefinition{
		Title: "I am satisfied with the result communication",
		Type:  survey.AnswerSingleChoice,
		Options: []survey.AnswerOption{
			{Key: "disagree", Label: "Disagree"},
			{Key: "agree", Label: "Agree"},
		},
	}
	categorical := survey.AnswerDefinition{
		Title: "Which device do you use most often?",
		Type:  survey.AnswerSingleChoice,
		Options: []survey.AnswerOption{
			{Key: "phone", Label: "Phone"},
			{Key: "tablet", Label: "Tablet"},
		},
	}
	resolver := NewDefinitionResolver(definitionFixture(survey.Satisfaction, ordinal, categorical), nil)

	got, err := resolver.IsOrdinal(survey.Satisfaction, ordinal.Title)
	if err != nil {
		t.Fatalf("IsOrdinal: %v", err)
	}
	if !got {
		t.Error("expected agree-scale question to be ordinal")
	}
	got, err = resolver.IsOrdinal(survey.Satisfaction, categorical.Title)
	if err != nil {
		t.Fatalf("IsOrdinal: %v", err)
	}
	if got {
		t.Error("expected device question to be categorical")
	}
}
