package scoring

import (
	"testing"

	"github.com/tamslo/pharme-study-result-analyses/domain/survey"
)

func TestAggregator_Scores(t *testing.T) {
	first := survey.AnswerDefinition{
		Title: "I can usually handle whatever comes my way",
		Type:  survey.AnswerSingleChoice,
		Options: []survey.AnswerOption{
			{Key: "not_at_all_true", Label: "Not at all true", Score: intPtr(0)},
			{Key: "exactly_true", Label: "Exactly true", Score: intPtr(3)},
		},
	}
	second := survey.AnswerDefinition{
		Title: "It is easy for me to stick to my aims",
		Type:  survey.AnswerSingleChoice,
		Options: []survey.AnswerOption{
			{Key: "not_at_all_true", Label: "Not at all true", Score: intPtr(0)},
			{Key: "exactly_true", Label: "Exactly true", Score: intPtr(3)},
		},
	}
	source := definitionFixture(survey.GeneralSelfEfficacy, first, second)
	aggregator := NewAggregator(NewDefinitionResolver(source, nil))

	table := survey.NewResultTable([]string{survey.ParticipantColumn, first.Title, second.Title})
	table.Append(survey.Row{survey.ParticipantColumn: "p-sum", first.Title: "exactly_true", second.Title: "exactly_true"})
	table.Append(survey.Row{survey.ParticipantColumn: "p-zero", first.Title: "not_at_all_true", second.Title: "not_at_all_true"})
	table.Append(survey.Row{survey.ParticipantColumn: "p-partial", first.Title: "exactly_true", second.Title: "withdrawn_key"})
	table.Append(survey.Row{survey.ParticipantColumn: "p-none", first.Title: "withdrawn_key", second.Title: "withdrawn_key"})

	scores, err := aggregator.Scores(survey.GeneralSelfEfficacy, table)
	if err != nil {
		t.Fatalf("Scores: %v", err)
	}
	if len(scores) != 4 {
		t.Fatalf("expected 4 score rows, got %d", len(scores))
	}

	expect := map[string]*int{
		"p-sum":     intPtr(6),
		"p-zero":    intPtr(0),
		"p-partial": intPtr(3),
		"p-none":    nil,
	}
	for _, entry := range scores {
		want, ok := expect[entry.ParticipantID.String()]
		if !ok {
			t.Fatalf("unexpected participant %s", entry.ParticipantID)
		}
		switch {
		case want == nil && entry.Score != nil:
			t.Errorf("%s: expected nil score, got %d", entry.ParticipantID, *entry.Score)
		case want != nil && entry.Score == nil:
			t.Errorf("%s: expected score %d, got nil", entry.ParticipantID, *want)
		case want != nil && entry.Score != nil && *want != *entry.Score:
			t.Errorf("%s: expected score %d, got %d", entry.ParticipantID, *want, *entry.Score)
		}
	}
}

func TestAggregator_ValuesOmitUndefinedScores(t *testing.T) {
	question := survey.AnswerDefinition{
		Title: "I am confident interpreting my results",
		Type:  survey.AnswerSingleChoice,
		Options: []survey.AnswerOption{
			{Key: "agree", Label: "Agree", Score: intPtr(1)},
		},
	}
	source := definitionFixture(survey.GeneralSelfEfficacy, question)
	aggregator := NewAggregator(NewDefinitionResolver(source, nil))

	table := survey.NewResultTable([]string{survey.ParticipantColumn, question.Title})
	table.Append(survey.Row{survey.ParticipantColumn: "p-answered", question.Title: "agree"})
	table.Append(survey.Row{survey.ParticipantColumn: "p-silent", question.Title: "withdrawn_key"})

	scores, err := aggregator.Scores(survey.GeneralSelfEfficacy, table)
	if err != nil {
		t.Fatalf("Scores: %v", err)
	}
	values := scores.Values()
	if len(values) != 1 {
		t.Fatalf("expected one defined value, got %d", len(values))
	}
	if got := values["p-answered"]; got != 1.0 {
		t.Errorf("expected value 1.0, got %f", got)
	}
}
