package scoring

import (
	"github.com/tamslo/pharme-study-result-analyses/domain/stats"
	"github.com/tamslo/pharme-study-result-analyses/domain/survey"
)

// Aggregator sums per-question answer scores into one score per participant.
type Aggregator struct {
	resolver *DefinitionResolver
}

// NewAggregator creates an aggregator over a definition resolver.
func NewAggregator(resolver *DefinitionResolver) *Aggregator {
	return &Aggregator{resolver: resolver}
}

// Scores computes the aggregate score of every row of a result table. A
// participant whose answers all resolve to no score gets a nil aggregate,
// distinguishing "didn't answer anything" from "answered and scored zero";
// individually unscoreable answers contribute nothing to an otherwise
// defined sum.
func (a *Aggregator) Scores(s survey.Survey, table *survey.ResultTable) (stats.ScoreTable, error) {
	definitions, err := a.resolver.Table(s)
	if err != nil {
		return nil, err
	}
	var scores stats.ScoreTable
	for _, row := range table.Rows {
		sum := 0
		allUnanswered := true
		for _, title := range definitions.Titles() {
			answer, present := row[title]
			if !present {
				continue
			}
			score, err := a.resolver.SingleScore(s, title, answer)
			if err != nil {
				return nil, err
			}
			if score == nil {
				continue
			}
			allUnanswered = false
			sum += *score
		}
		entry := stats.ParticipantScore{ParticipantID: row.ParticipantID()}
		if !allUnanswered {
			value := sum
			entry.Score = &value
		}
		scores = append(scores, entry)
	}
	return scores, nil
}
