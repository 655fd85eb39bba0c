package ports

import (
	"github.com/tamslo/pharme-study-result-analyses/domain/stats"
	"github.com/tamslo/pharme-study-result-analyses/domain/survey"
)

// TableSource provides read access to the stored survey tables.
type TableSource interface {
	// SurveyResults loads the (preprocessed) result table of a survey.
	SurveyResults(s survey.Survey) (*survey.ResultTable, error)
	// SurveyResultsExist reports whether preprocessed results are stored.
	SurveyResultsExist(s survey.Survey) bool
}

// DefinitionSource provides read access to the per-survey definition tables.
type DefinitionSource interface {
	DefinitionTable(s survey.Survey) (*survey.DefinitionTable, error)
}

// TableSink persists tables and score tables back to storage. All stored
// tables are CSV-shaped.
type TableSink interface {
	WriteSurveyResults(s survey.Survey, table *survey.ResultTable) error
	WriteScoreTable(name string, scores stats.ScoreTable) error
}
