package tables

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/tamslo/pharme-study-result-analyses/domain/core"
	"github.com/tamslo/pharme-study-result-analyses/domain/stats"
	"github.com/tamslo/pharme-study-result-analyses/domain/study"
	"github.com/tamslo/pharme-study-result-analyses/domain/survey"
	"github.com/tamslo/pharme-study-result-analyses/domain/truth"
	"github.com/tamslo/pharme-study-result-analyses/internal/errors"
)

// Well-known file names inside the data directory.
const (
	definitionsDirName  = "definitions"
	progressFileName    = "progress.csv"
	overridesFileName   = "progress_overrides.json"
	groundTruthFileName = "ground_truth.json"
)

// Store serves the normalized data directory. It implements the table,
// definition, progress and ground-truth ports over plain files so analyses
// run offline against whatever the last preprocessing pass produced.
type Store struct {
	dataDir    string
	resultsDir string

	groundTruth map[string]truth.Record
}

// NewStore creates a store over the data and results directories.
func NewStore(dataDir, resultsDir string) *Store {
	return &Store{dataDir: dataDir, resultsDir: resultsDir}
}

// SurveyResultsPath is the normalized CSV location of a survey.
func (s *Store) SurveyResultsPath(v survey.Survey) string {
	return filepath.Join(s.dataDir, v.Name+".csv")
}

// SurveyResults loads the normalized result table of a survey.
func (s *Store) SurveyResults(v survey.Survey) (*survey.ResultTable, error) {
	return NewDataReader(s.SurveyResultsPath(v)).Read()
}

// SurveyResultsExist reports whether normalized results are stored.
func (s *Store) SurveyResultsExist(v survey.Survey) bool {
	_, err := os.Stat(s.SurveyResultsPath(v))
	return err == nil
}

// WriteSurveyResults persists a normalized result table.
func (s *Store) WriteSurveyResults(v survey.Survey, table *survey.ResultTable) error {
	return WriteCSV(s.SurveyResultsPath(v), table)
}

// ScoreTablePath is the location of a persisted per-participant score table.
func (s *Store) ScoreTablePath(name string) string {
	return filepath.Join(s.resultsDir, fmt.Sprintf("scores_%s.csv", name))
}

// WriteScoreTable persists a per-participant score table under the results
// directory. Undefined scores are written as empty cells.
func (s *Store) WriteScoreTable(name string, scores stats.ScoreTable) error {
	table := survey.NewResultTable([]string{survey.ParticipantColumn, survey.ScoreColumn})
	for _, entry := range scores {
		value := ""
		if entry.Score != nil {
			value = strconv.Itoa(*entry.Score)
		}
		table.Append(survey.Row{
			survey.ParticipantColumn: entry.ParticipantID.String(),
			survey.ScoreColumn:       value,
		})
	}
	return WriteCSV(s.ScoreTablePath(name), table)
}

// ScoreTable loads a persisted per-participant score table back; empty
// cells become undefined scores.
func (s *Store) ScoreTable(name string) (stats.ScoreTable, error) {
	raw, err := NewDataReader(s.ScoreTablePath(name)).Read()
	if err != nil {
		return nil, err
	}
	var scores stats.ScoreTable
	for _, row := range raw.Rows {
		entry := stats.ParticipantScore{ParticipantID: row.ParticipantID()}
		if cell := row[survey.ScoreColumn]; cell != "" {
			value, err := strconv.Atoi(cell)
			if err != nil {
				return nil, errors.DataIntegrityErrorf(
					"invalid score %q for participant %s in table %s", cell, row.ParticipantID(), name,
				)
			}
			entry.Score = &value
		}
		scores = append(scores, entry)
	}
	return scores, nil
}

// ScoreTableNames lists the persisted score tables, sorted by name.
func (s *Store) ScoreTableNames() ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(s.resultsDir, "scores_*.csv"))
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(matches))
	for _, match := range matches {
		base := strings.TrimSuffix(filepath.Base(match), ".csv")
		names = append(names, strings.TrimPrefix(base, "scores_"))
	}
	sort.Strings(names)
	return names, nil
}

// DefinitionTable loads a survey's answer definitions. Definition exports
// carry the question title, the platform answer type and the option schema
// as (possibly legacy single-quoted) JSON.
func (s *Store) DefinitionTable(v survey.Survey) (*survey.DefinitionTable, error) {
	path := filepath.Join(s.dataDir, definitionsDirName, v.DefinitionFileName()+".csv")
	raw, err := NewDataReader(path).Read()
	if err != nil {
		return nil, err
	}
	table := &survey.DefinitionTable{Survey: v}
	for _, row := range raw.Rows {
		options, err := survey.ParseOptions(row["options"])
		if err != nil {
			return nil, errors.Wrapf(err, "invalid option schema for %q in %s", row["question"], path)
		}
		table.Definitions = append(table.Definitions, survey.AnswerDefinition{
			Title:   row["question"],
			Type:    survey.AnswerType(row["type"]),
			Options: options,
		})
	}
	return table, nil
}

// ScoredComprehensionPath is the graded comprehension table location.
func (s *Store) ScoredComprehensionPath() string {
	return filepath.Join(s.dataDir, "comprehension_scored.csv")
}

// ScoredComprehension loads the graded comprehension table.
func (s *Store) ScoredComprehension() (*survey.ResultTable, error) {
	return NewDataReader(s.ScoredComprehensionPath()).Read()
}

// WriteScoredComprehension persists the graded comprehension table.
func (s *Store) WriteScoredComprehension(table *survey.ResultTable) error {
	return WriteCSV(s.ScoredComprehensionPath(), table)
}

// ProgressPath is the assembled progress ledger location.
func (s *Store) ProgressPath() string {
	return filepath.Join(s.dataDir, progressFileName)
}

// ProgressTable loads the assembled completion ledger.
func (s *Store) ProgressTable() (*study.ProgressTable, error) {
	raw, err := NewDataReader(s.ProgressPath()).Read()
	if err != nil {
		return nil, err
	}
	progress := study.NewProgressTable()
	for _, row := range raw.Rows {
		participantID := row.ParticipantID()
		cells := make(map[string]string, len(row))
		for column, value := range row {
			if column == survey.ParticipantColumn {
				continue
			}
			cells[column] = value
		}
		if err := progress.Merge(participantID, cells); err != nil {
			return nil, errors.DataIntegrityError(err.Error())
		}
	}
	return progress, nil
}

// WriteProgressTable persists the assembled completion ledger.
func (s *Store) WriteProgressTable(progress *study.ProgressTable, columns []string) error {
	headers := append([]string{survey.ParticipantColumn}, columns...)
	table := survey.NewResultTable(headers)
	for _, participantID := range progress.Participants() {
		cells, _ := progress.Row(participantID)
		row := survey.Row{survey.ParticipantColumn: participantID.String()}
		for _, column := range columns {
			row[column] = cells[column]
		}
		table.Append(row)
	}
	return WriteCSV(s.ProgressPath(), table)
}

// OverridesPath is the location of the hand-maintained progress corrections.
func (s *Store) OverridesPath() string {
	return filepath.Join(s.dataDir, overridesFileName)
}

// GroundTruthPath is the location of the hand-maintained test result records.
func (s *Store) GroundTruthPath() string {
	return filepath.Join(s.dataDir, groundTruthFileName)
}

// ManualProgressOverrides loads the hand-maintained progress corrections.
// A missing file means no overrides.
func (s *Store) ManualProgressOverrides() (map[core.ParticipantID]map[string]string, error) {
	path := s.OverridesPath()
	content, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return map[core.ParticipantID]map[string]string{}, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read progress overrides from %s", path)
	}
	var decoded map[string]map[string]string
	if err := json.Unmarshal(content, &decoded); err != nil {
		return nil, errors.Wrapf(err, "failed to parse progress overrides from %s", path)
	}
	overrides := make(map[core.ParticipantID]map[string]string, len(decoded))
	for id, cells := range decoded {
		overrides[core.ParticipantID(id)] = cells
	}
	return overrides, nil
}

// GroundTruth returns the genetic test result record of a study participant.
// The backing file is loaded once per store.
func (s *Store) GroundTruth(studyID core.StudyID) (truth.Record, bool, error) {
	if s.groundTruth == nil {
		path := s.GroundTruthPath()
		content, err := os.ReadFile(path)
		if err != nil {
			return truth.Record{}, false, errors.Wrapf(err, "failed to read ground truth from %s", path)
		}
		if err := json.Unmarshal(content, &s.groundTruth); err != nil {
			return truth.Record{}, false, errors.Wrapf(err, "failed to parse ground truth from %s", path)
		}
	}
	record, ok := s.groundTruth[studyID.String()]
	return record, ok, nil
}
