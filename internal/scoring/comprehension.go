package scoring

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tamslo/pharme-study-result-analyses/domain/core"
	"github.com/tamslo/pharme-study-result-analyses/domain/study"
	"github.com/tamslo/pharme-study-result-analyses/domain/survey"
	"github.com/tamslo/pharme-study-result-analyses/domain/truth"
	"github.com/tamslo/pharme-study-result-analyses/internal"
	"github.com/tamslo/pharme-study-result-analyses/internal/errors"
	"github.com/tamslo/pharme-study-result-analyses/ports"
)

// GeneFromQuestion extracts the gene name embedded in a phenotype question
// title (the suffix after the final space, minus the colon).
func GeneFromQuestion(title string) string {
	fields := strings.Fields(title)
	if len(fields) == 0 {
		return ""
	}
	return strings.ReplaceAll(fields[len(fields)-1], ":", "")
}

// MedicationFromQuestion extracts the medication name from a
// medication-safety question title.
func MedicationFromQuestion(title string) string {
	name := strings.ReplaceAll(
		title,
		"According to your PGx test result, if you ever needed to take the medication ",
		"",
	)
	return strings.ReplaceAll(name, ", could you take it at standard dosage?", "")
}

// ComprehensionScorer converts raw comprehension answers into correctness
// verdicts by cross-referencing each participant's ground-truth record.
// Graded cells become "true"/"false"; all other columns pass through
// unmodified. Non-trivial outcomes are appended to the wrong-answer log.
type ComprehensionScorer struct {
	rules  *Rules
	truth  ports.GroundTruthSource
	groups ports.StudyGroupLookup
	log    *WrongAnswerLog
	logger *internal.Logger
}

// NewComprehensionScorer wires a scorer from its collaborators.
func NewComprehensionScorer(
	rules *Rules,
	truthSource ports.GroundTruthSource,
	groups ports.StudyGroupLookup,
	log *WrongAnswerLog,
	logger *internal.Logger,
) *ComprehensionScorer {
	if rules == nil {
		rules = DefaultRules()
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &ComprehensionScorer{rules: rules, truth: truthSource, groups: groups, log: log, logger: logger}
}

// Categories attaches a grading role to every column of the canonical
// comprehension column ordering.
func (s *ComprehensionScorer) Categories(columns []string) map[string]QuestionCategory {
	categories := make(map[string]QuestionCategory, len(columns))
	for index, column := range columns {
		if survey.IsMetaColumn(column) {
			categories[column] = QuestionCategory{Kind: CategoryPassthrough}
			continue
		}
		categories[column] = s.rules.CategoryFor(index, column)
	}
	return categories
}

// ScoreTable grades every row of the normalized comprehension table.
// canonicalColumns is the full column ordering the category indices refer
// to (meta columns included). Participants without a ground-truth record
// are excluded and reported once as a deduplicated warning.
func (s *ComprehensionScorer) ScoreTable(table *survey.ResultTable, canonicalColumns []string) (*survey.ResultTable, error) {
	if err := s.log.Reset(); err != nil {
		return nil, err
	}
	categories := s.Categories(canonicalColumns)
	out := survey.NewResultTable(table.Headers)
	var missing []string
	for _, row := range table.Rows {
		participantID := row.ParticipantID()
		record, studyID, ok, err := s.lookupGroundTruth(participantID)
		if err != nil {
			return nil, err
		}
		if !ok {
			missing = append(missing, studyID.String())
			continue
		}
		gradedRow := row.Clone()
		for _, column := range table.Headers {
			if !row.Answered(column) {
				continue
			}
			category, has := categories[column]
			if !has {
				category = QuestionCategory{Kind: CategoryPassthrough}
			}
			verdict, wasGraded, err := s.grade(participantID, studyID, category, column, row[column], record)
			if err != nil {
				return nil, err
			}
			if wasGraded {
				gradedRow[column] = fmt.Sprintf("%t", verdict)
			}
		}
		out.Append(gradedRow)
	}
	s.reportMissing(missing)
	return out, nil
}

func (s *ComprehensionScorer) lookupGroundTruth(participantID core.ParticipantID) (truth.Record, core.StudyID, bool, error) {
	studyID, ok := s.groups.StudyID(participantID)
	if !ok {
		return truth.Record{}, core.StudyID(participantID), false, nil
	}
	record, ok, err := s.truth.GroundTruth(studyID)
	if err != nil {
		return truth.Record{}, studyID, false, err
	}
	return record, studyID, ok, nil
}

func (s *ComprehensionScorer) reportMissing(studyIDs []string) {
	if len(studyIDs) == 0 {
		return
	}
	unique := make(map[string]bool, len(studyIDs))
	for _, id := range studyIDs {
		unique[id] = true
	}
	deduplicated := make([]string, 0, len(unique))
	for id := range unique {
		deduplicated = append(deduplicated, id)
	}
	sort.Strings(deduplicated)
	s.logger.Warn(
		"No comprehension data for study user(s) %s; please update the ground-truth data",
		strings.Join(deduplicated, ", "),
	)
}

// grade computes the correctness verdict for one answer. graded is false
// for passthrough columns, whose raw answer is kept.
func (s *ComprehensionScorer) grade(
	participantID core.ParticipantID,
	studyID core.StudyID,
	category QuestionCategory,
	column, answer string,
	record truth.Record,
) (verdict, graded bool, err error) {
	switch category.Kind {
	case CategoryStatic:
		return answer == s.rules.StaticAnswer, true, nil
	case CategoryMissingGene:
		verdict, err = s.gradeMissingGene(participantID, studyID, answer, record)
		return verdict, true, err
	case CategoryPhenotype:
		verdict, err = s.gradePhenotype(participantID, studyID, category.Gene, answer, record)
		return verdict, true, err
	case CategoryMedicationSafety:
		verdict, err = s.gradeMedication(participantID, category.Medication, answer, record)
		return verdict, true, err
	}
	return false, false, nil
}

func (s *ComprehensionScorer) gradeMissingGene(
	participantID core.ParticipantID,
	studyID core.StudyID,
	answer string,
	record truth.Record,
) (bool, error) {
	if answer == s.rules.MissingGene {
		return true, nil
	}
	named, ok := record.Gene(answer)
	if !ok {
		return false, errors.ConfigurationErrorf(
			"no ground-truth gene result for %q named by participant %s", answer, participantID,
		)
	}
	// Not the missing gene, but an indeterminate result still counts.
	if named.IsIndeterminate() {
		err := s.log.Append(
			s.studyGroup(participantID),
			s.rules.MissingGeneQuestionLabel,
			answer,
			"Overwriting to true because Indeterminate",
			participantID,
		)
		return true, err
	}
	if answer == "DPYD" && s.rules.IsDPYDIndeterminateCast(studyID) {
		err := s.log.Append(
			s.studyGroup(participantID),
			s.rules.MissingGeneQuestionLabel,
			answer,
			"Overwriting to true because Indeterminate (incomplete preprocessing)",
			participantID,
		)
		return true, err
	}
	notes := fmt.Sprintf("%s %s", answer, named.Phenotype)
	if simplified, ok := s.rules.SimplifiedGene(studyID); ok && answer == simplified {
		notes += "; ℹ️ participant selected a gene that was simplified in PharMe"
	}
	err := s.log.Append(
		s.studyGroup(participantID),
		s.rules.MissingGeneQuestionLabel,
		answer,
		notes,
		participantID,
	)
	return false, err
}

func (s *ComprehensionScorer) gradePhenotype(
	participantID core.ParticipantID,
	studyID core.StudyID,
	gene, answer string,
	record truth.Record,
) (bool, error) {
	result, ok := record.Gene(gene)
	if !ok {
		return false, errors.ConfigurationErrorf(
			"no ground-truth gene result for %q of participant %s", gene, participantID,
		)
	}
	if answer == result.FirstPhenotypeWord() {
		return true, nil
	}
	notes := fmt.Sprintf("%s %s", gene, result.Phenotype)
	if simplified, ok := s.rules.PhenotypeSimplified[studyID.String()]; ok && simplified == gene {
		notes += "; phenotype for participant was adapted, 👀 check if wrong answer included there"
	}
	err := s.log.Append(s.studyGroup(participantID), gene, answer, notes, participantID)
	return false, err
}

func (s *ComprehensionScorer) gradeMedication(
	participantID core.ParticipantID,
	medication, answer string,
	record truth.Record,
) (bool, error) {
	rule, ok := s.rules.Medications[medication]
	if !ok {
		return false, errors.ConfigurationErrorf(
			"no medication rule for %q", medication,
		)
	}
	result, ok := record.Gene(rule.Gene)
	if !ok {
		return false, errors.ConfigurationErrorf(
			"no ground-truth gene result for %q of participant %s", rule.Gene, participantID,
		)
	}
	correctAnswer := "no"
	if rule.SafeAtStandardDose(result.Phenotype) {
		correctAnswer = "yes"
	}
	if answer == correctAnswer {
		return true, nil
	}
	details := result.Phenotype
	if rule.Gene == "CYP2C9" {
		activity, ok := s.rules.CYP2C9ActivityScores[result.Genotype]
		if !ok {
			return false, errors.ConfigurationErrorf(
				"need to extend cyp2c9 activity scores by %s", result.Genotype,
			)
		}
		details += fmt.Sprintf(" (%.1f)", activity)
	}
	notes := fmt.Sprintf("%s %s", rule.Gene, details)
	taking, err := record.IsTakingMedication(medication)
	if err != nil {
		return false, errors.Wrapf(err, "invalid medication record for participant %s", participantID)
	}
	if taking {
		notes += "; 🚨 patient is taking medication, check if counseling needed"
	}
	appendErr := s.log.Append(s.studyGroup(participantID), medication, answer, notes, participantID)
	return false, appendErr
}

func (s *ComprehensionScorer) studyGroup(participantID core.ParticipantID) study.StudyGroup {
	group, _ := s.groups.StudyGroup(participantID)
	return group
}
