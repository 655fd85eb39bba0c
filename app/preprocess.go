package app

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/tamslo/pharme-study-result-analyses/adapters/tables"
	"github.com/tamslo/pharme-study-result-analyses/domain/core"
	"github.com/tamslo/pharme-study-result-analyses/domain/study"
	"github.com/tamslo/pharme-study-result-analyses/domain/survey"
	"github.com/tamslo/pharme-study-result-analyses/internal"
	"github.com/tamslo/pharme-study-result-analyses/internal/errors"
	"github.com/tamslo/pharme-study-result-analyses/internal/scoring"
	"github.com/tamslo/pharme-study-result-analyses/ports"
)

// normalizeLimit caps the per-survey normalization fan-out; the work is
// file-bound and the exports are small.
const normalizeLimit = 4

// PreprocessService turns the raw survey exports into the normalized data
// directory: participant IDs anonymized, app/counseling variants merged
// into one logical table per survey, progress exports joined, and the
// comprehension table graded. Steps whose output is newer than all their
// inputs are skipped.
type PreprocessService struct {
	rawDir      string
	store       *tables.Store
	anonymizer  ports.Anonymizer
	scorer      *scoring.ComprehensionScorer
	definitions *scoring.DefinitionResolver
	rules       *scoring.Rules
	logger      *internal.Logger
}

// NewPreprocessService wires a preprocessing run.
func NewPreprocessService(
	rawDir string,
	store *tables.Store,
	anonymizer ports.Anonymizer,
	scorer *scoring.ComprehensionScorer,
	definitions *scoring.DefinitionResolver,
	rules *scoring.Rules,
	logger *internal.Logger,
) *PreprocessService {
	if rules == nil {
		rules = scoring.DefaultRules()
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &PreprocessService{
		rawDir:      rawDir,
		store:       store,
		anonymizer:  anonymizer,
		scorer:      scorer,
		definitions: definitions,
		rules:       rules,
		logger:      logger,
	}
}

// Run executes the full preprocessing pass.
func (s *PreprocessService) Run(ctx context.Context) error {
	group, _ := errgroup.WithContext(ctx)
	group.SetLimit(normalizeLimit)
	for _, target := range survey.AllSurveys() {
		if !target.Final {
			continue
		}
		group.Go(func() error { return s.normalizeSurvey(target) })
	}
	if err := group.Wait(); err != nil {
		return err
	}
	if err := s.assembleProgress(); err != nil {
		return err
	}
	if err := s.scoreComprehension(); err != nil {
		return err
	}
	return s.anonymizer.Save()
}

// variantSources lists the raw surveys feeding one logical survey table.
func variantSources(target survey.Survey) []survey.Survey {
	switch target.Name {
	case survey.Comprehension.Name:
		return []survey.Survey{survey.ComprehensionApp, survey.ComprehensionCounseling}
	case survey.Satisfaction.Name:
		return []survey.Survey{survey.SatisfactionApp, survey.SatisfactionCounseling}
	}
	return []survey.Survey{target}
}

// rawPath locates the raw export of a survey, preferring the Excel export.
func (s *PreprocessService) rawPath(v survey.Survey) string {
	for _, ext := range []string{".xlsx", ".csv"} {
		path := filepath.Join(s.rawDir, v.DefinitionFileName()+ext)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

func (s *PreprocessService) normalizeSurvey(target survey.Survey) error {
	var inputs []string
	for _, source := range variantSources(target) {
		if path := s.rawPath(source); path != "" {
			inputs = append(inputs, path)
		}
	}
	if len(inputs) == 0 {
		s.logger.Warn("No raw export found for survey %s; skipping", target.Name)
		return nil
	}
	if s.upToDate(s.store.SurveyResultsPath(target), inputs) {
		s.logger.Debug("Normalized %s is up to date", target.Name)
		return nil
	}
	s.logger.Info("Normalizing survey %s from %d export(s)", target.Name, len(inputs))

	var headers []string
	seen := make(map[string]bool)
	var rows []survey.Row
	for _, path := range inputs {
		raw, err := tables.NewDataReader(path).Read()
		if err != nil {
			return err
		}
		canonical := make(map[string]string, len(raw.Headers))
		for _, header := range raw.Headers {
			title := s.canonicalTitle(header)
			canonical[header] = title
			if !seen[title] {
				seen[title] = true
				headers = append(headers, title)
			}
		}
		for _, row := range raw.Rows {
			normalized := make(survey.Row, len(row))
			for header, value := range row {
				normalized[canonical[header]] = value
			}
			participantID, err := s.anonymizer.Anonymize(core.SourceID(row[survey.ParticipantColumn]))
			if err != nil {
				return err
			}
			normalized[survey.ParticipantColumn] = participantID.String()
			rows = append(rows, normalized)
		}
	}

	table := survey.NewResultTable(headers)
	for _, row := range rows {
		table.Append(row)
	}
	table.DropDuplicates()
	return s.store.WriteSurveyResults(target, table)
}

// canonicalTitle aligns question titles across the app and counseling
// variants by stripping the variant-specific formulations.
func (s *PreprocessService) canonicalTitle(title string) string {
	for _, formulation := range s.rules.RemoveFormulations {
		title = strings.ReplaceAll(title, formulation, "")
	}
	return strings.TrimSpace(title)
}

// assembleProgress outer-joins the progress exports and applies the manual
// overrides on top.
func (s *PreprocessService) assembleProgress() error {
	inputs, err := filepath.Glob(filepath.Join(s.rawDir, "progress*"))
	if err != nil {
		return errors.Wrapf(err, "failed to list progress exports in %s", s.rawDir)
	}
	if len(inputs) == 0 {
		s.logger.Warn("No progress exports found in %s; skipping progress assembly", s.rawDir)
		return nil
	}
	sort.Strings(inputs)
	if s.upToDate(s.store.ProgressPath(), inputs) {
		s.logger.Debug("Assembled progress table is up to date")
		return nil
	}
	s.logger.Info("Assembling progress table from %d export(s)", len(inputs))

	progress := study.NewProgressTable()
	var columns []string
	seen := make(map[string]bool)
	for _, path := range inputs {
		raw, err := tables.NewDataReader(path).Read()
		if err != nil {
			return err
		}
		for _, row := range raw.Rows {
			participantID, err := s.anonymizer.Anonymize(core.SourceID(row[survey.ParticipantColumn]))
			if err != nil {
				return err
			}
			cells := make(map[string]string, len(row))
			for column, value := range row {
				if column == survey.ParticipantColumn {
					continue
				}
				normalized := normalizeProgressColumn(column)
				cells[normalized] = value
				if !seen[normalized] {
					seen[normalized] = true
					columns = append(columns, normalized)
				}
			}
			if err := progress.Merge(participantID, cells); err != nil {
				return errors.DataIntegrityError(err.Error())
			}
		}
	}

	overrides, err := s.store.ManualProgressOverrides()
	if err != nil {
		return err
	}
	for participantID, cells := range overrides {
		for column, value := range cells {
			if err := progress.Override(participantID, column, value); err != nil {
				return errors.DataIntegrityError(err.Error())
			}
			if !seen[column] {
				seen[column] = true
				columns = append(columns, column)
			}
		}
	}
	sort.Strings(columns)
	return s.store.WriteProgressTable(progress, columns)
}

// normalizeProgressColumn strips the dialect prefix and variant suffix from
// a progress column, e.g. "pharme::comprehension-app_t30" becomes
// "comprehension_t30".
func normalizeProgressColumn(column string) string {
	separator := strings.LastIndex(column, "_")
	if separator < 0 {
		return survey.NormalizeName(column)
	}
	return survey.NormalizeName(column[:separator]) + column[separator:]
}

// scoreComprehension grades the normalized comprehension table, skipping
// when a graded table with a matching row count already exists.
func (s *PreprocessService) scoreComprehension() error {
	if !s.store.SurveyResultsExist(survey.Comprehension) {
		s.logger.Warn("No normalized comprehension data; skipping scoring")
		return nil
	}
	table, err := s.store.SurveyResults(survey.Comprehension)
	if err != nil {
		return err
	}
	if _, err := os.Stat(s.store.ScoredComprehensionPath()); err == nil {
		scored, err := s.store.ScoredComprehension()
		if err != nil {
			return err
		}
		if scored.Len() == table.Len() {
			s.logger.Debug("Graded comprehension table is up to date")
			return nil
		}
	}
	s.logger.Info("Grading comprehension answers for %d row(s)", table.Len())

	canonical, err := s.canonicalComprehensionColumns()
	if err != nil {
		return err
	}
	graded, err := s.scorer.ScoreTable(table, canonical)
	if err != nil {
		return err
	}
	return s.store.WriteScoredComprehension(graded)
}

// canonicalComprehensionColumns is the meta columns followed by the
// definition-table question ordering; the grading category indices refer
// to positions in this list.
func (s *PreprocessService) canonicalComprehensionColumns() ([]string, error) {
	definitions, err := s.definitions.Table(survey.Comprehension)
	if err != nil {
		return nil, err
	}
	return append(append([]string{}, survey.MetaColumns...), definitions.Titles()...), nil
}

// upToDate reports whether the output is newer than every input. A missing
// input cannot be compared; the step runs to be safe.
func (s *PreprocessService) upToDate(output string, inputs []string) bool {
	outInfo, err := os.Stat(output)
	if err != nil {
		return false
	}
	for _, input := range inputs {
		inInfo, err := os.Stat(input)
		if err != nil {
			return false
		}
		if inInfo.ModTime().After(outInfo.ModTime()) {
			return false
		}
	}
	return true
}
