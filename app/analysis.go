package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/tamslo/pharme-study-result-analyses/adapters/tables"
	"github.com/tamslo/pharme-study-result-analyses/domain/core"
	"github.com/tamslo/pharme-study-result-analyses/domain/stats"
	"github.com/tamslo/pharme-study-result-analyses/domain/study"
	"github.com/tamslo/pharme-study-result-analyses/domain/survey"
	"github.com/tamslo/pharme-study-result-analyses/internal"
	"github.com/tamslo/pharme-study-result-analyses/internal/comparisons"
	"github.com/tamslo/pharme-study-result-analyses/internal/scoring"
	"github.com/tamslo/pharme-study-result-analyses/internal/timepoints"
	"github.com/tamslo/pharme-study-result-analyses/ports"
)

// comprehensionMargin is the relative non-inferiority margin for the
// primary comprehension outcome.
const comprehensionMargin = 0.1

// AnalysisService runs the survey analyses against the results ledger:
// comprehension correctness, health literacy (BRIEF), self-efficacy (GSE)
// and satisfaction, each compared between arms per time point and across
// time points within arms.
type AnalysisService struct {
	store       *tables.Store
	groups      ports.StudyGroupLookup
	ledger      ports.LedgerWriter
	engine      *comparisons.Engine
	definitions *scoring.DefinitionResolver
	aggregator  *scoring.Aggregator
	rules       *scoring.Rules
	logger      *internal.Logger
}

// NewAnalysisService wires an analysis run.
func NewAnalysisService(
	store *tables.Store,
	groups ports.StudyGroupLookup,
	ledger ports.LedgerWriter,
	engine *comparisons.Engine,
	definitions *scoring.DefinitionResolver,
	aggregator *scoring.Aggregator,
	rules *scoring.Rules,
	logger *internal.Logger,
) *AnalysisService {
	if rules == nil {
		rules = scoring.DefaultRules()
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &AnalysisService{
		store:       store,
		groups:      groups,
		ledger:      ledger,
		engine:      engine,
		definitions: definitions,
		aggregator:  aggregator,
		rules:       rules,
		logger:      logger,
	}
}

// Run executes all analyses.
func (s *AnalysisService) Run(ctx context.Context) error {
	progress, err := s.store.ProgressTable()
	if err != nil {
		return err
	}
	resolver := timepoints.NewResolver(progress, s.logger)

	if err := s.analyzeComprehension(ctx, resolver); err != nil {
		return err
	}
	for _, target := range []survey.Survey{survey.HealthLiteracy, survey.GeneralSelfEfficacy, survey.Satisfaction} {
		if err := s.analyzeAggregate(ctx, resolver, target); err != nil {
			return err
		}
	}
	return nil
}

// analyzeComprehension scores and compares the graded comprehension table:
// per-time-point group comparisons of the correct count, the one-sided
// non-inferiority test at result return, per-question correctness
// comparisons at result return, and within-arm time comparisons.
func (s *AnalysisService) analyzeComprehension(ctx context.Context, resolver *timepoints.Resolver) error {
	scored, err := s.store.ScoredComprehension()
	if err != nil {
		return err
	}
	graded, err := s.gradedQuestions()
	if err != nil {
		return err
	}

	perTimePoint := make(map[study.TimePoint]stats.ScoreTable)
	for _, timePoint := range study.AllTimePoints() {
		filtered, err := resolver.FilterByTimePoint(scored, survey.Comprehension, timePoint)
		if err != nil {
			return err
		}
		scores := correctCounts(filtered, graded)
		perTimePoint[timePoint] = scores
		name := fmt.Sprintf("comprehension_%s", timePoint.Suffix())
		if err := s.store.WriteScoreTable(name, scores); err != nil {
			return err
		}

		appScores, counselingScores := s.splitByGroup(scores)
		if len(appScores) == 0 || len(counselingScores) == 0 {
			s.logger.Warn("Not enough comprehension data at %s for a group comparison", timePoint.Name())
			continue
		}
		result, err := s.engine.CompareGroupsContinuous(appScores, counselingScores)
		if err != nil {
			return err
		}
		title := fmt.Sprintf("Comprehension (%s)", timePoint.Name())
		if err := s.record(ctx, stats.ComparisonStudyGroups, name, title, result); err != nil {
			return err
		}

		if timePoint == study.ResultReturn {
			nonInferiority, err := s.engine.NonInferiority(appScores, counselingScores, comprehensionMargin)
			if err != nil {
				return err
			}
			if err := s.record(ctx, stats.ComparisonStudyGroups,
				"comprehension_non_inferiority_t0",
				"Comprehension non-inferiority (result return)",
				nonInferiority); err != nil {
				return err
			}
			if err := s.compareQuestions(ctx, filtered, graded); err != nil {
				return err
			}
		}
	}
	return s.compareTimePoints(ctx, "comprehension", perTimePoint)
}

// gradedQuestions is the graded question set: the trailing question block
// of the definition ordering, minus the configured drop list.
func (s *AnalysisService) gradedQuestions() ([]string, error) {
	definitions, err := s.definitions.Table(survey.Comprehension)
	if err != nil {
		return nil, err
	}
	titles := definitions.Titles()
	if len(titles) > s.rules.QuestionCount {
		titles = titles[len(titles)-s.rules.QuestionCount:]
	}
	dropped := make(map[string]bool, len(s.rules.DropQuestions))
	for _, title := range s.rules.DropQuestions {
		dropped[title] = true
	}
	var graded []string
	for _, title := range titles {
		if !dropped[title] {
			graded = append(graded, title)
		}
	}
	return graded, nil
}

// correctCounts sums the "true" verdicts per participant.
func correctCounts(table *survey.ResultTable, graded []string) stats.ScoreTable {
	var scores stats.ScoreTable
	for _, row := range table.Rows {
		count := 0
		answered := false
		for _, question := range graded {
			if !row.Answered(question) {
				continue
			}
			answered = true
			if row[question] == "true" {
				count++
			}
		}
		entry := stats.ParticipantScore{ParticipantID: row.ParticipantID()}
		if answered {
			value := count
			entry.Score = &value
		}
		scores = append(scores, entry)
	}
	return scores
}

// compareQuestions compares the per-question correctness distribution
// between groups at result return.
func (s *AnalysisService) compareQuestions(ctx context.Context, filtered *survey.ResultTable, graded []string) error {
	for index, question := range graded {
		var appAnswers, counselingAnswers []string
		for _, row := range filtered.Rows {
			if !row.Answered(question) {
				continue
			}
			group, ok := s.groups.StudyGroup(row.ParticipantID())
			if !ok {
				continue
			}
			if group == study.GroupApp {
				appAnswers = append(appAnswers, row[question])
			} else {
				counselingAnswers = append(counselingAnswers, row[question])
			}
		}
		if len(appAnswers) == 0 || len(counselingAnswers) == 0 {
			s.logger.Warn("Not enough answers for question %q at result return", question)
			continue
		}
		result, err := s.engine.CompareGroupsCategorical(appAnswers, counselingAnswers)
		if err != nil {
			return err
		}
		item := fmt.Sprintf("comprehension_q%d_t0", index+1)
		if err := s.record(ctx, stats.ComparisonStudyGroups, item, question, result); err != nil {
			return err
		}
	}
	return nil
}

// analyzeAggregate scores an aggregate-sum survey and compares it between
// groups per time point and across time points within arms.
func (s *AnalysisService) analyzeAggregate(ctx context.Context, resolver *timepoints.Resolver, target survey.Survey) error {
	if !s.store.SurveyResultsExist(target) {
		s.logger.Warn("No normalized data for survey %s; skipping analysis", target.Name)
		return nil
	}
	table, err := s.store.SurveyResults(target)
	if err != nil {
		return err
	}

	perTimePoint := make(map[study.TimePoint]stats.ScoreTable)
	for _, timePoint := range study.AllTimePoints() {
		filtered, err := resolver.FilterByTimePoint(table, target, timePoint)
		if err != nil {
			return err
		}
		scores, err := s.aggregator.Scores(target, filtered)
		if err != nil {
			return err
		}
		perTimePoint[timePoint] = scores
		name := fmt.Sprintf("%s_%s", target.Name, timePoint.Suffix())
		if err := s.store.WriteScoreTable(name, scores); err != nil {
			return err
		}
		if target.Name == survey.HealthLiteracy.Name {
			s.logBriefBands(timePoint, scores)
		}

		appScores, counselingScores := s.splitByGroup(scores)
		if len(appScores) == 0 || len(counselingScores) == 0 {
			s.logger.Warn("Not enough %s data at %s for a group comparison", target.Name, timePoint.Name())
			continue
		}
		result, err := s.engine.CompareGroupsContinuous(appScores, counselingScores)
		if err != nil {
			return err
		}
		title := fmt.Sprintf("%s (%s)", target.DisplayName, timePoint.Name())
		if err := s.record(ctx, stats.ComparisonStudyGroups, name, title, result); err != nil {
			return err
		}
	}
	if !target.Longitudinal {
		return nil
	}
	return s.compareTimePoints(ctx, target.Name, perTimePoint)
}

// compareTimePoints runs the within-arm paired comparisons of the follow-up
// time points against result return.
func (s *AnalysisService) compareTimePoints(ctx context.Context, name string, perTimePoint map[study.TimePoint]stats.ScoreTable) error {
	baseline, ok := perTimePoint[study.ResultReturn]
	if !ok {
		return nil
	}
	for _, followUp := range []study.TimePoint{study.OneMonthFollowUp, study.ThreeMonthFollowUp} {
		followUpScores, ok := perTimePoint[followUp]
		if !ok {
			continue
		}
		for _, group := range study.AllStudyGroups() {
			first, second := s.pairedScores(baseline, followUpScores, group)
			if len(first) == 0 {
				s.logger.Warn("No paired %s data for the %s group between %s and %s",
					name, group, study.ResultReturn.Suffix(), followUp.Suffix())
				continue
			}
			result, err := s.engine.ComparePairedOrdinal(first, second)
			if err != nil {
				return err
			}
			item := fmt.Sprintf("%s_%s_t0_%s", name, strings.ToLower(group.String()), followUp.Suffix())
			title := fmt.Sprintf("%s over time (%s, %s vs %s)",
				name, group, study.ResultReturn.Name(), followUp.Name())
			if err := s.record(ctx, stats.ComparisonTimePoints, item, title, result); err != nil {
				return err
			}
		}
	}
	return nil
}

// splitByGroup partitions defined scores into the two study arms.
func (s *AnalysisService) splitByGroup(scores stats.ScoreTable) (app, counseling []float64) {
	for participantID, value := range scores.Values() {
		group, ok := s.groups.StudyGroup(participantID)
		if !ok {
			continue
		}
		if group == study.GroupApp {
			app = append(app, value)
		} else {
			counseling = append(counseling, value)
		}
	}
	return app, counseling
}

// pairedScores aligns two score tables on the participants of one arm that
// have a defined score in both.
func (s *AnalysisService) pairedScores(first, second stats.ScoreTable, group study.StudyGroup) (a, b []float64) {
	firstValues := first.Values()
	secondValues := second.Values()
	for _, participantID := range sortedParticipants(firstValues) {
		value := firstValues[participantID]
		other, ok := secondValues[participantID]
		if !ok {
			continue
		}
		memberGroup, known := s.groups.StudyGroup(participantID)
		if !known || memberGroup != group {
			continue
		}
		a = append(a, value)
		b = append(b, other)
	}
	return a, b
}

// logBriefBands reports the BRIEF interpretation band distribution.
func (s *AnalysisService) logBriefBands(timePoint study.TimePoint, scores stats.ScoreTable) {
	bands := make(map[string]int)
	for _, value := range scores.Values() {
		bands[briefBand(value)]++
	}
	s.logger.Info("BRIEF bands at %s: inadequate=%d marginal=%d adequate=%d skips reliance=%d",
		timePoint.Name(), bands["inadequate"], bands["marginal"], bands["adequate"], bands["skips reliance on others"])
}

// briefBand maps a BRIEF sum score to its health literacy interpretation.
func briefBand(score float64) string {
	switch {
	case score <= 12:
		return "inadequate"
	case score <= 16:
		return "marginal"
	case score <= 20:
		return "adequate"
	default:
		return "skips reliance on others"
	}
}

// record upserts a comparison result, annotating the notes with the effect
// magnitude when it is defined.
func (s *AnalysisService) record(ctx context.Context, comparison stats.Comparison, item, title string, result stats.ComparisonResult) error {
	interpretation, err := comparisons.InterpretEffect(result)
	if err != nil {
		return err
	}
	if interpretation != comparisons.EffectUndefined {
		if result.Notes != "" {
			result.Notes += "; "
		}
		result.Notes += interpretation + " effect"
	}
	return s.ledger.Upsert(ctx, comparison, item, title, result)
}

func sortedParticipants(values map[core.ParticipantID]float64) []core.ParticipantID {
	ids := make([]core.ParticipantID, 0, len(values))
	for id := range values {
		ids = append(ids, id)
	}
	// Stable ordering keeps paired samples reproducible across runs.
	sortParticipantIDs(ids)
	return ids
}

func sortParticipantIDs(ids []core.ParticipantID) {
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j] < ids[j-1]; j-- {
			ids[j], ids[j-1] = ids[j-1], ids[j]
		}
	}
}
