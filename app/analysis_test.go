package app

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tamslo/pharme-study-result-analyses/adapters/tables"
	"github.com/tamslo/pharme-study-result-analyses/domain/core"
	"github.com/tamslo/pharme-study-result-analyses/domain/stats"
	"github.com/tamslo/pharme-study-result-analyses/domain/study"
	"github.com/tamslo/pharme-study-result-analyses/internal"
	"github.com/tamslo/pharme-study-result-analyses/internal/comparisons"
	"github.com/tamslo/pharme-study-result-analyses/internal/scoring"
	"github.com/tamslo/pharme-study-result-analyses/internal/testkit"
	"github.com/tamslo/pharme-study-result-analyses/ports"
)

type mockLedger struct {
	mock.Mock
}

func (m *mockLedger) Upsert(ctx context.Context, comparison stats.Comparison, item, title string, result stats.ComparisonResult) error {
	args := m.Called(ctx, comparison, item, title, result)
	return args.Error(0)
}

// analysisFixture writes a minimal comprehension study to disk: six
// participants split over both arms, all graded at result return only.
// Question one is answered correctly by everyone; questions two and three
// separate the arms.
func analysisFixture(t *testing.T) (*tables.Store, *testkit.GroupLookup) {
	t.Helper()
	dataDir := t.TempDir()
	resultsDir := t.TempDir()

	writeFile(t, filepath.Join(dataDir, "progress.csv"),
		"participant_id,comprehension_t0,comprehension_t30,comprehension_t90\n"+
			"a1,2024-01-10,,\n"+
			"a2,2024-01-11,,\n"+
			"a3,2024-01-12,,\n"+
			"c1,2024-01-10,,\n"+
			"c2,2024-01-11,,\n"+
			"c3,2024-01-12,,\n")
	writeFile(t, filepath.Join(dataDir, "definitions", "pharme::comprehension.csv"),
		"question,type,options\n"+
			"I am able to find my results.,YES_NO,\n"+
			"I know what my results mean.,YES_NO,\n"+
			"I know when to ask for help.,YES_NO,\n")
	writeFile(t, filepath.Join(dataDir, "comprehension_scored.csv"),
		"participant_id,authored_at_gmt,score,"+
			"I am able to find my results.,I know what my results mean.,I know when to ask for help.\n"+
			"a1,2024-01-10 09:00:00,,true,true,true\n"+
			"a2,2024-01-11 09:00:00,,true,true,false\n"+
			"a3,2024-01-12 09:00:00,,true,false,true\n"+
			"c1,2024-01-10 09:00:00,,true,false,false\n"+
			"c2,2024-01-11 09:00:00,,true,true,false\n"+
			"c3,2024-01-12 09:00:00,,true,false,false\n")

	groups := testkit.NewGroupLookup(map[core.ParticipantID]study.StudyGroup{
		"a1": study.GroupApp, "a2": study.GroupApp, "a3": study.GroupApp,
		"c1": study.GroupCounseling, "c2": study.GroupCounseling, "c3": study.GroupCounseling,
	})
	return tables.NewStore(dataDir, resultsDir), groups
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func newAnalysisService(store *tables.Store, groups *testkit.GroupLookup, ledger ports.LedgerWriter) *AnalysisService {
	rules := scoring.DefaultRules()
	definitions := scoring.NewDefinitionResolver(store, rules)
	aggregator := scoring.NewAggregator(definitions)
	engine := comparisons.NewEngine(internal.DefaultLogger)
	return NewAnalysisService(store, groups, ledger, engine, definitions, aggregator, rules, internal.DefaultLogger)
}

// The full run records exactly the comparisons the fixture supports: the
// group comparison and the non-inferiority test at result return plus one
// categorical comparison per graded question. Follow-up time points have no
// completions and the aggregate surveys have no data, so nothing else is
// written.
func TestAnalysisRecordsComprehensionComparisons(t *testing.T) {
	store, groups := analysisFixture(t)
	ledger := &mockLedger{}
	ledger.On("Upsert", mock.Anything, stats.ComparisonStudyGroups, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	service := newAnalysisService(store, groups, ledger)
	if err := service.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	ledger.AssertNumberOfCalls(t, "Upsert", 5)
	for _, item := range []string{
		"comprehension_t0",
		"comprehension_non_inferiority_t0",
		"comprehension_q1_t0",
		"comprehension_q2_t0",
		"comprehension_q3_t0",
	} {
		ledger.AssertCalled(t, "Upsert", mock.Anything, stats.ComparisonStudyGroups, item, mock.Anything, mock.Anything)
	}
}

func TestAnalysisComprehensionGroupComparison(t *testing.T) {
	store, groups := analysisFixture(t)
	ledger := testkit.NewInMemoryLedger()

	service := newAnalysisService(store, groups, ledger)
	require.NoError(t, service.Run(context.Background()))

	// Correct counts are {3,2,2} against {1,2,1}; with three per arm the
	// normality check cannot run, so the rank-based comparison applies.
	row, ok := ledger.Row(stats.ComparisonStudyGroups, "comprehension_t0")
	require.True(t, ok)
	require.Equal(t, stats.StatisticMannWhitney, row.Result.Statistic)
	require.InDelta(t, 0.1573, row.Result.PValue, 1e-3)
	require.InDelta(t, -0.7778, row.Result.EffectSize, 1e-3)
	require.Contains(t, row.Result.Notes, "large effect")

	nonInferiority, ok := ledger.Row(stats.ComparisonStudyGroups, "comprehension_non_inferiority_t0")
	require.True(t, ok)
	require.Equal(t, stats.StatisticMannWhitney, nonInferiority.Result.Statistic)
	require.Contains(t, nonInferiority.Result.Notes, "margin 0.10")
	require.InDelta(t, 0.0361, nonInferiority.Result.PValue, 1e-3)
}

// A question everyone answers the same way has a single-level contingency
// table: the permutation p value degenerates to one and the effect size is
// undefined.
func TestAnalysisUniformQuestionHasUndefinedEffect(t *testing.T) {
	store, groups := analysisFixture(t)
	ledger := testkit.NewInMemoryLedger()

	service := newAnalysisService(store, groups, ledger)
	require.NoError(t, service.Run(context.Background()))

	row, ok := ledger.Row(stats.ComparisonStudyGroups, "comprehension_q1_t0")
	require.True(t, ok)
	require.Equal(t, stats.StatisticFisher, row.Result.Statistic)
	require.InDelta(t, 1.0, row.Result.PValue, 1e-9)
	require.True(t, math.IsNaN(row.Result.EffectSize))
	require.NotContains(t, row.Result.Notes, "effect")

	mixed, ok := ledger.Row(stats.ComparisonStudyGroups, "comprehension_q2_t0")
	require.True(t, ok)
	require.Greater(t, mixed.Result.PValue, 0.0)
	require.LessOrEqual(t, mixed.Result.PValue, 1.0)
}

func TestAnalysisWritesScoreTables(t *testing.T) {
	store, groups := analysisFixture(t)
	ledger := testkit.NewInMemoryLedger()

	service := newAnalysisService(store, groups, ledger)
	require.NoError(t, service.Run(context.Background()))

	table, err := tables.NewDataReader(store.ScoreTablePath("comprehension_t0")).Read()
	require.NoError(t, err)
	require.Equal(t, 6, table.Len())
	scores := table.Column("score")
	require.Equal(t, "3", scores["a1"])
	require.Equal(t, "1", scores["c3"])
}
