package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/tamslo/pharme-study-result-analyses/adapters/csvledger"
	"github.com/tamslo/pharme-study-result-analyses/adapters/postgres"
	"github.com/tamslo/pharme-study-result-analyses/adapters/redcap"
	"github.com/tamslo/pharme-study-result-analyses/adapters/tables"
	"github.com/tamslo/pharme-study-result-analyses/app"
	"github.com/tamslo/pharme-study-result-analyses/internal"
	"github.com/tamslo/pharme-study-result-analyses/internal/comparisons"
	"github.com/tamslo/pharme-study-result-analyses/internal/config"
	"github.com/tamslo/pharme-study-result-analyses/internal/report"
	"github.com/tamslo/pharme-study-result-analyses/internal/scoring"
	"github.com/tamslo/pharme-study-result-analyses/ports"
)

func main() {
	refreshEnrollment := flag.Bool("refresh-enrollment", false, "re-fetch enrollment data instead of using the cache")
	flag.Parse()

	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger := internal.DefaultLogger

	if err := run(context.Background(), cfg, logger, *refreshEnrollment); err != nil {
		log.Fatalf("Analysis run failed: %v", err)
	}
}

// run executes the full pipeline: enrollment resolution, preprocessing,
// analyses and report rendering.
func run(ctx context.Context, cfg *config.Config, logger *internal.Logger, refreshEnrollment bool) error {
	store := tables.NewStore(cfg.Paths.DataDir, cfg.Paths.ResultsDir)

	anonymizer, err := tables.NewCSVAnonymizer(cfg.AnonymizationTablePath())
	if err != nil {
		return err
	}

	enrollments := redcap.NewCachedSource(nil, cfg.EnrollmentCachePath())
	if cfg.Redcap.URL != "" {
		enrollments = redcap.NewCachedSource(
			redcap.NewClient(cfg.Redcap.URL, cfg.Redcap.Token, cfg.Redcap.Timeout, logger),
			cfg.EnrollmentCachePath(),
		)
	}
	if refreshEnrollment {
		if err := cfg.RequireRedcap(); err != nil {
			return err
		}
		enrollments.Refresh = true
	}
	records, err := enrollments.Enrollments(ctx)
	if err != nil {
		return err
	}
	groups, err := app.NewGroupDirectory(records, anonymizer, logger)
	if err != nil {
		return err
	}

	rules, err := scoring.LoadRules(cfg.Scoring.RulesPath)
	if err != nil {
		return err
	}
	definitions := scoring.NewDefinitionResolver(store, rules)
	wrongAnswers := scoring.NewWrongAnswerLog(cfg.WrongAnswerLogPath(), cfg.SecretWrongAnswerLogPath())
	scorer := scoring.NewComprehensionScorer(rules, store, groups, wrongAnswers, logger)

	preprocess := app.NewPreprocessService(cfg.Paths.RawDir, store, anonymizer, scorer, definitions, rules, logger)
	if err := preprocess.Run(ctx); err != nil {
		return err
	}

	ledger, closeLedger, err := openLedger(cfg, logger)
	if err != nil {
		return err
	}
	defer closeLedger()

	engine := comparisons.NewEngine(logger)
	aggregator := scoring.NewAggregator(definitions)
	analysis := app.NewAnalysisService(store, groups, ledger, engine, definitions, aggregator, rules, logger)
	if err := analysis.Run(ctx); err != nil {
		return err
	}

	return writeReport(ctx, cfg, logger, store, ledger)
}

// openLedger selects the results ledger backend: PostgreSQL when a database
// URL is configured, the CSV table in the results directory otherwise.
func openLedger(cfg *config.Config, logger *internal.Logger) (ports.ResultLedger, func(), error) {
	if cfg.Ledger.DatabaseURL != "" {
		ledger, err := postgres.Connect(cfg.Ledger.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return ledger, func() {
			if err := ledger.Close(); err != nil {
				logger.Warn("Failed to close ledger database: %v", err)
			}
		}, nil
	}
	return csvledger.New(cfg.ResultsTablePath(), logger), func() {}, nil
}

// writeReport renders the markdown report over the ledger rows, the score
// summaries and the manual-input freshness state.
func writeReport(ctx context.Context, cfg *config.Config, logger *internal.Logger, store *tables.Store, ledger ports.LedgerReader) error {
	rows, err := ledger.Rows(ctx)
	if err != nil {
		return err
	}

	var summaries []report.ScoreSummary
	names, err := store.ScoreTableNames()
	if err != nil {
		return err
	}
	for _, name := range names {
		scores, err := store.ScoreTable(name)
		if err != nil {
			return err
		}
		summary, err := report.SummarizeScores(name, scores)
		if err != nil {
			return err
		}
		summaries = append(summaries, summary)
	}

	session := app.NewSessionBuilder(
		cfg.Paths.RawDir,
		logger,
		cfg.EnrollmentCachePath(),
		store.OverridesPath(),
		store.GroundTruthPath(),
	).Build()

	rendered := report.Render(session, rows, summaries)
	path := cfg.ReportPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(rendered), 0o644); err != nil {
		return err
	}
	logger.Info("Report written to %s", path)
	return nil
}
