// Read-only JSON API over the analysis results. It serves whatever the last
// pipeline run persisted; it never triggers preprocessing or analyses.
package main

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/tamslo/pharme-study-result-analyses/adapters/csvledger"
	"github.com/tamslo/pharme-study-result-analyses/adapters/postgres"
	"github.com/tamslo/pharme-study-result-analyses/adapters/tables"
	"github.com/tamslo/pharme-study-result-analyses/app"
	"github.com/tamslo/pharme-study-result-analyses/domain/stats"
	"github.com/tamslo/pharme-study-result-analyses/internal"
	"github.com/tamslo/pharme-study-result-analyses/internal/config"
	"github.com/tamslo/pharme-study-result-analyses/ports"
)

type server struct {
	store  *tables.Store
	ledger ports.LedgerReader
	cfg    *config.Config
	logger *internal.Logger
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger := internal.DefaultLogger

	var ledger ports.LedgerReader
	if cfg.Ledger.DatabaseURL != "" {
		database, err := postgres.Connect(cfg.Ledger.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to connect to the ledger database: %v", err)
		}
		defer database.Close()
		ledger = database
	} else {
		ledger = csvledger.New(cfg.ResultsTablePath(), logger)
	}

	s := &server{
		store:  tables.NewStore(cfg.Paths.DataDir, cfg.Paths.ResultsDir),
		ledger: ledger,
		cfg:    cfg,
		logger: logger,
	}

	router := gin.Default()
	router.GET("/results", s.handleResults)
	router.GET("/results/:comparison", s.handleResultsByComparison)
	router.GET("/scores", s.handleScoreTableNames)
	router.GET("/scores/:name", s.handleScores)
	router.GET("/session", s.handleSession)

	logger.Info("Serving the results API on port %s", cfg.Server.APIPort)
	if err := router.Run(":" + cfg.Server.APIPort); err != nil {
		log.Fatalf("API server failed: %v", err)
	}
}

func (s *server) handleResults(c *gin.Context) {
	rows, err := s.ledger.Rows(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": rows})
}

func (s *server) handleResultsByComparison(c *gin.Context) {
	comparison := stats.Comparison(c.Param("comparison"))
	rows, err := s.ledger.Rows(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	var filtered []stats.LedgerRow
	for _, row := range rows {
		if row.Comparison == comparison {
			filtered = append(filtered, row)
		}
	}
	if len(filtered) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "no results for comparison " + c.Param("comparison")})
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": filtered})
}

func (s *server) handleScoreTableNames(c *gin.Context) {
	names, err := s.store.ScoreTableNames()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"scores": names})
}

func (s *server) handleScores(c *gin.Context) {
	name := c.Param("name")
	scores, err := s.store.ScoreTable(name)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no score table " + name})
		return
	}
	c.JSON(http.StatusOK, gin.H{"name": name, "scores": scores})
}

func (s *server) handleSession(c *gin.Context) {
	session := app.NewSessionBuilder(
		s.cfg.Paths.RawDir,
		s.logger,
		s.cfg.EnrollmentCachePath(),
		s.store.OverridesPath(),
		s.store.GroundTruthPath(),
	).Build()
	c.JSON(http.StatusOK, session)
}
