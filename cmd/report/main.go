// Report server: renders the markdown report of the last pipeline run as
// HTML for the study team.
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/tamslo/pharme-study-result-analyses/adapters/csvledger"
	"github.com/tamslo/pharme-study-result-analyses/adapters/postgres"
	"github.com/tamslo/pharme-study-result-analyses/internal"
	"github.com/tamslo/pharme-study-result-analyses/internal/config"
	"github.com/tamslo/pharme-study-result-analyses/internal/report"
	"github.com/tamslo/pharme-study-result-analyses/ports"
)

const pageShell = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Study Results</title>
<style>
body { font-family: sans-serif; max-width: 60rem; margin: 2rem auto; padding: 0 1rem; }
table { border-collapse: collapse; }
th, td { border: 1px solid #ccc; padding: 0.3rem 0.6rem; text-align: left; }
</style>
</head>
<body>
%s
</body>
</html>
`

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

	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		source, err := os.ReadFile(cfg.ReportPath())
		if err != nil {
			http.Error(w, "No report yet; run the analysis pipeline first.", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprintf(w, pageShell, report.ToHTML(source))
	})
	router.Get("/report.md", func(w http.ResponseWriter, r *http.Request) {
		source, err := os.ReadFile(cfg.ReportPath())
		if err != nil {
			http.Error(w, "No report yet; run the analysis pipeline first.", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		w.Write(source)
	})
	router.Get("/api/results", func(w http.ResponseWriter, r *http.Request) {
		rows, err := ledger.Rows(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(map[string]any{"results": rows}); err != nil {
			logger.Warn("Failed to encode ledger rows: %v", err)
		}
	})

	logger.Info("Serving the report on port %s", cfg.Server.ReportPort)
	if err := http.ListenAndServe(":"+cfg.Server.ReportPort, router); err != nil {
		log.Fatalf("Report server failed: %v", err)
	}
}
