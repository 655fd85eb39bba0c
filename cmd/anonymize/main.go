// Anonymize replaces the participant column of a table export with stable
// pseudonymous participant IDs, extending the shared mapping as needed.
// Intended for files that are shared outside the preprocessing pipeline.
package main

import (
	"flag"
	"log"

	"github.com/joho/godotenv"

	"github.com/tamslo/pharme-study-result-analyses/adapters/tables"
	"github.com/tamslo/pharme-study-result-analyses/domain/core"
	"github.com/tamslo/pharme-study-result-analyses/domain/survey"
	"github.com/tamslo/pharme-study-result-analyses/internal/config"
)

func main() {
	input := flag.String("in", "", "table to anonymize (csv or xlsx)")
	output := flag.String("out", "", "where to write the anonymized csv")
	column := flag.String("column", survey.ParticipantColumn, "column holding the source participant IDs")
	flag.Parse()
	if *input == "" || *output == "" {
		log.Fatal("both -in and -out are required")
	}

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	anonymizer, err := tables.NewCSVAnonymizer(cfg.AnonymizationTablePath())
	if err != nil {
		log.Fatalf("Failed to load the ID mapping: %v", err)
	}

	table, err := tables.NewDataReader(*input).Read()
	if err != nil {
		log.Fatalf("Failed to read %s: %v", *input, err)
	}
	for _, row := range table.Rows {
		participantID, err := anonymizer.Anonymize(core.SourceID(row[*column]))
		if err != nil {
			log.Fatalf("Failed to anonymize row: %v", err)
		}
		row[*column] = participantID.String()
	}

	if err := tables.WriteCSV(*output, table); err != nil {
		log.Fatalf("Failed to write %s: %v", *output, err)
	}
	if err := anonymizer.Save(); err != nil {
		log.Fatalf("Failed to persist the ID mapping: %v", err)
	}
	log.Printf("Anonymized %d rows into %s", table.Len(), *output)
}
