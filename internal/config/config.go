package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/tamslo/pharme-study-result-analyses/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Paths   PathConfig
	Redcap  RedcapConfig
	Ledger  LedgerConfig
	Server  ServerConfig
	Scoring ScoringConfig
}

// PathConfig holds file system paths for raw exports, preprocessed data
// and results
type PathConfig struct {
	RawDir     string
	DataDir    string
	ResultsDir string
}

// RedcapConfig holds the enrollment system connection settings. Required
// only when an enrollment refresh is requested; cached enrollment data is
// used otherwise.
type RedcapConfig struct {
	URL     string
	Token   string
	Timeout time.Duration
}

// LedgerConfig selects the results ledger backend. An empty DatabaseURL
// means the CSV ledger in the results directory.
type LedgerConfig struct {
	DatabaseURL string
}

// ServerConfig holds ports for the read-only servers
type ServerConfig struct {
	APIPort    string
	ReportPort string
}

// ScoringConfig holds the path of the injected scoring rules file. Empty
// means the built-in defaults.
type ScoringConfig struct {
	RulesPath string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	config := &Config{
		Paths: PathConfig{
			RawDir:     getEnvOrDefault("RAW_DATA_DIR", filepath.Join("data", "raw")),
			DataDir:    getEnvOrDefault("DATA_DIR", "data"),
			ResultsDir: getEnvOrDefault("RESULTS_DIR", "results"),
		},
		Redcap: RedcapConfig{
			URL:     getEnvOrDefault("REDCAP_URL", ""),
			Token:   getEnvOrDefault("REDCAP_TOKEN", ""),
			Timeout: getEnvDurationOrDefault("REDCAP_TIMEOUT", 3*time.Second),
		},
		Ledger: LedgerConfig{
			DatabaseURL: getEnvOrDefault("STUDY_DATABASE_URL", ""),
		},
		Server: ServerConfig{
			APIPort:    getEnvOrDefault("API_PORT", "8080"),
			ReportPort: getEnvOrDefault("REPORT_PORT", "8081"),
		},
		Scoring: ScoringConfig{
			RulesPath: getEnvOrDefault("SCORING_RULES_PATH", ""),
		},
	}
	if config.Paths.DataDir == "" {
		return nil, errors.ConfigInvalid("DATA_DIR must not be empty")
	}
	if config.Paths.ResultsDir == "" {
		return nil, errors.ConfigInvalid("RESULTS_DIR must not be empty")
	}
	return config, nil
}

// RequireRedcap validates the enrollment-refresh settings; only entry points
// that talk to the enrollment system call this.
func (c *Config) RequireRedcap() error {
	if c.Redcap.URL == "" {
		return errors.ConfigInvalid("REDCAP_URL is required to refresh enrollment data")
	}
	if c.Redcap.Token == "" {
		return errors.ConfigInvalid("REDCAP_TOKEN is required to refresh enrollment data")
	}
	return nil
}

// ResultsTablePath is the CSV ledger location inside the results directory.
func (c *Config) ResultsTablePath() string {
	return filepath.Join(c.Paths.ResultsDir, "results_table.csv")
}

// ReportPath is the rendered markdown report location.
func (c *Config) ReportPath() string {
	return filepath.Join(c.Paths.ResultsDir, "report.md")
}

// EnrollmentCachePath is the cached enrollment export location.
func (c *Config) EnrollmentCachePath() string {
	return filepath.Join(c.Paths.DataDir, "enrollment.csv")
}

// AnonymizationTablePath is the source-to-participant ID mapping location.
func (c *Config) AnonymizationTablePath() string {
	return filepath.Join(c.Paths.DataDir, "participant_ids.csv")
}

// WrongAnswerLogPath is the shareable wrong-answer log location.
func (c *Config) WrongAnswerLogPath() string {
	return filepath.Join(c.Paths.ResultsDir, "wrong_answers.csv")
}

// SecretWrongAnswerLogPath is the identifying wrong-answer log location; it
// carries participant IDs and must not leave the study team.
func (c *Config) SecretWrongAnswerLogPath() string {
	return filepath.Join(c.Paths.ResultsDir, "wrong_answers_secret.csv")
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
