package redcap

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"

	"github.com/tamslo/pharme-study-result-analyses/domain/core"
	"github.com/tamslo/pharme-study-result-analyses/domain/study"
	"github.com/tamslo/pharme-study-result-analyses/internal/errors"
	"github.com/tamslo/pharme-study-result-analyses/ports"
)

var cacheHeaders = []string{"ehive_id", "study_id", "randomization", "counsel_date", "pharme_data_uploaded", "crossover_complete"}

// CachedSource wraps an enrollment source with a CSV cache so analyses run
// offline. With Refresh set the upstream is queried and the cache
// rewritten; otherwise the cache is served without any network access.
type CachedSource struct {
	upstream ports.EnrollmentSource
	path     string
	// Refresh forces an upstream fetch instead of reading the cache.
	Refresh bool
}

// NewCachedSource creates a caching wrapper storing at the given path.
func NewCachedSource(upstream ports.EnrollmentSource, path string) *CachedSource {
	return &CachedSource{upstream: upstream, path: path}
}

// Enrollments serves the cached records, fetching and rewriting the cache
// when a refresh is requested or no cache exists yet.
func (s *CachedSource) Enrollments(ctx context.Context) ([]study.EnrollmentRecord, error) {
	if !s.Refresh {
		if _, err := os.Stat(s.path); err == nil {
			return s.readCache()
		}
	}
	if s.upstream == nil {
		return nil, errors.ConfigurationError(
			"no cached enrollment data and no enrollment endpoint configured",
		)
	}
	records, err := s.upstream.Enrollments(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.writeCache(records); err != nil {
		return nil, err
	}
	return records, nil
}

func (s *CachedSource) readCache() ([]study.EnrollmentRecord, error) {
	file, err := os.Open(s.path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open enrollment cache %s", s.path)
	}
	defer file.Close()
	rows, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read enrollment cache %s", s.path)
	}
	var records []study.EnrollmentRecord
	for i, row := range rows {
		if i == 0 {
			continue
		}
		records = append(records, study.EnrollmentRecord{
			SourceID:          core.SourceID(row[0]),
			StudyID:           core.StudyID(row[1]),
			Randomization:     row[2],
			CounselDate:       row[3],
			AppDataUploaded:   row[4],
			CrossoverComplete: row[5],
		})
	}
	return records, nil
}

func (s *CachedSource) writeCache(records []study.EnrollmentRecord) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return errors.Wrapf(err, "failed to create directory for %s", s.path)
	}
	file, err := os.Create(s.path)
	if err != nil {
		return errors.Wrapf(err, "failed to create enrollment cache %s", s.path)
	}
	defer file.Close()
	writer := csv.NewWriter(file)
	if err := writer.Write(cacheHeaders); err != nil {
		return errors.Wrapf(err, "failed to write enrollment cache %s", s.path)
	}
	for _, record := range records {
		row := []string{
			record.SourceID.String(),
			record.StudyID.String(),
			record.Randomization,
			record.CounselDate,
			record.AppDataUploaded,
			record.CrossoverComplete,
		}
		if err := writer.Write(row); err != nil {
			return errors.Wrapf(err, "failed to write enrollment cache %s", s.path)
		}
	}
	writer.Flush()
	return writer.Error()
}
