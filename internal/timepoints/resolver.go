// Package timepoints maps nominal study time points onto physical survey
// rows. Participants may skip administrations, so the n-th physical row is
// not always the row for the n-th time point.
package timepoints

import (
	"github.com/tamslo/pharme-study-result-analyses/domain/core"
	"github.com/tamslo/pharme-study-result-analyses/domain/study"
	"github.com/tamslo/pharme-study-result-analyses/domain/survey"
	"github.com/tamslo/pharme-study-result-analyses/internal"
	"github.com/tamslo/pharme-study-result-analyses/internal/errors"
)

// Resolver selects, per participant, the survey row belonging to a nominal
// time point, based on the completion ledger.
type Resolver struct {
	progress *study.ProgressTable
	logger   *internal.Logger
}

// NewResolver creates a resolver over an assembled progress table.
func NewResolver(progress *study.ProgressTable, logger *internal.Logger) *Resolver {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Resolver{progress: progress, logger: logger}
}

// FilterByTimePoint assembles the table of rows belonging to one time
// point: one row per participant that completed the time point and has a
// matching physical row. Participants whose progress cell is empty are
// skipped silently (no row is expected); participants whose survey rows lag
// behind the progress ledger are skipped with a warning.
func (r *Resolver) FilterByTimePoint(table *survey.ResultTable, s survey.Survey, timePoint study.TimePoint) (*survey.ResultTable, error) {
	filtered := survey.NewResultTable(table.Headers)
	for _, participantID := range table.ParticipantIDs() {
		row, ok, err := r.resolveRow(table, s, participantID, timePoint)
		if err != nil {
			return nil, err
		}
		if ok {
			filtered.Append(row)
		}
	}
	return filtered, nil
}

// resolveRow finds the physical row for one participant and time point.
// ok is false when no row is expected or available.
func (r *Resolver) resolveRow(table *survey.ResultTable, s survey.Survey, participantID core.ParticipantID, timePoint study.TimePoint) (survey.Row, bool, error) {
	completed, err := r.completed(participantID, s, timePoint)
	if err != nil {
		return nil, false, err
	}
	if !completed {
		return nil, false, nil
	}
	// Earlier skipped time points leave no physical row, so the positional
	// index shifts down by the number of incomplete predecessors.
	index := timePoint.Ordinal()
	for _, earlier := range study.AllTimePoints() {
		if earlier.Ordinal() >= timePoint.Ordinal() {
			break
		}
		earlierCompleted, err := r.completed(participantID, s, earlier)
		if err != nil {
			return nil, false, err
		}
		if !earlierCompleted {
			index--
		}
	}
	rows := table.RowsForParticipant(participantID)
	if index > len(rows)-1 {
		// Progress was recorded before the survey rows were synced; a
		// recoverable data lag, not a failure.
		r.logger.Warn(
			"Cannot select %s data for %s of participant %s because the survey data was not loaded yet",
			s.Name, timePoint.Name(), participantID,
		)
		return nil, false, nil
	}
	return rows[index], true, nil
}

func (r *Resolver) completed(participantID core.ParticipantID, s survey.Survey, timePoint study.TimePoint) (bool, error) {
	completed, hasRecord := r.progress.Completed(participantID, s.Name, timePoint)
	if !hasRecord {
		return false, errors.DataIntegrityErrorf(
			"the selected time point should be unique per participant and time point (no progress row for %s)",
			participantID,
		)
	}
	return completed, nil
}
