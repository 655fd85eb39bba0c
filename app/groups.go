// Package app orchestrates the analysis pipeline: preprocessing raw
// exports into the normalized data directory, running the survey analyses
// against the results ledger, and describing the session.
package app

import (
	"github.com/tamslo/pharme-study-result-analyses/domain/core"
	"github.com/tamslo/pharme-study-result-analyses/domain/study"
	"github.com/tamslo/pharme-study-result-analyses/internal"
	"github.com/tamslo/pharme-study-result-analyses/ports"
)

// GroupDirectory resolves participants to their study arm and internal
// study ID, built from the enrollment records. Participants with an
// unknown randomization code are kept for study-ID lookups but excluded
// from group-based analyses.
type GroupDirectory struct {
	records map[core.ParticipantID]study.EnrollmentRecord
}

// NewGroupDirectory anonymizes the enrollment records' source IDs and
// indexes them by participant.
func NewGroupDirectory(records []study.EnrollmentRecord, anonymizer ports.Anonymizer, logger *internal.Logger) (*GroupDirectory, error) {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	directory := &GroupDirectory{records: make(map[core.ParticipantID]study.EnrollmentRecord, len(records))}
	for _, record := range records {
		participantID, err := anonymizer.Anonymize(record.SourceID)
		if err != nil {
			return nil, err
		}
		if _, ok := record.StudyGroup(); !ok {
			logger.Warn("No study group assigned yet for %s", record.StudyID)
		}
		directory.records[participantID] = record
	}
	return directory, nil
}

// StudyGroup resolves a participant's study arm.
func (d *GroupDirectory) StudyGroup(participantID core.ParticipantID) (study.StudyGroup, bool) {
	record, ok := d.records[participantID]
	if !ok {
		return "", false
	}
	return record.StudyGroup()
}

// StudyID resolves a participant's internal study identifier.
func (d *GroupDirectory) StudyID(participantID core.ParticipantID) (core.StudyID, bool) {
	record, ok := d.records[participantID]
	if !ok {
		return "", false
	}
	return record.StudyID, true
}

// Participants returns all enrolled participants.
func (d *GroupDirectory) Participants() []core.ParticipantID {
	ids := make([]core.ParticipantID, 0, len(d.records))
	for id := range d.records {
		ids = append(ids, id)
	}
	return ids
}
