package ports

import (
	"context"

	"github.com/tamslo/pharme-study-result-analyses/domain/core"
	"github.com/tamslo/pharme-study-result-analyses/domain/study"
)

// EnrollmentSource fetches the enrollment records from the study management
// system. Transport or decode failures are fatal to the run.
type EnrollmentSource interface {
	Enrollments(ctx context.Context) ([]study.EnrollmentRecord, error)
}

// StudyGroupLookup resolves a participant's study arm. ok is false when the
// assignment is unknown (enrollment pending); such participants are excluded
// from group-based analyses.
type StudyGroupLookup interface {
	StudyGroup(participantID core.ParticipantID) (study.StudyGroup, bool)
	// StudyID resolves the internal study identifier keying ground truth.
	StudyID(participantID core.ParticipantID) (core.StudyID, bool)
}
