package ports

import (
	"github.com/tamslo/pharme-study-result-analyses/domain/core"
	"github.com/tamslo/pharme-study-result-analyses/domain/truth"
)

// GroundTruthSource provides the participants' genetic test result data,
// keyed by the internal study ID.
type GroundTruthSource interface {
	GroundTruth(studyID core.StudyID) (truth.Record, bool, error)
}
