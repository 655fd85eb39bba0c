package ports

import (
	"github.com/tamslo/pharme-study-result-analyses/domain/core"
	"github.com/tamslo/pharme-study-result-analyses/domain/study"
)

// ProgressSource provides the assembled completion ledger: per participant
// and (survey, time point) pair, whether the time point was completed.
type ProgressSource interface {
	ProgressTable() (*study.ProgressTable, error)
}

// ManualProgressSource provides the manual per-participant progress
// overrides, keyed by participant ID and progress column name. Overrides
// win over merged source data.
type ManualProgressSource interface {
	ManualProgressOverrides() (map[core.ParticipantID]map[string]string, error)
}
