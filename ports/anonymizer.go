package ports

import (
	"github.com/tamslo/pharme-study-result-analyses/domain/core"
)

// Anonymizer owns the persisted SourceID to ParticipantID map. Anonymize
// generates a fresh participant ID for unseen source IDs; passing a value
// that already is a participant ID is a data-integrity error. Reveal is the
// inverse lookup, for the few places that must cross back into the raw
// namespace (use with caution).
type Anonymizer interface {
	Anonymize(sourceID core.SourceID) (core.ParticipantID, error)
	Reveal(participantID core.ParticipantID) (core.SourceID, error)
	Save() error
}
