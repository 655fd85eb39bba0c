package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to v4 if v7 fails
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// The study uses an identifier chain crossing three namespaces:
//
//	SourceID      – raw identifier from the survey export platform (ehive)
//	StudyID       – internal study code carried by enrollment records,
//	                keys the ground-truth data (e.g. "PharMe1234")
//	ParticipantID – anonymous UUID used in all stored tables
//
// The types are distinct so the compiler rejects accidental cross-use;
// conversions only happen in the anonymizer and the enrollment table.
type (
	SourceID      ID
	StudyID       ID
	ParticipantID ID
	RunID         ID
)

// String conversions for domain IDs
func (id SourceID) String() string      { return ID(id).String() }
func (id StudyID) String() string       { return ID(id).String() }
func (id ParticipantID) String() string { return ID(id).String() }
func (id RunID) String() string         { return ID(id).String() }

// NewParticipantID generates a fresh anonymous participant identifier
func NewParticipantID() ParticipantID {
	return ParticipantID(uuid.New().String())
}

// ParseSourceID parses a string into SourceID
func ParseSourceID(s string) (SourceID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("source ID cannot be empty")
	}
	return SourceID(s), nil
}

// ParseStudyID parses a string into StudyID
func ParseStudyID(s string) (StudyID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("study ID cannot be empty")
	}
	return StudyID(s), nil
}

// ParseParticipantID parses a string into ParticipantID
func ParseParticipantID(s string) (ParticipantID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("participant ID cannot be empty")
	}
	return ParticipantID(s), nil
}
