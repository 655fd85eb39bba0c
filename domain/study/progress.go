package study

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tamslo/pharme-study-result-analyses/domain/core"
)

// ProgressTable records, per participant and per (survey, time point) pair,
// whether the time point was completed. The cell value may encode a sub-date
// (for example the date the survey was administered); any non-empty value
// counts as completed.
//
// Invariant: at most one row per participant. Merging sources must go
// through Merge so the invariant is checked.
type ProgressTable struct {
	cells map[core.ParticipantID]map[string]string
}

// NewProgressTable creates an empty progress table.
func NewProgressTable() *ProgressTable {
	return &ProgressTable{cells: make(map[core.ParticipantID]map[string]string)}
}

// ProgressColumn names the progress cell for a survey and time point
// (e.g. "brief_t30").
func ProgressColumn(surveyName string, timePoint TimePoint) string {
	return fmt.Sprintf("%s_%s", surveyName, timePoint.Suffix())
}

// Merge adds one source row for a participant, outer-join style: unset cells
// are filled, existing non-empty cells are kept. A second row for the same
// participant that disagrees with the first on a shared non-empty cell
// violates the uniqueness invariant.
func (p *ProgressTable) Merge(participantID core.ParticipantID, row map[string]string) error {
	existing, ok := p.cells[participantID]
	if !ok {
		copied := make(map[string]string, len(row))
		for column, value := range row {
			copied[column] = value
		}
		p.cells[participantID] = copied
		return nil
	}
	for column, value := range row {
		if strings.TrimSpace(value) == "" {
			continue
		}
		if present, has := existing[column]; has && strings.TrimSpace(present) != "" && present != value {
			return fmt.Errorf(
				"participant progress should be unique in progress data for %s (column %s)",
				participantID, column,
			)
		}
		existing[column] = value
	}
	return nil
}

// Override sets a progress cell directly, manual overrides win over merged
// source data. The participant must already have a row.
func (p *ProgressTable) Override(participantID core.ParticipantID, column, value string) error {
	row, ok := p.cells[participantID]
	if !ok {
		return fmt.Errorf(
			"expecting to find exactly one row in progress data for participant ID %s",
			participantID,
		)
	}
	row[column] = value
	return nil
}

// Completed reports whether the participant completed the given survey at
// the given time point. hasRecord is false when the participant has no
// progress row at all.
func (p *ProgressTable) Completed(participantID core.ParticipantID, surveyName string, timePoint TimePoint) (completed, hasRecord bool) {
	row, ok := p.cells[participantID]
	if !ok {
		return false, false
	}
	value, has := row[ProgressColumn(surveyName, timePoint)]
	if !has {
		return false, true
	}
	return strings.TrimSpace(value) != "", true
}

// Participants returns all participants with a progress row, sorted for
// deterministic iteration.
func (p *ProgressTable) Participants() []core.ParticipantID {
	ids := make([]core.ParticipantID, 0, len(p.cells))
	for id := range p.cells {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Row returns a copy of the participant's progress row.
func (p *ProgressTable) Row(participantID core.ParticipantID) (map[string]string, bool) {
	row, ok := p.cells[participantID]
	if !ok {
		return nil, false
	}
	copied := make(map[string]string, len(row))
	for column, value := range row {
		copied[column] = value
	}
	return copied, true
}
