// Package testkit provides in-memory test doubles and fixtures shared by
// the application-level tests.
package testkit

import (
	"context"
	"sync"

	"github.com/tamslo/pharme-study-result-analyses/domain/core"
	"github.com/tamslo/pharme-study-result-analyses/domain/stats"
	"github.com/tamslo/pharme-study-result-analyses/domain/study"
)

// InMemoryLedger implements ports.ResultLedger without touching disk.
type InMemoryLedger struct {
	mu   sync.Mutex
	rows []stats.LedgerRow
}

// NewInMemoryLedger creates an empty in-memory results ledger.
func NewInMemoryLedger() *InMemoryLedger {
	return &InMemoryLedger{}
}

// Upsert appends a new (comparison, item) row or overwrites the existing one.
func (l *InMemoryLedger) Upsert(_ context.Context, comparison stats.Comparison, item, title string, result stats.ComparisonResult) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, row := range l.rows {
		if row.Comparison == comparison && row.Item == item {
			l.rows[i] = stats.LedgerRow{Comparison: comparison, Item: item, Title: title, Result: result}
			return nil
		}
	}
	l.rows = append(l.rows, stats.LedgerRow{Comparison: comparison, Item: item, Title: title, Result: result})
	return nil
}

// Rows returns a copy of the stored rows in insertion order.
func (l *InMemoryLedger) Rows(context.Context) ([]stats.LedgerRow, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	rows := make([]stats.LedgerRow, len(l.rows))
	copy(rows, l.rows)
	return rows, nil
}

// Row looks up one stored entry by key.
func (l *InMemoryLedger) Row(comparison stats.Comparison, item string) (stats.LedgerRow, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, row := range l.rows {
		if row.Comparison == comparison && row.Item == item {
			return row, true
		}
	}
	return stats.LedgerRow{}, false
}

// GroupLookup is a fixed participant-to-arm assignment.
type GroupLookup struct {
	Groups map[core.ParticipantID]study.StudyGroup
	IDs    map[core.ParticipantID]core.StudyID
}

// NewGroupLookup builds a lookup from a participant-to-group assignment.
func NewGroupLookup(groups map[core.ParticipantID]study.StudyGroup) *GroupLookup {
	return &GroupLookup{Groups: groups, IDs: map[core.ParticipantID]core.StudyID{}}
}

// StudyGroup returns the assigned arm of a participant.
func (g *GroupLookup) StudyGroup(participantID core.ParticipantID) (study.StudyGroup, bool) {
	group, ok := g.Groups[participantID]
	return group, ok
}

// StudyID returns the pseudonymous study identifier of a participant.
func (g *GroupLookup) StudyID(participantID core.ParticipantID) (core.StudyID, bool) {
	id, ok := g.IDs[participantID]
	return id, ok
}
