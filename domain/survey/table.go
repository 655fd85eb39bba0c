package survey

import (
	"sort"
	"strings"

	"github.com/tamslo/pharme-study-result-analyses/domain/core"
)

// Row is one record of a result table, keyed by column title. Absent and
// empty cells both mean "not answered".
type Row map[string]string

// ParticipantID returns the participant the row belongs to.
func (r Row) ParticipantID() core.ParticipantID {
	return core.ParticipantID(r[ParticipantColumn])
}

// Time returns the free-form time marker of the row.
func (r Row) Time() string {
	return r[TimeColumn]
}

// Answered reports whether the row holds a non-empty value for the column.
func (r Row) Answered(column string) bool {
	value, ok := r[column]
	return ok && strings.TrimSpace(value) != ""
}

// Clone returns a copy of the row.
func (r Row) Clone() Row {
	copied := make(Row, len(r))
	for column, value := range r {
		copied[column] = value
	}
	return copied
}

// ResultTable is the tabular shape shared by survey results, progress
// exports, definition tables and score tables: ordered headers plus rows of
// string cells. All stored tables are CSV-shaped.
type ResultTable struct {
	Headers []string
	Rows    []Row
}

// NewResultTable creates an empty table with the given columns.
func NewResultTable(headers []string) *ResultTable {
	return &ResultTable{Headers: headers}
}

// Append adds a row to the table.
func (t *ResultTable) Append(row Row) {
	t.Rows = append(t.Rows, row)
}

// Len returns the number of rows.
func (t *ResultTable) Len() int {
	return len(t.Rows)
}

// ParticipantIDs returns the unique participant IDs in first-seen order.
func (t *ResultTable) ParticipantIDs() []core.ParticipantID {
	seen := make(map[core.ParticipantID]bool)
	var ids []core.ParticipantID
	for _, row := range t.Rows {
		id := row.ParticipantID()
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids
}

// RowsForParticipant returns the participant's rows sorted ascending by the
// time marker. Ties keep the input order (stable sort).
func (t *ResultTable) RowsForParticipant(participantID core.ParticipantID) []Row {
	var rows []Row
	for _, row := range t.Rows {
		if row.ParticipantID() == participantID {
			rows = append(rows, row)
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Time() < rows[j].Time()
	})
	return rows
}

// Column collects the values of one column, keyed by participant; rows
// without a value for the column are omitted.
func (t *ResultTable) Column(column string) map[core.ParticipantID]string {
	values := make(map[core.ParticipantID]string)
	for _, row := range t.Rows {
		if row.Answered(column) {
			values[row.ParticipantID()] = row[column]
		}
	}
	return values
}

// QuestionColumns returns the non-meta columns, i.e. the question titles.
func (t *ResultTable) QuestionColumns() []string {
	var columns []string
	for _, header := range t.Headers {
		if !IsMetaColumn(header) {
			columns = append(columns, header)
		}
	}
	return columns
}

// DropDuplicates removes rows that are exact copies of an earlier row,
// keeping the first occurrence.
func (t *ResultTable) DropDuplicates() {
	seen := make(map[string]bool)
	kept := t.Rows[:0]
	for _, row := range t.Rows {
		key := rowKey(t.Headers, row)
		if seen[key] {
			continue
		}
		seen[key] = true
		kept = append(kept, row)
	}
	t.Rows = kept
}

func rowKey(headers []string, row Row) string {
	var b strings.Builder
	for _, header := range headers {
		b.WriteString(row[header])
		b.WriteByte('\x1f')
	}
	return b.String()
}
