package tables

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/tamslo/pharme-study-result-analyses/domain/core"
	"github.com/tamslo/pharme-study-result-analyses/internal/errors"
)

// CSVAnonymizer owns the persisted SourceID to ParticipantID map. The map
// file is the only place the two namespaces meet; everything downstream of
// preprocessing sees participant IDs only. Safe for concurrent use; the
// survey normalization fan-out shares one instance.
type CSVAnonymizer struct {
	path string

	mu            sync.Mutex
	bySource      map[core.SourceID]core.ParticipantID
	byParticipant map[core.ParticipantID]core.SourceID
}

// NewCSVAnonymizer loads the map file, or starts empty when it does not
// exist yet.
func NewCSVAnonymizer(path string) (*CSVAnonymizer, error) {
	a := &CSVAnonymizer{
		path:          path,
		bySource:      make(map[core.SourceID]core.ParticipantID),
		byParticipant: make(map[core.ParticipantID]core.SourceID),
	}
	file, err := os.Open(path)
	if os.IsNotExist(err) {
		return a, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open anonymization map %s", path)
	}
	defer file.Close()
	rows, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read anonymization map %s", path)
	}
	for i, row := range rows {
		if i == 0 {
			continue
		}
		sourceID := core.SourceID(row[0])
		participantID := core.ParticipantID(row[1])
		a.bySource[sourceID] = participantID
		a.byParticipant[participantID] = sourceID
	}
	return a, nil
}

// Anonymize maps a source ID to its participant ID, generating a fresh one
// for unseen source IDs. Feeding an already-anonymized value back in would
// silently chain pseudonyms, so it fails instead.
func (a *CSVAnonymizer) Anonymize(sourceID core.SourceID) (core.ParticipantID, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, alreadyAnonymized := a.byParticipant[core.ParticipantID(sourceID)]; alreadyAnonymized {
		return "", errors.DataIntegrityErrorf(
			"value %s already is a participant ID; refusing to anonymize it again", sourceID,
		)
	}
	if participantID, ok := a.bySource[sourceID]; ok {
		return participantID, nil
	}
	participantID := core.NewParticipantID()
	a.bySource[sourceID] = participantID
	a.byParticipant[participantID] = sourceID
	return participantID, nil
}

// Reveal is the inverse lookup back into the raw namespace.
func (a *CSVAnonymizer) Reveal(participantID core.ParticipantID) (core.SourceID, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	sourceID, ok := a.byParticipant[participantID]
	if !ok {
		return "", errors.LookupErrorf("no source ID recorded for participant %s", participantID)
	}
	return sourceID, nil
}

// Save writes the map file, sorted by source ID for stable diffs.
func (a *CSVAnonymizer) Save() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(a.path), 0o755); err != nil {
		return errors.Wrapf(err, "failed to create directory for %s", a.path)
	}
	file, err := os.Create(a.path)
	if err != nil {
		return errors.Wrapf(err, "failed to create anonymization map %s", a.path)
	}
	defer file.Close()

	sourceIDs := make([]core.SourceID, 0, len(a.bySource))
	for sourceID := range a.bySource {
		sourceIDs = append(sourceIDs, sourceID)
	}
	sort.Slice(sourceIDs, func(i, j int) bool { return sourceIDs[i] < sourceIDs[j] })

	writer := csv.NewWriter(file)
	if err := writer.Write([]string{"source_id", "participant_id"}); err != nil {
		return errors.Wrapf(err, "failed to write anonymization map %s", a.path)
	}
	for _, sourceID := range sourceIDs {
		if err := writer.Write([]string{sourceID.String(), a.bySource[sourceID].String()}); err != nil {
			return errors.Wrapf(err, "failed to write anonymization map %s", a.path)
		}
	}
	writer.Flush()
	return writer.Error()
}
