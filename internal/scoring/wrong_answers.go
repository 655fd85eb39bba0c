package scoring

import (
	"encoding/csv"
	"os"

	"github.com/tamslo/pharme-study-result-analyses/domain/core"
	"github.com/tamslo/pharme-study-result-analyses/domain/study"
	"github.com/tamslo/pharme-study-result-analyses/internal/errors"
)

// WrongAnswerLog is the append-only record of wrong (or overridden)
// comprehension answers. The main log carries question content; the
// parallel restricted log records only which participants were logged, for
// manual follow-up, and is kept out of shared result sets.
type WrongAnswerLog struct {
	logPath    string
	secretPath string
	now        func() core.Timestamp
}

// NewWrongAnswerLog creates a log writing to the given file paths.
func NewWrongAnswerLog(logPath, secretPath string) *WrongAnswerLog {
	return &WrongAnswerLog{logPath: logPath, secretPath: secretPath, now: core.Now}
}

// Reset truncates both logs and writes fresh headers. Called once per
// scoring pass so reruns do not append duplicate lines.
func (l *WrongAnswerLog) Reset() error {
	if err := writeCSVLine(l.logPath, []string{"timestamp", "study_group", "question", "answer", "notes"}, false); err != nil {
		return err
	}
	return writeCSVLine(l.secretPath, []string{"participant_id"}, false)
}

// Append records one non-trivial scoring outcome.
func (l *WrongAnswerLog) Append(group study.StudyGroup, question, answer, notes string, participantID core.ParticipantID) error {
	row := []string{l.now().LogFormat(), group.String(), question, answer, notes}
	if err := writeCSVLine(l.logPath, row, true); err != nil {
		return err
	}
	return writeCSVLine(l.secretPath, []string{participantID.String()}, true)
}

func writeCSVLine(path string, record []string, appendMode bool) error {
	flags := os.O_CREATE | os.O_WRONLY
	if appendMode {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}
	file, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return errors.Wrapf(err, "failed to open log file %s", path)
	}
	defer file.Close()
	writer := csv.NewWriter(file)
	if err := writer.Write(record); err != nil {
		return errors.Wrapf(err, "failed to write log line to %s", path)
	}
	writer.Flush()
	return writer.Error()
}
