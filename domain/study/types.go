package study

import (
	"strings"

	"github.com/tamslo/pharme-study-result-analyses/domain/core"
)

// TimePoint is one of the fixed ordered study milestones at which surveys
// are (re)administered.
type TimePoint int

const (
	// ResultReturn is the baseline time point (t0, result return visit).
	ResultReturn TimePoint = iota
	// OneMonthFollowUp is the one-month follow-up (t30).
	OneMonthFollowUp
	// ThreeMonthFollowUp is the three-month follow-up (t90).
	ThreeMonthFollowUp
)

// AllTimePoints returns all time points in ordinal order.
func AllTimePoints() []TimePoint {
	return []TimePoint{ResultReturn, OneMonthFollowUp, ThreeMonthFollowUp}
}

// Ordinal returns the positional index used for row matching (0, 1, 2).
func (t TimePoint) Ordinal() int {
	return int(t)
}

// Suffix returns the short textual suffix used in progress column names
// (e.g. "brief_t30").
func (t TimePoint) Suffix() string {
	switch t {
	case ResultReturn:
		return "t0"
	case OneMonthFollowUp:
		return "t30"
	case ThreeMonthFollowUp:
		return "t90"
	}
	return ""
}

// Name returns the human-readable time point name.
func (t TimePoint) Name() string {
	switch t {
	case ResultReturn:
		return "result return"
	case OneMonthFollowUp:
		return "one month follow up"
	case ThreeMonthFollowUp:
		return "three month follow up"
	}
	return ""
}

// String returns the suffix form, which doubles as the file-name token.
func (t TimePoint) String() string {
	return t.Suffix()
}

// StudyGroup is the study arm a participant is randomized into.
type StudyGroup string

const (
	// GroupApp is the app-based intervention arm.
	GroupApp StudyGroup = "PharMe"
	// GroupCounseling is the pharmacist-counseling control arm.
	GroupCounseling StudyGroup = "Counseling"
)

// AllStudyGroups returns both study arms, intervention first.
func AllStudyGroups() []StudyGroup {
	return []StudyGroup{GroupApp, GroupCounseling}
}

// String returns the display value of the study group.
func (g StudyGroup) String() string {
	return string(g)
}

// StudyGroupFromRandomization maps the enrollment randomization code to a
// study group. Unknown codes yield ok == false; such participants are
// excluded from group-based analyses.
func StudyGroupFromRandomization(code string) (StudyGroup, bool) {
	switch strings.TrimSpace(code) {
	case "1":
		return GroupApp, true
	case "0":
		return GroupCounseling, true
	}
	return "", false
}

// EnrollmentRecord is one participant's enrollment entry from the study
// management system. It carries the SourceID to StudyID mapping and the
// randomization code of the study arm.
type EnrollmentRecord struct {
	SourceID          core.SourceID `json:"ehive_id"`
	StudyID           core.StudyID  `json:"study_id"`
	Randomization     string        `json:"randomization"`
	CounselDate       string        `json:"counsel_date,omitempty"`
	AppDataUploaded   string        `json:"pharme_data_uploaded,omitempty"`
	CrossoverComplete string        `json:"crossover_complete,omitempty"`
}

// StudyGroup resolves the randomization code of the record.
func (r EnrollmentRecord) StudyGroup() (StudyGroup, bool) {
	return StudyGroupFromRandomization(r.Randomization)
}

// IsTestAccount reports whether the record belongs to one of the known
// test accounts that are filtered at ingestion.
func (r EnrollmentRecord) IsTestAccount() bool {
	switch r.StudyID {
	case "JaneDoe", "PharMe_Test":
		return true
	}
	return false
}
