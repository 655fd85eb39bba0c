package survey

import (
	"fmt"
	"strings"
)

// Dialect selects which definition-table naming convention a survey uses.
// The export platform ships two dialects that differ only in column naming.
type Dialect string

const (
	DialectLibrary Dialect = "library"
	DialectPharme  Dialect = "pharme"
)

// Survey identifies one questionnaire of the study and how to access its
// files. Final surveys are the ones analyses read; app/counseling variants
// (Final == false) are merged into their final counterpart during
// preprocessing.
type Survey struct {
	Name         string
	Dialect      Dialect
	DisplayName  string
	Final        bool
	Longitudinal bool
}

// Column names shared by all survey tables.
const (
	ParticipantColumn = "participant_id"
	TimeColumn        = "authored_at_gmt"
	ScoreColumn       = "score"
	StudyGroupColumn  = "study_group"
)

// MetaColumns are present in every survey table and never hold answers.
var MetaColumns = []string{ParticipantColumn, TimeColumn, ScoreColumn}

// IsMetaColumn reports whether the column is one of the shared meta columns.
func IsMetaColumn(column string) bool {
	for _, meta := range MetaColumns {
		if column == meta {
			return true
		}
	}
	return false
}

// The fixed survey registry of the study.
var (
	Demographics            = Survey{Name: "demographics", Dialect: DialectPharme, DisplayName: "Demographics", Final: true}
	ComprehensionApp        = Survey{Name: "comprehension-app", Dialect: DialectPharme, DisplayName: "Comprehension app", Longitudinal: true}
	ComprehensionCounseling = Survey{Name: "comprehension-counseling", Dialect: DialectPharme, DisplayName: "Comprehension counseling", Longitudinal: true}
	Comprehension           = Survey{Name: "comprehension", Dialect: DialectPharme, DisplayName: "Comprehension", Final: true, Longitudinal: true}
	HealthLiteracy          = Survey{Name: "brief", Dialect: DialectLibrary, DisplayName: "Brief", Final: true, Longitudinal: true}
	GeneralSelfEfficacy     = Survey{Name: "gse", Dialect: DialectPharme, DisplayName: "GSE", Final: true, Longitudinal: true}
	BaselineKnowledge       = Survey{Name: "knowledge", Dialect: DialectPharme, DisplayName: "Knowledge (baseline)", Final: true}
	Knowledge               = Survey{Name: "knowledge-followup", Dialect: DialectPharme, DisplayName: "Knowledge", Final: true, Longitudinal: true}
	SatisfactionApp         = Survey{Name: "satisfaction-app", Dialect: DialectPharme, DisplayName: "Satisfaction app", Longitudinal: true}
	SatisfactionCounseling  = Survey{Name: "satisfaction-counseling", Dialect: DialectPharme, DisplayName: "Satisfaction counseling", Longitudinal: true}
	Satisfaction            = Survey{Name: "satisfaction", Dialect: DialectPharme, DisplayName: "Satisfaction", Final: true, Longitudinal: true}
	Actions                 = Survey{Name: "actions-taken", Dialect: DialectPharme, DisplayName: "Actions taken", Final: true, Longitudinal: true}
	Attitudes               = Survey{Name: "attitudes", Dialect: DialectPharme, DisplayName: "Attitudes", Final: true, Longitudinal: true}
	Feelings                = Survey{Name: "factor-adapted", Dialect: DialectPharme, DisplayName: "Feelings", Final: true, Longitudinal: true}
	AppRating               = Survey{Name: "u-mars", Dialect: DialectPharme, DisplayName: "App rating", Final: true}
)

// AllSurveys lists the full registry.
func AllSurveys() []Survey {
	return []Survey{
		Demographics,
		ComprehensionApp,
		ComprehensionCounseling,
		Comprehension,
		HealthLiteracy,
		GeneralSelfEfficacy,
		BaselineKnowledge,
		Knowledge,
		SatisfactionApp,
		SatisfactionCounseling,
		Satisfaction,
		Actions,
		Attitudes,
		Feelings,
		AppRating,
	}
}

// ByName resolves a survey from its file name.
func ByName(name string) (Survey, error) {
	for _, s := range AllSurveys() {
		if s.Name == name {
			return s, nil
		}
	}
	return Survey{}, fmt.Errorf("unknown survey %q", name)
}

// DefinitionFileName returns the definition-table file name, which carries
// the dialect as a prefix (e.g. "library::brief").
func (s Survey) DefinitionFileName() string {
	return fmt.Sprintf("%s::%s", s.Dialect, s.Name)
}

// NormalizeName strips the dialect prefix and the app/counseling variant
// suffixes from a survey or progress column name, mapping variants onto
// their merged final survey.
func NormalizeName(name string) string {
	if idx := strings.Index(name, "::"); idx >= 0 {
		name = name[idx+2:]
	}
	name = strings.ReplaceAll(name, "-app", "")
	return strings.ReplaceAll(name, "-counseling", "")
}
