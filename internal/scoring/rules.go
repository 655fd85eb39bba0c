package scoring

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/tamslo/pharme-study-result-analyses/domain/core"
	"github.com/tamslo/pharme-study-result-analyses/internal/errors"
)

// CategoryKind tags how a comprehension question is graded.
type CategoryKind string

const (
	// CategoryStatic questions have one fixed expected answer.
	CategoryStatic CategoryKind = "static"
	// CategoryMissingGene asks which gene the test could not report.
	CategoryMissingGene CategoryKind = "missing_gene"
	// CategoryPhenotype asks for the phenotype of a gene named in the
	// question text.
	CategoryPhenotype CategoryKind = "phenotype"
	// CategoryMedicationSafety asks whether a medication is safe at
	// standard dose given the participant's result.
	CategoryMedicationSafety CategoryKind = "medication_safety"
	// CategoryPassthrough columns are carried unmodified and yield no
	// correctness verdict.
	CategoryPassthrough CategoryKind = "passthrough"
)

// QuestionCategory is the grading role attached to one comprehension
// question. Gene and Medication are filled from the question text for the
// phenotype and medication categories.
type QuestionCategory struct {
	Kind       CategoryKind
	Gene       string
	Medication string
}

// MedicationRule fixes, for one study medication, the gene it is metabolized
// by and the phenotypes considered safe at standard dose.
type MedicationRule struct {
	Gene           string   `yaml:"gene"`
	SafePhenotypes []string `yaml:"safe_phenotypes"`
}

// SafeAtStandardDose reports whether the phenotype allows standard dosing.
func (r MedicationRule) SafeAtStandardDose(phenotype string) bool {
	for _, safe := range r.SafePhenotypes {
		if safe == phenotype {
			return true
		}
	}
	return false
}

// Rules is the versioned scoring configuration injected into the
// comprehension scorer and the definition resolver. The defaults reproduce
// the study's published grading; tests substitute fixtures.
type Rules struct {
	Version string `yaml:"version"`

	// Comprehension grading.
	StaticAnswer             string                    `yaml:"static_answer"`
	MissingGene              string                    `yaml:"missing_gene"`
	MissingGeneQuestionLabel string                    `yaml:"missing_gene_question_label"`
	StaticIndices            []int                     `yaml:"static_indices"`
	MissingGeneIndex         int                       `yaml:"missing_gene_index"`
	PhenotypeIndices         []int                     `yaml:"phenotype_indices"`
	MedicationIndices        []int                     `yaml:"medication_indices"`
	QuestionCount            int                       `yaml:"question_count"`
	DropQuestions            []string                  `yaml:"drop_questions"`
	RemoveFormulations       []string                  `yaml:"remove_formulations"`
	Medications              map[string]MedicationRule `yaml:"medications"`
	CYP2C9ActivityScores     map[string]float64        `yaml:"cyp2c9_activity_scores"`

	// Per-participant overrides, keyed by the internal study ID.
	DPYDIndeterminateCasts []string          `yaml:"dpyd_indeterminate_casts"`
	GenotypeSimplified     map[string]string `yaml:"genotype_simplified"`
	PhenotypeSimplified    map[string]string `yaml:"phenotype_simplified"`

	// Score resolution.
	ComprehensionFallbackScores map[string]int `yaml:"comprehension_fallback_scores"`
	OrdinalMarkers              []string       `yaml:"ordinal_markers"`
}

// DefaultRules returns the built-in scoring configuration.
func DefaultRules() *Rules {
	return &Rules{
		Version:                  "2024.1",
		StaticAnswer:             "yes",
		MissingGene:              "MTHFR",
		MissingGeneQuestionLabel: "missing gene",
		StaticIndices:            []int{4, 5},
		MissingGeneIndex:         6,
		PhenotypeIndices:         []int{7, 9, 11},
		MedicationIndices:        []int{8, 10, 12, 13},
		QuestionCount:            10,
		RemoveFormulations: []string{
			" in the counseling session",
			" in the PharMe app",
			" from the PGx report available in MyChart",
			" from the PharMe app",
		},
		Medications: map[string]MedicationRule{
			"ibuprofen": {
				Gene:           "CYP2C9",
				SafePhenotypes: []string{"Normal Metabolizer", "Intermediate Metabolizer", "Indeterminate"},
			},
			"simvastatin": {
				Gene:           "SLCO1B1",
				SafePhenotypes: []string{"Increased Function", "Normal Function", "Indeterminate"},
			},
			"citalopram": {
				Gene:           "CYP2C19",
				SafePhenotypes: []string{"Rapid Metabolizer", "Normal Metabolizer", "Intermediate Metabolizer", "Indeterminate"},
			},
			"clopidogrel": {
				Gene:           "CYP2C19",
				SafePhenotypes: []string{"Indeterminate", "Ultrarapid Metabolizer", "Rapid Metabolizer", "Normal Metabolizer"},
			},
		},
		CYP2C9ActivityScores: map[string]float64{
			"*1/*1":  2.0,
			"*1/*2":  1.5,
			"*1/*3":  1.0,
			"*1/*11": 1.5,
			"*2/*2":  1.0,
			"*2/*3":  0.5,
			"*3/*3":  0.0,
		},
		DPYDIndeterminateCasts: []string{"PharMe1060"},
		GenotypeSimplified:     map[string]string{"PharMe3397": "CYP2C19"},
		PhenotypeSimplified:    map[string]string{},
		ComprehensionFallbackScores: map[string]int{
			"strongly_disagree": 1,
			"disagree":          2,
			"agree":             3,
			"strongly_agree":    4,
		},
		OrdinalMarkers: []string{"agree", "moderately_true", "occasionally", "somewhat", "neutral"},
	}
}

// LoadRules reads a YAML rules file; an empty path yields the defaults.
func LoadRules(path string) (*Rules, error) {
	if path == "" {
		return DefaultRules(), nil
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read scoring rules from %s", path)
	}
	rules := DefaultRules()
	if err := yaml.Unmarshal(content, rules); err != nil {
		return nil, errors.Wrapf(err, "failed to parse scoring rules from %s", path)
	}
	return rules, nil
}

// CategoryFor resolves the grading role of the question at the given
// position of the definition ordering. The gene and medication are read
// from the question title.
func (r *Rules) CategoryFor(index int, title string) QuestionCategory {
	for _, i := range r.StaticIndices {
		if i == index {
			return QuestionCategory{Kind: CategoryStatic}
		}
	}
	if index == r.MissingGeneIndex {
		return QuestionCategory{Kind: CategoryMissingGene}
	}
	for _, i := range r.PhenotypeIndices {
		if i == index {
			return QuestionCategory{Kind: CategoryPhenotype, Gene: GeneFromQuestion(title)}
		}
	}
	for _, i := range r.MedicationIndices {
		if i == index {
			return QuestionCategory{Kind: CategoryMedicationSafety, Medication: MedicationFromQuestion(title)}
		}
	}
	return QuestionCategory{Kind: CategoryPassthrough}
}

// IsDPYDIndeterminateCast reports whether the participant is on the fixed
// exception list of known-indeterminate-but-mislabeled DPYD results.
func (r *Rules) IsDPYDIndeterminateCast(studyID core.StudyID) bool {
	for _, id := range r.DPYDIndeterminateCasts {
		if core.StudyID(id) == studyID {
			return true
		}
	}
	return false
}

// SimplifiedGene returns the gene whose communicated result was simplified
// for the participant, combining the genotype-only and phenotype maps.
func (r *Rules) SimplifiedGene(studyID core.StudyID) (string, bool) {
	if gene, ok := r.GenotypeSimplified[studyID.String()]; ok {
		return gene, true
	}
	gene, ok := r.PhenotypeSimplified[studyID.String()]
	return gene, ok
}
