// Package truth holds the participants' actual genetic test result data,
// used to grade comprehension answers. Records are keyed by the internal
// study ID, not the anonymous participant ID.
package truth

import (
	"fmt"
	"strconv"
	"strings"
)

// GeneResult is one gene's test result for a participant.
type GeneResult struct {
	Genotype  string `json:"genotype"`
	Phenotype string `json:"phenotype"`
}

// FirstPhenotypeWord returns the leading word of the phenotype, lowercased.
// Phenotype comprehension answers are compared against this form.
func (g GeneResult) FirstPhenotypeWord() string {
	fields := strings.Fields(g.Phenotype)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToLower(fields[0])
}

// IsIndeterminate reports whether the phenotype could not be determined.
func (g GeneResult) IsIndeterminate() bool {
	return strings.EqualFold(strings.TrimSpace(g.Phenotype), "indeterminate")
}

// Record is one participant's ground-truth data: gene results plus which of
// the study medications they are currently taking. Medication intake is
// string-encoded ("true"/"false") in the source data.
type Record struct {
	Genes       map[string]GeneResult `json:"genes"`
	Medications map[string]string     `json:"medications"`
}

// Gene returns the result for a gene.
func (r Record) Gene(name string) (GeneResult, bool) {
	result, ok := r.Genes[name]
	return result, ok
}

// IsTakingMedication decodes the string-encoded intake flag for a
// medication.
func (r Record) IsTakingMedication(name string) (bool, error) {
	raw, ok := r.Medications[name]
	if !ok {
		return false, fmt.Errorf("no medication intake record for %q", name)
	}
	taking, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return false, fmt.Errorf("invalid medication intake value %q for %q", raw, name)
	}
	return taking, nil
}
