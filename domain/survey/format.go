package survey

import (
	"fmt"
	"strings"
)

// String renders the phenotype in marker-sign notation, e.g. "CD3+" or
// "distance to boundary-".
func (p PhenotypeCriteria) String() string {
	parts := make([]string, 0, len(p.PositiveMarkers)+len(p.NegativeMarkers))
	for _, m := range p.PositiveMarkers {
		parts = append(parts, m+"+")
	}
	for _, m := range p.NegativeMarkers {
		parts = append(parts, m+"-")
	}
	return strings.Join(parts, " ")
}

// FormatEffect renders an effect size as a right-aligned multiplier column.
func FormatEffect(effect float64) string {
	return fmt.Sprintf("%12s x", fmt.Sprintf("%.4f", effect))
}

// FormatP renders a p-value column, switching to scientific notation below
// 0.0001.
func FormatP(p float64) string {
	if p >= 0.0001 {
		return fmt.Sprintf("%12s", fmt.Sprintf("p = %.5f", p))
	}
	return fmt.Sprintf("%12s", fmt.Sprintf("%.2E", p))
}

// FormatSingleton renders a single-phenotype fractions result on one line,
// with the phenotype column padded to nameWidth.
func FormatSingleton(r Result, nameWidth int) string {
	s := r.Significance
	description := fmt.Sprintf("%s fractions in cohort %s (vs %s)",
		r.Case.Phenotype, r.HigherCohort, r.LowerCohort())
	return fmt.Sprintf("%*s %s   %s", nameWidth+22, description, FormatEffect(s.Effect), FormatP(s.P))
}

// FormatRatio renders a fraction-ratio result on one line. A ratio result
// without a second phenotype indicates an upstream bug.
func FormatRatio(r Result, nameWidth int) (string, error) {
	if r.Case.Other == nil {
		return "", fmt.Errorf("ratio result: %w", ErrMissingOtherPhenotype)
	}
	s := r.Significance
	numerator := fmt.Sprintf("%*s", nameWidth+1, r.Case.Phenotype.String())
	denominator := fmt.Sprintf("%*s", nameWidth+1, r.Case.Other.String())
	description := fmt.Sprintf("%s / %s   ratios in cohort %s (vs %s)",
		numerator, denominator, r.HigherCohort, r.LowerCohort())
	return fmt.Sprintf("%s %s   %s", description, FormatEffect(s.Effect), FormatP(s.P)), nil
}

// FormatProximity renders a proximity result on one line. A proximity result
// without a second phenotype indicates an upstream bug.
func FormatProximity(r Result, nameWidth int) (string, error) {
	if r.Case.Other == nil {
		return "", fmt.Errorf("proximity result: %w", ErrMissingOtherPhenotype)
	}
	s := r.Significance
	first := fmt.Sprintf("%*s", nameWidth+1, r.Case.Phenotype.String())
	second := fmt.Sprintf("%*s", nameWidth+1, r.Case.Other.String())
	description := fmt.Sprintf("%s have a number of nearby %s   cells in cohort %s (vs %s)",
		first, second, r.HigherCohort, r.LowerCohort())
	return fmt.Sprintf("%s %s   %s", description, FormatEffect(s.Effect), FormatP(s.P)), nil
}
