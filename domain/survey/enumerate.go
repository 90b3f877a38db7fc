package survey

import (
	"fmt"
	"strings"
)

// Enumerator produces the full list of comparison cases for each survey phase,
// given the study's channel names and its cohort identifiers (already ordered).
type Enumerator struct {
	Channels []string
	Cohorts  []string
}

// PhenotypeForChannel forms the single-channel phenotype for a channel name.
// Channels following the "distance" naming convention measure distance to a
// region rather than marker expression, so they define a phenotype by a
// negative marker.
func PhenotypeForChannel(channel string) PhenotypeCriteria {
	if strings.Contains(channel, "distance") {
		return NegativeMarkerPhenotype(channel)
	}
	return PositiveMarkerPhenotype(channel)
}

// Cases returns the flat ordered case list for one of the three phases:
//
//	1: single-phenotype fractions, every channel x every cohort pair
//	2: fraction ratios, every ordered pair of distinct channels x cohort pairs
//	3: proximity, every ordered pair of channels (equal allowed) x cohort pairs
//
// Any other phase is a programming error.
func (e Enumerator) Cases(phase int) ([]Case, error) {
	pairs := e.cohortPairs()
	switch phase {
	case 1:
		cases := make([]Case, 0, len(e.Channels)*len(pairs))
		for _, channel := range e.Channels {
			for _, pair := range pairs {
				cases = append(cases, Case{
					Phenotype: PhenotypeForChannel(channel),
					Cohorts:   pair,
					Metric:    MetricFractions,
				})
			}
		}
		return cases, nil
	case 2:
		var cases []Case
		for _, first := range e.Channels {
			for _, second := range e.Channels {
				if first == second {
					continue
				}
				other := PhenotypeForChannel(second)
				for _, pair := range pairs {
					cases = append(cases, Case{
						Phenotype: PhenotypeForChannel(first),
						Other:     &other,
						Cohorts:   pair,
						Metric:    MetricFractions,
					})
				}
			}
		}
		return cases, nil
	case 3:
		cases := make([]Case, 0, len(e.Channels)*len(e.Channels)*len(pairs))
		for _, first := range e.Channels {
			for _, second := range e.Channels {
				other := PhenotypeForChannel(second)
				for _, pair := range pairs {
					cases = append(cases, Case{
						Phenotype: PhenotypeForChannel(first),
						Other:     &other,
						Cohorts:   pair,
						Metric:    MetricProximity,
					})
				}
			}
		}
		return cases, nil
	}
	return nil, fmt.Errorf("%w: %d", ErrInvalidPhase, phase)
}

// cohortPairs lists the unordered pairs of distinct cohorts in enumeration
// order.
func (e Enumerator) cohortPairs() []CohortPair {
	var pairs []CohortPair
	for i := 0; i < len(e.Cohorts); i++ {
		for j := i + 1; j < len(e.Cohorts); j++ {
			pairs = append(pairs, CohortPair{First: e.Cohorts[i], Second: e.Cohorts[j]})
		}
	}
	return pairs
}
