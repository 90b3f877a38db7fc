package survey

// commonSlot names which slot of a candidate case holds the phenotype shared
// with a singleton result.
type commonSlot int

const (
	slotNone commonSlot = iota
	slotPhenotype
	slotOther
)

// SimpleConfounding estimates whether a higher-order candidate result may be
// confounded by a singleton (single-phenotype fractions) result. This can
// happen when:
//   - either the numerator or denominator phenotype of a ratio candidate is
//     the singleton phenotype, or
//   - either of the two phenotypes of a proximity candidate is the singleton
//     phenotype,
//
// and the direction of association implied by both results is the same. A
// shared phenotype in a ratio's denominator inverts the implied direction.
type SimpleConfounding struct {
	Simple    Result
	Candidate Result
}

// ProbableConfounding reports whether the candidate is probably a restatement
// of the simple result rather than an independent effect.
func (c SimpleConfounding) ProbableConfounding() bool {
	return c.compatibleResultTypes() &&
		c.Simple.Case.Cohorts.Equal(c.Candidate.Case.Cohorts) &&
		c.sharedSlot() != slotNone &&
		c.directionConsistent()
}

func (c SimpleConfounding) compatibleResultTypes() bool {
	simple := c.Simple.Case
	candidate := c.Candidate.Case
	if simple.Metric != MetricFractions || simple.Other != nil {
		return false
	}
	switch candidate.Metric {
	case MetricFractions:
		return candidate.Other != nil
	case MetricProximity:
		return true
	}
	return false
}

func (c SimpleConfounding) sharedSlot() commonSlot {
	simple := c.Simple.Case
	candidate := c.Candidate.Case
	if simple.Phenotype.Equal(candidate.Phenotype) {
		return slotPhenotype
	}
	if candidate.Other != nil && simple.Phenotype.Equal(*candidate.Other) {
		return slotOther
	}
	return slotNone
}

func (c SimpleConfounding) directionConsistent() bool {
	sameDirection := c.Simple.HigherCohort == c.Candidate.HigherCohort
	switch c.Candidate.Case.Metric {
	case MetricFractions:
		if c.sharedSlot() == slotOther {
			// Shared phenotype sits in the denominator, which inverts the
			// direction of the ratio's effect.
			return !sameDirection
		}
		return sameDirection
	case MetricProximity:
		// Proximity counts are not a quotient; neither slot inverts.
		return sameDirection
	}
	return false
}

// ConfoundingReferences filters the accepted singleton results down to those
// that probably confound the candidate. An empty return means the candidate
// stands as an independent effect.
func ConfoundingReferences(singletons []Result, candidate Result) []Result {
	var confounding []Result
	for _, simple := range singletons {
		if (SimpleConfounding{Simple: simple, Candidate: candidate}).ProbableConfounding() {
			confounding = append(confounding, simple)
		}
	}
	return confounding
}
