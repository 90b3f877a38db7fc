package survey

import (
	"errors"
	"fmt"
	"sort"
)

// Metric identifies which computed measurement a case compares across cohorts.
type Metric string

const (
	MetricFractions Metric = "fractions"
	MetricProximity Metric = "proximity"
)

// Domain errors - centralized error definitions
var (
	ErrDegenerateCalibration = errors.New("calibration extrema are linearly dependent")
	ErrInvalidPhase          = errors.New("undefined enumeration phase")
	ErrMissingOtherPhenotype = errors.New("second phenotype is absent")
	ErrEmptyPhenotype        = errors.New("at least one positive or negative marker is required")
	ErrUnknownMetric         = errors.New("unknown metric")
)

// PhenotypeCriteria describes a cell population by the marker channels that must
// be expressed (positive) and the channels that must be absent (negative).
// Values are canonicalized at construction; equality is structural and
// order-independent.
type PhenotypeCriteria struct {
	PositiveMarkers []string
	NegativeMarkers []string
}

// NewPhenotypeCriteria canonicalizes and validates a phenotype definition.
func NewPhenotypeCriteria(positives, negatives []string) (PhenotypeCriteria, error) {
	if len(positives) == 0 && len(negatives) == 0 {
		return PhenotypeCriteria{}, ErrEmptyPhenotype
	}
	p := PhenotypeCriteria{
		PositiveMarkers: canonicalMarkers(positives),
		NegativeMarkers: canonicalMarkers(negatives),
	}
	for _, marker := range p.PositiveMarkers {
		if containsMarker(p.NegativeMarkers, marker) {
			return PhenotypeCriteria{}, fmt.Errorf("marker %q is both positive and negative", marker)
		}
	}
	return p, nil
}

// PositiveMarkerPhenotype is a phenotype defined by a single expressed channel.
func PositiveMarkerPhenotype(channel string) PhenotypeCriteria {
	return PhenotypeCriteria{PositiveMarkers: []string{channel}}
}

// NegativeMarkerPhenotype is a phenotype defined by a single absent channel.
func NegativeMarkerPhenotype(channel string) PhenotypeCriteria {
	return PhenotypeCriteria{NegativeMarkers: []string{channel}}
}

// Equal reports structural equality, independent of marker order.
func (p PhenotypeCriteria) Equal(other PhenotypeCriteria) bool {
	return sameMarkerSet(p.PositiveMarkers, other.PositiveMarkers) &&
		sameMarkerSet(p.NegativeMarkers, other.NegativeMarkers)
}

func canonicalMarkers(markers []string) []string {
	seen := make(map[string]bool, len(markers))
	out := make([]string, 0, len(markers))
	for _, m := range markers {
		if !seen[m] {
			seen[m] = true
			out = append(out, m)
		}
	}
	sort.Strings(out)
	return out
}

func containsMarker(markers []string, marker string) bool {
	for _, m := range markers {
		if m == marker {
			return true
		}
	}
	return false
}

func sameMarkerSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	ca := canonicalMarkers(a)
	cb := canonicalMarkers(b)
	for i := range ca {
		if ca[i] != cb[i] {
			return false
		}
	}
	return true
}

// CohortPair is an unordered pair of distinct cohort identifiers.
type CohortPair struct {
	First  string
	Second string
}

// Equal reports whether both pairs name the same cohort set.
func (c CohortPair) Equal(other CohortPair) bool {
	return (c.First == other.First && c.Second == other.Second) ||
		(c.First == other.Second && c.Second == other.First)
}

// Contains reports whether the pair names the given cohort.
func (c CohortPair) Contains(cohort string) bool {
	return c.First == cohort || c.Second == cohort
}

// OtherThan returns the member of the pair that is not the given cohort.
func (c CohortPair) OtherThan(cohort string) string {
	if c.First == cohort {
		return c.Second
	}
	return c.First
}

// Case is one comparison unit: one or two phenotypes compared along two sample
// cohorts using one of the computed metrics. Other is nil only for
// single-phenotype fraction cases.
type Case struct {
	Phenotype PhenotypeCriteria
	Other     *PhenotypeCriteria
	Cohorts   CohortPair
	Metric    Metric
}

// Phenotypes lists the case's phenotypes in slot order, omitting an absent Other.
func (c Case) Phenotypes() []PhenotypeCriteria {
	if c.Other == nil {
		return []PhenotypeCriteria{c.Phenotype}
	}
	return []PhenotypeCriteria{c.Phenotype, *c.Other}
}

// ResultSignificance carries a hypothesis-test p-value and a multiplicative
// effect size. After assessment the effect is always >= 1.
type ResultSignificance struct {
	P      float64
	Effect float64
}

// Result records the assessment of one case. HigherCohort is the cohort in
// which the metric value was higher.
type Result struct {
	Case         Case
	HigherCohort string
	Significance ResultSignificance
	Significant  bool
}

// LowerCohort is the member of the case's cohort pair other than HigherCohort.
func (r Result) LowerCohort() string {
	return r.Case.Cohorts.OtherThan(r.HigherCohort)
}

// FilteredResults is the final survey output: accepted results per phase, in
// production order.
type FilteredResults struct {
	SingleFractions []Result
	Ratios          []Result
	Proximity       []Result
}
