package survey

import (
	"errors"
	"strings"
	"testing"
)

// TestPhenotypeCriteria_Equality verifies structural, order-independent
// equality.
func TestPhenotypeCriteria_Equality(t *testing.T) {
	a := PhenotypeCriteria{PositiveMarkers: []string{"CD3", "CD8"}}
	b := PhenotypeCriteria{PositiveMarkers: []string{"CD8", "CD3"}}
	if !a.Equal(b) {
		t.Error("marker order should not affect equality")
	}

	c := PhenotypeCriteria{PositiveMarkers: []string{"CD3"}, NegativeMarkers: []string{"CD8"}}
	if a.Equal(c) {
		t.Error("positive and negative slots should be distinguished")
	}
}

// TestNewPhenotypeCriteria_Validation covers the emptiness and disjointness
// invariants.
func TestNewPhenotypeCriteria_Validation(t *testing.T) {
	if _, err := NewPhenotypeCriteria(nil, nil); !errors.Is(err, ErrEmptyPhenotype) {
		t.Errorf("expected ErrEmptyPhenotype, got %v", err)
	}

	if _, err := NewPhenotypeCriteria([]string{"CD3"}, []string{"CD3"}); err == nil {
		t.Error("expected error for overlapping marker sets")
	}

	p, err := NewPhenotypeCriteria([]string{"CD8", "CD3", "CD3"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(p.PositiveMarkers) != 2 {
		t.Errorf("expected de-duplicated markers, got %v", p.PositiveMarkers)
	}
}

// TestCohortPair verifies the unordered-pair helpers.
func TestCohortPair(t *testing.T) {
	pair := CohortPair{First: "1", Second: "2"}
	if !pair.Equal(CohortPair{First: "2", Second: "1"}) {
		t.Error("pair equality should be unordered")
	}
	if pair.OtherThan("1") != "2" || pair.OtherThan("2") != "1" {
		t.Error("OtherThan should return the remaining member")
	}
}

// TestResult_LowerCohort verifies the derived accessor.
func TestResult_LowerCohort(t *testing.T) {
	r := Result{
		Case:         Case{Cohorts: CohortPair{First: "3", Second: "7"}},
		HigherCohort: "7",
	}
	if r.LowerCohort() != "3" {
		t.Errorf("expected lower cohort 3, got %s", r.LowerCohort())
	}
}

// TestPhenotypeCriteria_String verifies marker-sign notation.
func TestPhenotypeCriteria_String(t *testing.T) {
	p := PhenotypeCriteria{PositiveMarkers: []string{"CD3"}}
	if p.String() != "CD3+" {
		t.Errorf("expected CD3+, got %q", p.String())
	}

	d := NegativeMarkerPhenotype("distance to boundary")
	if d.String() != "distance to boundary-" {
		t.Errorf("expected distance to boundary-, got %q", d.String())
	}
}

// TestFormatRatio_MissingOther verifies formatting a ratio without a second
// phenotype is an invariant violation.
func TestFormatRatio_MissingOther(t *testing.T) {
	r := Result{
		Case: Case{
			Phenotype: PositiveMarkerPhenotype("CD3"),
			Cohorts:   CohortPair{First: "1", Second: "2"},
			Metric:    MetricFractions,
		},
		HigherCohort: "2",
	}
	if _, err := FormatRatio(r, 4); !errors.Is(err, ErrMissingOtherPhenotype) {
		t.Errorf("expected ErrMissingOtherPhenotype, got %v", err)
	}
	if _, err := FormatProximity(r, 4); !errors.Is(err, ErrMissingOtherPhenotype) {
		t.Errorf("expected ErrMissingOtherPhenotype, got %v", err)
	}
}

// TestFormatP verifies the scientific-notation switch for tiny p-values.
func TestFormatP(t *testing.T) {
	if got := FormatP(0.05); !strings.Contains(got, "p = 0.05000") {
		t.Errorf("unexpected p format: %q", got)
	}
	if got := FormatP(0.00001); !strings.Contains(got, "E-05") {
		t.Errorf("expected scientific notation, got %q", got)
	}
}
