package app

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"phenosurvey/domain/survey"
	"phenosurvey/ports"
)

// fakeAccessor serves canned per-sample values keyed by the requested
// phenotypes. The call counter is atomic so parallel assessment can be
// asserted on safely.
type fakeAccessor struct {
	channels  []string
	cohorts   []string
	fractions map[string][]ports.FeatureRow
	proximity map[string][]ports.FeatureRow
	calls     atomic.Int64
}

func fractionsKey(phenotypes []survey.PhenotypeCriteria) string {
	names := make([]string, len(phenotypes))
	for i, phenotype := range phenotypes {
		names[i] = phenotype.String()
	}
	return strings.Join(names, "|")
}

func (f *fakeAccessor) FeatureNames(ctx context.Context) ([]string, error) {
	return f.channels, nil
}

func (f *fakeAccessor) Cohorts(ctx context.Context) ([]string, error) {
	return f.cohorts, nil
}

func (f *fakeAccessor) Fractions(ctx context.Context, phenotypes []survey.PhenotypeCriteria) ([]ports.FeatureRow, error) {
	f.calls.Add(1)
	return f.fractions[fractionsKey(phenotypes)], nil
}

func (f *fakeAccessor) Proximity(ctx context.Context, first, second survey.PhenotypeCriteria) ([]ports.FeatureRow, error) {
	f.calls.Add(1)
	return f.proximity[first.String()+"|"+second.String()], nil
}

func cohortRows(cohort string, values ...float64) []ports.FeatureRow {
	rows := make([]ports.FeatureRow, len(values))
	for i, value := range values {
		rows[i] = ports.FeatureRow{Sample: cohort + "-sample", Cohort: cohort, Value: value}
	}
	return rows
}

func mustPhenotype(t *testing.T, marker string) survey.PhenotypeCriteria {
	t.Helper()
	phenotype, err := survey.NewPhenotypeCriteria([]string{marker}, nil)
	if err != nil {
		t.Fatalf("phenotype: %v", err)
	}
	return phenotype
}

func TestAssessNormalizesDirection(t *testing.T) {
	phenotype := mustPhenotype(t, "CD3")
	access := &fakeAccessor{
		fractions: map[string][]ports.FeatureRow{
			"CD3+": append(
				cohortRows("1", 0.40, 0.41, 0.42),
				cohortRows("2", 0.10, 0.11, 0.12)...,
			),
		},
	}
	assessor := NewCaseAssessor(access, survey.DefaultLimits)

	result, err := assessor.Assess(context.Background(), survey.Case{
		Phenotype: phenotype,
		Cohorts:   survey.CohortPair{First: "1", Second: "2"},
		Metric:    survey.MetricFractions,
	})
	if err != nil {
		t.Fatalf("Assess: %v", err)
	}
	if result.HigherCohort != "1" {
		t.Errorf("expected higher cohort 1, got %s", result.HigherCohort)
	}
	if result.Significance.Effect < 1 {
		t.Errorf("effect not normalized: %f", result.Significance.Effect)
	}
	if !result.Significant {
		t.Error("expected a clearly separated case to be significant")
	}
	if result.LowerCohort() != "2" {
		t.Errorf("expected lower cohort 2, got %s", result.LowerCohort())
	}
}

func TestAssessInsufficientDataIsInsignificant(t *testing.T) {
	phenotype := mustPhenotype(t, "CD3")
	access := &fakeAccessor{
		fractions: map[string][]ports.FeatureRow{
			"CD3+": append(cohortRows("1", 0.4), cohortRows("2", 0.1, 0.2)...),
		},
	}
	assessor := NewCaseAssessor(access, survey.DefaultLimits)

	result, err := assessor.Assess(context.Background(), survey.Case{
		Phenotype: phenotype,
		Cohorts:   survey.CohortPair{First: "1", Second: "2"},
		Metric:    survey.MetricFractions,
	})
	if err != nil {
		t.Fatalf("Assess: %v", err)
	}
	if result.Significant {
		t.Error("one observation per cohort must never be significant")
	}
	if result.Significance.Effect != 1 || result.Significance.P != 1 {
		t.Errorf("insufficient data must report a neutral significance, got %+v", result.Significance)
	}
}

func TestAssessProximityRequiresOther(t *testing.T) {
	assessor := NewCaseAssessor(&fakeAccessor{}, survey.DefaultLimits)
	_, err := assessor.Assess(context.Background(), survey.Case{
		Phenotype: mustPhenotype(t, "CD3"),
		Cohorts:   survey.CohortPair{First: "1", Second: "2"},
		Metric:    survey.MetricProximity,
	})
	if !errors.Is(err, survey.ErrMissingOtherPhenotype) {
		t.Errorf("expected ErrMissingOtherPhenotype, got %v", err)
	}
}

func TestAssessRejectsUnknownMetric(t *testing.T) {
	assessor := NewCaseAssessor(&fakeAccessor{}, survey.DefaultLimits)
	_, err := assessor.Assess(context.Background(), survey.Case{
		Phenotype: mustPhenotype(t, "CD3"),
		Cohorts:   survey.CohortPair{First: "1", Second: "2"},
		Metric:    survey.Metric("counts"),
	})
	if !errors.Is(err, survey.ErrUnknownMetric) {
		t.Errorf("expected ErrUnknownMetric, got %v", err)
	}
}

func TestAssessAllPreservesOrder(t *testing.T) {
	first := mustPhenotype(t, "CD3")
	second := mustPhenotype(t, "CD8")
	access := &fakeAccessor{
		fractions: map[string][]ports.FeatureRow{
			"CD3+": append(cohortRows("1", 0.1, 0.11, 0.12), cohortRows("2", 0.4, 0.41, 0.42)...),
			"CD8+": append(cohortRows("1", 0.2, 0.21, 0.22), cohortRows("2", 0.2, 0.21, 0.22)...),
		},
	}
	assessor := NewCaseAssessor(access, survey.DefaultLimits)
	cases := []survey.Case{
		{Phenotype: first, Cohorts: survey.CohortPair{First: "1", Second: "2"}, Metric: survey.MetricFractions},
		{Phenotype: second, Cohorts: survey.CohortPair{First: "1", Second: "2"}, Metric: survey.MetricFractions},
	}

	results, err := assessor.AssessAll(context.Background(), cases, 4)
	if err != nil {
		t.Fatalf("AssessAll: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if !results[0].Case.Phenotype.Equal(first) || !results[1].Case.Phenotype.Equal(second) {
		t.Error("results not in input order")
	}
	if !results[0].Significant || results[1].Significant {
		t.Error("expected only the separated case to be significant")
	}
	if access.calls.Load() != 2 {
		t.Errorf("expected one fetch per case, got %d", access.calls.Load())
	}
}
