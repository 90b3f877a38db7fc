package app

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"phenosurvey/domain/survey"
	"phenosurvey/internal/errors"
	"phenosurvey/internal/stattest"
	"phenosurvey/ports"
)

// CaseAssessor turns one enumerated case into an assessed result by fetching
// the case's feature values and comparing the two cohorts.
type CaseAssessor struct {
	access ports.DataAccessor
	limits survey.Limits
}

// NewCaseAssessor creates an assessor bound to a data source and calibration.
func NewCaseAssessor(access ports.DataAccessor, limits survey.Limits) *CaseAssessor {
	return &CaseAssessor{access: access, limits: limits}
}

// Assess fetches the feature values for one case, splits them by cohort, and
// runs the unequal-variance comparison. The returned result always has
// Effect >= 1 with HigherCohort naming the larger-mean cohort. Cases whose
// cohort samples carry fewer than two finite values each come back
// insignificant rather than failing the run.
func (a *CaseAssessor) Assess(ctx context.Context, c survey.Case) (survey.Result, error) {
	rows, err := a.fetch(ctx, c)
	if err != nil {
		return survey.Result{}, err
	}

	first, second := partitionByCohort(rows, c.Cohorts)
	first = stattest.Finite(first)
	second = stattest.Finite(second)
	if len(first) < 2 || len(second) < 2 {
		return survey.Result{
			Case:         c,
			HigherCohort: c.Cohorts.First,
			Significance: survey.ResultSignificance{P: 1, Effect: 1},
		}, nil
	}

	comparison, err := stattest.Compare(first, second)
	if err != nil {
		return survey.Result{}, errors.Wrap(err, "cohort comparison failed")
	}

	result := survey.Result{
		Case:         c,
		HigherCohort: c.Cohorts.Second,
		Significance: survey.ResultSignificance{P: comparison.P, Effect: comparison.Effect},
	}
	if comparison.Effect < 1 {
		result.HigherCohort = c.Cohorts.First
		result.Significance.Effect = 1 / comparison.Effect
	}
	result.Significant = a.limits.Acceptable(result.Significance)
	return result, nil
}

// AssessAll assesses every case, preserving input order. Parallelism bounds
// the number of in-flight fetches; 1 keeps the run strictly sequential.
func (a *CaseAssessor) AssessAll(ctx context.Context, cases []survey.Case, parallelism int) ([]survey.Result, error) {
	if parallelism < 1 {
		parallelism = 1
	}
	results := make([]survey.Result, len(cases))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(parallelism)
	for i, c := range cases {
		i, c := i, c
		group.Go(func() error {
			result, err := a.Assess(groupCtx, c)
			if err != nil {
				return err
			}
			results[i] = result
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (a *CaseAssessor) fetch(ctx context.Context, c survey.Case) ([]ports.FeatureRow, error) {
	switch c.Metric {
	case survey.MetricFractions:
		return a.access.Fractions(ctx, c.Phenotypes())
	case survey.MetricProximity:
		if c.Other == nil {
			return nil, survey.ErrMissingOtherPhenotype
		}
		return a.access.Proximity(ctx, c.Phenotype, *c.Other)
	default:
		return nil, fmt.Errorf("%w %q", survey.ErrUnknownMetric, c.Metric)
	}
}

// partitionByCohort splits rows into the values belonging to each side of the
// pair, dropping rows from any other cohort.
func partitionByCohort(rows []ports.FeatureRow, cohorts survey.CohortPair) (first, second []float64) {
	for _, row := range rows {
		switch row.Cohort {
		case cohorts.First:
			first = append(first, row.Value)
		case cohorts.Second:
			second = append(second, row.Value)
		}
	}
	return first, second
}
