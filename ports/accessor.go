package ports

import (
	"context"

	"phenosurvey/domain/survey"
)

// FeatureRow is one per-sample measurement together with the sample's cohort
// label.
type FeatureRow struct {
	Sample string
	Cohort string
	Value  float64
}

// DataAccessor supplies study metadata and fully-resolved computed metrics.
// Implementations own any computation-pending polling, so each call may block
// arbitrarily long; callers cancel through the context. Transport failures
// propagate unmodified.
type DataAccessor interface {
	// FeatureNames returns the study's channel names in their defined order.
	FeatureNames(ctx context.Context) ([]string, error)

	// Cohorts returns the distinct cohort identifiers, unordered.
	Cohorts(ctx context.Context) ([]string, error)

	// Fractions returns one row per sample with the cell-population fraction
	// for a single phenotype, or the ratio of the two fractions when two
	// phenotypes are given.
	Fractions(ctx context.Context, phenotypes []survey.PhenotypeCriteria) ([]FeatureRow, error)

	// Proximity returns one row per sample with the spatial-proximity count
	// between the two phenotypes.
	Proximity(ctx context.Context, first, second survey.PhenotypeCriteria) ([]FeatureRow, error)
}
