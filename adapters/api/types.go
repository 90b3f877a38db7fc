package api

// StudySummary is the study-summary endpoint response, reduced to the fields
// the survey consumes.
type StudySummary struct {
	Cohorts CohortsSummary `json:"cohorts"`
}

// CohortsSummary carries the sample-to-cohort assignments of a study.
type CohortsSummary struct {
	Assignments []CohortAssignment `json:"assignments"`
}

// CohortAssignment links one sample to its cohort label.
type CohortAssignment struct {
	Sample string `json:"sample"`
	Cohort string `json:"cohort"`
}

// BitMaskFeatureNames is the cell-data-binary-feature-names endpoint response.
type BitMaskFeatureNames struct {
	Names []FeatureSymbol `json:"names"`
}

// FeatureSymbol is one channel identifier.
type FeatureSymbol struct {
	Symbol string `json:"symbol"`
}

// PhenotypeCounts is the phenotype-counts endpoint response.
type PhenotypeCounts struct {
	Counts []PhenotypeCount `json:"counts"`
}

// PhenotypeCount is the number of cells matching the requested criteria in
// one specimen.
type PhenotypeCount struct {
	Specimen string  `json:"specimen"`
	Count    float64 `json:"count"`
}

// MetricsComputationResult is the response of the on-demand spatial metrics
// endpoint. IsPending signals that the computation has not finished and the
// caller should poll again.
type MetricsComputationResult struct {
	IsPending bool               `json:"is_pending"`
	Values    map[string]float64 `json:"values"`
}
