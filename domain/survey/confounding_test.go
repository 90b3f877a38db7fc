package survey

import "testing"

func singletonResult(channel string, cohorts CohortPair, higher string) Result {
	return Result{
		Case: Case{
			Phenotype: PositiveMarkerPhenotype(channel),
			Cohorts:   cohorts,
			Metric:    MetricFractions,
		},
		HigherCohort: higher,
		Significance: ResultSignificance{P: 0.001, Effect: 2.5},
		Significant:  true,
	}
}

func pairResult(metric Metric, first, second string, cohorts CohortPair, higher string) Result {
	other := PositiveMarkerPhenotype(second)
	return Result{
		Case: Case{
			Phenotype: PositiveMarkerPhenotype(first),
			Other:     &other,
			Cohorts:   cohorts,
			Metric:    metric,
		},
		HigherCohort: higher,
		Significance: ResultSignificance{P: 0.001, Effect: 2.5},
		Significant:  true,
	}
}

// TestProbableConfounding_RatioPhenotypeSlot covers a shared phenotype in the
// numerator: same direction means confounded.
func TestProbableConfounding_RatioPhenotypeSlot(t *testing.T) {
	cohorts := CohortPair{First: "1", Second: "2"}
	simple := singletonResult("CD3", cohorts, "2")
	candidate := pairResult(MetricFractions, "CD3", "CD8", cohorts, "2")

	if !(SimpleConfounding{Simple: simple, Candidate: candidate}).ProbableConfounding() {
		t.Error("expected confounding for shared numerator phenotype with same direction")
	}

	candidate.HigherCohort = "1"
	if (SimpleConfounding{Simple: simple, Candidate: candidate}).ProbableConfounding() {
		t.Error("expected no confounding when numerator direction is opposed")
	}
}

// TestProbableConfounding_RatioOtherSlot covers a shared phenotype in the
// denominator: the direction must be inverted to count as confounded.
func TestProbableConfounding_RatioOtherSlot(t *testing.T) {
	cohorts := CohortPair{First: "1", Second: "2"}
	simple := singletonResult("CD3", cohorts, "2")

	inverted := pairResult(MetricFractions, "CD8", "CD3", cohorts, "1")
	if !(SimpleConfounding{Simple: simple, Candidate: inverted}).ProbableConfounding() {
		t.Error("expected confounding for shared denominator phenotype with inverted direction")
	}

	sameDirection := pairResult(MetricFractions, "CD8", "CD3", cohorts, "2")
	if (SimpleConfounding{Simple: simple, Candidate: sameDirection}).ProbableConfounding() {
		t.Error("expected no confounding for shared denominator phenotype with same direction")
	}
}

// TestProbableConfounding_Proximity covers proximity candidates: either slot,
// same direction.
func TestProbableConfounding_Proximity(t *testing.T) {
	cohorts := CohortPair{First: "1", Second: "2"}
	simple := singletonResult("CD3", cohorts, "2")

	firstSlot := pairResult(MetricProximity, "CD3", "CD8", cohorts, "2")
	if !(SimpleConfounding{Simple: simple, Candidate: firstSlot}).ProbableConfounding() {
		t.Error("expected confounding for proximity sharing the first phenotype")
	}

	secondSlot := pairResult(MetricProximity, "CD8", "CD3", cohorts, "2")
	if !(SimpleConfounding{Simple: simple, Candidate: secondSlot}).ProbableConfounding() {
		t.Error("expected confounding for proximity sharing the second phenotype")
	}

	opposed := pairResult(MetricProximity, "CD8", "CD3", cohorts, "1")
	if (SimpleConfounding{Simple: simple, Candidate: opposed}).ProbableConfounding() {
		t.Error("expected no confounding for proximity with opposed direction")
	}
}

// TestProbableConfounding_CohortSetMismatch verifies results over different
// cohort pairs are incomparable.
func TestProbableConfounding_CohortSetMismatch(t *testing.T) {
	simple := singletonResult("CD3", CohortPair{First: "1", Second: "2"}, "2")
	candidate := pairResult(MetricFractions, "CD3", "CD8", CohortPair{First: "1", Second: "3"}, "2")

	if (SimpleConfounding{Simple: simple, Candidate: candidate}).ProbableConfounding() {
		t.Error("expected no confounding across different cohort sets")
	}

	// The cohort pair is unordered: a swapped pair is the same set.
	swapped := pairResult(MetricFractions, "CD3", "CD8", CohortPair{First: "2", Second: "1"}, "2")
	if !(SimpleConfounding{Simple: simple, Candidate: swapped}).ProbableConfounding() {
		t.Error("expected confounding for the same cohort set in swapped order")
	}
}

// TestProbableConfounding_TypeCompatibility verifies only singleton-fraction
// simples against ratio or proximity candidates qualify.
func TestProbableConfounding_TypeCompatibility(t *testing.T) {
	cohorts := CohortPair{First: "1", Second: "2"}

	// A singleton candidate is never confounded by another singleton.
	simple := singletonResult("CD3", cohorts, "2")
	otherSingleton := singletonResult("CD3", cohorts, "2")
	if (SimpleConfounding{Simple: simple, Candidate: otherSingleton}).ProbableConfounding() {
		t.Error("singleton candidate should not be flagged")
	}

	// A ratio simple is not a valid confounding reference.
	ratioSimple := pairResult(MetricFractions, "CD3", "CD8", cohorts, "2")
	candidate := pairResult(MetricFractions, "CD3", "CD20", cohorts, "2")
	if (SimpleConfounding{Simple: ratioSimple, Candidate: candidate}).ProbableConfounding() {
		t.Error("ratio simple result should not be a confounding reference")
	}
}

// TestConfoundingReferences verifies the reference set is the filtered
// singleton list.
func TestConfoundingReferences(t *testing.T) {
	cohorts := CohortPair{First: "1", Second: "2"}
	singletons := []Result{
		singletonResult("CD3", cohorts, "2"),
		singletonResult("CD8", cohorts, "1"),
		singletonResult("CD20", cohorts, "2"),
	}
	candidate := pairResult(MetricProximity, "CD3", "CD20", cohorts, "2")

	confounding := ConfoundingReferences(singletons, candidate)
	if len(confounding) != 2 {
		t.Fatalf("expected 2 confounding references, got %d", len(confounding))
	}
	for _, r := range confounding {
		if r.Case.Phenotype.Equal(PositiveMarkerPhenotype("CD8")) {
			t.Error("CD8 singleton has opposed direction and no shared slot match")
		}
	}
}
