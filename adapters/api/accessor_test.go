package api

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"phenosurvey/domain/survey"
	"phenosurvey/internal/fixture"
	"phenosurvey/internal/kvcache"
)

func newTestAccessor(t *testing.T, study *fixture.Study) (*StudyDataAccessor, *fixture.Server) {
	t.Helper()
	server := fixture.NewServer(study)
	ts := httptest.NewServer(server.Router())
	t.Cleanup(ts.Close)

	cache, err := kvcache.Open(filepath.Join(t.TempDir(), "cache.sqlite3"))
	require.NoError(t, err)

	accessor, err := NewStudyDataAccessor(context.Background(), Options{
		Host:         ts.URL,
		Study:        study.Name,
		PollInterval: time.Millisecond,
	}, cache)
	require.NoError(t, err)
	t.Cleanup(func() { _ = accessor.Close() })
	return accessor, server
}

func TestFeatureNames(t *testing.T) {
	accessor, _ := newTestAccessor(t, fixture.DefaultStudy())

	names, err := accessor.FeatureNames(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"CD3", "CD8"}, names)
}

func TestCohorts(t *testing.T) {
	accessor, _ := newTestAccessor(t, fixture.DefaultStudy())

	cohorts, err := accessor.Cohorts(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"1", "2"}, cohorts)
}

func TestSingleFractionValues(t *testing.T) {
	accessor, _ := newTestAccessor(t, fixture.DefaultStudy())
	phenotype, err := survey.NewPhenotypeCriteria([]string{"CD3"}, nil)
	require.NoError(t, err)

	rows, err := accessor.Fractions(context.Background(), []survey.PhenotypeCriteria{phenotype})
	require.NoError(t, err)
	require.Len(t, rows, 6)
	require.Equal(t, "sample-A", rows[0].Sample)
	require.Equal(t, "1", rows[0].Cohort)
	require.InDelta(t, 0.1, rows[0].Value, 1e-9)
}

func TestRatioValues(t *testing.T) {
	accessor, _ := newTestAccessor(t, fixture.DefaultStudy())
	cd3, err := survey.NewPhenotypeCriteria([]string{"CD3"}, nil)
	require.NoError(t, err)
	cd8, err := survey.NewPhenotypeCriteria([]string{"CD8"}, nil)
	require.NoError(t, err)

	rows, err := accessor.Fractions(context.Background(), []survey.PhenotypeCriteria{cd3, cd8})
	require.NoError(t, err)
	require.Len(t, rows, 6)
	require.InDelta(t, 100.0/200.0, rows[0].Value, 1e-9)
}

func TestFractionsDropZeroCountSamples(t *testing.T) {
	study := fixture.DefaultStudy()
	study.Counts["CD3"]["sample-A"] = 0

	accessor, _ := newTestAccessor(t, study)
	phenotype, err := survey.NewPhenotypeCriteria([]string{"CD3"}, nil)
	require.NoError(t, err)

	rows, err := accessor.Fractions(context.Background(), []survey.PhenotypeCriteria{phenotype})
	require.NoError(t, err)
	require.Len(t, rows, 5)
	for _, row := range rows {
		require.NotEqual(t, "sample-A", row.Sample)
	}
}

func TestProximityPollsUntilResolved(t *testing.T) {
	study := fixture.DefaultStudy()
	study.PendingPolls = 2

	accessor, _ := newTestAccessor(t, study)
	cd3, err := survey.NewPhenotypeCriteria([]string{"CD3"}, nil)
	require.NoError(t, err)
	cd8, err := survey.NewPhenotypeCriteria([]string{"CD8"}, nil)
	require.NoError(t, err)

	rows, err := accessor.Proximity(context.Background(), cd3, cd8)
	require.NoError(t, err)
	require.Len(t, rows, 6)
	require.InDelta(t, 50.0, rows[0].Value, 1e-9)
}

func TestResolvedResponsesAreCached(t *testing.T) {
	accessor, server := newTestAccessor(t, fixture.DefaultStudy())
	phenotype, err := survey.NewPhenotypeCriteria([]string{"CD3"}, nil)
	require.NoError(t, err)

	_, err = accessor.Fractions(context.Background(), []survey.PhenotypeCriteria{phenotype})
	require.NoError(t, err)
	before := server.RequestCount("phenotype-counts")

	_, err = accessor.Fractions(context.Background(), []survey.PhenotypeCriteria{phenotype})
	require.NoError(t, err)
	require.Equal(t, before, server.RequestCount("phenotype-counts"))
}

func TestPendingResponsesAreNotCached(t *testing.T) {
	study := fixture.DefaultStudy()
	study.PendingPolls = 1

	accessor, server := newTestAccessor(t, study)
	cd3, err := survey.NewPhenotypeCriteria([]string{"CD3"}, nil)
	require.NoError(t, err)
	cd8, err := survey.NewPhenotypeCriteria([]string{"CD8"}, nil)
	require.NoError(t, err)

	_, err = accessor.Proximity(context.Background(), cd3, cd8)
	require.NoError(t, err)
	polls := server.RequestCount("request-spatial-metrics-computation-custom-phenotypes")
	require.Equal(t, 2, polls)

	_, err = accessor.Proximity(context.Background(), cd3, cd8)
	require.NoError(t, err)
	require.Equal(t, polls, server.RequestCount("request-spatial-metrics-computation-custom-phenotypes"))
}
