package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strings"
	"time"

	"phenosurvey/domain/survey"
	"phenosurvey/internal"
	"phenosurvey/internal/errors"
	"phenosurvey/internal/kvcache"
	"phenosurvey/ports"
)

const proximityRadius = "100"

// Options configures a StudyDataAccessor.
type Options struct {
	Host         string
	Study        string
	PollInterval time.Duration
	TimingPath   string
}

// StudyDataAccessor retrieves study metadata and computed metrics over HTTP,
// caching every resolved response by its request URL. Pending computation
// responses are polled until resolved and never cached.
type StudyDataAccessor struct {
	client       *http.Client
	base         string
	study        string
	pollInterval time.Duration
	timingPath   string
	cache        *kvcache.Store
	logger       *internal.Logger

	cohorts  map[string]string
	allCells map[string]float64
}

var _ ports.DataAccessor = (*StudyDataAccessor)(nil)

// NewStudyDataAccessor connects to a study API and eagerly retrieves the
// sample cohort assignments and the all-cells counts, which every later
// measurement is joined against. The accessor takes ownership of the cache.
func NewStudyDataAccessor(ctx context.Context, options Options, cache *kvcache.Store) (*StudyDataAccessor, error) {
	accessor := &StudyDataAccessor{
		client:       &http.Client{},
		base:         baseURL(options.Host),
		study:        options.Study,
		pollInterval: options.PollInterval,
		timingPath:   options.TimingPath,
		cache:        cache,
		logger:       internal.NewComponentLogger("API"),
	}
	if accessor.pollInterval <= 0 {
		accessor.pollInterval = 10 * time.Second
	}

	var err error
	if accessor.cohorts, err = accessor.retrieveCohorts(ctx); err != nil {
		return nil, err
	}
	if accessor.allCells, err = accessor.retrieveAllCellsCounts(ctx); err != nil {
		return nil, err
	}
	return accessor, nil
}

// baseURL picks the scheme: https in general, http for local hosts or when
// the configured host explicitly carries an http:// prefix.
func baseURL(host string) string {
	protocol := "https"
	if strings.HasPrefix(host, "http://") {
		host = strings.TrimPrefix(host, "http://")
		protocol = "http"
	}
	if host == "localhost" || strings.Contains(host, "127.0.0.1") || strings.HasPrefix(host, "localhost:") {
		protocol = "http"
	}
	return protocol + "://" + host
}

// FeatureNames returns the study's channel symbols in their defined order.
func (a *StudyDataAccessor) FeatureNames(ctx context.Context) ([]string, error) {
	var names BitMaskFeatureNames
	query := encodePairs([]pair{{"study", a.study}})
	if err := a.getJSON(ctx, "cell-data-binary-feature-names", query, &names); err != nil {
		return nil, err
	}
	symbols := make([]string, len(names.Names))
	for i, name := range names.Names {
		symbols[i] = name.Symbol
	}
	return symbols, nil
}

// Cohorts returns the distinct cohort labels of the study.
func (a *StudyDataAccessor) Cohorts(ctx context.Context) ([]string, error) {
	seen := make(map[string]bool)
	var cohorts []string
	for _, cohort := range a.cohorts {
		if !seen[cohort] {
			seen[cohort] = true
			cohorts = append(cohorts, cohort)
		}
	}
	sort.Strings(cohorts)
	return cohorts, nil
}

// Fractions returns per-sample population fractions for one phenotype, or the
// ratio of the two phenotype counts when two are given. Samples with a zero
// in any involved count are omitted.
func (a *StudyDataAccessor) Fractions(ctx context.Context, phenotypes []survey.PhenotypeCriteria) ([]ports.FeatureRow, error) {
	switch len(phenotypes) {
	case 1:
		counts, err := a.phenotypeCounts(ctx, phenotypes[0])
		if err != nil {
			return nil, err
		}
		return a.joinCohorts(counts, a.allCells), nil
	case 2:
		numerator, err := a.phenotypeCounts(ctx, phenotypes[0])
		if err != nil {
			return nil, err
		}
		denominator, err := a.phenotypeCounts(ctx, phenotypes[1])
		if err != nil {
			return nil, err
		}
		return a.joinCohorts(numerator, denominator), nil
	default:
		return nil, errors.InvalidInput(fmt.Sprintf("fractions take 1 or 2 phenotypes, got %d", len(phenotypes)))
	}
}

// Proximity returns the per-sample spatial proximity metric between the two
// phenotypes, polling until the server-side computation resolves.
func (a *StudyDataAccessor) Proximity(ctx context.Context, first, second survey.PhenotypeCriteria) ([]ports.FeatureRow, error) {
	parts := phenotypePairs(first)
	parts = append(parts, phenotypePairs(second)...)
	parts = append(parts,
		pair{"study", a.study},
		pair{"feature_class", "proximity"},
		pair{"radius", proximityRadius},
	)
	values, err := a.pollMetrics(ctx, encodePairs(parts))
	if err != nil {
		return nil, err
	}

	var rows []ports.FeatureRow
	for sample, value := range values {
		cohort, assigned := a.cohorts[sample]
		if !assigned {
			continue
		}
		rows = append(rows, ports.FeatureRow{Sample: sample, Cohort: cohort, Value: value})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Sample < rows[j].Sample })
	return rows, nil
}

// Close releases the response cache.
func (a *StudyDataAccessor) Close() error {
	return a.cache.Close()
}

func (a *StudyDataAccessor) retrieveCohorts(ctx context.Context) (map[string]string, error) {
	var summary StudySummary
	query := encodePairs([]pair{{"study", a.study}})
	if err := a.getJSON(ctx, "study-summary", query, &summary); err != nil {
		return nil, err
	}
	cohorts := make(map[string]string, len(summary.Cohorts.Assignments))
	for _, assignment := range summary.Cohorts.Assignments {
		cohorts[assignment.Sample] = assignment.Cohort
	}
	return cohorts, nil
}

func (a *StudyDataAccessor) retrieveAllCellsCounts(ctx context.Context) (map[string]float64, error) {
	return a.phenotypeCounts(ctx, survey.PhenotypeCriteria{})
}

// phenotypeCounts fetches the per-specimen count of cells matching the
// criteria. The empty criteria counts all cells.
func (a *StudyDataAccessor) phenotypeCounts(ctx context.Context, phenotype survey.PhenotypeCriteria) (map[string]float64, error) {
	parts := phenotypePairs(phenotype)
	parts = append(parts, pair{"study", a.study})
	var counts PhenotypeCounts
	if err := a.getJSON(ctx, "phenotype-counts", encodePairs(parts), &counts); err != nil {
		return nil, err
	}
	values := make(map[string]float64, len(counts.Counts))
	for _, count := range counts.Counts {
		values[count.Specimen] = count.Count
	}
	return values, nil
}

// joinCohorts divides the numerator counts by the denominator counts per
// sample and attaches cohort labels. Samples missing either count, carrying a
// zero, or lacking a cohort assignment are dropped.
func (a *StudyDataAccessor) joinCohorts(numerator, denominator map[string]float64) []ports.FeatureRow {
	var rows []ports.FeatureRow
	for sample, value := range numerator {
		cohort, assigned := a.cohorts[sample]
		if !assigned {
			continue
		}
		divisor, present := denominator[sample]
		if !present || value == 0 || divisor == 0 {
			continue
		}
		rows = append(rows, ports.FeatureRow{Sample: sample, Cohort: cohort, Value: value / divisor})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Sample < rows[j].Sample })
	return rows
}

// pollMetrics retrieves a computed metric, waiting out pending responses.
// Only resolved payloads enter the cache.
func (a *StudyDataAccessor) pollMetrics(ctx context.Context, query string) (map[string]float64, error) {
	requestURL := a.requestURL("request-spatial-metrics-computation-custom-phenotypes", query)
	for {
		payload, cached, err := a.cache.Lookup(requestURL)
		if err != nil {
			return nil, err
		}
		if !cached {
			if payload, err = a.fetch(ctx, requestURL); err != nil {
				return nil, err
			}
		}
		var result MetricsComputationResult
		if err := json.Unmarshal(payload, &result); err != nil {
			return nil, errors.Wrapf(err, "failed to decode metrics payload from %s", requestURL)
		}
		if !result.IsPending {
			if !cached {
				if err := a.cache.Put(requestURL, payload); err != nil {
					return nil, err
				}
			}
			return result.Values, nil
		}
		a.logger.Info("Waiting %s to poll.", a.pollInterval)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(a.pollInterval):
		}
	}
}

// getJSON retrieves and decodes a cacheable endpoint response.
func (a *StudyDataAccessor) getJSON(ctx context.Context, endpoint, query string, out any) error {
	requestURL := a.requestURL(endpoint, query)
	payload, cached, err := a.cache.Lookup(requestURL)
	if err != nil {
		return err
	}
	if !cached {
		if payload, err = a.fetch(ctx, requestURL); err != nil {
			return err
		}
		if err := a.cache.Put(requestURL, payload); err != nil {
			return err
		}
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return errors.Wrapf(err, "failed to decode payload from %s", requestURL)
	}
	return nil
}

func (a *StudyDataAccessor) requestURL(endpoint, query string) string {
	return strings.Join([]string{a.base, endpoint, "?" + query}, "/")
}

// fetch performs one GET and appends a line to the request timing log.
func (a *StudyDataAccessor) fetch(ctx context.Context, requestURL string) ([]byte, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to form request for %s", requestURL)
	}
	start := time.Now()
	response, err := a.client.Do(request)
	if err != nil {
		return nil, errors.Wrapf(err, "request failed: %s", requestURL)
	}
	defer response.Body.Close()
	payload, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read response from %s", requestURL)
	}
	if response.StatusCode != http.StatusOK {
		return nil, errors.ExternalService(fmt.Sprintf("%s returned status %d", requestURL, response.StatusCode))
	}
	a.recordTiming(time.Since(start), requestURL)
	return payload, nil
}

func (a *StudyDataAccessor) recordTiming(elapsed time.Duration, requestURL string) {
	if a.timingPath == "" {
		return
	}
	file, err := os.OpenFile(a.timingPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		a.logger.Warn("Could not open timing log: %v", err)
		return
	}
	defer file.Close()
	line := strings.Join([]string{
		fmt.Sprintf("%f", elapsed.Seconds()),
		time.Now().Format("2006-01-02 15:04:05.000000"),
		requestURL,
	}, "\t")
	if _, err := file.WriteString(line + "\n"); err != nil {
		a.logger.Warn("Could not write timing log: %v", err)
	}
}

// pair is one query parameter in submission order.
type pair struct {
	key   string
	value string
}

// phenotypePairs renders phenotype criteria as query parameters. A side with
// no markers contributes a single empty-valued placeholder; the zero criteria
// (both sides empty) addresses the all-cells population with placeholders on
// both sides.
func phenotypePairs(p survey.PhenotypeCriteria) []pair {
	positives := p.PositiveMarkers
	negatives := p.NegativeMarkers
	if len(positives) == 0 {
		positives = []string{""}
	}
	if len(negatives) == 0 {
		negatives = []string{""}
	}

	seen := make(map[pair]bool)
	var parts []pair
	add := func(key string, markers []string) {
		for _, marker := range markers {
			candidate := pair{key, marker}
			if !seen[candidate] {
				seen[candidate] = true
				parts = append(parts, candidate)
			}
		}
	}
	add("positive_marker", positives)
	add("negative_marker", negatives)
	sort.Slice(parts, func(i, j int) bool {
		if parts[i].key != parts[j].key {
			return parts[i].key < parts[j].key
		}
		return parts[i].value < parts[j].value
	})
	return parts
}

func encodePairs(parts []pair) string {
	encoded := make([]string, len(parts))
	for i, part := range parts {
		encoded[i] = url.QueryEscape(part.key) + "=" + url.QueryEscape(part.value)
	}
	return strings.Join(encoded, "&")
}
