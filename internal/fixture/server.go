// Package fixture serves a small synthetic study over the same HTTP contract
// as a real study API, for development runs and adapter tests.
package fixture

import (
	"encoding/json"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Sample is one specimen with its cohort assignment.
type Sample struct {
	Name   string
	Cohort string
}

// Study is the synthetic dataset a Server responds from. Counts maps a
// channel to its per-sample cell counts; Proximity maps "first|second"
// channel keys to per-sample proximity values.
type Study struct {
	Name      string
	Samples   []Sample
	AllCells  map[string]float64
	Counts    map[string]map[string]float64
	Proximity map[string]map[string]float64

	// PendingPolls makes the spatial-metrics endpoint report a pending
	// computation for the first N requests per distinct query.
	PendingPolls int
}

// DefaultStudy builds a two-cohort study where CD3 clearly separates the
// cohorts and CD8 does not.
func DefaultStudy() *Study {
	study := &Study{
		Name:      "synthetic collection",
		AllCells:  map[string]float64{},
		Counts:    map[string]map[string]float64{"CD3": {}, "CD8": {}},
		Proximity: map[string]map[string]float64{},
	}
	type planted struct {
		cohort string
		cd3    float64
	}
	plan := []planted{
		{"1", 100}, {"1", 110}, {"1", 120},
		{"2", 400}, {"2", 410}, {"2", 420},
	}
	for i, p := range plan {
		name := "sample-" + string(rune('A'+i))
		study.Samples = append(study.Samples, Sample{Name: name, Cohort: p.cohort})
		study.AllCells[name] = 1000
		study.Counts["CD3"][name] = p.cd3
		study.Counts["CD8"][name] = 200 + float64(i)
	}
	return study
}

// Server answers the study API endpoints from an in-memory Study.
type Server struct {
	study  *Study
	router *chi.Mux

	mu       sync.Mutex
	requests map[string]int
}

// NewServer creates a fixture server for one study.
func NewServer(study *Study) *Server {
	server := &Server{
		study:    study,
		router:   chi.NewRouter(),
		requests: make(map[string]int),
	}
	server.router.Use(middleware.Recoverer)
	server.router.Get("/study-summary/", server.handleStudySummary)
	server.router.Get("/cell-data-binary-feature-names/", server.handleFeatureNames)
	server.router.Get("/phenotype-counts/", server.handlePhenotypeCounts)
	server.router.Get("/request-spatial-metrics-computation-custom-phenotypes/", server.handleSpatialMetrics)
	return server
}

// Router exposes the configured routes.
func (s *Server) Router() http.Handler {
	return s.router
}

// RequestCount reports how many requests hit the given endpoint path.
func (s *Server) RequestCount(endpoint string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[endpoint]
}

func (s *Server) count(r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests[strings.Trim(r.URL.Path, "/")]++
}

func (s *Server) handleStudySummary(w http.ResponseWriter, r *http.Request) {
	s.count(r)
	assignments := make([]map[string]string, len(s.study.Samples))
	for i, sample := range s.study.Samples {
		assignments[i] = map[string]string{"sample": sample.Name, "cohort": sample.Cohort}
	}
	writeJSON(w, map[string]any{
		"cohorts": map[string]any{"assignments": assignments},
	})
}

func (s *Server) handleFeatureNames(w http.ResponseWriter, r *http.Request) {
	s.count(r)
	var names []map[string]string
	for _, channel := range s.channels() {
		names = append(names, map[string]string{"symbol": channel})
	}
	writeJSON(w, map[string]any{"names": names})
}

func (s *Server) handlePhenotypeCounts(w http.ResponseWriter, r *http.Request) {
	s.count(r)
	markers := requestedMarkers(r)
	var source map[string]float64
	if len(markers) == 0 {
		source = s.study.AllCells
	} else {
		source = s.study.Counts[markers[0]]
	}
	var counts []map[string]any
	for _, sample := range s.study.Samples {
		counts = append(counts, map[string]any{
			"specimen": sample.Name,
			"count":    source[sample.Name],
		})
	}
	writeJSON(w, map[string]any{"counts": counts})
}

func (s *Server) handleSpatialMetrics(w http.ResponseWriter, r *http.Request) {
	s.count(r)
	key := strings.Join(requestedMarkers(r), "|")

	s.mu.Lock()
	polls := s.requests["pending:"+key]
	s.requests["pending:"+key]++
	pending := polls < s.study.PendingPolls
	s.mu.Unlock()

	if pending {
		writeJSON(w, map[string]any{"is_pending": true, "values": map[string]float64{}})
		return
	}
	values, defined := s.study.Proximity[key]
	if !defined {
		values = make(map[string]float64, len(s.study.Samples))
		for i, sample := range s.study.Samples {
			values[sample.Name] = 50 + float64(i)
		}
	}
	writeJSON(w, map[string]any{"is_pending": false, "values": values})
}

// channels lists the study's channel names in a stable order.
func (s *Server) channels() []string {
	var channels []string
	for channel := range s.study.Counts {
		channels = append(channels, channel)
	}
	sort.Strings(channels)
	return channels
}

// requestedMarkers extracts the non-placeholder markers from a query, positive
// markers first, preserving submission order within each kind.
func requestedMarkers(r *http.Request) []string {
	query := r.URL.Query()
	var markers []string
	for _, kind := range []string{"positive_marker", "negative_marker"} {
		for _, marker := range query[kind] {
			if marker != "" {
				markers = append(markers, marker)
			}
		}
	}
	return markers
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}
