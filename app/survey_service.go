package app

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/google/uuid"

	"phenosurvey/domain/survey"
	"phenosurvey/internal"
	"phenosurvey/internal/errors"
	"phenosurvey/ports"
)

// SurveyService runs the full three-phase cohort survey: single-phenotype
// fractions, fraction ratios, then spatial proximity, with ratio and proximity
// hits screened against the phase-1 accepted set for probable confounding.
type SurveyService struct {
	access      ports.DataAccessor
	assessor    *CaseAssessor
	display     ports.AssessmentLogger
	logger      *internal.Logger
	parallelism int
}

// NewSurveyService creates a survey runner.
func NewSurveyService(
	access ports.DataAccessor,
	limits survey.Limits,
	display ports.AssessmentLogger,
	parallelism int,
) *SurveyService {
	return &SurveyService{
		access:      access,
		assessor:    NewCaseAssessor(access, limits),
		display:     display,
		logger:      internal.NewComponentLogger("Survey"),
		parallelism: parallelism,
	}
}

// Run executes all three phases in order and returns the accepted results
// grouped by phase. Phase order matters: later phases are screened against
// phase-1 acceptances.
func (s *SurveyService) Run(ctx context.Context) (*survey.FilteredResults, error) {
	runID := uuid.New().String()
	s.logger.Info("Starting survey run %s", runID)

	enumerator, err := s.initialFetch(ctx)
	if err != nil {
		return nil, err
	}

	results := &survey.FilteredResults{}

	results.SingleFractions, err = s.runSingletonPhase(ctx, enumerator)
	if err != nil {
		return nil, err
	}
	results.Ratios, err = s.runPairPhase(ctx, enumerator, 2, results.SingleFractions)
	if err != nil {
		return nil, err
	}
	results.Proximity, err = s.runPairPhase(ctx, enumerator, 3, results.SingleFractions)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Survey run %s complete: %d singleton, %d ratio, %d proximity hits",
		runID, len(results.SingleFractions), len(results.Ratios), len(results.Proximity))
	return results, nil
}

// initialFetch pulls the study's channel and cohort inventory and prepares
// the case enumerator. Cohort labels sort numerically.
func (s *SurveyService) initialFetch(ctx context.Context) (*survey.Enumerator, error) {
	channels, err := s.access.FeatureNames(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch channel names")
	}
	cohorts, err := s.access.Cohorts(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch cohorts")
	}
	if err := sortCohorts(cohorts); err != nil {
		return nil, err
	}

	width := 0
	for _, channel := range channels {
		if len(channel) > width {
			width = len(channel)
		}
	}
	s.display.SetNameWidth(width)
	s.display.Log(fmt.Sprintf("Using channels: %v", channels))
	s.display.Log(fmt.Sprintf("Using cohorts: %v", cohorts))

	return &survey.Enumerator{Channels: channels, Cohorts: cohorts}, nil
}

func (s *SurveyService) runSingletonPhase(ctx context.Context, enumerator *survey.Enumerator) ([]survey.Result, error) {
	cases, err := enumerator.Cases(1)
	if err != nil {
		return nil, err
	}
	s.display.Log(fmt.Sprintf("Assessing %d single-channel cases", len(cases)))

	assessed, err := s.assessor.AssessAll(ctx, cases, s.parallelism)
	if err != nil {
		return nil, err
	}

	var accepted []survey.Result
	for _, result := range assessed {
		if !result.Significant {
			continue
		}
		accepted = append(accepted, result)
		s.display.LogSingleton(result)
	}
	return accepted, nil
}

// runPairPhase runs phase 2 or 3. Each accepted result is reported together
// with the phase-1 results that probably confound it; confounded hits are
// reported but excluded from the returned set.
func (s *SurveyService) runPairPhase(
	ctx context.Context,
	enumerator *survey.Enumerator,
	phase int,
	singletons []survey.Result,
) ([]survey.Result, error) {
	cases, err := enumerator.Cases(phase)
	if err != nil {
		return nil, err
	}
	label := "channel-ratio"
	if phase == 3 {
		label = "proximity"
	}
	s.display.Log(fmt.Sprintf("Assessing %d %s cases", len(cases), label))

	assessed, err := s.assessor.AssessAll(ctx, cases, s.parallelism)
	if err != nil {
		return nil, err
	}

	var accepted []survey.Result
	for _, result := range assessed {
		if !result.Significant {
			continue
		}
		confounding := survey.ConfoundingReferences(singletons, result)
		if phase == 3 {
			err = s.display.LogProximity(result, confounding)
		} else {
			err = s.display.LogRatio(result, confounding)
		}
		if err != nil {
			return nil, err
		}
		if len(confounding) == 0 {
			accepted = append(accepted, result)
		}
	}
	return accepted, nil
}

// sortCohorts orders cohort labels by their numeric value.
func sortCohorts(cohorts []string) error {
	values := make(map[string]int, len(cohorts))
	for _, cohort := range cohorts {
		value, err := strconv.Atoi(cohort)
		if err != nil {
			return errors.InvalidInput(fmt.Sprintf("cohort %q is not numeric", cohort))
		}
		values[cohort] = value
	}
	sort.Slice(cohorts, func(i, j int) bool {
		return values[cohorts[i]] < values[cohorts[j]]
	})
	return nil
}

// RunSurvey runs a complete survey with the default calibration and plain
// logging; the common entry point for embedding callers.
func RunSurvey(ctx context.Context, access ports.DataAccessor, display ports.AssessmentLogger) (*survey.FilteredResults, error) {
	service := NewSurveyService(access, survey.DefaultLimits, display, 1)
	return service.Run(ctx)
}
