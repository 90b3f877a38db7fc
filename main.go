package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"

	"phenosurvey/adapters/api"
	"phenosurvey/adapters/export"
	"phenosurvey/app"
	"phenosurvey/domain/survey"
	"phenosurvey/internal/config"
	"phenosurvey/internal/kvcache"
	"phenosurvey/internal/presenter"
	"phenosurvey/ports"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	limits, err := appConfig.Limits()
	if err != nil {
		log.Fatalf("Failed to load calibration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cache, err := kvcache.Open(appConfig.API.CachePath)
	if err != nil {
		log.Fatalf("Failed to open response cache: %v", err)
	}
	accessor, err := api.NewStudyDataAccessor(ctx, api.Options{
		Host:         appConfig.API.Host,
		Study:        appConfig.API.Study,
		PollInterval: appConfig.API.PollInterval,
		TimingPath:   appConfig.API.TimingPath,
	}, cache)
	if err != nil {
		_ = cache.Close()
		log.Fatalf("Failed to connect to study API: %v", err)
	}
	defer accessor.Close()

	var display ports.AssessmentLogger
	if appConfig.Survey.Interactive {
		display = presenter.NewInteractive(appConfig.Survey.WindowLines)
	} else {
		display = presenter.NewPlain()
	}

	service := app.NewSurveyService(accessor, limits, display, appConfig.Survey.Parallelism)
	results, err := service.Run(ctx)
	closeErr := display.Close()
	if err != nil {
		log.Fatalf("Survey failed: %v", err)
	}
	if closeErr != nil {
		log.Printf("Display shutdown: %v", closeErr)
	}

	nameWidth := widestPhenotypeName(results)
	printResults(results, nameWidth)

	if err := writeExports(appConfig, results); err != nil {
		log.Fatalf("Export failed: %v", err)
	}
}

// printResults prints the final accepted results per phase, ordered by higher
// cohort and phenotype names. Proximity results are re-filtered against the
// severe calibration.
func printResults(results *survey.FilteredResults, nameWidth int) {
	fmt.Println("")
	fmt.Println("Single channel fractions results:")
	singletons := append([]survey.Result(nil), results.SingleFractions...)
	sort.SliceStable(singletons, func(i, j int) bool {
		return cohortValue(singletons[i].HigherCohort) < cohortValue(singletons[j].HigherCohort)
	})
	for _, result := range singletons {
		fmt.Println(survey.FormatSingleton(result, nameWidth))
	}

	fmt.Println("")
	fmt.Println("Ratio of channels fractions results:")
	for _, result := range sortPairResults(results.Ratios) {
		line, err := survey.FormatRatio(result, nameWidth)
		if err != nil {
			continue
		}
		fmt.Println(line)
	}

	fmt.Println("")
	fmt.Println("Proximity results:")
	for _, result := range sortPairResults(results.Proximity) {
		if !survey.SevereProximityLimits.Acceptable(result.Significance) {
			continue
		}
		line, err := survey.FormatProximity(result, nameWidth)
		if err != nil {
			continue
		}
		fmt.Println(line)
	}
}

func sortPairResults(results []survey.Result) []survey.Result {
	sorted := append([]survey.Result(nil), results...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if cohortValue(a.HigherCohort) != cohortValue(b.HigherCohort) {
			return cohortValue(a.HigherCohort) < cohortValue(b.HigherCohort)
		}
		if otherName(a) != otherName(b) {
			return otherName(a) < otherName(b)
		}
		return a.Case.Phenotype.String() < b.Case.Phenotype.String()
	})
	return sorted
}

func otherName(r survey.Result) string {
	if r.Case.Other == nil {
		return ""
	}
	return r.Case.Other.String()
}

func cohortValue(cohort string) int {
	value, err := strconv.Atoi(cohort)
	if err != nil {
		return 0
	}
	return value
}

func widestPhenotypeName(results *survey.FilteredResults) int {
	width := 0
	consider := func(items []survey.Result) {
		for _, result := range items {
			for _, phenotype := range result.Case.Phenotypes() {
				if n := len(phenotype.String()); n > width {
					width = n
				}
			}
		}
	}
	consider(results.SingleFractions)
	consider(results.Ratios)
	consider(results.Proximity)
	return width
}

func writeExports(appConfig *config.Config, results *survey.FilteredResults) error {
	if path := appConfig.Export.WorkbookPath; path != "" {
		if err := export.WriteWorkbook(path, results); err != nil {
			return err
		}
		log.Printf("Wrote workbook %s", path)
	}
	if path := appConfig.Export.ReportPath; path != "" {
		if err := export.WriteReport(path, appConfig.API.Study, results); err != nil {
			return err
		}
		log.Printf("Wrote report %s", path)
	}
	if path := appConfig.Export.HTMLPath; path != "" {
		if err := export.WriteHTMLReport(path, appConfig.API.Study, results); err != nil {
			return err
		}
		log.Printf("Wrote HTML report %s", path)
	}
	return nil
}
