// Package export renders accepted survey results as spreadsheet and report
// files.
package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"phenosurvey/domain/survey"
	"phenosurvey/internal/errors"
)

const sheetName = "Sheet1"

var workbookHeader = []string{
	"metric", "multiplier", "p", "higher_cohort",
	"cohort_1", "cohort_2", "phenotype_1", "phenotype_2",
}

// WriteWorkbook writes all accepted results to one spreadsheet, one row per
// result. Proximity rows are re-filtered against the severe calibration
// before inclusion.
func WriteWorkbook(path string, results *survey.FilteredResults) error {
	f := excelize.NewFile()
	defer f.Close()

	for column, title := range workbookHeader {
		cell, err := excelize.CoordinatesToCellName(column+1, 1)
		if err != nil {
			return errors.Wrap(err, "failed to address header cell")
		}
		if err := f.SetCellValue(sheetName, cell, title); err != nil {
			return errors.Wrap(err, "failed to write workbook header")
		}
	}

	row := 2
	for _, result := range Records(results) {
		values := []any{
			result.Metric,
			result.Multiplier,
			result.P,
			result.HigherCohort,
			result.Cohort1,
			result.Cohort2,
			result.Phenotype1,
			result.Phenotype2,
		}
		for column, value := range values {
			cell, err := excelize.CoordinatesToCellName(column+1, row)
			if err != nil {
				return errors.Wrap(err, "failed to address result cell")
			}
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				return errors.Wrapf(err, "failed to write result row %d", row)
			}
		}
		row++
	}

	if err := f.SaveAs(path); err != nil {
		return errors.Wrapf(err, "failed to save workbook %s", path)
	}
	return nil
}

// Record is one accepted result flattened for tabular output.
type Record struct {
	Metric       string
	Multiplier   float64
	P            float64
	HigherCohort string
	Cohort1      string
	Cohort2      string
	Phenotype1   string
	Phenotype2   string
}

// Records flattens the grouped results into rows: fraction rows, then ratio
// rows, then the proximity rows that survive the severe calibration.
func Records(results *survey.FilteredResults) []Record {
	var records []Record
	for _, result := range results.SingleFractions {
		records = append(records, record(result, "fraction"))
	}
	for _, result := range results.Ratios {
		records = append(records, record(result, "ratio"))
	}
	for _, result := range results.Proximity {
		if !survey.SevereProximityLimits.Acceptable(result.Significance) {
			continue
		}
		records = append(records, record(result, "proximity"))
	}
	return records
}

func record(result survey.Result, metric string) Record {
	r := Record{
		Metric:       metric,
		Multiplier:   result.Significance.Effect,
		P:            result.Significance.P,
		HigherCohort: result.HigherCohort,
		Cohort1:      result.Case.Cohorts.First,
		Cohort2:      result.Case.Cohorts.Second,
		Phenotype1:   result.Case.Phenotype.String(),
	}
	if result.Case.Other != nil {
		r.Phenotype2 = result.Case.Other.String()
	}
	return r
}

// describe summarizes one record for report prose.
func describe(r Record) string {
	subject := r.Phenotype1
	if r.Phenotype2 != "" {
		subject = r.Phenotype1 + " / " + r.Phenotype2
	}
	return fmt.Sprintf("%s %s higher in cohort %s (%.4fx, p=%.2E)",
		subject, r.Metric, r.HigherCohort, r.Multiplier, r.P)
}
