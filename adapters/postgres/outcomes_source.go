package postgres

import (
	"encoding/csv"
	"os"

	"phenosurvey/internal/errors"
)

var outcomeColumns = []string{
	"Subject of diagnosis",
	"Diagnosed condition",
	"Diagnosis",
	"Date of diagnosis",
	"Last date of considered evidence",
}

// ReadOutcomeRecords parses a tab-separated outcomes artifact. The header row
// must carry all expected column titles; column order is free.
func ReadOutcomeRecords(path string) ([]OutcomeRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open source file %s", path)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.Comma = '\t'
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse source file %s", path)
	}
	if len(rows) == 0 {
		return nil, errors.InvalidInput("source file has no header row")
	}

	columns := make(map[string]int, len(rows[0]))
	for index, title := range rows[0] {
		columns[title] = index
	}
	for _, title := range outcomeColumns {
		if _, present := columns[title]; !present {
			return nil, errors.InvalidInput("source file is missing column: " + title)
		}
	}

	records := make([]OutcomeRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		records = append(records, OutcomeRecord{
			Subject:                      row[columns["Subject of diagnosis"]],
			Condition:                    row[columns["Diagnosed condition"]],
			Diagnosis:                    row[columns["Diagnosis"]],
			DateOfDiagnosis:              row[columns["Date of diagnosis"]],
			LastDateOfConsideredEvidence: row[columns["Last date of considered evidence"]],
		})
	}
	return records, nil
}
