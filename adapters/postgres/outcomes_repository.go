// Package postgres synchronizes curated outcome tables with a remote
// PostgreSQL database.
package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"phenosurvey/internal"
	"phenosurvey/internal/errors"
)

// OutcomeRecord is one subject diagnosis row from a curated source file.
type OutcomeRecord struct {
	Subject                      string
	Condition                    string
	Diagnosis                    string
	Result                       string
	DateOfDiagnosis              string
	LastDateOfConsideredEvidence string
}

// OutcomesRepository uploads outcome records into the diagnosis table.
type OutcomesRepository struct {
	db     *sqlx.DB
	logger *internal.Logger
}

// NewOutcomesRepository creates a repository over an open connection.
func NewOutcomesRepository(db *sqlx.DB) *OutcomesRepository {
	return &OutcomesRepository{db: db, logger: internal.NewComponentLogger("Sync")}
}

// Connect opens a PostgreSQL connection for syncing.
func Connect(databaseURL string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}
	return db, nil
}

// Sync uploads the records. With fewer than two records the upload aborts,
// a truncated artifact being more likely than a one-subject study. Without
// dropFirst, any existing remote records also abort the upload; with it the
// remote table is emptied first. The upload itself is transactional.
func (r *OutcomesRepository) Sync(ctx context.Context, records []OutcomeRecord, dropFirst bool) error {
	if len(records) <= 1 {
		r.logger.Warn("Not enough diagnosis records, aborting the upload.")
		return nil
	}

	if dropFirst {
		if _, err := r.db.ExecContext(ctx, `DELETE FROM diagnosis`); err != nil {
			return errors.Wrap(err, "failed to clear diagnosis table")
		}
	} else {
		var existing int
		if err := r.db.GetContext(ctx, &existing, `SELECT COUNT(*) FROM diagnosis`); err != nil {
			return errors.Wrap(err, "failed to count existing diagnosis records")
		}
		if existing > 0 {
			r.logger.Warn("Found %d existing diagnosis records in remote. Did you want to use --drop-first? Aborting.", existing)
			return nil
		}
	}

	r.logger.Info("Saving %d diagnosis records.", len(records))
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	for _, record := range records {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO diagnosis (
				subject, condition, diagnosis, result,
				date_of_diagnosis, last_date_of_considered_evidence
			) VALUES ($1, $2, $3, $4, $5, $6)`,
			record.Subject, record.Condition, record.Diagnosis, record.Result,
			record.DateOfDiagnosis, record.LastDateOfConsideredEvidence,
		)
		if err != nil {
			_ = tx.Rollback()
			return errors.Wrapf(err, "failed to insert diagnosis record for subject %s", record.Subject)
		}
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit diagnosis records")
	}
	return nil
}
