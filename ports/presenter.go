package ports

import "phenosurvey/domain/survey"

// AssessmentLogger renders survey progress and accepted results. The survey
// core decides what is log-worthy; implementations decide how it looks.
type AssessmentLogger interface {
	// Log emits a free-form progress message.
	Log(message string)

	// SetNameWidth hints the widest channel name so result columns align.
	SetNameWidth(width int)

	// LogSingleton reports an accepted single-phenotype fractions result.
	LogSingleton(result survey.Result)

	// LogRatio reports an accepted fraction-ratio result together with the
	// phase-1 results that probably confound it (empty when independent).
	LogRatio(result survey.Result, confounding []survey.Result) error

	// LogProximity reports an accepted proximity result together with its
	// probable confounders.
	LogProximity(result survey.Result, confounding []survey.Result) error

	// Close flushes any retained output.
	Close() error
}
