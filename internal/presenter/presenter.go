// Package presenter renders survey progress either interactively through a
// scrolling terminal window, or as plain leveled log output.
package presenter

import (
	"fmt"
	"strings"

	"phenosurvey/domain/survey"
	"phenosurvey/internal"
	"phenosurvey/internal/terminal"
	"phenosurvey/ports"
)

const (
	headerSingletons = "Single channel assessment phase"
	headerRatios     = "Channel ratios assessment phase"
	headerProximity  = "Proximity assessment phase"
)

// Interactive is an AssessmentLogger showing a scrolling status window.
type Interactive struct {
	buffer    *terminal.ScrollingBuffer
	nameWidth int
}

// NewInteractive creates an interactive presenter with the given window
// height.
func NewInteractive(windowLines int) *Interactive {
	return &Interactive{buffer: terminal.NewScrollingBuffer(windowLines)}
}

// Log emits a free-form progress message.
func (p *Interactive) Log(message string) {
	p.buffer.AddLine(message, "")
}

// SetNameWidth records the widest channel name for column alignment.
func (p *Interactive) SetNameWidth(width int) {
	p.nameWidth = width
}

// LogSingleton reports an accepted single-phenotype fractions hit.
func (p *Interactive) LogSingleton(result survey.Result) {
	message := survey.FormatSingleton(result, p.nameWidth)
	p.buffer.AddLine("Hit: "+message, headerSingletons)
}

// LogRatio reports an accepted fraction-ratio hit with its probable
// confounders.
func (p *Interactive) LogRatio(result survey.Result, confounding []survey.Result) error {
	message, err := survey.FormatRatio(result, p.nameWidth)
	if err != nil {
		return err
	}
	p.buffer.AddLine(fmt.Sprintf("Hit: %s   %s", message, qualification(confounding)), headerRatios)
	return nil
}

// LogProximity reports an accepted proximity hit with its probable
// confounders.
func (p *Interactive) LogProximity(result survey.Result, confounding []survey.Result) error {
	message, err := survey.FormatProximity(result, p.nameWidth)
	if err != nil {
		return err
	}
	p.buffer.AddLine(fmt.Sprintf("Hit: %s   %s", message, qualification(confounding)), headerProximity)
	return nil
}

// Close replays all retained lines plainly.
func (p *Interactive) Close() error {
	return p.buffer.Close()
}

// Plain is an AssessmentLogger writing through the leveled logger, for
// non-interactive runs.
type Plain struct {
	log       *internal.Logger
	nameWidth int
}

// NewPlain creates a plain presenter.
func NewPlain() *Plain {
	return &Plain{log: internal.NewComponentLogger("Survey")}
}

func (p *Plain) Log(message string) {
	p.log.Info("%s", message)
}

func (p *Plain) SetNameWidth(width int) {
	p.nameWidth = width
}

func (p *Plain) LogSingleton(result survey.Result) {
	p.log.Info("Hit: %s", survey.FormatSingleton(result, p.nameWidth))
}

func (p *Plain) LogRatio(result survey.Result, confounding []survey.Result) error {
	message, err := survey.FormatRatio(result, p.nameWidth)
	if err != nil {
		return err
	}
	p.log.Info("Hit: %s   %s", message, qualification(confounding))
	return nil
}

func (p *Plain) LogProximity(result survey.Result, confounding []survey.Result) error {
	message, err := survey.FormatProximity(result, p.nameWidth)
	if err != nil {
		return err
	}
	p.log.Info("Hit: %s   %s", message, qualification(confounding))
	return nil
}

func (p *Plain) Close() error {
	return nil
}

// qualification explains which phase-1 phenotypes probably confound a hit.
func qualification(confounding []survey.Result) string {
	if len(confounding) == 0 {
		return ""
	}
	names := make([]string, len(confounding))
	for i, r := range confounding {
		names[i] = r.Case.Phenotype.String()
	}
	return fmt.Sprintf("(Probable confounding with %s results)", strings.Join(names, ", "))
}

var _ ports.AssessmentLogger = (*Interactive)(nil)
var _ ports.AssessmentLogger = (*Plain)(nil)
