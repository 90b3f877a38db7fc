package export

import (
	"fmt"
	"os"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"phenosurvey/domain/survey"
	"phenosurvey/internal/errors"
)

// RenderMarkdown produces a human-readable survey report.
func RenderMarkdown(study string, results *survey.FilteredResults) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Cohort survey: %s\n\n", study)

	sections := []struct {
		title  string
		metric string
	}{
		{"Single channel fractions results", "fraction"},
		{"Ratio of channels fractions results", "ratio"},
		{"Proximity results", "proximity"},
	}
	records := Records(results)
	for _, section := range sections {
		fmt.Fprintf(&b, "## %s\n\n", section.title)
		found := false
		for _, r := range records {
			if r.Metric != section.metric {
				continue
			}
			fmt.Fprintf(&b, "- %s\n", describe(r))
			found = true
		}
		if !found {
			b.WriteString("No accepted results.\n")
		}
		b.WriteString("\n")
	}
	return b.String()
}

// WriteReport writes the markdown report to a file.
func WriteReport(path, study string, results *survey.FilteredResults) error {
	report := RenderMarkdown(study, results)
	if err := os.WriteFile(path, []byte(report), 0o644); err != nil {
		return errors.Wrapf(err, "failed to write report %s", path)
	}
	return nil
}

// WriteHTMLReport renders the markdown report as a standalone HTML file.
func WriteHTMLReport(path, study string, results *survey.FilteredResults) error {
	report := RenderMarkdown(study, results)

	p := parser.NewWithExtensions(parser.CommonExtensions)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags | html.CompletePage})
	rendered := markdown.ToHTML([]byte(report), p, renderer)

	if err := os.WriteFile(path, rendered, 0o644); err != nil {
		return errors.Wrapf(err, "failed to write HTML report %s", path)
	}
	return nil
}
