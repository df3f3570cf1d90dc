package results

import (
	"fmt"
	"io"
	"strings"

	"github.com/mind-engage/plant-eval/internal/evaluation"
	"github.com/mind-engage/plant-eval/internal/scoring"
)

const (
	StatusPassed = "APROBADO"
	StatusFailed = "REPROBADO"
)

// Verdict is what the results screen shows for a finished attempt.
type Verdict struct {
	Status string
	Passed bool
	Gated  bool // false when the type has no pass threshold
	Band   scoring.Band
}

// Evaluate applies the type's pass threshold. Types without one are labelled
// with their advisory band and never reported as failed.
func Evaluate(r evaluation.Result) Verdict {
	v := Verdict{Band: scoring.BandFor(r.Score)}
	threshold, ok := scoring.Threshold(r.Type)
	if !ok {
		v.Status = string(v.Band)
		v.Passed = true
		return v
	}
	v.Gated = true
	v.Passed = r.Score >= threshold
	if v.Passed {
		v.Status = StatusPassed
	} else {
		v.Status = StatusFailed
	}
	return v
}

// Render writes the plain-text results screen.
func Render(w io.Writer, r evaluation.Result) error {
	v := Evaluate(r)
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", r.EvaluationTitle)
	fmt.Fprintf(&b, "%s\n", strings.Repeat("=", len([]rune(r.EvaluationTitle))))
	fmt.Fprintf(&b, "Puntuación: %d%%  (%s)\n", r.Score, v.Status)
	fmt.Fprintf(&b, "Respuestas correctas: %d de %d\n\n", r.CorrectAnswers, r.TotalAnswers)
	for _, s := range r.Sections {
		fmt.Fprintf(&b, "  %-32s %3.0f%%  %d/%d  (ponderación %g%%)\n", s.Name, s.Percentage, s.Correct, s.Total, s.Weight)
		for _, sub := range s.Subsections {
			fmt.Fprintf(&b, "    - %-28s %3.0f%%  %d/%d\n", sub.Name, sub.Percentage, sub.Correct, sub.Total)
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// RenderSection writes the section-completion modal.
func RenderSection(w io.Writer, s evaluation.SectionSummary) error {
	_, err := fmt.Fprintf(w, "Sección completada: %s\n  %d de %d correctas (%.0f%%)\n", s.Name, s.Correct, s.Total, s.Percentage)
	return err
}
