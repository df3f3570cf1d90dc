package scoring

import (
	"fmt"
	"math"
	"strings"

	"github.com/mind-engage/plant-eval/internal/evaluation"
)

// Outcome is the grading of a single recorded response.
type Outcome struct {
	Scored  bool // false for capture-only questions
	Correct bool
}

// Strategy grades one response for one question kind.
type Strategy interface {
	Grade(q evaluation.Question, value string) Outcome
}

// Grader routes by question kind to the matching Strategy.
type Grader interface {
	Grade(q evaluation.Question, value string) Outcome
}

type defaultGrader struct {
	strategies map[evaluation.Kind]Strategy
}

func (g *defaultGrader) Grade(q evaluation.Question, value string) Outcome {
	kind := q.Kind
	if kind == "" {
		kind = evaluation.KindYesNo
	}
	s, ok := g.strategies[kind]
	if !ok {
		return Outcome{}
	}
	return s.Grade(q, value)
}

type Option func(*config)

type config struct {
	CaseInsensitive bool // "SI" and "si" both match the marker
}

func WithCaseInsensitive(b bool) Option { return func(c *config) { c.CaseInsensitive = b } }

// NewDefaultGrader installs the built-in strategies. Only binary questions are
// scored; text and numeric questions are recorded but excluded from counts.
func NewDefaultGrader(opts ...Option) Grader {
	cfg := &config{}
	for _, o := range opts {
		o(cfg)
	}
	return &defaultGrader{
		strategies: map[evaluation.Kind]Strategy{
			evaluation.KindYesNo:   yesNoStrategy{fold: cfg.CaseInsensitive},
			evaluation.KindText:    captureStrategy{},
			evaluation.KindNumeric: captureStrategy{},
		},
	}
}

type yesNoStrategy struct{ fold bool }

func (s yesNoStrategy) Grade(q evaluation.Question, value string) Outcome {
	want := q.ExpectedValue()
	if s.fold {
		return Outcome{Scored: true, Correct: strings.EqualFold(strings.TrimSpace(value), want)}
	}
	return Outcome{Scored: true, Correct: value == want}
}

type captureStrategy struct{}

func (captureStrategy) Grade(evaluation.Question, string) Outcome { return Outcome{} }

// Aggregator computes results from an answer set and a template. It is pure:
// the same inputs always give the same Result.
type Aggregator struct {
	grader Grader
}

func NewAggregator(g Grader) *Aggregator {
	if g == nil {
		g = NewDefaultGrader()
	}
	return &Aggregator{grader: g}
}

var defaultAggregator = NewAggregator(nil)

// ComputeResult scores answers with the default grader.
func ComputeResult(answers evaluation.Answers, tmpl evaluation.Evaluation) evaluation.Result {
	return defaultAggregator.ComputeResult(answers, tmpl)
}

// ComputeSection scores a single section with the default grader.
func ComputeSection(answers evaluation.Answers, tmpl evaluation.Evaluation, section int) (evaluation.SectionSummary, error) {
	return defaultAggregator.ComputeSection(answers, tmpl, section)
}

// ComputeResult walks sections in template order. Keys outside the template
// are ignored and unanswered questions are left out of every denominator.
// The overall score weights section percentages by ponderacion; a section
// with no answers still contributes weight*0.
func (a *Aggregator) ComputeResult(answers evaluation.Answers, tmpl evaluation.Evaluation) evaluation.Result {
	res := evaluation.Result{
		EvaluationTitle: tmpl.Title,
		Type:            tmpl.Type,
		Sections:        make([]evaluation.SectionSummary, 0, len(tmpl.Sections)),
		Answers:         answers,
	}
	var weighted float64
	for i, s := range tmpl.Sections {
		sum := a.section(answers, tmpl.Type, i, s)
		res.Sections = append(res.Sections, sum)
		res.TotalAnswers += sum.Total
		res.CorrectAnswers += sum.Correct
		weighted += sum.Percentage * s.Weight / 100
	}
	res.Score = clampScore(weighted)
	return res
}

func (a *Aggregator) ComputeSection(answers evaluation.Answers, tmpl evaluation.Evaluation, section int) (evaluation.SectionSummary, error) {
	if section < 0 || section >= len(tmpl.Sections) {
		return evaluation.SectionSummary{}, fmt.Errorf("section %d out of range", section)
	}
	return a.section(answers, tmpl.Type, section, tmpl.Sections[section]), nil
}

func (a *Aggregator) section(answers evaluation.Answers, t evaluation.Type, idx int, s evaluation.Section) evaluation.SectionSummary {
	sum := evaluation.SectionSummary{Name: s.Name, Weight: s.Weight}
	q := 0
	for _, sub := range s.Subsections {
		ss := evaluation.SubsectionSummary{Name: sub.Name}
		for _, question := range sub.Questions {
			a.tally(answers, evaluation.AnswerKey{Type: t, Section: idx, Question: q}, question, &ss.Correct, &ss.Total)
			q++
		}
		ss.Percentage = Percentage(ss.Correct, ss.Total)
		sum.Subsections = append(sum.Subsections, ss)
		sum.Correct += ss.Correct
		sum.Total += ss.Total
	}
	for _, question := range s.Questions {
		a.tally(answers, evaluation.AnswerKey{Type: t, Section: idx, Question: q}, question, &sum.Correct, &sum.Total)
		q++
	}
	sum.Percentage = Percentage(sum.Correct, sum.Total)
	return sum
}

func (a *Aggregator) tally(answers evaluation.Answers, key evaluation.AnswerKey, q evaluation.Question, correct, total *int) {
	v, ok := answers[key]
	if !ok {
		return
	}
	out := a.grader.Grade(q, v)
	if !out.Scored {
		return
	}
	*total++
	if out.Correct {
		*correct++
	}
}

// Percentage is 100*correct/total, or 0 when nothing was answered.
func Percentage(correct, total int) float64 {
	if total <= 0 {
		return 0
	}
	return 100 * float64(correct) / float64(total)
}

func clampScore(v float64) int {
	s := int(math.Round(v))
	if s > 100 {
		s = 100
	}
	if s < 0 {
		s = 0
	}
	return s
}
