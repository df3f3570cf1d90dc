package session

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/mind-engage/plant-eval/internal/evaluation"
	"github.com/mind-engage/plant-eval/internal/scoring"
)

var (
	ErrUnknownQuestion = errors.New("question not in template")
	ErrEmptyAnswer     = errors.New("empty answer")
	ErrFinished        = errors.New("evaluation already finished")
)

// SectionStatus is the per-section lifecycle: NotStarted -> InProgress -> Complete.
type SectionStatus int

const (
	NotStarted SectionStatus = iota
	InProgress
	Complete
)

func (s SectionStatus) String() string {
	switch s {
	case NotStarted:
		return "not_started"
	case InProgress:
		return "in_progress"
	case Complete:
		return "complete"
	}
	return fmt.Sprintf("SectionStatus(%d)", int(s))
}

type Option func(*State)

// OnSectionComplete is called once per section, the first time every
// question in it has an answer.
func OnSectionComplete(fn func(section int, summary evaluation.SectionSummary)) Option {
	return func(s *State) { s.onSection = fn }
}

// OnFinished is called once, when every section is complete.
func OnFinished(fn func(evaluation.Result)) Option {
	return func(s *State) { s.onFinished = fn }
}

func WithAggregator(a *scoring.Aggregator) Option {
	return func(s *State) { s.agg = a }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *State) { s.logger = l }
}

// State holds the live answers of one attempt. It is not safe for concurrent
// use; the owner serializes calls.
type State struct {
	tmpl     evaluation.Evaluation
	answers  evaluation.Answers
	sizes    []int
	status   []SectionStatus
	answered []int
	result   *evaluation.Result

	agg        *scoring.Aggregator
	logger     *slog.Logger
	onSection  func(int, evaluation.SectionSummary)
	onFinished func(evaluation.Result)
}

func New(tmpl evaluation.Evaluation, opts ...Option) (*State, error) {
	if len(tmpl.Sections) == 0 {
		return nil, errors.New("template has no sections")
	}
	s := &State{
		tmpl:     tmpl,
		answers:  evaluation.Answers{},
		sizes:    make([]int, len(tmpl.Sections)),
		status:   make([]SectionStatus, len(tmpl.Sections)),
		answered: make([]int, len(tmpl.Sections)),
	}
	for _, o := range opts {
		o(s)
	}
	if s.agg == nil {
		s.agg = scoring.NewAggregator(nil)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	total := 0
	for i, sec := range tmpl.Sections {
		s.sizes[i] = len(sec.Flatten())
		total += s.sizes[i]
		if s.sizes[i] == 0 {
			s.status[i] = Complete
		}
	}
	if total == 0 {
		return nil, errors.New("template has no questions")
	}
	return s, nil
}

func (s *State) Template() evaluation.Evaluation { return s.tmpl }

// RecordAnswer stores value for the question, replacing any earlier answer.
func (s *State) RecordAnswer(section, question int, value string) error {
	if s.result != nil {
		return ErrFinished
	}
	if _, ok := s.tmpl.Question(section, question); !ok {
		return fmt.Errorf("%w: section %d question %d", ErrUnknownQuestion, section, question)
	}
	if value == "" {
		return ErrEmptyAnswer
	}
	key := evaluation.AnswerKey{Type: s.tmpl.Type, Section: section, Question: question}
	if _, exists := s.answers[key]; !exists {
		s.answered[section]++
	}
	s.answers[key] = value

	if s.status[section] == Complete {
		return nil
	}
	if s.answered[section] < s.sizes[section] {
		s.status[section] = InProgress
		return nil
	}
	s.status[section] = Complete
	if s.onSection != nil {
		sum, _ := s.agg.ComputeSection(s.answers, s.tmpl, section)
		if sum.Total == 0 {
			s.logger.Debug("section has no scored answers", "section", section)
		}
		s.onSection(section, sum)
	}
	if s.allComplete() {
		s.finish()
	}
	return nil
}

func (s *State) allComplete() bool {
	for _, st := range s.status {
		if st != Complete {
			return false
		}
	}
	return true
}

func (s *State) finish() {
	res := s.agg.ComputeResult(s.answers, s.tmpl)
	s.result = &res
	// the result owns the map from here on
	s.answers = evaluation.Answers{}
	if s.onFinished != nil {
		s.onFinished(res)
	}
}

// Answer returns the recorded value for a question.
func (s *State) Answer(section, question int) (string, bool) {
	if s.result != nil {
		v, ok := s.result.Answers[evaluation.AnswerKey{Type: s.tmpl.Type, Section: section, Question: question}]
		return v, ok
	}
	v, ok := s.answers[evaluation.AnswerKey{Type: s.tmpl.Type, Section: section, Question: question}]
	return v, ok
}

// Answers returns a copy of the live answer map.
func (s *State) Answers() evaluation.Answers {
	return s.answers.Clone()
}

func (s *State) IsSectionComplete(section int) bool {
	return s.SectionStatus(section) == Complete
}

func (s *State) SectionStatus(section int) SectionStatus {
	if section < 0 || section >= len(s.status) {
		return NotStarted
	}
	return s.status[section]
}

// SectionSummary recomputes a section's score from the current answers.
func (s *State) SectionSummary(section int) (evaluation.SectionSummary, error) {
	answers := s.answers
	if s.result != nil {
		answers = s.result.Answers
	}
	return s.agg.ComputeSection(answers, s.tmpl, section)
}

// ProgressFraction is answered/total across the whole evaluation.
func (s *State) ProgressFraction() float64 {
	total, done := 0, 0
	for i := range s.sizes {
		total += s.sizes[i]
		done += s.answered[i]
	}
	if total == 0 {
		return 0
	}
	return float64(done) / float64(total)
}

func (s *State) Finished() bool { return s.result != nil }

// Result is available once every section is complete.
func (s *State) Result() (evaluation.Result, bool) {
	if s.result == nil {
		return evaluation.Result{}, false
	}
	return *s.result, true
}
