package evaluation

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidateTemplate runs struct-level checks plus the cross-field rules the
// tags cannot express. Section weights that do not sum to 100 are tolerated.
func ValidateTemplate(e *Evaluation) error {
	if e == nil {
		return errors.New("template is required")
	}
	if err := validate.Struct(e); err != nil {
		return fmt.Errorf("invalid template: %w", err)
	}
	seen := map[string]bool{}
	for si, s := range e.Sections {
		for _, q := range s.Flatten() {
			if seen[q.ID] {
				return fmt.Errorf("duplicate question id %s in section %d", q.ID, si)
			}
			seen[q.ID] = true
		}
	}
	if len(seen) == 0 {
		return errors.New("template has no questions")
	}
	return nil
}

// ValidateResult checks a result payload before it is persisted.
func ValidateResult(r *Result) error {
	if r == nil {
		return errors.New("result is required")
	}
	if _, err := ParseType(string(r.Type)); err != nil {
		return err
	}
	switch {
	case r.EvaluationTitle == "":
		return errors.New("evaluationTitle is required")
	case r.Score < 0 || r.Score > 100:
		return fmt.Errorf("score %d out of range", r.Score)
	case r.TotalAnswers < 0 || r.CorrectAnswers < 0:
		return errors.New("answer counts must be non-negative")
	case r.CorrectAnswers > r.TotalAnswers:
		return errors.New("correctAnswers exceeds totalAnswers")
	}
	for _, s := range r.Sections {
		if s.Correct > s.Total {
			return fmt.Errorf("section %q: correct exceeds total", s.Name)
		}
	}
	return nil
}
