package evaluation

import (
	"fmt"
	"strings"
)

// Type tags an evaluation template. Answers, permissions and pass thresholds
// are all namespaced by it.
type Type string

const (
	TypePersonal   Type = "personal"
	TypeEquipo     Type = "equipo"
	TypeOperacion  Type = "operacion"
	TypeJefePlanta Type = "jefe_planta"
)

// Types lists every known evaluation type in menu order.
var Types = []Type{TypePersonal, TypeEquipo, TypeOperacion, TypeJefePlanta}

func ParseType(s string) (Type, error) {
	t := Type(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Types {
		if t == known {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown evaluation type %q", s)
}

// Kind is the response type of a question.
type Kind string

const (
	KindYesNo   Kind = "si_no"
	KindText    Kind = "texto"
	KindNumeric Kind = "numero"
)

// CorrectMarker is the canonical correct value for binary questions.
const CorrectMarker = "si"

type Question struct {
	ID       string `json:"id" validate:"required"`
	Prompt   string `json:"pregunta" validate:"required"`
	Kind     Kind   `json:"tipo,omitempty" validate:"omitempty,oneof=si_no texto numero"`
	Expected string `json:"respuesta_correcta,omitempty"`
}

// Scored reports whether the question takes part in the score. Free-text and
// numeric questions only capture operating parameters.
func (q Question) Scored() bool {
	return q.Kind == "" || q.Kind == KindYesNo
}

// ExpectedValue is the value that counts as correct.
func (q Question) ExpectedValue() string {
	if q.Expected == "" {
		return CorrectMarker
	}
	return q.Expected
}

type Subsection struct {
	Name      string     `json:"nombre" validate:"required"`
	Questions []Question `json:"preguntas" validate:"dive"`
}

type Section struct {
	Name        string       `json:"nombre" validate:"required"`
	Weight      float64      `json:"ponderacion" validate:"gte=0,lte=100"`
	Subsections []Subsection `json:"subsecciones,omitempty" validate:"dive"`
	Questions   []Question   `json:"preguntas,omitempty" validate:"dive"`
}

// Flatten returns the section's questions in answer-index order: subsection
// questions first, then any questions attached directly to the section.
func (s Section) Flatten() []Question {
	n := len(s.Questions)
	for _, sub := range s.Subsections {
		n += len(sub.Questions)
	}
	out := make([]Question, 0, n)
	for _, sub := range s.Subsections {
		out = append(out, sub.Questions...)
	}
	return append(out, s.Questions...)
}

// Evaluation is a read-only template fetched once per session.
type Evaluation struct {
	ID       string    `json:"id,omitempty"`
	Title    string    `json:"titulo" validate:"required"`
	Type     Type      `json:"tipo" validate:"required,oneof=personal equipo operacion jefe_planta"`
	Sections []Section `json:"secciones" validate:"min=1,dive"`
}

// QuestionCount counts every question, scored or not.
func (e Evaluation) QuestionCount() int {
	n := 0
	for _, s := range e.Sections {
		n += len(s.Flatten())
	}
	return n
}

// Question resolves an answer position inside the template.
func (e Evaluation) Question(section, question int) (Question, bool) {
	if section < 0 || section >= len(e.Sections) {
		return Question{}, false
	}
	qs := e.Sections[section].Flatten()
	if question < 0 || question >= len(qs) {
		return Question{}, false
	}
	return qs[question], true
}

// TotalWeight sums section weights. It should be 100 but is not enforced.
func (e Evaluation) TotalWeight() float64 {
	var w float64
	for _, s := range e.Sections {
		w += s.Weight
	}
	return w
}

type SubsectionSummary struct {
	Name       string  `json:"nombre"`
	Correct    int     `json:"correctas"`
	Total      int     `json:"total"`
	Percentage float64 `json:"porcentaje"`
}

type SectionSummary struct {
	Name        string              `json:"nombre"`
	Weight      float64             `json:"ponderacion"`
	Correct     int                 `json:"correctas"`
	Total       int                 `json:"total"`
	Percentage  float64             `json:"porcentaje"`
	Subsections []SubsectionSummary `json:"subsecciones,omitempty"`
}

// Result is produced once per finished attempt and never mutated afterwards.
type Result struct {
	EvaluationTitle string           `json:"evaluationTitle"`
	Type            Type             `json:"tipo"`
	Score           int              `json:"score"`
	TotalAnswers    int              `json:"totalAnswers"`
	CorrectAnswers  int              `json:"correctAnswers"`
	Sections        []SectionSummary `json:"sections"`
	Answers         Answers          `json:"answers"`
}

// User is the record returned by a successful login.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	FullName string `json:"nombre_completo"`
	Role     string `json:"rol"`
}

// BlockStatus is the global exam lock for a user.
type BlockStatus struct {
	CanTakeExams bool    `json:"puede_realizar_examenes"`
	Reason       *string `json:"motivo_bloqueo,omitempty"`
	BlockedAt    *string `json:"fecha_bloqueo,omitempty"`
	BlockedBy    *string `json:"bloqueado_por_nombre,omitempty"`
}

func (b BlockStatus) Blocked() bool { return !b.CanTakeExams }

// CompanyStats feeds the results visualization listing.
type CompanyStats struct {
	Name           string  `json:"nombre"`
	Users          int     `json:"total_usuarios"`
	Evaluations    int     `json:"total_evaluaciones"`
	AverageScore   float64 `json:"promedio_puntuacion"`
	LastEvaluation *string `json:"ultima_evaluacion"`
}
