package results

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mind-engage/plant-eval/internal/evaluation"
	"github.com/mind-engage/plant-eval/internal/storage"
)

type ReportHeader struct {
	Title          string          `json:"titulo"`
	Date           string          `json:"fecha"`
	Time           string          `json:"hora"`
	Score          int             `json:"puntuacion"`
	TotalQuestions int             `json:"total_preguntas"`
	CorrectAnswers int             `json:"respuestas_correctas"`
	Status         string          `json:"estado"`
	Type           evaluation.Type `json:"tipo"`
}

// Report is the downloadable summary of one attempt.
type Report struct {
	Evaluation ReportHeader                `json:"evaluacion"`
	Sections   []evaluation.SectionSummary `json:"secciones"`
	Answers    evaluation.Answers          `json:"respuestas"`
}

func BuildReport(r evaluation.Result, now time.Time) Report {
	return Report{
		Evaluation: ReportHeader{
			Title:          r.EvaluationTitle,
			Date:           now.Format("2006-01-02"),
			Time:           now.Format("15:04:05"),
			Score:          r.Score,
			TotalQuestions: r.TotalAnswers,
			CorrectAnswers: r.CorrectAnswers,
			Status:         Evaluate(r).Status,
			Type:           r.Type,
		},
		Sections: r.Sections,
		Answers:  r.Answers,
	}
}

// FileName is evaluacion_<type>_<YYYY-MM-DD>.json.
func FileName(t evaluation.Type, now time.Time) string {
	return fmt.Sprintf("evaluacion_%s_%s.json", t, now.Format("2006-01-02"))
}

// Exporter writes reports to a blob store without any server round-trip.
type Exporter struct {
	Blobs storage.BlobStore
	Now   func() time.Time
}

func (e *Exporter) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// Export returns the key the report was stored under.
func (e *Exporter) Export(r evaluation.Result) (string, error) {
	now := e.now()
	buf, err := json.MarshalIndent(BuildReport(r, now), "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode report: %w", err)
	}
	return e.Blobs.Put(FileName(r.Type, now), bytes.NewReader(buf))
}
