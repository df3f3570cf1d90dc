package results_test

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/mind-engage/plant-eval/internal/evaluation"
	"github.com/mind-engage/plant-eval/internal/results"
	"github.com/mind-engage/plant-eval/internal/scoring"
	"github.com/mind-engage/plant-eval/internal/storage"
)

func TestEvaluate_PersonalThresholdBoundary(t *testing.T) {
	for score, want := range map[int]string{90: results.StatusFailed, 91: results.StatusPassed, 100: results.StatusPassed, 76: results.StatusFailed} {
		v := results.Evaluate(evaluation.Result{Type: evaluation.TypePersonal, Score: score})
		if v.Status != want {
			t.Errorf("score %d: expected %s, got %s", score, want, v.Status)
		}
		if !v.Gated {
			t.Errorf("score %d: expected gated verdict", score)
		}
	}
}

func TestEvaluate_JefePlantaUsesSameGate(t *testing.T) {
	if v := results.Evaluate(evaluation.Result{Type: evaluation.TypeJefePlanta, Score: 90}); v.Passed {
		t.Error("expected 90 to fail for jefe_planta")
	}
}

func TestEvaluate_UngatedTypesUseBands(t *testing.T) {
	v := results.Evaluate(evaluation.Result{Type: evaluation.TypeEquipo, Score: 65})
	if v.Gated || v.Status != string(scoring.BandGood) {
		t.Errorf("expected band status BUENO, got %+v", v)
	}
}

func sampleResult() evaluation.Result {
	return evaluation.Result{
		EvaluationTitle: "Evaluación de personal",
		Type:            evaluation.TypePersonal,
		Score:           76,
		TotalAnswers:    10,
		CorrectAnswers:  7,
		Sections: []evaluation.SectionSummary{
			{Name: "A", Weight: 60, Correct: 5, Total: 5, Percentage: 100},
			{Name: "B", Weight: 40, Correct: 2, Total: 5, Percentage: 40},
		},
		Answers: evaluation.Answers{{Type: evaluation.TypePersonal, Section: 0, Question: 0}: "si"},
	}
}

func TestRender(t *testing.T) {
	var buf bytes.Buffer
	if err := results.Render(&buf, sampleResult()); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"76%", "REPROBADO", "7 de 10", "A"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestExport(t *testing.T) {
	blobs, err := storage.NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	now := time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC)
	ex := &results.Exporter{Blobs: blobs, Now: func() time.Time { return now }}

	key, err := ex.Export(sampleResult())
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if key != "evaluacion_personal_2026-10-15.json" {
		t.Errorf("unexpected file name %q", key)
	}

	rc, err := blobs.Get(key)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer rc.Close()
	b, _ := io.ReadAll(rc)

	var doc struct {
		Evaluacion map[string]any    `json:"evaluacion"`
		Secciones  []map[string]any  `json:"secciones"`
		Respuestas map[string]string `json:"respuestas"`
	}
	if err := json.Unmarshal(b, &doc); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if doc.Evaluacion["estado"] != "REPROBADO" || doc.Evaluacion["fecha"] != "2026-10-15" || doc.Evaluacion["hora"] != "09:30:00" {
		t.Errorf("unexpected header %v", doc.Evaluacion)
	}
	if doc.Evaluacion["puntuacion"].(float64) != 76 {
		t.Errorf("unexpected score %v", doc.Evaluacion["puntuacion"])
	}
	if len(doc.Secciones) != 2 || doc.Respuestas["personal-0-0"] != "si" {
		t.Errorf("unexpected body: %s", b)
	}
}

func TestExport_DateMatchesFileNameNearMidnight(t *testing.T) {
	blobs, err := storage.NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	// 23:45 in Monterrey is already the next day in UTC
	now := time.Date(2026, 10, 15, 23, 45, 0, 0, time.FixedZone("CST", -6*60*60))
	ex := &results.Exporter{Blobs: blobs, Now: func() time.Time { return now }}

	key, err := ex.Export(sampleResult())
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if key != "evaluacion_personal_2026-10-15.json" {
		t.Errorf("unexpected file name %q", key)
	}
	if got := results.BuildReport(sampleResult(), now).Evaluation.Date; !strings.Contains(key, got) {
		t.Errorf("report date %s does not match file name %s", got, key)
	}
}
