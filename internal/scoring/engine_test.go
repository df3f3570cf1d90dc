package scoring_test

import (
	"testing"

	"github.com/mind-engage/plant-eval/internal/evaluation"
	"github.com/mind-engage/plant-eval/internal/scoring"
)

func yesNo(ids ...string) []evaluation.Question {
	out := make([]evaluation.Question, 0, len(ids))
	for _, id := range ids {
		out = append(out, evaluation.Question{ID: id, Prompt: "¿" + id + "?"})
	}
	return out
}

func twoSectionTemplate() evaluation.Evaluation {
	return evaluation.Evaluation{
		Title: "Evaluación de personal",
		Type:  evaluation.TypePersonal,
		Sections: []evaluation.Section{
			{Name: "A", Weight: 60, Questions: yesNo("a1", "a2", "a3", "a4", "a5")},
			{Name: "B", Weight: 40, Questions: yesNo("b1", "b2", "b3", "b4", "b5")},
		},
	}
}

func answer(a evaluation.Answers, t evaluation.Type, s int, values ...string) {
	for q, v := range values {
		a[evaluation.AnswerKey{Type: t, Section: s, Question: q}] = v
	}
}

func TestComputeResult_WeightedScenario(t *testing.T) {
	tmpl := twoSectionTemplate()
	a := evaluation.Answers{}
	answer(a, tmpl.Type, 0, "si", "si", "si", "si", "si")
	answer(a, tmpl.Type, 1, "si", "si", "no", "no", "no")

	res := scoring.ComputeResult(a, tmpl)

	if res.Score != 76 {
		t.Fatalf("expected score 76, got %d", res.Score)
	}
	if res.TotalAnswers != 10 || res.CorrectAnswers != 7 {
		t.Errorf("expected 7/10, got %d/%d", res.CorrectAnswers, res.TotalAnswers)
	}
	if got := res.Sections[0].Percentage; got != 100 {
		t.Errorf("section A: expected 100%%, got %v", got)
	}
	if got := res.Sections[1].Percentage; got != 40 {
		t.Errorf("section B: expected 40%%, got %v", got)
	}
	if res.EvaluationTitle != tmpl.Title {
		t.Errorf("expected title %q, got %q", tmpl.Title, res.EvaluationTitle)
	}
}

func TestComputeResult_WeightingIdentity(t *testing.T) {
	tmpl := evaluation.Evaluation{
		Title: "t",
		Type:  evaluation.TypeEquipo,
		Sections: []evaluation.Section{
			{Name: "s1", Weight: 25, Questions: yesNo("1", "2", "3")},
			{Name: "s2", Weight: 50, Questions: yesNo("4", "5", "6", "7")},
			{Name: "s3", Weight: 25, Questions: yesNo("8", "9")},
		},
	}
	a := evaluation.Answers{}
	answer(a, tmpl.Type, 0, "si", "no", "no")
	answer(a, tmpl.Type, 1, "si", "si", "si", "no")
	answer(a, tmpl.Type, 2, "si", "si")

	res := scoring.ComputeResult(a, tmpl)

	var want float64
	for i, s := range res.Sections {
		want += s.Percentage * tmpl.Sections[i].Weight / 100
	}
	// 33.33*0.25 + 75*0.5 + 100*0.25 = 70.83
	if res.Score != 71 {
		t.Fatalf("expected 71, got %d (raw %v)", res.Score, want)
	}
	if res.Score < 0 || res.Score > 100 {
		t.Fatalf("score out of range: %d", res.Score)
	}
}

func TestComputeResult_ZeroAnswerSectionPenalized(t *testing.T) {
	tmpl := twoSectionTemplate()
	a := evaluation.Answers{}
	answer(a, tmpl.Type, 1, "si", "si", "si", "si", "si")

	res := scoring.ComputeResult(a, tmpl)

	if res.Sections[0].Total != 0 || res.Sections[0].Percentage != 0 {
		t.Errorf("expected empty section at 0%%, got %+v", res.Sections[0])
	}
	// not rescaled: only section B's 40 weight counts
	if res.Score != 40 {
		t.Errorf("expected 40, got %d", res.Score)
	}
}

func TestComputeResult_UnansweredExcludedFromTotals(t *testing.T) {
	tmpl := twoSectionTemplate()
	a := evaluation.Answers{}
	answer(a, tmpl.Type, 0, "si", "no")

	res := scoring.ComputeResult(a, tmpl)

	if res.TotalAnswers != 2 {
		t.Errorf("expected 2 answered, got %d", res.TotalAnswers)
	}
	if res.Sections[0].Percentage != 50 {
		t.Errorf("expected 50%%, got %v", res.Sections[0].Percentage)
	}
}

func TestComputeResult_IgnoresForeignKeys(t *testing.T) {
	tmpl := twoSectionTemplate()
	a := evaluation.Answers{
		{Type: evaluation.TypeEquipo, Section: 0, Question: 0}:   "si",
		{Type: evaluation.TypePersonal, Section: 7, Question: 0}: "si",
		{Type: evaluation.TypePersonal, Section: 0, Question: 9}: "si",
	}

	res := scoring.ComputeResult(a, tmpl)

	if res.TotalAnswers != 0 || res.Score != 0 {
		t.Errorf("expected nothing counted, got %d answers score %d", res.TotalAnswers, res.Score)
	}
	if len(res.Answers) != 3 {
		t.Errorf("expected answers echoed unmodified, got %d", len(res.Answers))
	}
}

func TestComputeResult_ClampsOverweightedTemplates(t *testing.T) {
	tmpl := evaluation.Evaluation{
		Title: "t",
		Type:  evaluation.TypeOperacion,
		Sections: []evaluation.Section{
			{Name: "a", Weight: 100, Questions: yesNo("1")},
			{Name: "b", Weight: 100, Questions: yesNo("2")},
		},
	}
	a := evaluation.Answers{}
	answer(a, tmpl.Type, 0, "si")
	answer(a, tmpl.Type, 1, "si")

	if got := scoring.ComputeResult(a, tmpl).Score; got != 100 {
		t.Errorf("expected clamp to 100, got %d", got)
	}
}

func TestComputeResult_Monotonic(t *testing.T) {
	tmpl := twoSectionTemplate()
	a := evaluation.Answers{}
	answer(a, tmpl.Type, 0, "no", "no", "si", "no", "si")
	answer(a, tmpl.Type, 1, "no", "si", "no", "no", "no")

	before := scoring.ComputeResult(a, tmpl).Score
	for _, k := range a.Keys() {
		if a[k] != "no" {
			continue
		}
		next := a.Clone()
		next[k] = "si"
		after := scoring.ComputeResult(next, tmpl).Score
		if after < before {
			t.Fatalf("flipping %v decreased score %d -> %d", k, before, after)
		}
	}
}

func TestComputeResult_SubsectionsFlattened(t *testing.T) {
	tmpl := evaluation.Evaluation{
		Title: "Equipo",
		Type:  evaluation.TypeEquipo,
		Sections: []evaluation.Section{{
			Name:   "Planta",
			Weight: 100,
			Subsections: []evaluation.Subsection{
				{Name: "Mezcladora", Questions: yesNo("m1", "m2")},
				{Name: "Banda", Questions: yesNo("b1", "b2")},
			},
		}},
	}
	a := evaluation.Answers{}
	answer(a, tmpl.Type, 0, "si", "si", "si", "no")

	res := scoring.ComputeResult(a, tmpl)
	subs := res.Sections[0].Subsections
	if len(subs) != 2 {
		t.Fatalf("expected 2 subsection summaries, got %d", len(subs))
	}
	if subs[0].Percentage != 100 || subs[1].Percentage != 50 {
		t.Errorf("unexpected subsection percentages: %+v", subs)
	}
	if res.Score != 75 {
		t.Errorf("expected 75, got %d", res.Score)
	}
}

func TestComputeResult_CaptureQuestionsNotScored(t *testing.T) {
	tmpl := evaluation.Evaluation{
		Title: "Operación",
		Type:  evaluation.TypeOperacion,
		Sections: []evaluation.Section{{
			Name:   "Parámetros",
			Weight: 100,
			Questions: []evaluation.Question{
				{ID: "p1", Prompt: "Revenimiento (cm)", Kind: evaluation.KindNumeric},
				{ID: "p2", Prompt: "Observaciones", Kind: evaluation.KindText},
				{ID: "p3", Prompt: "¿Báscula calibrada?"},
			},
		}},
	}
	a := evaluation.Answers{}
	answer(a, tmpl.Type, 0, "10", "sin novedad", "si")

	res := scoring.ComputeResult(a, tmpl)
	if res.TotalAnswers != 1 || res.CorrectAnswers != 1 || res.Score != 100 {
		t.Errorf("expected only the binary question scored, got %+v", res)
	}
}

func TestComputeSection(t *testing.T) {
	tmpl := twoSectionTemplate()
	a := evaluation.Answers{}
	answer(a, tmpl.Type, 1, "si", "no", "no", "no")

	sum, err := scoring.ComputeSection(a, tmpl, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sum.Correct != 1 || sum.Total != 4 || sum.Percentage != 25 {
		t.Errorf("unexpected summary %+v", sum)
	}
	if _, err := scoring.ComputeSection(a, tmpl, 2); err == nil {
		t.Error("expected error for out-of-range section")
	}
}

func TestPercentage_ZeroTotal(t *testing.T) {
	if got := scoring.Percentage(0, 0); got != 0 {
		t.Errorf("expected 0, got %v", got)
	}
}

func TestCaseInsensitiveGrader(t *testing.T) {
	tmpl := twoSectionTemplate()
	a := evaluation.Answers{}
	answer(a, tmpl.Type, 0, "SI", " si ")

	strict := scoring.ComputeResult(a, tmpl)
	loose := scoring.NewAggregator(scoring.NewDefaultGrader(scoring.WithCaseInsensitive(true))).ComputeResult(a, tmpl)

	if strict.CorrectAnswers != 0 {
		t.Errorf("expected strict grader to reject variants, got %d", strict.CorrectAnswers)
	}
	if loose.CorrectAnswers != 2 {
		t.Errorf("expected folded grader to accept variants, got %d", loose.CorrectAnswers)
	}
}

func TestBandFor(t *testing.T) {
	cases := []struct {
		score int
		want  scoring.Band
	}{
		{100, scoring.BandExcellent},
		{80, scoring.BandExcellent},
		{79, scoring.BandGood},
		{60, scoring.BandGood},
		{40, scoring.BandFair},
		{39, scoring.BandPoor},
		{0, scoring.BandPoor},
	}
	for _, c := range cases {
		if got := scoring.BandFor(c.score); got != c.want {
			t.Errorf("BandFor(%d) = %s, want %s", c.score, got, c.want)
		}
	}
}
