package evaluation_test

import (
	"encoding/json"
	"testing"

	"github.com/mind-engage/plant-eval/internal/evaluation"
)

func TestParseAnswerKey(t *testing.T) {
	k, err := evaluation.ParseAnswerKey("jefe_planta-2-11")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := evaluation.AnswerKey{Type: evaluation.TypeJefePlanta, Section: 2, Question: 11}
	if k != want {
		t.Errorf("expected %+v, got %+v", want, k)
	}
	if k.String() != "jefe_planta-2-11" {
		t.Errorf("unexpected wire form %q", k.String())
	}
}

func TestParseAnswerKey_Malformed(t *testing.T) {
	for _, s := range []string{"", "personal", "personal-1", "personal-a-1", "personal-1--1", "otro-0-0", "personal-0-0-0"} {
		if _, err := evaluation.ParseAnswerKey(s); err == nil {
			t.Errorf("expected error for %q", s)
		}
	}
}

func TestAnswersJSON(t *testing.T) {
	a := evaluation.Answers{
		{Type: evaluation.TypePersonal, Section: 0, Question: 1}: "si",
		{Type: evaluation.TypePersonal, Section: 1, Question: 0}: "no",
	}
	b, err := json.Marshal(a)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var raw map[string]string
	if err := json.Unmarshal(b, &raw); err != nil {
		t.Fatalf("unmarshal raw: %v", err)
	}
	if raw["personal-0-1"] != "si" || raw["personal-1-0"] != "no" {
		t.Errorf("unexpected wire keys: %v", raw)
	}

	if err := json.Unmarshal([]byte(`{"bogus":"si"}`), &a); err == nil {
		t.Error("expected error for malformed key")
	}
}

func TestAnswersKeysOrdered(t *testing.T) {
	a := evaluation.Answers{
		{Type: evaluation.TypePersonal, Section: 1, Question: 0}: "si",
		{Type: evaluation.TypePersonal, Section: 0, Question: 2}: "si",
		{Type: evaluation.TypePersonal, Section: 0, Question: 1}: "si",
	}
	keys := a.Keys()
	if keys[0].Question != 1 || keys[1].Question != 2 || keys[2].Section != 1 {
		t.Errorf("unexpected order: %v", keys)
	}
}
