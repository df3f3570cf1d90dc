package evaluation

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// AnswerKey addresses one question inside one evaluation type.
type AnswerKey struct {
	Type     Type
	Section  int
	Question int
}

// String renders the wire form "<type>-<section>-<question>".
func (k AnswerKey) String() string {
	return fmt.Sprintf("%s-%d-%d", k.Type, k.Section, k.Question)
}

// ParseAnswerKey reads the wire form. The type may itself contain
// underscores but never dashes.
func ParseAnswerKey(s string) (AnswerKey, error) {
	parts := strings.Split(s, "-")
	if len(parts) != 3 {
		return AnswerKey{}, fmt.Errorf("malformed answer key %q", s)
	}
	t, err := ParseType(parts[0])
	if err != nil {
		return AnswerKey{}, fmt.Errorf("answer key %q: %w", s, err)
	}
	sec, err := strconv.Atoi(parts[1])
	if err != nil || sec < 0 {
		return AnswerKey{}, fmt.Errorf("answer key %q: bad section index", s)
	}
	q, err := strconv.Atoi(parts[2])
	if err != nil || q < 0 {
		return AnswerKey{}, fmt.Errorf("answer key %q: bad question index", s)
	}
	return AnswerKey{Type: t, Section: sec, Question: q}, nil
}

// Answers maps a question position to the recorded response.
type Answers map[AnswerKey]string

func (a Answers) Clone() Answers {
	out := make(Answers, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// Keys returns the keys ordered by type, section and question.
func (a Answers) Keys() []AnswerKey {
	keys := make([]AnswerKey, 0, len(a))
	for k := range a {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Type != keys[j].Type {
			return keys[i].Type < keys[j].Type
		}
		if keys[i].Section != keys[j].Section {
			return keys[i].Section < keys[j].Section
		}
		return keys[i].Question < keys[j].Question
	})
	return keys
}

func (a Answers) MarshalJSON() ([]byte, error) {
	m := make(map[string]string, len(a))
	for k, v := range a {
		m[k.String()] = v
	}
	return json.Marshal(m)
}

func (a *Answers) UnmarshalJSON(b []byte) error {
	var m map[string]string
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	out := make(Answers, len(m))
	for s, v := range m {
		k, err := ParseAnswerKey(s)
		if err != nil {
			return err
		}
		out[k] = v
	}
	*a = out
	return nil
}
