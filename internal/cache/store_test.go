package cache_test

import (
	"context"
	"errors"
	"testing"

	"github.com/mind-engage/plant-eval/internal/cache"
	"github.com/mind-engage/plant-eval/internal/evaluation"
)

type memCache struct {
	items   map[evaluation.Type]evaluation.Evaluation
	failGet bool
	sets    int
}

func (m *memCache) Get(_ context.Context, t evaluation.Type) (evaluation.Evaluation, error) {
	if m.failGet {
		return evaluation.Evaluation{}, errors.New("connection refused")
	}
	e, ok := m.items[t]
	if !ok {
		return evaluation.Evaluation{}, cache.ErrMiss
	}
	return e, nil
}

func (m *memCache) Set(_ context.Context, e evaluation.Evaluation) error {
	m.sets++
	m.items[e.Type] = e
	return nil
}

func (m *memCache) Delete(_ context.Context, t evaluation.Type) error {
	delete(m.items, t)
	return nil
}

// only the template methods are exercised; the embedded nil interface
// panics if anything else is reached.
type templateSource struct {
	evaluation.Store
	templates map[evaluation.Type]evaluation.Evaluation
	reads     int
}

func (s *templateSource) Template(_ context.Context, t evaluation.Type) (evaluation.Evaluation, error) {
	s.reads++
	e, ok := s.templates[t]
	if !ok {
		return evaluation.Evaluation{}, evaluation.ErrNotFound
	}
	return e, nil
}

func (s *templateSource) PutTemplate(_ context.Context, e evaluation.Evaluation) error {
	s.templates[e.Type] = e
	return nil
}

func TestStore_ReadThrough(t *testing.T) {
	src := &templateSource{templates: map[evaluation.Type]evaluation.Evaluation{
		evaluation.TypeEquipo: {Title: "Equipo", Type: evaluation.TypeEquipo},
	}}
	mc := &memCache{items: map[evaluation.Type]evaluation.Evaluation{}}
	s := cache.NewStore(src, mc, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		e, err := s.Template(ctx, evaluation.TypeEquipo)
		if err != nil || e.Title != "Equipo" {
			t.Fatalf("read %d: %+v %v", i, e, err)
		}
	}
	if src.reads != 1 || mc.sets != 1 {
		t.Fatalf("expected one source read and one cache fill, got reads=%d sets=%d", src.reads, mc.sets)
	}

	if _, err := s.Template(ctx, evaluation.TypeOperacion); !errors.Is(err, evaluation.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_PutInvalidates(t *testing.T) {
	src := &templateSource{templates: map[evaluation.Type]evaluation.Evaluation{}}
	mc := &memCache{items: map[evaluation.Type]evaluation.Evaluation{
		evaluation.TypePersonal: {Title: "viejo", Type: evaluation.TypePersonal},
	}}
	s := cache.NewStore(src, mc, nil)
	ctx := context.Background()

	if err := s.PutTemplate(ctx, evaluation.Evaluation{Title: "nuevo", Type: evaluation.TypePersonal}); err != nil {
		t.Fatal(err)
	}
	e, err := s.Template(ctx, evaluation.TypePersonal)
	if err != nil || e.Title != "nuevo" {
		t.Fatalf("expected fresh template, got %+v %v", e, err)
	}
}

func TestStore_CacheFailureFallsBack(t *testing.T) {
	src := &templateSource{templates: map[evaluation.Type]evaluation.Evaluation{
		evaluation.TypeEquipo: {Title: "Equipo", Type: evaluation.TypeEquipo},
	}}
	s := cache.NewStore(src, &memCache{items: map[evaluation.Type]evaluation.Evaluation{}, failGet: true}, nil)
	if _, err := s.Template(context.Background(), evaluation.TypeEquipo); err != nil {
		t.Fatalf("cache outage must not fail reads: %v", err)
	}
}
