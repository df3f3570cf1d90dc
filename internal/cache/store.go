package cache

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mind-engage/plant-eval/internal/evaluation"
)

// Store puts a TemplateCache in front of an evaluation.Store. Cache errors
// are logged and never fail the request.
type Store struct {
	evaluation.Store
	Cache  TemplateCache
	Logger *slog.Logger
}

func NewStore(inner evaluation.Store, c TemplateCache, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{Store: inner, Cache: c, Logger: logger}
}

func (s *Store) Template(ctx context.Context, t evaluation.Type) (evaluation.Evaluation, error) {
	e, err := s.Cache.Get(ctx, t)
	if err == nil {
		return e, nil
	}
	if !errors.Is(err, ErrMiss) {
		s.Logger.WarnContext(ctx, "template cache read failed", "type", t, "err", err)
	}
	e, err = s.Store.Template(ctx, t)
	if err != nil {
		return e, err
	}
	if err := s.Cache.Set(ctx, e); err != nil {
		s.Logger.WarnContext(ctx, "template cache write failed", "type", t, "err", err)
	}
	return e, nil
}

func (s *Store) PutTemplate(ctx context.Context, e evaluation.Evaluation) error {
	if err := s.Store.PutTemplate(ctx, e); err != nil {
		return err
	}
	if err := s.Cache.Delete(ctx, e.Type); err != nil {
		s.Logger.WarnContext(ctx, "template cache invalidation failed", "type", e.Type, "err", err)
	}
	return nil
}
