package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/plant-eval/internal/access"
	"github.com/mind-engage/plant-eval/internal/evaluation"
	"github.com/mind-engage/plant-eval/internal/rbac"
)

// GET /api/evaluations/{type}
// The same gate the client runs is applied here, so a blocked or unpermitted
// user cannot fetch the template directly.
func GetEvaluationHandler(store evaluation.Store, gate *access.Gate, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, err := evaluation.ParseType(chi.URLParam(r, "type"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if gate != nil {
			user := evaluation.User{
				ID:   rbac.SubjectFromContext(r.Context()),
				Role: rbac.RoleFromContext(r.Context()),
			}
			d, err := gate.CheckAccess(r.Context(), user, t)
			if err != nil {
				fail(w, r, logger, err)
				return
			}
			if !d.Allowed {
				fail(w, r, logger, d.Err())
				return
			}
		}
		e, err := store.Template(r.Context(), t)
		if err != nil {
			fail(w, r, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, e)
	}
}

// PUT /api/evaluations/{type}  Evaluation template
func PutEvaluationHandler(store evaluation.Store, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, err := evaluation.ParseType(chi.URLParam(r, "type"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		var e evaluation.Evaluation
		if err := decodeJSON(w, r, &e); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if e.Type == "" {
			e.Type = t
		}
		if e.Type != t {
			http.Error(w, "tipo does not match path", http.StatusBadRequest)
			return
		}
		if err := evaluation.ValidateTemplate(&e); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := store.PutTemplate(r.Context(), e); err != nil {
			fail(w, r, logger, err)
			return
		}
		logger.InfoContext(r.Context(), "template saved", "type", t, "questions", e.QuestionCount())
		w.WriteHeader(http.StatusNoContent)
	}
}
