package http

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/mind-engage/plant-eval/internal/access"
	"github.com/mind-engage/plant-eval/internal/evaluation"
	"github.com/mind-engage/plant-eval/internal/rbac"
	"github.com/mind-engage/plant-eval/internal/scoring"
)

var roles = rbac.NewChecker(nil)

// POST /api/results  Result payload; the owner is the token subject.
// The stored score is recomputed from the answers against the stored
// template; the client's figures are only checked for shape. A user blocked
// after starting the attempt gets 423 and nothing is stored.
func CreateResultHandler(store evaluation.Store, gate *access.Gate, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := evaluation.User{
			ID:   rbac.SubjectFromContext(r.Context()),
			Role: rbac.RoleFromContext(r.Context()),
		}
		var res evaluation.Result
		if err := decodeJSON(w, r, &res); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if err := evaluation.ValidateResult(&res); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		d, err := gate.CheckAccess(r.Context(), user, res.Type)
		if err != nil {
			fail(w, r, logger, err)
			return
		}
		if !d.Allowed {
			fail(w, r, logger, d.Err())
			return
		}
		tmpl, err := store.Template(r.Context(), res.Type)
		if err != nil {
			fail(w, r, logger, err)
			return
		}
		scored := scoring.ComputeResult(res.Answers, tmpl)
		if scored.Score != res.Score || scored.CorrectAnswers != res.CorrectAnswers || scored.TotalAnswers != res.TotalAnswers {
			logger.WarnContext(r.Context(), "client score differs from recomputed score",
				"user_id", user.ID, "type", res.Type, "client_score", res.Score, "score", scored.Score)
		}
		id, err := store.SaveResult(r.Context(), user.ID, scored)
		if err != nil {
			fail(w, r, logger, err)
			return
		}
		logger.InfoContext(r.Context(), "result saved", "id", id, "user_id", user.ID, "type", scored.Type, "score", scored.Score)
		writeJSON(w, http.StatusCreated, map[string]string{"id": id})
	}
}

// GET /api/results?user_id=...&tipo=...&limit=50&offset=0
// Callers without result:view-all only ever see their own results.
func ListResultsHandler(store evaluation.Store, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		role := rbac.RoleFromContext(r.Context())
		sub := rbac.SubjectFromContext(r.Context())

		userID := strings.TrimSpace(r.URL.Query().Get("user_id"))
		if !roles.Has(role, "result:view-all") {
			userID = sub
		}
		var t evaluation.Type
		if raw := strings.TrimSpace(r.URL.Query().Get("tipo")); raw != "" {
			parsed, err := evaluation.ParseType(raw)
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			t = parsed
		}

		list, err := store.ListResults(r.Context(), evaluation.ResultListOpts{
			UserID: userID,
			Type:   t,
			Limit:  parseIntDefault(r.URL.Query().Get("limit"), 50),
			Offset: parseIntDefault(r.URL.Query().Get("offset"), 0),
		})
		if err != nil {
			fail(w, r, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}
