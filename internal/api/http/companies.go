package http

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/mind-engage/plant-eval/internal/evaluation"
)

// GET /api/companies
func ListCompaniesHandler(store evaluation.Store, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := store.CompanyStats(r.Context())
		if err != nil {
			fail(w, r, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, stats)
	}
}

// POST /api/companies  { "id": "...", "nombre": "..." }
func CreateCompanyHandler(store evaluation.Store, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID   string `json:"id"`
			Name string `json:"nombre"`
		}
		if err := decodeJSON(w, r, &req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(req.Name) == "" {
			http.Error(w, "nombre is required", http.StatusBadRequest)
			return
		}
		if err := store.CreateCompany(r.Context(), req.ID, strings.TrimSpace(req.Name)); err != nil {
			fail(w, r, logger, err)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}
}
