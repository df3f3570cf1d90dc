package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/mind-engage/plant-eval/internal/evaluation"
)

const maxBody = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody)).Decode(v)
}

// fail maps the error taxonomy onto status codes. Anything unrecognised is
// logged and reported as a bare 500.
func fail(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, evaluation.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, evaluation.ErrAuth):
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	case errors.Is(err, evaluation.ErrAccessDenied):
		http.Error(w, "forbidden", http.StatusForbidden)
	case errors.Is(err, evaluation.ErrExamBlocked):
		http.Error(w, "exams blocked", http.StatusLocked)
	default:
		logger.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
