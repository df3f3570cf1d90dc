package http

import (
	"log/slog"
	"net/http"
	"strconv"

	syncx "github.com/mind-engage/plant-eval/internal/sync"
)

// GET /api/events?since=0&limit=100
func ListEventsHandler(repo *syncx.EventRepo, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		since, err := strconv.ParseInt(r.URL.Query().Get("since"), 10, 64)
		if err != nil {
			since = 0
		}
		evs, err := repo.Since(r.Context(), since, parseIntDefault(r.URL.Query().Get("limit"), 100))
		if err != nil {
			fail(w, r, logger, err)
			return
		}
		if evs == nil {
			evs = []syncx.Event{}
		}
		writeJSON(w, http.StatusOK, evs)
	}
}
