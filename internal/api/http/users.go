package http

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/plant-eval/internal/evaluation"
	"github.com/mind-engage/plant-eval/internal/rbac"
)

type userRow struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Password  string `json:"password"`
	FullName  string `json:"nombre_completo"`
	Role      string `json:"rol"` // usually "evaluador"
	CompanyID string `json:"empresa_id"`
}

// POST /api/users  JSON array, or multipart file= with a CSV/JSON payload.
func CreateUsersHandler(store evaluation.Store, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var rows []userRow
		if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
			f, _, err := r.FormFile("file")
			if err != nil {
				http.Error(w, "file required", http.StatusBadRequest)
				return
			}
			defer f.Close()
			// sniff CSV vs JSON by the first byte
			buf := make([]byte, 1)
			if _, err := f.Read(buf); err != nil {
				http.Error(w, "empty file", http.StatusBadRequest)
				return
			}
			if _, err := f.Seek(0, io.SeekStart); err != nil {
				http.Error(w, "unreadable file", http.StatusBadRequest)
				return
			}
			if buf[0] == '[' {
				err = json.NewDecoder(f).Decode(&rows)
			} else {
				rows, err = parseCSV(f)
			}
			if err != nil {
				http.Error(w, "bad file: "+err.Error(), http.StatusBadRequest)
				return
			}
		} else if err := decodeJSON(w, r, &rows); err != nil {
			http.Error(w, "expected JSON array or multipart file", http.StatusBadRequest)
			return
		}

		created := []evaluation.User{}
		for _, row := range rows {
			if row.Role == "" {
				row.Role = rbac.RoleEvaluator
			}
			if _, ok := rbac.RolePermissions[row.Role]; !ok {
				writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid role: " + row.Role, "created": created})
				return
			}
			u, err := store.CreateUser(r.Context(), evaluation.NewUser{
				ID: row.ID, Username: row.Username, Password: row.Password,
				FullName: row.FullName, Role: row.Role, CompanyID: row.CompanyID,
			})
			if err != nil {
				logger.WarnContext(r.Context(), "create user failed", "username", row.Username, "err", err)
				writeJSON(w, http.StatusBadRequest, map[string]any{"error": "cannot create user: " + row.Username, "created": created})
				return
			}
			created = append(created, u)
		}
		writeJSON(w, http.StatusCreated, map[string]any{"created": created})
	}
}

func parseCSV(r io.Reader) ([]userRow, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	hdr, err := cr.Read()
	if err != nil {
		return nil, err
	}
	idx := map[string]int{}
	for i, h := range hdr {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, k := range []string{"username", "password", "nombre_completo"} {
		if _, ok := idx[k]; !ok {
			return nil, errors.New("missing column: " + k)
		}
	}
	col := func(rec []string, name string) string {
		if i, ok := idx[name]; ok && i < len(rec) {
			return strings.TrimSpace(rec[i])
		}
		return ""
	}
	var rows []userRow
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, userRow{
			ID:        col(rec, "id"),
			Username:  col(rec, "username"),
			Password:  col(rec, "password"),
			FullName:  col(rec, "nombre_completo"),
			Role:      strings.ToLower(col(rec, "rol")),
			CompanyID: col(rec, "empresa_id"),
		})
	}
	return rows, nil
}

// isSelf matches requests about the caller's own account.
func isSelf(r *http.Request) bool {
	sub := rbac.SubjectFromContext(r.Context())
	return sub != "" && sub == chi.URLParam(r, "userID")
}

// GET /api/users/{userID}/exam-block
func GetBlockHandler(store evaluation.Store, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bs, err := store.BlockStatus(r.Context(), chi.URLParam(r, "userID"))
		if err != nil {
			fail(w, r, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, bs)
	}
}

// PUT /api/users/{userID}/exam-block  { "motivo": "..." }
func SetBlockHandler(store evaluation.Store, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Reason string `json:"motivo"`
		}
		if err := decodeJSON(w, r, &req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		userID := chi.URLParam(r, "userID")
		if err := store.SetBlock(r.Context(), userID, strings.TrimSpace(req.Reason), rbac.SubjectFromContext(r.Context())); err != nil {
			fail(w, r, logger, err)
			return
		}
		logger.InfoContext(r.Context(), "exams blocked", "user_id", userID, "by", rbac.SubjectFromContext(r.Context()))
		w.WriteHeader(http.StatusNoContent)
	}
}

// DELETE /api/users/{userID}/exam-block
func ClearBlockHandler(store evaluation.Store, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := chi.URLParam(r, "userID")
		if err := store.ClearBlock(r.Context(), userID); err != nil {
			fail(w, r, logger, err)
			return
		}
		logger.InfoContext(r.Context(), "exams unblocked", "user_id", userID, "by", rbac.SubjectFromContext(r.Context()))
		w.WriteHeader(http.StatusNoContent)
	}
}

// GET /api/users/{userID}/permissions/{type}
func GetPermissionHandler(store evaluation.Store, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, err := evaluation.ParseType(chi.URLParam(r, "type"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		ok, err := store.HasPermission(r.Context(), chi.URLParam(r, "userID"), t)
		if err != nil {
			fail(w, r, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"allowed": ok})
	}
}

// PUT /api/users/{userID}/permissions/{type}  { "allowed": true }
func SetPermissionHandler(store evaluation.Store, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, err := evaluation.ParseType(chi.URLParam(r, "type"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		var req struct {
			Allowed *bool `json:"allowed"`
		}
		if err := decodeJSON(w, r, &req); err != nil || req.Allowed == nil {
			http.Error(w, "allowed is required", http.StatusBadRequest)
			return
		}
		if err := store.SetPermission(r.Context(), chi.URLParam(r, "userID"), t, *req.Allowed); err != nil {
			fail(w, r, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"allowed": *req.Allowed})
	}
}
