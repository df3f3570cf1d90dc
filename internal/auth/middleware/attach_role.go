package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/mind-engage/plant-eval/internal/evaluation"
	"github.com/mind-engage/plant-eval/internal/rbac"
)

type RoleSource interface {
	UserRole(ctx context.Context, userID string) (string, error)
}

// AttachRoleFromDB replaces the role claim with the stored role so that role
// changes apply before the token expires. With allowClaimFallback a lookup
// error keeps the claim; otherwise the request is refused.
func AttachRoleFromDB(src RoleSource, allowClaimFallback bool, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			sub := rbac.SubjectFromContext(ctx)

			role, err := src.UserRole(ctx, sub)
			switch {
			case err == nil && role != "":
				next.ServeHTTP(w, r.WithContext(rbac.WithRole(ctx, role)))
			case errors.Is(err, evaluation.ErrNotFound):
				// account deleted after the token was issued
				http.Error(w, "forbidden", http.StatusForbidden)
			case allowClaimFallback && rbac.RoleFromContext(ctx) != "":
				logger.WarnContext(ctx, "role lookup failed, using token claim", "sub", sub, "err", err)
				next.ServeHTTP(w, r)
			default:
				logger.ErrorContext(ctx, "role lookup failed", "sub", sub, "err", err)
				http.Error(w, "forbidden", http.StatusForbidden)
			}
		})
	}
}
