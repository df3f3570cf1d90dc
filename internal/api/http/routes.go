package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/plant-eval/internal/access"
	auth "github.com/mind-engage/plant-eval/internal/auth/middleware"
	"github.com/mind-engage/plant-eval/internal/evaluation"
	"github.com/mind-engage/plant-eval/internal/rbac"
	syncx "github.com/mind-engage/plant-eval/internal/sync"
)

type Deps struct {
	Store  evaluation.Store
	Events *syncx.EventRepo // optional; /api/events is not mounted without it
	Auth   *auth.AuthService
	Gate   *access.Gate
	Logger *slog.Logger

	// RolesFromDB re-reads the caller's role on every request.
	RolesFromDB bool
}

// Mount registers the evaluation API under /api.
func Mount(r chi.Router, d Deps) {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	gate := d.Gate
	if gate == nil {
		gate = &access.Gate{Blocks: d.Store, Permissions: d.Store, Logger: logger}
	}
	store := d.Store

	r.Route("/api", func(api chi.Router) {
		api.Post("/login", auth.LoginHandler(d.Auth, store, logger))

		api.Group(func(pr chi.Router) {
			pr.Use(auth.JWTMiddleware(d.Auth))
			if d.RolesFromDB {
				pr.Use(auth.AttachRoleFromDB(store, false, logger))
			}

			pr.With(rbac.Require("users:create")).
				Post("/users", CreateUsersHandler(store, logger))

			pr.Route("/users/{userID}", func(ur chi.Router) {
				ur.With(rbac.RequireOwnerOr("block:view-all", isSelf)).
					Get("/exam-block", GetBlockHandler(store, logger))
				ur.With(rbac.Require("block:manage")).
					Put("/exam-block", SetBlockHandler(store, logger))
				ur.With(rbac.Require("block:manage")).
					Delete("/exam-block", ClearBlockHandler(store, logger))

				ur.With(rbac.RequireOwnerOr("permission:view-all", isSelf)).
					Get("/permissions/{type}", GetPermissionHandler(store, logger))
				ur.With(rbac.Require("permission:manage")).
					Put("/permissions/{type}", SetPermissionHandler(store, logger))
			})

			pr.With(rbac.Require("evaluation:view")).
				Get("/evaluations/{type}", GetEvaluationHandler(store, gate, logger))
			pr.With(rbac.Require("evaluation:manage")).
				Put("/evaluations/{type}", PutEvaluationHandler(store, logger))

			pr.With(rbac.Require("result:create")).
				Post("/results", CreateResultHandler(store, gate, logger))
			pr.Get("/results", ListResultsHandler(store, logger))

			pr.With(rbac.Require("companies:list")).
				Get("/companies", ListCompaniesHandler(store, logger))
			pr.With(rbac.Require("companies:manage")).
				Post("/companies", CreateCompanyHandler(store, logger))

			if d.Events != nil {
				pr.With(rbac.Require("events:view")).
					Get("/events", ListEventsHandler(d.Events, logger))
			}
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
}
