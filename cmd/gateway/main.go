package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/mind-engage/plant-eval/internal/access"
	api "github.com/mind-engage/plant-eval/internal/api/http"
	auth "github.com/mind-engage/plant-eval/internal/auth/middleware"
	"github.com/mind-engage/plant-eval/internal/cache"
	"github.com/mind-engage/plant-eval/internal/config"
	"github.com/mind-engage/plant-eval/internal/db"
	"github.com/mind-engage/plant-eval/internal/evaluation"
	"github.com/mind-engage/plant-eval/internal/rbac"
	syncx "github.com/mind-engage/plant-eval/internal/sync"
)

func main() {
	seed := flag.Bool("seed", false, "create demo company, users and templates")
	envFile := flag.String("env", "", "optional .env file")
	flag.Parse()

	var cfg config.Config
	if *envFile != "" {
		cfg = config.Load(*envFile)
	} else {
		cfg = config.Load()
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		logger.Error("db open failed", "driver", cfg.DBDriver, "err", err)
		os.Exit(1)
	}
	defer dbh.Close()

	events := syncx.NewEventRepo(dbh, db.Driver(cfg.DBDriver), cfg.SiteID)
	sqlStore := evaluation.NewSQLStore(dbh, db.Driver(cfg.DBDriver), events)
	var store evaluation.Store = sqlStore

	// --- optional template cache ---
	if cfg.RedisAddr != "" {
		rdb, err := cache.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			logger.Warn("redis unavailable, template cache disabled", "addr", cfg.RedisAddr, "err", err)
		} else {
			defer rdb.Close()
			store = cache.NewStore(sqlStore, cache.NewRedisTemplateCache(rdb, cfg.TemplateTTL), logger)
			logger.Info("template cache enabled", "addr", cfg.RedisAddr, "ttl", cfg.TemplateTTL)
		}
	}

	if *seed {
		if err := seedDemo(ctx, store, logger); err != nil {
			logger.Error("seed failed", "err", err)
			os.Exit(1)
		}
	}

	authSvc := auth.NewAuthService(cfg.AuthSecret)
	gate := &access.Gate{
		Blocks:      store,
		Permissions: store,
		Roles:       rbac.NewChecker(nil),
		Logger:      logger,
	}

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, api.RequestLogger(logger), middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins(),
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	api.Mount(r, api.Deps{
		Store:       store,
		Events:      events,
		Auth:        authSvc,
		Gate:        gate,
		Logger:      logger,
		RolesFromDB: cfg.RolesFromDB,
	})
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := dbh.PingContext(r.Context()); err != nil {
			http.Error(w, "db unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		sctx, scancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer scancel()
		logger.Info("shutting down")
		if err := srv.Shutdown(sctx); err != nil {
			logger.Error("shutdown", "err", err)
		}
	}()

	logger.Info("listening", "addr", cfg.HTTPAddr, "mode", cfg.Mode, "db", cfg.DBDriver)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server failed", "err", err)
		os.Exit(1)
	}
}
