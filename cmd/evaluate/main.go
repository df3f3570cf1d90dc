package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mind-engage/plant-eval/internal/access"
	"github.com/mind-engage/plant-eval/internal/apiclient"
	"github.com/mind-engage/plant-eval/internal/config"
	"github.com/mind-engage/plant-eval/internal/navigator"
	"github.com/mind-engage/plant-eval/internal/results"
	"github.com/mind-engage/plant-eval/internal/storage"
)

func main() {
	cfg := config.Load()
	apiURL := flag.String("api", cfg.APIBaseURL, "evaluation API base URL")
	reportDir := flag.String("reports", cfg.ReportDir, "directory for exported reports")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	blobs, err := storage.NewFSStore(*reportDir)
	if err != nil {
		logger.Error("report directory", "dir", *reportDir, "err", err)
		os.Exit(1)
	}

	client := apiclient.New(apiclient.Config{BaseURL: *apiURL, Timeout: cfg.APITimeout})
	gate := &access.Gate{
		Blocks:               client,
		Permissions:          client,
		Logger:               logger,
		FailOpenOnBlockError: cfg.BlockCheckFailOpen,
	}
	nav := navigator.New(client, gate, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := newApp(nav, &results.Exporter{Blobs: blobs}, os.Stdin, os.Stdout)
	if err := a.run(ctx); err != nil && ctx.Err() == nil {
		logger.Error("client stopped", "err", err)
		os.Exit(1)
	}
	nav.Logout()
}
