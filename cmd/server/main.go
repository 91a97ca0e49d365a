package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/navdoc/internal/api"
	"github.com/dgallion1/navdoc/internal/config"
	"github.com/dgallion1/navdoc/internal/pipeline"
	"github.com/dgallion1/navdoc/internal/source"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	src, err := source.New(cfg.Site, cfg.SiteToken, source.WithTimeout(cfg.HTTPTimeout))
	if err != nil {
		log.Error("open site", "site", cfg.Site, "error", err)
		os.Exit(1)
	}

	// Initialize pipeline and queue the first load.
	orch := pipeline.NewOrchestrator(cfg, src, log.With("site", cfg.Site))
	orch.Start(ctx)
	if _, err := orch.Reload("startup"); err != nil {
		log.Error("queue initial load", "error", err)
	}

	srv := api.NewServer(orch, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		orch.Stop()

		if c, ok := src.(interface{ Close() }); ok {
			c.Close()
		}
	}()

	log.Info("starting navdoc", "port", cfg.Port, "site", cfg.Site)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
