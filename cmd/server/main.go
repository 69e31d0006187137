package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mcoot/charsheets/internal/api"
	"github.com/mcoot/charsheets/internal/config"
	"github.com/mcoot/charsheets/internal/factory"
	"github.com/mcoot/charsheets/internal/middleware"
	"github.com/mcoot/charsheets/internal/storage/portrait"
	"github.com/mcoot/charsheets/internal/web"
)

// revocationSweepInterval is how often logged-out tokens past expiry are forgotten
const revocationSweepInterval = 10 * time.Minute

func main() {
	// Load settings from .env and the environment
	cfg, err := config.Load(".env")
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}
	level, _ := cfg.SlogLevel()

	// Set up logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	portraits, err := factory.NewPortraitStore(ctx, cfg)
	if err != nil {
		logger.Error("failed to create portrait store", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Create application factory
	app, err := factory.New(ctx, factory.FromConfig(cfg, portraits, logger))
	if err != nil {
		logger.Error("failed to create application", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() { _ = app.Close() }()

	metrics := middleware.NewMetrics()

	// Create API router
	apiRouter := api.NewRouter(api.RouterConfig{
		Logger:       logger,
		AuthService:  app.AuthService,
		SheetService: app.SheetService,
		Metrics:      metrics,
	})

	// Create web router; disk portraits are served by the app itself
	webCfg := web.RouterConfig{
		Logger:       logger,
		AuthService:  app.AuthService,
		SheetService: app.SheetService,
		Metrics:      metrics,
	}
	if disk, ok := portraits.(*portrait.DiskStore); ok {
		webCfg.UploadDir = disk.Dir()
	}
	webRouter := web.NewRouter(webCfg)

	// Combine routers
	mux := http.NewServeMux()
	mux.Handle(api.PathPrefix+"/", apiRouter)
	mux.Handle("/metrics", metrics.Handler())
	mux.Handle("/", webRouter)

	// Create server
	server := api.NewServer(mux, api.ServerConfigFrom(cfg), logger)

	// Handle graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		logger.Info("shutdown signal received")
		cancel()
	}()

	go sweepRevokedSessions(ctx, app)

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	logger.Info("server started",
		slog.String("addr", server.Addr()),
		slog.String("storage", cfg.StorageType),
		slog.String("uploads", cfg.UploadBackend),
	)

	// Wait for shutdown or error
	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	case <-ctx.Done():
		if err := server.Shutdown(context.Background()); err != nil {
			logger.Error("shutdown error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	logger.Info("server stopped")
}

func sweepRevokedSessions(ctx context.Context, app *factory.App) {
	ticker := time.NewTicker(revocationSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			app.AuthService.CleanExpiredSessions()
		}
	}
}
