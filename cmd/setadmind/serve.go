package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"seta-admin-backend/internal/api"
	"seta-admin-backend/internal/broadcast"
	"seta-admin-backend/internal/db"
	"seta-admin-backend/internal/notification"
	"seta-admin-backend/internal/registry"
	"seta-admin-backend/internal/store"
	"seta-admin-backend/internal/syncer"
	"seta-admin-backend/internal/upstream"
)

// serveCmd runs the HTTP service and the upstream sync loop.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the API server and the upstream sync loop",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	defer log.Sync()
	log.Infow("configuration loaded", "path", configPath, "views", len(cfg.Views))

	views, err := cfg.ListingViews()
	if err != nil {
		return err
	}

	gormDB, err := db.Init(&cfg.Database, log)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	appStore := store.NewGormStore(gormDB)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps := api.Deps{
		Views: views,
		Store: appStore,
		Log:   log,
	}

	var notifier syncer.Notifier
	if cfg.Push.Enabled() {
		webpushOptions := &webpush.Options{
			VAPIDPublicKey:  cfg.Push.PublicKey,
			VAPIDPrivateKey: cfg.Push.PrivateKey,
			Subscriber:      cfg.Push.Subject,
			TTL:             cfg.Push.TTL,
		}
		pool := notification.NewWorkerPool(cfg.WorkerPool.Size, appStore, webpushOptions, log)
		pool.Start(ctx)
		notifier = pool
		deps.Notifier = pool
		deps.Webpush = webpushOptions
	} else {
		log.Warn("VAPID keys are not configured, push toasts are disabled")
	}

	hub := broadcast.NewHub[registry.Event](32)
	reg := registry.New(hub)
	client := upstream.NewClient(&cfg.Upstream, log)
	syncSvc := syncer.NewService(cfg.Upstream, views, client, reg, appStore, notifier, log)
	go syncSvc.Run(ctx)

	deps.Registry = reg
	deps.Hub = hub
	deps.Refresher = syncSvc
	deps.Upstream = client

	if !cfg.Log.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           api.NewRouter(ctx, cfg.Server, deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Infow("HTTP server starting", "port", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("HTTP server ListenAndServe: %w", err)
	case <-ctx.Done():
	}
	log.Info("shutdown signal received, stopping services")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTP server Shutdown: %w", err)
	}
	log.Info("server gracefully stopped")
	return nil
}
