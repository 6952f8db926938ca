package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadapter "github.com/alizenart/closeted/internal/adapters/http"
	"github.com/alizenart/closeted/internal/bootstrap"
	"github.com/alizenart/closeted/internal/config"
	"github.com/alizenart/closeted/internal/observability/logging"
)

func main() {
	cfg := config.Load()
	logger := logging.NewJSONLogger("api", cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, "api")
	if err != nil {
		logger.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	opts := []httpadapter.RouterOption{
		httpadapter.WithMetrics(app.Metrics),
		httpadapter.WithBlobServer(app.Store),
	}
	auth, err := newAuthenticator(ctx, cfg)
	if err != nil {
		logger.Error("auth_init_failed", "error", err)
		os.Exit(1)
	}
	if auth != nil {
		opts = append(opts, httpadapter.WithAuthenticator(auth))
	} else if cfg.StaticOwnerID == "" {
		logger.Warn("no_identity_configured", "hint", "set AUTH_JWT_SECRET, AUTH_JWKS_URL or STATIC_OWNER_ID")
	}

	router := httpadapter.NewRouter(cfg, httpadapter.Services{
		Uploader:    app.Uploader,
		Closet:      app.Assembler,
		Browser:     app.Closet,
		Recommender: app.Recommender,
		Timers:      app.Timers,
		Preferences: app.Preferences,
		Stats:       app.Stats,
	}, opts...).Handler()

	server := &http.Server{
		Addr:              ":" + cfg.APIPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logger.Info("api_listening", "port", cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("api_server_failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("api_shutdown_failed", "error", err)
	}
}

func newAuthenticator(ctx context.Context, cfg config.Config) (*httpadapter.Authenticator, error) {
	switch {
	case cfg.AuthJWKSURL != "":
		return httpadapter.NewJWKSAuthenticator(ctx, cfg.AuthJWKSURL, cfg.AuthIssuer)
	case cfg.AuthJWTSecret != "":
		return httpadapter.NewHMACAuthenticator(cfg.AuthJWTSecret, cfg.AuthIssuer)
	default:
		return nil, nil
	}
}
