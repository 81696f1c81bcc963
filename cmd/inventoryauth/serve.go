// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 InventoryApp Contributors

package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/inventoryapp/inventoryauth/internal/auth"
	"github.com/inventoryapp/inventoryauth/internal/auth/postgres"
	"github.com/inventoryapp/inventoryauth/internal/config"
	"github.com/inventoryapp/inventoryauth/internal/httpapi"
)

// serveConfig holds flags of the serve command that are not configuration
// keys.
type serveConfig struct {
	migrate bool
}

func newServeCmd(deps *Deps) *cobra.Command {
	cfg := &serveConfig{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the authentication API",
		Long: `Start the HTTP API serving /auth, the expired token janitor and the
metrics and health listener. Runs until SIGINT or SIGTERM.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			appCfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := appCfg.Validate(); err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cmd, appCfg, cfg, deps)
		},
	}

	cmd.Flags().BoolVar(&cfg.migrate, "migrate", false, "apply pending migrations before serving")

	return cmd
}

// runServe wires the service over a validated configuration and blocks
// until ctx is cancelled or a server fails.
func runServe(ctx context.Context, cmd *cobra.Command, cfg *config.Config, opts *serveConfig, deps *Deps) error {
	logger, err := setupLogging(cfg)
	if err != nil {
		return err
	}
	gin.SetMode(gin.ReleaseMode)

	logger.Info("starting inventoryauth",
		"version", version,
		"http_addr", cfg.HTTP.Addr,
		"metrics_addr", cfg.Metrics.Addr,
		"janitor", cfg.Janitor.Enabled,
	)

	if opts.migrate {
		if err := applyMigrations(cmd, deps, cfg.Database.URL); err != nil {
			return err
		}
	}

	db, err := deps.ConnectDB(ctx, cfg.Database.URL, cfg.Database.ConnectTimeout)
	if err != nil {
		return oops.Code("DB_CONNECT_FAILED").With("operation", "connect to database").Wrap(err)
	}
	defer db.Close()

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	var (
		recorder auth.Recorder
		requests httpapi.RequestRecorder
		registry prometheus.Registerer
		obs      ObservabilityServer
	)
	if cfg.Metrics.Addr != "" {
		obs = deps.NewObservabilityServer(cfg.Metrics.Addr, db.Ping)
		if m := obs.Metrics(); m != nil {
			recorder = m
			requests = m
		}
		registry = obs.Registerer()
	}

	issuer, err := auth.NewTokenIssuer(cfg.IssuerConfig(), time.Now)
	if err != nil {
		return err
	}
	tokens := postgres.NewTokenRepository(db)
	tx := postgres.NewTransactor(db)
	svc, err := auth.NewService(auth.ServiceConfig{
		Credentials: postgres.NewCredentialRepository(db),
		Tokens:      tokens,
		Directory:   postgres.NewDirectoryRepository(db),
		Notifier:    postgres.NewNotificationRepository(db),
		Transactor:  tx,
		Hasher:      deps.Hasher,
		Issuer:      issuer,
		Recorder:    recorder,
		Logger:      logger,
	})
	if err != nil {
		return err
	}

	var limiter *httpapi.RateLimiter
	if cfg.HTTP.RateLimit > 0 {
		limiter = httpapi.NewRateLimiter(httpapi.RateLimiterConfig{
			Burst:      cfg.HTTP.RateBurst,
			Rate:       cfg.HTTP.RateLimit,
			Registerer: registry,
		})
		defer limiter.Close()
	}

	router := httpapi.NewRouter(httpapi.RouterConfig{
		Service: svc,
		Logger:  logger,
		Metrics: requests,
		Limiter: limiter,
	})
	httpSrv := deps.NewHTTPServer(httpapi.ServerConfig{
		Addr:         cfg.HTTP.Addr,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}, router)
	httpErrCh, err := httpSrv.Start()
	if err != nil {
		return err
	}
	go monitorServerErrors(ctx, cancel, httpErrCh, "http")

	shutdownTimeout := cfg.HTTP.ShutdownTimeout
	stopHTTP := func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		if err := httpSrv.Stop(shutdownCtx); err != nil {
			logger.Warn("error stopping http server", "error", err)
		}
	}

	if obs != nil {
		obsErrCh, err := obs.Start()
		if err != nil {
			stopHTTP()
			return oops.Code("OBSERVABILITY_START_FAILED").Wrap(err)
		}
		go monitorServerErrors(ctx, cancel, obsErrCh, "observability")
		logger.Info("observability server started", "addr", obs.Addr())
	}

	var janitor *auth.Janitor
	if cfg.Janitor.Enabled {
		jcfg := cfg.JanitorConfig()
		jcfg.Logger = logger
		janitor = auth.NewJanitor(jcfg, tokens, tx, recorder)
		janitor.Start(ctx)
	}

	cmd.Println("inventoryauth listening on " + httpSrv.Addr())
	logger.Info("inventoryauth ready", "http_addr", httpSrv.Addr())

	<-ctx.Done()
	cause := context.Cause(ctx)
	if errors.Is(cause, context.Canceled) {
		logger.Info("shutting down")
		cause = nil
	}

	stopHTTP()
	if janitor != nil {
		janitor.Stop()
	}
	if obs != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		if err := obs.Stop(shutdownCtx); err != nil {
			logger.Warn("error stopping observability server", "error", err)
		}
	}

	slog.Info("shutdown complete")
	return cause
}

// monitorServerErrors cancels ctx with the first error a server reports.
// It exits when the channel closes or ctx ends.
func monitorServerErrors(ctx context.Context, cancel context.CancelCauseFunc, errCh <-chan error, serverName string) {
	select {
	case err, ok := <-errCh:
		if !ok || err == nil {
			return
		}
		slog.Error("server error, triggering shutdown",
			"server", serverName,
			"error", err,
		)
		cancel(oops.Code("SERVER_FAILED").With("server", serverName).Wrap(err))
	case <-ctx.Done():
	}
}
