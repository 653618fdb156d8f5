// AgriMarket - Crop Market Ranking and Selling Advice
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agrimarket

package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/tomtom215/agrimarket/internal/advice"
	"github.com/tomtom215/agrimarket/internal/api"
	"github.com/tomtom215/agrimarket/internal/config"
	"github.com/tomtom215/agrimarket/internal/logging"
	"github.com/tomtom215/agrimarket/internal/supervisor"
	"github.com/tomtom215/agrimarket/internal/supervisor/services"
)

func main() {
	// A missing .env is normal outside local development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logging.Warn().Err(err).Msg("Failed to read .env file")
	}

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	if err := run(cfg); err != nil {
		logging.Fatal().Err(err).Msg("AgriMarket stopped with an error")
	}
}

//nolint:gocyclo // Sequential wiring of every component
func run(cfg *config.Config) error {
	logging.Info().
		Str("environment", cfg.Server.Environment).
		Str("price_source", cfg.Prices.Source).
		Str("events_backend", cfg.Events.Backend).
		Bool("audit_enabled", cfg.Audit.Enabled).
		Msg("Starting AgriMarket")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gaz, regions, err := initGeography(cfg)
	if err != nil {
		return err
	}

	priceComponents, err := initPrices(ctx, cfg, gaz)
	if err != nil {
		return err
	}
	defer priceComponents.Close()

	engine, err := initEngine(cfg, gaz, regions)
	if err != nil {
		return err
	}

	advisor, err := initAdvisor(cfg)
	if err != nil {
		return err
	}

	eventComponents, err := initEvents(cfg)
	if err != nil {
		return err
	}
	defer eventComponents.Close()

	auditComponents, err := initAudit(ctx, cfg, eventComponents.Bus)
	if err != nil {
		return err
	}
	defer auditComponents.Close()

	svc, err := advice.NewService(engine, priceComponents.Holder, advisor, eventComponents.Bus, logging.WithComponent("advice"))
	if err != nil {
		return fmt.Errorf("create advice service: %w", err)
	}

	handler, err := api.NewHandler(api.HandlerDeps{
		Service:         svc,
		Engine:          engine,
		Snapshots:       priceComponents.Holder,
		Reloader:        priceComponents.Holder,
		Audit:           auditComponents.Store,
		ExplainerOnline: advisor.Online(),
		EventsBackend:   eventComponents.Bus.Kind(),
		ReloadTimeout:   cfg.Prices.LoadTimeout,
	})
	if err != nil {
		return fmt.Errorf("create API handler: %w", err)
	}

	if cfg.Security.RateLimitDisabled {
		logging.Warn().Msg("Rate limiting is DISABLED (DISABLE_RATE_LIMIT=true)")
	}
	if cfg.Security.AdminToken == "" {
		logging.Info().Msg("Admin endpoints disabled (ADMIN_TOKEN not set)")
	}

	mwConfig := api.DefaultChiMiddlewareConfig()
	mwConfig.CORSAllowedOrigins = cfg.Security.CORSOrigins
	mwConfig.RateLimitRequests = cfg.Security.RateLimitReqs
	mwConfig.RateLimitWindow = cfg.Security.RateLimitWindow
	mwConfig.RateLimitDisabled = cfg.Security.RateLimitDisabled

	router := api.NewRouter(handler, api.NewChiMiddleware(mwConfig), cfg.Security.AdminToken)

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router.SetupChi(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      2 * cfg.Server.Timeout,
		IdleTimeout:       120 * time.Second,
	}

	// Bridges zerolog to slog for sutureslog.
	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		return fmt.Errorf("create supervisor tree: %w", err)
	}

	tree.AddDataService(priceComponents.ReloadService)
	if eventComponents.Server != nil {
		tree.AddMessagingService(services.NewEmbeddedNATSService(eventComponents.Server, cfg.Server.ShutdownTimeout))
	}
	if auditComponents.Consumer != nil {
		tree.AddMessagingService(auditComponents.Consumer)
	}
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	logging.Info().
		Str("addr", server.Addr).
		Bool("explainer_online", advisor.Online()).
		Bool("forecast_configured", engine.HasForecastProvider()).
		Msg("AgriMarket listening")

	err = tree.Serve(ctx)

	if report, reportErr := tree.UnstoppedServiceReport(); reportErr == nil && len(report) > 0 {
		for _, u := range report {
			logging.Warn().Str("service", u.Name).Msg("Service did not stop in time")
		}
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logging.Info().Msg("AgriMarket stopped")
	return nil
}
