// AgriMarket - Crop Market Ranking and Selling Advice
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agrimarket

package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/tomtom215/agrimarket/internal/prices"
)

// PriceReloader refreshes the published price snapshot.
// Satisfied by *prices.Holder.
type PriceReloader interface {
	Reload(ctx context.Context) (*prices.Table, error)
}

// ReloadServiceConfig holds configuration for the price reload service.
type ReloadServiceConfig struct {
	// Schedule is a cron expression or descriptor ("@every 1h", "0 5 * * *").
	// Empty disables scheduled reloads.
	Schedule string

	// LoadOnStartup loads the first snapshot as soon as the service starts.
	LoadOnStartup bool

	// Timeout bounds a single reload.
	Timeout time.Duration
}

// ReloadService keeps the price snapshot fresh under Suture supervision.
// A failed reload is logged and the previous snapshot stays published.
type ReloadService struct {
	reloader PriceReloader
	schedule cron.Schedule
	config   ReloadServiceConfig
	logger   zerolog.Logger
	name     string
}

// NewReloadService creates a reload service. The schedule is parsed here so a
// bad expression fails at startup rather than inside the supervisor.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewReloadService(reloader PriceReloader, cfg ReloadServiceConfig, logger zerolog.Logger) (*ReloadService, error) {
	if reloader == nil {
		return nil, errors.New("price reloader is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Minute
	}

	var sched cron.Schedule
	if cfg.Schedule != "" {
		s, err := cron.ParseStandard(cfg.Schedule)
		if err != nil {
			return nil, fmt.Errorf("invalid reload schedule %q: %w", cfg.Schedule, err)
		}
		sched = s
	}

	return &ReloadService{
		reloader: reloader,
		schedule: sched,
		config:   cfg,
		logger:   logger.With().Str("service", "price-reload").Logger(),
		name:     "price-reload",
	}, nil
}

// Serve implements suture.Service.
func (s *ReloadService) Serve(ctx context.Context) error {
	s.logger.Info().
		Bool("load_on_startup", s.config.LoadOnStartup).
		Str("schedule", s.config.Schedule).
		Msg("price reload service starting")

	if s.config.LoadOnStartup {
		s.reload(ctx, "startup")
	}

	if s.schedule == nil {
		<-ctx.Done()
		return ctx.Err()
	}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	c.Schedule(s.schedule, cron.FuncJob(func() {
		s.reload(ctx, "schedule")
	}))
	c.Start()

	<-ctx.Done()
	s.logger.Info().Msg("price reload service shutting down")

	// Stop returns a context that is done once running jobs finish.
	select {
	case <-c.Stop().Done():
	case <-time.After(s.config.Timeout):
		s.logger.Warn().Msg("in-flight price reload did not finish before shutdown")
	}
	return ctx.Err()
}

func (s *ReloadService) reload(ctx context.Context, trigger string) {
	reloadCtx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	start := time.Now()
	t, err := s.reloader.Reload(reloadCtx)
	if err != nil {
		s.logger.Warn().Err(err).Str("trigger", trigger).Msg("price reload failed, keeping previous snapshot")
		return
	}
	s.logger.Info().
		Str("trigger", trigger).
		Int("rows", t.Len()).
		Dur("duration", time.Since(start)).
		Msg("price reload complete")
}

// String returns the service name for logging.
func (s *ReloadService) String() string {
	return s.name
}
