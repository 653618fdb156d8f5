// AgriMarket - Crop Market Ranking and Selling Advice
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agrimarket

package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/tomtom215/agrimarket/internal/audit"
	"github.com/tomtom215/agrimarket/internal/config"
	"github.com/tomtom215/agrimarket/internal/events"
	"github.com/tomtom215/agrimarket/internal/logging"
)

// EventComponents holds the event bus and, when embedded, its NATS server.
type EventComponents struct {
	Bus    *events.Bus
	Server *events.EmbeddedServer
}

// Close closes the bus. The embedded server is stopped by its supervised
// service; shutting it down here as well is harmless.
func (e *EventComponents) Close() {
	if e.Bus != nil {
		if err := e.Bus.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing event bus")
		}
	}
	if e.Server != nil && e.Server.IsRunning() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := e.Server.Shutdown(ctx); err != nil {
			logging.Error().Err(err).Msg("Error stopping embedded NATS server")
		}
	}
}

func initEvents(cfg *config.Config) (*EventComponents, error) {
	wmLogger := logging.NewWatermillLoggerWith(logging.WithComponent("events"))

	if cfg.Events.Backend != config.EventsBackendNATS {
		logging.Info().Msg("Event bus: in-memory")
		return &EventComponents{Bus: events.NewMemoryBus(wmLogger)}, nil
	}

	ec := &EventComponents{}
	url := cfg.Events.URL
	if cfg.Events.Embedded {
		srv, err := events.NewEmbeddedServer(events.ServerConfig{
			Port:      cfg.Events.EmbeddedPort,
			JetStream: cfg.Events.JetStream,
			StoreDir:  cfg.Events.StoreDir,
		})
		if err != nil {
			return nil, fmt.Errorf("start embedded NATS server: %w", err)
		}
		ec.Server = srv
		url = srv.ClientURL()
		logging.Info().Str("url", url).Bool("jetstream", cfg.Events.JetStream).Msg("Embedded NATS server started")
	}

	natsCfg := events.DefaultNATSConfig(url)
	natsCfg.JetStream = cfg.Events.JetStream
	if cfg.Events.DurableName != "" {
		natsCfg.DurableName = cfg.Events.DurableName
	}
	if cfg.Events.QueueGroup != "" {
		natsCfg.QueueGroup = cfg.Events.QueueGroup
	}

	bus, err := events.NewNATSBus(natsCfg, wmLogger)
	if err != nil {
		ec.Close()
		return nil, fmt.Errorf("connect event bus: %w", err)
	}
	ec.Bus = bus

	logging.Info().Str("url", url).Msg("Event bus: NATS")
	return ec, nil
}

// AuditComponents holds the advice audit store and its event consumer.
// Both are nil when auditing is disabled.
type AuditComponents struct {
	Store    audit.Store
	Consumer *audit.Consumer

	db *sql.DB
}

// Close closes the DuckDB handle when one is open.
func (a *AuditComponents) Close() {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing audit database")
		}
	}
}

func initAudit(ctx context.Context, cfg *config.Config, sub audit.Subscriber) (*AuditComponents, error) {
	ac := &AuditComponents{}
	if !cfg.Audit.Enabled {
		logging.Info().Msg("Advice audit log disabled (AUDIT_ENABLED=false)")
		return ac, nil
	}

	switch cfg.Audit.Backend {
	case config.AuditBackendDuckDB:
		db, err := audit.OpenDuckDB(cfg.Audit.DuckDBPath)
		if err != nil {
			return nil, fmt.Errorf("open audit database: %w", err)
		}
		ac.db = db

		store := audit.NewDuckDBStore(db)
		if err := store.CreateTable(ctx); err != nil {
			ac.Close()
			return nil, fmt.Errorf("create audit table: %w", err)
		}
		ac.Store = store
		logging.Info().Str("path", cfg.Audit.DuckDBPath).Msg("Advice audit log: DuckDB")
	default:
		ac.Store = audit.NewMemoryStore(cfg.Audit.MemoryLimit)
		logging.Info().Int("limit", cfg.Audit.MemoryLimit).Msg("Advice audit log: in-memory")
	}

	ac.Consumer = audit.NewConsumer(sub, ac.Store, audit.ConsumerConfig{
		RetentionDays:   cfg.Audit.RetentionDays,
		CleanupInterval: cfg.Audit.CleanupInterval,
		SaveTimeout:     5 * time.Second,
	}, logging.WithComponent("audit"))

	return ac, nil
}
