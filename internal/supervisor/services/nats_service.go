// AgriMarket - Crop Market Ranking and Selling Advice
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agrimarket

package services

import (
	"context"
	"errors"
	"time"
)

// NATSServer matches the lifecycle of events.EmbeddedServer.
type NATSServer interface {
	IsRunning() bool
	Shutdown(ctx context.Context) error
}

// EmbeddedNATSService ties an already started embedded NATS server to the
// supervisor so it is shut down with the rest of the tree.
//
// The server is started before the tree because the event bus must connect
// to it during wiring. If it dies, Serve returns an error and Suture's
// backoff surfaces the failure in the logs.
type EmbeddedNATSService struct {
	server          NATSServer
	shutdownTimeout time.Duration
	pollInterval    time.Duration
	name            string
}

// NewEmbeddedNATSService wraps server for supervision.
func NewEmbeddedNATSService(server NATSServer, shutdownTimeout time.Duration) *EmbeddedNATSService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &EmbeddedNATSService{
		server:          server,
		shutdownTimeout: shutdownTimeout,
		pollInterval:    5 * time.Second,
		name:            "nats-server",
	}
}

// Serve implements suture.Service.
func (s *EmbeddedNATSService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		if !s.server.IsRunning() {
			return errors.New("embedded NATS server is not running")
		}

		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
			defer cancel()
			if err := s.server.Shutdown(shutdownCtx); err != nil {
				return err
			}
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// String implements fmt.Stringer for logging.
func (s *EmbeddedNATSService) String() string {
	return s.name
}
