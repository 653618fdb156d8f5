// AgriMarket - Crop Market Ranking and Selling Advice
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agrimarket

package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"
)

type mockNATSServer struct {
	running     atomic.Bool
	shutdowns   atomic.Int32
	shutdownErr error
}

func newMockNATSServer() *mockNATSServer {
	m := &mockNATSServer{}
	m.running.Store(true)
	return m
}

func (m *mockNATSServer) IsRunning() bool { return m.running.Load() }

func (m *mockNATSServer) Shutdown(context.Context) error {
	m.shutdowns.Add(1)
	m.running.Store(false)
	return m.shutdownErr
}

func TestEmbeddedNATSService(t *testing.T) {
	t.Run("implements suture.Service interface", func(t *testing.T) {
		var _ suture.Service = (*EmbeddedNATSService)(nil)
	})

	t.Run("shuts the server down on cancellation", func(t *testing.T) {
		server := newMockNATSServer()
		svc := NewEmbeddedNATSService(server, time.Second)

		ctx, cancel := context.WithCancel(context.Background())
		errCh := make(chan error, 1)
		go func() { errCh <- svc.Serve(ctx) }()

		time.Sleep(20 * time.Millisecond)
		cancel()

		select {
		case err := <-errCh:
			if !errors.Is(err, context.Canceled) {
				t.Errorf("Serve() = %v, want context.Canceled", err)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("Serve did not return")
		}
		if server.shutdowns.Load() != 1 {
			t.Errorf("Shutdown called %d times, want 1", server.shutdowns.Load())
		}
	})

	t.Run("reports a dead server", func(t *testing.T) {
		server := newMockNATSServer()
		svc := NewEmbeddedNATSService(server, time.Second)
		svc.pollInterval = 10 * time.Millisecond

		errCh := make(chan error, 1)
		go func() { errCh <- svc.Serve(context.Background()) }()

		server.running.Store(false)

		select {
		case err := <-errCh:
			if err == nil {
				t.Error("Serve() = nil, want error for stopped server")
			}
		case <-time.After(2 * time.Second):
			t.Fatal("Serve did not notice the stopped server")
		}
	})

	t.Run("returns shutdown error", func(t *testing.T) {
		server := newMockNATSServer()
		server.shutdownErr = errors.New("drain timeout")
		svc := NewEmbeddedNATSService(server, time.Second)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		if err := svc.Serve(ctx); !errors.Is(err, server.shutdownErr) {
			t.Errorf("Serve() = %v, want %v", err, server.shutdownErr)
		}
	})

	t.Run("string name", func(t *testing.T) {
		if got := NewEmbeddedNATSService(newMockNATSServer(), 0).String(); got != "nats-server" {
			t.Errorf("String() = %q", got)
		}
	})
}
