// AgriMarket - Crop Market Ranking and Selling Advice
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agrimarket

package supervisor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"
)

// countingService runs until canceled, failing the first failFirst starts.
type countingService struct {
	name      string
	failFirst int32
	starts    atomic.Int32
}

func (s *countingService) Serve(ctx context.Context) error {
	n := s.starts.Add(1)
	if n <= s.failFirst {
		return errors.New("simulated failure")
	}
	<-ctx.Done()
	return ctx.Err()
}

func (s *countingService) String() string { return s.name }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewSupervisorTree_Defaults(t *testing.T) {
	tree, err := NewSupervisorTree(quietLogger(), TreeConfig{})
	if err != nil {
		t.Fatalf("NewSupervisorTree() error = %v", err)
	}
	if tree.Root() == nil {
		t.Fatal("root supervisor should not be nil")
	}

	want := DefaultTreeConfig()
	if tree.config != want {
		t.Errorf("config = %+v, want %+v", tree.config, want)
	}
}

func TestNewSupervisorTree_KeepsExplicitValues(t *testing.T) {
	tree, err := NewSupervisorTree(quietLogger(), TreeConfig{
		FailureThreshold: 2,
		FailureBackoff:   time.Second,
	})
	if err != nil {
		t.Fatal(err)
	}
	if tree.config.FailureThreshold != 2 || tree.config.FailureBackoff != time.Second {
		t.Errorf("explicit values overwritten: %+v", tree.config)
	}
	if tree.config.FailureDecay != 30 {
		t.Errorf("FailureDecay = %v, want default 30", tree.config.FailureDecay)
	}
}

func TestSupervisorTree_StartsEveryLayer(t *testing.T) {
	tree, _ := NewSupervisorTree(quietLogger(), TreeConfig{ShutdownTimeout: time.Second})

	reload := &countingService{name: "price-reload"}
	consumer := &countingService{name: "audit-consumer"}
	server := &countingService{name: "http-server"}
	tree.AddDataService(reload)
	tree.AddMessagingService(consumer)
	tree.AddAPIService(server)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := tree.ServeBackground(ctx)

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			t.Errorf("unexpected error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("tree did not shut down in time")
	}

	for _, svc := range []*countingService{reload, consumer, server} {
		if svc.starts.Load() < 1 {
			t.Errorf("%s was not started", svc.name)
		}
	}
}

func TestSupervisorTree_RestartsFailingService(t *testing.T) {
	tree, _ := NewSupervisorTree(quietLogger(), TreeConfig{
		FailureThreshold: 10,
		FailureBackoff:   10 * time.Millisecond,
		ShutdownTimeout:  time.Second,
	})

	flaky := &countingService{name: "audit-consumer", failFirst: 2}
	stable := &countingService{name: "http-server"}
	tree.AddMessagingService(flaky)
	tree.AddAPIService(stable)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	go func() { _ = tree.Serve(ctx) }()
	time.Sleep(200 * time.Millisecond)

	if got := flaky.starts.Load(); got < 3 {
		t.Errorf("flaky service started %d times, want at least 3", got)
	}
	if stable.starts.Load() != 1 {
		t.Errorf("stable service started %d times, want 1", stable.starts.Load())
	}
}
