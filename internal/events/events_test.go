// AgriMarket - Crop Market Ranking and Selling Advice
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agrimarket

package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/tomtom215/agrimarket/internal/logging"
)

func sampleEvent() *AdviceIssued {
	e := NewAdviceIssued()
	price := 50.0
	e.FarmerName = "Otieno"
	e.Location = "Kakamega"
	e.Crop = "maize"
	e.Language = "en"
	e.CandidateCount = 3
	e.BestMarket = "Kakamega Municipal"
	e.BestPrice = &price
	e.ExplanationSource = "fallback"
	e.DataSources = []string{"Market CSV (wholesale & retail)"}
	e.PromptSnippet = "You are an agricultural assistant"
	return e
}

func TestAdviceIssued_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*AdviceIssued)
	}{
		{"missing id", func(e *AdviceIssued) { e.EventID = "" }},
		{"missing timestamp", func(e *AdviceIssued) { e.Timestamp = time.Time{} }},
		{"missing crop", func(e *AdviceIssued) { e.Crop = "" }},
		{"missing source", func(e *AdviceIssued) { e.ExplanationSource = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := sampleEvent()
			tt.mutate(e)
			if err := e.Validate(); !errors.Is(err, ErrInvalidEvent) {
				t.Errorf("Validate() = %v, want ErrInvalidEvent", err)
			}
		})
	}

	if err := sampleEvent().Validate(); err != nil {
		t.Errorf("valid event rejected: %v", err)
	}
	if _, err := UnmarshalAdviceIssued([]byte("{not json")); !errors.Is(err, ErrInvalidEvent) {
		t.Errorf("bad payload error = %v", err)
	}
}

func receive(t *testing.T, ch <-chan *message.Message) *message.Message {
	t.Helper()
	select {
	case msg := <-ch:
		msg.Ack()
		return msg
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for message")
		return nil
	}
}

func TestMemoryBus_PublishAdvice(t *testing.T) {
	t.Parallel()

	bus := NewMemoryBus(logging.NewWatermillLoggerWith(logging.Nop()))
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	msgs, err := bus.Subscribe(ctx, TopicAdviceIssued)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	ev := sampleEvent()
	pubCtx := logging.ContextWithRequestID(context.Background(), "req-1")
	if err := bus.PublishAdvice(pubCtx, ev); err != nil {
		t.Fatalf("PublishAdvice: %v", err)
	}

	msg := receive(t, msgs)
	if msg.UUID != ev.EventID {
		t.Errorf("message uuid = %q, want %q", msg.UUID, ev.EventID)
	}
	if msg.Metadata.Get(MetadataEventType) != EventTypeAdviceIssued {
		t.Errorf("event type = %q", msg.Metadata.Get(MetadataEventType))
	}
	if msg.Metadata.Get(MetadataRequestID) != "req-1" {
		t.Errorf("request id = %q", msg.Metadata.Get(MetadataRequestID))
	}

	got, err := UnmarshalAdviceIssued(msg.Payload)
	if err != nil {
		t.Fatalf("UnmarshalAdviceIssued: %v", err)
	}
	if got.BestMarket != ev.BestMarket || got.BestPrice == nil || *got.BestPrice != 50 {
		t.Errorf("decoded = %+v", got)
	}
	if bus.Kind() != "memory" {
		t.Errorf("kind = %q", bus.Kind())
	}
}

func TestMemoryBus_Closed(t *testing.T) {
	t.Parallel()

	bus := NewMemoryBus(nil)
	if err := bus.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := bus.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
	if err := bus.PublishAdvice(context.Background(), sampleEvent()); !errors.Is(err, ErrBusClosed) {
		t.Errorf("publish after close = %v", err)
	}
	if _, err := bus.Subscribe(context.Background(), TopicAdviceIssued); !errors.Is(err, ErrBusClosed) {
		t.Errorf("subscribe after close = %v", err)
	}
}

func TestMemoryBus_RejectsInvalidEvent(t *testing.T) {
	t.Parallel()

	bus := NewMemoryBus(nil)
	defer bus.Close()

	ev := sampleEvent()
	ev.Crop = ""
	if err := bus.PublishAdvice(context.Background(), ev); !errors.Is(err, ErrInvalidEvent) {
		t.Errorf("error = %v, want ErrInvalidEvent", err)
	}
}

func TestNATSBus_EmbeddedServer(t *testing.T) {
	if testing.Short() {
		t.Skip("starts an embedded NATS server")
	}

	srv, err := NewEmbeddedServer(ServerConfig{Port: -1})
	if err != nil {
		t.Fatalf("NewEmbeddedServer: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}()
	if !srv.IsRunning() {
		t.Fatal("server not running")
	}

	cfg := DefaultNATSConfig(srv.ClientURL())
	cfg.CloseTimeout = time.Second
	bus, err := NewNATSBus(cfg, logging.NewWatermillLoggerWith(logging.Nop()))
	if err != nil {
		t.Fatalf("NewNATSBus: %v", err)
	}
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	msgs, err := bus.Subscribe(ctx, TopicAdviceIssued)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	// Core NATS only delivers to active subscriptions; give the subscription
	// a moment to register with the server.
	time.Sleep(100 * time.Millisecond)

	ev := sampleEvent()
	if err := bus.PublishAdvice(context.Background(), ev); err != nil {
		t.Fatalf("PublishAdvice: %v", err)
	}

	msg := receive(t, msgs)
	got, err := UnmarshalAdviceIssued(msg.Payload)
	if err != nil {
		t.Fatalf("UnmarshalAdviceIssued: %v", err)
	}
	if got.EventID != ev.EventID || bus.Kind() != "nats" {
		t.Errorf("decoded %+v on %s bus", got, bus.Kind())
	}
}

func TestNewNATSBus_RequiresURL(t *testing.T) {
	t.Parallel()

	if _, err := NewNATSBus(NATSConfig{}, nil); err == nil {
		t.Error("expected error without url")
	}
}

func TestNewEmbeddedServer_JetStreamNeedsStore(t *testing.T) {
	t.Parallel()

	if _, err := NewEmbeddedServer(ServerConfig{Port: -1, JetStream: true}); err == nil {
		t.Error("expected error without store dir")
	}
}
