// AgriMarket - Crop Market Ranking and Selling Advice
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agrimarket

package audit

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/rs/zerolog"

	"github.com/tomtom215/agrimarket/internal/events"
)

func testRecord(id, crop string, ts time.Time) *Record {
	price := 50.0
	return &Record{
		ID:                id,
		Timestamp:         ts,
		FarmerName:        "Otieno",
		Location:          "Kakamega",
		Crop:              crop,
		Language:          "en",
		CandidateCount:    3,
		BestMarket:        "Kakamega Municipal",
		BestPrice:         &price,
		ExplanationSource: "model",
		ModelName:         "gemini-1.5-flash",
		DataSources:       []string{"Market CSV (wholesale & retail)", "Distance-based transport cost"},
		PromptSnippet:     "You are an agricultural assistant",
	}
}

func TestMemoryStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewMemoryStore(100)
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		crop := "maize"
		if i%2 == 1 {
			crop = "beans"
		}
		if err := s.Save(ctx, testRecord(fmt.Sprintf("r%d", i), crop, base.Add(time.Duration(i)*time.Hour))); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}
	// Duplicate IDs are ignored.
	if err := s.Save(ctx, testRecord("r0", "maize", base)); err != nil {
		t.Fatalf("Save duplicate: %v", err)
	}

	n, _ := s.Count(ctx, QueryFilter{})
	if n != 5 {
		t.Errorf("count = %d, want 5", n)
	}

	maize, _ := s.Query(ctx, QueryFilter{Crop: "MAIZE"})
	if len(maize) != 3 || maize[0].ID != "r4" {
		t.Errorf("maize query = %d records, first %q", len(maize), firstID(maize))
	}

	page, _ := s.Query(ctx, QueryFilter{Limit: 2, Offset: 1})
	if len(page) != 2 || page[0].ID != "r3" || page[1].ID != "r2" {
		t.Errorf("page = %v", ids(page))
	}

	start := base.Add(2 * time.Hour)
	recent, _ := s.Query(ctx, QueryFilter{StartTime: &start})
	if len(recent) != 3 {
		t.Errorf("time filtered = %d, want 3", len(recent))
	}

	got, err := s.Get(ctx, "r1")
	if err != nil || got.Crop != "beans" {
		t.Errorf("Get = %+v, %v", got, err)
	}
	if _, err := s.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(missing) = %v", err)
	}

	removed, _ := s.Delete(ctx, base.Add(90*time.Minute))
	if removed != 2 {
		t.Errorf("deleted %d, want 2", removed)
	}
	// A deleted ID may be saved again.
	if err := s.Save(ctx, testRecord("r0", "maize", base.Add(10*time.Hour))); err != nil {
		t.Fatal(err)
	}
	if n, _ := s.Count(ctx, QueryFilter{}); n != 4 {
		t.Errorf("count after delete and re-save = %d", n)
	}
}

func TestMemoryStore_Bounded(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewMemoryStore(10)
	for i := 0; i < 25; i++ {
		_ = s.Save(ctx, testRecord(fmt.Sprintf("r%d", i), "maize", time.Now()))
	}
	if n, _ := s.Count(ctx, QueryFilter{}); n > 10 {
		t.Errorf("store grew to %d records", n)
	}
	if _, err := s.Get(ctx, "r24"); err != nil {
		t.Error("newest record evicted")
	}
	if err := s.Save(ctx, nil); err == nil {
		t.Error("expected error for nil record")
	}
}

func firstID(rs []Record) string {
	if len(rs) == 0 {
		return ""
	}
	return rs[0].ID
}

func ids(rs []Record) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.ID
	}
	return out
}

func TestRecordFromEvent(t *testing.T) {
	t.Parallel()

	ev := events.NewAdviceIssued()
	ev.Crop = "maize"
	ev.ExplanationSource = "fallback"
	ev.DataSources = []string{"a"}

	r := RecordFromEvent(ev)
	if r.ID != ev.EventID || r.Crop != "maize" || r.ExplanationSource != "fallback" {
		t.Errorf("record = %+v", r)
	}
	ev.DataSources[0] = "changed"
	if r.DataSources[0] != "a" {
		t.Error("record shares data source slice with event")
	}
}

type failingStore struct {
	*MemoryStore
	fail bool
}

func (f *failingStore) Save(ctx context.Context, r *Record) error {
	if f.fail {
		return errors.New("disk full")
	}
	return f.MemoryStore.Save(ctx, r)
}

func TestConsumer(t *testing.T) {
	t.Parallel()

	bus := events.NewMemoryBus(nil)
	defer bus.Close()

	store := NewMemoryStore(100)
	c := NewConsumer(bus, store, ConsumerConfig{}, zerolog.Nop())
	if c.String() != "audit-consumer" {
		t.Errorf("String() = %q", c.String())
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Serve(ctx) }()

	// Let the consumer subscribe before publishing.
	time.Sleep(50 * time.Millisecond)

	ev := events.NewAdviceIssued()
	ev.Crop = "maize"
	ev.ExplanationSource = "model"
	ev.BestMarket = "Wakulima"
	if err := bus.PublishAdvice(context.Background(), ev); err != nil {
		t.Fatalf("PublishAdvice: %v", err)
	}

	// A malformed payload is dropped without stopping the consumer.
	if err := bus.Publish(context.Background(), events.TopicAdviceIssued, message.NewMessage("bad", []byte("{"))); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		if r, err := store.Get(context.Background(), ev.EventID); err == nil {
			if r.BestMarket != "Wakulima" {
				t.Errorf("saved record = %+v", r)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("record was not saved")
		}
		time.Sleep(10 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("consumer did not stop")
	}
}

func TestConsumer_RetriesFailedSave(t *testing.T) {
	t.Parallel()

	bus := events.NewMemoryBus(nil)
	defer bus.Close()

	store := &failingStore{MemoryStore: NewMemoryStore(10), fail: true}
	c := NewConsumer(bus, store, ConsumerConfig{}, zerolog.Nop())

	msgs := make(chan *message.Message, 1)
	ev := events.NewAdviceIssued()
	ev.Crop = "beans"
	ev.ExplanationSource = "cache"
	data, _ := ev.Marshal()
	msg := message.NewMessage(ev.EventID, data)
	msgs <- msg

	c.handle(context.Background(), <-msgs)
	select {
	case <-msg.Nacked():
	default:
		t.Error("failed save should nack")
	}

	store.fail = false
	retry := message.NewMessage(ev.EventID, data)
	c.handle(context.Background(), retry)
	select {
	case <-retry.Acked():
	default:
		t.Error("successful save should ack")
	}
}

func TestConsumer_Retention(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore(10)
	_ = store.Save(context.Background(), testRecord("old", "maize", time.Now().AddDate(0, 0, -100)))
	_ = store.Save(context.Background(), testRecord("new", "maize", time.Now()))

	c := NewConsumer(events.NewMemoryBus(nil), store, ConsumerConfig{RetentionDays: 90}, zerolog.Nop())
	c.applyRetention(context.Background())

	if _, err := store.Get(context.Background(), "old"); !errors.Is(err, ErrNotFound) {
		t.Error("old record survived retention")
	}
	if _, err := store.Get(context.Background(), "new"); err != nil {
		t.Error("recent record removed")
	}
}
