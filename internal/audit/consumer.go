// AgriMarket - Crop Market Ranking and Selling Advice
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agrimarket

package audit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/rs/zerolog"

	"github.com/tomtom215/agrimarket/internal/events"
	"github.com/tomtom215/agrimarket/internal/metrics"
)

// Subscriber is the part of events.Bus the consumer needs.
type Subscriber interface {
	Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error)
}

// ConsumerConfig configures a Consumer.
type ConsumerConfig struct {
	// RetentionDays removes records older than this. Zero keeps everything.
	RetentionDays int

	// CleanupInterval is how often retention runs.
	CleanupInterval time.Duration

	// SaveTimeout bounds each store write.
	SaveTimeout time.Duration
}

// DefaultConsumerConfig returns sensible defaults.
func DefaultConsumerConfig() ConsumerConfig {
	return ConsumerConfig{
		RetentionDays:   90,
		CleanupInterval: 24 * time.Hour,
		SaveTimeout:     5 * time.Second,
	}
}

// Consumer persists AdviceIssued events. It implements suture.Service.
type Consumer struct {
	sub    Subscriber
	store  Store
	cfg    ConsumerConfig
	logger zerolog.Logger
}

// NewConsumer creates a consumer writing to store.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewConsumer(sub Subscriber, store Store, cfg ConsumerConfig, logger zerolog.Logger) *Consumer {
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = 24 * time.Hour
	}
	if cfg.SaveTimeout <= 0 {
		cfg.SaveTimeout = 5 * time.Second
	}
	return &Consumer{
		sub:    sub,
		store:  store,
		cfg:    cfg,
		logger: logger.With().Str("component", "audit-consumer").Logger(),
	}
}

// Serve consumes events until ctx is canceled.
func (c *Consumer) Serve(ctx context.Context) error {
	msgs, err := c.sub.Subscribe(ctx, events.TopicAdviceIssued)
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", events.TopicAdviceIssued, err)
	}

	c.logger.Info().Str("topic", events.TopicAdviceIssued).Msg("audit consumer started")

	var cleanup <-chan time.Time
	if c.cfg.RetentionDays > 0 {
		ticker := time.NewTicker(c.cfg.CleanupInterval)
		defer ticker.Stop()
		cleanup = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			c.logger.Info().Msg("audit consumer stopped")
			return ctx.Err()

		case msg, ok := <-msgs:
			if !ok {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return errors.New("audit subscription closed")
			}
			c.handle(ctx, msg)

		case <-cleanup:
			c.applyRetention(ctx)
		}
	}
}

// handle acks undecodable messages so they are not redelivered forever and
// nacks store failures so they are retried.
func (c *Consumer) handle(ctx context.Context, msg *message.Message) {
	ev, err := events.UnmarshalAdviceIssued(msg.Payload)
	if err != nil {
		c.logger.Error().Err(err).Str("message_uuid", msg.UUID).Msg("dropping malformed advice event")
		metrics.RecordAuditRecord(err)
		msg.Ack()
		return
	}

	saveCtx, cancel := context.WithTimeout(ctx, c.cfg.SaveTimeout)
	defer cancel()

	err = c.store.Save(saveCtx, RecordFromEvent(ev))
	metrics.RecordAuditRecord(err)
	if err != nil {
		c.logger.Error().Err(err).Str("event_id", ev.EventID).Msg("failed to save audit record")
		msg.Nack()
		return
	}

	c.logger.Debug().Str("event_id", ev.EventID).Str("crop", ev.Crop).Msg("audit record saved")
	msg.Ack()
}

func (c *Consumer) applyRetention(ctx context.Context) {
	cutoff := time.Now().AddDate(0, 0, -c.cfg.RetentionDays)
	n, err := c.store.Delete(ctx, cutoff)
	if err != nil {
		c.logger.Error().Err(err).Msg("audit retention cleanup failed")
		return
	}
	if n > 0 {
		c.logger.Info().Int64("deleted", n).Time("cutoff", cutoff).Msg("audit retention cleanup")
	}
}

// String implements fmt.Stringer for suture logging.
func (c *Consumer) String() string {
	return "audit-consumer"
}
