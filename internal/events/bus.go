// AgriMarket - Crop Market Ranking and Selling Advice
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agrimarket

package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	natsgo "github.com/nats-io/nats.go"

	"github.com/tomtom215/agrimarket/internal/breaker"
	"github.com/tomtom215/agrimarket/internal/logging"
	"github.com/tomtom215/agrimarket/internal/metrics"
)

// Metadata keys set on every published message.
const (
	MetadataEventType     = "event_type"
	MetadataRequestID     = "request_id"
	MetadataCorrelationID = "correlation_id"
)

// NATSConfig configures a NATS-backed bus.
type NATSConfig struct {
	URL string

	// JetStream enables durable delivery. Streams are auto-provisioned per
	// topic.
	JetStream bool

	QueueGroup       string
	DurableName      string
	SubscribersCount int
	MaxReconnects    int
	ReconnectWait    time.Duration
	AckWaitTimeout   time.Duration
	CloseTimeout     time.Duration
}

// DefaultNATSConfig returns production defaults for url.
func DefaultNATSConfig(url string) NATSConfig {
	return NATSConfig{
		URL:              url,
		QueueGroup:       "agrimarket",
		DurableName:      "agrimarket",
		SubscribersCount: 1,
		MaxReconnects:    -1,
		ReconnectWait:    2 * time.Second,
		AckWaitTimeout:   30 * time.Second,
		CloseTimeout:     30 * time.Second,
	}
}

// Bus publishes and subscribes to domain events.
type Bus struct {
	publisher  message.Publisher
	subscriber message.Subscriber
	breaker    *breaker.Breaker
	kind       string

	// shared is true when publisher and subscriber are the same object.
	shared bool

	mu     sync.RWMutex
	closed bool
}

// NewMemoryBus creates an in-process bus. Messages are lost on restart.
func NewMemoryBus(logger watermill.LoggerAdapter) *Bus {
	if logger == nil {
		logger = logging.NewWatermillLogger()
	}
	ch := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 256}, logger)
	return &Bus{publisher: ch, subscriber: ch, kind: "memory", shared: true}
}

// NewNATSBus creates a bus on a NATS server.
func NewNATSBus(cfg NATSConfig, logger watermill.LoggerAdapter) (*Bus, error) {
	if cfg.URL == "" {
		return nil, errors.New("nats url is required")
	}
	if logger == nil {
		logger = logging.NewWatermillLogger()
	}
	if cfg.SubscribersCount < 1 {
		cfg.SubscribersCount = 1
	}

	natsOpts := []natsgo.Option{
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(cfg.MaxReconnects),
		natsgo.ReconnectWait(cfg.ReconnectWait),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				logger.Error("NATS disconnected", err, nil)
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info("NATS reconnected", watermill.LogFields{"url": nc.ConnectedUrl()})
		}),
	}

	jetStream := wmNats.JetStreamConfig{
		Disabled:      !cfg.JetStream,
		AutoProvision: cfg.JetStream,
		TrackMsgId:    cfg.JetStream,
		DurablePrefix: cfg.DurableName,
	}
	if cfg.JetStream {
		jetStream.PublishOptions = []natsgo.PubOpt{
			natsgo.RetryAttempts(3),
			natsgo.RetryWait(100 * time.Millisecond),
		}
		jetStream.SubscribeOptions = []natsgo.SubOpt{
			natsgo.DeliverNew(),
			natsgo.AckWait(cfg.AckWaitTimeout),
		}
	}

	pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
		URL:         cfg.URL,
		NatsOptions: natsOpts,
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream:   jetStream,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill publisher: %w", err)
	}

	sub, err := wmNats.NewSubscriber(wmNats.SubscriberConfig{
		URL:              cfg.URL,
		QueueGroupPrefix: cfg.QueueGroup,
		SubscribersCount: cfg.SubscribersCount,
		AckWaitTimeout:   cfg.AckWaitTimeout,
		CloseTimeout:     cfg.CloseTimeout,
		NatsOptions:      natsOpts,
		Unmarshaler:      &wmNats.NATSMarshaler{},
		JetStream:        jetStream,
	}, logger)
	if err != nil {
		_ = pub.Close()
		return nil, fmt.Errorf("create watermill subscriber: %w", err)
	}

	return &Bus{
		publisher:  pub,
		subscriber: sub,
		breaker:    breaker.New("event-bus"),
		kind:       "nats",
	}, nil
}

// Kind returns "memory" or "nats".
func (b *Bus) Kind() string {
	return b.kind
}

// Publish sends msg to topic. NATS publishes go through a circuit breaker.
func (b *Bus) Publish(ctx context.Context, topic string, msg *message.Message) error {
	b.mu.RLock()
	closed := b.closed
	b.mu.RUnlock()
	if closed {
		return ErrBusClosed
	}

	if id := logging.RequestIDFromContext(ctx); id != "" && msg.Metadata.Get(MetadataRequestID) == "" {
		msg.Metadata.Set(MetadataRequestID, id)
	}
	if id := logging.CorrelationIDFromContext(ctx); id != "" && msg.Metadata.Get(MetadataCorrelationID) == "" {
		msg.Metadata.Set(MetadataCorrelationID, id)
	}
	if b.kind == "nats" && msg.Metadata.Get(natsgo.MsgIdHdr) == "" {
		msg.Metadata.Set(natsgo.MsgIdHdr, msg.UUID)
	}

	var err error
	if b.breaker != nil {
		_, err = b.breaker.Execute(func() (interface{}, error) {
			return nil, b.publisher.Publish(topic, msg)
		})
	} else {
		err = b.publisher.Publish(topic, msg)
	}
	metrics.RecordEventPublished(topic, err)
	return err
}

// PublishAdvice serializes and publishes an AdviceIssued event.
func (b *Bus) PublishAdvice(ctx context.Context, e *AdviceIssued) error {
	if err := e.Validate(); err != nil {
		return err
	}
	data, err := e.Marshal()
	if err != nil {
		return fmt.Errorf("serialize event: %w", err)
	}

	msg := message.NewMessage(e.EventID, data)
	msg.Metadata.Set(MetadataEventType, EventTypeAdviceIssued)
	if e.RequestID != "" {
		msg.Metadata.Set(MetadataRequestID, e.RequestID)
	}
	if e.CorrelationID != "" {
		msg.Metadata.Set(MetadataCorrelationID, e.CorrelationID)
	}
	return b.Publish(ctx, TopicAdviceIssued, msg)
}

// Subscribe returns messages for topic until ctx is canceled or the bus is
// closed. Receivers must Ack or Nack every message.
func (b *Bus) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	b.mu.RLock()
	closed := b.closed
	b.mu.RUnlock()
	if closed {
		return nil, ErrBusClosed
	}
	return b.subscriber.Subscribe(ctx, topic)
}

// Close shuts down the publisher and subscriber.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true

	if b.shared {
		return b.publisher.Close()
	}
	return errors.Join(b.publisher.Close(), b.subscriber.Close())
}
