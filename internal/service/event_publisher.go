package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/iliyamo/inventory-service/internal/config"
	"github.com/iliyamo/inventory-service/internal/queue"
)

// EventPublisher delivers catalog events to downstream consumers. Failures
// are returned so callers can log them; they never undo the write that
// produced the event.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.CatalogEvent) error
}

// NewEventPublisher returns a RabbitMQ publisher when events are enabled and
// a no-op otherwise.
func NewEventPublisher(cfg config.EventsConfig, log *zap.Logger) EventPublisher {
	if !cfg.Enabled {
		return NoopPublisher{}
	}
	queueName := cfg.Queue
	if queueName == "" {
		queueName = queue.DefaultQueue
	}
	return &RabbitPublisher{url: cfg.URL, queue: queueName, log: log}
}

// NoopPublisher drops every event.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, queue.CatalogEvent) error { return nil }

// RabbitPublisher publishes persistent JSON messages to a durable queue via
// the default exchange. It opens a fresh connection for every publish.
type RabbitPublisher struct {
	url   string
	queue string
	log   *zap.Logger
}

func (p *RabbitPublisher) Publish(ctx context.Context, ev queue.CatalogEvent) error {
	timeout, err := dialTimeout(ctx)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	conn, err := amqp.DialConfig(p.url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(timeout),
	})
	if err != nil {
		p.log.Warn("rabbitmq: dial failed", zap.Error(err))
		return fmt.Errorf("dial: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.log.Warn("rabbitmq: channel open failed", zap.Error(err))
		return fmt.Errorf("channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(
		p.queue, // name
		true,    // durable
		false,   // autoDelete
		false,   // exclusive
		false,   // noWait
		nil,     // args
	); err != nil {
		p.log.Warn("rabbitmq: queue declare failed", zap.Error(err))
		return fmt.Errorf("queue declare: %w", err)
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    ev.ID,
		Type:         ev.Type,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", p.queue, false, false, pub); err != nil {
		p.log.Warn("rabbitmq: publish failed", zap.Error(err), zap.String("event", ev.Type))
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

// defaultDialTimeout bounds the connect and handshake when ctx carries no
// deadline.
const defaultDialTimeout = 5 * time.Second

// dialTimeout returns the time left before ctx's deadline, or ctx's error
// once it is done.
func dialTimeout(ctx context.Context) (time.Duration, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	dl, ok := ctx.Deadline()
	if !ok {
		return defaultDialTimeout, nil
	}
	left := time.Until(dl)
	if left <= 0 {
		return 0, context.DeadlineExceeded
	}
	return left, nil
}

// RecordingPublisher keeps published events in memory. Tests use it to
// assert which events a handler emitted.
type RecordingPublisher struct {
	mu     sync.Mutex
	events []queue.CatalogEvent
}

func (r *RecordingPublisher) Publish(_ context.Context, ev queue.CatalogEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

// Events returns a copy of everything published so far.
func (r *RecordingPublisher) Events() []queue.CatalogEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]queue.CatalogEvent(nil), r.events...)
}
