package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/devoops/user-service/internal/core/domain"
)

// Config names the broker and the route account events are published on.
type Config struct {
	URL                   string
	Exchange              string
	UserCreatedRoutingKey string
}

// channel is the subset of *amqp.Channel the publisher needs.
type channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher sends account events to a RabbitMQ topic exchange as JSON.
type Publisher struct {
	mu         sync.Mutex
	conn       *amqp.Connection
	ch         channel
	exchange   string
	routingKey string
}

// NewPublisher dials the broker and declares the exchange.
func NewPublisher(cfg Config) (*Publisher, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, errors.New("rabbitmq url is required")
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}

	p, err := newPublisher(ch, cfg)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	p.conn = conn
	return p, nil
}

func newPublisher(ch channel, cfg Config) (*Publisher, error) {
	if err := ch.ExchangeDeclare(cfg.Exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("declare exchange %s: %w", cfg.Exchange, err)
	}
	return &Publisher{ch: ch, exchange: cfg.Exchange, routingKey: cfg.UserCreatedRoutingKey}, nil
}

// PublishUserCreated announces a new account. amqp channels are not safe for
// concurrent publishing, so calls are serialized.
func (p *Publisher) PublishUserCreated(ctx context.Context, event domain.UserCreatedEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode user.created: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.ch.PublishWithContext(ctx, p.exchange, p.routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    time.Now().UTC(),
		Type:         p.routingKey,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", p.routingKey, err)
	}
	return nil
}

// Ping reports whether the broker connection is still open.
func (p *Publisher) Ping(context.Context) error {
	if p.conn == nil || p.conn.IsClosed() {
		return errors.New("rabbitmq connection closed")
	}
	return nil
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
