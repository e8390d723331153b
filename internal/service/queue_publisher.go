package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	q "github.com/iliyamo/leadbook/internal/queue"
)

const (
	brokerDialTimeout = 2 * time.Second
	// brokerRetryBackoff is how long publishes fail fast after a failed dial.
	brokerRetryBackoff = 5 * time.Second
)

// EventPublisher delivers lead events.  Errors are returned so callers can
// log them; lead operations never fail because of them.
type EventPublisher interface {
	Publish(ctx context.Context, ev q.LeadEvent) error
}

// NopPublisher drops every event.  It is used when EVENTS_ENABLED is off.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, q.LeadEvent) error { return nil }

// RabbitPublisher publishes lead events to the "lead.events" queue.  The
// connection is opened lazily and reopened after any failure.  After a
// failed dial, publishes return the dial error without touching the
// network until brokerRetryBackoff has passed.
type RabbitPublisher struct {
	url  string
	log  logrus.FieldLogger
	dial func(ctx context.Context, url string) (*amqp.Connection, error)
	now  func() time.Time

	mu      sync.Mutex
	conn    *amqp.Connection
	ch      *amqp.Channel
	retryAt time.Time
	lastErr error
}

func NewRabbitPublisher(url string, log logrus.FieldLogger) *RabbitPublisher {
	return &RabbitPublisher{url: url, log: log, dial: dialBroker, now: time.Now}
}

// dialBroker opens an AMQP connection whose TCP dial and handshake are
// bounded by ctx and brokerDialTimeout, whichever ends first.
func dialBroker(ctx context.Context, url string) (*amqp.Connection, error) {
	d := net.Dialer{Timeout: brokerDialTimeout}
	return amqp.DialConfig(url, amqp.Config{
		Dial: func(network, addr string) (net.Conn, error) {
			conn, err := d.DialContext(ctx, network, addr)
			if err != nil {
				return nil, err
			}
			deadline := time.Now().Add(brokerDialTimeout)
			if dl, ok := ctx.Deadline(); ok && dl.Before(deadline) {
				deadline = dl
			}
			// amqp clears the deadline once the handshake is done
			if err := conn.SetDeadline(deadline); err != nil {
				_ = conn.Close()
				return nil, err
			}
			return conn, nil
		},
	})
}

func (p *RabbitPublisher) channel(ctx context.Context) (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	if p.lastErr != nil && p.now().Before(p.retryAt) {
		return nil, fmt.Errorf("rabbitmq unavailable, retrying after %s: %w", p.retryAt.Format(time.RFC3339), p.lastErr)
	}
	p.reset()
	conn, err := p.dial(ctx, p.url)
	if err != nil {
		// a cancelled caller says nothing about the broker
		if ctx.Err() == nil {
			p.retryAt, p.lastErr = p.now().Add(brokerRetryBackoff), err
		}
		return nil, err
	}
	p.retryAt, p.lastErr = time.Time{}, nil
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	// Ensure the queue exists (idempotent). Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(
		q.LeadQueueName, // name
		true,            // durable
		false,           // autoDelete
		false,           // exclusive
		false,           // noWait
		nil,             // args
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	p.conn, p.ch = conn, ch
	return ch, nil
}

func (p *RabbitPublisher) reset() {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
	p.conn, p.ch = nil, nil
}

// Publish sends ev as a persistent JSON message.
func (p *RabbitPublisher) Publish(ctx context.Context, ev q.LeadEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.channel(ctx)
	if err != nil {
		p.log.WithError(err).Warn("rabbitmq: connect failed")
		return err
	}
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent, // store on disk
		Timestamp:    time.Now().UTC(),
		Type:         ev.Type,
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx,
		"",              // default exchange
		q.LeadQueueName, // routing key = queue name
		false,           // mandatory
		false,           // immediate
		pub,
	); err != nil {
		p.reset()
		p.log.WithError(err).Warn("rabbitmq: publish failed")
		return err
	}
	return nil
}

// Close releases the broker connection.
func (p *RabbitPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reset()
	return nil
}
