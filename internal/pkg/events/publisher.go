package events

import (
	"context"
	"encoding/json"
	"fmt"
	"errors"
	"reflect"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/shotbook/shotbook-api/internal/pkg/logger"
)

// Publisher delivers an event somewhere
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

const (
	dialTimeout    = 3 * time.Second
	redialCooldown = 5 * time.Second
)

var errBrokerUnavailable = errors.New("rabbitmq unavailable, waiting to redial")

// Dial connects with a bounded connect and handshake time
func Dial(url string, timeout time.Duration) (*amqp.Connection, error) {
	return amqp.DialConfig(url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(timeout),
	})
}

// RabbitPublisher publishes events as persistent messages to a durable queue.
// The connection is opened lazily and reopened after a failure. After a failed
// dial, publishes fail fast until the cooldown passes.
type RabbitPublisher struct {
	url      string
	queue    string
	timeout  time.Duration
	cooldown time.Duration

	mu       sync.Mutex
	conn     *amqp.Connection
	ch       *amqp.Channel
	redialAt time.Time
}

// NewRabbitPublisher returns nil when url is empty
func NewRabbitPublisher(url, queue string) *RabbitPublisher {
	if url == "" {
		return nil
	}
	return &RabbitPublisher{url: url, queue: queue, timeout: dialTimeout, cooldown: redialCooldown}
}

func (p *RabbitPublisher) Publish(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.ensureChannel(); err != nil {
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.ID.String(),
		Type:         string(event.Type),
		Timestamp:    event.OccurredAt,
		Body:         body,
	}

	if err := p.ch.PublishWithContext(ctx, "", p.queue, false, false, pub); err != nil {
		p.closeLocked()
		return fmt.Errorf("publish %s: %w", event.Type, err)
	}
	return nil
}

// Ping reports whether the broker is reachable
func (p *RabbitPublisher) Ping() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ensureChannel()
}

// Close releases the broker connection
func (p *RabbitPublisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closeLocked()
}

func (p *RabbitPublisher) ensureChannel() error {
	if p.ch != nil && !p.ch.IsClosed() {
		return nil
	}
	p.closeLocked()

	if time.Now().Before(p.redialAt) {
		return errBrokerUnavailable
	}

	conn, err := Dial(p.url, p.timeout)
	if err != nil {
		p.redialAt = time.Now().Add(p.cooldown)
		return fmt.Errorf("rabbitmq dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("rabbitmq channel: %w", err)
	}
	if _, err := DeclareQueue(ch, p.queue); err != nil {
		ch.Close()
		conn.Close()
		return err
	}

	p.conn, p.ch = conn, ch
	return nil
}

func (p *RabbitPublisher) closeLocked() {
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}

// DeclareQueue declares the durable events queue
func DeclareQueue(ch *amqp.Channel, name string) (amqp.Queue, error) {
	q, err := ch.QueueDeclare(name, true, false, false, false, nil)
	if err != nil {
		return q, fmt.Errorf("queue declare %s: %w", name, err)
	}
	return q, nil
}

// Fanout sends an event to every publisher. Failures are logged and never
// returned: a lost notification must not fail the request that caused it.
type Fanout struct {
	publishers []Publisher
}

// NewFanout skips nil publishers
func NewFanout(publishers ...Publisher) *Fanout {
	f := &Fanout{}
	for _, p := range publishers {
		if p == nil || isNilPublisher(p) {
			continue
		}
		f.publishers = append(f.publishers, p)
	}
	return f
}

func (f *Fanout) Publish(ctx context.Context, event Event) error {
	for _, p := range f.publishers {
		if err := p.Publish(ctx, event); err != nil {
			logger.LogWarn(ctx, "event publish failed",
				"event_type", string(event.Type),
				"event_id", event.ID.String(),
				"booking_id", event.BookingID.String(),
				"error", err.Error(),
			)
		}
	}
	return nil
}

func isNilPublisher(p Publisher) bool {
	v := reflect.ValueOf(p)
	return v.Kind() == reflect.Ptr && v.IsNil()
}
