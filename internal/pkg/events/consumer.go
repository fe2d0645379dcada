package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
)

// Handler processes one event. Returning an error requeues the message.
type Handler func(ctx context.Context, event Event) error

// ErrMalformed marks deliveries that can never be processed
var ErrMalformed = errors.New("malformed event")

// Consumer reads events from the durable queue with manual acks
type Consumer struct {
	url      string
	queue    string
	prefetch int
	handler  Handler
}

// NewConsumer creates a consumer for queue
func NewConsumer(url, queue string, prefetch int, handler Handler) *Consumer {
	if prefetch <= 0 {
		prefetch = 20
	}
	return &Consumer{url: url, queue: queue, prefetch: prefetch, handler: handler}
}

// Run consumes until ctx is cancelled, reconnecting with exponential backoff.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := Dial(c.url, dialTimeout)
		if err != nil {
			log.Warn().Err(err).Dur("retry_in", backoff).Msg("events consumer: dial failed")
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Warn().Err(err).Msg("events consumer: loop ended, reconnecting")
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer ch.Close()

	if err := ch.Qos(c.prefetch, 0, false); err != nil {
		return fmt.Errorf("qos: %w", err)
	}
	if _, err := DeclareQueue(ch, c.queue); err != nil {
		return err
	}

	msgs, err := ch.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	log.Info().Str("queue", c.queue).Msg("events consumer: consuming")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			c.handle(ctx, d)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, d amqp.Delivery) {
	err := c.Process(ctx, d.Body)
	switch {
	case err == nil:
		_ = d.Ack(false)
	case errors.Is(err, ErrMalformed):
		log.Error().Err(err).Str("message_id", d.MessageId).Msg("events consumer: dropping message")
		_ = d.Nack(false, false)
	default:
		log.Error().Err(err).Str("message_id", d.MessageId).Msg("events consumer: handler failed, requeueing")
		_ = d.Nack(false, true)
		sleep(ctx, time.Second)
	}
}

// Process decodes one message body and hands it to the handler
func (c *Consumer) Process(ctx context.Context, body []byte) error {
	var ev Event
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if ev.Type == "" || ev.BookingID == uuid.Nil {
		return fmt.Errorf("%w: missing type or booking id", ErrMalformed)
	}
	return c.handler(ctx, ev)
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
