package events

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
)

type recordingPublisher struct {
	events []Event
	err    error
}

func (r *recordingPublisher) Publish(_ context.Context, event Event) error {
	r.events = append(r.events, event)
	return r.err
}

func TestFanoutDeliversToAllAndSwallowsErrors(t *testing.T) {
	failing := &recordingPublisher{err: errors.New("broker down")}
	ok := &recordingPublisher{}
	var missing *RabbitPublisher

	fanout := NewFanout(failing, missing, ok)
	ev := New(BookingCreated, uuid.New(), uuid.New(), "pending", map[string]string{"total_price": "150.00"})

	if err := fanout.Publish(context.Background(), ev); err != nil {
		t.Fatalf("fanout must not return errors, got %v", err)
	}
	if len(failing.events) != 1 || len(ok.events) != 1 {
		t.Fatalf("expected both publishers to receive the event")
	}
	if len(fanout.publishers) != 2 {
		t.Fatalf("expected nil publisher to be skipped, got %d publishers", len(fanout.publishers))
	}
}

func TestNewRabbitPublisherDisabledWithoutURL(t *testing.T) {
	if NewRabbitPublisher("", "booking.events") != nil {
		t.Fatalf("expected nil publisher for empty url")
	}
}

func TestRabbitPublisherFailsFastOnSilentBroker(t *testing.T) {
	// accepts TCP but never speaks AMQP
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	var accepted atomic.Int32
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			accepted.Add(1)
			defer conn.Close()
		}
	}()

	p := NewRabbitPublisher("amqp://guest:guest@"+ln.Addr().String()+"/", "booking.events")
	p.timeout = 200 * time.Millisecond
	p.cooldown = time.Hour
	defer p.Close()

	event := New(BookingCreated, uuid.New(), uuid.New(), "pending", nil)

	start := time.Now()
	if err := p.Publish(context.Background(), event); err == nil {
		t.Fatalf("expected publish to fail against a silent broker")
	}
	if elapsed := time.Since(start); elapsed > 3*time.Second {
		t.Fatalf("dial was not bounded, took %s", elapsed)
	}

	start = time.Now()
	if err := p.Publish(context.Background(), event); !errors.Is(err, errBrokerUnavailable) {
		t.Fatalf("expected cooldown error, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Fatalf("publish during cooldown should not dial, took %s", elapsed)
	}
	if n := accepted.Load(); n != 1 {
		t.Fatalf("expected a single dial attempt, got %d", n)
	}
}

func TestConsumerProcess(t *testing.T) {
	var got []Event
	c := NewConsumer("amqp://unused", "booking.events", 0, func(_ context.Context, ev Event) error {
		got = append(got, ev)
		return nil
	})

	ev := New(BookingStatusChanged, uuid.New(), uuid.New(), "approved", nil)
	body, _ := json.Marshal(ev)

	if err := c.Process(context.Background(), body); err != nil {
		t.Fatalf("process: %v", err)
	}
	if len(got) != 1 || got[0].ID != ev.ID || got[0].Status != "approved" {
		t.Fatalf("unexpected handled events: %+v", got)
	}

	if err := c.Process(context.Background(), []byte("{not json")); !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed for bad json, got %v", err)
	}
	if err := c.Process(context.Background(), []byte(`{"type":"booking.created"}`)); !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed for missing booking id, got %v", err)
	}
}

func TestConsumerHandlerErrorIsNotMalformed(t *testing.T) {
	boom := errors.New("db unavailable")
	c := NewConsumer("amqp://unused", "booking.events", 5, func(context.Context, Event) error { return boom })

	body, _ := json.Marshal(New(DeliveryCreated, uuid.New(), uuid.New(), "", nil))
	err := c.Process(context.Background(), body)
	if !errors.Is(err, boom) || errors.Is(err, ErrMalformed) {
		t.Fatalf("expected handler error to pass through, got %v", err)
	}
}
