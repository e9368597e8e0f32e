// Package events publishes domain events after their transaction commits.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/sirupsen/logrus"
)

const (
	SubjectAuctionClosed   = "market.auction.closed"
	SubjectBidPlaced       = "market.bid.placed"
	SubjectPaymentSettled  = "market.payment.settled"
	SubjectEarningsCleared = "market.earnings.cleared"

	streamName = "MARKET_EVENTS"
)

type Publisher interface {
	Publish(ctx context.Context, subject string, data any) error
}

// Envelope is the wire shape of every event.
type Envelope struct {
	EventID    string          `json:"event_id"`
	Subject    string          `json:"subject"`
	OccurredAt time.Time       `json:"occurred_at"`
	Data       json.RawMessage `json:"data"`
}

func encode(subject string, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", subject, err)
	}
	return json.Marshal(Envelope{
		EventID:    uuid.NewString(),
		Subject:    subject,
		OccurredAt: time.Now().UTC(),
		Data:       raw,
	})
}

// Emit publishes and logs failures. Events never fail the caller.
func Emit(ctx context.Context, p Publisher, log *logrus.Entry, subject string, data any) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, subject, data); err != nil {
		log.WithError(err).WithField("subject", subject).Warn("event publish failed")
	}
}

// NATSPublisher writes events to a JetStream stream.
type NATSPublisher struct {
	conn *nats.Conn
	js   jetstream.JetStream
}

func NewNATSPublisher(ctx context.Context, url string) (*NATSPublisher, error) {
	conn, err := nats.Connect(url, nats.Name("marketplace-app"))
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:        streamName,
		Description: "Marketplace domain events",
		Subjects:    []string{"market.>"},
		Storage:     jetstream.FileStorage,
		MaxAge:      7 * 24 * time.Hour,
		Replicas:    1,
	})
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("create/update stream: %w", err)
	}
	return &NATSPublisher{conn: conn, js: js}, nil
}

func (p *NATSPublisher) Publish(ctx context.Context, subject string, data any) error {
	msg, err := encode(subject, data)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(ctx, subject, msg)
	return err
}

func (p *NATSPublisher) Close() {
	p.conn.Close()
}

// Nop discards events.
type Nop struct{}

func (Nop) Publish(context.Context, string, any) error { return nil }

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Envelope
}

func (r *Recorder) Publish(_ context.Context, subject string, data any) error {
	msg, err := encode(subject, data)
	if err != nil {
		return err
	}
	var env Envelope
	if err := json.Unmarshal(msg, &env); err != nil {
		return err
	}
	r.mu.Lock()
	r.events = append(r.events, env)
	r.mu.Unlock()
	return nil
}

func (r *Recorder) Subjects() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Subject
	}
	return out
}

func (r *Recorder) Events() []Envelope {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Envelope(nil), r.events...)
}
