/*
Package rabbitmq publishes front-desk domain events to a RabbitMQ topic
exchange.

ROUTING:
  exchange    durable topic exchange, default "frontdesk.events"
  routing key the event type, e.g. "reservation.checked_out"

  Consumers bind with patterns such as "reservation.*" or "drawer.#".

DELIVERY:
  Messages are persistent JSON with a fresh message id. The engine publishes
  after commit and only logs a failure, so a broker outage never blocks the
  front desk.
*/
package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"github.com/warp/frontdesk/frontdesk"
	"github.com/warp/frontdesk/generic"
)

const (
	DefaultExchange = "frontdesk.events"
	exchangeKind    = "topic"
	publishTimeout  = 5 * time.Second
)

// Envelope is the message body consumers receive.
type Envelope struct {
	ID            string                `json:"id"`
	Type          frontdesk.EventType   `json:"type"`
	HotelID       generic.HotelID       `json:"hotel_id,omitempty"`
	ReservationID generic.ReservationID `json:"reservation_id,omitempty"`
	Folio         string                `json:"folio,omitempty"`
	ActorID       generic.UserID        `json:"actor_id,omitempty"`
	OccurredAt    time.Time             `json:"occurred_at"`
	Data          map[string]any        `json:"data,omitempty"`
}

// channel is the subset of *amqp.Channel the publisher uses.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher implements frontdesk.Publisher. One channel is shared; AMQP
// channels are not safe for concurrent publishes, hence the mutex.
type Publisher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	ch       channel
	exchange string
	log      zerolog.Logger
	newID    func() string
}

var _ frontdesk.Publisher = (*Publisher)(nil)

// Dial connects, declares the exchange and returns a ready publisher.
func Dial(url, exchange string, log zerolog.Logger) (*Publisher, error) {
	if exchange == "" {
		exchange = DefaultExchange
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, exchangeKind, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("rabbitmq exchange declare: %w", err)
	}
	p := newPublisher(ch, exchange, log)
	p.conn = conn
	return p, nil
}

func newPublisher(ch channel, exchange string, log zerolog.Logger) *Publisher {
	return &Publisher{
		ch:       ch,
		exchange: exchange,
		log:      log.With().Str("component", "rabbitmq").Str("exchange", exchange).Logger(),
		newID:    func() string { return uuid.NewString() },
	}
}

func envelope(id string, ev frontdesk.Event) Envelope {
	return Envelope{
		ID:            id,
		Type:          ev.Type,
		HotelID:       ev.HotelID,
		ReservationID: ev.ReservationID,
		Folio:         ev.Folio,
		ActorID:       ev.ActorID,
		OccurredAt:    ev.OccurredAt.UTC(),
		Data:          ev.Data,
	}
}

func (p *Publisher) Publish(ctx context.Context, ev frontdesk.Event) error {
	env := envelope(p.newID(), ev)
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	p.mu.Lock()
	defer p.mu.Unlock()
	err = p.ch.PublishWithContext(ctx, p.exchange, string(ev.Type), false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    env.ID,
		Timestamp:    env.OccurredAt,
		Type:         string(ev.Type),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", ev.Type, err)
	}
	p.log.Debug().Str("type", string(ev.Type)).Str("message_id", env.ID).Msg("event published")
	return nil
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var err error
	if p.ch != nil {
		err = p.ch.Close()
	}
	if p.conn != nil {
		if cerr := p.conn.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
