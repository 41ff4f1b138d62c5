package amqp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/dafibh/ledgerly/ledgerly-backend/internal/websocket"
	"github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

const (
	// DefaultExchange receives every domain event
	DefaultExchange = "ledgerly.events"

	routingKeyPrefix = "ledgerly."
	publishTimeout   = 5 * time.Second
	bufferSize       = 256

	initialRetryDelay = time.Second
	maxRetryDelay     = 30 * time.Second
)

// Message is the body published for each event
type Message struct {
	UserID int32           `json:"userId"`
	Event  websocket.Event `json:"event"`
}

// RoutingKey returns the key an event is published with, e.g. "ledgerly.transaction"
func RoutingKey(event websocket.Event) string {
	return routingKeyPrefix + string(event.Entity)
}

// channel is the subset of *amqp091.Channel the publisher uses
type channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp091.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
	Close() error
}

// session is one live broker connection with its channel. closed fires when
// the connection drops.
type session struct {
	conn    io.Closer
	channel channel
	closed  <-chan *amqp091.Error
}

func (s *session) close() {
	if s.channel != nil {
		s.channel.Close()
	}
	if s.conn != nil {
		s.conn.Close()
	}
}

type dialFunc func(exchange string) (*session, error)

// Publisher forwards events to a topic exchange. Publish never blocks:
// events are queued and sent by Run, which also re-dials after the broker
// drops the connection.
type Publisher struct {
	dial       dialFunc
	exchange   string
	queue      chan Message
	logger     zerolog.Logger
	retryDelay time.Duration

	mu        sync.Mutex
	session   *session
	closeOnce sync.Once
}

// Ensure Publisher implements websocket.EventPublisher
var _ websocket.EventPublisher = (*Publisher)(nil)

// Dial connects to the broker and declares the exchange
func Dial(url, exchange string, logger zerolog.Logger) (*Publisher, error) {
	p := newPublisher(exchange, logger, func(exchange string) (*session, error) {
		return openSession(url, exchange)
	})
	if err := p.connect(); err != nil {
		return nil, err
	}
	return p, nil
}

func openSession(url, exchange string) (*session, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	return newSession(conn, ch, conn.NotifyClose(make(chan *amqp091.Error, 1)), exchange)
}

// newSession declares the exchange on ch and closes everything on failure
func newSession(conn io.Closer, ch channel, closed <-chan *amqp091.Error, exchange string) (*session, error) {
	s := &session{conn: conn, channel: ch, closed: closed}

	err := ch.ExchangeDeclare(
		exchange, // name
		"topic",  // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		s.close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	return s, nil
}

func newPublisher(exchange string, logger zerolog.Logger, dial dialFunc) *Publisher {
	if exchange == "" {
		exchange = DefaultExchange
	}
	return &Publisher{
		dial:       dial,
		exchange:   exchange,
		queue:      make(chan Message, bufferSize),
		logger:     logger.With().Str("component", "amqp").Str("exchange", exchange).Logger(),
		retryDelay: initialRetryDelay,
	}
}

// connect replaces the current session with a fresh one
func (p *Publisher) connect() error {
	s, err := p.dial(p.exchange)
	if err != nil {
		return err
	}

	p.mu.Lock()
	old := p.session
	p.session = s
	p.mu.Unlock()

	if old != nil {
		old.close()
	}
	return nil
}

func (p *Publisher) current() *session {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.session
}

// reconnect dials with exponential backoff until it succeeds or ctx ends
func (p *Publisher) reconnect(ctx context.Context) bool {
	delay := p.retryDelay
	for attempt := 1; ; attempt++ {
		select {
		case <-ctx.Done():
			return false
		case <-time.After(delay):
		}

		if err := p.connect(); err != nil {
			p.logger.Warn().Err(err).Int("attempt", attempt).Msg("AMQP reconnect failed")
			delay = min(delay*2, maxRetryDelay)
			continue
		}
		p.logger.Info().Int("attempt", attempt).Msg("AMQP connection restored")
		return true
	}
}

// Publish queues an event for delivery. Events are dropped when the queue is full.
func (p *Publisher) Publish(userID int32, event websocket.Event) {
	select {
	case p.queue <- Message{UserID: userID, Event: event}:
	default:
		p.logger.Warn().Int32("user_id", userID).Str("event", event.Type).Msg("AMQP queue full, dropping event")
	}
}

// Run sends queued events until ctx is cancelled, then flushes what is left.
// A dropped connection is re-established before sending resumes.
func (p *Publisher) Run(ctx context.Context) error {
	for {
		var closed <-chan *amqp091.Error
		if s := p.current(); s != nil {
			closed = s.closed
		}

		select {
		case <-ctx.Done():
			p.drain()
			return nil
		case amqpErr := <-closed:
			p.logger.Warn().Interface("reason", amqpErr).Msg("AMQP connection lost, reconnecting")
			if !p.reconnect(ctx) {
				p.drain()
				return nil
			}
		case msg := <-p.queue:
			p.send(ctx, msg)
		}
	}
}

func (p *Publisher) drain() {
	for {
		select {
		case msg := <-p.queue:
			p.send(context.Background(), msg)
		default:
			return
		}
	}
}

func (p *Publisher) send(ctx context.Context, msg Message) {
	if err := p.publish(ctx, msg); err != nil {
		p.logger.Error().Err(err).
			Int32("user_id", msg.UserID).
			Str("event", msg.Event.Type).
			Msg("Failed to publish event")
	}
}

func (p *Publisher) publish(ctx context.Context, msg Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	s := p.current()
	if s == nil {
		return errors.New("not connected")
	}

	err = s.channel.PublishWithContext(
		ctx,
		p.exchange,            // exchange
		RoutingKey(msg.Event), // routing key
		false,                 // mandatory
		false,                 // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    msg.Event.Timestamp,
			Type:         msg.Event.Type,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}
	return nil
}

// Close closes the channel and the connection
func (p *Publisher) Close() error {
	p.closeOnce.Do(func() {
		p.mu.Lock()
		s := p.session
		p.session = nil
		p.mu.Unlock()

		if s != nil {
			s.close()
		}
	})
	return nil
}
