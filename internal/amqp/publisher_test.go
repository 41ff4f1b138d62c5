package amqp

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dafibh/ledgerly/ledgerly-backend/internal/websocket"
	"github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type published struct {
	exchange string
	key      string
	msg      amqp091.Publishing
}

type fakeChannel struct {
	mu         sync.Mutex
	declared   []string
	declareErr error
	publishErr error
	published  []published
	closed     bool
	notify     chan *amqp091.Error
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{notify: make(chan *amqp091.Error, 1)}
}

func (f *fakeChannel) ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp091.Table) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.declareErr != nil {
		return f.declareErr
	}
	f.declared = append(f.declared, name+":"+kind)
	return nil
}

func (f *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp091.Publishing) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.publishErr != nil {
		return f.publishErr
	}
	f.published = append(f.published, published{exchange: exchange, key: key, msg: msg})
	return nil
}

func (f *fakeChannel) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// drop simulates the broker closing the connection
func (f *fakeChannel) drop() {
	f.mu.Lock()
	f.publishErr = amqp091.ErrClosed
	f.mu.Unlock()
	f.notify <- &amqp091.Error{Code: amqp091.ConnectionForced, Reason: "broker restart"}
}

func (f *fakeChannel) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.published)
}

func (f *fakeChannel) declaredCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.declared)
}

func (f *fakeChannel) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// fakeDialer hands out the channels in order, one per dial
type fakeDialer struct {
	mu       sync.Mutex
	channels []*fakeChannel
	dials    int
}

func (d *fakeDialer) dial(exchange string) (*session, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.dials >= len(d.channels) {
		return nil, errors.New("connection refused")
	}
	ch := d.channels[d.dials]
	d.dials++
	return newSession(nil, ch, ch.notify, exchange)
}

func newTestPublisher(t *testing.T, exchange string, channels ...*fakeChannel) *Publisher {
	t.Helper()
	dialer := &fakeDialer{channels: channels}
	p := newPublisher(exchange, zerolog.Nop(), dialer.dial)
	p.retryDelay = time.Millisecond
	require.NoError(t, p.connect())
	return p
}

func runPublisher(p *Publisher) (context.CancelFunc, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = p.Run(ctx)
		close(done)
	}()
	return cancel, done
}

func TestRoutingKey(t *testing.T) {
	assert.Equal(t, "ledgerly.transaction", RoutingKey(websocket.TransactionCreated(nil)))
	assert.Equal(t, "ledgerly.recurring", RoutingKey(websocket.RecurringDeleted(nil)))
	assert.Equal(t, "ledgerly.materialization", RoutingKey(websocket.MaterializationCompleted(nil)))
}

func TestNewPublisher_DeclaresTopicExchange(t *testing.T) {
	ch := newFakeChannel()
	p := newTestPublisher(t, "", ch)
	assert.Equal(t, DefaultExchange, p.exchange)
	assert.Equal(t, []string{DefaultExchange + ":topic"}, ch.declared)
}

func TestNewPublisher_DeclareFailureClosesChannel(t *testing.T) {
	ch := newFakeChannel()
	ch.declareErr = errors.New("access refused")
	dialer := &fakeDialer{channels: []*fakeChannel{ch}}
	p := newPublisher("events", zerolog.Nop(), dialer.dial)

	err := p.connect()
	assert.ErrorContains(t, err, "declare exchange")
	assert.True(t, ch.closed)
	assert.Nil(t, p.current())
}

func TestPublisher_RunDeliversQueuedEvents(t *testing.T) {
	ch := newFakeChannel()
	p := newTestPublisher(t, "events", ch)
	cancel, done := runPublisher(p)

	p.Publish(7, websocket.TransactionCreated(map[string]int{"id": 1}))
	p.Publish(7, websocket.MaterializationCompleted(map[string]int{"created": 1}))

	require.Eventually(t, func() bool { return ch.count() == 2 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done

	first := ch.published[0]
	assert.Equal(t, "events", first.exchange)
	assert.Equal(t, "ledgerly.transaction", first.key)
	assert.Equal(t, "application/json", first.msg.ContentType)
	assert.Equal(t, amqp091.Persistent, first.msg.DeliveryMode)
	assert.Equal(t, "transaction.created", first.msg.Type)

	var body struct {
		UserID int32 `json:"userId"`
		Event  struct {
			Type string `json:"type"`
		} `json:"event"`
	}
	require.NoError(t, json.Unmarshal(first.msg.Body, &body))
	assert.Equal(t, int32(7), body.UserID)
	assert.Equal(t, "transaction.created", body.Event.Type)

	assert.Equal(t, "ledgerly.materialization", ch.published[1].key)
}

func TestPublisher_RunReconnectsAfterConnectionLoss(t *testing.T) {
	first, second := newFakeChannel(), newFakeChannel()
	p := newTestPublisher(t, "events", first, second)
	cancel, done := runPublisher(p)
	defer func() {
		cancel()
		<-done
	}()

	p.Publish(1, websocket.TransactionCreated(nil))
	require.Eventually(t, func() bool { return first.count() == 1 }, time.Second, time.Millisecond)

	first.drop()
	require.Eventually(t, func() bool { return second.declaredCount() == 1 }, time.Second, time.Millisecond)
	assert.True(t, first.isClosed())

	p.Publish(1, websocket.RecurringCreated(nil))
	require.Eventually(t, func() bool { return second.count() == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, 1, first.count())
	assert.Equal(t, "ledgerly.recurring", second.published[0].key)
}

func TestPublisher_RunRetriesFailedDials(t *testing.T) {
	first, broken, third := newFakeChannel(), newFakeChannel(), newFakeChannel()
	broken.declareErr = errors.New("channel/connection is not open")
	p := newTestPublisher(t, "events", first, broken, third)
	cancel, done := runPublisher(p)
	defer func() {
		cancel()
		<-done
	}()

	first.drop()
	require.Eventually(t, func() bool { return third.declaredCount() == 1 }, time.Second, time.Millisecond)
	assert.True(t, broken.isClosed())

	p.Publish(2, websocket.BillCreated(nil))
	require.Eventually(t, func() bool { return third.count() == 1 }, time.Second, time.Millisecond)
}

func TestPublisher_RunStopsWhileReconnecting(t *testing.T) {
	ch := newFakeChannel()
	p := newTestPublisher(t, "events", ch)
	p.retryDelay = time.Hour
	cancel, done := runPublisher(p)

	ch.drop()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestPublisher_RunFlushesOnShutdown(t *testing.T) {
	ch := newFakeChannel()
	p := newTestPublisher(t, "events", ch)

	p.Publish(1, websocket.RecurringCreated(nil))
	p.Publish(1, websocket.RecurringUpdated(nil))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, p.Run(ctx))
	assert.Equal(t, 2, ch.count())
}

func TestPublisher_PublishDropsWhenFull(t *testing.T) {
	p := newTestPublisher(t, "events", newFakeChannel())

	for i := 0; i < bufferSize+10; i++ {
		p.Publish(1, websocket.TransactionCreated(nil))
	}
	assert.Len(t, p.queue, bufferSize)
}

func TestPublisher_PublishFailureIsLogged(t *testing.T) {
	ch := newFakeChannel()
	ch.publishErr = errors.New("channel closed")
	p := newTestPublisher(t, "events", ch)

	p.Publish(1, websocket.TransactionCreated(nil))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, p.Run(ctx))
	assert.Equal(t, 0, ch.count())
}

func TestPublisher_CloseIsIdempotent(t *testing.T) {
	ch := newFakeChannel()
	p := newTestPublisher(t, "events", ch)

	assert.NoError(t, p.Close())
	assert.NoError(t, p.Close())
	assert.True(t, ch.closed)
	assert.Nil(t, p.current())
}
