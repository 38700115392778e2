// Package service publishes row changes to the RabbitMQ change feed.
// Failures are logged and the change goes to the local hub instead, so a
// broker outage never fails the request that produced the change.
package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/roadready/internal/logger"
	"github.com/iliyamo/roadready/internal/queue"
	"github.com/iliyamo/roadready/internal/realtime"
)

// dialTimeout bounds a connection attempt; publishers wait on it under mu.
// After a failed attempt the broker is skipped for retryAfter.
var (
	dialTimeout = 2 * time.Second
	retryAfter  = 10 * time.Second
)

var errBrokerDown = errors.New("broker unavailable, retry pending")

// ChangePublisher implements realtime.Publisher on top of ChangesExchange.
type ChangePublisher struct {
	url      string
	origin   string
	fallback realtime.Publisher
	log      logger.ILogger
	dial     func(url string) (*amqp.Connection, error)
	now      func() time.Time

	mu        sync.Mutex
	conn      *amqp.Connection
	ch        *amqp.Channel
	downUntil time.Time
}

func dialBroker(url string) (*amqp.Connection, error) {
	return amqp.DialConfig(url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(dialTimeout),
	})
}

// NewChangePublisher returns a publisher for url.  An empty url disables the
// broker and every change goes straight to fallback.
func NewChangePublisher(url string, fallback realtime.Publisher, log logger.ILogger) *ChangePublisher {
	return &ChangePublisher{
		url:      url,
		origin:   uuid.NewString(),
		fallback: fallback,
		log:      log.With(logger.String("component", "change-publisher")),
		dial:     dialBroker,
		now:      time.Now,
	}
}

// Origin is this instance's id as stamped on published events.
func (p *ChangePublisher) Origin() string { return p.origin }

// Publish sends c to the exchange, or to the fallback when the broker is
// unavailable.  It only returns an error if the fallback fails too.
func (p *ChangePublisher) Publish(ctx context.Context, c realtime.Change) error {
	if p.url == "" {
		return p.fallback.Publish(ctx, c)
	}
	body, err := queue.ChangeEvent{Origin: p.origin, Change: c}.Encode()
	if err != nil {
		p.log.Error("marshal change failed", logger.Error(err))
		return p.fallback.Publish(ctx, c)
	}
	if err := p.publish(ctx, body); err != nil {
		p.log.Warning("publish change failed, delivering locally",
			logger.String("table", c.Table), logger.Error(err))
		return p.fallback.Publish(ctx, c)
	}
	return nil
}

func (p *ChangePublisher) publish(ctx context.Context, body []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.channel()
	if err != nil {
		return err
	}
	pub := amqp.Publishing{
		ContentType: "application/json",
		Timestamp:   time.Now().UTC(),
		Body:        body,
	}
	if err := ch.PublishWithContext(ctx, queue.ChangesExchange, "", false, false, pub); err != nil {
		p.reset()
		return err
	}
	return nil
}

// channel returns the cached channel, dialing when there is none.  Callers hold mu.
func (p *ChangePublisher) channel() (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	p.reset()
	if p.now().Before(p.downUntil) {
		return nil, errBrokerDown
	}
	conn, err := p.dial(p.url)
	if err != nil {
		p.downUntil = p.now().Add(retryAfter)
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	if err := queue.DeclareExchange(ch); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	p.conn, p.ch = conn, ch
	return ch, nil
}

func (p *ChangePublisher) reset() {
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}

// Close releases the broker connection.
func (p *ChangePublisher) Close() {
	p.mu.Lock()
	p.reset()
	p.mu.Unlock()
}
