package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/roadready/internal/logger"
	"github.com/iliyamo/roadready/internal/realtime"
)

const maxBackoff = 30 * time.Second

// Consumer binds an exclusive queue to ChangesExchange and broadcasts every
// change it receives into the local hub.
type Consumer struct {
	URL string
	Hub *realtime.Hub
	Log logger.ILogger
}

func NewConsumer(url string, hub *realtime.Hub, log logger.ILogger) *Consumer {
	return &Consumer{URL: url, Hub: hub, Log: log.With(logger.String("component", "change-consumer"))}
}

// Run consumes until ctx is cancelled, reconnecting with capped exponential
// backoff whenever the broker goes away.  It returns nil on cancellation.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.URL)
		if err != nil {
			c.Log.Warning("dial broker failed", logger.Error(err), logger.Duration("retry_in", backoff))
			if !sleep(ctx, backoff) {
				return nil
			}
			if backoff < maxBackoff {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consumeLoop(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return nil
		}
		c.Log.Warning("consume loop ended, reconnecting", logger.Error(err))
		if !sleep(ctx, 2*time.Second) {
			return nil
		}
	}
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.Log.Warning("set QoS failed", logger.Error(err))
	}
	if err := declareExchange(ch); err != nil {
		return err
	}
	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	if err := ch.QueueBind(q.Name, "", ChangesExchange, false, nil); err != nil {
		return fmt.Errorf("queue bind: %w", err)
	}
	msgs, err := ch.Consume(q.Name, "", false, true, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}
	c.Log.Info("consuming changes", logger.String("queue", q.Name))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := c.Dispatch(d.Body); err != nil {
				c.Log.Error("handle change failed", logger.Error(err))
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// Dispatch decodes one message body and broadcasts its change.
func (c *Consumer) Dispatch(body []byte) error {
	ev, err := DecodeChangeEvent(body)
	if err != nil {
		return err
	}
	n := c.Hub.Broadcast(ev.Change)
	c.Log.Debug("change dispatched",
		logger.String("table", ev.Change.Table),
		logger.String("type", string(ev.Change.Type)),
		logger.String("origin", ev.Origin),
		logger.Int("subscribers", n))
	return nil
}

// DeclareExchange declares ChangesExchange as a durable fanout exchange.
// Publisher and consumer both call it so either may start first.
func DeclareExchange(ch *amqp.Channel) error { return declareExchange(ch) }

func declareExchange(ch *amqp.Channel) error {
	if err := ch.ExchangeDeclare(ChangesExchange, amqp.ExchangeFanout, true, false, false, false, nil); err != nil {
		return fmt.Errorf("exchange declare: %w", err)
	}
	return nil
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
