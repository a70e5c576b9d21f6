package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher sends events to durable queues on the default exchange.  A
// connection is dialled per publish; order transitions are rare enough
// that a long-lived channel is not worth its reconnect logic.
type Publisher struct {
	url     string
	timeout time.Duration
}

// defaultDialTimeout bounds both the TCP connect and the AMQP handshake.
const defaultDialTimeout = 2 * time.Second

func NewPublisher(url string) *Publisher {
	return &Publisher{url: url, timeout: defaultDialTimeout}
}

// dialTimeout is the publisher timeout, shortened to the context deadline.
func (p *Publisher) dialTimeout(ctx context.Context) time.Duration {
	d := p.timeout
	if dl, ok := ctx.Deadline(); ok {
		if left := time.Until(dl); left < d {
			d = left
		}
	}
	return d
}

// Publish declares ev.Type as a durable queue and sends ev to it as a
// persistent JSON message.
func (p *Publisher) Publish(ctx context.Context, ev OrderEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	conn, err := amqp.DialConfig(p.url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(p.dialTimeout(ctx)),
	})
	if err != nil {
		return fmt.Errorf("dial broker: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(ev.Type, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare %s: %w", ev.Type, err)
	}

	return ch.PublishWithContext(ctx, "", ev.Type, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    ev.EventID,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
}
