package broker

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

type RabbitMQConfig struct {
	URL      string
	Queue    string
	Prefetch int
}

// RabbitMQ consumes a durable queue with manual acknowledgements.
type RabbitMQ struct {
	conn    *amqp.Connection
	ch      *amqp.Channel
	queue   string
	tag     string
	closing chan *amqp.Error
}

func DialRabbitMQ(cfg RabbitMQConfig) (*RabbitMQ, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if cfg.Prefetch > 0 {
		if err := ch.Qos(cfg.Prefetch, 0, false); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("set prefetch: %w", err)
		}
	}
	if _, err := ch.QueueDeclare(cfg.Queue, true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("declare queue %s: %w", cfg.Queue, err)
	}
	return &RabbitMQ{
		conn:    conn,
		ch:      ch,
		queue:   cfg.Queue,
		tag:     "log-consumer",
		closing: conn.NotifyClose(make(chan *amqp.Error, 1)),
	}, nil
}

// RabbitMQDialer adapts DialRabbitMQ to a Dialer.
func RabbitMQDialer(cfg RabbitMQConfig) Dialer {
	return func(context.Context) (Subscription, error) {
		return DialRabbitMQ(cfg)
	}
}

func (r *RabbitMQ) Deliveries(ctx context.Context) (<-chan Delivery, error) {
	msgs, err := r.ch.ConsumeWithContext(ctx, r.queue, r.tag, false, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("consume %s: %w", r.queue, err)
	}
	out := make(chan Delivery)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case <-r.closing:
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				select {
				case out <- rabbitDelivery{msg: msg}:
				case <-ctx.Done():
					_ = msg.Nack(false, true)
					return
				}
			}
		}
	}()
	return out, nil
}

func (r *RabbitMQ) Close() error {
	if r.conn.IsClosed() {
		return nil
	}
	return r.conn.Close()
}

type rabbitDelivery struct {
	msg amqp.Delivery
}

func (d rabbitDelivery) Body() []byte { return d.msg.Body }

func (d rabbitDelivery) Ack() error { return d.msg.Ack(false) }

// Nack drops the message; malformed logs are not retried.
func (d rabbitDelivery) Nack() error { return d.msg.Nack(false, false) }
