// Package broker abstracts the message stream the log consumer reads from.
package broker

import "context"

// Delivery is one message. Ack and Nack settle it with the broker.
type Delivery interface {
	Body() []byte
	Ack() error
	Nack() error
}

// Subscription yields deliveries until the context is cancelled or the
// connection drops, at which point the channel is closed.
type Subscription interface {
	Deliveries(ctx context.Context) (<-chan Delivery, error)
	Close() error
}

// Dialer opens a fresh Subscription, used when reconnecting.
type Dialer func(ctx context.Context) (Subscription, error)
