// Package brokertest provides an in-memory broker.Subscription for tests.
package brokertest

import (
	"context"
	"sync"

	"github.com/incident_triage/backend/internal/broker"
)

type Subscription struct {
	mtx    sync.Mutex
	ch     chan broker.Delivery
	acked  []string
	nacked []string
	closed bool
}

func New() *Subscription {
	return &Subscription{ch: make(chan broker.Delivery, 64)}
}

// Publish queues body for delivery.
func (s *Subscription) Publish(body string) {
	s.ch <- &delivery{sub: s, body: body}
}

// End closes the delivery channel, as a dropped connection would.
func (s *Subscription) End() {
	close(s.ch)
}

func (s *Subscription) Deliveries(context.Context) (<-chan broker.Delivery, error) {
	return s.ch, nil
}

func (s *Subscription) Close() error {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	s.closed = true
	return nil
}

func (s *Subscription) Acked() []string {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return append([]string(nil), s.acked...)
}

func (s *Subscription) Nacked() []string {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return append([]string(nil), s.nacked...)
}

func (s *Subscription) Closed() bool {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return s.closed
}

type delivery struct {
	sub  *Subscription
	body string
}

func (d *delivery) Body() []byte { return []byte(d.body) }

func (d *delivery) Ack() error {
	d.sub.mtx.Lock()
	defer d.sub.mtx.Unlock()
	d.sub.acked = append(d.sub.acked, d.body)
	return nil
}

func (d *delivery) Nack() error {
	d.sub.mtx.Lock()
	defer d.sub.mtx.Unlock()
	d.sub.nacked = append(d.sub.nacked, d.body)
	return nil
}
