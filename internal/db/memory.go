package db

import (
	"context"
	"fmt"
	"maps"
	"sync"
)

type memoryCollection struct {
	dim    int
	order  []string
	points map[string]Point
}

// MemoryBackend keeps collections in process memory. Scroll order is first-insert order.
type MemoryBackend struct {
	mtx         sync.RWMutex
	collections map[string]*memoryCollection
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{collections: map[string]*memoryCollection{}}
}

func (m *MemoryBackend) EnsureCollection(_ context.Context, name string, vectorDim int) error {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	if _, ok := m.collections[name]; ok {
		return ErrCollectionExists
	}
	m.collections[name] = &memoryCollection{dim: vectorDim, points: map[string]Point{}}
	return nil
}

func (m *MemoryBackend) Upsert(_ context.Context, collection string, points []Point) error {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	c, ok := m.collections[collection]
	if !ok {
		return fmt.Errorf("collection %s not found", collection)
	}
	for _, p := range points {
		if len(p.Vector) != c.dim {
			return fmt.Errorf("point %s: vector dimension %d, expected %d", p.ID, len(p.Vector), c.dim)
		}
	}
	for _, p := range points {
		if _, exists := c.points[p.ID]; !exists {
			c.order = append(c.order, p.ID)
		}
		c.points[p.ID] = Point{ID: p.ID, Vector: append([]float32(nil), p.Vector...), Payload: maps.Clone(p.Payload)}
	}
	return nil
}

func (m *MemoryBackend) Scroll(_ context.Context, collection string, must []Match, limit int) ([]ScrollResult, error) {
	m.mtx.RLock()
	defer m.mtx.RUnlock()
	c, ok := m.collections[collection]
	if !ok {
		return nil, fmt.Errorf("collection %s not found", collection)
	}
	var out []ScrollResult
	for _, id := range c.order {
		if len(out) >= limit {
			break
		}
		p := c.points[id]
		if matchesAll(p.Payload, must) {
			out = append(out, ScrollResult{ID: id, Payload: maps.Clone(p.Payload)})
		}
	}
	return out, nil
}

// Len reports how many points a collection holds.
func (m *MemoryBackend) Len(collection string) int {
	m.mtx.RLock()
	defer m.mtx.RUnlock()
	if c, ok := m.collections[collection]; ok {
		return len(c.points)
	}
	return 0
}

func (m *MemoryBackend) Ping(context.Context) error { return nil }

func (m *MemoryBackend) Close() {}

func matchesAll(payload map[string]any, must []Match) bool {
	for _, cond := range must {
		v, ok := payload[cond.Field].(string)
		if !ok || v != cond.Value {
			return false
		}
	}
	return true
}
