package db

import (
	"context"
	"errors"
)

// ErrCollectionExists is returned by a Backend that lost a create race; the
// Store treats it as success.
var ErrCollectionExists = errors.New("collection already exists")

// Match is an exact-match condition on one payload field.
type Match struct {
	Field string
	Value string
}

// Backend is the metadata store collaborator. Upsert replaces points whose id
// already exists; Scroll returns payloads matching every condition.
type Backend interface {
	EnsureCollection(ctx context.Context, name string, vectorDim int) error
	Upsert(ctx context.Context, collection string, points []Point) error
	Scroll(ctx context.Context, collection string, must []Match, limit int) ([]ScrollResult, error)
	Ping(ctx context.Context) error
	Close()
}

type Point struct {
	ID      string
	Vector  []float32
	Payload map[string]any
}

type ScrollResult struct {
	ID      string
	Payload map[string]any
}
