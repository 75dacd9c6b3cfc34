package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

type OpenConfig struct {
	Backend      string
	QdrantURL    string
	QdrantAPIKey string
	DatabaseURL  string
	Collection   string
}

// Open builds the Store for the configured backend: qdrant, postgres or memory.
func Open(ctx context.Context, cfg OpenConfig) (*Store, error) {
	switch strings.ToLower(cfg.Backend) {
	case "", "qdrant":
		return New(NewQdrantBackend(cfg.QdrantURL, cfg.QdrantAPIKey), cfg.Collection), nil
	case "postgres", "pgvector":
		if cfg.DatabaseURL == "" {
			return nil, errors.New("DATABASE_URL is required for the postgres store backend")
		}
		backend, err := NewPostgresBackend(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		return New(backend, cfg.Collection), nil
	case "memory":
		return New(NewMemoryBackend(), cfg.Collection), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}
