package db

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/incident_triage/backend/internal/models"
)

func TestPostgresBackendIntegration(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	backend, err := NewPostgresBackend(ctx, url)
	if err != nil {
		t.Fatalf("db connect: %v", err)
	}
	defer backend.Close()

	collection := fmt.Sprintf("logs_test_%d", time.Now().UnixNano())
	t.Cleanup(func() {
		_, _ = backend.Pool.Exec(context.Background(), "DROP TABLE IF EXISTS "+collection)
	})

	store := New(backend, collection)
	if err := store.EnsureSchema(ctx); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	if err := store.EnsureSchema(ctx); err != nil {
		t.Fatalf("second ensure schema: %v", err)
	}

	recs := []models.NormalizedRecord{
		record("a_1", "O1", "M1", "one"),
		record("b_1", "O1", "M2", "two"),
	}
	if err := store.Upsert(ctx, recs); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	recs[0].Text = "one-updated"
	if err := store.Upsert(ctx, recs[:1]); err != nil {
		t.Fatalf("re-upsert: %v", err)
	}

	hits, err := store.Query(ctx, []Match{{Field: "order_no", Value: "O1"}, {Field: "merchant_id", Value: "M1"}}, 50)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(hits) != 1 || hits[0]["text"] != "one-updated" {
		t.Fatalf("unexpected hits: %v", hits)
	}
}
