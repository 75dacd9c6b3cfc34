package db

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/incident_triage/backend/internal/models"
)

func record(id, orderNo, merchantID, text string) models.NormalizedRecord {
	return models.NormalizedRecord{ID: id, OrderNo: orderNo, MerchantID: merchantID, Text: text, Timestamp: 1}
}

func TestStoreIDIsStableUUIDv5(t *testing.T) {
	a := StoreID("req-1_1700000000000")
	b := StoreID("req-1_1700000000000")
	if a != b {
		t.Fatalf("expected stable id, got %s and %s", a, b)
	}
	parsed, err := uuid.Parse(a)
	if err != nil {
		t.Fatalf("expected uuid, got %s: %v", a, err)
	}
	if parsed.Version() != 5 {
		t.Fatalf("expected version 5, got %d", parsed.Version())
	}
	// Ids written by other producers of the same collection must line up.
	if a != "06dca53c-8733-58d8-9b4f-bf9ddded457d" {
		t.Fatalf("expected URL-namespace uuid5, got %s", a)
	}
	if StoreID("req-2_1700000000000") == a {
		t.Fatalf("expected different ids for different records")
	}
}

func TestUpsertSameIDOverwrites(t *testing.T) {
	ctx := context.Background()
	mem := NewMemoryBackend()
	store := New(mem, "logs")

	if err := store.Upsert(ctx, []models.NormalizedRecord{record("r1_1", "A", "M1", "first")}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := store.Upsert(ctx, []models.NormalizedRecord{record("r1_1", "A", "M1", "second")}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if got := mem.Len("logs"); got != 1 {
		t.Fatalf("expected 1 stored record, got %d", got)
	}

	hits, err := store.QueryByField(ctx, "order_no", "A", 10)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(hits) != 1 || hits[0]["text"] != "second" {
		t.Fatalf("expected latest write to win, got %v", hits)
	}
}

func TestUpsertEmptyIsNoop(t *testing.T) {
	mem := NewMemoryBackend()
	store := New(mem, "logs")
	if err := store.Upsert(context.Background(), nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := mem.Scroll(context.Background(), "logs", nil, 10); err == nil {
		t.Fatalf("expected collection not to be created for an empty batch")
	}
}

func TestStoreRecordAmount(t *testing.T) {
	rec := record("r1_1", "A", "M1", "x")
	if _, ok := ToStoreRecord(rec).Payload["amount"]; ok {
		t.Fatalf("expected amount key to be absent")
	}

	zero := 0.0
	rec.Amount = &zero
	v, ok := ToStoreRecord(rec).Payload["amount"]
	if !ok || v != 0.0 {
		t.Fatalf("expected present zero amount, got %v", v)
	}
}

func TestStoreRecordShape(t *testing.T) {
	pt := int64(120)
	rec := record("r1_1", "A", "M1", "x")
	rec.ProcessingTimeMs = &pt
	sr := ToStoreRecord(rec)
	if len(sr.Vector) != VectorSize {
		t.Fatalf("expected vector of size %d, got %d", VectorSize, len(sr.Vector))
	}
	if sr.Payload["id"] != "r1_1" {
		t.Fatalf("expected original id in payload, got %v", sr.Payload["id"])
	}
	if sr.Payload["processing_time_ms"] != int64(120) {
		t.Fatalf("unexpected processing time: %v", sr.Payload["processing_time_ms"])
	}
	if v, ok := ToStoreRecord(record("r2_1", "", "", "")).Payload["processing_time_ms"]; !ok || v != nil {
		t.Fatalf("expected explicit nil processing time, got %v", v)
	}
}

func TestQueryMatchesAllConditions(t *testing.T) {
	ctx := context.Background()
	store := New(NewMemoryBackend(), "logs")
	err := store.Upsert(ctx, []models.NormalizedRecord{
		record("a_1", "O1", "M1", "one"),
		record("b_1", "O1", "M2", "two"),
		record("c_1", "O2", "M1", "three"),
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}

	hits, err := store.Query(ctx, []Match{{Field: "order_no", Value: "O1"}, {Field: "merchant_id", Value: "M1"}}, 50)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(hits) != 1 || hits[0]["text"] != "one" {
		t.Fatalf("expected single AND match, got %v", hits)
	}

	hits, _ = store.QueryByField(ctx, "order_no", "O1", 1)
	if len(hits) != 1 {
		t.Fatalf("expected limit to cap results, got %d", len(hits))
	}

	hits, _ = store.QueryByField(ctx, "order_no", "O1", 0)
	if len(hits) != 0 {
		t.Fatalf("expected no results for zero limit, got %d", len(hits))
	}
}

type racingBackend struct {
	*MemoryBackend
	ensureErr error
}

func (r *racingBackend) EnsureCollection(ctx context.Context, name string, dim int) error {
	_ = r.MemoryBackend.EnsureCollection(ctx, name, dim)
	return r.ensureErr
}

func TestEnsureSchemaToleratesLostRace(t *testing.T) {
	store := New(&racingBackend{MemoryBackend: NewMemoryBackend(), ensureErr: ErrCollectionExists}, "logs")
	if err := store.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("expected lost race to count as success, got %v", err)
	}
	if err := store.Upsert(context.Background(), []models.NormalizedRecord{record("a_1", "O", "M", "t")}); err != nil {
		t.Fatalf("upsert after race: %v", err)
	}

	boom := errors.New("boom")
	store = New(&racingBackend{MemoryBackend: NewMemoryBackend(), ensureErr: boom}, "logs")
	if err := store.EnsureSchema(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped backend error, got %v", err)
	}
}

func TestQueryUnknownCollectionErrors(t *testing.T) {
	store := New(NewMemoryBackend(), "missing")
	if _, err := store.QueryByField(context.Background(), "order_no", "A", 10); err == nil {
		t.Fatalf("expected error for missing collection")
	}
}

func TestOpenSelectsBackend(t *testing.T) {
	ctx := context.Background()
	store, err := Open(ctx, OpenConfig{Backend: "memory", Collection: "logs"})
	if err != nil {
		t.Fatalf("open memory: %v", err)
	}
	if _, ok := store.Backend.(*MemoryBackend); !ok {
		t.Fatalf("expected memory backend, got %T", store.Backend)
	}

	store, err = Open(ctx, OpenConfig{QdrantURL: "http://localhost:6333", Collection: "logs"})
	if err != nil {
		t.Fatalf("open qdrant: %v", err)
	}
	if _, ok := store.Backend.(*QdrantBackend); !ok {
		t.Fatalf("expected qdrant backend by default, got %T", store.Backend)
	}

	if _, err := Open(ctx, OpenConfig{Backend: "postgres"}); err == nil {
		t.Fatalf("expected error without DATABASE_URL")
	}
	if _, err := Open(ctx, OpenConfig{Backend: "cassandra"}); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}
