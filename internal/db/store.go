package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/incident_triage/backend/internal/models"
)

// VectorSize is the dimension of the placeholder vector. Nothing searches by it.
const VectorSize = 1

// Store adapts normalized records to a Backend collection.
type Store struct {
	Backend    Backend
	Collection string
}

func New(backend Backend, collection string) *Store {
	return &Store{Backend: backend, Collection: collection}
}

func (s *Store) Close() {
	s.Backend.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.Backend.Ping(ctx)
}

// EnsureSchema creates the collection if it is missing. Safe to call concurrently.
func (s *Store) EnsureSchema(ctx context.Context) error {
	err := s.Backend.EnsureCollection(ctx, s.Collection, VectorSize)
	if err != nil && !errors.Is(err, ErrCollectionExists) {
		return fmt.Errorf("ensure collection %s: %w", s.Collection, err)
	}
	return nil
}

// Upsert writes records in one batch, replacing any stored under the same id.
func (s *Store) Upsert(ctx context.Context, records []models.NormalizedRecord) error {
	if len(records) == 0 {
		return nil
	}
	if err := s.EnsureSchema(ctx); err != nil {
		return err
	}
	points := make([]Point, 0, len(records))
	for _, rec := range records {
		sr := ToStoreRecord(rec)
		points = append(points, Point{ID: sr.ID, Vector: sr.Vector, Payload: sr.Payload})
	}
	if err := s.Backend.Upsert(ctx, s.Collection, points); err != nil {
		return fmt.Errorf("upsert %d records: %w", len(points), err)
	}
	return nil
}

func (s *Store) QueryByField(ctx context.Context, field, value string, limit int) ([]map[string]any, error) {
	return s.Query(ctx, []Match{{Field: field, Value: value}}, limit)
}

// Query returns payloads of records matching all conditions, in the backend's scan order.
func (s *Store) Query(ctx context.Context, must []Match, limit int) ([]map[string]any, error) {
	if limit < 1 {
		return nil, nil
	}
	results, err := s.Backend.Scroll(ctx, s.Collection, must, limit)
	if err != nil {
		return nil, err
	}
	out := make([]map[string]any, 0, len(results))
	for _, r := range results {
		if r.Payload == nil {
			r.Payload = map[string]any{}
		}
		out = append(out, r.Payload)
	}
	return out, nil
}

// StoreID maps a record id onto the UUID shape the store requires. The
// namespace must never change or re-ingested events stop overwriting old ones.
func StoreID(id string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(id)).String()
}

func ToStoreRecord(rec models.NormalizedRecord) models.StoreRecord {
	payload := map[string]any{
		"id":                 rec.ID,
		"request_id":         rec.RequestID,
		"order_no":           rec.OrderNo,
		"order_id":           rec.OrderID,
		"trace_id":           rec.TraceID,
		"merchant_id":        rec.MerchantID,
		"branch_code":        rec.BranchCode,
		"channel":            rec.Channel,
		"module":             rec.Module,
		"operation":          rec.Operation,
		"resp_code":          rec.RespCode,
		"status":             rec.Status,
		"timestamp":          rec.Timestamp,
		"processing_time_ms": nil,
		"text":               rec.Text,
		"payload":            rec.Payload,
	}
	if rec.ProcessingTimeMs != nil {
		payload["processing_time_ms"] = *rec.ProcessingTimeMs
	}
	if rec.Amount != nil {
		payload["amount"] = *rec.Amount
	}
	return models.StoreRecord{
		ID:      StoreID(rec.ID),
		Vector:  make([]float32, VectorSize),
		Payload: payload,
	}
}
