// Package ingest turns raw log events into stored records, from HTTP requests
// or a broker stream.
package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/incident_triage/backend/internal/broker"
	"github.com/incident_triage/backend/internal/models"
	"github.com/incident_triage/backend/internal/normalizer"
)

var ErrNoValidRecords = errors.New("no valid records in batch")

// Writer persists normalized records. Implemented by *db.Store.
type Writer interface {
	Upsert(ctx context.Context, records []models.NormalizedRecord) error
}

type Pipeline struct {
	Store        Writer
	BatchSize    int
	FlushTimeout time.Duration
	Logger       zerolog.Logger
}

func New(store Writer, batchSize int, flushTimeout time.Duration, logger zerolog.Logger) *Pipeline {
	if batchSize < 1 {
		batchSize = 1
	}
	if flushTimeout <= 0 {
		flushTimeout = 10 * time.Second
	}
	return &Pipeline{Store: store, BatchSize: batchSize, FlushTimeout: flushTimeout, Logger: logger}
}

// IngestOne validates, normalizes and stores a single event.
func (p *Pipeline) IngestOne(ctx context.Context, raw models.RawEvent) (models.NormalizedRecord, error) {
	rec, err := normalizer.Prepare(raw)
	if err != nil {
		return models.NormalizedRecord{}, err
	}
	if err := p.Store.Upsert(ctx, []models.NormalizedRecord{rec}); err != nil {
		return models.NormalizedRecord{}, err
	}
	return rec, nil
}

// IngestBatch stores every valid item in one write. Invalid items are skipped.
func (p *Pipeline) IngestBatch(ctx context.Context, items []json.RawMessage) ([]models.NormalizedRecord, error) {
	records := make([]models.NormalizedRecord, 0, len(items))
	for i, item := range items {
		raw, err := normalizer.ParseEvent(item)
		if err == nil {
			var rec models.NormalizedRecord
			if rec, err = normalizer.Prepare(raw); err == nil {
				records = append(records, rec)
				continue
			}
		}
		p.Logger.Warn().Err(err).Int("index", i).Msg("skipping invalid log in batch")
	}
	if len(records) == 0 {
		return nil, ErrNoValidRecords
	}
	if err := p.Store.Upsert(ctx, records); err != nil {
		return nil, err
	}
	return records, nil
}

// Consume reads sub until its channel closes or ctx is cancelled, writing
// records in batches of BatchSize. Messages are acked once buffered, so a
// failed write drops the batch.
func (p *Pipeline) Consume(ctx context.Context, sub broker.Subscription) error {
	defer func() {
		if err := sub.Close(); err != nil {
			p.Logger.Warn().Err(err).Msg("close subscription")
		}
	}()

	deliveries, err := sub.Deliveries(ctx)
	if err != nil {
		return err
	}

	batch := make([]models.NormalizedRecord, 0, p.BatchSize)
	// Buffered messages are already acked, so writes must outlive cancellation.
	flush := func() {
		if len(batch) == 0 {
			return
		}
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.FlushTimeout)
		defer cancel()
		if err := p.Store.Upsert(fctx, batch); err != nil {
			p.Logger.Error().Err(err).Int("records", len(batch)).Msg("batch upsert failed, dropping batch")
		} else {
			p.Logger.Info().Int("records", len(batch)).Msg("batch stored")
		}
		batch = batch[:0]
	}
	for {
		select {
		case <-ctx.Done():
			flush()
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				flush()
				return nil
			}
			rec, err := p.prepare(d.Body())
			if err != nil {
				p.Logger.Warn().Err(err).Msg("rejecting malformed log message")
				if err := d.Nack(); err != nil {
					p.Logger.Warn().Err(err).Msg("nack failed")
				}
				continue
			}
			batch = append(batch, rec)
			if err := d.Ack(); err != nil {
				p.Logger.Warn().Err(err).Msg("ack failed")
			}
			if len(batch) >= p.BatchSize {
				flush()
			}
		}
	}
}

// Run keeps a subscription alive, re-dialling after reconnectDelay whenever
// the previous one fails or ends. It returns when ctx is cancelled.
func (p *Pipeline) Run(ctx context.Context, dial broker.Dialer, reconnectDelay time.Duration) error {
	for {
		sub, err := dial(ctx)
		if err != nil {
			p.Logger.Error().Err(err).Dur("retry_in", reconnectDelay).Msg("broker connect failed")
		} else {
			p.Logger.Info().Msg("consuming log stream")
			if err := p.Consume(ctx, sub); err != nil && !errors.Is(err, context.Canceled) {
				p.Logger.Error().Err(err).Msg("consumer stopped")
			}
		}
		if ctx.Err() != nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(reconnectDelay):
		}
	}
}

func (p *Pipeline) prepare(body []byte) (models.NormalizedRecord, error) {
	raw, err := normalizer.ParseEvent(body)
	if err != nil {
		return models.NormalizedRecord{}, err
	}
	return normalizer.Prepare(raw)
}
