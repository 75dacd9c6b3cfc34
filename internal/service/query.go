package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/incident_triage/backend/internal/db"
)

const DefaultSearchLimit = 50

var ErrInvalidRequest = errors.New("at least one of order_no, merchant_id, request_id is required")

// Searcher runs exact-match lookups. Implemented by *db.Store.
type Searcher interface {
	Query(ctx context.Context, must []db.Match, limit int) ([]map[string]any, error)
}

type SearchParams struct {
	OrderNo    string
	MerchantID string
	RequestID  string
	Limit      int
}

func (p SearchParams) conditions() []db.Match {
	var must []db.Match
	if p.OrderNo != "" {
		must = append(must, db.Match{Field: "order_no", Value: p.OrderNo})
	}
	if p.MerchantID != "" {
		must = append(must, db.Match{Field: "merchant_id", Value: p.MerchantID})
	}
	if p.RequestID != "" {
		must = append(must, db.Match{Field: "request_id", Value: p.RequestID})
	}
	return must
}

type QueryService struct {
	Store  Searcher
	Logger zerolog.Logger
}

// Search returns stored payloads matching every non-empty identifier. Store
// failures are logged and reported as no results.
func (s *QueryService) Search(ctx context.Context, params SearchParams) ([]map[string]any, error) {
	must := params.conditions()
	if len(must) == 0 {
		return nil, ErrInvalidRequest
	}
	limit := params.Limit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	hits, err := s.Store.Query(ctx, must, limit)
	if err != nil {
		s.Logger.Warn().Err(err).
			Str("order_no", params.OrderNo).
			Str("merchant_id", params.MerchantID).
			Str("request_id", params.RequestID).
			Msg("log search failed")
		return []map[string]any{}, nil
	}
	if hits == nil {
		hits = []map[string]any{}
	}
	return hits, nil
}
