package db

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type qdrantEnvelope[T any] struct {
	Status qdrantStatus `json:"status"`
	Result T            `json:"result"`
}

type qdrantStatus struct {
	State string
	Error string
}

// Qdrant reports status either as a bare string or as {"error": "..."}.
func (s *qdrantStatus) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		s.State = strings.ToLower(v)
		return nil
	}
	var obj struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return err
	}
	if obj.Error != "" {
		s.State = "error"
		s.Error = obj.Error
	}
	return nil
}

type qdrantScrollResult struct {
	Points []struct {
		ID      json.RawMessage `json:"id"`
		Payload map[string]any  `json:"payload"`
	} `json:"points"`
}

type QdrantError struct {
	StatusCode int
	Body       string
}

func (e *QdrantError) Error() string {
	return fmt.Sprintf("qdrant http %d: %s", e.StatusCode, e.Body)
}

// QdrantBackend talks to the Qdrant REST API.
type QdrantBackend struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

func NewQdrantBackend(baseURL, apiKey string) *QdrantBackend {
	return &QdrantBackend{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		Client:  &http.Client{Timeout: 15 * time.Second},
	}
}

func (q *QdrantBackend) EnsureCollection(ctx context.Context, name string, vectorDim int) error {
	path := "/collections/" + url.PathEscape(name)

	err := q.do(ctx, http.MethodGet, path, nil, nil)
	if err == nil {
		return nil
	}
	var qerr *QdrantError
	if !errors.As(err, &qerr) || qerr.StatusCode != http.StatusNotFound {
		return err
	}

	req := map[string]any{
		"vectors": map[string]any{
			"size":     vectorDim,
			"distance": "Cosine",
		},
		"optimizers_config": map[string]any{
			"default_segment_number": 1,
		},
	}
	var rsp qdrantEnvelope[json.RawMessage]
	if err := q.do(ctx, http.MethodPut, path, req, &rsp); err != nil {
		if errors.As(err, &qerr) && (qerr.StatusCode == http.StatusConflict || strings.Contains(qerr.Body, "already exists")) {
			return ErrCollectionExists
		}
		return err
	}
	return rsp.Status.err()
}

func (q *QdrantBackend) Upsert(ctx context.Context, collection string, points []Point) error {
	body := make([]map[string]any, 0, len(points))
	for _, p := range points {
		body = append(body, map[string]any{
			"id":      p.ID,
			"vector":  p.Vector,
			"payload": p.Payload,
		})
	}
	path := fmt.Sprintf("/collections/%s/points?wait=true", url.PathEscape(collection))

	var rsp qdrantEnvelope[json.RawMessage]
	if err := q.do(ctx, http.MethodPut, path, map[string]any{"points": body}, &rsp); err != nil {
		return err
	}
	return rsp.Status.err()
}

func (q *QdrantBackend) Scroll(ctx context.Context, collection string, must []Match, limit int) ([]ScrollResult, error) {
	req := map[string]any{
		"limit":        limit,
		"with_payload": true,
		"with_vector":  false,
	}
	if len(must) > 0 {
		conds := make([]map[string]any, 0, len(must))
		for _, m := range must {
			conds = append(conds, map[string]any{
				"key":   m.Field,
				"match": map[string]any{"value": m.Value},
			})
		}
		req["filter"] = map[string]any{"must": conds}
	}
	path := fmt.Sprintf("/collections/%s/points/scroll", url.PathEscape(collection))

	var rsp qdrantEnvelope[qdrantScrollResult]
	if err := q.do(ctx, http.MethodPost, path, req, &rsp); err != nil {
		return nil, err
	}
	if err := rsp.Status.err(); err != nil {
		return nil, err
	}

	out := make([]ScrollResult, 0, len(rsp.Result.Points))
	for _, p := range rsp.Result.Points {
		out = append(out, ScrollResult{ID: pointID(p.ID), Payload: p.Payload})
	}
	return out, nil
}

func (q *QdrantBackend) Ping(ctx context.Context) error {
	return q.do(ctx, http.MethodGet, "/collections", nil, nil)
}

func (q *QdrantBackend) Close() {
	q.Client.CloseIdleConnections()
}

func (q *QdrantBackend) do(ctx context.Context, method string, path string, req any, rsp any) error {
	var buf io.Reader
	if req != nil {
		data, err := json.Marshal(req)
		if err != nil {
			return err
		}
		buf = bytes.NewReader(data)
	}

	request, err := http.NewRequestWithContext(ctx, method, q.BaseURL+path, buf)
	if err != nil {
		return err
	}
	request.Header.Set("Content-Type", "application/json")
	if len(q.APIKey) > 0 {
		request.Header.Set("api-key", q.APIKey)
	}

	response, err := q.Client.Do(request)
	if err != nil {
		return err
	}
	defer response.Body.Close()

	payload, err := io.ReadAll(response.Body)
	if err != nil {
		return err
	}
	if response.StatusCode >= 400 {
		return &QdrantError{StatusCode: response.StatusCode, Body: string(payload)}
	}

	if rsp != nil && len(payload) > 0 {
		dec := json.NewDecoder(bytes.NewReader(payload))
		dec.UseNumber()
		if err := dec.Decode(rsp); err != nil {
			return fmt.Errorf("decode qdrant response: %w", err)
		}
	}
	return nil
}

func (s qdrantStatus) err() error {
	if s.State == "error" || s.Error != "" {
		return errors.New(s.Error)
	}
	return nil
}

// pointID renders a Qdrant id, which may be a UUID string or an unsigned integer.
func pointID(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
