package normalizer

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/incident_triage/backend/internal/models"
)

// ErrNotArray is returned by ParseBatch when the body is not a JSON array.
var ErrNotArray = errors.New("body must be a JSON array of logs")

// ParseEvent decodes one raw event, keeping numbers as json.Number.
func ParseEvent(body []byte) (models.RawEvent, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, &ValidationError{Reason: fmt.Sprintf("malformed JSON: %v", err)}
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, &ValidationError{Reason: "malformed JSON: trailing data after object"}
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, &ValidationError{Reason: "log must be a JSON object"}
	}
	return models.RawEvent(obj), nil
}

// ParseBatch splits a JSON array body into its raw items without interpreting them.
func ParseBatch(body []byte) ([]json.RawMessage, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotArray, err)
	}
	return items, nil
}
