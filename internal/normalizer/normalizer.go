package normalizer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/incident_triage/backend/internal/models"
	"github.com/incident_triage/backend/internal/utils"
)

const maxResponseLength = 500

// Source paths per target field, tried in order; the first present, non-blank
// value wins. "data.x" reads key x of the nested data object.
var aliases = map[string][]string{
	"request_id":  {"requestId", "data.requestId", "data.request_id"},
	"order_no":    {"data.orderNo", "data.order_no"},
	"order_id":    {"data.orderId", "data.order_id"},
	"trace_id":    {"data.traceId", "data.trace_id"},
	"merchant_id": {"data.merchantId", "data.merchant_id"},
	"branch_code": {"data.branchCode", "data.branch_code"},
	"channel":     {"data.channel"},
	"status":      {"data.status"},
	"resp_code":   {"respCode", "data.respCode", "data.responseCode", "data.errorCode"},
	"module":      {"module"},
	"operation":   {"operation"},
	"response":    {"data.responseMessage", "data.errorMessage"},
	"amount":      {"data.amount", "data.paidAmount"},
	"start_time":  {"startTime"},
	"processing":  {"processingTime"},
}

// Prepare validates raw and normalizes it.
func Prepare(raw models.RawEvent) (models.NormalizedRecord, error) {
	if err := Validate(raw); err != nil {
		return models.NormalizedRecord{}, err
	}
	return Normalize(raw), nil
}

// Validate reports whether raw carries the integer start time every record needs.
func Validate(raw models.RawEvent) error {
	for _, path := range aliases["start_time"] {
		v, ok := lookup(raw, path)
		if !ok || v == nil {
			continue
		}
		if _, ok := toInt(v); !ok {
			return &ValidationError{Field: path, Reason: fmt.Sprintf("must be an integer, got %v", v)}
		}
		return nil
	}
	return &ValidationError{Field: "startTime", Reason: "is required"}
}

// Normalize never fails: malformed optional fields fall back to their defaults.
func Normalize(raw models.RawEvent) models.NormalizedRecord {
	rec := models.NormalizedRecord{
		RequestID:  extractString(raw, "request_id"),
		OrderNo:    extractString(raw, "order_no"),
		OrderID:    extractString(raw, "order_id"),
		TraceID:    extractString(raw, "trace_id"),
		MerchantID: extractString(raw, "merchant_id"),
		BranchCode: extractString(raw, "branch_code"),
		Channel:    extractString(raw, "channel"),
		Module:     extractString(raw, "module"),
		Operation:  extractString(raw, "operation"),
		RespCode:   extractString(raw, "resp_code"),
		Status:     extractString(raw, "status"),
	}
	if ts, ok := extractInt(raw, "start_time"); ok {
		rec.Timestamp = ts
	}
	if amount, ok := extractFloat(raw, "amount"); ok {
		rec.Amount = &amount
	}
	if pt, ok := extractInt(raw, "processing"); ok {
		rec.ProcessingTimeMs = &pt
	}

	rec.ID = RecordID(rec.RequestID, rec.Timestamp)
	rec.Text = buildText(rec, extractString(raw, "response"))
	rec.Payload = serialize(raw)
	return rec
}

func buildText(rec models.NormalizedRecord, response string) string {
	parts := []string{
		"module=" + rec.Module,
		"operation=" + rec.Operation,
		"orderNo=" + rec.OrderNo,
		"orderId=" + rec.OrderID,
		"traceId=" + rec.TraceID,
		"requestId=" + rec.RequestID,
		"merchantId=" + rec.MerchantID,
		"branchCode=" + rec.BranchCode,
		"channel=" + rec.Channel,
		"status=" + rec.Status,
		"respCode=" + rec.RespCode,
	}
	if rec.Amount != nil {
		parts = append(parts, "amount="+formatAmount(*rec.Amount))
	}
	if msg := utils.CollapseSpace(response); msg != "" {
		parts = append(parts, "response="+utils.Truncate(msg, maxResponseLength))
	}
	return strings.Join(parts, " ")
}

func serialize(raw models.RawEvent) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(map[string]any(raw)); err != nil {
		return fmt.Sprintf("%v", map[string]any(raw))
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

func lookup(raw models.RawEvent, path string) (any, bool) {
	var cur any = map[string]any(raw)
	for _, key := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			if rm, isRaw := cur.(models.RawEvent); isRaw {
				m = rm
			} else {
				return nil, false
			}
		}
		if cur, ok = m[key]; !ok {
			return nil, false
		}
	}
	return cur, true
}

func extractString(raw models.RawEvent, field string) string {
	for _, path := range aliases[field] {
		v, ok := lookup(raw, path)
		if !ok {
			continue
		}
		if s, ok := render(v); ok {
			if s = strings.TrimSpace(s); s != "" {
				return s
			}
		}
	}
	return ""
}

func extractFloat(raw models.RawEvent, field string) (float64, bool) {
	for _, path := range aliases[field] {
		if v, ok := lookup(raw, path); ok {
			if f, ok := toFloat(v); ok {
				return f, true
			}
		}
	}
	return 0, false
}

func extractInt(raw models.RawEvent, field string) (int64, bool) {
	for _, path := range aliases[field] {
		if v, ok := lookup(raw, path); ok {
			if i, ok := toInt(v); ok {
				return i, true
			}
		}
	}
	return 0, false
}
