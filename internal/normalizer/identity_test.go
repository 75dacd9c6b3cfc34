package normalizer

import (
	"strings"
	"testing"
)

func TestRecordIDStability(t *testing.T) {
	a := Normalize(mustParse(t, `{"startTime": 10, "requestId": "r1", "module": "A"}`))
	b := Normalize(mustParse(t, `{"startTime": 10, "requestId": "r1", "module": "B", "data": {"orderNo": "X"}}`))
	if a.ID != b.ID {
		t.Fatalf("expected same id for same request id and timestamp, got %s and %s", a.ID, b.ID)
	}

	c := Normalize(mustParse(t, `{"startTime": 11, "requestId": "r1"}`))
	d := Normalize(mustParse(t, `{"startTime": 10, "requestId": "r2"}`))
	if c.ID == a.ID || d.ID == a.ID {
		t.Fatalf("expected id to change with request id or timestamp")
	}
}

func TestRecordIDWithoutRequestID(t *testing.T) {
	if got := RecordID("", 42); got != "log_42" {
		t.Fatalf("unexpected id: %s", got)
	}
}

func TestRecordIDSanitizes(t *testing.T) {
	if got := RecordID("a/b c:é", 5); got != "a_b_c___5" {
		t.Fatalf("unexpected id: %s", got)
	}
	if got := RecordID("v1.2-x_y", 5); got != "v1.2-x_y_5" {
		t.Fatalf("expected safe characters kept, got %s", got)
	}
}

func TestRecordIDTruncates(t *testing.T) {
	got := RecordID(strings.Repeat("x", 200), 5)
	if len(got) != 128 {
		t.Fatalf("expected 128 chars, got %d", len(got))
	}
}
