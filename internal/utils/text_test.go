package utils

import (
	"encoding/json"
	"testing"
)

func TestTruncateCountsRunes(t *testing.T) {
	if got := Truncate("héllo", 2); got != "hé" {
		t.Fatalf("unexpected truncation: %q", got)
	}
	if got := Truncate("abc", 10); got != "abc" {
		t.Fatalf("expected untouched string, got %q", got)
	}
	if got := Truncate("abc", 0); got != "" {
		t.Fatalf("expected empty string, got %q", got)
	}
}

func TestCollapseSpace(t *testing.T) {
	if got := CollapseSpace("  timeout \n\t from   bank "); got != "timeout from bank" {
		t.Fatalf("unexpected collapse: %q", got)
	}
}

func TestInt64AcceptsStoreDecodings(t *testing.T) {
	payload := map[string]any{
		"a": int64(7),
		"b": float64(8),
		"c": json.Number("9"),
		"d": "10",
		"e": nil,
	}
	for key, want := range map[string]int64{"a": 7, "b": 8, "c": 9} {
		got, ok := Int64(payload, key)
		if !ok || got != want {
			t.Fatalf("%s: expected %d, got %d (ok=%v)", key, want, got, ok)
		}
	}
	for _, key := range []string{"d", "e", "missing"} {
		if _, ok := Int64(payload, key); ok {
			t.Fatalf("%s: expected no value", key)
		}
	}
}
