package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/incident_triage/backend/internal/ai"
)

var sampleLogs = []map[string]any{
	{"order_no": "Y20KI9R6", "module": "PAYMENT", "operation": "CALLBACK", "resp_code": "99", "status": "FAILED", "text": "callback timeout"},
	{"order_no": "Y20KI9R6", "module": "PAYMENT", "operation": "QUERY", "resp_code": "00", "status": "SUCCESS", "text": "query ok"},
	{"order_no": "Y20KI9R6", "module": "GATEWAY", "status": "FAILED"},
}

func TestTriageWithoutEvidenceSkipsLLM(t *testing.T) {
	var prompts []string
	svc := &TriageService{LLM: ai.Static{Response: "{}", Prompts: &prompts}, Logger: zerolog.Nop()}
	res, raw := svc.Triage(context.Background(), nil, "  ", "")
	if raw != "" || len(prompts) != 0 {
		t.Fatalf("expected no llm call, got raw=%q prompts=%v", raw, prompts)
	}
	if !strings.Contains(res.RootCause, "no evidence") {
		t.Fatalf("unexpected root cause: %q", res.RootCause)
	}
	if res.Evidence == nil || res.SuggestedActions == nil {
		t.Fatalf("expected empty lists, got %+v", res)
	}
}

func TestTriageFallbackSummary(t *testing.T) {
	svc := &TriageService{LLM: ai.Disabled{}, Logger: zerolog.Nop()}
	res, raw := svc.Triage(context.Background(), sampleLogs, "", "")
	if raw != "" {
		t.Fatalf("expected empty raw, got %q", raw)
	}
	want := "Found 3 log(s). Module: PAYMENT, GATEWAY. Status: FAILED, SUCCESS. RespCode: 99, 00."
	if res.RootCause != want {
		t.Fatalf("unexpected summary:\n got %q\nwant %q", res.RootCause, want)
	}
	if res.IssueType != "Unknown" || res.Confidence != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if len(res.Evidence) != 1 || res.Evidence[0] != "Found 3 log(s)." {
		t.Fatalf("unexpected evidence: %v", res.Evidence)
	}

	res, _ = svc.Triage(context.Background(), nil, "customer says payment hung", "")
	if res.RootCause != "No logs." {
		t.Fatalf("unexpected summary for no logs: %q", res.RootCause)
	}
}

func TestTriageCallsLLMOnce(t *testing.T) {
	var prompts []string
	reply := "Here you go:\n```json\n{\"issue_type\": \"Callback Failure\", \"confidence\": 0.9, \"root_cause\": \"bank timeout\", \"evidence\": [\"respCode=99\"], \"suggested_actions\": [\"retry callback\"]}\n```"
	svc := &TriageService{LLM: ai.Static{Response: reply, Prompts: &prompts}, Logger: zerolog.Nop()}

	res, raw := svc.Triage(context.Background(), sampleLogs, "snippet here", "E99")
	if len(prompts) != 1 {
		t.Fatalf("expected exactly one llm call, got %d", len(prompts))
	}
	if raw != strings.TrimSpace(reply) {
		t.Fatalf("unexpected raw: %q", raw)
	}
	if res.IssueType != "Callback Failure" || res.Confidence != 0.9 || res.RootCause != "bank timeout" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if !strings.Contains(prompts[0], "## Log snippet / user description\nsnippet here") ||
		!strings.Contains(prompts[0], "## Error message\nE99") {
		t.Fatalf("prompt missing free text sections: %s", prompts[0])
	}
}

func TestTriageLLMError(t *testing.T) {
	svc := &TriageService{LLM: ai.Static{Err: errors.New("401 unauthorized")}, Logger: zerolog.Nop()}
	res, raw := svc.Triage(context.Background(), sampleLogs, "", "")
	if raw != "" {
		t.Fatalf("expected empty raw on error, got %q", raw)
	}
	if res.RootCause != "LLM call failed: 401 unauthorized" {
		t.Fatalf("unexpected root cause: %q", res.RootCause)
	}
	if len(res.SuggestedActions) != 1 {
		t.Fatalf("unexpected actions: %v", res.SuggestedActions)
	}
}

func TestBuildContextLimits(t *testing.T) {
	var records []map[string]any
	for i := 0; i < 25; i++ {
		records = append(records, map[string]any{"order_no": "O", "text": strings.Repeat("x", 1000)})
	}
	ctx := BuildContext(records, "", "")
	if !strings.HasPrefix(ctx, "## Related logs\n") {
		t.Fatalf("missing header: %q", ctx[:40])
	}
	if !strings.Contains(ctx, "[20] order_no=O") || strings.Contains(ctx, "[21]") {
		t.Fatalf("expected at most 20 records")
	}
	if strings.Contains(ctx, strings.Repeat("x", 801)) {
		t.Fatalf("expected text truncated to 800")
	}
	if strings.Contains(ctx, "## Error message") {
		t.Fatalf("expected no error section")
	}
}

func TestParseResultVariants(t *testing.T) {
	res := ParseResult(`{"issueType": "Timeout", "rootCause": "slow bank", "suggestedActions": ["wait"], "confidence": "0.7"}`)
	if res.IssueType != "Timeout" || res.RootCause != "slow bank" || len(res.SuggestedActions) != 1 || res.Confidence != 0.7 {
		t.Fatalf("expected camelCase keys honored, got %+v", res)
	}

	res = ParseResult(`{"issue_type": "A", "issueType": "B", "confidence": 7}`)
	if res.IssueType != "A" || res.Confidence != 1 {
		t.Fatalf("expected snake_case precedence and clamped confidence, got %+v", res)
	}

	res = ParseResult(`note {not json} then {"issue_type": "Late"} trailing`)
	if res.IssueType != "Late" {
		t.Fatalf("expected later object to be found, got %+v", res)
	}

	malformed := `{"analysis": oops, "detail": {"issue_type": "Inner", "confidence": 0.4}}`
	res = ParseResult(malformed)
	if res.IssueType != "" || res.Confidence != 0 || res.RootCause != malformed {
		t.Fatalf("expected nested object of a malformed outer object to be ignored, got %+v", res)
	}

	res = ParseResult(`{"note": "brace } in string", oops} {"issue_type": "After"}`)
	if res.IssueType != "After" {
		t.Fatalf("expected object after malformed span to be found, got %+v", res)
	}

	res = ParseResult("plain text answer")
	if res.RootCause != "plain text answer" || res.IssueType != "" {
		t.Fatalf("unexpected fallback: %+v", res)
	}

	res = ParseResult(strings.Repeat("z", 900))
	if len(res.RootCause) != 500 {
		t.Fatalf("expected raw truncated to 500, got %d", len(res.RootCause))
	}

	res = ParseResult("")
	if res.RootCause != "Could not parse the LLM response." {
		t.Fatalf("unexpected empty fallback: %q", res.RootCause)
	}

	res = ParseResult(`{"issue_type": null, "evidence": null}`)
	if res.IssueType != "" || res.Evidence == nil || len(res.Evidence) != 0 {
		t.Fatalf("expected null treated as missing, got %+v", res)
	}
}
