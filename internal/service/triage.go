package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/incident_triage/backend/internal/ai"
	"github.com/incident_triage/backend/internal/models"
	"github.com/incident_triage/backend/internal/utils"
)

const (
	maxContextRecords = 20
	maxContextText    = 800
	maxRawFallback    = 500
)

const promptTemplate = `You are an incident triage expert for a payment system. Based on the logs and details below, give a short assessment as exactly this JSON (return only the JSON, no extra explanation):

{
  "issue_type": "Kind of failure (e.g. Callback Failure, Payment Timeout, ...)",
  "confidence": 0.85,
  "root_cause": "Short root cause",
  "evidence": ["Evidence 1", "Evidence 2"],
  "suggested_actions": ["Action 1", "Action 2"]
}

Data:
%s
`

type TriageService struct {
	LLM    ai.Completer
	Logger zerolog.Logger
}

// Triage builds a diagnosis from records and the caller's free text. The
// second return value is the model's raw reply, empty when none was obtained.
func (s *TriageService) Triage(ctx context.Context, records []map[string]any, snippet, errorMessage string) (models.TriageResult, string) {
	if len(records) == 0 && strings.TrimSpace(snippet) == "" && strings.TrimSpace(errorMessage) == "" {
		return newResult(models.TriageResult{
			RootCause: "No logs or error details were provided; there is no evidence to analyze.",
		}), ""
	}

	if !ai.Enabled(s.LLM) {
		return newResult(models.TriageResult{
			IssueType:        "Unknown",
			RootCause:        summarize(records),
			Evidence:         []string{fmt.Sprintf("Found %d log(s).", len(records))},
			SuggestedActions: []string{"Configure LLM_API_KEY (or OPENAI_API_KEY) to enable AI triage."},
		}), ""
	}

	prompt := fmt.Sprintf(promptTemplate, BuildContext(records, snippet, errorMessage))
	raw, err := s.LLM.Complete(ctx, prompt)
	if err != nil {
		s.Logger.Warn().Err(err).Msg("llm call failed")
		return newResult(models.TriageResult{
			RootCause:        "LLM call failed: " + err.Error(),
			SuggestedActions: []string{"Check the LLM API key and network connectivity."},
		}), ""
	}
	raw = strings.TrimSpace(raw)
	return ParseResult(raw), raw
}

// BuildContext renders records and free text into the prompt's data section.
func BuildContext(records []map[string]any, snippet, errorMessage string) string {
	parts := []string{"## Related logs\n"}
	for i, rec := range records {
		if i == maxContextRecords {
			break
		}
		parts = append(parts,
			fmt.Sprintf("[%d] order_no=%s module=%s operation=%s resp_code=%s status=%s",
				i+1,
				utils.Stringify(rec["order_no"]),
				utils.Stringify(rec["module"]),
				utils.Stringify(rec["operation"]),
				utils.Stringify(rec["resp_code"]),
				utils.Stringify(rec["status"]),
			),
			utils.Truncate(utils.Stringify(rec["text"]), maxContextText),
			"",
		)
	}
	if snippet != "" {
		parts = append(parts, "## Log snippet / user description\n"+snippet)
	}
	if errorMessage != "" {
		parts = append(parts, "## Error message\n"+errorMessage)
	}
	return strings.Join(parts, "\n")
}

// ParseResult extracts the first JSON object in raw. Prose around it is ignored.
func ParseResult(raw string) models.TriageResult {
	if obj, ok := firstObject(raw); ok {
		return newResult(models.TriageResult{
			IssueType:        pickString(obj, "issue_type", "issueType"),
			Confidence:       pickConfidence(obj),
			RootCause:        pickString(obj, "root_cause", "rootCause"),
			Evidence:         pickStrings(obj, "evidence"),
			SuggestedActions: pickStrings(obj, "suggested_actions", "suggestedActions"),
		})
	}
	cause := utils.Truncate(raw, maxRawFallback)
	if cause == "" {
		cause = "Could not parse the LLM response."
	}
	return newResult(models.TriageResult{RootCause: cause})
}

// firstObject decodes the first top-level JSON object in raw. A candidate
// that fails to decode is skipped whole, so objects nested in it are never tried.
func firstObject(raw string) (map[string]any, bool) {
	for i := 0; i < len(raw); {
		start := strings.IndexByte(raw[i:], '{')
		if start < 0 {
			break
		}
		start += i
		var obj map[string]any
		if err := json.NewDecoder(strings.NewReader(raw[start:])).Decode(&obj); err == nil && obj != nil {
			return obj, true
		}
		i = start + spanLength(raw[start:])
	}
	return nil, false
}

// spanLength returns the length of the brace-balanced span opening at s[0],
// ignoring braces inside JSON strings, or len(s) when it never closes.
func spanLength(s string) int {
	depth := 0
	inString, escaped := false, false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i + 1
			}
		}
	}
	return len(s)
}

func pick(obj map[string]any, keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := obj[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func pickString(obj map[string]any, keys ...string) string {
	v, ok := pick(obj, keys...)
	if !ok {
		return ""
	}
	return utils.Stringify(v)
}

func pickStrings(obj map[string]any, keys ...string) []string {
	v, ok := pick(obj, keys...)
	if !ok {
		return []string{}
	}
	switch list := v.(type) {
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if item != nil {
				out = append(out, utils.Stringify(item))
			}
		}
		return out
	case string:
		if list == "" {
			return []string{}
		}
		return []string{list}
	}
	return []string{utils.Stringify(v)}
}

func pickConfidence(obj map[string]any) float64 {
	v, ok := pick(obj, "confidence")
	if !ok {
		return 0
	}
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}
	switch {
	case math.IsNaN(f) || f < 0:
		return 0
	case f > 1:
		return 1
	}
	return f
}

func summarize(records []map[string]any) string {
	if len(records) == 0 {
		return "No logs."
	}
	modules := distinct(records, "module")
	statuses := distinct(records, "status")
	codes := distinct(records, "resp_code")
	return fmt.Sprintf("Found %d log(s). Module: %s. Status: %s. RespCode: %s.",
		len(records),
		strings.Join(modules, ", "),
		strings.Join(statuses, ", "),
		strings.Join(codes, ", "))
}

func distinct(records []map[string]any, key string) []string {
	seen := map[string]bool{}
	var out []string
	for _, rec := range records {
		v := utils.Stringify(rec[key])
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

// newResult fills nil slices so they encode as [] rather than null.
func newResult(r models.TriageResult) models.TriageResult {
	if r.Evidence == nil {
		r.Evidence = []string{}
	}
	if r.SuggestedActions == nil {
		r.SuggestedActions = []string{}
	}
	return r
}
