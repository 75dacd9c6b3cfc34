package models

// RawEvent is a log message as received from the broker or HTTP. Numbers are
// kept as json.Number so the payload can be re-serialized verbatim.
type RawEvent map[string]any

type NormalizedRecord struct {
	ID               string   `json:"id"`
	RequestID        string   `json:"request_id"`
	OrderNo          string   `json:"order_no"`
	OrderID          string   `json:"order_id"`
	TraceID          string   `json:"trace_id"`
	MerchantID       string   `json:"merchant_id"`
	BranchCode       string   `json:"branch_code"`
	Amount           *float64 `json:"amount,omitempty"`
	Channel          string   `json:"channel"`
	Module           string   `json:"module"`
	Operation        string   `json:"operation"`
	RespCode         string   `json:"resp_code"`
	Status           string   `json:"status"`
	Timestamp        int64    `json:"timestamp"`
	ProcessingTimeMs *int64   `json:"processing_time_ms,omitempty"`
	Text             string   `json:"text"`
	Payload          string   `json:"payload"`
}

// StoreRecord is a NormalizedRecord shaped for the metadata store.
type StoreRecord struct {
	ID      string
	Vector  []float32
	Payload map[string]any
}

type TriageRequest struct {
	OrderNo      string `json:"order_no,omitempty" validate:"required_without_all=MerchantID RequestID"`
	MerchantID   string `json:"merchant_id,omitempty"`
	RequestID    string `json:"request_id,omitempty"`
	LogSnippet   string `json:"log_snippet,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
}

type TriageResult struct {
	IssueType        string   `json:"issue_type"`
	Confidence       float64  `json:"confidence"`
	RootCause        string   `json:"root_cause"`
	Evidence         []string `json:"evidence"`
	SuggestedActions []string `json:"suggested_actions"`
}

type LogHit struct {
	OrderNo    string `json:"order_no"`
	MerchantID string `json:"merchant_id"`
	Module     string `json:"module"`
	Operation  string `json:"operation"`
	RespCode   string `json:"resp_code"`
	Status     string `json:"status"`
	Timestamp  *int64 `json:"timestamp"`
	Text       string `json:"text"`
	Payload    string `json:"payload"`
}

type IngestResponse struct {
	ID         string `json:"id"`
	OrderNo    string `json:"order_no"`
	MerchantID string `json:"merchant_id"`
}

type IngestBatchResponse struct {
	Ingested int      `json:"ingested"`
	IDs      []string `json:"ids"`
}

type SearchResponse struct {
	Query map[string]string `json:"query"`
	Hits  []LogHit          `json:"hits"`
	Total int               `json:"total"`
}

type TriageResponse struct {
	Query       map[string]string `json:"query"`
	LogsFound   int               `json:"logs_found"`
	LogsPreview []LogHit          `json:"logs_preview"`
	Triage      TriageResult      `json:"triage"`
	RawLLM      string            `json:"raw_llm,omitempty"`
}
