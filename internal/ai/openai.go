package ai

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

type OpenAI struct {
	client *openai.Client
	model  string
}

// NewOpenAI also serves OpenAI-compatible gateways when cfg.BaseURL is set.
func NewOpenAI(cfg Config) *OpenAI {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		clientCfg.BaseURL = strings.TrimRight(base, "/")
	}
	clientCfg.HTTPClient = headerRecorder{next: clientCfg.HTTPClient}
	return &OpenAI{client: openai.NewClientWithConfig(clientCfg), model: cfg.Model}
}

func (o *OpenAI) Complete(ctx context.Context, prompt string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       o.model,
		Temperature: 0.2,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
	}

	rec := &recordedHeader{}
	rsp, err := o.client.CreateChatCompletion(context.WithValue(ctx, recordedHeaderKey{}, rec), req)
	if err != nil {
		var apiErr *openai.APIError
		var reqErr *openai.RequestError
		if (errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusTooManyRequests) ||
			(errors.As(err, &reqErr) && reqErr.HTTPStatusCode == http.StatusTooManyRequests) {
			return "", RateLimitError{RetryAfter: retryAfter(rec.header, time.Now())}
		}
		return "", wrapTimeout("openai", err)
	}

	if len(rsp.Choices) == 0 {
		return "", errors.New("no response from OpenAI")
	}
	return strings.TrimSpace(rsp.Choices[0].Message.Content), nil
}

type recordedHeaderKey struct{}

type recordedHeader struct {
	header http.Header
}

// headerRecorder keeps the response headers go-openai drops from its errors.
type headerRecorder struct {
	next openai.HTTPDoer
}

func (h headerRecorder) Do(req *http.Request) (*http.Response, error) {
	rsp, err := h.next.Do(req)
	if rsp != nil {
		if rec, ok := req.Context().Value(recordedHeaderKey{}).(*recordedHeader); ok {
			rec.header = rsp.Header
		}
	}
	return rsp, err
}
