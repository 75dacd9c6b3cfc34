package ai

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	anthropicopt "github.com/anthropics/anthropic-sdk-go/option"
)

type Anthropic struct {
	client anthropic.Client
	model  string
}

func NewAnthropic(cfg Config) *Anthropic {
	opts := []anthropicopt.RequestOption{anthropicopt.WithAPIKey(cfg.APIKey)}
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		opts = append(opts, anthropicopt.WithBaseURL(base))
	}
	return &Anthropic{client: anthropic.NewClient(opts...), model: cfg.Model}
}

func (a *Anthropic) Complete(ctx context.Context, prompt string) (string, error) {
	req := anthropic.MessageNewParams{
		Model:       anthropic.Model(a.model),
		MaxTokens:   1024,
		Temperature: anthropic.Float(0.2),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}

	rsp, err := a.client.Messages.New(ctx, req)
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests {
			var h http.Header
			if apiErr.Response != nil {
				h = apiErr.Response.Header
			}
			return "", RateLimitError{RetryAfter: retryAfter(h, time.Now())}
		}
		return "", wrapTimeout("anthropic", err)
	}

	var b strings.Builder
	for _, content := range rsp.Content {
		if text, ok := content.AsAny().(anthropic.TextBlock); ok {
			b.WriteString(text.Text)
		}
	}
	return strings.TrimSpace(b.String()), nil
}
