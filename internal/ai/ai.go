// Package ai wraps the LLM providers the triage assembler can call.
package ai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Completer sends one prompt and returns the model's raw text.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

type Config struct {
	Provider string
	APIKey   string
	Model    string
	BaseURL  string
}

var defaultModels = map[string]string{
	"":          "gpt-4o-mini",
	"openai":    "gpt-4o-mini",
	"anthropic": "claude-3-5-haiku-latest",
	"google":    "gemini-1.5-flash",
	"gemini":    "gemini-1.5-flash",
}

// ResolvedModel is Model, or the provider's default when Model is empty.
func (c Config) ResolvedModel() string {
	if m := strings.TrimSpace(c.Model); m != "" {
		return m
	}
	return defaultModels[strings.ToLower(c.Provider)]
}

// New picks the provider once at startup. A missing key yields Disabled.
func New(ctx context.Context, cfg Config) (Completer, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return Disabled{}, nil
	}
	provider := strings.ToLower(cfg.Provider)
	if _, ok := defaultModels[provider]; !ok {
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.Provider)
	}
	cfg.Model = cfg.ResolvedModel()
	switch provider {
	case "", "openai":
		return NewOpenAI(cfg), nil
	case "anthropic":
		return NewAnthropic(cfg), nil
	case "google", "gemini":
		g, err := NewGoogle(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("google client: %w", err)
		}
		return g, nil
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.Provider)
	}
}

// Enabled reports whether c will actually reach a model.
func Enabled(c Completer) bool {
	if c == nil {
		return false
	}
	_, disabled := c.(Disabled)
	return !disabled
}

// Close releases c when its provider holds a connection.
func Close(c Completer) error {
	if closer, ok := c.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

type RateLimitError struct {
	RetryAfter time.Duration
}

func (r RateLimitError) Error() string {
	if r.RetryAfter > 0 {
		return fmt.Sprintf("rate limited, retry after %s", r.RetryAfter)
	}
	return "rate limited"
}

// retryAfter reads the provider's backoff hint, preferring retry-after-ms.
// Retry-After may be delta-seconds or an HTTP date.
func retryAfter(h http.Header, now time.Time) time.Duration {
	if h == nil {
		return 0
	}
	if ms, err := strconv.ParseFloat(h.Get("Retry-After-Ms"), 64); err == nil && ms > 0 {
		return time.Duration(ms * float64(time.Millisecond))
	}
	v := strings.TrimSpace(h.Get("Retry-After"))
	if v == "" {
		return 0
	}
	if secs, err := strconv.ParseFloat(v, 64); err == nil {
		if secs <= 0 {
			return 0
		}
		return time.Duration(secs * float64(time.Second))
	}
	if at, err := http.ParseTime(v); err == nil && at.After(now) {
		return at.Sub(now)
	}
	return 0
}

func wrapTimeout(provider string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s request timed out: %w", provider, err)
	}
	return fmt.Errorf("%s request failed: %w", provider, err)
}
