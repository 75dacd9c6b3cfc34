package ai

import (
	"context"
	"errors"
)

var ErrDisabled = errors.New("no LLM API key configured")

// Disabled is used when no API key is configured. Callers check Enabled and
// fall back to a deterministic summary instead of calling it.
type Disabled struct{}

func (Disabled) Complete(context.Context, string) (string, error) {
	return "", ErrDisabled
}

// Static returns a canned response. Prompts records every prompt it was given.
type Static struct {
	Response string
	Err      error
	Prompts  *[]string
}

func (s Static) Complete(_ context.Context, prompt string) (string, error) {
	if s.Prompts != nil {
		*s.Prompts = append(*s.Prompts, prompt)
	}
	return s.Response, s.Err
}
