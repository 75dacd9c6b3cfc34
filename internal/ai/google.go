package ai

import (
	"context"
	"errors"
	"strings"

	"github.com/google/generative-ai-go/genai"
	genaiopt "google.golang.org/api/option"
)

type Google struct {
	client *genai.Client
	model  string
}

func NewGoogle(ctx context.Context, cfg Config) (*Google, error) {
	client, err := genai.NewClient(ctx, genaiopt.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, err
	}
	return &Google{client: client, model: cfg.Model}, nil
}

func (g *Google) Complete(ctx context.Context, prompt string) (string, error) {
	model := g.client.GenerativeModel(g.model)
	model.SetTemperature(0.2)

	rsp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", wrapTimeout("google", err)
	}
	if len(rsp.Candidates) == 0 || rsp.Candidates[0].Content == nil {
		return "", errors.New("no response from Google")
	}

	var b strings.Builder
	for _, part := range rsp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	return strings.TrimSpace(b.String()), nil
}

func (g *Google) Close() error {
	return g.client.Close()
}
