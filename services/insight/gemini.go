package insightsvc

import (
	"context"
	"errors"

	pkgerrors "github.com/pkg/errors"
	"google.golang.org/genai"

	"github.com/shikkhaloy/shikkhaloy/core"
	"github.com/shikkhaloy/shikkhaloy/core/insight"
)

var errEmptyResponse = errors.New("empty response")

type geminiGenerator struct {
	client *genai.Client
	conf   core.GeminiConfig
}

var _ insight.Generator = (*geminiGenerator)(nil) // interface compliance check

// NewGeminiGenerator returns insight.ErrNotConfigured when no API key is set.
func NewGeminiGenerator(ctx context.Context, conf *core.Config) (insight.Generator, error) {
	if conf.Gemini.APIKey == "" {
		return nil, insight.ErrNotConfigured
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  conf.Gemini.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(err, "creating gemini client")
	}
	return &geminiGenerator{client: client, conf: conf.Gemini}, nil
}

func (g *geminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if g.conf.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.conf.Timeout)
		defer cancel()
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.conf.Model, genai.Text(prompt), nil)
	if err != nil {
		return "", pkgerrors.Wrap(err, "generating content")
	}
	text := resp.Text()
	if text == "" {
		return "", errEmptyResponse
	}
	return text, nil
}

// NewService wires the gemini generator into an insight service; without an API key
// every insight falls back to the localized apology.
func NewService(ctx context.Context, logger core.Logger, conf *core.Config) insight.Service {
	gen, err := NewGeminiGenerator(ctx, conf)
	if err != nil {
		if !errors.Is(err, insight.ErrNotConfigured) {
			logger.Error(err.Error(), err)
		}
		return insight.NewService(nil, logger)
	}
	return insight.NewService(gen, logger)
}
