// Package insight turns subreddit snapshots and user questions into
// model-generated business analysis.
package insight

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"google.golang.org/genai"

	"subsight/pkg/types"
)

const defaultModel = "gemini-2.5-flash"

// Config holds configuration for the generator.
type Config struct {
	APIKey string
	Model  string // defaults to defaultModel
}

// Generator produces answers through the Gemini API.
type Generator struct {
	client *genai.Client
	model  string
	log    zerolog.Logger
}

// NewGenerator creates a generator. The API key is required; there is no
// environment fallback here because credential handling is the config
// store's job.
func NewGenerator(ctx context.Context, cfg Config, log zerolog.Logger) (*Generator, error) {
	if cfg.APIKey == "" {
		return nil, types.ErrNotConfigured
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	return &Generator{
		client: client,
		model:  model,
		log:    log.With().Str("component", "insight").Logger(),
	}, nil
}

// Model returns the model name in use.
func (g *Generator) Model() string { return g.model }

// generationConfig carries the fixed sampling parameters. They are part of
// the assistant's contract, not tunables.
func generationConfig() *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		Temperature:     genai.Ptr[float32](0.7),
		TopP:            genai.Ptr[float32](0.8),
		TopK:            genai.Ptr[float32](40),
		MaxOutputTokens: 2048,
	}
}

// Answer sends one prompt built from the question, the snapshot and the
// recent history. It never retries; retry is a user decision.
func (g *Generator) Answer(ctx context.Context, question string, snap *types.Snapshot, history []types.Message) (string, error) {
	prompt := buildPrompt(question, snap, history)
	g.log.Debug().Int("prompt_chars", len(prompt)).Str("model", g.model).Msg("generating answer")

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), generationConfig())
	if err != nil {
		return "", &types.GenerationError{Err: err}
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", &types.GenerationError{Err: errors.New("no response generated")}
	}

	var out strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && part.Text != "" {
			out.WriteString(part.Text)
		}
	}
	if out.Len() == 0 {
		return "", &types.GenerationError{Err: errors.New("no response generated")}
	}
	return out.String(), nil
}
