// Package assist integrates the hosted generative-AI endpoint: tag
// suggestions, code analysis, improvement suggestions, language detection,
// and title/description generation for snippets.
//
// The package splits three ways:
//   - gemini.go  — the network client (Generator implementation)
//   - budget.go  — the per-process call budget
//   - assistant.go — the operations, prompts, and response parsing
//
// Handlers depend on *Assistant; *Assistant depends on the Generator
// interface, so tests run against a canned fake with no network.
package assist

import (
	"context"
	"errors"
	"fmt"

	genai "google.golang.org/genai"
)

// ErrEmptyResponse is returned when the model produced no candidates.
var ErrEmptyResponse = errors.New("assist: empty response from model")

// Generator is the narrow surface the Assistant needs from a model backend.
type Generator interface {
	// GenerateText sends a prompt and returns the raw text reply.
	GenerateText(ctx context.Context, prompt string) (string, error)
	// GenerateJSON sends a prompt requesting an application/json reply.
	// The returned string should be a JSON document, but callers still
	// strip markdown fences before decoding — models wrap JSON in
	// ```json blocks often enough that trusting the MIME hint alone fails.
	GenerateJSON(ctx context.Context, prompt string) (string, error)
}

// GeminiClient is a thin wrapper around the official genai client.
type GeminiClient struct {
	cli   *genai.Client
	model string
}

var _ Generator = (*GeminiClient)(nil)

// NewGeminiClient dials the Gemini API. model is e.g. "gemini-2.0-flash".
func NewGeminiClient(ctx context.Context, apiKey, model string) (*GeminiClient, error) {
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("assist: creating Gemini client: %w", err)
	}
	return &GeminiClient{cli: cli, model: model}, nil
}

func (g *GeminiClient) GenerateText(ctx context.Context, prompt string) (string, error) {
	return g.generate(ctx, prompt, nil)
}

func (g *GeminiClient) GenerateJSON(ctx context.Context, prompt string) (string, error) {
	return g.generate(ctx, prompt, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	})
}

func (g *GeminiClient) generate(ctx context.Context, prompt string, cfg *genai.GenerateContentConfig) (string, error) {
	resp, err := g.cli.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{{Parts: []*genai.Part{{Text: prompt}}}},
		cfg,
	)
	if err != nil {
		return "", fmt.Errorf("assist: calling Gemini: %w", err)
	}
	if len(resp.Candidates) == 0 ||
		resp.Candidates[0].Content == nil ||
		len(resp.Candidates[0].Content.Parts) == 0 {
		return "", ErrEmptyResponse
	}
	return resp.Candidates[0].Content.Parts[0].Text, nil
}
