package ai

import (
	"context"
	"errors"
	"fmt"

	"avidoc/internal/config"
)

var (
	// ErrEmbedding marks embedding provider failures (unreachable endpoint,
	// malformed response, dimension mismatch).
	ErrEmbedding = errors.New("embedding provider failed")
	// ErrGeneration marks answer generator failures after the bounded retry.
	ErrGeneration = errors.New("answer generation failed")
)

// EmbeddingProvider maps text to a fixed-length dense vector.
type EmbeddingProvider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
}

// AnswerGenerator produces a natural-language answer for an assembled
// prompt. The output is returned verbatim.
type AnswerGenerator interface {
	Generate(ctx context.Context, system, user string) (string, error)
}

// NewProviders builds the embedding provider and answer generator selected
// by configuration.
func NewProviders(cfg config.LLMConfig) (EmbeddingProvider, AnswerGenerator, error) {
	switch cfg.Provider {
	case "openai":
		client := NewOpenAIClient(cfg)
		return client, client, nil
	case "mock", "":
		mock := NewMockProvider(cfg.EmbeddingDimension)
		return mock, mock, nil
	default:
		return nil, nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}
