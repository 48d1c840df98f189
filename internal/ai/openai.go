package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"avidoc/internal/config"
)

// OpenAIClient talks to any OpenAI-compatible endpoint for both embeddings
// and chat completions. Each call carries its own timeout and one bounded
// retry with backoff; a second failure propagates.
type OpenAIClient struct {
	baseURL         string
	apiKey          string
	model           string
	embeddingModel  string
	dimension       int
	embedTimeout    time.Duration
	generateTimeout time.Duration
	httpClient      *http.Client
}

const retryBackoff = 500 * time.Millisecond

func NewOpenAIClient(cfg config.LLMConfig) *OpenAIClient {
	embedTimeout := time.Duration(cfg.EmbedTimeoutSec) * time.Second
	if embedTimeout <= 0 {
		embedTimeout = 15 * time.Second
	}
	generateTimeout := time.Duration(cfg.GenerateTimeoutSec) * time.Second
	if generateTimeout <= 0 {
		generateTimeout = 90 * time.Second
	}
	return &OpenAIClient{
		baseURL:         strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:          cfg.APIKey,
		model:           cfg.Model,
		embeddingModel:  cfg.EmbeddingModel,
		dimension:       cfg.EmbeddingDimension,
		embedTimeout:    embedTimeout,
		generateTimeout: generateTimeout,
		httpClient:      &http.Client{},
	}
}

func (c *OpenAIClient) Dimension() int { return c.dimension }

func (c *OpenAIClient) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (c *OpenAIClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	for _, t := range texts {
		if strings.TrimSpace(t) == "" {
			return nil, fmt.Errorf("%w: embedding input is empty", ErrEmbedding)
		}
	}

	reqBody := map[string]interface{}{
		"model": c.embeddingModel,
		"input": texts,
	}

	var parsed struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	err := c.postWithRetry(ctx, "/embeddings", c.embedTimeout, reqBody, &parsed)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbedding, err)
	}
	if len(parsed.Data) != len(texts) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d inputs", ErrEmbedding, len(parsed.Data), len(texts))
	}

	vectors := make([][]float32, len(parsed.Data))
	for i := range parsed.Data {
		if len(parsed.Data[i].Embedding) != c.dimension {
			return nil, fmt.Errorf("%w: dimension %d does not match configured %d",
				ErrEmbedding, len(parsed.Data[i].Embedding), c.dimension)
		}
		vectors[i] = parsed.Data[i].Embedding
	}
	return vectors, nil
}

func (c *OpenAIClient) Generate(ctx context.Context, system, user string) (string, error) {
	reqBody := map[string]interface{}{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "system", "content": system},
			{"role": "user", "content": user},
		},
		"stream": false,
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	err := c.postWithRetry(ctx, "/chat/completions", c.generateTimeout, reqBody, &parsed)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGeneration, err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("%w: empty choices", ErrGeneration)
	}
	return parsed.Choices[0].Message.Content, nil
}

// postWithRetry issues the request once and retries a single time after
// backoff, unless the parent context is already done.
func (c *OpenAIClient) postWithRetry(ctx context.Context, path string, timeout time.Duration, body, out interface{}) error {
	err := c.post(ctx, path, timeout, body, out)
	if err == nil {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(retryBackoff):
	}
	return c.post(ctx, path, timeout, body, out)
}

func (c *OpenAIClient) post(ctx context.Context, path string, timeout time.Duration, body, out interface{}) error {
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request failed: %w", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, c.baseURL+path, bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("build request failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response failed: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("response status %d: %s", resp.StatusCode, string(raw))
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("parse response json failed: %w", err)
	}
	return nil
}
