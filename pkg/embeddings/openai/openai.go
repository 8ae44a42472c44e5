// Package openai implements pkg/embeddings' Embedder using the OpenAI
// embeddings API, or any server compatible with it.
package openai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/papercomputeco/chatvault/pkg/embeddings"
)

// DefaultEmbeddingModel is the default model used for embeddings.
const DefaultEmbeddingModel = goopenai.SmallEmbedding3

// DefaultTimeout bounds each embeddings request.
const DefaultTimeout = 120 * time.Second

// EmbedderConfig holds configuration for the OpenAI embedder.
type EmbedderConfig struct {
	// APIKey authenticates against the API. Required.
	APIKey string

	// BaseURL overrides the API URL, e.g. for a compatible local server.
	BaseURL string

	// Model is the embedding model. Defaults to DefaultEmbeddingModel.
	Model string

	// Dimensions requests a reduced vector size from models that support it.
	Dimensions int

	// Timeout bounds each request. Defaults to DefaultTimeout.
	Timeout time.Duration
}

// Embedder wraps the OpenAI embeddings endpoint.
type Embedder struct {
	client     *goopenai.Client
	model      goopenai.EmbeddingModel
	dimensions int
	logger     *slog.Logger
}

// NewEmbedder creates a new OpenAI embedder.
func NewEmbedder(cfg EmbedderConfig, logger *slog.Logger) (*Embedder, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("API key is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	config := goopenai.DefaultConfig(cfg.APIKey)
	config.HTTPClient = &http.Client{Timeout: timeout}
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}

	model := goopenai.EmbeddingModel(cfg.Model)
	if model == "" {
		model = DefaultEmbeddingModel
	}

	return &Embedder{
		client:     goopenai.NewClientWithConfig(config),
		model:      model,
		dimensions: cfg.Dimensions,
		logger:     logger,
	}, nil
}

// Embed converts text into a vector embedding.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.client.CreateEmbeddings(ctx, goopenai.EmbeddingRequest{
		Input:      []string{text},
		Model:      e.model,
		Dimensions: e.dimensions,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", embeddings.ErrEmbedding, err)
	}

	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("%w: no embedding returned", embeddings.ErrEmbedding)
	}

	vec := resp.Data[0].Embedding
	e.logger.Debug("generated embedding",
		"provider", "openai",
		"model", string(e.model),
		"dimensions", len(vec),
		"prompt_tokens", resp.Usage.PromptTokens,
	)

	return vec, nil
}

// Close releases resources held by the embedder.
func (e *Embedder) Close() error {
	return nil
}

var _ embeddings.Embedder = (*Embedder)(nil)
