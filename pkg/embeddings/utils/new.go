// Package embeddingutils is the embeddings utility package
package embeddingutils

import (
	"fmt"
	"log/slog"

	"github.com/papercomputeco/chatvault/pkg/embeddings"
	"github.com/papercomputeco/chatvault/pkg/embeddings/hashing"
	"github.com/papercomputeco/chatvault/pkg/embeddings/ollama"
	"github.com/papercomputeco/chatvault/pkg/embeddings/openai"
	"github.com/papercomputeco/chatvault/pkg/logger"
)

const (
	ProviderOllama  = "ollama"
	ProviderOpenAI  = "openai"
	ProviderHashing = "hashing"
)

type NewEmbedderOpts struct {
	ProviderType string
	TargetURL    string
	Model        string
	Dimensions   int
	APIKey       string
	Logger       *slog.Logger
}

func NewEmbedder(o *NewEmbedderOpts) (embeddings.Embedder, error) {
	log := o.Logger
	if log == nil {
		log = logger.Nop()
	}

	switch o.ProviderType {
	case ProviderOllama:
		return ollama.NewEmbedder(ollama.EmbedderConfig{
			BaseURL:    o.TargetURL,
			Model:      o.Model,
			Dimensions: o.Dimensions,
		}, log)
	case ProviderOpenAI:
		return openai.NewEmbedder(openai.EmbedderConfig{
			APIKey:     o.APIKey,
			BaseURL:    o.TargetURL,
			Model:      o.Model,
			Dimensions: o.Dimensions,
		}, log)
	case ProviderHashing:
		return hashing.NewEmbedder(o.Dimensions), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", o.ProviderType)
	}
}
