// Package embedding selects the text embedder from configuration.
package embedding

import (
	"fmt"
	"time"

	"unirag/internal/config"
	"unirag/internal/domain"
	"unirag/internal/embedding/hashing"
	"unirag/internal/embedding/ollama"
	"unirag/internal/embedding/openai"
)

// New builds the embedder named by cfg.Type.
func New(cfg config.EmbedderConfig) (domain.Embedder, error) {
	switch cfg.Type {
	case "", "hashing":
		dim := cfg.Dimension
		if dim == 0 {
			dim = hashing.DefaultDimension
		}
		return hashing.NewEmbedder(dim)
	case "ollama":
		if cfg.Ollama == nil {
			return nil, domain.NewConfigError("embedder.ollama", "Abschnitt fehlt")
		}
		return ollama.NewEmbedder(ollama.Config{
			BaseURL: cfg.Ollama.BaseURL,
			Model:   cfg.Ollama.Model,
			Timeout: time.Duration(cfg.Ollama.TimeoutSecs) * time.Second,
		})
	case "openai":
		if cfg.OpenAI == nil {
			return nil, domain.NewConfigError("embedder.openai", "Abschnitt fehlt")
		}
		return openai.NewClient(openai.Config{
			BaseURL:    cfg.OpenAI.BaseURL,
			APIKeyEnv:  cfg.OpenAI.APIKeyEnv,
			Model:      cfg.OpenAI.Model,
			Timeout:    time.Duration(cfg.OpenAI.TimeoutSecs) * time.Second,
			MaxRetries: cfg.OpenAI.MaxRetries,
		})
	default:
		return nil, fmt.Errorf("unbekanntes Embedding-Modell %q: %w", cfg.Type, domain.ErrConfiguration)
	}
}
