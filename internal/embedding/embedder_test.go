package embedding

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"unirag/internal/config"
	"unirag/internal/domain"
)

func TestNew_DefaultsToHashing(t *testing.T) {
	e, err := New(config.EmbedderConfig{})
	require.NoError(t, err)
	assert.Equal(t, "hashing", e.Name())
	assert.Equal(t, 300, e.Dimension())
}

func TestNew_Ollama(t *testing.T) {
	e, err := New(config.EmbedderConfig{
		Type:   "ollama",
		Ollama: &config.OllamaEmbedderConfig{BaseURL: "http://localhost:11434", Model: "nomic-embed-text"},
	})
	require.NoError(t, err)
	assert.Equal(t, "ollama", e.Name())
}

func TestNew_MissingSectionIsConfigError(t *testing.T) {
	_, err := New(config.EmbedderConfig{Type: "openai"})
	assert.True(t, errors.Is(err, domain.ErrConfiguration))
}

func TestNew_UnknownType(t *testing.T) {
	_, err := New(config.EmbedderConfig{Type: "word2vec"})
	assert.True(t, errors.Is(err, domain.ErrConfiguration))
}
