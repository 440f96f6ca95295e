package qdrant

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"unirag/internal/domain"
)

func TestPayload_CarriesChunkMetadata(t *testing.T) {
	meta := domain.ChunkMetadata{Title: "Dauer", Filename: "master.pdf", PageNumber: 3, ChunkIndex: 7, SourcePath: "/pdfs/master.pdf"}

	text, got := fromPayload(toPayload("vier Semester", meta))

	assert.Equal(t, "vier Semester", text)
	assert.Equal(t, meta, got)
}

func TestFromPayload_MissingFieldsAreZero(t *testing.T) {
	text, meta := fromPayload(nil)
	assert.Empty(t, text)
	assert.Equal(t, domain.ChunkMetadata{}, meta)
}

func TestNewStorage_RequiresHost(t *testing.T) {
	_, err := NewStorage(Config{})
	assert.Error(t, err)
}

func TestQuery_UncreatedCollectionIsEmpty(t *testing.T) {
	s, err := NewStorage(Config{Host: "localhost"})
	require.NoError(t, err)
	defer s.Close()
	c := &Collection{store: s, name: "regs"}

	got, err := c.Query(context.Background(), []float32{1, 0}, 3)

	require.NoError(t, err)
	assert.Empty(t, got)
}
