package hashing

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"unirag/internal/domain"
)

func TestNewEmbedder_RejectsBadDimension(t *testing.T) {
	_, err := NewEmbedder(0)
	assert.Error(t, err)
}

func TestEmbed_NormalizedAndDeterministic(t *testing.T) {
	e, err := NewEmbedder(DefaultDimension)
	require.NoError(t, err)
	ctx := context.Background()

	a, err := e.Embed(ctx, "Das Masterstudium dauert vier Semester.")
	require.NoError(t, err)
	b, err := e.Embed(ctx, "Das Masterstudium dauert vier Semester.")
	require.NoError(t, err)

	assert.False(t, a.Degenerate)
	assert.Len(t, a.Vector, DefaultDimension)
	assert.Equal(t, a.Vector, b.Vector)
	assert.InDelta(t, 1.0, domain.Norm(a.Vector), 1e-5)
}

func TestEmbed_DegenerateInputs(t *testing.T) {
	e, err := NewEmbedder(64)
	require.NoError(t, err)

	for _, text := range []string{"", "   ", "!!! ... ???", "the and of", "der die das"} {
		emb, err := e.Embed(context.Background(), text)
		require.NoError(t, err)
		assert.True(t, emb.Degenerate, "text %q", text)
		assert.Len(t, emb.Vector, 64)
	}
}

func TestEmbed_SimilarTextsAreCloser(t *testing.T) {
	e, err := NewEmbedder(DefaultDimension)
	require.NoError(t, err)
	ctx := context.Background()

	q, _ := e.Embed(ctx, "Regelstudienzeit Master Semester")
	near, _ := e.Embed(ctx, "Die Regelstudienzeit im Master beträgt vier Semester")
	far, _ := e.Embed(ctx, "Bibliothek Öffnungszeiten Mensa Speiseplan")

	assert.Greater(t, dot(q.Vector, near.Vector), dot(q.Vector, far.Vector))
}

func dot(a, b []float32) float64 {
	s := 0.0
	for i := range a {
		s += float64(a[i]) * float64(b[i])
	}
	if math.IsNaN(s) {
		return 0
	}
	return s
}
