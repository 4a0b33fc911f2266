package hint

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"svw.info/numbermaster/internal/domain"
)

func TestHintFindsFirstPair(t *testing.T) {
	g := domain.Grid{
		{1, 2, 3, 5, 5, 0, 0, 0, 0},
		{4, 6, 0, 0, 0, 0, 0, 0, 0},
	}
	h, ok, err := NewFirstPair().Hint(context.Background(), g)
	require.NoError(t, err)
	require.True(t, ok)
	// 4 and 6 also match, but 5 and 5 come first row-major
	assert.Equal(t, []domain.Position{{Row: 0, Col: 3}, {Row: 0, Col: 4}}, h.Cells)
	assert.Equal(t, "Pair: 5 and 5", h.Message)
}

func TestHintSumMessage(t *testing.T) {
	g := domain.Grid{{7, -1, 3, 2, 0, 0, 0, 0, 0}, {8, 0, 0, 0, 0, 0, 0, 0, 0}}
	h, ok, err := NewFirstPair().Hint(context.Background(), g)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []domain.Position{{Row: 0, Col: 0}, {Row: 0, Col: 2}}, h.Cells)
	assert.Equal(t, "Pair: 7 + 3 = 10", h.Message)
}

func TestHintStuck(t *testing.T) {
	g := domain.Grid{{1, 2, 4, 0, 0, 0, 0, 0, 0}, {-5, -5, 0, 0, 0, 0, 0, 0, 0}}
	_, ok, err := NewFirstPair().Hint(context.Background(), g)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHintCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, ok, err := NewFirstPair().Hint(ctx, domain.Grid{{1, 1, 0, 0, 0, 0, 0, 0, 0}})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, ok)
}
