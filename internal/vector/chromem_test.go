package vector

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChromemIndex_AddSearch(t *testing.T) {
	idx, err := NewChromemIndex(3)
	require.NoError(t, err)
	defer idx.Close()
	ctx := context.Background()

	results, err := idx.Search(ctx, []float32{1, 0, 0}, 2)
	require.NoError(t, err)
	assert.Empty(t, results)

	err = idx.Add(ctx, []string{"a", "b", "c"}, [][]float32{
		{1, 0, 0},
		{0.9, 0.1, 0},
		{0, 1, 0},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, idx.Size())
	assert.Equal(t, 3, idx.Dimensions())

	results, err = idx.Search(ctx, []float32{1, 0, 0}, 10)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "a", results[0].ID)
	assert.Equal(t, "b", results[1].ID)
	assert.InDelta(t, 1.0, results[0].Score, 1e-5)
}

func TestChromemIndex_Errors(t *testing.T) {
	idx, err := NewChromemIndex(2)
	require.NoError(t, err)
	ctx := context.Background()

	assert.Error(t, idx.Add(ctx, []string{"a"}, [][]float32{{1, 0}, {0, 1}}))
	assert.Error(t, idx.Add(ctx, []string{"a"}, [][]float32{{1, 0, 0}}))
	_, err = idx.Search(ctx, []float32{1}, 1)
	assert.Error(t, err)
	assert.NoError(t, idx.Add(ctx, nil, nil))
}
