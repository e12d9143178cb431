package grid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromSamplesValidation(t *testing.T) {
	_, err := FromSamples(make([]float32, 5), 2, 3)
	assert.Error(t, err)

	_, err = FromSamples(nil, 0, 3)
	assert.Error(t, err)

	g, err := FromSamples(make([]float32, 6), 2, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, g.Rows())
	assert.Equal(t, 3, g.Cols())
}

func TestAtAndWindow(t *testing.T) {
	data := []float32{
		0, 1, 2, 3,
		4, 5, 6, 7,
		8, 9, 10, 11,
		12, 13, 14, 15,
	}
	g, err := FromSamples(data, 4, 4)
	require.NoError(t, err)

	assert.Equal(t, float32(6), g.At(1, 2))

	win := g.Window(1, 1, 3)
	assert.Equal(t, 3, win.Rows())
	assert.Equal(t, float32(5), win.At(0, 0))
	assert.Equal(t, float32(10), win.At(1, 1))
	assert.Equal(t, float32(15), win.At(2, 2))

	// Nested windows keep the same backing storage.
	inner := win.Window(1, 1, 2)
	assert.Equal(t, float32(10), inner.At(0, 0))
}

func TestWindowIsNonOwningView(t *testing.T) {
	data := make([]float32, 16)
	g, err := FromSamples(data, 4, 4)
	require.NoError(t, err)

	win := g.Window(2, 2, 2)
	data[2*4+2] = 77
	assert.Equal(t, float32(77), win.At(0, 0), "view must share storage, not copy")
}

func TestRow(t *testing.T) {
	data := []float32{
		0, 1, 2,
		3, 4, 5,
		6, 7, 8,
	}
	g, err := FromSamples(data, 3, 3)
	require.NoError(t, err)
	assert.Equal(t, []float32{3, 4, 5}, g.Row(1))

	win := g.Window(1, 1, 2)
	assert.Equal(t, []float32{7, 8}, win.Row(1))
}
