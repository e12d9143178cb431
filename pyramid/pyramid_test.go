package pyramid

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stereoprep/raster"
)

func constantBuffer(t *testing.T, rows, cols int, value float32, withMask bool) *raster.Buffer {
	t.Helper()
	samples := make([]float32, rows*cols)
	for i := range samples {
		samples[i] = value
	}
	var mask []int16
	if withMask {
		mask = make([]int16, rows*cols)
	}
	buf, err := raster.NewDerived(samples, rows, cols, nil, mask, raster.DefaultNoData, raster.DefaultConvention)
	require.NoError(t, err)
	return buf
}

func TestPrepareValidation(t *testing.T) {
	left := constantBuffer(t, 8, 8, 1, false)
	right := constantBuffer(t, 8, 8, 1, false)

	_, _, err := Prepare(left, right, 0, 2)
	assert.ErrorIs(t, err, raster.ErrInvalidConfiguration)

	_, _, err = Prepare(left, right, 2, 0)
	assert.ErrorIs(t, err, raster.ErrInvalidConfiguration)

	_, _, err = Prepare(left, right, -1, -1)
	assert.ErrorIs(t, err, raster.ErrInvalidConfiguration)
}

func TestSingleScaleIsJustTheInput(t *testing.T) {
	left := constantBuffer(t, 6, 7, 3, false)
	right := constantBuffer(t, 6, 7, 4, false)

	leftPyr, rightPyr, err := Prepare(left, right, 1, 2)
	require.NoError(t, err)
	require.Len(t, leftPyr, 1)
	require.Len(t, rightPyr, 1)

	// The finest level is the input itself, unchanged.
	assert.Same(t, left, leftPyr[0])
	assert.Same(t, right, rightPyr[0])
}

func TestPassthroughFactorKeepsDimensions(t *testing.T) {
	left := constantBuffer(t, 5, 9, 2, true)
	right := constantBuffer(t, 5, 9, 6, false)

	leftPyr, rightPyr, err := Prepare(left, right, 3, 1)
	require.NoError(t, err)
	require.Len(t, leftPyr, 3)
	require.Len(t, rightPyr, 3)

	assert.Same(t, left, leftPyr[2])
	for level, buf := range leftPyr {
		assert.Equal(t, 5, buf.Rows(), "level %d", level)
		assert.Equal(t, 9, buf.Cols(), "level %d", level)
		if diff := cmp.Diff(left.Samples(), buf.Samples()); diff != "" {
			t.Errorf("level %d samples mismatch (-want +got):\n%s", level, diff)
		}
	}

	// Passthrough levels are fresh copies, not aliases.
	leftPyr[0].Samples()[0] = 42
	assert.Equal(t, float32(2), leftPyr[1].At(0, 0))
}

func TestDownsampleConstantImage(t *testing.T) {
	// Smoothing and area decimation both preserve a constant image.
	buf := constantBuffer(t, 16, 12, 9, false)

	small, err := Downsample(buf, 2)
	require.NoError(t, err)

	assert.Equal(t, 8, small.Rows())
	assert.Equal(t, 6, small.Cols())
	for r := 0; r < small.Rows(); r++ {
		for c := 0; c < small.Cols(); c++ {
			assert.InDelta(t, 9, small.At(r, c), 1e-4, "at (%d,%d)", r, c)
		}
	}

	// An absent mask becomes an all-valid mask at the target size.
	require.True(t, small.HasMask())
	for _, v := range small.Mask() {
		assert.Equal(t, raster.DefaultConvention.ValidPixels, v)
	}
}

func TestDownsampleMaskIndependently(t *testing.T) {
	rows, cols := 8, 8
	samples := make([]float32, rows*cols)
	mask := make([]int16, rows*cols)
	for i := range mask {
		mask[i] = raster.DefaultConvention.NoDataMask
	}
	buf, err := raster.NewDerived(samples, rows, cols, nil, mask, raster.DefaultNoData, raster.DefaultConvention)
	require.NoError(t, err)

	small, err := Downsample(buf, 2)
	require.NoError(t, err)

	// Nearest-neighbor decimation of an all-no-data mask stays
	// all-no-data regardless of the smoothed intensities.
	require.True(t, small.HasMask())
	for _, v := range small.Mask() {
		assert.Equal(t, raster.DefaultConvention.NoDataMask, v)
	}
}

func TestAttributesPropagate(t *testing.T) {
	conv := raster.Convention{ValidPixels: 3, NoDataMask: 4}
	samples := make([]float32, 16*16)
	left, err := raster.NewDerived(samples, 16, 16, nil, nil, -1234, conv)
	require.NoError(t, err)
	right, err := raster.NewDerived(append([]float32(nil), samples...), 16, 16, nil, nil, -1234, conv)
	require.NoError(t, err)

	leftPyr, _, err := Prepare(left, right, 2, 2)
	require.NoError(t, err)

	for level, buf := range leftPyr {
		assert.Equal(t, float32(-1234), buf.NoDataValue(), "level %d", level)
		assert.Equal(t, conv, buf.Conv(), "level %d", level)
	}
}

func TestDownsampleTooAggressive(t *testing.T) {
	buf := constantBuffer(t, 4, 4, 1, false)
	_, err := Downsample(buf, 8)
	assert.ErrorIs(t, err, raster.ErrInvalidConfiguration)
}
