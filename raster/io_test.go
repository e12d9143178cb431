package raster

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeGrayPNG(t *testing.T, dir, name string, values [][]uint8) string {
	t.Helper()
	rows := len(values)
	cols := len(values[0])
	img := image.NewGray(image.Rect(0, 0, cols, rows))
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			img.SetGray(c, r, color.Gray{Y: values[r][c]})
		}
	}
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
	return path
}

func TestReadImage(t *testing.T) {
	dir := t.TempDir()
	path := writeGrayPNG(t, dir, "img.png", [][]uint8{
		{10, 20, 30},
		{40, 50, 60},
	})

	buf, err := ReadImage(path, -9999)
	require.NoError(t, err)

	assert.Equal(t, 2, buf.Rows())
	assert.Equal(t, 3, buf.Cols())
	assert.Equal(t, float32(10), buf.At(0, 0))
	assert.Equal(t, float32(60), buf.At(1, 2))
	assert.False(t, buf.HasMask())
}

func TestReadImageWithMaskAndNoData(t *testing.T) {
	dir := t.TempDir()
	imgPath := writeGrayPNG(t, dir, "img.png", [][]uint8{
		{0, 20},
		{30, 40},
	})
	maskPath := writeGrayPNG(t, dir, "mask.png", [][]uint8{
		{0, 1},
		{0, 0},
	})

	// Pixel (0,0) holds the no-data value 0; pixel (0,1) is masked.
	buf, err := ReadImage(imgPath, 0, WithMaskFile(maskPath))
	require.NoError(t, err)

	require.True(t, buf.HasMask())
	assert.Equal(t, DefaultConvention.NoDataMask, buf.MaskAt(0, 0))
	assert.Equal(t, DefaultConvention.Invalid(), buf.MaskAt(0, 1))
	assert.Equal(t, DefaultConvention.ValidPixels, buf.MaskAt(1, 0))
}

func TestReadImageMaskShapeMismatch(t *testing.T) {
	dir := t.TempDir()
	imgPath := writeGrayPNG(t, dir, "img.png", [][]uint8{{1, 2}, {3, 4}})
	maskPath := writeGrayPNG(t, dir, "mask.png", [][]uint8{{0, 0, 0}})

	_, err := ReadImage(imgPath, -9999, WithMaskFile(maskPath))
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestReadImageMissingFile(t *testing.T) {
	_, err := ReadImage(filepath.Join(t.TempDir(), "absent.png"), -9999)
	assert.Error(t, err)
}

func TestReadImageAuxiliaryLayers(t *testing.T) {
	dir := t.TempDir()
	imgPath := writeGrayPNG(t, dir, "img.png", [][]uint8{{1, 2}, {3, 4}})
	classifPath := writeGrayPNG(t, dir, "classif.png", [][]uint8{{1, 1}, {2, 2}})
	segmPath := writeGrayPNG(t, dir, "segm.png", [][]uint8{{0, 1}, {0, 1}})

	buf, err := ReadImage(imgPath, -9999,
		WithClassificationFile(classifPath),
		WithSegmentationFile(segmPath))
	require.NoError(t, err)

	assert.Equal(t, []int16{1, 1, 2, 2}, buf.Classification())
	assert.Equal(t, []int16{0, 1, 0, 1}, buf.Segmentation())
}

func TestDisparityFromFile(t *testing.T) {
	dir := t.TempDir()
	path := writeGrayPNG(t, dir, "disp.png", [][]uint8{{5, 6}, {7, 8}})

	d, err := DisparityFromFile(path)
	require.NoError(t, err)
	require.NotNil(t, d.Grid)
	assert.Equal(t, 2, d.Grid.Rows())
	assert.Equal(t, 2, d.Grid.Cols())
	assert.Equal(t, float32(5), d.Grid.At(0, 0))
	assert.Equal(t, float32(8), d.Grid.At(1, 1))
}
