// Package subpixel generates horizontally shifted copies of the right
// raster at fractional column offsets, used downstream to search
// disparity at finer-than-one-pixel granularity.
package subpixel

import (
	"fmt"

	"stereoprep/raster"
)

// ShiftRight returns the ordered shift list for the given subpixel
// precision factor: the unmodified input first, then the +0.5 shift
// for subpix 2, or the +0.25, +0.5, +0.75 shifts for subpix 4. Each
// shifted buffer keeps the row count, loses the last column, and
// carries column labels offset by the fraction so integer and
// fractional disparity hypotheses share one coordinate system.
func ShiftRight(img *raster.Buffer, subpix int) ([]*raster.Buffer, error) {
	var fracOffsets []int
	switch subpix {
	case 1:
		// No shifting, no interpolation cost.
		return []*raster.Buffer{img}, nil
	case 2:
		fracOffsets = []int{2}
	case 4:
		fracOffsets = []int{1, 2, 3}
	default:
		return nil, fmt.Errorf("subpixel precision %d not in {1, 2, 4}: %w", subpix, raster.ErrInvalidConfiguration)
	}
	if img.Cols() < 2 {
		return nil, fmt.Errorf("subpixel shift needs at least 2 columns, got %d: %w", img.Cols(), raster.ErrInvalidConfiguration)
	}

	rows, cols := img.Rows(), img.Cols()
	shifted := make([][]float32, len(fracOffsets))
	for i := range shifted {
		shifted[i] = make([]float32, rows*(cols-1))
	}

	// Each row is linearly oversampled by 4x onto a 4*cols-3 grid so
	// that original samples land on multiples of 4; taking every 4th
	// value from offset 1, 2 or 3 yields the 0.25/0.5/0.75 shifts.
	oversampled := make([]float32, 4*cols-3)
	for r := 0; r < rows; r++ {
		oversampleRow(img, r, oversampled)
		for i, offset := range fracOffsets {
			dst := shifted[i][r*(cols-1) : (r+1)*(cols-1)]
			for c := 0; c < cols-1; c++ {
				dst[c] = oversampled[offset+4*c]
			}
		}
	}

	out := []*raster.Buffer{img}
	srcCoords := img.ColCoords()
	for i, offset := range fracOffsets {
		frac := float64(offset) * 0.25
		coords := make([]float64, cols-1)
		for c := range coords {
			coords[c] = srcCoords[c] + frac
		}
		buf, err := raster.NewDerived(shifted[i], rows, cols-1, coords, nil, img.NoDataValue(), img.Conv())
		if err != nil {
			return nil, err
		}
		out = append(out, buf)
	}
	return out, nil
}

// oversampleRow fills dst (length 4*cols-3) with the 4x linear
// oversampling of row r: dst[j] interpolates the source at column j/4.
func oversampleRow(img *raster.Buffer, r int, dst []float32) {
	cols := img.Cols()
	for c := 0; c < cols; c++ {
		dst[4*c] = img.At(r, c)
	}
	for c := 0; c < cols-1; c++ {
		left := img.At(r, c)
		right := img.At(r, c+1)
		for q := 1; q < 4; q++ {
			f := float32(q) * 0.25
			dst[4*c+q] = (1-f)*left + f*right
		}
	}
}
