// Package stats computes windowed mean and standard deviation over a
// raster in one amortised pass, using a summed-area table so each
// window sum costs four lookups instead of a w*w rescan.
package stats

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"stereoprep/internal/logger"
	"stereoprep/raster"
)

// ErrOutOfBounds reports a single-point windowed query whose window
// extends beyond the raster grid. Never silently clamped.
var ErrOutOfBounds = errors.New("window outside image")

// varianceEpsilon is relative to |E[X^2]|: round-off can leave the
// variance slightly negative, which would poison the square root.
const varianceEpsilon = 1e-15

// Grid is a dense float64 result grid, one value per valid window
// position. Its origin is offset by (w-1)/2 from the source raster.
type Grid struct {
	Data []float64
	Rows int
	Cols int
}

// At returns the value at (row, col).
func (g *Grid) At(row, col int) float64 {
	return g.Data[row*g.Cols+col]
}

// MeanRaster computes the arithmetic mean of every w x w window of the
// raster. The result has shape (rows-w+1, cols-w+1).
func MeanRaster(buf *raster.Buffer, w int) (*Grid, error) {
	if err := validateWindow(buf, w); err != nil {
		return nil, err
	}
	sat := newSummedArea(buf, false)
	return sat.windowMeans(w), nil
}

// StdRaster computes the population standard deviation of every w x w
// window via std = sqrt(E[X^2] - E[X]^2), with the variance clamped to
// zero when it falls below varianceEpsilon * |E[X^2]|.
func StdRaster(buf *raster.Buffer, w int) (*Grid, error) {
	if err := validateWindow(buf, w); err != nil {
		return nil, err
	}
	mean := newSummedArea(buf, false).windowMeans(w)
	meanSq := newSummedArea(buf, true).windowMeans(w)

	std := &Grid{
		Data: make([]float64, len(mean.Data)),
		Rows: mean.Rows,
		Cols: mean.Cols,
	}
	for i, m := range mean.Data {
		variance := meanSq.Data[i] - m*m
		if variance < varianceEpsilon*math.Abs(meanSq.Data[i]) {
			variance = 0
		}
		std.Data[i] = math.Sqrt(variance)
	}
	return std, nil
}

// MeanPatch computes the mean of the w x w window centered at
// (row, col). It is an independent single-point query, not derived
// from the full-raster pass, and fails with ErrOutOfBounds when any
// part of the window leaves the grid.
func MeanPatch(buf *raster.Buffer, row, col, w int) (float64, error) {
	if err := validateWindowSize(w); err != nil {
		return 0, err
	}
	half := w / 2
	if !buf.Inside(row-half, col-half) || !buf.Inside(row+half, col+half) {
		err := fmt.Errorf("window %d centered at (%d,%d) on %dx%d raster: %w",
			w, row, col, buf.Rows(), buf.Cols(), ErrOutOfBounds)
		logger.Default().Error("stats", err, nil)
		return 0, err
	}

	sum := 0.0
	for r := row - half; r <= row+half; r++ {
		for c := col - half; c <= col+half; c++ {
			sum += float64(buf.At(r, c))
		}
	}
	return sum / float64(w*w), nil
}

// summedArea is the (rows+1) x (cols+1) prefix-sum table: table[i][j]
// holds the sum of samples[0..i-1, 0..j-1], so any window sum is an
// O(1) four-corner lookup.
type summedArea struct {
	table []float64
	rows  int // source rows
	cols  int // source cols
}

func newSummedArea(buf *raster.Buffer, squared bool) *summedArea {
	rows, cols := buf.Rows(), buf.Cols()
	samples := buf.Samples()
	stride := cols + 1

	sat := &summedArea{
		table: make([]float64, (rows+1)*stride),
		rows:  rows,
		cols:  cols,
	}

	// Row 0 and column 0 of the table stay zero. Each row is the
	// cumulative sum of the source row added onto the table row above.
	rowVals := make([]float64, cols)
	rowCum := make([]float64, cols)
	for r := 0; r < rows; r++ {
		src := samples[r*cols : (r+1)*cols]
		for c, v := range src {
			fv := float64(v)
			if squared {
				fv *= fv
			}
			rowVals[c] = fv
		}
		floats.CumSum(rowCum, rowVals)

		above := sat.table[r*stride:]
		dst := sat.table[(r+1)*stride:]
		for c := 0; c < cols; c++ {
			dst[c+1] = above[c+1] + rowCum[c]
		}
	}
	return sat
}

// windowSum returns the sum over the w x w window whose top-left
// corner is at (row, col) in the source.
func (s *summedArea) windowSum(row, col, w int) float64 {
	stride := s.cols + 1
	top := s.table[row*stride:]
	bottom := s.table[(row+w)*stride:]
	return bottom[col+w] - top[col+w] - bottom[col] + top[col]
}

func (s *summedArea) windowMeans(w int) *Grid {
	outRows := s.rows - w + 1
	outCols := s.cols - w + 1
	out := &Grid{
		Data: make([]float64, outRows*outCols),
		Rows: outRows,
		Cols: outCols,
	}
	area := float64(w * w)
	for r := 0; r < outRows; r++ {
		for c := 0; c < outCols; c++ {
			out.Data[r*outCols+c] = s.windowSum(r, c, w) / area
		}
	}
	return out
}

func validateWindowSize(w int) error {
	if w <= 0 || w%2 == 0 {
		return fmt.Errorf("window size %d must be positive and odd: %w", w, raster.ErrInvalidConfiguration)
	}
	return nil
}

func validateWindow(buf *raster.Buffer, w int) error {
	if err := validateWindowSize(w); err != nil {
		return err
	}
	if w > buf.Rows() || w > buf.Cols() {
		return fmt.Errorf("window size %d exceeds %dx%d raster: %w",
			w, buf.Rows(), buf.Cols(), raster.ErrInvalidConfiguration)
	}
	return nil
}
