// Package grid provides a non-owning 2D float32 view over a shared
// row-major backing slice. Views are read-only by convention and are
// used by the windowed kernels to walk overlapping windows without
// materialising per-window copies.
package grid

import "fmt"

// Grid is a strided view into a backing slice. Sub-views produced by
// Window share the backing storage; nothing is copied.
type Grid struct {
	data   []float32
	rows   int
	cols   int
	stride int
	off    int
}

// FromSamples wraps a contiguous row-major slice of rows*cols values.
func FromSamples(data []float32, rows, cols int) (Grid, error) {
	if rows <= 0 || cols <= 0 {
		return Grid{}, fmt.Errorf("grid dimensions must be positive, got %dx%d", rows, cols)
	}
	if len(data) != rows*cols {
		return Grid{}, fmt.Errorf("backing slice has %d values, need %d", len(data), rows*cols)
	}
	return Grid{data: data, rows: rows, cols: cols, stride: cols}, nil
}

func (g Grid) Rows() int { return g.rows }
func (g Grid) Cols() int { return g.cols }

// At returns the value at (row, col) relative to the view origin.
func (g Grid) At(row, col int) float32 {
	return g.data[g.off+row*g.stride+col]
}

// Window returns a size x size sub-view whose top-left corner is at
// (row, col) in this view. The sub-view shares the backing storage.
func (g Grid) Window(row, col, size int) Grid {
	return Grid{
		data:   g.data,
		rows:   size,
		cols:   size,
		stride: g.stride,
		off:    g.off + row*g.stride + col,
	}
}

// Row returns the contiguous slice for one row of the view.
func (g Grid) Row(row int) []float32 {
	start := g.off + row*g.stride
	return g.data[start : start+g.cols]
}
