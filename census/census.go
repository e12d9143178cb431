// Package census computes census bit descriptors: per interior pixel,
// the sign pattern of neighbor-vs-center intensity comparisons over a
// square window, packed into a fixed-width integer.
package census

import (
	"fmt"

	"stereoprep/internal/grid"
	"stereoprep/raster"
)

// descriptorBits is the widest descriptor that fits the uint32 grid.
const descriptorBits = 32

// Grid holds one uint32 descriptor per interior pixel. It is strictly
// smaller than the source: Offset is the (w-1)/2 border trimmed on
// each side, needed to map descriptor coordinates back to source
// coordinates.
type Grid struct {
	Data   []uint32
	Rows   int
	Cols   int
	Offset int
}

// At returns the descriptor at (row, col).
func (g *Grid) At(row, col int) uint32 {
	return g.Data[row*g.Cols+col]
}

// Transform computes the census descriptor of every pixel with a full
// w x w neighborhood. The window is traversed in raster order with the
// center excluded; bit (w*w-2)-j is set when neighbor j is strictly
// greater than the center. Border pixels produce no value.
func Transform(buf *raster.Buffer, w int) (*Grid, error) {
	if err := validateWindow(buf, w); err != nil {
		return nil, err
	}

	rows, cols := buf.Rows(), buf.Cols()
	view, err := grid.FromSamples(buf.Samples(), rows, cols)
	if err != nil {
		return nil, err
	}

	border := (w - 1) / 2
	out := &Grid{
		Data:   make([]uint32, (rows-w+1)*(cols-w+1)),
		Rows:   rows - w + 1,
		Cols:   cols - w + 1,
		Offset: border,
	}

	for r := 0; r < out.Rows; r++ {
		for c := 0; c < out.Cols; c++ {
			// Sliding non-owning view; nothing is copied per pixel.
			win := view.Window(r, c, w)
			center := win.At(border, border)

			var descriptor uint32
			shift := w*w - 2
			for wr := 0; wr < w; wr++ {
				for wc := 0; wc < w; wc++ {
					if wr == border && wc == border {
						continue
					}
					if win.At(wr, wc) > center {
						descriptor |= 1 << uint(shift)
					}
					shift--
				}
			}
			out.Data[r*out.Cols+c] = descriptor
		}
	}
	return out, nil
}

func validateWindow(buf *raster.Buffer, w int) error {
	if w <= 0 || w%2 == 0 {
		return fmt.Errorf("census window size %d must be positive and odd: %w", w, raster.ErrInvalidConfiguration)
	}
	if w*w-1 > descriptorBits {
		return fmt.Errorf("census window size %d needs %d descriptor bits, have %d: %w",
			w, w*w-1, descriptorBits, raster.ErrInvalidConfiguration)
	}
	if w > buf.Rows() || w > buf.Cols() {
		return fmt.Errorf("census window size %d exceeds %dx%d raster: %w",
			w, buf.Rows(), buf.Cols(), raster.ErrInvalidConfiguration)
	}
	return nil
}
