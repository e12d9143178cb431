// Package raster defines the Buffer model shared by all preprocessing
// kernels: a single-band float32 sample grid with an optional validity
// mask, optional auxiliary layers, and the mask convention carried as
// an explicit immutable configuration value.
package raster

import (
	"errors"
	"fmt"
	"math"
)

// DefaultNoData replaces a NaN no-data sentinel at ingestion time so
// the arithmetic kernels never have to compare NaN.
const DefaultNoData = -9999

// Sentinel errors shared across the kernel packages.
var (
	ErrShapeMismatch        = errors.New("shape mismatch")
	ErrInvalidConfiguration = errors.New("invalid configuration")
)

// Convention fixes the integer values used in the validity mask.
// A pixel that is both externally invalid and no-data is recorded as
// no-data: the no-data value is assigned last and overwrites.
type Convention struct {
	ValidPixels int16
	NoDataMask  int16
}

// DefaultConvention is the mask convention used when none is supplied.
var DefaultConvention = Convention{ValidPixels: 0, NoDataMask: 1}

// Invalid returns the mask value recorded for pixels rejected by an
// external input mask.
func (c Convention) Invalid() int16 {
	return c.ValidPixels + c.NoDataMask + 1
}

// Buffer is an immutable single-band raster. Every kernel produces a
// new Buffer rather than mutating its input; after a kernel runs no
// buffer aliases another's sample storage.
type Buffer struct {
	rows, cols int
	samples    []float32
	mask       []int16 // nil when no pixel is invalid and no mask was supplied
	classif    []int16
	segm       []int16
	colCoords  []float64
	noData     float32
	conv       Convention
}

// Option configures ingestion via New.
type Option func(*options)

type options struct {
	mask    []int16
	classif []int16
	segm    []int16
	conv    Convention
}

// WithMask attaches an external input mask: 0 marks a valid pixel, any
// other value marks an invalid pixel.
func WithMask(mask []int16) Option {
	return func(o *options) { o.mask = mask }
}

// WithClassification attaches a classification layer. Auxiliary layers
// are carried alongside the samples but never touched by the kernels.
func WithClassification(classif []int16) Option {
	return func(o *options) { o.classif = classif }
}

// WithSegmentation attaches a segmentation layer.
func WithSegmentation(segm []int16) Option {
	return func(o *options) { o.segm = segm }
}

// WithConvention overrides the default mask convention.
func WithConvention(conv Convention) Option {
	return func(o *options) { o.conv = conv }
}

// New ingests an externally decoded sample grid. The samples slice is
// taken over by the buffer; the caller must not retain it.
//
// A NaN noData sentinel is rewritten to DefaultNoData in the samples
// so downstream kernels stay NaN-free; the mask still records the
// original no-data positions. The mask is created lazily: when no
// pixel is no-data and no external mask is given, it is omitted.
func New(samples []float32, rows, cols int, noData float32, opts ...Option) (*Buffer, error) {
	o := options{conv: DefaultConvention}
	for _, opt := range opts {
		opt(&o)
	}

	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("buffer dimensions %dx%d: %w", rows, cols, ErrInvalidConfiguration)
	}
	n := rows * cols
	if len(samples) != n {
		return nil, fmt.Errorf("samples length %d for %dx%d grid: %w", len(samples), rows, cols, ErrShapeMismatch)
	}
	if o.mask != nil && len(o.mask) != n {
		return nil, fmt.Errorf("mask length %d for %dx%d grid: %w", len(o.mask), rows, cols, ErrShapeMismatch)
	}
	if o.classif != nil && len(o.classif) != n {
		return nil, fmt.Errorf("classification length %d for %dx%d grid: %w", len(o.classif), rows, cols, ErrShapeMismatch)
	}
	if o.segm != nil && len(o.segm) != n {
		return nil, fmt.Errorf("segmentation length %d for %dx%d grid: %w", len(o.segm), rows, cols, ErrShapeMismatch)
	}

	nanSentinel := math.IsNaN(float64(noData))
	hasNoData := false
	noDataAt := make([]bool, n)
	for i, v := range samples {
		if nanSentinel {
			noDataAt[i] = math.IsNaN(float64(v))
		} else {
			noDataAt[i] = v == noData
		}
		hasNoData = hasNoData || noDataAt[i]
	}
	if nanSentinel && hasNoData {
		for i := range samples {
			if noDataAt[i] {
				samples[i] = DefaultNoData
			}
		}
		noData = DefaultNoData
	}

	b := &Buffer{
		rows:    rows,
		cols:    cols,
		samples: samples,
		classif: o.classif,
		segm:    o.segm,
		noData:  noData,
		conv:    o.conv,
	}

	// No invalid pixel and no external mask: skip the mask entirely.
	if o.mask == nil && !hasNoData {
		return b, nil
	}

	mask := make([]int16, n)
	for i := range mask {
		mask[i] = o.conv.ValidPixels
	}
	if o.mask != nil {
		invalid := o.conv.Invalid()
		for i, v := range o.mask {
			if v > 0 {
				mask[i] = invalid
			}
		}
	}
	for i, nd := range noDataAt {
		if nd {
			mask[i] = o.conv.NoDataMask
		}
	}
	b.mask = mask
	return b, nil
}

// NewDerived assembles a buffer produced by a kernel. Samples and mask
// are taken as-is: the mask, when present, already uses the internal
// convention. colCoords may be nil for the default 0..cols-1 labels.
func NewDerived(samples []float32, rows, cols int, colCoords []float64, mask []int16, noData float32, conv Convention) (*Buffer, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("buffer dimensions %dx%d: %w", rows, cols, ErrInvalidConfiguration)
	}
	if len(samples) != rows*cols {
		return nil, fmt.Errorf("samples length %d for %dx%d grid: %w", len(samples), rows, cols, ErrShapeMismatch)
	}
	if mask != nil && len(mask) != rows*cols {
		return nil, fmt.Errorf("mask length %d for %dx%d grid: %w", len(mask), rows, cols, ErrShapeMismatch)
	}
	if colCoords != nil && len(colCoords) != cols {
		return nil, fmt.Errorf("column labels length %d for %d columns: %w", len(colCoords), cols, ErrShapeMismatch)
	}
	return &Buffer{
		rows:      rows,
		cols:      cols,
		samples:   samples,
		mask:      mask,
		colCoords: colCoords,
		noData:    noData,
		conv:      conv,
	}, nil
}

func (b *Buffer) Rows() int { return b.rows }
func (b *Buffer) Cols() int { return b.cols }

// At returns the sample at (row, col).
func (b *Buffer) At(row, col int) float32 {
	return b.samples[row*b.cols+col]
}

// Samples exposes the row-major backing slice for the kernels' strided
// views. Callers must treat it as read-only.
func (b *Buffer) Samples() []float32 { return b.samples }

// HasMask reports whether a validity mask is present.
func (b *Buffer) HasMask() bool { return b.mask != nil }

// Mask returns the validity mask, or nil when it was lazily omitted.
// Callers must treat it as read-only.
func (b *Buffer) Mask() []int16 { return b.mask }

// MaskAt returns the mask value at (row, col); pixels of a maskless
// buffer are all valid.
func (b *Buffer) MaskAt(row, col int) int16 {
	if b.mask == nil {
		return b.conv.ValidPixels
	}
	return b.mask[row*b.cols+col]
}

// Classification returns the classification layer, or nil.
func (b *Buffer) Classification() []int16 { return b.classif }

// Segmentation returns the segmentation layer, or nil.
func (b *Buffer) Segmentation() []int16 { return b.segm }

// NoDataValue returns the sentinel stored in the samples for no-data
// pixels. Never NaN.
func (b *Buffer) NoDataValue() float32 { return b.noData }

// Conv returns the mask convention carried by this buffer.
func (b *Buffer) Conv() Convention { return b.conv }

// ColCoord returns the column coordinate label of column c. Labels are
// integers for ingested buffers and carry fractional offsets on
// sub-pixel shifted copies.
func (b *Buffer) ColCoord(c int) float64 {
	if b.colCoords == nil {
		return float64(c)
	}
	return b.colCoords[c]
}

// ColCoords returns all column coordinate labels.
func (b *Buffer) ColCoords() []float64 {
	if b.colCoords != nil {
		return b.colCoords
	}
	coords := make([]float64, b.cols)
	for c := range coords {
		coords[c] = float64(c)
	}
	return coords
}

// Inside reports whether (row, col) lies inside the sample grid.
func (b *Buffer) Inside(row, col int) bool {
	return row >= 0 && row < b.rows && col >= 0 && col < b.cols
}

// Clone returns a deep copy with independently owned storage.
func (b *Buffer) Clone() *Buffer {
	dup := &Buffer{
		rows:    b.rows,
		cols:    b.cols,
		samples: append([]float32(nil), b.samples...),
		noData:  b.noData,
		conv:    b.conv,
	}
	if b.mask != nil {
		dup.mask = append([]int16(nil), b.mask...)
	}
	if b.classif != nil {
		dup.classif = append([]int16(nil), b.classif...)
	}
	if b.segm != nil {
		dup.segm = append([]int16(nil), b.segm...)
	}
	if b.colCoords != nil {
		dup.colCoords = append([]float64(nil), b.colCoords...)
	}
	return dup
}
