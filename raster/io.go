package raster

import (
	"bufio"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	_ "golang.org/x/image/tiff"

	"stereoprep/internal/logger"
)

// ReadOption configures ReadImage.
type ReadOption func(*readOptions)

type readOptions struct {
	maskPath    string
	classifPath string
	segmPath    string
	conv        Convention
}

// WithMaskFile attaches an external mask raster: 0 marks valid pixels,
// any other value invalid pixels.
func WithMaskFile(path string) ReadOption {
	return func(o *readOptions) { o.maskPath = path }
}

// WithClassificationFile attaches a classification raster.
func WithClassificationFile(path string) ReadOption {
	return func(o *readOptions) { o.classifPath = path }
}

// WithSegmentationFile attaches a segmentation raster.
func WithSegmentationFile(path string) ReadOption {
	return func(o *readOptions) { o.segmPath = path }
}

// WithReadConvention overrides the default mask convention.
func WithReadConvention(conv Convention) ReadOption {
	return func(o *readOptions) { o.conv = conv }
}

// ReadImage decodes a single-band raster (TIFF, PNG or JPEG) and its
// optional side rasters into a Buffer, with the lazy-mask and no-data
// rewriting semantics of New.
func ReadImage(path string, noData float32, opts ...ReadOption) (*Buffer, error) {
	o := readOptions{conv: DefaultConvention}
	for _, opt := range opts {
		opt(&o)
	}

	samples, rows, cols, err := decodeBand(path)
	if err != nil {
		return nil, fmt.Errorf("read image %s: %w", path, err)
	}

	bufOpts := []Option{WithConvention(o.conv)}
	if o.maskPath != "" {
		mask, mr, mc, err := decodeIntBand(o.maskPath)
		if err != nil {
			return nil, fmt.Errorf("read mask %s: %w", o.maskPath, err)
		}
		if mr != rows || mc != cols {
			return nil, fmt.Errorf("mask %dx%d for image %dx%d: %w", mr, mc, rows, cols, ErrShapeMismatch)
		}
		bufOpts = append(bufOpts, WithMask(mask))
	}
	if o.classifPath != "" {
		classif, cr, cc, err := decodeIntBand(o.classifPath)
		if err != nil {
			return nil, fmt.Errorf("read classification %s: %w", o.classifPath, err)
		}
		if cr != rows || cc != cols {
			return nil, fmt.Errorf("classification %dx%d for image %dx%d: %w", cr, cc, rows, cols, ErrShapeMismatch)
		}
		bufOpts = append(bufOpts, WithClassification(classif))
	}
	if o.segmPath != "" {
		segm, sr, sc, err := decodeIntBand(o.segmPath)
		if err != nil {
			return nil, fmt.Errorf("read segmentation %s: %w", o.segmPath, err)
		}
		if sr != rows || sc != cols {
			return nil, fmt.Errorf("segmentation %dx%d for image %dx%d: %w", sr, sc, rows, cols, ErrShapeMismatch)
		}
		bufOpts = append(bufOpts, WithSegmentation(segm))
	}

	buf, err := New(samples, rows, cols, noData, bufOpts...)
	if err != nil {
		return nil, fmt.Errorf("ingest %s: %w", path, err)
	}
	logger.Default().Debug("raster", "image ingested", map[string]interface{}{
		"path": path,
		"rows": rows,
		"cols": cols,
		"mask": buf.HasMask(),
	})
	return buf, nil
}

// Disparity is the disparity-source collaborator's representation: a
// constant disparity for the whole image, or a per-pixel grid. No
// computation is performed on it here; it is passed through unchanged.
type Disparity struct {
	Constant float64
	Grid     *Buffer // nil when Constant applies
}

// DisparityFromValue wraps a scalar disparity.
func DisparityFromValue(v float64) Disparity {
	return Disparity{Constant: v}
}

// DisparityFromFile decodes a disparity grid raster.
func DisparityFromFile(path string) (Disparity, error) {
	samples, rows, cols, err := decodeBand(path)
	if err != nil {
		return Disparity{}, fmt.Errorf("read disparity %s: %w", path, err)
	}
	grid, err := NewDerived(samples, rows, cols, nil, nil, DefaultNoData, DefaultConvention)
	if err != nil {
		return Disparity{}, err
	}
	return Disparity{Grid: grid}, nil
}

func decodeBand(path string) ([]float32, int, int, error) {
	img, err := decodeFile(path)
	if err != nil {
		return nil, 0, 0, err
	}
	bounds := img.Bounds()
	rows, cols := bounds.Dy(), bounds.Dx()
	samples := make([]float32, rows*cols)

	switch typed := img.(type) {
	case *image.Gray:
		for y := 0; y < rows; y++ {
			for x := 0; x < cols; x++ {
				samples[y*cols+x] = float32(typed.GrayAt(bounds.Min.X+x, bounds.Min.Y+y).Y)
			}
		}
	case *image.Gray16:
		for y := 0; y < rows; y++ {
			for x := 0; x < cols; x++ {
				samples[y*cols+x] = float32(typed.Gray16At(bounds.Min.X+x, bounds.Min.Y+y).Y)
			}
		}
	default:
		// Collapse multi-band input to luminance. The kernels only ever
		// see a single band.
		for y := 0; y < rows; y++ {
			for x := 0; x < cols; x++ {
				r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
				lum := (299*r + 587*g + 114*b) / 1000
				samples[y*cols+x] = float32(lum >> 8)
			}
		}
	}
	return samples, rows, cols, nil
}

func decodeIntBand(path string) ([]int16, int, int, error) {
	samples, rows, cols, err := decodeBand(path)
	if err != nil {
		return nil, 0, 0, err
	}
	band := make([]int16, len(samples))
	for i, v := range samples {
		band[i] = int16(v)
	}
	return band, rows, cols, nil
}

func decodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return img, nil
}
