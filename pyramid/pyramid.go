// Package pyramid builds coarse-to-fine multi-scale stacks of raster
// buffers by repeated Gaussian smoothing and area-weighted decimation.
package pyramid

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"stereoprep/internal/logger"
	"stereoprep/internal/opencv/bridge"
	"stereoprep/internal/opencv/safe"
	"stereoprep/raster"
)

// Fixed smoothing applied before each decimation.
const (
	smoothKernelSize = 5
	smoothSigma      = 1.2
)

// Prepare builds the left and right pyramids. Each has numScales
// levels ordered coarse to fine; the finest (last) level is the
// respective input buffer unchanged.
func Prepare(left, right *raster.Buffer, numScales, scaleFactor int) ([]*raster.Buffer, []*raster.Buffer, error) {
	if numScales < 1 {
		return nil, nil, fmt.Errorf("num scales %d must be positive: %w", numScales, raster.ErrInvalidConfiguration)
	}
	if scaleFactor < 1 {
		return nil, nil, fmt.Errorf("scale factor %d must be positive: %w", scaleFactor, raster.ErrInvalidConfiguration)
	}

	leftPyr, err := build(left, numScales, scaleFactor)
	if err != nil {
		return nil, nil, fmt.Errorf("left pyramid: %w", err)
	}
	rightPyr, err := build(right, numScales, scaleFactor)
	if err != nil {
		return nil, nil, fmt.Errorf("right pyramid: %w", err)
	}
	return leftPyr, rightPyr, nil
}

// build derives levels fine to coarse by repeated application, then
// reverses so index 0 is the coarsest.
func build(img *raster.Buffer, numScales, scaleFactor int) ([]*raster.Buffer, error) {
	levels := make([]*raster.Buffer, 0, numScales)
	levels = append(levels, img)
	for i := 1; i < numScales; i++ {
		next, err := Downsample(levels[len(levels)-1], scaleFactor)
		if err != nil {
			return nil, fmt.Errorf("level %d: %w", i, err)
		}
		logger.Default().Debug("pyramid", "level built", map[string]interface{}{
			"level": i,
			"rows":  next.Rows(),
			"cols":  next.Cols(),
		})
		levels = append(levels, next)
	}
	for i, j := 0, len(levels)-1; i < j; i, j = i+1, j-1 {
		levels[i], levels[j] = levels[j], levels[i]
	}
	return levels, nil
}

// Downsample derives one coarser level: 5x5 Gaussian smoothing with
// sigma 1.2 in both axes, then area-weighted decimation to
// floor(cols/factor) x floor(rows/factor). The mask is decimated
// independently with nearest-neighbor; a missing mask becomes an
// all-valid mask of the target size. A factor of 1 is a passthrough
// returning a fresh copy.
func Downsample(img *raster.Buffer, factor int) (*raster.Buffer, error) {
	if factor == 1 {
		return img.Clone(), nil
	}

	targetRows := img.Rows() / factor
	targetCols := img.Cols() / factor
	if targetRows < 1 || targetCols < 1 {
		return nil, fmt.Errorf("factor %d collapses %dx%d raster: %w",
			factor, img.Rows(), img.Cols(), raster.ErrInvalidConfiguration)
	}

	samples, err := decimateSamples(img, targetRows, targetCols)
	if err != nil {
		return nil, err
	}
	mask, err := decimateMask(img, targetRows, targetCols)
	if err != nil {
		return nil, err
	}
	return raster.NewDerived(samples, targetRows, targetCols, nil, mask, img.NoDataValue(), img.Conv())
}

func decimateSamples(img *raster.Buffer, targetRows, targetCols int) ([]float32, error) {
	src, err := bridge.MatFromFloat32(img.Samples(), img.Rows(), img.Cols())
	if err != nil {
		return nil, fmt.Errorf("samples to mat: %w", err)
	}
	defer src.Close()

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(*src.Raw(), &blurred,
		image.Point{X: smoothKernelSize, Y: smoothKernelSize},
		smoothSigma, smoothSigma, gocv.BorderDefault)

	small := gocv.NewMat()
	defer small.Close()
	gocv.Resize(blurred, &small, image.Point{X: targetCols, Y: targetRows}, 0, 0, gocv.InterpolationArea)

	samples, _, _, err := bridge.Float32FromMat(safe.Own(small))
	if err != nil {
		return nil, fmt.Errorf("mat to samples: %w", err)
	}
	return samples, nil
}

func decimateMask(img *raster.Buffer, targetRows, targetCols int) ([]int16, error) {
	if !img.HasMask() {
		mask := make([]int16, targetRows*targetCols)
		if valid := img.Conv().ValidPixels; valid != 0 {
			for i := range mask {
				mask[i] = valid
			}
		}
		return mask, nil
	}

	src, err := bridge.MatFromInt16(img.Mask(), img.Rows(), img.Cols())
	if err != nil {
		return nil, fmt.Errorf("mask to mat: %w", err)
	}
	defer src.Close()

	small := gocv.NewMat()
	defer small.Close()
	gocv.Resize(*src.Raw(), &small, image.Point{X: targetCols, Y: targetRows}, 0, 0, gocv.InterpolationNearestNeighbor)

	mask, _, _, err := bridge.Int16FromMat(safe.Own(small))
	if err != nil {
		return nil, fmt.Errorf("mat to mask: %w", err)
	}
	return mask, nil
}
