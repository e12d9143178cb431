// Package bridge converts between the raster sample/mask slices and
// OpenCV matrices. Conversions copy: the native matrix never aliases
// Go-owned storage.
package bridge

import (
	"fmt"

	"gocv.io/x/gocv"

	"stereoprep/internal/opencv/safe"
)

// MatFromFloat32 copies a row-major float32 grid into a CV_32F matrix.
func MatFromFloat32(data []float32, rows, cols int) (*safe.Mat, error) {
	if len(data) != rows*cols {
		return nil, fmt.Errorf("grid has %d values, need %d", len(data), rows*cols)
	}
	m, err := safe.NewMat(rows, cols, gocv.MatTypeCV32F)
	if err != nil {
		return nil, err
	}
	ptr, err := m.Raw().DataPtrFloat32()
	if err != nil {
		m.Close()
		return nil, fmt.Errorf("access mat storage: %w", err)
	}
	copy(ptr, data)
	return m, nil
}

// Float32FromMat copies a single-channel CV_32F matrix back into a
// freshly allocated row-major slice.
func Float32FromMat(m *safe.Mat) ([]float32, int, int, error) {
	if err := safe.ValidateForOperation(m, "Float32FromMat"); err != nil {
		return nil, 0, 0, err
	}
	if t := m.Raw().Type(); t != gocv.MatTypeCV32F {
		return nil, 0, 0, fmt.Errorf("expected CV_32F mat, got type %d", t)
	}
	ptr, err := m.Raw().DataPtrFloat32()
	if err != nil {
		return nil, 0, 0, fmt.Errorf("access mat storage: %w", err)
	}
	rows, cols := m.Rows(), m.Cols()
	out := make([]float32, rows*cols)
	copy(out, ptr)
	return out, rows, cols, nil
}

// MatFromInt16 copies a row-major int16 grid into a CV_16S matrix.
func MatFromInt16(data []int16, rows, cols int) (*safe.Mat, error) {
	if len(data) != rows*cols {
		return nil, fmt.Errorf("grid has %d values, need %d", len(data), rows*cols)
	}
	m, err := safe.NewMat(rows, cols, gocv.MatTypeCV16S)
	if err != nil {
		return nil, err
	}
	ptr, err := m.Raw().DataPtrInt16()
	if err != nil {
		m.Close()
		return nil, fmt.Errorf("access mat storage: %w", err)
	}
	copy(ptr, data)
	return m, nil
}

// Int16FromMat copies a single-channel CV_16S matrix back into a
// freshly allocated row-major slice.
func Int16FromMat(m *safe.Mat) ([]int16, int, int, error) {
	if err := safe.ValidateForOperation(m, "Int16FromMat"); err != nil {
		return nil, 0, 0, err
	}
	if t := m.Raw().Type(); t != gocv.MatTypeCV16S {
		return nil, 0, 0, fmt.Errorf("expected CV_16S mat, got type %d", t)
	}
	ptr, err := m.Raw().DataPtrInt16()
	if err != nil {
		return nil, 0, 0, fmt.Errorf("access mat storage: %w", err)
	}
	rows, cols := m.Rows(), m.Cols()
	out := make([]int16, rows*cols)
	copy(out, ptr)
	return out, rows, cols, nil
}
