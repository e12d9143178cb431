// Package safe wraps gocv.Mat with close-once semantics and operation
// preconditions, so the pyramid builder cannot touch a released or
// empty native matrix.
package safe

import (
	"fmt"
	"sync/atomic"

	"gocv.io/x/gocv"
)

// Mat owns a native OpenCV matrix. Close is idempotent.
type Mat struct {
	mat    gocv.Mat
	closed int32
}

// NewMat allocates a rows x cols matrix of the given type.
func NewMat(rows, cols int, matType gocv.MatType) (*Mat, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("invalid mat dimensions %dx%d", rows, cols)
	}
	mat := gocv.NewMatWithSize(rows, cols, matType)
	if mat.Empty() {
		mat.Close()
		return nil, fmt.Errorf("failed to allocate %dx%d mat", rows, cols)
	}
	return &Mat{mat: mat}, nil
}

// Own wraps an already allocated gocv.Mat. Exactly one of the wrapper
// and the original header must end up closing it.
func Own(mat gocv.Mat) *Mat {
	return &Mat{mat: mat}
}

// Raw exposes the underlying gocv.Mat for OpenCV calls. The caller
// must not Close it directly.
func (m *Mat) Raw() *gocv.Mat { return &m.mat }

func (m *Mat) Rows() int { return m.mat.Rows() }
func (m *Mat) Cols() int { return m.mat.Cols() }

func (m *Mat) Closed() bool { return atomic.LoadInt32(&m.closed) == 1 }

// Close releases the native matrix. Safe to call more than once.
func (m *Mat) Close() {
	if atomic.CompareAndSwapInt32(&m.closed, 0, 1) {
		m.mat.Close()
	}
}

// ValidateForOperation rejects released or empty matrices before an
// OpenCV call can fault on them.
func ValidateForOperation(m *Mat, operation string) error {
	if m == nil {
		return fmt.Errorf("%s: nil mat", operation)
	}
	if m.Closed() {
		return fmt.Errorf("%s: mat already closed", operation)
	}
	if m.mat.Empty() {
		return fmt.Errorf("%s: empty mat", operation)
	}
	return nil
}
