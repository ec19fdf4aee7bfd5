// Package adjusted converts raw geomagnetic channel batches into the
// geographic coordinate frame using a transform derived from absolute
// baseline measurements at the observatory pier. The transform itself is
// produced externally; this package stores it, applies it, and decides when
// enough input data exists to produce output.
package adjusted

import "gonum.org/v1/gonum/mat"

// Calibration is the transform state: a square affine matrix applied to the
// vector channels and a scalar pier correction added to the total field.
// Values are immutable once constructed; Process never mutates them.
type Calibration struct {
	Matrix         *mat.Dense
	PierCorrection float64
}

// Identity returns the uncalibrated baseline for n input channels: an n×n
// identity matrix and zero pier correction.
func Identity(n int) Calibration {
	m := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		m.Set(i, i, 1)
	}
	return Calibration{Matrix: m}
}

// Dim returns the matrix dimension.
func (c Calibration) Dim() int {
	r, _ := c.Matrix.Dims()
	return r
}
