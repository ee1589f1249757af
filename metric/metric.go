package metric

import (
	"gonum.org/v1/gonum/mat"
)

// Metric is a pluggable distance between rows of input matrices. A nil x2
// always means "x2 = x". Parameters are packed in log space.
type Metric interface {
	// Number of values Pack appends.
	NumParams() int

	Pack(w []float64) []float64

	// Unpack consumes NumParams values and returns the remainder.
	Unpack(w []float64) []float64

	// Prior energy of the metric parameters, including the log-transform
	// Jacobian.
	Energy(x, t mat.Matrix) float64

	// Pairwise distances between the rows of x1 and x2.
	Distance(x1, x2 mat.Matrix) *mat.Dense

	// Derivatives of the distance matrix with respect to each log
	// distance parameter, and the prior energy gradients in packing order.
	GradHyper(x, x2 mat.Matrix) ([]*mat.Dense, []float64)

	// Derivatives of the distance matrix with respect to every input
	// coordinate of x, dimension-major.
	GradInput(x, x2 mat.Matrix) []*mat.Dense
}
