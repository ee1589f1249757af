package kern

import (
	"errors"

	"gonum.org/v1/gonum/mat"
)

var (
	ErrArgumentCount        = errors.New("unbalanced field/value arguments")
	ErrInvalidParameterName = errors.New("invalid parameter name")
	ErrInvalidValue         = errors.New("invalid parameter value")
	ErrDimensionMismatch    = errors.New("input dimensions do not match")
	ErrShortVector          = errors.New("parameter vector too short")
	ErrEmptyInput           = errors.New("input has no rows")
)

// CovarianceFunction is a GP covariance function whose hyperparameters can be
// packed into a flat, log-transformed vector for an optimizer. Input
// matrices hold one sample per row; a nil second input means "same as the
// first".
type CovarianceFunction interface {
	// Number of values Pack appends.
	NumParams() int

	// Append the log-transformed hyperparameters to w.
	Pack(w []float64) []float64

	// Consume the prefix Pack would produce and return the remainder.
	Unpack(w []float64) []float64

	// Hyperprior energy in the log-transformed parameter space.
	LogPriorEnergy(x, t mat.Matrix) float64

	// Check that x1 and x2 (x1 when nil) can be passed to the other
	// methods: at least one row each and matching column counts.
	CheckDims(x1, x2 mat.Matrix) error

	// Covariance between the rows of x1 and x2.
	Cov(x1, x2 mat.Matrix) (*mat.Dense, error)

	// Covariance of x with itself. Panics when CheckDims(x, nil) fails.
	TrainingCov(x mat.Matrix) *mat.SymDense

	// Diagonal of TrainingCov, with the same precondition.
	TrainingVar(x mat.Matrix) *mat.VecDense

	// Derivatives of the covariance with respect to the log
	// hyperparameters, and the gradient of LogPriorEnergy in packing order.
	// With diag set only the variance (diagonal) block is differentiated.
	GradHyper(x, x2 mat.Matrix, diag bool) ([]*mat.Dense, []float64, error)

	// Derivatives of the covariance with respect to every input coordinate
	// of x, dimension-major, and the matching (zero) prior gradients.
	GradInput(x, x2 mat.Matrix) ([]*mat.Dense, []float64, error)

	// Empty archive of parameter states.
	InitRecord() *Record

	// Store the current parameter state at index ri of rec.
	AppendRecord(rec *Record, ri int) *Record
}
