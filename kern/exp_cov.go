package kern

import (
	"fmt"
	"math"

	"github.com/lucasmaystre/gpkern/utils"
	"gonum.org/v1/gonum/mat"
)

// Inverse squared length scales, 1 / l_k^2.
func (k *Exp) invSqScales() []float64 {
	s := make([]float64, len(k.lengthScale))
	for i, l := range k.lengthScale {
		s[i] = 1 / (l * l)
	}
	return s
}

// CheckDims reports whether x1 and x2 (x1 when nil) have rows and share a
// column count matching the length scales.
func (k *Exp) CheckDims(x1, x2 mat.Matrix) error {
	if x2 == nil {
		x2 = x1
	}
	if err := checkPair(x1, x2); err != nil {
		return err
	}
	_, c := x1.Dims()
	if k.model == ScaledEuclidean && k.numScales() > 1 && c != k.numScales() {
		return fmt.Errorf("%d columns for %d length scales: %w", c, k.numScales(), ErrDimensionMismatch)
	}
	return nil
}

func checkPair(x1, x2 mat.Matrix) error {
	r1, c1 := x1.Dims()
	r2, c2 := x2.Dims()
	if r1 == 0 || r2 == 0 {
		return ErrEmptyInput
	}
	if c1 != c2 {
		return fmt.Errorf("%d vs %d columns: %w", c1, c2, ErrDimensionMismatch)
	}
	return nil
}

// Scaled squared distance between rows i and j of x.
func sqDistRows(x mat.Matrix, i, j int, s []float64) float64 {
	_, m := x.Dims()
	d := 0.0
	for c := 0; c < m; c++ {
		diff := x.At(i, c) - x.At(j, c)
		d += s[min(c, len(s)-1)] * diff * diff
	}
	return d
}

// Distance matrix between the rows of x1 and x2.
func (k *Exp) distance(x1, x2 mat.Matrix) *mat.Dense {
	if k.model == CustomMetric {
		dist := k.metric.Distance(x1, x2)
		utils.SnapEps(dist)
		return dist
	}
	dist := utils.ScaledSqDist(x1, x2, k.invSqScales())
	utils.Sqrt(dist)
	return dist
}

// Cov returns the covariance matrix between the rows of x1 and x2; a nil x2
// means x1.
func (k *Exp) Cov(x1, x2 mat.Matrix) (*mat.Dense, error) {
	if x2 == nil {
		x2 = x1
	}
	if err := k.CheckDims(x1, x2); err != nil {
		return nil, err
	}
	c := k.distance(x1, x2)
	c.Apply(func(_, _ int, d float64) float64 {
		return k.magnSigma2 * math.Exp(-d)
	}, c)
	return c, nil
}

// TrainingCov returns the symmetric covariance matrix of x with itself.
// Only the upper triangle is computed and entries below machine epsilon are
// set to zero. It panics when CheckDims(x, nil) fails.
func (k *Exp) TrainingCov(x mat.Matrix) *mat.SymDense {
	if err := k.CheckDims(x, nil); err != nil {
		panic(err)
	}
	if c, ok := k.trainingCovAccel(x); ok {
		return c
	}
	n, _ := x.Dims()
	logger.Debug().Int("rows", n).Stringer("model", k.model).Msg("accelerated training covariance not computed")

	out := mat.NewSymDense(n, nil)
	if k.model == CustomMetric {
		dist := k.distance(x, nil)
		for i := 0; i < n; i++ {
			for j := i; j < n; j++ {
				out.SetSym(i, j, snap(k.magnSigma2*math.Exp(-dist.At(i, j))))
			}
		}
		return out
	}

	s := k.invSqScales()
	for i := 0; i < n; i++ {
		out.SetSym(i, i, snap(k.magnSigma2))
		for j := i + 1; j < n; j++ {
			d := sqDistRows(x, i, j, s)
			out.SetSym(i, j, snap(k.magnSigma2*math.Exp(-math.Sqrt(d))))
		}
	}
	return out
}

// TrainingVar returns the diagonal of TrainingCov, magnSigma2 everywhere.
// It panics on an input without rows.
func (k *Exp) TrainingVar(x mat.Matrix) *mat.VecDense {
	n, _ := x.Dims()
	if n == 0 {
		panic(ErrEmptyInput)
	}
	return utils.Fill(n, snap(k.magnSigma2))
}

func snap(v float64) float64 {
	if v < utils.Eps {
		return 0
	}
	return v
}
