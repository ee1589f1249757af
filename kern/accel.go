package kern

import (
	"math"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas64"
	"gonum.org/v1/gonum/mat"
)

// Below this many rows the portable loop is as fast as the BLAS path.
const accelMinRows = 64

var accelerated = true

// SetAccelerated enables or disables the BLAS path of TrainingCov. The path
// runs on whatever implementation blas64.Use installed, native or pure Go.
func SetAccelerated(on bool) { accelerated = on }

// Squared distances below this fraction of |z_i|^2 + |z_j|^2 have lost too
// many digits to cancellation and are recomputed row by row.
const accelRecompute = 1e-3

// trainingCovAccel computes TrainingCov from the Gram matrix of the scaled,
// column-centered inputs,
//
//	r_ij^2 = |z_i|^2 + |z_j|^2 - 2 z_i.z_j,  z_ik = (x_ik - mean_k) / l_k
//
// with a single Syrk call. Pairs whose r_ij^2 is small next to the norms go
// through the portable formula instead. It reports false when it did not
// compute anything and the caller must fall back to the portable path.
func (k *Exp) trainingCovAccel(x mat.Matrix) (*mat.SymDense, bool) {
	if !accelerated || k.model != ScaledEuclidean {
		return nil, false
	}
	n, m := x.Dims()
	if n < accelMinRows {
		return nil, false
	}

	mean := make([]float64, m)
	for i := 0; i < n; i++ {
		for c := 0; c < m; c++ {
			mean[c] += x.At(i, c)
		}
	}
	for c := range mean {
		mean[c] /= float64(n)
	}

	z := blas64.General{
		Rows:   n,
		Cols:   m,
		Stride: m,
		Data:   make([]float64, n*m),
	}
	norms := make([]float64, n)
	for i := 0; i < n; i++ {
		for c := 0; c < m; c++ {
			l := k.lengthScale[min(c, len(k.lengthScale)-1)]
			v := (x.At(i, c) - mean[c]) / l
			z.Data[i*m+c] = v
			norms[i] += v * v
		}
	}

	// gram = z * z.T (upper triangle)
	gram := blas64.Symmetric{
		N:      n,
		Stride: n,
		Data:   make([]float64, n*n),
		Uplo:   blas.Upper,
	}
	blas64.Syrk(blas.NoTrans, 1.0, z, 0.0, gram)

	// Overwrite the Gram matrix with the covariance, in place.
	s := k.invSqScales()
	recomputed := 0
	for i := 0; i < n; i++ {
		gram.Data[i*n+i] = snap(k.magnSigma2)
		for j := i + 1; j < n; j++ {
			d2 := norms[i] + norms[j] - 2*gram.Data[i*n+j]
			if d2 < accelRecompute*(norms[i]+norms[j]) {
				d2 = sqDistRows(x, i, j, s)
				recomputed++
			}
			gram.Data[i*n+j] = snap(k.magnSigma2 * math.Exp(-math.Sqrt(d2)))
		}
	}
	if recomputed > 0 {
		logger.Debug().Int("pairs", recomputed).Msg("close pairs recomputed without the Gram matrix")
	}
	return mat.NewSymDense(n, gram.Data), true
}
