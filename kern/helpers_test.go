package kern

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

const h = 1e-6

func randInputs(seed uint64, n, m int) *mat.Dense {
	r := rand.New(rand.NewPCG(seed, seed+1))
	data := make([]float64, n*m)
	for i := range data {
		data[i] = r.NormFloat64()
	}
	return mat.NewDense(n, m, data)
}

func assertMatInDelta(t *testing.T, want, got mat.Matrix, delta float64, msgAndArgs ...any) {
	t.Helper()
	r, c := want.Dims()
	gr, gc := got.Dims()
	require.Equal(t, r, gr, msgAndArgs...)
	require.Equal(t, c, gc, msgAndArgs...)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if !assert.InDelta(t, want.At(i, j), got.At(i, j), delta, msgAndArgs...) {
				t.Logf("entry (%d, %d)", i, j)
				return
			}
		}
	}
}

// Central difference of a matrix-valued function of one scalar.
func centralDiff(f func(v float64) mat.Matrix, v float64) *mat.Dense {
	var out mat.Dense
	out.Sub(f(v+h), f(v-h))
	out.Scale(1/(2*h), &out)
	return &out
}

// Perturb the i-th packed parameter of k by delta, evaluate f, restore.
func atPacked(k CovarianceFunction, i int, delta float64, f func() mat.Matrix) mat.Matrix {
	w := k.Pack(nil)
	orig := w[i]
	w[i] = orig + delta
	k.Unpack(w)
	out := f()
	w[i] = orig
	k.Unpack(w)
	return out
}

func mustCov(t *testing.T, k CovarianceFunction, x1, x2 mat.Matrix) *mat.Dense {
	t.Helper()
	c, err := k.Cov(x1, x2)
	require.NoError(t, err)
	return c
}
