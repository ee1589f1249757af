package kern

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestSumFlattens(t *testing.T) {
	a, b, c := newARD(t), newIso(t), newWithMetric(t)
	s := NewSum(NewSum(a, b), c)
	require.Len(t, s.Parts(), 3)
	assert.Same(t, a, s.Parts()[0])
	assert.Same(t, c, s.Parts()[2])
	assert.Equal(t, a.NumParams()+b.NumParams()+c.NumParams(), s.NumParams())
}

func TestSumPackUnpack(t *testing.T) {
	a, b := newARD(t), newIso(t)
	s := NewSum(a, b)
	w := s.Pack(nil)
	require.Len(t, w, 4+2)
	assert.Equal(t, a.Pack(nil), w[:4])
	assert.Equal(t, b.Pack(nil), w[4:])

	v := make([]float64, len(w))
	copy(v, w)
	v[4] = 0
	rest := s.Unpack(append(v, 7))
	assert.Equal(t, []float64{7}, rest)
	assert.Equal(t, 1.0, b.MagnSigma2())
	assert.InEpsilon(t, 1.7, a.MagnSigma2(), 1e-14)
}

func TestSumCovariance(t *testing.T) {
	x := randInputs(6, 7, 3)
	x2 := randInputs(7, 3, 3)
	a, b := newARD(t), newIso(t)
	s := NewSum(a, b)

	var want mat.Dense
	want.Add(mustCov(t, a, x, x2), mustCov(t, b, x, x2))
	assertMatInDelta(t, &want, mustCov(t, s, x, x2), 1e-15)

	var wantSym mat.SymDense
	wantSym.AddSym(a.TrainingCov(x), b.TrainingCov(x))
	assertMatInDelta(t, &wantSym, s.TrainingCov(x), 1e-15)

	v := s.TrainingVar(x)
	for i := 0; i < 7; i++ {
		assert.InDelta(t, 1.7+0.8, v.AtVec(i), 1e-15)
	}

	_, err := s.Cov(x, randInputs(8, 3, 2))
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestSumGradHyper(t *testing.T) {
	x := randInputs(9, 5, 3)
	a, b := withPriors(t, newARD(t)), newIso(t)
	s := NewSum(a, b)

	grads, gprior, err := s.GradHyper(x, nil, false)
	require.NoError(t, err)
	require.Len(t, grads, s.NumParams())
	assert.Len(t, gprior, len(grads))

	ga, gpa, err := a.GradHyper(x, nil, false)
	require.NoError(t, err)
	assertMatInDelta(t, ga[2], grads[2], 0)
	assert.Equal(t, gpa, gprior[:len(gpa)])

	// a's hyperprior entries (packed 4 and 5) get zero matrices, so b's
	// magnitude sits at its packed index.
	assert.True(t, mat.Equal(mat.NewDense(5, 5, nil), grads[4]))
	assertMatInDelta(t, b.TrainingCov(x), grads[6], 0)

	for i := range grads {
		fd := centralDiff(func(v float64) mat.Matrix {
			return atPacked(s, i, v, func() mat.Matrix { return s.TrainingCov(x) })
		}, 0)
		assertMatInDelta(t, fd, grads[i], 1e-6, "hyper gradient %d", i)
	}
}

func TestSumGradInput(t *testing.T) {
	x := randInputs(10, 4, 3)
	a, b := newARD(t), newWithMetric(t)
	s := NewSum(a, b)

	grads, gprior, err := s.GradInput(x, nil)
	require.NoError(t, err)
	require.Len(t, grads, 3*4)
	assert.Equal(t, make([]float64, 12), gprior)

	ga, _, err := a.GradInput(x, nil)
	require.NoError(t, err)
	gb, _, err := b.GradInput(x, nil)
	require.NoError(t, err)
	for i := range grads {
		var want mat.Dense
		want.Add(ga[i], gb[i])
		assertMatInDelta(t, &want, grads[i], 1e-15)
	}
}

func TestSumRecord(t *testing.T) {
	a, b := newIso(t), newWithMetric(t)
	s := NewSum(a, b)
	rec := s.AppendRecord(nil, 0)
	require.NoError(t, a.Set("magnSigma2", 0.4))
	rec = s.AppendRecord(rec, 1)

	require.Len(t, rec.Parts, 2)
	assert.Equal(t, []float64{0.8, 0.4}, rec.Parts[0].MagnSigma2)
	assert.Equal(t, []float64{1.7, 1.7}, rec.Parts[1].MagnSigma2)
	assert.Len(t, rec.Parts[1].Metric, 2)
}
