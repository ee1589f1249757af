package metric

import (
	"math"
	"testing"

	"github.com/lucasmaystre/gpkern/prior"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

const h = 1e-6

func inputs() *mat.Dense {
	return mat.NewDense(4, 3, []float64{
		0.1, 0.5, -0.3,
		1.2, -0.7, 0.4,
		0.9, 0.2, 1.5,
		-0.4, 1.1, 0.0,
	})
}

func newMetric(t *testing.T) *Euclidean {
	t.Helper()
	m, err := NewEuclidean(3, [][]int{{0, 2}, {1}}, []float64{0.8, 1.7})
	require.NoError(t, err)
	return m
}

func assertMatInDelta(t *testing.T, want, got mat.Matrix, delta float64) {
	t.Helper()
	r, c := want.Dims()
	gr, gc := got.Dims()
	require.Equal(t, r, gr)
	require.Equal(t, c, gc)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			assert.InDelta(t, want.At(i, j), got.At(i, j), delta, "entry (%d, %d)", i, j)
		}
	}
}

func TestNewEuclideanValidation(t *testing.T) {
	_, err := NewEuclidean(2, nil, []float64{1})
	require.ErrorIs(t, err, ErrInvalidComponents)
	_, err = NewEuclidean(2, [][]int{{0}, {1}}, []float64{1, 2, 3})
	require.ErrorIs(t, err, ErrInvalidComponents)
	_, err = NewEuclidean(2, [][]int{{0}, {2}}, []float64{1, 2})
	require.ErrorIs(t, err, ErrInvalidComponents)
	_, err = NewEuclidean(2, [][]int{{0, 1}, {1}}, []float64{1, 2})
	require.ErrorIs(t, err, ErrInvalidComponents)
	_, err = NewEuclidean(2, [][]int{{0, 1}}, []float64{-1})
	require.ErrorIs(t, err, ErrInvalidComponents)
}

func TestDistance(t *testing.T) {
	m := newMetric(t)
	x := inputs()
	d := m.Distance(x, nil)
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			d0 := x.At(i, 0) - x.At(j, 0)
			d1 := x.At(i, 1) - x.At(j, 1)
			d2 := x.At(i, 2) - x.At(j, 2)
			want := math.Sqrt((d0*d0+d2*d2)/(0.8*0.8) + d1*d1/(1.7*1.7))
			assert.InDelta(t, want, d.At(i, j), 1e-12)
		}
	}
}

func TestDistanceSharedScale(t *testing.T) {
	m, err := NewEuclidean(2, [][]int{{0}, {1}}, []float64{2})
	require.NoError(t, err)
	x1 := mat.NewDense(1, 2, []float64{0, 0})
	x2 := mat.NewDense(2, 2, []float64{2, 0, 2, 2})
	d := m.Distance(x1, x2)
	assert.InDelta(t, 1.0, d.At(0, 0), 1e-12)
	assert.InDelta(t, math.Sqrt2, d.At(0, 1), 1e-12)
}

func TestUnusedColumnIgnored(t *testing.T) {
	m, err := NewEuclidean(2, [][]int{{0}}, []float64{1})
	require.NoError(t, err)
	x := mat.NewDense(2, 2, []float64{0, 0, 0, 5})
	assert.Zero(t, m.Distance(x, nil).At(0, 1))
}

func TestPackUnpackRoundTrip(t *testing.T) {
	m := newMetric(t)
	p := prior.NewStudentT(0, 1, 4)
	require.NoError(t, prior.SetHyperPrior(p, "s", prior.NewLogUniform()))
	m.SetPrior(p)
	require.Equal(t, 3, m.NumParams())

	w := m.Pack([]float64{42})
	require.Len(t, w, 4)
	assert.InDelta(t, math.Log(0.8), w[1], 1e-15)

	w[1], w[2], w[3] = math.Log(2), math.Log(3), math.Log(0.5)
	rest := m.Unpack(append(w[1:], 7))
	assert.Equal(t, []float64{7}, rest)
	assert.InDeltaSlice(t, []float64{2, 3}, m.LengthScale(), 1e-12)
	assert.InDelta(t, 0.5, p.Hyper()[0].Value, 1e-12)
}

func TestUnpackShortVectorPanics(t *testing.T) {
	m := newMetric(t)
	assert.Panics(t, func() { m.Unpack([]float64{0}) })
}

func TestGradHyperMatchesFiniteDifferences(t *testing.T) {
	m := newMetric(t)
	x := inputs()
	x2 := mat.NewDense(2, 3, []float64{0.3, 0.3, 0.3, -1, 0, 2})
	for _, other := range []mat.Matrix{nil, x2} {
		grads, _ := m.GradHyper(x, other)
		require.Len(t, grads, 2)
		for q := range grads {
			l := m.lengthScale[q]
			m.lengthScale[q] = l * math.Exp(h)
			plus := m.Distance(x, other)
			m.lengthScale[q] = l * math.Exp(-h)
			minus := m.Distance(x, other)
			m.lengthScale[q] = l
			var num mat.Dense
			num.Sub(plus, minus)
			num.Scale(1/(2*h), &num)
			assertMatInDelta(t, &num, grads[q], 1e-6)
		}
	}
}

func TestGradInputMatchesFiniteDifferences(t *testing.T) {
	m := newMetric(t)
	x := inputs()
	x2 := mat.NewDense(2, 3, []float64{0.3, 0.3, 0.3, -1, 0, 2})
	for _, other := range []mat.Matrix{nil, x2} {
		grads := m.GradInput(x, other)
		require.Len(t, grads, 3*4)
		for k := 0; k < 3; k++ {
			for j := 0; j < 4; j++ {
				xp := mat.DenseCopyOf(x)
				xp.Set(j, k, x.At(j, k)+h)
				xm := mat.DenseCopyOf(x)
				xm.Set(j, k, x.At(j, k)-h)
				var plus, minus *mat.Dense
				if other == nil {
					plus, minus = m.Distance(xp, nil), m.Distance(xm, nil)
				} else {
					plus, minus = m.Distance(xp, other), m.Distance(xm, other)
				}
				var num mat.Dense
				num.Sub(plus, minus)
				num.Scale(1/(2*h), &num)
				assertMatInDelta(t, &num, grads[k*4+j], 1e-5)
			}
		}
	}
}

func TestEnergyAndPriorGradient(t *testing.T) {
	m := newMetric(t)
	p := prior.NewStudentT(0, 1, 4)
	require.NoError(t, prior.SetHyperPrior(p, "nu", prior.NewGaussian(4, 2)))
	m.SetPrior(p)
	x := inputs()

	_, gprior := m.GradHyper(x, nil)
	w := m.Pack(nil)
	require.Len(t, gprior, len(w))
	for i := range w {
		orig := w[i]
		w[i] = orig + h
		m.Unpack(w)
		plus := m.Energy(x, nil)
		w[i] = orig - h
		m.Unpack(w)
		minus := m.Energy(x, nil)
		w[i] = orig
		m.Unpack(w)
		assert.InDelta(t, (plus-minus)/(2*h), gprior[i], 1e-5, "parameter %d", i)
	}
}

func TestEnergyWithoutPrior(t *testing.T) {
	m := newMetric(t)
	assert.Zero(t, m.Energy(inputs(), nil))
}
