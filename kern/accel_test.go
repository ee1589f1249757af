package kern

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func portable(t *testing.T) {
	t.Helper()
	SetAccelerated(false)
	t.Cleanup(func() { SetAccelerated(true) })
}

func TestAccelMatchesPortable(t *testing.T) {
	x := randInputs(11, 80, 3)
	for name, k := range map[string]*Exp{
		"ard": newARD(t),
		"iso": newIso(t),
	} {
		t.Run(name, func(t *testing.T) {
			fast, ok := k.trainingCovAccel(x)
			require.True(t, ok)

			portable(t)
			slow := k.TrainingCov(x)
			assertMatInDelta(t, slow, fast, 1e-10)
			for i := 0; i < 80; i++ {
				assert.Equal(t, k.MagnSigma2(), fast.At(i, i))
			}
		})
	}
}

func TestAccelDuplicateRows(t *testing.T) {
	x := mat.DenseCopyOf(randInputs(12, 70, 2))
	x.SetRow(5, []float64{1e3, -2e3})
	x.SetRow(40, []float64{1e3, -2e3})
	k := NewExp(2)
	require.NoError(t, k.Set("magnSigma2", 1.0, "lengthScale", []float64{1, 1}))

	c := k.TrainingCov(x)
	assert.Equal(t, 1.0, c.At(5, 40))
	assert.Equal(t, 1.0, c.At(40, 5))
}

func TestAccelSkipped(t *testing.T) {
	small := randInputs(13, accelMinRows-1, 3)
	_, ok := newARD(t).trainingCovAccel(small)
	assert.False(t, ok)

	big := randInputs(14, accelMinRows, 3)
	_, ok = newWithMetric(t).trainingCovAccel(big)
	assert.False(t, ok)

	portable(t)
	_, ok = newARD(t).trainingCovAccel(big)
	assert.False(t, ok)
}

func TestAccelOffCenter(t *testing.T) {
	x := mat.NewDense(64, 2, nil)
	for i := 0; i < 64; i++ {
		x.Set(i, 0, 1e6+0.01*float64(i))
		x.Set(i, 1, -3e5+0.02*float64(i))
	}
	shifted := mat.DenseCopyOf(randInputs(15, 90, 3))
	shifted.Apply(func(_, _ int, v float64) float64 { return v + 1e4 }, shifted)

	unit := func() *Exp {
		k := NewExp(2)
		require.NoError(t, k.Set("magnSigma2", 1.0, "lengthScale", []float64{1, 1}))
		return k
	}

	for name, tt := range map[string]struct {
		x     *mat.Dense
		k     *Exp
		delta float64
	}{
		"grid": {x, unit(), 1e-12},
		"rand": {shifted, newARD(t), 1e-10},
	} {
		t.Run(name, func(t *testing.T) {
			fast, ok := tt.k.trainingCovAccel(tt.x)
			require.True(t, ok)
			assertMatInDelta(t, mustCov(t, tt.k, tt.x, nil), fast, tt.delta)

			portable(t)
			assertMatInDelta(t, tt.k.TrainingCov(tt.x), fast, tt.delta)

			var chol mat.Cholesky
			assert.True(t, chol.Factorize(fast))
		})
	}

	c, ok := unit().trainingCovAccel(x)
	require.True(t, ok)
	assert.InDelta(t, math.Exp(-math.Sqrt(0.01*0.01+0.02*0.02)), c.At(0, 1), 1e-8)
	assert.Less(t, c.At(0, 1), 1.0)
}
