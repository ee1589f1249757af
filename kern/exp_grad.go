package kern

import (
	"github.com/lucasmaystre/gpkern/prior"
	"github.com/lucasmaystre/gpkern/utils"
	"gonum.org/v1/gonum/mat"
)

// GradHyper returns dC/dw_i and dE/dw_i for every entry w_i of the packed
// vector, where E is LogPriorEnergy; both slices have NumParams entries.
// Hyperparameters of the length-scale prior (or of the metric's prior) do
// not enter the covariance and get zero matrices.
//
// With x2 == nil the derivatives are of TrainingCov(x), otherwise of
// Cov(x, x2). With diag set only the variances are differentiated: the
// first entry is TrainingVar(x) as an n x 1 matrix and every other entry
// is zero.
func (k *Exp) GradHyper(x, x2 mat.Matrix, diag bool) ([]*mat.Dense, []float64, error) {
	if err := k.CheckDims(x, x2); err != nil {
		return nil, nil, err
	}
	if diag {
		return k.gradHyperDiag(x)
	}

	var c *mat.Dense
	other := x2
	if x2 == nil {
		other = x
		c = utils.SymToDense(k.TrainingCov(x))
	} else {
		var err error
		if c, err = k.Cov(x, x2); err != nil {
			return nil, nil, err
		}
	}

	if k.model == CustomMetric {
		gdist, gmetric := k.metric.GradHyper(x, x2)
		grads := make([]*mat.Dense, 1+len(gdist), k.NumParams())
		grads[0] = c
		r, cols := c.Dims()
		for i, g := range gdist {
			// dC/dtheta = -C .* d(dist)/dtheta
			dk := mat.NewDense(r, cols, nil)
			dk.MulElem(c, g)
			dk.Scale(-1, dk)
			grads[i+1] = dk
		}
		return padZeros(grads, k.NumParams()), append(k.magnPriorGrad(nil), gmetric...), nil
	}

	grads := make([]*mat.Dense, 1+k.numScales(), k.NumParams())
	grads[0] = c
	s := k.invSqScales()
	dist := utils.ScaledSqDist(x, other, s)
	utils.Sqrt(dist)
	if k.numScales() == 1 {
		// dC/d(log l) = C .* dist
		dk := mat.DenseCopyOf(c)
		dk.MulElem(dk, dist)
		grads[1] = dk
	} else {
		for i := range s {
			// dC/d(log l_i) = s_i C .* (x_i - x'_i)^2 ./ dist
			dk := utils.ColDiff(x, other, i)
			dk.MulElem(dk, dk)
			dk.MulElem(dk, c)
			dk.Scale(s[i], dk)
			utils.DivNonZero(dk, dist)
			grads[i+1] = dk
		}
	}
	return padZeros(grads, k.NumParams()), k.lengthPriorGrad(k.magnPriorGrad(nil)), nil
}

// padZeros appends zero matrices shaped like grads[0] up to n entries.
func padZeros(grads []*mat.Dense, n int) []*mat.Dense {
	r, c := grads[0].Dims()
	for len(grads) < n {
		grads = append(grads, mat.NewDense(r, c, nil))
	}
	return grads
}

func (k *Exp) gradHyperDiag(x mat.Matrix) ([]*mat.Dense, []float64, error) {
	gprior := k.magnPriorGrad(nil)
	if k.model == CustomMetric {
		_, gmetric := k.metric.GradHyper(x, nil)
		gprior = append(gprior, gmetric...)
	} else {
		gprior = k.lengthPriorGrad(gprior)
	}
	grads := []*mat.Dense{mat.DenseCopyOf(k.TrainingVar(x))}
	return padZeros(grads, k.NumParams()), gprior, nil
}

// E'(m) m - 1, the chain rule through m = exp(w) with its Jacobian.
func (k *Exp) magnPriorGrad(gprior []float64) []float64 {
	if k.magnPrior == nil {
		return append(gprior, 0)
	}
	g := k.magnPrior.Grad([]float64{k.magnSigma2})[0]
	return append(gprior, g*k.magnSigma2-1)
}

func (k *Exp) lengthPriorGrad(gprior []float64) []float64 {
	if k.lengthPrior == nil {
		return append(gprior, make([]float64, k.numScales())...)
	}
	g := k.lengthPrior.Grad(k.lengthScale)
	for i, l := range k.lengthScale {
		gprior = append(gprior, g[i]*l-1)
	}
	for _, h := range prior.Tunable(k.lengthPrior) {
		gh := h.Prior.Grad([]float64{h.Value})[0]*h.Value - 1 +
			k.lengthPrior.GradHyper(k.lengthScale, h.Name)*h.Value
		gprior = append(gprior, gh)
	}
	return gprior
}

// GradInput returns dC/dx_{j,d} for every input dimension d and every row j
// of x, dimension-major, where C is TrainingCov(x) when x2 == nil and
// Cov(x, x2) otherwise. Inputs carry no prior so the prior gradients are
// zero.
func (k *Exp) GradInput(x, x2 mat.Matrix) ([]*mat.Dense, []float64, error) {
	if err := k.CheckDims(x, x2); err != nil {
		return nil, nil, err
	}
	var c *mat.Dense
	sym := x2 == nil
	other := x2
	if sym {
		other = x
		c = utils.SymToDense(k.TrainingCov(x))
	} else {
		var err error
		if c, err = k.Cov(x, x2); err != nil {
			return nil, nil, err
		}
	}
	n, m := x.Dims()
	n2, _ := other.Dims()

	if k.model == CustomMetric {
		gdist := k.metric.GradInput(x, x2)
		grads := make([]*mat.Dense, len(gdist))
		for i, g := range gdist {
			dk := mat.NewDense(n, n2, nil)
			dk.MulElem(c, g)
			dk.Scale(-1, dk)
			grads[i] = dk
		}
		return grads, make([]float64, len(grads)), nil
	}

	s := k.invSqScales()
	dist := utils.ScaledSqDist(x, other, s)
	utils.Sqrt(dist)
	grads := make([]*mat.Dense, 0, m*n)
	for d := 0; d < m; d++ {
		sd := s[min(d, len(s)-1)]
		for j := 0; j < n; j++ {
			// Row j (and column j when symmetric) of -s_d (x_jd - x'_d) .* C ./ dist
			dk := mat.NewDense(n, n2, nil)
			for i := 0; i < n2; i++ {
				v := -sd * (x.At(j, d) - other.At(i, d))
				dk.Set(j, i, v)
				if sym {
					dk.Set(i, j, v)
				}
			}
			dk.MulElem(dk, c)
			utils.DivNonZero(dk, dist)
			grads = append(grads, dk)
		}
	}
	return grads, make([]float64, len(grads)), nil
}
