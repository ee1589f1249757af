package kern

import (
	"fmt"
	"math"

	"github.com/lucasmaystre/gpkern/prior"
	"github.com/lucasmaystre/gpkern/utils"
	"gonum.org/v1/gonum/mat"
)

var (
	constant *Constant
	_        CovarianceFunction = constant // Check that Constant respects the CovarianceFunction interface.
)

// Constant is the covariance function k(x, x') = constSigma2. Added to
// another kernel it models an unknown offset.
type Constant struct {
	constSigma2 float64
	prior       prior.Prior
}

func NewConstant(constSigma2 float64) *Constant {
	return &Constant{constSigma2: constSigma2}
}

func (k *Constant) ConstSigma2() float64 { return k.constSigma2 }

// SetPrior places a prior over constSigma2; nil removes it.
func (k *Constant) SetPrior(p prior.Prior) { k.prior = p }

func (k *Constant) NumParams() int { return 1 }

func (k *Constant) Pack(w []float64) []float64 {
	return append(w, math.Log(k.constSigma2))
}

func (k *Constant) Unpack(w []float64) []float64 {
	if len(w) < 1 {
		panic(fmt.Errorf("need 1 value, got 0: %w", ErrShortVector))
	}
	k.constSigma2 = math.Exp(w[0])
	return w[1:]
}

func (k *Constant) LogPriorEnergy(x, t mat.Matrix) float64 {
	if k.prior == nil {
		return 0
	}
	return k.prior.Energy([]float64{k.constSigma2}) - math.Log(k.constSigma2)
}

func (k *Constant) CheckDims(x1, x2 mat.Matrix) error {
	if x2 == nil {
		x2 = x1
	}
	return checkPair(x1, x2)
}

func (k *Constant) Cov(x1, x2 mat.Matrix) (*mat.Dense, error) {
	if x2 == nil {
		x2 = x1
	}
	if err := checkPair(x1, x2); err != nil {
		return nil, err
	}
	n1, _ := x1.Dims()
	n2, _ := x2.Dims()
	c := mat.NewDense(n1, n2, nil)
	c.Apply(func(_, _ int, _ float64) float64 { return k.constSigma2 }, c)
	return c, nil
}

func (k *Constant) TrainingCov(x mat.Matrix) *mat.SymDense {
	n, _ := x.Dims()
	if n == 0 {
		panic(ErrEmptyInput)
	}
	data := make([]float64, n*n)
	for i := range data {
		data[i] = k.constSigma2
	}
	return mat.NewSymDense(n, data)
}

func (k *Constant) TrainingVar(x mat.Matrix) *mat.VecDense {
	n, _ := x.Dims()
	if n == 0 {
		panic(ErrEmptyInput)
	}
	return utils.Fill(n, k.constSigma2)
}

func (k *Constant) GradHyper(x, x2 mat.Matrix, diag bool) ([]*mat.Dense, []float64, error) {
	if err := k.CheckDims(x, x2); err != nil {
		return nil, nil, err
	}
	gprior := []float64{0}
	if k.prior != nil {
		gprior[0] = k.prior.Grad([]float64{k.constSigma2})[0]*k.constSigma2 - 1
	}
	if diag {
		return []*mat.Dense{mat.DenseCopyOf(k.TrainingVar(x))}, gprior, nil
	}
	c, err := k.Cov(x, x2)
	if err != nil {
		return nil, nil, err
	}
	return []*mat.Dense{c}, gprior, nil
}

// GradInput returns zero matrices; the covariance does not depend on x.
func (k *Constant) GradInput(x, x2 mat.Matrix) ([]*mat.Dense, []float64, error) {
	other := x2
	if other == nil {
		other = x
	}
	if err := checkPair(x, other); err != nil {
		return nil, nil, err
	}
	n, m := x.Dims()
	n2, _ := other.Dims()
	grads := make([]*mat.Dense, m*n)
	for i := range grads {
		grads[i] = mat.NewDense(n, n2, nil)
	}
	return grads, make([]float64, len(grads)), nil
}

// Records store constSigma2 in MagnSigma2.
func (k *Constant) InitRecord() *Record {
	return &Record{MagnSigma2: make([]float64, 0, 10)}
}

func (k *Constant) AppendRecord(rec *Record, ri int) *Record {
	if rec == nil {
		rec = k.InitRecord()
	}
	rec.MagnSigma2 = setAt(rec.MagnSigma2, ri, k.constSigma2)
	return rec
}
