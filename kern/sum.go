package kern

import (
	"gonum.org/v1/gonum/mat"
)

var (
	sum *Sum
	_   CovarianceFunction = sum // Check that Sum respects the CovarianceFunction interface.
)

// Sum is the sum of several covariance functions. Its packed vector is the
// concatenation of the parts' vectors, in order.
type Sum struct {
	parts []CovarianceFunction
}

func NewSum(first CovarianceFunction, rest ...CovarianceFunction) *Sum {
	parts := make([]CovarianceFunction, 0, 1+len(rest))
	for _, part := range append([]CovarianceFunction{first}, rest...) {
		switch part := part.(type) {
		case *Sum:
			parts = append(parts, part.parts...)
		default:
			parts = append(parts, part)
		}
	}
	return &Sum{parts: parts}
}

func (k *Sum) Parts() []CovarianceFunction { return k.parts }

func (k *Sum) NumParams() int {
	n := 0
	for _, part := range k.parts {
		n += part.NumParams()
	}
	return n
}

func (k *Sum) Pack(w []float64) []float64 {
	for _, part := range k.parts {
		w = part.Pack(w)
	}
	return w
}

func (k *Sum) Unpack(w []float64) []float64 {
	for _, part := range k.parts {
		w = part.Unpack(w)
	}
	return w
}

func (k *Sum) LogPriorEnergy(x, t mat.Matrix) float64 {
	e := 0.0
	for _, part := range k.parts {
		e += part.LogPriorEnergy(x, t)
	}
	return e
}

func (k *Sum) CheckDims(x1, x2 mat.Matrix) error {
	for _, part := range k.parts {
		if err := part.CheckDims(x1, x2); err != nil {
			return err
		}
	}
	return nil
}

func (k *Sum) Cov(x1, x2 mat.Matrix) (*mat.Dense, error) {
	var out *mat.Dense
	for _, part := range k.parts {
		c, err := part.Cov(x1, x2)
		if err != nil {
			return nil, err
		}
		if out == nil {
			out = c
			continue
		}
		out.Add(out, c)
	}
	return out, nil
}

func (k *Sum) TrainingCov(x mat.Matrix) *mat.SymDense {
	out := k.parts[0].TrainingCov(x)
	for _, part := range k.parts[1:] {
		out.AddSym(out, part.TrainingCov(x))
	}
	return out
}

func (k *Sum) TrainingVar(x mat.Matrix) *mat.VecDense {
	out := k.parts[0].TrainingVar(x)
	for _, part := range k.parts[1:] {
		out.AddVec(out, part.TrainingVar(x))
	}
	return out
}

// GradHyper concatenates the parts' gradients in packing order. Every part
// returns one matrix per packed value, so matrix i still pairs with prior
// gradient i.
func (k *Sum) GradHyper(x, x2 mat.Matrix, diag bool) ([]*mat.Dense, []float64, error) {
	var (
		grads  []*mat.Dense
		gprior []float64
	)
	for _, part := range k.parts {
		g, gp, err := part.GradHyper(x, x2, diag)
		if err != nil {
			return nil, nil, err
		}
		grads = append(grads, g...)
		gprior = append(gprior, gp...)
	}
	return grads, gprior, nil
}

// GradInput adds up the parts' gradients, which all refer to the same input
// coordinates.
func (k *Sum) GradInput(x, x2 mat.Matrix) ([]*mat.Dense, []float64, error) {
	var grads []*mat.Dense
	for _, part := range k.parts {
		g, _, err := part.GradInput(x, x2)
		if err != nil {
			return nil, nil, err
		}
		if grads == nil {
			grads = g
			continue
		}
		for i := range grads {
			grads[i].Add(grads[i], g[i])
		}
	}
	return grads, make([]float64, len(grads)), nil
}

func (k *Sum) InitRecord() *Record {
	rec := &Record{Parts: make([]*Record, len(k.parts))}
	for i, part := range k.parts {
		rec.Parts[i] = part.InitRecord()
	}
	return rec
}

func (k *Sum) AppendRecord(rec *Record, ri int) *Record {
	if rec == nil {
		rec = k.InitRecord()
	}
	for i, part := range k.parts {
		rec.Parts[i] = part.AppendRecord(rec.Parts[i], ri)
	}
	return rec
}
