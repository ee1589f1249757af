package prior

import (
	"errors"
	"fmt"
	"math"
)

var ErrUnknownHyper = errors.New("unknown prior hyperparameter")

// Prior is a hyperprior placed over a vector of positive kernel parameters.
// Energies are negative log densities in the natural (not log) space.
type Prior interface {
	// Total energy of the components of x.
	Energy(x []float64) float64

	// Derivative of the energy with respect to each component of x.
	Grad(x []float64) []float64

	// Hyperparameters of the prior, in packing order.
	Hyper() []*Hyper

	// Derivative of Energy(x) with respect to the named hyperparameter.
	GradHyper(x []float64, name string) float64
}

// Hyper is a prior hyperparameter. It is tunable, and therefore packed
// alongside the kernel parameters, when it carries its own Prior.
type Hyper struct {
	Name  string
	Value float64
	Prior Prior
}

// Tunable returns the hyperparameters of p that carry their own prior.
// A nil prior has none.
func Tunable(p Prior) []*Hyper {
	if p == nil {
		return nil
	}
	var out []*Hyper
	for _, h := range p.Hyper() {
		if h.Prior != nil {
			out = append(out, h)
		}
	}
	return out
}

// SetHyperPrior places hp over the hyperparameter called name.
func SetHyperPrior(p Prior, name string, hp Prior) error {
	for _, h := range p.Hyper() {
		if h.Name == name {
			h.Prior = hp
			return nil
		}
	}
	return fmt.Errorf("%q: %w", name, ErrUnknownHyper)
}

// Energy of x under p, zero for a nil prior.
func Energy(p Prior, x ...float64) float64 {
	if p == nil {
		return 0
	}
	return p.Energy(x)
}

// Grad of the energy at x under p, zeros for a nil prior.
func Grad(p Prior, x ...float64) []float64 {
	if p == nil {
		return make([]float64, len(x))
	}
	return p.Grad(x)
}

func lookup(hs []*Hyper, name string) *Hyper {
	for _, h := range hs {
		if h.Name == name {
			return h
		}
	}
	panic(fmt.Errorf("%q: %w", name, ErrUnknownHyper))
}

// Uniform is the improper flat prior.
type Uniform struct{}

var _ Prior = Uniform{}

func NewUniform() Uniform { return Uniform{} }

func (Uniform) Energy(x []float64) float64 { return 0 }

func (Uniform) Grad(x []float64) []float64 { return make([]float64, len(x)) }

func (Uniform) Hyper() []*Hyper { return nil }

func (Uniform) GradHyper(x []float64, name string) float64 {
	panic(fmt.Errorf("%q: %w", name, ErrUnknownHyper))
}

// LogUniform is the improper prior p(x) ∝ 1/x, flat in log space.
type LogUniform struct{}

var _ Prior = LogUniform{}

func NewLogUniform() LogUniform { return LogUniform{} }

func (LogUniform) Energy(x []float64) float64 {
	e := 0.0
	for _, v := range x {
		e += math.Log(v)
	}
	return e
}

func (LogUniform) Grad(x []float64) []float64 {
	g := make([]float64, len(x))
	for i, v := range x {
		g[i] = 1 / v
	}
	return g
}

func (LogUniform) Hyper() []*Hyper { return nil }

func (LogUniform) GradHyper(x []float64, name string) float64 {
	panic(fmt.Errorf("%q: %w", name, ErrUnknownHyper))
}
