package prior

import (
	"gonum.org/v1/gonum/stat/distuv"
)

var (
	gaussian *Gaussian
	_        Prior = gaussian // Check that Gaussian respects the Prior interface.
)

// Gaussian prior with fixed mean and tunable standard deviation "s".
type Gaussian struct {
	mu float64
	s  *Hyper
}

func NewGaussian(mu, s float64) *Gaussian {
	return &Gaussian{
		mu: mu,
		s:  &Hyper{Name: "s", Value: s},
	}
}

func (p *Gaussian) Mu() float64 { return p.mu }

func (p *Gaussian) Hyper() []*Hyper { return []*Hyper{p.s} }

func (p *Gaussian) Energy(x []float64) float64 {
	d := distuv.Normal{Mu: p.mu, Sigma: p.s.Value}
	e := 0.0
	for _, v := range x {
		e -= d.LogProb(v)
	}
	return e
}

func (p *Gaussian) Grad(x []float64) []float64 {
	s2 := p.s.Value * p.s.Value
	g := make([]float64, len(x))
	for i, v := range x {
		g[i] = (v - p.mu) / s2
	}
	return g
}

func (p *Gaussian) GradHyper(x []float64, name string) float64 {
	lookup(p.Hyper(), name)
	s := p.s.Value
	g := 0.0
	for _, v := range x {
		r := v - p.mu
		g += 1/s - r*r/(s*s*s)
	}
	return g
}
