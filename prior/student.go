package prior

import (
	"math"

	"gonum.org/v1/gonum/mathext"
	"gonum.org/v1/gonum/stat/distuv"
)

var (
	studentT     *StudentT
	sqrtStudentT *SqrtStudentT
	_            Prior = studentT     // Check that StudentT respects the Prior interface.
	_            Prior = sqrtStudentT // Check that SqrtStudentT respects the Prior interface.
)

// StudentT is a Student-t prior with fixed location, scale "s" and degrees
// of freedom "nu".
type StudentT struct {
	mu float64
	s  *Hyper
	nu *Hyper
}

func NewStudentT(mu, s, nu float64) *StudentT {
	return &StudentT{
		mu: mu,
		s:  &Hyper{Name: "s", Value: s},
		nu: &Hyper{Name: "nu", Value: nu},
	}
}

func (p *StudentT) Hyper() []*Hyper { return []*Hyper{p.s, p.nu} }

func (p *StudentT) dist() distuv.StudentsT {
	return distuv.StudentsT{Mu: p.mu, Sigma: p.s.Value, Nu: p.nu.Value}
}

func (p *StudentT) Energy(x []float64) float64 {
	d := p.dist()
	e := 0.0
	for _, v := range x {
		e -= d.LogProb(v)
	}
	return e
}

func (p *StudentT) Grad(x []float64) []float64 {
	g := make([]float64, len(x))
	for i, v := range x {
		g[i] = p.gradAt(v)
	}
	return g
}

// (nu + 1) r / (nu s^2 + r^2)
func (p *StudentT) gradAt(v float64) float64 {
	s, nu := p.s.Value, p.nu.Value
	r := v - p.mu
	return (nu + 1) * r / (nu*s*s + r*r)
}

func (p *StudentT) GradHyper(x []float64, name string) float64 {
	g := 0.0
	switch lookup(p.Hyper(), name) {
	case p.s:
		for _, v := range x {
			g += p.gradS(v)
		}
	case p.nu:
		for _, v := range x {
			g += p.gradNu(v)
		}
	}
	return g
}

// 1/s - (nu + 1) r^2 / (s (nu s^2 + r^2))
func (p *StudentT) gradS(v float64) float64 {
	s, nu := p.s.Value, p.nu.Value
	r := v - p.mu
	return 1/s - (nu+1)*r*r/(s*(nu*s*s+r*r))
}

func (p *StudentT) gradNu(v float64) float64 {
	s, nu := p.s.Value, p.nu.Value
	r := v - p.mu
	q := nu*s*s + r*r
	return -0.5*mathext.Digamma((nu+1)/2) + 0.5*mathext.Digamma(nu/2) +
		1/(2*nu) + 0.5*math.Log1p(r*r/(nu*s*s)) - (nu+1)*r*r/(2*nu*q)
}

// SqrtStudentT places a Student-t prior on the square root of the
// parameter, which suits variance-like quantities.
type SqrtStudentT struct {
	t *StudentT
}

func NewSqrtStudentT(mu, s, nu float64) *SqrtStudentT {
	return &SqrtStudentT{t: NewStudentT(mu, s, nu)}
}

func (p *SqrtStudentT) Hyper() []*Hyper { return p.t.Hyper() }

// E(x) = E_t(sqrt x) + log 2 + log(x) / 2
func (p *SqrtStudentT) Energy(x []float64) float64 {
	e := 0.0
	for _, v := range x {
		sq := math.Sqrt(v)
		e += p.t.Energy([]float64{sq}) + math.Ln2 + 0.5*math.Log(v)
	}
	return e
}

func (p *SqrtStudentT) Grad(x []float64) []float64 {
	g := make([]float64, len(x))
	for i, v := range x {
		sq := math.Sqrt(v)
		g[i] = p.t.gradAt(sq)/(2*sq) + 1/(2*v)
	}
	return g
}

func (p *SqrtStudentT) GradHyper(x []float64, name string) float64 {
	sq := make([]float64, len(x))
	for i, v := range x {
		sq[i] = math.Sqrt(v)
	}
	return p.t.GradHyper(sq, name)
}
