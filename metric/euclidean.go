package metric

import (
	"errors"
	"fmt"
	"math"

	"github.com/lucasmaystre/gpkern/prior"
	"github.com/lucasmaystre/gpkern/utils"
	"gonum.org/v1/gonum/mat"
)

var ErrInvalidComponents = errors.New("invalid metric components")

var (
	euclidean *Euclidean
	_         Metric = euclidean // Check that Euclidean respects the Metric interface.
)

// Euclidean is a scaled Euclidean distance where input columns are grouped
// into components sharing one length scale:
//
//	d(x, x') = sqrt(sum_g sum_{k in g} (x_k - x'_k)^2 / l_g^2)
//
// A single length scale is shared by every component.
type Euclidean struct {
	nin         int
	components  [][]int
	lengthScale []float64
	prior       prior.Prior
	group       []int // Component of each input column, -1 if unused.
}

func NewEuclidean(nin int, components [][]int, lengthScale []float64) (*Euclidean, error) {
	if len(components) == 0 {
		return nil, fmt.Errorf("no components: %w", ErrInvalidComponents)
	}
	if len(lengthScale) != 1 && len(lengthScale) != len(components) {
		return nil, fmt.Errorf("%d length scales for %d components: %w",
			len(lengthScale), len(components), ErrInvalidComponents)
	}
	group := make([]int, nin)
	for k := range group {
		group[k] = -1
	}
	for g, comp := range components {
		for _, k := range comp {
			if k < 0 || k >= nin {
				return nil, fmt.Errorf("column %d out of range [0, %d): %w", k, nin, ErrInvalidComponents)
			}
			if group[k] != -1 {
				return nil, fmt.Errorf("column %d in two components: %w", k, ErrInvalidComponents)
			}
			group[k] = g
		}
	}
	for _, l := range lengthScale {
		if !(l > 0) {
			return nil, fmt.Errorf("length scale %v: %w", l, ErrInvalidComponents)
		}
	}
	comps := make([][]int, len(components))
	for g, comp := range components {
		comps[g] = append([]int(nil), comp...)
	}
	return &Euclidean{
		nin:         nin,
		components:  comps,
		lengthScale: append([]float64(nil), lengthScale...),
		group:       group,
	}, nil
}

// SetPrior places a prior over the length scales.
func (m *Euclidean) SetPrior(p prior.Prior) { m.prior = p }

func (m *Euclidean) Prior() prior.Prior { return m.prior }

func (m *Euclidean) LengthScale() []float64 {
	return append([]float64(nil), m.lengthScale...)
}

func (m *Euclidean) Components() [][]int { return m.components }

func (m *Euclidean) scale(k int) float64 {
	if len(m.lengthScale) == 1 {
		return m.lengthScale[0]
	}
	return m.lengthScale[m.group[k]]
}

func (m *Euclidean) NumParams() int {
	return len(m.lengthScale) + len(prior.Tunable(m.prior))
}

func (m *Euclidean) Pack(w []float64) []float64 {
	for _, l := range m.lengthScale {
		w = append(w, math.Log(l))
	}
	for _, h := range prior.Tunable(m.prior) {
		w = append(w, math.Log(h.Value))
	}
	return w
}

func (m *Euclidean) Unpack(w []float64) []float64 {
	if len(w) < m.NumParams() {
		panic(fmt.Errorf("metric needs %d values, got %d", m.NumParams(), len(w)))
	}
	for i := range m.lengthScale {
		m.lengthScale[i] = math.Exp(w[i])
	}
	w = w[len(m.lengthScale):]
	for _, h := range prior.Tunable(m.prior) {
		h.Value = math.Exp(w[0])
		w = w[1:]
	}
	return w
}

func (m *Euclidean) Energy(x, t mat.Matrix) float64 {
	if m.prior == nil {
		return 0
	}
	e := 0.0
	for _, h := range prior.Tunable(m.prior) {
		e += h.Prior.Energy([]float64{h.Value}) - math.Log(h.Value)
	}
	e += m.prior.Energy(m.lengthScale)
	for _, l := range m.lengthScale {
		e -= math.Log(l)
	}
	return e
}

// Squared distance contributed by each length scale, before scaling.
func (m *Euclidean) rawSqDist(x1, x2 mat.Matrix) []*mat.Dense {
	n1, _ := x1.Dims()
	n2, _ := x2.Dims()
	parts := make([]*mat.Dense, len(m.lengthScale))
	for q := range parts {
		parts[q] = mat.NewDense(n1, n2, nil)
	}
	for k := 0; k < m.nin; k++ {
		if m.group[k] < 0 {
			continue
		}
		q := 0
		if len(m.lengthScale) > 1 {
			q = m.group[k]
		}
		diff := utils.ColDiff(x1, x2, k)
		diff.MulElem(diff, diff)
		parts[q].Add(parts[q], diff)
	}
	return parts
}

func (m *Euclidean) Distance(x1, x2 mat.Matrix) *mat.Dense {
	if x2 == nil {
		x2 = x1
	}
	parts := m.rawSqDist(x1, x2)
	dist := parts[0]
	dist.Scale(1/(m.lengthScale[0]*m.lengthScale[0]), dist)
	for q := 1; q < len(parts); q++ {
		l := m.lengthScale[q]
		dist.Apply(func(i, j int, v float64) float64 {
			return v + parts[q].At(i, j)/(l*l)
		}, dist)
	}
	utils.Sqrt(dist)
	return dist
}

func (m *Euclidean) GradHyper(x, x2 mat.Matrix) ([]*mat.Dense, []float64) {
	if x2 == nil {
		x2 = x
	}
	dist := m.Distance(x, x2)
	parts := m.rawSqDist(x, x2)
	grads := make([]*mat.Dense, len(parts))
	for q, part := range parts {
		l := m.lengthScale[q]
		// d(dist)/d(log l) = -sum_{k in q} diff_k^2 / (l^2 dist)
		part.Apply(func(i, j int, v float64) float64 {
			d := dist.At(i, j)
			if d == 0 {
				return 0
			}
			return -v / (l * l * d)
		}, part)
		grads[q] = part
	}
	return grads, m.priorGrad()
}

func (m *Euclidean) priorGrad() []float64 {
	gprior := make([]float64, 0, m.NumParams())
	if m.prior == nil {
		return append(gprior, make([]float64, len(m.lengthScale))...)
	}
	g := m.prior.Grad(m.lengthScale)
	for q, l := range m.lengthScale {
		gprior = append(gprior, g[q]*l-1)
	}
	for _, h := range prior.Tunable(m.prior) {
		gh := h.Prior.Grad([]float64{h.Value})[0]*h.Value - 1 +
			m.prior.GradHyper(m.lengthScale, h.Name)*h.Value
		gprior = append(gprior, gh)
	}
	return gprior
}

func (m *Euclidean) GradInput(x, x2 mat.Matrix) []*mat.Dense {
	sym := x2 == nil
	if sym {
		x2 = x
	}
	n1, _ := x.Dims()
	n2, _ := x2.Dims()
	dist := m.Distance(x, x2)
	grads := make([]*mat.Dense, 0, m.nin*n1)
	for k := 0; k < m.nin; k++ {
		var l2 float64
		if m.group[k] >= 0 {
			l := m.scale(k)
			l2 = l * l
		}
		for j := 0; j < n1; j++ {
			dd := mat.NewDense(n1, n2, nil)
			if l2 > 0 {
				for i := 0; i < n2; i++ {
					d := dist.At(j, i)
					if d == 0 {
						continue
					}
					v := (x.At(j, k) - x2.At(i, k)) / (l2 * d)
					dd.Set(j, i, v)
					if sym {
						dd.Set(i, j, v)
					}
				}
			}
			grads = append(grads, dd)
		}
	}
	return grads
}
