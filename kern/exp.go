package kern

import (
	"fmt"
	"math"

	"github.com/lucasmaystre/gpkern/metric"
	"github.com/lucasmaystre/gpkern/prior"
	"gonum.org/v1/gonum/mat"
)

var (
	exp *Exp
	_   CovarianceFunction = exp // Check that Exp respects the CovarianceFunction interface.
)

// DistanceModel selects how Exp measures the distance between inputs.
type DistanceModel int

const (
	// Euclidean distance with one length scale per input dimension (ARD)
	// or a single shared one (isotropic).
	ScaledEuclidean DistanceModel = iota
	// Distance delegated to a metric.Metric.
	CustomMetric
)

func (m DistanceModel) String() string {
	switch m {
	case ScaledEuclidean:
		return "scaled-euclidean"
	case CustomMetric:
		return "custom-metric"
	}
	return fmt.Sprintf("DistanceModel(%d)", int(m))
}

// Exp is the exponential covariance function
//
//	k(x, x') = magnSigma2 * exp(-r),  r = sqrt(sum_k (x_k - x'_k)^2 / l_k^2)
//
// or, with a metric, r = metric distance between x and x'.
type Exp struct {
	nin        int
	nout       int
	magnSigma2 float64
	model      DistanceModel

	lengthScale []float64     // ScaledEuclidean only.
	metric      metric.Metric // CustomMetric only.

	magnPrior   prior.Prior
	lengthPrior prior.Prior
	sampler     any
}

// NewExp returns an ARD kernel over nin input dimensions with all length
// scales set to 10 and magnSigma2 set to 0.1.
func NewExp(nin int) *Exp {
	ls := make([]float64, nin)
	for i := range ls {
		ls[i] = 10
	}
	return &Exp{
		nin:         nin,
		nout:        1,
		magnSigma2:  0.1,
		model:       ScaledEuclidean,
		lengthScale: ls,
	}
}

func (k *Exp) NIn() int { return k.nin }

func (k *Exp) NOut() int { return k.nout }

func (k *Exp) Model() DistanceModel { return k.model }

func (k *Exp) MagnSigma2() float64 { return k.magnSigma2 }

// LengthScale returns a copy of the length scales, nil with a metric.
func (k *Exp) LengthScale() []float64 {
	if k.model != ScaledEuclidean {
		return nil
	}
	return append([]float64(nil), k.lengthScale...)
}

func (k *Exp) Metric() metric.Metric { return k.metric }

func (k *Exp) MagnSigma2Prior() prior.Prior { return k.magnPrior }

func (k *Exp) LengthScalePrior() prior.Prior { return k.lengthPrior }

func (k *Exp) Sampler() any { return k.sampler }

// Set applies field/value pairs, e.g.
//
//	k.Set("magnSigma2", 1.0, "lengthScale", []float64{1, 2})
//
// Recognized fields are magnSigma2, lengthScale, metric, magnSigma2_prior,
// lengthScale_prior and sampler. Setting metric drops the length scales and
// setting lengthScale drops the metric. The kernel is left untouched when
// an error is returned.
func (k *Exp) Set(kv ...any) error {
	if len(kv)%2 != 0 {
		return fmt.Errorf("%d arguments: %w", len(kv), ErrArgumentCount)
	}
	next := *k
	for i := 0; i < len(kv); i += 2 {
		name, ok := kv[i].(string)
		if !ok {
			return fmt.Errorf("field name %v: %w", kv[i], ErrInvalidParameterName)
		}
		if err := next.set(name, kv[i+1]); err != nil {
			return fmt.Errorf("set %s: %w", name, err)
		}
	}
	if next.model != k.model {
		logger.Debug().Stringer("from", k.model).Stringer("to", next.model).Msg("distance model switched")
	}
	*k = next
	return nil
}

func (k *Exp) set(name string, v any) error {
	switch name {
	case "magnSigma2":
		f, err := positive(v)
		if err != nil {
			return err
		}
		k.magnSigma2 = f
	case "lengthScale":
		ls, err := k.lengthScales(v)
		if err != nil {
			return err
		}
		k.model = ScaledEuclidean
		k.lengthScale = ls
		k.metric = nil
	case "metric":
		m, ok := v.(metric.Metric)
		if !ok || m == nil {
			return fmt.Errorf("%T is not a metric: %w", v, ErrInvalidValue)
		}
		k.model = CustomMetric
		k.metric = m
		k.lengthScale = nil
	case "magnSigma2_prior":
		p, err := asPrior(v)
		if err != nil {
			return err
		}
		k.magnPrior = p
	case "lengthScale_prior":
		p, err := asPrior(v)
		if err != nil {
			return err
		}
		k.lengthPrior = p
	case "sampler":
		k.sampler = v
	default:
		return ErrInvalidParameterName
	}
	return nil
}

func (k *Exp) lengthScales(v any) ([]float64, error) {
	var ls []float64
	switch v := v.(type) {
	case []float64:
		ls = append(ls, v...)
	default:
		f, err := positive(v)
		if err != nil {
			return nil, err
		}
		ls = []float64{f}
	}
	if len(ls) != 1 && len(ls) != k.nin {
		return nil, fmt.Errorf("%d length scales for %d inputs: %w", len(ls), k.nin, ErrDimensionMismatch)
	}
	for _, l := range ls {
		if !(l > 0) {
			return nil, fmt.Errorf("length scale %v: %w", l, ErrInvalidValue)
		}
	}
	return ls, nil
}

func positive(v any) (float64, error) {
	var f float64
	switch v := v.(type) {
	case float64:
		f = v
	case int:
		f = float64(v)
	default:
		return 0, fmt.Errorf("%T is not a number: %w", v, ErrInvalidValue)
	}
	if !(f > 0) {
		return 0, fmt.Errorf("%v is not positive: %w", f, ErrInvalidValue)
	}
	return f, nil
}

func asPrior(v any) (prior.Prior, error) {
	if v == nil {
		return nil, nil
	}
	p, ok := v.(prior.Prior)
	if !ok {
		return nil, fmt.Errorf("%T is not a prior: %w", v, ErrInvalidValue)
	}
	return p, nil
}

// Number of scalar length-scale parameters: 1 when isotropic, nin for ARD.
func (k *Exp) numScales() int { return len(k.lengthScale) }

func (k *Exp) NumParams() int {
	if k.model == CustomMetric {
		return 1 + k.metric.NumParams()
	}
	return 1 + k.numScales() + len(prior.Tunable(k.lengthPrior))
}

// Pack appends log(magnSigma2), then the log length scales and the log of
// every tunable length-scale prior hyperparameter, or the metric's own
// parameters.
func (k *Exp) Pack(w []float64) []float64 {
	w = append(w, math.Log(k.magnSigma2))
	if k.model == CustomMetric {
		return k.metric.Pack(w)
	}
	for _, l := range k.lengthScale {
		w = append(w, math.Log(l))
	}
	for _, h := range prior.Tunable(k.lengthPrior) {
		w = append(w, math.Log(h.Value))
	}
	return w
}

// Unpack is the inverse of Pack. It panics if w is too short.
func (k *Exp) Unpack(w []float64) []float64 {
	if len(w) < k.NumParams() {
		panic(fmt.Errorf("need %d values, got %d: %w", k.NumParams(), len(w), ErrShortVector))
	}
	k.magnSigma2 = math.Exp(w[0])
	w = w[1:]
	if k.model == CustomMetric {
		return k.metric.Unpack(w)
	}
	for i := range k.lengthScale {
		k.lengthScale[i] = math.Exp(w[i])
	}
	w = w[len(k.lengthScale):]
	for _, h := range prior.Tunable(k.lengthPrior) {
		h.Value = math.Exp(w[0])
		w = w[1:]
	}
	return w
}

// LogPriorEnergy is the negative log prior density of the hyperparameters.
// Each term carries the -log(p) Jacobian of the p = exp(w) transform.
func (k *Exp) LogPriorEnergy(x, t mat.Matrix) float64 {
	e := 0.0
	if k.magnPrior != nil {
		e += k.magnPrior.Energy([]float64{k.magnSigma2}) - math.Log(k.magnSigma2)
	}
	if k.model == CustomMetric {
		return e + k.metric.Energy(x, t)
	}
	if k.lengthPrior == nil {
		return e
	}
	for _, h := range prior.Tunable(k.lengthPrior) {
		e += h.Prior.Energy([]float64{h.Value}) - math.Log(h.Value)
	}
	e += k.lengthPrior.Energy(k.lengthScale)
	for _, l := range k.lengthScale {
		e -= math.Log(l)
	}
	return e
}
