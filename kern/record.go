package kern

import (
	"github.com/lucasmaystre/gpkern/prior"
)

// Record archives sampled or optimized parameter states; index i of every
// field belongs to the same state. Fields a kernel does not use stay empty.
type Record struct {
	MagnSigma2  []float64
	LengthScale [][]float64
	Hyper       map[string][]float64 // Tunable length-scale prior hyperparameters.
	Metric      [][]float64          // Packed metric parameters.
	Parts       []*Record            // One record per part of a Sum.
}

func (k *Exp) InitRecord() *Record {
	return &Record{
		MagnSigma2:  make([]float64, 0, 10),
		LengthScale: make([][]float64, 0, 10),
		Hyper:       make(map[string][]float64),
	}
}

// AppendRecord stores the current state at index ri, growing rec as
// needed. A nil rec is initialized first.
func (k *Exp) AppendRecord(rec *Record, ri int) *Record {
	if rec == nil {
		rec = k.InitRecord()
	}
	rec.MagnSigma2 = setAt(rec.MagnSigma2, ri, k.magnSigma2)
	if k.model == CustomMetric {
		rec.Metric = setAt(rec.Metric, ri, k.metric.Pack(nil))
		return rec
	}
	rec.LengthScale = setAt(rec.LengthScale, ri, k.LengthScale())
	if rec.Hyper == nil {
		rec.Hyper = make(map[string][]float64)
	}
	for _, h := range prior.Tunable(k.lengthPrior) {
		rec.Hyper[h.Name] = setAt(rec.Hyper[h.Name], ri, h.Value)
	}
	return rec
}

func setAt[T any](s []T, i int, v T) []T {
	for len(s) <= i {
		var zero T
		s = append(s, zero)
	}
	s[i] = v
	return s
}
