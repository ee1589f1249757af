package utils

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Machine epsilon for float64.
const Eps = 0x1p-52

// Pairwise differences along column k: out[i][j] = x1[i][k] - x2[j][k].
func ColDiff(x1, x2 mat.Matrix, k int) *mat.Dense {
	n1, _ := x1.Dims()
	n2, _ := x2.Dims()
	out := mat.NewDense(n1, n2, nil)
	for i := 0; i < n1; i++ {
		a := x1.At(i, k)
		for j := 0; j < n2; j++ {
			out.Set(i, j, a-x2.At(j, k))
		}
	}
	return out
}

// Scaled squared distances summed over columns:
// out[i][j] = sum_k scales[k] * (x1[i][k] - x2[j][k])^2.
// A single scale is broadcast over all columns.
func ScaledSqDist(x1, x2 mat.Matrix, scales []float64) *mat.Dense {
	n1, m := x1.Dims()
	n2, _ := x2.Dims()
	out := mat.NewDense(n1, n2, nil)
	raw := out.RawMatrix()
	for i := 0; i < n1; i++ {
		row := raw.Data[i*raw.Stride : i*raw.Stride+n2]
		for j := range row {
			d := 0.0
			for k := 0; k < m; k++ {
				diff := x1.At(i, k) - x2.At(j, k)
				d += scaleAt(scales, k) * diff * diff
			}
			row[j] = d
		}
	}
	return out
}

func scaleAt(scales []float64, k int) float64 {
	if len(scales) == 1 {
		return scales[0]
	}
	return scales[k]
}

// Elementwise square root, in place.
func Sqrt(m *mat.Dense) {
	m.Apply(func(_, _ int, v float64) float64 { return math.Sqrt(v) }, m)
}

// Set entries below Eps to exactly zero, in place.
func SnapEps(m *mat.Dense) {
	m.Apply(func(_, _ int, v float64) float64 {
		if v < Eps {
			return 0
		}
		return v
	}, m)
}

// Divide num by den elementwise wherever den is nonzero; other entries keep
// the numerator.
func DivNonZero(num, den *mat.Dense) {
	r, c := num.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if d := den.At(i, j); d != 0 {
				num.Set(i, j, num.At(i, j)/d)
			}
		}
	}
}

// Constant column vector.
func Fill(n int, val float64) *mat.VecDense {
	data := make([]float64, n)
	for i := range data {
		data[i] = val
	}
	return mat.NewVecDense(n, data)
}

// Dense copy of a symmetric matrix, both triangles filled.
func SymToDense(s mat.Symmetric) *mat.Dense {
	n := s.SymmetricDim()
	out := mat.NewDense(n, n, nil)
	out.Copy(s)
	return out
}
