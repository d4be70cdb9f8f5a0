package utils

import (
	"math"
)

func ConstArray(N int, val float64) (v []float64) {
	v = make([]float64, N)
	for i := range v {
		v[i] = val
	}
	return
}

// POW avoids math.Pow for the small integer exponents common in polynomial bases
func POW(x float64, p int) (y float64) {
	var (
		flipped bool
	)
	if p > 8 || p < -8 {
		return math.Pow(x, float64(p))
	}
	if p < 0 {
		p = -p
		flipped = true
	}
	y = 1
	for ; p > 0; p-- {
		y *= x
	}
	if flipped {
		y = 1. / y
	}
	return
}

// Linspace returns N evenly spaced points covering [a, b]
func Linspace(a, b float64, N int) (v []float64) {
	v = make([]float64, N)
	if N == 1 {
		v[0] = a
		return
	}
	dx := (b - a) / float64(N-1)
	for i := range v {
		v[i] = a + float64(i)*dx
	}
	return
}
