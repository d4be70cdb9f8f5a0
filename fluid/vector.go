package fluid

import (
	"fmt"

	"github.com/notargets/dgflux/utils"
)

// Dot returns the pointwise dot product of two vector fields
func Dot(a, b []utils.Matrix) (r utils.Matrix) {
	if len(a) != len(b) || len(a) == 0 {
		panic(fmt.Errorf("dot product of vectors with %d and %d components", len(a), len(b)))
	}
	r = a[0].Copy().ElMul(b[0])
	for i := 1; i < len(a); i++ {
		r.Apply3(a[i], b[i], func(acc, x, y float64) float64 { return acc + x*y })
	}
	return
}

// ScaleVector returns s*v for scalar field s
func ScaleVector(v []utils.Matrix, s utils.Matrix) (r []utils.Matrix) {
	r = make([]utils.Matrix, len(v))
	for i := range v {
		r[i] = v[i].Copy().ElMul(s)
	}
	return
}

// AddVectors returns a + b
func AddVectors(a, b []utils.Matrix) (r []utils.Matrix) {
	r = make([]utils.Matrix, len(a))
	for i := range a {
		r[i] = a[i].Copy().Add(b[i])
	}
	return
}

// SubVectors returns a - b
func SubVectors(a, b []utils.Matrix) (r []utils.Matrix) {
	r = make([]utils.Matrix, len(a))
	for i := range a {
		r[i] = a[i].Copy().Subtract(b[i])
	}
	return
}
