package utils

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// SingularValues returns the smallest and largest singular value, 0 and +Inf
// when the factorization fails
func (m Matrix) SingularValues() (min, max float64) {
	if m.M == nil {
		return 0, 0
	}
	var svd mat.SVD
	if !svd.Factorize(m.M, mat.SVDNone) {
		return 0, math.Inf(1)
	}
	values := svd.Values(nil)
	return values[len(values)-1], values[0]
}

// ConditionNumber is the 2-norm condition number, +Inf for a singular matrix
func (m Matrix) ConditionNumber() float64 {
	minVal, maxVal := m.SingularValues()
	if minVal == 0 {
		return math.Inf(1)
	}
	return maxVal / minVal
}
