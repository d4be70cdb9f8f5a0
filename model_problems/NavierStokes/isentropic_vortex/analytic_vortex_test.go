package isentropic_vortex

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/notargets/dgflux/utils"
)

func TestIVortex(t *testing.T) {
	{ // Test base state
		iv := NewIVortex(5, 5, 0, 1.4)
		rho, rhoU, rhoV, E := iv.GetStateC(0, 5, 0)
		// Compare to matlab script results (from isentropic_vortex.m)
		assert.True(t, nearVec([]float64{rho, rhoU, rhoV, E}, []float64{0.361673, 0.361673, 0.000000, 0.782817}, 0.00001))
		Fx, Fy := iv.GetFlux(0, 5, 0)
		assert.True(t, near4Vec(Fx, [4]float64{0.361673, 0.602465, 0.000000, 1.023609}, 0.00001))
		assert.True(t, near4Vec(Fy, [4]float64{0.000000, 0.000000, 0.240792, 0.000000}, 0.00001))
		// The matlab divergence of the flux at the center is (0, 0, 0.782349, 0)
		assert.True(t, near4Vec(iv.GetRHS(0, 5, 0), [4]float64{0.000000, 0.000000, -0.782349, 0.000000}, 0.00001))
	}
	{ // The vortex translates with the freestream
		iv := NewIVortex(5, 5, 0, 1.4, 0.5, -0.25)
		u0, v0, rho0, p0 := iv.GetState(0, 5.3, 0.2)
		u1, v1, rho1, p1 := iv.GetState(2, 6.3, -0.3)
		assert.True(t, nearVec([]float64{u0, v0, rho0, p0}, []float64{u1, v1, rho1, p1}, 1e-12))
	}
	{ // A vortex at rest is steady
		iv := NewIVortex(5, 0, 0, 1.4, 0)
		for _, xy := range [][2]float64{{0.3, 0.4}, {-1, 0.5}, {2, -2}} {
			assert.Equal(t, [4]float64{}, iv.GetRHS(0, xy[0], xy[1]))
		}
	}
}

func TestIVortexRHSMatchesFiniteDifference(t *testing.T) {
	var (
		iv = NewIVortex(5, 5, 0, 1.4, 1, 0.5)
		dt = 1e-6
	)
	for _, xy := range [][2]float64{{5.3, 0.2}, {4.1, -0.7}, {6, 1}} {
		var (
			x, y = xy[0], xy[1]
			qm   [4]float64
			qp   [4]float64
		)
		qm[0], qm[1], qm[2], qm[3] = iv.GetStateC(-dt, x, y)
		qp[0], qp[1], qp[2], qp[3] = iv.GetStateC(dt, x, y)
		rhs := iv.GetRHS(0, x, y)
		for n := 0; n < 4; n++ {
			fd := (qp[n] - qm[n]) / (2 * dt)
			assert.InDelta(t, fd, rhs[n], 1e-6, "point %v, equation %d", xy, n)
		}
	}
}

func TestIVortexFields(t *testing.T) {
	var (
		iv = NewIVortex(5, 0, 0, 1.4)
		X  = utils.NewMatrix(2, 2, []float64{0, 1, -1, 0.5})
		Y  = utils.NewMatrix(2, 2, []float64{0, 0.2, 0.3, -1})
	)
	cv := iv.State([]utils.Matrix{X, Y}, 0.5)
	rhs := iv.ExactRHS([]utils.Matrix{X, Y}, 0.5)
	assert.Equal(t, 2, cv.Dim())
	assert.Equal(t, 0, cv.NSpecies())
	for i := range X.DataP {
		rho, rhoU, rhoV, E := iv.GetStateC(0.5, X.DataP[i], Y.DataP[i])
		assert.Equal(t, []float64{rho, rhoU, rhoV, E},
			[]float64{cv.Mass.DataP[i], cv.Momentum[0].DataP[i], cv.Momentum[1].DataP[i], cv.Energy.DataP[i]})
		r := iv.GetRHS(0.5, X.DataP[i], Y.DataP[i])
		assert.Equal(t, r[2], rhs.Momentum[1].DataP[i])
	}
}

func near4Vec(a, b [4]float64, tol float64) (l bool) {
	return nearVec(a[:], b[:], tol)
}

func nearVec(a, b []float64, tol float64) (l bool) {
	for i, val := range a {
		if !near(b[i], val, tol) {
			fmt.Printf("Diff = %v, Left[%d] = %v, Right[%d] = %v\n", math.Abs(val-b[i]), i, val, i, b[i])
			return false
		}
	}
	return true
}

func near(a, b float64, tolI ...float64) (l bool) {
	var (
		tol float64
	)
	if len(tolI) == 0 {
		tol = 1.e-08
	} else {
		tol = tolI[0]
	}
	bound := math.Max(tol, tol*math.Abs(a))
	if math.Abs(a-b) <= bound {
		l = true
	}
	return
}
