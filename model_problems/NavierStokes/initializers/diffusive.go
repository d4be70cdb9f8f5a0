package initializers

import (
	"math"

	"github.com/notargets/dgflux/fluid"
	"github.com/notargets/dgflux/utils"
)

// The waves below are fluids at rest (or in pure shear) whose only time
// derivative comes from one diffusive term. State does not evolve with t, the
// exact RHS is the instantaneous one of the Navier-Stokes operator with
// constant transport coefficients.

// TemperatureWave has uniform pressure and T = T0 + A sin(k x), so that
// dE/dt = div(kappa grad T) = -kappa A k^2 sin(k x)
type TemperatureWave struct {
	Gamma, GasConst      float64
	P0, T0, Amplitude, K float64
	Kappa                float64
}

func (tw *TemperatureWave) State(nodes []utils.Matrix, t float64) fluid.ConservedState {
	return fill(nodes, 0, func(x []float64) (float64, float64, []float64, []float64) {
		T := tw.T0 + tw.Amplitude*math.Sin(tw.K*x[0])
		return tw.P0 / (tw.GasConst * T), tw.P0 / (tw.Gamma - 1), make([]float64, len(x)), nil
	})
}

func (tw *TemperatureWave) ExactRHS(nodes []utils.Matrix, t float64) fluid.ConservedState {
	return fill(nodes, 0, func(x []float64) (float64, float64, []float64, []float64) {
		return 0, -tw.Kappa * tw.Amplitude * tw.K * tw.K * math.Sin(tw.K*x[0]), nil, nil
	})
}

// SpeciesWave carries one passive species Y = Y0 + A sin(k x) in a uniform
// fluid at rest: d(rho Y)/dt = div(rho D grad Y) = -rho0 D A k^2 sin(k x)
type SpeciesWave struct {
	Gamma                   float64
	Rho0, P0, Y0, Amplitude float64
	K, Diffusivity          float64
}

func (sw *SpeciesWave) State(nodes []utils.Matrix, t float64) fluid.ConservedState {
	return fill(nodes, 1, func(x []float64) (float64, float64, []float64, []float64) {
		Y := sw.Y0 + sw.Amplitude*math.Sin(sw.K*x[0])
		return sw.Rho0, sw.P0 / (sw.Gamma - 1), make([]float64, len(x)), []float64{sw.Rho0 * Y}
	})
}

func (sw *SpeciesWave) ExactRHS(nodes []utils.Matrix, t float64) fluid.ConservedState {
	return fill(nodes, 1, func(x []float64) (float64, float64, []float64, []float64) {
		return 0, 0, nil, []float64{-sw.Rho0 * sw.Diffusivity * sw.Amplitude * sw.K * sw.K * math.Sin(sw.K*x[0])}
	})
}

// ShearWave is a parallel shear flow v_y = A sin(k x) at uniform density and
// pressure, needing at least two dimensions. Viscosity decays the momentum,
// d(rho v_y)/dt = -mu A k^2 sin(k x), and the work of the stress moves the
// energy, dE/dt = mu A^2 k^2 cos(2 k x).
type ShearWave struct {
	Gamma               float64
	Rho0, P0, Amplitude float64
	K, Mu               float64
}

func (sh *ShearWave) State(nodes []utils.Matrix, t float64) fluid.ConservedState {
	return fill(nodes, 0, func(x []float64) (float64, float64, []float64, []float64) {
		vy := sh.Amplitude * math.Sin(sh.K*x[0])
		mom := make([]float64, len(x))
		mom[1] = sh.Rho0 * vy
		return sh.Rho0, sh.P0/(sh.Gamma-1) + 0.5*sh.Rho0*vy*vy, mom, nil
	})
}

func (sh *ShearWave) ExactRHS(nodes []utils.Matrix, t float64) fluid.ConservedState {
	var (
		A, k = sh.Amplitude, sh.K
	)
	return fill(nodes, 0, func(x []float64) (float64, float64, []float64, []float64) {
		mom := make([]float64, len(x))
		mom[1] = -sh.Mu * A * k * k * math.Sin(k*x[0])
		return 0, sh.Mu * A * A * k * k * math.Cos(2*k*x[0]), mom, nil
	})
}
