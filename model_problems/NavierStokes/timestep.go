package NavierStokes

import (
	"math"

	"github.com/notargets/dgflux/eos"
	"github.com/notargets/dgflux/fluid"
	"github.com/notargets/dgflux/utils"
)

// InviscidTimestep is the CFL limit h / ((N+1)^2 max(|v| + c)), +Inf for a
// fluid at rest with no sound speed
func InviscidTimestep(discr Discretization, gas eos.GasEOS, cv fluid.ConservedState, cfl float64) float64 {
	var (
		N1    = float64(discr.Order() + 1)
		speed = gas.SoundSpeed(cv)
		vmag  = utils.NewMatrixLike(cv.Mass)
	)
	for _, v := range cv.Velocity() {
		vmag.Apply2(v, func(acc, vi float64) float64 { return acc + vi*vi })
	}
	speed.Apply2(vmag, func(c, v2 float64) float64 { return c + math.Sqrt(v2) })
	return cfl * discr.MinElementSize() / (N1 * N1 * speed.MaxAbs())
}

// ViscousTimestep is the diffusive limit h^2 / ((N+1)^4 max(nu)), nu the
// largest of the kinematic viscosity, thermal diffusivity and species
// diffusivities
func ViscousTimestep(discr Discretization, gas eos.ViscousEOS, cv fluid.ConservedState, cfl float64) float64 {
	var (
		N1   = float64(discr.Order() + 1)
		h    = discr.MinElementSize()
		T    = gas.Temperature(cv)
		tm   = gas.Transport()
		nu   = tm.Viscosity(cv, T).Copy().Scale(4. / 3).Add(tm.BulkViscosity(cv, T)).ElDiv(cv.Mass)
		cvHt = gas.GasConst(cv).ElDiv(gas.Gamma(cv).AddScalar(-1))
	)
	alpha := tm.ThermalConductivity(cv, T).Copy().ElDiv(cv.Mass).ElDiv(cvHt)
	nuMax := math.Max(nu.MaxAbs(), alpha.MaxAbs())
	for _, d := range tm.SpeciesDiffusivity(cv, T) {
		nuMax = math.Max(nuMax, d.MaxAbs())
	}
	return cfl * h * h / (N1 * N1 * N1 * N1 * nuMax)
}

// Timestep is the smaller of the inviscid and, when the gas has a transport
// model, viscous limits
func Timestep(discr Discretization, gas eos.GasEOS, cv fluid.ConservedState, cfl float64) (dt float64) {
	dt = InviscidTimestep(discr, gas, cv, cfl)
	if vgas, ok := gas.(eos.ViscousEOS); ok && vgas.Transport() != nil {
		dt = math.Min(dt, ViscousTimestep(discr, vgas, cv, cfl))
	}
	return
}

// RK4Step advances cv by dt with the classical fourth order Runge-Kutta method
func RK4Step(cv fluid.ConservedState, t, dt float64, rhs RHSFunc) (next fluid.ConservedState, err error) {
	var (
		k1, k2, k3, k4 fluid.ConservedState
		stage          fluid.ConservedState
	)
	if k1, err = rhs(t, cv); err != nil {
		return
	}
	if stage, err = cv.AddScaled(0.5*dt, k1); err != nil {
		return
	}
	if k2, err = rhs(t+0.5*dt, stage); err != nil {
		return
	}
	if stage, err = cv.AddScaled(0.5*dt, k2); err != nil {
		return
	}
	if k3, err = rhs(t+0.5*dt, stage); err != nil {
		return
	}
	if stage, err = cv.AddScaled(dt, k3); err != nil {
		return
	}
	if k4, err = rhs(t+dt, stage); err != nil {
		return
	}
	next = cv.Copy()
	for _, k := range []struct {
		w float64
		k fluid.ConservedState
	}{{1, k1}, {2, k2}, {2, k3}, {1, k4}} {
		if next, err = next.AddScaled(k.w*dt/6, k.k); err != nil {
			return
		}
	}
	return
}
