package NavierStokes

import (
	"github.com/notargets/dgflux/eos"
	"github.com/notargets/dgflux/fluid"
	"github.com/notargets/dgflux/types"
	"github.com/notargets/dgflux/utils"
)

// VelocityGradient is dv_i/dx_j = (d(rho v_i)/dx_j - v_i drho/dx_j) / rho
func VelocityGradient(cv fluid.ConservedState, grad fluid.ConservedFlux) (gv [][]utils.Matrix) {
	v := cv.Velocity()
	gv = make([][]utils.Matrix, cv.Dim())
	for i := range gv {
		gv[i] = ratioGradient(cv.Mass, v[i], grad.Momentum[i], grad.Mass)
	}
	return
}

// MassFractionGradient is dY/dx_j = (d(rho Y)/dx_j - Y drho/dx_j) / rho
func MassFractionGradient(cv fluid.ConservedState, grad fluid.ConservedFlux) (gy [][]utils.Matrix) {
	y := cv.MassFractions()
	gy = make([][]utils.Matrix, cv.NSpecies())
	for s := range gy {
		gy[s] = ratioGradient(cv.Mass, y[s], grad.SpeciesMass[s], grad.Mass)
	}
	return
}

// ratioGradient is the gradient of phi = num/rho from the gradients of num and rho
func ratioGradient(rho, phi utils.Matrix, gradNum, gradRho []utils.Matrix) (g []utils.Matrix) {
	g = make([]utils.Matrix, len(gradNum))
	for j := range g {
		g[j] = gradNum[j].Copy().Apply3(phi, gradRho[j], func(gn, p, gr float64) float64 {
			return gn - p*gr
		}).ElDiv(rho)
	}
	return
}

// ViscousStressTensor is tau = mu (grad v + grad v^T) + (mu_B - 2/3 mu) div(v) I
func ViscousStressTensor(gas eos.ViscousEOS, cv fluid.ConservedState, grad fluid.ConservedFlux,
	temperature utils.Matrix) (tau [][]utils.Matrix) {
	var (
		dim    = cv.Dim()
		tm     = gas.Transport()
		mu     = tm.Viscosity(cv, temperature)
		lambda = tm.BulkViscosity(cv, temperature).Copy().AddScaled(-2./3, mu)
		gv     = VelocityGradient(cv, grad)
		divV   = gv[0][0].Copy()
	)
	for d := 1; d < dim; d++ {
		divV.Add(gv[d][d])
	}
	tau = make([][]utils.Matrix, dim)
	for i := range tau {
		tau[i] = make([]utils.Matrix, dim)
		for j := range tau[i] {
			tau[i][j] = gv[i][j].Copy().Add(gv[j][i]).ElMul(mu)
			if i == j {
				tau[i][j].Add(divV.Copy().ElMul(lambda))
			}
		}
	}
	return
}

// DiffusiveFlux is the species mass flux J_a = -rho D_a grad(Y_a)
func DiffusiveFlux(gas eos.ViscousEOS, cv fluid.ConservedState, grad fluid.ConservedFlux,
	temperature utils.Matrix) (j [][]utils.Matrix) {
	var (
		diff = gas.Transport().SpeciesDiffusivity(cv, temperature)
		gy   = MassFractionGradient(cv, grad)
	)
	j = make([][]utils.Matrix, cv.NSpecies())
	for s := range j {
		rhoD := diff[s].Copy().ElMul(cv.Mass).Scale(-1)
		j[s] = fluid.ScaleVector(gy[s], rhoD)
	}
	return
}

// HeatFlux is q = -kappa grad(T) + sum_a h_a J_a
func HeatFlux(gas eos.ViscousEOS, cv fluid.ConservedState, temperature utils.Matrix,
	gradT []utils.Matrix, j [][]utils.Matrix) (q []utils.Matrix) {
	var (
		kappa = gas.Transport().ThermalConductivity(cv, temperature).Copy().Scale(-1)
		h     = gas.SpeciesEnthalpies(cv, temperature)
	)
	q = fluid.ScaleVector(gradT, kappa)
	for s := range j {
		for d := range q {
			q[d].Add(j[s][d].Copy().ElMul(h[s]))
		}
	}
	return
}

// ViscousFlux is the tensor [0, tau.v - q, tau, -J] whose divergence is added to
// the RHS. The species rows carry -J = rho D grad(Y) so that species diffuse
// down their gradients.
func ViscousFlux(gas eos.ViscousEOS, cv fluid.ConservedState, grad fluid.ConservedFlux,
	temperature utils.Matrix, gradT []utils.Matrix) (f fluid.ConservedFlux, err error) {
	if grad.Dim() != cv.Dim() || grad.NSpecies() != cv.NSpecies() || len(gradT) != cv.Dim() {
		err = shapeMismatch("gradient dim/nspecies %d/%d, temperature gradient %d, state %d/%d",
			grad.Dim(), grad.NSpecies(), len(gradT), cv.Dim(), cv.NSpecies())
		return
	}
	var (
		dim = cv.Dim()
		tau = ViscousStressTensor(gas, cv, grad, temperature)
		j   = DiffusiveFlux(gas, cv, grad, temperature)
		q   = HeatFlux(gas, cv, temperature, gradT, j)
		v   = cv.Velocity()
	)
	f.Mass = make([]utils.Matrix, dim)
	f.Energy = make([]utils.Matrix, dim)
	for d := 0; d < dim; d++ {
		f.Mass[d] = utils.NewMatrixLike(cv.Mass)
		// (tau.v)_d = sum_i tau_di v_i
		tv := tau[d][0].Copy().ElMul(v[0])
		for i := 1; i < dim; i++ {
			tv.Add(tau[d][i].Copy().ElMul(v[i]))
		}
		f.Energy[d] = tv.Subtract(q[d])
	}
	f.Momentum = tau
	f.SpeciesMass = make([][]utils.Matrix, len(j))
	for s := range j {
		f.SpeciesMass[s] = make([]utils.Matrix, dim)
		for d := range j[s] {
			f.SpeciesMass[s][d] = j[s][d].Copy().Scale(-1)
		}
	}
	return
}

// ViscousFaceFlux is the penalty free central flux avg(F_V).n on the faces
// of the pairs
func ViscousFaceFlux(discr Discretization, gas eos.ViscousEOS, cvPair fluid.StateTracePair,
	gradPair fluid.FluxTracePair, tPair, gradTPair types.TracePair) (fn fluid.ConservedState, err error) {
	var (
		fInt, fExt fluid.ConservedFlux
		avg        fluid.ConservedFlux
	)
	if fInt, err = ViscousFlux(gas, cvPair.Interior, gradPair.Interior,
		tPair.Interior[0], gradTPair.Interior); err != nil {
		return
	}
	if fExt, err = ViscousFlux(gas, cvPair.Exterior, gradPair.Exterior,
		tPair.Exterior[0], gradTPair.Exterior); err != nil {
		return
	}
	if avg, err = fInt.Add(fExt); err != nil {
		return
	}
	return avg.Scale(0.5).Dot(discr.Normal(cvPair.Domain))
}

// ViscousFacialFlux is ViscousFaceFlux extended to all faces
func ViscousFacialFlux(discr Discretization, gas eos.ViscousEOS, cvPair fluid.StateTracePair,
	gradPair fluid.FluxTracePair, tPair, gradTPair types.TracePair) (fluid.ConservedState, error) {
	fn, err := ViscousFaceFlux(discr, gas, cvPair, gradPair, tPair, gradTPair)
	if err != nil {
		return fluid.ConservedState{}, err
	}
	return ToAllFaces(discr, cvPair.Domain, fn), nil
}
