package NavierStokes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/dgflux/DGTensor"
	"github.com/notargets/dgflux/eos"
	"github.com/notargets/dgflux/fluid"
	"github.com/notargets/dgflux/model_problems/NavierStokes/initializers"
	"github.com/notargets/dgflux/types"
	"github.com/notargets/dgflux/utils"
)

func scalar(v float64) utils.Matrix { return utils.NewMatrix(1, 1, []float64{v}) }

func scalars(v ...float64) (r []utils.Matrix) {
	for _, x := range v {
		r = append(r, scalar(x))
	}
	return
}

func pointState(mass, energy float64, mom []float64, species ...float64) fluid.ConservedState {
	return fluid.ConservedState{
		Mass:        scalar(mass),
		Energy:      scalar(energy),
		Momentum:    scalars(mom...),
		SpeciesMass: scalars(species...),
	}
}

func TestFluxType(t *testing.T) {
	assert.Equal(t, FLUX_LaxFriedrichs, NewFluxType("Lax"))
	assert.Equal(t, FLUX_Central, NewFluxType("central"))
	assert.Equal(t, "Lax Friedrichs", FLUX_LaxFriedrichs.Print())
	assert.Panics(t, func() { NewFluxType("roe") })
}

func TestInviscidFluxIdentities(t *testing.T) {
	{ // A fluid at rest carries only the pressure
		cv := pointState(1.3, 2.5, []float64{0, 0, 0}, 0.4)
		f := InviscidFlux(cv, scalar(0.75))
		for d := 0; d < 3; d++ {
			assert.Equal(t, 0., f.Mass[d].DataP[0])
			assert.Equal(t, 0., f.Energy[d].DataP[0])
			assert.Equal(t, 0., f.SpeciesMass[0][d].DataP[0])
			for i := 0; i < 3; i++ {
				if i == d {
					assert.Equal(t, 0.75, f.Momentum[i][d].DataP[0])
				} else {
					assert.Equal(t, 0., f.Momentum[i][d].DataP[0])
				}
			}
		}
	}
	{ // Velocity along y only
		var (
			rho, v, p, E = 2., 3., 0.5, 10.
			cv           = pointState(rho, E, []float64{0, rho * v}, rho*0.25)
			f            = InviscidFlux(cv, scalar(p))
		)
		assert.Equal(t, []float64{0, rho * v}, []float64{f.Mass[0].DataP[0], f.Mass[1].DataP[0]})
		assert.InDelta(t, (E+p)*v, f.Energy[1].DataP[0], 1e-14)
		assert.Equal(t, 0., f.Energy[0].DataP[0])
		assert.Equal(t, p, f.Momentum[0][0].DataP[0])
		assert.Equal(t, 0., f.Momentum[0][1].DataP[0])
		assert.InDelta(t, rho*v*v+p, f.Momentum[1][1].DataP[0], 1e-14)
		assert.InDelta(t, rho*0.25*v, f.SpeciesMass[0][1].DataP[0], 1e-14)
	}
}

func TestLaxFriedrichsFlux(t *testing.T) {
	var (
		gas    = eos.NewIdealSingleGas(1.4, 1)
		normal = scalars(1)
		qi     = pointState(1, 2.5, []float64{0.5})
		qe     = pointState(0.8, 2, []float64{-0.2})
	)
	{ // Equal sides reduce to the physical flux
		fn, err := LaxFriedrichsFlux(gas, fluid.StateTracePair{Interior: qi, Exterior: qi.Copy()}, normal)
		require.NoError(t, err)
		f, err := InviscidFlux(qi, gas.Pressure(qi)).Dot(normal)
		require.NoError(t, err)
		assert.Equal(t, f.Join()[0].DataP, fn.Join()[0].DataP)
		assert.Equal(t, f.Energy.DataP, fn.Energy.DataP)
		assert.Equal(t, f.Momentum[0].DataP, fn.Momentum[0].DataP)
	}
	{ // Dissipation uses the larger wave speed of the two sides
		fn, err := LaxFriedrichsFlux(gas, fluid.StateTracePair{Interior: qi, Exterior: qe}, normal)
		require.NoError(t, err)
		fc, err := CentralFlux(gas, fluid.StateTracePair{Interior: qi, Exterior: qe}, normal)
		require.NoError(t, err)
		lam := max(MaxWaveSpeed(gas, qi, normal).DataP[0], MaxWaveSpeed(gas, qe, normal).DataP[0])
		assert.InDelta(t, fc.Mass.DataP[0]-0.5*lam*(0.8-1), fn.Mass.DataP[0], 1e-14)
		assert.InDelta(t, fc.Energy.DataP[0]-0.5*lam*(2-2.5), fn.Energy.DataP[0], 1e-14)
		// Swapping sides and normal negates the flux
		fs, err := LaxFriedrichsFlux(gas, fluid.StateTracePair{Interior: qe, Exterior: qi}, scalars(-1))
		require.NoError(t, err)
		sum, err := fn.Add(fs)
		require.NoError(t, err)
		assert.Equal(t, 0., sum.MaxAbs())
	}
}

func newLump2D() *initializers.Lump {
	l := initializers.NewLump(2, 1.4)
	l.Velocity[0], l.Velocity[1] = 1, 0.5
	l.Center[0], l.Center[1] = 0.2, -0.1
	return l
}

func TestFacialFluxContinuity(t *testing.T) {
	var (
		gas  = eos.NewIdealSingleGas(1.4, 1)
		mesh = DGTensor.NewUniformBoxMesh(2, 3, -1.5, 1.5).SetPeriodic(0, 1)
		nel  = 3
	)
	dd, err := DGTensor.NewDiscretization(mesh, 3)
	require.NoError(t, err)
	// The lump is not periodic, faces on the seam see real jumps
	cv := newLump2D().State(dd.Nodes(), 0)
	pairs, err := statePairs(dd, cv)
	require.NoError(t, err)
	require.Len(t, pairs, 1)
	for _, ft := range []FluxType{FLUX_LaxFriedrichs, FLUX_Central} {
		fn, err := InviscidFacialFlux(dd, gas, pairs[0], ft)
		require.NoError(t, err)
		for _, fld := range fn.Join() {
			nfp, _ := fld.Dims()
			for k1 := 0; k1 < nel; k1++ {
				for k0 := 0; k0 < nel; k0++ {
					var (
						k      = k0 + nel*k1
						kRight = (k0+1)%nel + nel*k1
						kUp    = k0 + nel*((k1+1)%nel)
					)
					for j := 0; j < nfp; j++ {
						assert.InDelta(t, 0, fld.At(j, 4*k+1)+fld.At(j, 4*kRight+0), 1e-14)
						assert.InDelta(t, 0, fld.At(j, 4*k+3)+fld.At(j, 4*kUp+2), 1e-14)
					}
				}
			}
		}
	}
}

func TestPrescribedBoundaryFlux(t *testing.T) {
	var (
		gas  = eos.NewIdealSingleGas(1.4, 1)
		lump = newLump2D()
		mesh = DGTensor.NewUniformBoxMesh(2, 3, -1.5, 1.5)
	)
	dd, err := DGTensor.NewDiscretization(mesh, 2)
	require.NoError(t, err)
	var (
		cv     = lump.State(dd.Nodes(), 0.1)
		domain = types.BoundaryDomain(DGTensor.DefaultBoundaryTag)
		bc     = PrescribedBoundary(lump.State)
		vf     = &VolumeFields{State: cv, Time: 0.1}
	)
	fn, err := bc.InviscidBoundaryFlux(dd, gas, DGTensor.DefaultBoundaryTag, vf)
	require.NoError(t, err)
	// With the exact state outside, the numerical flux is the physical flux
	cvb := restrictState(dd, domain, cv)
	phys, err := InviscidFlux(cvb, gas.Pressure(cvb)).Dot(dd.Normal(domain))
	require.NoError(t, err)
	expect := ToAllFaces(dd, domain, phys)
	ef, ff := expect.Join(), fn.Join()
	for n := range ef {
		for i := range ef[n].DataP {
			assert.InDelta(t, ef[n].DataP[i], ff[n].DataP[i], 1e-13)
		}
	}
}

func TestSlipWallBlocksMassFlux(t *testing.T) {
	var (
		gas  = eos.NewIdealSingleGas(1.4, 1)
		mesh = DGTensor.NewUniformBoxMesh(2, 3, 0, 1).SetPeriodic(0).SetSideTag(1, 0, "wall").SetSideTag(1, 1, "wall")
	)
	dd, err := DGTensor.NewDiscretization(mesh, 2)
	require.NoError(t, err)
	cv := initializers.NewUniform(2, 1, 2.5, []float64{0.3, 0.2}).State(dd.Nodes(), 0)
	fn, err := AdiabaticSlipBoundary().InviscidBoundaryFlux(dd, gas, "wall", &VolumeFields{State: cv})
	require.NoError(t, err)
	// The reflected state cancels mass and energy through the wall
	assert.InDelta(t, 0, fn.Mass.MaxAbs(), 1e-14)
	assert.InDelta(t, 0, fn.Energy.MaxAbs(), 1e-14)
	assert.Greater(t, fn.Momentum[1].MaxAbs(), 0.)
	assert.InDelta(t, 0, fn.Momentum[0].MaxAbs(), 1e-14)
}

func TestViscousFlux(t *testing.T) {
	var (
		st  = eos.SimpleTransport{Mu: 0.5, MuBulk: 0.1, Kappa: 0.3, Diffusivity: []float64{0.2}}
		gas = eos.NewIdealSingleGas(1.4, 1, st)
		rho = 2.
		cv  = pointState(rho, 5, []float64{rho * 1, rho * -1}, rho*0.4)
		// grad(rho) = 0, so grad(v) = grad(rho v)/rho
		a, b, c, d = 0.3, -0.2, 0.7, 0.1
		grad       = fluid.ConservedFlux{
			Mass:        scalars(0, 0),
			Energy:      scalars(0, 0),
			Momentum:    [][]utils.Matrix{scalars(rho*a, rho*b), scalars(rho*c, rho*d)},
			SpeciesMass: [][]utils.Matrix{scalars(rho*0.5, rho*-0.25)},
		}
		T     = gas.Temperature(cv)
		gradT = scalars(1.5, -2)
	)
	tau := ViscousStressTensor(gas, cv, grad, T)
	lambda := st.MuBulk - 2./3*st.Mu
	assert.InDelta(t, 2*st.Mu*a+lambda*(a+d), tau[0][0].DataP[0], 1e-14)
	assert.InDelta(t, 2*st.Mu*d+lambda*(a+d), tau[1][1].DataP[0], 1e-14)
	assert.InDelta(t, st.Mu*(b+c), tau[0][1].DataP[0], 1e-14)
	assert.Equal(t, tau[0][1].DataP[0], tau[1][0].DataP[0])

	f, err := ViscousFlux(gas, cv, grad, T, gradT)
	require.NoError(t, err)
	assert.Equal(t, 0., f.Mass[0].DataP[0])
	// Species diffuse down their gradient: the flux row is rho D grad(Y)
	assert.InDelta(t, rho*0.2*0.5, f.SpeciesMass[0][0].DataP[0], 1e-14)
	assert.InDelta(t, rho*0.2*-0.25, f.SpeciesMass[0][1].DataP[0], 1e-14)
	// Energy row is tau.v + kappa grad(T), the single gas species carry no enthalpy
	assert.InDelta(t, tau[0][0].DataP[0]*1-tau[0][1].DataP[0]+0.3*1.5, f.Energy[0].DataP[0], 1e-14)
	assert.InDelta(t, tau[1][0].DataP[0]*1-tau[1][1].DataP[0]+0.3*-2, f.Energy[1].DataP[0], 1e-14)

	_, err = ViscousFlux(gas, cv, grad, T, scalars(1))
	assert.ErrorIs(t, err, fluid.ErrShapeMismatch)
}

func TestHeatFluxCarriesSpeciesEnthalpy(t *testing.T) {
	var (
		st  = eos.SimpleTransport{Kappa: 0.3, Diffusivity: []float64{0.2}}
		mix = eos.NewIdealMixture([]float64{28, 32}, []float64{1.4, 1.4}, st)
		cv  = pointState(1, 2e5, []float64{0}, 0.7, 0.3)
		T   = mix.Temperature(cv)
		j   = [][]utils.Matrix{scalars(0.1), scalars(-0.1)}
	)
	q := HeatFlux(mix, cv, T, scalars(0), j)
	h := mix.SpeciesEnthalpies(cv, T)
	assert.InDelta(t, 0.1*(h[0].DataP[0]-h[1].DataP[0]), q[0].DataP[0], 1e-9)
}
