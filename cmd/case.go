package cmd

import (
	"fmt"
	"strconv"

	"github.com/notargets/dgflux/DGTensor"
	"github.com/notargets/dgflux/InputParameters"
	"github.com/notargets/dgflux/eos"
	"github.com/notargets/dgflux/model_problems/NavierStokes"
	"github.com/notargets/dgflux/model_problems/NavierStokes/initializers"
	"github.com/notargets/dgflux/model_problems/NavierStokes/isentropic_vortex"
	"github.com/notargets/dgflux/types"
)

// Case is a validated case file turned into solver objects
type Case struct {
	IP         *InputParameters.InputParameters
	Gas        eos.GasEOS
	Init       initializers.Initializer
	Boundaries map[string]NavierStokes.BoundaryCondition
	Flux       NavierStokes.FluxType
}

func NewCase(ip *InputParameters.InputParameters) (c *Case, err error) {
	if err = ip.Validate(); err != nil {
		return
	}
	c = &Case{
		IP:   ip,
		Flux: NavierStokes.NewFluxType(ip.FluxType),
	}
	c.Gas = newGas(ip)
	if c.Init, err = newInitializer(ip); err != nil {
		return
	}
	c.Boundaries = make(map[string]NavierStokes.BoundaryCondition)
	for tag, bcp := range ip.BCs {
		var bc NavierStokes.BoundaryCondition
		if bc, err = c.newBoundary(bcp); err != nil {
			err = fmt.Errorf("tag %q: %w", tag, err)
			return
		}
		c.Boundaries[tag] = bc
	}
	return
}

func newGas(ip *InputParameters.InputParameters) eos.GasEOS {
	var (
		tp        = ip.Transport
		cvHeat    = ip.Gas.GasConstant / (ip.Gas.Gamma - 1)
		transport eos.TransportModel
	)
	switch tp.Model {
	case "simple":
		transport = eos.SimpleTransport{Mu: tp.Mu, MuBulk: tp.MuBulk, Kappa: tp.Kappa, Diffusivity: tp.Diffusivity}
	case "powerlaw":
		transport = eos.NewPowerLawTransport(cvHeat, tp.Diffusivity...)
	}
	var tm []eos.TransportModel
	if transport != nil {
		tm = append(tm, transport)
	}
	if len(ip.Gas.MolecularWeights) != 0 {
		return eos.NewIdealMixture(ip.Gas.MolecularWeights, ip.Gas.SpeciesGammas, tm...)
	}
	return eos.NewIdealSingleGas(ip.Gas.Gamma, ip.Gas.GasConstant, tm...)
}

func firstOr(vals []float64, def float64) float64 {
	if len(vals) == 0 {
		return def
	}
	return vals[0]
}

func newInitializer(ip *InputParameters.InputParameters) (ic initializers.Initializer, err error) {
	var (
		dim   = ip.Dimension
		ns    = ip.NumSpecies()
		gamma = ip.Gas.Gamma
		tp    = ip.Transport
		vel   = make([]float64, dim)
	)
	copy(vel, ip.Velocity)
	switch ip.InitType {
	case "uniform":
		fractions := make([]float64, ns)
		for s := range fractions {
			fractions[s] = 1. / float64(ns)
		}
		ic = initializers.NewUniform(dim, ip.Param("Mass", 1), ip.Param("Energy", 2.5), vel, fractions...)
	case "lump":
		l := initializers.NewLump(dim, gamma)
		l.Rho0, l.Amplitude, l.P0 = ip.Param("Rho0", 1), ip.Param("Amplitude", 1), ip.Param("P0", 1)
		copy(l.Velocity, vel)
		for d := 0; d < dim; d++ {
			l.Center[d] = ip.Param("X"+strconv.Itoa(d), 0)
		}
		ic = l
	case "multilump":
		if ns == 0 {
			return nil, fmt.Errorf("multilump needs species")
		}
		ml := initializers.NewMulticomponentLump(dim, ns, gamma)
		copy(ml.Velocity, vel)
		ic = ml
	case "vortex":
		if dim != 2 {
			return nil, fmt.Errorf("the isentropic vortex is two dimensional, case has %d dimensions", dim)
		}
		ic = isentropic_vortex.NewIVortex(ip.Param("Beta", 5), ip.Param("X0", 5), ip.Param("X1", 0), gamma,
			vel[0], vel[1])
	case "temperaturewave":
		ic = &initializers.TemperatureWave{
			Gamma: gamma, GasConst: ip.Gas.GasConstant,
			P0: ip.Param("P0", 1), T0: ip.Param("T0", 1), Amplitude: ip.Param("Amplitude", 0.1),
			K: ip.Param("K", 1), Kappa: tp.Kappa,
		}
	case "specieswave":
		if ns != 1 {
			return nil, fmt.Errorf("the species wave carries one species, case has %d", ns)
		}
		ic = &initializers.SpeciesWave{
			Gamma: gamma, Rho0: ip.Param("Rho0", 1), P0: ip.Param("P0", 1), Y0: ip.Param("Y0", 0.5),
			Amplitude: ip.Param("Amplitude", 0.1), K: ip.Param("K", 1), Diffusivity: firstOr(tp.Diffusivity, 0),
		}
	case "shearwave":
		if dim < 2 {
			return nil, fmt.Errorf("the shear wave needs two dimensions")
		}
		ic = &initializers.ShearWave{
			Gamma: gamma, Rho0: ip.Param("Rho0", 1), P0: ip.Param("P0", 1),
			Amplitude: ip.Param("Amplitude", 0.1), K: ip.Param("K", 1), Mu: tp.Mu,
		}
	default:
		err = fmt.Errorf("unknown initial condition %q", ip.InitType)
	}
	return
}

func (c *Case) newBoundary(bcp InputParameters.BCParameters) (bc NavierStokes.BoundaryCondition, err error) {
	var flag types.BCFLAG
	if flag, err = types.NewBCFLAG(bcp.Type); err != nil {
		return
	}
	param := func(name string) (float64, error) {
		v, ok := bcp.Params[name]
		if !ok {
			return 0, fmt.Errorf("%s boundary needs parameter %s", flag, name)
		}
		return v, nil
	}
	var v float64
	switch flag {
	case types.BC_Dummy:
		bc = NavierStokes.DummyBoundary()
	case types.BC_Prescribed:
		bc = NavierStokes.PrescribedBoundary(c.Init.State)
	case types.BC_Slip:
		bc = NavierStokes.AdiabaticSlipBoundary()
	case types.BC_NoSlip:
		if v, err = param("T"); err == nil {
			bc = NavierStokes.IsothermalNoSlipBoundary(v)
		}
	case types.BC_Out:
		if v, err = param("P"); err == nil {
			bc = NavierStokes.PressureOutflowBoundary(v)
		}
	}
	return
}

// Mesh builds the box mesh with nel elements per axis, the case's own counts
// when nel is nil
func (c *Case) Mesh(nel []int) (mesh *DGTensor.BoxMesh, err error) {
	ip := c.IP
	if nel == nil {
		nel = ip.Elements
	}
	mesh = DGTensor.NewBoxMesh(append([]int{}, nel...), ip.Lower, ip.Upper).SetPeriodic(ip.Periodic...)
	for axis, tags := range ip.SideTags {
		a, _ := strconv.Atoi(axis)
		mesh.SetSideTag(a, 0, tags[0]).SetSideTag(a, 1, tags[1])
	}
	err = mesh.Validate()
	return
}

// RHS binds the case's operator to one rank's discretization
func (c *Case) RHS(discr NavierStokes.Discretization) (rhs NavierStokes.RHSFunc, err error) {
	switch c.IP.Operator {
	case "ns":
		vgas, ok := c.Gas.(eos.ViscousEOS)
		if !ok {
			return nil, fmt.Errorf("%w: gas has no transport properties", NavierStokes.ErrConfiguration)
		}
		return NavierStokes.NewNSRHS(discr, vgas, c.Boundaries, c.Flux), nil
	default:
		return NavierStokes.NewEulerRHS(discr, c.Gas, c.Boundaries, c.Flux), nil
	}
}
