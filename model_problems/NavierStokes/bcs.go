package NavierStokes

import (
	"github.com/notargets/dgflux/eos"
	"github.com/notargets/dgflux/fluid"
	"github.com/notargets/dgflux/types"
	"github.com/notargets/dgflux/utils"
)

// VolumeFields are the interior quantities a boundary condition may use.
// Gradient and TemperatureGradient are empty until the gradient pass is done.
type VolumeFields struct {
	State               fluid.ConservedState
	Temperature         utils.Matrix
	Gradient            fluid.ConservedFlux
	TemperatureGradient []utils.Matrix
	Time                float64
}

// BoundaryCondition supplies the face fluxes on one tagged part of the domain
// boundary. Every result is on the all faces domain, zero away from the tag,
// ready to be summed with the interior face fluxes.
type BoundaryCondition interface {
	InviscidBoundaryFlux(discr Discretization, gas eos.GasEOS, tag string, vf *VolumeFields) (fluid.ConservedState, error)
	// GradientBoundaryFlux is q* (x) n for the state gradient
	GradientBoundaryFlux(discr Discretization, gas eos.GasEOS, tag string, vf *VolumeFields) (fluid.ConservedFlux, error)
	// TemperatureBoundaryFlux is T* n for the temperature gradient
	TemperatureBoundaryFlux(discr Discretization, gas eos.GasEOS, tag string, vf *VolumeFields) ([]utils.Matrix, error)
	ViscousBoundaryFlux(discr Discretization, gas eos.ViscousEOS, tag string, vf *VolumeFields) (fluid.ConservedState, error)
}

// FaceData is the interior side of a boundary face set
type FaceData struct {
	Domain      types.DomainTag
	Normal      []utils.Matrix
	Nodes       []utils.Matrix
	Time        float64
	State       fluid.ConservedState
	Temperature utils.Matrix
}

// ExteriorFunc builds the ghost state, and its temperature, seen across the boundary
type ExteriorFunc func(gas eos.GasEOS, fd *FaceData) (cv fluid.ConservedState, temperature utils.Matrix)

// StateFunc evaluates a conserved state at the given coordinates and time
type StateFunc func(nodes []utils.Matrix, t float64) fluid.ConservedState

// StateBoundary imposes a boundary through an exterior state: the inviscid
// flux is Lax-Friedrichs between interior and exterior, the gradient and
// viscous fluxes are central with the interior gradients on both sides.
type StateBoundary struct {
	Kind     types.BCFLAG
	exterior ExteriorFunc
	inviscid bool // no viscous flux through the boundary
}

func NewStateBoundary(kind types.BCFLAG, exterior ExteriorFunc) *StateBoundary {
	return &StateBoundary{Kind: kind, exterior: exterior}
}

// DummyBoundary copies the interior state, letting the interior flux pass through
func DummyBoundary() *StateBoundary {
	return NewStateBoundary(types.BC_Dummy, func(gas eos.GasEOS, fd *FaceData) (fluid.ConservedState, utils.Matrix) {
		return fd.State, fd.Temperature
	})
}

// PrescribedBoundary takes the exterior state from a function of space and time
func PrescribedBoundary(state StateFunc) *StateBoundary {
	return NewStateBoundary(types.BC_Prescribed, func(gas eos.GasEOS, fd *FaceData) (fluid.ConservedState, utils.Matrix) {
		cv := state(fd.Nodes, fd.Time)
		if fd.State.CheckShape(cv) != nil {
			// statePair reports the mismatch, the gas cannot evaluate this state
			return cv, utils.Matrix{}
		}
		return cv, gas.Temperature(cv)
	})
}

// AdiabaticSlipBoundary reflects the normal momentum and passes no viscous
// flux, modeling a frictionless insulated wall
func AdiabaticSlipBoundary() *StateBoundary {
	sb := NewStateBoundary(types.BC_Slip, func(gas eos.GasEOS, fd *FaceData) (fluid.ConservedState, utils.Matrix) {
		var (
			cv = fd.State.Copy()
			mn = fluid.Dot(cv.Momentum, fd.Normal)
		)
		for d := range cv.Momentum {
			cv.Momentum[d].Apply3(mn, fd.Normal[d], func(m, mdotn, n float64) float64 {
				return m - 2*mdotn*n
			})
		}
		return cv, fd.Temperature
	})
	sb.inviscid = true
	return sb
}

// IsothermalNoSlipBoundary reverses the momentum and holds the wall temperature
func IsothermalNoSlipBoundary(wallTemperature float64) *StateBoundary {
	return NewStateBoundary(types.BC_NoSlip, func(gas eos.GasEOS, fd *FaceData) (fluid.ConservedState, utils.Matrix) {
		cv := fd.State.Copy()
		for d := range cv.Momentum {
			cv.Momentum[d].Scale(-1)
		}
		tw := utils.NewMatrixLike(cv.Mass).AddScalar(wallTemperature)
		p := gas.GasConst(cv).ElMul(cv.Mass).ElMul(tw)
		cv.Energy = gas.TotalEnergy(cv, p)
		return cv, tw
	})
}

// PressureOutflowBoundary keeps the interior density, velocity and species
// and imposes the exterior pressure
func PressureOutflowBoundary(pressure float64) *StateBoundary {
	return NewStateBoundary(types.BC_Out, func(gas eos.GasEOS, fd *FaceData) (fluid.ConservedState, utils.Matrix) {
		cv := fd.State.Copy()
		p := utils.NewMatrixLike(cv.Mass).AddScalar(pressure)
		cv.Energy = gas.TotalEnergy(cv, p)
		return cv, gas.Temperature(cv)
	})
}

func (sb *StateBoundary) faceData(discr Discretization, gas eos.GasEOS, tag string, vf *VolumeFields) (fd *FaceData) {
	domain := types.BoundaryDomain(tag)
	fd = &FaceData{
		Domain: domain,
		Normal: discr.Normal(domain),
		Nodes:  restrict(discr, domain, discr.Nodes()),
		Time:   vf.Time,
		State:  restrictState(discr, domain, vf.State),
	}
	if vf.Temperature.IsEmpty() {
		fd.Temperature = gas.Temperature(fd.State)
	} else {
		fd.Temperature = discr.Project(types.VolumeDomain, domain, vf.Temperature)
	}
	return
}

func restrict(discr Discretization, domain types.DomainTag, fields []utils.Matrix) (r []utils.Matrix) {
	r = make([]utils.Matrix, len(fields))
	for i, u := range fields {
		r[i] = discr.Project(types.VolumeDomain, domain, u)
	}
	return
}

func restrictState(discr Discretization, domain types.DomainTag, cv fluid.ConservedState) fluid.ConservedState {
	return cv.Map(func(u utils.Matrix) utils.Matrix {
		return discr.Project(types.VolumeDomain, domain, u)
	})
}

func (sb *StateBoundary) statePair(discr Discretization, gas eos.GasEOS, tag string,
	vf *VolumeFields) (pair fluid.StateTracePair, tPair types.TracePair, err error) {
	fd := sb.faceData(discr, gas, tag, vf)
	cvExt, tExt := sb.exterior(gas, fd)
	if err = fd.State.CheckShape(cvExt); err != nil {
		return
	}
	pair = fluid.StateTracePair{Domain: fd.Domain, Interior: fd.State, Exterior: cvExt}
	tPair = types.NewTracePair(fd.Domain, []utils.Matrix{fd.Temperature}, []utils.Matrix{tExt})
	return
}

func (sb *StateBoundary) InviscidBoundaryFlux(discr Discretization, gas eos.GasEOS, tag string,
	vf *VolumeFields) (fluid.ConservedState, error) {
	pair, _, err := sb.statePair(discr, gas, tag, vf)
	if err != nil {
		return fluid.ConservedState{}, err
	}
	return InviscidFacialFlux(discr, gas, pair, FLUX_LaxFriedrichs)
}

func (sb *StateBoundary) GradientBoundaryFlux(discr Discretization, gas eos.GasEOS, tag string,
	vf *VolumeFields) (fluid.ConservedFlux, error) {
	pair, _, err := sb.statePair(discr, gas, tag, vf)
	if err != nil {
		return fluid.ConservedFlux{}, err
	}
	return GradientFacialFlux(discr, pair)
}

func (sb *StateBoundary) TemperatureBoundaryFlux(discr Discretization, gas eos.GasEOS, tag string,
	vf *VolumeFields) ([]utils.Matrix, error) {
	_, tPair, err := sb.statePair(discr, gas, tag, vf)
	if err != nil {
		return nil, err
	}
	return ScalarFacialFlux(discr, tPair), nil
}

func (sb *StateBoundary) ViscousBoundaryFlux(discr Discretization, gas eos.ViscousEOS, tag string,
	vf *VolumeFields) (fluid.ConservedState, error) {
	pair, tPair, err := sb.statePair(discr, gas, tag, vf)
	if err != nil {
		return fluid.ConservedState{}, err
	}
	if sb.inviscid {
		return fluid.ZerosLike(ToAllFaces(discr, pair.Domain, pair.Interior)), nil
	}
	var (
		domain    = pair.Domain
		gradFaces = vf.Gradient.Map(func(u utils.Matrix) utils.Matrix {
			return discr.Project(types.VolumeDomain, domain, u)
		})
		gradT = restrict(discr, domain, vf.TemperatureGradient)
	)
	gradPair := fluid.FluxTracePair{Domain: domain, Interior: gradFaces, Exterior: gradFaces}
	gradTPair := types.NewTracePair(domain, gradT, gradT)
	return ViscousFacialFlux(discr, gas, pair, gradPair, tPair, gradTPair)
}
