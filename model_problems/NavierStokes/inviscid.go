package NavierStokes

import (
	"fmt"
	"math"
	"strings"

	"github.com/notargets/dgflux/eos"
	"github.com/notargets/dgflux/fluid"
	"github.com/notargets/dgflux/types"
	"github.com/notargets/dgflux/utils"
)

type FluxType uint

const (
	FLUX_LaxFriedrichs FluxType = iota
	FLUX_Central
)

var (
	FluxNames = map[string]FluxType{
		"lax":     FLUX_LaxFriedrichs,
		"central": FLUX_Central,
	}
	FluxPrintNames = []string{"Lax Friedrichs", "Central"}
)

func (ft FluxType) Print() (txt string) {
	txt = FluxPrintNames[ft]
	return
}

func NewFluxType(label string) (ft FluxType) {
	var (
		ok  bool
		err error
	)
	label = strings.ToLower(label)
	if ft, ok = FluxNames[label]; !ok {
		err = fmt.Errorf("unable to use flux named %s", label)
		panic(err)
	}
	return
}

// InviscidFlux is the Euler flux tensor:
// [mom, (E+p)v, mom (x) v + pI, rhoY v]
func InviscidFlux(cv fluid.ConservedState, pressure utils.Matrix) (f fluid.ConservedFlux) {
	var (
		dim = cv.Dim()
		v   = cv.Velocity()
	)
	f.Mass = make([]utils.Matrix, dim)
	for d := range f.Mass {
		f.Mass[d] = cv.Momentum[d].Copy()
	}
	f.Energy = fluid.ScaleVector(v, cv.Energy.Copy().Add(pressure))
	f.Momentum = make([][]utils.Matrix, dim)
	for i := range f.Momentum {
		f.Momentum[i] = fluid.ScaleVector(v, cv.Momentum[i])
		f.Momentum[i][i].Add(pressure)
	}
	f.SpeciesMass = make([][]utils.Matrix, cv.NSpecies())
	for s, sm := range cv.SpeciesMass {
		f.SpeciesMass[s] = fluid.ScaleVector(v, sm)
	}
	return
}

// MaxWaveSpeed is |v.n| + c, the fastest characteristic normal to the face
func MaxWaveSpeed(gas eos.GasEOS, cv fluid.ConservedState, normal []utils.Matrix) utils.Matrix {
	vn := fluid.Dot(cv.Velocity(), normal)
	return vn.Apply2(gas.SoundSpeed(cv), func(v, c float64) float64 { return math.Abs(v) + c })
}

// LaxFriedrichsFlux is avg(F).n + lambda/2 (q_int - q_ext), lambda the
// pointwise larger wave speed of the two sides
func LaxFriedrichsFlux(gas eos.GasEOS, pair fluid.StateTracePair, normal []utils.Matrix) (fn fluid.ConservedState, err error) {
	if fn, err = CentralFlux(gas, pair, normal); err != nil {
		return
	}
	var (
		lamInt = MaxWaveSpeed(gas, pair.Interior, normal)
		lamExt = MaxWaveSpeed(gas, pair.Exterior, normal)
		lam    = lamInt.Apply2(lamExt, math.Max).Scale(0.5)
		jump   = pair.Jump()
	)
	// jump is q_ext - q_int
	return fn.Sub(jump.Map(func(m utils.Matrix) utils.Matrix { return m.Copy().ElMul(lam) }))
}

// CentralFlux is avg(F).n, without dissipation
func CentralFlux(gas eos.GasEOS, pair fluid.StateTracePair, normal []utils.Matrix) (fn fluid.ConservedState, err error) {
	var (
		fInt = InviscidFlux(pair.Interior, gas.Pressure(pair.Interior))
		fExt = InviscidFlux(pair.Exterior, gas.Pressure(pair.Exterior))
		avg  fluid.ConservedFlux
	)
	if avg, err = fInt.Add(fExt); err != nil {
		return
	}
	return avg.Scale(0.5).Dot(normal)
}

// InviscidFacialFlux evaluates the numerical flux on the faces of the pair
// and extends it to all faces
func InviscidFacialFlux(discr Discretization, gas eos.GasEOS, pair fluid.StateTracePair,
	ft FluxType) (fluid.ConservedState, error) {
	fn, err := InviscidFaceFlux(discr, gas, pair, ft)
	if err != nil {
		return fluid.ConservedState{}, err
	}
	return ToAllFaces(discr, pair.Domain, fn), nil
}

// InviscidFaceFlux is the numerical flux on the pair's own face set
func InviscidFaceFlux(discr Discretization, gas eos.GasEOS, pair fluid.StateTracePair,
	ft FluxType) (fluid.ConservedState, error) {
	normal := discr.Normal(pair.Domain)
	switch ft {
	case FLUX_Central:
		return CentralFlux(gas, pair, normal)
	default:
		return LaxFriedrichsFlux(gas, pair, normal)
	}
}

// ToAllFaces extends every field of a face state to the all faces domain
func ToAllFaces(discr Discretization, domain types.DomainTag, cv fluid.ConservedState) fluid.ConservedState {
	return cv.Map(func(u utils.Matrix) utils.Matrix {
		return discr.Project(domain, types.AllFacesDomain, u)
	})
}
