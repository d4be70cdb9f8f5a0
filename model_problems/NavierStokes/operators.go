package NavierStokes

import (
	"errors"
	"fmt"

	"github.com/notargets/dgflux/eos"
	"github.com/notargets/dgflux/fluid"
	"github.com/notargets/dgflux/types"
	"github.com/notargets/dgflux/utils"
)

var (
	ErrUnknownBoundaryTag = errors.New("unknown boundary tag")
	ErrConfiguration      = errors.New("operator configuration")
)

func shapeMismatch(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{fluid.ErrShapeMismatch}, args...)...)
}

// RHSFunc evaluates dq/dt for the state q at time t
type RHSFunc func(t float64, cv fluid.ConservedState) (fluid.ConservedState, error)

// CheckBoundaries fails when a tag of the mesh has no boundary condition.
// It consults the tags of the whole mesh so that every partition fails alike.
func CheckBoundaries(discr Discretization, boundaries map[string]BoundaryCondition) error {
	for _, tag := range discr.MeshBoundaryTags() {
		if bc, present := boundaries[tag]; !present || bc == nil {
			return fmt.Errorf("%w: %q has no boundary condition", ErrUnknownBoundaryTag, tag)
		}
	}
	return nil
}

func checkState(discr Discretization, gas eos.GasEOS, cv fluid.ConservedState) error {
	if cv.Dim() != discr.Dim() {
		return shapeMismatch("state dimension %d on a %d dimensional discretization", cv.Dim(), discr.Dim())
	}
	var (
		nr, nc   = cv.Mass.Dims()
		wnr, wnc = discr.Zeros().Dims()
	)
	if nr != wnr || nc != wnc {
		return shapeMismatch("state fields are %dx%d, discretization fields are %dx%d", nr, nc, wnr, wnc)
	}
	return gas.Validate(cv)
}

// statePairs are the interior pair followed by one pair per neighbor partition
func statePairs(discr Discretization, cv fluid.ConservedState) (pairs []fluid.StateTracePair, err error) {
	var tps []types.TracePair
	if tps, err = fieldPairs(discr, cv.Join()); err != nil {
		return
	}
	pairs = make([]fluid.StateTracePair, len(tps))
	for i, tp := range tps {
		if pairs[i], err = fluid.NewStateTracePair(cv.Dim(), tp); err != nil {
			return
		}
	}
	return
}

func fieldPairs(discr Discretization, fields []utils.Matrix) (tps []types.TracePair, err error) {
	var cross []types.TracePair
	if cross, err = discr.CrossPartitionTracePairs(fields); err != nil {
		return
	}
	tps = append([]types.TracePair{discr.InteriorTracePair(fields)}, cross...)
	return
}

func zeroFaceState(discr Discretization, cv fluid.ConservedState) fluid.ConservedState {
	return cv.Map(func(utils.Matrix) utils.Matrix { return allFacesZeros(discr) })
}

// boundaryInviscidFlux sums the inviscid flux over the local boundary faces.
// It needs only local data, so the operators evaluate it before any exchange
// and a bad boundary fails before the partitions start waiting on each other.
func boundaryInviscidFlux(discr Discretization, gas eos.GasEOS, boundaries map[string]BoundaryCondition,
	vf *VolumeFields) (total fluid.ConservedState, err error) {
	var fn fluid.ConservedState
	total = zeroFaceState(discr, vf.State)
	for _, tag := range discr.BoundaryTags() {
		if fn, err = boundaries[tag].InviscidBoundaryFlux(discr, gas, tag, vf); err != nil {
			return
		}
		if total, err = total.Add(fn); err != nil {
			return
		}
	}
	return
}

// inviscidFaceFlux adds the numerical inviscid flux over interior and
// partition faces to the boundary flux
func inviscidFaceFlux(discr Discretization, gas eos.GasEOS, pairs []fluid.StateTracePair,
	boundary fluid.ConservedState, ft FluxType) (total fluid.ConservedState, err error) {
	var fn fluid.ConservedState
	total = boundary
	for _, pair := range pairs {
		if fn, err = InviscidFacialFlux(discr, gas, pair, ft); err != nil {
			return
		}
		if total, err = total.Add(fn); err != nil {
			return
		}
	}
	return
}

// EulerOperator is the RHS of dq/dt + div(F_I) = 0 with the Lax-Friedrichs flux:
// M^-1 (weak_div(F_I) - face_mass(F_I*))
func EulerOperator(discr Discretization, gas eos.GasEOS, boundaries map[string]BoundaryCondition,
	cv fluid.ConservedState, t float64) (fluid.ConservedState, error) {
	return EulerOperatorFlux(discr, gas, boundaries, cv, t, FLUX_LaxFriedrichs)
}

func EulerOperatorFlux(discr Discretization, gas eos.GasEOS, boundaries map[string]BoundaryCondition,
	cv fluid.ConservedState, t float64, ft FluxType) (rhs fluid.ConservedState, err error) {
	if err = CheckBoundaries(discr, boundaries); err != nil {
		return
	}
	if err = checkState(discr, gas, cv); err != nil {
		return
	}
	var (
		pairs            []fluid.StateTracePair
		bcFlux, faceFlux fluid.ConservedState
		vf               = &VolumeFields{State: cv, Time: t}
	)
	if bcFlux, err = boundaryInviscidFlux(discr, gas, boundaries, vf); err != nil {
		return
	}
	if pairs, err = statePairs(discr, cv); err != nil {
		return
	}
	if faceFlux, err = inviscidFaceFlux(discr, gas, pairs, bcFlux, ft); err != nil {
		return
	}
	return Divergence(discr, InviscidFlux(cv, gas.Pressure(cv)), faceFlux)
}

// NSOperator is the RHS of dq/dt = div(F_V - F_I). The state and temperature
// gradients are recovered with central fluxes first, then the viscous and
// inviscid fluxes are combined and differentiated together:
// -M^-1 (weak_div(F_V - F_I) - face_mass(F_V* - F_I*))
// Divergence returns -div of its flux, so the result is negated once more to
// give +div(F_V - F_I). With zero transport this is the Euler operator.
func NSOperator(discr Discretization, gas eos.ViscousEOS, boundaries map[string]BoundaryCondition,
	cv fluid.ConservedState, t float64) (fluid.ConservedState, error) {
	return NSOperatorFlux(discr, gas, boundaries, cv, t, FLUX_LaxFriedrichs)
}

func NSOperatorFlux(discr Discretization, gas eos.ViscousEOS, boundaries map[string]BoundaryCondition,
	cv fluid.ConservedState, t float64, ft FluxType) (rhs fluid.ConservedState, err error) {
	if err = CheckBoundaries(discr, boundaries); err != nil {
		return
	}
	if gas.Transport() == nil {
		err = fmt.Errorf("%w: the Navier-Stokes operator needs a transport model", ErrConfiguration)
		return
	}
	if err = checkState(discr, gas, cv); err != nil {
		return
	}
	var (
		dim      = cv.Dim()
		localBCs = discr.BoundaryTags()
		vf       = &VolumeFields{State: cv, Time: t}
		gradFlux = fluid.ZeroFluxLike(zeroFaceState(discr, cv))
		invBCs   fluid.ConservedState
		pairs    []fluid.StateTracePair
	)
	// Local boundary fluxes first, so a bad boundary fails before the
	// first exchange
	for _, tag := range localBCs {
		var f fluid.ConservedFlux
		if f, err = boundaries[tag].GradientBoundaryFlux(discr, gas, tag, vf); err != nil {
			return
		}
		if gradFlux, err = gradFlux.Add(f); err != nil {
			return
		}
	}
	if invBCs, err = boundaryInviscidFlux(discr, gas, boundaries, vf); err != nil {
		return
	}
	if pairs, err = statePairs(discr, cv); err != nil {
		return
	}

	// Gradient of the conserved state
	for _, pair := range pairs {
		var f fluid.ConservedFlux
		if f, err = GradientFacialFlux(discr, pair); err != nil {
			return
		}
		if gradFlux, err = gradFlux.Add(f); err != nil {
			return
		}
	}
	if vf.Gradient, err = StateGradient(discr, cv, gradFlux); err != nil {
		return
	}

	// Gradient of the temperature
	vf.Temperature = gas.Temperature(cv)
	var tPairs []types.TracePair
	if tPairs, err = fieldPairs(discr, []utils.Matrix{vf.Temperature}); err != nil {
		return
	}
	tFlux := make([]utils.Matrix, dim)
	for d := range tFlux {
		tFlux[d] = allFacesZeros(discr)
	}
	for _, tp := range tPairs {
		addVectors(tFlux, ScalarFacialFlux(discr, tp))
	}
	for _, tag := range localBCs {
		var f []utils.Matrix
		if f, err = boundaries[tag].TemperatureBoundaryFlux(discr, gas, tag, vf); err != nil {
			return
		}
		addVectors(tFlux, f)
	}
	vf.TemperatureGradient = Gradient(discr, vf.Temperature, tFlux)

	// Inviscid and viscous face fluxes
	var (
		invFaces, viscFaces   fluid.ConservedState
		gradPairs, gradTPairs []types.TracePair
	)
	if invFaces, err = inviscidFaceFlux(discr, gas, pairs, invBCs, ft); err != nil {
		return
	}
	if gradPairs, err = fieldPairs(discr, vf.Gradient.Join()); err != nil {
		return
	}
	if gradTPairs, err = fieldPairs(discr, vf.TemperatureGradient); err != nil {
		return
	}
	viscFaces = zeroFaceState(discr, cv)
	for i, pair := range pairs {
		var (
			gp fluid.FluxTracePair
			fn fluid.ConservedState
		)
		if gp, err = fluid.NewFluxTracePair(dim, gradPairs[i]); err != nil {
			return
		}
		if fn, err = ViscousFacialFlux(discr, gas, pair, gp, tPairs[i], gradTPairs[i]); err != nil {
			return
		}
		if viscFaces, err = viscFaces.Add(fn); err != nil {
			return
		}
	}
	for _, tag := range localBCs {
		var fn fluid.ConservedState
		if fn, err = boundaries[tag].ViscousBoundaryFlux(discr, gas, tag, vf); err != nil {
			return
		}
		if viscFaces, err = viscFaces.Add(fn); err != nil {
			return
		}
	}

	// Volume fluxes, combined only now
	var (
		visc, volFlux fluid.ConservedFlux
		faceFlux      fluid.ConservedState
	)
	if visc, err = ViscousFlux(gas, cv, vf.Gradient, vf.Temperature, vf.TemperatureGradient); err != nil {
		return
	}
	if volFlux, err = visc.Sub(InviscidFlux(cv, gas.Pressure(cv))); err != nil {
		return
	}
	if faceFlux, err = viscFaces.Sub(invFaces); err != nil {
		return
	}
	if rhs, err = Divergence(discr, volFlux, faceFlux); err != nil {
		return
	}
	return rhs.Scale(-1), nil
}

func addVectors(acc, v []utils.Matrix) {
	for d := range acc {
		acc[d].Add(v[d])
	}
}

// NewEulerRHS binds the Euler operator to a discretization
func NewEulerRHS(discr Discretization, gas eos.GasEOS, boundaries map[string]BoundaryCondition, ft FluxType) RHSFunc {
	return func(t float64, cv fluid.ConservedState) (fluid.ConservedState, error) {
		return EulerOperatorFlux(discr, gas, boundaries, cv, t, ft)
	}
}

func NewNSRHS(discr Discretization, gas eos.ViscousEOS, boundaries map[string]BoundaryCondition, ft FluxType) RHSFunc {
	return func(t float64, cv fluid.ConservedState) (fluid.ConservedState, error) {
		return NSOperatorFlux(discr, gas, boundaries, cv, t, ft)
	}
}
