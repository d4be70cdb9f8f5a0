package eos

import (
	"fmt"
	"math"

	"github.com/notargets/dgflux/fluid"
	"github.com/notargets/dgflux/utils"
)

// GasEOS maps a conserved state to thermodynamic fields pointwise. Negative or
// NaN results are returned as is; callers detect blow-up through norms.
type GasEOS interface {
	Pressure(cv fluid.ConservedState) utils.Matrix
	Temperature(cv fluid.ConservedState) utils.Matrix
	SoundSpeed(cv fluid.ConservedState) utils.Matrix
	Gamma(cv fluid.ConservedState) utils.Matrix
	GasConst(cv fluid.ConservedState) utils.Matrix
	InternalEnergy(cv fluid.ConservedState) utils.Matrix
	// TotalEnergy of cv's mass and momentum at the given pressure
	TotalEnergy(cv fluid.ConservedState, pressure utils.Matrix) utils.Matrix
	// Validate checks that cv carries the species this EOS expects
	Validate(cv fluid.ConservedState) error
}

// ViscousEOS adds transport properties and species enthalpies for the
// Navier-Stokes operator
type ViscousEOS interface {
	GasEOS
	Transport() TransportModel
	SpeciesEnthalpies(cv fluid.ConservedState, temperature utils.Matrix) []utils.Matrix
}

func kineticEnergy(cv fluid.ConservedState) (ke utils.Matrix) {
	ke = utils.NewMatrixLike(cv.Mass)
	for _, mom := range cv.Momentum {
		ke.Apply2(mom, func(acc, m float64) float64 { return acc + m*m })
	}
	return ke.ElDiv(cv.Mass).Scale(0.5)
}

// IdealSingleGas is a calorically perfect gas. Species, when present, are
// passive scalars that carry no enthalpy of their own.
type IdealSingleGas struct {
	gamma, gasConst float64
	transport       TransportModel
}

func NewIdealSingleGas(gamma, gasConst float64, transport ...TransportModel) (gas *IdealSingleGas) {
	if gamma <= 1 || gasConst <= 0 {
		panic(fmt.Errorf("invalid ideal gas parameters gamma = %v, R = %v", gamma, gasConst))
	}
	gas = &IdealSingleGas{
		gamma:    gamma,
		gasConst: gasConst,
	}
	if len(transport) != 0 {
		gas.transport = transport[0]
	}
	return
}

func (gas *IdealSingleGas) GammaValue() float64    { return gas.gamma }
func (gas *IdealSingleGas) GasConstValue() float64 { return gas.gasConst }
func (gas *IdealSingleGas) Cv() float64            { return gas.gasConst / (gas.gamma - 1) }
func (gas *IdealSingleGas) Cp() float64            { return gas.gamma * gas.Cv() }

func (gas *IdealSingleGas) Gamma(cv fluid.ConservedState) utils.Matrix {
	return utils.NewMatrixLike(cv.Mass).AddScalar(gas.gamma)
}

func (gas *IdealSingleGas) GasConst(cv fluid.ConservedState) utils.Matrix {
	return utils.NewMatrixLike(cv.Mass).AddScalar(gas.gasConst)
}

func (gas *IdealSingleGas) InternalEnergy(cv fluid.ConservedState) utils.Matrix {
	return cv.Energy.Copy().Subtract(kineticEnergy(cv))
}

// Pressure is (gamma-1)*(energy - 0.5*|momentum|^2/mass)
func (gas *IdealSingleGas) Pressure(cv fluid.ConservedState) utils.Matrix {
	return gas.InternalEnergy(cv).Scale(gas.gamma - 1)
}

func (gas *IdealSingleGas) Temperature(cv fluid.ConservedState) utils.Matrix {
	return gas.Pressure(cv).ElDiv(cv.Mass).Scale(1. / gas.gasConst)
}

func (gas *IdealSingleGas) SoundSpeed(cv fluid.ConservedState) utils.Matrix {
	return gas.Pressure(cv).ElDiv(cv.Mass).Apply(func(pOverRho float64) float64 {
		return math.Sqrt(gas.gamma * pOverRho)
	})
}

func (gas *IdealSingleGas) TotalEnergy(cv fluid.ConservedState, pressure utils.Matrix) utils.Matrix {
	return pressure.Copy().Scale(1. / (gas.gamma - 1)).Add(kineticEnergy(cv))
}

func (gas *IdealSingleGas) Validate(cv fluid.ConservedState) error { return nil }

func (gas *IdealSingleGas) Transport() TransportModel { return gas.transport }

func (gas *IdealSingleGas) SpeciesEnthalpies(cv fluid.ConservedState, temperature utils.Matrix) (h []utils.Matrix) {
	h = make([]utils.Matrix, cv.NSpecies())
	for i := range h {
		h[i] = utils.NewMatrixLike(cv.Mass)
	}
	return
}
