package eos

import (
	"fmt"
	"math"

	"github.com/notargets/dgflux/fluid"
	"github.com/notargets/dgflux/utils"
)

const UniversalGasConstant = 8314.46261815324 // J/(kmol K)

// IdealMixture is a mixture of calorically perfect species. Gas constant and
// heat capacity are mass fraction weighted averages, with mass fractions taken
// as species_mass/mass without normalization.
type IdealMixture struct {
	molWeights, gammas []float64
	rSpecies, cvSpecies []float64
	transport           TransportModel
}

func NewIdealMixture(molWeights, gammas []float64, transport ...TransportModel) (mix *IdealMixture) {
	if len(molWeights) == 0 || len(molWeights) != len(gammas) {
		panic(fmt.Errorf("mixture needs one molecular weight and gamma per species, have %d and %d",
			len(molWeights), len(gammas)))
	}
	mix = &IdealMixture{
		molWeights: molWeights,
		gammas:     gammas,
		rSpecies:   make([]float64, len(molWeights)),
		cvSpecies:  make([]float64, len(molWeights)),
	}
	for i, w := range molWeights {
		if w <= 0 || gammas[i] <= 1 {
			panic(fmt.Errorf("species %d: invalid molecular weight %v or gamma %v", i, w, gammas[i]))
		}
		mix.rSpecies[i] = UniversalGasConstant / w
		mix.cvSpecies[i] = mix.rSpecies[i] / (gammas[i] - 1)
	}
	if len(transport) != 0 {
		mix.transport = transport[0]
	}
	return
}

func (mix *IdealMixture) NumSpecies() int { return len(mix.molWeights) }

func (mix *IdealMixture) Validate(cv fluid.ConservedState) error {
	if cv.NSpecies() != len(mix.molWeights) {
		return fmt.Errorf("%w: mixture has %d species, state carries %d",
			fluid.ErrShapeMismatch, len(mix.molWeights), cv.NSpecies())
	}
	return nil
}

func (mix *IdealMixture) average(cv fluid.ConservedState, perSpecies []float64) (avg utils.Matrix) {
	avg = utils.NewMatrixLike(cv.Mass)
	for i, sm := range cv.SpeciesMass {
		avg.AddScaled(perSpecies[i], sm)
	}
	return avg.ElDiv(cv.Mass)
}

func (mix *IdealMixture) GasConst(cv fluid.ConservedState) utils.Matrix {
	return mix.average(cv, mix.rSpecies)
}

func (mix *IdealMixture) HeatCapacityCv(cv fluid.ConservedState) utils.Matrix {
	return mix.average(cv, mix.cvSpecies)
}

// Gamma is (cv + R)/cv of the mixture
func (mix *IdealMixture) Gamma(cv fluid.ConservedState) utils.Matrix {
	return mix.GasConst(cv).ElDiv(mix.HeatCapacityCv(cv)).AddScalar(1)
}

func (mix *IdealMixture) InternalEnergy(cv fluid.ConservedState) utils.Matrix {
	return cv.Energy.Copy().Subtract(kineticEnergy(cv))
}

func (mix *IdealMixture) Pressure(cv fluid.ConservedState) utils.Matrix {
	return mix.InternalEnergy(cv).ElMul(mix.Gamma(cv).AddScalar(-1))
}

func (mix *IdealMixture) Temperature(cv fluid.ConservedState) utils.Matrix {
	return mix.InternalEnergy(cv).ElDiv(cv.Mass).ElDiv(mix.HeatCapacityCv(cv))
}

func (mix *IdealMixture) SoundSpeed(cv fluid.ConservedState) utils.Matrix {
	return mix.Pressure(cv).ElMul(mix.Gamma(cv)).ElDiv(cv.Mass).Apply(math.Sqrt)
}

func (mix *IdealMixture) TotalEnergy(cv fluid.ConservedState, pressure utils.Matrix) utils.Matrix {
	return pressure.Copy().ElDiv(mix.Gamma(cv).AddScalar(-1)).Add(kineticEnergy(cv))
}

func (mix *IdealMixture) Transport() TransportModel { return mix.transport }

// SpeciesEnthalpies are cp_a*T
func (mix *IdealMixture) SpeciesEnthalpies(cv fluid.ConservedState, temperature utils.Matrix) (h []utils.Matrix) {
	h = make([]utils.Matrix, cv.NSpecies())
	for i := range h {
		h[i] = temperature.Copy().Scale(mix.gammas[i] * mix.cvSpecies[i])
	}
	return
}
