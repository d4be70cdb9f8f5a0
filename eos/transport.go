package eos

import (
	"math"

	"github.com/notargets/dgflux/fluid"
	"github.com/notargets/dgflux/utils"
)

// TransportModel supplies the diffusion coefficients of the viscous terms
type TransportModel interface {
	Viscosity(cv fluid.ConservedState, temperature utils.Matrix) utils.Matrix
	BulkViscosity(cv fluid.ConservedState, temperature utils.Matrix) utils.Matrix
	ThermalConductivity(cv fluid.ConservedState, temperature utils.Matrix) utils.Matrix
	SpeciesDiffusivity(cv fluid.ConservedState, temperature utils.Matrix) []utils.Matrix
}

// SimpleTransport has constant coefficients
type SimpleTransport struct {
	Mu, MuBulk, Kappa float64
	Diffusivity       []float64 // one per species
}

func constField(like utils.Matrix, val float64) utils.Matrix {
	return utils.NewMatrixLike(like).AddScalar(val)
}

func speciesCoefficient(coeffs []float64, i int) float64 {
	switch {
	case len(coeffs) == 0:
		return 0
	case i < len(coeffs):
		return coeffs[i]
	default:
		return coeffs[len(coeffs)-1]
	}
}

func (st SimpleTransport) Viscosity(cv fluid.ConservedState, temperature utils.Matrix) utils.Matrix {
	return constField(cv.Mass, st.Mu)
}

func (st SimpleTransport) BulkViscosity(cv fluid.ConservedState, temperature utils.Matrix) utils.Matrix {
	return constField(cv.Mass, st.MuBulk)
}

func (st SimpleTransport) ThermalConductivity(cv fluid.ConservedState, temperature utils.Matrix) utils.Matrix {
	return constField(cv.Mass, st.Kappa)
}

// SpeciesDiffusivity repeats the last supplied value for any remaining species
func (st SimpleTransport) SpeciesDiffusivity(cv fluid.ConservedState, temperature utils.Matrix) (d []utils.Matrix) {
	d = make([]utils.Matrix, cv.NSpecies())
	for i := range d {
		d[i] = constField(cv.Mass, speciesCoefficient(st.Diffusivity, i))
	}
	return
}

// PowerLawTransport: mu = Beta*T^N, mu_B = Alpha*mu, kappa = Sigma*mu*cv
type PowerLawTransport struct {
	Alpha, Beta, Sigma, N float64
	Cv                    float64 // specific heat at constant volume
	Diffusivity           []float64
}

// NewPowerLawTransport uses air-like defaults for the exponent and prefactors
func NewPowerLawTransport(cvHeat float64, diffusivity ...float64) PowerLawTransport {
	return PowerLawTransport{
		Alpha:       0.6,
		Beta:        4.093e-7,
		Sigma:       2.5,
		N:           0.75,
		Cv:          cvHeat,
		Diffusivity: diffusivity,
	}
}

func (pl PowerLawTransport) Viscosity(cv fluid.ConservedState, temperature utils.Matrix) utils.Matrix {
	return temperature.Copy().Apply(func(T float64) float64 { return pl.Beta * math.Pow(T, pl.N) })
}

func (pl PowerLawTransport) BulkViscosity(cv fluid.ConservedState, temperature utils.Matrix) utils.Matrix {
	return pl.Viscosity(cv, temperature).Scale(pl.Alpha)
}

func (pl PowerLawTransport) ThermalConductivity(cv fluid.ConservedState, temperature utils.Matrix) utils.Matrix {
	return pl.Viscosity(cv, temperature).Scale(pl.Sigma * pl.Cv)
}

func (pl PowerLawTransport) SpeciesDiffusivity(cv fluid.ConservedState, temperature utils.Matrix) (d []utils.Matrix) {
	d = make([]utils.Matrix, cv.NSpecies())
	for i := range d {
		d[i] = constField(cv.Mass, speciesCoefficient(pl.Diffusivity, i))
	}
	return
}
