package initializers

import (
	"math"

	"github.com/notargets/dgflux/fluid"
	"github.com/notargets/dgflux/utils"
)

// Initializer is a flow field with a known time derivative, used for
// initial conditions, prescribed boundaries and convergence tests
type Initializer interface {
	State(nodes []utils.Matrix, t float64) fluid.ConservedState
	ExactRHS(nodes []utils.Matrix, t float64) fluid.ConservedState
}

// pointFunc returns mass, energy, momentum and species mass at one point
type pointFunc func(x []float64) (mass, energy float64, mom, species []float64)

func fill(nodes []utils.Matrix, nspecies int, f pointFunc) (cv fluid.ConservedState) {
	var (
		dim = len(nodes)
		x   = make([]float64, dim)
		new = func() utils.Matrix { return utils.NewMatrixLike(nodes[0]) }
	)
	cv.Mass, cv.Energy = new(), new()
	cv.Momentum = make([]utils.Matrix, dim)
	for d := range cv.Momentum {
		cv.Momentum[d] = new()
	}
	cv.SpeciesMass = make([]utils.Matrix, nspecies)
	for s := range cv.SpeciesMass {
		cv.SpeciesMass[s] = new()
	}
	for i := range nodes[0].DataP {
		for d := range x {
			x[d] = nodes[d].DataP[i]
		}
		mass, energy, mom, species := f(x)
		cv.Mass.DataP[i], cv.Energy.DataP[i] = mass, energy
		for d := range mom {
			cv.Momentum[d].DataP[i] = mom[d]
		}
		for s := range species {
			cv.SpeciesMass[s].DataP[i] = species[s]
		}
	}
	return
}

func zeroRHS(nodes []utils.Matrix, nspecies int) fluid.ConservedState {
	return fill(nodes, nspecies, func(x []float64) (float64, float64, []float64, []float64) {
		return 0, 0, nil, nil
	})
}

func dot(a, b []float64) (s float64) {
	for i := range a {
		s += a[i] * b[i]
	}
	return
}

// Uniform is a constant state: mass, total energy, velocity and species mass
// fractions
type Uniform struct {
	Mass, Energy  float64
	Velocity      []float64
	MassFractions []float64
}

func NewUniform(dim int, mass, energy float64, velocity []float64, massFractions ...float64) *Uniform {
	v := make([]float64, dim)
	copy(v, velocity)
	return &Uniform{Mass: mass, Energy: energy, Velocity: v, MassFractions: massFractions}
}

func (u *Uniform) State(nodes []utils.Matrix, t float64) fluid.ConservedState {
	return fill(nodes, len(u.MassFractions), func(x []float64) (float64, float64, []float64, []float64) {
		mom := make([]float64, len(u.Velocity))
		for d := range mom {
			mom[d] = u.Mass * u.Velocity[d]
		}
		species := make([]float64, len(u.MassFractions))
		for s := range species {
			species[s] = u.Mass * u.MassFractions[s]
		}
		return u.Mass, u.Energy, mom, species
	})
}

func (u *Uniform) ExactRHS(nodes []utils.Matrix, t float64) fluid.ConservedState {
	return zeroRHS(nodes, len(u.MassFractions))
}

// Lump is a Gaussian density bump rho0 + A exp(1 - r^2) advected at constant
// velocity through uniform pressure
type Lump struct {
	Rho0, Amplitude, P0, Gamma float64
	Center, Velocity           []float64
}

func NewLump(dim int, gamma float64) *Lump {
	return &Lump{
		Rho0:      1,
		Amplitude: 1,
		P0:        1,
		Gamma:     gamma,
		Center:    make([]float64, dim),
		Velocity:  make([]float64, dim),
	}
}

// offset is x - (center + v t) and the bump A exp(1 - |offset|^2)
func (l *Lump) offset(x []float64, t float64) (dx []float64, bump float64) {
	dx = make([]float64, len(x))
	for d := range x {
		dx[d] = x[d] - l.Center[d] - l.Velocity[d]*t
	}
	return dx, l.Amplitude * math.Exp(1-dot(dx, dx))
}

func (l *Lump) State(nodes []utils.Matrix, t float64) fluid.ConservedState {
	return fill(nodes, 0, func(x []float64) (float64, float64, []float64, []float64) {
		_, bump := l.offset(x, t)
		rho := l.Rho0 + bump
		mom := make([]float64, len(x))
		for d := range mom {
			mom[d] = rho * l.Velocity[d]
		}
		return rho, l.P0/(l.Gamma-1) + 0.5*rho*dot(l.Velocity, l.Velocity), mom, nil
	})
}

// ExactRHS is -v.grad(q): with rho_t = 2 bump (x - c).v, momentum and energy
// follow as v rho_t and |v|^2/2 rho_t
func (l *Lump) ExactRHS(nodes []utils.Matrix, t float64) fluid.ConservedState {
	return fill(nodes, 0, func(x []float64) (float64, float64, []float64, []float64) {
		dx, bump := l.offset(x, t)
		rhoT := 2 * bump * dot(dx, l.Velocity)
		mom := make([]float64, len(x))
		for d := range mom {
			mom[d] = l.Velocity[d] * rhoT
		}
		return rhoT, 0.5 * dot(l.Velocity, l.Velocity) * rhoT, mom, nil
	})
}

// MulticomponentLump advects species mass fraction bumps
// Y_s = Y0_s + A_s exp(-|x - c_s|^2) at constant density, velocity and pressure
type MulticomponentLump struct {
	Rho0, P0, Gamma float64
	Velocity        []float64
	SpeciesY0       []float64
	SpeciesAmp      []float64
	SpeciesCenters  [][]float64
}

func NewMulticomponentLump(dim, nspecies int, gamma float64) *MulticomponentLump {
	ml := &MulticomponentLump{
		Rho0:           1,
		P0:             1,
		Gamma:          gamma,
		Velocity:       make([]float64, dim),
		SpeciesY0:      make([]float64, nspecies),
		SpeciesAmp:     make([]float64, nspecies),
		SpeciesCenters: make([][]float64, nspecies),
	}
	for s := 0; s < nspecies; s++ {
		ml.SpeciesCenters[s] = make([]float64, dim)
		ml.SpeciesY0[s] = 1. / float64(nspecies)
		ml.SpeciesAmp[s] = 1. / float64(s+2)
		// Spread the centers along the first axis
		ml.SpeciesCenters[s][0] = 0.1 * float64(s) / float64(nspecies)
	}
	return ml
}

func (ml *MulticomponentLump) bump(s int, x []float64, t float64) (dx []float64, b float64) {
	dx = make([]float64, len(x))
	for d := range x {
		dx[d] = x[d] - ml.SpeciesCenters[s][d] - ml.Velocity[d]*t
	}
	return dx, ml.SpeciesAmp[s] * math.Exp(-dot(dx, dx))
}

func (ml *MulticomponentLump) State(nodes []utils.Matrix, t float64) fluid.ConservedState {
	ns := len(ml.SpeciesY0)
	return fill(nodes, ns, func(x []float64) (float64, float64, []float64, []float64) {
		mom := make([]float64, len(x))
		for d := range mom {
			mom[d] = ml.Rho0 * ml.Velocity[d]
		}
		species := make([]float64, ns)
		for s := range species {
			_, b := ml.bump(s, x, t)
			species[s] = ml.Rho0 * (ml.SpeciesY0[s] + b)
		}
		energy := ml.P0/(ml.Gamma-1) + 0.5*ml.Rho0*dot(ml.Velocity, ml.Velocity)
		return ml.Rho0, energy, mom, species
	})
}

// ExactRHS is zero but for the species, rho0 2 bump_s (x - c_s).v
func (ml *MulticomponentLump) ExactRHS(nodes []utils.Matrix, t float64) fluid.ConservedState {
	ns := len(ml.SpeciesY0)
	return fill(nodes, ns, func(x []float64) (float64, float64, []float64, []float64) {
		species := make([]float64, ns)
		for s := range species {
			dx, b := ml.bump(s, x, t)
			species[s] = ml.Rho0 * 2 * b * dot(dx, ml.Velocity)
		}
		return 0, 0, nil, species
	})
}
