package fluid

import (
	"errors"
	"fmt"

	"github.com/notargets/dgflux/utils"
)

// ErrShapeMismatch reports a dimension or species count inconsistency
var ErrShapeMismatch = errors.New("shape mismatch")

func shapeError(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrShapeMismatch}, args...)...)
}

// ConservedState is the named view of the conserved variables, in order
// mass, energy, momentum[dim], species_mass[nspecies].
type ConservedState struct {
	Mass, Energy utils.Matrix
	Momentum     []utils.Matrix
	SpeciesMass  []utils.Matrix
}

func (cv ConservedState) Dim() int          { return len(cv.Momentum) }
func (cv ConservedState) NSpecies() int     { return len(cv.SpeciesMass) }
func (cv ConservedState) NumEquations() int { return cv.Dim() + 2 + cv.NSpecies() }

// Split interprets a flat field array of length dim+2+nspecies
func Split(dim int, fields []utils.Matrix) (cv ConservedState, err error) {
	if dim < 1 {
		err = shapeError("dimension must be at least 1, have %d", dim)
		return
	}
	if len(fields) < dim+2 {
		err = shapeError("%d fields cannot hold a %d dimensional state", len(fields), dim)
		return
	}
	if err = checkFieldDims(fields); err != nil {
		return
	}
	cv = ConservedState{
		Mass:        fields[0],
		Energy:      fields[1],
		Momentum:    fields[2 : 2+dim : 2+dim],
		SpeciesMass: fields[2+dim:],
	}
	return
}

// Join returns the flat field array, sharing storage with cv
func (cv ConservedState) Join() (fields []utils.Matrix) {
	fields = make([]utils.Matrix, 0, cv.NumEquations())
	fields = append(fields, cv.Mass, cv.Energy)
	fields = append(fields, cv.Momentum...)
	fields = append(fields, cv.SpeciesMass...)
	return
}

func Make(dim int, mass, energy utils.Matrix, momentum []utils.Matrix,
	speciesMass ...utils.Matrix) (cv ConservedState, err error) {
	if len(momentum) != dim {
		err = shapeError("momentum has %d components, dimension is %d", len(momentum), dim)
		return
	}
	cv = ConservedState{
		Mass:        mass,
		Energy:      energy,
		Momentum:    momentum,
		SpeciesMass: speciesMass,
	}
	if dim < 1 {
		err = shapeError("dimension must be at least 1, have %d", dim)
		return
	}
	err = checkFieldDims(cv.Join())
	return
}

func checkFieldDims(fields []utils.Matrix) error {
	if len(fields) == 0 {
		return nil
	}
	nr, nc := fields[0].Dims()
	for i, f := range fields[1:] {
		if r, c := f.Dims(); r != nr || c != nc {
			return shapeError("field %d is %dx%d, field 0 is %dx%d", i+1, r, c, nr, nc)
		}
	}
	return nil
}

// CheckShape verifies that o has the same dimension, species count and field shape
func (cv ConservedState) CheckShape(o ConservedState) error {
	if cv.Dim() != o.Dim() || cv.NSpecies() != o.NSpecies() {
		return shapeError("dim/nspecies %d/%d versus %d/%d", cv.Dim(), cv.NSpecies(), o.Dim(), o.NSpecies())
	}
	nr, nc := cv.Mass.Dims()
	if r, c := o.Mass.Dims(); r != nr || c != nc {
		return shapeError("fields are %dx%d versus %dx%d", nr, nc, r, c)
	}
	return nil
}

// Map applies f to every field and returns the resulting state
func (cv ConservedState) Map(f func(utils.Matrix) utils.Matrix) ConservedState {
	return ConservedState{
		Mass:        f(cv.Mass),
		Energy:      f(cv.Energy),
		Momentum:    mapFields(cv.Momentum, f),
		SpeciesMass: mapFields(cv.SpeciesMass, f),
	}
}

func mapFields(fields []utils.Matrix, f func(utils.Matrix) utils.Matrix) (r []utils.Matrix) {
	r = make([]utils.Matrix, len(fields))
	for i, fld := range fields {
		r[i] = f(fld)
	}
	return
}

func (cv ConservedState) Copy() ConservedState {
	return cv.Map(utils.Matrix.Copy)
}

// ZerosLike returns a zero state with the shape of cv
func ZerosLike(cv ConservedState) ConservedState {
	return cv.Map(utils.NewMatrixLike)
}

func (cv ConservedState) combine(o ConservedState, f func(a, b utils.Matrix) utils.Matrix) (r ConservedState, err error) {
	if err = cv.CheckShape(o); err != nil {
		return
	}
	r = ConservedState{
		Mass:        f(cv.Mass, o.Mass),
		Energy:      f(cv.Energy, o.Energy),
		Momentum:    make([]utils.Matrix, cv.Dim()),
		SpeciesMass: make([]utils.Matrix, cv.NSpecies()),
	}
	for i := range cv.Momentum {
		r.Momentum[i] = f(cv.Momentum[i], o.Momentum[i])
	}
	for i := range cv.SpeciesMass {
		r.SpeciesMass[i] = f(cv.SpeciesMass[i], o.SpeciesMass[i])
	}
	return
}

func (cv ConservedState) Add(o ConservedState) (ConservedState, error) {
	return cv.combine(o, func(a, b utils.Matrix) utils.Matrix { return a.Copy().Add(b) })
}

func (cv ConservedState) Sub(o ConservedState) (ConservedState, error) {
	return cv.combine(o, func(a, b utils.Matrix) utils.Matrix { return a.Copy().Subtract(b) })
}

// AddScaled returns cv + a*o
func (cv ConservedState) AddScaled(a float64, o ConservedState) (ConservedState, error) {
	return cv.combine(o, func(x, y utils.Matrix) utils.Matrix { return x.Copy().AddScaled(a, y) })
}

func (cv ConservedState) Scale(a float64) ConservedState {
	return cv.Map(func(m utils.Matrix) utils.Matrix { return m.Copy().Scale(a) })
}

func (cv ConservedState) Velocity() (v []utils.Matrix) {
	v = make([]utils.Matrix, cv.Dim())
	for i, mom := range cv.Momentum {
		v[i] = mom.Copy().ElDiv(cv.Mass)
	}
	return
}

// MassFractions are species_mass / mass
func (cv ConservedState) MassFractions() (y []utils.Matrix) {
	y = make([]utils.Matrix, cv.NSpecies())
	for i, sm := range cv.SpeciesMass {
		y[i] = sm.Copy().ElDiv(cv.Mass)
	}
	return
}

// MaxAbs is the largest magnitude over all fields
func (cv ConservedState) MaxAbs() (mx float64) {
	for _, f := range cv.Join() {
		mx = max(mx, f.MaxAbs())
	}
	return
}
