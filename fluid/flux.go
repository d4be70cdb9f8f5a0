package fluid

import (
	"github.com/notargets/dgflux/utils"
)

// ConservedFlux carries one spatial vector per conserved equation. It holds
// flux tensors (equations x dim) and gradients of the conserved state alike.
// Momentum[i][j] is component j of the vector for momentum equation i.
type ConservedFlux struct {
	Mass, Energy []utils.Matrix
	Momentum     [][]utils.Matrix
	SpeciesMass  [][]utils.Matrix
}

func (f ConservedFlux) Dim() int      { return len(f.Mass) }
func (f ConservedFlux) NSpecies() int { return len(f.SpeciesMass) }

// Rows returns the per equation vectors in state order
func (f ConservedFlux) Rows() (rows [][]utils.Matrix) {
	rows = make([][]utils.Matrix, 0, f.Dim()+2+f.NSpecies())
	rows = append(rows, f.Mass, f.Energy)
	rows = append(rows, f.Momentum...)
	rows = append(rows, f.SpeciesMass...)
	return
}

// FluxFromRows is the inverse of Rows
func FluxFromRows(dim int, rows [][]utils.Matrix) (f ConservedFlux, err error) {
	if dim < 1 || len(rows) < dim+2 {
		err = shapeError("%d rows cannot hold a %d dimensional flux", len(rows), dim)
		return
	}
	for i, r := range rows {
		if len(r) != dim {
			err = shapeError("row %d has %d components, dimension is %d", i, len(r), dim)
			return
		}
	}
	f = ConservedFlux{
		Mass:        rows[0],
		Energy:      rows[1],
		Momentum:    rows[2 : 2+dim : 2+dim],
		SpeciesMass: rows[2+dim:],
	}
	return
}

// Join flattens equation major: all components of mass, then energy, and so on
func (f ConservedFlux) Join() (fields []utils.Matrix) {
	for _, row := range f.Rows() {
		fields = append(fields, row...)
	}
	return
}

// FluxSplit is the inverse of ConservedFlux.Join
func FluxSplit(dim int, fields []utils.Matrix) (f ConservedFlux, err error) {
	if dim < 1 || len(fields)%dim != 0 {
		err = shapeError("%d fields do not divide into %d dimensional vectors", len(fields), dim)
		return
	}
	rows := make([][]utils.Matrix, len(fields)/dim)
	for i := range rows {
		rows[i] = fields[i*dim : (i+1)*dim : (i+1)*dim]
	}
	return FluxFromRows(dim, rows)
}

func (f ConservedFlux) checkShape(o ConservedFlux) error {
	if f.Dim() != o.Dim() || f.NSpecies() != o.NSpecies() {
		return shapeError("flux dim/nspecies %d/%d versus %d/%d", f.Dim(), f.NSpecies(), o.Dim(), o.NSpecies())
	}
	return nil
}

// MapRows applies op to each equation's vector
func (f ConservedFlux) MapRows(op func([]utils.Matrix) []utils.Matrix) ConservedFlux {
	rows := f.Rows()
	for i, r := range rows {
		rows[i] = op(r)
	}
	fr, _ := FluxFromRows(f.Dim(), rows)
	return fr
}

// Map applies op to every component field
func (f ConservedFlux) Map(op func(utils.Matrix) utils.Matrix) ConservedFlux {
	return f.MapRows(func(row []utils.Matrix) []utils.Matrix {
		return mapFields(row, op)
	})
}

func (f ConservedFlux) combine(o ConservedFlux, op func(a, b utils.Matrix) utils.Matrix) (r ConservedFlux, err error) {
	if err = f.checkShape(o); err != nil {
		return
	}
	var (
		rowsF, rowsO = f.Rows(), o.Rows()
		rows         = make([][]utils.Matrix, len(rowsF))
	)
	for i := range rowsF {
		rows[i] = make([]utils.Matrix, f.Dim())
		for j := range rowsF[i] {
			rows[i][j] = op(rowsF[i][j], rowsO[i][j])
		}
	}
	return FluxFromRows(f.Dim(), rows)
}

func (f ConservedFlux) Add(o ConservedFlux) (ConservedFlux, error) {
	return f.combine(o, func(a, b utils.Matrix) utils.Matrix { return a.Copy().Add(b) })
}

func (f ConservedFlux) Sub(o ConservedFlux) (ConservedFlux, error) {
	return f.combine(o, func(a, b utils.Matrix) utils.Matrix { return a.Copy().Subtract(b) })
}

func (f ConservedFlux) Scale(a float64) ConservedFlux {
	return f.Map(func(m utils.Matrix) utils.Matrix { return m.Copy().Scale(a) })
}

// Dot projects every equation's vector onto normal, giving a per equation scalar
func (f ConservedFlux) Dot(normal []utils.Matrix) (cv ConservedState, err error) {
	if len(normal) != f.Dim() {
		err = shapeError("normal has %d components, flux dimension is %d", len(normal), f.Dim())
		return
	}
	rows := f.Rows()
	fields := make([]utils.Matrix, len(rows))
	for i, row := range rows {
		fields[i] = Dot(row, normal)
	}
	return Split(f.Dim(), fields)
}

// ApplyRows maps each equation's vector to a scalar, as a divergence does
func (f ConservedFlux) ApplyRows(op func([]utils.Matrix) utils.Matrix) ConservedState {
	rows := f.Rows()
	fields := make([]utils.Matrix, len(rows))
	for i, row := range rows {
		fields[i] = op(row)
	}
	cv, _ := Split(f.Dim(), fields)
	return cv
}

// ApplyFields maps each scalar field of cv to a vector, as a gradient does
func ApplyFields(cv ConservedState, op func(utils.Matrix) []utils.Matrix) ConservedFlux {
	fields := cv.Join()
	rows := make([][]utils.Matrix, len(fields))
	for i, fld := range fields {
		rows[i] = op(fld)
	}
	f, _ := FluxFromRows(cv.Dim(), rows)
	return f
}

// Outer forms u*n for each equation u of cv
func Outer(cv ConservedState, normal []utils.Matrix) (f ConservedFlux, err error) {
	if len(normal) != cv.Dim() {
		err = shapeError("normal has %d components, state dimension is %d", len(normal), cv.Dim())
		return
	}
	f = ApplyFields(cv, func(u utils.Matrix) []utils.Matrix {
		return ScaleVector(normal, u)
	})
	return
}

// ZeroFluxLike returns a zero flux with the equations and shape of cv
func ZeroFluxLike(cv ConservedState) ConservedFlux {
	return ApplyFields(cv, func(u utils.Matrix) []utils.Matrix {
		v := make([]utils.Matrix, cv.Dim())
		for i := range v {
			v[i] = utils.NewMatrixLike(u)
		}
		return v
	})
}
