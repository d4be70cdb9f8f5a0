package NavierStokes

import (
	"github.com/notargets/dgflux/fluid"
	"github.com/notargets/dgflux/types"
	"github.com/notargets/dgflux/utils"
)

// GradientFacialFlux is the central flux avg(q) (x) n used to recover the
// state gradient, extended to all faces. Gradients carry no dissipation.
func GradientFacialFlux(discr Discretization, pair fluid.StateTracePair) (fluid.ConservedFlux, error) {
	f, err := fluid.Outer(pair.Average(), discr.Normal(pair.Domain))
	if err != nil {
		return fluid.ConservedFlux{}, err
	}
	return fluxToAllFaces(discr, pair.Domain, f), nil
}

// ScalarFacialFlux is avg(u) n for a single field trace pair, as used for
// temperature
func ScalarFacialFlux(discr Discretization, pair types.TracePair) []utils.Matrix {
	var (
		avg    = pair.Average()[0]
		normal = discr.Normal(pair.Domain)
		flux   = fluid.ScaleVector(normal, avg)
	)
	return vectorToAllFaces(discr, pair.Domain, flux)
}

func fluxToAllFaces(discr Discretization, domain types.DomainTag, f fluid.ConservedFlux) fluid.ConservedFlux {
	return f.Map(func(u utils.Matrix) utils.Matrix {
		return discr.Project(domain, types.AllFacesDomain, u)
	})
}

func vectorToAllFaces(discr Discretization, domain types.DomainTag, v []utils.Matrix) (r []utils.Matrix) {
	r = make([]utils.Matrix, len(v))
	for i := range v {
		r[i] = discr.Project(domain, types.AllFacesDomain, v[i])
	}
	return
}

func allFacesZeros(discr Discretization) utils.Matrix {
	return discr.Project(types.VolumeDomain, types.AllFacesDomain, discr.Zeros())
}

// Gradient is the strong gradient -M^-1 (weak_grad(u) - face_mass(u* n))
// given the face values u* n on all faces
func Gradient(discr Discretization, u utils.Matrix, faceFlux []utils.Matrix) (grad []utils.Matrix) {
	grad = discr.WeakGradient(u)
	for d := range grad {
		grad[d] = discr.InverseMass(grad[d].Subtract(discr.FaceMass(faceFlux[d]))).Scale(-1)
	}
	return
}

// StateGradient applies Gradient to every conserved variable
func StateGradient(discr Discretization, cv fluid.ConservedState, faceFlux fluid.ConservedFlux) (grad fluid.ConservedFlux, err error) {
	var (
		fields = cv.Join()
		rows   = faceFlux.Rows()
	)
	if len(rows) != len(fields) || faceFlux.Dim() != cv.Dim() {
		err = shapeMismatch("face flux with %d equations for a %d equation state", len(rows), len(fields))
		return
	}
	gradRows := make([][]utils.Matrix, len(fields))
	for i, u := range fields {
		gradRows[i] = Gradient(discr, u, rows[i])
	}
	return fluid.FluxFromRows(cv.Dim(), gradRows)
}

// Divergence is M^-1 (weak_div(F) - face_mass(F*.n)) for every equation, the
// RHS of dq/dt + div(F) = 0. Note the sign: this approximates -div(F).
func Divergence(discr Discretization, f fluid.ConservedFlux, faceFlux fluid.ConservedState) (div fluid.ConservedState, err error) {
	var (
		rows  = f.Rows()
		faces = faceFlux.Join()
	)
	if len(rows) != len(faces) || f.Dim() != faceFlux.Dim() {
		err = shapeMismatch("volume flux with %d equations, face flux with %d", len(rows), len(faces))
		return
	}
	fields := make([]utils.Matrix, len(rows))
	for i, row := range rows {
		fields[i] = discr.InverseMass(discr.WeakDivergence(row).Subtract(discr.FaceMass(faces[i])))
	}
	return fluid.Split(f.Dim(), fields)
}
