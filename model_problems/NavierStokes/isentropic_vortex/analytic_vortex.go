package isentropic_vortex

import (
	"math"

	"github.com/notargets/dgflux/fluid"
	"github.com/notargets/dgflux/utils"
)

// IVortex is the 2D isentropic vortex of strength Beta centered at (X0, Y0)
// at t = 0, carried by the freestream (Ufs, Vfs). With p = rho^Gamma it is an
// exact solution of the Euler equations.
type IVortex struct {
	Beta, X0, Y0, Gamma float64
	Ufs, Vfs            float64
}

func NewIVortex(Beta, X0, Y0, Gamma float64, UfsO ...float64) (iv *IVortex) {
	var (
		Ufs, Vfs = 1.0, 0.0
	)
	if len(UfsO) > 0 {
		Ufs = UfsO[0]
	}
	if len(UfsO) > 1 {
		Vfs = UfsO[1]
	}
	iv = &IVortex{
		Beta:  Beta,
		X0:    X0,
		Y0:    Y0,
		Gamma: Gamma,
		Ufs:   Ufs,
		Vfs:   Vfs,
	}
	return
}

func (iv *IVortex) GetState(t, x, y float64) (u, v, rho, p float64) {
	/*
	  xmut = x - u*t;   ymvt = y - v*t;
	  rsqr = sqr(xmut-xo)+sqr(ymvt-yo);
	  ex1r = exp(1.0-rsqr);

	  u -= beta * ex1r*(ymvt-yo)/(2.0*pi);
	  v += beta * ex1r*(xmut-xo)/(2.0*pi);

	  tv1  = (1.0-(gm1*SQ(beta)*exp(2.0*(1.0-rsqr))/fac));
	  rho1 = pow(tv1, 1.0/gm1);
	  p1   = pow(rho1, gamma);
	*/
	var (
		oo2pi = 0.5 * (1. / math.Pi)
		Gamma = iv.Gamma
		GM1   = Gamma - 1
		OOGM1 = 1. / GM1
		pi2   = math.Pi * math.Pi
		beta  = iv.Beta
		beta2 = beta * beta
		fac   = 16 * Gamma * pi2
	)
	u, v = iv.Ufs, iv.Vfs     // start with freestream values, perturb them later
	xmut, ymvt := x-u*t, y-v*t // vortex center location at time t
	r2 := utils.POW(xmut-iv.X0, 2) + utils.POW(ymvt-iv.Y0, 2)
	ex1r := math.Exp(1 - r2)
	tv1 := 1.0 - (GM1 * beta2 * math.Exp(2.0*(1.0-r2)) / fac)
	u -= beta * ex1r * (ymvt - iv.Y0) * oo2pi
	v += beta * ex1r * (xmut - iv.X0) * oo2pi
	rho = math.Pow(tv1, OOGM1)
	p = math.Pow(rho, Gamma)
	return
}

func (iv *IVortex) GetStateC(t, x, y float64) (Rho, RhoU, RhoV, E float64) {
	var (
		ooGM1 = 1. / (iv.Gamma - 1.)
	)
	u, v, rho, p := iv.GetState(t, x, y)
	q := 0.5 * rho * (u*u + v*v)
	Rho, RhoU, RhoV, E = rho, rho*u, rho*v, p*ooGM1+q
	return
}

// GetRHS is dq/dt = -(Ufs d/dx + Vfs d/dy) q, the vortex being a steady
// solution carried by the freestream
func (iv *IVortex) GetRHS(t, x, y float64) (rhs [4]float64) {
	var (
		Gamma  = iv.Gamma
		GM1    = Gamma - 1
		k      = iv.Beta / (2 * math.Pi)
		c      = GM1 * iv.Beta * iv.Beta / (16 * Gamma * math.Pi * math.Pi)
		dx, dy = x - iv.Ufs*t - iv.X0, y - iv.Vfs*t - iv.Y0
		e      = math.Exp(1 - dx*dx - dy*dy)
		tv1    = 1 - c*e*e
		u, v   = iv.Ufs - k*e*dy, iv.Vfs + k*e*dx
		rho    = math.Pow(tv1, 1/GM1)
		// derivatives along x and y
		dudx, dudy = 2 * k * dx * dy * e, -k * e * (1 - 2*dy*dy)
		dvdx, dvdy = k * e * (1 - 2*dx*dx), -2 * k * dx * dy * e
		drhodx     = rho / (GM1 * tv1) * 4 * c * e * e * dx
		drhody     = rho / (GM1 * tv1) * 4 * c * e * e * dy
		dpdrho     = Gamma * math.Pow(rho, GM1)
		ke         = 0.5 * (u*u + v*v)
	)
	grad := func(drho, du, dv float64) (q [4]float64) {
		q[0] = drho
		q[1] = drho*u + rho*du
		q[2] = drho*v + rho*dv
		q[3] = dpdrho*drho/GM1 + drho*ke + rho*(u*du+v*dv)
		return
	}
	qx, qy := grad(drhodx, dudx, dvdx), grad(drhody, dudy, dvdy)
	for n := 0; n < 4; n++ {
		rhs[n] = -(iv.Ufs*qx[n] + iv.Vfs*qy[n])
	}
	return
}

func (iv *IVortex) GetFlux(t, x, y float64) (Fx, Fy [4]float64) {
	rho, rhoU, rhoV, E := iv.GetStateC(t, x, y)
	Fx, Fy = FluxCalc(iv.Gamma, rho, rhoU, rhoV, E)
	return
}

// FluxCalc is the Euler flux of one point, ordered rho, rhoU, rhoV, E
func FluxCalc(Gamma, rho, rhoU, rhoV, E float64) (Fx, Fy [4]float64) {
	var (
		GM1 = Gamma - 1.
	)
	u := rhoU / rho
	v := rhoV / rho
	u2 := u*u + v*v
	q := 0.5 * rho * u2
	p := GM1 * (E - q)
	Fx, Fy =
		[4]float64{rhoU, rhoU*u + p, rhoU * v, u * (E + p)},
		[4]float64{rhoV, rhoV * u, rhoV*v + p, v * (E + p)}
	return
}

// State evaluates the vortex at every node, in conserved state order
func (iv *IVortex) State(nodes []utils.Matrix, t float64) fluid.ConservedState {
	return iv.fill(nodes, func(x, y float64) [4]float64 {
		rho, rhoU, rhoV, E := iv.GetStateC(t, x, y)
		return [4]float64{rho, rhoU, rhoV, E}
	})
}

func (iv *IVortex) ExactRHS(nodes []utils.Matrix, t float64) fluid.ConservedState {
	return iv.fill(nodes, func(x, y float64) [4]float64 {
		return iv.GetRHS(t, x, y)
	})
}

// fill maps the point values rho, rhoU, rhoV, E onto a conserved state
func (iv *IVortex) fill(nodes []utils.Matrix, f func(x, y float64) [4]float64) fluid.ConservedState {
	var (
		X, Y              = nodes[0], nodes[1]
		rho, rhoU, rhoV, E = utils.NewMatrixLike(X), utils.NewMatrixLike(X), utils.NewMatrixLike(X), utils.NewMatrixLike(X)
	)
	for i := range X.DataP {
		q := f(X.DataP[i], Y.DataP[i])
		rho.DataP[i], rhoU.DataP[i], rhoV.DataP[i], E.DataP[i] = q[0], q[1], q[2], q[3]
	}
	return fluid.ConservedState{
		Mass:     rho,
		Energy:   E,
		Momentum: []utils.Matrix{rhoU, rhoV},
	}
}
