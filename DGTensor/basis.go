package DGTensor

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/notargets/dgflux/utils"
)

func gamma0(alpha, beta float64) float64 {
	ab1 := alpha + beta + 1.
	a1 := alpha + 1.
	b1 := beta + 1.
	return math.Gamma(a1) * math.Gamma(b1) * math.Pow(2, ab1) / ab1 / math.Gamma(ab1)
}

func gamma1(alpha, beta float64) float64 {
	ab := alpha + beta
	a1 := alpha + 1.
	b1 := beta + 1.
	return a1 * b1 * gamma0(alpha, beta) / (ab + 3.0)
}

// JacobiGQ returns the N+1 Gauss quadrature points and weights for the
// Jacobi weight (1-r)^alpha (1+r)^beta, from the Golub-Welsch eigenproblem
func JacobiGQ(alpha, beta float64, N int) (X, W []float64) {
	if N == 0 {
		X = []float64{-(alpha - beta) / (alpha + beta + 2.)}
		W = []float64{2.}
		return
	}
	var (
		h1 = make([]float64, N+1)
		JJ = mat.NewSymDense(N+1, nil)
	)
	for i := 0; i < N+1; i++ {
		h1[i] = 2*float64(i) + alpha + beta
	}
	fac := -.5 * (alpha*alpha - beta*beta)
	for i := 0; i < N+1; i++ {
		val := h1[i]
		if alpha+beta < 1.e-15 && i == 0 {
			JJ.SetSym(i, i, 0)
			continue
		}
		JJ.SetSym(i, i, fac/(val*(val+2.)))
	}
	for i := 0; i < N; i++ {
		ip1 := float64(i + 1)
		val := h1[i]
		d1 := 2. / (val + 2.)
		d1 *= math.Sqrt(ip1 * (ip1 + alpha + beta) * (ip1 + alpha) * (ip1 + beta) / ((val + 1.) * (val + 3.)))
		JJ.SetSym(i, i+1, d1)
	}
	var eig mat.EigenSym
	if ok := eig.Factorize(JJ, true); !ok {
		panic("eigenvalue decomposition failed")
	}
	X = eig.Values(nil)
	var VVr mat.Dense
	eig.VectorsTo(&VVr)
	W = make([]float64, N+1)
	g0 := gamma0(alpha, beta)
	for i := range W {
		v := VVr.At(0, i)
		W[i] = v * v * g0
	}
	return
}

// JacobiGL returns the N+1 Gauss-Lobatto points on [-1,1]
func JacobiGL(alpha, beta float64, N int) (X []float64) {
	X = make([]float64, N+1)
	X[0], X[N] = -1, 1
	if N == 1 {
		return
	}
	xint, _ := JacobiGQ(alpha+1, beta+1, N-2)
	copy(X[1:N], xint)
	return
}

// JacobiP evaluates the normalized Jacobi polynomial of order N at r
func JacobiP(r []float64, alpha, beta float64, N int) (p []float64) {
	var (
		ab  = alpha + beta
		rg0 = 1. / math.Sqrt(gamma0(alpha, beta))
	)
	p = make([]float64, len(r))
	for i, x := range r {
		pOld := rg0
		if N == 0 {
			p[i] = pOld
			continue
		}
		pCur := ((ab+2.0)*x/2.0 + (alpha-beta)/2.0) / math.Sqrt(gamma1(alpha, beta))
		aold := 2.0 * math.Sqrt((alpha+1.)*(beta+1.)/(ab+3.0)) / (ab + 2.0)
		for n := 0; n < N-1; n++ {
			ip1 := float64(n + 1)
			h1 := 2.0*ip1 + ab
			anew := 2.0 / (h1 + 2.0) * math.Sqrt((ip1+1)*(ip1+ab+1)*(ip1+alpha+1)*(ip1+beta+1)/(h1+1.0)/(h1+3.0))
			bnew := -(alpha*alpha - beta*beta) / h1 / (h1 + 2.0)
			pOld, pCur = pCur, (-aold*pOld+(x-bnew)*pCur)/anew
			aold = anew
		}
		p[i] = pCur
	}
	return
}

func GradJacobiP(r []float64, alpha, beta float64, N int) (p []float64) {
	if N == 0 {
		return make([]float64, len(r))
	}
	p = JacobiP(r, alpha+1, beta+1, N-1)
	fN := float64(N)
	fac := math.Sqrt(fN * (fN + alpha + beta + 1))
	for i := range p {
		p[i] *= fac
	}
	return
}

func Vandermonde1D(N int, r []float64) (V utils.Matrix) {
	V = utils.NewMatrix(len(r), N+1)
	for j := 0; j < N+1; j++ {
		for i, val := range JacobiP(r, 0, 0, j) {
			V.Set(i, j, val)
		}
	}
	return
}

func GradVandermonde1D(N int, r []float64) (Vr utils.Matrix) {
	Vr = utils.NewMatrix(len(r), N+1)
	for j := 0; j < N+1; j++ {
		for i, val := range GradJacobiP(r, 0, 0, j) {
			Vr.Set(i, j, val)
		}
	}
	return
}
