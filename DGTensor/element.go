package DGTensor

import (
	"fmt"

	"github.com/james-bowman/sparse"
	"gonum.org/v1/gonum/mat"

	"github.com/notargets/dgflux/utils"
)

// ReferenceElement is the tensor product of N+1 Gauss-Lobatto nodes per axis
// on [-1,1]^Dim. Quadrature is collocated with the nodes, so the mass matrix
// is diagonal. Node index is i0 + N1*i1 + N1*N1*i2, axis 0 fastest.
type ReferenceElement struct {
	Dim, N, N1      int
	Np, Nfp, NFaces int
	R1, W1          []float64    // 1D nodes and weights
	D1              utils.Matrix // 1D differentiation matrix
	W               []float64    // volume quadrature weights, length Np
	Wf              []float64    // face quadrature weights, length Nfp
	Dr              []utils.Matrix
	DrT             []*sparse.CSR // N1 non zeros per row
	Fmask           [][]int     // NFaces x Nfp volume node indices of each face
	Rst             [][]float64 // Rst[d][i] is the reference coordinate of node i on axis d
	VCond           float64     // condition number of the 1D Vandermonde matrix
}

// Faces are numbered 2*axis+side, side 0 at r=-1 and side 1 at r=+1
func FaceAxis(face int) (axis, side int) { return face / 2, face % 2 }

func FaceSign(face int) float64 {
	if face%2 == 0 {
		return -1
	}
	return 1
}

func NewReferenceElement(dim, N int) (re *ReferenceElement) {
	if dim < 1 || dim > 3 {
		panic(fmt.Errorf("tensor elements support 1 to 3 dimensions, have %d", dim))
	}
	if N < 1 {
		panic(fmt.Errorf("polynomial order must be at least 1, have %d", N))
	}
	var (
		N1   = N + 1
		dims = make(utils.Index, dim)
	)
	for d := range dims {
		dims[d] = N1
	}
	re = &ReferenceElement{
		Dim:    dim,
		N:      N,
		N1:     N1,
		Np:     dims.Product(),
		Nfp:    dims[1:].Product(),
		NFaces: 2 * dim,
	}
	re.R1 = JacobiGL(0, 0, N)
	re.oneDimensionalOperators()
	re.tensorOperators()
	return
}

// Dr = Vr*inv(V); the LGL weights are the row sums of the mass matrix inv(V*V^T)
func (re *ReferenceElement) oneDimensionalOperators() {
	var (
		V      = Vandermonde1D(re.N, re.R1)
		Vr     = GradVandermonde1D(re.N, re.R1)
		Vinv   mat.Dense
		VVt    mat.Dense
		MassM  mat.Dense
		Dr     mat.Dense
		N1     = re.N1
		dataDr = make([]float64, N1*N1)
	)
	if re.VCond = V.ConditionNumber(); re.VCond > 1e12 {
		panic(fmt.Errorf("Vandermonde matrix at order %d has condition number %8.3e", re.N, re.VCond))
	}
	if err := Vinv.Inverse(V.M); err != nil {
		panic(fmt.Errorf("singular Vandermonde matrix at order %d: %w", re.N, err))
	}
	Dr.Mul(Vr.M, &Vinv)
	for i := 0; i < N1; i++ {
		for j := 0; j < N1; j++ {
			dataDr[i*N1+j] = Dr.At(i, j)
		}
	}
	re.D1 = utils.NewMatrix(N1, N1, dataDr)
	re.D1.SetReadOnly("D1")
	VVt.Mul(V.M, V.M.T())
	if err := MassM.Inverse(&VVt); err != nil {
		panic(fmt.Errorf("singular mass matrix at order %d: %w", re.N, err))
	}
	re.W1 = make([]float64, N1)
	for i := 0; i < N1; i++ {
		for j := 0; j < N1; j++ {
			re.W1[i] += MassM.At(i, j)
		}
	}
}

// ApplyDrT returns DrT[d] * u for a field with Np rows
func (re *ReferenceElement) ApplyDrT(d int, u utils.Matrix) (R utils.Matrix) {
	nr, K := u.Dims()
	if nr != re.Np {
		panic(fmt.Errorf("field has %d rows, need %d", nr, re.Np))
	}
	R = utils.NewMatrix(re.Np, K)
	re.DrT[d].DoNonZero(func(i, j int, v float64) {
		row, src := R.DataP[i*K:(i+1)*K], u.DataP[j*K:(j+1)*K]
		for k := range row {
			row[k] += v * src[k]
		}
	})
	return
}

// nodeIndices unpacks node i into per axis 1D indices
func (re *ReferenceElement) nodeIndices(i int) (ind [3]int) {
	for d := 0; d < re.Dim; d++ {
		ind[d] = i % re.N1
		i /= re.N1
	}
	return
}

func (re *ReferenceElement) tensorOperators() {
	var (
		N1 = re.N1
		I1 = mat.NewDiagDense(N1, utils.ConstArray(N1, 1))
	)
	re.W = make([]float64, re.Np)
	re.Rst = make([][]float64, re.Dim)
	for d := range re.Rst {
		re.Rst[d] = make([]float64, re.Np)
	}
	for i := 0; i < re.Np; i++ {
		ind := re.nodeIndices(i)
		re.W[i] = 1
		for d := 0; d < re.Dim; d++ {
			re.W[i] *= re.W1[ind[d]]
			re.Rst[d][i] = re.R1[ind[d]]
		}
	}
	// Dr_d = K_{dim-1} (x) ... (x) K_0 with K_d = D1 and identities elsewhere,
	// the rightmost factor varying fastest
	re.Dr = make([]utils.Matrix, re.Dim)
	re.DrT = make([]*sparse.CSR, re.Dim)
	for d := 0; d < re.Dim; d++ {
		var op mat.Matrix = mat.Matrix(I1)
		if d == 0 {
			op = re.D1.M
		}
		for a := 1; a < re.Dim; a++ {
			var (
				left mat.Matrix = I1
				kron mat.Dense
			)
			if a == d {
				left = re.D1.M
			}
			kron.Kronecker(left, op)
			op = &kron
		}
		var (
			Dr  = utils.NewMatrix(re.Np, re.Np)
			DrT = sparse.NewDOK(re.Np, re.Np)
		)
		for i := 0; i < re.Np; i++ {
			for j := 0; j < re.Np; j++ {
				if v := op.At(i, j); v != 0 {
					Dr.Set(i, j, v)
					DrT.Set(j, i, v)
				}
			}
		}
		re.Dr[d] = Dr.SetReadOnly("Dr")
		re.DrT[d] = DrT.ToCSR()
	}
	// Face node lists keep the volume ordering, so opposing faces of
	// neighboring elements list their shared nodes in the same order
	re.Fmask = make([][]int, re.NFaces)
	for f := 0; f < re.NFaces; f++ {
		axis, side := FaceAxis(f)
		fixed := 0
		if side == 1 {
			fixed = re.N
		}
		for i := 0; i < re.Np; i++ {
			if re.nodeIndices(i)[axis] == fixed {
				re.Fmask[f] = append(re.Fmask[f], i)
			}
		}
	}
	re.Wf = make([]float64, re.Nfp)
	for j, vi := range re.Fmask[0] {
		ind := re.nodeIndices(vi)
		re.Wf[j] = 1
		for d := 1; d < re.Dim; d++ {
			re.Wf[j] *= re.W1[ind[d]]
		}
	}
}
