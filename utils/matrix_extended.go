package utils

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Matrix is the field container used throughout: Np x K for volume fields,
// Nfp x Nslots for face fields. Storage is row-major in DataP.
// M is nil when either dimension is zero, as happens for empty face sets.
type Matrix struct {
	M        *mat.Dense
	DataP    []float64
	nr, nc   int
	readOnly bool
	name     string
}

func NewMatrix(nr, nc int, dataO ...[]float64) (R Matrix) {
	var (
		data []float64
	)
	if nr < 0 || nc < 0 {
		panic(fmt.Errorf("negative matrix dimension: nr, nc = %v, %v", nr, nc))
	}
	if len(dataO) != 0 {
		if len(dataO[0]) != nr*nc {
			err := fmt.Errorf("mismatch in allocation: NewMatrix nr,nc = %v,%v, len(data[0]) = %v\n", nr, nc, len(dataO[0]))
			panic(err)
		}
		data = dataO[0]
	} else {
		data = make([]float64, nr*nc)
	}
	R = Matrix{
		DataP: data,
		nr:    nr,
		nc:    nc,
		name:  "unnamed - hint: pass a variable name to SetReadOnly()",
	}
	if nr*nc != 0 {
		R.M = mat.NewDense(nr, nc, data)
	}
	return
}

// NewMatrixLike allocates a zero matrix with the dimensions of A
func NewMatrixLike(A Matrix) Matrix {
	return NewMatrix(A.Dims())
}

// Dims, At and T minimally satisfy the mat.Matrix interface.
func (m Matrix) Dims() (r, c int)    { return m.nr, m.nc }
func (m Matrix) At(i, j int) float64 { return m.DataP[i*m.nc+j] }
func (m Matrix) T() mat.Matrix       { return mat.Transpose{Matrix: m} }
func (m Matrix) Len() int            { return m.nr * m.nc }
func (m Matrix) Data() []float64     { return m.DataP }
func (m Matrix) IsEmpty() bool       { return m.nr*m.nc == 0 }

func (m *Matrix) SetReadOnly(name ...string) Matrix {
	if len(name) != 0 {
		m.name = name[0]
	}
	m.readOnly = true
	return *m
}

func (m *Matrix) SetWritable() Matrix {
	m.readOnly = false
	return *m
}

func (m Matrix) checkWritable() {
	if m.readOnly {
		panic(fmt.Errorf("attempt to write to read only matrix named: \"%v\"", m.name))
	}
}

func (m Matrix) checkSameDims(A Matrix, op string) {
	nrA, ncA := A.Dims()
	if nrA != m.nr || ncA != m.nc {
		panic(fmt.Errorf("dimension mismatch in %s: have %vx%v and %vx%v", op, m.nr, m.nc, nrA, ncA))
	}
}

func (m Matrix) Copy() (R Matrix) { // Does not change receiver
	dataR := make([]float64, len(m.DataP))
	copy(dataR, m.DataP)
	R = NewMatrix(m.nr, m.nc, dataR)
	return
}

func (m Matrix) Transpose() (R Matrix) { // Does not change receiver
	R = NewMatrix(m.nc, m.nr)
	for i := 0; i < m.nr; i++ {
		for j := 0; j < m.nc; j++ {
			R.DataP[j*m.nr+i] = m.DataP[i*m.nc+j]
		}
	}
	return
}

func (m Matrix) Mul(A Matrix) (R Matrix) { // Does not change receiver
	var (
		nrA, ncA = A.Dims()
	)
	if m.nc != nrA {
		panic(fmt.Errorf("dimension mismatch in Mul: have %vx%v times %vx%v", m.nr, m.nc, nrA, ncA))
	}
	R = NewMatrix(m.nr, ncA)
	if R.IsEmpty() || m.nc == 0 {
		return
	}
	R.M.Mul(m.M, A.M)
	return
}

// Col returns a copy of column j
func (m Matrix) Col(j int) (c []float64) {
	c = make([]float64, m.nr)
	for i := range c {
		c[i] = m.DataP[i*m.nc+j]
	}
	return
}

func (m Matrix) Max() (mx float64) {
	if m.IsEmpty() {
		return math.Inf(-1)
	}
	return floats.Max(m.DataP)
}

func (m Matrix) Min() (mn float64) {
	if m.IsEmpty() {
		return math.Inf(1)
	}
	return floats.Min(m.DataP)
}

func (m Matrix) MaxAbs() (mx float64) {
	if m.IsEmpty() {
		return 0
	}
	return floats.Norm(m.DataP, math.Inf(1))
}

// Sum of all entries
func (m Matrix) Sum() float64 {
	return floats.Sum(m.DataP)
}

func (m Matrix) Print(msgI ...string) (o string) {
	var (
		name = ""
	)
	if len(msgI) != 0 {
		name = msgI[0]
	}
	if m.IsEmpty() {
		return fmt.Sprintf("%s = [%vx%v]\n", name, m.nr, m.nc)
	}
	formatString := "%s = \n%8.5f\n"
	o = fmt.Sprintf(formatString, name, mat.Formatted(m.M, mat.Squeeze()))
	return
}

// Chainable methods (extended)
func (m Matrix) Set(i, j int, val float64) Matrix { // Changes receiver
	m.checkWritable()
	m.DataP[i*m.nc+j] = val
	return m
}

func (m Matrix) AddAt(i, j int, val float64) Matrix { // Changes receiver
	m.checkWritable()
	m.DataP[i*m.nc+j] += val
	return m
}

func (m Matrix) Assign(A Matrix) Matrix { // Changes receiver
	m.checkWritable()
	m.checkSameDims(A, "Assign")
	copy(m.DataP, A.DataP)
	return m
}

func (m Matrix) Add(A Matrix) Matrix { // Changes receiver
	m.checkWritable()
	m.checkSameDims(A, "Add")
	floats.Add(m.DataP, A.DataP)
	return m
}

func (m Matrix) Subtract(A Matrix) Matrix { // Changes receiver
	m.checkWritable()
	m.checkSameDims(A, "Subtract")
	floats.Sub(m.DataP, A.DataP)
	return m
}

// AddScaled adds a*A to the receiver
func (m Matrix) AddScaled(a float64, A Matrix) Matrix { // Changes receiver
	m.checkWritable()
	m.checkSameDims(A, "AddScaled")
	floats.AddScaled(m.DataP, a, A.DataP)
	return m
}

func (m Matrix) Scale(a float64) Matrix { // Changes receiver
	m.checkWritable()
	floats.Scale(a, m.DataP)
	return m
}

func (m Matrix) AddScalar(a float64) Matrix { // Changes receiver
	m.checkWritable()
	floats.AddConst(a, m.DataP)
	return m
}

func (m Matrix) ElMul(A Matrix) Matrix { // Changes receiver
	m.checkWritable()
	m.checkSameDims(A, "ElMul")
	floats.Mul(m.DataP, A.DataP)
	return m
}

func (m Matrix) ElDiv(A Matrix) Matrix { // Changes receiver
	m.checkWritable()
	m.checkSameDims(A, "ElDiv")
	floats.Div(m.DataP, A.DataP)
	return m
}

func (m Matrix) Apply(f func(float64) float64) Matrix { // Changes receiver
	m.checkWritable()
	for i, val := range m.DataP {
		m.DataP[i] = f(val)
	}
	return m
}

func (m Matrix) Apply2(A Matrix, f func(float64, float64) float64) Matrix { // Changes receiver
	m.checkWritable()
	m.checkSameDims(A, "Apply2")
	for i, val := range m.DataP {
		m.DataP[i] = f(val, A.DataP[i])
	}
	return m
}

func (m Matrix) Apply3(A, B Matrix, f func(float64, float64, float64) float64) Matrix { // Changes receiver
	m.checkWritable()
	m.checkSameDims(A, "Apply3")
	m.checkSameDims(B, "Apply3")
	for i, val := range m.DataP {
		m.DataP[i] = f(val, A.DataP[i], B.DataP[i])
	}
	return m
}

// Equal reports whether A and B have identical dimensions and entries within tol
func Equal(A, B Matrix, tol float64) bool {
	nrA, ncA := A.Dims()
	nrB, ncB := B.Dims()
	if nrA != nrB || ncA != ncB {
		return false
	}
	return floats.EqualApprox(A.DataP, B.DataP, tol)
}
