package DGTensor

import (
	"errors"
	"fmt"
	"sort"

	"github.com/james-bowman/sparse"

	"github.com/notargets/dgflux/utils"
)

var ErrMeshConfig = errors.New("mesh configuration")

const DefaultBoundaryTag = "all"

// BoxMesh is a uniform Cartesian mesh of [Lower, Upper] with Nel elements per
// axis. Element index is k0 + Nel0*k1 + Nel0*Nel1*k2.
type BoxMesh struct {
	Dim          int
	Nel          []int
	Lower, Upper []float64
	Periodic     []bool
	SideTags     [][2]string // boundary tag of the lower and upper side of each axis
}

func NewBoxMesh(nel []int, lower, upper []float64) (bm *BoxMesh) {
	dim := len(nel)
	bm = &BoxMesh{
		Dim:      dim,
		Nel:      nel,
		Lower:    lower,
		Upper:    upper,
		Periodic: make([]bool, dim),
		SideTags: make([][2]string, dim),
	}
	for d := range bm.SideTags {
		bm.SideTags[d] = [2]string{DefaultBoundaryTag, DefaultBoundaryTag}
	}
	return
}

// NewUniformBoxMesh has the same element count and bounds on every axis
func NewUniformBoxMesh(dim, nel int, lower, upper float64) *BoxMesh {
	var (
		n      = make([]int, dim)
		lo, up = make([]float64, dim), make([]float64, dim)
	)
	for d := 0; d < dim; d++ {
		n[d], lo[d], up[d] = nel, lower, upper
	}
	return NewBoxMesh(n, lo, up)
}

func (bm *BoxMesh) SetPeriodic(axes ...int) *BoxMesh {
	for _, a := range axes {
		bm.Periodic[a] = true
	}
	return bm
}

func (bm *BoxMesh) SetSideTag(axis, side int, tag string) *BoxMesh {
	bm.SideTags[axis][side] = tag
	return bm
}

func (bm *BoxMesh) Validate() error {
	if bm.Dim < 1 || bm.Dim > 3 {
		return fmt.Errorf("%w: dimension %d, need 1 to 3", ErrMeshConfig, bm.Dim)
	}
	if len(bm.Lower) != bm.Dim || len(bm.Upper) != bm.Dim || len(bm.Periodic) != bm.Dim {
		return fmt.Errorf("%w: bounds and periodicity must have %d entries", ErrMeshConfig, bm.Dim)
	}
	for d := 0; d < bm.Dim; d++ {
		switch {
		case bm.Nel[d] < 1:
			return fmt.Errorf("%w: axis %d has %d elements", ErrMeshConfig, d, bm.Nel[d])
		case bm.Upper[d] <= bm.Lower[d]:
			return fmt.Errorf("%w: axis %d bounds [%v, %v] are empty", ErrMeshConfig, d, bm.Lower[d], bm.Upper[d])
		case bm.Periodic[d] && bm.Nel[d] < 3:
			return fmt.Errorf("%w: periodic axis %d needs at least 3 elements", ErrMeshConfig, d)
		}
	}
	return nil
}

func (bm *BoxMesh) NumElements() int {
	return utils.Index(bm.Nel).Product()
}

// ElementEdges are the Nel+1 element boundaries along an axis
func (bm *BoxMesh) ElementEdges(axis int) []float64 {
	return utils.Linspace(bm.Lower[axis], bm.Upper[axis], bm.Nel[axis]+1)
}

func (bm *BoxMesh) ElementSize(axis int) float64 {
	return (bm.Upper[axis] - bm.Lower[axis]) / float64(bm.Nel[axis])
}

func (bm *BoxMesh) elementIndices(k int) (ind [3]int) {
	for d := 0; d < bm.Dim; d++ {
		ind[d] = k % bm.Nel[d]
		k /= bm.Nel[d]
	}
	return
}

// BoundaryTags lists the distinct tags on non periodic sides, sorted
func (bm *BoxMesh) BoundaryTags() (tags []string) {
	seen := make(map[string]bool)
	for d := 0; d < bm.Dim; d++ {
		if bm.Periodic[d] {
			continue
		}
		for _, tag := range bm.SideTags[d] {
			if !seen[tag] {
				seen[tag] = true
				tags = append(tags, tag)
			}
		}
	}
	sort.Strings(tags)
	return
}

// Connectivity holds the face neighbor of every element face. EToE[k][f] is
// -1 on the domain boundary.
type Connectivity struct {
	EToE, EToF [][]int
}

// Connect matches faces through their shared vertices: with the face to
// vertex incidence FToV, faces i and j are neighbors when (FToV*FToV^T)[i][j]
// equals the number of vertices on a face.
func (bm *BoxMesh) Connect() (cn *Connectivity) {
	var (
		dim         = bm.Dim
		K           = bm.NumElements()
		NFaces      = 2 * dim
		TotalFaces  = NFaces * K
		nv          = make([]int, dim)
		vstride     = make([]int, dim)
		Nv          = 1
		vertsOnFace = 1 << (dim - 1)
	)
	for d := 0; d < dim; d++ {
		nv[d] = bm.Nel[d] + 1
		if bm.Periodic[d] {
			nv[d] = bm.Nel[d]
		}
		vstride[d] = Nv
		Nv *= nv[d]
	}
	SpFToV_Tmp := sparse.NewDOK(TotalFaces, Nv)
	for k := 0; k < K; k++ {
		kind := bm.elementIndices(k)
		for f := 0; f < NFaces; f++ {
			axis, side := FaceAxis(f)
			for c := 0; c < 1<<dim; c++ {
				if (c>>axis)&1 != side {
					continue
				}
				vid := 0
				for d := 0; d < dim; d++ {
					v := kind[d] + (c>>d)&1
					vid += (v % nv[d]) * vstride[d]
				}
				SpFToV_Tmp.Set(k*NFaces+f, vid, 1)
			}
		}
	}
	SpFToV := SpFToV_Tmp.ToCSR()
	SpFToF := sparse.NewCSR(TotalFaces, TotalFaces, nil, nil, nil)
	SpFToF.Mul(SpFToV, SpFToV.T())

	cn = &Connectivity{
		EToE: make([][]int, K),
		EToF: make([][]int, K),
	}
	for k := 0; k < K; k++ {
		cn.EToE[k] = make([]int, NFaces)
		cn.EToF[k] = make([]int, NFaces)
		for f := range cn.EToE[k] {
			cn.EToE[k][f], cn.EToF[k][f] = -1, -1
		}
	}
	SpFToF.DoNonZero(func(i, j int, v float64) {
		if i == j || int(v+0.5) != vertsOnFace {
			return
		}
		// Neighbors are the opposing sides of the same axis
		fi, fj := i%NFaces, j%NFaces
		if fi/2 != fj/2 || fi%2 == fj%2 {
			return
		}
		cn.EToE[i/NFaces][i%NFaces] = j / NFaces
		cn.EToF[i/NFaces][i%NFaces] = j % NFaces
	})
	return
}
