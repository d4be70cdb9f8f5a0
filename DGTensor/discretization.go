package DGTensor

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/notargets/dgflux/types"
	"github.com/notargets/dgflux/utils"
)

var ErrExchange = errors.New("partition exchange")

// faceSlot is one element face of a face set, with the face on the other
// side. For partition faces nbrElem is a global element number, otherwise
// it is local. Boundary slots have no neighbor.
type faceSlot struct {
	elem, face       int
	nbrElem, nbrFace int
}

type faceSet []faceSlot

// Discretization is one rank's share of a partitioned box mesh: volume
// fields are Np x K matrices over the local elements, face fields are
// Nfp x Nslots matrices over the slots of a face set. The all faces set has
// slot k*NFaces+f for face f of element k.
type Discretization struct {
	Ref            *ReferenceElement
	Mesh           *BoxMesh
	Rank, NumRanks int
	K              int
	KOffset        int // global number of local element 0
	J              float64
	Rx             []float64 // dr/dx per axis
	FaceJ          []float64 // face Jacobian of the faces normal to each axis
	X              []utils.Matrix

	interior   faceSet
	boundary   map[string]faceSet
	partitions map[int]faceSet
	neighbors  []int // neighbor ranks, sorted
	mailBox    *utils.MailBox[[]utils.Matrix]
	ctx        context.Context // set while Run is in progress
}

func newDiscretization(mesh *BoxMesh, ref *ReferenceElement, cn *Connectivity,
	pm *utils.PartitionMap, rank int) (dd *Discretization) {
	dim := mesh.Dim
	dd = &Discretization{
		Ref:        ref,
		Mesh:       mesh,
		Rank:       rank,
		NumRanks:   pm.ParallelDegree,
		K:          pm.GetBucketDimension(rank),
		KOffset:    pm.GetGlobalK(0, rank),
		J:          1,
		Rx:         make([]float64, dim),
		FaceJ:      make([]float64, dim),
		boundary:   make(map[string]faceSet),
		partitions: make(map[int]faceSet),
	}
	for d := 0; d < dim; d++ {
		h := mesh.ElementSize(d)
		dd.J *= h / 2
		dd.Rx[d] = 2 / h
	}
	for d := 0; d < dim; d++ {
		dd.FaceJ[d] = 1
		for a := 0; a < dim; a++ {
			if a != d {
				dd.FaceJ[d] *= mesh.ElementSize(a) / 2
			}
		}
	}
	dd.computeNodes()
	dd.buildFaceSets(cn, pm)
	return
}

func (dd *Discretization) computeNodes() {
	var (
		ref = dd.Ref
		K   = dd.K
	)
	dd.X = make([]utils.Matrix, dd.Mesh.Dim)
	for d := range dd.X {
		var (
			X     = utils.NewMatrix(ref.Np, K)
			h     = dd.Mesh.ElementSize(d)
			edges = dd.Mesh.ElementEdges(d)
		)
		for k, kG := range dd.GlobalElements() {
			x0 := edges[dd.Mesh.elementIndices(kG)[d]]
			for i := 0; i < ref.Np; i++ {
				X.DataP[i*K+k] = x0 + 0.5*(ref.Rst[d][i]+1)*h
			}
		}
		dd.X[d] = X
	}
}

func (dd *Discretization) buildFaceSets(cn *Connectivity, pm *utils.PartitionMap) {
	var (
		NFaces = dd.Ref.NFaces
		keys   = make(map[int][]int)
	)
	for k, kG := range dd.GlobalElements() {
		for f := 0; f < NFaces; f++ {
			nbrG, nbrF := cn.EToE[kG][f], cn.EToF[kG][f]
			if nbrG < 0 {
				axis, side := FaceAxis(f)
				tag := dd.Mesh.SideTags[axis][side]
				dd.boundary[tag] = append(dd.boundary[tag], faceSlot{k, f, -1, -1})
				continue
			}
			nbrK, _, bn := pm.GetLocalK(nbrG)
			if bn == dd.Rank {
				dd.interior = append(dd.interior, faceSlot{k, f, nbrK, nbrF})
				continue
			}
			// Both ranks order a shared face set by the global face number
			// of the lower ranked side
			key := kG*NFaces + f
			if bn < dd.Rank {
				key = nbrG*NFaces + nbrF
			}
			dd.partitions[bn] = append(dd.partitions[bn], faceSlot{k, f, nbrG, nbrF})
			keys[bn] = append(keys[bn], key)
		}
	}
	for bn, set := range dd.partitions {
		sort.Sort(byKey{set, keys[bn]})
		dd.neighbors = append(dd.neighbors, bn)
	}
	sort.Ints(dd.neighbors)
}

type byKey struct {
	set  faceSet
	keys []int
}

func (b byKey) Len() int           { return len(b.set) }
func (b byKey) Less(i, j int) bool { return b.keys[i] < b.keys[j] }
func (b byKey) Swap(i, j int) {
	b.set[i], b.set[j] = b.set[j], b.set[i]
	b.keys[i], b.keys[j] = b.keys[j], b.keys[i]
}

// GlobalElements are the global numbers of the local elements, in local order
func (dd *Discretization) GlobalElements() utils.Index {
	return utils.NewRange(dd.KOffset, dd.KOffset+dd.K-1)
}

func (dd *Discretization) Dim() int              { return dd.Mesh.Dim }
func (dd *Discretization) Order() int            { return dd.Ref.N }
func (dd *Discretization) NumElements() int      { return dd.K }
func (dd *Discretization) Nodes() []utils.Matrix { return dd.X }
func (dd *Discretization) NeighborRanks() []int  { return dd.neighbors }

func (dd *Discretization) Zeros() utils.Matrix {
	return utils.NewMatrix(dd.Ref.Np, dd.K)
}

// BoundaryTags lists the tags with faces on this rank
func (dd *Discretization) BoundaryTags() (tags []string) {
	for tag := range dd.boundary {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return
}

// MeshBoundaryTags lists the tags of the whole mesh, identical on every rank
func (dd *Discretization) MeshBoundaryTags() []string {
	return dd.Mesh.BoundaryTags()
}

func (dd *Discretization) MinElementSize() (h float64) {
	h = math.Inf(1)
	for d := 0; d < dd.Mesh.Dim; d++ {
		h = math.Min(h, dd.Mesh.ElementSize(d))
	}
	return
}

func (dd *Discretization) faceSet(domain types.DomainTag) faceSet {
	switch domain.Kind {
	case types.InteriorFaces:
		return dd.interior
	case types.BoundaryFaces:
		return dd.boundary[domain.Tag]
	case types.PartitionFaces:
		return dd.partitions[domain.Rank]
	case types.AllFaces:
		set := make(faceSet, dd.K*dd.Ref.NFaces)
		for k := 0; k < dd.K; k++ {
			for f := 0; f < dd.Ref.NFaces; f++ {
				set[k*dd.Ref.NFaces+f] = faceSlot{k, f, -1, -1}
			}
		}
		return set
	}
	panic(fmt.Errorf("%s is not a face domain", domain))
}

// gather evaluates a volume field on the faces of a set, slot by slot
func (dd *Discretization) gather(set faceSet, u utils.Matrix) (R utils.Matrix) {
	var (
		Nfp = dd.Ref.Nfp
		K   = dd.K
		ns  = len(set)
	)
	R = utils.NewMatrix(Nfp, ns)
	for s, slot := range set {
		for j, vi := range dd.Ref.Fmask[slot.face] {
			R.DataP[j*ns+s] = u.DataP[vi*K+slot.elem]
		}
	}
	return
}

func (dd *Discretization) gatherNeighbor(set faceSet, u utils.Matrix) (R utils.Matrix) {
	var (
		Nfp = dd.Ref.Nfp
		K   = dd.K
		ns  = len(set)
	)
	R = utils.NewMatrix(Nfp, ns)
	for s, slot := range set {
		for j, vi := range dd.Ref.Fmask[slot.nbrFace] {
			R.DataP[j*ns+s] = u.DataP[vi*K+slot.nbrElem]
		}
	}
	return
}

// scatter adds the slots of a face field into an all faces field
func (dd *Discretization) scatter(set faceSet, u, allFaces utils.Matrix) {
	var (
		Nfp    = dd.Ref.Nfp
		ns     = len(set)
		nAll   = dd.K * dd.Ref.NFaces
		NFaces = dd.Ref.NFaces
	)
	for s, slot := range set {
		col := slot.elem*NFaces + slot.face
		for j := 0; j < Nfp; j++ {
			allFaces.DataP[j*nAll+col] += u.DataP[j*ns+s]
		}
	}
}

func (dd *Discretization) checkVolumeField(u utils.Matrix) {
	if nr, nc := u.Dims(); nr != dd.Ref.Np || nc != dd.K {
		panic(fmt.Errorf("volume field is %dx%d, need %dx%d", nr, nc, dd.Ref.Np, dd.K))
	}
}

// Project moves a field between domains: volume to any face set by
// restriction, and any face set to all faces by zero extension
func (dd *Discretization) Project(src, dst types.DomainTag, u utils.Matrix) utils.Matrix {
	switch {
	case src == dst:
		return u.Copy()
	case src.Kind == types.Volume:
		dd.checkVolumeField(u)
		return dd.gather(dd.faceSet(dst), u)
	case dst.Kind == types.AllFaces:
		set := dd.faceSet(src)
		if _, nc := u.Dims(); nc != len(set) {
			panic(fmt.Errorf("field on %s has %d slots, need %d", src, nc, len(set)))
		}
		R := utils.NewMatrix(dd.Ref.Nfp, dd.K*dd.Ref.NFaces)
		dd.scatter(set, u, R)
		return R
	}
	panic(fmt.Errorf("no projection from %s to %s", src, dst))
}

// Normal is the outward unit normal of the interior element on each slot
func (dd *Discretization) Normal(domain types.DomainTag) (n []utils.Matrix) {
	var (
		set = dd.faceSet(domain)
		Nfp = dd.Ref.Nfp
		ns  = len(set)
	)
	n = make([]utils.Matrix, dd.Mesh.Dim)
	for d := range n {
		n[d] = utils.NewMatrix(Nfp, ns)
	}
	for s, slot := range set {
		axis, _ := FaceAxis(slot.face)
		sign := FaceSign(slot.face)
		for j := 0; j < Nfp; j++ {
			n[axis].DataP[j*ns+s] = sign
		}
	}
	return
}

// InteriorTracePair evaluates each volume field on both sides of the faces
// shared by local elements
func (dd *Discretization) InteriorTracePair(fields []utils.Matrix) types.TracePair {
	var (
		interior = make([]utils.Matrix, len(fields))
		exterior = make([]utils.Matrix, len(fields))
	)
	for i, u := range fields {
		dd.checkVolumeField(u)
		interior[i] = dd.gather(dd.interior, u)
		exterior[i] = dd.gatherNeighbor(dd.interior, u)
	}
	return types.NewTracePair(types.InteriorDomain, interior, exterior)
}

// CrossPartitionTracePairs exchanges face values with every neighbor rank and
// returns one pair per neighbor, in ascending rank order. All ranks sharing
// faces must call it the same number of times. Under Run the exchange is
// abandoned with ErrExchange once another rank has failed.
func (dd *Discretization) CrossPartitionTracePairs(fields []utils.Matrix) (pairs []types.TracePair, err error) {
	if len(dd.neighbors) == 0 {
		return
	}
	ctx := dd.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	local := make(map[int][]utils.Matrix, len(dd.neighbors))
	for _, bn := range dd.neighbors {
		vals := make([]utils.Matrix, len(fields))
		for i, u := range fields {
			dd.checkVolumeField(u)
			vals[i] = dd.gather(dd.partitions[bn], u)
		}
		local[bn] = vals
		if err = dd.mailBox.PostMessage(ctx, dd.Rank, bn, vals); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrExchange, err)
		}
	}
	for _, bn := range dd.neighbors {
		var remote []utils.Matrix
		if remote, err = dd.mailBox.ReceiveMessage(ctx, dd.Rank, bn); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrExchange, err)
		}
		if len(remote) != len(fields) {
			return nil, fmt.Errorf("%w: rank %d received %d fields from rank %d, sent %d",
				ErrExchange, dd.Rank, len(remote), bn, len(fields))
		}
		exterior := make([]utils.Matrix, len(remote))
		for i := range remote {
			exterior[i] = remote[i].Copy()
		}
		pairs = append(pairs, types.NewTracePair(types.PartitionDomain(bn), local[bn], exterior))
	}
	return
}

// WeakGradient is (grad phi_i, u) over each element, one component per axis
func (dd *Discretization) WeakGradient(u utils.Matrix) (grad []utils.Matrix) {
	dd.checkVolumeField(u)
	var (
		ref = dd.Ref
		Wu  = u.Copy()
		K   = dd.K
	)
	for i := 0; i < ref.Np; i++ {
		for k := 0; k < K; k++ {
			Wu.DataP[i*K+k] *= ref.W[i]
		}
	}
	grad = make([]utils.Matrix, dd.Mesh.Dim)
	for d := range grad {
		grad[d] = ref.ApplyDrT(d, Wu).Scale(dd.J * dd.Rx[d])
	}
	return
}

// WeakDivergence is the sum over axes of (d phi_i/dx_d, v_d)
func (dd *Discretization) WeakDivergence(v []utils.Matrix) (div utils.Matrix) {
	if len(v) != dd.Mesh.Dim {
		panic(fmt.Errorf("divergence of a %d component vector in %d dimensions", len(v), dd.Mesh.Dim))
	}
	div = dd.Zeros()
	for d := range v {
		dd.checkVolumeField(v[d])
		var (
			ref = dd.Ref
			Wv  = v[d].Copy()
			K   = dd.K
		)
		for i := 0; i < ref.Np; i++ {
			for k := 0; k < K; k++ {
				Wv.DataP[i*K+k] *= ref.W[i]
			}
		}
		div.AddScaled(dd.J*dd.Rx[d], ref.ApplyDrT(d, Wv))
	}
	return
}

// FaceMass integrates an all faces field against the face traces of the
// volume basis
func (dd *Discretization) FaceMass(u utils.Matrix) (R utils.Matrix) {
	var (
		ref    = dd.Ref
		K      = dd.K
		NFaces = ref.NFaces
		nAll   = K * NFaces
	)
	if nr, nc := u.Dims(); nr != ref.Nfp || nc != nAll {
		panic(fmt.Errorf("all faces field is %dx%d, need %dx%d", nr, nc, ref.Nfp, nAll))
	}
	R = dd.Zeros()
	for k := 0; k < K; k++ {
		for f := 0; f < NFaces; f++ {
			axis, _ := FaceAxis(f)
			col := k*NFaces + f
			for j, vi := range ref.Fmask[f] {
				R.DataP[vi*K+k] += ref.Wf[j] * dd.FaceJ[axis] * u.DataP[j*nAll+col]
			}
		}
	}
	return
}

// InverseMass applies the inverse of the diagonal element mass matrix
func (dd *Discretization) InverseMass(u utils.Matrix) (R utils.Matrix) {
	dd.checkVolumeField(u)
	R = u.Copy()
	for i := 0; i < dd.Ref.Np; i++ {
		for k := 0; k < dd.K; k++ {
			R.DataP[i*dd.K+k] /= dd.Ref.W[i] * dd.J
		}
	}
	return
}

// Norm is the discrete L_p norm of a volume field, the max norm for p = +Inf
func (dd *Discretization) Norm(u utils.Matrix, p float64) float64 {
	dd.checkVolumeField(u)
	if math.IsInf(p, 1) {
		return u.MaxAbs()
	}
	return math.Pow(dd.normSum(u, p), 1/p)
}

// normSum is the integral of |u|^p over the local elements
func (dd *Discretization) normSum(u utils.Matrix, p float64) (sum float64) {
	for i := 0; i < dd.Ref.Np; i++ {
		for k := 0; k < dd.K; k++ {
			sum += dd.Ref.W[i] * dd.J * math.Pow(math.Abs(u.DataP[i*dd.K+k]), p)
		}
	}
	return
}
