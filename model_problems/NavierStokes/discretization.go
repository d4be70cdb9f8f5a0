package NavierStokes

import (
	"github.com/notargets/dgflux/types"
	"github.com/notargets/dgflux/utils"
)

// Discretization is what the operators need from a DG discretization. Volume
// fields are Np x K, face fields Nfp x Nslots of the face set named by their
// domain. *DGTensor.Discretization implements it.
type Discretization interface {
	Dim() int
	Order() int
	Zeros() utils.Matrix
	Nodes() []utils.Matrix
	MinElementSize() float64
	// BoundaryTags are the tags with faces in this discretization
	BoundaryTags() []string
	// MeshBoundaryTags are the tags of the whole mesh, the same on every partition
	MeshBoundaryTags() []string

	InteriorTracePair(fields []utils.Matrix) types.TracePair
	// CrossPartitionTracePairs blocks until the neighbor partitions have sent
	// their side of every shared face. It fails when the exchange is abandoned.
	CrossPartitionTracePairs(fields []utils.Matrix) ([]types.TracePair, error)

	WeakGradient(u utils.Matrix) []utils.Matrix
	WeakDivergence(v []utils.Matrix) utils.Matrix
	FaceMass(allFaces utils.Matrix) utils.Matrix
	InverseMass(u utils.Matrix) utils.Matrix
	Normal(domain types.DomainTag) []utils.Matrix
	Project(src, dst types.DomainTag, u utils.Matrix) utils.Matrix
	Norm(u utils.Matrix, p float64) float64
}
