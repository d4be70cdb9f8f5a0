package DGTensor

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/notargets/dgflux/utils"
)

// PartitionedDiscretization splits the global element range of a box mesh
// into contiguous blocks, one Discretization per rank. Ranks share face
// values through a common MailBox.
type PartitionedDiscretization struct {
	Mesh         *BoxMesh
	Ref          *ReferenceElement
	PartitionMap *utils.PartitionMap
	Parts        []*Discretization

	mailBox *utils.MailBox[[]utils.Matrix]
}

func NewPartitionedDiscretization(mesh *BoxMesh, N, NP int) (pd *PartitionedDiscretization, err error) {
	if err = mesh.Validate(); err != nil {
		return
	}
	K := mesh.NumElements()
	if NP < 1 || NP > K {
		err = fmt.Errorf("%w: %d partitions for %d elements", ErrMeshConfig, NP, K)
		return
	}
	if N < 1 {
		err = fmt.Errorf("%w: polynomial order %d", ErrMeshConfig, N)
		return
	}
	var (
		cn    = mesh.Connect()
		pm    = utils.NewPartitionMap(NP, K)
		ref   = NewReferenceElement(mesh.Dim, N)
		pairs [][2]int
	)
	pd = &PartitionedDiscretization{
		Mesh:         mesh,
		Ref:          ref,
		PartitionMap: pm,
		Parts:        make([]*Discretization, NP),
	}
	for rank := range pd.Parts {
		pd.Parts[rank] = newDiscretization(mesh, ref, cn, pm, rank)
		for _, nbr := range pd.Parts[rank].neighbors {
			pairs = append(pairs, [2]int{rank, nbr})
		}
	}
	mb := utils.NewMailBox[[]utils.Matrix](NP, pairs, 2)
	for _, dd := range pd.Parts {
		dd.mailBox = mb
	}
	pd.mailBox = mb
	return
}

// NewDiscretization is a single rank discretization of the whole mesh
func NewDiscretization(mesh *BoxMesh, N int) (dd *Discretization, err error) {
	var pd *PartitionedDiscretization
	if pd, err = NewPartitionedDiscretization(mesh, N, 1); err != nil {
		return
	}
	dd = pd.Parts[0]
	return
}

func (pd *PartitionedDiscretization) NumRanks() int { return len(pd.Parts) }

// Run calls f concurrently for every rank and returns the first error
func (pd *PartitionedDiscretization) Run(f func(rank int, dd *Discretization) error) error {
	return pd.RunContext(context.Background(), f)
}

// RunContext is Run under ctx. When a rank fails, or ctx is done, the other
// ranks' pending exchanges are abandoned and the first error is returned.
func (pd *PartitionedDiscretization) RunContext(ctx context.Context,
	f func(rank int, dd *Discretization) error) (err error) {
	g, gctx := errgroup.WithContext(ctx)
	for _, dd := range pd.Parts {
		dd.ctx = gctx
	}
	for rank, dd := range pd.Parts {
		rank, dd := rank, dd
		g.Go(func() error {
			return f(rank, dd)
		})
	}
	err = g.Wait()
	for _, dd := range pd.Parts {
		dd.ctx = nil
	}
	if err != nil && pd.mailBox != nil {
		pd.mailBox.Drain()
	}
	return
}

// Scatter splits a global Np x K field into the per rank blocks
func (pd *PartitionedDiscretization) Scatter(global utils.Matrix) (local []utils.Matrix) {
	var (
		Np     = pd.Ref.Np
		nr, KG = global.Dims()
	)
	if nr != Np || KG != pd.Mesh.NumElements() {
		panic(fmt.Errorf("global field is %dx%d, need %dx%d", nr, KG, Np, pd.Mesh.NumElements()))
	}
	local = make([]utils.Matrix, len(pd.Parts))
	for rank, dd := range pd.Parts {
		L := dd.Zeros()
		for i := 0; i < Np; i++ {
			copy(L.DataP[i*dd.K:(i+1)*dd.K], global.DataP[i*KG+dd.KOffset:i*KG+dd.KOffset+dd.K])
		}
		local[rank] = L
	}
	return
}

// Gather reassembles per rank blocks into a global field
func (pd *PartitionedDiscretization) Gather(local []utils.Matrix) (global utils.Matrix) {
	var (
		Np = pd.Ref.Np
		KG = pd.Mesh.NumElements()
	)
	global = utils.NewMatrix(Np, KG)
	for rank, dd := range pd.Parts {
		dd.checkVolumeField(local[rank])
		for i := 0; i < Np; i++ {
			copy(global.DataP[i*KG+dd.KOffset:i*KG+dd.KOffset+dd.K], local[rank].DataP[i*dd.K:(i+1)*dd.K])
		}
	}
	return
}

// ScatterFields splits each field and regroups the blocks by rank
func (pd *PartitionedDiscretization) ScatterFields(fields []utils.Matrix) (local [][]utils.Matrix) {
	local = make([][]utils.Matrix, len(pd.Parts))
	for rank := range local {
		local[rank] = make([]utils.Matrix, len(fields))
	}
	for i, u := range fields {
		for rank, L := range pd.Scatter(u) {
			local[rank][i] = L
		}
	}
	return
}

func (pd *PartitionedDiscretization) GatherFields(local [][]utils.Matrix) (fields []utils.Matrix) {
	if len(local) == 0 {
		return
	}
	fields = make([]utils.Matrix, len(local[0]))
	blocks := make([]utils.Matrix, len(local))
	for i := range fields {
		for rank := range local {
			blocks[rank] = local[rank][i]
		}
		fields[i] = pd.Gather(blocks)
	}
	return
}

// Norm combines the per rank norms of a field given as rank blocks
func (pd *PartitionedDiscretization) Norm(local []utils.Matrix, p float64) (norm float64) {
	if math.IsInf(p, 1) {
		for rank, dd := range pd.Parts {
			norm = math.Max(norm, dd.Norm(local[rank], p))
		}
		return
	}
	for rank, dd := range pd.Parts {
		dd.checkVolumeField(local[rank])
		norm += dd.normSum(local[rank], p)
	}
	return math.Pow(norm, 1/p)
}
