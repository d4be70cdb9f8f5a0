package types

import (
	"fmt"

	"github.com/notargets/dgflux/utils"
)

type DomainKind uint8

const (
	Volume DomainKind = iota
	AllFaces
	InteriorFaces
	BoundaryFaces
	PartitionFaces
)

// DomainTag names a set of degrees of freedom a field lives on: the element
// volumes, every element face, or one of the face subsets used for flux
// computation.
type DomainTag struct {
	Kind DomainKind
	Tag  string // boundary tag, for BoundaryFaces
	Rank int    // neighbor partition, for PartitionFaces
}

var (
	VolumeDomain   = DomainTag{Kind: Volume}
	AllFacesDomain = DomainTag{Kind: AllFaces}
	InteriorDomain = DomainTag{Kind: InteriorFaces}
)

func BoundaryDomain(tag string) DomainTag {
	return DomainTag{Kind: BoundaryFaces, Tag: tag}
}

func PartitionDomain(rank int) DomainTag {
	return DomainTag{Kind: PartitionFaces, Rank: rank}
}

func (dt DomainTag) String() string {
	switch dt.Kind {
	case Volume:
		return "vol"
	case AllFaces:
		return "all_faces"
	case InteriorFaces:
		return "int_faces"
	case BoundaryFaces:
		return "btag:" + dt.Tag
	case PartitionFaces:
		return fmt.Sprintf("part:%d", dt.Rank)
	}
	return "unknown"
}

// TracePair holds a set of fields evaluated on both sides of the faces in Domain
type TracePair struct {
	Domain             DomainTag
	Interior, Exterior []utils.Matrix
}

func NewTracePair(domain DomainTag, interior, exterior []utils.Matrix) TracePair {
	if len(interior) != len(exterior) {
		panic(fmt.Errorf("trace pair on %s: %d interior fields, %d exterior fields",
			domain, len(interior), len(exterior)))
	}
	return TracePair{Domain: domain, Interior: interior, Exterior: exterior}
}

func (tp TracePair) Average() (avg []utils.Matrix) {
	avg = make([]utils.Matrix, len(tp.Interior))
	for i := range tp.Interior {
		avg[i] = tp.Interior[i].Copy().Add(tp.Exterior[i]).Scale(0.5)
	}
	return
}

// Jump is exterior minus interior
func (tp TracePair) Jump() (jump []utils.Matrix) {
	jump = make([]utils.Matrix, len(tp.Interior))
	for i := range tp.Interior {
		jump[i] = tp.Exterior[i].Copy().Subtract(tp.Interior[i])
	}
	return
}
