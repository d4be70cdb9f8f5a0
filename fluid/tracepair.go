package fluid

import (
	"github.com/notargets/dgflux/types"
)

// StateTracePair is a conserved state on both sides of a face set
type StateTracePair struct {
	Domain             types.DomainTag
	Interior, Exterior ConservedState
}

func NewStateTracePair(dim int, tp types.TracePair) (pair StateTracePair, err error) {
	pair.Domain = tp.Domain
	if pair.Interior, err = Split(dim, tp.Interior); err != nil {
		return
	}
	if pair.Exterior, err = Split(dim, tp.Exterior); err != nil {
		return
	}
	err = pair.Interior.CheckShape(pair.Exterior)
	return
}

func (p StateTracePair) Flat() types.TracePair {
	return types.NewTracePair(p.Domain, p.Interior.Join(), p.Exterior.Join())
}

func (p StateTracePair) Average() ConservedState {
	avg, _ := Split(p.Interior.Dim(), p.Flat().Average())
	return avg
}

// Jump is exterior minus interior
func (p StateTracePair) Jump() ConservedState {
	jump, _ := Split(p.Interior.Dim(), p.Flat().Jump())
	return jump
}

// FluxTracePair is a gradient or flux on both sides of a face set
type FluxTracePair struct {
	Domain             types.DomainTag
	Interior, Exterior ConservedFlux
}

func NewFluxTracePair(dim int, tp types.TracePair) (pair FluxTracePair, err error) {
	pair.Domain = tp.Domain
	if pair.Interior, err = FluxSplit(dim, tp.Interior); err != nil {
		return
	}
	if pair.Exterior, err = FluxSplit(dim, tp.Exterior); err != nil {
		return
	}
	err = pair.Interior.checkShape(pair.Exterior)
	return
}

func (p FluxTracePair) Flat() types.TracePair {
	return types.NewTracePair(p.Domain, p.Interior.Join(), p.Exterior.Join())
}

func (p FluxTracePair) Average() ConservedFlux {
	avg, _ := FluxSplit(p.Interior.Dim(), p.Flat().Average())
	return avg
}
