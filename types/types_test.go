package types

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/notargets/dgflux/utils"
)

func TestBCNames(t *testing.T) {
	bc, err := NewBCFLAG(" Symmetry ")
	assert.NoError(t, err)
	assert.Equal(t, BC_Slip, bc)
	assert.Equal(t, "Slip", bc.String())
	_, err = NewBCFLAG("cylinder")
	assert.Error(t, err)
}

func TestTracePair(t *testing.T) {
	in := []utils.Matrix{utils.NewMatrix(1, 2, []float64{1, 2})}
	ex := []utils.Matrix{utils.NewMatrix(1, 2, []float64{3, 6})}
	tp := NewTracePair(InteriorDomain, in, ex)
	assert.Equal(t, []float64{2, 4}, tp.Average()[0].DataP)
	assert.Equal(t, []float64{2, 4}, tp.Jump()[0].DataP)
	// Inputs are untouched
	assert.Equal(t, []float64{1, 2}, in[0].DataP)
	assert.Equal(t, "btag:inflow", BoundaryDomain("inflow").String())
	assert.Equal(t, "part:3", PartitionDomain(3).String())
	assert.Panics(t, func() { NewTracePair(AllFacesDomain, in, nil) })
}
