package cmd

import (
	"bytes"
	"context"
	"errors"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/magiconair/properties/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/dgflux/InputParameters"
	"github.com/notargets/dgflux/eos"
	"github.com/notargets/dgflux/model_problems/NavierStokes"
	"github.com/notargets/dgflux/utils"
)

func parseCase(t *testing.T, fileInput string) *Case {
	var input InputParameters.InputParameters
	require.NoError(t, input.Parse([]byte(fileInput)))
	c, err := NewCase(&input)
	require.NoError(t, err)
	return c
}

const lumpCase = `
Title: Lump
PolynomialOrder: 3
Elements: [12, 6]
Lower: [-3, -3]
Upper: [3, 3]
Periodic: [1]
InitType: lump
Velocity: [1, 0.5]
InitParams:
  X0: 0.2
BCs:
  all:
    Type: exact
Partitions: 3
`

func TestNewCase(t *testing.T) {
	c := parseCase(t, lumpCase)
	assert.Equal(t, c.IP.Dimension, 2)
	assert.Equal(t, c.Flux, NavierStokes.FLUX_LaxFriedrichs)
	_, isSingle := c.Gas.(*eos.IdealSingleGas)
	assert.Equal(t, isSingle, true)
	assert.Equal(t, len(c.Boundaries), 1)
	assert.Equal(t, c.LevelElements(24), []int{24, 12})

	mesh, err := c.Mesh(nil)
	require.NoError(t, err)
	assert.Equal(t, mesh.BoundaryTags(), []string{"all"})
	mesh, err = c.Mesh([]int{4, 3})
	require.NoError(t, err)
	assert.Equal(t, mesh.Nel, []int{4, 3})
	// Two elements on the periodic axis are too few
	_, err = c.Mesh([]int{4, 2})
	require.Error(t, err)

	// A noslip wall without its temperature is refused
	_, err = NewCase(&InputParameters.InputParameters{})
	require.Error(t, err)
	bad := strings.Replace(lumpCase, "Type: exact", "Type: noslip", 1)
	var input InputParameters.InputParameters
	require.NoError(t, input.Parse([]byte(bad)))
	_, err = NewCase(&input)
	require.Error(t, err)
}

func TestCaseOperators(t *testing.T) {
	var (
		mixture = `
PolynomialOrder: 2
Elements: [3, 3]
Lower: [0, 0]
Upper: [1, 1]
Periodic: [0, 1]
InitType: multilump
Operator: NS
Gas:
  MolecularWeights: [28, 32]
  SpeciesGammas: [1.4, 1.3]
Transport:
  Model: simple
  Mu: 0.01
  Kappa: 0.02
  Diffusivity: [0.001, 0.002]
`
		c = parseCase(t, mixture)
	)
	_, isMixture := c.Gas.(*eos.IdealMixture)
	assert.Equal(t, isMixture, true)
	ev, err := c.Evaluate(nil, 0, false)
	require.NoError(t, err)
	assert.Equal(t, ev.Names, []string{"mass", "energy", "momentum_x", "momentum_y", "species_0", "species_1"})
	assert.Equal(t, utils.IsNan(ev.L2), false)

	// The vortex is two dimensional only
	var input InputParameters.InputParameters
	require.NoError(t, input.Parse([]byte(`
PolynomialOrder: 2
Elements: [4]
Lower: [0]
Upper: [1]
InitType: vortex
`)))
	_, err = NewCase(&input)
	require.Error(t, err)
}

func TestConvergenceStudies(t *testing.T) {
	var (
		c = parseCase(t, `
PolynomialOrder: 3
Elements: [8]
Lower: [-3]
Upper: [3]
InitType: lump
Velocity: [1]
BCs:
  all:
    Type: prescribed
Partitions: 2
`)
	)
	studies, err := c.ConvergenceStudies([]int{16, 32, 64}, 0.2)
	require.NoError(t, err)
	assert.Equal(t, len(studies), 4)
	mx := studies[len(studies)-1]
	assert.Equal(t, mx.Title, "max")
	assert.Equal(t, mx.Satisfies(2.5, 1e-11), true)

	var buf bytes.Buffer
	require.NoError(t, WriteStudies(&buf, studies))
	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, len(records), 1+4*3)
	parsed, keys, err := utils.ParseConvergenceCSV(records)
	require.NoError(t, err)
	assert.Equal(t, len(keys), 4)
	assert.Equal(t, parsed[keys[3]].Errors, mx.Errors)

	_, err = c.ConvergenceStudies([]int{16}, 0)
	require.Error(t, err)
}

func TestSolve(t *testing.T) {
	c := parseCase(t, `
PolynomialOrder: 2
Elements: [4, 3]
Lower: [0, 0]
Upper: [1, 1]
Periodic: [0, 1]
InitType: uniform
Velocity: [0.5, 0.25]
FinalTime: 0.05
StatusEvery: 2
Partitions: 2
`)
	var history, status bytes.Buffer
	s, err := c.Solve(context.Background(), &history, &status)
	require.NoError(t, err)
	assert.Equal(t, s.Time, 0.05)
	assert.Equal(t, len(s.RunID), 36)
	// A uniform state is steady
	norms := s.Norms()
	require.InDelta(t, 1., norms[0], 1e-12)
	records, err := csv.NewReader(&history).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, records[0][:4], []string{"run_id", "step", "time", "dt"})
	assert.Equal(t, records[len(records)-1][0], s.RunID)
	assert.Equal(t, strings.Contains(status.String(), "step"), true)
}

func TestSolveCancelled(t *testing.T) {
	c := parseCase(t, `
PolynomialOrder: 2
Elements: [6]
Lower: [0]
Upper: [1]
Periodic: [0]
InitType: uniform
Velocity: [0.5]
FinalTime: 1
Partitions: 3
`)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s, err := c.Solve(ctx, nil, nil)
	require.Error(t, err)
	assert.Equal(t, errors.Is(err, context.Canceled), true)
	assert.Equal(t, s.Step, 0)
}
