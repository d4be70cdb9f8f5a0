package NavierStokes

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/dgflux/DGTensor"
	"github.com/notargets/dgflux/eos"
	"github.com/notargets/dgflux/fluid"
	"github.com/notargets/dgflux/model_problems/NavierStokes/initializers"
	"github.com/notargets/dgflux/model_problems/NavierStokes/isentropic_vortex"
	"github.com/notargets/dgflux/types"
	"github.com/notargets/dgflux/utils"
)

// relativeError is the largest max norm error over the equations, relative to
// the largest magnitude of the exact RHS
func relativeError(discr Discretization, rhs, exact fluid.ConservedState) (e float64) {
	diff, err := rhs.Sub(exact)
	if err != nil {
		panic(err)
	}
	for _, f := range diff.Join() {
		e = math.Max(e, discr.Norm(f, math.Inf(1)))
	}
	return e / math.Max(exact.MaxAbs(), 1e-300)
}

func allTags(discr Discretization, bc BoundaryCondition) map[string]BoundaryCondition {
	bcs := make(map[string]BoundaryCondition)
	for _, tag := range discr.MeshBoundaryTags() {
		bcs[tag] = bc
	}
	return bcs
}

func TestUniformFlowHasZeroRHS(t *testing.T) {
	var (
		st = eos.SimpleTransport{Mu: 0.1, MuBulk: 0.05, Kappa: 0.2, Diffusivity: []float64{0.05}}
	)
	for dim := 1; dim <= 3; dim++ {
		for _, nspec := range []int{0, 2} {
			mesh := DGTensor.NewUniformBoxMesh(dim, 3, 0, 1)
			if dim > 1 {
				mesh.SetPeriodic(1)
			}
			N := 3
			if dim == 3 {
				N = 2
			}
			dd, err := DGTensor.NewDiscretization(mesh, N)
			require.NoError(t, err)
			var (
				gas       = eos.NewIdealSingleGas(1.4, 1, st)
				velocity  = []float64{0.3, -0.2, 0.1}
				fractions []float64
			)
			for s := 0; s < nspec; s++ {
				fractions = append(fractions, 1./float64(nspec))
			}
			cv := initializers.NewUniform(dim, 1.2, 2.5, velocity, fractions...).State(dd.Nodes(), 0)
			bcs := allTags(dd, DummyBoundary())
			msg := fmt.Sprintf("dim %d, %d species", dim, nspec)
			rhs, err := EulerOperator(dd, gas, bcs, cv, 0)
			require.NoError(t, err, msg)
			assert.Less(t, rhs.MaxAbs(), 1e-9, msg)
			rhs, err = EulerOperatorFlux(dd, gas, bcs, cv, 0, FLUX_Central)
			require.NoError(t, err, msg)
			assert.Less(t, rhs.MaxAbs(), 1e-9, msg)
			rhs, err = NSOperator(dd, gas, bcs, cv, 0)
			require.NoError(t, err, msg)
			assert.Less(t, rhs.MaxAbs(), 1e-9, msg)
		}
	}
}

// eulerConvergence refines a 2D or 1D box with the exact solution prescribed
// on the boundary and records the RHS error
func eulerConvergence(t *testing.T, title string, dim, N int, nels []int, lower, upper float64,
	gas eos.GasEOS, init initializers.Initializer, tm float64) *utils.ConvergenceStudy {
	cs := utils.NewConvergenceStudy(title, N)
	for _, nel := range nels {
		mesh := DGTensor.NewUniformBoxMesh(dim, nel, lower, upper)
		dd, err := DGTensor.NewDiscretization(mesh, N)
		require.NoError(t, err)
		var (
			cv  = init.State(dd.Nodes(), tm)
			bcs = allTags(dd, PrescribedBoundary(init.State))
		)
		rhs, err := EulerOperator(dd, gas, bcs, cv, tm)
		require.NoError(t, err)
		cs.Add(dd.MinElementSize(), relativeError(dd, rhs, init.ExactRHS(dd.Nodes(), tm)))
	}
	t.Log(cs.String())
	return cs
}

func TestEulerLumpConvergence(t *testing.T) {
	gas := eos.NewIdealSingleGas(1.4, 1)
	for _, N := range []int{2, 3} {
		l := initializers.NewLump(1, 1.4)
		l.Velocity[0] = 1
		cs := eulerConvergence(t, "lump 1D", 1, N, []int{16, 32, 64}, -3, 3, gas, l, 0.2)
		assert.True(t, cs.Satisfies(float64(N)-0.5, 1e-11), cs.String())
	}
	cs := eulerConvergence(t, "lump 2D", 2, 3, []int{12, 24, 48}, -3, 3, gas, newLump2D(), 0.2)
	assert.True(t, cs.Satisfies(2.5, 1e-11), cs.String())
}

func TestEulerMulticomponentLumpConvergence(t *testing.T) {
	// Equal species gammas keep the pressure uniform
	mix := eos.NewIdealMixture([]float64{28, 32, 4}, []float64{1.4, 1.4, 1.4})
	ml := initializers.NewMulticomponentLump(2, 3, 1.4)
	ml.Velocity[0], ml.Velocity[1] = 1, -0.5
	cs := eulerConvergence(t, "multicomponent lump", 2, 3, []int{12, 24, 48}, -3, 3, mix, ml, 0)
	assert.True(t, cs.Satisfies(2.5, 1e-11), cs.String())
}

func TestEulerVortexConvergence(t *testing.T) {
	var (
		gas = eos.NewIdealSingleGas(1.4, 1)
		iv  = isentropic_vortex.NewIVortex(5, 5, 0, 1.4)
		cs  = utils.NewConvergenceStudy("isentropic vortex", 3)
	)
	// Coarser meshes are still pre-asymptotic for this vortex
	for _, nel := range []int{32, 64, 128} {
		mesh := DGTensor.NewBoxMesh([]int{nel, nel}, []float64{0, -5}, []float64{10, 5})
		dd, err := DGTensor.NewDiscretization(mesh, 3)
		require.NoError(t, err)
		rhs, err := EulerOperator(dd, gas, allTags(dd, PrescribedBoundary(iv.State)), iv.State(dd.Nodes(), 0), 0)
		require.NoError(t, err)
		cs.Add(dd.MinElementSize(), relativeError(dd, rhs, iv.ExactRHS(dd.Nodes(), 0)))
	}
	t.Log(cs.String())
	assert.True(t, cs.Satisfies(2.5, 1e-11), cs.String())
}

// diffusiveConvergence runs the Navier-Stokes operator on waves periodic in x
func diffusiveConvergence(t *testing.T, title string, dim, N int, gas eos.ViscousEOS,
	init initializers.Initializer) *utils.ConvergenceStudy {
	cs := utils.NewConvergenceStudy(title, N)
	for _, nel := range []int{8, 16, 32} {
		var (
			nels   = []int{nel, 3, 3}[:dim]
			lower  = make([]float64, dim)
			upper  = []float64{2 * math.Pi, 1, 1}[:dim]
			mesh   = DGTensor.NewBoxMesh(nels, lower, upper)
			bcsMap = map[string]BoundaryCondition{}
		)
		for d := 0; d < dim; d++ {
			mesh.SetPeriodic(d)
		}
		dd, err := DGTensor.NewDiscretization(mesh, N)
		require.NoError(t, err)
		rhs, err := NSOperator(dd, gas, bcsMap, init.State(dd.Nodes(), 0), 0)
		require.NoError(t, err)
		cs.Add(2*math.Pi/float64(nel), relativeError(dd, rhs, init.ExactRHS(dd.Nodes(), 0)))
	}
	t.Log(cs.String())
	return cs
}

func TestDiffusionAccuracy(t *testing.T) {
	for _, N := range []int{3, 4} {
		var (
			minOrder = float64(N) - 1.5
			floor    = 1e-6
		)
		{
			gas := eos.NewIdealSingleGas(1.4, 1, eos.SimpleTransport{Kappa: 0.1})
			tw := &initializers.TemperatureWave{Gamma: 1.4, GasConst: 1, P0: 1, T0: 1, Amplitude: 0.1, K: 1, Kappa: 0.1}
			cs := diffusiveConvergence(t, "temperature wave", 1, N, gas, tw)
			assert.True(t, cs.Satisfies(minOrder, floor), cs.String())
		}
		{
			gas := eos.NewIdealSingleGas(1.4, 1, eos.SimpleTransport{Diffusivity: []float64{0.1}})
			sw := &initializers.SpeciesWave{Gamma: 1.4, Rho0: 1, P0: 1, Y0: 0.5, Amplitude: 0.1, K: 1, Diffusivity: 0.1}
			cs := diffusiveConvergence(t, "species wave", 1, N, gas, sw)
			assert.True(t, cs.Satisfies(minOrder, floor), cs.String())
		}
		{
			gas := eos.NewIdealSingleGas(1.4, 1, eos.SimpleTransport{Mu: 0.1})
			sh := &initializers.ShearWave{Gamma: 1.4, Rho0: 1, P0: 1, Amplitude: 0.1, K: 1, Mu: 0.1}
			cs := diffusiveConvergence(t, "shear wave", 2, N, gas, sh)
			assert.True(t, cs.Satisfies(minOrder, floor), cs.String())
		}
	}
}

func TestNavierStokesWithoutTransportIsEuler(t *testing.T) {
	var (
		inviscid = eos.NewIdealSingleGas(1.4, 1)
		zero     = eos.NewIdealSingleGas(1.4, 1, eos.SimpleTransport{})
		lump     = newLump2D()
		mesh     = DGTensor.NewUniformBoxMesh(2, 4, -2, 2).SetPeriodic(0)
	)
	dd, err := DGTensor.NewDiscretization(mesh, 3)
	require.NoError(t, err)
	var (
		cv  = lump.State(dd.Nodes(), 0)
		bcs = allTags(dd, PrescribedBoundary(lump.State))
	)
	euler, err := EulerOperator(dd, inviscid, bcs, cv, 0)
	require.NoError(t, err)
	ns, err := NSOperator(dd, zero, bcs, cv, 0)
	require.NoError(t, err)
	assert.Less(t, relativeError(dd, ns, euler), 1e-12)
}

func TestOperatorErrors(t *testing.T) {
	var (
		gas  = eos.NewIdealSingleGas(1.4, 1, eos.SimpleTransport{Mu: 0.1})
		mesh = DGTensor.NewUniformBoxMesh(2, 3, 0, 1).SetPeriodic(0).SetSideTag(1, 1, "outflow")
	)
	dd, err := DGTensor.NewDiscretization(mesh, 2)
	require.NoError(t, err)
	cv := initializers.NewUniform(2, 1, 2.5, []float64{0.1, 0}).State(dd.Nodes(), 0)
	{ // A mesh tag without a boundary condition
		bcs := map[string]BoundaryCondition{DGTensor.DefaultBoundaryTag: DummyBoundary()}
		rhs, err := EulerOperator(dd, gas, bcs, cv, 0)
		assert.ErrorIs(t, err, ErrUnknownBoundaryTag)
		assert.Nil(t, rhs.Momentum)
		_, err = NSOperator(dd, gas, bcs, cv, 0)
		assert.ErrorIs(t, err, ErrUnknownBoundaryTag)
	}
	bcs := map[string]BoundaryCondition{
		DGTensor.DefaultBoundaryTag: IsothermalNoSlipBoundary(2.5),
		"outflow":                   PressureOutflowBoundary(1),
	}
	{ // State of the wrong dimension
		cv1 := initializers.NewUniform(1, 1, 2.5, nil).State(dd.Nodes()[:1], 0)
		_, err := EulerOperator(dd, gas, bcs, cv1, 0)
		assert.ErrorIs(t, err, fluid.ErrShapeMismatch)
	}
	{ // Fields that do not match the discretization
		small := initializers.NewUniform(2, 1, 2.5, nil).State([]utils.Matrix{utils.NewMatrix(2, 2), utils.NewMatrix(2, 2)}, 0)
		_, err := NSOperator(dd, gas, bcs, small, 0)
		assert.ErrorIs(t, err, fluid.ErrShapeMismatch)
	}
	{ // Species count differs from the mixture
		mix := eos.NewIdealMixture([]float64{28, 32}, []float64{1.4, 1.4})
		_, err := EulerOperator(dd, mix, bcs, cv, 0)
		assert.ErrorIs(t, err, fluid.ErrShapeMismatch)
	}
	{ // Navier-Stokes without a transport model
		_, err := NSOperator(dd, eos.NewIdealSingleGas(1.4, 1), bcs, cv, 0)
		assert.ErrorIs(t, err, ErrConfiguration)
	}
	{ // The walls and the outflow produce a finite RHS
		rhs, err := NSOperator(dd, gas, bcs, cv, 0)
		require.NoError(t, err)
		for _, f := range rhs.Join() {
			assert.False(t, utils.IsNan(f))
		}
	}
}

func TestUnknownTagFailsOnEveryRank(t *testing.T) {
	var (
		gas  = eos.NewIdealSingleGas(1.4, 1)
		mesh = DGTensor.NewUniformBoxMesh(1, 6, 0, 1).SetSideTag(0, 1, "outflow")
		bcs  = map[string]BoundaryCondition{DGTensor.DefaultBoundaryTag: DummyBoundary()}
	)
	pd, err := DGTensor.NewPartitionedDiscretization(mesh, 2, 3)
	require.NoError(t, err)
	var failed [3]bool
	err = pd.Run(func(rank int, dd *DGTensor.Discretization) error {
		local := initializers.NewUniform(1, 1, 2.5, []float64{0.1}).State(dd.Nodes(), 0)
		_, err := EulerOperator(dd, gas, bcs, local, 0)
		failed[rank] = err != nil
		return err
	})
	assert.ErrorIs(t, err, ErrUnknownBoundaryTag)
	assert.Equal(t, [3]bool{true, true, true}, failed)
}

// partitioned runs op on every rank of pd and gathers the global RHS
func partitioned(t *testing.T, pd *DGTensor.PartitionedDiscretization, cv fluid.ConservedState,
	op func(dd *DGTensor.Discretization, cv fluid.ConservedState) (fluid.ConservedState, error)) fluid.ConservedState {
	var (
		local = pd.ScatterFields(cv.Join())
		out   = make([][]utils.Matrix, pd.NumRanks())
	)
	err := pd.Run(func(rank int, dd *DGTensor.Discretization) error {
		lcv, err := fluid.Split(cv.Dim(), local[rank])
		if err != nil {
			return err
		}
		rhs, err := op(dd, lcv)
		if err != nil {
			return err
		}
		out[rank] = rhs.Join()
		return nil
	})
	require.NoError(t, err)
	rhs, err := fluid.Split(cv.Dim(), pd.GatherFields(out))
	require.NoError(t, err)
	return rhs
}

func TestPartitionedOperators(t *testing.T) {
	var (
		st   = eos.SimpleTransport{Mu: 0.01, MuBulk: 0.005, Kappa: 0.02, Diffusivity: []float64{0.01}}
		mix  = eos.NewIdealMixture([]float64{28, 32, 4}, []float64{1.4, 1.3, 1.66}, st)
		ml   = initializers.NewMulticomponentLump(2, 3, 1.4)
		mesh = DGTensor.NewBoxMesh([]int{6, 4}, []float64{-2, -2}, []float64{2, 2}).SetPeriodic(0)
	)
	ml.Velocity[0], ml.Velocity[1] = 0.5, 0.25
	bcs := map[string]BoundaryCondition{DGTensor.DefaultBoundaryTag: PrescribedBoundary(ml.State)}
	ops := map[string]func(dd *DGTensor.Discretization, cv fluid.ConservedState) (fluid.ConservedState, error){
		"euler": func(dd *DGTensor.Discretization, cv fluid.ConservedState) (fluid.ConservedState, error) {
			return EulerOperator(dd, mix, bcs, cv, 0.1)
		},
		"navier-stokes": func(dd *DGTensor.Discretization, cv fluid.ConservedState) (fluid.ConservedState, error) {
			return NSOperator(dd, mix, bcs, cv, 0.1)
		},
	}
	single, err := DGTensor.NewPartitionedDiscretization(mesh, 3, 1)
	require.NoError(t, err)
	cv := ml.State(single.Parts[0].Nodes(), 0.1)
	for name, op := range ops {
		reference := partitioned(t, single, cv, op)
		for _, NP := range []int{2, 3, 5} {
			pd, err := DGTensor.NewPartitionedDiscretization(mesh, 3, NP)
			require.NoError(t, err)
			rhs := partitioned(t, pd, cv, op)
			assert.Less(t, relativeError(single.Parts[0], rhs, reference), 1e-12, "%s on %d ranks", name, NP)
		}
	}
}

func TestBoundaryErrorOnOneRank(t *testing.T) {
	var (
		st   = eos.SimpleTransport{Mu: 0.01, Kappa: 0.01, Diffusivity: []float64{0.01}}
		mix  = eos.NewIdealMixture([]float64{28}, []float64{1.4}, st)
		mesh = DGTensor.NewUniformBoxMesh(1, 6, -1, 1).SetSideTag(0, 0, "in")
		ml   = initializers.NewMulticomponentLump(1, 1, 1.4)
		// One species more than the mixture carries
		bad = initializers.NewUniform(1, 1, 2.5, []float64{0.1}, 0.5, 0.5)
	)
	ml.Velocity[0] = 0.5
	type operator = func(dd *DGTensor.Discretization, cv fluid.ConservedState) (fluid.ConservedState, error)
	ops := map[string]func(bcs map[string]BoundaryCondition) operator{
		"euler": func(bcs map[string]BoundaryCondition) operator {
			return func(dd *DGTensor.Discretization, cv fluid.ConservedState) (fluid.ConservedState, error) {
				return EulerOperator(dd, mix, bcs, cv, 0)
			}
		},
		"navier-stokes": func(bcs map[string]BoundaryCondition) operator {
			return func(dd *DGTensor.Discretization, cv fluid.ConservedState) (fluid.ConservedState, error) {
				return NSOperator(dd, mix, bcs, cv, 0)
			}
		},
	}
	single, err := DGTensor.NewPartitionedDiscretization(mesh, 2, 1)
	require.NoError(t, err)
	cv := ml.State(single.Parts[0].Nodes(), 0)
	for name, bind := range ops {
		pd, err := DGTensor.NewPartitionedDiscretization(mesh, 2, 3)
		require.NoError(t, err)
		var (
			op = bind(map[string]BoundaryCondition{
				"in":                        PrescribedBoundary(bad.State),
				DGTensor.DefaultBoundaryTag: DummyBoundary(),
			})
			local = pd.ScatterFields(cv.Join())
			errs  [3]error
			done  = make(chan error, 1)
		)
		go func() {
			done <- pd.Run(func(rank int, dd *DGTensor.Discretization) error {
				lcv, err := fluid.Split(1, local[rank])
				if err != nil {
					return err
				}
				_, errs[rank] = op(dd, lcv)
				return errs[rank]
			})
		}()
		select {
		case err = <-done:
		case <-time.After(3 * time.Second):
			t.Fatalf("%s: ranks kept waiting after rank 0 failed", name)
		}
		assert.ErrorIs(t, err, fluid.ErrShapeMismatch, name)
		assert.ErrorIs(t, errs[0], fluid.ErrShapeMismatch, name)
		// Rank 0 fails before it sends anything to rank 1
		assert.ErrorIs(t, errs[1], DGTensor.ErrExchange, name)

		// The same partitions still evaluate a good case afterwards
		good := bind(map[string]BoundaryCondition{
			"in":                        PrescribedBoundary(ml.State),
			DGTensor.DefaultBoundaryTag: DummyBoundary(),
		})
		reference := partitioned(t, single, cv, good)
		assert.Less(t, relativeError(single.Parts[0], partitioned(t, pd, cv, good), reference), 1e-12, name)
	}
}

// onAllFaces extends a field on a boundary face set to all faces
func onAllFaces(dd *DGTensor.Discretization, tag string, u utils.Matrix) utils.Matrix {
	return dd.Project(types.BoundaryDomain(tag), types.AllFacesDomain, u)
}

func TestBoundaryGhostStates(t *testing.T) {
	var (
		gas         = eos.NewIdealSingleGas(1.4, 1)
		mesh        = DGTensor.NewUniformBoxMesh(2, 3, 0, 1).SetSideTag(0, 1, "outflow")
		pOut, tWall = 0.7, 2.
		l           = initializers.NewLump(2, 1.4)
	)
	dd, err := DGTensor.NewDiscretization(mesh, 2)
	require.NoError(t, err)
	l.Center[0], l.Center[1] = 0.5, 0.5
	l.Velocity[0], l.Velocity[1] = 0.4, -0.3
	vf := &VolumeFields{State: l.State(dd.Nodes(), 0)}
	{ // Pressure outflow keeps density and velocity and imposes the pressure
		var (
			tag = "outflow"
			bc  = PressureOutflowBoundary(pOut)
			cv  = restrictState(dd, types.BoundaryDomain(tag), vf.State)
			n   = dd.Normal(types.BoundaryDomain(tag))
			mn  = fluid.Dot(cv.Momentum, n)
			p   = gas.Pressure(cv)
		)
		fn, err := bc.InviscidBoundaryFlux(dd, gas, tag, vf)
		require.NoError(t, err)
		// No density or momentum jump, so only the pressure differs across the face
		assert.True(t, utils.Equal(onAllFaces(dd, tag, mn), fn.Mass, 1e-13))
		for d := 0; d < 2; d++ {
			want := cv.Momentum[d].Copy().ElMul(mn).ElDiv(cv.Mass).
				Add(p.Copy().AddScalar(pOut).Scale(0.5).ElMul(n[d]))
			assert.True(t, utils.Equal(onAllFaces(dd, tag, want), fn.Momentum[d], 1e-13), "axis %d", d)
		}
		tf, err := bc.TemperatureBoundaryFlux(dd, gas, tag, vf)
		require.NoError(t, err)
		// Exterior temperature is p_out / (rho R)
		tExt := cv.Mass.Copy().Apply(func(rho float64) float64 { return pOut / rho })
		for d := 0; d < 2; d++ {
			want := gas.Temperature(cv).Add(tExt).Scale(0.5).ElMul(n[d])
			assert.True(t, utils.Equal(onAllFaces(dd, tag, want), tf[d], 1e-13), "axis %d", d)
		}
	}
	{ // Isothermal no slip wall reverses the momentum and holds the wall temperature
		var (
			tag = DGTensor.DefaultBoundaryTag
			bc  = IsothermalNoSlipBoundary(tWall)
			cv  = restrictState(dd, types.BoundaryDomain(tag), vf.State)
			n   = dd.Normal(types.BoundaryDomain(tag))
		)
		fn, err := bc.InviscidBoundaryFlux(dd, gas, tag, vf)
		require.NoError(t, err)
		assert.Less(t, fn.Mass.MaxAbs(), 1e-14)
		gf, err := bc.GradientBoundaryFlux(dd, gas, tag, vf)
		require.NoError(t, err)
		for d := 0; d < 2; d++ {
			assert.True(t, utils.Equal(onAllFaces(dd, tag, cv.Mass.Copy().ElMul(n[d])), gf.Mass[d], 1e-13))
			for e := 0; e < 2; e++ {
				assert.Less(t, gf.Momentum[e][d].MaxAbs(), 1e-14)
			}
		}
		tf, err := bc.TemperatureBoundaryFlux(dd, gas, tag, vf)
		require.NoError(t, err)
		for d := 0; d < 2; d++ {
			want := gas.Temperature(cv).AddScalar(tWall).Scale(0.5).ElMul(n[d])
			assert.True(t, utils.Equal(onAllFaces(dd, tag, want), tf[d], 1e-13), "axis %d", d)
		}
	}
}
