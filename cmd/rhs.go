/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"math"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/notargets/dgflux/DGTensor"
	"github.com/notargets/dgflux/fluid"
	"github.com/notargets/dgflux/utils"
)

// RHSCmd represents the rhs command
var RHSCmd = &cobra.Command{
	Use:   "rhs",
	Short: "Evaluate the right hand side of a case once",
	Long: `
Evaluates dq/dt of the case's initial state and prints per equation norms,
together with the error against the exact rate of change of the initial
condition.

dgflux rhs -i case.yaml --time 0.5 --counters`,
	RunE: func(cmd *cobra.Command, args []string) error {
		defer startProfile()()
		c, err := loadCase()
		if err != nil {
			return err
		}
		t, _ := cmd.Flags().GetFloat64("time")
		counters, _ := cmd.Flags().GetBool("counters")
		ev, err := c.Evaluate(nil, t, counters)
		if err != nil {
			return err
		}
		ev.Print()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(RHSCmd)
	RHSCmd.Flags().Float64P("time", "t", 0, "time at which the state and its exact rate are evaluated")
	RHSCmd.Flags().Bool("counters", false, "count CPU instructions per rank (linux only)")
}

// EquationNames label the fields of a state in Join order
func EquationNames(dim, nspecies int) (names []string) {
	names = append(names, "mass", "energy")
	for d := 0; d < dim; d++ {
		names = append(names, "momentum_"+string(rune('x'+d)))
	}
	for s := 0; s < nspecies; s++ {
		names = append(names, "species_"+strconv.Itoa(s))
	}
	return
}

// Evaluation holds the norms of one RHS evaluation
type Evaluation struct {
	Names        []string
	H            float64
	L2, Inf      []float64 // of the RHS
	ErrL2        []float64 // of RHS minus the exact rate
	ErrInf       []float64
	Instructions []uint64 // per rank, when counted
}

// Evaluate computes the RHS of the initial state at time t on a mesh with
// nel elements per axis
func (c *Case) Evaluate(nel []int, t float64, counters bool) (ev *Evaluation, err error) {
	var (
		mesh *DGTensor.BoxMesh
		pd   *DGTensor.PartitionedDiscretization
	)
	if mesh, err = c.Mesh(nel); err != nil {
		return
	}
	if pd, err = DGTensor.NewPartitionedDiscretization(mesh, c.IP.PolynomialOrder, c.IP.Partitions); err != nil {
		return
	}
	var (
		NP     = pd.NumRanks()
		rhs    = make([]fluid.ConservedState, NP)
		diff   = make([]fluid.ConservedState, NP)
		counts = make([]uint64, NP)
	)
	err = pd.Run(func(rank int, dd *DGTensor.Discretization) (err error) {
		op, err := c.RHS(dd)
		if err != nil {
			return
		}
		var (
			nodes = dd.Nodes()
			cv    = c.Init.State(nodes, t)
		)
		eval := func() (err error) {
			rhs[rank], err = op(t, cv)
			return
		}
		if counters {
			counts[rank], err = countInstructions(eval)
		} else {
			err = eval()
		}
		if err != nil {
			return
		}
		diff[rank], err = rhs[rank].Sub(c.Init.ExactRHS(nodes, t))
		return
	})
	if err != nil {
		return
	}
	ev = &Evaluation{
		Names: EquationNames(mesh.Dim, c.IP.NumSpecies()),
	}
	for d := 0; d < mesh.Dim; d++ {
		ev.H = math.Max(ev.H, mesh.ElementSize(d))
	}
	if counters {
		ev.Instructions = counts
	}
	blocks := func(states []fluid.ConservedState, n int) (local []utils.Matrix) {
		for _, cv := range states {
			local = append(local, cv.Join()[n])
		}
		return
	}
	for n := range ev.Names {
		r, e := blocks(rhs, n), blocks(diff, n)
		ev.L2 = append(ev.L2, pd.Norm(r, 2))
		ev.Inf = append(ev.Inf, pd.Norm(r, math.Inf(1)))
		ev.ErrL2 = append(ev.ErrL2, pd.Norm(e, 2))
		ev.ErrInf = append(ev.ErrInf, pd.Norm(e, math.Inf(1)))
	}
	return
}

// MaxError is the largest error max norm over the equations
func (ev *Evaluation) MaxError() (mx float64) {
	for _, e := range ev.ErrInf {
		mx = math.Max(mx, e)
	}
	return
}

func (ev *Evaluation) Print() {
	fmt.Printf("h = %8.5f\n", ev.H)
	fmt.Printf("%-12s %14s %14s %14s %14s\n", "equation", "|rhs|_2", "|rhs|_inf", "|err|_2", "|err|_inf")
	for n, name := range ev.Names {
		fmt.Printf("%-12s %14.6e %14.6e %14.6e %14.6e\n", name, ev.L2[n], ev.Inf[n], ev.ErrL2[n], ev.ErrInf[n])
	}
	for rank, count := range ev.Instructions {
		fmt.Printf("rank %d: %d instructions\n", rank, count)
	}
}
