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
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/notargets/dgflux/DGTensor"
	"github.com/notargets/dgflux/fluid"
	"github.com/notargets/dgflux/model_problems/NavierStokes"
	"github.com/notargets/dgflux/utils"
)

// RunCmd represents the run command
var RunCmd = &cobra.Command{
	Use:   "run",
	Short: "Advance a case to its final time with RK4",
	Long: `
Integrates the case from its initial condition to FinalTime with the classic
four stage Runge-Kutta scheme, using the CFL limited time step. A status line
is printed every StatusEvery steps and optionally appended to a history CSV.

dgflux run -i case.yaml --history history.csv`,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		defer startProfile()()
		c, err := loadCase()
		if err != nil {
			return
		}
		var history io.Writer
		if fileName, _ := cmd.Flags().GetString("history"); len(fileName) != 0 {
			var f *os.File
			if f, err = os.Create(fileName); err != nil {
				return
			}
			defer f.Close()
			history = f
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		var final *Solution
		if final, err = c.Solve(ctx, history, os.Stdout); err != nil {
			return
		}
		final.Print()
		return
	},
}

func init() {
	rootCmd.AddCommand(RunCmd)
	RunCmd.Flags().String("history", "", "append status lines to this CSV file")
}

// Solution is the partitioned state of a run
type Solution struct {
	RunID   string
	Step    int
	Time    float64
	Names   []string
	PD      *DGTensor.PartitionedDiscretization
	State   []fluid.ConservedState // per rank
	Elapsed time.Duration
}

// Norms are the L2 norms of every equation over all ranks
func (s *Solution) Norms() (norms []float64) {
	for n := range s.Names {
		var local []utils.Matrix
		for _, cv := range s.State {
			local = append(local, cv.Join()[n])
		}
		norms = append(norms, s.PD.Norm(local, 2))
	}
	return
}

func (s *Solution) record(dt float64) (rec []string) {
	rec = []string{s.RunID, strconv.Itoa(s.Step), strconv.FormatFloat(s.Time, 'g', -1, 64),
		strconv.FormatFloat(dt, 'g', -1, 64)}
	for _, n := range s.Norms() {
		rec = append(rec, strconv.FormatFloat(n, 'g', -1, 64))
	}
	return
}

func (s *Solution) Print() {
	fmt.Printf("run %s: %d steps to t = %8.5f in %v\n", s.RunID, s.Step, s.Time, s.Elapsed)
	fmt.Println(utils.GetMemUsage())
	for n, norm := range s.Norms() {
		fmt.Printf("|%s|_2 = %14.6e\n", s.Names[n], norm)
	}
}

// Solve advances the case to FinalTime or until ctx is done. Status lines go
// to status and, with a header row, to history when it is not nil.
func (c *Case) Solve(ctx context.Context, history, status io.Writer) (s *Solution, err error) {
	var (
		ip   = c.IP
		mesh *DGTensor.BoxMesh
		pd   *DGTensor.PartitionedDiscretization
		hw   *csv.Writer
	)
	if mesh, err = c.Mesh(nil); err != nil {
		return
	}
	if pd, err = DGTensor.NewPartitionedDiscretization(mesh, ip.PolynomialOrder, ip.Partitions); err != nil {
		return
	}
	s = &Solution{
		RunID: uuid.NewString(),
		Names: EquationNames(mesh.Dim, ip.NumSpecies()),
		PD:    pd,
		State: make([]fluid.ConservedState, pd.NumRanks()),
	}
	rhs := make([]NavierStokes.RHSFunc, pd.NumRanks())
	for rank, dd := range pd.Parts {
		if rhs[rank], err = c.RHS(dd); err != nil {
			return
		}
		s.State[rank] = c.Init.State(dd.Nodes(), 0)
	}
	if history != nil {
		hw = csv.NewWriter(history)
		header := append([]string{"run_id", "step", "time", "dt"}, s.Names...)
		if err = hw.Write(header); err != nil {
			return
		}
		defer func() {
			hw.Flush()
			if err == nil {
				err = hw.Error()
			}
		}()
	}
	start := time.Now()
	for s.Time < ip.FinalTime {
		if err = ctx.Err(); err != nil {
			err = fmt.Errorf("step %d at t = %v: %w", s.Step, s.Time, err)
			return
		}
		dt := math.Inf(1)
		for rank, dd := range pd.Parts {
			dt = math.Min(dt, NavierStokes.Timestep(dd, c.Gas, s.State[rank], ip.CFL))
		}
		if !(dt > 0) || math.IsInf(dt, 1) {
			err = fmt.Errorf("step %d: time step %v at t = %v", s.Step, dt, s.Time)
			return
		}
		last := s.Time+dt >= ip.FinalTime
		if last {
			dt = ip.FinalTime - s.Time
		}
		err = pd.RunContext(ctx, func(rank int, dd *DGTensor.Discretization) (err error) {
			s.State[rank], err = NavierStokes.RK4Step(s.State[rank], s.Time, dt, rhs[rank])
			return
		})
		if err != nil {
			return
		}
		s.Time += dt
		if last {
			s.Time = ip.FinalTime
		}
		s.Step++
		for rank := range s.State {
			if utils.IsNan(s.State[rank].Join()) {
				err = fmt.Errorf("step %d: NaN in the state at t = %v", s.Step, s.Time)
				return
			}
		}
		if s.Step%ip.StatusEvery == 0 || last {
			rec := s.record(dt)
			if status != nil {
				fmt.Fprintf(status, "step %6d t = %10.6f dt = %10.4e |mass|_2 = %14.6e\n", s.Step, s.Time, dt,
					s.Norms()[0])
			}
			if hw != nil {
				if err = hw.Write(rec); err != nil {
					return
				}
			}
		}
	}
	s.Elapsed = time.Since(start)
	return
}
