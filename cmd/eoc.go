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
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/spf13/cobra"

	"github.com/notargets/dgflux/utils"
)

// EOCCmd represents the eoc command
var EOCCmd = &cobra.Command{
	Use:   "eoc",
	Short: "Estimate the order of convergence of the RHS under mesh refinement",
	Long: `
Evaluates the RHS error against the exact rate of change on a sequence of
meshes and reports the observed order of accuracy per equation. The levels
give the element count of the first axis, the other axes keep the aspect
ratio of the case file.

dgflux eoc -i case.yaml --levels 8,16,32 --csv eoc.csv`,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		defer startProfile()()
		c, err := loadCase()
		if err != nil {
			return
		}
		levels, _ := cmd.Flags().GetIntSlice("levels")
		t, _ := cmd.Flags().GetFloat64("time")
		studies, err := c.ConvergenceStudies(levels, t)
		if err != nil {
			return
		}
		for _, cs := range studies {
			fmt.Print(cs.String())
		}
		csvFile, _ := cmd.Flags().GetString("csv")
		if len(csvFile) == 0 {
			return
		}
		var f *os.File
		if f, err = os.Create(csvFile); err != nil {
			return
		}
		defer f.Close()
		return WriteStudies(f, studies)
	},
}

func init() {
	rootCmd.AddCommand(EOCCmd)
	EOCCmd.Flags().IntSlice("levels", []int{8, 16, 32}, "element counts of the first axis")
	EOCCmd.Flags().Float64P("time", "t", 0, "time at which the state and its exact rate are evaluated")
	EOCCmd.Flags().String("csv", "", "write the studies to this CSV file")
}

// LevelElements scales the case's element counts so the first axis has level
// elements
func (c *Case) LevelElements(level int) (nel []int) {
	base := c.IP.Elements
	nel = make([]int, len(base))
	for d, n := range base {
		nel[d] = max(int(math.Round(float64(level*n)/float64(base[0]))), 1)
	}
	return
}

// ConvergenceStudies evaluates the case on every level and returns one study
// per equation followed by one of the largest error over all equations
func (c *Case) ConvergenceStudies(levels []int, t float64) (studies []*utils.ConvergenceStudy, err error) {
	if len(levels) < 2 {
		return nil, fmt.Errorf("a convergence study needs at least 2 levels, have %d", len(levels))
	}
	N := c.IP.PolynomialOrder
	for _, level := range levels {
		var ev *Evaluation
		if ev, err = c.Evaluate(c.LevelElements(level), t, false); err != nil {
			return
		}
		if studies == nil {
			for _, name := range ev.Names {
				studies = append(studies, utils.NewConvergenceStudy(name, N))
			}
			studies = append(studies, utils.NewConvergenceStudy("max", N))
		}
		for n, e := range ev.ErrInf {
			studies[n].Add(ev.H, e)
		}
		studies[len(ev.Names)].Add(ev.H, ev.MaxError())
	}
	return
}

// WriteStudies writes the studies as CSV with a header row
func WriteStudies(w io.Writer, studies []*utils.ConvergenceStudy) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"title", "order", "h", "error"}); err != nil {
		return err
	}
	for _, cs := range studies {
		if err := cw.WriteAll(cs.CSVRecords()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
