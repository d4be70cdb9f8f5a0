package main

import (
	"bufio"
	"encoding/csv"
	"flag"
	"fmt"
	"os"

	"github.com/notargets/dgflux/utils"
)

var (
	csvFile  string
	minOrder float64
)

func main() {
	csvFilePtr := flag.String("csvFile", csvFile, "file containing entries of a convergence study, as written by dgflux eoc --csv")
	minOrderPtr := flag.Float64("minOrder", 0, "fail when a study converges slower than this")
	flag.Parse()
	csvFile, minOrder = *csvFilePtr, *minOrderPtr
	if len(csvFile) == 0 {
		flag.Usage()
		os.Exit(1)
	}
	fmt.Printf("Input file: %v\n", csvFile)
	studies, keys := readCSV(csvFile)
	var failed bool
	for _, key := range keys {
		cs := studies[key]
		fmt.Print(cs.String())
		if minOrder > 0 && !cs.Satisfies(minOrder, 0) {
			fmt.Printf("%s: order %5.2f is below %5.2f\n", cs.Title, cs.OrderEstimate(), minOrder)
			failed = true
		}
	}
	if failed {
		os.Exit(2)
	}
}

func readCSV(csvFile string) (studies map[string]*utils.ConvergenceStudy, keys []string) {
	var (
		records [][]string
		err     error
		f       *os.File
	)
	if f, err = os.Open(csvFile); err != nil {
		panic(err)
	}
	defer f.Close()
	r := csv.NewReader(bufio.NewReader(f))
	if records, err = r.ReadAll(); err != nil {
		panic(err)
	}
	if studies, keys, err = utils.ParseConvergenceCSV(records); err != nil {
		panic(err)
	}
	return
}
