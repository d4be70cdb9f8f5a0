package utils

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ConvergenceStudy records (mesh size, error) pairs from a refinement sequence
// and estimates the observed order of convergence.
type ConvergenceStudy struct {
	Title  string
	Order  int // polynomial order of the discretization under study
	H      []float64
	Errors []float64
}

func NewConvergenceStudy(title string, order int) *ConvergenceStudy {
	return &ConvergenceStudy{
		Title: title,
		Order: order,
	}
}

func (cs *ConvergenceStudy) Add(h, err float64) {
	cs.H = append(cs.H, h)
	cs.Errors = append(cs.Errors, err)
}

// OrderEstimate is the slope of the least squares fit of log(error) against
// log(h). NaN when there are fewer than two points or a non positive error.
func (cs *ConvergenceStudy) OrderEstimate() (order float64) {
	if len(cs.H) < 2 {
		return math.NaN()
	}
	var (
		logH   = make([]float64, len(cs.H))
		logErr = make([]float64, len(cs.H))
	)
	for i := range cs.H {
		if cs.Errors[i] <= 0 || cs.H[i] <= 0 {
			return math.NaN()
		}
		logH[i] = math.Log(cs.H[i])
		logErr[i] = math.Log(cs.Errors[i])
	}
	_, order = stat.LinearRegression(logH, logErr, nil, false)
	return
}

func (cs *ConvergenceStudy) MaxError() float64 {
	if len(cs.Errors) == 0 {
		return math.NaN()
	}
	return floats.Max(cs.Errors)
}

// Satisfies is the usual certification: observed order at least minOrder, or
// every recorded error already below floor.
func (cs *ConvergenceStudy) Satisfies(minOrder, floor float64) bool {
	return cs.OrderEstimate() >= minOrder || cs.MaxError() < floor
}

func (cs *ConvergenceStudy) String() string {
	var (
		sb strings.Builder
	)
	fmt.Fprintf(&sb, "%s, Order = %d\n", cs.Title, cs.Order)
	fmt.Fprintf(&sb, "%12s %14s %8s\n", "h", "error", "eoc")
	for i := range cs.H {
		eoc := "--"
		if i > 0 && cs.Errors[i] > 0 && cs.Errors[i-1] > 0 {
			eoc = fmt.Sprintf("%8.3f", math.Log(cs.Errors[i-1]/cs.Errors[i])/math.Log(cs.H[i-1]/cs.H[i]))
		}
		fmt.Fprintf(&sb, "%12.5e %14.6e %8s\n", cs.H[i], cs.Errors[i], eoc)
	}
	fmt.Fprintf(&sb, "Overall EOC = %8.3f\n", cs.OrderEstimate())
	return sb.String()
}

// CSVRecords emits one row per refinement level: title, order, h, error
func (cs *ConvergenceStudy) CSVRecords() (records [][]string) {
	for i := range cs.H {
		records = append(records, []string{
			cs.Title,
			strconv.Itoa(cs.Order),
			strconv.FormatFloat(cs.H[i], 'g', -1, 64),
			strconv.FormatFloat(cs.Errors[i], 'g', -1, 64),
		})
	}
	return
}

// ParseConvergenceCSV groups rows written by CSVRecords back into studies,
// keyed by title and order. A header row is skipped when present.
func ParseConvergenceCSV(records [][]string) (studies map[string]*ConvergenceStudy, keys []string, err error) {
	studies = make(map[string]*ConvergenceStudy)
	for i, rec := range records {
		if len(rec) < 4 {
			err = fmt.Errorf("record %d has %d fields, need 4", i, len(rec))
			return
		}
		order, errA := strconv.Atoi(rec[1])
		if errA != nil {
			if i == 0 {
				continue
			}
			err = fmt.Errorf("record %d: bad order %q: %w", i, rec[1], errA)
			return
		}
		var h, e float64
		if h, err = strconv.ParseFloat(rec[2], 64); err != nil {
			return
		}
		if e, err = strconv.ParseFloat(rec[3], 64); err != nil {
			return
		}
		key := rec[0] + rec[1]
		cs, ok := studies[key]
		if !ok {
			cs = NewConvergenceStudy(rec[0], order)
			studies[key] = cs
			keys = append(keys, key)
		}
		cs.Add(h, e)
	}
	return
}
