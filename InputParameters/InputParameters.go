package InputParameters

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/ghodss/yaml"
	"go.uber.org/multierr"

	"github.com/notargets/dgflux/types"
)

// BCParameters configure the boundary condition on one mesh tag
type BCParameters struct {
	Type   string             `json:"Type"`   // dummy, prescribed, slip, noslip, outflow
	Params map[string]float64 `json:"Params"` // T for noslip walls, P for outflow
}

type GasParameters struct {
	Gamma       float64 `json:"Gamma"`
	GasConstant float64 `json:"GasConstant"`
	// A mixture when non empty, one entry per species
	MolecularWeights []float64 `json:"MolecularWeights"`
	SpeciesGammas    []float64 `json:"SpeciesGammas"`
	// Passive species carried by a single gas
	NumSpecies int `json:"NumSpecies"`
}

type TransportParameters struct {
	Model       string    `json:"Model"` // simple or powerlaw, none for Euler
	Mu          float64   `json:"Mu"`
	MuBulk      float64   `json:"MuBulk"`
	Kappa       float64   `json:"Kappa"`
	Diffusivity []float64 `json:"Diffusivity"`
}

// InputParameters are the contents of a YAML case file
type InputParameters struct {
	Title           string                  `json:"Title"`
	Dimension       int                     `json:"Dimension"`
	PolynomialOrder int                     `json:"PolynomialOrder"`
	Elements        []int                   `json:"Elements"`
	Lower           []float64               `json:"Lower"`
	Upper           []float64               `json:"Upper"`
	Periodic        []int                   `json:"Periodic"`  // periodic axes
	SideTags        map[string][2]string    `json:"SideTags"`  // axis "0".."2" -> lower, upper side tag
	BCs             map[string]BCParameters `json:"BCs"`       // keyed by tag
	Operator        string                  `json:"Operator"`  // euler or ns
	FluxType        string                  `json:"FluxType"`  // lax or central
	InitType        string                  `json:"InitType"`  // uniform, lump, multilump, vortex, ...
	InitParams      map[string]float64      `json:"InitParams"`
	Velocity        []float64               `json:"Velocity"`
	Gas             GasParameters           `json:"Gas"`
	Transport       TransportParameters     `json:"Transport"`
	FinalTime       float64                 `json:"FinalTime"`
	CFL             float64                 `json:"CFL"`
	Partitions      int                     `json:"Partitions"`
	StatusEvery     int                     `json:"StatusEvery"`
}

var (
	Operators  = []string{"euler", "ns"}
	InitTypes  = []string{"uniform", "lump", "multilump", "vortex", "temperaturewave", "specieswave", "shearwave"}
	Transports = []string{"", "none", "simple", "powerlaw"}
)

// Defaults fill the fields a case file may leave out
func (ip *InputParameters) Defaults() {
	if ip.Dimension == 0 {
		ip.Dimension = len(ip.Elements)
	}
	if ip.Operator == "" {
		ip.Operator = "euler"
	}
	if ip.FluxType == "" {
		ip.FluxType = "lax"
	}
	if ip.Gas.Gamma == 0 {
		ip.Gas.Gamma = 1.4
	}
	if ip.Gas.GasConstant == 0 {
		ip.Gas.GasConstant = 1
	}
	if ip.CFL == 0 {
		ip.CFL = 0.5
	}
	if ip.Partitions == 0 {
		ip.Partitions = 1
	}
	if ip.StatusEvery == 0 {
		ip.StatusEvery = 10
	}
	ip.Operator = strings.ToLower(ip.Operator)
	ip.InitType = strings.ToLower(ip.InitType)
	ip.Transport.Model = strings.ToLower(ip.Transport.Model)
}

func (ip *InputParameters) Parse(data []byte) error {
	if err := yaml.Unmarshal(data, ip); err != nil {
		return err
	}
	ip.Defaults()
	return nil
}

func ReadFile(fileName string) (ip *InputParameters, err error) {
	var data []byte
	if data, err = os.ReadFile(fileName); err != nil {
		return
	}
	ip = &InputParameters{}
	if err = ip.Parse(data); err != nil {
		err = fmt.Errorf("%s: %w", fileName, err)
	}
	return
}

func oneOf(val string, choices []string) bool {
	for _, c := range choices {
		if val == c {
			return true
		}
	}
	return false
}

// Validate reports every problem of the case at once
func (ip *InputParameters) Validate() (err error) {
	dim := ip.Dimension
	if dim < 1 || dim > 3 {
		err = multierr.Append(err, fmt.Errorf("dimension %d, need 1 to 3", dim))
	}
	if len(ip.Elements) != dim || len(ip.Lower) != dim || len(ip.Upper) != dim {
		err = multierr.Append(err, fmt.Errorf("elements, lower and upper need %d entries, have %d, %d, %d",
			dim, len(ip.Elements), len(ip.Lower), len(ip.Upper)))
	}
	if ip.PolynomialOrder < 1 {
		err = multierr.Append(err, fmt.Errorf("polynomial order %d, need at least 1", ip.PolynomialOrder))
	}
	for _, a := range ip.Periodic {
		if a < 0 || a >= dim {
			err = multierr.Append(err, fmt.Errorf("periodic axis %d out of range", a))
		}
	}
	for axis := range ip.SideTags {
		if !oneOf(axis, []string{"0", "1", "2"}[:min(max(dim, 0), 3)]) {
			err = multierr.Append(err, fmt.Errorf("side tags for unknown axis %q", axis))
		}
	}
	if !oneOf(ip.Operator, Operators) {
		err = multierr.Append(err, fmt.Errorf("unknown operator %q, choose from %v", ip.Operator, Operators))
	}
	if !oneOf(strings.ToLower(ip.FluxType), []string{"lax", "central"}) {
		err = multierr.Append(err, fmt.Errorf("unknown flux type %q", ip.FluxType))
	}
	if !oneOf(ip.InitType, InitTypes) {
		err = multierr.Append(err, fmt.Errorf("unknown initial condition %q, choose from %v", ip.InitType, InitTypes))
	}
	if !oneOf(ip.Transport.Model, Transports) {
		err = multierr.Append(err, fmt.Errorf("unknown transport model %q", ip.Transport.Model))
	}
	if ip.Operator == "ns" && (ip.Transport.Model == "" || ip.Transport.Model == "none") {
		err = multierr.Append(err, fmt.Errorf("the ns operator needs a transport model"))
	}
	if len(ip.Gas.MolecularWeights) != len(ip.Gas.SpeciesGammas) {
		err = multierr.Append(err, fmt.Errorf("%d molecular weights for %d species gammas",
			len(ip.Gas.MolecularWeights), len(ip.Gas.SpeciesGammas)))
	}
	if ip.Gas.Gamma <= 1 || ip.Gas.GasConstant <= 0 {
		err = multierr.Append(err, fmt.Errorf("gamma %v and gas constant %v must exceed 1 and 0",
			ip.Gas.Gamma, ip.Gas.GasConstant))
	}
	for tag, bc := range ip.BCs {
		if _, bcErr := types.NewBCFLAG(bc.Type); bcErr != nil {
			err = multierr.Append(err, fmt.Errorf("tag %q: %w", tag, bcErr))
		}
	}
	if ip.CFL <= 0 || ip.FinalTime < 0 {
		err = multierr.Append(err, fmt.Errorf("CFL %v and final time %v must be positive", ip.CFL, ip.FinalTime))
	}
	if ip.Partitions < 1 {
		err = multierr.Append(err, fmt.Errorf("%d partitions", ip.Partitions))
	}
	return
}

// NumSpecies is the species count of the state
func (ip *InputParameters) NumSpecies() int {
	if n := len(ip.Gas.MolecularWeights); n != 0 {
		return n
	}
	return ip.Gas.NumSpecies
}

// Param returns InitParams[name], or def when absent
func (ip *InputParameters) Param(name string, def float64) float64 {
	if v, ok := ip.InitParams[name]; ok {
		return v
	}
	return def
}

func (ip *InputParameters) Print() {
	fmt.Printf("\"%s\"\t\t= Title\n", ip.Title)
	fmt.Printf("[%d]\t\t\t\t= Dimension\n", ip.Dimension)
	fmt.Printf("[%d]\t\t\t\t= Polynomial Order\n", ip.PolynomialOrder)
	fmt.Printf("%v\t\t\t= Elements\n", ip.Elements)
	fmt.Printf("%v -> %v\t= Domain\n", ip.Lower, ip.Upper)
	fmt.Printf("%v\t\t\t\t= Periodic Axes\n", ip.Periodic)
	fmt.Printf("[%s]\t\t\t= Operator\n", ip.Operator)
	fmt.Printf("[%s]\t\t\t= Flux Type\n", ip.FluxType)
	fmt.Printf("[%s]\t= InitType\n", ip.InitType)
	fmt.Printf("%8.5f\t\t= CFL\n", ip.CFL)
	fmt.Printf("%8.5f\t\t= FinalTime\n", ip.FinalTime)
	fmt.Printf("[%d]\t\t\t\t= Partitions\n", ip.Partitions)
	keys := make([]string, len(ip.BCs))
	i := 0
	for k := range ip.BCs {
		keys[i] = k
		i++
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Printf("BCs[%s] = %s %v\n", key, ip.BCs[key].Type, ip.BCs[key].Params)
	}
}
