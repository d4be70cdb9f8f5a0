package types

import (
	"fmt"
	"strings"
)

type BCFLAG uint8

const (
	BC_None BCFLAG = iota
	BC_Dummy
	BC_Prescribed
	BC_Slip
	BC_NoSlip
	BC_Out
)

var BCNameMap = map[string]BCFLAG{
	"dummy":      BC_Dummy,
	"passthru":   BC_Dummy,
	"prescribed": BC_Prescribed,
	"dirichlet":  BC_Prescribed,
	"exact":      BC_Prescribed,
	"slip":       BC_Slip,
	"symmetry":   BC_Slip,
	"wall":       BC_NoSlip,
	"noslip":     BC_NoSlip,
	"out":        BC_Out,
	"outflow":    BC_Out,
}

func (bc BCFLAG) String() string {
	switch bc {
	case BC_Dummy:
		return "Dummy"
	case BC_Prescribed:
		return "Prescribed"
	case BC_Slip:
		return "Slip"
	case BC_NoSlip:
		return "NoSlip"
	case BC_Out:
		return "Outflow"
	default:
		return "None"
	}
}

func NewBCFLAG(label string) (bc BCFLAG, err error) {
	var ok bool
	if bc, ok = BCNameMap[strings.ToLower(strings.TrimSpace(label))]; !ok {
		err = fmt.Errorf("unknown boundary condition name: %q", label)
	}
	return
}
