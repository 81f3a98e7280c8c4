package analysis

import (
	m6502 "github.com/retroenv/retrogolib/arch/cpu/cpu6502"
	"github.com/retroenv/retroscope/internal/anattrib"
	"github.com/retroenv/retroscope/internal/status"
)

type branchCondition struct {
	flag  status.Flag
	value int // flag value that takes the branch
}

var branchConditions = map[string]branchCondition{
	m6502.BccInst.Name: {flag: status.C, value: 0},
	m6502.BcsInst.Name: {flag: status.C, value: 1},
	m6502.BeqInst.Name: {flag: status.Z, value: 1},
	m6502.BneInst.Name: {flag: status.Z, value: 0},
	m6502.BmiInst.Name: {flag: status.N, value: 1},
	m6502.BplInst.Name: {flag: status.N, value: 0},
	m6502.BvcInst.Name: {flag: status.V, value: 0},
	m6502.BvsInst.Name: {flag: status.V, value: 1},
}

// flagInstructions set or clear a single flag.
var flagInstructions = map[string]branchCondition{
	m6502.ClcInst.Name: {flag: status.C, value: 0},
	m6502.SecInst.Name: {flag: status.C, value: 1},
	m6502.CliInst.Name: {flag: status.I, value: 0},
	m6502.SeiInst.Name: {flag: status.I, value: 1},
	m6502.CldInst.Name: {flag: status.D, value: 0},
	m6502.SedInst.Name: {flag: status.D, value: 1},
	m6502.ClvInst.Name: {flag: status.V, value: 0},
}

// unchangedFlags lists instructions that do not modify the arithmetic flags.
var unchangedFlags = map[string]struct{}{
	m6502.NopInst.Name: {},
	m6502.StaInst.Name: {},
	m6502.StxInst.Name: {},
	m6502.StyInst.Name: {},
	m6502.PhaInst.Name: {},
	m6502.PhpInst.Name: {},
	m6502.TxsInst.Name: {},
}

// branchTaken returns whether the conditional branch is taken for the status.
func branchTaken(name string, flags status.Flags) anattrib.BranchTaken {
	cond, ok := branchConditions[name]
	if !ok {
		return anattrib.BranchAlways
	}

	switch flags.Get(cond.flag) {
	case cond.value:
		return anattrib.BranchAlways
	case 1 - cond.value:
		return anattrib.BranchNever
	default:
		return anattrib.BranchSometimes
	}
}

// branchFlags returns the status after the branch, the tested flag is
// known on both paths.
func branchFlags(name string, flags status.Flags, taken bool) status.Flags {
	cond, ok := branchConditions[name]
	if !ok {
		return flags
	}

	value := cond.value
	if !taken {
		value = 1 - value
	}
	flags.Set(cond.flag, value)
	return flags
}

// flagsAfter returns the status after executing the instruction.
// Only instructions that change a single flag are modeled, all others
// make the arithmetic flags indeterminate.
func flagsAfter(name string, flags status.Flags) status.Flags {
	if cond, ok := flagInstructions[name]; ok {
		flags.Set(cond.flag, cond.value)
		return flags
	}
	if _, ok := unchangedFlags[name]; ok {
		return flags
	}
	if name == m6502.PlpInst.Name || name == m6502.RtiInst.Name {
		return status.AllIndeterminate
	}

	for _, flag := range []status.Flag{status.N, status.V, status.Z, status.C} {
		flags.Set(flag, status.Indeterminate)
	}
	return flags
}
