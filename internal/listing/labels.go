package listing

import (
	"github.com/retroenv/retroscope/internal/anattrib"
	"github.com/retroenv/retroscope/internal/symbols"
)

// AutoLabelPrefix is the prefix of generated labels.
const AutoLabelPrefix = "L"

// GenerateLabels adds a generated label to every entry point, branch target
// and referenced offset that does not have a label yet. The labels are added
// to the namespace with the Auto source.
func GenerateLabels(store *anattrib.Store, namespace *symbols.Table) int {
	targets := make([]bool, store.Len())
	for offset := range store.Len() {
		attr := store.At(offset)
		if attr.HasFlag(anattrib.EntryPoint) || attr.HasFlag(anattrib.BranchTarget) {
			targets[offset] = true
		}
		if attr.IsInstructionStart() && attr.HasFlag(anattrib.OperandOffsetDirect) {
			if target := attr.OperandOffset(); target != anattrib.Unset {
				targets[target] = true
			}
		}
	}

	var generated int
	for offset, isTarget := range targets {
		attr := store.At(offset)
		if !isTarget || attr.Symbol != nil {
			continue
		}
		// labels inside of an instruction or data item can not be written
		if !attr.IsStart() && !attr.IsUntyped() {
			continue
		}

		label := namespace.GenerateUniqueForAddress(attr.Address, AutoLabelPrefix)
		sym := symbols.New(label, attr.Address, symbols.Auto, symbols.LocalOrGlobalAddr)
		namespace.Set(sym)
		attr.Symbol = sym
		generated++
	}
	return generated
}
