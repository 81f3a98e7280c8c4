package pipeline

import (
	m6502 "github.com/retroenv/retrogolib/arch/cpu/cpu6502"
	"github.com/retroenv/retrogolib/arch/system/nes"
	"github.com/retroenv/retrogolib/log"
	"github.com/retroenv/retroscope/internal/format"
	"github.com/retroenv/retroscope/internal/options"
	"github.com/retroenv/retroscope/internal/project"
	"github.com/retroenv/retroscope/internal/symbols"
)

const maxAddress = 0x10000

// vectorFormats contains the entry points and word formats derived from the
// interrupt vectors at the end of the address space.
type vectorFormats struct {
	entryPoints []int
	formats     map[int]*format.Descriptor
}

// vector handlers in label priority order, the reset handler wins when
// multiple vectors point to the same address.
var vectors = []struct {
	address uint16
	label   string
}{
	{m6502.ResetAddress, "Reset"},
	{m6502.NMIAddress, "NMI"},
	{m6502.IrqAddress, "IRQ"},
}

// loadAddress returns the address of the first data byte. An explicit
// option takes precedence over the project, ROM images without either are
// mapped to end at the top of the address space.
func loadAddress(data []byte, proj *project.Project, opts options.Analysis) int {
	switch {
	case opts.LoadAddressSet:
		return opts.LoadAddress
	case proj.LoadAddress != 0:
		return proj.LoadAddress
	case opts.Binary:
		return int(nes.CodeBaseAddress)
	case len(data) > 0 && len(data) <= maxAddress-int(nes.CodeBaseAddress):
		return maxAddress - len(data)
	default:
		return int(nes.CodeBaseAddress)
	}
}

// readVectors reads the NMI, reset and IRQ handler addresses. Handlers that
// are inside of the data become entry points and get a label unless one is
// set already. The vector words reference the handler labels.
func readVectors(logger *log.Logger, data []byte, loadAddress int, proj *project.Project) vectorFormats {
	result := vectorFormats{
		formats: make(map[int]*format.Descriptor),
	}

	for _, vector := range vectors {
		vectorOffset := int(vector.address) - loadAddress
		if vectorOffset < 0 || vectorOffset+1 >= len(data) {
			continue
		}

		handler := int(data[vectorOffset]) | int(data[vectorOffset+1])<<8
		handlerOffset := handler - loadAddress
		if handler == 0 || handlerOffset < 0 || handlerOffset >= len(data) {
			continue
		}

		logger.Debug("Interrupt handler",
			log.String("vector", vector.label),
			log.Hex("address", handler),
		)
		result.entryPoints = append(result.entryPoints, handlerOffset)

		sym, ok := handlerSymbol(logger, proj, handlerOffset, handler, vector.label)
		if !ok {
			continue
		}
		descriptor, err := format.NewSymbolRef(2, symbols.NewWeakRef(sym.Label, symbols.Low), false)
		if err != nil {
			continue
		}
		result.formats[vectorOffset] = descriptor
	}
	return result
}

// handlerSymbol returns the label of the handler, creating it if needed.
func handlerSymbol(logger *log.Logger, proj *project.Project, offset, address int,
	label string) (*symbols.Symbol, bool) {

	if sym, ok := proj.Labels[offset]; ok {
		return sym, true
	}

	sym := symbols.New(label, address, symbols.User, symbols.LocalOrGlobalAddr)
	if err := proj.Symbols.Add(sym); err != nil {
		logger.Warn("Interrupt handler label is already in use", log.String("label", label))
		return nil, false
	}
	proj.Labels[offset] = sym
	return sym, true
}
