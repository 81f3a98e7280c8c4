package listing

import (
	"fmt"
	"strings"

	m6502 "github.com/retroenv/retrogolib/arch/cpu/cpu6502"
	"github.com/retroenv/retrogolib/arch/system/nes/parameter"
	"github.com/retroenv/retrogolib/log"
	"github.com/retroenv/retroscope/internal/anattrib"
	"github.com/retroenv/retroscope/internal/format"
	"github.com/retroenv/retroscope/internal/symbols"
)

// writeInstruction writes the instruction at the offset with its operand
// replaced by a symbol where possible.
func (w *Writer) writeInstruction(offset int, attr *anattrib.Attrib) (int, error) {
	opcode := m6502.Opcodes[w.data[offset]]
	name := opcode.Instruction.Name
	mode := m6502.AddressingMode(opcode.Addressing)

	code, err := w.instructionCode(offset, attr, name, mode)
	if err != nil {
		return 0, err
	}

	prefix := w.addressComment(offset)
	if hex := w.hexComment(offset, attr.Length()); hex != "" {
		if prefix != "" {
			prefix += " "
		}
		prefix += hex
	}
	w.writeLine(prefix, code, "")
	return attr.Length(), nil
}

func (w *Writer) instructionCode(offset int, attr *anattrib.Attrib, name string,
	mode m6502.AddressingMode) (string, error) {

	switch mode {
	case m6502.ImpliedAddressing:
		return name, nil

	case m6502.ImmediateAddressing:
		if ref, ok := w.descriptorRef(offset, attr); ok {
			return fmt.Sprintf("%s #%s", name, ref), nil
		}

	case m6502.RelativeAddressing:
		if label, ok := w.codeLabel(attr.OperandOffset()); ok {
			return fmt.Sprintf("%s %s", name, label), nil
		}

	default:
		if reference, ok := w.operandReference(offset, attr, mode); ok {
			if _, branching := m6502.BranchingInstructions[name]; branching {
				return fmt.Sprintf("%s %s", name, reference), nil
			}
			converted, err := parameter.String(w.converter, mode, reference)
			if err != nil {
				return "", fmt.Errorf("getting parameter as string: %w", err)
			}
			return fmt.Sprintf("%s %s", name, converted), nil
		}
	}

	param := w.operandParam(offset, mode)
	converted, err := parameter.String(w.converter, mode, param)
	if err != nil {
		return "", fmt.Errorf("getting parameter as string: %w", err)
	}
	if converted == "" {
		return name, nil
	}
	return fmt.Sprintf("%s %s", name, converted), nil
}

// operandReference returns the symbolic form of the address operand. Local
// variables take precedence over labels and global symbols.
func (w *Writer) operandReference(offset int, attr *anattrib.Attrib, mode m6502.AddressingMode) (string, bool) {
	if ref, ok := w.descriptorRef(offset, attr); ok {
		return ref, true
	}

	address := attr.OperandAddress()
	if address == anattrib.Unset {
		return "", false
	}

	if isZeroPageMode(mode) {
		if def, ok := w.lookup.GetSymbol(offset, address, symbols.ExternalAddr); ok {
			return withAdjustment(def.Label, address-def.Value), true
		}
	}

	if label, ok := w.codeLabel(attr.OperandOffset()); ok {
		return label, true
	}

	if sym, ok := w.namespace.FindAddressByValue(address); ok {
		w.namespace.MarkUsed(sym.Label)
		return withAdjustment(sym.Label, address-sym.Value), true
	}
	return "", false
}

// descriptorRef resolves the weak reference of the format descriptor of
// an instruction operand.
func (w *Writer) descriptorRef(offset int, attr *anattrib.Attrib) (string, bool) {
	descriptor := attr.Descriptor()
	if descriptor == nil || !descriptor.HasSymbol() {
		return "", false
	}

	ref := *descriptor.SymbolRef()
	label, ok := w.resolveRef(offset, ref)
	if !ok {
		return "", false
	}
	if m6502.AddressingMode(m6502.Opcodes[w.data[offset]].Addressing) == m6502.ImmediateAddressing {
		return ref.Part.Operator() + label, true
	}
	return label, true
}

// resolveRef resolves a weak reference to a local variable or a global symbol.
func (w *Writer) resolveRef(offset int, ref symbols.WeakRef) (string, bool) {
	if w.lookup.GetDefiningTableOffset(offset, ref) < 0 {
		if sym, ok := w.namespace.TryGetValue(ref.Label); ok {
			w.namespace.MarkUsed(sym.Label)
			return sym.Label, true
		}
	}

	def, ok := w.lookup.GetSymbolRef(offset, ref)
	if !ok {
		w.logger.Debug("Writing unresolved reference as value",
			log.Hex("offset", offset),
			log.String("label", ref.Label))
		return "", false
	}
	return def.Label, true
}

// codeLabel returns the label at the target offset if it is written as a line label.
func (w *Writer) codeLabel(target int) (string, bool) {
	if target == anattrib.Unset || target >= w.store.Len() {
		return "", false
	}
	attr := w.store.At(target)
	if attr.Symbol == nil || (!attr.IsStart() && !attr.IsUntyped()) {
		return "", false
	}
	return attr.Symbol.Label, true
}

// operandParam returns the numeric operand in the form expected by the
// parameter converter.
func (w *Writer) operandParam(offset int, mode m6502.AddressingMode) any {
	var b byte
	var word uint16
	if offset+1 < len(w.data) {
		b = w.data[offset+1]
	}
	if offset+2 < len(w.data) {
		word = uint16(w.data[offset+2])<<8 | uint16(b)
	}

	switch mode {
	case m6502.ImmediateAddressing:
		return int(b)
	case m6502.AccumulatorAddressing:
		return m6502.Accumulator(0)
	case m6502.AbsoluteAddressing:
		return m6502.Absolute(word)
	case m6502.AbsoluteXAddressing:
		return m6502.AbsoluteX(word)
	case m6502.AbsoluteYAddressing:
		return m6502.AbsoluteY(word)
	case m6502.ZeroPageAddressing:
		return m6502.ZeroPage(b)
	case m6502.ZeroPageXAddressing:
		return m6502.ZeroPageX(b)
	case m6502.ZeroPageYAddressing:
		return m6502.ZeroPageY(b)
	case m6502.RelativeAddressing:
		address := w.loadAddress + offset + 2 + int(int8(b))
		return m6502.Absolute(uint16(address))
	case m6502.IndirectAddressing:
		return m6502.Indirect(word)
	case m6502.IndirectXAddressing:
		return m6502.IndirectX(b)
	case m6502.IndirectYAddressing:
		return m6502.IndirectY(b)
	default:
		return nil
	}
}

// writeFormattedData writes a data item using its format descriptor.
func (w *Writer) writeFormattedData(offset int, attr *anattrib.Attrib) (int, error) {
	descriptor := attr.Descriptor()
	length := descriptor.Length()
	comment := w.addressComment(offset)

	switch {
	case descriptor.HasSymbol():
		ref := *descriptor.SymbolRef()
		if label, ok := w.resolveRef(offset, ref); ok {
			switch {
			case length == 1:
				w.writeLine(comment, w.dialect.DirectivePrefix+".byte "+ref.Part.Operator()+label, "")
				return length, nil
			case length == 2 && descriptor.Type() == format.NumericLE:
				w.writeLine(comment, w.dialect.DirectivePrefix+w.dialect.WordDirective+" "+label, "")
				return length, nil
			}
		}

	case descriptor.Type() == format.NumericLE && length == 2:
		if descriptor.SubType() == format.Address {
			if label, ok := w.codeLabel(attr.OperandOffset()); ok {
				w.writeLine(comment, w.dialect.DirectivePrefix+w.dialect.WordDirective+" "+label, "")
				return length, nil
			}
		}
		value := int(w.data[offset+1])<<8 | int(w.data[offset])
		w.writeLine(comment, fmt.Sprintf("%s%s $%04X", w.dialect.DirectivePrefix, w.dialect.WordDirective, value), "")
		return length, nil
	}

	w.bundleDataWrites(offset, w.data[offset:offset+length])
	return length, nil
}

func isZeroPageMode(mode m6502.AddressingMode) bool {
	switch mode {
	case m6502.ZeroPageAddressing, m6502.ZeroPageXAddressing, m6502.ZeroPageYAddressing,
		m6502.IndirectXAddressing, m6502.IndirectYAddressing:
		return true
	default:
		return false
	}
}

func withAdjustment(label string, adjustment int) string {
	var sb strings.Builder
	sb.WriteString(label)
	switch {
	case adjustment > 0:
		fmt.Fprintf(&sb, "+%d", adjustment)
	case adjustment < 0:
		fmt.Fprintf(&sb, "-%d", -adjustment)
	}
	return sb.String()
}
