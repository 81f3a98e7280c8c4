// Package anattrib holds the per-byte analysis attributes of the input file.
package anattrib

import (
	"fmt"
	"strings"

	"github.com/retroenv/retroscope/internal/format"
	"github.com/retroenv/retroscope/internal/status"
	"github.com/retroenv/retroscope/internal/symbols"
)

// Unset is returned for operand values that have not been set.
const Unset = -1

// Class defines the classification of a byte. The classes are exclusive.
type Class uint8

//go:generate go tool stringer -type Class -linecomment
const (
	Untyped     Class = iota // untyped
	Instruction              // instruction
	Data                     // data
	InlineData               // inline-data
)

// BranchTaken defines whether a branch instruction takes its branch.
type BranchTaken uint8

//go:generate go tool stringer -type BranchTaken -linecomment
const (
	BranchUnknown   BranchTaken = iota // unknown
	BranchNever                        // never
	BranchAlways                       // always
	BranchSometimes                    // sometimes
)

// Flag defines a control flow fact of a byte.
type Flag uint16

// control flow facts.
const (
	EntryPoint       Flag = 1 << iota
	BranchTarget          // target of a branch or jump inside the file
	ExternalBranch        // branch or jump to an address outside of the file
	NoContinue            // execution does not continue after the instruction
	NoContinueScript      // like NoContinue but set by an extension
	Visited               // transient, set during the analysis pass
	Changed               // transient, set during the analysis pass
	ATagged               // tagged by the analyzer
	AddrRegionChange      // an address region starts or ends here
	NonAddressable        // byte is not mapped into the address space
	UsesDataBankReg       // operand uses the data bank register
	OperandOffsetDirect   // operand offset is the operand address inside the file
)

// Attrib holds the analysis attributes of a single byte.
type Attrib struct {
	Address int // address of the byte in the target address space

	// Symbol is the label bound to this offset.
	Symbol *symbols.Symbol

	class       Class
	instrStart  bool
	flags       Flag
	length      int
	branchTaken BranchTaken
	statusFlags status.Flags
	descriptor  *format.Descriptor

	// stored incremented by one so that the zero value means unset
	operandAddress int
	operandOffset  int
}

// Class returns the classification of the byte.
func (a *Attrib) Class() Class {
	return a.class
}

// SetInstruction marks the byte as part of an instruction.
func (a *Attrib) SetInstruction() {
	a.setClass(Instruction)
}

// SetInstructionStart marks the byte as the first byte of an instruction.
func (a *Attrib) SetInstructionStart() {
	a.setClass(Instruction)
	a.instrStart = true
}

// SetData marks the byte as data.
func (a *Attrib) SetData() {
	a.setClass(Data)
}

// SetInlineData marks the byte as data that is embedded in the instruction stream.
func (a *Attrib) SetInlineData() {
	a.setClass(InlineData)
}

// ClearClass resets the classification to untyped.
func (a *Attrib) ClearClass() {
	a.class = Untyped
	a.instrStart = false
	a.length = 0
}

func (a *Attrib) setClass(class Class) {
	if a.class != Untyped && a.class != class {
		panic(fmt.Sprintf("setting class %s on byte classified as %s", class, a.class))
	}
	a.class = class
}

// IsUntyped returns whether the byte has not been classified.
func (a *Attrib) IsUntyped() bool {
	return a.class == Untyped
}

// IsInstruction returns whether the byte is part of an instruction.
func (a *Attrib) IsInstruction() bool {
	return a.class == Instruction
}

// IsData returns whether the byte is data.
func (a *Attrib) IsData() bool {
	return a.class == Data
}

// IsInlineData returns whether the byte is inline data.
func (a *Attrib) IsInlineData() bool {
	return a.class == InlineData
}

// IsInstructionStart returns whether the byte is the first byte of an instruction.
func (a *Attrib) IsInstructionStart() bool {
	return a.class == Instruction && a.instrStart
}

// IsDataStart returns whether the byte starts a formatted data item.
func (a *Attrib) IsDataStart() bool {
	return a.class == Data && a.descriptor != nil
}

// IsInlineDataStart returns whether the byte starts a formatted inline data item.
func (a *Attrib) IsInlineDataStart() bool {
	return a.class == InlineData && a.descriptor != nil
}

// IsStart returns whether the byte starts an instruction or a formatted data item.
func (a *Attrib) IsStart() bool {
	return a.IsInstructionStart() || a.IsDataStart() || a.IsInlineDataStart()
}

// Length returns the length of the item. For data it is derived from the
// format descriptor and is zero without one.
func (a *Attrib) Length() int {
	if a.class == Data || a.class == InlineData {
		if a.descriptor == nil {
			return 0
		}
		return a.descriptor.Length()
	}
	return a.length
}

// SetLength sets the length of an instruction.
func (a *Attrib) SetLength(length int) {
	if a.class == Data || a.class == InlineData {
		panic("length of data is defined by its format descriptor")
	}
	if length < 0 {
		panic(fmt.Sprintf("negative length %d", length))
	}
	a.length = length
}

// HasFlag returns whether any of the given flags is set.
func (a *Attrib) HasFlag(flag Flag) bool {
	return a.flags&flag != 0
}

// SetFlag sets the given flags.
func (a *Attrib) SetFlag(flag Flag) {
	a.flags |= flag
}

// ClearFlag unsets the given flags.
func (a *Attrib) ClearFlag(flag Flag) {
	a.flags &^= flag
}

// DoesNotBranch returns whether the branch of the instruction is never taken.
func (a *Attrib) DoesNotBranch() bool {
	return a.branchTaken == BranchNever
}

// DoesNotContinue returns whether execution never continues after the instruction.
func (a *Attrib) DoesNotContinue() bool {
	return a.HasFlag(NoContinue | NoContinueScript)
}

// BranchTaken returns the branch behavior of the instruction.
func (a *Attrib) BranchTaken() BranchTaken {
	return a.branchTaken
}

// SetBranchTaken sets the branch behavior of the instruction.
func (a *Attrib) SetBranchTaken(taken BranchTaken) {
	a.branchTaken = taken
}

// StatusFlags returns the processor status at the start of the instruction.
func (a *Attrib) StatusFlags() status.Flags {
	return a.statusFlags
}

// SetStatusFlags replaces the processor status.
func (a *Attrib) SetStatusFlags(flags status.Flags) {
	a.statusFlags = flags
}

// MergeStatusFlags merges the status of another incoming path.
func (a *Attrib) MergeStatusFlags(flags status.Flags) {
	a.statusFlags.Merge(flags)
}

// ApplyStatusFlags overrides the status with all flags specified in flags.
func (a *Attrib) ApplyStatusFlags(flags status.Flags) {
	a.statusFlags.Apply(flags)
}

// OperandAddress returns the address referenced by the operand or Unset.
func (a *Attrib) OperandAddress() int {
	return a.operandAddress - 1
}

// SetOperandAddress sets the address referenced by the operand.
func (a *Attrib) SetOperandAddress(address int) {
	if address < 0 {
		panic(fmt.Sprintf("negative operand address %d", address))
	}
	a.operandAddress = address + 1
}

// ClearOperandAddress unsets the operand address.
func (a *Attrib) ClearOperandAddress() {
	a.operandAddress = 0
}

// OperandOffset returns the file offset referenced by the operand or Unset.
func (a *Attrib) OperandOffset() int {
	return a.operandOffset - 1
}

// SetOperandOffset sets the file offset referenced by the operand.
func (a *Attrib) SetOperandOffset(offset int) {
	if offset < 0 {
		panic(fmt.Sprintf("negative operand offset %d", offset))
	}
	a.operandOffset = offset + 1
}

// ClearOperandOffset unsets the operand offset.
func (a *Attrib) ClearOperandOffset() {
	a.operandOffset = 0
	a.ClearFlag(OperandOffsetDirect)
}

// IsInstructionWithOperand returns whether the byte starts an instruction
// that references an address.
func (a *Attrib) IsInstructionWithOperand() bool {
	return a.IsInstructionStart() && a.operandAddress != 0
}

// Descriptor returns the format descriptor or nil.
func (a *Attrib) Descriptor() *format.Descriptor {
	return a.descriptor
}

// SetDescriptor attaches a format descriptor. Passing nil removes it.
func (a *Attrib) SetDescriptor(descriptor *format.Descriptor) {
	a.descriptor = descriptor
}

// AttrString returns a short indicator string of the entry point, tag,
// branch and continue state and whether the byte is a branch target.
func (a *Attrib) AttrString() string {
	var sb strings.Builder
	sb.Grow(5)
	writeIndicator(&sb, a.HasFlag(EntryPoint), '@')
	writeIndicator(&sb, a.HasFlag(ATagged), 'T')
	writeIndicator(&sb, a.DoesNotBranch(), '!')
	writeIndicator(&sb, a.DoesNotContinue(), '#')
	writeIndicator(&sb, a.HasFlag(BranchTarget), '>')
	return sb.String()
}

func writeIndicator(sb *strings.Builder, set bool, indicator byte) {
	if set {
		sb.WriteByte(indicator)
	} else {
		sb.WriteByte('.')
	}
}

func (a *Attrib) String() string {
	s := fmt.Sprintf("%s %s len=%d addr=$%04x", a.AttrString(), a.class, a.Length(), a.Address)
	if a.IsStart() {
		s += " start"
	}
	if a.descriptor != nil {
		s += " fmt=" + a.descriptor.String()
	}
	return s
}
