// Package analysis traces 6502 code flow and fills the attribute store.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"

	m6502 "github.com/retroenv/retrogolib/arch/cpu/cpu6502"
	"github.com/retroenv/retrogolib/arch/system/nes/codedatalog"
	"github.com/retroenv/retrogolib/log"
	"github.com/retroenv/retrogolib/set"
	"github.com/retroenv/retroscope/internal/anattrib"
	"github.com/retroenv/retroscope/internal/format"
	"github.com/retroenv/retroscope/internal/messages"
	"github.com/retroenv/retroscope/internal/status"
)

var errStoreSize = errors.New("attribute store size does not match data length")

// Options of the analyzer.
type Options struct {
	LoadAddress int   // address of the first byte of the file
	EntryPoints []int // file offsets that are known to start code
}

// Analyzer traces code from the entry points and marks instructions and
// data in the attribute store.
type Analyzer struct {
	logger   *log.Logger
	data     []byte
	store    *anattrib.Store
	messages *messages.List
	options  Options

	entryPoints    []int
	subEntryPoints []int
	formats        map[int]*format.Descriptor

	queue  []workItem
	queued set.Set[int]

	returns     []callReturn
	jumpEngines set.Set[int]
	jumpTables  []*jumpTable
	tableStarts set.Set[int]
}

type workItem struct {
	offset  int
	routine int // offset of the subroutine that the code belongs to
	flags   status.Flags
}

// New returns a new analyzer. The store has to hold one record per data byte.
func New(logger *log.Logger, data []byte, store *anattrib.Store, msgs *messages.List, options Options) *Analyzer {
	return &Analyzer{
		logger:      logger,
		data:        data,
		store:       store,
		messages:    msgs,
		options:     options,
		entryPoints: append([]int(nil), options.EntryPoints...),
		formats:     make(map[int]*format.Descriptor),
	}
}

// ApplyCodeDataLog adds entry points from the flags of a Code/Data log.
func (a *Analyzer) ApplyCodeDataLog(prgFlags []codedatalog.PrgFlag) {
	for index, flags := range prgFlags {
		if index >= len(a.data) {
			return
		}

		if flags&codedatalog.Code != 0 {
			a.entryPoints = append(a.entryPoints, index)
		}
		if flags&codedatalog.SubEntryPoint != 0 {
			a.subEntryPoints = append(a.subEntryPoints, index)
		}
	}
}

// ApplyFormats sets the format descriptors that are attached after tracing.
func (a *Analyzer) ApplyFormats(formats map[int]*format.Descriptor) {
	for offset, descriptor := range formats {
		a.formats[offset] = descriptor
	}
}

// Analyze runs the analysis pass. All previous results in the store are discarded.
func (a *Analyzer) Analyze(ctx context.Context) error {
	if a.store.Len() != len(a.data) {
		return fmt.Errorf("%w: %d != %d", errStoreSize, a.store.Len(), len(a.data))
	}

	a.store.Reset()
	a.queue = a.queue[:0]
	a.queued = set.New[int]()
	a.returns = nil
	a.jumpEngines = set.New[int]()
	a.jumpTables = nil
	a.tableStarts = set.New[int]()

	for offset := range a.data {
		a.store.At(offset).Address = a.options.LoadAddress + offset
	}

	entryPoints := a.entryPoints
	if len(entryPoints) == 0 && len(a.data) > 0 {
		entryPoints = []int{0}
	}
	for _, offset := range entryPoints {
		if offset < 0 || offset >= len(a.data) {
			a.logger.Warn("Ignoring entry point outside of file", log.Hex("offset", offset))
			continue
		}
		a.store.At(offset).SetFlag(anattrib.EntryPoint)
		a.enqueue(offset, status.AllIndeterminate, offset)
	}
	for _, offset := range a.subEntryPoints {
		a.store.At(offset).SetFlag(anattrib.EntryPoint | anattrib.BranchTarget)
	}

	for {
		if err := a.traceQueue(ctx); err != nil {
			return err
		}
		if !a.resumeCallReturns() && !a.nextJumpTableEntry() {
			break
		}
	}

	a.applyFormats()

	for offset := range a.data {
		a.store.At(offset).ClearFlag(anattrib.Visited | anattrib.Changed)
	}
	return nil
}

func (a *Analyzer) traceQueue(ctx context.Context) error {
	for len(a.queue) > 0 {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("tracing code: %w", err)
		}

		item := a.queue[0]
		a.queue = a.queue[1:]
		a.queued.Remove(item.offset)
		a.trace(item)
	}
	return nil
}

// enqueue adds the offset to the work list. Flags of an offset that is
// already queued are merged into the queued item.
func (a *Analyzer) enqueue(offset int, flags status.Flags, routine int) {
	if a.queued.Contains(offset) {
		for i := range a.queue {
			if a.queue[i].offset == offset {
				a.queue[i].flags.Merge(flags)
				return
			}
		}
	}
	a.queued.Add(offset)
	a.queue = append(a.queue, workItem{offset: offset, routine: routine, flags: flags})
}

// trace follows the linear code flow starting at the offset until the flow
// ends or reaches an instruction whose status does not change anymore.
func (a *Analyzer) trace(item workItem) {
	offset, flags := item.offset, item.flags
	for offset < len(a.data) {
		attr := a.store.At(offset)

		if attr.IsInstructionStart() {
			before := attr.StatusFlags()
			attr.MergeStatusFlags(flags)
			if attr.StatusFlags() == before {
				return
			}
			attr.SetFlag(anattrib.Changed)
		} else {
			if !a.decode(offset) {
				return
			}
			attr.SetStatusFlags(flags)
		}
		attr.SetFlag(anattrib.Visited)

		next, nextFlags, ok := a.step(offset, attr, item.routine)
		if !ok {
			return
		}
		offset, flags = next, nextFlags
	}
}

// decode marks the instruction at the offset if all its bytes are untyped.
func (a *Analyzer) decode(offset int) bool {
	attr := a.store.At(offset)
	if !attr.IsUntyped() {
		a.logger.Debug("Code flow reaches already classified byte", log.Hex("offset", offset))
		return false
	}

	opcode := m6502.Opcodes[a.data[offset]]
	if opcode.Instruction == nil || opcode.Instruction.Unofficial {
		a.logger.Debug("Code flow reaches unofficial opcode",
			log.Hex("offset", offset),
			log.Hex("opcode", a.data[offset]))
		return false
	}

	length := InstructionLength(m6502.AddressingMode(opcode.Addressing))
	if offset+length > len(a.data) {
		return false
	}
	for i := 1; i < length; i++ {
		if !a.store.At(offset + i).IsUntyped() {
			return false
		}
	}

	attr.SetInstructionStart()
	attr.SetLength(length)
	for i := 1; i < length; i++ {
		a.store.At(offset + i).SetInstruction()
	}
	return true
}

// step processes the control flow of the decoded instruction and returns
// the offset and status of the following instruction.
func (a *Analyzer) step(offset int, attr *anattrib.Attrib, routine int) (int, status.Flags, bool) {
	opcode := m6502.Opcodes[a.data[offset]]
	name := opcode.Instruction.Name
	mode := m6502.AddressingMode(opcode.Addressing)
	flags := attr.StatusFlags()
	next := offset + attr.Length()

	target, hasTarget := a.operandAddress(offset, mode)
	targetOffset := anattrib.Unset
	if hasTarget {
		attr.SetOperandAddress(target)
		if t := target - a.options.LoadAddress; t >= 0 && t < len(a.data) {
			targetOffset = t
			attr.SetOperandOffset(t)
			attr.SetFlag(anattrib.OperandOffsetDirect)
		}
	}

	if mode == m6502.RelativeAddressing {
		return a.stepBranch(attr, name, flags, next, targetOffset, routine)
	}

	if _, ok := m6502.BranchingInstructions[name]; ok && mode == m6502.AbsoluteAddressing {
		if targetOffset != anattrib.Unset {
			a.store.At(targetOffset).SetFlag(anattrib.BranchTarget)
			if name == m6502.JsrInst.Name {
				a.enqueue(targetOffset, flags, targetOffset)
				a.returns = append(a.returns, callReturn{
					offset:  next,
					routine: routine,
					callee:  targetOffset,
					flags:   flagsAfter(name, flags),
				})
				return 0, flags, false
			}
			a.enqueue(targetOffset, flags, routine)
		} else {
			attr.SetFlag(anattrib.ExternalBranch)
		}
	}
	if name == m6502.JmpInst.Name {
		attr.SetBranchTaken(anattrib.BranchAlways)
		if mode == m6502.IndirectAddressing {
			a.checkJumpEngine(offset, routine)
		}
	}

	if _, ok := m6502.NotExecutingFollowingOpcodeInstructions[name]; ok {
		attr.SetFlag(anattrib.NoContinue)
		return 0, flags, false
	}

	return next, flagsAfter(name, flags), true
}

// stepBranch handles a conditional branch. The branch is followed or
// skipped when the status proves its condition.
func (a *Analyzer) stepBranch(attr *anattrib.Attrib, name string, flags status.Flags,
	next, targetOffset, routine int) (int, status.Flags, bool) {

	taken := branchTaken(name, flags)
	attr.SetBranchTaken(taken)

	if taken != anattrib.BranchNever {
		if targetOffset != anattrib.Unset {
			a.store.At(targetOffset).SetFlag(anattrib.BranchTarget)
			a.enqueue(targetOffset, branchFlags(name, flags, true), routine)
		} else {
			attr.SetFlag(anattrib.ExternalBranch)
		}
	}

	if taken == anattrib.BranchAlways {
		attr.SetFlag(anattrib.NoContinue)
		return 0, flags, false
	}
	return next, branchFlags(name, flags, false), true
}

// operandAddress returns the address referenced by the operand.
func (a *Analyzer) operandAddress(offset int, mode m6502.AddressingMode) (int, bool) {
	switch mode {
	case m6502.ZeroPageAddressing, m6502.ZeroPageXAddressing, m6502.ZeroPageYAddressing,
		m6502.IndirectXAddressing, m6502.IndirectYAddressing:
		return int(a.data[offset+1]), true

	case m6502.AbsoluteAddressing, m6502.AbsoluteXAddressing, m6502.AbsoluteYAddressing,
		m6502.IndirectAddressing:
		return int(a.data[offset+2])<<8 | int(a.data[offset+1]), true

	case m6502.RelativeAddressing:
		address := a.options.LoadAddress + offset + 2 + int(int8(a.data[offset+1]))
		if address < 0 {
			return 0, false
		}
		return address & 0xffff, true

	default:
		return 0, false
	}
}

// applyFormats attaches the format descriptors to untyped byte runs and
// instruction operands. Descriptors that overlap code are reported and ignored.
func (a *Analyzer) applyFormats() {
	for _, offset := range slices.Sorted(maps.Keys(a.formats)) {
		descriptor := a.formats[offset]
		if offset < 0 || offset+descriptor.Length() > len(a.data) {
			a.rejectFormat(offset, messages.InvalidOffsetOrLength, descriptor)
			continue
		}

		attr := a.store.At(offset)
		if attr.IsInstructionStart() {
			if descriptor.IsValidForInstruction() {
				attr.SetDescriptor(descriptor)
			} else {
				a.rejectFormat(offset, messages.InvalidDescriptor, descriptor)
			}
			continue
		}

		if !a.isUntypedRun(offset, descriptor.Length()) {
			a.rejectFormat(offset, messages.InvalidDescriptor, descriptor)
			continue
		}
		for i := range descriptor.Length() {
			a.store.At(offset + i).SetData()
		}
		attr.SetDescriptor(descriptor)
	}
}

func (a *Analyzer) isUntypedRun(offset, length int) bool {
	for i := range length {
		attr := a.store.At(offset + i)
		if !attr.IsUntyped() || attr.Descriptor() != nil {
			return false
		}
	}
	return true
}

func (a *Analyzer) rejectFormat(offset int, typ messages.Type, descriptor *format.Descriptor) {
	a.logger.Debug("Ignoring format descriptor",
		log.Hex("offset", offset),
		log.Stringer("format", descriptor))
	if a.messages == nil {
		return
	}
	a.messages.Add(messages.Entry{
		Severity:   messages.Warning,
		Offset:     offset,
		Type:       typ,
		Context:    descriptor.String(),
		Resolution: messages.FormatDescriptorIgnored,
	})
}

// InstructionLength returns the instruction length in bytes for the addressing mode.
func InstructionLength(mode m6502.AddressingMode) int {
	switch mode {
	case m6502.ImpliedAddressing, m6502.AccumulatorAddressing:
		return 1
	case m6502.AbsoluteAddressing, m6502.AbsoluteXAddressing, m6502.AbsoluteYAddressing,
		m6502.IndirectAddressing:
		return 3
	default:
		return 2
	}
}
