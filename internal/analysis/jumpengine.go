package analysis

import (
	"slices"

	"github.com/retroenv/retrogolib/log"
	"github.com/retroenv/retroscope/internal/anattrib"
	"github.com/retroenv/retroscope/internal/format"
	"github.com/retroenv/retroscope/internal/status"
)

// jumpEngineMaxContextSize is the largest subroutine that ends in an indirect
// jmp and is still considered a jump engine.
const jumpEngineMaxContextSize = 0x25

// jumpTableEntry renders a jump table entry as an address word.
var jumpTableEntry = mustDescriptor(format.New(2, format.NumericLE, format.Address))

// callReturn is the continuation after a subroutine call. It is traced after
// the called subroutine so that calls into a jump engine can be detected
// before the bytes following the call are decoded as code.
type callReturn struct {
	offset  int
	routine int
	callee  int
	flags   status.Flags
}

// jumpTable stores the function address table following a jump engine call.
type jumpTable struct {
	start      int
	entries    int
	terminated bool
}

// checkJumpEngine marks the subroutine as jump engine if the
// indirect jmp at the offset is close to its start. This pattern is found in
// official games like Super Mario Bros.
func (a *Analyzer) checkJumpEngine(offset, routine int) {
	if routine == anattrib.Unset || a.jumpEngines.Contains(routine) {
		return
	}
	size := offset - routine + 3
	if size <= 0 || size >= jumpEngineMaxContextSize {
		return
	}

	a.logger.Debug("Jump engine detected",
		log.Hex("offset", routine),
		log.Int("code_size", size))
	a.jumpEngines.Add(routine)
}

// resumeCallReturns traces the code following all pending subroutine calls.
// Calls into a jump engine start a function address table instead.
// It returns whether any call was processed.
func (a *Analyzer) resumeCallReturns() bool {
	if len(a.returns) == 0 {
		return false
	}

	returns := a.returns
	a.returns = nil
	for _, ret := range returns {
		if !a.jumpEngines.Contains(ret.callee) {
			a.enqueue(ret.offset, ret.flags, ret.routine)
			continue
		}
		if a.tableStarts.Contains(ret.offset) {
			continue
		}
		a.tableStarts.Add(ret.offset)
		a.jumpTables = append(a.jumpTables, &jumpTable{start: ret.offset})
	}
	return true
}

// nextJumpTableEntry processes one more entry of the jump table with the
// fewest processed entries. Tables are advanced one entry at a time so that
// code reached through an entry ends the table before its bytes are
// interpreted as function addresses. It returns whether an entry was added.
func (a *Analyzer) nextJumpTableEntry() bool {
	for len(a.jumpTables) > 0 {
		a.jumpTables = slices.DeleteFunc(a.jumpTables, func(table *jumpTable) bool {
			return table.terminated
		})
		if len(a.jumpTables) == 0 {
			return false
		}

		minEntries := a.jumpTables[0].entries
		for _, table := range a.jumpTables[1:] {
			minEntries = min(minEntries, table.entries)
		}

		for _, table := range a.jumpTables {
			if table.entries != minEntries {
				continue
			}
			if a.processJumpTableEntry(table) {
				return true
			}
			a.logger.Debug("Jump engine table",
				log.Hex("offset", table.start),
				log.Int("entries", table.entries))
		}
	}
	return false
}

// processJumpTableEntry marks the next word of the table as function address
// and queues the function for tracing. The table ends at the first word that
// is already classified or that points outside of the file.
func (a *Analyzer) processJumpTableEntry(table *jumpTable) bool {
	entry := table.start + 2*table.entries
	if entry+1 >= len(a.data) || !a.isUntypedRun(entry, 2) {
		table.terminated = true
		return false
	}

	destination := int(a.data[entry+1])<<8 | int(a.data[entry])
	target := destination - a.options.LoadAddress
	if target < 0 || target >= len(a.data) {
		table.terminated = true
		return false
	}

	a.store.At(entry).SetData()
	a.store.At(entry + 1).SetData()
	attr := a.store.At(entry)
	attr.SetDescriptor(jumpTableEntry)
	attr.SetOperandAddress(destination)
	attr.SetOperandOffset(target)
	attr.SetFlag(anattrib.OperandOffsetDirect)

	a.store.At(target).SetFlag(anattrib.EntryPoint)
	a.enqueue(target, status.AllIndeterminate, target)
	table.entries++
	return true
}

func mustDescriptor(descriptor *format.Descriptor, err error) *format.Descriptor {
	if err != nil {
		panic(err)
	}
	return descriptor
}
