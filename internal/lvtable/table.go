// Package lvtable implements local variable tables, sets of variable
// definitions that become active at a file offset.
package lvtable

import (
	"slices"
	"strings"

	"github.com/retroenv/retroscope/internal/symbols"
)

// Table is a set of variable definitions ordered by label.
type Table struct {
	// ClearPrevious discards all previously defined variables before the
	// definitions of this table are applied.
	ClearPrevious bool

	defs []*symbols.DefSymbol
}

// New returns a new empty table.
func New() *Table {
	return &Table{}
}

// NewFrom returns a copy of the table. The definitions are shared.
func NewFrom(src *Table) *Table {
	return &Table{
		ClearPrevious: src.ClearPrevious,
		defs:          slices.Clone(src.defs),
	}
}

// AddOrReplace adds the definition or replaces the definition with the same label.
func (t *Table) AddOrReplace(def *symbols.DefSymbol) {
	index, found := t.find(def.Label)
	if found {
		t.defs[index] = def
		return
	}
	t.defs = slices.Insert(t.defs, index, def)
}

// Remove removes the definition with the label and returns whether it existed.
func (t *Table) Remove(label string) bool {
	index, found := t.find(label)
	if !found {
		return false
	}
	t.defs = slices.Delete(t.defs, index, index+1)
	return true
}

// Clear removes all definitions.
func (t *Table) Clear() {
	clear(t.defs)
	t.defs = t.defs[:0]
}

// Len returns the number of definitions.
func (t *Table) Len() int {
	return len(t.defs)
}

// At returns the definition at the index in label order.
func (t *Table) At(index int) *symbols.DefSymbol {
	return t.defs[index]
}

// Definitions returns a copy of all definitions in label order.
func (t *Table) Definitions() []*symbols.DefSymbol {
	return slices.Clone(t.defs)
}

// GetByLabel returns the definition with the label.
func (t *Table) GetByLabel(label string) (*symbols.DefSymbol, bool) {
	index, found := t.find(label)
	if !found {
		return nil, false
	}
	return t.defs[index], true
}

// GetByValueRange returns the first definition in label order whose value
// range overlaps the given range.
func (t *Table) GetByValueRange(value, width int, typ symbols.Type) (*symbols.DefSymbol, bool) {
	for _, def := range t.defs {
		if def.Overlaps(value, width, typ) {
			return def, true
		}
	}
	return nil, false
}

// Equal returns whether both tables have the same ClearPrevious flag and
// identical definitions.
func (t *Table) Equal(other *Table) bool {
	if t == nil || other == nil {
		return t == other
	}
	if t.ClearPrevious != other.ClearPrevious {
		return false
	}
	return slices.EqualFunc(t.defs, other.defs, (*symbols.DefSymbol).Equal)
}

func (t *Table) find(label string) (int, bool) {
	return slices.BinarySearchFunc(t.defs, label, func(def *symbols.DefSymbol, label string) int {
		return strings.Compare(def.Label, label)
	})
}
