package symbols

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/retroenv/retrogolib/set"
)

// ErrDuplicateLabel is returned when adding a symbol with a label that is already in use.
var ErrDuplicateLabel = errors.New("duplicate label")

// Table is the global symbol namespace. Every label is unique, the
// table keeps a by-value view for address lookups.
type Table struct {
	labels  map[string]*Symbol
	byValue []*Symbol // sorted by value, then label; nil when stale
	used    set.Set[string]
	serial  int
}

// NewTable creates a new empty symbol table.
func NewTable() *Table {
	return &Table{
		labels: make(map[string]*Symbol),
		used:   set.New[string](),
	}
}

// Add adds a symbol. The label must not be in use yet.
func (t *Table) Add(sym *Symbol) error {
	if _, ok := t.labels[sym.Label]; ok {
		return fmt.Errorf("%w: '%s'", ErrDuplicateLabel, sym.Label)
	}
	t.Set(sym)
	return nil
}

// Set adds a symbol or replaces the symbol that uses the same label.
func (t *Table) Set(sym *Symbol) {
	t.labels[sym.Label] = sym
	t.changed()
}

// Remove removes the symbol with the given label and returns whether it existed.
func (t *Table) Remove(label string) bool {
	if _, ok := t.labels[label]; !ok {
		return false
	}
	delete(t.labels, label)
	t.used.Remove(label)
	t.changed()
	return true
}

// TryGetValue returns the symbol with the given label.
func (t *Table) TryGetValue(label string) (*Symbol, bool) {
	sym, ok := t.labels[label]
	return sym, ok
}

// TryGetNonVariableValue returns the symbol with the given label unless
// it was defined by a local variable table.
func (t *Table) TryGetNonVariableValue(label string) (*Symbol, bool) {
	sym, ok := t.labels[label]
	if !ok || sym.IsVariable() {
		return nil, false
	}
	return sym, true
}

// FindAddressByValue returns the address symbol for the value. When
// multiple symbols share the value the one with the highest source
// precedence is returned.
func (t *Table) FindAddressByValue(value int) (*Symbol, bool) {
	sorted := t.sortedByValue()
	index := sort.Search(len(sorted), func(i int) bool {
		return sorted[i].Value >= value
	})

	var best *Symbol
	for ; index < len(sorted) && sorted[index].Value == value; index++ {
		sym := sorted[index]
		if sym.IsConstant() || sym.IsVariable() {
			continue
		}
		if best == nil || sym.Source < best.Source {
			best = sym
		}
	}
	return best, best != nil
}

// GenerateUniqueForAddress returns a label based on the prefix and
// address that is not used in the table yet.
func (t *Table) GenerateUniqueForAddress(address int, prefix string) string {
	label := fmt.Sprintf("%s%04x", prefix, address)
	if _, ok := t.labels[label]; !ok {
		return label
	}
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s_%d", label, i)
		if _, ok := t.labels[candidate]; !ok {
			return candidate
		}
	}
}

// Symbols returns all symbols sorted by label.
func (t *Table) Symbols() []*Symbol {
	syms := make([]*Symbol, 0, len(t.labels))
	for _, sym := range t.labels {
		syms = append(syms, sym)
	}
	slices.SortFunc(syms, func(a, b *Symbol) int {
		return strings.Compare(a.Label, b.Label)
	})
	return syms
}

// Len returns the number of symbols in the table.
func (t *Table) Len() int {
	return len(t.labels)
}

// ChangeSerial returns a counter that increases on every modification.
func (t *Table) ChangeSerial() int {
	return t.serial
}

// MarkUsed marks a label as referenced by the output.
func (t *Table) MarkUsed(label string) {
	t.used.Add(label)
}

// IsUsed returns whether a label was marked as referenced.
func (t *Table) IsUsed(label string) bool {
	return t.used.Contains(label)
}

func (t *Table) changed() {
	t.serial++
	t.byValue = nil
}

func (t *Table) sortedByValue() []*Symbol {
	if t.byValue != nil {
		return t.byValue
	}

	t.byValue = make([]*Symbol, 0, len(t.labels))
	for _, sym := range t.labels {
		t.byValue = append(t.byValue, sym)
	}
	sort.Slice(t.byValue, func(i, j int) bool {
		a, b := t.byValue[i], t.byValue[j]
		if a.Value != b.Value {
			return a.Value < b.Value
		}
		return a.Label < b.Label
	})
	return t.byValue
}
