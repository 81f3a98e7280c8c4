// Package messages collects diagnostics about problems found while
// processing a project.
package messages

import (
	"cmp"
	"fmt"
	"slices"
)

// Severity of a diagnostic.
type Severity uint8

//go:generate go tool stringer -type Severity -linecomment
const (
	Info    Severity = iota // info
	Warning                 // warning
	Error                   // error
)

// Type of the detected problem.
type Type uint8

//go:generate go tool stringer -type Type -linecomment
const (
	UnknownType              Type = iota // unknown
	HiddenLabel                          // hidden label
	HiddenLocalVariableTable             // hidden local variable table
	UnresolvedWeakRef                    // unresolved symbol reference
	DuplicateLabel                       // duplicate label
	InvalidOffsetOrLength                // invalid offset or length
	InvalidDescriptor                    // invalid format descriptor
)

// Resolution describes how the problem was handled.
type Resolution uint8

//go:generate go tool stringer -type Resolution -linecomment
const (
	None                      Resolution = iota // none
	LabelIgnored                                // label ignored
	LocalVariableTableIgnored                   // local variable table ignored
	FormatDescriptorIgnored                     // format descriptor ignored
	LabelRenamed                                // label renamed
)

// Entry is a single diagnostic.
type Entry struct {
	Severity   Severity
	Offset     int
	Type       Type
	Context    string
	Resolution Resolution
}

func (e Entry) String() string {
	s := fmt.Sprintf("%s +%06x %s", e.Severity, e.Offset, e.Type)
	if e.Context != "" {
		s += ": " + e.Context
	}
	if e.Resolution != None {
		s += " (" + e.Resolution.String() + ")"
	}
	return s
}

// List is an ordered list of diagnostics.
type List struct {
	entries []Entry
}

// New returns an empty list.
func New() *List {
	return &List{}
}

// Add appends an entry.
func (l *List) Add(entry Entry) {
	l.entries = append(l.entries, entry)
}

// Len returns the number of entries.
func (l *List) Len() int {
	return len(l.entries)
}

// Clear removes all entries.
func (l *List) Clear() {
	l.entries = nil
}

// Entries returns a copy of the entries in insertion order.
func (l *List) Entries() []Entry {
	return slices.Clone(l.entries)
}

// Sorted returns a copy of the entries sorted by offset and type.
func (l *List) Sorted() []Entry {
	entries := slices.Clone(l.entries)
	slices.SortStableFunc(entries, func(a, b Entry) int {
		if c := cmp.Compare(a.Offset, b.Offset); c != 0 {
			return c
		}
		return cmp.Compare(a.Type, b.Type)
	})
	return entries
}

// Count returns the number of entries of the given type.
func (l *List) Count(typ Type) int {
	var n int
	for _, e := range l.entries {
		if e.Type == typ {
			n++
		}
	}
	return n
}
