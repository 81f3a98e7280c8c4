// Package symbols provides symbol definitions and the global symbol namespace.
package symbols

import "fmt"

// Source defines where a symbol originated. Lower values take precedence.
type Source uint8

//go:generate go tool stringer -type Source -linecomment
const (
	UnknownSource Source = iota // unknown
	User                        // user
	Project                     // project
	Platform                    // platform
	AddrPreLabel                // addr-pre-label
	Auto                        // auto
	Variable                    // variable
)

// Type defines how the value of a symbol is used.
type Type uint8

//go:generate go tool stringer -type Type -linecomment
const (
	UnknownType       Type = iota // unknown
	LocalOrGlobalAddr             // local-or-global-addr
	GlobalAddr                    // global-addr
	GlobalAddrExport              // global-addr-export
	ExternalAddr                  // external-addr
	Constant                      // constant
)

// Symbol is a named value. Labels are case-sensitive.
type Symbol struct {
	Label  string
	Value  int
	Source Source
	Type   Type
}

// New returns a new symbol.
func New(label string, value int, source Source, typ Type) *Symbol {
	return &Symbol{
		Label:  label,
		Value:  value,
		Source: source,
		Type:   typ,
	}
}

// IsConstant returns whether the symbol value is a constant instead of an address.
func (s *Symbol) IsConstant() bool {
	return s.Type == Constant
}

// IsVariable returns whether the symbol was defined by a local variable table.
func (s *Symbol) IsVariable() bool {
	return s.Source == Variable
}

// Equal returns whether both symbols have the same label, value, source and type.
func (s *Symbol) Equal(other *Symbol) bool {
	if s == nil || other == nil {
		return s == other
	}
	return *s == *other
}

func (s *Symbol) String() string {
	return fmt.Sprintf("%s=$%04x (%s/%s)", s.Label, s.Value, s.Source, s.Type)
}
