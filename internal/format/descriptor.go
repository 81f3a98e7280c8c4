// Package format defines descriptors that control how data and operand bytes are rendered.
package format

import (
	"errors"
	"fmt"

	"github.com/retroenv/retroscope/internal/symbols"
)

// ErrInvalidDescriptor is returned for descriptors with invalid parameters.
var ErrInvalidDescriptor = errors.New("invalid format descriptor")

// Type defines the rendering of a data item.
type Type uint8

//go:generate go tool stringer -type Type -linecomment
const (
	Default   Type = iota // default
	NumericLE             // numeric-le
	NumericBE             // numeric-be
	String                // string
	Dense                 // dense
	Fill                  // fill
	Junk                  // junk
)

// SubType refines the rendering of a numeric item.
type SubType uint8

//go:generate go tool stringer -type SubType -linecomment
const (
	None    SubType = iota // none
	Hex                    // hex
	Decimal                // decimal
	Binary                 // binary
	Address                // address
	Symbol                 // symbol
	ASCII                  // ascii
)

// maxNumericLength is the longest numeric value that can be rendered.
const maxNumericLength = 4

// Descriptor describes a formatted item. It is immutable after creation.
type Descriptor struct {
	length    int
	typ       Type
	subType   SubType
	symbolRef *symbols.WeakRef
}

// New returns a new descriptor for a non-symbolic item.
func New(length int, typ Type, subType SubType) (*Descriptor, error) {
	if length <= 0 {
		return nil, fmt.Errorf("%w: length %d", ErrInvalidDescriptor, length)
	}
	if subType == Symbol {
		return nil, fmt.Errorf("%w: symbol sub-type requires a reference", ErrInvalidDescriptor)
	}
	if (typ == NumericLE || typ == NumericBE) && length > maxNumericLength {
		return nil, fmt.Errorf("%w: numeric length %d", ErrInvalidDescriptor, length)
	}

	return &Descriptor{
		length:  length,
		typ:     typ,
		subType: subType,
	}, nil
}

// NewSymbolRef returns a new descriptor for a numeric item that references a symbol.
func NewSymbolRef(length int, ref symbols.WeakRef, bigEndian bool) (*Descriptor, error) {
	if length <= 0 || length > maxNumericLength {
		return nil, fmt.Errorf("%w: symbol reference length %d", ErrInvalidDescriptor, length)
	}
	if ref.Label == "" {
		return nil, fmt.Errorf("%w: empty symbol reference", ErrInvalidDescriptor)
	}

	typ := NumericLE
	if bigEndian {
		typ = NumericBE
	}
	return &Descriptor{
		length:    length,
		typ:       typ,
		subType:   Symbol,
		symbolRef: &ref,
	}, nil
}

// Length returns the number of bytes covered by the item.
func (d *Descriptor) Length() int {
	return d.length
}

// Type returns the format type.
func (d *Descriptor) Type() Type {
	return d.typ
}

// SubType returns the format sub-type.
func (d *Descriptor) SubType() SubType {
	return d.subType
}

// SymbolRef returns the referenced symbol or nil.
func (d *Descriptor) SymbolRef() *symbols.WeakRef {
	return d.symbolRef
}

// HasSymbol returns whether the descriptor references a symbol.
func (d *Descriptor) HasSymbol() bool {
	return d.symbolRef != nil
}

// IsNumeric returns whether the item is rendered as numeric values.
func (d *Descriptor) IsNumeric() bool {
	return d.typ == NumericLE || d.typ == NumericBE
}

// IsValidForInstruction returns whether the descriptor can format an instruction operand.
func (d *Descriptor) IsValidForInstruction() bool {
	return d.typ == NumericLE && d.length <= 3
}

// Equal returns whether both descriptors render identically.
func (d *Descriptor) Equal(other *Descriptor) bool {
	if d == nil || other == nil {
		return d == other
	}
	if d.length != other.length || d.typ != other.typ || d.subType != other.subType {
		return false
	}
	if d.symbolRef == nil || other.symbolRef == nil {
		return d.symbolRef == other.symbolRef
	}
	return *d.symbolRef == *other.symbolRef
}

func (d *Descriptor) String() string {
	if d.symbolRef != nil {
		return fmt.Sprintf("%s/%s/%d '%s'", d.typ, d.subType, d.length, d.symbolRef.Label)
	}
	return fmt.Sprintf("%s/%s/%d", d.typ, d.subType, d.length)
}
