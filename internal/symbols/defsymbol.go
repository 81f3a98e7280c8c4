package symbols

import (
	"errors"
	"fmt"
)

// Width limits of a symbol definition in bytes.
const (
	MinWidth     = 1
	MaxWidth     = 65536
	DefaultWidth = 1
)

// ErrInvalidWidth is returned for widths outside of MinWidth and MaxWidth.
var ErrInvalidWidth = errors.New("invalid symbol width")

// Direction defines the memory access direction of an address symbol.
type Direction uint8

// Access directions.
const (
	ReadWrite Direction = iota
	Read
	Write
)

// MultiAddressMask describes an address range where only some address bits are decoded.
type MultiAddressMask struct {
	CompareMask  int
	CompareValue int
	AddressMask  int
}

// DefOptions contains the optional parts of a symbol definition.
type DefOptions struct {
	Width     int // 0 uses DefaultWidth and marks the width as not set
	Comment   string
	Direction Direction
	MultiMask *MultiAddressMask
}

// DefSymbol is a symbol definition as found in local variable tables and
// project or platform symbol lists. It is immutable after creation.
type DefSymbol struct {
	Symbol

	width     int
	hasWidth  bool
	comment   string
	direction Direction
	multiMask *MultiAddressMask
}

// NewDefSymbol returns a new symbol definition.
func NewDefSymbol(sym Symbol, opts DefOptions) (*DefSymbol, error) {
	def := &DefSymbol{
		Symbol:    sym,
		width:     DefaultWidth,
		comment:   opts.Comment,
		direction: opts.Direction,
		multiMask: opts.MultiMask,
	}

	if opts.Width != 0 {
		if opts.Width < MinWidth || opts.Width > MaxWidth {
			return nil, fmt.Errorf("%w: %d for symbol '%s'", ErrInvalidWidth, opts.Width, sym.Label)
		}
		def.width = opts.Width
		def.hasWidth = true
	}
	return def, nil
}

// NewVariable returns a new local variable definition.
func NewVariable(label string, value int, typ Type, width int, comment string) (*DefSymbol, error) {
	sym := Symbol{
		Label:  label,
		Value:  value,
		Source: Variable,
		Type:   typ,
	}
	return NewDefSymbol(sym, DefOptions{
		Width:   width,
		Comment: comment,
	})
}

// Width returns the width in bytes.
func (d *DefSymbol) Width() int {
	return d.width
}

// HasWidth returns whether the width was set explicitly.
func (d *DefSymbol) HasWidth() bool {
	return d.hasWidth
}

// Comment returns the end-of-line comment of the definition.
func (d *DefSymbol) Comment() string {
	return d.comment
}

// Direction returns the memory access direction.
func (d *DefSymbol) Direction() Direction {
	return d.direction
}

// MultiMask returns the address mask or nil.
func (d *DefSymbol) MultiMask() *MultiAddressMask {
	return d.multiMask
}

// WithLabel returns a copy of the definition using a different label.
func (d *DefSymbol) WithLabel(label string) *DefSymbol {
	renamed := *d
	renamed.Label = label
	return &renamed
}

// Overlaps returns whether the value range of the definition overlaps the
// given range. Ranges of different symbol types never overlap.
func (d *DefSymbol) Overlaps(value, width int, typ Type) bool {
	if d.width <= 0 || width <= 0 || d.Value < 0 || value < 0 {
		return false
	}
	if d.Type != typ {
		return false
	}

	end := value + width - 1
	defEnd := d.Value + d.width - 1
	return max(d.Value, value) <= min(defEnd, end)
}

// Equal returns whether both definitions are identical.
func (d *DefSymbol) Equal(other *DefSymbol) bool {
	if d == nil || other == nil {
		return d == other
	}
	if d.Symbol != other.Symbol || d.width != other.width || d.hasWidth != other.hasWidth ||
		d.comment != other.comment || d.direction != other.direction {
		return false
	}
	if d.multiMask == nil || other.multiMask == nil {
		return d.multiMask == other.multiMask
	}
	return *d.multiMask == *other.multiMask
}
