// Package status models the processor status register as a set of tri-state flags.
package status

import "strings"

// Flag is the bit index of a processor status flag.
type Flag uint8

// Status register flags. X shares its bit with B on the 6502, E is the
// 65816 emulation flag which is not part of the status byte.
const (
	C Flag = iota
	Z
	I
	D
	X
	M
	V
	N
	E
)

// B is the 6502 break flag.
const B = X

// Flag values besides 0 and 1.
const (
	Indeterminate = -1
	Unspecified   = -2
)

const allFlags = uint16(1)<<(E+1) - 1

// Flags holds a tri-state value for every flag. Per bit, a set bit in zero
// means the flag may be clear and a set bit in one means it may be set.
// The zero value has every flag unspecified.
type Flags struct {
	zero uint16
	one  uint16
}

// AllIndeterminate has every flag set to indeterminate.
var AllIndeterminate = Flags{zero: allFlags, one: allFlags}

// AllZero has every flag cleared.
var AllZero = Flags{zero: allFlags}

// Get returns 0, 1, Indeterminate or Unspecified for the flag.
func (f Flags) Get(flag Flag) int {
	bit := uint16(1) << flag
	zero := f.zero&bit != 0
	one := f.one&bit != 0
	switch {
	case zero && one:
		return Indeterminate
	case zero:
		return 0
	case one:
		return 1
	default:
		return Unspecified
	}
}

// Set sets the flag to 0, 1 or Indeterminate. Any other value marks it unspecified.
func (f *Flags) Set(flag Flag, value int) {
	bit := uint16(1) << flag
	f.zero &^= bit
	f.one &^= bit

	switch value {
	case 0:
		f.zero |= bit
	case 1:
		f.one |= bit
	case Indeterminate:
		f.zero |= bit
		f.one |= bit
	}
}

// Merge combines the flags with another state reaching the same location.
// Flags that differ become indeterminate, unspecified flags take the other value.
func (f *Flags) Merge(other Flags) {
	f.zero |= other.zero
	f.one |= other.one
}

// Apply overrides every flag that is specified in other.
func (f *Flags) Apply(other Flags) {
	mask := ^(other.zero | other.one)
	f.zero = f.zero&mask | other.zero
	f.one = f.one&mask | other.one
}

// IsShortM returns whether the accumulator is in 8-bit mode.
func (f Flags) IsShortM() bool {
	return f.Get(E) == 1 || f.Get(M) != 0
}

// IsShortX returns whether the index registers are in 8-bit mode.
func (f Flags) IsShortX() bool {
	return f.Get(E) == 1 || f.Get(X) != 0
}

var flagOrder = []struct {
	flag Flag
	char byte
}{
	{N, 'n'}, {V, 'v'}, {M, 'm'}, {X, 'x'}, {D, 'd'}, {I, 'i'}, {Z, 'z'}, {C, 'c'}, {E, 'e'},
}

// String returns the flags in NVMXDIZC E order. A cleared flag is printed
// lowercase, a set flag uppercase, indeterminate as '?' and unspecified as '-'.
func (f Flags) String() string {
	var sb strings.Builder
	for _, fl := range flagOrder {
		if fl.flag == E {
			sb.WriteByte(' ')
		}
		switch f.Get(fl.flag) {
		case 0:
			sb.WriteByte(fl.char)
		case 1:
			sb.WriteByte(fl.char - 'a' + 'A')
		case Indeterminate:
			sb.WriteByte('?')
		default:
			sb.WriteByte('-')
		}
	}
	return sb.String()
}
