package symbols

// Part selects the part of a multi-byte value that a reference uses.
type Part uint8

//go:generate go tool stringer -type Part -linecomment
const (
	UnknownPart Part = iota // unknown
	Low                     // low
	High                    // high
	Bank                    // bank
)

// WeakRef is a reference to a label that may not exist. It is resolved
// against the symbols known at the time of use.
type WeakRef struct {
	Label string
	Part  Part
}

// NewWeakRef returns a new weak reference.
func NewWeakRef(label string, part Part) WeakRef {
	return WeakRef{
		Label: label,
		Part:  part,
	}
}

// Operator returns the assembler operator that extracts the referenced part.
func (p Part) Operator() string {
	switch p {
	case High:
		return ">"
	case Bank:
		return "^"
	default:
		return "<"
	}
}
