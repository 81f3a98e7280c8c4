package project

import (
	"fmt"

	"github.com/retroenv/retroscope/internal/format"
	"github.com/retroenv/retroscope/internal/symbols"
)

// file is the TOML layout of a project file.
type file struct {
	Version     int           `toml:"version"`
	LoadAddress int           `toml:"load_address"`
	EntryPoints []int         `toml:"entry_points"`
	Symbols     []symbolEntry `toml:"symbol"`
	Labels      []labelEntry  `toml:"label"`
	Formats     []formatEntry `toml:"format"`
	Tables      []tableEntry  `toml:"lvtable"`
}

type symbolEntry struct {
	Label  string `toml:"label"`
	Value  int    `toml:"value"`
	Source string `toml:"source"`
	Type   string `toml:"type"`
}

type labelEntry struct {
	Offset int    `toml:"offset"`
	Label  string `toml:"label"`
}

type formatEntry struct {
	Offset    int    `toml:"offset"`
	Length    int    `toml:"length"`
	Type      string `toml:"type"`
	SubType   string `toml:"sub_type"`
	Symbol    string `toml:"symbol"`
	Part      string `toml:"part"`
	BigEndian bool   `toml:"big_endian"`
}

type tableEntry struct {
	Offset        int             `toml:"offset"`
	ClearPrevious bool            `toml:"clear_previous"`
	Variables     []variableEntry `toml:"var"`
}

type variableEntry struct {
	Label   string `toml:"label"`
	Value   int    `toml:"value"`
	Type    string `toml:"type"`
	Width   int    `toml:"width"`
	Comment string `toml:"comment"`
}

var formatTypes = map[string]format.Type{
	"":        format.Default,
	"default": format.Default,
	"numeric": format.NumericLE,
	"string":  format.String,
	"dense":   format.Dense,
	"fill":    format.Fill,
	"junk":    format.Junk,
}

var formatSubTypes = map[string]format.SubType{
	"":        format.None,
	"hex":     format.Hex,
	"decimal": format.Decimal,
	"binary":  format.Binary,
	"address": format.Address,
	"ascii":   format.ASCII,
}

var parts = map[string]symbols.Part{
	"":     symbols.Low,
	"low":  symbols.Low,
	"high": symbols.High,
	"bank": symbols.Bank,
}

// descriptor converts the entry to a format descriptor. An entry with a
// symbol becomes a numeric symbol reference.
func (e formatEntry) descriptor() (*format.Descriptor, error) {
	if e.Symbol != "" {
		if err := symbols.ValidateLabel(e.Symbol); err != nil {
			return nil, err
		}
		part, ok := parts[e.Part]
		if !ok {
			return nil, fmt.Errorf("%w: part '%s'", ErrInvalidEntry, e.Part)
		}
		return format.NewSymbolRef(e.Length, symbols.NewWeakRef(e.Symbol, part), e.BigEndian)
	}

	typ, ok := formatTypes[e.Type]
	if !ok {
		return nil, fmt.Errorf("%w: type '%s'", ErrInvalidEntry, e.Type)
	}
	if typ == format.NumericLE && e.BigEndian {
		typ = format.NumericBE
	}
	subType, ok := formatSubTypes[e.SubType]
	if !ok {
		return nil, fmt.Errorf("%w: sub type '%s'", ErrInvalidEntry, e.SubType)
	}
	return format.New(e.Length, typ, subType)
}
