// Package project loads analysis projects from TOML files.
package project

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/retroenv/retroscope/internal/anattrib"
	"github.com/retroenv/retroscope/internal/format"
	"github.com/retroenv/retroscope/internal/lvtable"
	"github.com/retroenv/retroscope/internal/messages"
	"github.com/retroenv/retroscope/internal/symbols"
)

// Version is the supported project file version.
const Version = 1

var (
	// ErrUnsupportedVersion is returned for project files of an unknown version.
	ErrUnsupportedVersion = errors.New("unsupported project file version")
	// ErrInvalidEntry is returned for project entries with invalid values.
	ErrInvalidEntry = errors.New("invalid project entry")
)

// Project contains the user supplied analysis inputs.
type Project struct {
	LoadAddress int
	EntryPoints []int

	Symbols *symbols.Table
	Labels  map[int]*symbols.Symbol // user labels by file offset
	Formats map[int]*format.Descriptor
	Tables  *lvtable.Collection
}

// New returns an empty project.
func New() *Project {
	return &Project{
		Symbols: symbols.NewTable(),
		Labels:  make(map[int]*symbols.Symbol),
		Formats: make(map[int]*format.Descriptor),
		Tables:  lvtable.NewCollection(),
	}
}

// LoadFile loads the project file at the given path.
func LoadFile(path string) (*Project, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening project file: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	p, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("loading project file '%s': %w", path, err)
	}
	return p, nil
}

// Load reads a project from the reader.
func Load(r io.Reader) (*Project, error) {
	var f file
	md, err := toml.NewDecoder(r).Decode(&f)
	if err != nil {
		return nil, fmt.Errorf("decoding project: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, key := range undecoded {
			keys = append(keys, key.String())
		}
		return nil, fmt.Errorf("%w: unknown keys %s", ErrInvalidEntry, strings.Join(keys, ", "))
	}

	if f.Version != Version {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, f.Version)
	}
	if f.LoadAddress < 0 || f.LoadAddress > 0xffff {
		return nil, fmt.Errorf("%w: load address $%x", ErrInvalidEntry, f.LoadAddress)
	}

	p := New()
	p.LoadAddress = f.LoadAddress
	p.EntryPoints = f.EntryPoints

	if err := p.loadSymbols(f.Symbols); err != nil {
		return nil, err
	}
	if err := p.loadLabels(f.Labels); err != nil {
		return nil, err
	}
	if err := p.loadFormats(f.Formats); err != nil {
		return nil, err
	}
	if err := p.loadTables(f.Tables); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Project) loadSymbols(entries []symbolEntry) error {
	for i, entry := range entries {
		if err := symbols.ValidateLabel(entry.Label); err != nil {
			return fmt.Errorf("symbol %d: %w", i, err)
		}
		source, err := parseSource(entry.Source)
		if err != nil {
			return fmt.Errorf("symbol '%s': %w", entry.Label, err)
		}
		typ, err := parseSymbolType(entry.Type, symbols.GlobalAddr)
		if err != nil {
			return fmt.Errorf("symbol '%s': %w", entry.Label, err)
		}

		sym := symbols.New(entry.Label, entry.Value, source, typ)
		if err := p.Symbols.Add(sym); err != nil {
			return fmt.Errorf("symbol '%s': %w", entry.Label, err)
		}
	}
	return nil
}

func (p *Project) loadLabels(entries []labelEntry) error {
	for _, entry := range entries {
		if err := symbols.ValidateLabel(entry.Label); err != nil {
			return fmt.Errorf("label at offset %d: %w", entry.Offset, err)
		}
		if entry.Offset < 0 {
			return fmt.Errorf("%w: label '%s' has negative offset", ErrInvalidEntry, entry.Label)
		}
		if _, ok := p.Labels[entry.Offset]; ok {
			return fmt.Errorf("%w: second label at offset %d", ErrInvalidEntry, entry.Offset)
		}

		sym := symbols.New(entry.Label, p.LoadAddress+entry.Offset, symbols.User, symbols.LocalOrGlobalAddr)
		if err := p.Symbols.Add(sym); err != nil {
			return fmt.Errorf("label '%s': %w", entry.Label, err)
		}
		p.Labels[entry.Offset] = sym
	}
	return nil
}

func (p *Project) loadFormats(entries []formatEntry) error {
	for _, entry := range entries {
		if entry.Offset < 0 {
			return fmt.Errorf("%w: format has negative offset %d", ErrInvalidEntry, entry.Offset)
		}
		if _, ok := p.Formats[entry.Offset]; ok {
			return fmt.Errorf("%w: second format at offset %d", ErrInvalidEntry, entry.Offset)
		}

		descriptor, err := entry.descriptor()
		if err != nil {
			return fmt.Errorf("format at offset %d: %w", entry.Offset, err)
		}
		p.Formats[entry.Offset] = descriptor
	}
	return nil
}

func (p *Project) loadTables(entries []tableEntry) error {
	for _, entry := range entries {
		table := lvtable.New()
		table.ClearPrevious = entry.ClearPrevious

		for _, v := range entry.Variables {
			if err := symbols.ValidateLabel(v.Label); err != nil {
				return fmt.Errorf("variable table at offset %d: %w", entry.Offset, err)
			}
			typ, err := parseSymbolType(v.Type, symbols.ExternalAddr)
			if err != nil {
				return fmt.Errorf("variable '%s': %w", v.Label, err)
			}
			def, err := symbols.NewVariable(v.Label, v.Value, typ, v.Width, v.Comment)
			if err != nil {
				return fmt.Errorf("variable '%s': %w", v.Label, err)
			}
			table.AddOrReplace(def)
		}

		if _, ok := p.Tables.Get(entry.Offset); ok {
			return fmt.Errorf("%w: second variable table at offset %d", ErrInvalidEntry, entry.Offset)
		}
		if err := p.Tables.Set(entry.Offset, table); err != nil {
			return fmt.Errorf("variable table: %w", err)
		}
	}
	return nil
}

// BindLabels attaches the user labels to the attribute store. Labels outside
// of the store or inside of an instruction or data item are reported and
// ignored.
func (p *Project) BindLabels(store *anattrib.Store, msgs *messages.List) {
	for offset, sym := range p.Labels {
		switch {
		case offset >= store.Len():
			p.ignoreLabel(msgs, offset, sym, messages.InvalidOffsetOrLength)

		case !store.At(offset).IsStart() && !store.At(offset).IsUntyped():
			p.ignoreLabel(msgs, offset, sym, messages.HiddenLabel)

		default:
			store.At(offset).Symbol = sym
		}
	}
}

func (p *Project) ignoreLabel(msgs *messages.List, offset int, sym *symbols.Symbol, typ messages.Type) {
	p.Symbols.Remove(sym.Label)
	if msgs == nil {
		return
	}
	msgs.Add(messages.Entry{
		Severity:   messages.Warning,
		Offset:     offset,
		Type:       typ,
		Context:    sym.Label,
		Resolution: messages.LabelIgnored,
	})
}

func parseSource(s string) (symbols.Source, error) {
	switch s {
	case "", "user":
		return symbols.User, nil
	case "project":
		return symbols.Project, nil
	case "platform":
		return symbols.Platform, nil
	default:
		return symbols.UnknownSource, fmt.Errorf("%w: source '%s'", ErrInvalidEntry, s)
	}
}

func parseSymbolType(s string, addr symbols.Type) (symbols.Type, error) {
	switch s {
	case "", "addr":
		return addr, nil
	case "export":
		return symbols.GlobalAddrExport, nil
	case "external":
		return symbols.ExternalAddr, nil
	case "const":
		return symbols.Constant, nil
	default:
		return symbols.UnknownType, fmt.Errorf("%w: type '%s'", ErrInvalidEntry, s)
	}
}
