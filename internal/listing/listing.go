// Package listing writes the analysed file as assembler source.
package listing

import (
	"fmt"
	"io"
	"strings"

	"github.com/retroenv/retrogolib/arch/system/nes/parameter"
	"github.com/retroenv/retrogolib/log"
	"github.com/retroenv/retrogolib/set"
	"github.com/retroenv/retroscope/internal/anattrib"
	"github.com/retroenv/retroscope/internal/assembler"
	"github.com/retroenv/retroscope/internal/symbols"
)

const dataBytesPerLine = 16

// Resolver returns the local variables that are active at an offset.
type Resolver interface {
	GetSymbol(offset, operandValue int, typ symbols.Type) (*symbols.DefSymbol, bool)
	GetSymbolRef(offset int, ref symbols.WeakRef) (*symbols.DefSymbol, bool)
	GetVariablesDefinedAtOffset(offset int) ([]*symbols.DefSymbol, bool)
	GetDefiningTableOffset(offset int, ref symbols.WeakRef) int
}

// Options of the listing.
type Options struct {
	HexComments    bool // output the instruction bytes as comment
	OffsetComments bool // output the address as comment
}

// Writer writes the listing.
type Writer struct {
	logger      *log.Logger
	dialect     assembler.Dialect
	converter   parameter.Converter
	data        []byte
	loadAddress int
	store       *anattrib.Store
	lookup      Resolver
	namespace   *symbols.Table
	options     Options

	body   *strings.Builder
	labels set.Set[string] // labels that are written as line labels
}

// New returns a new listing writer. The store has to contain the analysis
// result for the data.
func New(logger *log.Logger, dialect assembler.Dialect, data []byte, loadAddress int,
	store *anattrib.Store, lookup Resolver, namespace *symbols.Table, options Options) *Writer {

	return &Writer{
		logger:      logger,
		dialect:     dialect,
		converter:   parameter.New(dialect.ParamConfig),
		data:        data,
		loadAddress: loadAddress,
		store:       store,
		lookup:      lookup,
		namespace:   namespace,
		options:     options,
	}
}

// Write writes the complete listing. The body is rendered first as it
// determines which symbols need an equate.
func (w *Writer) Write(out io.Writer) error {
	w.body = &strings.Builder{}
	w.labels = set.New[string]()

	if err := w.writeBody(); err != nil {
		return err
	}

	if err := w.writeEquates(out); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(out, "%s%s $%04X\n\n", w.dialect.DirectivePrefix, w.dialect.Origin, w.loadAddress); err != nil {
		return fmt.Errorf("writing origin: %w", err)
	}
	if _, err := io.WriteString(out, w.body.String()); err != nil {
		return fmt.Errorf("writing listing body: %w", err)
	}
	return nil
}

func (w *Writer) writeBody() error {
	var previousLineWasCode bool

	for offset := 0; offset < len(w.data); {
		if err := w.writeVariables(offset); err != nil {
			return err
		}

		attr := w.store.At(offset)
		isCode := attr.IsInstructionStart()
		hasLabel := w.writeLabel(offset, attr)

		// empty line between code and data
		if offset > 0 && !hasLabel && isCode != previousLineWasCode {
			w.body.WriteString("\n")
		}
		previousLineWasCode = isCode

		var (
			length int
			err    error
		)
		switch {
		case isCode:
			length, err = w.writeInstruction(offset, attr)
		case attr.IsDataStart() || attr.IsInlineDataStart():
			length, err = w.writeFormattedData(offset, attr)
		default:
			length, err = w.writeUntypedRun(offset)
		}
		if err != nil {
			return fmt.Errorf("writing offset %04x: %w", offset, err)
		}
		offset += length
	}
	return nil
}

// writeVariables writes the variables of the table defined at the offset.
func (w *Writer) writeVariables(offset int) error {
	defs, ok := w.lookup.GetVariablesDefinedAtOffset(offset)
	if !ok || len(defs) == 0 {
		return nil
	}

	if offset > 0 {
		w.body.WriteString("\n")
	}
	for _, def := range defs {
		line := fmt.Sprintf(w.dialect.DefineFormat, def.Label, formatValue(def.Value))
		w.writeLine("", line, def.Comment())
	}
	return nil
}

func (w *Writer) writeLabel(offset int, attr *anattrib.Attrib) bool {
	if attr.Symbol == nil {
		return false
	}

	if offset > 0 {
		w.body.WriteString("\n")
	}
	w.labels.Add(attr.Symbol.Label)
	w.body.WriteString(attr.Symbol.Label + ":\n")
	return true
}

// writeUntypedRun writes untyped bytes up to the next item or label.
func (w *Writer) writeUntypedRun(offset int) (int, error) {
	end := offset + 1
	for end < len(w.data) && !w.store.IsStart(end) && w.store.At(end).Symbol == nil {
		end++
	}

	w.bundleDataWrites(offset, w.data[offset:end])
	return end - offset, nil
}

// bundleDataWrites writes dataBytesPerLine bytes per line.
func (w *Writer) bundleDataWrites(offset int, data []byte) {
	for i := 0; i < len(data); i += dataBytesPerLine {
		toWrite := min(len(data)-i, dataBytesPerLine)

		values := make([]string, toWrite)
		for j := range toWrite {
			values[j] = fmt.Sprintf("$%02x", data[i+j])
		}
		line := w.dialect.DirectivePrefix + ".byte " + strings.Join(values, ", ")
		w.writeLine(w.addressComment(offset+i), line, "")
	}
}

// writeLine writes an indented line with optional comments.
func (w *Writer) writeLine(prefixComment, line, comment string) {
	switch {
	case prefixComment != "" && comment != "":
		comment = prefixComment + "  " + comment
	case prefixComment != "":
		comment = prefixComment
	}

	if comment == "" {
		fmt.Fprintf(w.body, "  %s\n", line)
	} else {
		fmt.Fprintf(w.body, "  %-30s ; %s\n", line, comment)
	}
}

func (w *Writer) addressComment(offset int) string {
	if !w.options.OffsetComments {
		return ""
	}
	return fmt.Sprintf("$%04X", w.loadAddress+offset)
}

func (w *Writer) hexComment(offset, length int) string {
	if !w.options.HexComments {
		return ""
	}
	values := make([]string, length)
	for i := range length {
		values[i] = fmt.Sprintf("%02X", w.data[offset+i])
	}
	return strings.Join(values, " ")
}

// writeEquates writes the symbols that are referenced but not defined by
// a line label.
func (w *Writer) writeEquates(out io.Writer) error {
	var written bool
	for _, sym := range w.namespace.Symbols() {
		if !w.namespace.IsUsed(sym.Label) || w.labels.Contains(sym.Label) {
			continue
		}

		line := fmt.Sprintf(w.dialect.EquateFormat, sym.Label, formatValue(sym.Value))
		if _, err := fmt.Fprintln(out, line); err != nil {
			return fmt.Errorf("writing equate: %w", err)
		}
		written = true
	}

	if written {
		if _, err := fmt.Fprintln(out); err != nil {
			return fmt.Errorf("writing line: %w", err)
		}
	}
	return nil
}

func formatValue(value int) string {
	if value >= 0 && value < 0x100 {
		return fmt.Sprintf("$%02X", value)
	}
	return fmt.Sprintf("$%04X", value)
}
