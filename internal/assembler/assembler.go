// Package assembler defines the available assembler output formats.
package assembler

import (
	"fmt"
	"slices"

	"github.com/retroenv/retrogolib/arch/system/nes/parameter"
)

const (
	Asm6   = "asm6"
	Ca65   = "ca65"
	Nesasm = "nesasm"
)

// Dialect describes the syntax differences of an assembler.
type Dialect struct {
	Name        string
	ParamConfig parameter.Config

	// CanRedefine is set when a symbol can be assigned a new value later in
	// the file. Local variables then do not need unique names.
	CanRedefine bool
	// DirectivePrefix is written before directives, nesasm requires a space.
	DirectivePrefix string
	Origin          string // directive that sets the program counter
	WordDirective   string // directive for little endian 16 bit values
	DefineFormat    string // format of a redefinable variable
	EquateFormat    string // format of a constant assignment
}

var dialects = map[string]Dialect{
	Asm6: {
		Name: Asm6,
		ParamConfig: parameter.Config{
			ZeroPagePrefix: "",
			AbsolutePrefix: "a:",
			IndirectPrefix: "(",
			IndirectSuffix: ")",
		},
		Origin:        ".org",
		WordDirective: ".dw",
		DefineFormat:  "%s = %s",
		EquateFormat:  "%s = %s",
	},
	Ca65: {
		Name: Ca65,
		ParamConfig: parameter.Config{
			ZeroPagePrefix: "z:",
			AbsolutePrefix: "a:",
			IndirectPrefix: "(",
			IndirectSuffix: ")",
		},
		CanRedefine:   true,
		Origin:        ".org",
		WordDirective: ".word",
		DefineFormat:  "%s .set %s",
		EquateFormat:  "%s = %s",
	},
	Nesasm: {
		Name: Nesasm,
		ParamConfig: parameter.Config{
			IndirectPrefix: "[",
			IndirectSuffix: "]",
		},
		DirectivePrefix: " ",
		Origin:          ".org",
		WordDirective:   ".dw",
		DefineFormat:    "%s = %s",
		EquateFormat:    "%s = %s",
	},
}

// Names returns the supported assembler names in sorted order.
func Names() []string {
	names := make([]string, 0, len(dialects))
	for name := range dialects {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Lookup returns the dialect of the named assembler.
func Lookup(name string) (Dialect, error) {
	dialect, ok := dialects[name]
	if !ok {
		return Dialect{}, fmt.Errorf("unsupported assembler '%s'", name)
	}
	return dialect, nil
}
