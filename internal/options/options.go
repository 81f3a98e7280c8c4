// Package options contains the program options.
package options

import (
	"strings"
)

// Parameters contains file path options.
type Parameters struct {
	Input       string `flag:"i" usage:"input ROM or binary file"`
	Output      string `flag:"o" usage:"output .asm file (default: stdout)"`
	Project     string `flag:"p" usage:"project file (.toml)"`
	CodeDataLog string `flag:"cdl" usage:"Code/Data log file (.cdl)"`
	Batch       string `flag:"batch" usage:"batch process files matching pattern (e.g. *.nes)"`
}

// Flags contains behavior options.
type Flags struct {
	Assembler   string `flag:"a" usage:"assembler format: asm6, ca65, nesasm" default:"ca65"`
	LoadAddress string `flag:"load" usage:"load address of the first byte (default: derived from the input)"`
	Binary      bool   `flag:"binary" usage:"treat input as raw binary without header"`
	Debug       bool   `flag:"debug" usage:"enable debug logging"`
	Quiet       bool   `flag:"q" usage:"quiet mode"`
}

// OutputFlags contains output formatting options.
type OutputFlags struct {
	NoHexComments   bool `flag:"nohexcomments" usage:"omit hex opcode bytes in comments"`
	NoOffsets       bool `flag:"nooffsets" usage:"omit addresses in comments"`
	Uniquify        bool `flag:"uniquify" usage:"rename redefined local variables even if the assembler supports redefinition"`
	MaskUnderscores bool `flag:"mask-underscores" usage:"prefix local variables that start with an underscore"`
}

// Program options of the application.
type Program struct {
	Parameters
	Flags
	OutputFlags
}

// Analysis defines options to control the analysis and the listing.
type Analysis struct {
	Assembler string // what assembler to use

	LoadAddress    int  // address of the first byte, only used if LoadAddressSet is set
	LoadAddressSet bool // load address was given on the command line

	Binary                 bool
	ForceUniquify          bool
	MaskLeadingUnderscores bool
	HexComments            bool
	OffsetComments         bool
}

// NewAnalysis returns a new options instance with default options.
func NewAnalysis(assemblerName string) Analysis {
	return Analysis{
		Assembler: strings.ToLower(assemblerName),

		HexComments:    true,
		OffsetComments: true,
	}
}
