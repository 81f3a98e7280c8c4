// Package cli handles command line interface logic
package cli

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/retroenv/retroscope/internal/assembler"
	"github.com/retroenv/retroscope/internal/options"
)

// ParseFlags parses command line flags and returns program and analysis options
func ParseFlags() (options.Program, options.Analysis, error) {
	flags := flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	var opts options.Program
	readOptionFlags(flags, &opts)

	var noHexComments, noOffsets bool
	flags.BoolVar(&noHexComments, "nohexcomments", false, "do not output opcode bytes as hex values in comments")
	flags.BoolVar(&noOffsets, "nooffsets", false, "do not output addresses in comments")

	err := flags.Parse(os.Args[1:])
	args := flags.Args()
	if err != nil || (len(args) == 0 && opts.Input == "" && opts.Batch == "") {
		return opts, options.Analysis{}, &UsageError{flags: flags}
	}

	if err := validateArgs(args); err != nil {
		return opts, options.Analysis{}, err
	}

	if err := normalizeOptions(&opts); err != nil {
		return opts, options.Analysis{}, err
	}

	if opts.Batch == "" && len(args) > 0 {
		opts.Input = args[0]
	}

	analysisOptions, err := createAnalysisOptions(opts)
	if err != nil {
		return opts, options.Analysis{}, err
	}
	analysisOptions.HexComments = !noHexComments
	analysisOptions.OffsetComments = !noOffsets
	opts.NoHexComments = noHexComments
	opts.NoOffsets = noOffsets

	return opts, analysisOptions, nil
}

// UsageError represents an error that should show usage information
type UsageError struct {
	flags *flag.FlagSet
	msg   string
}

func (e *UsageError) Error() string {
	return e.msg
}

func (e *UsageError) ShowUsage() {
	fmt.Printf("usage: retroscope [options] <file to analyse>\n\n")
	if e.flags != nil {
		e.flags.PrintDefaults()
	}
	fmt.Println()
}

// validateArgs checks if arguments are in correct order
func validateArgs(args []string) error {
	for i, arg := range args {
		if i > 0 && arg != "" && arg[0] == '-' {
			return &UsageError{
				msg: fmt.Sprintf("Potential argument %s found after file to analyse, please pass the file to analyse as last argument", arg),
			}
		}
	}
	return nil
}

// normalizeOptions normalizes and validates option values
func normalizeOptions(opts *options.Program) error {
	opts.Assembler = strings.ToLower(opts.Assembler)
	if opts.Assembler == "asm6f" {
		opts.Assembler = assembler.Asm6
	}

	if _, err := assembler.Lookup(opts.Assembler); err != nil {
		return fmt.Errorf("%w. Valid options: %s", err, strings.Join(assembler.Names(), ", "))
	}
	return nil
}

// createAnalysisOptions creates analysis options based on program options
func createAnalysisOptions(opts options.Program) (options.Analysis, error) {
	analysisOptions := options.NewAnalysis(opts.Assembler)
	analysisOptions.Binary = opts.Binary
	analysisOptions.ForceUniquify = opts.Uniquify
	analysisOptions.MaskLeadingUnderscores = opts.MaskUnderscores

	if opts.LoadAddress != "" {
		address, err := parseAddress(opts.LoadAddress)
		if err != nil {
			return analysisOptions, err
		}
		analysisOptions.LoadAddress = address
		analysisOptions.LoadAddressSet = true
	}
	return analysisOptions, nil
}

// parseAddress parses a 16 bit address in decimal, 0x or $ hex notation.
func parseAddress(s string) (int, error) {
	base := 0
	if strings.HasPrefix(s, "$") {
		s = s[1:]
		base = 16
	}

	address, err := strconv.ParseUint(s, base, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid load address '%s': %w", s, err)
	}
	return int(address), nil
}

func readOptionFlags(flags *flag.FlagSet, opts *options.Program) {
	flags.StringVar(&opts.Input, "i", "", "name of the input ROM or binary file")
	flags.StringVar(&opts.Output, "o", "", "name of the output .asm file, printed on console if no name given")
	flags.StringVar(&opts.Project, "p", "", "name of the .toml project file to load")
	flags.StringVar(&opts.CodeDataLog, "cdl", "", "name of the .cdl Code/Data log file to load")
	flags.StringVar(&opts.Batch, "batch", "", "process a batch of given path and file mask and automatically .asm file naming, for example *.nes")
	flags.StringVar(&opts.Assembler, "a", assembler.Ca65, "Assembler compatibility of the generated .asm file (asm6/ca65/nesasm)")
	flags.StringVar(&opts.LoadAddress, "load", "", "load address of the first byte of the input, for example $8000")
	flags.BoolVar(&opts.Binary, "binary", false, "read input file as raw binary file without any header")
	flags.BoolVar(&opts.Uniquify, "uniquify", false, "rename redefined local variables even if the assembler supports redefinition")
	flags.BoolVar(&opts.MaskUnderscores, "mask-underscores", false, "prefix local variables that start with an underscore")
	flags.BoolVar(&opts.Debug, "debug", false, "enable debugging options for extended logging")
	flags.BoolVar(&opts.Quiet, "q", false, "perform operations quietly")
}
