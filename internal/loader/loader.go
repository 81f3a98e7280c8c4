// Package loader handles input file loading operations.
package loader

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/retroenv/retrogolib/arch/system/nes/cartridge"
	"github.com/retroenv/retroscope/internal/options"
)

// Input is a loaded input file.
type Input struct {
	Cart *cartridge.Cartridge
	// Data contains the bytes to analyse. For NES ROMs this is the PRG,
	// for binary files the unpadded file content.
	Data        []byte
	CodeDataLog io.ReadCloser // optional Code/Data log
}

// Loader handles loading input files from disk.
type Loader struct{}

// New creates a new input file loader.
func New() *Loader {
	return &Loader{}
}

// Load loads and parses the input file. NES ROMs are parsed using their
// iNES header, binary files are loaded as PRG data without a header.
func (l *Loader) Load(opts options.Program) (*Input, error) {
	data, err := os.ReadFile(opts.Input)
	if err != nil {
		return nil, fmt.Errorf("reading file %s: %w", opts.Input, err)
	}

	input, err := l.LoadFromBytes(data, opts.Binary)
	if err != nil {
		return nil, err
	}

	if opts.CodeDataLog != "" {
		input.CodeDataLog, err = os.Open(opts.CodeDataLog)
		if err != nil {
			return nil, fmt.Errorf("opening CDL file %s: %w", opts.CodeDataLog, err)
		}
	}
	return input, nil
}

// LoadFromBytes loads the input from memory.
func (l *Loader) LoadFromBytes(data []byte, binary bool) (*Input, error) {
	reader := bytes.NewReader(data)

	if binary {
		cart, err := cartridge.LoadBuffer(reader)
		if err != nil {
			return nil, fmt.Errorf("loading binary: %w", err)
		}
		return &Input{Cart: cart, Data: data}, nil
	}

	cart, err := cartridge.LoadFile(reader)
	if err != nil {
		return nil, fmt.Errorf("loading cartridge: %w", err)
	}
	return &Input{Cart: cart, Data: []byte(cart.PRG)}, nil
}
