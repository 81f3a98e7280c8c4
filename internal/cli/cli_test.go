package cli

import (
	"errors"
	"os"
	"testing"

	"github.com/retroenv/retroscope/internal/options"
	"github.com/retroenv/retrogolib/assert"
)

//nolint:funlen // test functions can be long
func TestParseFlags_AnalysisOptions(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want options.Analysis
	}{
		{
			name: "default flags",
			args: []string{"prog", "test.nes"},
			want: options.Analysis{Assembler: "ca65", HexComments: true, OffsetComments: true},
		},
		{
			name: "nohexcomments flag",
			args: []string{"prog", "-nohexcomments", "test.nes"},
			want: options.Analysis{Assembler: "ca65", OffsetComments: true},
		},
		{
			name: "nooffsets flag",
			args: []string{"prog", "-nooffsets", "test.nes"},
			want: options.Analysis{Assembler: "ca65", HexComments: true},
		},
		{
			name: "asm6f alias",
			args: []string{"prog", "-a", "ASM6F", "test.nes"},
			want: options.Analysis{Assembler: "asm6", HexComments: true, OffsetComments: true},
		},
		{
			name: "load address",
			args: []string{"prog", "-load", "$c000", "-binary", "test.bin"},
			want: options.Analysis{
				Assembler: "ca65", LoadAddress: 0xc000, LoadAddressSet: true, Binary: true,
				HexComments: true, OffsetComments: true,
			},
		},
		{
			name: "variable flags",
			args: []string{"prog", "-uniquify", "-mask-underscores", "test.nes"},
			want: options.Analysis{
				Assembler: "ca65", ForceUniquify: true, MaskLeadingUnderscores: true,
				HexComments: true, OffsetComments: true,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oldArgs := os.Args
			t.Cleanup(func() { os.Args = oldArgs })

			os.Args = tt.args

			_, got, err := ParseFlags()
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseFlags_Errors(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		usageError bool
	}{
		{
			name:       "missing input",
			args:       []string{"prog"},
			usageError: true,
		},
		{
			name:       "argument after file",
			args:       []string{"prog", "test.nes", "-q"},
			usageError: true,
		},
		{
			name: "unsupported assembler",
			args: []string{"prog", "-a", "vasm", "test.nes"},
		},
		{
			name: "invalid load address",
			args: []string{"prog", "-load", "0x12345", "test.nes"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oldArgs := os.Args
			t.Cleanup(func() { os.Args = oldArgs })

			os.Args = tt.args

			_, _, err := ParseFlags()
			assert.Error(t, err)
			var usageErr *UsageError
			assert.Equal(t, tt.usageError, errors.As(err, &usageErr))
		})
	}
}

func TestParseAddress(t *testing.T) {
	tests := []struct {
		input    string
		expected int
		wantErr  bool
	}{
		{input: "32768", expected: 0x8000},
		{input: "0x8000", expected: 0x8000},
		{input: "$C000", expected: 0xc000},
		{input: "$10000", wantErr: true},
		{input: "abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			address, err := parseAddress(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, address)
		})
	}
}
