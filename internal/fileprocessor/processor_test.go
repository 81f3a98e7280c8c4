package fileprocessor

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/retroenv/retrogolib/assert"
	"github.com/retroenv/retrogolib/log"
	"github.com/retroenv/retroscope/internal/options"
)

func createTestCode() []byte {
	// LDA #$00, STA $0200, RTS
	return []byte{
		0xa9, 0x00, // LDA #$00
		0x8d, 0x00, 0x02, // STA $0200
		0x60, // RTS
	}
}

// createMinimalNESROM creates a 16KB NES ROM with the code at the reset
// vector target $C000.
func createMinimalNESROM(code []byte) []byte {
	const prgSize = 16384

	prg := make([]byte, prgSize)
	copy(prg, code)
	prg[prgSize-4] = 0x00 // reset vector low byte
	prg[prgSize-3] = 0xc0 // reset vector high byte

	header := []byte{'N', 'E', 'S', 0x1a, 1, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}
	return append(header, prg...)
}

//nolint:funlen // test functions can be long
func TestProcessFile(t *testing.T) {
	tests := []struct {
		name     string
		binary   bool
		data     []byte
		expected []string
		missing  []string
	}{
		{
			name:     "binary file",
			binary:   true,
			data:     createTestCode(),
			expected: []string{".org $8000", "lda #$00", "sta $0200", "rts"},
			missing:  []string{"Reset"},
		},
		{
			name:     "NES ROM",
			data:     createMinimalNESROM(createTestCode()),
			expected: []string{".org $C000", "Reset:", "sta $0200", ".word Reset"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			input := filepath.Join(dir, "test.nes")
			assert.NoError(t, os.WriteFile(input, tt.data, 0600))

			opts := options.Program{
				Parameters: options.Parameters{
					Input:  input,
					Output: GenerateOutputFilename(input),
				},
				Flags: options.Flags{Binary: tt.binary},
			}
			analysisOpts := options.NewAnalysis("ca65")
			analysisOpts.Binary = tt.binary

			err := ProcessFile(context.Background(), log.NewTestLogger(t), opts, analysisOpts)
			assert.NoError(t, err)

			output, err := os.ReadFile(opts.Output)
			assert.NoError(t, err)
			for _, s := range tt.expected {
				assert.Contains(t, string(output), s)
			}
			for _, s := range tt.missing {
				assert.False(t, strings.Contains(string(output), s))
			}
		})
	}
}

func TestProcessFile_MissingInput(t *testing.T) {
	dir := t.TempDir()
	opts := options.Program{
		Parameters: options.Parameters{
			Input:  filepath.Join(dir, "missing.nes"),
			Output: filepath.Join(dir, "missing.asm"),
		},
	}

	err := ProcessFile(context.Background(), log.NewTestLogger(t), opts, options.NewAnalysis("ca65"))
	assert.ErrorContains(t, err, "loading input")
}

func TestGenerateOutputFilename(t *testing.T) {
	assert.Equal(t, "game.asm", GenerateOutputFilename("game.nes"))
	assert.Equal(t, "dir/prog.asm", GenerateOutputFilename("dir/prog.bin"))
	assert.Equal(t, "noext.asm", GenerateOutputFilename("noext"))
}

func TestGetFilesToProcess(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.nes", "b.nes", "c.bin"} {
		assert.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0600))
	}

	opts := &options.Program{Parameters: options.Parameters{Batch: filepath.Join(dir, "*.nes")}}
	files, err := GetFilesToProcess(opts)
	assert.NoError(t, err)
	assert.Len(t, files, 2)

	opts = &options.Program{Parameters: options.Parameters{Input: "single.nes"}}
	files, err = GetFilesToProcess(opts)
	assert.NoError(t, err)
	assert.Equal(t, []string{"single.nes"}, files)
}
