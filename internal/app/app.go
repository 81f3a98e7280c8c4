// Package app provides the main application helpers for the analyser.
package app

import (
	"github.com/retroenv/retrogolib/log"
	"github.com/retroenv/retroscope/internal/anattrib"
	"github.com/retroenv/retroscope/internal/loader"
	"github.com/retroenv/retroscope/internal/messages"
	"github.com/retroenv/retroscope/internal/options"
)

// PrintInfo prints the information about the input file and the cartridge.
func PrintInfo(logger *log.Logger, opts options.Program, input *loader.Input) {
	if opts.Quiet {
		return
	}

	if opts.Binary {
		logger.Info("Processing binary",
			log.String("file", opts.Input),
			log.String("assembler", opts.Assembler),
		)
		return
	}

	logger.Info("Processing NES ROM",
		log.String("file", opts.Input),
		log.Uint16("mapper", input.Cart.Mapper),
		log.String("assembler", opts.Assembler),
	)
	if input.Cart.Mapper != 0 && len(input.Data) > 0x8000 {
		logger.Warn("Banked PRG is analysed as one flat image, cross bank references are not resolved")
	}
}

// Summary contains the counts of an analysis run.
type Summary struct {
	Instructions int
	DataItems    int
	Labels       int
	Warnings     int
	Errors       int
}

// Summarize counts the results of an analysis run.
func Summarize(store *anattrib.Store, msgs *messages.List) Summary {
	var s Summary
	for offset := range store.Len() {
		attr := store.At(offset)
		switch {
		case attr.IsInstructionStart():
			s.Instructions++
		case attr.IsDataStart():
			s.DataItems++
		}
		if attr.Symbol != nil {
			s.Labels++
		}
	}

	for _, entry := range msgs.Entries() {
		switch entry.Severity {
		case messages.Warning:
			s.Warnings++
		case messages.Error:
			s.Errors++
		}
	}
	return s
}

// PrintSummary logs the counts of an analysis run.
func PrintSummary(logger *log.Logger, summary Summary) {
	logger.Info("Analysis finished",
		log.Int("instructions", summary.Instructions),
		log.Int("data", summary.DataItems),
		log.Int("labels", summary.Labels),
		log.Int("warnings", summary.Warnings),
		log.Int("errors", summary.Errors),
	)
}
