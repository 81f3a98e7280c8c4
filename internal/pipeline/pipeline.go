// Package pipeline orchestrates the analysis workflow stages.
package pipeline

import (
	"context"
	"fmt"
	"io"

	"github.com/retroenv/retrogolib/arch/system/nes/codedatalog"
	"github.com/retroenv/retrogolib/log"
	"github.com/retroenv/retroscope/internal/analysis"
	"github.com/retroenv/retroscope/internal/anattrib"
	"github.com/retroenv/retroscope/internal/app"
	"github.com/retroenv/retroscope/internal/assembler"
	"github.com/retroenv/retroscope/internal/listing"
	"github.com/retroenv/retroscope/internal/loader"
	"github.com/retroenv/retroscope/internal/lvlookup"
	"github.com/retroenv/retroscope/internal/messages"
	"github.com/retroenv/retroscope/internal/options"
	"github.com/retroenv/retroscope/internal/project"
)

// Result contains the outcome of a pipeline run.
type Result struct {
	Project     *project.Project
	Store       *anattrib.Store
	Messages    *messages.List
	LoadAddress int
}

// Pipeline orchestrates the complete analysis workflow.
type Pipeline struct {
	logger *log.Logger
	loader *loader.Loader
}

// New creates a new analysis pipeline.
func New(logger *log.Logger) *Pipeline {
	return &Pipeline{
		logger: logger,
		loader: loader.New(),
	}
}

// Execute loads the input and the optional project and Code/Data log,
// analyses the code and writes the listing.
func (p *Pipeline) Execute(ctx context.Context, opts options.Program, analysisOpts options.Analysis,
	writer io.Writer) (*Result, error) {

	input, err := p.loader.Load(opts)
	if err != nil {
		return nil, fmt.Errorf("loading input: %w", err)
	}
	defer func() {
		if input.CodeDataLog != nil {
			_ = input.CodeDataLog.Close()
		}
	}()

	proj := project.New()
	if opts.Project != "" {
		proj, err = project.LoadFile(opts.Project)
		if err != nil {
			return nil, err
		}
	}

	var prgFlags []codedatalog.PrgFlag
	if input.CodeDataLog != nil {
		prgFlags, err = codedatalog.LoadFile(input.Cart, input.CodeDataLog)
		if err != nil {
			return nil, fmt.Errorf("loading code/data log file: %w", err)
		}
	}

	app.PrintInfo(p.logger, opts, input)

	return p.ExecuteWithData(ctx, input.Data, proj, prgFlags, analysisOpts, writer)
}

// ExecuteWithData runs the pipeline on data that is already in memory.
// This is useful for testing and programmatic usage.
func (p *Pipeline) ExecuteWithData(ctx context.Context, data []byte, proj *project.Project,
	prgFlags []codedatalog.PrgFlag, analysisOpts options.Analysis, writer io.Writer) (*Result, error) {

	dialect, err := assembler.Lookup(analysisOpts.Assembler)
	if err != nil {
		return nil, fmt.Errorf("incompatible assembler: %w", err)
	}

	result := &Result{
		Project:     proj,
		Store:       anattrib.NewStore(len(data)),
		Messages:    messages.New(),
		LoadAddress: loadAddress(data, proj, analysisOpts),
	}

	entryPoints := proj.EntryPoints
	var vectorFormats vectorFormats
	if !analysisOpts.Binary {
		vectorFormats = readVectors(p.logger, data, result.LoadAddress, proj)
		entryPoints = append(entryPoints, vectorFormats.entryPoints...)
	}

	analyzer := analysis.New(p.logger, data, result.Store, result.Messages, analysis.Options{
		LoadAddress: result.LoadAddress,
		EntryPoints: entryPoints,
	})
	if prgFlags != nil {
		analyzer.ApplyCodeDataLog(prgFlags)
	}
	analyzer.ApplyFormats(vectorFormats.formats)
	analyzer.ApplyFormats(proj.Formats)

	if err := analyzer.Analyze(ctx); err != nil {
		return nil, fmt.Errorf("analysing: %w", err)
	}

	proj.BindLabels(result.Store, result.Messages)
	generated := listing.GenerateLabels(result.Store, proj.Symbols)
	p.logger.Debug("Generated labels", log.Int("count", generated))

	lookup, err := lvlookup.New(p.logger, proj.Tables, result.Store, len(data), proj.Symbols, result.Messages,
		lvlookup.Options{
			Uniquify:               analysisOpts.ForceUniquify || !dialect.CanRedefine,
			MaskLeadingUnderscores: analysisOpts.MaskLeadingUnderscores,
		})
	if err != nil {
		return nil, fmt.Errorf("creating variable lookup: %w", err)
	}

	w := listing.New(p.logger, dialect, data, result.LoadAddress, result.Store, lookup, proj.Symbols, listing.Options{
		HexComments:    analysisOpts.HexComments,
		OffsetComments: analysisOpts.OffsetComments,
	})
	if err := w.Write(writer); err != nil {
		return nil, fmt.Errorf("writing listing: %w", err)
	}

	p.logMessages(result.Messages)
	app.PrintSummary(p.logger, app.Summarize(result.Store, result.Messages))
	return result, nil
}

// logMessages logs the diagnostics in offset order.
func (p *Pipeline) logMessages(msgs *messages.List) {
	for _, entry := range msgs.Sorted() {
		switch entry.Severity {
		case messages.Error:
			p.logger.Error(entry.String())
		case messages.Warning:
			p.logger.Warn(entry.String())
		default:
			p.logger.Debug(entry.String())
		}
	}
}
