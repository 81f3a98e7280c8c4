// Package lvlookup resolves local variables at file offsets.
//
// The lookup walks the local variable tables in increasing offset order and
// maintains the merged set of variables that is active at the current
// position. Variables that clash with non-variable symbols are renamed with
// a _DUPn suffix. When uniquification is enabled, every redefinition of a
// label gets a _n suffix so that the output can be assembled by assemblers
// that do not support redefining symbols. Both renames depend on the order
// the tables are processed in, so a query for an earlier offset replays all
// tables from the start.
package lvlookup

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/retroenv/retrogolib/log"
	"github.com/retroenv/retrogolib/set"
	"github.com/retroenv/retroscope/internal/lvtable"
	"github.com/retroenv/retroscope/internal/messages"
	"github.com/retroenv/retroscope/internal/symbols"
)

const (
	dedupSuffix = "_DUP"
	maskPrefix  = "X" // prepended to labels with a leading underscore
)

// ErrLabelMapNeedsListing is returned when a label map is configured for a
// namespace that can not list its symbols.
var ErrLabelMapNeedsListing = errors.New("label map requires a namespace that lists its symbols")

// StartChecker reports whether an instruction or formatted data item starts at an offset.
type StartChecker interface {
	IsStart(offset int) bool
}

// Namespace is the global symbol namespace.
type Namespace interface {
	TryGetValue(label string) (*symbols.Symbol, bool)
	TryGetNonVariableValue(label string) (*symbols.Symbol, bool)
}

// Lister is implemented by namespaces that can list all their symbols.
type Lister interface {
	Symbols() []*symbols.Symbol
}

// changeSerialer is implemented by namespaces that count their modifications.
type changeSerialer interface {
	ChangeSerial() int
}

// Options of the lookup.
type Options struct {
	// Uniquify renames redefined variables, for assemblers that can not redefine symbols.
	Uniquify bool
	// MaskLeadingUnderscores prefixes variables starting with an underscore,
	// for assemblers that treat those labels as local labels.
	MaskLeadingUnderscores bool
	// LabelMap maps non-variable labels to the names used in the output.
	LabelMap map[string]string
}

type uniqueLabel struct {
	base    string
	label   string
	counter int
}

// makeUnique sets the label to the next base_n that is not taken.
// Uniquified labels of other bases never produce the candidate, but
// non-variable symbols and variables of any table can use the name.
func (u *uniqueLabel) makeUnique(taken func(string) bool) {
	for {
		u.counter++
		candidate := u.base + "_" + strconv.Itoa(u.counter)
		if !taken(candidate) {
			u.label = candidate
			return
		}
	}
}

// Lookup resolves local variables. It is not safe for concurrent use.
type Lookup struct {
	logger     *log.Logger
	tables     *lvtable.Collection
	attribs    StartChecker
	fileLength int
	namespace  Namespace
	messages   *messages.List
	opts       Options

	tablesGeneration int
	namespaceSerial  int
	nvSymbols        map[string]*symbols.Symbol // only used with a label map
	variableLabels   set.Set[string]            // output labels of the variables of all tables

	current       *lvtable.Table
	recentOffset  int
	recentSymbols []*symbols.DefSymbol
	uniqueLabels  map[string]*uniqueLabel
	dupRemap      map[string]string

	nextIndex  int
	nextOffset int

	// reported conditions survive resets so that replays do not report them again
	hiddenReported     set.Set[int]
	renameReported     set.Set[string]
	unresolvedReported set.Set[string]
}

// New returns a new lookup for the tables. The messages list is optional.
func New(logger *log.Logger, tables *lvtable.Collection, attribs StartChecker, fileLength int,
	namespace Namespace, msgs *messages.List, opts Options) (*Lookup, error) {

	for i := range tables.Len() {
		if offset := tables.OffsetAt(i); offset >= fileLength {
			return nil, fmt.Errorf("%w: table at +%06x is beyond file length %d",
				lvtable.ErrInvalidOffset, offset, fileLength)
		}
	}
	if opts.LabelMap != nil {
		if _, ok := namespace.(Lister); !ok {
			return nil, ErrLabelMapNeedsListing
		}
	}

	l := &Lookup{
		logger:     logger,
		tables:     tables,
		attribs:    attribs,
		fileLength: fileLength,
		namespace:  namespace,
		messages:   msgs,
		opts:       opts,

		current:  lvtable.New(),
		dupRemap: make(map[string]string),

		hiddenReported:     set.New[int](),
		renameReported:     set.New[string](),
		unresolvedReported: set.New[string](),
	}
	if opts.Uniquify {
		l.uniqueLabels = make(map[string]*uniqueLabel)
	}

	l.Reset()
	return l, nil
}

// Reset discards all state and rewinds to the first table. It has to be
// called after the tables or the namespace changed in a way that could
// affect earlier renames. Changes of the table collection and of
// namespaces that expose a change serial are detected automatically.
func (l *Lookup) Reset() {
	l.reset(true)
}

func (l *Lookup) reset(rebuildSymbols bool) {
	if rebuildSymbols && l.tables.Generation() != l.tablesGeneration {
		// tables can become visible and hidden again by the change
		l.hiddenReported = set.New[int]()
	}

	l.recentOffset = -1
	l.recentSymbols = nil
	l.current.Clear()
	clear(l.uniqueLabels)
	clear(l.dupRemap)

	l.tablesGeneration = l.tables.Generation()
	if l.tables.Len() == 0 {
		l.nextIndex = -1
		l.nextOffset = l.fileLength
	} else {
		l.nextIndex = 0
		l.nextOffset = l.tables.OffsetAt(0)
	}

	if rebuildSymbols {
		l.buildNonVariableSymbols()
		l.buildVariableLabels()
	}
}

// buildVariableLabels collects the labels of the variables of all tables.
func (l *Lookup) buildVariableLabels() {
	l.variableLabels = set.New[string]()
	for i := range l.tables.Len() {
		table := l.tables.TableAt(i)
		for j := range table.Len() {
			l.variableLabels.Add(l.maskLabel(table.At(j).Label))
		}
	}
}

func (l *Lookup) maskLabel(label string) string {
	if l.opts.MaskLeadingUnderscores && strings.HasPrefix(label, "_") {
		return maskPrefix + label
	}
	return label
}

// buildNonVariableSymbols creates the set of non-variable labels as they
// appear in the output, after applying the label map.
func (l *Lookup) buildNonVariableSymbols() {
	if serialer, ok := l.namespace.(changeSerialer); ok {
		l.namespaceSerial = serialer.ChangeSerial()
	}
	if l.opts.LabelMap == nil {
		l.nvSymbols = nil
		return
	}

	syms := l.namespace.(Lister).Symbols()
	l.nvSymbols = make(map[string]*symbols.Symbol, len(syms))
	for _, sym := range syms {
		if sym.IsVariable() {
			continue
		}
		label := sym.Label
		if mapped, ok := l.opts.LabelMap[label]; ok {
			label = mapped
		}
		l.nvSymbols[label] = sym
	}
}

// isNonVariable returns whether the label is used by a non-variable symbol.
func (l *Lookup) isNonVariable(label string) bool {
	if l.nvSymbols != nil {
		_, ok := l.nvSymbols[label]
		return ok
	}
	_, ok := l.namespace.TryGetNonVariableValue(label)
	return ok
}

// isTaken returns whether a generated label would clash with a non-variable
// symbol or with a variable of any table.
func (l *Lookup) isTaken(label string) bool {
	return l.isNonVariable(label) || l.variableLabels.Contains(label)
}

func (l *Lookup) dependenciesChanged() bool {
	if l.tables.Generation() != l.tablesGeneration {
		return true
	}
	if serialer, ok := l.namespace.(changeSerialer); ok {
		return serialer.ChangeSerial() != l.namespaceSerial
	}
	return false
}

// GetSymbol returns the variable whose value range covers the operand value
// at the offset.
func (l *Lookup) GetSymbol(offset, operandValue int, typ symbols.Type) (*symbols.DefSymbol, bool) {
	l.advanceToOffset(offset)
	return l.current.GetByValueRange(operandValue, 1, typ)
}

// GetSymbolRef resolves a reference that was recorded using the original
// variable label to the definition that is active at the offset.
// A reference that can not be resolved is reported and returns false.
func (l *Lookup) GetSymbolRef(offset int, ref symbols.WeakRef) (*symbols.DefSymbol, bool) {
	l.advanceToOffset(offset)

	label := ref.Label
	if remapped, ok := l.dupRemap[label]; ok {
		label = remapped
	}
	if ulab, ok := l.uniqueLabels[label]; ok {
		label = ulab.label
	}

	def, ok := l.current.GetByLabel(label)
	if !ok {
		l.reportUnresolved(offset, ref.Label)
	}
	return def, ok
}

// GetMergedTableAtOffset returns all variables that are active at the offset.
// The returned table is owned by the lookup and must not be modified.
func (l *Lookup) GetMergedTableAtOffset(offset int) *lvtable.Table {
	l.advanceToOffset(offset)
	return l.current
}

// GetVariablesDefinedAtOffset returns the renamed variables of the table
// defined at the offset. It returns false if no table is defined there or
// the table is hidden.
func (l *Lookup) GetVariablesDefinedAtOffset(offset int) ([]*symbols.DefSymbol, bool) {
	l.advanceToOffset(offset)
	if l.recentOffset == offset {
		return l.recentSymbols, true
	}
	return nil, false
}

// GetDefiningTableOffset returns the offset of the table that defines the
// variable referenced at the offset, or -1.
func (l *Lookup) GetDefiningTableOffset(offset int, ref symbols.WeakRef) int {
	l.advanceToOffset(offset)

	label := l.unDeDuplicate(ref.Label)
	for i := l.tables.Len() - 1; i >= 0; i-- {
		if l.tables.OffsetAt(i) > offset {
			continue
		}
		if _, ok := l.tables.TableAt(i).GetByLabel(label); ok {
			return l.tables.OffsetAt(i)
		}
	}
	return -1
}

// GetOriginalForm returns the definition using the label it had before
// it was renamed to avoid a clash with a non-variable symbol.
func (l *Lookup) GetOriginalForm(def *symbols.DefSymbol) *symbols.DefSymbol {
	orig := l.unDeDuplicate(def.Label)
	if orig == def.Label {
		return def
	}
	return def.WithLabel(orig)
}

// GetNearestTableOffset returns the offset of the closest table at or
// before the offset, preferring tables that are not hidden. It returns -1
// if no table exists before the offset.
func (l *Lookup) GetNearestTableOffset(offset int) int {
	nearest := -1
	nearestVisible := -1
	for i := range l.tables.Len() {
		tableOffset := l.tables.OffsetAt(i)
		if tableOffset > offset {
			break
		}
		nearest = tableOffset
		if l.attribs.IsStart(tableOffset) {
			nearestVisible = tableOffset
		}
	}
	if nearestVisible >= 0 {
		return nearestVisible
	}
	return nearest
}

// IsTableHidden returns whether a table at the offset would be ignored
// because no instruction or formatted data item starts there.
func IsTableHidden(offset int, attribs StartChecker) bool {
	return !attribs.IsStart(offset)
}

func (l *Lookup) unDeDuplicate(label string) string {
	for orig, renamed := range l.dupRemap {
		if renamed == label {
			return orig
		}
	}
	return label
}

// advanceToOffset applies all tables up to the target offset. A target
// before the most recently applied table replays all tables from the start.
func (l *Lookup) advanceToOffset(target int) {
	if l.dependenciesChanged() {
		l.reset(true)
	}
	if l.nextIndex < 0 {
		return
	}
	if target < l.recentOffset {
		l.reset(false)
	}

	for l.nextIndex < l.tables.Len() && l.nextOffset <= target {
		if IsTableHidden(l.nextOffset, l.attribs) {
			l.reportHidden(l.nextOffset)
		} else {
			l.applyTable(l.nextOffset, l.tables.TableAt(l.nextIndex))
		}

		l.nextIndex++
		if l.nextIndex < l.tables.Len() {
			l.nextOffset = l.tables.OffsetAt(l.nextIndex)
		} else {
			l.nextOffset = l.fileLength
		}
	}
}

func (l *Lookup) applyTable(offset int, table *lvtable.Table) {
	if table.ClearPrevious {
		l.current.Clear()
	}

	l.recentSymbols = make([]*symbols.DefSymbol, 0, table.Len())
	l.recentOffset = offset

	for i := range table.Len() {
		def := table.At(i)
		label := l.maskLabel(def.Label)

		if l.isNonVariable(label) {
			deduped := l.dedupLabel(label)
			l.reportRename(offset, label, deduped)
			label = deduped
		}
		if label != def.Label {
			l.dupRemap[def.Label] = label
			def = def.WithLabel(label)
		}

		if l.uniqueLabels != nil {
			if ulab, ok := l.uniqueLabels[def.Label]; ok {
				ulab.makeUnique(l.isTaken)
				def = def.WithLabel(ulab.label)
			} else {
				l.uniqueLabels[def.Label] = &uniqueLabel{base: def.Label, label: def.Label}
			}
		}

		l.evictOverlapping(def)
		l.current.AddOrReplace(def)
		l.recentSymbols = append(l.recentSymbols, def)
	}
}

// evictOverlapping removes the variables of the merged table that cover the
// value range of the new definition under a different label.
func (l *Lookup) evictOverlapping(def *symbols.DefSymbol) {
	for _, old := range l.current.Definitions() {
		if old.Label != def.Label && old.Overlaps(def.Value, def.Width(), def.Type) {
			l.current.Remove(old.Label)
		}
	}
}

// dedupLabel returns base_DUPn for the first n that is not used by a
// non-variable symbol or a variable. Other renamed variables have
// different base labels.
func (l *Lookup) dedupLabel(base string) string {
	for i := 1; ; i++ {
		candidate := base + dedupSuffix + strconv.Itoa(i)
		if !l.isTaken(candidate) {
			return candidate
		}
	}
}

func (l *Lookup) reportHidden(offset int) {
	if l.hiddenReported.Contains(offset) {
		return
	}
	l.hiddenReported.Add(offset)

	l.logger.Debug("Ignoring hidden local variable table", log.Hex("offset", offset))
	l.addMessage(messages.Entry{
		Severity:   messages.Info,
		Offset:     offset,
		Type:       messages.HiddenLocalVariableTable,
		Resolution: messages.LocalVariableTableIgnored,
	})
}

func (l *Lookup) reportRename(offset int, label, renamed string) {
	key := strconv.Itoa(offset) + ":" + label
	if l.renameReported.Contains(key) {
		return
	}
	l.renameReported.Add(key)

	l.logger.Debug("Renaming variable that clashes with non-variable symbol",
		log.Hex("offset", offset),
		log.String("label", label),
		log.String("renamed", renamed))
	l.addMessage(messages.Entry{
		Severity:   messages.Info,
		Offset:     offset,
		Type:       messages.DuplicateLabel,
		Context:    label + " -> " + renamed,
		Resolution: messages.LabelRenamed,
	})
}

func (l *Lookup) reportUnresolved(offset int, label string) {
	key := strconv.Itoa(offset) + ":" + label
	if l.unresolvedReported.Contains(key) {
		return
	}
	l.unresolvedReported.Add(key)

	l.logger.Debug("Unresolved variable reference",
		log.Hex("offset", offset),
		log.String("label", label))
	l.addMessage(messages.Entry{
		Severity: messages.Warning,
		Offset:   offset,
		Type:     messages.UnresolvedWeakRef,
		Context:  label,
	})
}

func (l *Lookup) addMessage(entry messages.Entry) {
	if l.messages != nil {
		l.messages.Add(entry)
	}
}
