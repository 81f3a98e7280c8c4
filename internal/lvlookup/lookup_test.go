package lvlookup

import (
	"errors"
	"testing"

	"github.com/retroenv/retrogolib/assert"
	"github.com/retroenv/retrogolib/log"
	"github.com/retroenv/retroscope/internal/lvtable"
	"github.com/retroenv/retroscope/internal/messages"
	"github.com/retroenv/retroscope/internal/symbols"
)

const testFileLength = 0x1000

type variable struct {
	label string
	value int
}

func newTable(t *testing.T, clearPrevious bool, vars ...variable) *lvtable.Table {
	t.Helper()
	table := lvtable.New()
	table.ClearPrevious = clearPrevious
	for _, v := range vars {
		def, err := symbols.NewVariable(v.label, v.value, symbols.ExternalAddr, 0, "")
		assert.NoError(t, err)
		table.AddOrReplace(def)
	}
	return table
}

func newCollection(t *testing.T, tables map[int]*lvtable.Table) *lvtable.Collection {
	t.Helper()
	c := lvtable.NewCollection()
	for offset, table := range tables {
		assert.NoError(t, c.Set(offset, table))
	}
	return c
}

func newLookup(t *testing.T, tables *lvtable.Collection, ns Namespace, attribs *startCheckerMock,
	opts Options) (*Lookup, *messages.List) {

	t.Helper()
	msgs := messages.New()
	l, err := New(log.NewTestLogger(t), tables, attribs, testFileLength, ns, msgs, opts)
	assert.NoError(t, err)
	return l, msgs
}

func labels(table *lvtable.Table) []string {
	result := make([]string, 0, table.Len())
	for i := range table.Len() {
		result = append(result, table.At(i).Label)
	}
	return result
}

func defLabels(defs []*symbols.DefSymbol) []string {
	result := make([]string, 0, len(defs))
	for _, def := range defs {
		result = append(result, def.Label)
	}
	return result
}

func TestLookup_Scenario(t *testing.T) {
	tables := newCollection(t, map[int]*lvtable.Table{
		0x100: newTable(t, false, variable{"x", 5}),
		0x200: newTable(t, true, variable{"x", 7}),
		0x300: newTable(t, false, variable{"y", 1}),
	})
	l, _ := newLookup(t, tables, symbols.NewTable(), newStartCheckerMock(), Options{})

	merged := l.GetMergedTableAtOffset(0x150)
	assert.Equal(t, []string{"x"}, labels(merged))
	assert.Equal(t, 5, merged.At(0).Value)

	merged = l.GetMergedTableAtOffset(0x250)
	assert.Equal(t, []string{"x"}, labels(merged))
	assert.Equal(t, 7, merged.At(0).Value)

	merged = l.GetMergedTableAtOffset(0x350)
	assert.Equal(t, []string{"x", "y"}, labels(merged))
	x, ok := merged.GetByLabel("x")
	assert.True(t, ok)
	assert.Equal(t, 7, x.Value)

	merged = l.GetMergedTableAtOffset(0x180)
	assert.Equal(t, []string{"x"}, labels(merged))
	assert.Equal(t, 5, merged.At(0).Value)

	def, ok := l.GetSymbol(0x180, 5, symbols.ExternalAddr)
	assert.True(t, ok)
	assert.Equal(t, "x", def.Label)
	_, ok = l.GetSymbol(0x180, 5, symbols.Constant)
	assert.False(t, ok)
}

func TestLookup_BeforeFirstTable(t *testing.T) {
	tables := newCollection(t, map[int]*lvtable.Table{
		0x100: newTable(t, false, variable{"x", 5}),
	})
	l, _ := newLookup(t, tables, symbols.NewTable(), newStartCheckerMock(), Options{})

	assert.Equal(t, 0, l.GetMergedTableAtOffset(0x50).Len())
	_, ok := l.GetSymbol(0x50, 5, symbols.ExternalAddr)
	assert.False(t, ok)

	empty, _ := newLookup(t, lvtable.NewCollection(), symbols.NewTable(), newStartCheckerMock(), Options{})
	assert.Equal(t, 0, empty.GetMergedTableAtOffset(0x500).Len())
	_, ok = empty.GetVariablesDefinedAtOffset(0)
	assert.False(t, ok)
}

func TestLookup_VariablesDefinedAtOffset(t *testing.T) {
	tables := newCollection(t, map[int]*lvtable.Table{
		0x100: newTable(t, false, variable{"b", 2}, variable{"a", 1}),
		0x200: newTable(t, false, variable{"c", 3}),
	})
	l, _ := newLookup(t, tables, symbols.NewTable(), newStartCheckerMock(), Options{})

	_, ok := l.GetVariablesDefinedAtOffset(0x0ff)
	assert.False(t, ok)

	defs, ok := l.GetVariablesDefinedAtOffset(0x100)
	assert.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, defLabels(defs))

	_, ok = l.GetVariablesDefinedAtOffset(0x101)
	assert.False(t, ok)

	defs, ok = l.GetVariablesDefinedAtOffset(0x200)
	assert.True(t, ok)
	assert.Equal(t, []string{"c"}, defLabels(defs))
}

func TestLookup_HiddenTable(t *testing.T) {
	tables := newCollection(t, map[int]*lvtable.Table{
		0x100: newTable(t, false, variable{"x", 5}),
		0x180: newTable(t, true, variable{"hidden", 9}),
		0x200: newTable(t, false, variable{"y", 6}),
	})
	attribs := newStartCheckerMock(0x180)
	l, msgs := newLookup(t, tables, symbols.NewTable(), attribs, Options{})

	assert.Equal(t, []string{"x", "y"}, labels(l.GetMergedTableAtOffset(0x250)))
	_, ok := l.GetVariablesDefinedAtOffset(0x180)
	assert.False(t, ok)

	// replay after a backward query must not report again
	assert.Equal(t, []string{"x"}, labels(l.GetMergedTableAtOffset(0x190)))
	assert.Equal(t, []string{"x", "y"}, labels(l.GetMergedTableAtOffset(0x300)))
	l.Reset()
	l.GetMergedTableAtOffset(0x300)

	assert.Equal(t, 1, msgs.Count(messages.HiddenLocalVariableTable))
	entry := msgs.Entries()[0]
	assert.Equal(t, 0x180, entry.Offset)
	assert.Equal(t, messages.LocalVariableTableIgnored, entry.Resolution)

	assert.True(t, IsTableHidden(0x180, attribs))
	assert.Equal(t, 0x100, l.GetNearestTableOffset(0x190))
	assert.Equal(t, 0x200, l.GetNearestTableOffset(0x200))
	assert.Equal(t, -1, l.GetNearestTableOffset(0x50))
}

func TestLookup_HiddenTableReportedAfterChange(t *testing.T) {
	tables := newCollection(t, map[int]*lvtable.Table{
		0x100: newTable(t, false, variable{"x", 5}),
		0x180: newTable(t, false, variable{"hidden", 9}),
	})
	l, msgs := newLookup(t, tables, symbols.NewTable(), newStartCheckerMock(0x180), Options{})

	l.GetMergedTableAtOffset(0x200)
	assert.Equal(t, 1, msgs.Count(messages.HiddenLocalVariableTable))

	// replays of unchanged tables do not report again
	l.GetMergedTableAtOffset(0x0ff)
	l.GetMergedTableAtOffset(0x200)
	assert.Equal(t, 1, msgs.Count(messages.HiddenLocalVariableTable))

	assert.NoError(t, tables.Set(0x190, newTable(t, false, variable{"y", 6})))
	assert.Equal(t, []string{"x", "y"}, labels(l.GetMergedTableAtOffset(0x200)))
	assert.Equal(t, 2, msgs.Count(messages.HiddenLocalVariableTable))
}

func TestLookup_NearestTableOnlyHidden(t *testing.T) {
	tables := newCollection(t, map[int]*lvtable.Table{
		0x180: newTable(t, false, variable{"x", 5}),
	})
	l, _ := newLookup(t, tables, symbols.NewTable(), newStartCheckerMock(0x180), Options{})
	assert.Equal(t, 0x180, l.GetNearestTableOffset(0x200))
}

func TestLookup_Uniquify(t *testing.T) {
	tests := []struct {
		name     string
		globals  []string
		expected []string
	}{
		{name: "plain", expected: []string{"ptr", "ptr_1", "ptr_2"}},
		{name: "skip global label", globals: []string{"ptr_1"}, expected: []string{"ptr", "ptr_2", "ptr_3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ns := symbols.NewTable()
			for _, label := range tt.globals {
				assert.NoError(t, ns.Add(symbols.New(label, 0x8000, symbols.User, symbols.LocalOrGlobalAddr)))
			}
			tables := newCollection(t, map[int]*lvtable.Table{
				0x100: newTable(t, false, variable{"ptr", 0x10}),
				0x200: newTable(t, false, variable{"ptr", 0x12}),
				0x300: newTable(t, false, variable{"ptr", 0x14}),
			})
			l, _ := newLookup(t, tables, ns, newStartCheckerMock(), Options{Uniquify: true})

			var got []string
			for _, offset := range []int{0x100, 0x200, 0x300} {
				defs, ok := l.GetVariablesDefinedAtOffset(offset)
				assert.True(t, ok)
				got = append(got, defs[0].Label)
			}
			assert.Equal(t, tt.expected, got)

			def, ok := l.GetSymbol(0x300, 0x14, symbols.ExternalAddr)
			assert.True(t, ok)
			assert.Equal(t, tt.expected[2], def.Label)

			def, ok = l.GetSymbolRef(0x300, symbols.NewWeakRef("ptr", symbols.Low))
			assert.True(t, ok)
			assert.Equal(t, tt.expected[2], def.Label)
		})
	}
}

func TestLookup_UniquifySkipsVariableLabels(t *testing.T) {
	tables := newCollection(t, map[int]*lvtable.Table{
		0x100: newTable(t, false, variable{"ptr", 0x10}),
		0x200: newTable(t, false, variable{"ptr", 0x12}, variable{"ptr_1", 0x30}),
	})
	l, _ := newLookup(t, tables, symbols.NewTable(), newStartCheckerMock(), Options{Uniquify: true})

	defs, ok := l.GetVariablesDefinedAtOffset(0x200)
	assert.True(t, ok)
	assert.Equal(t, []string{"ptr_2", "ptr_1"}, defLabels(defs))

	def, ok := l.GetSymbolRef(0x250, symbols.NewWeakRef("ptr", symbols.Low))
	assert.True(t, ok)
	assert.Equal(t, "ptr_2", def.Label)
	assert.Equal(t, 0x12, def.Value)

	def, ok = l.GetSymbolRef(0x250, symbols.NewWeakRef("ptr_1", symbols.Low))
	assert.True(t, ok)
	assert.Equal(t, 0x30, def.Value)

	assert.Equal(t, []string{"ptr", "ptr_1", "ptr_2"}, labels(l.GetMergedTableAtOffset(0x250)))
}

func TestLookup_DedupSkipsVariableLabels(t *testing.T) {
	ns := symbols.NewTable()
	assert.NoError(t, ns.Add(symbols.New("total", 0x9000, symbols.User, symbols.LocalOrGlobalAddr)))
	tables := newCollection(t, map[int]*lvtable.Table{
		0x100: newTable(t, false, variable{"total", 0x10}, variable{"total_DUP1", 0x11}),
	})
	l, _ := newLookup(t, tables, ns, newStartCheckerMock(), Options{})

	defs, ok := l.GetVariablesDefinedAtOffset(0x100)
	assert.True(t, ok)
	assert.Equal(t, []string{"total_DUP2", "total_DUP1"}, defLabels(defs))
}

func TestLookup_LaterTableShadowsSameAddress(t *testing.T) {
	tables := newCollection(t, map[int]*lvtable.Table{
		0x100: newTable(t, false, variable{"a_old", 0x10}),
		0x200: newTable(t, false, variable{"b_new", 0x10}),
	})
	l, _ := newLookup(t, tables, symbols.NewTable(), newStartCheckerMock(), Options{})

	def, ok := l.GetSymbol(0x150, 0x10, symbols.ExternalAddr)
	assert.True(t, ok)
	assert.Equal(t, "a_old", def.Label)

	def, ok = l.GetSymbol(0x250, 0x10, symbols.ExternalAddr)
	assert.True(t, ok)
	assert.Equal(t, "b_new", def.Label)
	assert.Equal(t, []string{"b_new"}, labels(l.GetMergedTableAtOffset(0x250)))

	// a backward query replays the shadowed table
	def, ok = l.GetSymbol(0x150, 0x10, symbols.ExternalAddr)
	assert.True(t, ok)
	assert.Equal(t, "a_old", def.Label)
}

func TestLookup_UniquifyDisabledRedefines(t *testing.T) {
	tables := newCollection(t, map[int]*lvtable.Table{
		0x100: newTable(t, false, variable{"ptr", 0x10}),
		0x200: newTable(t, false, variable{"ptr", 0x12}),
	})
	l, _ := newLookup(t, tables, symbols.NewTable(), newStartCheckerMock(), Options{})

	merged := l.GetMergedTableAtOffset(0x200)
	assert.Equal(t, []string{"ptr"}, labels(merged))
	assert.Equal(t, 0x12, merged.At(0).Value)
}

func TestLookup_DedupNonVariable(t *testing.T) {
	ns := symbols.NewTable()
	assert.NoError(t, ns.Add(symbols.New("total", 0x9000, symbols.User, symbols.LocalOrGlobalAddr)))
	assert.NoError(t, ns.Add(symbols.New("count", 0x9002, symbols.Project, symbols.ExternalAddr)))
	assert.NoError(t, ns.Add(symbols.New("count_DUP1", 0x9004, symbols.Project, symbols.ExternalAddr)))
	// variables in the namespace do not cause renames
	ns.Set(symbols.New("idx", 0x20, symbols.Variable, symbols.ExternalAddr))

	tables := newCollection(t, map[int]*lvtable.Table{
		0x100: newTable(t, false, variable{"total", 0x10}, variable{"count", 0x11}, variable{"idx", 0x12}),
	})
	l, msgs := newLookup(t, tables, ns, newStartCheckerMock(), Options{})

	defs, ok := l.GetVariablesDefinedAtOffset(0x100)
	assert.True(t, ok)
	assert.Equal(t, []string{"count_DUP2", "idx", "total_DUP1"}, defLabels(defs))

	def, ok := l.GetSymbolRef(0x120, symbols.NewWeakRef("total", symbols.Low))
	assert.True(t, ok)
	assert.Equal(t, "total_DUP1", def.Label)
	assert.Equal(t, 0x10, def.Value)

	orig := l.GetOriginalForm(def)
	assert.Equal(t, "total", orig.Label)
	assert.True(t, defs[1] == l.GetOriginalForm(defs[1]))

	assert.Equal(t, 0x100, l.GetDefiningTableOffset(0x120, symbols.NewWeakRef("total_DUP1", symbols.Low)))
	assert.Equal(t, -1, l.GetDefiningTableOffset(0x50, symbols.NewWeakRef("total", symbols.Low)))

	assert.Equal(t, 2, msgs.Count(messages.DuplicateLabel))
	l.GetMergedTableAtOffset(0)
	l.GetMergedTableAtOffset(0x200)
	assert.Equal(t, 2, msgs.Count(messages.DuplicateLabel))
}

func TestLookup_DedupAndUniquify(t *testing.T) {
	ns := symbols.NewTable()
	assert.NoError(t, ns.Add(symbols.New("total", 0x9000, symbols.User, symbols.LocalOrGlobalAddr)))

	tables := newCollection(t, map[int]*lvtable.Table{
		0x100: newTable(t, false, variable{"total", 0x10}),
		0x200: newTable(t, false, variable{"total", 0x11}),
	})
	l, _ := newLookup(t, tables, ns, newStartCheckerMock(), Options{Uniquify: true})

	def, ok := l.GetSymbolRef(0x150, symbols.NewWeakRef("total", symbols.Low))
	assert.True(t, ok)
	assert.Equal(t, "total_DUP1", def.Label)

	def, ok = l.GetSymbolRef(0x250, symbols.NewWeakRef("total", symbols.Low))
	assert.True(t, ok)
	assert.Equal(t, "total_DUP1_1", def.Label)
	assert.Equal(t, 0x11, def.Value)
}

func TestLookup_MaskLeadingUnderscores(t *testing.T) {
	tables := newCollection(t, map[int]*lvtable.Table{
		0x100: newTable(t, false, variable{"_tmp", 0x10}),
	})
	l, _ := newLookup(t, tables, symbols.NewTable(), newStartCheckerMock(), Options{MaskLeadingUnderscores: true})

	defs, ok := l.GetVariablesDefinedAtOffset(0x100)
	assert.True(t, ok)
	assert.Equal(t, "X_tmp", defs[0].Label)

	def, ok := l.GetSymbolRef(0x100, symbols.NewWeakRef("_tmp", symbols.Low))
	assert.True(t, ok)
	assert.Equal(t, "X_tmp", def.Label)
	assert.Equal(t, "_tmp", l.GetOriginalForm(def).Label)
}

func TestLookup_LabelMap(t *testing.T) {
	ns := symbols.NewTable()
	assert.NoError(t, ns.Add(symbols.New("foo", 0x9000, symbols.User, symbols.LocalOrGlobalAddr)))

	tables := newCollection(t, map[int]*lvtable.Table{
		0x100: newTable(t, false, variable{"foo", 0x10}, variable{"bar", 0x11}),
	})
	opts := Options{LabelMap: map[string]string{"foo": "bar"}}
	l, _ := newLookup(t, tables, ns, newStartCheckerMock(), opts)

	defs, ok := l.GetVariablesDefinedAtOffset(0x100)
	assert.True(t, ok)
	assert.Equal(t, []string{"bar_DUP1", "foo"}, defLabels(defs))
}

func TestLookup_LabelMapNeedsListing(t *testing.T) {
	ns := &namespaceMock{labels: map[string]*symbols.Symbol{}}
	_, err := New(log.NewTestLogger(t), lvtable.NewCollection(), newStartCheckerMock(), testFileLength,
		ns, nil, Options{LabelMap: map[string]string{}})
	assert.True(t, errors.Is(err, ErrLabelMapNeedsListing))

	l, err := New(log.NewTestLogger(t), lvtable.NewCollection(), newStartCheckerMock(), testFileLength,
		ns, nil, Options{})
	assert.NoError(t, err)
	assert.NotNil(t, l)
}

func TestLookup_InvalidTableOffset(t *testing.T) {
	tables := newCollection(t, map[int]*lvtable.Table{
		testFileLength: newTable(t, false, variable{"x", 1}),
	})
	_, err := New(log.NewTestLogger(t), tables, newStartCheckerMock(), testFileLength,
		symbols.NewTable(), nil, Options{})
	assert.True(t, errors.Is(err, lvtable.ErrInvalidOffset))
}

func TestLookup_UnresolvedWeakRef(t *testing.T) {
	tables := newCollection(t, map[int]*lvtable.Table{
		0x100: newTable(t, false, variable{"x", 5}),
	})
	l, msgs := newLookup(t, tables, symbols.NewTable(), newStartCheckerMock(), Options{})

	def, ok := l.GetSymbolRef(0x150, symbols.NewWeakRef("missing", symbols.Low))
	assert.False(t, ok)
	assert.True(t, def == nil)

	l.GetSymbolRef(0x150, symbols.NewWeakRef("missing", symbols.Low))
	assert.Equal(t, 1, msgs.Count(messages.UnresolvedWeakRef))

	l.GetSymbolRef(0x160, symbols.NewWeakRef("missing", symbols.Low))
	assert.Equal(t, 2, msgs.Count(messages.UnresolvedWeakRef))
	assert.Equal(t, messages.Warning, msgs.Entries()[0].Severity)
}

func TestLookup_NilMessages(t *testing.T) {
	tables := newCollection(t, map[int]*lvtable.Table{
		0x100: newTable(t, false, variable{"x", 5}),
	})
	l, err := New(log.NewTestLogger(t), tables, newStartCheckerMock(0x100), testFileLength,
		symbols.NewTable(), nil, Options{})
	assert.NoError(t, err)

	assert.Equal(t, 0, l.GetMergedTableAtOffset(0x200).Len())
	_, ok := l.GetSymbolRef(0x200, symbols.NewWeakRef("x", symbols.Low))
	assert.False(t, ok)
}

// queryAll returns the merged labels and the defined labels for a forward walk.
func queryAll(l *Lookup, end int) ([][]string, [][]string) {
	var merged, defined [][]string
	for offset := 0; offset < end; offset += 0x10 {
		merged = append(merged, labels(l.GetMergedTableAtOffset(offset)))
		defs, _ := l.GetVariablesDefinedAtOffset(offset)
		defined = append(defined, defLabels(defs))
	}
	return merged, defined
}

func determinismTables(t *testing.T) *lvtable.Collection {
	t.Helper()
	return newCollection(t, map[int]*lvtable.Table{
		0x100: newTable(t, false, variable{"ptr", 0x10}, variable{"total", 0x12}),
		0x180: newTable(t, false, variable{"ptr", 0x20}),
		0x200: newTable(t, false, variable{"ptr", 0x14}, variable{"len", 0x16}),
		0x280: newTable(t, true, variable{"total", 0x18}),
		0x300: newTable(t, false, variable{"ptr", 0x1a}),
	})
}

func determinismNamespace(t *testing.T) *symbols.Table {
	t.Helper()
	ns := symbols.NewTable()
	assert.NoError(t, ns.Add(symbols.New("total", 0x9000, symbols.User, symbols.LocalOrGlobalAddr)))
	assert.NoError(t, ns.Add(symbols.New("ptr_2", 0x9010, symbols.Auto, symbols.LocalOrGlobalAddr)))
	return ns
}

func TestLookup_Determinism(t *testing.T) {
	l, _ := newLookup(t, determinismTables(t), determinismNamespace(t), newStartCheckerMock(0x180),
		Options{Uniquify: true})

	merged1, defined1 := queryAll(l, 0x400)
	l.Reset()
	merged2, defined2 := queryAll(l, 0x400)

	assert.Equal(t, merged1, merged2)
	assert.Equal(t, defined1, defined2)

	defs, ok := l.GetVariablesDefinedAtOffset(0x300)
	assert.True(t, ok)
	assert.Equal(t, []string{"ptr_3"}, defLabels(defs))
}

func TestLookup_MonotonicCursor(t *testing.T) {
	attribs := newStartCheckerMock(0x180)
	l, _ := newLookup(t, determinismTables(t), determinismNamespace(t), attribs, Options{Uniquify: true})

	for offset := range testFileLength {
		l.GetSymbol(offset, 0x10, symbols.ExternalAddr)
	}
	assert.Equal(t, 5, attribs.calls)

	// a backward query replays all tables once
	l.GetMergedTableAtOffset(0x0ff)
	l.GetMergedTableAtOffset(testFileLength - 1)
	assert.Equal(t, 10, attribs.calls)
}

func TestLookup_ResetCorrectness(t *testing.T) {
	for _, target := range []int{0x0ff, 0x100, 0x1c0, 0x280, 0x2ff} {
		rewound, _ := newLookup(t, determinismTables(t), determinismNamespace(t), newStartCheckerMock(0x180),
			Options{Uniquify: true})
		rewound.GetMergedTableAtOffset(0x350)
		got := lvtable.NewFrom(rewound.GetMergedTableAtOffset(target))

		fresh, _ := newLookup(t, determinismTables(t), determinismNamespace(t), newStartCheckerMock(0x180),
			Options{Uniquify: true})
		expected := fresh.GetMergedTableAtOffset(target)

		assert.True(t, expected.Equal(got))
	}
}

func TestLookup_DependencyChanges(t *testing.T) {
	tables := newCollection(t, map[int]*lvtable.Table{
		0x100: newTable(t, false, variable{"x", 5}),
	})
	ns := symbols.NewTable()
	l, _ := newLookup(t, tables, ns, newStartCheckerMock(), Options{})

	assert.Equal(t, []string{"x"}, labels(l.GetMergedTableAtOffset(0x200)))

	assert.NoError(t, tables.Set(0x180, newTable(t, false, variable{"y", 6})))
	assert.Equal(t, []string{"x", "y"}, labels(l.GetMergedTableAtOffset(0x200)))

	assert.NoError(t, ns.Add(symbols.New("x", 0x8000, symbols.User, symbols.LocalOrGlobalAddr)))
	assert.Equal(t, []string{"x_DUP1", "y"}, labels(l.GetMergedTableAtOffset(0x200)))
}
