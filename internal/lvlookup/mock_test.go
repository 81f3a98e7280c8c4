package lvlookup

import "github.com/retroenv/retroscope/internal/symbols"

type startCheckerMock struct {
	hidden map[int]struct{}
	calls  int
}

func newStartCheckerMock(hidden ...int) *startCheckerMock {
	m := &startCheckerMock{
		hidden: make(map[int]struct{}, len(hidden)),
	}
	for _, offset := range hidden {
		m.hidden[offset] = struct{}{}
	}
	return m
}

func (m *startCheckerMock) IsStart(offset int) bool {
	m.calls++
	_, hidden := m.hidden[offset]
	return !hidden
}

type namespaceMock struct {
	labels map[string]*symbols.Symbol
}

func (m *namespaceMock) TryGetValue(label string) (*symbols.Symbol, bool) {
	sym, ok := m.labels[label]
	return sym, ok
}

func (m *namespaceMock) TryGetNonVariableValue(label string) (*symbols.Symbol, bool) {
	sym, ok := m.labels[label]
	if !ok || sym.IsVariable() {
		return nil, false
	}
	return sym, true
}
