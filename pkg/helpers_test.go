package translator

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeEpicsStore counts store accesses so tests can assert that decoding
// only happens on demand.
type fakeEpicsStore struct {
	pvs        map[string]interface{}
	aliases    map[string]string
	getPVCalls int
	valueCalls int
}

func (s *fakeEpicsStore) PVNames() []string {
	names := make([]string, 0, len(s.pvs))
	for name := range s.pvs {
		names = append(names, name)
	}
	return names
}

func (s *fakeEpicsStore) Aliases() []string {
	aliases := make([]string, 0, len(s.aliases))
	for alias := range s.aliases {
		aliases = append(aliases, alias)
	}
	return aliases
}

func (s *fakeEpicsStore) GetPV(name string) (PV, bool) {
	s.getPVCalls++
	if target, ok := s.aliases[name]; ok {
		name = target
	}
	value, ok := s.pvs[name]
	if !ok {
		return nil, false
	}
	return &fakePV{store: s, value: value}, true
}

type fakePV struct {
	store *fakeEpicsStore
	value interface{}
}

func (p *fakePV) Value(index int) interface{} {
	p.store.valueCalls++
	if index != 0 {
		return nil
	}
	return p.value
}

func (p *fakePV) NumElements() int { return 1 }

// newFakeEvent builds a native event holding the given payloads.
func newFakeEvent(items map[EventKey]interface{}) *simEvent {
	evt := &simEvent{data: make(map[EventKey]interface{})}
	for key, obj := range items {
		evt.add(key, obj)
	}
	return evt
}

// newSimTranslator opens a translator over the simulated library.
func newSimTranslator(t *testing.T, mutate func(*Configuration)) *Translator {
	t.Helper()
	cfg := Configuration{
		Library:    "sim",
		DataSource: "sim=daq:nevents=20",
		NumWorkers: 1,
	}
	if mutate != nil {
		mutate(&cfg)
	}
	tr, err := NewTranslator(cfg)
	require.NoError(t, err)
	return tr
}
