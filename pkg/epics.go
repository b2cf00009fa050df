package translator

import (
	"golang.org/x/exp/slices"
)

// EpicsDict is a dict-like view over the EPICS parameter store.
//
// Decoding every parameter up front is too slow, so parameters are only
// decoded when first requested and then cached. The cache is never
// evicted: EPICS values are assumed constant for the lifetime of a run,
// which also bounds the cache.
type EpicsDict struct {
	store EpicsStore
	cache map[string]Record
	keys  []string
}

// NewEpicsDict wraps an EPICS store with an empty cache.
func NewEpicsDict(store EpicsStore) *EpicsDict {
	return &EpicsDict{
		store: store,
		cache: make(map[string]Record),
	}
}

// Keys returns all available EPICS names and aliases, sorted. The listing
// itself is cached; it does not decode any parameter.
func (e *EpicsDict) Keys() []string {
	if e.keys == nil {
		e.keys = append(e.store.PVNames(), e.store.Aliases()...)
		slices.Sort(e.keys)
	}
	return e.keys
}

// Len returns the number of available parameters.
func (e *EpicsDict) Len() int {
	return len(e.Keys())
}

// Get returns the record for key, decoding it on first access. Repeated
// gets return the cached record. An unknown key fails without touching
// the cache.
func (e *EpicsDict) Get(key string) (Record, error) {
	if rec, ok := e.cache[key]; ok {
		epicsCacheHits.Inc()
		return rec, nil
	}
	pv, ok := e.store.GetPV(key)
	if !ok {
		return Record{}, &ErrUnknownEpicsKey{Key: key}
	}
	epicsCacheMisses.Inc()
	rec := Record{Name: key, Data: pv.Value(0)}
	e.cache[key] = rec
	epicsCacheSize.Set(float64(len(e.cache)))
	return rec, nil
}
