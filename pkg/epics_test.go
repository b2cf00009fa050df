package translator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEpicsDecodeIsLazy(t *testing.T) {
	value := new(float64)
	*value = 8312.4
	store := &fakeEpicsStore{pvs: map[string]interface{}{
		"SIOC:SYS0:ML00:AO627": value,
		"AMO:DIA:SHC:11:R":     0.341,
	}}
	dict := NewEpicsDict(store)

	// Listing keys must not decode anything
	assert.Len(t, dict.Keys(), 2)
	assert.Equal(t, 2, dict.Len())
	assert.Zero(t, store.valueCalls)

	rec, err := dict.Get("SIOC:SYS0:ML00:AO627")
	require.NoError(t, err)
	assert.Equal(t, 1, store.valueCalls)
	require.IsType(t, (*float64)(nil), rec.Data)

	// Repeated gets return the cached record without touching the store
	again, err := dict.Get("SIOC:SYS0:ML00:AO627")
	require.NoError(t, err)
	assert.Equal(t, 1, store.valueCalls)
	assert.Same(t, rec.Data.(*float64), again.Data.(*float64))
}

func TestEpicsAliasResolves(t *testing.T) {
	store := &fakeEpicsStore{
		pvs:     map[string]interface{}{"SIOC:SYS0:ML00:AO627": 8312.4},
		aliases: map[string]string{"photon_energy_setpoint": "SIOC:SYS0:ML00:AO627"},
	}
	dict := NewEpicsDict(store)

	assert.Len(t, dict.Keys(), 2)
	rec, err := dict.Get("photon_energy_setpoint")
	require.NoError(t, err)
	assert.Equal(t, 8312.4, rec.Data)
}

func TestEpicsUnknownKeyDoesNotMutateCache(t *testing.T) {
	store := &fakeEpicsStore{pvs: map[string]interface{}{"AMO:DIA:SHC:11:R": 0.341}}
	dict := NewEpicsDict(store)

	_, err := dict.Get("NOT:A:PV")
	var unknown *ErrUnknownEpicsKey
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "NOT:A:PV", unknown.Key)
	assert.Empty(t, dict.cache)

	// A failed lookup must not poison later ones
	_, err = dict.Get("AMO:DIA:SHC:11:R")
	require.NoError(t, err)
	assert.Len(t, dict.cache, 1)
}
