package translator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTranslatorRejectsBadConfiguration(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Configuration)
	}{
		{"missing data source", func(c *Configuration) { c.DataSource = "" }},
		{"times without fiducials", func(c *Configuration) { c.Times = []uint64{1} }},
		{"mismatched lists", func(c *Configuration) {
			c.DataSource = "exp=sim01"
			c.Times = []uint64{1, 2}
			c.Fiducials = []uint32{1}
		}},
		{"time list on a stream source", func(c *Configuration) {
			c.DataSource = "shmem=psana.0"
			c.Times = []uint64{1}
			c.Fiducials = []uint32{1}
		}},
		{"indexing on a stream source", func(c *Configuration) {
			c.DataSource = "shmem=psana.0"
			c.Indexing = true
		}},
		{"indexing with time list", func(c *Configuration) {
			c.DataSource = "exp=sim01"
			c.Times = []uint64{1}
			c.Fiducials = []uint32{1}
			c.Indexing = true
		}},
		{"rank outside worker count", func(c *Configuration) { c.WorkerRank = 3 }},
		{"unknown library", func(c *Configuration) { c.Library = "psana" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Configuration{
				Library:    "sim",
				DataSource: "sim=daq:nevents=5",
				NumWorkers: 1,
			}
			tc.mutate(&cfg)
			_, err := NewTranslator(cfg)
			var cfgErr *ErrConfig
			require.True(t, errors.As(err, &cfgErr), "got %v", err)
		})
	}
}

func TestEventKeysListsCategoriesPlusParameters(t *testing.T) {
	tr := newSimTranslator(t, nil)
	evt, err := tr.NextEvent()
	require.NoError(t, err)

	keys := evt.Keys()
	assert.Contains(t, keys, "pulseEnergies")
	assert.Contains(t, keys, "photonEnergies")
	assert.Contains(t, keys, "photonPixelDetectors")
	assert.Contains(t, keys, "ionTOFs")
	assert.Contains(t, keys, "eventID")
	assert.Contains(t, keys, "eventCodes")
	assert.Contains(t, keys, "parameters")
	assert.Contains(t, keys, "analysis")
}

func TestEventKeysOmitsUnregisteredTypes(t *testing.T) {
	tr := newSimTranslator(t, nil)
	evt := newFakeEvent(nil)
	evt.add(EventKey{Type: TypeID(4242), Source: "DetInfo(Mystery.0:Box.0)"}, "opaque")
	evt.add(EventKey{Type: TypeEventID, Source: "ProcInfo(sim.0)"}, &EventIDData{Seconds: 1})

	keys := tr.EventKeys(evt)
	assert.Equal(t, []string{"analysis", "eventID", "parameters"}, keys)
}

func TestTranslateUnsupportedRegisteredTypeIsFatal(t *testing.T) {
	tr := newSimTranslator(t, nil)
	// Register a type that has no decode routine
	phantom := TypeID(999)
	tr.reg.n2c[phantom] = CategoryCamera
	tr.reg.c2n[CategoryCamera] = append(tr.reg.c2n[CategoryCamera], phantom)

	evt := newFakeEvent(map[EventKey]interface{}{
		{Type: phantom, Source: "DetInfo(Mystery.0:Box.0)"}: "opaque",
	})

	_, err := tr.TranslateCore(evt, CategoryCamera)
	var unsupported *ErrUnsupportedType
	require.True(t, errors.As(err, &unsupported))
	assert.Equal(t, phantom, unsupported.Type)
}

func TestTranslateFallsBackToNativeKeys(t *testing.T) {
	tr := newSimTranslator(t, nil)
	evt := newFakeEvent(map[EventKey]interface{}{
		{Type: TypeID(4242), Source: "DetInfo(CxiDs1.0:Cspad.0)", Key: "calibrated"}: []int16{1, 2, 3},
	})

	values, err := tr.Translate(evt, "calibrated")
	require.NoError(t, err)
	rec, ok := values["CsPad Ds1[calibrated]"]
	require.True(t, ok)
	assert.Equal(t, []int16{1, 2, 3}, rec.Data)
	assert.Equal(t, UnitADU, rec.Unit)

	_, err = tr.Translate(evt, "unlisted")
	var notFound *ErrKeyNotInEvent
	require.True(t, errors.As(err, &notFound))
}

func TestTranslateReservedKeysYieldNothing(t *testing.T) {
	tr := newSimTranslator(t, nil)
	evt := newFakeEvent(nil)

	for _, key := range []string{"parameters", "analysis", "stream"} {
		values, err := tr.Translate(evt, key)
		require.NoError(t, err)
		assert.Empty(t, values)
	}
}

func TestEventIdentifiersShareTimestampPair(t *testing.T) {
	tr := newSimTranslator(t, nil)

	var lastID float64
	var lastID2 uint64
	count := 0
	for {
		evt, err := tr.NextEvent()
		if errors.Is(err, ErrEndOfRun) {
			break
		}
		require.NoError(t, err)

		id, err := evt.ID()
		require.NoError(t, err)
		id2, err := evt.ID2()
		require.NoError(t, err)

		// Both identifiers come from the same seconds/nanoseconds pair
		seconds := id2 >> 32
		nanos := id2 & 0xffffffff
		assert.Equal(t, float64(seconds)+float64(nanos)*1e-9, id)

		// Monotonically non-decreasing in a single-process run
		assert.GreaterOrEqual(t, id, lastID)
		assert.GreaterOrEqual(t, id2, lastID2)
		lastID, lastID2 = id, id2
		count++
	}
	assert.Equal(t, 20, count)
}

func TestFrameCapEndsRun(t *testing.T) {
	tr := newSimTranslator(t, func(c *Configuration) { c.MaxFrames = 4 })

	count := 0
	for {
		_, err := tr.NextEvent()
		if errors.Is(err, ErrEndOfRun) {
			break
		}
		require.NoError(t, err)
		count++
	}
	assert.Equal(t, 4, count)
}

func TestEndOfRunHookFiresOnce(t *testing.T) {
	tr := newSimTranslator(t, func(c *Configuration) { c.MaxFrames = 1 })
	fired := 0
	tr.SetEndOfRunHook(func() { fired++ })

	_, err := tr.NextEvent()
	require.NoError(t, err)
	_, err = tr.NextEvent()
	require.ErrorIs(t, err, ErrEndOfRun)
	_, err = tr.NextEvent()
	require.ErrorIs(t, err, ErrEndOfRun)
	assert.Equal(t, 1, fired)
}

func TestTimeListSkipsUnresolvableEntries(t *testing.T) {
	lib, err := lookupLibrary("sim")
	require.NoError(t, err)
	source, err := lib.Open("exp=sim01:nevents=5:idx")
	require.NoError(t, err)
	run, err := source.NextRun()
	require.NoError(t, err)
	times := run.Times()
	require.Len(t, times, 5)

	cfg := Configuration{
		Library:    "sim",
		DataSource: "exp=sim01:nevents=5",
		NumWorkers: 1,
		Times: []uint64{
			times[0].Packed(),
			0xdeadbeef00000000, // not in the index
			times[3].Packed(),
		},
		Fiducials: []uint32{times[0].Fiducial, 1, times[3].Fiducial},
	}
	tr, err := NewTranslator(cfg)
	require.NoError(t, err)

	first, err := tr.NextEvent()
	require.NoError(t, err)
	id2, err := first.ID2()
	require.NoError(t, err)
	assert.Equal(t, times[0].Packed(), id2)

	// The bogus entry is logged and skipped, not fatal
	second, err := tr.NextEvent()
	require.NoError(t, err)
	id2, err = second.ID2()
	require.NoError(t, err)
	assert.Equal(t, times[3].Packed(), id2)

	_, err = tr.NextEvent()
	require.ErrorIs(t, err, ErrEndOfRun)
}

func TestIndexedModeWalksRunIndex(t *testing.T) {
	tr := newSimTranslator(t, func(c *Configuration) {
		c.DataSource = "exp=sim01:nevents=6"
		c.Indexing = true
	})

	ids := collectID2s(t, tr)
	assert.Len(t, ids, 6)
}

func TestEpicsViewSharedAcrossEvents(t *testing.T) {
	tr := newSimTranslator(t, nil)
	dict := tr.Epics()
	require.NotNil(t, dict)

	rec, err := dict.Get("photon_energy_setpoint")
	require.NoError(t, err)
	assert.Equal(t, 8312.4, rec.Data)

	_, err = dict.Get("NOT:A:PV")
	var unknown *ErrUnknownEpicsKey
	require.True(t, errors.As(err, &unknown))
}

func collectID2s(t *testing.T, tr *Translator) []uint64 {
	t.Helper()
	var ids []uint64
	for {
		evt, err := tr.NextEvent()
		if errors.Is(err, ErrEndOfRun) {
			return ids
		}
		require.NoError(t, err)
		id2, err := evt.ID2()
		require.NoError(t, err)
		ids = append(ids, id2)
	}
}
