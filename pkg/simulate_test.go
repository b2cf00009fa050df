package translator

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimLibraryRegistered(t *testing.T) {
	assert.Contains(t, Libraries(), "sim")

	_, err := lookupLibrary("nope")
	require.Error(t, err)
}

func TestSimOpenParsesOptions(t *testing.T) {
	lib, err := lookupLibrary("sim")
	require.NoError(t, err)

	source, err := lib.Open("exp=sim01:run=7:nevents=3:idx")
	require.NoError(t, err)
	run, err := source.NextRun()
	require.NoError(t, err)
	assert.Len(t, run.Times(), 3)

	_, err = source.NextRun()
	assert.ErrorIs(t, err, io.EOF)

	_, err = lib.Open("sim=daq:nevents=abc")
	require.Error(t, err)
}

func TestSimSourceIsDeterministic(t *testing.T) {
	lib, err := lookupLibrary("sim")
	require.NoError(t, err)

	a, err := lib.Open("sim=daq:nevents=4:seed=9")
	require.NoError(t, err)
	b, err := lib.Open("sim=daq:nevents=4:seed=9")
	require.NoError(t, err)

	for {
		evtA, errA := a.Events().Next()
		evtB, errB := b.Events().Next()
		require.Equal(t, errA, errB)
		if errA != nil {
			break
		}
		assert.Equal(t, evtA.Keys(), evtB.Keys())
	}
}

func TestEventTimePacking(t *testing.T) {
	et := EventTime{Seconds: 1450001000, Nanoseconds: 250000000, Fiducial: 99}
	packed := et.Packed()
	back := NewEventTime(packed, et.Fiducial)
	assert.Equal(t, et, back)
}
