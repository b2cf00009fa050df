package translator

import (
	"fmt"
	"sort"
)

// The facility DAQ library is consumed through these interfaces. The real
// library is linked in by a separate binding package that calls
// RegisterLibrary; the simulated one registers itself under "sim".

// Library is the entry point of a facility DAQ library binding.
type Library interface {
	// SetConfigFile points the library at an external configuration file.
	SetConfigFile(path string) error
	// SetOption sets a library option, e.g. "calib-dir".
	SetOption(name string, value string) error
	// Open opens a data source string, e.g. "exp=amo15:run=64:idx".
	Open(source string) (DataSource, error)
}

// DataSource is one opened data source: a live stream, a shared memory
// segment or a set of indexed files.
type DataSource interface {
	// NextRun advances to the next run. Returns io.EOF when there are
	// no runs left.
	NextRun() (Run, error)
	// Events returns the sequential event iterator of the source.
	Events() EventIterator
	// Env gives access to the run environment (EPICS store, config store).
	Env() Environment
}

// EventIterator walks events in acquisition order. Next returns io.EOF
// when the stream is exhausted.
type EventIterator interface {
	Next() (NativeEvent, error)
}

// Run supports random access to events through the prebuilt index.
type Run interface {
	// Times lists the timestamps of all indexed events in order.
	Times() []EventTime
	// Event fetches the event recorded at t. Returns an error when the
	// index has no entry for t.
	Event(t EventTime) (NativeEvent, error)
}

// EventTime addresses one event in the index.
type EventTime struct {
	Seconds     uint32
	Nanoseconds uint32
	Fiducial    uint32
}

// NewEventTime builds an EventTime from a packed 64-bit facility time
// (seconds<<32 | nanoseconds) and a fiducial count.
func NewEventTime(packed uint64, fiducial uint32) EventTime {
	return EventTime{
		Seconds:     uint32(packed >> 32),
		Nanoseconds: uint32(packed & 0xffffffff),
		Fiducial:    fiducial,
	}
}

// Packed returns the 64-bit facility representation of the time.
func (t EventTime) Packed() uint64 {
	return uint64(t.Seconds)<<32 | uint64(t.Nanoseconds)
}

// NativeEvent is one shot's worth of raw facility data, addressed by
// type+source+key triples.
type NativeEvent interface {
	Keys() []EventKey
	Get(key EventKey) (interface{}, bool)
}

// EventKey addresses one datum inside a native event.
type EventKey struct {
	Type   TypeID
	Source SourceID
	Key    string
}

// Environment exposes the slow-changing stores attached to a data source.
type Environment interface {
	EpicsStore() EpicsStore
	ConfigStore() ConfigStore
}

// EpicsStore is the facility control-system parameter store.
type EpicsStore interface {
	PVNames() []string
	Aliases() []string
	// GetPV returns the process variable registered under name or alias.
	GetPV(name string) (PV, bool)
}

// PV is one process variable. Decoding the value is what costs time, so
// callers go through the lazy dict instead of calling Value directly.
type PV interface {
	Value(index int) interface{}
	NumElements() int
}

// ConfigStore holds per-detector acquisition configuration.
type ConfigStore interface {
	AcqirisConfig(src SourceID) (AcqirisConfig, bool)
}

var libraries = make(map[string]Library)

// RegisterLibrary makes a facility library binding available under the
// given name. Follows the database/sql driver registration convention.
func RegisterLibrary(name string, lib Library) {
	if lib == nil {
		panic("translator: RegisterLibrary with nil library")
	}
	if _, dup := libraries[name]; dup {
		panic("translator: RegisterLibrary called twice for " + name)
	}
	libraries[name] = lib
}

// Libraries lists the registered library names.
func Libraries() []string {
	names := make([]string, 0, len(libraries))
	for name := range libraries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func lookupLibrary(name string) (Library, error) {
	lib, ok := libraries[name]
	if !ok {
		return nil, &ErrConfig{
			Field:  "library",
			Reason: fmt.Sprintf("unknown facility library %q (registered: %v)", name, Libraries()),
		}
	}
	return lib, nil
}
