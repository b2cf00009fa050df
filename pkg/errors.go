package translator

import (
	"errors"
	"fmt"
)

// ErrEndOfRun signals normal end of stream: index exhausted, iterator
// exhausted or the configured frame cap reached. Not a failure.
var ErrEndOfRun = errors.New("end of run")

// ErrConfig represents an invalid or incomplete configuration.
type ErrConfig struct {
	Field  string
	Reason string
}

func (e *ErrConfig) Error() string {
	return fmt.Sprintf("invalid configuration %q: %s", e.Field, e.Reason)
}

// ErrUnknownEpicsKey represents a lookup of an EPICS name the store does
// not know about.
type ErrUnknownEpicsKey struct {
	Key string
}

func (e *ErrUnknownEpicsKey) Error() string {
	return fmt.Sprintf("%q is not a valid EPICS key", e.Key)
}

// ErrUnsupportedType represents a registered native type with no decode
// routine. Silent mis-decoding of detector data is unacceptable, so this
// is fatal for the event.
type ErrUnsupportedType struct {
	Type TypeID
}

func (e *ErrUnsupportedType) Error() string {
	return fmt.Sprintf("native type %v not yet supported", e.Type)
}

// ErrEventNotFound represents an indexed lookup that did not resolve.
type ErrEventNotFound struct {
	Time EventTime
}

func (e *ErrEventNotFound) Error() string {
	return fmt.Sprintf("no event at time %d fiducial %d", e.Time.Packed(), e.Time.Fiducial)
}

// ErrKeyNotInEvent represents a native key lookup that matched nothing
// in the event.
type ErrKeyNotInEvent struct {
	Key string
}

func (e *ErrKeyNotInEvent) Error() string {
	return fmt.Sprintf("%q not found in event", e.Key)
}
