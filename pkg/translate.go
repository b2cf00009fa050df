package translator

import (
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/exp/slices"
)

type iterationMode int

const (
	// modeStream pulls events sequentially, strided over the shard.
	modeStream iterationMode = iota
	// modeIndexed walks the run's timestamp index, strided over the shard.
	modeIndexed
	// modeTimeList fetches an explicit list of time+fiducial pairs.
	modeTimeList
)

// Translator turns native facility events into category-keyed sets of
// unit-tagged records. One Translator serves one run in one process;
// it is sequential and does no locking.
type Translator struct {
	cfg       Configuration
	source    DataSource
	run       Run
	reg       *registry
	epics     *EpicsDict
	sessionID uuid.UUID

	mode       iterationMode
	events     EventIterator
	timestamps []EventTime
	times      []uint64
	fiducials  []uint32
	i          int
	slice      eventSlice
	maxFrames  int

	endOfRun func()
	finished bool
}

// NewTranslator validates the configuration, opens the data source and
// selects the iteration strategy.
func NewTranslator(cfg Configuration) (*Translator, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	lib, err := lookupLibrary(cfg.Library)
	if err != nil {
		return nil, err
	}

	if cfg.FacilityConfig != "" {
		if _, err := os.Stat(cfg.FacilityConfig); err != nil {
			return nil, &ErrConfig{
				Field:  "facility_config",
				Reason: fmt.Sprintf("could not find %s", cfg.FacilityConfig),
			}
		}
		logger.Info().Str("module", "translate").
			Msgf("Found facility configuration file %s", cfg.FacilityConfig)
		if err := lib.SetConfigFile(cfg.FacilityConfig); err != nil {
			return nil, err
		}
	}
	if cfg.CalibDir != "" {
		logger.Info().Str("module", "translate").Msgf("Setting calib-dir to %s", cfg.CalibDir)
		if err := lib.SetOption("calib-dir", cfg.CalibDir); err != nil {
			return nil, err
		}
	}

	dsrc := cfg.DataSource
	if cfg.RunNumber > 0 {
		dsrc += fmt.Sprintf(":run=%d", cfg.RunNumber)
	}

	t := &Translator{
		cfg:       cfg,
		reg:       newRegistry(),
		sessionID: uuid.New(),
		maxFrames: cfg.MaxFrames,
		slice:     fullSlice(),
	}

	switch {
	case len(cfg.Times) > 0:
		t.mode = modeTimeList
		t.times = cfg.Times
		t.fiducials = cfg.Fiducials
		dsrc = ensureIndexed(dsrc)
		if t.source, err = lib.Open(dsrc); err != nil {
			return nil, err
		}
		if t.run, err = t.source.NextRun(); err != nil {
			return nil, err
		}
	case cfg.Indexing:
		t.mode = modeIndexed
		dsrc = ensureIndexed(dsrc)
		if t.source, err = lib.Open(dsrc); err != nil {
			return nil, err
		}
		if t.run, err = t.source.NextRun(); err != nil {
			return nil, err
		}
		t.i = cfg.IndexOffset / cfg.NumWorkers
		t.timestamps = t.run.Times()
		if t.maxFrames > 0 && len(t.timestamps) > t.maxFrames {
			t.timestamps = t.timestamps[:t.maxFrames]
		}
		t.slice = newEventSlice(cfg.WorkerRank, cfg.NumWorkers)
		t.timestamps = t.slice.filter(t.timestamps)
	default:
		t.mode = modeStream
		// Shared memory streams are already distributed by the library
		if !strings.HasPrefix(dsrc, "shmem=") {
			t.slice = newEventSlice(cfg.WorkerRank, cfg.NumWorkers)
		}
		if t.source, err = lib.Open(dsrc); err != nil {
			return nil, err
		}
		t.events = t.source.Events()
	}

	t.epics = NewEpicsDict(t.source.Env().EpicsStore())

	logger.Info().Str("module", "translate").
		Str("session", t.sessionID.String()).
		Msgf("Opened data source %s", dsrc)
	return t, nil
}

// ensureIndexed appends the index suffix expected by the library.
func ensureIndexed(dsrc string) string {
	if !strings.HasSuffix(dsrc, ":idx") {
		dsrc += ":idx"
	}
	return dsrc
}

// SetEndOfRunHook installs the callback fired once when the stream ends.
// The external coordinator uses it to learn that this worker is done.
func (t *Translator) SetEndOfRunHook(hook func()) {
	t.endOfRun = hook
}

// Event is one translated event handle.
type Event struct {
	native NativeEvent
	tr     *Translator
}

// Native exposes the underlying facility event.
func (e *Event) Native() NativeEvent {
	return e.native
}

// Keys lists the categories available for this event.
func (e *Event) Keys() []string {
	return e.tr.EventKeys(e.native)
}

// Translate returns the decoded records for a category.
func (e *Event) Translate(key string) (map[string]Record, error) {
	return e.tr.Translate(e.native, key)
}

// ID returns the floating-point event identifier.
func (e *Event) ID() (float64, error) {
	return e.tr.EventID(e.native)
}

// ID2 returns the packed 64-bit event identifier.
func (e *Event) ID2() (uint64, error) {
	return e.tr.EventID2(e.native)
}

// NextEvent grabs the next native event and returns the translated
// handle. Returns ErrEndOfRun when the stream is exhausted.
func (t *Translator) NextEvent() (*Event, error) {
	if t.finished {
		return nil, ErrEndOfRun
	}
	switch t.mode {
	case modeIndexed:
		return t.nextIndexed()
	case modeTimeList:
		return t.nextFromTimeList()
	default:
		return t.nextFromStream()
	}
}

func (t *Translator) nextIndexed() (*Event, error) {
	if t.i >= len(t.timestamps) {
		return nil, t.endRun()
	}
	evt, err := t.run.Event(t.timestamps[t.i])
	t.i++
	if err != nil {
		logger.Warn().Str("module", "translate").Msgf("index lookup failed: %v", err)
		return nil, t.endRun()
	}
	eventsTranslated.Inc()
	return &Event{native: evt, tr: t}, nil
}

func (t *Translator) nextFromTimeList() (*Event, error) {
	for t.i < len(t.times) {
		et := NewEventTime(t.times[t.i], t.fiducials[t.i])
		t.i++
		evt, err := t.run.Event(et)
		if err != nil {
			logger.Warn().Str("module", "translate").
				Msgf("Unable to find event listed in index file: %v", err)
			eventsSkipped.Inc()
			continue
		}
		eventsTranslated.Inc()
		return &Event{native: evt, tr: t}, nil
	}
	// Got to the end without a valid event, time to call it a day
	return nil, t.endRun()
}

func (t *Translator) nextFromStream() (*Event, error) {
	for !t.slice.owns(t.i) {
		if _, err := t.events.Next(); err != nil {
			return nil, t.endRun()
		}
		t.i++
		eventsSkipped.Inc()
	}
	if t.maxFrames > 0 && t.i >= t.maxFrames {
		return nil, t.endRun()
	}
	evt, err := t.events.Next()
	if err != nil {
		return nil, t.endRun()
	}
	t.i++
	eventsTranslated.Inc()
	return &Event{native: evt, tr: t}, nil
}

func (t *Translator) endRun() error {
	if !t.finished {
		t.finished = true
		runsFinished.Inc()
		logger.Warn().Str("module", "translate").
			Str("session", t.sessionID.String()).Msg("End of run")
		if t.endOfRun != nil {
			t.endOfRun()
		}
	}
	return ErrEndOfRun
}

// EventKeys returns the categories available for a native event, plus
// "parameters" (the EPICS store) and "analysis" (values added later on).
// Native types without a registry entry are silently omitted.
func (t *Translator) EventKeys(evt NativeEvent) []string {
	common := make(map[string]struct{})
	for _, k := range evt.Keys() {
		for _, c := range t.reg.categoriesFor(k.Type) {
			common[string(c)] = struct{}{}
		}
	}
	keys := make([]string, 0, len(common)+2)
	for c := range common {
		keys = append(keys, c)
	}
	keys = append(keys, string(CategoryParameters), string(CategoryAnalysis))
	slices.Sort(keys)
	return keys
}

// EventNativeKeys returns the raw native keys of the event.
func (t *Translator) EventNativeKeys(evt NativeEvent) []EventKey {
	return evt.Keys()
}

// Epics returns the lazy EPICS parameter view for this run.
func (t *Translator) Epics() *EpicsDict {
	return t.epics
}

// Translate returns the records matching a key. Core categories go
// through the dispatch table; "analysis" and "stream" yield nothing;
// "parameters" yields nothing here because the EPICS store is exposed
// through Epics to keep its decode lazy. Any other key is matched
// against the native keys of the event.
func (t *Translator) Translate(evt NativeEvent, key string) (map[string]Record, error) {
	switch {
	case t.reg.hasCategory(Category(key)):
		return t.TranslateCore(evt, Category(key))
	case key == string(CategoryParameters),
		key == string(CategoryAnalysis),
		key == "stream":
		return map[string]Record{}, nil
	}

	// Fall back to matching the key against the native event keys
	values := make(map[string]Record)
	found := false
	for _, eventKey := range evt.Keys() {
		if eventKey.Key != key {
			continue
		}
		obj, ok := evt.Get(eventKey)
		if !ok {
			continue
		}
		found = true
		name := fmt.Sprintf("%s[%s]", t.reg.detectorName(eventKey.Source), key)
		AddRecord(values, name, obj, UnitADU)
	}
	if !found {
		return nil, &ErrKeyNotInEvent{Key: key}
	}
	return values, nil
}

// TranslateCore decodes every native item whose type is registered for
// the category. A registered type with no dispatch entry is fatal.
func (t *Translator) TranslateCore(evt NativeEvent, category Category) (map[string]Record, error) {
	values := make(map[string]Record)
	nativeTypes := t.reg.nativeTypesFor(category)
	for _, k := range evt.Keys() {
		if !slices.Contains(nativeTypes, k.Type) {
			continue
		}
		obj, ok := evt.Get(k)
		if !ok {
			continue
		}
		dec, ok := decoders[k.Type]
		if !ok {
			decodeFailures.WithLabelValues(k.Type.String()).Inc()
			return nil, &ErrUnsupportedType{Type: k.Type}
		}
		if err := dec(t, values, k, obj); err != nil {
			decodeFailures.WithLabelValues(k.Type.String()).Inc()
			return nil, fmt.Errorf("error decoding %v from %q: %w", k.Type, k.Source, err)
		}
	}
	return values, nil
}

// EventID returns an identifier unique per shot and monotonically
// non-decreasing within a run: the event timestamp as float seconds.
func (t *Translator) EventID(evt NativeEvent) (float64, error) {
	rec, err := t.timestampRecord(evt)
	if err != nil {
		return 0, err
	}
	return rec.Timestamp, nil
}

// EventID2 returns the 64-bit packed facility time as an alternative ID.
func (t *Translator) EventID2(evt NativeEvent) (uint64, error) {
	rec, err := t.timestampRecord(evt)
	if err != nil {
		return 0, err
	}
	return rec.Timestamp2, nil
}

func (t *Translator) timestampRecord(evt NativeEvent) (Record, error) {
	values, err := t.TranslateCore(evt, CategoryEventID)
	if err != nil {
		return Record{}, err
	}
	rec, ok := values["Timestamp"]
	if !ok {
		return Record{}, &ErrKeyNotInEvent{Key: "Timestamp"}
	}
	return rec, nil
}
