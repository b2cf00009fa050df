package translator

import (
	"fmt"
	"io"
	"math/rand"
	"strconv"
	"strings"
)

// Simulated facility library, registered under the "sim" scheme. It
// produces synthetic events with an advancing 120 Hz clock so the
// translator can run and be tested without the proprietary library.

func init() {
	RegisterLibrary("sim", &simLibrary{options: make(map[string]string)})
}

type simLibrary struct {
	configFile string
	options    map[string]string
}

func (l *simLibrary) SetConfigFile(path string) error {
	l.configFile = path
	return nil
}

func (l *simLibrary) SetOption(name string, value string) error {
	l.options[name] = value
	return nil
}

// Open accepts facility-style source strings and understands the
// options "run=N", "nevents=N" and "seed=N"; other tokens, including
// the experiment name and ":idx", are accepted and ignored.
func (l *simLibrary) Open(source string) (DataSource, error) {
	run := 1
	nevents := 100
	seed := int64(1)
	for _, token := range strings.Split(source, ":") {
		name, value, found := strings.Cut(token, "=")
		if !found {
			continue
		}
		var err error
		switch name {
		case "run":
			run, err = strconv.Atoi(value)
		case "nevents":
			nevents, err = strconv.Atoi(value)
		case "seed":
			seed, err = strconv.ParseInt(value, 10, 64)
		}
		if err != nil {
			return nil, fmt.Errorf("invalid source option %q: %w", token, err)
		}
	}
	return newSimDataSource(run, nevents, seed), nil
}

const (
	simBaseSeconds = 1450000000
	// 120 Hz shot clock
	simNanosPerShot = 8333333
	simShotsPerSec  = 120
)

type simDataSource struct {
	events  []NativeEvent
	times   []EventTime
	byTime  map[EventTime]NativeEvent
	env     *simEnvironment
	pos     int
	gaveRun bool
}

func newSimDataSource(run int, nevents int, seed int64) *simDataSource {
	rng := rand.New(rand.NewSource(seed))
	s := &simDataSource{
		byTime: make(map[EventTime]NativeEvent, nevents),
		env:    newSimEnvironment(),
	}
	for i := 0; i < nevents; i++ {
		evt, t := buildSimEvent(run, i, rng)
		s.events = append(s.events, evt)
		s.times = append(s.times, t)
		s.byTime[t] = evt
	}
	return s
}

func (s *simDataSource) NextRun() (Run, error) {
	if s.gaveRun {
		return nil, io.EOF
	}
	s.gaveRun = true
	return &simRun{source: s}, nil
}

func (s *simDataSource) Events() EventIterator {
	return s
}

func (s *simDataSource) Next() (NativeEvent, error) {
	if s.pos >= len(s.events) {
		return nil, io.EOF
	}
	evt := s.events[s.pos]
	s.pos++
	return evt, nil
}

func (s *simDataSource) Env() Environment {
	return s.env
}

type simRun struct {
	source *simDataSource
}

func (r *simRun) Times() []EventTime {
	return r.source.times
}

func (r *simRun) Event(t EventTime) (NativeEvent, error) {
	evt, ok := r.source.byTime[t]
	if !ok {
		return nil, &ErrEventNotFound{Time: t}
	}
	return evt, nil
}

type simEvent struct {
	keys []EventKey
	data map[EventKey]interface{}
}

func (e *simEvent) Keys() []EventKey {
	return e.keys
}

func (e *simEvent) Get(key EventKey) (interface{}, bool) {
	obj, ok := e.data[key]
	return obj, ok
}

func (e *simEvent) add(key EventKey, obj interface{}) {
	e.keys = append(e.keys, key)
	e.data[key] = obj
}

func buildSimEvent(run int, i int, rng *rand.Rand) (*simEvent, EventTime) {
	evt := &simEvent{data: make(map[EventKey]interface{})}

	seconds := uint32(simBaseSeconds + run*1000 + i/simShotsPerSec)
	nanos := uint32(i%simShotsPerSec) * simNanosPerShot
	fiducial := uint32(i*3) % 0x1ffe0
	t := EventTime{Seconds: seconds, Nanoseconds: nanos, Fiducial: fiducial}

	evt.add(EventKey{Type: TypeEventID, Source: "ProcInfo(sim.0)"}, &EventIDData{
		Seconds:     seconds,
		Nanoseconds: nanos,
		Fiducials:   fiducial,
		RunNumber:   int32(run),
		Ticks:       uint32(i),
		Vector:      uint32(i % 360),
	})

	evt.add(EventKey{Type: TypeFEEGasDetEnergy, Source: "BldInfo(FEEGasDetEnergy)"}, &FEEGasDetEnergy{
		F11: 1.2 + 0.2*rng.Float64(),
		F12: 1.2 + 0.2*rng.Float64(),
		F21: 1.1 + 0.2*rng.Float64(),
		F22: 1.1 + 0.2*rng.Float64(),
	})

	// Alternate between a readout that carries the photon energy and an
	// older one that only reports the beam parameters
	if i%2 == 0 {
		evt.add(EventKey{Type: TypeEBeamV3, Source: "BldInfo(EBeam)"}, &EBeam{
			PkCurrBC2: 800 + 100*rng.Float64(),
			L3Energy:  13500 + 200*rng.Float64(),
		})
	} else {
		evt.add(EventKey{Type: TypeEBeamV7, Source: "BldInfo(EBeam)"}, &EBeam{
			PhotonEnergy: 8200 + 100*rng.Float64(),
			PkCurrBC2:    800 + 100*rng.Float64(),
			L3Energy:     13500 + 200*rng.Float64(),
		})
	}

	pixels := make([]int16, 32)
	for j := range pixels {
		pixels[j] = int16(rng.Intn(4096))
	}
	evt.add(EventKey{Type: TypeCsPad2x2, Source: "DetInfo(CxiDg2.0:Cspad2x2.0)"}, &CsPad2x2{Data: pixels})

	channels := make([]AcqirisChannel, 2)
	for c := range channels {
		waveform := make([]int16, 16)
		for j := range waveform {
			waveform[j] = int16(rng.Intn(256) - 128)
		}
		channels[c] = AcqirisChannel{
			Timestamp: float64(seconds) + float64(nanos)*1e-9,
			Waveform:  waveform,
		}
	}
	evt.add(EventKey{Type: TypeAcqiris, Source: "DetInfo(AmoETOF.0:Acqiris.0)"}, &AcqirisData{Channels: channels})

	evt.add(EventKey{Type: TypeEvrDataV3, Source: "DetInfo(NoDetector.0:Evr.0)"}, &EvrData{
		FifoEvents: []EvrFifoEvent{
			{EventCode: 140, TimestampHigh: seconds, TimestampLow: nanos},
			{EventCode: 40 + i%3, TimestampHigh: seconds, TimestampLow: nanos},
		},
	})

	return evt, t
}

type simEnvironment struct {
	epics  *simEpicsStore
	config *simConfigStore
}

func newSimEnvironment() *simEnvironment {
	return &simEnvironment{
		epics: &simEpicsStore{
			pvs: map[string]interface{}{
				"AMO:DIA:SHC:11:R":     0.341,
				"GDET:FEE1:241:ENRC":   1.52,
				"SIOC:SYS0:ML00:AO627": 8312.4,
				"CXI:DS1:MMS:06.RBV":   -412.25,
			},
			aliases: map[string]string{
				"photon_energy_setpoint": "SIOC:SYS0:ML00:AO627",
				"detector_z":             "CXI:DS1:MMS:06.RBV",
			},
		},
		config: &simConfigStore{
			acqiris: map[SourceID]AcqirisConfig{
				"DetInfo(AmoETOF.0:Acqiris.0)": {
					SampInterval: 0.5e-9,
					Vert: []AcqirisVertConfig{
						{Slope: 0.0005, Offset: 0.1},
						{Slope: 0.0005, Offset: 0.1},
					},
				},
			},
		},
	}
}

func (e *simEnvironment) EpicsStore() EpicsStore {
	return e.epics
}

func (e *simEnvironment) ConfigStore() ConfigStore {
	return e.config
}

type simEpicsStore struct {
	pvs     map[string]interface{}
	aliases map[string]string
}

func (s *simEpicsStore) PVNames() []string {
	names := make([]string, 0, len(s.pvs))
	for name := range s.pvs {
		names = append(names, name)
	}
	return names
}

func (s *simEpicsStore) Aliases() []string {
	aliases := make([]string, 0, len(s.aliases))
	for alias := range s.aliases {
		aliases = append(aliases, alias)
	}
	return aliases
}

func (s *simEpicsStore) GetPV(name string) (PV, bool) {
	if target, ok := s.aliases[name]; ok {
		name = target
	}
	value, ok := s.pvs[name]
	if !ok {
		return nil, false
	}
	return &simPV{value: value}, true
}

type simPV struct {
	value interface{}
}

func (p *simPV) Value(index int) interface{} {
	if index != 0 {
		return nil
	}
	return p.value
}

func (p *simPV) NumElements() int {
	return 1
}

type simConfigStore struct {
	acqiris map[SourceID]AcqirisConfig
}

func (s *simConfigStore) AcqirisConfig(src SourceID) (AcqirisConfig, bool) {
	config, ok := s.acqiris[src]
	return config, ok
}
