package translator

import (
	"fmt"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Photon energy derivation constants for the undulator line.
const (
	LTU_WAKE_LOSS_PER_AMP float64 = 0.0016293
	SR_LOSS_PER_GEV       float64 = 0.63
	WAKE_LOSS_PER_AMP     float64 = 0.0003
	RESONANCE_COEFF       float64 = 44.42
)

// photonEnergySource is the two-variant photon energy resolution: either
// a direct reading from the beam line data or the inputs to derive one.
type photonEnergySource struct {
	direct bool
	// direct reading [eV]
	photonEnergyEV float64
	// derivation inputs
	peakCurrent float64 // [A]
	l3EnergyGeV float64 // [GeV]
}

// resolve returns the photon energy in eV. The derived branch computes
// the resonant photon energy of the first active undulator segment from
// the beam energy after subtracting wake and spontaneous radiation losses.
func (p photonEnergySource) resolve() float64 {
	if p.direct {
		return p.photonEnergyEV
	}
	ltuWakeLoss := LTU_WAKE_LOSS_PER_AMP * p.peakCurrent
	// Spontaneous radiation loss per segment
	srLossPerSegment := SR_LOSS_PER_GEV * p.l3EnergyGeV
	// Wakeloss in an undulator segment
	wakeLossPerSegment := WAKE_LOSS_PER_AMP * p.peakCurrent
	energyLossPerSegment := srLossPerSegment + wakeLossPerSegment
	// Energy in first active undulator segment [GeV]
	energyProfile := p.l3EnergyGeV - 0.001*ltuWakeLoss - 0.0005*energyLossPerSegment
	return RESONANCE_COEFF * energyProfile * energyProfile
}

// decodeFunc decodes one native datum into the per-category result set.
// Decoders must be pure apart from the values map they fill in.
type decodeFunc func(t *Translator, values map[string]Record, key EventKey, obj interface{}) error

// decoders is the dispatch table keyed by native type. Adding a detector
// type is a table insertion here plus a registry entry.
var decoders = map[TypeID]decodeFunc{
	TypeFEEGasDetEnergy:   trFEEGasDetEnergy,
	TypeFEEGasDetEnergyV1: trFEEGasDetEnergy,
	TypeIPMFex:            trIPMFex,
	TypeEBeamV1:           trEBeam,
	TypeEBeamV2:           trEBeam,
	TypeEBeamV3:           trEBeam,
	TypeEBeamV4:           trEBeam,
	TypeEBeamV5:           trEBeam,
	TypeEBeamV6:           trEBeam,
	TypeEBeamV7:           trEBeam,
	TypeCsPad:             trCsPad,
	TypeCsPad2x2:          trCsPad2x2,
	TypePnCCDFullFrame:    trPnCCDFullFrame,
	TypePnCCDFrames:       trPnCCDFrames,
	TypeCameraFrame:       trCamera,
	TypeAcqiris:           trAcqiris,
	TypeEventID:           trEventID,
	TypeEvrDataV3:         trEvrCodes,
	TypeEvrDataV4:         trEvrCodes,
}

func trFEEGasDetEnergy(t *Translator, values map[string]Record, key EventKey, obj interface{}) error {
	fee, ok := obj.(*FEEGasDetEnergy)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %v", obj, key.Type)
	}
	AddRecord(values, "f_11_ENRC", fee.F11, UnitMJ)
	AddRecord(values, "f_12_ENRC", fee.F12, UnitMJ)
	AddRecord(values, "f_21_ENRC", fee.F21, UnitMJ)
	AddRecord(values, "f_22_ENRC", fee.F22, UnitMJ)
	return nil
}

func trIPMFex(t *Translator, values map[string]Record, key EventKey, obj interface{}) error {
	ipm, ok := obj.(*IPMFex)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %v", obj, key.Type)
	}
	AddRecord(values, "IpmFex - "+string(key.Source), ipm.Sum, UnitADU)
	return nil
}

func trEBeam(t *Translator, values map[string]Record, key EventKey, obj interface{}) error {
	ebeam, ok := obj.(*EBeam)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %v", obj, key.Type)
	}
	src := photonEnergySource{
		peakCurrent: ebeam.PkCurrBC2,
		l3EnergyGeV: 0.001 * ebeam.L3Energy,
	}
	// The V6 readout introduced a measured photon energy field and every
	// later version keeps it, so V6 and up take the direct reading instead
	// of the undulator estimate
	if key.Type >= TypeEBeamV6 {
		src.direct = true
		src.photonEnergyEV = ebeam.PhotonEnergy
	}
	AddRecord(values, "photonEnergy", src.resolve(), UnitEV)
	return nil
}

func trCsPad(t *Translator, values map[string]Record, key EventKey, obj interface{}) error {
	cspad, ok := obj.(*CsPad)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %v", obj, key.Type)
	}
	name := t.reg.detectorName(key.Source)
	for i, quad := range cspad.Quads {
		AddRecord(values, fmt.Sprintf("%sQuad%d", name, i), quad, UnitADU)
	}
	return nil
}

func trCsPad2x2(t *Translator, values map[string]Record, key EventKey, obj interface{}) error {
	elem, ok := obj.(*CsPad2x2)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %v", obj, key.Type)
	}
	// Prefer the calibrated frame, fall back to the raw counts
	if elem.Calib != nil {
		AddRecord(values, "CsPad2x2S", elem.Calib, UnitADU)
	} else {
		AddRecord(values, "CsPad2x2", elem.Data, UnitADU)
	}
	return nil
}

func trPnCCDFullFrame(t *Translator, values map[string]Record, key EventKey, obj interface{}) error {
	frame, ok := obj.(*PnCCDFullFrame)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %v", obj, key.Type)
	}
	name := t.reg.detectorName(key.Source)
	AddRecord(values, name+"fullFrame", frame.Data, UnitADU)
	return nil
}

func trPnCCDFrames(t *Translator, values map[string]Record, key EventKey, obj interface{}) error {
	frames, ok := obj.(*PnCCDFrames)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %v", obj, key.Type)
	}
	name := t.reg.detectorName(key.Source)
	for i, frame := range frames.Frames {
		AddRecord(values, fmt.Sprintf("%sFrame%d", name, i), frame, UnitADU)
	}
	return nil
}

func trCamera(t *Translator, values map[string]Record, key EventKey, obj interface{}) error {
	frame, ok := obj.(*CameraFrame)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %v", obj, key.Type)
	}
	// Shape tells the cameras apart: the MCP readout replaced the pnCCD,
	// the larger sensor is the on-axis camera.
	switch {
	case frame.Width == 1024 && frame.Height == 1024:
		AddRecord(values, "mcp", frame.Data, UnitADU)
	case frame.Width == 2336 && frame.Height == 1752:
		AddRecord(values, "onAxis", frame.Data, UnitADU)
	}
	return nil
}

func trAcqiris(t *Translator, values map[string]Record, key EventKey, obj interface{}) error {
	desc, ok := obj.(*AcqirisData)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %v", obj, key.Type)
	}
	acqConfig, ok := t.source.Env().ConfigStore().AcqirisConfig(key.Source)
	if !ok {
		return fmt.Errorf("no digitizer configuration for source %q", key.Source)
	}
	name := t.reg.detectorName(key.Source)
	for i, channel := range desc.Channels {
		if len(channel.Waveform) == 0 {
			logger.Warn().Str("module", "decode").
				Msgf("TOF data for detector %q channel %d is missing", key.Source, i)
		}
		vert := acqConfig.Vert[i]
		data := make([]float64, len(channel.Waveform))
		for j, raw := range channel.Waveform {
			data[j] = float64(raw)
		}
		floats.Scale(vert.Slope, data)
		floats.AddConst(-vert.Offset, data)

		rec := Record{
			Name: fmt.Sprintf("%s Channel %d", name, i),
			Data: data,
			Unit: UnitV,
			Time: sampleTimes(channel.Timestamp, acqConfig.SampInterval, len(channel.Waveform)),
		}
		values[rec.Name] = rec

		if t.cfg.Verbosity > 2 && len(data) > 0 {
			logger.Debug().Str("module", "decode").
				Msgf("trace %s: mean %.4g V, std %.4g V", rec.Name, stat.Mean(data, nil), stat.StdDev(data, nil))
		}
	}
	return nil
}

// sampleTimes builds the time axis of a digitizer trace: the trigger
// timestamp plus one sampling interval per sample.
func sampleTimes(timestamp float64, sampInterval float64, n int) []float64 {
	switch n {
	case 0:
		return nil
	case 1:
		return []float64{timestamp}
	}
	times := make([]float64, n)
	floats.Span(times, timestamp, timestamp+sampInterval*float64(n-1))
	return times
}

func trEventID(t *Translator, values map[string]Record, key EventKey, obj interface{}) error {
	id, ok := obj.(*EventIDData)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %v", obj, key.Type)
	}
	timestamp := float64(id.Seconds) + float64(id.Nanoseconds)*1e-9
	rec := Record{
		Name:       "Timestamp",
		Data:       time.Unix(int64(id.Seconds), int64(id.Nanoseconds)).UTC(),
		Unit:       UnitS,
		Fiducials:  id.Fiducials,
		RunNumber:  id.RunNumber,
		Ticks:      id.Ticks,
		Vector:     id.Vector,
		Timestamp:  timestamp,
		Timestamp2: uint64(id.Seconds)<<32 | uint64(id.Nanoseconds),
	}
	values[rec.Name] = rec
	return nil
}

func trEvrCodes(t *Translator, values map[string]Record, key EventKey, obj interface{}) error {
	evr, ok := obj.(*EvrData)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %v", obj, key.Type)
	}
	codes := make([]int, 0, len(evr.FifoEvents))
	for _, fifoEvent := range evr.FifoEvents {
		codes = append(codes, fifoEvent.EventCode)
	}
	AddRecord(values, "EvrEventCodes", codes, UnitNone)
	return nil
}
