package translator

// TypeID identifies a native facility data type. The set is closed: these
// are the types the facility DAQ library can hand back for one event.
type TypeID uint16

const (
	TypeUnknown TypeID = iota
	TypeFEEGasDetEnergy
	TypeFEEGasDetEnergyV1
	TypeIPMFex
	TypeCameraFrame
	TypeEBeamV1
	TypeEBeamV2
	TypeEBeamV3
	TypeEBeamV4
	TypeEBeamV5
	TypeEBeamV6
	TypeEBeamV7
	TypeCsPad
	TypeCsPad2x2
	TypePnCCDFullFrame
	TypePnCCDFrames
	TypeAcqiris
	TypeEventID
	TypeEvrDataV3
	TypeEvrDataV4
)

func (t TypeID) String() string {
	switch t {
	case TypeFEEGasDetEnergy:
		return "FEEGasDetEnergy"
	case TypeFEEGasDetEnergyV1:
		return "FEEGasDetEnergyV1"
	case TypeIPMFex:
		return "IpmFexV1"
	case TypeCameraFrame:
		return "CameraFrameV1"
	case TypeEBeamV1:
		return "EBeamV1"
	case TypeEBeamV2:
		return "EBeamV2"
	case TypeEBeamV3:
		return "EBeamV3"
	case TypeEBeamV4:
		return "EBeamV4"
	case TypeEBeamV5:
		return "EBeamV5"
	case TypeEBeamV6:
		return "EBeamV6"
	case TypeEBeamV7:
		return "EBeamV7"
	case TypeCsPad:
		return "CsPadDataV2"
	case TypeCsPad2x2:
		return "CsPad2x2ElementV1"
	case TypePnCCDFullFrame:
		return "PnCCDFullFrameV1"
	case TypePnCCDFrames:
		return "PnCCDFramesV1"
	case TypeAcqiris:
		return "AcqirisDataDescV1"
	case TypeEventID:
		return "EventId"
	case TypeEvrDataV3:
		return "EvrDataV3"
	case TypeEvrDataV4:
		return "EvrDataV4"
	default:
		return "Unknown"
	}
}

// SourceID identifies the detector or device a native datum came from,
// e.g. "DetInfo(CxiDs1.0:Cspad.0)".
type SourceID string

// FEEGasDetEnergy carries the four gas monitor detector channels in mJ.
type FEEGasDetEnergy struct {
	F11 float64
	F12 float64
	F21 float64
	F22 float64
}

// IPMFex is the intensity position monitor readout.
type IPMFex struct {
	Sum      float64
	Channels [4]float64
}

// EBeam carries the electron beam parameters. PhotonEnergy is only
// populated by readout versions 6 and up; older versions report the
// peak current and L3 energy the photon energy is derived from.
type EBeam struct {
	// PhotonEnergy is the direct photon energy reading in eV (V6+).
	PhotonEnergy float64
	// PkCurrBC2 is the peak current after the second bunch compressor, in A.
	PkCurrBC2 float64
	// L3Energy is the beam energy at the end of the linac, in MeV.
	L3Energy float64
}

// CameraFrame is a single opal camera readout.
type CameraFrame struct {
	Width  int
	Height int
	Data   []uint16
}

// CsPad is a full CsPad readout, one pixel block per quadrant.
type CsPad struct {
	Quads [][]int16
}

// CsPad2x2 is a two-tile CsPad readout. Calib holds the calibrated
// frame when the calibration pass ran; Data is always the raw readout.
type CsPad2x2 struct {
	Calib []float32
	Data  []int16
}

// PnCCDFullFrame is an assembled pnCCD frame.
type PnCCDFullFrame struct {
	Data []uint16
}

// PnCCDFrames is a raw pnCCD readout, one block per frame.
type PnCCDFrames struct {
	Frames [][]uint16
}

// AcqirisData is a multi-channel digitizer readout.
type AcqirisData struct {
	Channels []AcqirisChannel
}

// AcqirisChannel is one digitizer channel: raw ADC counts plus the
// trigger timestamp of the first sample.
type AcqirisChannel struct {
	Timestamp float64
	Waveform  []int16
}

// AcqirisConfig is the digitizer configuration from the config store.
type AcqirisConfig struct {
	// SampInterval is the sampling interval in seconds.
	SampInterval float64
	// Vert holds per-channel vertical scaling.
	Vert []AcqirisVertConfig
}

// AcqirisVertConfig scales raw counts to volts: v = raw*Slope - Offset.
type AcqirisVertConfig struct {
	Slope  float64
	Offset float64
}

// EventIDData is the facility event identifier.
type EventIDData struct {
	Seconds     uint32
	Nanoseconds uint32
	Fiducials   uint32
	RunNumber   int32
	Ticks       uint32
	Vector      uint32
}

// EvrData carries the event codes fired for one shot.
type EvrData struct {
	FifoEvents []EvrFifoEvent
}

// EvrFifoEvent is one entry of the event receiver FIFO.
type EvrFifoEvent struct {
	EventCode     int
	TimestampHigh uint32
	TimestampLow  uint32
}
