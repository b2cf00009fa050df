package translator

// Unit tags the physical unit of a decoded value.
type Unit int

const (
	UnitNone Unit = iota
	UnitADU
	UnitEV
	UnitMJ
	UnitV
	UnitS
)

func (u Unit) String() string {
	switch u {
	case UnitADU:
		return "ADU"
	case UnitEV:
		return "eV"
	case UnitMJ:
		return "mJ"
	case UnitV:
		return "V"
	case UnitS:
		return "s"
	default:
		return ""
	}
}

// Record is one named, unit-tagged value decoded from a native event.
type Record struct {
	Name string
	Data interface{}
	Unit Unit

	// Time is the time axis of a digitizer trace, one entry per sample.
	Time []float64

	// Event identifier extras, set only on the Timestamp record.
	Fiducials  uint32
	RunNumber  int32
	Ticks      uint32
	Vector     uint32
	Timestamp  float64
	Timestamp2 uint64
}

// AddRecord inserts a named record into a per-category result set.
func AddRecord(values map[string]Record, name string, data interface{}, unit Unit) {
	values[name] = Record{Name: name, Data: data, Unit: unit}
}
