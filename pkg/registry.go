package translator

import (
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Category is a facility-agnostic semantic bucket one or more native
// types map into.
type Category string

const (
	CategoryPulseEnergies        Category = "pulseEnergies"
	CategoryPhotonEnergies       Category = "photonEnergies"
	CategoryPhotonPixelDetectors Category = "photonPixelDetectors"
	CategoryCamera               Category = "camera"
	CategoryIonTOFs              Category = "ionTOFs"
	CategoryEventID              Category = "eventID"
	CategoryEventCodes           Category = "eventCodes"

	// CategoryParameters and CategoryAnalysis are always listed:
	// parameters exposes the EPICS store, analysis is reserved for
	// values added downstream.
	CategoryParameters Category = "parameters"
	CategoryAnalysis   Category = "analysis"
)

// registry holds the static native-to-semantic lookup tables. Native
// types without an entry are not discoverable; that is the one silent
// drop in this layer.
type registry struct {
	n2c map[TypeID]Category
	c2n map[Category][]TypeID
	s2c map[SourceID]string
}

func newRegistry() *registry {
	n2c := map[TypeID]Category{
		TypeFEEGasDetEnergy:   CategoryPulseEnergies,
		TypeFEEGasDetEnergyV1: CategoryPulseEnergies,
		TypeIPMFex:            CategoryPulseEnergies,
		TypeEBeamV1:           CategoryPhotonEnergies,
		TypeEBeamV2:           CategoryPhotonEnergies,
		TypeEBeamV3:           CategoryPhotonEnergies,
		TypeEBeamV4:           CategoryPhotonEnergies,
		TypeEBeamV5:           CategoryPhotonEnergies,
		TypeEBeamV6:           CategoryPhotonEnergies,
		TypeEBeamV7:           CategoryPhotonEnergies,
		TypeCsPad:             CategoryPhotonPixelDetectors,
		TypeCsPad2x2:          CategoryPhotonPixelDetectors,
		TypePnCCDFullFrame:    CategoryPhotonPixelDetectors,
		TypePnCCDFrames:       CategoryPhotonPixelDetectors,
		TypeCameraFrame:       CategoryCamera,
		TypeAcqiris:           CategoryIonTOFs,
		TypeEventID:           CategoryEventID,
		TypeEvrDataV3:         CategoryEventCodes,
		TypeEvrDataV4:         CategoryEventCodes,
	}

	c2n := make(map[Category][]TypeID)
	for t, c := range n2c {
		c2n[c] = append(c2n[c], t)
	}
	for c := range c2n {
		slices.Sort(c2n[c])
	}

	s2c := map[SourceID]string{
		// CXI cameras
		"DetInfo(CxiEndstation.0:Opal4000.1)":  "Sc2Questar",
		"DetInfo(CxiEndstation.0:Opal11000.0)": "Sc2Offaxis",
		// CXI CsPads
		"DetInfo(CxiDs1.0:Cspad.0)":    "CsPad Ds1",
		"DetInfo(CxiDsd.0:Cspad.0)":    "CsPad Dsd",
		"DetInfo(CxiDs2.0:Cspad.0)":    "CsPad Ds2",
		"DetInfo(CxiDg3.0:Cspad2x2.0)": "CsPad Dg3",
		"DetInfo(CxiDg2.0:Cspad2x2.0)": "CsPad Dg2",
		// AMO pnCCDs
		"DetInfo(Camp.0:pnCCD.1)": "pnccdBack",
		"DetInfo(Camp.0:pnCCD.0)": "pnccdFront",
		// ToF digitizers
		"DetInfo(AmoEndstation.0:Acqiris.0)": "Acqiris 0",
		"DetInfo(AmoEndstation.0:Acqiris.1)": "Acqiris 1",
		"DetInfo(AmoEndstation.0:Acqiris.2)": "Acqiris 2",
		"DetInfo(AmoETOF.0:Acqiris.0)":       "Acqiris 0",
		"DetInfo(AmoETOF.0:Acqiris.1)":       "Acqiris 1",
		"DetInfo(AmoITOF.0:Acqiris.0)":       "Acqiris 2",
		"DetInfo(AmoITOF.0:Acqiris.1)":       "Acqiris 3",
		// MCP camera
		"DetInfo(AmoEndstation.0:Opal1000.1)": "OPAL1",
		// CXI digitizers
		"DetInfo(CxiEndstation.0:Acqiris.0)": "Acqiris 0",
		"DetInfo(CxiEndstation.0:Acqiris.1)": "Acqiris 1",
	}

	return &registry{n2c: n2c, c2n: c2n, s2c: s2c}
}

// categoriesFor resolves a native type to its categories. Unregistered
// types resolve to the empty set.
func (r *registry) categoriesFor(t TypeID) []Category {
	c, ok := r.n2c[t]
	if !ok {
		return nil
	}
	return []Category{c}
}

// nativeTypesFor returns the native types registered for a category.
func (r *registry) nativeTypesFor(c Category) []TypeID {
	return r.c2n[c]
}

// hasCategory reports whether c is a core category backed by native types.
func (r *registry) hasCategory(c Category) bool {
	_, ok := r.c2n[c]
	return ok
}

// categories lists all core categories in sorted order.
func (r *registry) categories() []Category {
	cats := maps.Keys(r.c2n)
	slices.Sort(cats)
	return cats
}

// detectorName maps a native source to its human-readable detector name,
// falling back to the raw source string.
func (r *registry) detectorName(src SourceID) string {
	if name, ok := r.s2c[src]; ok {
		return name
	}
	return string(src)
}

// setAlias installs or overrides one source alias. Used for aliases
// loaded from the run database.
func (r *registry) setAlias(src SourceID, name string) {
	r.s2c[src] = name
}
