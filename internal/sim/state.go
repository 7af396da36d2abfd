// Package sim holds the pump-panel simulation core: the apparatus state
// model, the action vocabulary, the interlock policy, the reducer, and the
// continuous-time tick engine. State is owned by a single Engine and updated
// by replacement; nothing in this package performs I/O.
package sim

import "pump-panel/server/internal/hydro"

// GovernorMode selects the throttle control strategy: direct engine RPM or
// pressure-targeting with RPM as the controlled variable.
type GovernorMode string

const (
	GovernorRPM      GovernorMode = "rpm"
	GovernorPressure GovernorMode = "pressure"
)

// WaterSource enumerates where the pump draws from.
type WaterSource string

const (
	SourceTank    WaterSource = "tank"
	SourceHydrant WaterSource = "hydrant"
	SourceDraft   WaterSource = "draft"
	SourceRelay   WaterSource = "relay"
)

// Operating limits shared by the reducer, tick engine, and solver.
const (
	MaxPDP            = 400.0
	DRVSetpointMinPsi = 75.0
	DRVSetpointMaxPsi = 300.0
	MaxFoamPercent    = 9.9
	PrimingDuration   = 15.0

	IdleRPM     = 650.0
	MaxPumpRPM  = 3000.0
	AmbientTemp = 70.0
)

// Discharge is one hose outlet. Open is the valve position in [0,1]; a
// closed valve contributes zero flow and zero foam consumption.
type Discharge struct {
	ID          string           `json:"id"`
	Label       string           `json:"label,omitempty"`
	Open        float64          `json:"open"`
	DiameterIn  float64          `json:"diameterIn"`
	LengthFt    float64          `json:"lengthFt"`
	NozzleType  hydro.NozzleType `json:"nozzleType"`
	NozzlePsi   float64          `json:"nozzlePsi"`
	FoamPercent float64          `json:"foamPct"`
	Burst       bool             `json:"burst,omitempty"`
}

// Intake is one water inlet. PSI follows the compound-gauge convention:
// positive means pressurized, negative magnitude is the vacuum basis when
// drafting. Zero means "use the nominal pressure for the source".
type Intake struct {
	ID     string      `json:"id"`
	Source WaterSource `json:"source"`
	LDH    bool        `json:"ldh"`
	PSI    float64     `json:"psi"`
}

// ReliefValve models the discharge relief valve (DRV).
type ReliefValve struct {
	Enabled     bool    `json:"enabled"`
	SetpointPsi float64 `json:"setpointPsi"`
	BypassGPM   float64 `json:"bypassGpm"`
}

// Pump is the apparatus pump itself. PDP and IntakePsi are computed by the
// tick engine and solver; they are carried here so gauges read from state.
type Pump struct {
	Engaged           bool         `json:"engaged"`
	Governor          GovernorMode `json:"governor"`
	Setpoint          float64      `json:"setpoint"`
	RPM               float64      `json:"rpm"`
	PDP               float64      `json:"pdp"`
	IntakePsi         float64      `json:"intakePsi"`
	TempF             float64      `json:"tempF"`
	FoamTankGallons   float64      `json:"foamTankGallons"`
	FoamTankCapacity  float64      `json:"foamTankCapacityGallons"`
	FoamSystemEnabled bool         `json:"foamSystemEnabled"`
	DRV               ReliefValve  `json:"drv"`
}

// State is the aggregate apparatus state. Discharges and intakes are kept in
// slices so iteration order is stable; the first intake is the primary one
// the solver reads. The Engine owns the single live instance and replaces it
// wholesale on every reduction.
type State struct {
	Pump              Pump        `json:"pump"`
	Discharges        []Discharge `json:"discharges"`
	Intakes           []Intake    `json:"intakes"`
	ElevationFt       float64     `json:"elevationFt"`
	TankToPumpOpen    bool        `json:"tankToPumpOpen"`
	TankFillRecircPct float64     `json:"tankFillRecircPct"`
	WaterTankGallons  float64     `json:"waterTankGallons"`
	WaterTankCapacity float64     `json:"waterTankCapacityGallons"`
	PrimerActive      bool        `json:"primerActive"`
	Primed            bool        `json:"primed"`
	IsActivePriming   bool        `json:"isActivePriming"`
	PrimingProgress   float64     `json:"primingProgress"`
	TankLeakActive    bool        `json:"tankLeakActive"`
}

// NewState builds the default apparatus: idle pump, all discharges closed,
// dual hydrant intakes, full water and foam tanks, at grade.
func NewState() State {
	return State{
		Pump: Pump{
			Governor:         GovernorPressure,
			RPM:              IdleRPM,
			TempF:            AmbientTemp,
			FoamTankGallons:  30,
			FoamTankCapacity: 30,
			DRV: ReliefValve{
				SetpointPsi: 150,
			},
		},
		Discharges: []Discharge{
			{ID: "xlay1", Label: "Crosslay 1", DiameterIn: 1.75, LengthFt: 200, NozzleType: hydro.NozzleFog, NozzlePsi: 100},
			{ID: "xlay2", Label: "Crosslay 2", DiameterIn: 1.75, LengthFt: 200, NozzleType: hydro.NozzleFog, NozzlePsi: 100},
			{ID: "d25", Label: "2.5 Inch", DiameterIn: 2.5, LengthFt: 150, NozzleType: hydro.NozzleSmooth, NozzlePsi: 50},
			{ID: "deck", Label: "Deck Gun", DiameterIn: 3.0, LengthFt: 50, NozzleType: hydro.NozzleFog, NozzlePsi: 80},
		},
		Intakes: []Intake{
			{ID: "intake-left", Source: SourceHydrant, LDH: true},
			{ID: "intake-right", Source: SourceHydrant},
		},
		WaterTankGallons:  750,
		WaterTankCapacity: 750,
	}
}

// Clone returns a deep copy. Reducers mutate the copy and return it, so the
// caller's snapshot is never aliased.
func (s State) Clone() State {
	cloned := s
	cloned.Discharges = append([]Discharge(nil), s.Discharges...)
	cloned.Intakes = append([]Intake(nil), s.Intakes...)
	return cloned
}

// Discharge returns the discharge with the given id, if present.
func (s State) Discharge(id string) (Discharge, bool) {
	for _, d := range s.Discharges {
		if d.ID == id {
			return d, true
		}
	}
	return Discharge{}, false
}

// Intake returns the intake with the given id, if present.
func (s State) Intake(id string) (Intake, bool) {
	for _, in := range s.Intakes {
		if in.ID == id {
			return in, true
		}
	}
	return Intake{}, false
}

// PrimaryIntake returns the first configured intake. The solver and the
// priming interlock read the apparatus source from it.
func (s State) PrimaryIntake() Intake {
	if len(s.Intakes) == 0 {
		return Intake{}
	}
	return s.Intakes[0]
}

// HasSource reports whether any intake is set to the given source.
func (s State) HasSource(source WaterSource) bool {
	for _, in := range s.Intakes {
		if in.Source == source {
			return true
		}
	}
	return false
}
