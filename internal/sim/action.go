package sim

// ActionKind enumerates the supported panel actions.
type ActionKind string

const (
	ActionPumpEngage        ActionKind = "PumpEngage"
	ActionGovernorMode      ActionKind = "GovernorMode"
	ActionSetpoint          ActionKind = "Setpoint"
	ActionDischargeOpen     ActionKind = "DischargeOpen"
	ActionFoamPercent       ActionKind = "FoamPercent"
	ActionFoamSystemEnable  ActionKind = "FoamSystemEnable"
	ActionWaterSource       ActionKind = "WaterSource"
	ActionTankToPump        ActionKind = "TankToPump"
	ActionPrimerActivate    ActionKind = "PrimerActivate"
	ActionPrimerComplete    ActionKind = "PrimerComplete"
	ActionPrimerProgress    ActionKind = "PrimerProgress"
	ActionElevation         ActionKind = "Elevation"
	ActionDRVToggle         ActionKind = "DRVToggle"
	ActionDRVSetpoint       ActionKind = "DRVSetpoint"
	ActionTankFillRecirc    ActionKind = "TankFillRecirc"
	ActionTick              ActionKind = "Tick"
	ActionSetIntakePressure ActionKind = "SetIntakePressure"

	// Instructor-injected failure scenarios.
	ActionHoseBurst       ActionKind = "ScenarioHoseBurst"
	ActionIntakeFailure   ActionKind = "ScenarioIntakeFailure"
	ActionTankLeak        ActionKind = "ScenarioTankLeak"
	ActionGovernorFailure ActionKind = "ScenarioGovernorFailure"
)

// EngageAction sets the pump master switch.
type EngageAction struct {
	Engaged bool `json:"engaged"`
}

// GovernorAction selects the governor mode.
type GovernorAction struct {
	Mode GovernorMode `json:"mode"`
}

// SetpointAction moves the throttle target. The meaning of Value depends on
// the governor mode: RPM in RPM mode, PSI in PRESSURE mode.
type SetpointAction struct {
	Value float64 `json:"value"`
}

// DischargeAction positions a discharge valve in [0,1].
type DischargeAction struct {
	DischargeID string  `json:"dischargeId"`
	Open        float64 `json:"open"`
}

// FoamAction sets the foam percentage on a discharge.
type FoamAction struct {
	DischargeID string  `json:"dischargeId"`
	Percent     float64 `json:"pct"`
}

// ToggleAction carries a single boolean for on/off actions.
type ToggleAction struct {
	Enabled bool `json:"enabled"`
}

// SourceAction switches every intake to the given water source.
type SourceAction struct {
	Source WaterSource `json:"source"`
}

// ValueAction carries a single scalar for setpoint-style actions.
type ValueAction struct {
	Value float64 `json:"value"`
}

// IntakeAction targets one intake with a pressure override.
type IntakeAction struct {
	IntakeID string  `json:"intakeId"`
	PSI      float64 `json:"psi"`
}

// ScenarioAction identifies the target of an injected failure.
type ScenarioAction struct {
	LineID   string `json:"lineId,omitempty"`
	IntakeID string `json:"intakeId,omitempty"`
}

// TickAction advances simulated time by Delta seconds.
type TickAction struct {
	Delta float64 `json:"delta"`
}

// Action is the tagged union consumed by the reducer. Exactly one payload
// pointer matching Kind is set; the rest stay nil.
type Action struct {
	Kind      ActionKind       `json:"kind"`
	Engage    *EngageAction    `json:"engage,omitempty"`
	Governor  *GovernorAction  `json:"governor,omitempty"`
	Setpoint  *SetpointAction  `json:"setpoint,omitempty"`
	Discharge *DischargeAction `json:"discharge,omitempty"`
	Foam      *FoamAction      `json:"foam,omitempty"`
	Toggle    *ToggleAction    `json:"toggle,omitempty"`
	Source    *SourceAction    `json:"source,omitempty"`
	Value     *ValueAction     `json:"value,omitempty"`
	Intake    *IntakeAction    `json:"intake,omitempty"`
	Scenario  *ScenarioAction  `json:"scenario,omitempty"`
	Tick      *TickAction      `json:"tick,omitempty"`
}
