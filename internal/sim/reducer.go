package sim

import "math/rand"

// Reducer is the sole mutator of State. Every transition is a pure value
// replacement: gated actions that fail their interlock return the input
// state unchanged, and unknown kinds are no-ops returning the same value.
type Reducer struct {
	rng *rand.Rand
}

// NewReducer builds a reducer. The RNG is only consulted by the intake
// failure scenario; a nil RNG falls back to a fixed seed so reductions stay
// reproducible in tests.
func NewReducer(rng *rand.Rand) *Reducer {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	return &Reducer{rng: rng}
}

// Reduce applies one action and returns the next state.
func (r *Reducer) Reduce(s State, action Action) State {
	switch action.Kind {
	case ActionPumpEngage:
		if action.Engage == nil {
			return s
		}
		next := s.Clone()
		next.Pump.Engaged = action.Engage.Engaged
		return next

	case ActionGovernorMode:
		if action.Governor == nil || !CanSwitchGovernor(s, action.Governor.Mode) {
			return s
		}
		next := s.Clone()
		next.Pump.Governor = action.Governor.Mode
		return next

	case ActionSetpoint:
		if action.Setpoint == nil || !CanAdjustThrottle(s) {
			return s
		}
		next := s.Clone()
		next.Pump.Setpoint = action.Setpoint.Value
		return next

	case ActionDischargeOpen:
		if action.Discharge == nil || !CanOpenDischarge(s) {
			return s
		}
		next := s.Clone()
		for i := range next.Discharges {
			if next.Discharges[i].ID == action.Discharge.DischargeID {
				next.Discharges[i].Open = clampFloat(action.Discharge.Open, 0, 1)
				return next
			}
		}
		return s

	case ActionFoamPercent:
		if action.Foam == nil || !CanChangeFoam(s, action.Foam.DischargeID) {
			return s
		}
		next := s.Clone()
		for i := range next.Discharges {
			if next.Discharges[i].ID == action.Foam.DischargeID {
				next.Discharges[i].FoamPercent = clampFloat(action.Foam.Percent, 0, MaxFoamPercent)
			}
		}
		return next

	case ActionFoamSystemEnable:
		if action.Toggle == nil {
			return s
		}
		next := s.Clone()
		next.Pump.FoamSystemEnabled = action.Toggle.Enabled
		return next

	case ActionWaterSource:
		if action.Source == nil {
			return s
		}
		next := s.Clone()
		for i := range next.Intakes {
			next.Intakes[i].Source = action.Source.Source
		}
		return next

	case ActionTankToPump:
		if action.Toggle == nil {
			return s
		}
		next := s.Clone()
		next.TankToPumpOpen = action.Toggle.Enabled
		return next

	case ActionPrimerActivate:
		if !CanActivatePrimer(s) {
			return s
		}
		next := s.Clone()
		next.PrimerActive = true
		next.IsActivePriming = true
		next.PrimingProgress = 0
		next.Primed = false
		return next

	case ActionPrimerComplete:
		next := s.Clone()
		next.PrimerActive = false
		next.IsActivePriming = false
		next.Primed = true
		next.PrimingProgress = PrimingDuration
		return next

	case ActionPrimerProgress:
		if action.Value == nil {
			return s
		}
		next := s.Clone()
		next.PrimingProgress = clampFloat(action.Value.Value, 0, PrimingDuration)
		return next

	case ActionElevation:
		if action.Value == nil {
			return s
		}
		next := s.Clone()
		next.ElevationFt = action.Value.Value
		return next

	case ActionDRVToggle:
		if action.Toggle == nil {
			return s
		}
		next := s.Clone()
		next.Pump.DRV.Enabled = action.Toggle.Enabled
		return next

	case ActionDRVSetpoint:
		if action.Value == nil {
			return s
		}
		next := s.Clone()
		next.Pump.DRV.SetpointPsi = clampFloat(action.Value.Value, DRVSetpointMinPsi, DRVSetpointMaxPsi)
		return next

	case ActionTankFillRecirc:
		if action.Value == nil {
			return s
		}
		next := s.Clone()
		next.TankFillRecircPct = clampFloat(action.Value.Value, 0, 100)
		return next

	case ActionTick:
		if action.Tick == nil || action.Tick.Delta <= 0 {
			return s
		}
		return advance(s, action.Tick.Delta)

	case ActionSetIntakePressure:
		if action.Intake == nil {
			return s
		}
		next := s.Clone()
		for i := range next.Intakes {
			if next.Intakes[i].ID == action.Intake.IntakeID {
				next.Intakes[i].PSI = action.Intake.PSI
			}
		}
		return next

	case ActionHoseBurst:
		if action.Scenario == nil {
			return s
		}
		next := s.Clone()
		for i := range next.Discharges {
			if next.Discharges[i].ID == action.Scenario.LineID {
				next.Discharges[i].Open = 0
				next.Discharges[i].Burst = true
			}
		}
		return next

	case ActionIntakeFailure:
		if action.Scenario == nil {
			return s
		}
		next := s.Clone()
		for i := range next.Intakes {
			if next.Intakes[i].ID == action.Scenario.IntakeID {
				next.Intakes[i].PSI = r.rng.Float64() * 10
			}
		}
		return next

	case ActionTankLeak:
		next := s.Clone()
		next.TankLeakActive = true
		return next

	case ActionGovernorFailure:
		next := s.Clone()
		next.Pump.Governor = GovernorRPM
		return next

	default:
		return s
	}
}

func clampFloat(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
