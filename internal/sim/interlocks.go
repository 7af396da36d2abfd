package sim

// Interlock policy: pure predicates over State answering "is this action
// currently permitted". The reducer re-validates every gated action with
// these, so callers may present the matching warning before dispatch but
// never have to.

// CanAdjustThrottle reports whether throttle/setpoint changes are allowed.
func CanAdjustThrottle(s State) bool {
	return s.Pump.Engaged
}

// CanOpenDischarge reports whether discharge valves may be moved.
func CanOpenDischarge(s State) bool {
	return s.Pump.Engaged
}

// CanChangeFoam reports whether the foam percentage on a discharge may be
// changed. Unknown discharge ids are not an error; they are simply never
// eligible.
func CanChangeFoam(s State, dischargeID string) bool {
	if !s.Pump.Engaged {
		return false
	}
	d, ok := s.Discharge(dischargeID)
	return ok && d.Open > 0
}

// CanSwitchGovernor reports whether the governor may change to the given
// mode. Dropping into RPM mode is only allowed from PRESSURE mode while
// drafting or when discharge pressure is already above 250 PSI; returning to
// PRESSURE mode is always allowed.
func CanSwitchGovernor(s State, mode GovernorMode) bool {
	if mode == GovernorPressure {
		return true
	}
	if s.Pump.Governor != GovernorPressure {
		return false
	}
	return s.HasSource(SourceDraft) || s.Pump.PDP > 250
}

// CanActivatePrimer reports whether the primer may start: only while the
// primary intake is set up for drafting.
func CanActivatePrimer(s State) bool {
	return s.PrimaryIntake().Source == SourceDraft
}

// InterlockWarning maps a denied action kind to the advisory shown on the
// panel, or nil when the kind has no interlock.
func InterlockWarning(kind ActionKind, s State) *Warning {
	switch kind {
	case ActionSetpoint:
		if !CanAdjustThrottle(s) {
			return &Warning{Kind: WarningNotEngaged, Severity: WarningWarn, Detail: "Engage the pump before adjusting the throttle"}
		}
	case ActionDischargeOpen:
		if !CanOpenDischarge(s) {
			return &Warning{Kind: WarningNotEngaged, Severity: WarningWarn, Detail: "Engage the pump before opening a discharge"}
		}
	case ActionFoamPercent:
		if !s.Pump.Engaged {
			return &Warning{Kind: WarningNotEngaged, Severity: WarningWarn, Detail: "Engage the pump before changing foam"}
		}
		return &Warning{Kind: WarningDischargeClosed, Severity: WarningInfo, Detail: "Open the discharge before selecting foam"}
	case ActionGovernorMode:
		return &Warning{Kind: WarningNotEngaged, Severity: WarningInfo, Detail: "RPM mode requires drafting or discharge pressure above 250 PSI"}
	case ActionPrimerActivate:
		if !CanActivatePrimer(s) {
			return &Warning{Kind: WarningPrimerRequired, Severity: WarningInfo, Detail: "Priming is only needed when drafting"}
		}
	}
	return nil
}

// ValidateState returns advisory warnings for cross-cutting hazards. The
// order is fixed (discharge, foam, primer, no-source) and duplicates are
// removed so downstream assertions stay deterministic.
func ValidateState(s State) []Warning {
	var warnings []Warning

	if !s.Pump.Engaged {
		for _, d := range s.Discharges {
			if d.Open > 0 {
				warnings = append(warnings, Warning{
					Kind:     WarningOpenDisengaged,
					Severity: WarningWarn,
					Detail:   "Discharge open while pump is disengaged",
				})
			}
		}
	}

	for _, d := range s.Discharges {
		if d.FoamPercent > 0 && s.Pump.FoamTankGallons <= 0 {
			warnings = append(warnings, Warning{
				Kind:     WarningFoamTankEmpty,
				Severity: WarningWarn,
				Detail:   "Foam selected but foam tank is empty",
			})
		}
	}

	if s.HasSource(SourceDraft) && !s.PrimerActive && !s.Primed {
		warnings = append(warnings, Warning{
			Kind:     WarningPrimerRequired,
			Severity: WarningWarn,
			Detail:   "Drafting without priming the pump",
		})
	}

	if s.Pump.Engaged && !s.TankToPumpOpen &&
		!s.HasSource(SourceHydrant) && !s.HasSource(SourceRelay) && !s.HasSource(SourceDraft) {
		warnings = append(warnings, Warning{
			Kind:     WarningNoWaterSource,
			Severity: WarningWarn,
			Detail:   "No water source - open tank to pump or connect a supply",
		})
	}

	return dedupeWarnings(warnings)
}
