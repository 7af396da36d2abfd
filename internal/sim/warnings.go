package sim

// WarningKind tags an advisory condition so consumers can switch on it
// instead of substring-matching the text.
type WarningKind string

const (
	WarningNotEngaged        WarningKind = "not_engaged"
	WarningOpenDisengaged    WarningKind = "open_while_disengaged"
	WarningFoamTankEmpty     WarningKind = "foam_tank_empty"
	WarningFoamLow           WarningKind = "foam_low"
	WarningDischargeClosed   WarningKind = "discharge_closed"
	WarningPrimerRequired    WarningKind = "primer_required"
	WarningNoWaterSource     WarningKind = "no_water_source"
	WarningDrafting          WarningKind = "drafting"
	WarningCavitation        WarningKind = "cavitation"
	WarningOverheating       WarningKind = "overheating"
	WarningHoseBurst         WarningKind = "hose_burst"
	WarningLowResidual       WarningKind = "low_residual"
	WarningMaxLift           WarningKind = "max_lift"
	WarningReliefValveLifted WarningKind = "relief_valve_lifted"
)

// WarningSeverity mirrors the logging severities used elsewhere on the
// server: advisory conditions are Info, hazards are Warn.
type WarningSeverity int

const (
	WarningInfo WarningSeverity = iota
	WarningWarn
)

// Warning is an advisory, never an error: the simulation keeps running and
// consumers decide how to surface it. Detail carries the legacy display
// string; the audio layer still substring-matches it, so the wording of
// existing messages is part of the contract.
type Warning struct {
	Kind     WarningKind     `json:"kind"`
	Severity WarningSeverity `json:"severity"`
	Detail   string          `json:"detail"`
}

// Text returns the display string consumers historically matched on.
func (w Warning) Text() string {
	return w.Detail
}

// WarningTexts flattens warnings to their display strings in order.
func WarningTexts(warnings []Warning) []string {
	if len(warnings) == 0 {
		return nil
	}
	texts := make([]string, 0, len(warnings))
	for _, w := range warnings {
		texts = append(texts, w.Detail)
	}
	return texts
}

// dedupeWarnings removes repeated warnings by detail text while preserving
// the first occurrence's position.
func dedupeWarnings(warnings []Warning) []Warning {
	if len(warnings) < 2 {
		return warnings
	}
	seen := make(map[string]struct{}, len(warnings))
	out := warnings[:0]
	for _, w := range warnings {
		if _, ok := seen[w.Detail]; ok {
			continue
		}
		seen[w.Detail] = struct{}{}
		out = append(out, w)
	}
	return out
}
