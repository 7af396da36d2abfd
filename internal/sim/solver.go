package sim

import "pump-panel/server/internal/hydro"

// Fixed solver assumptions.
const (
	// hoseRoughnessC is the Hazen-Williams coefficient for rubber-lined
	// attack hose.
	hoseRoughnessC = 150.0

	// applianceLossPsi is charged against every open line.
	applianceLossPsi = 10.0

	// Nominal intake readings by source.
	tankIntakePsi    = 45.0
	hydrantStaticPsi = 60.0
	relayIntakePsi   = 30.0
	draftPrimingPsi  = -10.0
	draftVacuumPsi   = -20.0

	// hydrantDroopPsiPerGPM models residual pressure falling off with flow.
	hydrantDroopPsiPerGPM = 0.02

	// draftMaxFlowGPM is the flow ceiling a single hard-sleeve draft can
	// sustain before cavitation.
	draftMaxFlowGPM = 750.0

	// overheatWarnTempF matches the gauge caution band.
	overheatWarnTempF = 200.0

	foamLowGallons = 5.0
)

// SolverResult is the ephemeral hydraulic solution derived from one state
// snapshot. It is recomputed from scratch on every state change and never
// written back into State.
type SolverResult struct {
	TotalGPM       float64            `json:"totalGpm"`
	RequiredPDP    float64            `json:"requiredPdp"`
	IntakePsi      float64            `json:"intakePsi"`
	DischargeFlows map[string]float64 `json:"dischargeFlows"`
	Warnings       []Warning          `json:"warnings"`
}

// Solve computes total flow, per-discharge flow, the pump discharge pressure
// required to satisfy the thirstiest open line, and the intake reading.
// Pure and total: it never mutates its input.
func Solve(s State) SolverResult {
	if !s.Pump.Engaged {
		intake := 0.0
		if s.TankToPumpOpen {
			intake = tankIntakePsi
		}
		return SolverResult{
			IntakePsi:      intake,
			DischargeFlows: map[string]float64{},
			Warnings: []Warning{{
				Kind:     WarningNotEngaged,
				Severity: WarningInfo,
				Detail:   "Pump not engaged",
			}},
		}
	}

	result := SolverResult{DischargeFlows: make(map[string]float64, len(s.Discharges))}
	var warnings []Warning

	for _, d := range s.Discharges {
		if d.Open <= 0 {
			continue
		}
		tip := effectiveTipDiameter(d.DiameterIn)
		flow := hydro.EstimateFlow(d.NozzleType, tip, d.NozzlePsi) * d.Open
		result.DischargeFlows[d.ID] = flow
		result.TotalGPM += flow

		hose := hydro.HoseSpec{DiameterIn: d.DiameterIn, LengthFt: d.LengthFt, RoughnessC: hoseRoughnessC}
		friction := hydro.TotalFrictionLoss(hose, flow)
		required := hydro.PumpDischargePressure(d.NozzlePsi, friction, applianceLossPsi, s.ElevationFt)
		if required > result.RequiredPDP {
			result.RequiredPDP = required
		}

		if d.FoamPercent > 0 && s.Pump.FoamTankGallons < foamLowGallons {
			warnings = append(warnings, Warning{
				Kind:     WarningFoamLow,
				Severity: WarningWarn,
				Detail:   "Foam tank low",
			})
		}
	}

	result.IntakePsi = intakePressure(s, result.TotalGPM)

	primary := s.PrimaryIntake()
	switch primary.Source {
	case SourceDraft:
		// Always emitted while drafting, regardless of primer state. Known
		// quirk carried over from the original panel behavior.
		warnings = append(warnings, Warning{
			Kind:     WarningDrafting,
			Severity: WarningInfo,
			Detail:   "Drafting - ensure primer active",
		})
		if result.TotalGPM > draftMaxFlowGPM {
			warnings = append(warnings, Warning{
				Kind:     WarningCavitation,
				Severity: WarningWarn,
				Detail:   "Cavitation risk - flow exceeds draft capacity",
			})
		}
	case SourceHydrant:
		if result.IntakePsi < lowResidualPsi {
			warnings = append(warnings, Warning{
				Kind:     WarningLowResidual,
				Severity: WarningWarn,
				Detail:   "Low hydrant residual pressure",
			})
		}
	}

	if s.Pump.TempF >= overheatWarnTempF {
		warnings = append(warnings, Warning{
			Kind:     WarningOverheating,
			Severity: WarningWarn,
			Detail:   "Pump overheating - open a discharge or recirculation",
		})
	}

	for _, d := range s.Discharges {
		if d.Burst {
			warnings = append(warnings, Warning{
				Kind:     WarningHoseBurst,
				Severity: WarningWarn,
				Detail:   "Hose burst on " + dischargeName(d),
			})
		}
	}

	result.Warnings = dedupeWarnings(warnings)
	return result
}

// intakePressure derives the compound-gauge reading from the primary intake.
// An instructor override (nonzero stored PSI) replaces the nominal static
// pressure for pressurized sources.
func intakePressure(s State, totalGPM float64) float64 {
	primary := s.PrimaryIntake()
	switch primary.Source {
	case SourceTank:
		return tankIntakePsi
	case SourceHydrant:
		static := hydrantStaticPsi
		if primary.PSI > 0 {
			static = primary.PSI
		}
		residual := static - hydrantDroopPsiPerGPM*totalGPM
		if residual < 0 {
			residual = 0
		}
		return residual
	case SourceDraft:
		if s.IsActivePriming {
			return draftPrimingPsi
		}
		return draftVacuumPsi
	case SourceRelay:
		if primary.PSI > 0 {
			return primary.PSI
		}
		return relayIntakePsi
	default:
		return 0
	}
}

// effectiveTipDiameter maps hose diameter to the tip the preconnect carries.
// A fixed lookup, not a free parameter.
func effectiveTipDiameter(hoseDiameterIn float64) float64 {
	switch {
	case hoseDiameterIn <= 1.0:
		return 0.5
	case hoseDiameterIn <= 1.5:
		return 0.75
	case hoseDiameterIn <= 1.75:
		return 0.9375
	case hoseDiameterIn <= 2.5:
		return 1.125
	case hoseDiameterIn <= 3.0:
		return 1.375
	default:
		return 1.75
	}
}

func dischargeName(d Discharge) string {
	if d.Label != "" {
		return d.Label
	}
	return d.ID
}
