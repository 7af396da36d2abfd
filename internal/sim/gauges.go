package sim

// Gauge threshold policy. These values are part of the panel contract and
// drive both the rendered needle bands and the advisory warnings.
const (
	lowResidualPsi = 20.0
	maxLiftInHg    = 20.0

	dischargeHighPsi    = 250.0
	dischargeCautionPsi = 350.0
	dischargeDangerPsi  = 400.0
)

// GaugeBand classifies a reading against the panel's colored bands.
type GaugeBand string

const (
	BandNormal  GaugeBand = "normal"
	BandHigh    GaugeBand = "high"
	BandCaution GaugeBand = "caution"
	BandDanger  GaugeBand = "danger"
)

// GaugeUnit selects the scale an intake gauge displays.
type GaugeUnit string

const (
	UnitPsi  GaugeUnit = "psi"
	UnitInHg GaugeUnit = "inHg"
)

// IntakeGauge is the display model for the compound intake gauge.
type IntakeGauge struct {
	Value   float64   `json:"value"`
	Unit    GaugeUnit `json:"unit"`
	Warning bool      `json:"warning"`
}

// IntakeGaugeReading converts the solved intake pressure into the reading a
// compound gauge shows: PSI for pressurized sources, inches of mercury while
// drafting. The warning flag trips at 20 inHg (approaching maximum lift) or
// below 20 PSI residual on a pressurized source.
func IntakeGaugeReading(source WaterSource, intakePsi float64) IntakeGauge {
	if source == SourceDraft {
		inHg := -intakePsi
		if inHg < 0 {
			inHg = 0
		}
		return IntakeGauge{Value: inHg, Unit: UnitInHg, Warning: inHg >= maxLiftInHg}
	}
	warning := source != SourceTank && intakePsi > 0 && intakePsi < lowResidualPsi
	return IntakeGauge{Value: intakePsi, Unit: UnitPsi, Warning: warning}
}

// DischargeGaugeBand classifies a discharge pressure reading.
func DischargeGaugeBand(pdp float64) GaugeBand {
	switch {
	case pdp >= dischargeDangerPsi:
		return BandDanger
	case pdp >= dischargeCautionPsi:
		return BandCaution
	case pdp >= dischargeHighPsi:
		return BandHigh
	default:
		return BandNormal
	}
}

// ClampDischargeGauge pins the needle at the gauge's mechanical stop.
func ClampDischargeGauge(pdp float64) float64 {
	return clampFloat(pdp, 0, dischargeDangerPsi)
}

// DRVStatus summarizes the relief valve for the panel indicator lamps.
type DRVStatus struct {
	Enabled   bool    `json:"enabled"`
	Lifting   bool    `json:"lifting"`
	BypassGPM float64 `json:"bypassGpm"`
}

// ReliefValveStatus reports whether the DRV is actively bypassing.
func ReliefValveStatus(s State) DRVStatus {
	return DRVStatus{
		Enabled:   s.Pump.DRV.Enabled,
		Lifting:   s.Pump.DRV.Enabled && s.Pump.DRV.BypassGPM > 0,
		BypassGPM: s.Pump.DRV.BypassGPM,
	}
}
