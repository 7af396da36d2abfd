// Package hydro implements the fireground hydraulics used by the pump
// simulation: Hazen-Williams friction loss, nozzle flow estimation, and
// pump discharge pressure composition. Every function is pure and clamps
// its inputs to physically sane ranges instead of failing.
package hydro

import "math"

const (
	// PsiPerFootOfHead converts feet of water column to PSI.
	PsiPerFootOfHead = 0.433

	// SmoothBoreCoefficient is the standard freeman-formula constant for
	// smooth-bore nozzle flow (gpm = 29.7 * d^2 * sqrt(NP)).
	SmoothBoreCoefficient = 29.7
)

// Clamp limits for formula inputs. Values outside these ranges are not
// errors; they are pinned before computing.
const (
	maxFlowGPM        = 2000.0
	minHoseDiameterIn = 1.0
	maxHoseDiameterIn = 6.0
	minRoughnessC     = 80.0
	maxRoughnessC     = 180.0
	minTipDiameterIn  = 0.5
	maxTipDiameterIn  = 2.0
	maxNozzlePsi      = 200.0
	maxApplianceLoss  = 50.0
)

// NozzleType selects between flow models: smooth-bore nozzles are
// pressure-driven, fog nozzles regulate toward a rated flow.
type NozzleType string

const (
	NozzleSmooth NozzleType = "smooth"
	NozzleFog    NozzleType = "fog"
)

// HoseSpec describes one hose lay for friction-loss purposes.
type HoseSpec struct {
	DiameterIn float64
	LengthFt   float64
	RoughnessC float64
}

// FrictionLossPer100ft returns the Hazen-Williams friction loss in PSI per
// 100 ft of hose. Monotonic increasing in flow, decreasing in diameter and
// in the roughness coefficient.
func FrictionLossPer100ft(flowGPM, diameterIn, roughnessC float64) float64 {
	q := clamp(flowGPM, 0, maxFlowGPM)
	d := clamp(diameterIn, minHoseDiameterIn, maxHoseDiameterIn)
	c := clamp(roughnessC, minRoughnessC, maxRoughnessC)

	headLossFt := 0.2083 * math.Pow(100/c, 1.85) * math.Pow(q, 1.85) / math.Pow(d, 4.87)
	return headLossFt * PsiPerFootOfHead
}

// TotalFrictionLoss returns the friction loss across the full hose length.
// Linear in length.
func TotalFrictionLoss(hose HoseSpec, flowGPM float64) float64 {
	perHundred := FrictionLossPer100ft(flowGPM, hose.DiameterIn, hose.RoughnessC)
	length := hose.LengthFt
	if length < 0 {
		length = 0
	}
	return perHundred * (length / 100)
}

// PumpDischargePressure composes the pressure the pump must develop for a
// single line: nozzle pressure plus hose and appliance losses plus the
// elevation head. Negative elevation (downhill) subtracts.
func PumpDischargePressure(nozzlePsi, hoseLossPsi, applianceLossPsi, elevationFt float64) float64 {
	np := clamp(nozzlePsi, 0, maxNozzlePsi)
	hl := hoseLossPsi
	if hl < 0 {
		hl = 0
	}
	al := clamp(applianceLossPsi, 0, maxApplianceLoss)
	return np + hl + al + PsiPerFootOfHead*elevationFt
}

// SmoothBoreFlow returns the smooth-bore nozzle flow in GPM for a tip
// diameter and nozzle pressure. Monotonic increasing in both arguments.
func SmoothBoreFlow(tipDiameterIn, nozzlePsi float64) float64 {
	d := clamp(tipDiameterIn, minTipDiameterIn, maxTipDiameterIn)
	np := clamp(nozzlePsi, 0, maxNozzlePsi)
	return SmoothBoreCoefficient * d * d * math.Sqrt(np)
}

// EstimateFlow returns the expected flow for a nozzle. Smooth-bore tips use
// the pressure-driven formula; fog nozzles are flow-regulating, so the rated
// flow is selected by the design nozzle pressure tier.
func EstimateFlow(nozzle NozzleType, tipDiameterIn, nozzlePsi float64) float64 {
	if nozzle == NozzleSmooth {
		return SmoothBoreFlow(tipDiameterIn, nozzlePsi)
	}
	switch {
	case nozzlePsi == 50:
		return 95
	case nozzlePsi == 100:
		return 150
	case nozzlePsi == 80:
		// Master-stream fog tips are rated at 80 PSI.
		return 1000
	default:
		return 150
	}
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
