package sim

// Continuous-time update engine. advance derives the next state purely from
// (state, dt), so the result for one large delta matches the result of the
// same delta split across many ticks to within floating-point tolerance:
// every quantity below either slews linearly with a rate cap or integrates a
// rate that is constant across the tick.

const (
	// RPMSlewRate bounds how fast the engine chases the governor target.
	RPMSlewRate = 250.0 // RPM per second

	// PsiPerRPM is the simplified pump curve slope above idle.
	PsiPerRPM = 0.16

	// DRV response model.
	DRVBypassMaxGPM     = 500.0
	DRVBypassSlewRate   = 100.0 // GPM per second
	DRVOverpressureGain = 2.0
	DRVReliefFraction   = 0.85

	// Tank plumbing rates.
	TankFillMaxGPM = 120.0
	TankLeakGPM    = 50.0

	// Pump casing thermal model. Dead-heading (engaged with no flow and no
	// recirculation) heats the casing; flow or disengagement cools it.
	HeatRateFPerSec  = 0.8
	CoolRateFPerSec  = 2.0
	MaxPumpTempF     = 250.0
	coolingFlowGPM   = 10.0
	recircCoolingPct = 25.0
)

// advance integrates the smooth evolution of the apparatus over dt seconds.
func advance(s State, dt float64) State {
	next := s.Clone()

	// Priming countdown. Reaching the full duration is equivalent to a
	// primer-complete action.
	if next.IsActivePriming {
		next.PrimingProgress += dt
		if next.PrimingProgress >= PrimingDuration {
			next.PrimingProgress = PrimingDuration
			next.PrimerActive = false
			next.IsActivePriming = false
			next.Primed = true
		}
	}

	// Line flows depend only on valve and nozzle configuration, so they are
	// constant across the tick and safe to integrate against.
	result := Solve(s)
	boost := result.IntakePsi
	if boost < 0 {
		boost = 0
	}

	next.Pump.RPM = slewToward(next.Pump.RPM, governorTargetRPM(next, boost), RPMSlewRate*dt)

	rawPDP := 0.0
	if next.Pump.Engaged {
		rawPDP = clampFloat((next.Pump.RPM-IdleRPM)*PsiPerRPM+boost, 0, MaxPDP)
	}

	bypassTarget, adjustedPDP := DRVResponse(rawPDP, next.Pump.DRV, next.Pump.Engaged)
	next.Pump.DRV.BypassGPM = slewToward(next.Pump.DRV.BypassGPM, bypassTarget, DRVBypassSlewRate*dt)
	next.Pump.PDP = adjustedPDP
	next.Pump.IntakePsi = result.IntakePsi

	// Foam concentrate depletion across flowing foam lines.
	if next.Pump.FoamSystemEnabled && next.Pump.FoamTankGallons > 0 {
		foamGPM := 0.0
		for _, d := range s.Discharges {
			if d.Open > 0 && d.FoamPercent > 0 {
				foamGPM += result.DischargeFlows[d.ID] * d.FoamPercent / 100
			}
		}
		next.Pump.FoamTankGallons -= foamGPM / 60 * dt
		if next.Pump.FoamTankGallons < 0 {
			next.Pump.FoamTankGallons = 0
		}
	}

	next.WaterTankGallons = integrateTank(next, result.TotalGPM, dt)
	next.Pump.TempF = integrateTemp(next, result.TotalGPM, dt)

	return next
}

// governorTargetRPM maps the active governor mode and setpoint onto the RPM
// the engine should chase.
func governorTargetRPM(s State, intakeBoost float64) float64 {
	if !s.Pump.Engaged {
		return IdleRPM
	}
	switch s.Pump.Governor {
	case GovernorRPM:
		return clampFloat(s.Pump.Setpoint, IdleRPM, MaxPumpRPM)
	default:
		// Pressure mode: invert the pump curve for the RPM that develops the
		// target discharge pressure on top of the intake boost.
		needed := s.Pump.Setpoint - intakeBoost
		if needed < 0 {
			needed = 0
		}
		return clampFloat(IdleRPM+needed/PsiPerRPM, IdleRPM, MaxPumpRPM)
	}
}

// DRVResponse returns the steady-state bypass flow target and the relieved
// discharge pressure for the given raw pump pressure. The relief is
// proportional, not perfect: 85% of the overpressure is shed, modeling the
// mechanical response lag of the valve.
func DRVResponse(rawPDP float64, drv ReliefValve, engaged bool) (bypassTargetGPM, adjustedPDP float64) {
	if !engaged || !drv.Enabled || rawPDP <= drv.SetpointPsi {
		return 0, rawPDP
	}
	over := rawPDP - drv.SetpointPsi
	bypassTargetGPM = DRVOverpressureGain * over
	if bypassTargetGPM > DRVBypassMaxGPM {
		bypassTargetGPM = DRVBypassMaxGPM
	}
	adjustedPDP = rawPDP - DRVReliefFraction*over
	if adjustedPDP < drv.SetpointPsi {
		adjustedPDP = drv.SetpointPsi
	}
	return bypassTargetGPM, adjustedPDP
}

// integrateTank applies tank-to-pump draw, tank-fill/recirculation return,
// and the instructor-injected leak over dt.
func integrateTank(s State, totalGPM, dt float64) float64 {
	level := s.WaterTankGallons
	netGPM := 0.0

	if s.Pump.Engaged && s.TankToPumpOpen && s.PrimaryIntake().Source == SourceTank {
		netGPM -= totalGPM
	}
	if s.Pump.Engaged && s.TankFillRecircPct > 0 && s.PrimaryIntake().Source != SourceTank {
		netGPM += s.TankFillRecircPct / 100 * TankFillMaxGPM
	}
	if s.TankLeakActive {
		netGPM -= TankLeakGPM
	}

	level += netGPM / 60 * dt
	return clampFloat(level, 0, s.WaterTankCapacity)
}

// integrateTemp heats the casing while dead-headed and cools it toward
// ambient otherwise, with bounded linear rates.
func integrateTemp(s State, totalGPM, dt float64) float64 {
	deadHeaded := s.Pump.Engaged &&
		totalGPM < coolingFlowGPM &&
		s.TankFillRecircPct < recircCoolingPct &&
		s.Pump.DRV.BypassGPM < coolingFlowGPM
	if deadHeaded {
		temp := s.Pump.TempF + HeatRateFPerSec*dt
		if temp > MaxPumpTempF {
			temp = MaxPumpTempF
		}
		return temp
	}
	return slewToward(s.Pump.TempF, AmbientTemp, CoolRateFPerSec*dt)
}

// slewToward moves current toward target by at most maxStep.
func slewToward(current, target, maxStep float64) float64 {
	if maxStep < 0 {
		maxStep = 0
	}
	diff := target - current
	if diff > maxStep {
		return current + maxStep
	}
	if diff < -maxStep {
		return current - maxStep
	}
	return target
}
