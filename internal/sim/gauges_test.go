package sim

import "testing"

func TestIntakeGaugeReading(t *testing.T) {
	tests := []struct {
		name        string
		source      WaterSource
		intakePsi   float64
		wantValue   float64
		wantUnit    GaugeUnit
		wantWarning bool
	}{
		{"hydrant residual", SourceHydrant, 55, 55, UnitPsi, false},
		{"hydrant low residual", SourceHydrant, 15, 15, UnitPsi, true},
		{"tank never warns", SourceTank, 45, 45, UnitPsi, false},
		{"drafting vacuum", SourceDraft, -15, 15, UnitInHg, false},
		{"approaching maximum lift", SourceDraft, -20, 20, UnitInHg, true},
		{"positive pressure while drafting floors", SourceDraft, 5, 0, UnitInHg, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IntakeGaugeReading(tt.source, tt.intakePsi)
			if got.Value != tt.wantValue || got.Unit != tt.wantUnit || got.Warning != tt.wantWarning {
				t.Fatalf("IntakeGaugeReading = %+v, want {%f %s %v}", got, tt.wantValue, tt.wantUnit, tt.wantWarning)
			}
		})
	}
}

func TestDischargeGaugeBand(t *testing.T) {
	tests := []struct {
		pdp  float64
		want GaugeBand
	}{
		{0, BandNormal},
		{249.9, BandNormal},
		{250, BandHigh},
		{350, BandCaution},
		{400, BandDanger},
		{450, BandDanger},
	}
	for _, tt := range tests {
		if got := DischargeGaugeBand(tt.pdp); got != tt.want {
			t.Fatalf("DischargeGaugeBand(%f) = %q, want %q", tt.pdp, got, tt.want)
		}
	}
}

func TestClampDischargeGauge(t *testing.T) {
	if got := ClampDischargeGauge(450); got != 400 {
		t.Fatalf("expected needle pinned at 400, got %f", got)
	}
	if got := ClampDischargeGauge(-10); got != 0 {
		t.Fatalf("expected needle floored at 0, got %f", got)
	}
	if got := ClampDischargeGauge(180); got != 180 {
		t.Fatalf("expected reading passed through, got %f", got)
	}
}

func TestReliefValveStatus(t *testing.T) {
	s := NewState()
	status := ReliefValveStatus(s)
	if status.Enabled || status.Lifting {
		t.Fatalf("expected idle relief valve, got %+v", status)
	}

	s.Pump.DRV.Enabled = true
	s.Pump.DRV.BypassGPM = 120
	status = ReliefValveStatus(s)
	if !status.Enabled || !status.Lifting || status.BypassGPM != 120 {
		t.Fatalf("expected lifting relief valve, got %+v", status)
	}

	s.Pump.DRV.Enabled = false
	if status := ReliefValveStatus(s); status.Lifting {
		t.Fatalf("expected disabled valve to never report lifting, got %+v", status)
	}
}
