package server

import "testing"

func TestApparatusConfigNormalized(t *testing.T) {
	cfg := ApparatusConfig{}.Normalized()

	if cfg.Seed != "drill" {
		t.Fatalf("expected default seed, got %q", cfg.Seed)
	}
	if cfg.TankCapacityGal != 750 || cfg.FoamCapacityGal != 30 {
		t.Fatalf("expected stock tank capacities, got %+v", cfg)
	}
	if cfg.ActionCapacity != 256 || cfg.PerSessionLimit != 32 || cfg.CatchupMaxTicks != 5 {
		t.Fatalf("expected loop defaults, got %+v", cfg)
	}

	custom := ApparatusConfig{
		TankCapacityGal: 1000,
		Seed:            "  night-drill  ",
		PerSessionLimit: 8,
	}.Normalized()
	if custom.TankCapacityGal != 1000 || custom.Seed != "night-drill" || custom.PerSessionLimit != 8 {
		t.Fatalf("expected overrides preserved, got %+v", custom)
	}
}

func TestScenarioRNG(t *testing.T) {
	first := ApparatusConfig{Seed: "alpha"}.ScenarioRNG()
	twin := ApparatusConfig{Seed: "alpha"}.ScenarioRNG()
	if first.Int63() != twin.Int63() {
		t.Fatal("expected one seed to yield one stream")
	}

	other := ApparatusConfig{Seed: "omega"}.ScenarioRNG()
	fresh := ApparatusConfig{Seed: "alpha"}.ScenarioRNG()
	if other.Int63() == fresh.Int63() {
		t.Fatal("expected distinct seeds to yield distinct streams")
	}
}

func TestNewApparatusState(t *testing.T) {
	cfg := ApparatusConfig{
		TankCapacityGal: 500,
		FoamCapacityGal: 20,
		ElevationFt:     40,
	}.Normalized()

	state := NewApparatusState(cfg)
	if state.WaterTankCapacity != 500 || state.WaterTankGallons != 500 {
		t.Fatalf("expected tank sized to config, got %+v", state)
	}
	if state.Pump.FoamTankCapacity != 20 || state.Pump.FoamTankGallons != 20 {
		t.Fatalf("expected foam tank sized to config, got %+v", state.Pump)
	}
	if state.ElevationFt != 40 {
		t.Fatalf("expected elevation applied, got %f", state.ElevationFt)
	}
	if state.Pump.Engaged || len(state.Discharges) != 4 {
		t.Fatalf("expected stock panel layout, got %+v", state)
	}
}
