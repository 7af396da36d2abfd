package server

import (
	"hash/fnv"
	"math/rand"
	"strings"

	"pump-panel/server/internal/sim"
)

const defaultScenarioSeed = "drill"

// ApparatusConfig captures the knobs used when standing up an apparatus.
type ApparatusConfig struct {
	TankCapacityGal float64 `json:"tankCapacityGal"`
	FoamCapacityGal float64 `json:"foamCapacityGal"`
	ElevationFt     float64 `json:"elevationFt"`
	Seed            string  `json:"seed"`
	ActionCapacity  int     `json:"actionCapacity"`
	PerSessionLimit int     `json:"perSessionLimit"`
	CatchupMaxTicks int     `json:"catchupMaxTicks"`
}

// Normalized returns a config with defaults applied.
func (cfg ApparatusConfig) Normalized() ApparatusConfig {
	normalized := cfg
	normalized.Seed = strings.TrimSpace(normalized.Seed)
	if normalized.Seed == "" {
		normalized.Seed = defaultScenarioSeed
	}
	if normalized.TankCapacityGal <= 0 {
		normalized.TankCapacityGal = sim.NewState().WaterTankCapacity
	}
	if normalized.FoamCapacityGal <= 0 {
		normalized.FoamCapacityGal = sim.NewState().Pump.FoamTankCapacity
	}
	if normalized.ActionCapacity <= 0 {
		normalized.ActionCapacity = 256
	}
	if normalized.PerSessionLimit <= 0 {
		normalized.PerSessionLimit = 32
	}
	if normalized.CatchupMaxTicks <= 0 {
		normalized.CatchupMaxTicks = 5
	}
	return normalized
}

// ScenarioRNG derives the randomness source consumed by scenario injections
// from the seed, so two drills sharing a seed roll identical failures.
func (cfg ApparatusConfig) ScenarioRNG() *rand.Rand {
	hasher := fnv.New64a()
	hasher.Write([]byte(cfg.Seed))
	return rand.New(rand.NewSource(int64(hasher.Sum64())))
}

// DefaultApparatusConfig mirrors a type 1 engine with a 750 gallon tank.
func DefaultApparatusConfig() ApparatusConfig {
	return ApparatusConfig{Seed: defaultScenarioSeed}.Normalized()
}

// NewApparatusState builds the initial panel state for the config.
func NewApparatusState(cfg ApparatusConfig) sim.State {
	state := sim.NewState()
	state.WaterTankCapacity = cfg.TankCapacityGal
	state.WaterTankGallons = cfg.TankCapacityGal
	state.Pump.FoamTankCapacity = cfg.FoamCapacityGal
	state.Pump.FoamTankGallons = cfg.FoamCapacityGal
	state.ElevationFt = cfg.ElevationFt
	return state
}
