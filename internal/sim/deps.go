package sim

import (
	"math/rand"

	"pump-panel/server/internal/telemetry"
	"pump-panel/server/logging"
)

// Deps carries the shared infrastructure dependencies injected into the
// simulation engine. Any field may be nil; the engine falls back to inert
// defaults so tests can construct engines with zero wiring.
type Deps struct {
	Logger    telemetry.Logger
	Metrics   telemetry.Metrics
	Clock     logging.Clock
	RNG       *rand.Rand
	Publisher logging.Publisher

	// OnInterlockDenied fires after the engine refuses a gated action and
	// publishes the denial event.
	OnInterlockDenied func(sessionID string, kind ActionKind, detail string)
}
