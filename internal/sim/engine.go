package sim

import (
	"math/rand"
	"sync"

	"pump-panel/server/logging/panel"
)

// EngineCore is the surface the loop drives. Implemented by Engine; the
// indirection keeps the loop testable against stubs.
type EngineCore interface {
	Apply([]StagedAction)
	Step(dt float64)
	Snapshot() Snapshot
	Deps() Deps
}

// Engine is the single owner of the live apparatus state. All mutation goes
// through the reducer; observers only ever see value snapshots.
type Engine struct {
	mu      sync.Mutex
	state   State
	reducer *Reducer
	tick    uint64
	deps    Deps
}

// NewEngine wraps an initial state with a reducer and injected dependencies.
func NewEngine(initial State, deps Deps) *Engine {
	return &Engine{
		state:   initial,
		reducer: NewReducer(deps.RNG),
		deps:    deps,
	}
}

// Deps returns the injected dependencies.
func (e *Engine) Deps() Deps {
	if e == nil {
		return Deps{}
	}
	return e.deps
}

// Apply reduces each staged action in order. Denied actions leave the state
// untouched and publish an interlock event so the panel can explain itself.
func (e *Engine) Apply(staged []StagedAction) {
	if e == nil || len(staged) == 0 {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, entry := range staged {
		if warning := deniedBy(e.state, entry.Action); warning != nil {
			panel.InterlockDenied(e.deps.Publisher, e.tick, entry.SessionID, string(entry.Action.Kind), warning.Detail)
			if e.deps.OnInterlockDenied != nil {
				e.deps.OnInterlockDenied(entry.SessionID, entry.Action.Kind, warning.Detail)
			}
			continue
		}
		if entry.Action.Scenario != nil {
			panel.ScenarioInjected(e.deps.Publisher, e.tick, entry.SessionID, string(entry.Action.Kind))
		}
		e.state = e.reducer.Reduce(e.state, entry.Action)
	}
}

// Step advances simulated time by dt seconds and publishes transition events
// derived from the integration.
func (e *Engine) Step(dt float64) {
	if e == nil || dt <= 0 {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	before := e.state
	e.state = e.reducer.Reduce(e.state, Action{Kind: ActionTick, Tick: &TickAction{Delta: dt}})
	e.tick++

	if before.Pump.DRV.BypassGPM == 0 && e.state.Pump.DRV.BypassGPM > 0 {
		panel.ReliefValveLifted(e.deps.Publisher, e.tick, e.state.Pump.DRV.SetpointPsi, e.state.Pump.DRV.BypassGPM)
	}
	if !before.Primed && e.state.Primed {
		panel.PrimerCompleted(e.deps.Publisher, e.tick)
	}
	if before.Pump.FoamTankGallons > 0 && e.state.Pump.FoamTankGallons == 0 {
		panel.TankDepleted(e.deps.Publisher, e.tick, panel.TankFoam)
	}
	if before.WaterTankGallons > 0 && e.state.WaterTankGallons == 0 {
		panel.TankDepleted(e.deps.Publisher, e.tick, panel.TankWater)
	}
}

// Tick reports the number of completed steps without solving hydraulics.
func (e *Engine) Tick() uint64 {
	if e == nil {
		return 0
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tick
}

// Reset replaces the live state and rewinds the tick counter. Used when an
// instructor restarts the evolution.
func (e *Engine) Reset(initial State) {
	if e == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = initial
	e.tick = 0
}

// Reseed replaces the reducer's randomness source so scenario rolls restart
// from the given stream. Paired with Reset when an evolution is rebuilt.
func (e *Engine) Reseed(rng *rand.Rand) {
	if e == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.deps.RNG = rng
	e.reducer = NewReducer(rng)
}

// Snapshot returns the current tick, a state copy, and its solved
// hydraulics.
func (e *Engine) Snapshot() Snapshot {
	if e == nil {
		return Snapshot{}
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return snapshotOf(e.tick, e.state)
}

// deniedBy returns the interlock warning blocking an action, or nil when the
// action is permitted.
func deniedBy(s State, a Action) *Warning {
	switch a.Kind {
	case ActionSetpoint:
		if !CanAdjustThrottle(s) {
			return InterlockWarning(a.Kind, s)
		}
	case ActionDischargeOpen:
		if !CanOpenDischarge(s) {
			return InterlockWarning(a.Kind, s)
		}
	case ActionFoamPercent:
		if a.Foam != nil && !CanChangeFoam(s, a.Foam.DischargeID) {
			return InterlockWarning(a.Kind, s)
		}
	case ActionGovernorMode:
		if a.Governor != nil && !CanSwitchGovernor(s, a.Governor.Mode) {
			return InterlockWarning(a.Kind, s)
		}
	case ActionPrimerActivate:
		if !CanActivatePrimer(s) {
			return InterlockWarning(a.Kind, s)
		}
	}
	return nil
}

var _ EngineCore = (*Engine)(nil)
