// Package panel publishes pump-panel domain events through the logging
// router. Helpers accept a nil publisher so callers never need to guard.
package panel

import (
	"context"

	"pump-panel/server/logging"
)

const (
	// EventInterlockDenied is emitted when an interlock blocks an operator action.
	EventInterlockDenied logging.EventType = "panel.interlock_denied"
	// EventScenarioInjected is emitted when an instructor injects a failure scenario.
	EventScenarioInjected logging.EventType = "panel.scenario_injected"
	// EventReliefValveLifted is emitted when the discharge relief valve starts bypassing.
	EventReliefValveLifted logging.EventType = "panel.relief_valve_lifted"
	// EventPrimerCompleted is emitted when the priming cycle finishes.
	EventPrimerCompleted logging.EventType = "panel.primer_completed"
	// EventTankDepleted is emitted when an onboard tank runs dry.
	EventTankDepleted logging.EventType = "panel.tank_depleted"
)

// Tank identifies which onboard tank an event refers to.
type Tank string

const (
	TankWater Tank = "water"
	TankFoam  Tank = "foam"
)

// InterlockDeniedPayload captures the action an interlock rejected.
type InterlockDeniedPayload struct {
	ActionKind string `json:"actionKind"`
	Detail     string `json:"detail"`
}

// InterlockDenied publishes a warning when an interlock rejects an action.
func InterlockDenied(pub logging.Publisher, tick uint64, sessionID, actionKind, detail string) {
	if pub == nil {
		return
	}
	pub.Publish(context.Background(), logging.Event{
		Type:     EventInterlockDenied,
		Tick:     tick,
		Actor:    logging.EntityRef{ID: sessionID, Kind: logging.EntityKindSession},
		Severity: logging.SeverityWarn,
		Category: logging.CategoryInterlock,
		Payload:  InterlockDeniedPayload{ActionKind: actionKind, Detail: detail},
	})
}

// ScenarioInjectedPayload names the injected failure.
type ScenarioInjectedPayload struct {
	Kind string `json:"kind"`
}

// ScenarioInjected publishes an info event when an instructor triggers a failure.
func ScenarioInjected(pub logging.Publisher, tick uint64, sessionID, kind string) {
	if pub == nil {
		return
	}
	pub.Publish(context.Background(), logging.Event{
		Type:     EventScenarioInjected,
		Tick:     tick,
		Actor:    logging.EntityRef{ID: sessionID, Kind: logging.EntityKindInstructor},
		Severity: logging.SeverityInfo,
		Category: logging.CategoryScenario,
		Payload:  ScenarioInjectedPayload{Kind: kind},
	})
}

// ReliefValveLiftedPayload captures the relief valve transition.
type ReliefValveLiftedPayload struct {
	SetpointPsi float64 `json:"setpointPsi"`
	BypassGPM   float64 `json:"bypassGpm"`
}

// ReliefValveLifted publishes an info event when bypass flow rises above zero.
func ReliefValveLifted(pub logging.Publisher, tick uint64, setpointPsi, bypassGPM float64) {
	if pub == nil {
		return
	}
	pub.Publish(context.Background(), logging.Event{
		Type:     EventReliefValveLifted,
		Tick:     tick,
		Actor:    logging.EntityRef{Kind: logging.EntityKindPump},
		Severity: logging.SeverityInfo,
		Category: logging.CategoryHydraulics,
		Payload:  ReliefValveLiftedPayload{SetpointPsi: setpointPsi, BypassGPM: bypassGPM},
	})
}

// PrimerCompleted publishes an info event when priming finishes.
func PrimerCompleted(pub logging.Publisher, tick uint64) {
	if pub == nil {
		return
	}
	pub.Publish(context.Background(), logging.Event{
		Type:     EventPrimerCompleted,
		Tick:     tick,
		Actor:    logging.EntityRef{Kind: logging.EntityKindPump},
		Severity: logging.SeverityInfo,
		Category: logging.CategoryHydraulics,
	})
}

// TankDepletedPayload names the tank that ran dry.
type TankDepletedPayload struct {
	Tank Tank `json:"tank"`
}

// TankDepleted publishes a warning when a tank empties.
func TankDepleted(pub logging.Publisher, tick uint64, tank Tank) {
	if pub == nil {
		return
	}
	pub.Publish(context.Background(), logging.Event{
		Type:     EventTankDepleted,
		Tick:     tick,
		Actor:    logging.EntityRef{Kind: logging.EntityKindPump},
		Severity: logging.SeverityWarn,
		Category: logging.CategoryHydraulics,
		Payload:  TankDepletedPayload{Tank: tank},
	})
}
