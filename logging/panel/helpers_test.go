package panel

import (
	"context"
	"testing"

	"pump-panel/server/logging"
)

func TestHelpersTolerateNilPublisher(t *testing.T) {
	InterlockDenied(nil, 1, "s1", "Setpoint", "Engage the pump first")
	ScenarioInjected(nil, 1, "s1", "ScenarioTankLeak")
	ReliefValveLifted(nil, 1, 150, 100)
	PrimerCompleted(nil, 1)
	TankDepleted(nil, 1, TankWater)
}

func TestInterlockDenied(t *testing.T) {
	var captured []logging.Event
	pub := logging.PublisherFunc(func(_ context.Context, event logging.Event) {
		captured = append(captured, event)
	})

	InterlockDenied(pub, 42, "s1", "Setpoint", "Engage the pump before adjusting the throttle")

	if len(captured) != 1 {
		t.Fatalf("expected one event, got %d", len(captured))
	}
	event := captured[0]
	if event.Type != EventInterlockDenied || event.Tick != 42 {
		t.Fatalf("unexpected event %+v", event)
	}
	if event.Actor.ID != "s1" || event.Actor.Kind != logging.EntityKindSession {
		t.Fatalf("unexpected actor %+v", event.Actor)
	}
	if event.Severity != logging.SeverityWarn || event.Category != logging.CategoryInterlock {
		t.Fatalf("unexpected classification %+v", event)
	}
	payload, ok := event.Payload.(InterlockDeniedPayload)
	if !ok || payload.ActionKind != "Setpoint" {
		t.Fatalf("unexpected payload %+v", event.Payload)
	}
}

func TestTankDepleted(t *testing.T) {
	var captured []logging.Event
	pub := logging.PublisherFunc(func(_ context.Context, event logging.Event) {
		captured = append(captured, event)
	})

	TankDepleted(pub, 7, TankFoam)

	if len(captured) != 1 || captured[0].Type != EventTankDepleted {
		t.Fatalf("expected tank event, got %+v", captured)
	}
	payload, ok := captured[0].Payload.(TankDepletedPayload)
	if !ok || payload.Tank != TankFoam {
		t.Fatalf("unexpected payload %+v", captured[0].Payload)
	}
}
