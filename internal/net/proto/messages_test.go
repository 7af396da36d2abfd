package proto

import (
	"encoding/json"
	"testing"

	"pump-panel/server/internal/sim"
)

func TestDecodeClientMessage(t *testing.T) {
	t.Run("version defaults to current", func(t *testing.T) {
		msg, err := DecodeClientMessage([]byte(`{"type":"heartbeat","sentAt":123}`))
		if err != nil {
			t.Fatalf("decode failed: %v", err)
		}
		if msg.Ver != Version || msg.Type != TypeHeartbeat || msg.SentAt != 123 {
			t.Fatalf("unexpected message %+v", msg)
		}
	})

	t.Run("unsupported version rejected", func(t *testing.T) {
		if _, err := DecodeClientMessage([]byte(`{"ver":2,"type":"action"}`)); err == nil {
			t.Fatal("expected version error")
		}
	})

	t.Run("malformed json rejected", func(t *testing.T) {
		if _, err := DecodeClientMessage([]byte(`{`)); err == nil {
			t.Fatal("expected decode error")
		}
	})

	t.Run("action payload decodes", func(t *testing.T) {
		raw := `{"type":"action","seq":7,"action":{"kind":"DischargeOpen","discharge":{"dischargeId":"xlay1","open":0.5}}}`
		msg, err := DecodeClientMessage([]byte(raw))
		if err != nil {
			t.Fatalf("decode failed: %v", err)
		}
		if msg.Seq == nil || *msg.Seq != 7 {
			t.Fatalf("expected seq 7, got %+v", msg.Seq)
		}
		if msg.Action == nil || msg.Action.Kind != sim.ActionDischargeOpen {
			t.Fatalf("unexpected action %+v", msg.Action)
		}
		if msg.Action.Discharge == nil || msg.Action.Discharge.Open != 0.5 {
			t.Fatalf("unexpected discharge payload %+v", msg.Action.Discharge)
		}
	})
}

func TestClientAction(t *testing.T) {
	tests := []struct {
		name string
		msg  ClientMessage
		want bool
	}{
		{
			name: "operator action allowed",
			msg:  ClientMessage{Type: TypeAction, Action: &sim.Action{Kind: sim.ActionPumpEngage, Engage: &sim.EngageAction{Engaged: true}}},
			want: true,
		},
		{
			name: "scenario action allowed",
			msg:  ClientMessage{Type: TypeAction, Action: &sim.Action{Kind: sim.ActionHoseBurst, Scenario: &sim.ScenarioAction{LineID: "xlay1"}}},
			want: true,
		},
		{
			name: "tick refused at the wire",
			msg:  ClientMessage{Type: TypeAction, Action: &sim.Action{Kind: sim.ActionTick, Tick: &sim.TickAction{Delta: 100}}},
			want: false,
		},
		{
			name: "primer completion refused at the wire",
			msg:  ClientMessage{Type: TypeAction, Action: &sim.Action{Kind: sim.ActionPrimerComplete}},
			want: false,
		},
		{
			name: "unknown kind refused",
			msg:  ClientMessage{Type: TypeAction, Action: &sim.Action{Kind: sim.ActionKind("Bogus")}},
			want: false,
		},
		{
			name: "missing action payload",
			msg:  ClientMessage{Type: TypeAction},
			want: false,
		},
		{
			name: "wrong message type",
			msg:  ClientMessage{Type: TypeHeartbeat, Action: &sim.Action{Kind: sim.ActionPumpEngage}},
			want: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, ok := ClientAction(tt.msg); ok != tt.want {
				t.Fatalf("ClientAction ok=%v, want %v", ok, tt.want)
			}
		})
	}
}

func TestIsScenarioKind(t *testing.T) {
	if !IsScenarioKind(sim.ActionTankLeak) {
		t.Fatal("expected tank leak to be a scenario kind")
	}
	if IsScenarioKind(sim.ActionPumpEngage) {
		t.Fatal("expected engage to be an operator kind")
	}
}

func TestEncodeActionAck(t *testing.T) {
	data, err := EncodeActionAck(ActionAck{Seq: 9, Tick: 120})
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("round trip failed: %v", err)
	}
	if decoded["type"] != "actionAck" || decoded["seq"] != float64(9) || decoded["tick"] != float64(120) {
		t.Fatalf("unexpected ack %v", decoded)
	}

	data, _ = EncodeActionAck(ActionAck{Seq: 9})
	decoded = map[string]any{}
	json.Unmarshal(data, &decoded)
	if _, present := decoded["tick"]; present {
		t.Fatalf("expected tick omitted at zero, got %v", decoded)
	}
}

func TestEncodeActionReject(t *testing.T) {
	data, err := EncodeActionReject(ActionReject{Seq: 3, Reason: "queue_limit", Retry: true})
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("round trip failed: %v", err)
	}
	if decoded["type"] != "actionReject" || decoded["reason"] != "queue_limit" || decoded["retry"] != true {
		t.Fatalf("unexpected reject %v", decoded)
	}
}

func TestNewStateFrameV1(t *testing.T) {
	state := sim.NewState()
	state.Pump.Engaged = true
	state.Discharges[0].Open = 1
	engine := sim.NewEngine(state, sim.Deps{})
	engine.Step(0.1)
	snapshot := engine.Snapshot()

	frame := NewStateFrameV1(snapshot, 12345)

	if frame.Type != TypeState || frame.Tick != snapshot.Tick || frame.ServerTime != 12345 {
		t.Fatalf("unexpected frame envelope %+v", frame)
	}
	if frame.Gauges.Intake.Unit != sim.UnitPsi {
		t.Fatalf("expected hydrant intake in PSI, got %+v", frame.Gauges.Intake)
	}
	if len(frame.Gauges.Discharges) != len(state.Discharges) {
		t.Fatalf("expected a gauge per discharge, got %d", len(frame.Gauges.Discharges))
	}

	var open, closed *DischargeGaugeV1
	for i := range frame.Gauges.Discharges {
		switch frame.Gauges.Discharges[i].ID {
		case "xlay1":
			open = &frame.Gauges.Discharges[i]
		case "d25":
			closed = &frame.Gauges.Discharges[i]
		}
	}
	if open == nil || closed == nil {
		t.Fatalf("missing discharge gauges in %+v", frame.Gauges.Discharges)
	}
	if open.GPM != 150 || open.Psi != frame.Gauges.MasterPsi {
		t.Fatalf("unexpected open discharge gauge %+v", open)
	}
	if closed.Psi != 0 || closed.GPM != 0 {
		t.Fatalf("expected closed discharge to read zero, got %+v", closed)
	}
}

func TestEncodeStateFrameV1(t *testing.T) {
	snapshot := sim.NewEngine(sim.NewState(), sim.Deps{}).Snapshot()
	data, err := EncodeStateFrameV1(NewStateFrameV1(snapshot, 1))
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("round trip failed: %v", err)
	}
	if decoded["ver"] != float64(Version) || decoded["type"] != "state" {
		t.Fatalf("unexpected envelope %v", decoded)
	}
	warnings, ok := decoded["warnings"].([]any)
	if !ok || len(warnings) != 1 || warnings[0] != "Pump not engaged" {
		t.Fatalf("expected idle advisory, got %v", decoded["warnings"])
	}
}

func TestEncodeJoinResponseV1(t *testing.T) {
	snapshot := sim.NewEngine(sim.NewState(), sim.Deps{}).Snapshot()
	data, err := EncodeJoinResponseV1(JoinResponseV1{
		ID:              "abc",
		Role:            "trainee",
		TickRate:        10,
		HeartbeatMillis: 2000,
		Frame:           NewStateFrameV1(snapshot, 1),
	})
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("round trip failed: %v", err)
	}
	if decoded["ver"] != float64(Version) || decoded["id"] != "abc" || decoded["role"] != "trainee" {
		t.Fatalf("unexpected join response %v", decoded)
	}
}
