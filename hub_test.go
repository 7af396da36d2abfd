package server

import (
	"testing"
	"time"

	"pump-panel/server/internal/sim"
)

type journalCall struct {
	sessionID string
	tick      uint64
	kind      sim.ActionKind
	accepted  bool
	reason    string
}

type stubJournal struct {
	started map[string]string
	ended   []string
	actions []journalCall
}

func newStubJournal() *stubJournal {
	return &stubJournal{started: map[string]string{}}
}

func (j *stubJournal) StartSession(id string, role string, _ time.Time) error {
	j.started[id] = role
	return nil
}

func (j *stubJournal) RecordAction(sessionID string, tick uint64, action sim.Action, accepted bool, reason string) error {
	j.actions = append(j.actions, journalCall{sessionID, tick, action.Kind, accepted, reason})
	return nil
}

func (j *stubJournal) EndSession(id string, _ time.Time) error {
	j.ended = append(j.ended, id)
	return nil
}

func TestHubJoin(t *testing.T) {
	journal := newStubJournal()
	hub := NewHub(ApparatusConfig{}, HubDeps{Journal: journal})

	trainee := hub.Join(RoleTrainee)
	if trainee.ID == "" || trainee.Role != RoleTrainee {
		t.Fatalf("unexpected join reply %+v", trainee)
	}
	if trainee.Snapshot.State.WaterTankGallons != 750 {
		t.Fatalf("expected stock apparatus, got %+v", trainee.Snapshot.State)
	}

	instructor := hub.Join(RoleInstructor)
	if instructor.Role != RoleInstructor {
		t.Fatalf("expected instructor role, got %+v", instructor)
	}
	if instructor.ID == trainee.ID {
		t.Fatal("expected unique session ids")
	}

	if role, ok := hub.Role(trainee.ID); !ok || role != RoleTrainee {
		t.Fatalf("expected trainee role lookup, got %q %v", role, ok)
	}

	if journal.started[trainee.ID] != string(RoleTrainee) || journal.started[instructor.ID] != string(RoleInstructor) {
		t.Fatalf("expected sessions journaled, got %+v", journal.started)
	}
}

func TestHubJoinUnknownRoleDefaultsToTrainee(t *testing.T) {
	hub := NewHub(ApparatusConfig{}, HubDeps{})
	reply := hub.Join(Role("observer"))
	if reply.Role != RoleTrainee {
		t.Fatalf("expected trainee fallback, got %q", reply.Role)
	}
}

func TestHubDispatch(t *testing.T) {
	journal := newStubJournal()
	hub := NewHub(ApparatusConfig{}, HubDeps{Journal: journal})
	trainee := hub.Join(RoleTrainee)
	instructor := hub.Join(RoleInstructor)

	engage := sim.Action{Kind: sim.ActionPumpEngage, Engage: &sim.EngageAction{Engaged: true}}
	leak := sim.Action{Kind: sim.ActionTankLeak, Scenario: &sim.ScenarioAction{}}

	t.Run("unknown session", func(t *testing.T) {
		_, ok, reason := hub.Dispatch("missing", engage)
		if ok || reason != ActionRejectUnknownSession {
			t.Fatalf("expected unknown session rejection, got ok=%v reason=%q", ok, reason)
		}
	})

	t.Run("trainee operator action accepted", func(t *testing.T) {
		_, ok, reason := hub.Dispatch(trainee.ID, engage)
		if !ok || reason != "" {
			t.Fatalf("expected acceptance, got ok=%v reason=%q", ok, reason)
		}
	})

	t.Run("trainee scenario forbidden", func(t *testing.T) {
		_, ok, reason := hub.Dispatch(trainee.ID, leak)
		if ok || reason != ActionRejectForbidden {
			t.Fatalf("expected forbidden rejection, got ok=%v reason=%q", ok, reason)
		}
	})

	t.Run("instructor scenario accepted", func(t *testing.T) {
		_, ok, reason := hub.Dispatch(instructor.ID, leak)
		if !ok || reason != "" {
			t.Fatalf("expected acceptance, got ok=%v reason=%q", ok, reason)
		}
	})

	if len(journal.actions) != 3 {
		t.Fatalf("expected 3 journaled dispatches, got %+v", journal.actions)
	}
	forbidden := journal.actions[1]
	if forbidden.accepted || forbidden.reason != ActionRejectForbidden || forbidden.kind != sim.ActionTankLeak {
		t.Fatalf("expected forbidden dispatch journaled, got %+v", forbidden)
	}

	stats := hub.TelemetrySnapshot()
	if stats.ActionsAccepted != 2 || stats.ActionsRejected != 1 {
		t.Fatalf("unexpected action counters %+v", stats)
	}
}

func TestHubDispatchQueueLimit(t *testing.T) {
	hub := NewHub(ApparatusConfig{PerSessionLimit: 1}, HubDeps{})
	trainee := hub.Join(RoleTrainee)

	engage := sim.Action{Kind: sim.ActionPumpEngage, Engage: &sim.EngageAction{Engaged: true}}
	if _, ok, _ := hub.Dispatch(trainee.ID, engage); !ok {
		t.Fatal("expected first dispatch accepted")
	}
	_, ok, reason := hub.Dispatch(trainee.ID, engage)
	if ok || reason != ActionRejectQueueLimit {
		t.Fatalf("expected throttle, got ok=%v reason=%q", ok, reason)
	}
}

func TestHubScenarioSeedSelectsRolls(t *testing.T) {
	roll := func(t *testing.T, seed string) float64 {
		t.Helper()
		hub := NewHub(ApparatusConfig{Seed: seed}, HubDeps{})
		instructor := hub.Join(RoleInstructor)

		fail := sim.Action{Kind: sim.ActionIntakeFailure, Scenario: &sim.ScenarioAction{IntakeID: "intake-left"}}
		if _, ok, reason := hub.Dispatch(instructor.ID, fail); !ok {
			t.Fatalf("expected scenario staged, got %q", reason)
		}
		result := hub.loop.Advance(sim.LoopTickContext{Tick: 1, Now: time.Now(), Delta: 0.1})
		return result.Snapshot.State.PrimaryIntake().PSI
	}

	first := roll(t, "alpha")
	if again := roll(t, "alpha"); again != first {
		t.Fatalf("expected one seed to repeat its roll, got %f then %f", first, again)
	}
	if other := roll(t, "omega"); other == first {
		t.Fatalf("expected seeds to diverge, both rolled %f", first)
	}
}

func TestHubResetApparatusRestartsScenarioRolls(t *testing.T) {
	hub := NewHub(ApparatusConfig{Seed: "alpha"}, HubDeps{})
	instructor := hub.Join(RoleInstructor)
	fail := sim.Action{Kind: sim.ActionIntakeFailure, Scenario: &sim.ScenarioAction{IntakeID: "intake-left"}}

	roll := func(tick uint64) float64 {
		if _, ok, reason := hub.Dispatch(instructor.ID, fail); !ok {
			t.Fatalf("expected scenario staged, got %q", reason)
		}
		result := hub.loop.Advance(sim.LoopTickContext{Tick: tick, Now: time.Now(), Delta: 0.1})
		return result.Snapshot.State.PrimaryIntake().PSI
	}

	first := roll(1)
	hub.ResetApparatus(ApparatusConfig{Seed: "alpha"})
	if again := roll(1); again != first {
		t.Fatalf("expected reset to replay the seed's rolls, got %f then %f", first, again)
	}
}

func TestHubCountsInterlockDenials(t *testing.T) {
	hub := NewHub(ApparatusConfig{}, HubDeps{})
	trainee := hub.Join(RoleTrainee)

	setpoint := sim.Action{Kind: sim.ActionSetpoint, Setpoint: &sim.SetpointAction{Value: 150}}
	if _, ok, reason := hub.Dispatch(trainee.ID, setpoint); !ok {
		t.Fatalf("expected dispatch staged, got %q", reason)
	}
	hub.loop.Advance(sim.LoopTickContext{Tick: 1, Now: time.Now(), Delta: 0.1})

	stats := hub.TelemetrySnapshot()
	if stats.InterlockDenials != 1 {
		t.Fatalf("expected one interlock denial counted, got %+v", stats)
	}
}

func TestHubUpdateHeartbeat(t *testing.T) {
	hub := NewHub(ApparatusConfig{}, HubDeps{})
	trainee := hub.Join(RoleTrainee)

	now := time.Now()
	rtt, ok := hub.UpdateHeartbeat(trainee.ID, now, now.Add(-50*time.Millisecond).UnixMilli())
	if !ok {
		t.Fatal("expected heartbeat accepted")
	}
	if rtt < 40*time.Millisecond || rtt > 60*time.Millisecond {
		t.Fatalf("unexpected rtt %v", rtt)
	}

	if _, ok := hub.UpdateHeartbeat("missing", now, 0); ok {
		t.Fatal("expected unknown session heartbeat rejected")
	}

	sessions := hub.DiagnosticsSnapshot()
	if len(sessions) != 1 || sessions[0].ID != trainee.ID {
		t.Fatalf("unexpected diagnostics %+v", sessions)
	}
}

func TestHubDisconnect(t *testing.T) {
	journal := newStubJournal()
	hub := NewHub(ApparatusConfig{}, HubDeps{Journal: journal})
	trainee := hub.Join(RoleTrainee)

	if !hub.Disconnect(trainee.ID) {
		t.Fatal("expected disconnect of a live session")
	}
	if hub.Disconnect(trainee.ID) {
		t.Fatal("expected second disconnect to report no session")
	}
	if len(journal.ended) != 1 || journal.ended[0] != trainee.ID {
		t.Fatalf("expected session end journaled, got %+v", journal.ended)
	}
	if _, ok := hub.Role(trainee.ID); ok {
		t.Fatal("expected session removed")
	}
}

func TestHubResetApparatus(t *testing.T) {
	hub := NewHub(ApparatusConfig{}, HubDeps{})

	snapshot := hub.ResetApparatus(ApparatusConfig{TankCapacityGal: 500, ElevationFt: 25})
	if snapshot.State.WaterTankCapacity != 500 || snapshot.State.ElevationFt != 25 {
		t.Fatalf("expected resized apparatus, got %+v", snapshot.State)
	}
	if snapshot.Tick != 0 {
		t.Fatalf("expected tick rewound, got %d", snapshot.Tick)
	}
	if hub.CurrentConfig().TankCapacityGal != 500 {
		t.Fatalf("expected config updated, got %+v", hub.CurrentConfig())
	}
}
