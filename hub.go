// Package server hosts the training hub: it owns the live simulation loop
// and fans panel state out to every connected session.
package server

import (
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"pump-panel/server/internal/net/proto"
	"pump-panel/server/internal/sim"
	"pump-panel/server/internal/telemetry"
	"pump-panel/server/logging"
)

// Role distinguishes the trainee running the panel from the instructor
// injecting failures.
type Role string

const (
	RoleTrainee    Role = "trainee"
	RoleInstructor Role = "instructor"
)

// Action rejection reasons surfaced to clients.
const (
	ActionRejectUnknownSession = "unknown_session"
	ActionRejectForbidden      = "forbidden"
	ActionRejectQueueLimit     = sim.ActionRejectQueueLimit
	ActionRejectQueueFull      = sim.ActionRejectQueueFull
)

// JournalRecorder persists session lifecycles and dispatched actions.
type JournalRecorder interface {
	StartSession(id string, role string, at time.Time) error
	RecordAction(sessionID string, tick uint64, action sim.Action, accepted bool, reason string) error
	EndSession(id string, at time.Time) error
}

// HubDeps carries the hub's injected collaborators. Zero values degrade to
// no-ops so tests can construct hubs with only what they exercise.
type HubDeps struct {
	Logger    telemetry.Logger
	Metrics   *logging.Metrics
	Publisher logging.Publisher
	Clock     logging.Clock
	Journal   JournalRecorder
	RNG       *rand.Rand
}

type sessionState struct {
	ID            string
	Role          Role
	joinedAt      time.Time
	lastHeartbeat time.Time
	lastRTT       time.Duration
}

// Subscriber serializes websocket writes for one connected session.
type Subscriber struct {
	conn    *websocket.Conn
	mu      sync.Mutex
	lastSeq atomic.Uint64
}

// WriteMessage writes a frame under the connection's write lock.
func (s *Subscriber) WriteMessage(messageType int, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(messageType, data)
}

// LastActionSeq reports the highest acknowledged action sequence.
func (s *Subscriber) LastActionSeq() uint64 {
	return s.lastSeq.Load()
}

// StoreLastActionSeq records the highest acknowledged action sequence.
func (s *Subscriber) StoreLastActionSeq(seq uint64) {
	s.lastSeq.Store(seq)
}

// Hub owns the live sessions, their websocket subscribers, and the
// simulation loop driving the apparatus.
type Hub struct {
	mu          sync.Mutex
	config      ApparatusConfig
	sessions    map[string]*sessionState
	subscribers map[string]*Subscriber
	engine      *sim.Engine
	loop        *sim.Loop
	deps        HubDeps
	telemetry   *telemetryCounters
}

// NewHub builds a hub with a fresh apparatus derived from the config.
func NewHub(cfg ApparatusConfig, deps HubDeps) *Hub {
	cfg = cfg.Normalized()
	if deps.Clock == nil {
		deps.Clock = logging.SystemClock{}
	}
	if deps.Publisher == nil {
		deps.Publisher = logging.NopPublisher()
	}
	rng := deps.RNG
	if rng == nil {
		rng = cfg.ScenarioRNG()
	}

	h := &Hub{
		config:      cfg,
		sessions:    make(map[string]*sessionState),
		subscribers: make(map[string]*Subscriber),
		deps:        deps,
		telemetry:   newTelemetryCounters(),
	}

	h.engine = sim.NewEngine(NewApparatusState(cfg), sim.Deps{
		Logger:    deps.Logger,
		Metrics:   telemetry.WrapMetrics(deps.Metrics),
		Clock:     deps.Clock,
		RNG:       rng,
		Publisher: deps.Publisher,
		OnInterlockDenied: func(string, sim.ActionKind, string) {
			h.telemetry.RecordInterlockDenial()
		},
	})
	h.loop = sim.NewLoop(h.engine, sim.LoopConfig{
		TickRate:        tickRate,
		CatchupMaxTicks: cfg.CatchupMaxTicks,
		ActionCapacity:  cfg.ActionCapacity,
		PerSessionLimit: cfg.PerSessionLimit,
		WarningStep:     64,
	}, sim.LoopHooks{
		AfterStep: h.afterStep,
		OnActionDrop: func(reason string, staged sim.StagedAction) {
			h.telemetry.RecordAction(false)
		},
		OnQueueWarning: func(length int) {
			if deps.Logger != nil {
				deps.Logger.Printf("[backpressure] action queue depth %d", length)
			}
		},
	})
	return h
}

// JoinReply is returned to a freshly joined session.
type JoinReply struct {
	ID       string
	Role     Role
	Snapshot sim.Snapshot
}

// Join registers a new session and returns the latest snapshot.
func (h *Hub) Join(role Role) JoinReply {
	if role != RoleInstructor {
		role = RoleTrainee
	}
	now := h.deps.Clock.Now()
	session := &sessionState{
		ID:            uuid.NewString(),
		Role:          role,
		joinedAt:      now,
		lastHeartbeat: now,
	}

	h.mu.Lock()
	h.sessions[session.ID] = session
	h.mu.Unlock()

	if h.deps.Journal != nil {
		if err := h.deps.Journal.StartSession(session.ID, string(role), now); err != nil && h.deps.Logger != nil {
			h.deps.Logger.Printf("journal start failed for %s: %v", session.ID, err)
		}
	}

	return JoinReply{ID: session.ID, Role: role, Snapshot: h.loop.Snapshot()}
}

// Subscribe associates a websocket connection with an existing session.
func (h *Hub) Subscribe(sessionID string, conn *websocket.Conn) (*Subscriber, sim.Snapshot, bool) {
	h.mu.Lock()
	session, ok := h.sessions[sessionID]
	if !ok {
		h.mu.Unlock()
		return nil, sim.Snapshot{}, false
	}
	session.lastHeartbeat = h.deps.Clock.Now()

	if existing, ok := h.subscribers[sessionID]; ok {
		existing.conn.Close()
	}
	sub := &Subscriber{conn: conn}
	h.subscribers[sessionID] = sub
	h.mu.Unlock()

	return sub, h.loop.Snapshot(), true
}

// Disconnect removes a session and closes any active subscriber connection.
func (h *Hub) Disconnect(sessionID string) bool {
	h.mu.Lock()
	sub, subOK := h.subscribers[sessionID]
	if subOK {
		delete(h.subscribers, sessionID)
	}
	_, sessionOK := h.sessions[sessionID]
	if sessionOK {
		delete(h.sessions, sessionID)
	}
	h.mu.Unlock()

	if subOK {
		sub.conn.Close()
	}
	if sessionOK && h.deps.Journal != nil {
		if err := h.deps.Journal.EndSession(sessionID, h.deps.Clock.Now()); err != nil && h.deps.Logger != nil {
			h.deps.Logger.Printf("journal end failed for %s: %v", sessionID, err)
		}
	}
	return sessionOK
}

// Role reports the role registered for a session.
func (h *Hub) Role(sessionID string) (Role, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	session, ok := h.sessions[sessionID]
	if !ok {
		return "", false
	}
	return session.Role, true
}

// Dispatch stages an action for the next simulation step. Scenario
// injections require the instructor role.
func (h *Hub) Dispatch(sessionID string, action sim.Action) (uint64, bool, string) {
	h.mu.Lock()
	session, ok := h.sessions[sessionID]
	var role Role
	if ok {
		role = session.Role
	}
	h.mu.Unlock()

	tick := h.engine.Tick()
	if !ok {
		return tick, false, ActionRejectUnknownSession
	}
	if proto.IsScenarioKind(action.Kind) && role != RoleInstructor {
		h.telemetry.RecordAction(false)
		h.recordJournal(sessionID, tick, action, false, ActionRejectForbidden)
		return tick, false, ActionRejectForbidden
	}

	accepted, reason := h.loop.Enqueue(sim.StagedAction{SessionID: sessionID, Action: action})
	h.telemetry.RecordAction(accepted)
	h.recordJournal(sessionID, tick, action, accepted, reason)
	return tick, accepted, reason
}

func (h *Hub) recordJournal(sessionID string, tick uint64, action sim.Action, accepted bool, reason string) {
	if h.deps.Journal == nil {
		return
	}
	if err := h.deps.Journal.RecordAction(sessionID, tick, action, accepted, reason); err != nil && h.deps.Logger != nil {
		h.deps.Logger.Printf("journal action failed for %s: %v", sessionID, err)
	}
}

// UpdateHeartbeat records the most recent heartbeat time and RTT for a session.
func (h *Hub) UpdateHeartbeat(sessionID string, receivedAt time.Time, clientSent int64) (time.Duration, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	session, ok := h.sessions[sessionID]
	if !ok {
		return 0, false
	}
	session.lastHeartbeat = receivedAt

	if clientSent > 0 {
		clientTime := time.UnixMilli(clientSent)
		if clientTime.Before(receivedAt.Add(5 * time.Second)) {
			rtt := receivedAt.Sub(clientTime)
			if rtt < 0 {
				rtt = 0
			}
			session.lastRTT = rtt
		}
	}
	return session.lastRTT, true
}

// Snapshot returns the latest simulation snapshot.
func (h *Hub) Snapshot() sim.Snapshot {
	return h.loop.Snapshot()
}

// RunSimulation drives the fixed-rate tick loop until the stop channel closes.
func (h *Hub) RunSimulation(stop <-chan struct{}) {
	h.loop.Run(stop)
}

// afterStep broadcasts the freshly solved frame and prunes dead sessions.
func (h *Hub) afterStep(result sim.LoopStepResult) {
	h.telemetry.RecordTickDuration(result.Duration)
	h.pruneStaleSessions(result.Now)

	frame := proto.NewStateFrameV1(result.Snapshot, result.Now.UnixMilli())
	data, err := proto.EncodeStateFrameV1(frame)
	if err != nil {
		if h.deps.Logger != nil {
			h.deps.Logger.Printf("failed to marshal state frame: %v", err)
		}
		return
	}
	h.broadcast(data)
}

func (h *Hub) pruneStaleSessions(now time.Time) {
	var stale []string
	h.mu.Lock()
	for id, session := range h.sessions {
		if now.Sub(session.lastHeartbeat) > disconnectAfter {
			stale = append(stale, id)
		}
	}
	h.mu.Unlock()

	for _, id := range stale {
		if h.deps.Logger != nil {
			h.deps.Logger.Printf("disconnecting %s due to heartbeat timeout", id)
		}
		h.Disconnect(id)
	}
}

// broadcast sends the encoded frame to every subscriber, dropping any whose
// connection fails.
func (h *Hub) broadcast(data []byte) {
	h.mu.Lock()
	subs := make(map[string]*Subscriber, len(h.subscribers))
	for id, sub := range h.subscribers {
		subs[id] = sub
	}
	h.mu.Unlock()

	sent := 0
	for id, sub := range subs {
		if err := sub.WriteMessage(websocket.TextMessage, data); err != nil {
			if h.deps.Logger != nil {
				h.deps.Logger.Printf("failed to send frame to %s: %v", id, err)
			}
			h.Disconnect(id)
			continue
		}
		sent++
	}
	h.telemetry.RecordBroadcast(len(data)*sent, sent)
}

// RecordTelemetryBroadcast accounts for frames written outside the loop,
// such as the initial frame sent on subscribe.
func (h *Hub) RecordTelemetryBroadcast(bytes, frames int) {
	h.telemetry.RecordBroadcast(bytes, frames)
}

// diagnosticsSession exposes heartbeat data for the diagnostics endpoint.
type diagnosticsSession struct {
	ID            string `json:"id"`
	Role          Role   `json:"role"`
	LastHeartbeat int64  `json:"lastHeartbeat"`
	RTTMillis     int64  `json:"rttMillis"`
}

// DiagnosticsSnapshot lists every live session with heartbeat metadata.
func (h *Hub) DiagnosticsSnapshot() []diagnosticsSession {
	h.mu.Lock()
	defer h.mu.Unlock()

	sessions := make([]diagnosticsSession, 0, len(h.sessions))
	for _, session := range h.sessions {
		sessions = append(sessions, diagnosticsSession{
			ID:            session.ID,
			Role:          session.Role,
			LastHeartbeat: session.lastHeartbeat.UnixMilli(),
			RTTMillis:     session.lastRTT.Milliseconds(),
		})
	}
	return sessions
}

// TelemetrySnapshot reports broadcast and action counters.
func (h *Hub) TelemetrySnapshot() telemetrySnapshot {
	return h.telemetry.Snapshot()
}

// CurrentConfig returns the apparatus config the hub was built with.
func (h *Hub) CurrentConfig() ApparatusConfig {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.config
}

// ResetApparatus swaps in a fresh apparatus built from the config, restarts
// the scenario randomness from its seed, and returns the first snapshot.
func (h *Hub) ResetApparatus(cfg ApparatusConfig) sim.Snapshot {
	cfg = cfg.Normalized()
	h.mu.Lock()
	h.config = cfg
	h.mu.Unlock()
	if h.deps.RNG == nil {
		h.engine.Reseed(cfg.ScenarioRNG())
	}
	h.engine.Reset(NewApparatusState(cfg))
	return h.loop.Snapshot()
}
