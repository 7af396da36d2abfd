package proto

import (
	"encoding/json"
	"fmt"

	"pump-panel/server/internal/sim"
)

const (
	// Version tracks the wire-protocol revision expected by clients.
	Version = 1

	// Type identifiers for websocket payloads.
	typeActionAck    = "actionAck"
	typeActionReject = "actionReject"
	typeHeartbeat    = "heartbeat"
	typeState        = "state"
)

// Client message type identifiers.
const (
	TypeAction    = "action"
	TypeHeartbeat = "heartbeat"
)

// Exported alias for the outbound state frame identifier.
const TypeState = typeState

// ClientMessage captures an inbound websocket message from a panel client.
type ClientMessage struct {
	Ver    int         `json:"ver,omitempty"`
	Type   string      `json:"type"`
	SentAt int64       `json:"sentAt"`
	Seq    *uint64     `json:"seq,omitempty"`
	Action *sim.Action `json:"action,omitempty"`
}

// DecodeClientMessage converts raw websocket payloads into a structured message.
func DecodeClientMessage(payload []byte) (ClientMessage, error) {
	var msg ClientMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return msg, err
	}
	if msg.Ver == 0 {
		msg.Ver = Version
	}
	if msg.Ver != Version {
		return msg, fmt.Errorf("unsupported client protocol version %d", msg.Ver)
	}
	return msg, nil
}

// IsScenarioKind reports whether an action kind is an instructor-only
// failure injection.
func IsScenarioKind(kind sim.ActionKind) bool {
	switch kind {
	case sim.ActionHoseBurst, sim.ActionIntakeFailure, sim.ActionTankLeak, sim.ActionGovernorFailure:
		return true
	default:
		return false
	}
}

// ClientAction extracts the simulation action carried by a websocket message.
// Internal kinds the loop generates itself are refused at the wire.
func ClientAction(msg ClientMessage) (sim.Action, bool) {
	if msg.Type != TypeAction || msg.Action == nil {
		return sim.Action{}, false
	}
	action := *msg.Action
	switch action.Kind {
	case sim.ActionTick, sim.ActionPrimerComplete, sim.ActionPrimerProgress:
		return sim.Action{}, false
	case sim.ActionPumpEngage, sim.ActionGovernorMode, sim.ActionSetpoint,
		sim.ActionDischargeOpen, sim.ActionFoamPercent, sim.ActionFoamSystemEnable,
		sim.ActionWaterSource, sim.ActionTankToPump, sim.ActionPrimerActivate,
		sim.ActionElevation, sim.ActionDRVToggle, sim.ActionDRVSetpoint,
		sim.ActionTankFillRecirc, sim.ActionSetIntakePressure,
		sim.ActionHoseBurst, sim.ActionIntakeFailure, sim.ActionTankLeak,
		sim.ActionGovernorFailure:
		return action, true
	default:
		return sim.Action{}, false
	}
}

// ActionAck describes an acknowledgement of a processed action.
type ActionAck struct {
	Seq  uint64
	Tick uint64
}

// EncodeActionAck renders an action acknowledgement response.
func EncodeActionAck(msg ActionAck) ([]byte, error) {
	frame := struct {
		Ver  int    `json:"ver"`
		Type string `json:"type"`
		Seq  uint64 `json:"seq"`
		Tick uint64 `json:"tick,omitempty"`
	}{
		Ver:  Version,
		Type: typeActionAck,
		Seq:  msg.Seq,
	}
	if msg.Tick > 0 {
		frame.Tick = msg.Tick
	}
	return json.Marshal(frame)
}

// ActionReject notifies the client that an action was refused.
type ActionReject struct {
	Seq    uint64
	Reason string
	Retry  bool
	Tick   uint64
}

// EncodeActionReject renders an action rejection response.
func EncodeActionReject(msg ActionReject) ([]byte, error) {
	frame := struct {
		Ver    int    `json:"ver"`
		Type   string `json:"type"`
		Seq    uint64 `json:"seq"`
		Reason string `json:"reason"`
		Retry  bool   `json:"retry,omitempty"`
		Tick   uint64 `json:"tick,omitempty"`
	}{
		Ver:    Version,
		Type:   typeActionReject,
		Seq:    msg.Seq,
		Reason: msg.Reason,
	}
	if msg.Retry {
		frame.Retry = true
	}
	if msg.Tick > 0 {
		frame.Tick = msg.Tick
	}
	return json.Marshal(frame)
}

// Heartbeat echoes timing metadata back to the client.
type Heartbeat struct {
	ServerTime int64
	ClientTime int64
	RTTMillis  int64
}

// EncodeHeartbeat renders a heartbeat acknowledgement payload.
func EncodeHeartbeat(msg Heartbeat) ([]byte, error) {
	frame := struct {
		Ver        int    `json:"ver"`
		Type       string `json:"type"`
		ServerTime int64  `json:"serverTime"`
		ClientTime int64  `json:"clientTime"`
		RTTMillis  int64  `json:"rtt"`
	}{
		Ver:        Version,
		Type:       typeHeartbeat,
		ServerTime: msg.ServerTime,
		ClientTime: msg.ClientTime,
		RTTMillis:  msg.RTTMillis,
	}
	return json.Marshal(frame)
}

// DischargeGaugeV1 is the per-discharge needle model sent to clients.
type DischargeGaugeV1 struct {
	ID   string        `json:"id"`
	Psi  float64       `json:"psi"`
	Band sim.GaugeBand `json:"band"`
	GPM  float64       `json:"gpm"`
}

// GaugesV1 bundles the panel gauge readings derived from a snapshot.
type GaugesV1 struct {
	Intake     sim.IntakeGauge    `json:"intake"`
	MasterPsi  float64            `json:"masterPsi"`
	MasterBand sim.GaugeBand      `json:"masterBand"`
	Discharges []DischargeGaugeV1 `json:"discharges"`
	Relief     sim.DRVStatus      `json:"relief"`
}

// StateFrameV1 captures the version 1 websocket state payload layout.
type StateFrameV1 struct {
	Ver        int              `json:"ver"`
	Type       string           `json:"type"`
	Tick       uint64           `json:"t"`
	ServerTime int64            `json:"serverTime"`
	State      sim.State        `json:"state"`
	Hydraulics sim.SolverResult `json:"hydraulics"`
	Gauges     GaugesV1         `json:"gauges"`
	Warnings   []string         `json:"warnings"`
}

// ProtoStateFrame tags the struct as a websocket state payload.
func (StateFrameV1) ProtoStateFrame() {}

// NewStateFrameV1 derives the full display frame from a simulation snapshot.
func NewStateFrameV1(snapshot sim.Snapshot, serverTime int64) StateFrameV1 {
	frame := StateFrameV1{
		Type:       typeState,
		Tick:       snapshot.Tick,
		ServerTime: serverTime,
		State:      snapshot.State,
		Hydraulics: snapshot.Result,
		Warnings:   sim.WarningTexts(snapshot.Result.Warnings),
	}

	source := sim.SourceTank
	if len(snapshot.State.Intakes) > 0 {
		source = snapshot.State.PrimaryIntake().Source
	}
	masterPsi := sim.ClampDischargeGauge(snapshot.State.Pump.PDP)
	frame.Gauges = GaugesV1{
		Intake:     sim.IntakeGaugeReading(source, snapshot.Result.IntakePsi),
		MasterPsi:  masterPsi,
		MasterBand: sim.DischargeGaugeBand(snapshot.State.Pump.PDP),
		Relief:     sim.ReliefValveStatus(snapshot.State),
	}
	for _, discharge := range snapshot.State.Discharges {
		psi := 0.0
		if discharge.Open > 0 {
			psi = masterPsi
		}
		frame.Gauges.Discharges = append(frame.Gauges.Discharges, DischargeGaugeV1{
			ID:   discharge.ID,
			Psi:  psi,
			Band: sim.DischargeGaugeBand(psi),
			GPM:  snapshot.Result.DischargeFlows[discharge.ID],
		})
	}
	return frame
}

// EncodeStateFrameV1 renders a versioned state payload.
func EncodeStateFrameV1(msg StateFrameV1) ([]byte, error) {
	if msg.Type == "" {
		msg.Type = typeState
	}
	msg.Ver = Version
	return json.Marshal(msg)
}

// JoinResponseV1 captures the version 1 join response layout.
type JoinResponseV1 struct {
	Ver             int          `json:"ver"`
	ID              string       `json:"id"`
	Role            string       `json:"role"`
	TickRate        int          `json:"tickRate"`
	HeartbeatMillis int64        `json:"heartbeatMillis"`
	Frame           StateFrameV1 `json:"frame"`
}

// ProtoJoinResponse tags the struct as a join response payload.
func (JoinResponseV1) ProtoJoinResponse() {}

// EncodeJoinResponseV1 renders a versioned join response payload.
func EncodeJoinResponseV1(msg JoinResponseV1) ([]byte, error) {
	msg.Ver = Version
	return json.Marshal(msg)
}
