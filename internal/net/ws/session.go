package ws

import (
	"time"

	"github.com/gorilla/websocket"

	"pump-panel/server"
	"pump-panel/server/internal/net/proto"
)

type subscription interface {
	WriteMessage(messageType int, data []byte) error
	LastActionSeq() uint64
	StoreLastActionSeq(seq uint64)
}

// serve runs the read loop for one subscribed panel session.
func (h *Handler) serve(sessionID string, conn *websocket.Conn) {
	sub, snapshot, ok := h.hub.Subscribe(sessionID, conn)
	if !ok {
		message := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "unknown session")
		conn.WriteMessage(websocket.CloseMessage, message)
		conn.Close()
		return
	}

	session := subscription(sub)

	frame := proto.NewStateFrameV1(snapshot, time.Now().UnixMilli())
	data, err := proto.EncodeStateFrameV1(frame)
	if err != nil {
		h.logger.Printf("failed to marshal initial frame for %s: %v", sessionID, err)
		h.hub.Disconnect(sessionID)
		return
	}
	if err := session.WriteMessage(websocket.TextMessage, data); err != nil {
		h.hub.Disconnect(sessionID)
		return
	}
	h.hub.RecordTelemetryBroadcast(len(data), 1)

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			h.hub.Disconnect(sessionID)
			return
		}

		msg, err := proto.DecodeClientMessage(payload)
		if err != nil {
			h.logger.Printf("discarding malformed message from %s: %v", sessionID, err)
			continue
		}

		normalizedSeq := uint64(0)
		if msg.Seq != nil && *msg.Seq > 0 {
			normalizedSeq = *msg.Seq
		}

		writeFrame := func(data []byte, err error) bool {
			if err != nil {
				h.logger.Printf("failed to marshal response for %s: %v", sessionID, err)
				return true
			}
			if err := session.WriteMessage(websocket.TextMessage, data); err != nil {
				h.hub.Disconnect(sessionID)
				return false
			}
			return true
		}

		sendDuplicateAck := func() bool {
			if normalizedSeq == 0 {
				return true
			}
			return writeFrame(proto.EncodeActionAck(proto.ActionAck{Seq: normalizedSeq}))
		}

		sendActionAck := func(tick uint64) bool {
			if normalizedSeq == 0 {
				return true
			}
			if !writeFrame(proto.EncodeActionAck(proto.ActionAck{Seq: normalizedSeq, Tick: tick})) {
				return false
			}
			session.StoreLastActionSeq(normalizedSeq)
			return true
		}

		sendActionReject := func(reason string, retry bool, tick uint64) bool {
			if normalizedSeq == 0 {
				return true
			}
			return writeFrame(proto.EncodeActionReject(proto.ActionReject{
				Seq:    normalizedSeq,
				Reason: reason,
				Retry:  retry,
				Tick:   tick,
			}))
		}

		switch msg.Type {
		case proto.TypeAction:
			action, ok := proto.ClientAction(msg)
			if !ok {
				h.logger.Printf("unsupported action from %s", sessionID)
				if !sendActionReject("invalid_action", false, 0) {
					return
				}
				continue
			}
			if normalizedSeq > 0 {
				if last := session.LastActionSeq(); last > 0 && normalizedSeq <= last {
					if !sendDuplicateAck() {
						return
					}
					continue
				}
			}
			tick, accepted, reason := h.hub.Dispatch(sessionID, action)
			if accepted {
				if !sendActionAck(tick) {
					return
				}
			} else {
				retry := reason == server.ActionRejectQueueLimit
				if !sendActionReject(reason, retry, tick) {
					return
				}
				if reason == server.ActionRejectUnknownSession {
					h.logger.Printf("action ignored for unknown session %s", sessionID)
				}
			}
		case proto.TypeHeartbeat:
			now := time.Now()
			rtt, ok := h.hub.UpdateHeartbeat(sessionID, now, msg.SentAt)
			if !ok {
				continue
			}
			if !writeFrame(proto.EncodeHeartbeat(proto.Heartbeat{
				ServerTime: now.UnixMilli(),
				ClientTime: msg.SentAt,
				RTTMillis:  rtt.Milliseconds(),
			})) {
				return
			}
		default:
			h.logger.Printf("unknown message type %q from %s", msg.Type, sessionID)
		}
	}
}
