package server

import "time"

const (
	ProtocolVersion   = 1
	writeWait         = 10 * time.Second
	tickRate          = 10 // simulation steps per second
	heartbeatInterval = 2 * time.Second
	disconnectAfter   = 3 * heartbeatInterval
)

// TickRate reports the simulation cadence in steps per second.
func TickRate() int {
	return tickRate
}

// HeartbeatInterval reports the expected client heartbeat cadence.
func HeartbeatInterval() time.Duration {
	return heartbeatInterval
}

// DisconnectAfter reports how long a silent session survives before the hub
// drops it.
func DisconnectAfter() time.Duration {
	return disconnectAfter
}
