package server

import (
	"fmt"
	"os"
	"sync/atomic"
	"time"
)

type telemetryCounters struct {
	bytesSent          atomic.Uint64
	framesSent         atomic.Uint64
	tickDurationMillis atomic.Int64
	lastBroadcastBytes atomic.Uint64
	actionsAccepted    atomic.Uint64
	actionsRejected    atomic.Uint64
	interlockDenials   atomic.Uint64
	debug              bool
}

type telemetrySnapshot struct {
	BytesSent        uint64 `json:"bytesSent"`
	FramesSent       uint64 `json:"framesSent"`
	TickDuration     int64  `json:"tickDurationMillis"`
	ActionsAccepted  uint64 `json:"actionsAccepted"`
	ActionsRejected  uint64 `json:"actionsRejected"`
	InterlockDenials uint64 `json:"interlockDenials"`
}

func newTelemetryCounters() *telemetryCounters {
	t := &telemetryCounters{}
	if os.Getenv("DEBUG_TELEMETRY") == "1" {
		t.debug = true
	}
	return t
}

func (t *telemetryCounters) RecordBroadcast(bytes, frames int) {
	if bytes < 0 {
		bytes = 0
	}
	if frames < 0 {
		frames = 0
	}
	t.bytesSent.Add(uint64(bytes))
	t.framesSent.Add(uint64(frames))
	t.lastBroadcastBytes.Store(uint64(bytes))
}

func (t *telemetryCounters) RecordTickDuration(duration time.Duration) {
	millis := duration.Milliseconds()
	if millis < 0 {
		millis = 0
	}
	t.tickDurationMillis.Store(millis)
	if t.debug {
		fmt.Printf(
			"[telemetry] tick=%dms bytes=%d totalBytes=%d frames=%d\n",
			millis,
			t.lastBroadcastBytes.Load(),
			t.bytesSent.Load(),
			t.framesSent.Load(),
		)
	}
}

func (t *telemetryCounters) RecordAction(accepted bool) {
	if accepted {
		t.actionsAccepted.Add(1)
	} else {
		t.actionsRejected.Add(1)
	}
}

func (t *telemetryCounters) RecordInterlockDenial() {
	t.interlockDenials.Add(1)
}

func (t *telemetryCounters) DebugEnabled() bool {
	return t.debug
}

func (t *telemetryCounters) Snapshot() telemetrySnapshot {
	return telemetrySnapshot{
		BytesSent:        t.bytesSent.Load(),
		FramesSent:       t.framesSent.Load(),
		TickDuration:     t.tickDurationMillis.Load(),
		ActionsAccepted:  t.actionsAccepted.Load(),
		ActionsRejected:  t.actionsRejected.Load(),
		InterlockDenials: t.interlockDenials.Load(),
	}
}
