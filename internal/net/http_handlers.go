package net

import (
	"encoding/json"
	"io"
	"log"
	nethttp "net/http"
	"time"

	"pump-panel/server"
	"pump-panel/server/internal/net/proto"
	"pump-panel/server/internal/net/ws"
)

type HTTPHandlerConfig struct {
	ClientDir string
	Logger    *log.Logger
}

// NewHTTPHandler assembles the panel's HTTP surface: join, websocket,
// diagnostics, and the instructor reset endpoint.
func NewHTTPHandler(hub *server.Hub, cfg HTTPHandlerConfig) nethttp.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	mux := nethttp.NewServeMux()

	mux.HandleFunc("/health", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("ok"))
	})

	mux.HandleFunc("/diagnostics", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		payload := struct {
			Status     string `json:"status"`
			ServerTime int64  `json:"serverTime"`
			Sessions   any    `json:"sessions"`
			TickRate   int    `json:"tickRate"`
			Heartbeat  int64  `json:"heartbeatMillis"`
			Telemetry  any    `json:"telemetry"`
		}{
			Status:     "ok",
			ServerTime: time.Now().UnixMilli(),
			Sessions:   hub.DiagnosticsSnapshot(),
			TickRate:   server.TickRate(),
			Heartbeat:  server.HeartbeatInterval().Milliseconds(),
			Telemetry:  hub.TelemetrySnapshot(),
		}

		data, err := json.Marshal(payload)
		if err != nil {
			httpError(w, "failed to encode", nethttp.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
	})

	mux.HandleFunc("/join", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.Method != nethttp.MethodPost {
			httpError(w, "method not allowed", nethttp.StatusMethodNotAllowed)
			return
		}

		role := server.Role(r.URL.Query().Get("role"))
		if r.Body != nil {
			defer r.Body.Close()
			var req struct {
				Role string `json:"role"`
			}
			decoder := json.NewDecoder(r.Body)
			if err := decoder.Decode(&req); err != nil && err != io.EOF {
				httpError(w, "invalid payload", nethttp.StatusBadRequest)
				return
			}
			if req.Role != "" {
				role = server.Role(req.Role)
			}
		}

		reply := hub.Join(role)
		response := proto.JoinResponseV1{
			ID:              reply.ID,
			Role:            string(reply.Role),
			TickRate:        server.TickRate(),
			HeartbeatMillis: server.HeartbeatInterval().Milliseconds(),
			Frame:           proto.NewStateFrameV1(reply.Snapshot, time.Now().UnixMilli()),
		}
		data, err := proto.EncodeJoinResponseV1(response)
		if err != nil {
			httpError(w, "failed to encode", nethttp.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
	})

	mux.HandleFunc("/apparatus/reset", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.Method != nethttp.MethodPost {
			httpError(w, "method not allowed", nethttp.StatusMethodNotAllowed)
			return
		}

		cfg := hub.CurrentConfig()

		type resetRequest struct {
			TankCapacityGal *float64 `json:"tankCapacityGal"`
			FoamCapacityGal *float64 `json:"foamCapacityGal"`
			ElevationFt     *float64 `json:"elevationFt"`
			Seed            *string  `json:"seed"`
		}

		if r.Body != nil {
			defer r.Body.Close()
			var req resetRequest
			decoder := json.NewDecoder(r.Body)
			if err := decoder.Decode(&req); err != nil && err != io.EOF {
				httpError(w, "invalid payload", nethttp.StatusBadRequest)
				return
			}
			if req.TankCapacityGal != nil {
				cfg.TankCapacityGal = *req.TankCapacityGal
			}
			if req.FoamCapacityGal != nil {
				cfg.FoamCapacityGal = *req.FoamCapacityGal
			}
			if req.ElevationFt != nil {
				cfg.ElevationFt = *req.ElevationFt
			}
			if req.Seed != nil {
				cfg.Seed = *req.Seed
			}
		}

		cfg = cfg.Normalized()
		snapshot := hub.ResetApparatus(cfg)

		response := struct {
			Status string             `json:"status"`
			Config any                `json:"config"`
			Frame  proto.StateFrameV1 `json:"frame"`
		}{
			Status: "ok",
			Config: cfg,
			Frame:  proto.NewStateFrameV1(snapshot, time.Now().UnixMilli()),
		}

		data, err := json.Marshal(response)
		if err != nil {
			httpError(w, "failed to encode", nethttp.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
	})

	wsHandler := ws.NewHandler(hub, ws.HandlerConfig{Logger: logger})
	mux.HandleFunc("/ws", wsHandler.Handle)

	if cfg.ClientDir != "" {
		fs := nethttp.FileServer(nethttp.Dir(cfg.ClientDir))
		mux.Handle("/", fs)
	}

	return mux
}

func httpError(w nethttp.ResponseWriter, msg string, code int) {
	nethttp.Error(w, msg, code)
}
