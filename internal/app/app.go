// Package app wires the hub, logging router, journal, and HTTP surface into
// a runnable server process.
package app

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/http/pprof"
	"os"
	"strconv"

	server "pump-panel/server"
	"pump-panel/server/internal/journal"
	servernet "pump-panel/server/internal/net"
	"pump-panel/server/internal/observability"
	"pump-panel/server/internal/telemetry"
	"pump-panel/server/logging"
	loggingSinks "pump-panel/server/logging/sinks"
)

type Config struct {
	Logger        telemetry.Logger
	Observability observability.Config
	Addr          string
	ClientDir     string
	JournalPath   string
}

func Run(ctx context.Context, cfg Config) error {
	telemetryLogger := cfg.Logger
	if telemetryLogger == nil {
		telemetryLogger = telemetry.WrapLogger(log.Default())
	}

	logConfig := logging.DefaultConfig()
	namedSinks := []logging.NamedSink{
		{Name: "console", Sink: loggingSinks.NewConsoleSink(os.Stdout, logConfig.Console)},
	}
	if path := os.Getenv("PANEL_EVENT_LOG"); path != "" {
		file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open event log %s: %w", path, err)
		}
		defer file.Close()
		namedSinks = append(namedSinks, logging.NamedSink{
			Name: "json",
			Sink: loggingSinks.NewJSON(file, logConfig.JSON.FlushInterval),
		})
	}

	router, err := logging.NewRouter(logging.SystemClock{}, logConfig, namedSinks)
	if err != nil {
		return fmt.Errorf("failed to construct logging router: %w", err)
	}
	defer func() {
		if cerr := router.Close(ctx); cerr != nil {
			telemetryLogger.Printf("failed to close logging router: %v", cerr)
		}
	}()

	apparatusCfg := server.DefaultApparatusConfig()
	if raw := os.Getenv("TANK_CAPACITY_GAL"); raw != "" {
		if value, err := strconv.ParseFloat(raw, 64); err == nil {
			apparatusCfg.TankCapacityGal = value
		} else {
			telemetryLogger.Printf("invalid TANK_CAPACITY_GAL=%q: %v", raw, err)
		}
	}
	if raw := os.Getenv("ELEVATION_FT"); raw != "" {
		if value, err := strconv.ParseFloat(raw, 64); err == nil {
			apparatusCfg.ElevationFt = value
		} else {
			telemetryLogger.Printf("invalid ELEVATION_FT=%q: %v", raw, err)
		}
	}
	apparatusCfg = apparatusCfg.Normalized()

	observabilityCfg := cfg.Observability
	if raw := os.Getenv("ENABLE_PPROF_TRACE"); raw != "" {
		if value, err := strconv.ParseBool(raw); err == nil {
			observabilityCfg.EnablePprofTrace = value
		} else {
			telemetryLogger.Printf("invalid ENABLE_PPROF_TRACE=%q: %v", raw, err)
		}
	}

	hubDeps := server.HubDeps{
		Logger:    telemetryLogger,
		Metrics:   &logging.Metrics{},
		Publisher: router,
		Clock:     logging.SystemClock{},
	}

	journalPath := cfg.JournalPath
	if raw := os.Getenv("JOURNAL_PATH"); raw != "" {
		journalPath = raw
	}
	if journalPath != "" {
		store, err := journal.New(journalPath)
		if err != nil {
			return fmt.Errorf("open session journal: %w", err)
		}
		defer func() {
			if cerr := store.Close(); cerr != nil {
				telemetryLogger.Printf("failed to close journal: %v", cerr)
			}
		}()
		hubDeps.Journal = store
	}

	hub := server.NewHub(apparatusCfg, hubDeps)
	stop := make(chan struct{})
	go hub.RunSimulation(stop)
	defer close(stop)

	handler := servernet.NewHTTPHandler(hub, servernet.HTTPHandlerConfig{
		ClientDir: cfg.ClientDir,
	})
	if observabilityCfg.EnablePprofTrace {
		root := http.NewServeMux()
		root.Handle("/", handler)
		root.HandleFunc("/debug/pprof/", pprof.Index)
		root.HandleFunc("/debug/pprof/profile", pprof.Profile)
		root.HandleFunc("/debug/pprof/trace", pprof.Trace)
		handler = root
	}

	addr := cfg.Addr
	if addr == "" {
		addr = ":8080"
	}
	if raw := os.Getenv("ADDR"); raw != "" {
		addr = raw
	}

	srv := &http.Server{Addr: addr, Handler: handler}
	telemetryLogger.Printf("server listening on %s", srv.Addr)

	if err := srv.ListenAndServe(); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}
