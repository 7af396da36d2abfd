package logging_test

import (
	"context"
	"testing"
	"time"

	"pump-panel/server/logging"
	"pump-panel/server/logging/sinks"
)

func newTestRouter(t *testing.T, cfg logging.Config) (*logging.Router, *sinks.MemorySink) {
	t.Helper()
	memory := sinks.NewMemorySink()
	router, err := logging.NewRouter(logging.SystemClock{}, cfg, []logging.NamedSink{
		{Name: "memory", Sink: memory},
	})
	if err != nil {
		t.Fatalf("new router: %v", err)
	}
	return router, memory
}

func closeRouter(t *testing.T, router *logging.Router) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := router.Close(ctx); err != nil {
		t.Fatalf("close router: %v", err)
	}
}

func TestRouterDeliversToSink(t *testing.T) {
	router, memory := newTestRouter(t, logging.DefaultConfig())

	for i := 0; i < 3; i++ {
		router.Publish(context.Background(), logging.Event{
			Type:     "panel.test",
			Tick:     uint64(i),
			Severity: logging.SeverityInfo,
		})
	}
	closeRouter(t, router)

	events := memory.Events()
	if len(events) != 3 {
		t.Fatalf("expected 3 delivered events, got %d", len(events))
	}
	for i, event := range events {
		if event.Tick != uint64(i) {
			t.Fatalf("expected delivery order preserved, got %+v", events)
		}
		if event.Time.IsZero() {
			t.Fatalf("expected router to stamp time, got %+v", event)
		}
	}

	stats := router.Stats()
	if stats.EventsTotal != 3 || stats.DroppedTotal != 0 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestRouterSeverityFilter(t *testing.T) {
	cfg := logging.DefaultConfig()
	cfg.MinimumSeverity = logging.SeverityWarn
	router, memory := newTestRouter(t, cfg)

	router.Publish(context.Background(), logging.Event{Type: "panel.debug", Severity: logging.SeverityInfo})
	router.Publish(context.Background(), logging.Event{Type: "panel.warn", Severity: logging.SeverityWarn})
	closeRouter(t, router)

	events := memory.Events()
	if len(events) != 1 || events[0].Type != "panel.warn" {
		t.Fatalf("expected only warn-level events, got %+v", events)
	}
}

func TestRouterGlobalFields(t *testing.T) {
	cfg := logging.DefaultConfig()
	cfg.Fields = map[string]any{"apparatus": "engine-1"}
	router, memory := newTestRouter(t, cfg)

	router.Publish(context.Background(), logging.Event{Type: "panel.test", Severity: logging.SeverityInfo})
	router.Publish(context.Background(), logging.Event{
		Type:     "panel.override",
		Severity: logging.SeverityInfo,
		Extra:    map[string]any{"apparatus": "engine-2"},
	})
	closeRouter(t, router)

	events := memory.Events()
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Extra["apparatus"] != "engine-1" {
		t.Fatalf("expected global field attached, got %+v", events[0].Extra)
	}
	if events[1].Extra["apparatus"] != "engine-2" {
		t.Fatalf("expected per-event value preserved, got %+v", events[1].Extra)
	}
}

func TestRouterIgnoresUntypedEvents(t *testing.T) {
	router, memory := newTestRouter(t, logging.DefaultConfig())

	router.Publish(context.Background(), logging.Event{Severity: logging.SeverityInfo})
	closeRouter(t, router)

	if events := memory.Events(); len(events) != 0 {
		t.Fatalf("expected untyped events ignored, got %+v", events)
	}
}

func TestRouterPublishAfterClose(t *testing.T) {
	router, memory := newTestRouter(t, logging.DefaultConfig())
	closeRouter(t, router)

	router.Publish(context.Background(), logging.Event{Type: "panel.late", Severity: logging.SeverityInfo})
	if events := memory.Events(); len(events) != 0 {
		t.Fatalf("expected no delivery after close, got %+v", events)
	}
}

func TestWithFields(t *testing.T) {
	var captured []logging.Event
	capture := logging.PublisherFunc(func(_ context.Context, event logging.Event) {
		captured = append(captured, event)
	})

	wrapped := logging.WithFields(capture, map[string]any{"session": "s1"})
	wrapped.Publish(context.Background(), logging.Event{Type: "panel.test"})

	if len(captured) != 1 || captured[0].Extra["session"] != "s1" {
		t.Fatalf("expected wrapped fields, got %+v", captured)
	}

	if logging.WithFields(nil, nil) == nil {
		t.Fatal("expected nil publisher to degrade to a no-op, not nil")
	}
}
