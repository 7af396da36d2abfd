package sinks

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"pump-panel/server/logging"
)

func TestJSONSinkEncodesLines(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSON(&buf, 0)

	event := logging.Event{
		Type:     "panel.test",
		Tick:     12,
		Time:     time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
		Actor:    logging.EntityRef{ID: "s1", Kind: logging.EntityKindSession},
		Severity: logging.SeverityWarn,
		Category: logging.CategoryInterlock,
		Payload:  map[string]any{"detail": "Engage the pump"},
	}
	if err := sink.Write(event); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if err := sink.Close(context.Background()); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	line := strings.TrimSpace(buf.String())
	var decoded map[string]any
	if err := json.Unmarshal([]byte(line), &decoded); err != nil {
		t.Fatalf("expected one JSON line, got %q: %v", line, err)
	}
	if decoded["type"] != "panel.test" || decoded["tick"] != float64(12) {
		t.Fatalf("unexpected wire shape %v", decoded)
	}
	if decoded["category"] != logging.CategoryInterlock {
		t.Fatalf("expected category carried, got %v", decoded["category"])
	}
	actor, ok := decoded["actor"].(map[string]any)
	if !ok || actor["id"] != "s1" {
		t.Fatalf("unexpected actor %v", decoded["actor"])
	}
}

func TestConsoleSinkFormatsEvent(t *testing.T) {
	var buf bytes.Buffer
	sink := NewConsoleSink(&buf, logging.ConsoleConfig{})

	err := sink.Write(logging.Event{
		Type:     "panel.relief_valve_lifted",
		Tick:     88,
		Actor:    logging.EntityRef{Kind: logging.EntityKindPump},
		Severity: logging.SeverityInfo,
		Payload:  map[string]any{"bypassGpm": 100},
	})
	if err != nil {
		t.Fatalf("write failed: %v", err)
	}

	out := buf.String()
	for _, fragment := range []string{"[panel.relief_valve_lifted]", "tick=88", "actor=pump", "severity=info", `"bypassGpm":100`} {
		if !strings.Contains(out, fragment) {
			t.Fatalf("expected %q in output %q", fragment, out)
		}
	}
}

func TestMemorySinkIsolation(t *testing.T) {
	sink := NewMemorySink()
	extra := map[string]any{"k": "v"}
	sink.Write(logging.Event{Type: "panel.test", Extra: extra})
	extra["k"] = "mutated"

	events := sink.Events()
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].Extra["k"] != "v" {
		t.Fatal("expected stored event isolated from the writer's map")
	}

	sink.Reset()
	if len(sink.Events()) != 0 {
		t.Fatal("expected reset to clear events")
	}
}
