package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
	"time"
)

func logOne(t *testing.T, event Event) map[string]any {
	t.Helper()
	var buf bytes.Buffer
	handler := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	NewSlogAdapter(slog.New(handler)).Log(event)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse log output %q: %v", buf.String(), err)
	}
	return entry
}

func TestSlogAdapterAttributeEvent(t *testing.T) {
	entry := logOne(t, Event{
		Timestamp:    time.Now(),
		ConnectionID: "conn-1",
		Direction:    DirectionOut,
		Layer:        LayerCore,
		Category:     CategoryAttribute,
		DeviceID:     "iio:device0",
		Attr:         &AttrEvent{Kind: AttrKindDevice, Name: "sampling_frequency", Value: "1000"},
	})

	checks := map[string]string{
		"msg":       "iio",
		"level":     "DEBUG",
		"conn_id":   "conn-1",
		"direction": "OUT",
		"category":  "ATTRIBUTE",
		"device":    "iio:device0",
		"attr":      "sampling_frequency",
		"value":     "1000",
	}
	for k, want := range checks {
		if entry[k] != want {
			t.Errorf("%s: got %v, want %q", k, entry[k], want)
		}
	}
}

func TestSlogAdapterTransferEvent(t *testing.T) {
	entry := logOne(t, Event{
		Category: CategoryTransfer,
		Transfer: &TransferEvent{Op: TransferPush, Samples: 16, Bytes: 32, Cyclic: true},
	})
	if entry["op"] != "PUSH" {
		t.Errorf("op: got %v, want PUSH", entry["op"])
	}
	if entry["samples"] != float64(16) {
		t.Errorf("samples: got %v, want 16", entry["samples"])
	}
	if entry["cyclic"] != true {
		t.Errorf("cyclic: got %v, want true", entry["cyclic"])
	}
}

func TestSlogAdapterErrorsAtWarn(t *testing.T) {
	code := 5
	entry := logOne(t, Event{
		Category: CategoryError,
		Error:    &ErrorEventData{Layer: LayerBackend, Message: "io", Code: &code},
	})
	if entry["level"] != "WARN" {
		t.Errorf("level: got %v, want WARN", entry["level"])
	}
	if entry["error_code"] != float64(5) {
		t.Errorf("error_code: got %v, want 5", entry["error_code"])
	}
}
