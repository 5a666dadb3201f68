package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mtsupport/mt-go/pkg/touch"
)

func logJSON(t *testing.T, event Event) map[string]any {
	t.Helper()
	var buf bytes.Buffer
	handler := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	NewSlogAdapter(slog.New(handler)).Log(event)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry), "output: %s", buf.String())
	return entry
}

func TestSlogAdapterLogsFrameEvent(t *testing.T) {
	entry := logJSON(t, sampleFrameEvent())

	assert.Equal(t, "capture", entry["msg"])
	assert.Equal(t, "DEBUG", entry["level"])
	assert.Equal(t, "0x1234", entry["device"])
	assert.Equal(t, "FRAME", entry["category"])
	assert.Equal(t, "session-1", entry["session"])
	assert.Equal(t, float64(42), entry["frame"])
	assert.Equal(t, float64(1), entry["samples"])
}

func TestSlogAdapterLogsPathEvent(t *testing.T) {
	entry := logJSON(t, Event{
		Category: CategoryPath,
		Path:     &PathEventData{FrameNumber: 3, PathID: 2, From: touch.StageMakeTouch, To: touch.StageTouching},
	})

	assert.Equal(t, "PATH", entry["category"])
	assert.Equal(t, float64(2), entry["path"])
	assert.Equal(t, "MakeTouch", entry["from"])
	assert.Equal(t, "Touching", entry["to"])
	_, hasSession := entry["session"]
	assert.False(t, hasSession)
}

func TestSlogAdapterLogsErrorEvent(t *testing.T) {
	entry := logJSON(t, Event{
		Category: CategoryError,
		Error:    &ErrorEventData{Kind: ErrorKindDuplicatePath, Message: "dup", FrameNumber: 5},
	})

	assert.Equal(t, "DUPLICATE_PATH", entry["kind"])
	assert.Equal(t, "dup", entry["error"])
	assert.Equal(t, float64(5), entry["frame"])
}

func TestSlogAdapterNilLogger(t *testing.T) {
	a := NewSlogAdapter(nil)
	a.Log(Event{})
}
