package commands

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mtsupport/mt-go/pkg/log"
	"github.com/mtsupport/mt-go/pkg/touch"
)

func TestFormatFrameEvent(t *testing.T) {
	event := sampleSession()[2]

	var buf bytes.Buffer
	formatEvent(&buf, event, false)
	output := buf.String()

	if !strings.Contains(output, "2026-01-28T10:15:32.131456Z") {
		t.Errorf("expected microsecond UTC timestamp, got: %s", output)
	}
	if !strings.Contains(output, "[sess:3f2a91c0]") {
		t.Errorf("expected shortened session ID, got: %s", output)
	}
	if !strings.Contains(output, "0x100") {
		t.Errorf("expected hex device ID, got: %s", output)
	}
	if !strings.Contains(output, "FRAME") {
		t.Errorf("expected FRAME category, got: %s", output)
	}
	if !strings.Contains(output, "#12 t=0.096000 samples=1") {
		t.Errorf("expected frame summary, got: %s", output)
	}
	if strings.Contains(output, "finger") {
		t.Errorf("samples should only be listed in verbose mode, got: %s", output)
	}
}

func TestFormatFrameEventVerbose(t *testing.T) {
	event := sampleSession()[2]
	event.Frame.Samples = append(event.Frame.Samples, touch.RawSample{PathIndex: 3, Stage: 42})

	var buf bytes.Buffer
	formatEvent(&buf, event, true)
	output := buf.String()

	if !strings.Contains(output, "path 1 finger 2 hand 1 Touching") {
		t.Errorf("expected sample line, got: %s", output)
	}
	if !strings.Contains(output, "pos (0.500,0.500)") {
		t.Errorf("expected sample position, got: %s", output)
	}
	if !strings.Contains(output, "q=0.75") {
		t.Errorf("expected sample quality, got: %s", output)
	}
	if !strings.Contains(output, "path 3 finger 0 hand 0 42") {
		t.Errorf("expected numeric stage for unknown value, got: %s", output)
	}
}

func TestFormatPathEvent(t *testing.T) {
	var buf bytes.Buffer
	formatEvent(&buf, sampleSession()[3], false)
	output := buf.String()

	if !strings.Contains(output, "PATH") {
		t.Errorf("expected PATH category, got: %s", output)
	}
	if !strings.Contains(output, "#12 path 1 MakeTouch -> Touching finger 2 at (0.500,0.500)") {
		t.Errorf("expected path transition, got: %s", output)
	}
}

func TestFormatStateChangeEvent(t *testing.T) {
	var buf bytes.Buffer
	formatEvent(&buf, sampleSession()[1], false)
	output := buf.String()

	if !strings.Contains(output, "OPEN -> RUNNING") {
		t.Errorf("expected state transition, got: %s", output)
	}

	buf.Reset()
	formatEvent(&buf, log.Event{
		Category:    log.CategoryState,
		StateChange: &log.StateChangeEvent{NewState: "CLOSED", Reason: "device removed"},
	}, false)
	output = buf.String()

	if !strings.Contains(output, "-> CLOSED (device removed)") {
		t.Errorf("expected initial state with reason, got: %s", output)
	}
	if !strings.Contains(output, "[sess:-]") {
		t.Errorf("expected placeholder for empty session, got: %s", output)
	}
}

func TestFormatDeviceEvent(t *testing.T) {
	var buf bytes.Buffer
	formatEvent(&buf, sampleSession()[0], false)
	output := buf.String()

	if !strings.Contains(output, "family=98 serial=FMX123") {
		t.Errorf("expected family and serial, got: %s", output)
	}
	if !strings.Contains(output, "surface=16000x10000 sensor=22x15") {
		t.Errorf("expected dimensions, got: %s", output)
	}
	if !strings.Contains(output, "[built-in,force]") {
		t.Errorf("expected capability list, got: %s", output)
	}
}

func TestFormatErrorEvent(t *testing.T) {
	var buf bytes.Buffer
	formatEvent(&buf, sampleSession()[4], false)
	output := buf.String()

	if !strings.Contains(output, "ERROR") {
		t.Errorf("expected ERROR category, got: %s", output)
	}
	if !strings.Contains(output, "OUT_OF_ORDER_FRAME #7: frame 7 after 9") {
		t.Errorf("expected error detail, got: %s", output)
	}
}

func TestParseCategoryFlag(t *testing.T) {
	tests := []struct {
		input   string
		want    log.Category
		wantErr bool
	}{
		{"frame", log.CategoryFrame, false},
		{"PATH", log.CategoryPath, false},
		{"State", log.CategoryState, false},
		{"device", log.CategoryDevice, false},
		{"error", log.CategoryError, false},
		{"message", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseCategoryFlag(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseCategoryFlag(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseCategoryFlag(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseDeviceFlag(t *testing.T) {
	tests := []struct {
		input   string
		want    uint64
		wantErr bool
	}{
		{"256", 256, false},
		{"0x100", 256, false},
		{"0X1f", 31, false},
		{"-1", 0, true},
		{"trackpad", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDeviceFlag(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDeviceFlag(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseDeviceFlag(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestRunViewFiltersByDeviceAndCategory(t *testing.T) {
	path := createTestLogFile(t, sampleSession())

	dev := uint64(0x100)
	cat := log.CategoryPath

	var buf bytes.Buffer
	if err := RunView(path, ViewFilter{DeviceID: &dev, Category: &cat}, &buf); err != nil {
		t.Fatalf("RunView failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d: %q", len(lines), buf.String())
	}
	if !strings.Contains(lines[0], "MakeTouch -> Touching") {
		t.Errorf("unexpected line: %s", lines[0])
	}
}

func TestRunViewMissingFile(t *testing.T) {
	var buf bytes.Buffer
	if err := RunView(filepath.Join(t.TempDir(), "missing.mtlog"), ViewFilter{}, &buf); err == nil {
		t.Fatal("expected error for missing file")
	}
}
