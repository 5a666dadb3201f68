package commands

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/mtsupport/mt-go/pkg/log"
	"github.com/mtsupport/mt-go/pkg/touch"
)

const testSession = "3f2a91c0-5d1e-4b7a-9c2f-0e8d6a4b1f37"

var testTime = time.Date(2026, 1, 28, 10, 15, 32, 123456000, time.UTC)

func createTestLogFile(t *testing.T, events []log.Event) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.mtlog")

	logger, err := log.NewFileLogger(path)
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}

	for _, e := range events {
		logger.Log(e)
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("failed to close logger: %v", err)
	}

	return path
}

func sample(path int32, stage touch.Stage, x, y float32) touch.RawSample {
	return touch.RawSample{
		PathIndex: path,
		FingerID:  path + 1,
		HandID:    1,
		Stage:     int32(stage),
		Normalized: touch.Vector{
			Position: touch.Point{X: x, Y: y},
		},
		Quality:  0.75,
		Pressure: 0.25,
	}
}

// sampleSession is one device touching, one path transition, a rejected
// frame on a second device and a handle state change.
func sampleSession() []log.Event {
	return []log.Event{
		{
			Timestamp: testTime,
			SessionID: testSession,
			DeviceID:  0x100,
			Category:  log.CategoryDevice,
			Device: &log.DeviceEvent{
				SerialNumber:  "FMX123",
				FamilyID:      98,
				SensorRows:    15,
				SensorCols:    22,
				SurfaceWidth:  16000,
				SurfaceHeight: 10000,
				BuiltIn:       true,
				SupportsForce: true,
			},
		},
		{
			Timestamp:   testTime.Add(time.Millisecond),
			SessionID:   testSession,
			DeviceID:    0x100,
			Category:    log.CategoryState,
			StateChange: &log.StateChangeEvent{OldState: "OPEN", NewState: "RUNNING"},
		},
		{
			Timestamp: testTime.Add(8 * time.Millisecond),
			SessionID: testSession,
			DeviceID:  0x100,
			Category:  log.CategoryFrame,
			Frame: &log.FrameEvent{
				Number:    12,
				Timestamp: 0.096,
				Samples:   []touch.RawSample{sample(1, touch.StageTouching, 0.5, 0.5)},
			},
		},
		{
			Timestamp: testTime.Add(8 * time.Millisecond),
			SessionID: testSession,
			DeviceID:  0x100,
			Category:  log.CategoryPath,
			Path: &log.PathEventData{
				FrameNumber: 12,
				PathID:      1,
				From:        touch.StageMakeTouch,
				To:          touch.StageTouching,
				FingerID:    2,
				X:           0.5,
				Y:           0.5,
			},
		},
		{
			Timestamp: testTime.Add(16 * time.Millisecond),
			SessionID: testSession,
			DeviceID:  0x200,
			Category:  log.CategoryError,
			Error: &log.ErrorEventData{
				Kind:        log.ErrorKindOutOfOrderFrame,
				Message:     "frame 7 after 9",
				FrameNumber: 7,
			},
		},
	}
}
