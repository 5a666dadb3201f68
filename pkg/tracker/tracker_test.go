package tracker

import (
	"errors"
	"testing"

	"github.com/mtsupport/mt-go/pkg/touch"
)

const testDevice touch.DeviceID = 0xabc

func frame(n int64, samples ...touch.Sample) touch.Frame {
	for i := range samples {
		samples[i].FrameNumber = n
	}
	return touch.Frame{DeviceID: testDevice, Number: n, Timestamp: float64(n) / 100, Samples: samples}
}

func sample(path int32, stage touch.Stage) touch.Sample {
	return touch.Sample{PathIndex: path, FingerID: path + 1, HandID: 1, Stage: stage}
}

func TestIngestFullLifecycle(t *testing.T) {
	tr := New(testDevice)

	stages := []touch.Stage{
		touch.StageStartInRange,
		touch.StageHoverInRange,
		touch.StageMakeTouch,
		touch.StageTouching,
		touch.StageTouching,
		touch.StageTouching,
		touch.StageBreakTouch,
		touch.StageLingerInRange,
		touch.StageOutOfRange,
		touch.StageNotTracking,
	}

	var events []touch.PathEvent
	for i, st := range stages {
		res, err := tr.Ingest(frame(int64(i+1), sample(0, st)))
		if err != nil {
			t.Fatalf("frame %d: Ingest() error = %v", i+1, err)
		}
		if len(res.Anomalies) != 0 {
			t.Fatalf("frame %d: unexpected anomalies %v", i+1, res.Anomalies)
		}
		events = append(events, res.Events...)
	}

	// Ten samples, two repeats of Touching, creation emits nothing.
	if len(events) != 7 {
		t.Fatalf("got %d events, want 7: %v", len(events), events)
	}
	for i, ev := range events {
		if ev.From == ev.To {
			t.Errorf("event %d has From == To (%s)", i, ev.From)
		}
		if ev.DeviceID != testDevice {
			t.Errorf("event %d DeviceID = %v", i, ev.DeviceID)
		}
		if !ev.Sample.StageChanged {
			t.Errorf("event %d sample StageChanged = false", i)
		}
	}
	if events[0].From != touch.StageStartInRange || events[0].To != touch.StageHoverInRange {
		t.Errorf("first event = %v", events[0])
	}
	if last := events[len(events)-1]; last.From != touch.StageOutOfRange || last.To != touch.StageNotTracking {
		t.Errorf("last event = %v", last)
	}
}

func TestIngestRepeatedStageEmitsNothingButUpdatesSample(t *testing.T) {
	tr := New(testDevice)

	first := sample(3, touch.StageStartInRange)
	if _, err := tr.Ingest(frame(1, first)); err != nil {
		t.Fatal(err)
	}

	moved := sample(3, touch.StageStartInRange)
	moved.Normalized.Position = touch.Point{X: 0.5, Y: 0.5}
	res, err := tr.Ingest(frame(2, moved))
	if err != nil {
		t.Fatal(err)
	}

	if len(res.Events) != 0 {
		t.Errorf("got %d events for a repeated stage, want 0", len(res.Events))
	}
	if len(res.Frame.Samples) != 1 || res.Frame.Samples[0].StageChanged {
		t.Errorf("frame samples = %+v", res.Frame.Samples)
	}

	p, ok := tr.Path(3)
	if !ok {
		t.Fatal("path 3 not tracked")
	}
	if p.Latest.Normalized.Position.X != 0.5 || p.Latest.FrameNumber != 2 {
		t.Errorf("latest sample not updated: %+v", p.Latest)
	}
}

func TestIngestProtocolViolation(t *testing.T) {
	tr := New(testDevice)

	res, err := tr.Ingest(frame(1, sample(1, touch.StageTouching)))
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}

	if len(res.Anomalies) != 1 || !errors.Is(res.Anomalies[0], ErrProtocolViolation) {
		t.Fatalf("anomalies = %v, want one ErrProtocolViolation", res.Anomalies)
	}
	if len(res.Events) != 0 {
		t.Errorf("events = %v, want none", res.Events)
	}

	p, ok := tr.Path(1)
	if !ok {
		t.Fatal("violating sample should still be tracked")
	}
	if p.Latest.Stage != touch.StageTouching || !p.Violation {
		t.Errorf("path = %+v", p)
	}
}

func TestIngestHoverEntryIsValid(t *testing.T) {
	tr := New(testDevice)

	res, err := tr.Ingest(frame(1, sample(0, touch.StageHoverInRange)))
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Anomalies) != 0 {
		t.Errorf("anomalies = %v, want none", res.Anomalies)
	}
}

func TestIngestOutOfOrderFrame(t *testing.T) {
	tr := New(testDevice)

	if _, err := tr.Ingest(frame(5, sample(0, touch.StageStartInRange))); err != nil {
		t.Fatal(err)
	}
	before := tr.Paths()

	for _, n := range []int64{5, 4, 0} {
		res, err := tr.Ingest(frame(n, sample(0, touch.StageMakeTouch), sample(1, touch.StageStartInRange)))
		if !errors.Is(err, ErrOutOfOrderFrame) {
			t.Fatalf("frame %d: error = %v, want ErrOutOfOrderFrame", n, err)
		}
		if len(res.Events) != 0 || len(res.Frame.Samples) != 0 {
			t.Errorf("frame %d: non-empty result %+v", n, res)
		}
	}

	after := tr.Paths()
	if len(after) != len(before) || after[0].Stage != touch.StageStartInRange {
		t.Errorf("rejected frames mutated state: before=%+v after=%+v", before, after)
	}
	if last, ok := tr.LastFrame(); !ok || last != 5 {
		t.Errorf("LastFrame() = %d, %v; want 5, true", last, ok)
	}
}

func TestIngestDuplicatePathLaterWins(t *testing.T) {
	tr := New(testDevice)

	a := sample(2, touch.StageStartInRange)
	a.Pressure = 1
	b := sample(2, touch.StageHoverInRange)
	b.Pressure = 2
	other := sample(7, touch.StageStartInRange)

	res, err := tr.Ingest(frame(1, a, other, b))
	if err != nil {
		t.Fatal(err)
	}

	if len(res.Anomalies) != 1 || !errors.Is(res.Anomalies[0], ErrDuplicatePath) {
		t.Fatalf("anomalies = %v, want one ErrDuplicatePath", res.Anomalies)
	}
	if len(res.Frame.Samples) != 2 {
		t.Fatalf("got %d samples, want 2", len(res.Frame.Samples))
	}
	if res.Frame.Samples[0].PathIndex != 7 || res.Frame.Samples[1].Pressure != 2 {
		t.Errorf("samples = %+v", res.Frame.Samples)
	}

	p, _ := tr.Path(2)
	if p.Stage != touch.StageHoverInRange {
		t.Errorf("path 2 stage = %s, want HoverInRange", p.Stage)
	}
}

func TestIngestRemovesEndedPaths(t *testing.T) {
	tr := New(testDevice)

	steps := []struct {
		samples []touch.Sample
		live    int
		removed int
	}{
		{[]touch.Sample{sample(0, touch.StageStartInRange), sample(1, touch.StageStartInRange)}, 2, 0},
		{[]touch.Sample{sample(0, touch.StageOutOfRange), sample(1, touch.StageHoverInRange)}, 2, 0},
		// Path 0 ended last frame and is absent now.
		{[]touch.Sample{sample(1, touch.StageMakeTouch)}, 1, 1},
		{[]touch.Sample{sample(1, touch.StageNotTracking)}, 1, 0},
		// Renewed: still present in the next frame.
		{[]touch.Sample{sample(1, touch.StageNotTracking)}, 1, 0},
		{nil, 0, 1},
	}

	for i, step := range steps {
		res, err := tr.Ingest(frame(int64(i+1), step.samples...))
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if got := tr.Len(); got != step.live {
			t.Errorf("step %d: Len() = %d, want %d", i, got, step.live)
		}
		if len(res.Removed) != step.removed {
			t.Errorf("step %d: removed = %v, want %d", i, res.Removed, step.removed)
		}
	}
}

func TestIngestRemovalEmitsNoEvent(t *testing.T) {
	tr := New(testDevice)

	_, _ = tr.Ingest(frame(1, sample(0, touch.StageStartInRange)))
	_, _ = tr.Ingest(frame(2, sample(0, touch.StageOutOfRange)))
	res, err := tr.Ingest(frame(3))
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Events) != 0 {
		t.Errorf("removal produced events: %v", res.Events)
	}
	if len(res.Removed) != 1 || res.Removed[0] != 0 {
		t.Errorf("Removed = %v, want [0]", res.Removed)
	}
}

func TestPathsSortedSnapshot(t *testing.T) {
	tr := New(testDevice)
	_, _ = tr.Ingest(frame(1,
		sample(5, touch.StageStartInRange),
		sample(1, touch.StageStartInRange),
		sample(3, touch.StageStartInRange),
	))

	paths := tr.Paths()
	if len(paths) != 3 {
		t.Fatalf("len(Paths()) = %d", len(paths))
	}
	for i, want := range []int32{1, 3, 5} {
		if paths[i].Index != want {
			t.Errorf("paths[%d].Index = %d, want %d", i, paths[i].Index, want)
		}
	}

	// Mutating the snapshot must not affect the tracker.
	paths[0].Stage = touch.StageTouching
	if p, _ := tr.Path(1); p.Stage != touch.StageStartInRange {
		t.Error("snapshot aliases tracker state")
	}
}

func TestDropPathsAndReset(t *testing.T) {
	tr := New(testDevice)
	_, _ = tr.Ingest(frame(10, sample(0, touch.StageStartInRange)))

	tr.DropPaths()
	if tr.Len() != 0 {
		t.Errorf("Len() after DropPaths = %d", tr.Len())
	}
	if _, err := tr.Ingest(frame(9)); !errors.Is(err, ErrOutOfOrderFrame) {
		t.Errorf("DropPaths should keep frame ordering, got %v", err)
	}

	tr.Reset()
	if _, ok := tr.LastFrame(); ok {
		t.Error("LastFrame should be unset after Reset")
	}
	if _, err := tr.Ingest(frame(1)); err != nil {
		t.Errorf("Ingest after Reset: %v", err)
	}
}
