package touch

import "strings"

// Stage is the per-path touch lifecycle state.
type Stage uint8

const (
	// StageNotTracking indicates the path slot is idle.
	StageNotTracking Stage = iota

	// StageStartInRange indicates a contact was first detected near the surface.
	StageStartInRange

	// StageHoverInRange indicates the contact is hovering above the surface.
	StageHoverInRange

	// StageMakeTouch indicates the contact just touched the surface.
	StageMakeTouch

	// StageTouching indicates the contact is resting or moving on the surface.
	StageTouching

	// StageBreakTouch indicates the contact just lifted off the surface.
	StageBreakTouch

	// StageLingerInRange indicates the lifted contact is still near the surface.
	StageLingerInRange

	// StageOutOfRange indicates the contact left the sensing range.
	StageOutOfRange
)

// StageCount is the number of defined stages.
const StageCount = int(StageOutOfRange) + 1

var stageNames = [StageCount]string{
	"NotTracking",
	"StartInRange",
	"HoverInRange",
	"MakeTouch",
	"Touching",
	"BreakTouch",
	"LingerInRange",
	"OutOfRange",
}

// String returns the stage label.
func (s Stage) String() string {
	if !s.Valid() {
		return "UNKNOWN"
	}
	return stageNames[s]
}

// Valid reports whether s is one of the defined stages.
func (s Stage) Valid() bool {
	return int(s) < StageCount
}

// IsTerminal reports whether the stage ends a path.
// A path in a terminal stage is dropped unless it is renewed in the next frame.
func (s Stage) IsTerminal() bool {
	return s == StageNotTracking || s == StageOutOfRange
}

// IsEntry reports whether a new path may begin in this stage.
func (s Stage) IsEntry() bool {
	return s == StageStartInRange || s == StageHoverInRange
}

// IsTouching reports whether the contact is in physical contact with the surface.
func (s Stage) IsTouching() bool {
	return s == StageMakeTouch || s == StageTouching
}

// ParseStage parses a stage label as returned by Stage.String.
// Matching is case-insensitive.
func ParseStage(name string) (Stage, bool) {
	for i, n := range stageNames {
		if strings.EqualFold(n, name) {
			return Stage(i), true
		}
	}
	return 0, false
}
