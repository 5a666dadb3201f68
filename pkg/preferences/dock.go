package preferences

import (
	"fmt"
	"math"
	"strings"
)

// DockDomain is the preference domain of the dock.
const DockDomain = "com.apple.dock"

// Dock preference keys.
const (
	KeyTileSize          = "tilesize"
	KeyOrientation       = "orientation"
	KeyPinning           = "pinning"
	KeyEffect            = "mineffect"
	KeyAutoHide          = "autohide"
	KeyMagnification     = "magnification"
	KeyMagnificationSize = "largesize"
	KeyWorkspaces        = "workspaces"
	KeyWorkspaceRows     = "workspaces-rows"
	KeyWorkspaceCols     = "workspaces-cols"
)

// Orientation is the screen edge the dock sits on.
type Orientation uint8

const (
	OrientationIgnore Orientation = iota
	OrientationTop
	OrientationBottom
	OrientationLeft
	OrientationRight
)

var orientationNames = [...]string{"IGNORE", "TOP", "BOTTOM", "LEFT", "RIGHT"}

// String returns the orientation name.
func (o Orientation) String() string {
	if int(o) < len(orientationNames) {
		return orientationNames[o]
	}
	return "UNKNOWN"
}

// ParseOrientation parses a case-insensitive orientation name.
func ParseOrientation(s string) (Orientation, error) {
	for i, name := range orientationNames {
		if strings.EqualFold(s, name) {
			return Orientation(i), nil
		}
	}
	return 0, fmt.Errorf("%w: orientation %q", ErrInvalidValue, s)
}

// Pinning is the position of the dock along its edge.
type Pinning uint8

const (
	PinningIgnore Pinning = iota
	PinningStart
	PinningMiddle
	PinningEnd
)

var pinningNames = [...]string{"IGNORE", "START", "MIDDLE", "END"}

// String returns the pinning name.
func (p Pinning) String() string {
	if int(p) < len(pinningNames) {
		return pinningNames[p]
	}
	return "UNKNOWN"
}

// ParsePinning parses a case-insensitive pinning name.
func ParsePinning(s string) (Pinning, error) {
	for i, name := range pinningNames {
		if strings.EqualFold(s, name) {
			return Pinning(i), nil
		}
	}
	return 0, fmt.Errorf("%w: pinning %q", ErrInvalidValue, s)
}

// Effect is the minimize animation.
type Effect uint8

const (
	EffectGenie Effect = iota + 1
	EffectScale
	EffectSuck
)

// String returns the effect name.
func (e Effect) String() string {
	switch e {
	case EffectGenie:
		return "GENIE"
	case EffectScale:
		return "SCALE"
	case EffectSuck:
		return "SUCK"
	default:
		return "UNKNOWN"
	}
}

// ParseEffect parses a case-insensitive effect name.
func ParseEffect(s string) (Effect, error) {
	for e := EffectGenie; e <= EffectSuck; e++ {
		if strings.EqualFold(s, e.String()) {
			return e, nil
		}
	}
	return 0, fmt.Errorf("%w: effect %q", ErrInvalidValue, s)
}

// Values reported when the store holds nothing.
const (
	DefaultTileSize          float32 = 0.5
	DefaultMagnificationSize float32 = 0.5
	DefaultOrientation               = OrientationBottom
	DefaultPinning                   = PinningMiddle
	DefaultEffect                    = EffectGenie
)

// Dock reads and writes dock preferences.
type Dock struct {
	store Store
}

// NewDock returns dock accessors over store.
func NewDock(store Store) *Dock {
	return &Dock{store: store}
}

// TileSize returns the icon size in [0,1].
func (d *Dock) TileSize() (float32, error) {
	return getFloat(d.store, DockDomain, KeyTileSize, DefaultTileSize)
}

// SetTileSize sets the icon size. size must be in [0,1].
func (d *Dock) SetTileSize(size float32) error {
	if err := checkUnit("tile size", size); err != nil {
		return err
	}
	return d.store.Set(DockDomain, KeyTileSize, size)
}

// OrientationAndPinning returns the dock edge and its position on it.
func (d *Dock) OrientationAndPinning() (Orientation, Pinning, error) {
	o, err := getInt(d.store, DockDomain, KeyOrientation, int(DefaultOrientation))
	if err != nil {
		return 0, 0, err
	}
	p, err := getInt(d.store, DockDomain, KeyPinning, int(DefaultPinning))
	if err != nil {
		return 0, 0, err
	}
	return Orientation(o), Pinning(p), nil
}

// SetOrientationAndPinning sets the dock edge and position. Passing the
// Ignore value for either leaves that setting unchanged.
func (d *Dock) SetOrientationAndPinning(o Orientation, p Pinning) error {
	if o > OrientationRight {
		return fmt.Errorf("%w: orientation %d", ErrInvalidValue, o)
	}
	if p > PinningEnd {
		return fmt.Errorf("%w: pinning %d", ErrInvalidValue, p)
	}
	if o != OrientationIgnore {
		if err := d.store.Set(DockDomain, KeyOrientation, int(o)); err != nil {
			return err
		}
	}
	if p != PinningIgnore {
		if err := d.store.Set(DockDomain, KeyPinning, int(p)); err != nil {
			return err
		}
	}
	return nil
}

// Effect returns the minimize effect.
func (d *Dock) Effect() (Effect, error) {
	e, err := getInt(d.store, DockDomain, KeyEffect, int(DefaultEffect))
	return Effect(e), err
}

// SetEffect sets the minimize effect.
func (d *Dock) SetEffect(e Effect) error {
	if e < EffectGenie || e > EffectSuck {
		return fmt.Errorf("%w: effect %d", ErrInvalidValue, e)
	}
	return d.store.Set(DockDomain, KeyEffect, int(e))
}

// AutoHide reports whether the dock hides automatically.
func (d *Dock) AutoHide() (bool, error) {
	return getBool(d.store, DockDomain, KeyAutoHide, false)
}

// SetAutoHide enables or disables hiding.
func (d *Dock) SetAutoHide(enabled bool) error {
	return d.store.Set(DockDomain, KeyAutoHide, enabled)
}

// MagnificationEnabled reports whether icons magnify on hover.
func (d *Dock) MagnificationEnabled() (bool, error) {
	return getBool(d.store, DockDomain, KeyMagnification, false)
}

// SetMagnificationEnabled enables or disables magnification.
func (d *Dock) SetMagnificationEnabled(enabled bool) error {
	return d.store.Set(DockDomain, KeyMagnification, enabled)
}

// MagnificationSize returns the magnified icon size in [0,1].
func (d *Dock) MagnificationSize() (float32, error) {
	return getFloat(d.store, DockDomain, KeyMagnificationSize, DefaultMagnificationSize)
}

// SetMagnificationSize sets the magnified icon size. size must be in [0,1].
func (d *Dock) SetMagnificationSize(size float32) error {
	if err := checkUnit("magnification size", size); err != nil {
		return err
	}
	return d.store.Set(DockDomain, KeyMagnificationSize, size)
}

// WorkspacesEnabled reports whether workspaces are on.
func (d *Dock) WorkspacesEnabled() (bool, error) {
	return getBool(d.store, DockDomain, KeyWorkspaces, false)
}

// SetWorkspacesEnabled turns workspaces on or off.
func (d *Dock) SetWorkspacesEnabled(enabled bool) error {
	return d.store.Set(DockDomain, KeyWorkspaces, enabled)
}

// WorkspacesCount returns the workspace grid.
func (d *Dock) WorkspacesCount() (rows, cols int, err error) {
	if rows, err = getInt(d.store, DockDomain, KeyWorkspaceRows, 1); err != nil {
		return 0, 0, err
	}
	if cols, err = getInt(d.store, DockDomain, KeyWorkspaceCols, 1); err != nil {
		return 0, 0, err
	}
	return rows, cols, nil
}

// SetWorkspacesCount sets the workspace grid. Both dimensions must be at
// least one.
func (d *Dock) SetWorkspacesCount(rows, cols int) error {
	if rows < 1 || cols < 1 {
		return fmt.Errorf("%w: workspaces %dx%d", ErrInvalidValue, rows, cols)
	}
	if err := d.store.Set(DockDomain, KeyWorkspaceRows, rows); err != nil {
		return err
	}
	return d.store.Set(DockDomain, KeyWorkspaceCols, cols)
}

func checkUnit(what string, v float32) error {
	f := float64(v)
	if math.IsNaN(f) || f < 0 || f > 1 {
		return fmt.Errorf("%w: %s %v outside [0,1]", ErrInvalidValue, what, v)
	}
	return nil
}
