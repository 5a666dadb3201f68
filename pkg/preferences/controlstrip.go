package preferences

import (
	"fmt"
	"slices"
	"strings"
)

// ControlStripDomain is the preference domain of the control strip.
const ControlStripDomain = "com.apple.controlstrip"

// Control strip keys that are not item identifiers.
const (
	KeyFunctionBarStatus = "dfr-status"
	KeyModalCloseBox     = "system-modal-close-box"
)

// KnownItems are the built-in control strip items whose presence can be
// read back. Presence of other identifiers can be set but not queried.
var KnownItems = []string{
	"com.apple.system.brightness",
	"com.apple.system.dashboard",
	"com.apple.system.dictation",
	"com.apple.system.do-not-disturb",
	"com.apple.system.input-menu",
	"com.apple.system.launchpad",
	"com.apple.system.media-play-pause",
	"com.apple.system.mission-control",
	"com.apple.system.mute",
	"com.apple.system.notification-center",
	"com.apple.system.screen-lock",
	"com.apple.system.screen-saver",
	"com.apple.system.screencapture",
	"com.apple.system.search",
	"com.apple.system.show-desktop",
	"com.apple.system.siri",
	"com.apple.system.sleep",
	"com.apple.system.volume",
}

// IsKnownItem reports whether id is a built-in control strip item.
func IsKnownItem(id string) bool {
	return slices.Contains(KnownItems, id)
}

// ControlStrip reads and writes control strip preferences.
type ControlStrip struct {
	store Store
}

// NewControlStrip returns control strip accessors over store.
func NewControlStrip(store Store) *ControlStrip {
	return &ControlStrip{store: store}
}

// Presence reports whether the built-in item id is shown. Items not set
// explicitly are reported as not shown.
func (c *ControlStrip) Presence(id string) (bool, error) {
	if !IsKnownItem(id) {
		return false, fmt.Errorf("%w: %s", ErrUnknownItem, id)
	}
	return getBool(c.store, ControlStripDomain, id, false)
}

// SetPresence shows or hides item id.
func (c *ControlStrip) SetPresence(id string, display bool) error {
	if id == "" || strings.ContainsAny(id, " \t\n") {
		return fmt.Errorf("%w: item identifier %q", ErrInvalidValue, id)
	}
	return c.store.Set(ControlStripDomain, id, display)
}

// FunctionBarStatus returns the raw function bar status value.
func (c *ControlStrip) FunctionBarStatus() (int, error) {
	return getInt(c.store, ControlStripDomain, KeyFunctionBarStatus, 0)
}

// SetFunctionBarStatus stores the raw function bar status value.
func (c *ControlStrip) SetFunctionBarStatus(status int) error {
	return c.store.Set(ControlStripDomain, KeyFunctionBarStatus, status)
}

// SystemModalShowsCloseBox reports whether system modal bars show a close
// box while frontmost.
func (c *ControlStrip) SystemModalShowsCloseBox() (bool, error) {
	return getBool(c.store, ControlStripDomain, KeyModalCloseBox, false)
}

// SetSystemModalShowsCloseBox sets the close box flag.
func (c *ControlStrip) SetSystemModalShowsCloseBox(show bool) error {
	return c.store.Set(ControlStripDomain, KeyModalCloseBox, show)
}
