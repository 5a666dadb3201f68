package interactive

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mtsupport/mt-go/pkg/preferences"
)

// cmdDock handles the dock command.
func (c *Console) cmdDock(args []string) {
	dock := c.opts.Dock
	if dock == nil {
		fmt.Fprintln(c.out, "Preferences are not available")
		return
	}
	if len(args) == 0 {
		c.showDock(dock)
		return
	}
	if len(args) < 2 {
		fmt.Fprintln(c.out, "Usage: dock <setting> <value>")
		fmt.Fprintln(c.out, "  Settings: tile <0-1>, orientation <top|bottom|left|right> [start|middle|end],")
		fmt.Fprintln(c.out, "            effect <genie|scale|suck>, autohide <on|off>, magnification <on|off>,")
		fmt.Fprintln(c.out, "            magsize <0-1>, workspaces <on|off>, grid <rows> <cols>")
		return
	}

	var err error
	switch strings.ToLower(args[0]) {
	case "tile":
		err = withUnit(args[1], dock.SetTileSize)
	case "magsize":
		err = withUnit(args[1], dock.SetMagnificationSize)
	case "orientation":
		err = setOrientation(dock, args[1:])
	case "effect":
		var e preferences.Effect
		if e, err = preferences.ParseEffect(args[1]); err == nil {
			err = dock.SetEffect(e)
		}
	case "autohide":
		err = withOnOff(args[1], dock.SetAutoHide)
	case "magnification":
		err = withOnOff(args[1], dock.SetMagnificationEnabled)
	case "workspaces":
		err = withOnOff(args[1], dock.SetWorkspacesEnabled)
	case "grid":
		err = setGrid(dock, args[1:])
	default:
		fmt.Fprintf(c.out, "Unknown dock setting: %s\n", args[0])
		return
	}
	if err != nil {
		fmt.Fprintf(c.out, "Error: %v\n", err)
		return
	}
	fmt.Fprintln(c.out, "OK")
}

func (c *Console) showDock(dock *preferences.Dock) {
	tile, err := dock.TileSize()
	if err != nil {
		fmt.Fprintf(c.out, "Error: %v\n", err)
		return
	}
	o, p, err := dock.OrientationAndPinning()
	if err != nil {
		fmt.Fprintf(c.out, "Error: %v\n", err)
		return
	}
	effect, err := dock.Effect()
	if err != nil {
		fmt.Fprintf(c.out, "Error: %v\n", err)
		return
	}
	autoHide, _ := dock.AutoHide()
	magnify, _ := dock.MagnificationEnabled()
	magSize, _ := dock.MagnificationSize()
	workspaces, _ := dock.WorkspacesEnabled()
	rows, cols, _ := dock.WorkspacesCount()

	fmt.Fprintln(c.out, "Dock:")
	fmt.Fprintf(c.out, "  Tile size:      %.2f\n", tile)
	fmt.Fprintf(c.out, "  Orientation:    %s (%s)\n", o, p)
	fmt.Fprintf(c.out, "  Effect:         %s\n", effect)
	fmt.Fprintf(c.out, "  Auto hide:      %s\n", onOff(autoHide))
	fmt.Fprintf(c.out, "  Magnification:  %s (%.2f)\n", onOff(magnify), magSize)
	fmt.Fprintf(c.out, "  Workspaces:     %s (%dx%d)\n", onOff(workspaces), rows, cols)
}

func withUnit(s string, set func(float32) error) error {
	v, err := strconv.ParseFloat(s, 32)
	if err != nil {
		return fmt.Errorf("%w: %q is not a number", preferences.ErrInvalidValue, s)
	}
	return set(float32(v))
}

func withOnOff(s string, set func(bool) error) error {
	b, err := parseOnOff(s)
	if err != nil {
		return err
	}
	return set(b)
}

func setOrientation(dock *preferences.Dock, args []string) error {
	o, err := preferences.ParseOrientation(args[0])
	if err != nil {
		return err
	}
	p := preferences.PinningIgnore
	if len(args) > 1 {
		if p, err = preferences.ParsePinning(args[1]); err != nil {
			return err
		}
	}
	return dock.SetOrientationAndPinning(o, p)
}

func setGrid(dock *preferences.Dock, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("%w: grid needs rows and cols", preferences.ErrInvalidValue)
	}
	rows, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("%w: rows %q", preferences.ErrInvalidValue, args[0])
	}
	cols, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("%w: cols %q", preferences.ErrInvalidValue, args[1])
	}
	return dock.SetWorkspacesCount(rows, cols)
}

// cmdStrip handles the strip command.
func (c *Console) cmdStrip(args []string) {
	strip := c.opts.ControlStrip
	if strip == nil {
		fmt.Fprintln(c.out, "Preferences are not available")
		return
	}
	if len(args) == 0 {
		c.showStrip(strip)
		return
	}

	var err error
	switch strings.ToLower(args[0]) {
	case "items":
		for _, id := range preferences.KnownItems {
			fmt.Fprintf(c.out, "  %s\n", id)
		}
		return
	case "show", "hide":
		if len(args) < 2 {
			fmt.Fprintf(c.out, "Usage: strip %s <item-id>\n", args[0])
			return
		}
		err = strip.SetPresence(expandItem(args[1]), strings.EqualFold(args[0], "show"))
	case "status":
		if len(args) < 2 {
			status, serr := strip.FunctionBarStatus()
			if serr != nil {
				fmt.Fprintf(c.out, "Error: %v\n", serr)
				return
			}
			fmt.Fprintf(c.out, "Function bar status: %d\n", status)
			return
		}
		n, perr := strconv.Atoi(args[1])
		if perr != nil {
			fmt.Fprintf(c.out, "Error: invalid status %q\n", args[1])
			return
		}
		err = strip.SetFunctionBarStatus(n)
	case "closebox":
		if len(args) < 2 {
			show, serr := strip.SystemModalShowsCloseBox()
			if serr != nil {
				fmt.Fprintf(c.out, "Error: %v\n", serr)
				return
			}
			fmt.Fprintf(c.out, "Modal close box: %s\n", onOff(show))
			return
		}
		err = withOnOff(args[1], strip.SetSystemModalShowsCloseBox)
	default:
		fmt.Fprintf(c.out, "Unknown strip command: %s (use items, show, hide, status, closebox)\n", args[0])
		return
	}
	if err != nil {
		fmt.Fprintf(c.out, "Error: %v\n", err)
		return
	}
	fmt.Fprintln(c.out, "OK")
}

func (c *Console) showStrip(strip *preferences.ControlStrip) {
	fmt.Fprintln(c.out, "Control Strip:")
	for _, id := range preferences.KnownItems {
		shown, err := strip.Presence(id)
		if err != nil {
			fmt.Fprintf(c.out, "Error: %v\n", err)
			return
		}
		if shown {
			fmt.Fprintf(c.out, "  shown: %s\n", id)
		}
	}
	status, _ := strip.FunctionBarStatus()
	closeBox, _ := strip.SystemModalShowsCloseBox()
	fmt.Fprintf(c.out, "  Function bar status: %d\n", status)
	fmt.Fprintf(c.out, "  Modal close box:     %s\n", onOff(closeBox))
}

// expandItem accepts the short form of a built-in item, e.g. "mute".
func expandItem(id string) string {
	if strings.Contains(id, ".") {
		return id
	}
	return "com.apple.system." + id
}
