package interactive

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mtsupport/mt-go/pkg/device"
	"github.com/mtsupport/mt-go/pkg/subscription"
)

// handle resolves the device id in args[0] to an open handle.
func (c *Console) handle(cmd string, args []string) (*device.Handle, bool) {
	mgr := c.manager()
	if mgr == nil {
		fmt.Fprintln(c.out, "No device manager")
		return nil, false
	}
	if len(args) < 1 {
		fmt.Fprintf(c.out, "Usage: %s <device-id>\n", cmd)
		return nil, false
	}
	id, err := parseDeviceID(args[0])
	if err != nil {
		fmt.Fprintf(c.out, "Error: %v\n", err)
		return nil, false
	}
	h, ok := mgr.Handle(id)
	if !ok {
		fmt.Fprintf(c.out, "Device %s is not open (use 'open %s')\n", id, args[0])
		return nil, false
	}
	return h, true
}

// cmdDevices handles the devices command.
func (c *Console) cmdDevices() {
	mgr := c.manager()
	if mgr == nil {
		fmt.Fprintln(c.out, "No device manager")
		return
	}

	n := 0
	for desc := range mgr.Enumerate() {
		state := "closed"
		if h, ok := mgr.Handle(desc.ID); ok {
			state = strings.ToLower(h.State().String())
		}
		fmt.Fprintf(c.out, "  %-8s %s\n", state, desc)
		n++
	}
	if n == 0 {
		fmt.Fprintln(c.out, "No devices")
	}
}

// cmdOpen handles the open command.
func (c *Console) cmdOpen(args []string) {
	mgr := c.manager()
	if mgr == nil {
		fmt.Fprintln(c.out, "No device manager")
		return
	}
	if len(args) < 1 {
		fmt.Fprintln(c.out, "Usage: open <device-id>|default")
		return
	}

	var (
		h   *device.Handle
		err error
	)
	if strings.EqualFold(args[0], "default") {
		h, err = mgr.OpenDefault()
	} else {
		id, perr := parseDeviceID(args[0])
		if perr != nil {
			fmt.Fprintf(c.out, "Error: %v\n", perr)
			return
		}
		h, err = mgr.Open(device.Descriptor{ID: id})
	}
	if err != nil {
		fmt.Fprintf(c.out, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(c.out, "Opened %s (%s)\n", h.Descriptor(), h.State())
}

// cmdStart handles the start command.
func (c *Console) cmdStart(args []string) {
	h, ok := c.handle("start", args)
	if !ok {
		return
	}
	if err := h.Start(); err != nil {
		fmt.Fprintf(c.out, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(c.out, "Started %s\n", h.ID())
}

// cmdStop handles the stop command.
func (c *Console) cmdStop(args []string) {
	h, ok := c.handle("stop", args)
	if !ok {
		return
	}
	if err := h.Stop(); err != nil {
		fmt.Fprintf(c.out, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(c.out, "Stopped %s\n", h.ID())
}

// cmdRelease handles the release command.
func (c *Console) cmdRelease(args []string) {
	h, ok := c.handle("release", args)
	if !ok {
		return
	}
	if err := h.Release(); err != nil {
		fmt.Fprintf(c.out, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(c.out, "Released %s\n", h.ID())
}

// cmdSub handles the sub command.
func (c *Console) cmdSub(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(c.out, "Usage: sub <device-id> frames|paths")
		return
	}
	h, ok := c.handle("sub", args)
	if !ok {
		return
	}

	var (
		id  subscription.ID
		err error
	)
	switch strings.ToLower(args[1]) {
	case "frames", "frame", "f":
		id, err = h.RegisterFrame(c.frames, nil)
	case "paths", "path", "p":
		id, err = h.RegisterPath(c.paths, nil)
	default:
		fmt.Fprintf(c.out, "Unknown subscription kind: %s (use frames or paths)\n", args[1])
		return
	}
	if err != nil {
		fmt.Fprintf(c.out, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(c.out, "Subscription %d on %s\n", id, h.ID())
}

// cmdUnsub handles the unsub command. Without a subscription id the
// subscriptions of the device are listed.
func (c *Console) cmdUnsub(args []string) {
	h, ok := c.handle("unsub", args)
	if !ok {
		return
	}

	if len(args) < 2 {
		subs := h.Subscriptions().List()
		if len(subs) == 0 {
			fmt.Fprintln(c.out, "No subscriptions")
			return
		}
		for _, s := range subs {
			fmt.Fprintf(c.out, "  %d %s\n", s.ID, s.Kind)
		}
		return
	}

	n, err := strconv.ParseUint(args[1], 10, 32)
	if err != nil {
		fmt.Fprintf(c.out, "Invalid subscription id: %s\n", args[1])
		return
	}
	if !h.Unregister(subscription.ID(n)) {
		fmt.Fprintf(c.out, "No subscription %d on %s\n", n, h.ID())
		return
	}
	fmt.Fprintf(c.out, "Removed subscription %d\n", n)
}

// cmdPaths handles the paths command.
func (c *Console) cmdPaths(args []string) {
	h, ok := c.handle("paths", args)
	if !ok {
		return
	}

	paths := h.Paths()
	if len(paths) == 0 {
		fmt.Fprintln(c.out, "No active paths")
		return
	}
	for _, p := range paths {
		s := p.Latest
		flag := ""
		if p.Violation {
			flag = " (irregular entry)"
		}
		fmt.Fprintf(c.out, "  path %d finger %d %s (was %s) since frame %d at (%.3f, %.3f) q=%.3f%s\n",
			p.Index, s.FingerID, p.Stage, p.PreviousStage, p.FirstFrame,
			s.Normalized.Position.X, s.Normalized.Position.Y, s.Quality, flag)
	}
}

// cmdStats handles the stats command.
func (c *Console) cmdStats(args []string) {
	h, ok := c.handle("stats", args)
	if !ok {
		return
	}

	st := h.Stats()
	fmt.Fprintf(c.out, "Device %s (%s)\n", h.ID(), h.State())
	if last, ok := h.LastFrame(); ok {
		fmt.Fprintf(c.out, "  Last frame:          %d\n", last)
	}
	fmt.Fprintf(c.out, "  Frames accepted:     %d\n", st.FramesAccepted)
	fmt.Fprintf(c.out, "  Frames rejected:     %d\n", st.FramesRejected)
	fmt.Fprintf(c.out, "  Samples discarded:   %d\n", st.SamplesDiscarded)
	fmt.Fprintf(c.out, "  Path events:         %d\n", st.PathEvents)
	fmt.Fprintf(c.out, "  Anomalies:           %d\n", st.Anomalies)
	fmt.Fprintf(c.out, "  Subscriber failures: %d\n", st.SubscriberFailures)
	fmt.Fprintf(c.out, "  Subscriptions:       %d\n", h.Subscriptions().Len())
}

// cmdForce handles the force command.
func (c *Console) cmdForce(args []string) {
	h, ok := c.handle("force", args)
	if !ok {
		return
	}
	if len(args) < 2 {
		fmt.Fprintf(c.out, "Force response: %s (supported: %t)\n", onOff(h.SystemForceResponseEnabled()), h.SupportsForce())
		return
	}
	enabled, err := parseOnOff(args[1])
	if err != nil {
		fmt.Fprintf(c.out, "Error: %v\n", err)
		return
	}
	if err := h.SetSystemForceResponseEnabled(enabled); err != nil {
		fmt.Fprintf(c.out, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(c.out, "Force response %s\n", onOff(enabled))
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func parseOnOff(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on", "true", "yes", "1":
		return true, nil
	case "off", "false", "no", "0":
		return false, nil
	default:
		return false, fmt.Errorf("expected on or off, got %q", s)
	}
}
