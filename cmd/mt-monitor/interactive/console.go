// Package interactive provides the interactive command-line interface
// for mt-monitor.
package interactive

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/chzyer/readline"

	"github.com/mtsupport/mt-go/pkg/device"
	"github.com/mtsupport/mt-go/pkg/preferences"
	"github.com/mtsupport/mt-go/pkg/subscription"
	"github.com/mtsupport/mt-go/pkg/touch"
)

// Options configures a Console.
type Options struct {
	Dock         *preferences.Dock
	ControlStrip *preferences.ControlStrip

	// Verbose makes frame subscriptions print every sample.
	Verbose bool
}

// Console handles interactive mode for mt-monitor.
type Console struct {
	rl   *readline.Instance
	out  io.Writer
	opts Options

	frames *subscription.FramePrinter
	paths  *subscription.PathPrinter

	mu  sync.Mutex
	mgr *device.Manager
}

// New creates a console reading commands from the terminal.
func New(opts Options) (*Console, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "mt> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		AutoComplete:    completer(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	c := newConsole(rl.Stdout(), opts)
	c.rl = rl
	return c, nil
}

func newConsole(out io.Writer, opts Options) *Console {
	return &Console{
		out:    out,
		opts:   opts,
		frames: subscription.NewFramePrinter(out, opts.Verbose),
		paths:  subscription.NewPathPrinter(out),
	}
}

func completer() *readline.PrefixCompleter {
	return readline.NewPrefixCompleter(
		readline.PcItem("devices"),
		readline.PcItem("open"),
		readline.PcItem("start"),
		readline.PcItem("stop"),
		readline.PcItem("release"),
		readline.PcItem("sub",
			readline.PcItem("frames"),
			readline.PcItem("paths"),
		),
		readline.PcItem("unsub"),
		readline.PcItem("paths"),
		readline.PcItem("stats"),
		readline.PcItem("force"),
		readline.PcItem("dock",
			readline.PcItem("tile"),
			readline.PcItem("orientation"),
			readline.PcItem("effect"),
			readline.PcItem("autohide"),
			readline.PcItem("magnification"),
			readline.PcItem("magsize"),
			readline.PcItem("workspaces"),
			readline.PcItem("grid"),
		),
		readline.PcItem("strip",
			readline.PcItem("items"),
			readline.PcItem("show"),
			readline.PcItem("hide"),
			readline.PcItem("status"),
			readline.PcItem("closebox"),
		),
		readline.PcItem("help"),
		readline.PcItem("quit"),
	)
}

// Bind sets the manager the device commands operate on.
func (c *Console) Bind(mgr *device.Manager) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mgr = mgr
}

func (c *Console) manager() *device.Manager {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mgr
}

// Stdout returns a writer that properly coordinates with the readline input.
// Use this for log output to avoid interfering with the command prompt.
func (c *Console) Stdout() io.Writer {
	return c.out
}

// Stderr returns a writer that properly coordinates with the readline input.
func (c *Console) Stderr() io.Writer {
	if c.rl != nil {
		return c.rl.Stderr()
	}
	return c.out
}

// Run starts the interactive command loop.
func (c *Console) Run(ctx context.Context, cancel context.CancelFunc) {
	defer c.rl.Close()

	c.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := c.rl.Readline()
		if err != nil {
			// EOF or interrupt
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(c.out, "Exiting...")
			cancel()
			return
		}

		if c.Execute(line) {
			fmt.Fprintln(c.out, "Exiting...")
			cancel()
			return
		}
	}
}

// Execute runs one command line. It reports whether the console should exit.
func (c *Console) Execute(line string) bool {
	input := strings.TrimSpace(line)
	if input == "" {
		return false
	}

	parts := strings.Fields(input)
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "help", "?":
		c.printHelp()

	case "devices", "ls":
		c.cmdDevices()

	case "open", "o":
		c.cmdOpen(args)

	case "start":
		c.cmdStart(args)

	case "stop":
		c.cmdStop(args)

	case "release":
		c.cmdRelease(args)

	case "sub":
		c.cmdSub(args)

	case "unsub":
		c.cmdUnsub(args)

	case "paths", "p":
		c.cmdPaths(args)

	case "stats":
		c.cmdStats(args)

	case "force":
		c.cmdForce(args)

	case "dock":
		c.cmdDock(args)

	case "strip":
		c.cmdStrip(args)

	case "quit", "exit", "q":
		return true

	default:
		fmt.Fprintf(c.out, "Unknown command: %s (type 'help' for commands)\n", cmd)
	}
	return false
}

func (c *Console) printHelp() {
	fmt.Fprintln(c.out, `
Multitouch Monitor Commands:
  Devices:
    devices                  - List devices and handle states
    open <id>|default        - Open a device
    start <id>               - Start frame delivery
    stop <id>                - Stop frame delivery
    release <id>             - Release the handle
    force <id> [on|off]      - Show or set the system force response

  Subscriptions:
    sub <id> frames|paths    - Print frames or path transitions
    unsub <id> <sub-id>      - Remove a subscription
    paths <id>               - Show tracked paths
    stats <id>               - Show delivery counters

  Preferences:
    dock [setting [value]]   - Show or change Dock preferences
    strip [command ...]      - Show or change Control Strip preferences

  General:
    help                     - Show this help
    quit                     - Exit

  Device IDs are decimal or 0x-prefixed hex, as shown by 'devices'.`)
}

// parseDeviceID parses a decimal or 0x-prefixed device id.
func parseDeviceID(s string) (touch.DeviceID, error) {
	id, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid device id: %s", s)
	}
	return touch.DeviceID(id), nil
}
