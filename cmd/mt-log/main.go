// Command mt-log is a tool for viewing and analyzing multitouch capture files.
//
// Capture files are written by mt-monitor with the -capture flag.
//
// Usage:
//
//	mt-log <command> [flags] <file.mtlog>
//
// Commands:
//
//	view     View capture file in human-readable format
//	export   Export capture file to JSONL or CSV format
//	filter   Filter capture file and write to new file
//	stats    Show statistics about the capture file
//
// Examples:
//
//	# View all events
//	mt-log view trackpad.mtlog
//
//	# View only path transitions of one device
//	mt-log view --category path --device 0x100 trackpad.mtlog
//
//	# Export to CSV
//	mt-log export --format csv -o trackpad.csv trackpad.mtlog
//
//	# Keep one session's frames
//	mt-log filter --session 3f2a91c0-5d1e-4b7a-9c2f-0e8d6a4b1f37 --category frame -o frames.mtlog trackpad.mtlog
//
//	# Show statistics
//	mt-log stats trackpad.mtlog
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/mtsupport/mt-go/cmd/mt-log/commands"
)

const usage = `mt-log - Multitouch Capture Analyzer

Usage:
  mt-log <command> [flags] <file.mtlog>

Commands:
  view     View capture file in human-readable format
  export   Export capture file to JSONL or CSV format
  filter   Filter capture file and write to new file
  stats    Show statistics about the capture file

Use "mt-log <command> -help" for more information about a command.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "view":
		runView(args)
	case "export":
		runExport(args)
	case "filter":
		runFilter(args)
	case "stats":
		runStats(args)
	case "-h", "-help", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func requirePath(fs *flag.FlagSet) string {
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: capture file path required")
		fs.Usage()
		os.Exit(1)
	}
	return fs.Arg(0)
}

func runView(args []string) {
	fs := flag.NewFlagSet("view", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `mt-log view - View capture file in human-readable format

Usage:
  mt-log view [flags] <file.mtlog>

Flags:
`)
		fs.PrintDefaults()
	}

	deviceID := fs.String("device", "", "Filter by device ID (decimal or 0x hex)")
	category := fs.String("category", "", "Filter by category (frame, path, state, device, error)")
	verbose := fs.Bool("v", false, "Print every sample of frame events")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	path := requirePath(fs)

	filter := commands.ViewFilter{Verbose: *verbose}

	if *deviceID != "" {
		id, err := commands.ParseDeviceFlag(*deviceID)
		if err != nil {
			fail(err)
		}
		filter.DeviceID = &id
	}

	if *category != "" {
		c, err := commands.ParseCategoryFlag(*category)
		if err != nil {
			fail(err)
		}
		filter.Category = &c
	}

	if err := commands.RunView(path, filter, os.Stdout); err != nil {
		fail(err)
	}
}

func runExport(args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `mt-log export - Export capture file to JSONL or CSV format

Usage:
  mt-log export [flags] <file.mtlog>

Flags:
`)
		fs.PrintDefaults()
	}

	format := fs.String("format", "jsonl", "Output format (jsonl, csv)")
	output := fs.String("o", "", "Output file (default: stdout)")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	path := requirePath(fs)

	if err := commands.RunExport(path, *format, *output); err != nil {
		fail(err)
	}
}

func runFilter(args []string) {
	fs := flag.NewFlagSet("filter", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `mt-log filter - Filter capture file and write to new file

Usage:
  mt-log filter [flags] <file.mtlog>

Flags:
`)
		fs.PrintDefaults()
	}

	output := fs.String("o", "", "Output file (required)")
	sessionID := fs.String("session", "", "Filter by session ID")
	deviceID := fs.String("device", "", "Filter by device ID (decimal or 0x hex)")
	timeStart := fs.String("time-start", "", "Filter by start time (RFC3339)")
	timeEnd := fs.String("time-end", "", "Filter by end time (RFC3339)")
	category := fs.String("category", "", "Filter by category (frame, path, state, device, error)")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	path := requirePath(fs)

	if *output == "" {
		fmt.Fprintln(os.Stderr, "Error: output file (-o) required")
		fs.Usage()
		os.Exit(1)
	}

	opts := commands.FilterOptions{
		Output:    *output,
		SessionID: *sessionID,
		DeviceID:  *deviceID,
		Category:  *category,
		TimeStart: *timeStart,
		TimeEnd:   *timeEnd,
	}

	if err := commands.RunFilter(path, opts, os.Stdout); err != nil {
		fail(err)
	}
}

func runStats(args []string) {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `mt-log stats - Show statistics about the capture file

Usage:
  mt-log stats <file.mtlog>

`)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	path := requirePath(fs)

	if err := commands.RunStats(path, os.Stdout); err != nil {
		fail(err)
	}
}
