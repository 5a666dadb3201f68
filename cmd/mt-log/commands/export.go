package commands

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/mtsupport/mt-go/pkg/log"
	"github.com/mtsupport/mt-go/pkg/touch"
)

// RunExport exports the log file to the specified format.
func RunExport(path, format, output string) error {
	reader, err := log.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	var w io.Writer = os.Stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	switch format {
	case "jsonl":
		return exportJSONL(reader, w)
	case "csv":
		return exportCSV(reader, w)
	default:
		return fmt.Errorf("unknown format: %s (supported: jsonl, csv)", format)
	}
}

func exportJSONL(reader *log.Reader, w io.Writer) error {
	encoder := json.NewEncoder(w)
	for event, err := range reader.Events() {
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		if err := encoder.Encode(event); err != nil {
			return fmt.Errorf("failed to encode event: %w", err)
		}
	}
	return nil
}

var csvHeader = []string{"timestamp", "session_id", "device_id", "category", "frame", "samples", "path", "from", "to", "kind", "message"}

func exportCSV(reader *log.Reader, w io.Writer) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for event, err := range reader.Events() {
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		if err := cw.Write(csvRow(event)); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	return nil
}

func csvRow(event log.Event) []string {
	row := make([]string, len(csvHeader))
	row[0] = event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z")
	row[1] = event.SessionID
	row[2] = touch.DeviceID(event.DeviceID).String()
	row[3] = event.Category.String()

	switch {
	case event.Frame != nil:
		row[4] = strconv.FormatInt(event.Frame.Number, 10)
		row[5] = strconv.Itoa(len(event.Frame.Samples))
	case event.Path != nil:
		row[4] = strconv.FormatInt(event.Path.FrameNumber, 10)
		row[6] = strconv.Itoa(int(event.Path.PathID))
		row[7] = event.Path.From.String()
		row[8] = event.Path.To.String()
	case event.StateChange != nil:
		row[7] = event.StateChange.OldState
		row[8] = event.StateChange.NewState
		row[10] = event.StateChange.Reason
	case event.Device != nil:
		row[10] = event.Device.SerialNumber
	case event.Error != nil:
		if event.Error.FrameNumber != 0 {
			row[4] = strconv.FormatInt(event.Error.FrameNumber, 10)
		}
		row[9] = event.Error.Kind.String()
		row[10] = event.Error.Message
	}
	return row
}
