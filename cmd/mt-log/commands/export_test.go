package commands

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestExportToJSONL(t *testing.T) {
	path := createTestLogFile(t, sampleSession())

	outPath := filepath.Join(t.TempDir(), "out.jsonl")
	if err := RunExport(path, "jsonl", outPath); err != nil {
		t.Fatalf("RunExport failed: %v", err)
	}

	f, err := os.Open(outPath)
	if err != nil {
		t.Fatalf("failed to open output: %v", err)
	}
	defer f.Close()

	var lines []map[string]any
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var m map[string]any
		if err := json.Unmarshal(scanner.Bytes(), &m); err != nil {
			t.Fatalf("line is not JSON: %v: %s", err, scanner.Text())
		}
		lines = append(lines, m)
	}

	if len(lines) != 5 {
		t.Fatalf("expected 5 lines, got %d", len(lines))
	}
	if lines[0]["SessionID"] != testSession {
		t.Errorf("SessionID = %v", lines[0]["SessionID"])
	}
	frame, ok := lines[2]["Frame"].(map[string]any)
	if !ok {
		t.Fatalf("expected Frame object on line 3, got %v", lines[2]["Frame"])
	}
	if frame["Number"] != float64(12) {
		t.Errorf("Frame.Number = %v, want 12", frame["Number"])
	}
	if _, ok := lines[0]["Path"]; !ok {
		t.Error("expected Path key on every line")
	}
}

func TestExportToCSV(t *testing.T) {
	path := createTestLogFile(t, sampleSession())

	outPath := filepath.Join(t.TempDir(), "out.csv")
	if err := RunExport(path, "csv", outPath); err != nil {
		t.Fatalf("RunExport failed: %v", err)
	}

	f, err := os.Open(outPath)
	if err != nil {
		t.Fatalf("failed to open output: %v", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("failed to parse CSV: %v", err)
	}

	if len(records) != 6 {
		t.Fatalf("expected header + 5 rows, got %d", len(records))
	}
	if records[0][0] != "timestamp" || records[0][3] != "category" {
		t.Errorf("unexpected header: %v", records[0])
	}

	tests := []struct {
		row  int
		col  int
		want string
	}{
		{1, 3, "DEVICE"},
		{1, 10, "FMX123"},
		{2, 7, "OPEN"},
		{2, 8, "RUNNING"},
		{3, 4, "12"},
		{3, 5, "1"},
		{4, 6, "1"},
		{4, 7, "MakeTouch"},
		{4, 8, "Touching"},
		{5, 2, "0x200"},
		{5, 9, "OUT_OF_ORDER_FRAME"},
		{5, 10, "frame 7 after 9"},
	}
	for _, tt := range tests {
		if got := records[tt.row][tt.col]; got != tt.want {
			t.Errorf("records[%d][%d] = %q, want %q", tt.row, tt.col, got, tt.want)
		}
	}
}

func TestExportUnknownFormat(t *testing.T) {
	path := createTestLogFile(t, sampleSession())

	if err := RunExport(path, "xml", filepath.Join(t.TempDir(), "out.xml")); err == nil {
		t.Fatal("expected error for unknown format")
	}
}
