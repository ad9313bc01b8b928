package commands

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dashlink/dashlink-go/pkg/log"
)

func TestExportToJSONL(t *testing.T) {
	ts := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	path := createTestLogFile(t, []log.Event{
		{Timestamp: ts, SessionID: testSession, Layer: log.LayerResolver, Resolve: &log.ResolveEvent{FilterType: "entityName", Count: 2}},
		{Timestamp: ts.Add(time.Second), SessionID: testSession, Layer: log.LayerChannel, Command: &log.CommandEvent{CmdID: 1, Family: "attrSubCmds"}},
	})

	outPath := filepath.Join(t.TempDir(), "out.jsonl")
	if err := RunExport(path, "jsonl", outPath); err != nil {
		t.Fatalf("RunExport failed: %v", err)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("failed to read output: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}

	var first log.Event
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("invalid JSON line: %v", err)
	}
	if first.Resolve == nil || first.Resolve.FilterType != "entityName" {
		t.Errorf("expected resolve payload, got %+v", first.Resolve)
	}
}

func TestExportToCSV(t *testing.T) {
	ts := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	path := createTestLogFile(t, []log.Event{
		{Timestamp: ts, SessionID: testSession, EntityType: "ASSET", EntityID: "a-1", Error: &log.ErrorEventData{Message: "lookup failed"}},
	})

	outPath := filepath.Join(t.TempDir(), "out.csv")
	if err := RunExport(path, "csv", outPath); err != nil {
		t.Fatalf("RunExport failed: %v", err)
	}

	f, err := os.Open(outPath)
	if err != nil {
		t.Fatalf("failed to open output: %v", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil && err != io.EOF {
		t.Fatalf("invalid CSV: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected header and one row, got %d rows", len(rows))
	}
	row := rows[1]
	if row[5] != "ASSET" || row[6] != "a-1" {
		t.Errorf("unexpected entity columns: %v", row)
	}
	if row[8] != "Error" || row[9] != "lookup failed" {
		t.Errorf("unexpected type/detail columns: %v", row)
	}
}

func TestExportUnknownFormat(t *testing.T) {
	path := createTestLogFile(t, nil)
	if err := RunExport(path, "xml", filepath.Join(t.TempDir(), "out")); err == nil {
		t.Error("expected error for unknown format")
	}
}
