package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNew_WritesJSONLines(t *testing.T) {
	file := filepath.Join(t.TempDir(), "logs", "px.log")

	log, err := New(Options{File: file, Level: "debug"})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	log.Info("catalog finished")
	_ = log.Sync()

	data, err := os.ReadFile(file)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}

	line := strings.TrimSpace(strings.Split(string(data), "\n")[0])
	var entry map[string]any
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v (%q)", err, line)
	}
	if entry["message"] != "catalog finished" {
		t.Errorf("message = %v", entry["message"])
	}
	if _, ok := entry["timestamp"]; !ok {
		t.Error("expected timestamp key")
	}
}

func TestNew_RespectsLevel(t *testing.T) {
	file := filepath.Join(t.TempDir(), "px.log")

	log, err := New(Options{File: file, Level: "error"})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	log.Info("hidden")
	log.Error("shown")
	_ = log.Sync()

	data, _ := os.ReadFile(file)
	if strings.Contains(string(data), "hidden") {
		t.Error("info entry should be filtered at error level")
	}
	if !strings.Contains(string(data), "shown") {
		t.Error("error entry missing")
	}
}

func TestNew_RequiresFile(t *testing.T) {
	if _, err := New(Options{}); err == nil {
		t.Error("expected error for empty file path")
	}
}
