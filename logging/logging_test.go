package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestNewWritesJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	log, cleanup, err := New(Config{Level: "debug", Format: "json", File: path})
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}
	log.Debug("listed directory", zap.String("path", "/pub"))
	cleanup()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	line := strings.TrimSpace(string(data))
	var rec map[string]any
	if err := json.Unmarshal([]byte(line), &rec); err != nil {
		t.Fatalf("expected a JSON line, got %q", line)
	}
	if rec["msg"] != "listed directory" || rec["path"] != "/pub" {
		t.Errorf("unexpected record %v", rec)
	}
}

func TestNewLevelFilters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	log, cleanup, err := New(Config{Level: "warn", File: path})
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}
	defer cleanup()
	log.Info("hidden")
	log.Warn("shown")
	_ = log.Sync()

	data, _ := os.ReadFile(path)
	if strings.Contains(string(data), "hidden") || !strings.Contains(string(data), "shown") {
		t.Errorf("unexpected log contents %q", data)
	}
}

func TestNewRejectsBadConfig(t *testing.T) {
	if _, _, err := New(Config{Level: "loud"}); err == nil {
		t.Error("expected an invalid level to be rejected")
	}
	if _, _, err := New(Config{Format: "xml"}); err == nil {
		t.Error("expected an invalid format to be rejected")
	}
}

func TestCleanupClosesLogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	log, cleanup, err := New(Config{Level: "info", File: path})
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}
	log.Info("before close")
	cleanup()

	// A still-open handle would keep writing into the moved file
	moved := path + ".1"
	if err := os.Rename(path, moved); err != nil {
		t.Fatal(err)
	}
	log.Info("after close")
	_ = log.Sync()

	data, err := os.ReadFile(moved)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "before close") {
		t.Errorf("expected flushed record, got %q", data)
	}
	if strings.Contains(string(data), "after close") {
		t.Error("log file was still open after cleanup")
	}
}
