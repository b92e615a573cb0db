package state

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestMemoryTracker(t *testing.T) {
	tracker := NewMemoryTracker()

	if tracker.AlreadyArchived("<m1@example.com>") {
		t.Fatal("fresh tracker reports archived message")
	}
	if err := tracker.MarkArchived("<m1@example.com>"); err != nil {
		t.Fatalf("mark failed: %v", err)
	}
	if !tracker.AlreadyArchived("<m1@example.com>") {
		t.Fatal("marked message not reported archived")
	}
}

func TestMemoryTrackerIgnoresEmptyID(t *testing.T) {
	tracker := NewMemoryTracker()
	if err := tracker.MarkArchived(""); err != nil {
		t.Fatalf("mark failed: %v", err)
	}
	if tracker.AlreadyArchived("") {
		t.Fatal("empty id reported archived")
	}
}

func TestFileTrackerPersistsAcrossRuns(t *testing.T) {
	dir := t.TempDir()

	tracker, err := NewFileTracker(dir, true)
	if err != nil {
		t.Fatalf("create tracker: %v", err)
	}
	if err := tracker.MarkArchived("<m1@example.com>"); err != nil {
		t.Fatalf("mark failed: %v", err)
	}
	if err := tracker.MarkArchived("<m2@example.com>"); err != nil {
		t.Fatalf("mark failed: %v", err)
	}
	if err := tracker.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	reopened, err := NewFileTracker(dir, true)
	if err != nil {
		t.Fatalf("reopen tracker: %v", err)
	}
	defer reopened.Close()

	if !reopened.AlreadyArchived("<m1@example.com>") || !reopened.AlreadyArchived("<m2@example.com>") {
		t.Fatal("archived ids lost across runs")
	}
	if reopened.AlreadyArchived("<m3@example.com>") {
		t.Fatal("unknown id reported archived")
	}
}

func TestFileTrackerMarkIsIdempotent(t *testing.T) {
	dir := t.TempDir()

	tracker, err := NewFileTracker(dir, true)
	if err != nil {
		t.Fatalf("create tracker: %v", err)
	}
	for range 3 {
		if err := tracker.MarkArchived("<m1@example.com>"); err != nil {
			t.Fatalf("mark failed: %v", err)
		}
	}
	if err := tracker.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "archived.jsonl"))
	if err != nil {
		t.Fatalf("read state file: %v", err)
	}
	lines := strings.Count(strings.TrimSpace(string(data)), "\n") + 1
	if lines != 1 {
		t.Fatalf("got %d state lines, want 1", lines)
	}
}

func TestFileTrackerWithoutPersistence(t *testing.T) {
	dir := t.TempDir()

	tracker, err := NewFileTracker(dir, false)
	if err != nil {
		t.Fatalf("create tracker: %v", err)
	}
	if err := tracker.MarkArchived("<m1@example.com>"); err != nil {
		t.Fatalf("mark failed: %v", err)
	}
	if err := tracker.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "archived.jsonl")); !os.IsNotExist(err) {
		t.Fatal("state file written despite persist=false")
	}
}

func TestFileTrackerEmptyDir(t *testing.T) {
	if _, err := NewFileTracker("  ", true); err == nil {
		t.Fatal("expected error for empty state dir")
	}
}

func TestFileTrackerSkipsBlankAndKeepsValidLines(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "archived.jsonl")
	content := `{"message_id":"<m1@example.com>"}` + "\n\n" + `{"message_id":"<m2@example.com>"}` + "\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("seed state file: %v", err)
	}

	tracker, err := NewFileTracker(dir, false)
	if err != nil {
		t.Fatalf("create tracker: %v", err)
	}
	if !tracker.AlreadyArchived("<m1@example.com>") || !tracker.AlreadyArchived("<m2@example.com>") {
		t.Fatal("valid ids not loaded")
	}
}
