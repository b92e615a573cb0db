// Package state remembers which messages earlier runs already archived so a
// re-run against the same mailbox does not duplicate notes.
package state

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

type Tracker interface {
	AlreadyArchived(messageID string) bool
	MarkArchived(messageID string) error
}

// MemoryTracker keeps archived message ids for the current process only.
type MemoryTracker struct {
	archived map[string]struct{}
}

func NewMemoryTracker() *MemoryTracker {
	return &MemoryTracker{archived: make(map[string]struct{})}
}

func (m *MemoryTracker) AlreadyArchived(messageID string) bool {
	if messageID == "" {
		return false
	}
	_, ok := m.archived[messageID]
	return ok
}

func (m *MemoryTracker) MarkArchived(messageID string) error {
	if messageID == "" {
		return nil
	}
	m.archived[messageID] = struct{}{}
	return nil
}

// FileTracker persists archived message ids so future runs can skip them.
type FileTracker struct {
	*MemoryTracker
	path    string
	persist bool
	writer  *bufio.Writer
	file    *os.File
}

type fileRecord struct {
	MessageID string `json:"message_id"`
}

func NewFileTracker(stateDir string, persist bool) (*FileTracker, error) {
	if strings.TrimSpace(stateDir) == "" {
		return nil, fmt.Errorf("state directory is empty")
	}

	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		return nil, fmt.Errorf("create state directory: %w", err)
	}

	tracker := &FileTracker{
		MemoryTracker: NewMemoryTracker(),
		path:          filepath.Join(stateDir, "archived.jsonl"),
		persist:       persist,
	}

	if err := tracker.load(); err != nil {
		return nil, err
	}

	if persist {
		file, err := os.OpenFile(tracker.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return nil, fmt.Errorf("open state file for append: %w", err)
		}
		tracker.file = file
		tracker.writer = bufio.NewWriter(file)
	}

	return tracker, nil
}

func (f *FileTracker) load() error {
	file, err := os.Open(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("open state file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for line := 1; scanner.Scan(); line++ {
		text := scanner.Bytes()
		if len(text) == 0 {
			continue
		}

		var record fileRecord
		if err := json.Unmarshal(text, &record); err != nil {
			return fmt.Errorf("parse state line %d: %w", line, err)
		}
		if record.MessageID == "" {
			continue
		}
		f.archived[record.MessageID] = struct{}{}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read state file: %w", err)
	}

	return nil
}

func (f *FileTracker) MarkArchived(messageID string) error {
	if messageID == "" {
		return nil
	}
	if _, exists := f.archived[messageID]; exists {
		return nil
	}
	f.archived[messageID] = struct{}{}

	if !f.persist {
		return nil
	}

	data, err := json.Marshal(fileRecord{MessageID: messageID})
	if err != nil {
		return fmt.Errorf("encode state record: %w", err)
	}
	if _, err := f.writer.Write(data); err != nil {
		return fmt.Errorf("write state record: %w", err)
	}
	if err := f.writer.WriteByte('\n'); err != nil {
		return fmt.Errorf("write newline: %w", err)
	}
	return nil
}

// Close flushes and closes the state file.
func (f *FileTracker) Close() error {
	if !f.persist || f.file == nil {
		return nil
	}

	var firstErr error
	if f.writer != nil {
		if err := f.writer.Flush(); err != nil {
			firstErr = fmt.Errorf("flush state file: %w", err)
		}
	}
	if err := f.file.Sync(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("sync state file: %w", err)
	}
	if err := f.file.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("close state file: %w", err)
	}
	return firstErr
}
