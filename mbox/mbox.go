// Package mbox reads a local mbox file through the same surface the walker
// uses for IMAP, so a mailbox export can be archived without a server.
package mbox

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	mboxlib "github.com/emersion/go-mbox"
)

// Session holds the messages of one mbox file in memory. The file name,
// without its extension, acts as the folder name.
type Session struct {
	folder   string
	messages [][]byte
}

// Open loads every message from the mbox file at path.
func Open(path string) (*Session, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open mbox: %w", err)
	}
	defer f.Close()

	session := &Session{
		folder: strings.TrimSuffix(filepath.Base(path), ".mbox"),
	}

	reader := mboxlib.NewReader(f)
	for {
		msg, err := reader.NextMessage()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read mbox %s: %w", path, err)
		}
		raw, err := io.ReadAll(msg)
		if err != nil {
			return nil, fmt.Errorf("read mbox %s: %w", path, err)
		}
		session.messages = append(session.messages, raw)
	}

	return session, nil
}

func (s *Session) ListFolders() ([]string, error) {
	return []string{s.folder}, nil
}

func (s *Session) SelectFolder(folder string) (int, error) {
	if folder != s.folder {
		return 0, fmt.Errorf("unknown folder %s", folder)
	}
	return len(s.messages), nil
}

// FetchRaw returns the message with the given 1-based sequence number.
func (s *Session) FetchRaw(seq int) ([]byte, error) {
	if seq < 1 || seq > len(s.messages) {
		return nil, fmt.Errorf("message %d out of range", seq)
	}
	return s.messages[seq-1], nil
}

func (s *Session) Logout() error {
	return nil
}
