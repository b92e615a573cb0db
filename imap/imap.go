// Package imap wraps a logged-in IMAP connection behind the small surface the
// folder walker needs.
package imap

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"

	"github.com/mdvault/mailmd/config"
)

// Session is a logged-in IMAP connection scoped to one archival run.
type Session struct {
	client *imapclient.Client
	logger *slog.Logger
}

// Dial connects over TLS and logs in with the configured account.
func Dial(cfg config.Config, logger *slog.Logger) (*Session, error) {
	addr := fmt.Sprintf("%s:%d", cfg.IMAPServer, cfg.IMAPPort)
	client, err := imapclient.DialTLS(addr, nil)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", addr, err)
	}

	if err := client.Login(cfg.Account, cfg.Password).Wait(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("login as %s: %w", cfg.Account, err)
	}

	logger.Debug("imap session established", "server", addr, "account", cfg.Account)
	return &Session{client: client, logger: logger}, nil
}

// ListFolders returns every folder name on the server.
func (s *Session) ListFolders() ([]string, error) {
	mailboxes, err := s.client.List("", "*", nil).Collect()
	if err != nil {
		return nil, fmt.Errorf("list folders: %w", err)
	}

	names := make([]string, 0, len(mailboxes))
	for _, mbox := range mailboxes {
		names = append(names, mbox.Mailbox)
	}
	return names, nil
}

// SelectFolder opens a folder read-only and returns its message count.
// Surrounding quotes from hand-written settings files are stripped; the
// client does its own wire quoting.
func (s *Session) SelectFolder(folder string) (int, error) {
	folder = strings.Trim(folder, `"`)

	data, err := s.client.Select(folder, &imap.SelectOptions{ReadOnly: true}).Wait()
	if err != nil {
		return 0, fmt.Errorf("select folder %s: %w", folder, err)
	}
	return int(data.NumMessages), nil
}

// FetchRaw downloads the complete raw message with the given 1-based sequence
// number. Peek keeps the \Seen flag untouched.
func (s *Session) FetchRaw(seq int) ([]byte, error) {
	seqSet := imap.SeqSetNum(uint32(seq))
	bodySection := &imap.FetchItemBodySection{Peek: true}
	options := &imap.FetchOptions{
		BodySection: []*imap.FetchItemBodySection{bodySection},
	}

	msgs, err := s.client.Fetch(seqSet, options).Collect()
	if err != nil {
		return nil, fmt.Errorf("fetch message %d: %w", seq, err)
	}
	if len(msgs) == 0 {
		return nil, fmt.Errorf("fetch message %d: no data returned", seq)
	}

	body := msgs[0].FindBodySection(bodySection)
	if body == nil {
		return nil, fmt.Errorf("fetch message %d: body section missing", seq)
	}
	return body, nil
}

// Logout ends the session.
func (s *Session) Logout() error {
	if err := s.client.Logout().Wait(); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}
