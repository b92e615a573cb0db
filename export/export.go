// Package export writes accepted messages as Markdown notes with YAML front
// matter into the per-person folders of the archive.
package export

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mdvault/mailmd/config"
	"github.com/mdvault/mailmd/model"
)

type frontMatter struct {
	Subject     string   `yaml:"subject"`
	From        string   `yaml:"from"`
	To          []string `yaml:"to,omitempty"`
	Date        string   `yaml:"date"`
	Time        string   `yaml:"time"`
	MessageID   string   `yaml:"message_id"`
	Attachments []string `yaml:"attachments,omitempty"`
}

// WriteMessages persists each message as a note under the sender's folder.
// Note names are date-time based, so two messages from the same sender in the
// same minute collapse into one note; the later write wins.
func WriteMessages(cfg config.Config, msgs []model.Message, logger *slog.Logger) error {
	for _, msg := range msgs {
		if err := writeMessage(cfg, msg); err != nil {
			return fmt.Errorf("write message %s: %w", msg.ID, err)
		}
	}
	logger.Info("notes written", "count", len(msgs))
	return nil
}

func writeMessage(cfg config.Config, msg model.Message) error {
	dir := filepath.Join(cfg.OutputRoot, cfg.PeopleSubfolder, msg.FromSlug)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	name := fmt.Sprintf("%s-%s.md", msg.DateStr, strings.ReplaceAll(msg.TimeStr, ":", ""))
	path := filepath.Join(dir, name)

	data, err := render(cfg, msg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func render(cfg config.Config, msg model.Message) ([]byte, error) {
	var attachments []string
	for _, att := range msg.Attachments {
		attachments = append(attachments, filepath.ToSlash(filepath.Join(cfg.MediaSubfolder, att.Filename)))
	}

	fm := frontMatter{
		Subject:     msg.Subject,
		From:        msg.FromSlug,
		To:          msg.ToSlugs,
		Date:        msg.DateStr,
		Time:        msg.TimeStr,
		MessageID:   msg.ID,
		Attachments: attachments,
	}

	var buf bytes.Buffer
	buf.WriteString("---\n")
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(fm); err != nil {
		return nil, fmt.Errorf("encode front matter: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode front matter: %w", err)
	}
	buf.WriteString("---\n\n")

	buf.WriteString(msg.Body)
	if !strings.HasSuffix(msg.Body, "\n") {
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}
