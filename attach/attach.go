// Package attach writes attachment payloads into the shared media folder of
// the archive and describes them for message front matter.
package attach

import (
	"fmt"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/mdvault/mailmd/config"
	"github.com/mdvault/mailmd/model"
)

// Sink abstracts the destination filesystem so extraction is testable
// without touching disk.
type Sink interface {
	EnsureDir(path string) error
	WriteFile(path string, data []byte) error
}

// OSSink writes through to the local filesystem.
type OSSink struct{}

func (OSSink) EnsureDir(path string) error {
	return os.MkdirAll(path, 0o755)
}

func (OSSink) WriteFile(path string, data []byte) error {
	return os.WriteFile(path, data, 0o644)
}

// Extractor persists attachment parts under a single deterministic media
// directory shared by all messages. A later attachment with the same
// filename overwrites an earlier one.
type Extractor struct {
	sink     Sink
	mediaDir string
	logger   *slog.Logger
}

func NewExtractor(cfg config.Config, sink Sink, logger *slog.Logger) *Extractor {
	return &Extractor{
		sink:     sink,
		mediaDir: filepath.Join(cfg.OutputRoot, cfg.PeopleSubfolder, cfg.MediaSubfolder),
		logger:   logger,
	}
}

// Extract writes the payload of an attachment part and returns its record.
// Parts that are not attachments, carry no filename or failed to decode are
// skipped with a nil record; only sink failures surface as errors.
func (e *Extractor) Extract(part model.Part) (*model.Attachment, error) {
	if !part.IsAttachment() {
		return nil, nil
	}

	name := filepath.Base(strings.TrimSpace(part.Filename))
	if name == "" || name == "." || name == string(filepath.Separator) {
		e.logger.Warn("attachment without usable filename skipped", "content_type", part.ContentType)
		return nil, nil
	}
	if !part.DecodeOK {
		e.logger.Warn("attachment payload failed to decode, skipped", "filename", name)
		return nil, nil
	}

	if err := e.sink.EnsureDir(e.mediaDir); err != nil {
		return nil, fmt.Errorf("create media dir: %w", err)
	}
	target := filepath.Join(e.mediaDir, name)
	if err := e.sink.WriteFile(target, part.Payload); err != nil {
		return nil, fmt.Errorf("write attachment %s: %w", name, err)
	}

	// Extension lookup first: declared part types are frequently the generic
	// octet-stream even for well-known formats.
	mimeType := mime.TypeByExtension(filepath.Ext(name))
	if mimeType == "" {
		mimeType = part.ContentType
	}
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	e.logger.Debug("attachment saved", "filename", name, "path", target)
	return &model.Attachment{
		ID:             name,
		Filename:       name,
		CustomFilename: name,
		MIMEType:       mimeType,
	}, nil
}
