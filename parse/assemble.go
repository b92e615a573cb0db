package parse

import (
	"log/slog"
	"strings"

	"github.com/mdvault/mailmd/attach"
	"github.com/mdvault/mailmd/config"
	"github.com/mdvault/mailmd/model"
	"github.com/mdvault/mailmd/normalize"
	"github.com/mdvault/mailmd/people"
	"github.com/mdvault/mailmd/stats"
)

// Outcome classifies what Assemble did with a raw message.
type Outcome int

const (
	// Accepted means the message passed the sender gate and was fully built.
	Accepted Outcome = iota
	// DroppedHeader means decomposition or header extraction failed.
	DroppedHeader
	// DroppedUnknownSender means the sender did not resolve to a kept identity.
	DroppedUnknownSender
)

// Assembler builds archival messages from raw bytes. A message is kept if and
// only if its sender resolves to a non-ignored identity.
type Assembler struct {
	cfg       config.Config
	dir       *people.Directory
	pipeline  *normalize.Pipeline
	extractor *attach.Extractor
	emit      stats.Emit
	logger    *slog.Logger
}

func NewAssembler(cfg config.Config, dir *people.Directory, extractor *attach.Extractor, emit stats.Emit, logger *slog.Logger) *Assembler {
	return &Assembler{
		cfg:       cfg,
		dir:       dir,
		pipeline:  normalize.NewPipeline(logger),
		extractor: extractor,
		emit:      emit,
		logger:    logger,
	}
}

// Assemble parses, gates, normalizes and extracts one raw message. On any
// outcome other than Accepted the returned message is incomplete and must not
// be archived.
func (a *Assembler) Assemble(raw []byte) (model.Message, Outcome) {
	var msg model.Message

	parts, err := Decompose(raw)
	if err != nil {
		a.logger.Debug("message decompose failed", "err", err)
		return msg, DroppedHeader
	}
	if err := parseHeader(parts, &msg); err != nil {
		a.logger.Debug("header extraction failed", "err", err)
		return msg, DroppedHeader
	}
	if a.cfg.Debug {
		a.logger.Debug("parsed message", "id", msg.ID, "subject", msg.Subject)
	}

	fromAddrs := extractAddresses(parts.Header("From"))
	if len(fromAddrs) == 0 {
		return msg, DroppedUnknownSender
	}
	sender := fromAddrs[0]
	identity, ok := a.dir.LookupByEmail(sender)
	switch {
	case !ok:
		a.dir.NoteUnresolved(sender)
		return msg, DroppedUnknownSender
	case identity.Ignore:
		return msg, DroppedUnknownSender
	}
	msg.FromSlug = identity.Slug

	msg.AddToSlug(a.cfg.MeSlug)
	a.resolveRecipients(parts.Header("To"), &msg)
	a.resolveRecipients(parts.Header("Cc"), &msg)

	msg.Body = a.pipeline.Normalize(bodyText(parts))

	for _, part := range parts.Parts {
		if !part.IsAttachment() {
			continue
		}
		record, err := a.extractor.Extract(part)
		if err != nil {
			a.emit(stats.Event{Stage: stats.StageAttach, Type: stats.EventTypeAttachmentError, MessageID: msg.ID, Err: err})
			continue
		}
		if record != nil {
			msg.AddAttachment(*record)
			a.emit(stats.Event{Stage: stats.StageAttach, Type: stats.EventTypeAttachmentSaved, MessageID: msg.ID})
		}
	}

	return msg, Accepted
}

func (a *Assembler) resolveRecipients(headerValue string, msg *model.Message) {
	for _, addr := range extractAddresses(headerValue) {
		identity, ok := a.dir.LookupByEmail(addr)
		switch {
		case !ok:
			a.dir.NoteUnresolved(addr)
		case identity.Ignore:
		default:
			msg.AddToSlug(identity.Slug)
		}
	}
}

// bodyText picks the message body source: the last decodable text/plain part
// wins, with the last text/html part as fallback when no plain text exists.
func bodyText(parts *model.ParsedParts) string {
	var plain, html string
	for _, p := range parts.Parts {
		if p.IsAttachment() || !p.DecodeOK || len(p.Payload) == 0 {
			continue
		}
		ct := strings.ToLower(p.ContentType)
		switch {
		case strings.HasPrefix(ct, "text/plain"):
			plain = string(p.Payload)
		case strings.HasPrefix(ct, "text/html"):
			html = string(p.Payload)
		}
	}
	if plain != "" {
		return plain
	}
	return html
}
