package stats

import (
	"log/slog"
	"time"
)

type Stage string

const (
	StageFolder Stage = "folder"
	StageParse  Stage = "parse"
	StageAttach Stage = "attach"
)

type EventType string

const (
	EventTypeScanned         EventType = "scanned"
	EventTypeAccepted        EventType = "accepted"
	EventTypeUnknownSender   EventType = "unknown_sender"
	EventTypeHeaderError     EventType = "header_error"
	EventTypeSkippedOld      EventType = "skipped_old"
	EventTypeDuplicate       EventType = "duplicate"
	EventTypeAttachmentSaved EventType = "attachment_saved"
	EventTypeAttachmentError EventType = "attachment_error"
	EventTypeTransportError  EventType = "transport_error"
)

// Event is one observation from the walker or its collaborators. The walker is
// single-threaded, so events are handled inline rather than over a channel.
type Event struct {
	Stage     Stage
	Type      EventType
	MessageID string
	Folder    string
	Date      string
	Countdown int
	Err       error
}

// Emit is the hook components use to publish events.
type Emit func(Event)

type Summary struct {
	Scanned          int
	Accepted         int
	UnknownSender    int
	HeaderErrors     int
	SkippedOld       int
	Duplicates       int
	AttachmentsSaved int
	AttachmentErrors int
	TransportErrors  int
	LastError        error
}

func (s Summary) LogAttrs() []any {
	attrs := []any{
		"scanned", s.Scanned,
		"accepted", s.Accepted,
		"unknownSender", s.UnknownSender,
		"headerErrors", s.HeaderErrors,
		"skippedOld", s.SkippedOld,
		"duplicates", s.Duplicates,
		"attachmentsSaved", s.AttachmentsSaved,
		"attachmentErrors", s.AttachmentErrors,
		"transportErrors", s.TransportErrors,
	}
	if s.LastError != nil {
		attrs = append(attrs, "lastError", s.LastError.Error())
	}
	return attrs
}

// Collector accumulates a Summary from events.
type Collector struct {
	summary Summary
}

func NewCollector() *Collector {
	return &Collector{}
}

func (c *Collector) Apply(evt Event) {
	switch evt.Type {
	case EventTypeScanned:
		c.summary.Scanned++
	case EventTypeAccepted:
		c.summary.Accepted++
	case EventTypeUnknownSender:
		c.summary.UnknownSender++
	case EventTypeHeaderError:
		c.summary.HeaderErrors++
	case EventTypeSkippedOld:
		c.summary.SkippedOld++
	case EventTypeDuplicate:
		c.summary.Duplicates++
	case EventTypeAttachmentSaved:
		c.summary.AttachmentsSaved++
	case EventTypeAttachmentError:
		c.summary.AttachmentErrors++
	case EventTypeTransportError:
		c.summary.TransportErrors++
	}
	if evt.Err != nil {
		c.summary.LastError = evt.Err
	}
}

func (c *Collector) Snapshot() Summary {
	return c.summary
}

// Reporter feeds a Collector and logs the end-of-run summary plus the
// unresolved-address report.
type Reporter struct {
	collector *Collector
	logger    *slog.Logger
	started   time.Time
}

func NewReporter(logger *slog.Logger) *Reporter {
	return &Reporter{
		collector: NewCollector(),
		logger:    logger,
		started:   time.Now(),
	}
}

func (r *Reporter) Handle(evt Event) {
	r.collector.Apply(evt)
	if evt.Err != nil && r.logger != nil {
		r.logger.Debug("pipeline event", "stage", evt.Stage, "type", evt.Type, "messageID", evt.MessageID, "err", evt.Err)
	}
}

func (r *Reporter) Summary() Summary {
	return r.collector.Snapshot()
}

// Report logs the run summary and every address that never resolved to a
// known identity.
func (r *Reporter) Report(unresolved []string) {
	if r.logger == nil {
		return
	}
	summary := r.collector.Snapshot()
	attrs := append(summary.LogAttrs(), "duration", time.Since(r.started))
	r.logger.Info("run summary", attrs...)

	if len(unresolved) > 0 {
		r.logger.Info("unresolved addresses", "count", len(unresolved))
		for _, addr := range unresolved {
			r.logger.Info("unresolved address", "email", addr)
		}
	}
}
