package stats

import (
	"errors"
	"testing"
)

func TestCollectorCounts(t *testing.T) {
	c := NewCollector()

	events := []Event{
		{Type: EventTypeScanned},
		{Type: EventTypeScanned},
		{Type: EventTypeAccepted},
		{Type: EventTypeUnknownSender},
		{Type: EventTypeHeaderError},
		{Type: EventTypeSkippedOld},
		{Type: EventTypeDuplicate},
		{Type: EventTypeAttachmentSaved},
		{Type: EventTypeAttachmentError, Err: errors.New("disk full")},
		{Type: EventTypeTransportError, Err: errors.New("connection reset")},
	}
	for _, evt := range events {
		c.Apply(evt)
	}

	s := c.Snapshot()
	if s.Scanned != 2 {
		t.Errorf("Scanned = %d, want 2", s.Scanned)
	}
	if s.Accepted != 1 {
		t.Errorf("Accepted = %d, want 1", s.Accepted)
	}
	if s.UnknownSender != 1 || s.HeaderErrors != 1 || s.SkippedOld != 1 || s.Duplicates != 1 {
		t.Errorf("drop counters wrong: %+v", s)
	}
	if s.AttachmentsSaved != 1 || s.AttachmentErrors != 1 || s.TransportErrors != 1 {
		t.Errorf("attachment/transport counters wrong: %+v", s)
	}
	if s.LastError == nil || s.LastError.Error() != "connection reset" {
		t.Errorf("LastError = %v, want connection reset", s.LastError)
	}
}

func TestReporterHandleFeedsCollector(t *testing.T) {
	r := NewReporter(nil)
	r.Handle(Event{Type: EventTypeAccepted})
	r.Handle(Event{Type: EventTypeAccepted})

	if got := r.Summary().Accepted; got != 2 {
		t.Errorf("Accepted = %d, want 2", got)
	}
}

func TestSummaryLogAttrs(t *testing.T) {
	s := Summary{Scanned: 3, LastError: errors.New("boom")}
	attrs := s.LogAttrs()

	// Key/value pairs must stay balanced for slog.
	if len(attrs)%2 != 0 {
		t.Fatalf("LogAttrs returned odd number of elements: %d", len(attrs))
	}
}
