package parse

import (
	"errors"
	"fmt"
	"mime"
	"net/mail"
	"strings"
	"time"

	"github.com/emersion/go-message/charset"
	"github.com/google/uuid"

	"github.com/mdvault/mailmd/model"
)

var (
	ErrSubjectDecode = errors.New("subject decode failed")
	ErrDateParse     = errors.New("unparsable date header")
)

var wordDecoder = mime.WordDecoder{CharsetReader: charset.Reader}

// dateLayouts is the fallback ladder tried after net/mail's permissive
// RFC-5322 parser. Real mailboxes carry all of these.
var dateLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
	"Mon, 2 Jan 06 15:04:05 -0700",
	"2 Jan 2006 15:04:05 -0700",
	"2 Jan 2006 15:04 -0700",
	"Mon, 2 Jan 2006 15:04 -0700",
	"2006-01-02 15:04:05 -0700",
	time.ANSIC,
}

// parseHeader fills the subject, id and time fields of msg from the raw
// headers. A subject that fails RFC-2047 decoding or a date that fails to
// parse fails the whole message, keeping the all-or-nothing date invariant.
func parseHeader(parts *model.ParsedParts, msg *model.Message) error {
	subject, err := wordDecoder.DecodeHeader(parts.Header("Subject"))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSubjectDecode, err)
	}
	msg.Subject = subject

	msg.ID = strings.TrimSpace(parts.Header("Message-ID"))
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}

	rawDate := parts.Header("Date")
	if rawDate == "" {
		return ErrDateParse
	}
	t, err := parseDate(rawDate)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrDateParse, rawDate)
	}

	msg.Timestamp = t.Unix()
	msg.DateStr = t.Format("2006-01-02")
	msg.TimeStr = t.Format("15:04")
	return nil
}

// parseDate strips any trailing parenthetical comment (usually a timezone
// name) and runs the remainder through a permissive parser ladder.
func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if idx := strings.Index(raw, " ("); idx >= 0 {
		raw = raw[:idx]
	}
	raw = strings.TrimSpace(raw)

	if t, err := mail.ParseDate(raw); err == nil {
		return t, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("no layout matched %q", raw)
}
