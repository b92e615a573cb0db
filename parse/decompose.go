// Package parse turns raw RFC-2822 messages into archival Message records:
// MIME decomposition, header and address resolution, body normalization and
// attachment extraction.
package parse

import (
	"bytes"
	"fmt"
	"io"

	"github.com/emersion/go-message"

	// Registers decoders for legacy charsets (windows-1252, iso-8859-*, koi8-r).
	_ "github.com/emersion/go-message/charset"

	"github.com/mdvault/mailmd/model"
)

var headerNames = []string{"Subject", "Message-ID", "Date", "From", "To", "Cc", "In-Reply-To", "References"}

// Decompose walks a raw message into its headers and ordered content parts.
// Per-part decode failures yield an empty part; they never abort the
// decomposition of sibling parts.
func Decompose(raw []byte) (*model.ParsedParts, error) {
	ent, err := message.Read(bytes.NewReader(raw))
	if err != nil && !message.IsUnknownCharset(err) {
		return nil, fmt.Errorf("read message: %w", err)
	}

	parsed := &model.ParsedParts{Headers: make(map[string]string)}
	for _, name := range headerNames {
		if v := ent.Header.Get(name); v != "" {
			parsed.Headers[name] = v
		}
	}

	collectParts(ent, parsed)
	return parsed, nil
}

func collectParts(ent *message.Entity, parsed *model.ParsedParts) {
	if mr := ent.MultipartReader(); mr != nil {
		parsed.IsMultipart = true
		for {
			part, err := mr.NextPart()
			if err == io.EOF {
				return
			}
			if err != nil && !message.IsUnknownCharset(err) {
				// Truncated multipart: keep what was collected so far.
				return
			}
			if part == nil {
				return
			}
			collectParts(part, parsed)
		}
	}

	contentType, ctParams, _ := ent.Header.ContentType()
	disposition, dispParams, err := ent.Header.ContentDisposition()
	if err != nil {
		disposition = ent.Header.Get("Content-Disposition")
	}

	filename := dispParams["filename"]
	if filename == "" {
		filename = ctParams["name"]
	}

	payload, readErr := io.ReadAll(ent.Body)
	part := model.Part{
		ContentType: contentType,
		Disposition: disposition,
		Filename:    filename,
		DecodeOK:    readErr == nil,
	}
	if readErr == nil {
		part.Payload = payload
	}
	parsed.Parts = append(parsed.Parts, part)
}
