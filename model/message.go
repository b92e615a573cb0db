package model

import "strings"

// Part is one decoded MIME part of a message.
type Part struct {
	ContentType string
	Disposition string
	Filename    string
	Payload     []byte
	DecodeOK    bool
}

// IsAttachment reports whether the part was flagged as an attachment by its
// Content-Disposition header.
func (p Part) IsAttachment() bool {
	return strings.Contains(strings.ToLower(p.Disposition), "attachment")
}

// ParsedParts is the decomposition result for one raw message: the raw header
// values plus the ordered sequence of content parts.
type ParsedParts struct {
	Headers     map[string]string
	IsMultipart bool
	Parts       []Part
}

// Header returns the raw value for the given header name, or "".
func (p *ParsedParts) Header(name string) string {
	if p == nil || p.Headers == nil {
		return ""
	}
	return p.Headers[name]
}

// Attachment describes one extracted attachment. Immutable after creation.
type Attachment struct {
	ID             string
	Filename       string
	CustomFilename string
	MIMEType       string
}

// Message is one archival email record. It is mutated only while its raw
// message is being processed and becomes immutable once accepted.
type Message struct {
	ID          string
	Subject     string
	Timestamp   int64
	DateStr     string
	TimeStr     string
	FromSlug    string
	ToSlugs     []string
	Body        string
	Attachments []Attachment
}

// AddToSlug appends slug to ToSlugs unless it is empty, equal to FromSlug or
// already present.
func (m *Message) AddToSlug(slug string) {
	if slug == "" || slug == m.FromSlug {
		return
	}
	for _, s := range m.ToSlugs {
		if s == slug {
			return
		}
	}
	m.ToSlugs = append(m.ToSlugs, slug)
}

// AddAttachment appends an attachment record to the message.
func (m *Message) AddAttachment(a Attachment) {
	m.Attachments = append(m.Attachments, a)
}
