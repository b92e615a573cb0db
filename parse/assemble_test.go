package parse

import (
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mdvault/mailmd/attach"
	"github.com/mdvault/mailmd/config"
	"github.com/mdvault/mailmd/people"
	"github.com/mdvault/mailmd/stats"
)

type memSink struct {
	dirs  []string
	files map[string][]byte
}

func newMemSink() *memSink {
	return &memSink{files: make(map[string][]byte)}
}

func (s *memSink) EnsureDir(path string) error {
	s.dirs = append(s.dirs, path)
	return nil
}

func (s *memSink) WriteFile(path string, data []byte) error {
	s.files[path] = data
	return nil
}

func testDirectory() *people.Directory {
	dir := people.NewDirectory()
	dir.Add(people.Identity{Slug: "alice", Emails: []string{"alice@example.com"}})
	dir.Add(people.Identity{Slug: "bob", Emails: []string{"bob@example.com"}})
	dir.Add(people.Identity{Slug: "carol", Ignore: true, Emails: []string{"carol@example.com"}})
	return dir
}

func testConfig() config.Config {
	return config.Config{
		OutputRoot:      "/vault",
		PeopleSubfolder: "People",
		MediaSubfolder:  "media",
		MeSlug:          "me",
	}
}

func newTestAssembler(t *testing.T, dir *people.Directory) (*Assembler, *memSink, *[]stats.Event) {
	t.Helper()

	sink := newMemSink()
	events := &[]stats.Event{}
	emit := func(evt stats.Event) { *events = append(*events, evt) }

	cfg := testConfig()
	logger := slog.Default()
	extractor := attach.NewExtractor(cfg, sink, logger)
	return NewAssembler(cfg, dir, extractor, emit, logger), sink, events
}

func multipartFixture() []byte {
	return []byte("From: Alice Example <alice@example.com>\r\n" +
		"To: Bob <bob@example.com>, Carol <carol@example.com>\r\n" +
		"Subject: =?UTF-8?Q?Hello_Bob?=\r\n" +
		"Message-ID: <msg-1@example.com>\r\n" +
		"Date: Mon, 01 Jan 2024 10:00:00 -0500\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: multipart/mixed; boundary=\"XYZ\"\r\n" +
		"\r\n" +
		"--XYZ\r\n" +
		"Content-Type: text/plain; charset=utf-8\r\n" +
		"\r\n" +
		"Hi there.\r\n" +
		"\r\n" +
		"On Mon, Jan 1, 2024 Bob wrote:\r\n" +
		"> old quoted text\r\n" +
		"--XYZ\r\n" +
		"Content-Type: application/pdf\r\n" +
		"Content-Disposition: attachment; filename=\"invoice.pdf\"\r\n" +
		"Content-Transfer-Encoding: base64\r\n" +
		"\r\n" +
		"JVBERi0xLjQ=\r\n" +
		"--XYZ--\r\n")
}

func TestAssembleAcceptedMessage(t *testing.T) {
	asm, sink, events := newTestAssembler(t, testDirectory())

	msg, outcome := asm.Assemble(multipartFixture())
	require.Equal(t, Accepted, outcome)

	require.Equal(t, "<msg-1@example.com>", msg.ID)
	require.Equal(t, "Hello Bob", msg.Subject)
	require.Equal(t, "2024-01-01", msg.DateStr)
	require.Equal(t, "10:00", msg.TimeStr)
	require.Equal(t, "alice", msg.FromSlug)

	// carol is ignored, alice is the sender; only me and bob remain.
	require.Equal(t, []string{"me", "bob"}, msg.ToSlugs)

	require.Contains(t, msg.Body, "Hi there.")
	require.NotContains(t, msg.Body, "old quoted text")

	require.Len(t, msg.Attachments, 1)
	require.Equal(t, "invoice.pdf", msg.Attachments[0].Filename)
	require.Equal(t, "application/pdf", msg.Attachments[0].MIMEType)

	target := filepath.Join("/vault", "People", "media", "invoice.pdf")
	require.Equal(t, []byte("%PDF-1.4"), sink.files[target])

	saved := 0
	for _, evt := range *events {
		if evt.Type == stats.EventTypeAttachmentSaved {
			saved++
		}
	}
	require.Equal(t, 1, saved)
}

func TestAssembleUnknownSender(t *testing.T) {
	dir := testDirectory()
	asm, _, _ := newTestAssembler(t, dir)

	raw := []byte("From: Dave <dave@example.com>\r\n" +
		"Subject: hi\r\n" +
		"Date: Mon, 01 Jan 2024 10:00:00 +0000\r\n" +
		"Content-Type: text/plain\r\n" +
		"\r\n" +
		"hello\r\n")

	_, outcome := asm.Assemble(raw)
	require.Equal(t, DroppedUnknownSender, outcome)
	require.Equal(t, []string{"dave@example.com"}, dir.Unresolved())
}

func TestAssembleIgnoredSenderDroppedSilently(t *testing.T) {
	dir := testDirectory()
	asm, _, _ := newTestAssembler(t, dir)

	raw := []byte("From: Carol <carol@example.com>\r\n" +
		"Subject: hi\r\n" +
		"Date: Mon, 01 Jan 2024 10:00:00 +0000\r\n" +
		"Content-Type: text/plain\r\n" +
		"\r\n" +
		"hello\r\n")

	_, outcome := asm.Assemble(raw)
	require.Equal(t, DroppedUnknownSender, outcome)
	require.Empty(t, dir.Unresolved())
}

func TestAssembleMissingDateDropsMessage(t *testing.T) {
	asm, _, _ := newTestAssembler(t, testDirectory())

	raw := []byte("From: Alice <alice@example.com>\r\n" +
		"Subject: hi\r\n" +
		"Content-Type: text/plain\r\n" +
		"\r\n" +
		"hello\r\n")

	_, outcome := asm.Assemble(raw)
	require.Equal(t, DroppedHeader, outcome)
}

func TestAssembleHTMLFallbackBody(t *testing.T) {
	asm, _, _ := newTestAssembler(t, testDirectory())

	raw := []byte("From: Alice <alice@example.com>\r\n" +
		"Subject: html only\r\n" +
		"Date: Mon, 01 Jan 2024 10:00:00 +0000\r\n" +
		"Message-ID: <html-1@example.com>\r\n" +
		"Content-Type: text/html; charset=utf-8\r\n" +
		"\r\n" +
		"<p>Rendered <b>bold</b>.</p>\r\n")

	msg, outcome := asm.Assemble(raw)
	require.Equal(t, Accepted, outcome)
	require.Contains(t, msg.Body, "Rendered")
	require.Contains(t, msg.Body, "bold")
	require.NotContains(t, msg.Body, "<p>")
}

func TestBodyTextPrefersPlainOverHTML(t *testing.T) {
	parsed, err := Decompose([]byte("From: Alice <alice@example.com>\r\n" +
		"Content-Type: multipart/alternative; boundary=\"AB\"\r\n" +
		"\r\n" +
		"--AB\r\n" +
		"Content-Type: text/html\r\n" +
		"\r\n" +
		"<p>html version</p>\r\n" +
		"--AB\r\n" +
		"Content-Type: text/plain\r\n" +
		"\r\n" +
		"plain version\r\n" +
		"--AB--\r\n"))
	require.NoError(t, err)
	require.True(t, parsed.IsMultipart)
	require.Contains(t, bodyText(parsed), "plain version")
}
