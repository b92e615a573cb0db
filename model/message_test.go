package model

import "testing"

func TestAddToSlug(t *testing.T) {
	msg := Message{FromSlug: "alice"}

	msg.AddToSlug("me")
	msg.AddToSlug("bob")
	msg.AddToSlug("bob")   // duplicate
	msg.AddToSlug("alice") // sender
	msg.AddToSlug("")      // empty

	want := []string{"me", "bob"}
	if len(msg.ToSlugs) != len(want) {
		t.Fatalf("ToSlugs = %v, want %v", msg.ToSlugs, want)
	}
	for i := range want {
		if msg.ToSlugs[i] != want[i] {
			t.Fatalf("ToSlugs = %v, want %v", msg.ToSlugs, want)
		}
	}
}

func TestPartIsAttachment(t *testing.T) {
	tests := []struct {
		disposition string
		want        bool
	}{
		{"attachment", true},
		{"attachment; filename=\"a.pdf\"", true},
		{"ATTACHMENT", true},
		{"inline", false},
		{"", false},
	}

	for _, tt := range tests {
		part := Part{Disposition: tt.disposition}
		if got := part.IsAttachment(); got != tt.want {
			t.Errorf("IsAttachment(%q) = %v, want %v", tt.disposition, got, tt.want)
		}
	}
}

func TestParsedPartsHeader(t *testing.T) {
	parts := ParsedParts{Headers: map[string]string{"Subject": "hi"}}
	if got := parts.Header("Subject"); got != "hi" {
		t.Errorf("Header(Subject) = %q, want hi", got)
	}
	if got := parts.Header("Missing"); got != "" {
		t.Errorf("Header(Missing) = %q, want empty", got)
	}
}
