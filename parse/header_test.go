package parse

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mdvault/mailmd/model"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  time.Time
	}{
		{
			"rfc 5322",
			"Mon, 01 Jan 2024 10:00:00 -0500",
			time.Date(2024, 1, 1, 10, 0, 0, 0, time.FixedZone("", -5*3600)),
		},
		{
			"trailing comment stripped",
			"Mon, 01 Jan 2024 10:00:00 +0000 (UTC)",
			time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
		},
		{
			"no weekday",
			"1 Jan 2024 10:00:00 +0000",
			time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
		},
		{
			"iso-ish",
			"2024-01-01 10:00:00 +0000",
			time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseDate(tt.input)
			require.NoError(t, err)
			require.True(t, got.Equal(tt.want), "got %v, want %v", got, tt.want)
		})
	}
}

func TestParseDateUnparsable(t *testing.T) {
	_, err := parseDate("sometime last spring")
	require.Error(t, err)
}

func TestParseHeaderDateTripleAllOrNothing(t *testing.T) {
	parts := &model.ParsedParts{Headers: map[string]string{
		"Subject": "hi",
		"Date":    "not a date at all",
	}}

	var msg model.Message
	err := parseHeader(parts, &msg)
	require.ErrorIs(t, err, ErrDateParse)
	require.Zero(t, msg.Timestamp)
	require.Empty(t, msg.DateStr)
	require.Empty(t, msg.TimeStr)
}

func TestParseHeaderGeneratesIDWhenMissing(t *testing.T) {
	parts := &model.ParsedParts{Headers: map[string]string{
		"Subject": "hi",
		"Date":    "Mon, 01 Jan 2024 10:00:00 +0000",
	}}

	var msg model.Message
	require.NoError(t, parseHeader(parts, &msg))
	require.NotEmpty(t, msg.ID)
}

func TestParseHeaderDecodesEncodedSubject(t *testing.T) {
	parts := &model.ParsedParts{Headers: map[string]string{
		"Subject": "=?ISO-8859-1?Q?caf=E9?=",
		"Date":    "Mon, 01 Jan 2024 10:00:00 +0000",
	}}

	var msg model.Message
	require.NoError(t, parseHeader(parts, &msg))
	require.Equal(t, "café", msg.Subject)
}
