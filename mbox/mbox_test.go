package mbox

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleMbox = `From alice@example.com Mon Jan  1 10:00:00 2024
From: Alice <alice@example.com>
Subject: first

body one

From bob@example.com Tue Jan  2 10:00:00 2024
From: Bob <bob@example.com>
Subject: second

body two
`

func openSample(t *testing.T) *Session {
	t.Helper()
	path := filepath.Join(t.TempDir(), "Archive.mbox")
	require.NoError(t, os.WriteFile(path, []byte(sampleMbox), 0o644))

	session, err := Open(path)
	require.NoError(t, err)
	return session
}

func TestOpenUsesFileNameAsFolder(t *testing.T) {
	session := openSample(t)

	folders, err := session.ListFolders()
	require.NoError(t, err)
	require.Equal(t, []string{"Archive"}, folders)
}

func TestSelectFolder(t *testing.T) {
	session := openSample(t)

	count, err := session.SelectFolder("Archive")
	require.NoError(t, err)
	require.Equal(t, 2, count)

	_, err = session.SelectFolder("Other")
	require.Error(t, err)
}

func TestFetchRaw(t *testing.T) {
	session := openSample(t)

	raw, err := session.FetchRaw(1)
	require.NoError(t, err)
	require.Contains(t, string(raw), "Subject: first")

	raw, err = session.FetchRaw(2)
	require.NoError(t, err)
	require.Contains(t, string(raw), "Subject: second")
}

func TestFetchRawOutOfRange(t *testing.T) {
	session := openSample(t)

	_, err := session.FetchRaw(0)
	require.Error(t, err)
	_, err = session.FetchRaw(3)
	require.Error(t, err)
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "absent.mbox"))
	require.Error(t, err)
}
