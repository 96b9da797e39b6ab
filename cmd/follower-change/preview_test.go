package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestRunPreview(t *testing.T) {
	dir := t.TempDir()
	previous := writeFile(t, dir, "prev.json", `{
  "snapshotAt": "2024-05-31T12:00:00.000Z",
  "followers": [
    {"databaseId": 1, "login": "alice", "url": "https://github.com/alice", "avatarUrl": "a"},
    {"databaseId": 2, "login": "bob", "url": "https://github.com/bob", "avatarUrl": "b"}
  ]
}`)
	current := writeFile(t, dir, "cur.json", `{
  "capturedAt": "2024-06-01T12:00:00Z",
  "members": [
    {"id": 2, "login": "bob", "url": "https://github.com/bob", "avatarUrl": "b"},
    {"id": 3, "login": "carol", "name": "Carol", "url": "https://github.com/carol", "avatarUrl": "c"}
  ]
}`)

	var out bytes.Buffer
	err := runPreview(&out, previewOptions{
		previous:           previous,
		current:            current,
		format:             "plaintext",
		login:              "octo",
		includeUnfollowers: true,
	}, zap.NewNop())
	require.NoError(t, err)

	want := "You have 2 followers now. Go to followers page: https://github.com/octo?tab=followers\n" +
		"New followers:\n" +
		"- Carol (https://github.com/carol)\n" +
		"Unfollowers:\n" +
		"- alice (https://github.com/alice)\n" +
		"Changes in last 1 day (since 2024-05-31T12:00:00Z)\n"
	require.Equal(t, want, out.String())
}

func TestRunPreviewErrors(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "good.json", `{"capturedAt":"2024-06-01T12:00:00Z","members":[]}`)
	bad := writeFile(t, dir, "bad.json", `{"members":[]}`)

	err := runPreview(&bytes.Buffer{}, previewOptions{previous: good, current: good, format: "pdf"}, zap.NewNop())
	require.Error(t, err)

	err = runPreview(&bytes.Buffer{}, previewOptions{previous: bad, current: good, format: "md"}, zap.NewNop())
	require.ErrorContains(t, err, "bad.json")

	err = runPreview(&bytes.Buffer{}, previewOptions{previous: filepath.Join(dir, "missing.json"), current: good, format: "md"}, zap.NewNop())
	require.Error(t, err)
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := newRootCmd()
	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	require.True(t, names["run"])
	require.True(t, names["preview"])
	require.True(t, names["import"])
}
