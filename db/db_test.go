package db

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"querydesk/models"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	d, err := New("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func TestSQLFiles(t *testing.T) {
	d := newTestDB(t)

	require.NoError(t, d.StoreSQLFile("students.sql", "SELECT * FROM student"))
	require.NoError(t, d.StoreSQLFile("routes.sql", "SELECT * FROM route"))

	files, err := d.GetSQLFiles()
	require.NoError(t, err)
	require.Len(t, files, 2)
	// badger iterates in key order
	assert.Equal(t, "routes.sql", files[0].Name)
	assert.Equal(t, "SELECT * FROM student", files[1].Content)
}

func TestLoadSQLFilesFromDir(t *testing.T) {
	d := newTestDB(t)
	dir := filepath.Join(t.TempDir(), "sql")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.sql"), []byte("SELECT 1"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "nested", "b.SQL"), []byte("SELECT 2"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignore"), 0644))

	files, err := d.LoadSQLFilesFromDir(dir)
	require.NoError(t, err)
	require.Len(t, files, 2)

	names := []string{files[0].Name, files[1].Name}
	assert.ElementsMatch(t, []string{"a.sql", "b.SQL"}, names)
}

func TestLoadSQLFilesFromDir_CreatesMissingDir(t *testing.T) {
	d := newTestDB(t)
	dir := filepath.Join(t.TempDir(), "missing")

	files, err := d.LoadSQLFilesFromDir(dir)
	require.NoError(t, err)
	assert.Empty(t, files)
	assert.DirExists(t, dir)
}

func TestChatEntries(t *testing.T) {
	d := newTestDB(t)

	entries := make([]models.ChatEntry, 0, 12)
	for i := 1; i <= 12; i++ {
		entries = append(entries, models.ChatEntry{ID: i, Query: "q", Response: "r"})
	}
	entries[2].ResponseFields = []models.ResponseField{{Name: "Name", Value: "Acme"}}

	require.NoError(t, d.StoreChatEntries("alice", entries...))
	require.NoError(t, d.StoreChatEntries("alice:b", models.ChatEntry{ID: 1, Query: "other user"}))
	require.NoError(t, d.StoreChatEntries("bob"))

	got, err := d.GetChatEntries("alice")
	require.NoError(t, err)
	require.Len(t, got, 12)
	for i, e := range got {
		assert.Equal(t, i+1, e.ID)
	}
	assert.Equal(t, entries[2], got[2])

	other, err := d.GetChatEntries("alice:b")
	require.NoError(t, err)
	require.Len(t, other, 1)
	assert.Equal(t, "other user", other[0].Query)

	require.NoError(t, d.ClearChatEntries("alice"))
	got, err = d.GetChatEntries("alice")
	require.NoError(t, err)
	assert.Empty(t, got)

	other, err = d.GetChatEntries("alice:b")
	require.NoError(t, err)
	assert.Len(t, other, 1)
}
