package tablestore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVStoreRoundTrip(t *testing.T) {
	store, err := NewCSVStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	header := []string{"id", "name"}
	rows := []Row{
		{"id": "1", "name": "Ana Souza"},
		{"id": "2", "name": "Bruno, Oliveira"},
	}
	require.NoError(t, store.WriteTable(ctx, "students", header, rows))

	got, err := store.ReadTable(ctx, "students")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Ana Souza", got[0]["name"])
	assert.Equal(t, "Bruno, Oliveira", got[1]["name"])
}

func TestCSVStoreMissingFileIsEmptyTable(t *testing.T) {
	store, err := NewCSVStore(t.TempDir())
	require.NoError(t, err)

	rows, err := store.ReadTable(context.Background(), "attendance")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestCSVStoreWriteReplacesPriorContent(t *testing.T) {
	store, err := NewCSVStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	header := []string{"id"}
	require.NoError(t, store.WriteTable(ctx, "classes", header, []Row{{"id": "a"}, {"id": "b"}}))
	require.NoError(t, store.WriteTable(ctx, "classes", header, []Row{{"id": "c"}}))

	rows, err := store.ReadTable(ctx, "classes")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "c", rows[0]["id"])
}

func TestCSVStoreEmptyWriteKeepsHeaderOnly(t *testing.T) {
	dir := t.TempDir()
	store, err := NewCSVStore(dir)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.WriteTable(ctx, "users", []string{"id", "username"}, nil))

	rows, err := store.ReadTable(ctx, "users")
	require.NoError(t, err)
	assert.Empty(t, rows)

	data, err := os.ReadFile(filepath.Join(dir, "users.csv"))
	require.NoError(t, err)
	assert.Equal(t, "id,username\n", string(data))
}

func TestCSVStoreInferredHeader(t *testing.T) {
	store, err := NewCSVStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.WriteTable(ctx, "misc", nil, []Row{{"b": "2", "a": "1"}}))

	rows, err := store.ReadTable(ctx, "misc")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "1", rows[0]["a"])
	assert.Equal(t, "2", rows[0]["b"])
}

func TestCSVStoreLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewCSVStore(dir)
	require.NoError(t, err)

	require.NoError(t, store.WriteTable(context.Background(), "students", []string{"id"}, []Row{{"id": "1"}}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "students.csv", entries[0].Name())
}
