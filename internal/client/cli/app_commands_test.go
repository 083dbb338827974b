package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/mpodriezov/boardpack/internal/client/config"
	"github.com/mpodriezov/boardpack/internal/client/store"
	"github.com/mpodriezov/boardpack/internal/client/uploader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T) (*App, *bytes.Buffer) {
	t.Helper()

	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.DataDir = t.TempDir()
	cfg.MaxStoreBytes = 1 << 20

	st, err := store.Open(context.Background(), filepath.Join(cfg.DataDir, "desk.db"), cfg.MaxStoreBytes)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	out := &bytes.Buffer{}
	return &App{
		config:  cfg,
		store:   st,
		uploads: uploader.NewManager(),
		out:     out,
	}, out
}

func TestNewApp_CreatesMissingDataDir(t *testing.T) {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.DataDir = filepath.Join(t.TempDir(), "nested", "desk-data")

	a, err := NewApp(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { a.store.Close() })

	fi, err := os.Stat(cfg.DataDir)
	require.NoError(t, err)
	assert.True(t, fi.IsDir())

	_, err = os.Stat(filepath.Join(cfg.DataDir, "desk.db"))
	require.NoError(t, err)
}

func TestStage_SavesFileIntoStore(t *testing.T) {
	a, out := newTestApp(t)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "statement.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4 fake"), 0o600))

	require.NoError(t, a.Stage(ctx, []string{path, "app-1", "financials"}))
	assert.Contains(t, out.String(), "Staged statement.pdf")

	files, err := a.store.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "statement.pdf", files[0].Filename)
	assert.Equal(t, "financials", files[0].Category)
	assert.Equal(t, "app-1", files[0].ApplicationID)
	assert.Equal(t, "application/pdf", files[0].MimeType)
}

func TestStage_UsageLine(t *testing.T) {
	a, out := newTestApp(t)

	require.NoError(t, a.Stage(context.Background(), []string{"too", "few"}))
	assert.Contains(t, out.String(), "Usage: stage")
}

func TestFilesRemoveUsage_RoundTrip(t *testing.T) {
	a, out := newTestApp(t)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "letter.txt")
	require.NoError(t, os.WriteFile(path, []byte("to the board"), 0o600))
	require.NoError(t, a.Stage(ctx, []string{path, "app-1", "reference-letters"}))

	out.Reset()
	require.NoError(t, a.Files(ctx))
	assert.Contains(t, out.String(), "letter.txt")
	assert.Contains(t, out.String(), "staged")

	files, err := a.store.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, files, 1)

	out.Reset()
	require.NoError(t, a.Usage(ctx))
	assert.Contains(t, out.String(), "12 /")

	out.Reset()
	require.NoError(t, a.Remove(ctx, []string{files[0].ID}))
	require.NoError(t, a.Files(ctx))
	assert.Contains(t, out.String(), "No staged files")
}

func TestRemove_MissingFile(t *testing.T) {
	a, _ := newTestApp(t)
	assert.Error(t, a.Remove(context.Background(), []string{"nope"}))
}
