package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/michel-emel/imce-project/internal/shared/testutil"
)

func TestResolvePaths(t *testing.T) {
	t.Run("absolute directory is used as-is", func(t *testing.T) {
		dir := t.TempDir()
		cfg := Default().Data
		cfg.Dir = dir

		paths, err := ResolvePaths(cfg)
		require.NoError(t, err)
		assert.Equal(t, dir, paths.DataDir)
		assert.Equal(t, filepath.Join(dir, PAPsFileName), paths.PAPsCSV)
		assert.Equal(t, filepath.Join(dir, ChecklistFileName), paths.ChecklistCSV)
		assert.NotEmpty(t, paths.ExecutableDir)
	})

	t.Run("custom file names", func(t *testing.T) {
		dir := t.TempDir()
		cfg := Default().Data
		cfg.Dir = dir
		cfg.GRCFile = "grc-2024.csv"

		paths, err := ResolvePaths(cfg)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "grc-2024.csv"), paths.GRCCSV)
	})

	t.Run("missing relative directory keeps working-dir form", func(t *testing.T) {
		cfg := Default().Data
		cfg.Dir = "does-not-exist-imce"

		paths, err := ResolvePaths(cfg)
		require.NoError(t, err)
		assert.Equal(t, "does-not-exist-imce", paths.DataDir)
	})
}

func TestFileAndDirExists(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "x.csv")
	require.NoError(t, os.WriteFile(file, []byte("a\n"), 0644))

	assert.True(t, FileExists(file))
	assert.False(t, FileExists(dir))
	assert.False(t, FileExists(filepath.Join(dir, "missing.csv")))
	assert.True(t, DirExists(dir))
	assert.False(t, DirExists(file))
}

func TestLogPathResolution(t *testing.T) {
	logger, handler := testutil.NewTestLogger(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, PAPsFileName), []byte("district\n"), 0644))

	cfg := Default().Data
	cfg.Dir = dir
	paths, err := ResolvePaths(cfg)
	require.NoError(t, err)

	paths.LogPathResolution(logger)

	records := handler.GetRecords()
	require.Len(t, records, 1)
	assert.Equal(t, "Resolved data paths", records[0].Message)
	assert.Equal(t, true, records[0].Attrs["paps_present"])
	assert.Equal(t, false, records[0].Attrs["workers_present"])
}
