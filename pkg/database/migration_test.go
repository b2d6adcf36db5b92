package database

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLatestMigrationVersion(t *testing.T) {
	files := fstest.MapFS{
		"000001_effectivity.up.sql":   {},
		"000001_effectivity.down.sql": {},
		"000012_curated.up.sql":       {},
		"README.md":                   {},
	}
	latest, err := LatestMigrationVersion(files)
	require.NoError(t, err)
	assert.Equal(t, 12, latest)

	_, err = LatestMigrationVersion(fstest.MapFS{"README.md": {}})
	assert.Error(t, err)
}

func TestMigrations_EmbeddedByDefault(t *testing.T) {
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})

	files, err := NewMigrationService(logger, &MigrationConfig{}).migrations()
	require.NoError(t, err)
	latest, err := LatestMigrationVersion(files)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, latest, 2)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "000007_extra.up.sql"), []byte("SELECT 1;"), 0o600))
	files, err = NewMigrationService(logger, &MigrationConfig{MigrationFolderPath: dir}).migrations()
	require.NoError(t, err)
	latest, err = LatestMigrationVersion(files)
	require.NoError(t, err)
	assert.Equal(t, 7, latest)

	_, err = NewMigrationService(logger, &MigrationConfig{MigrationFolderPath: filepath.Join(dir, "missing")}).migrations()
	assert.Error(t, err)
}
