package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "aster", cfg.AppName)
	assert.Empty(t, cfg.DatabaseMigrationFolderPath)
	assert.Equal(t, "effectivity-data-quality", cfg.KafkaDataQualityTopic)
	assert.Equal(t, 60*time.Second, cfg.CuratedCacheTTL())
	assert.False(t, cfg.RedisEnabled)
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("ASTER_TEST_UNUSED=1\nCURATED_CACHE_TTL_SECONDS=5\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("ASTER_TEST_UNUSED")
		os.Unsetenv("CURATED_CACHE_TTL_SECONDS")
	})

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, cfg.CuratedCacheTTL())
}
