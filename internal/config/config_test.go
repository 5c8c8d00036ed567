package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, "")
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, int64(20000), cfg.MinPlayDurationMs)
	assert.Equal(t, 250*time.Millisecond, cfg.RequestInterval)
	assert.Equal(t, 25, cfg.TopSongsCount)
	assert.Equal(t, 40, cfg.TopArtistsCount)
	assert.Equal(t, 500, cfg.ArtistPagesCount)
	assert.False(t, cfg.RecreateDetailPages)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv(ConfigPathEnvVar, "")
	t.Setenv("MIN_PLAY_DURATION", "30000")
	t.Setenv("TIMEZONE", "Europe/Berlin")
	t.Setenv("RECREATE_SONGDATA_FILES", "true")
	t.Setenv("REQUEST_INTERVAL", "300ms")
	t.Setenv("LASTFM_API_KEY", "secret")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, int64(30000), cfg.MinPlayDurationMs)
	assert.Equal(t, "Europe/Berlin", cfg.Timezone)
	assert.True(t, cfg.RecreateDetailPages)
	assert.Equal(t, 300*time.Millisecond, cfg.RequestInterval)
	assert.Equal(t, "secret", cfg.LastFMAPIKey)
}

func TestLoad_YAMLFileBelowEnvironment(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("top_songs_count: 10\noutput_dir: reports\n"), 0o644))
	t.Setenv("TOP_SONGS_COUNT", "12")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 12, cfg.TopSongsCount)
	assert.Equal(t, "reports", cfg.OutputDir)
}

func TestLoad_InvalidTimezone(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv(ConfigPathEnvVar, "")
	t.Setenv("TIMEZONE", "Mars/Olympus")

	_, err := Load("")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidTimezone)
}

func TestValidate_RejectsNegativeThreshold(t *testing.T) {
	cfg := Default()
	cfg.MinPlayDurationMs = -1

	require.Error(t, cfg.Validate())
}

func TestEnvKey_UnknownVariablesSkipped(t *testing.T) {
	assert.Equal(t, "", envKey("HOME"))
	assert.Equal(t, "lastfm_api_key", envKey("LASTFM_API_KEY"))
}

func TestLoad_CORSOriginsList(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv(ConfigPathEnvVar, "")
	t.Setenv("CORS_ORIGINS", "http://localhost:3000, http://127.0.0.1:4321")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, []string{"http://localhost:3000", "http://127.0.0.1:4321"}, cfg.CORSOrigins)
}

func TestLoad_InvalidArtistPagesCount(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv(ConfigPathEnvVar, "")
	t.Setenv("ARTIST_PAGES_COUNT", "0")

	_, err := Load("")
	assert.Error(t, err)
}
