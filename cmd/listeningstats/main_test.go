package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jpp0ca/ListeningStats/internal/adapters/sqlite"
)

// setupEnv points cache and output into a temp dir and returns the cache path.
func setupEnv(t *testing.T) (dir, cachePath string) {
	t.Helper()
	dir = t.TempDir()
	cachePath = filepath.Join(dir, ".cache", "cache.db")
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("CACHE_PATH", cachePath)
	t.Setenv("OUTPUT_DIR", filepath.Join(dir, "output"))
	t.Setenv("LASTFM_API_KEY", "")
	t.Setenv("LOG_LEVEL", "error")
	return dir, cachePath
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestAnalyze_BadInputLeavesNoCache(t *testing.T) {
	dir, cachePath := setupEnv(t)

	_, err := execute(t, "analyze", filepath.Join(dir, "missing.json"))
	require.Error(t, err)

	broken := filepath.Join(dir, "broken.json")
	require.NoError(t, os.WriteFile(broken, []byte("{not json"), 0o644))
	_, err = execute(t, "fetch", broken)
	require.Error(t, err)

	assert.NoFileExists(t, cachePath)
	assert.NoDirExists(t, filepath.Join(dir, ".cache"))
	assert.NoDirExists(t, filepath.Join(dir, "output"))
}

func TestCache_StatsAndInvalidate(t *testing.T) {
	_, cachePath := setupEnv(t)
	ctx := context.Background()

	cache, err := sqlite.Open(cachePath)
	require.NoError(t, err)
	require.NoError(t, cache.PutTrack(ctx, "spotify:track:1", []byte(`{"track":{}}`)))
	require.NoError(t, cache.PutArtist(ctx, "Queen", nil))
	require.NoError(t, cache.Close())

	out, err := execute(t, "cache", "stats", "--json")
	require.NoError(t, err)

	var stats struct {
		Path string `json:"path"`
		sqlite.Stats
	}
	require.NoError(t, json.Unmarshal([]byte(out), &stats))
	assert.Equal(t, cachePath, stats.Path)
	assert.Equal(t, 1, stats.Tracks)
	assert.Equal(t, 1, stats.Artists)
	assert.Equal(t, 1, stats.ArtistsNoData)

	out, err = execute(t, "cache", "invalidate", "track", "spotify:track:1")
	require.NoError(t, err)
	assert.Contains(t, out, `invalidated track "spotify:track:1"`)

	_, err = execute(t, "cache", "invalidate", "artist", "Queen")
	require.NoError(t, err)

	out, err = execute(t, "cache", "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "tracks:  0 (0 without data)")
	assert.Contains(t, out, "artists: 0 (0 without data)")
}

func TestCache_StatsNeverCreatesCache(t *testing.T) {
	_, cachePath := setupEnv(t)

	_, err := execute(t, "cache", "stats")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no cache at")
	assert.NoFileExists(t, cachePath)
}
