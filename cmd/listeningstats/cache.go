package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/jpp0ca/ListeningStats/internal/adapters/sqlite"
	"github.com/jpp0ca/ListeningStats/internal/config"
)

func newCacheCmd() *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or edit the metadata cache",
	}

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Show how many tracks and artists are cached",
		Args:  cobra.NoArgs,
		RunE:  runCacheStats,
	}

	invalidateCmd := &cobra.Command{
		Use:   "invalidate",
		Short: "Drop a cached entry so the next run looks it up again",
	}
	invalidateCmd.AddCommand(
		&cobra.Command{
			Use:   "track <spotify-track-uri>",
			Short: "Drop one track",
			Args:  cobra.ExactArgs(1),
			RunE:  runInvalidate("track"),
		},
		&cobra.Command{
			Use:   "artist <name>",
			Short: "Drop one artist",
			Args:  cobra.ExactArgs(1),
			RunE:  runInvalidate("artist"),
		},
	)

	cacheCmd.AddCommand(statsCmd, invalidateCmd)
	return cacheCmd
}

func runCacheStats(cmd *cobra.Command, _ []string) error {
	return withExistingCache(cmd, func(cache *sqlite.Cache) error {
		s, err := cache.Stats(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			data, err := json.MarshalIndent(struct {
				Path string `json:"path"`
				sqlite.Stats
			}{cache.Path(), s}, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(data))
			return nil
		}

		fmt.Fprintf(out, "cache:   %s\n", cache.Path())
		fmt.Fprintf(out, "tracks:  %d (%d without data)\n", s.Tracks, s.TracksNoData)
		fmt.Fprintf(out, "artists: %d (%d without data)\n", s.Artists, s.ArtistsNoData)
		return nil
	})
}

func runInvalidate(kind string) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		key := args[0]
		return withExistingCache(cmd, func(cache *sqlite.Cache) error {
			var err error
			if kind == "track" {
				err = cache.InvalidateTrack(cmd.Context(), key)
			} else {
				err = cache.InvalidateArtist(cmd.Context(), key)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "invalidated %s %q\n", kind, key)
			return nil
		})
	}
}

// withExistingCache opens the configured cache but never creates one.
func withExistingCache(cmd *cobra.Command, fn func(*sqlite.Cache) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := requireCacheFile(cfg); err != nil {
		return err
	}

	cache, err := sqlite.Open(cfg.CachePath)
	if err != nil {
		return err
	}
	defer closeCache(cache)
	return fn(cache)
}

func requireCacheFile(cfg *config.Config) error {
	if _, err := os.Stat(cfg.CachePath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("no cache at %s", cfg.CachePath)
		}
		return err
	}
	return nil
}
