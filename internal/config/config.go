package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/jpp0ca/ListeningStats/internal/logging"
)

// ConfigPathEnvVar points at an optional YAML file layered between defaults and env.
const ConfigPathEnvVar = "CONFIG_PATH"

const defaultConfigFile = "config.yaml"

// Config holds all application configuration.
type Config struct {
	// Analysis
	MinPlayDurationMs   int64  `koanf:"min_play_duration" validate:"gte=0"`
	Timezone            string `koanf:"timezone"`
	RecreateDetailPages bool   `koanf:"recreate_songdata_files"`

	// Last.fm
	LastFMAPIKey    string        `koanf:"lastfm_api_key"`
	LastFMBaseURL   string        `koanf:"lastfm_base_url" validate:"required,url"`
	RequestInterval time.Duration `koanf:"request_interval" validate:"gte=0"`

	// Circuit breaker around Last.fm
	BreakerMaxFailures uint32        `koanf:"breaker_max_failures" validate:"gte=1"`
	BreakerTimeout     time.Duration `koanf:"breaker_timeout" validate:"gte=0"`

	// Paths
	CachePath string `koanf:"cache_path" validate:"required"`
	InputDir  string `koanf:"input_dir"`
	OutputDir string `koanf:"output_dir" validate:"required"`

	// Report sizes
	TopSongsCount       int `koanf:"top_songs_count" validate:"gte=1"`
	TopArtistsCount     int `koanf:"top_artists_count" validate:"gte=1"`
	ArtistPagesCount    int `koanf:"artist_pages_count" validate:"gte=1"`
	ArtistSongsCount    int `koanf:"artist_songs_count" validate:"gte=1"`
	MonthlyArtistsCount int `koanf:"monthly_artists_count" validate:"gte=1"`

	// Server and logging
	Port        string   `koanf:"port"`
	CORSOrigins []string `koanf:"cors_origins" validate:"dive,url"`
	LogLevel    string   `koanf:"log_level"`
	LogFormat   string   `koanf:"log_format" validate:"omitempty,oneof=json console"`
}

// ErrInvalidTimezone is returned when TIMEZONE is not a known IANA zone.
var ErrInvalidTimezone = errors.New("TIMEZONE is not a valid IANA time zone")

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		MinPlayDurationMs:   20000,
		LastFMBaseURL:       "https://ws.audioscrobbler.com/2.0/",
		RequestInterval:     250 * time.Millisecond,
		BreakerMaxFailures:  5,
		BreakerTimeout:      30 * time.Second,
		CachePath:           ".cache/cache.db",
		InputDir:            "userdata",
		OutputDir:           "output",
		TopSongsCount:       25,
		TopArtistsCount:     40,
		ArtistPagesCount:    500,
		ArtistSongsCount:    25,
		MonthlyArtistsCount: 10,
		Port:                "8080",
		LogLevel:            "info",
		LogFormat:           "console",
	}
}

// envKeys maps recognised environment variables to config keys.
var envKeys = map[string]string{
	"MIN_PLAY_DURATION":       "min_play_duration",
	"TIMEZONE":                "timezone",
	"RECREATE_SONGDATA_FILES": "recreate_songdata_files",
	"LASTFM_API_KEY":          "lastfm_api_key",
	"LASTFM_BASE_URL":         "lastfm_base_url",
	"REQUEST_INTERVAL":        "request_interval",
	"BREAKER_MAX_FAILURES":    "breaker_max_failures",
	"BREAKER_TIMEOUT":         "breaker_timeout",
	"CACHE_PATH":              "cache_path",
	"INPUT_DIR":               "input_dir",
	"OUTPUT_DIR":              "output_dir",
	"TOP_SONGS_COUNT":         "top_songs_count",
	"TOP_ARTISTS_COUNT":       "top_artists_count",
	"ARTIST_PAGES_COUNT":      "artist_pages_count",
	"ARTIST_SONGS_COUNT":      "artist_songs_count",
	"MONTHLY_ARTISTS_COUNT":   "monthly_artists_count",
	"PORT":                    "port",
	"CORS_ORIGINS":            "cors_origins",
	"LOG_LEVEL":               "log_level",
	"LOG_FORMAT":              "log_format",
}

// Load reads configuration from defaults, an optional YAML file, a .env file (if
// present) and environment variables, in increasing order of precedence.
// An empty path falls back to $CONFIG_PATH, then ./config.yaml when it exists.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logging.Debug().Msg("No .env file found, using environment variables")
	}

	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("config: failed to load defaults: %w", err)
	}

	if path == "" {
		path = getEnv(ConfigPathEnvVar, "")
	}
	if path == "" {
		if _, err := os.Stat(defaultConfigFile); err == nil {
			path = defaultConfigFile
		}
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("config: failed to load %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("config: failed to load environment: %w", err)
	}

	if err := splitLists(k); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints and the time zone name.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves the display time zone; an empty Timezone means UTC.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTimezone, c.Timezone)
	}
	return loc, nil
}

// listKeys are parsed as comma-separated lists when they arrive as strings.
var listKeys = []string{"cors_origins"}

func splitLists(k *koanf.Koanf) error {
	for _, key := range listKeys {
		raw, ok := k.Get(key).(string)
		if !ok {
			continue
		}
		var items []string
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				items = append(items, part)
			}
		}
		if len(items) == 0 {
			k.Delete(key)
			continue
		}
		if err := k.Set(key, items); err != nil {
			return fmt.Errorf("config: failed to set %s: %w", key, err)
		}
	}
	return nil
}

// envKey maps an environment variable to its config key; unknown variables are skipped.
func envKey(name string) string {
	return envKeys[strings.ToUpper(name)]
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
