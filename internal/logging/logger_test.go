package logging

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestInit_JSONFormatWritesComponent(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "debug", Format: "json", Output: &buf})
	defer Init(Config{Level: "info", Format: "console"})

	l := Component("enrich")
	l.Info().Str("track", "Song").Msg("fetched")

	out := buf.String()
	assert.Contains(t, out, `"component":"enrich"`)
	assert.Contains(t, out, `"track":"Song"`)
	assert.Contains(t, out, `"message":"fetched"`)
}

func TestInit_LevelFiltersDebug(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "warn", Format: "json", Output: &buf})
	defer Init(Config{Level: "info", Format: "console"})

	Debug().Msg("hidden")
	Warn().Msg("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, parseLevel("DEBUG"))
	assert.Equal(t, zerolog.WarnLevel, parseLevel("warning"))
	assert.Equal(t, zerolog.Disabled, parseLevel("off"))
	assert.Equal(t, zerolog.InfoLevel, parseLevel("nonsense"))
}

func TestFromContext_CarriesRunID(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "info", Format: "json", Output: &buf})
	defer Init(Config{Level: "info", Format: "console"})

	ctx := WithRunID(context.Background(), "01RUN")
	l := FromContext(ctx, "pipeline")
	l.Info().Msg("started")

	assert.Contains(t, buf.String(), `"run_id":"01RUN"`)
	assert.Contains(t, buf.String(), `"component":"pipeline"`)

	buf.Reset()
	plain := FromContext(context.Background(), "report")
	plain.Info().Msg("plain")
	assert.NotContains(t, buf.String(), "run_id")
	assert.Contains(t, buf.String(), `"component":"report"`)
}
