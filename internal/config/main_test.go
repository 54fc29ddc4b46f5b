package config

import (
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	dir := t.TempDir()
	c, err := Parse([]string{"--charts", dir})
	require.NoError(t, err)

	assert.Equal(t, dir, c.ChartDirectory)
	assert.Equal(t, "assets", c.AudioDirectory)
	assert.Equal(t, BackendMemory, c.Backend)
	assert.Equal(t, nats.DefaultURL, c.NatsURL)
	assert.Equal(t, zerolog.InfoLevel, c.LogLevel)
	assert.Equal(t, 16*time.Millisecond, c.FramePeriod)
	assert.True(t, c.Guest())
}

func TestParseFlags(t *testing.T) {
	c, err := Parse([]string{
		"-c", t.TempDir(),
		"-u", "player-1",
		"-d", "normal",
		"--backend", "postgres",
		"--postgres-dsn", "postgres://localhost/rushline",
		"--log-level", "debug",
		"--mute",
	})
	require.NoError(t, err)

	assert.Equal(t, "player-1", c.User)
	assert.False(t, c.Guest())
	assert.Equal(t, "normal", c.Level)
	assert.Equal(t, BackendPostgres, c.Backend)
	assert.Equal(t, zerolog.DebugLevel, c.LogLevel)
	assert.True(t, c.Mute)
}

func TestParseEnvironment(t *testing.T) {
	t.Setenv("RUSHLINE_CHARTS", t.TempDir())
	t.Setenv("RUSHLINE_USER", "from-env")
	t.Setenv("RUSHLINE_BACKEND", "nats")
	t.Setenv("NATS_URL", "nats://nats:4222")

	c, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, "from-env", c.User)
	assert.Equal(t, BackendNATS, c.Backend)
	assert.Equal(t, "nats://nats:4222", c.NatsURL)
}

func TestParseRejects(t *testing.T) {
	dir := t.TempDir()
	cases := [][]string{
		{"--charts", dir, "--backend", "redis"},
		{"--charts", dir, "--backend", "firestore"},
		{"--charts", dir, "--backend", "postgres"},
		{"--charts", dir, "--difficulty", "expert"},
		{"--charts", dir, "--frame-period", "0s"},
		{"--charts", dir + "/missing"},
	}
	for _, args := range cases {
		_, err := Parse(args)
		assert.Error(t, err, args)
	}
}
