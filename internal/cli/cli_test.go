package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	var out bytes.Buffer
	cfg, done, err := Parse(nil, &out)
	require.NoError(t, err)
	require.False(t, done)

	assert.Empty(t, cfg.ConfigPath)
	assert.Empty(t, cfg.JobName)
	assert.False(t, cfg.DryRun)
	assert.False(t, cfg.CheckOnly)
	assert.False(t, cfg.Parallel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 0, cfg.HealthcheckPort)
}

func TestParseFlags(t *testing.T) {
	t.Run("positional config path", func(t *testing.T) {
		var out bytes.Buffer
		cfg, _, err := Parse([]string{"grids/monaco.toml"}, &out)
		require.NoError(t, err)
		assert.Equal(t, "grids/monaco.toml", cfg.ConfigPath)
	})

	t.Run("all options together", func(t *testing.T) {
		var out bytes.Buffer
		cfg, _, err := Parse([]string{
			"-job", "deploy",
			"-dry",
			"-parallel",
			"-log-level", "DEBUG",
			"-log-format", "json",
			"-healthcheck-port", "8080",
			"site.yaml",
		}, &out)
		require.NoError(t, err)

		assert.Equal(t, "site.yaml", cfg.ConfigPath)
		assert.Equal(t, "deploy", cfg.JobName)
		assert.True(t, cfg.DryRun)
		assert.True(t, cfg.Parallel)
		assert.Equal(t, "debug", cfg.LogLevel)
		assert.Equal(t, "json", cfg.LogFormat)
		assert.Equal(t, 8080, cfg.HealthcheckPort)
	})

	t.Run("job shorthand", func(t *testing.T) {
		var out bytes.Buffer
		cfg, _, err := Parse([]string{"-j", "build"}, &out)
		require.NoError(t, err)
		assert.Equal(t, "build", cfg.JobName)
	})

	t.Run("long form wins over shorthand", func(t *testing.T) {
		var out bytes.Buffer
		cfg, _, err := Parse([]string{"-job", "one", "-j", "two"}, &out)
		require.NoError(t, err)
		assert.Equal(t, "one", cfg.JobName)
	})

	t.Run("check flag", func(t *testing.T) {
		var out bytes.Buffer
		cfg, _, err := Parse([]string{"-check"}, &out)
		require.NoError(t, err)
		assert.True(t, cfg.CheckOnly)
	})
}

func TestParseHelp(t *testing.T) {
	var out bytes.Buffer
	cfg, done, err := Parse([]string{"-h"}, &out)
	require.NoError(t, err)
	assert.True(t, done)
	assert.Nil(t, cfg)
	assert.Contains(t, out.String(), "Usage:")
}

func TestParseErrors(t *testing.T) {
	cases := map[string][]string{
		"unknown flag":          {"-bogus"},
		"bad log level":         {"-log-level", "chatty"},
		"bad log format":        {"-log-format", "xml"},
		"negative port":         {"-healthcheck-port", "-1"},
		"port out of range":     {"-healthcheck-port", "70000"},
		"two positional values": {"one.yaml", "two.yaml"},
	}

	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			var out bytes.Buffer
			_, _, err := Parse(args, &out)
			var exitErr *ExitError
			require.ErrorAs(t, err, &exitErr)
			assert.Equal(t, 2, exitErr.Code)
			assert.NotEmpty(t, exitErr.Message)
		})
	}
}
