package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseArtifact(t *testing.T) {
	t.Run("splits a well-formed pair", func(t *testing.T) {
		in, out, err := ParseArtifact("netlist.tpl:build/netlist.cir")
		require.NoError(t, err)
		assert.Equal(t, "netlist.tpl", in)
		assert.Equal(t, "build/netlist.cir", out)
	})

	t.Run("rejects a missing separator", func(t *testing.T) {
		_, _, err := ParseArtifact("netlist.tpl")
		assert.Error(t, err)
	})

	t.Run("rejects empty halves", func(t *testing.T) {
		for _, pair := range []string{":out.txt", "in.tpl:", ":"} {
			_, _, err := ParseArtifact(pair)
			assert.Error(t, err, "pair %q", pair)
		}
	})

	t.Run("rejects extra separators", func(t *testing.T) {
		_, _, err := ParseArtifact("a:b:c")
		assert.Error(t, err)
	})
}

func TestConfigDir(t *testing.T) {
	cfg := &Config{Path: "/srv/sim/monaco.yaml"}
	assert.Equal(t, "/srv/sim", cfg.Dir())
}

func TestJobNames(t *testing.T) {
	cfg := &Config{Jobs: []*Job{{Name: "netlist"}, {Name: "sim"}}}
	assert.Equal(t, []string{"netlist", "sim"}, cfg.JobNames())
}
