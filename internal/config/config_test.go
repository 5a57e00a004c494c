package config_test

import (
	"flag"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lineforge/shopsched/internal/config"
)

// TestOptionsDefaultsAreValid verifies the flag defaults parse into a
// valid Options without any arguments supplied.
func TestOptionsDefaultsAreValid(t *testing.T) {
	var o config.Options
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	o.AddFlags(fs)
	require.NoError(t, fs.Parse(nil))
	require.NoError(t, o.Validate())
	require.Equal(t, ":8080", o.ListenAddr)
}

// TestOptionsRejectsUnknownLogLevel verifies an out-of-taxonomy log level
// is rejected rather than silently accepted.
func TestOptionsRejectsUnknownLogLevel(t *testing.T) {
	var o config.Options
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	o.AddFlags(fs)
	require.NoError(t, fs.Parse([]string{"-log-level=verbose"}))
	require.Error(t, o.Validate())
}

// TestOptionsRejectsNegativePoolSize verifies a negative solve-pool-size
// is rejected.
func TestOptionsRejectsNegativePoolSize(t *testing.T) {
	var o config.Options
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	o.AddFlags(fs)
	require.NoError(t, fs.Parse([]string{"-solve-pool-size=-1"}))
	require.Error(t, o.Validate())
}
