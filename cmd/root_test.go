package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, name := range []string{"serve", "group", "detect", "merge", "import", "migrate", "report"} {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "career-cli", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "0", flag.DefValue)
}

func TestDetectCommand_Flags(t *testing.T) {
	flag := detectCmd.Flags().Lookup("threshold")
	require.NotNil(t, flag)
	assert.Equal(t, "", flag.DefValue)
}

func TestMergeCommand_Flags(t *testing.T) {
	for _, name := range []string{"source", "target", "confirm", "strategy"} {
		assert.NotNil(t, mergeCmd.Flags().Lookup(name), "merge should have --%s flag", name)
	}
	assert.Equal(t, "false", mergeCmd.Flags().Lookup("confirm").DefValue)
}

func TestReportCommand_Flags(t *testing.T) {
	for _, name := range []string{"out", "threshold"} {
		assert.NotNil(t, reportCmd.Flags().Lookup(name), "report should have --%s flag", name)
	}
}

func TestFirstArg(t *testing.T) {
	assert.Equal(t, "", firstArg(nil))
	assert.Equal(t, "a", firstArg([]string{"a", "b"}))
}
