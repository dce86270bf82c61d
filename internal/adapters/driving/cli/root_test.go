package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmd_Use(t *testing.T) {
	assert.Equal(t, "trustlens", rootCmd.Use)
}

func TestRootCmd_SilencesUsageOnErrors(t *testing.T) {
	assert.True(t, rootCmd.SilenceUsage)
}

func TestRootCmd_HasVerboseFlag(t *testing.T) {
	flag := rootCmd.PersistentFlags().Lookup("verbose")

	require.NotNil(t, flag)
	assert.Equal(t, "v", flag.Shorthand)
}

func TestRootCmd_HasAllCommandGroups(t *testing.T) {
	commands := rootCmd.Commands()
	names := make([]string, 0, len(commands))
	for _, cmd := range commands {
		names = append(names, cmd.Name())
	}

	assert.Contains(t, names, "ingest")
	assert.Contains(t, names, "review")
	assert.Contains(t, names, "search")
	assert.Contains(t, names, "rules")
	assert.Contains(t, names, "settings")
	assert.Contains(t, names, "explain")
	assert.Contains(t, names, "version")
}

func TestSetVersion(t *testing.T) {
	originalVersion := version
	defer func() { version = originalVersion }()

	SetVersion("1.2.3")

	assert.Equal(t, "1.2.3", version)
}

func TestSetVersion_IgnoresEmpty(t *testing.T) {
	originalVersion := version
	version = "dev"
	defer func() { version = originalVersion }()

	SetVersion("")

	assert.Equal(t, "dev", version)
}

func TestSetServices(t *testing.T) {
	cleanup := setupTestServices(t)
	defer cleanup()

	assert.NotNil(t, ingestService)
	assert.NotNil(t, reviewService)
	assert.NotNil(t, searchService)
	assert.NotNil(t, rulesService)
	assert.NotNil(t, settingsService)
	assert.NotNil(t, explainService)
}

func TestRootCmd_ShowsHelpWithoutArgs(t *testing.T) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(nil)

	err := rootCmd.Execute()

	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "Available Commands")
}
