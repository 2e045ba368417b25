package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "crunch", cmd.Use)
	assert.Contains(t, cmd.Long, "cartesian product")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"generate", "count", "expand", "test"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)
}

func TestGenerateCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	genCmd, _, err := cmd.Find([]string{"generate"})
	require.NoError(t, err)

	for name, short := range map[string]string{"config": "c", "output": "o", "progress": "p"} {
		flag := genCmd.Flags().Lookup(name)
		require.NotNil(t, flag, name)
		assert.Equal(t, short, flag.Shorthand, name)
	}

	chunkFlag := genCmd.Flags().Lookup("chunk")
	require.NotNil(t, chunkFlag)
	assert.Equal(t, "4096", chunkFlag.DefValue)

	sinkFlag := genCmd.Flags().Lookup("sink")
	require.NotNil(t, sinkFlag)
	assert.Equal(t, "", sinkFlag.DefValue)

	workersFlag := genCmd.Flags().Lookup("workers")
	require.NotNil(t, workersFlag)
	assert.Equal(t, "0", workersFlag.DefValue)
}

func TestExpandCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	expandCmd, _, err := cmd.Find([]string{"expand"})
	require.NoError(t, err)

	limitFlag := expandCmd.Flags().Lookup("limit")
	require.NotNil(t, limitFlag)
	assert.Equal(t, "1048576", limitFlag.DefValue)

	require.NotNil(t, expandCmd.Flags().Lookup("literal"))
	require.NotNil(t, expandCmd.Flags().Lookup("normalize"))
}

func TestTestCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	testCmd, _, err := cmd.Find([]string{"test"})
	require.NoError(t, err)

	updateFlag := testCmd.Flags().Lookup("update")
	require.NotNil(t, updateFlag)
	assert.Equal(t, "false", updateFlag.DefValue)

	filterFlag := testCmd.Flags().Lookup("filter")
	require.NotNil(t, filterFlag)
}

func TestFormatValidation(t *testing.T) {
	assert.True(t, isValidFormat("text"))
	assert.True(t, isValidFormat("json"))

	assert.False(t, isValidFormat("xml"))
	assert.False(t, isValidFormat(""))
	assert.False(t, isValidFormat("TEXT"))
}

func TestFormatValidationIntegration(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetArgs([]string{"--format", "invalid", "expand", "a"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestExecute_UsageErrorsAreCommandErrors(t *testing.T) {
	var stdout, stderr bytes.Buffer

	code := Execute(context.Background(), []string{"--format", "xml", "expand", "a"}, &stdout, &stderr)
	assert.Equal(t, ExitCommandError, code)
	assert.Contains(t, stderr.String(), "Error: invalid format")

	stderr.Reset()
	code = Execute(context.Background(), []string{"expand"}, &stdout, &stderr)
	assert.Equal(t, ExitCommandError, code)
	assert.Contains(t, stderr.String(), "accepts 1 arg")
}

func TestExecute_ExitCodes(t *testing.T) {
	var stdout, stderr bytes.Buffer

	assert.Equal(t, ExitSuccess, Execute(context.Background(), []string{"expand", "a"}, &stdout, &stderr))
	assert.Equal(t, "a\n", stdout.String())
	assert.Empty(t, stderr.String())

	// Command failures are reported by the command itself, not again here.
	stdout.Reset()
	assert.Equal(t, ExitCommandError, Execute(context.Background(), []string{"expand", "a+"}, &stdout, &stderr))
	assert.Contains(t, stdout.String(), "Error [UNBOUNDED_PATTERN]")
	assert.NotContains(t, stderr.String(), "Error:")
}
