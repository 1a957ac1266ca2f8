package execshell_test

import (
	"bytes"
	"context"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/releasecut/internal/execshell"
)

func TestOSCommandRunnerStreamsAndCapturesOutput(testInstance *testing.T) {
	if runtime.GOOS == "windows" {
		testInstance.Skip("requires a POSIX shell")
	}

	outputSink := &bytes.Buffer{}
	runner := execshell.NewOSCommandRunner()

	executionResult, runError := runner.Run(context.Background(), execshell.ShellCommand{
		Name: execshell.CommandName("sh"),
		Details: execshell.CommandDetails{
			Arguments:        []string{"-c", "echo streamed; echo problem 1>&2; exit 3"},
			WorkingDirectory: testInstance.TempDir(),
			OutputSink:       outputSink,
		},
	})

	require.NoError(testInstance, runError)
	require.Equal(testInstance, 3, executionResult.ExitCode)
	require.Equal(testInstance, "streamed\n", executionResult.StandardOutput)
	require.Equal(testInstance, "problem\n", executionResult.StandardError)
	require.Equal(testInstance, "streamed\n", outputSink.String())
}

func TestOSCommandRunnerReportsMissingExecutable(testInstance *testing.T) {
	runner := execshell.NewOSCommandRunner()

	_, runError := runner.Run(context.Background(), execshell.ShellCommand{Name: execshell.CommandName("releasecut-missing-executable")})

	require.Error(testInstance, runError)
}

func TestOSCommandRunnerDisablesGitPrompts(testInstance *testing.T) {
	if runtime.GOOS == "windows" {
		testInstance.Skip("requires a POSIX shell")
	}

	runner := execshell.NewOSCommandRunner()

	executionResult, runError := runner.Run(context.Background(), execshell.ShellCommand{
		Name:    execshell.CommandName("sh"),
		Details: execshell.CommandDetails{Arguments: []string{"-c", "printf %s \"$GIT_TERMINAL_PROMPT\""}},
	})

	require.NoError(testInstance, runError)
	require.Equal(testInstance, "0", executionResult.StandardOutput)
}

func TestOSCommandRunnerReportsCancellation(testInstance *testing.T) {
	if runtime.GOOS == "windows" {
		testInstance.Skip("requires a POSIX shell")
	}

	executionContext, cancel := context.WithCancel(context.Background())
	cancel()

	_, runError := execshell.NewOSCommandRunner().Run(executionContext, execshell.ShellCommand{
		Name:    execshell.CommandName("sh"),
		Details: execshell.CommandDetails{Arguments: []string{"-c", "sleep 5"}},
	})

	require.Error(testInstance, runError)
}
