package execshell

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"time"
)

const (
	// gitPromptDisabledAssignmentConstant makes git fail instead of waiting for credentials on a terminal.
	gitPromptDisabledAssignmentConstant = "GIT_TERMINAL_PROMPT=0"
	cancellationWaitDelayConstant       = 10 * time.Second
)

// OSCommandRunner starts the build tools as child processes.
type OSCommandRunner struct {
	environment []string
}

// NewOSCommandRunner constructs a runner that inherits the current environment.
func NewOSCommandRunner() *OSCommandRunner {
	return &OSCommandRunner{environment: append(os.Environ(), gitPromptDisabledAssignmentConstant)}
}

// Run starts the command in its working directory and waits for it to exit.
// A non-zero exit is reported through the result, not the error.
func (runner *OSCommandRunner) Run(executionContext context.Context, command ShellCommand) (ExecutionResult, error) {
	process := exec.CommandContext(executionContext, string(command.Name), command.Details.Arguments...)
	process.Dir = command.Details.WorkingDirectory
	process.Env = runner.environment
	// Maven forks JVMs that may keep the output pipes open after cancellation.
	process.WaitDelay = cancellationWaitDelayConstant

	var capturedOutput bytes.Buffer
	var capturedError bytes.Buffer
	process.Stdout = &capturedOutput
	process.Stderr = &capturedError
	if command.Details.OutputSink != nil {
		process.Stdout = io.MultiWriter(&capturedOutput, command.Details.OutputSink)
	}

	runError := process.Run()
	result := ExecutionResult{
		StandardOutput: capturedOutput.String(),
		StandardError:  capturedError.String(),
	}
	if runError == nil {
		return result, nil
	}

	var exitError *exec.ExitError
	if errors.As(runError, &exitError) && executionContext.Err() == nil {
		result.ExitCode = exitError.ExitCode()
		return result, nil
	}
	return ExecutionResult{}, runError
}
