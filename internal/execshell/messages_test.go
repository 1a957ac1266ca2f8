package execshell

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildStartedMessageForCloneIncludesURLAndDestination(t *testing.T) {
	formatter := CommandMessageFormatter{}
	command := ShellCommand{
		Name: CommandGit,
		Details: CommandDetails{
			Arguments:        []string{"clone", "ssh://alice@review.example.org:29418/motech", "motech"},
			WorkingDirectory: "/workspace/builds",
		},
	}

	require.Equal(t, "Cloning ssh://alice@review.example.org:29418/motech into motech", formatter.BuildStartedMessage(command))
}

func TestBuildFailureMessageForPushIncludesStandardError(t *testing.T) {
	formatter := CommandMessageFormatter{}
	command := ShellCommand{
		Name: CommandGit,
		Details: CommandDetails{
			Arguments:        []string{"push", "origin", "HEAD:refs/heads/master"},
			WorkingDirectory: "/workspace/builds/modules",
		},
	}

	message := formatter.BuildFailureMessage(command, ExecutionResult{ExitCode: 1, StandardError: "rejected\n"})

	require.Equal(t, "Failed to push HEAD:refs/heads/master to origin from /workspace/builds/modules (exit code 1: rejected)", message)
}

func TestBuildSuccessMessageForCommitQuotesMessage(t *testing.T) {
	formatter := CommandMessageFormatter{}
	command := ShellCommand{
		Name: CommandGit,
		Details: CommandDetails{
			Arguments:        []string{"commit", "-am", "Update to latest released version"},
			WorkingDirectory: "/workspace/builds/modules",
		},
	}

	require.Equal(t, `Created commit in /workspace/builds/modules with message "Update to latest released version"`, formatter.BuildSuccessMessage(command))
}

func TestBuildStartedMessageForReleaseBranchUsesBranchName(t *testing.T) {
	formatter := CommandMessageFormatter{}
	command := ShellCommand{
		Name: CommandMaven,
		Details: CommandDetails{
			Arguments:        []string{"release:branch", "-DbranchName=0.22.X", "-DdevelopmentVersion=0.23-SNAPSHOT"},
			WorkingDirectory: "/workspace/builds/motech",
		},
	}

	require.Equal(t, "Cutting release branch 0.22.X in /workspace/builds/motech", formatter.BuildStartedMessage(command))
}

func TestBuildStartedMessageForSecureCopyUsesSourceAndTarget(t *testing.T) {
	formatter := CommandMessageFormatter{}
	command := ShellCommand{
		Name: CommandSecureCopy,
		Details: CommandDetails{
			Arguments: []string{"-p", "-P", "29418", "alice@review.example.org:hooks/commit-msg", ".git/hooks/"},
		},
	}

	require.Equal(t, "Copying alice@review.example.org:hooks/commit-msg to .git/hooks/ in current directory", formatter.BuildStartedMessage(command))
}

func TestUnknownCommandsFallBackToGenericMessages(t *testing.T) {
	formatter := CommandMessageFormatter{}
	command := ShellCommand{
		Name:    CommandGit,
		Details: CommandDetails{Arguments: []string{"status"}, WorkingDirectory: "/repo"},
	}

	require.Equal(t, "Running git status (in /repo)", formatter.BuildStartedMessage(command))
	require.Equal(t, "git status (in /repo) failed: boom", formatter.BuildExecutionFailureMessage(command, errors.New("boom")))
}
