package execshell

import (
	"fmt"
	"strings"
)

const (
	genericStartTemplateConstant            = "Running %s"
	genericSuccessTemplateConstant          = "Completed %s"
	genericFailureTemplateConstant          = "%s failed with exit code %d%s"
	genericExecutionFailureTemplateConstant = "%s failed: %s"
	workingDirectorySuffixTemplateConstant  = " (in %s)"
	standardErrorSuffixTemplateConstant     = ": %s"
	commandArgumentsJoinSeparatorConstant   = " "
	unknownFailureMessageConstant           = "unknown error"
	defaultWorkingDirectoryLabelConstant    = "current directory"
	emptyStringConstant                     = ""
)

const (
	gitCloneSubcommandNameConstant         = "clone"
	gitConfigSubcommandNameConstant        = "config"
	gitCommitSubcommandNameConstant        = "commit"
	gitPushSubcommandNameConstant          = "push"
	gitMessageFlagSuffixConstant           = "m"
	mavenReleaseBranchGoalConstant         = "release:branch"
	mavenBranchNamePropertyPrefixConstant  = "-DbranchName="
	secureCopyMinimumArgumentCountConstant = 2
)

const (
	gitCloneStartTemplateConstant      = "Cloning %s into %s"
	gitCloneSuccessTemplateConstant    = "Cloned %s into %s"
	gitCloneFailureTemplateConstant    = "Failed to clone %s into %s (exit code %d%s)"
	gitConfigStartTemplateConstant     = "Setting %s to %s in %s"
	gitConfigSuccessTemplateConstant   = "Set %s to %s in %s"
	gitConfigFailureTemplateConstant   = "Failed to set %s to %s in %s (exit code %d%s)"
	gitCommitStartTemplateConstant     = "Creating commit in %s with message %q"
	gitCommitSuccessTemplateConstant   = "Created commit in %s with message %q"
	gitCommitFailureTemplateConstant   = "Failed to create commit in %s with message %q (exit code %d%s)"
	gitPushStartTemplateConstant       = "Pushing %s to %s from %s"
	gitPushSuccessTemplateConstant     = "Pushed %s to %s from %s"
	gitPushFailureTemplateConstant     = "Failed to push %s to %s from %s (exit code %d%s)"
	mavenBranchStartTemplateConstant   = "Cutting release branch %s in %s"
	mavenBranchSuccessTemplateConstant = "Cut release branch %s in %s"
	mavenBranchFailureTemplateConstant = "Failed to cut release branch %s in %s (exit code %d%s)"
	secureCopyStartTemplateConstant    = "Copying %s to %s in %s"
	secureCopySuccessTemplateConstant  = "Copied %s to %s in %s"
	secureCopyFailureTemplateConstant  = "Failed to copy %s to %s in %s (exit code %d%s)"
)

type messageStage int

const (
	messageStageStart messageStage = iota
	messageStageSuccess
	messageStageFailure
)

type messageTemplates struct {
	start   string
	success string
	failure string
}

// CommandMessageFormatter builds human-readable descriptions of known commands.
type CommandMessageFormatter struct{}

// BuildStartedMessage describes a command about to run.
func (formatter CommandMessageFormatter) BuildStartedMessage(command ShellCommand) string {
	if message, known := formatter.describe(command, messageStageStart, ExecutionResult{}); known {
		return message
	}
	return fmt.Sprintf(genericStartTemplateConstant, formatter.commandLabel(command))
}

// BuildSuccessMessage describes a command that exited with code zero.
func (formatter CommandMessageFormatter) BuildSuccessMessage(command ShellCommand) string {
	if message, known := formatter.describe(command, messageStageSuccess, ExecutionResult{}); known {
		return message
	}
	return fmt.Sprintf(genericSuccessTemplateConstant, formatter.commandLabel(command))
}

// BuildFailureMessage describes a command that exited with a non-zero code.
func (formatter CommandMessageFormatter) BuildFailureMessage(command ShellCommand, result ExecutionResult) string {
	if message, known := formatter.describe(command, messageStageFailure, result); known {
		return message
	}
	return fmt.Sprintf(genericFailureTemplateConstant, formatter.commandLabel(command), result.ExitCode, formatter.standardErrorSuffix(result.StandardError))
}

// BuildExecutionFailureMessage describes a command that could not be started.
func (formatter CommandMessageFormatter) BuildExecutionFailureMessage(command ShellCommand, failure error) string {
	failureMessage := unknownFailureMessageConstant
	if failure != nil {
		failureMessage = failure.Error()
	}
	return fmt.Sprintf(genericExecutionFailureTemplateConstant, formatter.commandLabel(command), failureMessage)
}

func (formatter CommandMessageFormatter) describe(command ShellCommand, stage messageStage, result ExecutionResult) (string, bool) {
	arguments := command.Details.Arguments
	workingDirectory := formatter.workingDirectoryLabel(command)

	var templates messageTemplates
	var values []any

	switch command.Name {
	case CommandGit:
		if len(arguments) == 0 {
			return emptyStringConstant, false
		}
		switch arguments[0] {
		case gitCloneSubcommandNameConstant:
			if len(arguments) < 3 {
				return emptyStringConstant, false
			}
			templates = messageTemplates{gitCloneStartTemplateConstant, gitCloneSuccessTemplateConstant, gitCloneFailureTemplateConstant}
			values = []any{arguments[1], arguments[2]}
		case gitConfigSubcommandNameConstant:
			if len(arguments) < 3 {
				return emptyStringConstant, false
			}
			templates = messageTemplates{gitConfigStartTemplateConstant, gitConfigSuccessTemplateConstant, gitConfigFailureTemplateConstant}
			values = []any{arguments[1], arguments[2], workingDirectory}
		case gitCommitSubcommandNameConstant:
			commitMessage, found := formatter.commitMessage(arguments[1:])
			if !found {
				return emptyStringConstant, false
			}
			templates = messageTemplates{gitCommitStartTemplateConstant, gitCommitSuccessTemplateConstant, gitCommitFailureTemplateConstant}
			values = []any{workingDirectory, commitMessage}
		case gitPushSubcommandNameConstant:
			if len(arguments) < 3 {
				return emptyStringConstant, false
			}
			templates = messageTemplates{gitPushStartTemplateConstant, gitPushSuccessTemplateConstant, gitPushFailureTemplateConstant}
			values = []any{arguments[2], arguments[1], workingDirectory}
		default:
			return emptyStringConstant, false
		}
	case CommandMaven:
		if len(arguments) == 0 || arguments[0] != mavenReleaseBranchGoalConstant {
			return emptyStringConstant, false
		}
		branchName := emptyStringConstant
		for _, argument := range arguments[1:] {
			if strings.HasPrefix(argument, mavenBranchNamePropertyPrefixConstant) {
				branchName = strings.TrimPrefix(argument, mavenBranchNamePropertyPrefixConstant)
			}
		}
		if len(branchName) == 0 {
			return emptyStringConstant, false
		}
		templates = messageTemplates{mavenBranchStartTemplateConstant, mavenBranchSuccessTemplateConstant, mavenBranchFailureTemplateConstant}
		values = []any{branchName, workingDirectory}
	case CommandSecureCopy:
		if len(arguments) < secureCopyMinimumArgumentCountConstant {
			return emptyStringConstant, false
		}
		templates = messageTemplates{secureCopyStartTemplateConstant, secureCopySuccessTemplateConstant, secureCopyFailureTemplateConstant}
		values = []any{arguments[len(arguments)-2], arguments[len(arguments)-1], workingDirectory}
	default:
		return emptyStringConstant, false
	}

	switch stage {
	case messageStageStart:
		return fmt.Sprintf(templates.start, values...), true
	case messageStageSuccess:
		return fmt.Sprintf(templates.success, values...), true
	default:
		values = append(values, result.ExitCode, formatter.standardErrorSuffix(result.StandardError))
		return fmt.Sprintf(templates.failure, values...), true
	}
}

func (formatter CommandMessageFormatter) commitMessage(arguments []string) (string, bool) {
	for argumentIndex, argument := range arguments {
		if strings.HasPrefix(argument, "-") && !strings.HasPrefix(argument, "--") && strings.HasSuffix(argument, gitMessageFlagSuffixConstant) {
			if argumentIndex+1 < len(arguments) {
				return arguments[argumentIndex+1], true
			}
		}
	}
	return emptyStringConstant, false
}

func (formatter CommandMessageFormatter) commandLabel(command ShellCommand) string {
	commandParts := []string{string(command.Name)}
	if len(command.Details.Arguments) > 0 {
		commandParts = append(commandParts, strings.Join(command.Details.Arguments, commandArgumentsJoinSeparatorConstant))
	}
	commandLabel := strings.Join(commandParts, commandArgumentsJoinSeparatorConstant)
	trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmedWorkingDirectory) == 0 {
		return commandLabel
	}
	return commandLabel + fmt.Sprintf(workingDirectorySuffixTemplateConstant, trimmedWorkingDirectory)
}

func (formatter CommandMessageFormatter) workingDirectoryLabel(command ShellCommand) string {
	trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmedWorkingDirectory) == 0 {
		return defaultWorkingDirectoryLabelConstant
	}
	return trimmedWorkingDirectory
}

func (formatter CommandMessageFormatter) standardErrorSuffix(standardError string) string {
	trimmedStandardError := strings.TrimSpace(standardError)
	if len(trimmedStandardError) == 0 {
		return emptyStringConstant
	}
	return fmt.Sprintf(standardErrorSuffixTemplateConstant, trimmedStandardError)
}
