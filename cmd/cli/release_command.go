package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/temirov/releasecut/internal/manifest"
	"github.com/temirov/releasecut/internal/pipeline"
)

const (
	jenkinsUsernameFlagNameConstant      = "jenkins-username"
	jenkinsUsernameFlagUsageConstant     = "A Jenkins user with permission to create new jobs."
	jenkinsPasswordFlagNameConstant      = "jenkins-password"
	jenkinsPasswordFlagUsageConstant     = "The password of the Jenkins user."
	gerritUsernameFlagNameConstant       = "gerrit-username"
	gerritUsernameFlagUsageConstant      = "A Gerrit user allowed to push past review."
	versionFlagNameConstant              = "version"
	versionFlagUsageConstant             = "The version of the release, e.g. 0.22."
	developmentVersionFlagNameConstant   = "development-version"
	developmentVersionFlagUsageConstant  = "The next development version on the branch, e.g. 0.22.1-SNAPSHOT."
	nextMasterVersionFlagNameConstant    = "next-master-version"
	nextMasterVersionFlagUsageConstant   = "The next working version on master, e.g. 0.23-SNAPSHOT."
	buildDirectoryFlagNameConstant       = "build-directory"
	buildDirectoryFlagUsageConstant      = "Where every repository is checked out. Deleted first when it exists (default ./builds/)."
	verboseFlagNameConstant              = "verbose"
	verboseFlagUsageConstant             = "Print the release parameters and stream build tool output."
	usageErrorTemplateConstant           = "Error: %s\n\n"
	parameterLineTemplateConstant        = "%s: %s\n"
	maskedPasswordConstant               = "********"
	jenkinsUsernameParameterConstant     = "jenkinsUsername"
	jenkinsPasswordParameterConstant     = "jenkinsPassword"
	buildDirectoryParameterConstant      = "baseBuildDir"
	versionParameterConstant             = "version"
	branchNameParameterConstant          = "branchName"
	scmTagParameterConstant              = "scmTag"
	gerritUsernameParameterConstant      = "gerritUsername"
	developmentVersionParameterConstant  = "developmentVersion"
	nextMasterVersionParameterConstant   = "nextMasterVersion"
	pipelineConstructionTemplateConstant = "unable to construct release pipeline: %w"
	releaseStartedLogMessageConstant     = "Starting release"
	versionLogFieldNameConstant          = "version"
	buildDirectoryLogFieldNameConstant   = "build_directory"
	flagWordSeparatorConstant            = '-'
)

type releaseFlagValues struct {
	jenkinsUsername    string
	jenkinsPassword    string
	gerritUsername     string
	version            string
	developmentVersion string
	nextMasterVersion  string
	buildDirectory     string
	verbose            bool
}

func (flags *releaseFlagValues) register(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&flags.jenkinsUsername, jenkinsUsernameFlagNameConstant, "", jenkinsUsernameFlagUsageConstant)
	flagSet.StringVar(&flags.jenkinsPassword, jenkinsPasswordFlagNameConstant, "", jenkinsPasswordFlagUsageConstant)
	flagSet.StringVar(&flags.gerritUsername, gerritUsernameFlagNameConstant, "", gerritUsernameFlagUsageConstant)
	flagSet.StringVar(&flags.version, versionFlagNameConstant, "", versionFlagUsageConstant)
	flagSet.StringVar(&flags.developmentVersion, developmentVersionFlagNameConstant, "", developmentVersionFlagUsageConstant)
	flagSet.StringVar(&flags.nextMasterVersion, nextMasterVersionFlagNameConstant, "", nextMasterVersionFlagUsageConstant)
	flagSet.StringVar(&flags.buildDirectory, buildDirectoryFlagNameConstant, "", buildDirectoryFlagUsageConstant)
	flagSet.BoolVar(&flags.verbose, verboseFlagNameConstant, false, verboseFlagUsageConstant)
}

// normalizeFlagName accepts the camelCase spellings of the release script (--jenkinsUsername)
// as aliases for the kebab-case flags.
func normalizeFlagName(flagSet *pflag.FlagSet, name string) pflag.NormalizedName {
	var normalized strings.Builder
	for characterIndex, character := range name {
		if unicode.IsUpper(character) {
			if characterIndex > 0 {
				normalized.WriteRune(flagWordSeparatorConstant)
			}
			character = unicode.ToLower(character)
		}
		normalized.WriteRune(character)
	}
	return pflag.NormalizedName(normalized.String())
}

// pipelineRunner executes one release.
type pipelineRunner interface {
	Run(executionContext context.Context, request pipeline.Request) (pipeline.Result, error)
}

type pipelineRunnerFactory func(application *Application, request pipeline.Request) (pipelineRunner, error)

func (application *Application) runRelease(command *cobra.Command) error {
	if application.logger == nil {
		return errors.New(loggerNotInitializedMessageConstant)
	}

	request := application.releaseRequest()
	if request.Verbose {
		application.printParameters(request)
	}

	if validationError := request.Validate(); validationError != nil {
		var missingValuesError pipeline.MissingValuesError
		if errors.As(validationError, &missingValuesError) {
			fmt.Fprintf(application.standardError, usageErrorTemplateConstant, missingValuesError.Error())
			_ = command.Usage()
			return nil
		}
		return validationError
	}

	runner, constructionError := application.pipelineRunnerFactory(application, request)
	if constructionError != nil {
		return fmt.Errorf(pipelineConstructionTemplateConstant, constructionError)
	}

	application.logger.Info(
		releaseStartedLogMessageConstant,
		zap.String(versionLogFieldNameConstant, request.Version),
		zap.String(buildDirectoryLogFieldNameConstant, request.BuildDirectory),
	)
	_, runError := runner.Run(command.Context(), request)
	return runError
}

// releaseRequest merges flag values over the configured credentials and build directory.
func (application *Application) releaseRequest() pipeline.Request {
	flags := application.releaseFlags
	releaseConfiguration := application.configuration.Release

	return pipeline.Request{
		JenkinsUsername:     firstNonEmpty(flags.jenkinsUsername, releaseConfiguration.Jenkins.Username),
		JenkinsPassword:     firstNonEmpty(flags.jenkinsPassword, releaseConfiguration.Jenkins.Password),
		ReviewUsername:      firstNonEmpty(flags.gerritUsername, releaseConfiguration.Review.Username),
		Version:             flags.version,
		DevelopmentVersion:  flags.developmentVersion,
		NextMainlineVersion: flags.nextMasterVersion,
		BuildDirectory:      firstNonEmpty(flags.buildDirectory, releaseConfiguration.BuildDirectory),
		Verbose:             flags.verbose,
	}.Normalized()
}

func (application *Application) printParameters(request pipeline.Request) {
	maskedPassword := ""
	if len(request.JenkinsPassword) > 0 {
		maskedPassword = maskedPasswordConstant
	}
	branchName := ""
	scmTag := ""
	if len(request.Version) > 0 {
		branchName = manifest.BranchName(request.Version)
		scmTag = manifest.TagName(request.Version)
	}

	for _, parameter := range [][2]string{
		{jenkinsUsernameParameterConstant, request.JenkinsUsername},
		{jenkinsPasswordParameterConstant, maskedPassword},
		{buildDirectoryParameterConstant, request.BuildDirectory},
		{versionParameterConstant, request.Version},
		{branchNameParameterConstant, branchName},
		{scmTagParameterConstant, scmTag},
		{gerritUsernameParameterConstant, request.ReviewUsername},
		{developmentVersionParameterConstant, request.DevelopmentVersion},
		{nextMasterVersionParameterConstant, request.NextMainlineVersion},
	} {
		fmt.Fprintf(application.standardOutput, parameterLineTemplateConstant, parameter[0], parameter[1])
	}
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if len(strings.TrimSpace(value)) > 0 {
			return value
		}
	}
	return ""
}
