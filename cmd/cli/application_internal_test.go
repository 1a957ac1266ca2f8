package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/releasecut/internal/manifest"
	"github.com/temirov/releasecut/internal/pipeline"
)

const (
	testConfigurationFileNameConstant         = "releasecut.yaml"
	testConfigurationContentConstant          = "release:\n  jenkins:\n    username: configured-user\n    password: configured-secret\n  review:\n    username: configured-reviewer\n  build_directory: /tmp/configured-builds\n"
	testJenkinsUsernameEnvironmentKeyConstant = "RELEASECUT_RELEASE_JENKINS_USERNAME"
	testVersionConstant                       = "0.22"
	testDevelopmentVersionConstant            = "0.22.1-SNAPSHOT"
	testNextMasterVersionConstant             = "0.23-SNAPSHOT"
	testPasswordConstant                      = "super-secret"
)

type recordingPipelineRunner struct {
	requests []pipeline.Request
	runError error
}

func (runner *recordingPipelineRunner) Run(executionContext context.Context, request pipeline.Request) (pipeline.Result, error) {
	runner.requests = append(runner.requests, request)
	return pipeline.Result{}, runner.runError
}

func newRecordingApplication(t *testing.T, runner *recordingPipelineRunner, arguments []string) (*Application, *bytes.Buffer) {
	t.Helper()

	standardOutput := &bytes.Buffer{}
	application := NewApplication()
	application.SetOutput(standardOutput, &bytes.Buffer{})
	application.pipelineRunnerFactory = func(application *Application, request pipeline.Request) (pipelineRunner, error) {
		return runner, nil
	}
	application.SetArguments(append([]string{"--log-level", "error"}, arguments...))
	return application, standardOutput
}

func versionArguments() []string {
	return []string{
		"--version", testVersionConstant,
		"--development-version", testDevelopmentVersionConstant,
		"--next-master-version", testNextMasterVersionConstant,
	}
}

func writeConfigurationFile(t *testing.T) string {
	t.Helper()

	configurationPath := filepath.Join(t.TempDir(), testConfigurationFileNameConstant)
	require.NoError(t, os.WriteFile(configurationPath, []byte(testConfigurationContentConstant), 0o600))
	return configurationPath
}

func TestReleaseRequestFlagsOverrideConfiguration(t *testing.T) {
	runner := &recordingPipelineRunner{}
	arguments := append([]string{
		"--config", writeConfigurationFile(t),
		"--jenkins-username", "flag-user",
	}, versionArguments()...)
	application, _ := newRecordingApplication(t, runner, arguments)

	require.NoError(t, application.Execute())
	require.Len(t, runner.requests, 1)

	request := runner.requests[0]
	require.Equal(t, "flag-user", request.JenkinsUsername)
	require.Equal(t, "configured-secret", request.JenkinsPassword)
	require.Equal(t, "configured-reviewer", request.ReviewUsername)
	require.Equal(t, "/tmp/configured-builds", request.BuildDirectory)
	require.Equal(t, testVersionConstant, request.Version)
	require.Equal(t, testDevelopmentVersionConstant, request.DevelopmentVersion)
	require.Equal(t, testNextMasterVersionConstant, request.NextMainlineVersion)
	require.False(t, request.Verbose)
}

func TestReleaseRequestReadsEnvironmentCredentials(t *testing.T) {
	t.Setenv(testJenkinsUsernameEnvironmentKeyConstant, "environment-user")

	runner := &recordingPipelineRunner{}
	arguments := append([]string{
		"--jenkins-password", testPasswordConstant,
		"--gerrit-username", "reviewer",
	}, versionArguments()...)
	application, _ := newRecordingApplication(t, runner, arguments)

	require.NoError(t, application.Execute())
	require.Len(t, runner.requests, 1)
	require.Equal(t, "environment-user", runner.requests[0].JenkinsUsername)
	require.Equal(t, pipeline.DefaultBuildDirectoryConstant, runner.requests[0].BuildDirectory)
}

func TestVerboseRunPrintsMaskedParameters(t *testing.T) {
	runner := &recordingPipelineRunner{}
	arguments := append([]string{
		"--jenkins-username", "releaser",
		"--jenkins-password", testPasswordConstant,
		"--gerrit-username", "reviewer",
		"--build-directory", "/tmp/verbose-builds",
		"--verbose",
	}, versionArguments()...)
	application, standardOutput := newRecordingApplication(t, runner, arguments)

	require.NoError(t, application.Execute())
	require.Len(t, runner.requests, 1)
	require.True(t, runner.requests[0].Verbose)

	printed := standardOutput.String()
	require.NotContains(t, printed, testPasswordConstant)
	for _, expectedLine := range []string{
		"jenkinsUsername: releaser\n",
		"jenkinsPassword: ********\n",
		"baseBuildDir: /tmp/verbose-builds\n",
		"version: 0.22\n",
		"branchName: 0.22.X\n",
		"scmTag: release-0.22\n",
		"gerritUsername: reviewer\n",
		"developmentVersion: 0.22.1-SNAPSHOT\n",
		"nextMasterVersion: 0.23-SNAPSHOT\n",
	} {
		require.Contains(t, printed, expectedLine)
	}
}

func TestRunnerFailurePropagates(t *testing.T) {
	runFailure := errors.New("branch cut failed for motech")
	runner := &recordingPipelineRunner{runError: runFailure}
	arguments := append([]string{
		"--jenkins-username", "releaser",
		"--jenkins-password", testPasswordConstant,
		"--gerrit-username", "reviewer",
	}, versionArguments()...)
	application, _ := newRecordingApplication(t, runner, arguments)

	require.ErrorIs(t, application.Execute(), runFailure)
}

func TestRunnerConstructionFailureIsWrapped(t *testing.T) {
	constructionFailure := errors.New("jenkins base URL must be provided")
	application, _ := newRecordingApplication(t, &recordingPipelineRunner{}, append([]string{
		"--jenkins-username", "releaser",
		"--jenkins-password", testPasswordConstant,
		"--gerrit-username", "reviewer",
	}, versionArguments()...))
	application.pipelineRunnerFactory = func(application *Application, request pipeline.Request) (pipelineRunner, error) {
		return nil, constructionFailure
	}

	executionError := application.Execute()
	require.ErrorIs(t, executionError, constructionFailure)
	require.Contains(t, executionError.Error(), "unable to construct release pipeline")
}

func TestEmbeddedDefaultsPopulateReleaseConfiguration(t *testing.T) {
	application := NewApplication()
	require.NoError(t, application.initializeConfiguration(application.rootCommand))

	releaseConfiguration := application.configuration.Release
	require.Equal(t, defaultJenkinsBaseURLConstant, releaseConfiguration.Jenkins.BaseURL)
	require.Equal(t, "Releases", releaseConfiguration.Jenkins.ReleasesView)
	require.Equal(t, manifest.DefaultReviewHostConstant, releaseConfiguration.Review.Host)
	require.Equal(t, manifest.DefaultReviewPortConstant, releaseConfiguration.Review.Port)
	require.Equal(t, "build-configs", releaseConfiguration.TemplatesDirectory)
	require.Equal(t, "pom.xml", releaseConfiguration.DescriptorFile)
	require.Equal(t, "motech.version", releaseConfiguration.VersionField)
	require.Equal(t, "master", releaseConfiguration.MainlineBranch)
	require.False(t, releaseConfiguration.PublishThroughReview)
	require.Equal(t, 1, releaseConfiguration.HealthCheckConcurrency)
	require.Equal(t, manifest.DefaultRepositoryDefinitions(), releaseConfiguration.Repositories)
	require.Equal(t, manifest.DefaultRootRepositoryNameConstant, releaseConfiguration.manifestOptions().RootRepositoryName)
}

func TestManifestOptionsFallBackToDefaultRepositories(t *testing.T) {
	options := ReleaseConfiguration{RootRepository: manifest.DefaultRootRepositoryNameConstant}.manifestOptions()
	require.Equal(t, manifest.DefaultRepositoryDefinitions(), options.Definitions)
}

func TestDefaultReleaseConfigurationValuesArePrefixed(t *testing.T) {
	values := DefaultReleaseConfigurationValues(releaseConfigurationKeyConstant)
	require.Equal(t, defaultJenkinsBaseURLConstant, values["release.jenkins.base_url"])
	require.Equal(t, pipeline.DefaultBuildDirectoryConstant, values["release.build_directory"])
	require.NotContains(t, values, "jenkins.base_url")

	unprefixedValues := DefaultReleaseConfigurationValues("")
	require.Equal(t, len(values), len(unprefixedValues))
	require.Contains(t, unprefixedValues, "jenkins.base_url")
}

func TestBuildReleasePipelineWiresProductionCollaborators(t *testing.T) {
	application := NewApplication()
	application.SetOutput(&bytes.Buffer{}, &bytes.Buffer{})
	require.NoError(t, application.initializeConfiguration(application.rootCommand))

	runner, buildError := buildReleasePipeline(application, pipeline.Request{
		JenkinsUsername: "releaser",
		JenkinsPassword: testPasswordConstant,
		ReviewUsername:  "reviewer",
	}.Normalized())
	require.NoError(t, buildError)
	require.IsType(t, &pipeline.Service{}, runner)
}

func TestBuildReleasePipelineRequiresJenkinsUsername(t *testing.T) {
	application := NewApplication()
	require.NoError(t, application.initializeConfiguration(application.rootCommand))

	_, buildError := buildReleasePipeline(application, pipeline.Request{})
	require.Error(t, buildError)
}

func TestReleaseFlagsAcceptCamelCaseSpellings(t *testing.T) {
	runner := &recordingPipelineRunner{}
	application, _ := newRecordingApplication(t, runner, []string{
		"--jenkinsUsername", "releaser",
		"--jenkinsPassword", testPasswordConstant,
		"--gerritUsername", "reviewer",
		"--version", testVersionConstant,
		"--developmentVersion", testDevelopmentVersionConstant,
		"--nextMasterVersion", testNextMasterVersionConstant,
		"--buildDirectory", "/tmp/camel-builds",
	})

	require.NoError(t, application.Execute())
	require.Len(t, runner.requests, 1)
	require.Equal(t, "releaser", runner.requests[0].JenkinsUsername)
	require.Equal(t, "reviewer", runner.requests[0].ReviewUsername)
	require.Equal(t, testNextMasterVersionConstant, runner.requests[0].NextMainlineVersion)
	require.Equal(t, "/tmp/camel-builds", runner.requests[0].BuildDirectory)
}

func TestNormalizeFlagName(t *testing.T) {
	for input, expected := range map[string]string{
		"jenkinsUsername":   "jenkins-username",
		"nextMasterVersion": "next-master-version",
		"jenkins-username":  "jenkins-username",
		"version":           "version",
	} {
		require.Equal(t, expected, string(normalizeFlagName(nil, input)))
	}
}
