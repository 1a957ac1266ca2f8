package cli

import (
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"path/filepath"

	"github.com/temirov/releasecut/internal/branchcut"
	"github.com/temirov/releasecut/internal/execshell"
	"github.com/temirov/releasecut/internal/filesystem"
	"github.com/temirov/releasecut/internal/healthgate"
	"github.com/temirov/releasecut/internal/jenkins"
	"github.com/temirov/releasecut/internal/jobs"
	"github.com/temirov/releasecut/internal/pipeline"
	"github.com/temirov/releasecut/internal/progress"
	"github.com/temirov/releasecut/internal/shared"
	"github.com/temirov/releasecut/internal/ui"
	"github.com/temirov/releasecut/internal/versionbump"
	"github.com/temirov/releasecut/internal/workspace"
)

const (
	templatesDirectoryErrorTemplateConstant = "unable to resolve templates directory %s: %w"
	cookieJarErrorTemplateConstant          = "unable to create cookie jar: %w"
)

// buildReleasePipeline wires the production collaborators of every stage.
func buildReleasePipeline(application *Application, request pipeline.Request) (pipelineRunner, error) {
	releaseConfiguration := application.configuration.Release
	logger := application.logger
	reporter := shared.NewWriterReporter(application.standardOutput)
	fileSystem := filesystem.OSFileSystem{}

	var executor *execshell.ShellExecutor
	var executorError error
	if application.humanReadableLoggingEnabled() {
		executor, executorError = execshell.NewShellExecutorWithObserver(logger, execshell.NewOSCommandRunner(), ui.NewConsoleCommandEventLogger(logger))
	} else {
		executor, executorError = execshell.NewShellExecutor(logger, execshell.NewOSCommandRunner())
	}
	if executorError != nil {
		return nil, executorError
	}

	// Jenkins ties CSRF crumbs to the session cookie.
	cookieJar, cookieJarError := cookiejar.New(nil)
	if cookieJarError != nil {
		return nil, fmt.Errorf(cookieJarErrorTemplateConstant, cookieJarError)
	}
	jenkinsClient, jenkinsError := jenkins.NewClient(jenkins.ClientConfiguration{
		BaseURL:  releaseConfiguration.Jenkins.BaseURL,
		Username: request.JenkinsUsername,
		Password: request.JenkinsPassword,
	}, &http.Client{Timeout: releaseConfiguration.Jenkins.RequestTimeout, Jar: cookieJar})
	if jenkinsError != nil {
		return nil, jenkinsError
	}

	// Templates resolve against the directory the tool was started in, not the workspace.
	templatesDirectory, templatesError := filepath.Abs(releaseConfiguration.TemplatesDirectory)
	if templatesError != nil {
		return nil, fmt.Errorf(templatesDirectoryErrorTemplateConstant, releaseConfiguration.TemplatesDirectory, templatesError)
	}

	gate, gateError := healthgate.NewGate(jenkinsClient, reporter, logger, releaseConfiguration.HealthCheckConcurrency)
	if gateError != nil {
		return nil, gateError
	}
	preparer, preparerError := workspace.NewPreparer(fileSystem, executor, executor, reporter, logger)
	if preparerError != nil {
		return nil, preparerError
	}
	preparer.ProtectDirectories(templatesDirectory)
	cutter, cutterError := branchcut.NewCutter(executor, reporter, logger)
	if cutterError != nil {
		return nil, cutterError
	}
	publisher, publisherError := versionbump.NewPublisher(fileSystem, executor, reporter, logger)
	if publisherError != nil {
		return nil, publisherError
	}
	registrar, registrarError := jobs.NewRegistrar(fileSystem, jenkinsClient, reporter, logger)
	if registrarError != nil {
		return nil, registrarError
	}
	ledgerWriter, ledgerError := progress.NewWriter(fileSystem)
	if ledgerError != nil {
		return nil, ledgerError
	}

	return pipeline.NewService(pipeline.Dependencies{
		HealthChecker:     gate,
		WorkspacePreparer: preparer,
		BranchCutter:      cutter,
		VersionPublisher:  publisher,
		JobRegistrar:      registrar,
		LedgerWriter:      ledgerWriter,
		Logger:            logger,
	}, pipeline.Configuration{
		ManifestOptions:      releaseConfiguration.manifestOptions(),
		TemplatesDirectory:   templatesDirectory,
		ReleasesView:         releaseConfiguration.Jenkins.ReleasesView,
		DescriptorFile:       releaseConfiguration.DescriptorFile,
		VersionField:         releaseConfiguration.VersionField,
		MainlineBranch:       releaseConfiguration.MainlineBranch,
		CommitMessage:        releaseConfiguration.CommitMessage,
		PublishThroughReview: releaseConfiguration.PublishThroughReview,
		VerboseOutput:        application.standardOutput,
	})
}
