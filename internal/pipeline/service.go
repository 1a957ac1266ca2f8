package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/temirov/releasecut/internal/branchcut"
	"github.com/temirov/releasecut/internal/healthgate"
	"github.com/temirov/releasecut/internal/jobs"
	"github.com/temirov/releasecut/internal/jobtemplate"
	"github.com/temirov/releasecut/internal/manifest"
	"github.com/temirov/releasecut/internal/progress"
	"github.com/temirov/releasecut/internal/shared"
	"github.com/temirov/releasecut/internal/versionbump"
	"github.com/temirov/releasecut/internal/workspace"
)

const (
	upstreamUnhealthyMessageConstant     = "upstream builds are not all successful"
	dependencyMissingTemplateConstant    = "pipeline %s not configured"
	stageErrorTemplateConstant           = "%s failed: %v"
	repositoryStageErrorTemplateConstant = "%s failed for %s: %v"
	healthCheckerDependencyConstant      = "health checker"
	workspaceDependencyConstant          = "workspace preparer"
	branchCutterDependencyConstant       = "branch cutter"
	versionPublisherDependencyConstant   = "version publisher"
	jobRegistrarDependencyConstant       = "job registrar"
	ledgerWriteFailedLogMessageConstant  = "Failed to write progress ledger"
	ledgerWrittenLogMessageConstant      = "Wrote progress ledger"
	stageStartedLogMessageConstant       = "Starting release stage"
	releaseCompletedLogMessageConstant   = "Release completed"
	stageLogFieldNameConstant            = "stage"
	pathLogFieldNameConstant             = "path"
	versionLogFieldNameConstant          = "version"
	branchLogFieldNameConstant           = "branch"
)

// ErrUpstreamUnhealthy indicates the health gate found a job that is missing, running or failing.
var ErrUpstreamUnhealthy = errors.New(upstreamUnhealthyMessageConstant)

// Stage names a pipeline stage.
type Stage string

// Pipeline stages in execution order.
const (
	StageManifest    Stage = "manifest"
	StageHealthGate  Stage = "health gate"
	StageWorkspace   Stage = "workspace preparation"
	StageBranchCut   Stage = "branch cut"
	StageVersionBump Stage = "version bump"
	StageJobs        Stage = "job registration"
)

// StageError attributes a failure to a stage and, when known, a repository.
type StageError struct {
	Stage      Stage
	Repository string
	Cause      error
}

// Error describes the failing stage.
func (stageError StageError) Error() string {
	if len(stageError.Repository) > 0 {
		return fmt.Sprintf(repositoryStageErrorTemplateConstant, stageError.Stage, stageError.Repository, stageError.Cause)
	}
	return fmt.Sprintf(stageErrorTemplateConstant, stageError.Stage, stageError.Cause)
}

// Unwrap exposes the underlying cause.
func (stageError StageError) Unwrap() error {
	return stageError.Cause
}

// HealthChecker inspects upstream builds.
type HealthChecker interface {
	Check(executionContext context.Context, releaseManifest manifest.Manifest) (healthgate.Report, error)
}

// WorkspacePreparer resets the build directory and clones every repository.
type WorkspacePreparer interface {
	Prepare(executionContext context.Context, buildDirectory string, releaseManifest manifest.Manifest) (workspace.Workspace, error)
}

// BranchCutter creates the release branches.
type BranchCutter interface {
	Cut(executionContext context.Context, releaseManifest manifest.Manifest, preparedWorkspace workspace.Workspace, options branchcut.Options) ([]string, error)
}

// VersionPublisher bumps and pushes the platform version.
type VersionPublisher interface {
	Publish(executionContext context.Context, releaseManifest manifest.Manifest, preparedWorkspace workspace.Workspace, options versionbump.Options) ([]string, error)
}

// JobRegistrar creates the Jenkins jobs of the release branch.
type JobRegistrar interface {
	Register(executionContext context.Context, releaseManifest manifest.Manifest, options jobs.Options) ([]string, error)
}

// LedgerWriter persists the progress ledger.
type LedgerWriter interface {
	Write(directory string, ledger progress.Ledger) (string, error)
}

// Dependencies are the stage implementations the service drives.
type Dependencies struct {
	HealthChecker     HealthChecker
	WorkspacePreparer WorkspacePreparer
	BranchCutter      BranchCutter
	VersionPublisher  VersionPublisher
	JobRegistrar      JobRegistrar
	// LedgerWriter is optional; without it no ledger is written.
	LedgerWriter LedgerWriter
	Logger       *zap.Logger
}

// Configuration holds the settings that do not change between runs.
type Configuration struct {
	ManifestOptions      manifest.Options
	TemplatesDirectory   string
	ReleasesView         string
	DescriptorFile       string
	VersionField         string
	MainlineBranch       string
	CommitMessage        string
	PublishThroughReview bool
	// VerboseOutput receives streamed build tool output when the request is verbose.
	VerboseOutput io.Writer
}

// Result summarizes a completed run.
type Result struct {
	Manifest  manifest.Manifest
	Health    healthgate.Report
	Workspace workspace.Workspace
	Branched  []string
	Published []string
	Jobs      []string
}

// Service runs the release pipeline.
type Service struct {
	dependencies  Dependencies
	configuration Configuration
	logger        *zap.Logger
}

// NewService constructs a Service.
func NewService(dependencies Dependencies, configuration Configuration) (*Service, error) {
	for _, dependency := range []struct {
		name       string
		configured bool
	}{
		{name: healthCheckerDependencyConstant, configured: dependencies.HealthChecker != nil},
		{name: workspaceDependencyConstant, configured: dependencies.WorkspacePreparer != nil},
		{name: branchCutterDependencyConstant, configured: dependencies.BranchCutter != nil},
		{name: versionPublisherDependencyConstant, configured: dependencies.VersionPublisher != nil},
		{name: jobRegistrarDependencyConstant, configured: dependencies.JobRegistrar != nil},
	} {
		if !dependency.configured {
			return nil, fmt.Errorf(dependencyMissingTemplateConstant, dependency.name)
		}
	}
	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{dependencies: dependencies, configuration: configuration, logger: logger}, nil
}

// Run executes every stage for the request. The returned Result holds whatever completed before a failure.
func (service *Service) Run(executionContext context.Context, request Request) (Result, error) {
	if validationError := request.Validate(); validationError != nil {
		return Result{}, validationError
	}
	normalizedRequest := request.Normalized()

	var result Result
	releaseManifest, manifestError := manifest.Build(normalizedRequest.Version, normalizedRequest.ReviewUsername, service.configuration.ManifestOptions)
	if manifestError != nil {
		return result, StageError{Stage: StageManifest, Cause: manifestError}
	}
	result.Manifest = releaseManifest
	ledger := progress.Ledger{Version: releaseManifest.Version, BranchName: releaseManifest.BranchName}

	service.logStage(StageHealthGate)
	report, healthError := service.dependencies.HealthChecker.Check(executionContext, releaseManifest)
	if healthError != nil {
		return result, newStageError(StageHealthGate, healthError)
	}
	result.Health = report
	if !report.AllGood() {
		return result, StageError{Stage: StageHealthGate, Cause: ErrUpstreamUnhealthy}
	}

	service.logStage(StageWorkspace)
	preparedWorkspace, workspaceError := service.dependencies.WorkspacePreparer.Prepare(executionContext, normalizedRequest.BuildDirectory, releaseManifest)
	result.Workspace = preparedWorkspace
	service.recordProgress(&ledger, preparedWorkspace.Root, progress.StageWorkspace, preparedWorkspace.Checkouts, workspaceError)
	if workspaceError != nil {
		return result, newStageError(StageWorkspace, workspaceError)
	}

	service.logStage(StageBranchCut)
	branchOptions := branchcut.Options{NextMainlineVersion: normalizedRequest.NextMainlineVersion}
	if normalizedRequest.Verbose {
		branchOptions.OutputSink = service.configuration.VerboseOutput
	}
	branched, branchError := service.dependencies.BranchCutter.Cut(executionContext, releaseManifest, preparedWorkspace, branchOptions)
	result.Branched = branched
	service.recordProgress(&ledger, preparedWorkspace.Root, progress.StageBranchCut, branched, branchError)
	if branchError != nil {
		return result, newStageError(StageBranchCut, branchError)
	}

	service.logStage(StageVersionBump)
	published, publishError := service.dependencies.VersionPublisher.Publish(executionContext, releaseManifest, preparedWorkspace, versionbump.Options{
		NextMainlineVersion:  normalizedRequest.NextMainlineVersion,
		DescriptorFile:       service.configuration.DescriptorFile,
		VersionField:         service.configuration.VersionField,
		MainlineBranch:       service.configuration.MainlineBranch,
		CommitMessage:        service.configuration.CommitMessage,
		PublishThroughReview: service.configuration.PublishThroughReview,
	})
	result.Published = published
	service.recordProgress(&ledger, preparedWorkspace.Root, progress.StageVersionBump, published, publishError)
	if publishError != nil {
		return result, newStageError(StageVersionBump, publishError)
	}

	service.logStage(StageJobs)
	createdJobs, jobsError := service.dependencies.JobRegistrar.Register(executionContext, releaseManifest, jobs.Options{
		TemplatesDirectory: service.configuration.TemplatesDirectory,
		ViewName:           service.configuration.ReleasesView,
		Parameters: jobtemplate.Parameters{
			BranchName:         releaseManifest.BranchName,
			Version:            releaseManifest.Version,
			DevelopmentVersion: normalizedRequest.DevelopmentVersion,
			SCMTag:             releaseManifest.TagName,
		},
	})
	result.Jobs = createdJobs
	service.recordProgress(&ledger, preparedWorkspace.Root, progress.StageJobs, createdJobs, jobsError)
	if jobsError != nil {
		return result, newStageError(StageJobs, jobsError)
	}

	service.logger.Info(releaseCompletedLogMessageConstant, zap.String(versionLogFieldNameConstant, releaseManifest.Version), zap.String(branchLogFieldNameConstant, releaseManifest.BranchName))
	return result, nil
}

func (service *Service) logStage(stage Stage) {
	service.logger.Debug(stageStartedLogMessageConstant, zap.String(stageLogFieldNameConstant, string(stage)))
}

// recordProgress never fails the run; a ledger that cannot be written is only logged.
func (service *Service) recordProgress(ledger *progress.Ledger, directory string, stage progress.Stage, completed []string, failure error) {
	ledger.Record(stage, completed, failure)
	if service.dependencies.LedgerWriter == nil || len(directory) == 0 {
		return
	}
	ledgerPath, writeError := service.dependencies.LedgerWriter.Write(directory, *ledger)
	if writeError != nil {
		service.logger.Warn(ledgerWriteFailedLogMessageConstant, zap.Error(writeError))
		return
	}
	service.logger.Debug(ledgerWrittenLogMessageConstant, zap.String(pathLogFieldNameConstant, ledgerPath))
}

func newStageError(stage Stage, cause error) StageError {
	stageError := StageError{Stage: stage, Cause: cause}
	var repositoryError shared.RepositoryError
	if errors.As(cause, &repositoryError) {
		stageError.Repository = repositoryError.Repository
		stageError.Cause = repositoryError.Cause
	}
	return stageError
}
