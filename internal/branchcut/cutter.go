package branchcut

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/releasecut/internal/execshell"
	"github.com/temirov/releasecut/internal/manifest"
	"github.com/temirov/releasecut/internal/shared"
	"github.com/temirov/releasecut/internal/workspace"
)

const (
	branchingHeaderMessageConstant             = "\nBranching repositories\n"
	branchingLineTemplateConstant              = "\tBranching %s\n"
	unableToContinueTemplateConstant           = "\t\t*** Unable to continue: exception branching %s ***\n"
	errorLineTemplateConstant                  = "%v\n"
	releaseBranchGoalConstant                  = "release:branch"
	branchNamePropertyTemplateConstant         = "-DbranchName=%s"
	developmentVersionPropertyTemplateConstant = "-DdevelopmentVersion=%s"
	connectionPropertyTemplateConstant         = "-Dscm.connection=%s"
	developerConnectionTemplateConstant        = "-Dscm.developerConnection=%s"
	mavenExecutorMissingMessageConstant        = "branch cutter maven executor not configured"
	developmentVersionRequiredMessageConstant  = "next mainline development version must be provided"
	branchErrorTemplateConstant                = "failed to cut branch %s: %w"
	branchedLogMessageConstant                 = "Cut release branch"
	repositoryLogFieldNameConstant             = "repository"
	branchLogFieldNameConstant                 = "branch"
)

var (
	// ErrMavenExecutorNotConfigured indicates the cutter was constructed without a Maven executor.
	ErrMavenExecutorNotConfigured = errors.New(mavenExecutorMissingMessageConstant)
	// ErrDevelopmentVersionRequired indicates the next mainline development version was empty.
	ErrDevelopmentVersionRequired = errors.New(developmentVersionRequiredMessageConstant)
)

// Options control how the cutter runs Maven.
type Options struct {
	NextMainlineVersion string
	// OutputSink receives Maven output while it runs. Nil keeps output silent.
	OutputSink io.Writer
}

// Cutter runs the release-branch goal per checkout.
type Cutter struct {
	maven    shared.MavenExecutor
	reporter shared.Reporter
	logger   *zap.Logger
}

// NewCutter constructs a Cutter.
func NewCutter(maven shared.MavenExecutor, reporter shared.Reporter, logger *zap.Logger) (*Cutter, error) {
	if maven == nil {
		return nil, ErrMavenExecutorNotConfigured
	}
	if reporter == nil {
		reporter = shared.NewWriterReporter(nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cutter{maven: maven, reporter: reporter, logger: logger}, nil
}

// Cut branches every manifest entry in order and returns the repositories branched so far.
// The first failure stops the run; branches already cut stay in place.
func (cutter *Cutter) Cut(executionContext context.Context, releaseManifest manifest.Manifest, preparedWorkspace workspace.Workspace, options Options) ([]string, error) {
	nextMainlineVersion := strings.TrimSpace(options.NextMainlineVersion)
	if len(nextMainlineVersion) == 0 {
		return nil, ErrDevelopmentVersionRequired
	}

	var branched []string
	cutter.reporter.Printf(branchingHeaderMessageConstant)
	for _, entry := range releaseManifest.Entries {
		cutter.reporter.Printf(branchingLineTemplateConstant, entry.Repository)
		scmConnection := releaseManifest.Review.SCMConnection(entry.Repository)
		_, branchError := cutter.maven.ExecuteMaven(executionContext, execshell.CommandDetails{
			Arguments: []string{
				releaseBranchGoalConstant,
				fmt.Sprintf(branchNamePropertyTemplateConstant, releaseManifest.BranchName),
				fmt.Sprintf(developmentVersionPropertyTemplateConstant, nextMainlineVersion),
				fmt.Sprintf(connectionPropertyTemplateConstant, scmConnection),
				fmt.Sprintf(developerConnectionTemplateConstant, scmConnection),
			},
			WorkingDirectory: preparedWorkspace.CheckoutPath(entry),
			OutputSink:       options.OutputSink,
		})
		if branchError != nil {
			cutter.reporter.Printf(unableToContinueTemplateConstant, entry.Repository)
			cutter.reporter.Printf(errorLineTemplateConstant, branchError)
			return branched, shared.RepositoryError{
				Repository: entry.Repository,
				Cause:      fmt.Errorf(branchErrorTemplateConstant, releaseManifest.BranchName, branchError),
			}
		}
		branched = append(branched, entry.Repository)
		cutter.logger.Debug(branchedLogMessageConstant, zap.String(repositoryLogFieldNameConstant, entry.Repository), zap.String(branchLogFieldNameConstant, releaseManifest.BranchName))
	}
	return branched, nil
}
