package healthgate

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/temirov/releasecut/internal/jenkins"
	"github.com/temirov/releasecut/internal/manifest"
	"github.com/temirov/releasecut/internal/shared"
)

const (
	checkingHeaderMessageConstant    = "Checking build status\n"
	statusLineTemplateConstant       = "\t%s: %s\n"
	unableToContinueMessageConstant  = "\t\t*** Unable to continue: failed or in progress build ***\n"
	runningStatusLabelConstant       = "RUNNING"
	missingStatusLabelConstant       = "MISSING"
	noResultStatusLabelConstant      = "NONE"
	providerMissingMessageConstant   = "build status provider not configured"
	statusQueryErrorTemplateConstant = "failed to query build status for %s: %w"
	statusQueriedLogMessageConstant  = "Queried build status"
	defaultConcurrencyLimitConstant  = 1
	repositoryLogFieldNameConstant   = "repository"
	jobLogFieldNameConstant          = "job"
	buildNumberLogFieldNameConstant  = "build_number"
	healthLogFieldNameConstant       = "health"
	concurrencyLimitLogFieldConstant = "concurrency"
	checkStartedLogMessageConstant   = "Checking upstream build health"
)

// ErrBuildStatusProviderNotConfigured indicates the gate was constructed without a provider.
var ErrBuildStatusProviderNotConfigured = errors.New(providerMissingMessageConstant)

// Health classifies the latest build of a job.
type Health string

const (
	// HealthGood marks a finished, successful build.
	HealthGood Health = "good"
	// HealthBad marks a finished build with any result other than success.
	HealthBad Health = "bad"
	// HealthUnknown marks a build that is still running.
	HealthUnknown Health = "unknown"
	// HealthMissing marks a job that does not exist or has never built.
	HealthMissing Health = "missing"
)

// BuildStatusProvider reports the latest build of a named job.
type BuildStatusProvider interface {
	LatestBuildStatus(executionContext context.Context, jobName string) (jenkins.BuildStatus, error)
}

// Snapshot is the observed state of one repository's upstream job.
type Snapshot struct {
	RepositoryName string
	JobName        string
	BuildNumber    int
	Running        bool
	Result         string
	Health         Health
}

// StatusLabel renders the snapshot for operator output.
func (snapshot Snapshot) StatusLabel() string {
	switch snapshot.Health {
	case HealthMissing:
		return missingStatusLabelConstant
	case HealthUnknown:
		return runningStatusLabelConstant
	}
	if len(snapshot.Result) == 0 {
		return noResultStatusLabelConstant
	}
	return snapshot.Result
}

// Report collects snapshots in manifest order.
type Report struct {
	Snapshots []Snapshot
}

// AllGood reports whether every snapshot is good.
func (report Report) AllGood() bool {
	for _, snapshot := range report.Snapshots {
		if snapshot.Health != HealthGood {
			return false
		}
	}
	return true
}

// Unhealthy returns the snapshots that are not good.
func (report Report) Unhealthy() []Snapshot {
	var unhealthy []Snapshot
	for _, snapshot := range report.Snapshots {
		if snapshot.Health != HealthGood {
			unhealthy = append(unhealthy, snapshot)
		}
	}
	return unhealthy
}

// Classify maps a Jenkins build status onto a health value.
func Classify(status jenkins.BuildStatus) Health {
	switch {
	case !status.Found:
		return HealthMissing
	case status.Building:
		return HealthUnknown
	case status.Result == jenkins.SuccessfulResult:
		return HealthGood
	default:
		return HealthBad
	}
}

// Gate queries the upstream job of every manifest entry.
type Gate struct {
	provider         BuildStatusProvider
	reporter         shared.Reporter
	logger           *zap.Logger
	concurrencyLimit int
}

// NewGate constructs a Gate. A non-positive concurrency limit runs queries one at a time.
func NewGate(provider BuildStatusProvider, reporter shared.Reporter, logger *zap.Logger, concurrencyLimit int) (*Gate, error) {
	if provider == nil {
		return nil, ErrBuildStatusProviderNotConfigured
	}
	if reporter == nil {
		reporter = shared.NewWriterReporter(nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if concurrencyLimit < defaultConcurrencyLimitConstant {
		concurrencyLimit = defaultConcurrencyLimitConstant
	}
	return &Gate{provider: provider, reporter: reporter, logger: logger, concurrencyLimit: concurrencyLimit}, nil
}

// Check queries every entry's job by its display name and prints the results in manifest order.
// A transport or API failure aborts the check without printing partial results.
func (gate *Gate) Check(executionContext context.Context, releaseManifest manifest.Manifest) (Report, error) {
	gate.logger.Debug(checkStartedLogMessageConstant, zap.Int(concurrencyLimitLogFieldConstant, gate.concurrencyLimit))

	snapshots := make([]Snapshot, len(releaseManifest.Entries))
	group, groupContext := errgroup.WithContext(executionContext)
	group.SetLimit(gate.concurrencyLimit)

	for entryIndex, entry := range releaseManifest.Entries {
		group.Go(func() error {
			status, statusError := gate.provider.LatestBuildStatus(groupContext, entry.Name)
			if statusError != nil {
				return shared.RepositoryError{Repository: entry.Name, Cause: fmt.Errorf(statusQueryErrorTemplateConstant, entry.Name, statusError)}
			}
			snapshots[entryIndex] = newSnapshot(entry, status)
			gate.logger.Debug(
				statusQueriedLogMessageConstant,
				zap.String(repositoryLogFieldNameConstant, entry.Name),
				zap.String(jobLogFieldNameConstant, entry.Name),
				zap.Int(buildNumberLogFieldNameConstant, status.Number),
				zap.String(healthLogFieldNameConstant, string(snapshots[entryIndex].Health)),
			)
			return nil
		})
	}

	if waitError := group.Wait(); waitError != nil {
		return Report{}, waitError
	}

	gate.reporter.Printf(checkingHeaderMessageConstant)
	for _, snapshot := range snapshots {
		gate.reporter.Printf(statusLineTemplateConstant, snapshot.RepositoryName, snapshot.StatusLabel())
		if snapshot.Health != HealthGood {
			gate.reporter.Printf(unableToContinueMessageConstant)
		}
	}

	return Report{Snapshots: snapshots}, nil
}

func newSnapshot(entry manifest.RepositoryEntry, status jenkins.BuildStatus) Snapshot {
	return Snapshot{
		RepositoryName: entry.Name,
		JobName:        entry.Name,
		BuildNumber:    status.Number,
		Running:        status.Building,
		Result:         status.Result,
		Health:         Classify(status),
	}
}
