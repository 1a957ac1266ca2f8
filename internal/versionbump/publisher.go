package versionbump

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/releasecut/internal/execshell"
	"github.com/temirov/releasecut/internal/manifest"
	"github.com/temirov/releasecut/internal/pom"
	"github.com/temirov/releasecut/internal/shared"
	"github.com/temirov/releasecut/internal/workspace"
)

const (
	// DefaultCommitMessageConstant is the message of the version bump commit.
	DefaultCommitMessageConstant = "Update to latest released version"
	// DefaultMainlineBranchConstant is the branch receiving the version bump.
	DefaultMainlineBranchConstant = "master"
	// DefaultRemoteNameConstant is the remote the bump is pushed to.
	DefaultRemoteNameConstant = "origin"

	updatingHeaderMessageConstant     = "\nUpdate MOTECH version for module repositories\n"
	updatingLineTemplateConstant      = "\tUpdating version for %s\n"
	publishingHeaderMessageConstant   = "\nCommit and push changes\n"
	publishingLineTemplateConstant    = "\tUpdating %s\n"
	gitCommitSubcommandConstant       = "commit"
	gitCommitAllMessageFlagConstant   = "-am"
	gitPushSubcommandConstant         = "push"
	directRefspecTemplateConstant     = "HEAD:refs/heads/%s"
	reviewRefspecTemplateConstant     = "HEAD:refs/for/%s"
	descriptorPermissionsConstant     = fs.FileMode(0o644)
	fileSystemMissingMessageConstant  = "version bump file system not configured"
	gitExecutorMissingMessageConstant = "version bump git executor not configured"
	versionRequiredMessageConstant    = "next mainline development version must be provided"
	readErrorTemplateConstant         = "failed to read %s: %w"
	rewriteErrorTemplateConstant      = "failed to update %s in %s: %w"
	writeErrorTemplateConstant        = "failed to write %s: %w"
	commitErrorTemplateConstant       = "failed to commit version update: %w"
	pushErrorTemplateConstant         = "failed to push %s: %w"
	updatedLogMessageConstant         = "Updated descriptor field"
	pushedLogMessageConstant          = "Pushed version update"
	repositoryLogFieldNameConstant    = "repository"
	fieldLogFieldNameConstant         = "field"
	previousValueLogFieldNameConstant = "previous_value"
	valueLogFieldNameConstant         = "value"
	refspecLogFieldNameConstant       = "refspec"
)

var (
	// ErrFileSystemNotConfigured indicates the publisher was constructed without a file system.
	ErrFileSystemNotConfigured = errors.New(fileSystemMissingMessageConstant)
	// ErrGitExecutorNotConfigured indicates the publisher was constructed without a git executor.
	ErrGitExecutorNotConfigured = errors.New(gitExecutorMissingMessageConstant)
	// ErrVersionRequired indicates the next mainline development version was empty.
	ErrVersionRequired = errors.New(versionRequiredMessageConstant)
)

// Options control the descriptor rewrite and the publication target.
type Options struct {
	NextMainlineVersion string
	DescriptorFile      string
	VersionField        string
	MainlineBranch      string
	CommitMessage       string
	// PublishThroughReview pushes to the review namespace instead of the branch itself.
	PublishThroughReview bool
}

func (options Options) withDefaults() Options {
	sanitized := Options{
		NextMainlineVersion:  strings.TrimSpace(options.NextMainlineVersion),
		DescriptorFile:       strings.TrimSpace(options.DescriptorFile),
		VersionField:         strings.TrimSpace(options.VersionField),
		MainlineBranch:       strings.TrimSpace(options.MainlineBranch),
		CommitMessage:        strings.TrimSpace(options.CommitMessage),
		PublishThroughReview: options.PublishThroughReview,
	}
	if len(sanitized.DescriptorFile) == 0 {
		sanitized.DescriptorFile = pom.DefaultFileNameConstant
	}
	if len(sanitized.VersionField) == 0 {
		sanitized.VersionField = pom.DefaultVersionFieldConstant
	}
	if len(sanitized.MainlineBranch) == 0 {
		sanitized.MainlineBranch = DefaultMainlineBranchConstant
	}
	if len(sanitized.CommitMessage) == 0 {
		sanitized.CommitMessage = DefaultCommitMessageConstant
	}
	return sanitized
}

// PushRefspec returns the refspec the version bump is pushed with.
func (options Options) PushRefspec() string {
	sanitized := options.withDefaults()
	if sanitized.PublishThroughReview {
		return fmt.Sprintf(reviewRefspecTemplateConstant, sanitized.MainlineBranch)
	}
	return fmt.Sprintf(directRefspecTemplateConstant, sanitized.MainlineBranch)
}

// Publisher updates and publishes the non-root checkouts.
type Publisher struct {
	fileSystem shared.FileSystem
	git        shared.GitExecutor
	reporter   shared.Reporter
	logger     *zap.Logger
}

// NewPublisher constructs a Publisher.
func NewPublisher(fileSystem shared.FileSystem, git shared.GitExecutor, reporter shared.Reporter, logger *zap.Logger) (*Publisher, error) {
	if fileSystem == nil {
		return nil, ErrFileSystemNotConfigured
	}
	if git == nil {
		return nil, ErrGitExecutorNotConfigured
	}
	if reporter == nil {
		reporter = shared.NewWriterReporter(nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{fileSystem: fileSystem, git: git, reporter: reporter, logger: logger}, nil
}

// Targets returns the entries the publisher touches: every entry except the root, in manifest order.
func Targets(releaseManifest manifest.Manifest) []manifest.RepositoryEntry {
	targets := make([]manifest.RepositoryEntry, 0, len(releaseManifest.Entries))
	for _, entry := range releaseManifest.Entries {
		if releaseManifest.IsRoot(entry) {
			continue
		}
		targets = append(targets, entry)
	}
	return targets
}

// Publish rewrites every target descriptor and then commits and pushes each target.
// It returns the repositories pushed before any failure; pushed commits are never reverted.
func (publisher *Publisher) Publish(executionContext context.Context, releaseManifest manifest.Manifest, preparedWorkspace workspace.Workspace, options Options) ([]string, error) {
	sanitizedOptions := options.withDefaults()
	if len(sanitizedOptions.NextMainlineVersion) == 0 {
		return nil, ErrVersionRequired
	}
	targets := Targets(releaseManifest)

	publisher.reporter.Printf(updatingHeaderMessageConstant)
	for _, entry := range targets {
		publisher.reporter.Printf(updatingLineTemplateConstant, entry.Repository)
		if updateError := publisher.updateDescriptor(preparedWorkspace.CheckoutPath(entry), entry, sanitizedOptions); updateError != nil {
			return nil, shared.RepositoryError{Repository: entry.Repository, Cause: updateError}
		}
	}

	var published []string
	refspec := sanitizedOptions.PushRefspec()
	publisher.reporter.Printf(publishingHeaderMessageConstant)
	for _, entry := range targets {
		publisher.reporter.Printf(publishingLineTemplateConstant, entry.Repository)
		if publishError := publisher.commitAndPush(executionContext, preparedWorkspace.CheckoutPath(entry), refspec, sanitizedOptions.CommitMessage); publishError != nil {
			return published, shared.RepositoryError{Repository: entry.Repository, Cause: publishError}
		}
		published = append(published, entry.Repository)
		publisher.logger.Info(pushedLogMessageConstant, zap.String(repositoryLogFieldNameConstant, entry.Repository), zap.String(refspecLogFieldNameConstant, refspec))
	}
	return published, nil
}

func (publisher *Publisher) updateDescriptor(checkoutPath string, entry manifest.RepositoryEntry, options Options) error {
	descriptorPath := filepath.Join(checkoutPath, options.DescriptorFile)
	content, readError := publisher.fileSystem.ReadFile(descriptorPath)
	if readError != nil {
		return fmt.Errorf(readErrorTemplateConstant, descriptorPath, readError)
	}

	previousValue, fieldError := pom.ReadField(content, options.VersionField)
	if fieldError != nil {
		return fmt.Errorf(rewriteErrorTemplateConstant, options.VersionField, descriptorPath, fieldError)
	}
	rewritten, rewriteError := pom.ReplaceField(content, options.VersionField, options.NextMainlineVersion)
	if rewriteError != nil {
		return fmt.Errorf(rewriteErrorTemplateConstant, options.VersionField, descriptorPath, rewriteError)
	}

	permissions := descriptorPermissionsConstant
	if descriptorInfo, statError := publisher.fileSystem.Stat(descriptorPath); statError == nil {
		permissions = descriptorInfo.Mode().Perm()
	}
	if writeError := publisher.fileSystem.WriteFile(descriptorPath, rewritten, permissions); writeError != nil {
		return fmt.Errorf(writeErrorTemplateConstant, descriptorPath, writeError)
	}
	publisher.logger.Debug(
		updatedLogMessageConstant,
		zap.String(repositoryLogFieldNameConstant, entry.Repository),
		zap.String(fieldLogFieldNameConstant, options.VersionField),
		zap.String(previousValueLogFieldNameConstant, previousValue),
		zap.String(valueLogFieldNameConstant, options.NextMainlineVersion),
	)
	return nil
}

func (publisher *Publisher) commitAndPush(executionContext context.Context, checkoutPath string, refspec string, commitMessage string) error {
	_, commitError := publisher.git.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitCommitSubcommandConstant, gitCommitAllMessageFlagConstant, commitMessage},
		WorkingDirectory: checkoutPath,
	})
	if commitError != nil {
		return fmt.Errorf(commitErrorTemplateConstant, commitError)
	}

	_, pushError := publisher.git.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitPushSubcommandConstant, DefaultRemoteNameConstant, refspec},
		WorkingDirectory: checkoutPath,
	})
	if pushError != nil {
		return fmt.Errorf(pushErrorTemplateConstant, refspec, pushError)
	}
	return nil
}
