package workspace

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/releasecut/internal/execshell"
	"github.com/temirov/releasecut/internal/manifest"
	"github.com/temirov/releasecut/internal/shared"
)

const (
	checkingOutHeaderMessageConstant   = "\nChecking out repositories\n"
	cloningLineTemplateConstant        = "\tCloning %s\n"
	unableToContinueTemplateConstant   = "\t\t*** Unable to continue: exception pulling %s ***\n"
	errorLineTemplateConstant          = "%v\n"
	gitCloneSubcommandConstant         = "clone"
	gitConfigSubcommandConstant        = "config"
	pushRefspecKeyConstant             = "remote.origin.push"
	reviewRedirectRefspecConstant      = "refs/heads/*:refs/for/*"
	preserveAttributesFlagConstant     = "-p"
	portFlagConstant                   = "-P"
	hookDestinationConstant            = ".git/hooks/"
	directoryPermissionsConstant       = 0o755
	buildDirectoryRequiredConstant     = "build directory must be provided"
	fileSystemMissingMessageConstant   = "workspace file system not configured"
	gitExecutorMissingMessageConstant  = "workspace git executor not configured"
	copyExecutorMissingMessageConstant = "workspace secure copy executor not configured"
	unsafeDirectoryMessageConstant     = "refusing to replace protected directory"
	unsafeDirectoryTemplateConstant    = "%w: %s"
	resolveErrorTemplateConstant       = "failed to resolve build directory %s: %w"
	removeErrorTemplateConstant        = "failed to remove build directory %s: %w"
	createErrorTemplateConstant        = "failed to create build directory %s: %w"
	cloneErrorTemplateConstant         = "failed to clone %s: %w"
	configureErrorTemplateConstant     = "failed to configure review redirect: %w"
	hookErrorTemplateConstant          = "failed to install commit-msg hook: %w"
	replacingLogMessageConstant        = "Replacing existing build directory"
	preparedLogMessageConstant         = "Prepared checkout"
	workingDirectoryPathConstant       = "."
	parentDirectoryConstant            = ".."
	directoryLogFieldNameConstant      = "directory"
	repositoryLogFieldNameConstant     = "repository"
)

var (
	// ErrBuildDirectoryRequired indicates an empty build directory.
	ErrBuildDirectoryRequired = errors.New(buildDirectoryRequiredConstant)
	// ErrUnsafeBuildDirectory indicates the build directory is, or contains, the filesystem root, the home
	// directory, the working directory or a protected directory.
	ErrUnsafeBuildDirectory = errors.New(unsafeDirectoryMessageConstant)
	// ErrFileSystemNotConfigured indicates the preparer was constructed without a file system.
	ErrFileSystemNotConfigured = errors.New(fileSystemMissingMessageConstant)
	// ErrGitExecutorNotConfigured indicates the preparer was constructed without a git executor.
	ErrGitExecutorNotConfigured = errors.New(gitExecutorMissingMessageConstant)
	// ErrSecureCopyExecutorNotConfigured indicates the preparer was constructed without an scp executor.
	ErrSecureCopyExecutorNotConfigured = errors.New(copyExecutorMissingMessageConstant)
)

// Workspace is the build directory and the checkouts created inside it.
type Workspace struct {
	Root      string
	Checkouts []string
}

// CheckoutPath returns the checkout directory of the entry.
func (workspace Workspace) CheckoutPath(entry manifest.RepositoryEntry) string {
	return filepath.Join(workspace.Root, entry.Repository)
}

// Preparer creates the workspace.
type Preparer struct {
	fileSystem shared.FileSystem
	git        shared.GitExecutor
	secureCopy shared.SecureCopyExecutor
	reporter   shared.Reporter
	logger     *zap.Logger
	protected  []string
}

// ProtectDirectories adds directories the build directory must never equal or contain,
// such as the job templates read after the workspace is replaced.
func (preparer *Preparer) ProtectDirectories(directories ...string) *Preparer {
	for _, directory := range directories {
		if len(strings.TrimSpace(directory)) > 0 {
			preparer.protected = append(preparer.protected, directory)
		}
	}
	return preparer
}

// NewPreparer constructs a Preparer.
func NewPreparer(fileSystem shared.FileSystem, git shared.GitExecutor, secureCopy shared.SecureCopyExecutor, reporter shared.Reporter, logger *zap.Logger) (*Preparer, error) {
	if fileSystem == nil {
		return nil, ErrFileSystemNotConfigured
	}
	if git == nil {
		return nil, ErrGitExecutorNotConfigured
	}
	if secureCopy == nil {
		return nil, ErrSecureCopyExecutorNotConfigured
	}
	if reporter == nil {
		reporter = shared.NewWriterReporter(nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Preparer{fileSystem: fileSystem, git: git, secureCopy: secureCopy, reporter: reporter, logger: logger}, nil
}

// Prepare replaces the build directory and clones every manifest entry into it.
// On failure the returned Workspace lists the checkouts completed so far; they stay on disk.
func (preparer *Preparer) Prepare(executionContext context.Context, buildDirectory string, releaseManifest manifest.Manifest) (Workspace, error) {
	rootDirectory, resolveError := preparer.resolveRoot(buildDirectory)
	if resolveError != nil {
		return Workspace{}, resolveError
	}

	if _, statError := preparer.fileSystem.Stat(rootDirectory); statError == nil {
		preparer.logger.Info(replacingLogMessageConstant, zap.String(directoryLogFieldNameConstant, rootDirectory))
		if removeError := preparer.fileSystem.RemoveAll(rootDirectory); removeError != nil {
			return Workspace{}, fmt.Errorf(removeErrorTemplateConstant, rootDirectory, removeError)
		}
	}
	if createError := preparer.fileSystem.MkdirAll(rootDirectory, directoryPermissionsConstant); createError != nil {
		return Workspace{}, fmt.Errorf(createErrorTemplateConstant, rootDirectory, createError)
	}

	workspace := Workspace{Root: rootDirectory}
	preparer.reporter.Printf(checkingOutHeaderMessageConstant)
	for _, entry := range releaseManifest.Entries {
		preparer.reporter.Printf(cloningLineTemplateConstant, entry.Name)
		if checkoutError := preparer.checkout(executionContext, workspace, releaseManifest.Review, entry); checkoutError != nil {
			preparer.reporter.Printf(unableToContinueTemplateConstant, entry.Repository)
			preparer.reporter.Printf(errorLineTemplateConstant, checkoutError)
			return workspace, shared.RepositoryError{Repository: entry.Repository, Cause: checkoutError}
		}
		workspace.Checkouts = append(workspace.Checkouts, workspace.CheckoutPath(entry))
		preparer.logger.Debug(preparedLogMessageConstant, zap.String(repositoryLogFieldNameConstant, entry.Repository))
	}

	return workspace, nil
}

func (preparer *Preparer) resolveRoot(buildDirectory string) (string, error) {
	if len(buildDirectory) == 0 {
		return "", ErrBuildDirectoryRequired
	}
	absoluteDirectory, absError := preparer.fileSystem.Abs(buildDirectory)
	if absError != nil {
		return "", fmt.Errorf(resolveErrorTemplateConstant, buildDirectory, absError)
	}
	absoluteDirectory = filepath.Clean(absoluteDirectory)

	if absoluteDirectory == filepath.Dir(absoluteDirectory) {
		return "", fmt.Errorf(unsafeDirectoryTemplateConstant, ErrUnsafeBuildDirectory, absoluteDirectory)
	}
	for _, protectedDirectory := range preparer.protectedDirectories() {
		if containsDirectory(absoluteDirectory, protectedDirectory) {
			return "", fmt.Errorf(unsafeDirectoryTemplateConstant, ErrUnsafeBuildDirectory, absoluteDirectory)
		}
	}
	return absoluteDirectory, nil
}

func (preparer *Preparer) protectedDirectories() []string {
	var directories []string
	if workingDirectory, workingDirectoryError := preparer.fileSystem.Abs(workingDirectoryPathConstant); workingDirectoryError == nil {
		directories = append(directories, workingDirectory)
	}
	if homeDirectory, homeError := preparer.fileSystem.UserHomeDir(); homeError == nil && len(homeDirectory) > 0 {
		directories = append(directories, homeDirectory)
	}
	for _, protectedDirectory := range preparer.protected {
		if absoluteProtected, absError := preparer.fileSystem.Abs(protectedDirectory); absError == nil {
			directories = append(directories, absoluteProtected)
		}
	}
	return directories
}

// containsDirectory reports whether candidate is parent itself or lies beneath it.
func containsDirectory(parent string, candidate string) bool {
	relativePath, relativeError := filepath.Rel(parent, filepath.Clean(candidate))
	if relativeError != nil {
		return false
	}
	return relativePath != parentDirectoryConstant && !strings.HasPrefix(relativePath, parentDirectoryConstant+string(filepath.Separator))
}

func (preparer *Preparer) checkout(executionContext context.Context, workspace Workspace, review manifest.ReviewEndpoint, entry manifest.RepositoryEntry) error {
	_, cloneError := preparer.git.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitCloneSubcommandConstant, entry.CloneURL, entry.Repository},
		WorkingDirectory: workspace.Root,
	})
	if cloneError != nil {
		return fmt.Errorf(cloneErrorTemplateConstant, entry.CloneURL, cloneError)
	}

	checkoutPath := workspace.CheckoutPath(entry)
	_, configError := preparer.git.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitConfigSubcommandConstant, pushRefspecKeyConstant, reviewRedirectRefspecConstant},
		WorkingDirectory: checkoutPath,
	})
	if configError != nil {
		return fmt.Errorf(configureErrorTemplateConstant, configError)
	}

	_, copyError := preparer.secureCopy.ExecuteSecureCopy(executionContext, execshell.CommandDetails{
		Arguments:        []string{preserveAttributesFlagConstant, portFlagConstant, review.PortArgument(), review.CommitHookSource(), hookDestinationConstant},
		WorkingDirectory: checkoutPath,
	})
	if copyError != nil {
		return fmt.Errorf(hookErrorTemplateConstant, copyError)
	}
	return nil
}
