package shared

import (
	"context"
	"io/fs"

	"github.com/temirov/releasecut/internal/execshell"
)

// FileSystem exposes filesystem operations required by the release stages.
type FileSystem interface {
	Stat(path string) (fs.FileInfo, error)
	Abs(path string) (string, error)
	MkdirAll(path string, permissions fs.FileMode) error
	RemoveAll(path string) error
	ReadFile(path string) ([]byte, error)
	WriteFile(path string, data []byte, permissions fs.FileMode) error
	UserHomeDir() (string, error)
}

// GitExecutor runs git commands.
type GitExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// MavenExecutor runs Maven goals.
type MavenExecutor interface {
	ExecuteMaven(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// SecureCopyExecutor runs scp transfers.
type SecureCopyExecutor interface {
	ExecuteSecureCopy(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// RepositoryError attributes a stage failure to one repository.
type RepositoryError struct {
	Repository string
	Cause      error
}

// Error describes the failing repository and its cause.
func (repositoryError RepositoryError) Error() string {
	return repositoryError.Repository + ": " + repositoryError.Cause.Error()
}

// Unwrap exposes the underlying cause.
func (repositoryError RepositoryError) Unwrap() error {
	return repositoryError.Cause
}
