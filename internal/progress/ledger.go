package progress

import (
	"errors"
	"fmt"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/temirov/releasecut/internal/shared"
)

const (
	// FileNameConstant is the ledger file written into the build directory.
	FileNameConstant = "release-progress.yaml"

	ledgerPermissionsConstant        = 0o644
	fileSystemMissingMessageConstant = "progress file system not configured"
	encodeErrorTemplateConstant      = "failed to encode progress ledger: %w"
	writeErrorTemplateConstant       = "failed to write progress ledger %s: %w"
)

// ErrFileSystemNotConfigured indicates the writer was constructed without a file system.
var ErrFileSystemNotConfigured = errors.New(fileSystemMissingMessageConstant)

// Stage names a recorded release stage.
type Stage string

// Stages recorded in the ledger, in execution order.
const (
	StageWorkspace   Stage = "workspace"
	StageBranchCut   Stage = "branch_cut"
	StageVersionBump Stage = "version_bump"
	StageJobs        Stage = "jobs"
)

// StageRecord is the outcome of one stage.
type StageRecord struct {
	Stage            Stage    `yaml:"stage"`
	Completed        []string `yaml:"completed,omitempty"`
	FailedRepository string   `yaml:"failed_repository,omitempty"`
	Error            string   `yaml:"error,omitempty"`
}

// Succeeded reports whether the stage finished without error.
func (record StageRecord) Succeeded() bool {
	return len(record.Error) == 0
}

// Ledger is the persisted progress of one release run.
type Ledger struct {
	Version    string        `yaml:"version"`
	BranchName string        `yaml:"branch"`
	Stages     []StageRecord `yaml:"stages"`
}

// Record appends the outcome of a stage. The failing repository is taken from a shared.RepositoryError when present.
func (ledger *Ledger) Record(stage Stage, completed []string, failure error) StageRecord {
	record := StageRecord{Stage: stage, Completed: append([]string(nil), completed...)}
	if failure != nil {
		record.Error = failure.Error()
		var repositoryError shared.RepositoryError
		if errors.As(failure, &repositoryError) {
			record.FailedRepository = repositoryError.Repository
		}
	}
	ledger.Stages = append(ledger.Stages, record)
	return record
}

// Writer persists ledgers.
type Writer struct {
	fileSystem shared.FileSystem
}

// NewWriter constructs a Writer.
func NewWriter(fileSystem shared.FileSystem) (*Writer, error) {
	if fileSystem == nil {
		return nil, ErrFileSystemNotConfigured
	}
	return &Writer{fileSystem: fileSystem}, nil
}

// Write replaces the ledger file inside directory and returns its path.
func (writer *Writer) Write(directory string, ledger Ledger) (string, error) {
	encoded, encodeError := yaml.Marshal(ledger)
	if encodeError != nil {
		return "", fmt.Errorf(encodeErrorTemplateConstant, encodeError)
	}
	ledgerPath := filepath.Join(directory, FileNameConstant)
	if writeError := writer.fileSystem.WriteFile(ledgerPath, encoded, ledgerPermissionsConstant); writeError != nil {
		return "", fmt.Errorf(writeErrorTemplateConstant, ledgerPath, writeError)
	}
	return ledgerPath, nil
}
