package progress_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/temirov/releasecut/internal/filesystem"
	"github.com/temirov/releasecut/internal/progress"
	"github.com/temirov/releasecut/internal/shared"
)

func TestLedgerRecordsFailingRepository(testInstance *testing.T) {
	ledger := progress.Ledger{Version: "0.22", BranchName: "0.22.X"}

	ledger.Record(progress.StageWorkspace, []string{"motech", "modules"}, nil)
	failure := shared.RepositoryError{Repository: "modules", Cause: errors.New("exit code 1")}
	record := ledger.Record(progress.StageBranchCut, []string{"motech"}, failure)

	require.False(testInstance, record.Succeeded())
	require.Equal(testInstance, "modules", record.FailedRepository)
	require.Equal(testInstance, "modules: exit code 1", record.Error)
	require.True(testInstance, ledger.Stages[0].Succeeded())
	require.Len(testInstance, ledger.Stages, 2)
}

func TestLedgerRecordWithoutRepositoryError(testInstance *testing.T) {
	ledger := progress.Ledger{}
	record := ledger.Record(progress.StageJobs, nil, errors.New("template parameter must be provided: scmTag"))
	require.Empty(testInstance, record.FailedRepository)
	require.Equal(testInstance, "template parameter must be provided: scmTag", record.Error)
}

func TestWriterPersistsYAML(testInstance *testing.T) {
	directory := testInstance.TempDir()
	writer, writerError := progress.NewWriter(filesystem.OSFileSystem{})
	require.NoError(testInstance, writerError)

	ledger := progress.Ledger{Version: "0.22", BranchName: "0.22.X"}
	ledger.Record(progress.StageWorkspace, []string{"motech", "modules"}, nil)
	ledger.Record(progress.StageBranchCut, []string{"motech"}, shared.RepositoryError{Repository: "modules", Cause: errors.New("boom")})

	ledgerPath, writeError := writer.Write(directory, ledger)
	require.NoError(testInstance, writeError)
	require.Equal(testInstance, filepath.Join(directory, progress.FileNameConstant), ledgerPath)

	content, readError := os.ReadFile(ledgerPath)
	require.NoError(testInstance, readError)

	var decoded progress.Ledger
	require.NoError(testInstance, yaml.Unmarshal(content, &decoded))
	require.Equal(testInstance, ledger, decoded)
	require.Contains(testInstance, string(content), "failed_repository: modules")
}

func TestNewWriterRequiresFileSystem(testInstance *testing.T) {
	_, writerError := progress.NewWriter(nil)
	require.ErrorIs(testInstance, writerError, progress.ErrFileSystemNotConfigured)
}
