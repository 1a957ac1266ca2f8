package filesystem_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/releasecut/internal/filesystem"
	"github.com/temirov/releasecut/internal/shared"
)

var _ shared.FileSystem = filesystem.OSFileSystem{}

func TestOSFileSystemRoundTrip(testInstance *testing.T) {
	fileSystem := filesystem.OSFileSystem{}
	rootDirectory := testInstance.TempDir()
	nestedDirectory := filepath.Join(rootDirectory, "builds", "modules")

	require.NoError(testInstance, fileSystem.MkdirAll(nestedDirectory, 0o755))
	filePath := filepath.Join(nestedDirectory, "pom.xml")
	require.NoError(testInstance, fileSystem.WriteFile(filePath, []byte("<project/>"), 0o644))

	content, readError := fileSystem.ReadFile(filePath)
	require.NoError(testInstance, readError)
	require.Equal(testInstance, "<project/>", string(content))

	require.NoError(testInstance, fileSystem.RemoveAll(filepath.Join(rootDirectory, "builds")))
	_, statError := fileSystem.Stat(nestedDirectory)
	require.True(testInstance, os.IsNotExist(statError))
}
