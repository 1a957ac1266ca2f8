package pipeline_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/releasecut/internal/pipeline"
)

func TestRequestNormalizedAppliesDefaults(testInstance *testing.T) {
	normalized := pipeline.Request{Version: " 0.22 ", JenkinsPassword: " secret "}.Normalized()
	require.Equal(testInstance, "0.22", normalized.Version)
	require.Equal(testInstance, " secret ", normalized.JenkinsPassword)
	require.Equal(testInstance, "./builds/", normalized.BuildDirectory)
}

func TestRequestValidate(testInstance *testing.T) {
	complete := pipeline.Request{
		JenkinsUsername:     "builder",
		JenkinsPassword:     "secret",
		ReviewUsername:      "releaser",
		Version:             "0.22",
		DevelopmentVersion:  "0.22.1-SNAPSHOT",
		NextMainlineVersion: "0.23-SNAPSHOT",
	}
	require.NoError(testInstance, complete.Validate())

	incomplete := complete
	incomplete.ReviewUsername = "  "
	validationError := incomplete.Validate()
	require.EqualError(testInstance, validationError, "missing required values: gerrit username")
}
