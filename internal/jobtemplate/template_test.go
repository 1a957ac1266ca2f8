package jobtemplate_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/releasecut/internal/jobtemplate"
)

const jobTemplateFixtureConstant = `<project>
  <scm class="hudson.plugins.git.GitSCM">
    <branches><hudson.plugins.git.BranchSpec><name>${branchName}</name></hudson.plugins.git.BranchSpec></branches>
  </scm>
  <goals>release:prepare -DreleaseVersion=${version} -DdevelopmentVersion=${developmentVersion} -Dtag=${scmTag}</goals>
  <description>Built from ${branchName}</description>
  <env>${JENKINS_HOME}</env>
</project>
`

func testParameters() jobtemplate.Parameters {
	return jobtemplate.Parameters{
		BranchName:         "0.22.X",
		Version:            "0.22",
		DevelopmentVersion: "0.22.1-SNAPSHOT",
		SCMTag:             "release-0.22",
	}
}

func TestRenderSubstitutesEveryPlaceholder(testInstance *testing.T) {
	rendered, renderError := jobtemplate.Render(jobTemplateFixtureConstant, testParameters())
	require.NoError(testInstance, renderError)

	for _, placeholder := range jobtemplate.Placeholders() {
		require.NotContains(testInstance, rendered, placeholder)
	}
	require.Contains(testInstance, rendered, "<name>0.22.X</name>")
	require.Contains(testInstance, rendered, "-DreleaseVersion=0.22 -DdevelopmentVersion=0.22.1-SNAPSHOT -Dtag=release-0.22")
	require.Contains(testInstance, rendered, "<description>Built from 0.22.X</description>")
}

func TestRenderLeavesUnknownPlaceholders(testInstance *testing.T) {
	rendered, renderError := jobtemplate.Render(jobTemplateFixtureConstant, testParameters())
	require.NoError(testInstance, renderError)
	require.Contains(testInstance, rendered, "<env>${JENKINS_HOME}</env>")
}

func TestRenderWithoutPlaceholdersIsIdentity(testInstance *testing.T) {
	rendered, renderError := jobtemplate.Render("<project/>", testParameters())
	require.NoError(testInstance, renderError)
	require.Equal(testInstance, "<project/>", rendered)
}

func TestRenderRequiresEveryParameter(testInstance *testing.T) {
	testCases := []struct {
		name          string
		mutate        func(parameters *jobtemplate.Parameters)
		expectedField string
	}{
		{name: "branch_name", mutate: func(parameters *jobtemplate.Parameters) { parameters.BranchName = "" }, expectedField: "branchName"},
		{name: "version", mutate: func(parameters *jobtemplate.Parameters) { parameters.Version = " " }, expectedField: "version"},
		{name: "development_version", mutate: func(parameters *jobtemplate.Parameters) { parameters.DevelopmentVersion = "" }, expectedField: "developmentVersion"},
		{name: "scm_tag", mutate: func(parameters *jobtemplate.Parameters) { parameters.SCMTag = "" }, expectedField: "scmTag"},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			parameters := testParameters()
			testCase.mutate(&parameters)

			_, renderError := jobtemplate.Render(jobTemplateFixtureConstant, parameters)
			require.ErrorIs(testInstance, renderError, jobtemplate.ErrParameterRequired)
			require.True(testInstance, strings.HasSuffix(renderError.Error(), ": "+testCase.expectedField))
		})
	}
}
