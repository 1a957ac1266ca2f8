package cli

import (
	"time"

	"github.com/temirov/releasecut/internal/jobs"
	"github.com/temirov/releasecut/internal/manifest"
	"github.com/temirov/releasecut/internal/pipeline"
	"github.com/temirov/releasecut/internal/pom"
	"github.com/temirov/releasecut/internal/versionbump"
)

const (
	defaultJenkinsBaseURLConstant         = "http://ci.motechproject.org"
	defaultHealthCheckConcurrencyConstant = 1
	configurationKeySeparatorConstant     = "."
)

// ReleaseConfiguration holds the settings of the release pipeline.
type ReleaseConfiguration struct {
	Jenkins                JenkinsConfiguration            `mapstructure:"jenkins"`
	Review                 ReviewConfiguration             `mapstructure:"review"`
	BuildDirectory         string                          `mapstructure:"build_directory"`
	TemplatesDirectory     string                          `mapstructure:"templates_directory"`
	DescriptorFile         string                          `mapstructure:"descriptor_file"`
	VersionField           string                          `mapstructure:"version_field"`
	MainlineBranch         string                          `mapstructure:"mainline_branch"`
	CommitMessage          string                          `mapstructure:"commit_message"`
	PublishThroughReview   bool                            `mapstructure:"publish_through_review"`
	HealthCheckConcurrency int                             `mapstructure:"health_check_concurrency"`
	RootRepository         string                          `mapstructure:"root_repository"`
	Repositories           []manifest.RepositoryDefinition `mapstructure:"repositories"`
}

// JenkinsConfiguration identifies the Jenkins server.
type JenkinsConfiguration struct {
	BaseURL        string        `mapstructure:"base_url"`
	Username       string        `mapstructure:"username"`
	Password       string        `mapstructure:"password"`
	ReleasesView   string        `mapstructure:"releases_view"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// ReviewConfiguration identifies the Gerrit server.
type ReviewConfiguration struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
}

// DefaultReleaseConfigurationValues returns the release defaults keyed beneath prefix.
func DefaultReleaseConfigurationValues(prefix string) map[string]any {
	values := map[string]any{
		"jenkins.base_url":         defaultJenkinsBaseURLConstant,
		"jenkins.username":         "",
		"jenkins.password":         "",
		"jenkins.releases_view":    jobs.DefaultReleasesViewConstant,
		"jenkins.request_timeout":  time.Duration(0),
		"review.host":              manifest.DefaultReviewHostConstant,
		"review.port":              manifest.DefaultReviewPortConstant,
		"review.username":          "",
		"build_directory":          pipeline.DefaultBuildDirectoryConstant,
		"templates_directory":      jobs.DefaultTemplatesDirectoryConstant,
		"descriptor_file":          pom.DefaultFileNameConstant,
		"version_field":            pom.DefaultVersionFieldConstant,
		"mainline_branch":          versionbump.DefaultMainlineBranchConstant,
		"commit_message":           versionbump.DefaultCommitMessageConstant,
		"publish_through_review":   false,
		"health_check_concurrency": defaultHealthCheckConcurrencyConstant,
		"root_repository":          manifest.DefaultRootRepositoryNameConstant,
	}
	if len(prefix) == 0 {
		return values
	}

	prefixedValues := make(map[string]any, len(values))
	for key, value := range values {
		prefixedValues[prefix+configurationKeySeparatorConstant+key] = value
	}
	return prefixedValues
}

func (configuration ReleaseConfiguration) manifestOptions() manifest.Options {
	definitions := configuration.Repositories
	if len(definitions) == 0 {
		definitions = manifest.DefaultRepositoryDefinitions()
	}
	return manifest.Options{
		Definitions:        definitions,
		ReviewHost:         configuration.Review.Host,
		ReviewPort:         configuration.Review.Port,
		RootRepositoryName: configuration.RootRepository,
	}
}
