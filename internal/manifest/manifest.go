package manifest

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	branchNameTemplateConstant          = "%s.X"
	tagNameTemplateConstant             = "release-%s"
	jobNameTemplateConstant             = "%s-%s"
	cloneURLTemplateConstant            = "ssh://%s@%s:%d/%s"
	scmConnectionTemplateConstant       = "scm:git:%s"
	hookSourceTemplateConstant          = "%s@%s:hooks/commit-msg"
	versionRequiredMessageConstant      = "release version must be provided"
	usernameRequiredMessageConstant     = "review username must be provided"
	definitionsRequiredMessageConstant  = "at least one repository definition must be provided"
	reviewHostRequiredMessageConstant   = "review host must be provided"
	invalidReviewPortTemplateConstant   = "review port %d is out of range"
	definitionFieldTemplateConstant     = "repository definition %d: %s must be provided"
	duplicateRepositoryTemplateConstant = "repository %q is defined more than once"
	definitionNameFieldConstant         = "name"
	definitionRepositoryFieldConstant   = "repository"
	definitionJobPrefixFieldConstant    = "job_prefix"
	maximumPortNumberConstant           = 65535

	// DefaultReviewHostConstant is the Gerrit host serving every managed repository.
	DefaultReviewHostConstant = "review.motechproject.org"
	// DefaultReviewPortConstant is the Gerrit SSH port.
	DefaultReviewPortConstant = 29418
	// DefaultRootRepositoryNameConstant names the platform repository excluded from version bumps.
	DefaultRootRepositoryNameConstant = "Platform-IntegrationTests"
)

var (
	// ErrVersionRequired indicates the release version was empty.
	ErrVersionRequired = errors.New(versionRequiredMessageConstant)
	// ErrReviewUsernameRequired indicates the review-system username was empty.
	ErrReviewUsernameRequired = errors.New(usernameRequiredMessageConstant)
	// ErrDefinitionsRequired indicates no repositories were configured.
	ErrDefinitionsRequired = errors.New(definitionsRequiredMessageConstant)
)

// RepositoryDefinition is the static configuration of one managed repository.
type RepositoryDefinition struct {
	Name       string `mapstructure:"name"`
	Repository string `mapstructure:"repository"`
	JobPrefix  string `mapstructure:"job_prefix"`
}

// ReviewEndpoint identifies the code-review host all repositories are cloned from.
type ReviewEndpoint struct {
	Username string
	Host     string
	Port     int
}

// CloneURL returns the SSH clone URL for the repository key.
func (endpoint ReviewEndpoint) CloneURL(repository string) string {
	return fmt.Sprintf(cloneURLTemplateConstant, endpoint.Username, endpoint.Host, endpoint.Port, repository)
}

// SCMConnection returns the Maven SCM connection string for the repository key.
func (endpoint ReviewEndpoint) SCMConnection(repository string) string {
	return fmt.Sprintf(scmConnectionTemplateConstant, endpoint.CloneURL(repository))
}

// CommitHookSource returns the scp source of the server-provided commit-msg hook.
func (endpoint ReviewEndpoint) CommitHookSource() string {
	return fmt.Sprintf(hookSourceTemplateConstant, endpoint.Username, endpoint.Host)
}

// PortArgument renders the port for command-line use.
func (endpoint ReviewEndpoint) PortArgument() string {
	return strconv.Itoa(endpoint.Port)
}

// RepositoryEntry describes one repository taking part in the release.
type RepositoryEntry struct {
	Name       string
	CloneURL   string
	Repository string
	JobName    string
}

// Manifest is the ordered set of repositories and derived names for one release run.
type Manifest struct {
	Version            string
	BranchName         string
	TagName            string
	Review             ReviewEndpoint
	RootRepositoryName string
	Entries            []RepositoryEntry
}

// IsRoot reports whether the entry is the root repository skipped by version bumps.
func (manifest Manifest) IsRoot(entry RepositoryEntry) bool {
	return entry.Name == manifest.RootRepositoryName
}

// Options customize manifest construction.
type Options struct {
	Definitions        []RepositoryDefinition
	ReviewHost         string
	ReviewPort         int
	RootRepositoryName string
}

// DefaultRepositoryDefinitions lists the platform and modules repositories.
func DefaultRepositoryDefinitions() []RepositoryDefinition {
	return []RepositoryDefinition{
		{Name: DefaultRootRepositoryNameConstant, Repository: "motech", JobPrefix: "Platform"},
		{Name: "Modules", Repository: "modules", JobPrefix: "Modules"},
	}
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		Definitions:        DefaultRepositoryDefinitions(),
		ReviewHost:         DefaultReviewHostConstant,
		ReviewPort:         DefaultReviewPortConstant,
		RootRepositoryName: DefaultRootRepositoryNameConstant,
	}
}

// BranchName derives the maintenance branch name for a release version.
func BranchName(version string) string {
	return fmt.Sprintf(branchNameTemplateConstant, version)
}

// TagName derives the SCM tag for a release version.
func TagName(version string) string {
	return fmt.Sprintf(tagNameTemplateConstant, version)
}

// Build constructs the manifest for the release version. It performs no I/O.
func Build(version string, reviewUsername string, options Options) (Manifest, error) {
	trimmedVersion := strings.TrimSpace(version)
	if len(trimmedVersion) == 0 {
		return Manifest{}, ErrVersionRequired
	}

	trimmedUsername := strings.TrimSpace(reviewUsername)
	if len(trimmedUsername) == 0 {
		return Manifest{}, ErrReviewUsernameRequired
	}

	sanitizedOptions := options.withDefaults()
	if len(sanitizedOptions.Definitions) == 0 {
		return Manifest{}, ErrDefinitionsRequired
	}
	if len(sanitizedOptions.ReviewHost) == 0 {
		return Manifest{}, errors.New(reviewHostRequiredMessageConstant)
	}
	if sanitizedOptions.ReviewPort <= 0 || sanitizedOptions.ReviewPort > maximumPortNumberConstant {
		return Manifest{}, fmt.Errorf(invalidReviewPortTemplateConstant, sanitizedOptions.ReviewPort)
	}

	review := ReviewEndpoint{Username: trimmedUsername, Host: sanitizedOptions.ReviewHost, Port: sanitizedOptions.ReviewPort}
	branchName := BranchName(trimmedVersion)

	entries := make([]RepositoryEntry, 0, len(sanitizedOptions.Definitions))
	seenRepositories := make(map[string]struct{}, len(sanitizedOptions.Definitions))
	for definitionIndex, definition := range sanitizedOptions.Definitions {
		if validationError := validateDefinition(definitionIndex, definition); validationError != nil {
			return Manifest{}, validationError
		}
		if _, duplicate := seenRepositories[definition.Repository]; duplicate {
			return Manifest{}, fmt.Errorf(duplicateRepositoryTemplateConstant, definition.Repository)
		}
		seenRepositories[definition.Repository] = struct{}{}

		entries = append(entries, RepositoryEntry{
			Name:       definition.Name,
			CloneURL:   review.CloneURL(definition.Repository),
			Repository: definition.Repository,
			JobName:    fmt.Sprintf(jobNameTemplateConstant, definition.JobPrefix, branchName),
		})
	}

	return Manifest{
		Version:            trimmedVersion,
		BranchName:         branchName,
		TagName:            TagName(trimmedVersion),
		Review:             review,
		RootRepositoryName: sanitizedOptions.RootRepositoryName,
		Entries:            entries,
	}, nil
}

func (options Options) withDefaults() Options {
	sanitized := Options{
		ReviewHost:         strings.TrimSpace(options.ReviewHost),
		ReviewPort:         options.ReviewPort,
		RootRepositoryName: strings.TrimSpace(options.RootRepositoryName),
	}
	if len(sanitized.ReviewHost) == 0 {
		sanitized.ReviewHost = DefaultReviewHostConstant
	}
	if sanitized.ReviewPort == 0 {
		sanitized.ReviewPort = DefaultReviewPortConstant
	}
	if len(sanitized.RootRepositoryName) == 0 {
		sanitized.RootRepositoryName = DefaultRootRepositoryNameConstant
	}

	sanitized.Definitions = make([]RepositoryDefinition, 0, len(options.Definitions))
	for _, definition := range options.Definitions {
		sanitized.Definitions = append(sanitized.Definitions, RepositoryDefinition{
			Name:       strings.TrimSpace(definition.Name),
			Repository: strings.TrimSpace(definition.Repository),
			JobPrefix:  strings.TrimSpace(definition.JobPrefix),
		})
	}
	return sanitized
}

func validateDefinition(definitionIndex int, definition RepositoryDefinition) error {
	switch {
	case len(definition.Name) == 0:
		return fmt.Errorf(definitionFieldTemplateConstant, definitionIndex, definitionNameFieldConstant)
	case len(definition.Repository) == 0:
		return fmt.Errorf(definitionFieldTemplateConstant, definitionIndex, definitionRepositoryFieldConstant)
	case len(definition.JobPrefix) == 0:
		return fmt.Errorf(definitionFieldTemplateConstant, definitionIndex, definitionJobPrefixFieldConstant)
	default:
		return nil
	}
}
