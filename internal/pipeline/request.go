package pipeline

import "strings"

const (
	// DefaultBuildDirectoryConstant is the workspace used when none is requested.
	DefaultBuildDirectoryConstant = "./builds/"

	missingValuesPrefixConstant      = "missing required values: "
	missingValuesSeparatorConstant   = ", "
	jenkinsUsernameFieldConstant     = "jenkins username"
	jenkinsPasswordFieldConstant     = "jenkins password"
	reviewUsernameFieldConstant      = "gerrit username"
	versionFieldConstant             = "version"
	developmentVersionFieldConstant  = "development version"
	nextMainlineVersionFieldConstant = "next master version"
)

// Request carries the operator-supplied parameters of one release run.
type Request struct {
	JenkinsUsername     string
	JenkinsPassword     string
	ReviewUsername      string
	Version             string
	DevelopmentVersion  string
	NextMainlineVersion string
	BuildDirectory      string
	Verbose             bool
}

// MissingValuesError lists every required value that was not supplied.
type MissingValuesError struct {
	Fields []string
}

// Error lists the missing values.
func (missingValuesError MissingValuesError) Error() string {
	return missingValuesPrefixConstant + strings.Join(missingValuesError.Fields, missingValuesSeparatorConstant)
}

// Normalized trims every value and applies the default build directory.
func (request Request) Normalized() Request {
	normalized := Request{
		JenkinsUsername:     strings.TrimSpace(request.JenkinsUsername),
		JenkinsPassword:     request.JenkinsPassword,
		ReviewUsername:      strings.TrimSpace(request.ReviewUsername),
		Version:             strings.TrimSpace(request.Version),
		DevelopmentVersion:  strings.TrimSpace(request.DevelopmentVersion),
		NextMainlineVersion: strings.TrimSpace(request.NextMainlineVersion),
		BuildDirectory:      strings.TrimSpace(request.BuildDirectory),
		Verbose:             request.Verbose,
	}
	if len(normalized.BuildDirectory) == 0 {
		normalized.BuildDirectory = DefaultBuildDirectoryConstant
	}
	return normalized
}

// Validate returns a MissingValuesError naming every empty required value.
func (request Request) Validate() error {
	normalized := request.Normalized()
	var missing []string
	for _, field := range []struct {
		name  string
		value string
	}{
		{name: jenkinsUsernameFieldConstant, value: normalized.JenkinsUsername},
		{name: jenkinsPasswordFieldConstant, value: normalized.JenkinsPassword},
		{name: reviewUsernameFieldConstant, value: normalized.ReviewUsername},
		{name: versionFieldConstant, value: normalized.Version},
		{name: developmentVersionFieldConstant, value: normalized.DevelopmentVersion},
		{name: nextMainlineVersionFieldConstant, value: normalized.NextMainlineVersion},
	} {
		if len(field.value) == 0 {
			missing = append(missing, field.name)
		}
	}
	if len(missing) > 0 {
		return MissingValuesError{Fields: missing}
	}
	return nil
}
