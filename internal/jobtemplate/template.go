package jobtemplate

import (
	"errors"
	"fmt"
	"strings"
)

const (
	branchNamePlaceholderConstant         = "${branchName}"
	versionPlaceholderConstant            = "${version}"
	developmentVersionPlaceholderConstant = "${developmentVersion}"
	scmTagPlaceholderConstant             = "${scmTag}"
	parameterRequiredMessageConstant      = "template parameter must be provided"
	parameterErrorTemplateConstant        = "%w: %s"
	branchNameParameterConstant           = "branchName"
	versionParameterConstant              = "version"
	developmentVersionParameterConstant   = "developmentVersion"
	scmTagParameterConstant               = "scmTag"
)

// ErrParameterRequired indicates a template parameter was empty.
var ErrParameterRequired = errors.New(parameterRequiredMessageConstant)

// Parameters are the values substituted into a job template.
type Parameters struct {
	BranchName         string
	Version            string
	DevelopmentVersion string
	SCMTag             string
}

// Validate reports the first empty parameter.
func (parameters Parameters) Validate() error {
	for _, parameter := range []struct {
		name  string
		value string
	}{
		{name: branchNameParameterConstant, value: parameters.BranchName},
		{name: versionParameterConstant, value: parameters.Version},
		{name: developmentVersionParameterConstant, value: parameters.DevelopmentVersion},
		{name: scmTagParameterConstant, value: parameters.SCMTag},
	} {
		if len(strings.TrimSpace(parameter.value)) == 0 {
			return fmt.Errorf(parameterErrorTemplateConstant, ErrParameterRequired, parameter.name)
		}
	}
	return nil
}

// Placeholders lists the tokens Render replaces.
func Placeholders() []string {
	return []string{
		branchNamePlaceholderConstant,
		versionPlaceholderConstant,
		developmentVersionPlaceholderConstant,
		scmTagPlaceholderConstant,
	}
}

// Render replaces every known placeholder in the template. Other ${...} sequences are left untouched.
func Render(template string, parameters Parameters) (string, error) {
	if validationError := parameters.Validate(); validationError != nil {
		return "", validationError
	}
	replacer := strings.NewReplacer(
		branchNamePlaceholderConstant, parameters.BranchName,
		versionPlaceholderConstant, parameters.Version,
		developmentVersionPlaceholderConstant, parameters.DevelopmentVersion,
		scmTagPlaceholderConstant, parameters.SCMTag,
	)
	return replacer.Replace(template), nil
}
