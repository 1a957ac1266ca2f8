package jobs

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/releasecut/internal/jobtemplate"
	"github.com/temirov/releasecut/internal/manifest"
	"github.com/temirov/releasecut/internal/shared"
)

const (
	// DefaultTemplatesDirectoryConstant holds one <repository>/config.xml template per repository.
	DefaultTemplatesDirectoryConstant = "build-configs"
	// DefaultReleasesViewConstant is the Jenkins view new jobs are added to.
	DefaultReleasesViewConstant = "Releases"

	templateFileNameConstant          = "config.xml"
	creatingHeaderMessageConstant     = "\nCreating Jenkins jobs\n"
	creatingLineTemplateConstant      = "\tCreating %s\n"
	unableToContinueTemplateConstant  = "\t\t*** Unable to continue: exception creating job %s ***\n"
	errorLineTemplateConstant         = "%v\n"
	fileSystemMissingMessageConstant  = "job registrar file system not configured"
	clientMissingMessageConstant      = "job registrar Jenkins client not configured"
	readTemplateErrorTemplateConstant = "failed to read job template %s: %w"
	renderErrorTemplateConstant       = "failed to render job template %s: %w"
	registeredLogMessageConstant      = "Registered Jenkins job"
	jobLogFieldNameConstant           = "job"
	viewLogFieldNameConstant          = "view"
	templateLogFieldNameConstant      = "template"
)

var (
	// ErrFileSystemNotConfigured indicates the registrar was constructed without a file system.
	ErrFileSystemNotConfigured = errors.New(fileSystemMissingMessageConstant)
	// ErrJobClientNotConfigured indicates the registrar was constructed without a Jenkins client.
	ErrJobClientNotConfigured = errors.New(clientMissingMessageConstant)
)

// JobClient creates jobs and attaches them to views.
type JobClient interface {
	CreateJob(executionContext context.Context, jobName string, configurationXML string) error
	AddJobToView(executionContext context.Context, viewName string, jobName string) error
}

// Options locate the templates and name the view.
type Options struct {
	TemplatesDirectory string
	ViewName           string
	Parameters         jobtemplate.Parameters
}

// TemplatePath returns the template location for the entry.
func (options Options) TemplatePath(entry manifest.RepositoryEntry) string {
	templatesDirectory := strings.TrimSpace(options.TemplatesDirectory)
	if len(templatesDirectory) == 0 {
		templatesDirectory = DefaultTemplatesDirectoryConstant
	}
	return filepath.Join(templatesDirectory, entry.Repository, templateFileNameConstant)
}

func (options Options) viewName() string {
	trimmedViewName := strings.TrimSpace(options.ViewName)
	if len(trimmedViewName) == 0 {
		return DefaultReleasesViewConstant
	}
	return trimmedViewName
}

// Registrar creates one job per manifest entry.
type Registrar struct {
	fileSystem shared.FileSystem
	client     JobClient
	reporter   shared.Reporter
	logger     *zap.Logger
}

// NewRegistrar constructs a Registrar.
func NewRegistrar(fileSystem shared.FileSystem, client JobClient, reporter shared.Reporter, logger *zap.Logger) (*Registrar, error) {
	if fileSystem == nil {
		return nil, ErrFileSystemNotConfigured
	}
	if client == nil {
		return nil, ErrJobClientNotConfigured
	}
	if reporter == nil {
		reporter = shared.NewWriterReporter(nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registrar{fileSystem: fileSystem, client: client, reporter: reporter, logger: logger}, nil
}

// Register renders, creates and files the job of every entry, returning the jobs created before any failure.
// Jobs already created are left in place when a later entry fails.
func (registrar *Registrar) Register(executionContext context.Context, releaseManifest manifest.Manifest, options Options) ([]string, error) {
	if validationError := options.Parameters.Validate(); validationError != nil {
		return nil, validationError
	}
	viewName := options.viewName()

	var created []string
	registrar.reporter.Printf(creatingHeaderMessageConstant)
	for _, entry := range releaseManifest.Entries {
		registrar.reporter.Printf(creatingLineTemplateConstant, entry.JobName)
		if registerError := registrar.register(executionContext, entry, options, viewName); registerError != nil {
			registrar.reporter.Printf(unableToContinueTemplateConstant, entry.JobName)
			registrar.reporter.Printf(errorLineTemplateConstant, registerError)
			return created, shared.RepositoryError{Repository: entry.Repository, Cause: registerError}
		}
		created = append(created, entry.JobName)
	}
	return created, nil
}

func (registrar *Registrar) register(executionContext context.Context, entry manifest.RepositoryEntry, options Options, viewName string) error {
	templatePath := options.TemplatePath(entry)
	templateContent, readError := registrar.fileSystem.ReadFile(templatePath)
	if readError != nil {
		return fmt.Errorf(readTemplateErrorTemplateConstant, templatePath, readError)
	}

	configurationXML, renderError := jobtemplate.Render(string(templateContent), options.Parameters)
	if renderError != nil {
		return fmt.Errorf(renderErrorTemplateConstant, templatePath, renderError)
	}

	if createError := registrar.client.CreateJob(executionContext, entry.JobName, configurationXML); createError != nil {
		return createError
	}
	if viewError := registrar.client.AddJobToView(executionContext, viewName, entry.JobName); viewError != nil {
		return viewError
	}

	registrar.logger.Info(
		registeredLogMessageConstant,
		zap.String(jobLogFieldNameConstant, entry.JobName),
		zap.String(viewLogFieldNameConstant, viewName),
		zap.String(templateLogFieldNameConstant, templatePath),
	)
	return nil
}
