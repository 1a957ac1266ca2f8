package jenkins

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const (
	jobAPIPathTemplateConstant           = "%s/job/%s/api/json"
	lastBuildAPIPathTemplateConstant     = "%s/job/%s/lastBuild/api/json"
	createItemPathTemplateConstant       = "%s/createItem?name=%s"
	addJobToViewPathTemplateConstant     = "%s/view/%s/addJobToView?name=%s"
	crumbIssuerPathTemplateConstant      = "%s/crumbIssuer/api/json"
	acceptHeaderNameConstant             = "Accept"
	contentTypeHeaderNameConstant        = "Content-Type"
	jsonMediaTypeConstant                = "application/json"
	xmlMediaTypeConstant                 = "application/xml"
	baseURLRequiredMessageConstant       = "jenkins base URL must be provided"
	usernameRequiredMessageConstant      = "jenkins username must be provided"
	httpClientMissingMessageConstant     = "jenkins HTTP client not configured"
	notFoundMessageConstant              = "jenkins resource not found"
	jobNameRequiredMessageConstant       = "jenkins job name must be provided"
	viewNameRequiredMessageConstant      = "jenkins view name must be provided"
	apiErrorTemplateConstant             = "jenkins returned status %d for %s %s: %s"
	requestCreationErrorTemplateConstant = "failed to create request: %w"
	requestFailedErrorTemplateConstant   = "request failed: %w"
	decodeFailedErrorTemplateConstant    = "failed to decode response: %w"
	jobLookupErrorTemplateConstant       = "failed to look up job %s: %w"
	lastBuildLookupErrorTemplateConstant = "failed to look up last build of %s: %w"
	createJobErrorTemplateConstant       = "failed to create job %s: %w"
	addJobToViewErrorTemplateConstant    = "failed to add job %s to view %s: %w"
	crumbErrorTemplateConstant           = "failed to obtain crumb: %w"
	apiErrorBodyLimitConstant            = 512
	successfulResultConstant             = "SUCCESS"
	trailingSlashConstant                = "/"
)

// SuccessfulResult is the build result Jenkins reports for a green build.
const SuccessfulResult = successfulResultConstant

var (
	// ErrNotFound indicates Jenkins answered 404 for the requested resource.
	ErrNotFound = errors.New(notFoundMessageConstant)
	// ErrHTTPClientNotConfigured indicates the client was constructed without an HTTP client.
	ErrHTTPClientNotConfigured = errors.New(httpClientMissingMessageConstant)
)

// HTTPClient performs HTTP requests. *http.Client satisfies it.
type HTTPClient interface {
	Do(request *http.Request) (*http.Response, error)
}

// ClientConfiguration identifies the Jenkins server and its credentials.
type ClientConfiguration struct {
	BaseURL  string
	Username string
	Password string
}

// BuildStatus is the state of a job's most recent build.
type BuildStatus struct {
	JobName  string
	Found    bool
	Number   int
	Building bool
	Result   string
}

// APIError reports a non-successful Jenkins response.
type APIError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

// Error describes the failed response.
func (apiError APIError) Error() string {
	return fmt.Sprintf(apiErrorTemplateConstant, apiError.StatusCode, apiError.Method, apiError.URL, apiError.Body)
}

// Unwrap maps 404 responses onto ErrNotFound.
func (apiError APIError) Unwrap() error {
	if apiError.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	return nil
}

// Client issues Jenkins remote API calls.
type Client struct {
	baseURL    string
	username   string
	password   string
	httpClient HTTPClient
}

type jobResponse struct {
	Name      string         `json:"name"`
	LastBuild *buildResponse `json:"lastBuild"`
}

type buildResponse struct {
	Number   int     `json:"number"`
	Building bool    `json:"building"`
	Result   *string `json:"result"`
}

type crumbResponse struct {
	Crumb             string `json:"crumb"`
	CrumbRequestField string `json:"crumbRequestField"`
}

// NewClient constructs a Jenkins client.
func NewClient(configuration ClientConfiguration, httpClient HTTPClient) (*Client, error) {
	baseURL := strings.TrimSuffix(strings.TrimSpace(configuration.BaseURL), trailingSlashConstant)
	if len(baseURL) == 0 {
		return nil, errors.New(baseURLRequiredMessageConstant)
	}
	if len(strings.TrimSpace(configuration.Username)) == 0 {
		return nil, errors.New(usernameRequiredMessageConstant)
	}
	if httpClient == nil {
		return nil, ErrHTTPClientNotConfigured
	}
	return &Client{
		baseURL:    baseURL,
		username:   strings.TrimSpace(configuration.Username),
		password:   configuration.Password,
		httpClient: httpClient,
	}, nil
}

// LatestBuildStatus looks up the job and then its last build.
// A missing job or a job without builds yields a status with Found set to false.
func (client *Client) LatestBuildStatus(executionContext context.Context, jobName string) (BuildStatus, error) {
	trimmedJobName := strings.TrimSpace(jobName)
	if len(trimmedJobName) == 0 {
		return BuildStatus{}, errors.New(jobNameRequiredMessageConstant)
	}
	status := BuildStatus{JobName: trimmedJobName}

	var job jobResponse
	jobURL := fmt.Sprintf(jobAPIPathTemplateConstant, client.baseURL, url.PathEscape(trimmedJobName))
	if lookupError := client.getJSON(executionContext, jobURL, &job); lookupError != nil {
		if errors.Is(lookupError, ErrNotFound) {
			return status, nil
		}
		return BuildStatus{}, fmt.Errorf(jobLookupErrorTemplateConstant, trimmedJobName, lookupError)
	}
	if job.LastBuild == nil {
		return status, nil
	}

	var build buildResponse
	buildURL := fmt.Sprintf(lastBuildAPIPathTemplateConstant, client.baseURL, url.PathEscape(trimmedJobName))
	if lookupError := client.getJSON(executionContext, buildURL, &build); lookupError != nil {
		if errors.Is(lookupError, ErrNotFound) {
			return status, nil
		}
		return BuildStatus{}, fmt.Errorf(lastBuildLookupErrorTemplateConstant, trimmedJobName, lookupError)
	}

	status.Found = true
	status.Number = build.Number
	status.Building = build.Building
	if build.Result != nil {
		status.Result = *build.Result
	}
	return status, nil
}

// CreateJob creates a new job from the XML configuration.
func (client *Client) CreateJob(executionContext context.Context, jobName string, configurationXML string) error {
	trimmedJobName := strings.TrimSpace(jobName)
	if len(trimmedJobName) == 0 {
		return errors.New(jobNameRequiredMessageConstant)
	}
	createURL := fmt.Sprintf(createItemPathTemplateConstant, client.baseURL, url.QueryEscape(trimmedJobName))
	if postError := client.post(executionContext, createURL, xmlMediaTypeConstant, configurationXML); postError != nil {
		return fmt.Errorf(createJobErrorTemplateConstant, trimmedJobName, postError)
	}
	return nil
}

// AddJobToView attaches an existing job to a view.
func (client *Client) AddJobToView(executionContext context.Context, viewName string, jobName string) error {
	trimmedViewName := strings.TrimSpace(viewName)
	if len(trimmedViewName) == 0 {
		return errors.New(viewNameRequiredMessageConstant)
	}
	trimmedJobName := strings.TrimSpace(jobName)
	if len(trimmedJobName) == 0 {
		return errors.New(jobNameRequiredMessageConstant)
	}
	addURL := fmt.Sprintf(addJobToViewPathTemplateConstant, client.baseURL, url.PathEscape(trimmedViewName), url.QueryEscape(trimmedJobName))
	if postError := client.post(executionContext, addURL, "", ""); postError != nil {
		return fmt.Errorf(addJobToViewErrorTemplateConstant, trimmedJobName, trimmedViewName, postError)
	}
	return nil
}

func (client *Client) getJSON(executionContext context.Context, requestURL string, result any) error {
	request, requestError := http.NewRequestWithContext(executionContext, http.MethodGet, requestURL, nil)
	if requestError != nil {
		return fmt.Errorf(requestCreationErrorTemplateConstant, requestError)
	}
	request.Header.Set(acceptHeaderNameConstant, jsonMediaTypeConstant)

	response, doError := client.do(request)
	if doError != nil {
		return doError
	}
	defer response.Body.Close()

	if decodeError := json.NewDecoder(response.Body).Decode(result); decodeError != nil {
		return fmt.Errorf(decodeFailedErrorTemplateConstant, decodeError)
	}
	return nil
}

func (client *Client) post(executionContext context.Context, requestURL string, contentType string, body string) error {
	crumb, crumbError := client.crumb(executionContext)
	if crumbError != nil {
		return fmt.Errorf(crumbErrorTemplateConstant, crumbError)
	}

	request, requestError := http.NewRequestWithContext(executionContext, http.MethodPost, requestURL, strings.NewReader(body))
	if requestError != nil {
		return fmt.Errorf(requestCreationErrorTemplateConstant, requestError)
	}
	if len(contentType) > 0 {
		request.Header.Set(contentTypeHeaderNameConstant, contentType)
	}
	if crumb != nil {
		request.Header.Set(crumb.CrumbRequestField, crumb.Crumb)
	}

	response, doError := client.do(request)
	if doError != nil {
		return doError
	}
	defer response.Body.Close()
	_, _ = io.Copy(io.Discard, response.Body)
	return nil
}

// crumb returns nil when the server has CSRF protection disabled.
func (client *Client) crumb(executionContext context.Context) (*crumbResponse, error) {
	var crumb crumbResponse
	crumbURL := fmt.Sprintf(crumbIssuerPathTemplateConstant, client.baseURL)
	if lookupError := client.getJSON(executionContext, crumbURL, &crumb); lookupError != nil {
		if errors.Is(lookupError, ErrNotFound) {
			return nil, nil
		}
		return nil, lookupError
	}
	if len(crumb.CrumbRequestField) == 0 || len(crumb.Crumb) == 0 {
		return nil, nil
	}
	return &crumb, nil
}

func (client *Client) do(request *http.Request) (*http.Response, error) {
	request.SetBasicAuth(client.username, client.password)

	response, doError := client.httpClient.Do(request)
	if doError != nil {
		return nil, fmt.Errorf(requestFailedErrorTemplateConstant, doError)
	}

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		defer response.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(response.Body, apiErrorBodyLimitConstant))
		return nil, APIError{
			Method:     request.Method,
			URL:        request.URL.String(),
			StatusCode: response.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		}
	}

	return response, nil
}
