package jenkins_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/releasecut/internal/jenkins"
)

const (
	testBaseURLConstant  = "http://ci.example.org/"
	testUsernameConstant = "releaser"
	testPasswordConstant = "secret"
)

type stubResponse struct {
	statusCode int
	body       string
}

type routingHTTPClient struct {
	routes   map[string]stubResponse
	requests []*http.Request
	bodies   []string
	failure  error
}

func (client *routingHTTPClient) Do(request *http.Request) (*http.Response, error) {
	client.requests = append(client.requests, request)
	requestBody := ""
	if request.Body != nil {
		content, _ := io.ReadAll(request.Body)
		requestBody = string(content)
	}
	client.bodies = append(client.bodies, requestBody)

	if client.failure != nil {
		return nil, client.failure
	}

	response, found := client.routes[request.Method+" "+request.URL.String()]
	if !found {
		response = stubResponse{statusCode: http.StatusNotFound, body: "not found"}
	}
	return &http.Response{
		StatusCode: response.statusCode,
		Body:       io.NopCloser(bytes.NewBufferString(response.body)),
	}, nil
}

func newTestClient(testInstance *testing.T, httpClient jenkins.HTTPClient) *jenkins.Client {
	testInstance.Helper()
	client, creationError := jenkins.NewClient(jenkins.ClientConfiguration{
		BaseURL:  testBaseURLConstant,
		Username: testUsernameConstant,
		Password: testPasswordConstant,
	}, httpClient)
	require.NoError(testInstance, creationError)
	return client
}

func TestNewClientValidation(testInstance *testing.T) {
	_, creationError := jenkins.NewClient(jenkins.ClientConfiguration{Username: testUsernameConstant}, &routingHTTPClient{})
	require.Error(testInstance, creationError)

	_, creationError = jenkins.NewClient(jenkins.ClientConfiguration{BaseURL: testBaseURLConstant}, &routingHTTPClient{})
	require.Error(testInstance, creationError)

	_, creationError = jenkins.NewClient(jenkins.ClientConfiguration{BaseURL: testBaseURLConstant, Username: testUsernameConstant}, nil)
	require.ErrorIs(testInstance, creationError, jenkins.ErrHTTPClientNotConfigured)
}

func TestLatestBuildStatus(testInstance *testing.T) {
	testCases := []struct {
		name           string
		routes         map[string]stubResponse
		expectedStatus jenkins.BuildStatus
	}{
		{
			name: "successful_build",
			routes: map[string]stubResponse{
				"GET http://ci.example.org/job/Modules/api/json":           {statusCode: http.StatusOK, body: `{"name":"Modules","lastBuild":{"number":41}}`},
				"GET http://ci.example.org/job/Modules/lastBuild/api/json": {statusCode: http.StatusOK, body: `{"number":41,"building":false,"result":"SUCCESS"}`},
			},
			expectedStatus: jenkins.BuildStatus{JobName: "Modules", Found: true, Number: 41, Result: "SUCCESS"},
		},
		{
			name: "running_build",
			routes: map[string]stubResponse{
				"GET http://ci.example.org/job/Modules/api/json":           {statusCode: http.StatusOK, body: `{"name":"Modules","lastBuild":{"number":42}}`},
				"GET http://ci.example.org/job/Modules/lastBuild/api/json": {statusCode: http.StatusOK, body: `{"number":42,"building":true,"result":null}`},
			},
			expectedStatus: jenkins.BuildStatus{JobName: "Modules", Found: true, Number: 42, Building: true},
		},
		{
			name:           "missing_job",
			routes:         map[string]stubResponse{},
			expectedStatus: jenkins.BuildStatus{JobName: "Modules"},
		},
		{
			name: "job_without_builds",
			routes: map[string]stubResponse{
				"GET http://ci.example.org/job/Modules/api/json": {statusCode: http.StatusOK, body: `{"name":"Modules","lastBuild":null}`},
			},
			expectedStatus: jenkins.BuildStatus{JobName: "Modules"},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			httpClient := &routingHTTPClient{routes: testCase.routes}
			client := newTestClient(testInstance, httpClient)

			status, statusError := client.LatestBuildStatus(context.Background(), "Modules")
			require.NoError(testInstance, statusError)
			require.Equal(testInstance, testCase.expectedStatus, status)

			for _, request := range httpClient.requests {
				username, password, hasAuth := request.BasicAuth()
				require.True(testInstance, hasAuth)
				require.Equal(testInstance, testUsernameConstant, username)
				require.Equal(testInstance, testPasswordConstant, password)
			}
		})
	}
}

func TestLatestBuildStatusEscapesJobNames(testInstance *testing.T) {
	httpClient := &routingHTTPClient{routes: map[string]stubResponse{}}
	client := newTestClient(testInstance, httpClient)

	_, statusError := client.LatestBuildStatus(context.Background(), "Platform Integration")
	require.NoError(testInstance, statusError)
	require.Equal(testInstance, "http://ci.example.org/job/Platform%20Integration/api/json", httpClient.requests[0].URL.String())
}

func TestLatestBuildStatusSurfacesServerErrors(testInstance *testing.T) {
	httpClient := &routingHTTPClient{routes: map[string]stubResponse{
		"GET http://ci.example.org/job/Modules/api/json": {statusCode: http.StatusUnauthorized, body: "bad credentials"},
	}}
	client := newTestClient(testInstance, httpClient)

	_, statusError := client.LatestBuildStatus(context.Background(), "Modules")

	var apiError jenkins.APIError
	require.ErrorAs(testInstance, statusError, &apiError)
	require.Equal(testInstance, http.StatusUnauthorized, apiError.StatusCode)
	require.Equal(testInstance, "bad credentials", apiError.Body)
	require.False(testInstance, errors.Is(statusError, jenkins.ErrNotFound))
}

func TestLatestBuildStatusSurfacesTransportErrors(testInstance *testing.T) {
	client := newTestClient(testInstance, &routingHTTPClient{failure: errors.New("connection refused")})

	_, statusError := client.LatestBuildStatus(context.Background(), "Modules")
	require.ErrorContains(testInstance, statusError, "connection refused")
}

func TestCreateJobPostsConfigurationWithCrumb(testInstance *testing.T) {
	httpClient := &routingHTTPClient{routes: map[string]stubResponse{
		"GET http://ci.example.org/crumbIssuer/api/json":            {statusCode: http.StatusOK, body: `{"crumb":"abc123","crumbRequestField":"Jenkins-Crumb"}`},
		"POST http://ci.example.org/createItem?name=Modules-0.22.X": {statusCode: http.StatusOK},
	}}
	client := newTestClient(testInstance, httpClient)

	require.NoError(testInstance, client.CreateJob(context.Background(), "Modules-0.22.X", "<project/>"))

	require.Len(testInstance, httpClient.requests, 2)
	createRequest := httpClient.requests[1]
	require.Equal(testInstance, http.MethodPost, createRequest.Method)
	require.Equal(testInstance, "application/xml", createRequest.Header.Get("Content-Type"))
	require.Equal(testInstance, "abc123", createRequest.Header.Get("Jenkins-Crumb"))
	require.Equal(testInstance, "<project/>", httpClient.bodies[1])
}

func TestCreateJobWithoutCrumbIssuer(testInstance *testing.T) {
	httpClient := &routingHTTPClient{routes: map[string]stubResponse{
		"POST http://ci.example.org/createItem?name=Modules-0.22.X": {statusCode: http.StatusOK},
	}}
	client := newTestClient(testInstance, httpClient)

	require.NoError(testInstance, client.CreateJob(context.Background(), "Modules-0.22.X", "<project/>"))
	require.Empty(testInstance, httpClient.requests[1].Header.Get("Jenkins-Crumb"))
}

func TestCreateJobReportsConflicts(testInstance *testing.T) {
	httpClient := &routingHTTPClient{routes: map[string]stubResponse{
		"POST http://ci.example.org/createItem?name=Modules-0.22.X": {statusCode: http.StatusBadRequest, body: "A job already exists with the name"},
	}}
	client := newTestClient(testInstance, httpClient)

	creationError := client.CreateJob(context.Background(), "Modules-0.22.X", "<project/>")
	require.ErrorContains(testInstance, creationError, "failed to create job Modules-0.22.X")
	require.ErrorContains(testInstance, creationError, "A job already exists")
}

func TestAddJobToView(testInstance *testing.T) {
	httpClient := &routingHTTPClient{routes: map[string]stubResponse{
		"POST http://ci.example.org/view/Releases/addJobToView?name=Platform-0.22.X": {statusCode: http.StatusOK},
	}}
	client := newTestClient(testInstance, httpClient)

	require.NoError(testInstance, client.AddJobToView(context.Background(), "Releases", "Platform-0.22.X"))
	require.Error(testInstance, client.AddJobToView(context.Background(), "", "Platform-0.22.X"))
	require.Error(testInstance, client.AddJobToView(context.Background(), "Releases", " "))
}
