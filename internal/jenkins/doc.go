// Package jenkins talks to the Jenkins remote access API.
//
// Client covers the four calls the release pipeline needs: job lookup,
// last-build status, job creation from an XML configuration, and view
// membership. It authenticates with basic credentials and attaches a CSRF
// crumb to mutating requests when the server issues one.
package jenkins
