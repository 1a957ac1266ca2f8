// Package healthgate refuses to start a release while any upstream Jenkins job is missing, running, or failing.
package healthgate
