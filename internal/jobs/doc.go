// Package jobs registers the release branch jobs on Jenkins and files them under the releases view.
package jobs
