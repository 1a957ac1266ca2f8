// Package shared holds the collaborator interfaces and reporting helpers used by every release stage.
package shared
