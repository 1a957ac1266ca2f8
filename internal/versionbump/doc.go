// Package versionbump rewrites the platform version of every non-root checkout, commits it and pushes it to the mainline branch.
package versionbump
