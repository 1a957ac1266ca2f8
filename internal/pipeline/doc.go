// Package pipeline runs the release stages in order and stops at the first failure.
//
// The health gate is the only checkpoint that runs before any filesystem or remote mutation.
// Later stages never undo the work of earlier ones.
package pipeline
