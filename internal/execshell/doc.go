// Package execshell provides structured helpers for invoking external tools.
//
// It wraps os/exec with logging via ShellExecutor, exposes OSCommandRunner for
// default process execution, and defines the abstractions releasecut uses to
// run git, mvn, and scp against explicit working directories in a testable
// manner.
package execshell
