// Package cli constructs the releasecut command-line interface, wiring the
// Cobra root command, the configuration loader, structured logging, and the
// release pipeline collaborators.
package cli
