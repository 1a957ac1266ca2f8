// Package ui renders command lifecycle events as human-readable console lines.
//
// It is used when the console log format is selected so that operators see
// "Cloning ..." and "Pushed ..." lines instead of structured entries.
package ui
