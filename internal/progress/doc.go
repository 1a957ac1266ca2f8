// Package progress records which repositories finished which release stage so a failed run can be inspected.
package progress
