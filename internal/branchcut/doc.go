// Package branchcut creates the maintenance branch in every checkout with the Maven release plugin.
package branchcut
