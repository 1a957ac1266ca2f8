// Package workspace resets the build directory and checks out every release repository into it.
package workspace
