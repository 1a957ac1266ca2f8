// Package manifest builds the ordered list of repositories released together.
//
// The manifest is derived once from the release version and the review-system
// username and is read-only afterwards. Every later pipeline stage iterates it
// in the same order.
package manifest
