// Package pom reads and rewrites a single text-only element of a Maven build descriptor
// without reformatting the rest of the document.
package pom
