// Package jobtemplate substitutes release parameters into Jenkins job configuration templates.
package jobtemplate
