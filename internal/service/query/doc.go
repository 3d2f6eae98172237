// Package query implements the one-shot masked alarm query.
//
// It runs the masking filter locally, inside MongoDB or on a remote server and
// writes the result as newline-delimited Extended JSON.
package query
