// Package reply turns raw engine text into classified outcomes and extracts
// list-shaped and argument-shaped payloads from it.
package reply
