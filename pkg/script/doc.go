// Package script describes a character script: which characters may be dealt,
// how many of each kind a table of a given size receives, and the order in which
// night abilities wake.
//
// The default script is Trouble Brewing, embedded as YAML. Custom scripts use the
// same format and are checked with Validate before a game can use them.
package script
