// Package xarmour splits armoured text (PEM encoded or PGP armoured data)
// into blocks and passes each block to a command on its standard input.
package xarmour

// Name is the program name used in diagnostics and version output.
const Name = "xarmour"

// Version is the release version.
const Version = "1.0.0"

// Environment variables exported to every spawned command.
const (
	EnvIndex = "XARMOUR_INDEX" // zero-based index of the armoured block
	EnvCount = "XARMOUR_COUNT" // command successes so far
	EnvTimes = "XARMOUR_TIMES" // configured threshold, empty if unset
	EnvLabel = "XARMOUR_LABEL" // label of the armoured block
)
