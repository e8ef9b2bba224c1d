// Package detector picks the log output mode from the environment.
package detector

import (
	"os"

	"golang.org/x/term"
)

// OutputMode is the encoding of log output.
type OutputMode int

const (
	// ModePretty writes human-readable, colored lines.
	ModePretty OutputMode = iota
	// ModeJSON writes one JSON object per line.
	ModeJSON
)

// DetectEnvironment returns ModeJSON when stderr is not a terminal or a CI
// environment variable is set, and ModePretty otherwise.
func DetectEnvironment() OutputMode {
	return modeFor(term.IsTerminal(int(os.Stderr.Fd())), os.Getenv("CI"))
}

func modeFor(isTTY bool, ci string) OutputMode {
	if !isTTY || ci == "true" || ci == "1" {
		return ModeJSON
	}
	return ModePretty
}

// ResolveMode applies a configured log format to the detected mode.
// format is one of "pretty", "json" or empty for the detected mode.
func ResolveMode(detected OutputMode, format string) OutputMode {
	switch format {
	case "pretty":
		return ModePretty
	case "json":
		return ModeJSON
	default:
		return detected
	}
}
