// Package platform isolates every windows/other decision the command builder
// and the execution classifier need: executable resolution, argument quoting,
// query preparation and command-string splitting.
package platform

import (
	"runtime"
	"strings"
)

// Platform selects the quoting and executable-resolution strategy.
type Platform string

const (
	// Windows is the windows runner family.
	Windows Platform = "windows"
	// Other covers linux, macOS and everything that is not windows.
	Other Platform = "other"
)

const (
	// ExecutableName is the stackql binary resolved through PATH.
	ExecutableName = "stackql"
	// WindowsBinary is the binary file name inside the windows install directory.
	WindowsBinary = "stackql.exe"
)

// Strategy bundles the platform-specific rules used while building and
// running a stackql command.
type Strategy interface {
	// Platform returns the platform this strategy implements.
	Platform() Platform

	// Executable returns the resolved executable path or name, unquoted.
	Executable() string

	// RenderExecutable returns the executable as it appears in a command string.
	RenderExecutable() string

	// Quote wraps a value in double quotes, escaping what the platform requires.
	Quote(value string) string

	// PrepareQuery adjusts inline query text before it is quoted.
	PrepareQuery(query string) string

	// Split turns a rendered command string back into argv tokens.
	Split(command string) ([]string, error)

	// DecodesDebugMarkers reports whether captured output may carry
	// re-injected ::debug:: lines that must be decoded.
	DecodesDebugMarkers() bool
}

// Detect maps a runner OS name (RUNNER_OS) or, when empty, the Go runtime
// OS to a Platform.
func Detect(runnerOS string) Platform {
	return detect(runnerOS, runtime.GOOS)
}

func detect(runnerOS, goos string) Platform {
	if runnerOS != "" {
		if strings.EqualFold(runnerOS, "windows") {
			return Windows
		}
		return Other
	}
	if goos == "windows" {
		return Windows
	}
	return Other
}

// Parse converts a user-supplied platform name. Unknown values fall back to Other.
func Parse(name string) Platform {
	if strings.EqualFold(strings.TrimSpace(name), string(Windows)) {
		return Windows
	}
	return Other
}

// Resolve returns the strategy for p. installDir is only consulted on windows.
func Resolve(p Platform, installDir string) Strategy {
	if p == Windows {
		return &windowsStrategy{installDir: installDir}
	}
	return posixStrategy{}
}
