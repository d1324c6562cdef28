package classify

import (
	"net/url"
	"strings"
)

// Debug marker prefixes re-injected into captured output by wrapped binaries.
const (
	StdoutMarker = "::debug::stdout:"
	StderrMarker = "::debug::stderr:"
)

// Streams is the captured text of one process run.
type Streams struct {
	Stdout string
	Stderr string
}

// StreamFilter post-processes captured streams before classification.
type StreamFilter func(Streams) Streams

// DecodeDebugMarkers scans both streams line by line. A marker line replaces
// the corresponding stream with its percent-decoded, trimmed payload; the
// last marker for a stream wins. Streams without markers pass unchanged.
func DecodeDebugMarkers(in Streams) Streams {
	out := in
	for _, text := range []string{in.Stdout, in.Stderr} {
		for _, line := range strings.Split(text, "\n") {
			line = strings.TrimSuffix(line, "\r")
			switch {
			case strings.HasPrefix(line, StdoutMarker):
				out.Stdout = decodePayload(strings.TrimPrefix(line, StdoutMarker))
			case strings.HasPrefix(line, StderrMarker):
				out.Stderr = decodePayload(strings.TrimPrefix(line, StderrMarker))
			}
		}
	}
	return out
}

func decodePayload(payload string) string {
	decoded, err := url.PathUnescape(payload)
	if err != nil {
		decoded = payload
	}
	return strings.TrimSpace(decoded)
}

func applyFilters(s Streams, filters []StreamFilter) Streams {
	for _, f := range filters {
		s = f(s)
	}
	return s
}
