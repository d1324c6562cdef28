package platform

import (
	"strings"

	"github.com/google/shlex"
)

// posixStrategy runs the bare executable from PATH and quotes values the
// way a POSIX shell reads double-quoted words.
type posixStrategy struct{}

var posixEscaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	`$`, `\$`,
	"`", "\\`",
)

func (posixStrategy) Platform() Platform { return Other }

func (posixStrategy) Executable() string { return ExecutableName }

func (posixStrategy) RenderExecutable() string { return ExecutableName }

func (posixStrategy) Quote(value string) string {
	return `"` + posixEscaper.Replace(value) + `"`
}

func (posixStrategy) PrepareQuery(query string) string { return query }

func (posixStrategy) Split(command string) ([]string, error) {
	return shlex.Split(command)
}

func (posixStrategy) DecodesDebugMarkers() bool { return true }
