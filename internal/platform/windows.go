package platform

import (
	"fmt"
	"strings"
)

// windowsStrategy runs stackql.exe from the configured install directory and
// follows the CommandLineToArgvW quoting rules.
type windowsStrategy struct {
	installDir string
}

var newlineCollapser = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

func (w *windowsStrategy) Platform() Platform { return Windows }

func (w *windowsStrategy) Executable() string {
	dir := strings.TrimRight(w.installDir, `\/`)
	if dir == "" {
		return WindowsBinary
	}
	return dir + `\` + WindowsBinary
}

func (w *windowsStrategy) RenderExecutable() string {
	exe := w.Executable()
	if strings.ContainsAny(exe, " \t") {
		return w.Quote(exe)
	}
	return exe
}

// Quote doubles backslashes that precede a quote (or the closing quote) and
// escapes embedded quotes, so the value round-trips through CommandLineToArgvW.
func (w *windowsStrategy) Quote(value string) string {
	var b strings.Builder
	b.WriteByte('"')
	slashes := 0
	for i := 0; i < len(value); i++ {
		c := value[i]
		switch c {
		case '\\':
			slashes++
		case '"':
			b.WriteString(strings.Repeat(`\`, slashes+1))
			slashes = 0
		default:
			slashes = 0
		}
		b.WriteByte(c)
	}
	b.WriteString(strings.Repeat(`\`, slashes))
	b.WriteByte('"')
	return b.String()
}

// PrepareQuery collapses newlines; cmd.exe cannot pass multi-line quoted arguments.
func (w *windowsStrategy) PrepareQuery(query string) string {
	return newlineCollapser.Replace(query)
}

func (w *windowsStrategy) Split(command string) ([]string, error) {
	var (
		args    []string
		current strings.Builder
		inQuote bool
		inArg   bool
	)

	for i := 0; i < len(command); i++ {
		c := command[i]
		switch {
		case c == '\\':
			j := i
			for j < len(command) && command[j] == '\\' {
				j++
			}
			n := j - i
			if j < len(command) && command[j] == '"' {
				current.WriteString(strings.Repeat(`\`, n/2))
				if n%2 == 1 {
					current.WriteByte('"')
					i = j
				} else {
					i = j - 1
				}
			} else {
				current.WriteString(strings.Repeat(`\`, n))
				i = j - 1
			}
			inArg = true
		case c == '"':
			inQuote = !inQuote
			inArg = true
		case (c == ' ' || c == '\t') && !inQuote:
			if inArg {
				args = append(args, current.String())
				current.Reset()
				inArg = false
			}
		default:
			current.WriteByte(c)
			inArg = true
		}
	}

	if inQuote {
		return nil, fmt.Errorf("unterminated quote in command: %s", command)
	}
	if inArg {
		args = append(args, current.String())
	}
	return args, nil
}

func (w *windowsStrategy) DecodesDebugMarkers() bool { return false }
