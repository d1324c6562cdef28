package report

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/systmms/stackql-exec/internal/logging"
)

// GitHubActions reports through workflow commands and the GITHUB_ENV and
// GITHUB_OUTPUT file commands.
type GitHubActions struct {
	out    io.Writer
	getenv func(string) string
	logger *logging.Logger

	mu     sync.Mutex
	failed bool
}

// NewGitHubActions creates a reporter writing workflow commands to out.
// getenv resolves GITHUB_ENV and GITHUB_OUTPUT; nil means os.Getenv.
func NewGitHubActions(out io.Writer, getenv func(string) string, logger *logging.Logger) *GitHubActions {
	if getenv == nil {
		getenv = os.Getenv
	}
	return &GitHubActions{out: out, getenv: getenv, logger: logger}
}

// InActions reports whether the process runs inside a GitHub Actions job.
func InActions(getenv func(string) string) bool {
	return getenv("GITHUB_ACTIONS") == "true"
}

func (g *GitHubActions) Log(message string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	fmt.Fprintln(g.out, message)
}

func (g *GitHubActions) Warn(message string) {
	g.issue("warning", message)
}

func (g *GitHubActions) Error(message string) {
	g.issue("error", message)
}

func (g *GitHubActions) Mask(value string) {
	if value == "" {
		return
	}
	for _, line := range strings.Split(value, "\n") {
		if strings.TrimSpace(line) != "" {
			g.issue("add-mask", line)
		}
	}
	g.logger.AddSecret(value)
}

func (g *GitHubActions) ExportVariable(name, value string) {
	g.writeFileCommand("GITHUB_ENV", name, value)
}

func (g *GitHubActions) ExportResult(name, value string) {
	g.writeFileCommand("GITHUB_OUTPUT", name, value)
}

func (g *GitHubActions) Fail(message string) {
	g.Error(message)
	g.mu.Lock()
	g.failed = true
	g.mu.Unlock()
}

func (g *GitHubActions) Failed() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.failed
}

func (g *GitHubActions) issue(command, message string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	fmt.Fprintf(g.out, "::%s::%s\n", command, EscapeData(message))
}

// writeFileCommand appends a heredoc block to the file named by envVar, or
// falls back to a plain name=value line when the runner provides none.
func (g *GitHubActions) writeFileCommand(envVar, name, value string) {
	path := g.getenv(envVar)
	if path == "" {
		g.mu.Lock()
		fmt.Fprintf(g.out, "%s=%s\n", name, value)
		g.mu.Unlock()
		return
	}

	block, err := heredoc(name, value)
	if err != nil {
		g.Error(err.Error())
		return
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		g.Error(fmt.Sprintf("Unable to write %s: %v", envVar, err))
		return
	}
	defer f.Close()

	if _, err := io.WriteString(f, block); err != nil {
		g.Error(fmt.Sprintf("Unable to write %s: %v", envVar, err))
	}
}

func heredoc(name, value string) (string, error) {
	delimiter := "ghadelimiter_" + uuid.NewString()
	if strings.Contains(name, delimiter) {
		return "", fmt.Errorf("unexpected input: name should not contain the delimiter %q", delimiter)
	}
	if strings.Contains(value, delimiter) {
		return "", fmt.Errorf("unexpected input: value should not contain the delimiter %q", delimiter)
	}
	return fmt.Sprintf("%s<<%s\n%s\n%s\n", name, delimiter, value, delimiter), nil
}

var dataEscaper = strings.NewReplacer("%", "%25", "\r", "%0D", "\n", "%0A")

// EscapeData encodes a workflow command payload the way the runner expects.
func EscapeData(s string) string {
	return dataEscaper.Replace(s)
}
