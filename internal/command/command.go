// Package command assembles the stackql invocation from validated options.
//
// The builder never starts a process: it validates the option combination,
// lays out the arguments in a fixed order and renders them with the quoting
// rules of the target platform. The rendered string is the only thing the
// execution side needs, which keeps both halves testable on their own.
package command

import (
	"strings"

	"github.com/systmms/stackql-exec/internal/logging"
	"github.com/systmms/stackql-exec/internal/platform"
)

// Command is an assembled stackql invocation. It is immutable once built.
type Command struct {
	executable string
	args       []string
	rendered   string
	platform   platform.Platform
	secrets    []string
}

// Executable returns the resolved executable name or path.
func (c Command) Executable() string {
	return c.executable
}

// Args returns a copy of the unquoted argument tokens, without the executable.
func (c Command) Args() []string {
	out := make([]string, len(c.args))
	copy(out, c.args)
	return out
}

// Platform returns the platform the command was rendered for.
func (c Command) Platform() platform.Platform {
	return c.platform
}

// String returns the full command line.
func (c Command) String() string {
	return c.rendered
}

// Redacted returns the command line with auth material replaced.
func (c Command) Redacted() string {
	return logging.Redact(c.rendered, c.secrets)
}

// IsZero reports whether c was never built.
func (c Command) IsZero() bool {
	return c.executable == ""
}

// HasFlag reports whether the unquoted argument list contains flag.
func (c Command) HasFlag(flag string) bool {
	for _, arg := range c.args {
		if arg == flag {
			return true
		}
	}
	return false
}

// Parse rebuilds a Command from a rendered command line, for example the
// STACKQL_COMMAND exported by an earlier step.
func Parse(line string, strategy platform.Strategy) (Command, error) {
	tokens, err := strategy.Split(strings.TrimSpace(line))
	if err != nil {
		return Command{}, err
	}
	if len(tokens) == 0 {
		return Command{}, errEmptyCommand
	}

	return Command{
		executable: tokens[0],
		args:       tokens[1:],
		rendered:   strings.TrimSpace(line),
		platform:   strategy.Platform(),
		secrets:    authSecrets(tokens[1:], strategy),
	}, nil
}

// authSecrets recovers the --auth value from parsed tokens in every form it
// can take on the rendered line.
func authSecrets(args []string, strategy platform.Strategy) []string {
	var secrets []string
	for i, arg := range args {
		var value string
		switch {
		case arg == authFlag && i+1 < len(args):
			value = args[i+1]
		case strings.HasPrefix(arg, authFlag+"="):
			value = strings.TrimPrefix(arg, authFlag+"=")
		default:
			continue
		}
		if value == "" {
			continue
		}
		secrets = append(secrets, strategy.Quote(value), "'"+value+"'", value)
	}
	return secrets
}
