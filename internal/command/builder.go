package command

import (
	"fmt"
	"os"
	"strings"

	dserrors "github.com/systmms/stackql-exec/internal/errors"
	"github.com/systmms/stackql-exec/internal/platform"
)

// Output formats accepted by stackql --output.
const (
	OutputJSON  = "json"
	OutputCSV   = "csv"
	OutputTable = "table"
	OutputText  = "text"
)

// OutputFormats lists the accepted --output values.
var OutputFormats = []string{OutputJSON, OutputCSV, OutputTable, OutputText}

// undefinedSentinel is what a string-coerced absent value looks like.
const undefinedSentinel = "undefined"

const authFlag = "--auth"

var errEmptyCommand = dserrors.ConfigError{
	Field:   "STACKQL_COMMAND",
	Message: "command is empty",
}

// Options describes one stackql query or command execution request.
type Options struct {
	Query         string
	QueryFilePath string
	DataFilePath  string
	Output        string
	Auth          string
	Vars          string
	DryRun        bool
	Platform      platform.Platform
	InstallDir    string
}

// Provided reports whether v carries a value. Empty strings and the literal
// "undefined" count as absent; whitespace does not.
func Provided(v string) bool {
	return v != "" && v != undefinedSentinel
}

// ValidOutput reports whether format is an accepted --output value.
func ValidOutput(format string) bool {
	for _, f := range OutputFormats {
		if f == format {
			return true
		}
	}
	return false
}

type argument struct {
	value  string
	quoted bool
}

// Build validates opts and assembles the command. It fails with a
// ConfigError before any process could be spawned.
func Build(opts Options) (Command, error) {
	output := opts.Output
	if !Provided(output) {
		output = OutputJSON
	}
	if !ValidOutput(output) {
		return Command{}, dserrors.ConfigError{
			Field:      "OUTPUT",
			Message:    fmt.Sprintf("output format not supported: %s", output),
			Suggestion: "Use one of: " + strings.Join(OutputFormats, ", "),
		}
	}

	strategy := platform.Resolve(opts.Platform, opts.InstallDir)

	var args []argument
	switch {
	case Provided(opts.Query):
		args = append(args,
			argument{value: "exec"},
			argument{value: strategy.PrepareQuery(opts.Query), quoted: true},
		)
	case Provided(opts.QueryFilePath):
		if !fileExists(opts.QueryFilePath) {
			return Command{}, dserrors.ConfigError{
				Field:      "QUERY_FILE_PATH",
				Message:    fmt.Sprintf("query file path does not exist: %s", opts.QueryFilePath),
				Suggestion: "Check the path is relative to the workspace and the file is checked out",
			}
		}
		args = append(args,
			argument{value: "exec"},
			argument{value: "-i"},
			argument{value: opts.QueryFilePath, quoted: true},
		)
	default:
		return Command{}, dserrors.ConfigError{
			Field:      "QUERY",
			Message:    "either query or query_file_path need to be set",
			Suggestion: "Set the query or query_file_path input",
		}
	}

	if Provided(opts.DataFilePath) {
		if !fileExists(opts.DataFilePath) {
			return Command{}, dserrors.ConfigError{
				Field:      "DATA_FILE_PATH",
				Message:    fmt.Sprintf("data file path does not exist: %s", opts.DataFilePath),
				Suggestion: "Check the path of the jsonnet or json data file",
			}
		}
		args = append(args,
			argument{value: "--iqldata"},
			argument{value: opts.DataFilePath, quoted: true},
		)
	}

	args = append(args, argument{value: "--output"}, argument{value: output})

	if opts.DryRun {
		args = append(args, argument{value: "--dryrun"})
	}

	var secrets []string
	if Provided(opts.Auth) {
		args = append(args, argument{value: authFlag}, argument{value: opts.Auth, quoted: true})
		secrets = append(secrets, opts.Auth)
	}

	if Provided(opts.Vars) {
		args = append(args, argument{value: "--var"}, argument{value: opts.Vars, quoted: true})
	}

	return render(strategy, args, secrets), nil
}

func render(strategy platform.Strategy, args []argument, secrets []string) Command {
	parts := make([]string, 0, len(args)+1)
	raw := make([]string, 0, len(args))

	parts = append(parts, strategy.RenderExecutable())
	for _, arg := range args {
		raw = append(raw, arg.value)
		if arg.quoted {
			parts = append(parts, strategy.Quote(arg.value))
		} else {
			parts = append(parts, arg.value)
		}
	}

	redactable := make([]string, 0, len(secrets)*2)
	for _, s := range secrets {
		redactable = append(redactable, strategy.Quote(s), s)
	}

	return Command{
		executable: strategy.Executable(),
		args:       raw,
		rendered:   strings.Join(parts, " "),
		platform:   strategy.Platform(),
		secrets:    redactable,
	}
}

// fileExists reports whether path names a readable regular file.
func fileExists(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return false
	}
	return !info.IsDir()
}
