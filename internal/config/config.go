// Package config resolves stackql-exec settings from the environment and an
// optional stackql-exec.yaml file.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/systmms/stackql-exec/internal/classify"
	"github.com/systmms/stackql-exec/internal/command"
	dserrors "github.com/systmms/stackql-exec/internal/errors"
	"github.com/systmms/stackql-exec/internal/logging"
	"github.com/systmms/stackql-exec/internal/platform"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the configuration file looked up when --config is not given.
const DefaultPath = "stackql-exec.yaml"

// Environment variable names.
const (
	EnvQuery         = "QUERY"
	EnvQueryFilePath = "QUERY_FILE_PATH"
	EnvDataFilePath  = "DATA_FILE_PATH"
	EnvOutput        = "OUTPUT"
	EnvVars          = "VARS"
	EnvAuth          = "AUTH"
	EnvAuthFilePath  = "AUTH_FILE_PATH"
	EnvAuthStr       = "AUTH_STR"
	EnvAuthSecretRef = "AUTH_SECRET_REF"
	EnvDryRun        = "DRY_RUN"
	EnvIsCommand     = "IS_COMMAND"
	EnvOnFailure     = "ON_FAILURE"
	EnvRunnerOS      = "RUNNER_OS"
	EnvCLIPath       = "STACKQL_CLI_PATH"
	EnvCommand       = "STACKQL_COMMAND"
	EnvMetricsFile   = "STACKQL_EXEC_METRICS_FILE"
)

// Config holds the runtime configuration
type Config struct {
	Path       string
	Logger     *logging.Logger
	Definition *Definition
}

// Definition represents the stackql-exec.yaml structure. Every field is a
// default that the matching environment variable overrides.
type Definition struct {
	Version       int    `yaml:"version"`
	Query         string `yaml:"query,omitempty"`
	QueryFilePath string `yaml:"query_file_path,omitempty"`
	DataFilePath  string `yaml:"data_file_path,omitempty"`
	Output        string `yaml:"output,omitempty"`
	Vars          Vars   `yaml:"vars,omitempty"`
	AuthFilePath  string `yaml:"auth_file_path,omitempty"`
	AuthSecretRef string `yaml:"auth_secret_ref,omitempty"`
	DryRun        *bool  `yaml:"dry_run,omitempty"`
	IsCommand     *bool  `yaml:"is_command,omitempty"`
	OnFailure     string `yaml:"on_failure,omitempty"`
	RunnerOS      string `yaml:"runner_os,omitempty"`
	CLIPath       string `yaml:"stackql_cli_path,omitempty"`
	MetricsFile   string `yaml:"metrics_file,omitempty"`
}

// Vars is the --var value. In YAML it may be written either as the raw
// comma separated string or as a mapping.
type Vars string

// UnmarshalYAML accepts a scalar or a string-to-scalar mapping. Mappings are
// rendered as key=value pairs joined by commas, sorted by key.
func (v *Vars) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*v = Vars(node.Value)
		return nil
	case yaml.MappingNode:
		var m map[string]string
		if err := node.Decode(&m); err != nil {
			return err
		}
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		pairs := make([]string, 0, len(keys))
		for _, k := range keys {
			pairs = append(pairs, k+"="+m[k])
		}
		*v = Vars(strings.Join(pairs, ","))
		return nil
	}
	return fmt.Errorf("line %d: vars must be a string or a mapping", node.Line)
}

// Settings are the resolved values for one invocation.
type Settings struct {
	Query         string
	QueryFilePath string
	DataFilePath  string
	Output        string
	Vars          string
	Auth          string
	AuthFilePath  string
	AuthStr       string
	AuthSecretRef string
	DryRun        bool
	IsCommand     bool
	OnFailure     string
	RunnerOS      string
	CLIPath       string
	Command       string
	MetricsFile   string
}

// Load reads and parses the configuration file. A missing file is not an
// error: the definition stays empty and only the environment applies.
func (c *Config) Load() error {
	if c.Path == "" {
		c.Path = DefaultPath
	}

	f, err := os.Open(c.Path)
	if err != nil {
		if os.IsNotExist(err) {
			if c.Logger != nil {
				c.Logger.Debug("No configuration file at %s, using environment only", c.Path)
			}
			c.Definition = &Definition{}
			return nil
		}
		return dserrors.UserError{
			Message:    "Failed to read configuration file",
			Details:    err.Error(),
			Suggestion: "Check file permissions and path",
			Err:        err,
		}
	}
	defer func() { _ = f.Close() }()

	def, err := decode(f)
	if err != nil {
		return err
	}
	c.Definition = def
	return nil
}

func decode(r io.Reader) (*Definition, error) {
	var def Definition
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&def); err != nil && !errors.Is(err, io.EOF) {
		return nil, dserrors.ConfigError{
			Message:    fmt.Sprintf("invalid configuration file: %v", err),
			Suggestion: "Check for indentation errors, misspelled keys, or invalid characters. Use a YAML validator",
		}
	}

	if def.Version != 0 {
		return nil, dserrors.ConfigError{
			Field:      "version",
			Value:      def.Version,
			Message:    "unsupported configuration version",
			Suggestion: "Set 'version: 0' at the top of your stackql-exec.yaml file",
		}
	}
	return &def, nil
}

// Resolve merges the loaded definition with environment values.
func (c *Config) Resolve(lookup func(string) (string, bool)) (Settings, error) {
	return resolve(c.Definition, lookup)
}

// FromEnv builds Settings from environment values only.
func FromEnv(lookup func(string) (string, bool)) (Settings, error) {
	return resolve(nil, lookup)
}

func resolve(def *Definition, lookup func(string) (string, bool)) (Settings, error) {
	if def == nil {
		def = &Definition{}
	}

	str := func(name, fallback string) string {
		if v, ok := lookup(name); ok && v != "" {
			return v
		}
		return fallback
	}

	s := Settings{
		Query:         str(EnvQuery, def.Query),
		QueryFilePath: str(EnvQueryFilePath, def.QueryFilePath),
		DataFilePath:  str(EnvDataFilePath, def.DataFilePath),
		Output:        str(EnvOutput, def.Output),
		Vars:          str(EnvVars, string(def.Vars)),
		Auth:          str(EnvAuth, ""),
		AuthFilePath:  str(EnvAuthFilePath, def.AuthFilePath),
		AuthStr:       str(EnvAuthStr, ""),
		AuthSecretRef: str(EnvAuthSecretRef, def.AuthSecretRef),
		OnFailure:     str(EnvOnFailure, def.OnFailure),
		RunnerOS:      str(EnvRunnerOS, def.RunnerOS),
		CLIPath:       str(EnvCLIPath, def.CLIPath),
		Command:       str(EnvCommand, ""),
		MetricsFile:   str(EnvMetricsFile, def.MetricsFile),
	}
	if s.OnFailure == "" {
		s.OnFailure = string(classify.PolicyExit)
	}

	var err error
	if s.DryRun, err = boolean(lookup, EnvDryRun, def.DryRun); err != nil {
		return Settings{}, err
	}
	if s.IsCommand, err = boolean(lookup, EnvIsCommand, def.IsCommand); err != nil {
		return Settings{}, err
	}
	return s, nil
}

func boolean(lookup func(string) (string, bool), name string, fallback *bool) (bool, error) {
	v, ok := lookup(name)
	if !ok || !command.Provided(v) {
		if fallback != nil {
			return *fallback, nil
		}
		return false, nil
	}

	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return false, dserrors.ConfigError{
			Field:      name,
			Value:      v,
			Message:    fmt.Sprintf("invalid boolean value for %s: %s", name, v),
			Suggestion: "Use true or false",
		}
	}
	return b, nil
}

// Platform returns the target platform for the runner.
func (s Settings) Platform() platform.Platform {
	return platform.Detect(s.RunnerOS)
}

// Strategy returns the platform strategy, including the windows install dir.
func (s Settings) Strategy() platform.Strategy {
	return platform.Resolve(s.Platform(), s.CLIPath)
}

// BuildOptions converts s into command builder options.
func (s Settings) BuildOptions() command.Options {
	return command.Options{
		Query:         s.Query,
		QueryFilePath: s.QueryFilePath,
		DataFilePath:  s.DataFilePath,
		Output:        s.Output,
		Auth:          s.Auth,
		Vars:          s.Vars,
		DryRun:        s.DryRun,
		Platform:      s.Platform(),
		InstallDir:    s.CLIPath,
	}
}

// ClassifyOptions converts s into classifier options.
func (s Settings) ClassifyOptions() (classify.Options, error) {
	policy, err := classify.ParsePolicy(s.OnFailure)
	if err != nil {
		return classify.Options{}, err
	}
	return classify.Options{
		IsCommand: s.IsCommand,
		OnFailure: policy,
		DryRun:    s.DryRun,
	}, nil
}

// Validate checks the settings that can be checked without touching the
// filesystem.
func (s Settings) Validate() error {
	if command.Provided(s.Output) && !command.ValidOutput(s.Output) {
		return dserrors.ConfigError{
			Field:      EnvOutput,
			Value:      s.Output,
			Message:    fmt.Sprintf("output format not supported: %s", s.Output),
			Suggestion: "Use one of: " + strings.Join(command.OutputFormats, ", "),
		}
	}
	_, err := s.ClassifyOptions()
	return err
}
