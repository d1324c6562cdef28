// Package auth resolves the stackql provider auth payload and exports it as
// the AUTH variable for later steps.
package auth

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/systmms/stackql-exec/internal/command"
	dserrors "github.com/systmms/stackql-exec/internal/errors"
	"github.com/systmms/stackql-exec/internal/report"
	"github.com/systmms/stackql-exec/internal/secretstores"
	"github.com/systmms/stackql-exec/internal/secure"
)

// Source names, in precedence order.
const (
	SourceString    = "AUTH_STR"
	SourceFile      = "AUTH_FILE_PATH"
	SourceSecretRef = "AUTH_SECRET_REF"
)

// schema is the shape stackql expects for --auth: one object per provider,
// each naming its auth type.
const schema = `{
  "type": "object",
  "minProperties": 1,
  "additionalProperties": {
    "type": "object",
    "required": ["type"],
    "properties": {
      "type": {"type": "string", "minLength": 1}
    }
  }
}`

// Sources are the candidate locations of the auth payload.
type Sources struct {
	FilePath  string
	Str       string
	SecretRef string
	// Require turns "nothing configured" into an error.
	Require bool
}

// Result describes a finished setup. Payload is nil when no source was set.
type Result struct {
	Source  string
	Payload *secure.Payload
}

// SecretResolver fetches a store:// reference.
type SecretResolver interface {
	Resolve(ctx context.Context, ref secretstores.Ref) (string, error)
}

// Setup resolves and exports auth.
type Setup struct {
	reporter report.Reporter
	stores   SecretResolver
	readFile func(string) ([]byte, error)
}

// Option configures Setup.
type Option func(*Setup)

// WithSecretResolver sets the resolver used for AUTH_SECRET_REF.
func WithSecretResolver(r SecretResolver) Option {
	return func(s *Setup) {
		s.stores = r
	}
}

// New creates a Setup.
func New(reporter report.Reporter, opts ...Option) *Setup {
	s := &Setup{
		reporter: reporter,
		readFile: os.ReadFile,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.stores == nil {
		s.stores = secretstores.NewRegistry()
	}
	return s
}

// Run resolves the payload, validates it, masks it and exports AUTH.
// AUTH_STR wins over AUTH_FILE_PATH, which wins over AUTH_SECRET_REF.
// The caller owns the returned payload and should Destroy it.
func (s *Setup) Run(ctx context.Context, src Sources) (Result, error) {
	raw, source, err := s.resolve(ctx, src)
	if err != nil {
		return Result{}, err
	}
	if source == "" {
		if src.Require {
			return Result{}, dserrors.ConfigError{
				Message:    "Either AUTH_FILE_PATH or AUTH_STR must be set.",
				Suggestion: "Set AUTH_STR, AUTH_FILE_PATH or AUTH_SECRET_REF",
			}
		}
		s.reporter.Log("No AUTH_STR, AUTH_FILE_PATH or AUTH_SECRET_REF set, skipping auth setup")
		return Result{}, nil
	}

	// Mask before anything else can print the value.
	s.reporter.Mask(raw)

	if err := Validate(raw); err != nil {
		return Result{}, err
	}

	payload, err := secure.FromString(raw)
	if err != nil {
		return Result{}, err
	}

	s.reporter.Log("Setting AUTH environment variable...")
	err = payload.Reveal(func(b []byte) error {
		s.reporter.ExportVariable(report.AuthVariable, string(b))
		return nil
	})
	if err != nil {
		payload.Destroy()
		return Result{}, err
	}

	return Result{Source: source, Payload: payload}, nil
}

func (s *Setup) resolve(ctx context.Context, src Sources) (string, string, error) {
	switch {
	case command.Provided(src.Str):
		return src.Str, SourceString, nil

	case command.Provided(src.FilePath):
		data, err := s.readFile(src.FilePath)
		if err != nil {
			s.reporter.Error(err.Error())
			return "", "", dserrors.UserError{
				Message:    fmt.Sprintf("Cannot find auth file %s", src.FilePath),
				Suggestion: "Check that AUTH_FILE_PATH points to a readable JSON file",
				Err:        err,
			}
		}
		return string(data), SourceFile, nil

	case command.Provided(src.SecretRef):
		ref, err := secretstores.ParseRef(src.SecretRef)
		if err != nil {
			return "", "", err
		}
		value, err := s.stores.Resolve(ctx, ref)
		if err != nil {
			return "", "", err
		}
		return value, SourceSecretRef, nil
	}
	return "", "", nil
}

// Validate checks that raw is a JSON object of provider auth objects.
// Error messages never include the payload.
func Validate(raw string) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(schema),
		gojsonschema.NewStringLoader(raw),
	)
	if err != nil {
		return dserrors.ConfigError{
			Field:      "AUTH",
			Message:    "auth payload is not valid JSON",
			Suggestion: `Provide a JSON object such as {"github": {"type": "null_auth"}}`,
		}
	}

	if !result.Valid() {
		var problems []string
		for _, desc := range result.Errors() {
			problems = append(problems, fmt.Sprintf("%s: %s", desc.Field(), desc.Description()))
		}
		return dserrors.ConfigError{
			Field:      "AUTH",
			Message:    "auth payload does not match the expected shape: " + strings.Join(problems, "; "),
			Suggestion: `Each provider entry needs a "type", e.g. {"azure": {"type": "azure_default"}}`,
		}
	}
	return nil
}
