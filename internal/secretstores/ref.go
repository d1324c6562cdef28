// Package secretstores fetches stackql auth material from external secret
// stores addressed by store:// references.
package secretstores

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	dserrors "github.com/systmms/stackql-exec/internal/errors"
)

// Store kinds.
const (
	KindAWSSecretsManager = "aws-secretsmanager"
	KindAWSSSM            = "aws-ssm"
	KindGCPSecretManager  = "gcp-secretmanager"
	KindAzureKeyVault     = "azure-keyvault"
	KindKeyring           = "keyring"
)

// Kinds lists every supported store kind.
var Kinds = []string{
	KindAWSSecretsManager,
	KindAWSSSM,
	KindGCPSecretManager,
	KindAzureKeyVault,
	KindKeyring,
}

const scheme = "store://"

// Ref addresses one secret.
//
//	store://<kind>/<path>[#field][?version=<v>&<option>=<value>]
type Ref struct {
	// Kind selects the store implementation.
	Kind string
	// Path identifies the secret inside the store. Its layout depends on Kind.
	Path string
	// Field is an optional dotted path into a JSON secret.
	Field string
	// Version pins a secret version. Empty means latest.
	Version string
	// Options carries store specific settings such as region.
	Options map[string]string
}

// ParseRef parses a store:// reference.
func ParseRef(uri string) (Ref, error) {
	invalid := func(msg string) error {
		return dserrors.ConfigError{
			Field:      "AUTH_SECRET_REF",
			Value:      uri,
			Message:    "invalid secret reference: " + msg,
			Suggestion: "Use store://<kind>/<path>[#field][?version=<v>] with kind one of " + strings.Join(Kinds, ", "),
		}
	}

	if uri == "" {
		return Ref{}, invalid("empty reference")
	}
	if !strings.HasPrefix(uri, scheme) {
		return Ref{}, invalid("reference must start with " + scheme)
	}
	rest := strings.TrimPrefix(uri, scheme)

	var query string
	if idx := strings.Index(rest, "?"); idx != -1 {
		query = rest[idx+1:]
		rest = rest[:idx]
	}

	var field string
	if idx := strings.Index(rest, "#"); idx != -1 {
		field = rest[idx+1:]
		rest = rest[:idx]
	}

	kind, path, _ := strings.Cut(rest, "/")
	if kind == "" {
		return Ref{}, invalid("store kind is required")
	}
	if !supported(kind) {
		return Ref{}, invalid(fmt.Sprintf("unknown store kind %q", kind))
	}
	if path == "" {
		return Ref{}, invalid("path is required")
	}

	ref := Ref{
		Kind:    kind,
		Path:    path,
		Field:   field,
		Options: map[string]string{},
	}

	if query != "" {
		params, err := url.ParseQuery(query)
		if err != nil {
			return Ref{}, invalid("invalid query parameters: " + err.Error())
		}
		for key, values := range params {
			if len(values) == 0 {
				continue
			}
			if key == "version" {
				ref.Version = values[0]
				continue
			}
			ref.Options[key] = values[0]
		}
	}

	return ref, nil
}

// String renders ref back into its store:// form.
func (r Ref) String() string {
	var b strings.Builder
	b.WriteString(scheme)
	b.WriteString(r.Kind)
	b.WriteString("/")
	b.WriteString(r.Path)
	if r.Field != "" {
		b.WriteString("#")
		b.WriteString(r.Field)
	}

	params := url.Values{}
	if r.Version != "" {
		params.Set("version", r.Version)
	}
	keys := make([]string, 0, len(r.Options))
	for k := range r.Options {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		params.Set(k, r.Options[k])
	}
	if len(params) > 0 {
		b.WriteString("?")
		b.WriteString(params.Encode())
	}
	return b.String()
}

// Option returns a store option or fallback.
func (r Ref) Option(key, fallback string) string {
	if v, ok := r.Options[key]; ok && v != "" {
		return v
	}
	return fallback
}

func supported(kind string) bool {
	for _, k := range Kinds {
		if k == kind {
			return true
		}
	}
	return false
}
