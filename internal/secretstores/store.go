package secretstores

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	dserrors "github.com/systmms/stackql-exec/internal/errors"
)

// Store fetches raw secret values.
type Store interface {
	Kind() string
	Fetch(ctx context.Context, ref Ref) (string, error)
}

// Registry maps store kinds to Store implementations.
type Registry struct {
	mu     sync.Mutex
	stores map[string]Store
}

// NewRegistry returns a registry with every built-in store. Cloud clients
// are created on first use.
func NewRegistry() *Registry {
	r := &Registry{stores: make(map[string]Store)}
	r.Register(NewAWSSecretsManager())
	r.Register(NewAWSSSM())
	r.Register(NewGCPSecretManager())
	r.Register(NewAzureKeyVault())
	r.Register(NewKeyring())
	return r
}

// Register adds or replaces the store for s.Kind().
func (r *Registry) Register(s Store) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stores[s.Kind()] = s
}

// Resolve fetches ref and applies its field selector.
func (r *Registry) Resolve(ctx context.Context, ref Ref) (string, error) {
	r.mu.Lock()
	store, ok := r.stores[ref.Kind]
	r.mu.Unlock()
	if !ok {
		return "", dserrors.ConfigError{
			Field:   "AUTH_SECRET_REF",
			Value:   ref.Kind,
			Message: fmt.Sprintf("no secret store registered for %q", ref.Kind),
		}
	}

	value, err := store.Fetch(ctx, ref)
	if err != nil {
		return "", dserrors.StoreError(ref.Kind, "fetch", err)
	}

	if ref.Field == "" {
		return value, nil
	}
	extracted, err := extractField(value, ref.Field)
	if err != nil {
		return "", dserrors.UserError{
			Message:    fmt.Sprintf("Cannot extract field %q from %s", ref.Field, ref.Kind),
			Details:    err.Error(),
			Suggestion: "Check that the secret is a JSON object containing the field",
			Err:        err,
		}
	}
	return extracted, nil
}

// extractField walks a dotted path through a JSON document. Objects and
// arrays are returned re-encoded as JSON.
func extractField(doc, path string) (string, error) {
	var current interface{}
	if err := json.Unmarshal([]byte(doc), &current); err != nil {
		return "", fmt.Errorf("invalid JSON: %w", err)
	}

	for _, part := range strings.Split(strings.TrimPrefix(path, "."), ".") {
		if part == "" {
			continue
		}
		obj, ok := current.(map[string]interface{})
		if !ok {
			return "", fmt.Errorf("cannot navigate into non-object at %q", part)
		}
		if current, ok = obj[part]; !ok {
			return "", fmt.Errorf("field %q not found", part)
		}
	}

	switch v := current.(type) {
	case string:
		return v, nil
	case nil:
		return "", fmt.Errorf("field %q is null", path)
	default:
		out, err := json.Marshal(v)
		if err != nil {
			return "", err
		}
		return string(out), nil
	}
}
