package secretstores

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/zalando/go-keyring"
)

// KeyringAPI reads a secret from the OS keyring.
type KeyringAPI interface {
	Get(service, user string) (string, error)
}

type osKeyring struct{}

func (osKeyring) Get(service, user string) (string, error) {
	return keyring.Get(service, user)
}

// Keyring reads secrets from the OS keyring (macOS Keychain, Secret
// Service, Windows Credential Manager). Path is <service>/<account>.
type Keyring struct {
	client KeyringAPI
}

// KeyringOption configures Keyring.
type KeyringOption func(*Keyring)

// WithKeyringClient sets a custom client.
func WithKeyringClient(client KeyringAPI) KeyringOption {
	return func(k *Keyring) {
		k.client = client
	}
}

// NewKeyring creates the store.
func NewKeyring(opts ...KeyringOption) *Keyring {
	k := &Keyring{client: osKeyring{}}
	for _, opt := range opts {
		opt(k)
	}
	return k
}

func (k *Keyring) Kind() string { return KindKeyring }

// Fetch reads the item. Versions are not supported by OS keyrings.
func (k *Keyring) Fetch(_ context.Context, ref Ref) (string, error) {
	service, account, ok := strings.Cut(ref.Path, "/")
	if !ok || service == "" || account == "" {
		return "", fmt.Errorf("keyring path must be <service>/<account>, got %q", ref.Path)
	}
	if ref.Version != "" {
		return "", fmt.Errorf("keyring items are not versioned")
	}

	secret, err := k.client.Get(service, account)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", fmt.Errorf("secret not found in keyring: %s/%s", service, account)
		}
		return "", err
	}
	return secret, nil
}
