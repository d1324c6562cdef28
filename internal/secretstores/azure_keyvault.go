package secretstores

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/security/keyvault/azsecrets"
)

// KeyVaultAPI is the subset of the azsecrets client in use.
type KeyVaultAPI interface {
	GetSecret(ctx context.Context, name string, version string, options *azsecrets.GetSecretOptions) (azsecrets.GetSecretResponse, error)
}

// AzureKeyVault reads secrets from Azure Key Vault. Path is
// <vault-name>/<secret-name>; the vault_url option overrides the vault
// host for sovereign clouds.
type AzureKeyVault struct {
	credential azcore.TokenCredential
	newClient  func(vaultURL string, cred azcore.TokenCredential) (KeyVaultAPI, error)
}

// AzureKeyVaultOption configures AzureKeyVault.
type AzureKeyVaultOption func(*AzureKeyVault)

// WithAzureCredential sets the token credential.
func WithAzureCredential(cred azcore.TokenCredential) AzureKeyVaultOption {
	return func(s *AzureKeyVault) {
		s.credential = cred
	}
}

// WithKeyVaultClient makes every fetch use client.
func WithKeyVaultClient(client KeyVaultAPI) AzureKeyVaultOption {
	return func(s *AzureKeyVault) {
		s.newClient = func(string, azcore.TokenCredential) (KeyVaultAPI, error) {
			return client, nil
		}
	}
}

// NewAzureKeyVault creates the store. Without a credential option the
// DefaultAzureCredential chain is used.
func NewAzureKeyVault(opts ...AzureKeyVaultOption) *AzureKeyVault {
	s := &AzureKeyVault{
		newClient: func(vaultURL string, cred azcore.TokenCredential) (KeyVaultAPI, error) {
			return azsecrets.NewClient(vaultURL, cred, nil)
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *AzureKeyVault) Kind() string { return KindAzureKeyVault }

// Fetch reads the pinned or current secret version.
func (s *AzureKeyVault) Fetch(ctx context.Context, ref Ref) (string, error) {
	vault, name, ok := strings.Cut(ref.Path, "/")
	if !ok || vault == "" || name == "" {
		return "", fmt.Errorf("azure key vault path must be <vault>/<secret>, got %q", ref.Path)
	}
	vaultURL := ref.Option("vault_url", fmt.Sprintf("https://%s.vault.azure.net/", vault))

	cred := s.credential
	if cred == nil {
		var err error
		cred, err = azidentity.NewDefaultAzureCredential(nil)
		if err != nil {
			return "", fmt.Errorf("failed to create Azure credential: %w", err)
		}
	}

	client, err := s.newClient(vaultURL, cred)
	if err != nil {
		return "", fmt.Errorf("failed to create Key Vault client: %w", err)
	}

	version := ref.Version
	if version == "latest" {
		version = ""
	}
	resp, err := client.GetSecret(ctx, name, version, nil)
	if err != nil {
		var respErr *azcore.ResponseError
		if errors.As(err, &respErr) && respErr.StatusCode == http.StatusNotFound {
			return "", fmt.Errorf("SecretNotFound: %s in %s: %w", name, vault, err)
		}
		return "", err
	}
	if resp.Value == nil {
		return "", fmt.Errorf("secret %q has no value", name)
	}
	return *resp.Value, nil
}
