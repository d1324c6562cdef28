package secretstores

import (
	"context"
	"fmt"
	"os"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// SecretVersionAccessor reads one secret version by resource name.
type SecretVersionAccessor interface {
	AccessSecretVersion(ctx context.Context, name string) ([]byte, error)
}

// GCPSecretManager reads secrets from Google Cloud Secret Manager.
//
// Path is either <project>/<secret> or a full projects/<p>/secrets/<s>
// resource name. A bare <secret> uses GOOGLE_CLOUD_PROJECT.
type GCPSecretManager struct {
	accessor SecretVersionAccessor
	getenv   func(string) string
}

// GCPSecretManagerOption configures GCPSecretManager.
type GCPSecretManagerOption func(*GCPSecretManager)

// WithSecretVersionAccessor sets a custom accessor.
func WithSecretVersionAccessor(a SecretVersionAccessor) GCPSecretManagerOption {
	return func(s *GCPSecretManager) {
		s.accessor = a
	}
}

// WithGCPEnv sets the environment lookup used for the default project.
func WithGCPEnv(getenv func(string) string) GCPSecretManagerOption {
	return func(s *GCPSecretManager) {
		s.getenv = getenv
	}
}

// NewGCPSecretManager creates the store.
func NewGCPSecretManager(opts ...GCPSecretManagerOption) *GCPSecretManager {
	s := &GCPSecretManager{getenv: os.Getenv}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *GCPSecretManager) Kind() string { return KindGCPSecretManager }

// Fetch accesses the pinned or latest version.
func (s *GCPSecretManager) Fetch(ctx context.Context, ref Ref) (string, error) {
	name, err := s.resourceName(ref)
	if err != nil {
		return "", err
	}

	accessor := s.accessor
	if accessor == nil {
		client, err := newGCPClient(ctx, ref)
		if err != nil {
			return "", err
		}
		defer func() { _ = client.Close() }()
		accessor = client
	}

	data, err := accessor.AccessSecretVersion(ctx, name)
	if err != nil {
		return "", describeGRPC(name, err)
	}
	return string(data), nil
}

// describeGRPC keeps the status code name in the message so store
// suggestions can match on it.
func describeGRPC(name string, err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	switch st.Code() {
	case codes.NotFound:
		return fmt.Errorf("NotFound: secret version %s does not exist: %w", name, err)
	case codes.PermissionDenied:
		return fmt.Errorf("PermissionDenied: access to %s was denied: %w", name, err)
	case codes.Unauthenticated:
		return fmt.Errorf("could not find default credentials or they were rejected: %w", err)
	}
	return err
}

func (s *GCPSecretManager) resourceName(ref Ref) (string, error) {
	version := ref.Version
	if version == "" {
		version = "latest"
	}

	path := strings.Trim(ref.Path, "/")
	if strings.HasPrefix(path, "projects/") {
		if strings.Contains(path, "/versions/") {
			return path, nil
		}
		return path + "/versions/" + version, nil
	}

	project, secret, ok := strings.Cut(path, "/")
	if !ok {
		secret = project
		project = ref.Option("project", s.getenv("GOOGLE_CLOUD_PROJECT"))
	}
	if project == "" || secret == "" {
		return "", fmt.Errorf("cannot determine project for secret %q: use <project>/<secret> or set GOOGLE_CLOUD_PROJECT", ref.Path)
	}
	return fmt.Sprintf("projects/%s/secrets/%s/versions/%s", project, secret, version), nil
}

type gcpClient struct {
	client *secretmanager.Client
}

func newGCPClient(ctx context.Context, ref Ref) (*gcpClient, error) {
	var clientOpts []option.ClientOption
	if file := ref.Option("credentials_file", ""); file != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(file))
	}
	if endpoint := ref.Option("endpoint", ""); endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(endpoint))
	}

	client, err := secretmanager.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCP Secret Manager client: %w", err)
	}
	return &gcpClient{client: client}, nil
}

func (c *gcpClient) AccessSecretVersion(ctx context.Context, name string) ([]byte, error) {
	resp, err := c.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{Name: name})
	if err != nil {
		return nil, err
	}
	if resp.GetPayload() == nil {
		return nil, fmt.Errorf("secret version %q has no payload", name)
	}
	return resp.GetPayload().GetData(), nil
}

func (c *gcpClient) Close() error {
	return c.client.Close()
}
