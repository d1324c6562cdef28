package secretstores

import (
	"context"
	"fmt"
	"regexp"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// SecretsManagerAPI is the subset of the Secrets Manager client in use.
type SecretsManagerAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// AWSSecretsManager reads secrets from AWS Secrets Manager.
// Path is the secret name or ARN.
type AWSSecretsManager struct {
	client SecretsManagerAPI
}

// AWSSecretsManagerOption configures AWSSecretsManager.
type AWSSecretsManagerOption func(*AWSSecretsManager)

// WithSecretsManagerClient sets a custom client.
func WithSecretsManagerClient(client SecretsManagerAPI) AWSSecretsManagerOption {
	return func(s *AWSSecretsManager) {
		s.client = client
	}
}

// NewAWSSecretsManager creates the store.
func NewAWSSecretsManager(opts ...AWSSecretsManagerOption) *AWSSecretsManager {
	s := &AWSSecretsManager{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *AWSSecretsManager) Kind() string { return KindAWSSecretsManager }

var versionIDPattern = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// Fetch returns the SecretString, or the SecretBinary as text. A UUID
// version selects a VersionId, anything else a staging label.
func (s *AWSSecretsManager) Fetch(ctx context.Context, ref Ref) (string, error) {
	client, err := s.clientFor(ctx, ref)
	if err != nil {
		return "", err
	}

	input := &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(ref.Path),
	}
	if ref.Version != "" && ref.Version != "latest" {
		if versionIDPattern.MatchString(ref.Version) {
			input.VersionId = aws.String(ref.Version)
		} else {
			input.VersionStage = aws.String(ref.Version)
		}
	}

	out, err := client.GetSecretValue(ctx, input)
	if err != nil {
		return "", err
	}

	switch {
	case out.SecretString != nil:
		return *out.SecretString, nil
	case out.SecretBinary != nil:
		return string(out.SecretBinary), nil
	}
	return "", fmt.Errorf("secret %q has no value", ref.Path)
}

func (s *AWSSecretsManager) clientFor(ctx context.Context, ref Ref) (SecretsManagerAPI, error) {
	if s.client != nil {
		return s.client, nil
	}

	cfg, endpoint, err := loadAWSConfig(ctx, ref)
	if err != nil {
		return nil, err
	}
	var clientOpts []func(*secretsmanager.Options)
	if endpoint != "" {
		clientOpts = append(clientOpts, func(o *secretsmanager.Options) {
			o.BaseEndpoint = aws.String(endpoint)
		})
	}
	return secretsmanager.NewFromConfig(cfg, clientOpts...), nil
}
