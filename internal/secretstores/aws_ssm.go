package secretstores

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// SSMAPI is the subset of the SSM client in use.
type SSMAPI interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// AWSSSM reads SecureString and String parameters from SSM Parameter Store.
// Path is the parameter name; a leading slash is added when missing.
type AWSSSM struct {
	client SSMAPI
}

// AWSSSMOption configures AWSSSM.
type AWSSSMOption func(*AWSSSM)

// WithSSMClient sets a custom client.
func WithSSMClient(client SSMAPI) AWSSSMOption {
	return func(s *AWSSSM) {
		s.client = client
	}
}

// NewAWSSSM creates the store.
func NewAWSSSM(opts ...AWSSSMOption) *AWSSSM {
	s := &AWSSSM{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *AWSSSM) Kind() string { return KindAWSSSM }

// Fetch reads the parameter with decryption. A version becomes the
// name:version selector.
func (s *AWSSSM) Fetch(ctx context.Context, ref Ref) (string, error) {
	client, err := s.clientFor(ctx, ref)
	if err != nil {
		return "", err
	}

	name := ref.Path
	if !strings.HasPrefix(name, "/") {
		name = "/" + name
	}
	if ref.Version != "" && ref.Version != "latest" {
		name = name + ":" + ref.Version
	}

	out, err := client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(name),
		WithDecryption: aws.Bool(ref.Option("with_decryption", "true") != "false"),
	})
	if err != nil {
		return "", err
	}
	if out.Parameter == nil || out.Parameter.Value == nil {
		return "", fmt.Errorf("parameter %q has no value", name)
	}
	return *out.Parameter.Value, nil
}

func (s *AWSSSM) clientFor(ctx context.Context, ref Ref) (SSMAPI, error) {
	if s.client != nil {
		return s.client, nil
	}

	cfg, endpoint, err := loadAWSConfig(ctx, ref)
	if err != nil {
		return nil, err
	}
	var clientOpts []func(*ssm.Options)
	if endpoint != "" {
		clientOpts = append(clientOpts, func(o *ssm.Options) {
			o.BaseEndpoint = aws.String(endpoint)
		})
	}
	return ssm.NewFromConfig(cfg, clientOpts...), nil
}
