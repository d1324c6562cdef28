package secretstores

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/credentials/stscreds"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

const roleSessionName = "stackql-exec"

// loadAWSConfig builds an SDK config from ref options: region, profile,
// endpoint and role_arn. A custom endpoint without ambient credentials gets
// the static test credentials LocalStack expects. role_arn assumes that role
// on top of the resolved credentials.
func loadAWSConfig(ctx context.Context, ref Ref) (aws.Config, string, error) {
	var opts []func(*awsconfig.LoadOptions) error

	if region := ref.Option("region", ""); region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	if profile := ref.Option("profile", ""); profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(profile))
	}

	endpoint := ref.Option("endpoint", "")
	if endpoint != "" && os.Getenv("AWS_ACCESS_KEY_ID") == "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider("test", "test", ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, "", fmt.Errorf("failed to load AWS config: %w", err)
	}

	if roleARN := ref.Option("role_arn", ""); roleARN != "" {
		cfg.Credentials = assumeRole(cfg, roleARN, ref.Option("external_id", ""))
	}
	return cfg, endpoint, nil
}

func assumeRole(cfg aws.Config, roleARN, externalID string) aws.CredentialsProvider {
	provider := stscreds.NewAssumeRoleProvider(sts.NewFromConfig(cfg), roleARN, func(o *stscreds.AssumeRoleOptions) {
		o.RoleSessionName = roleSessionName
		if externalID != "" {
			o.ExternalID = aws.String(externalID)
		}
	})
	return aws.NewCredentialsCache(provider)
}
