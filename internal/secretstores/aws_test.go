package secretstores

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockSecretsManager struct {
	out   *secretsmanager.GetSecretValueOutput
	err   error
	input *secretsmanager.GetSecretValueInput
}

func (m *mockSecretsManager) GetSecretValue(_ context.Context, params *secretsmanager.GetSecretValueInput, _ ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	m.input = params
	return m.out, m.err
}

func TestAWSSecretsManagerFetch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		ref       Ref
		out       *secretsmanager.GetSecretValueOutput
		err       error
		want      string
		wantErr   string
		wantID    *string
		wantStage *string
	}{
		{
			name: "secret string",
			ref:  Ref{Path: "ci/stackql"},
			out:  &secretsmanager.GetSecretValueOutput{SecretString: aws.String(`{"aws":{"type":"aws_signing_v4"}}`)},
			want: `{"aws":{"type":"aws_signing_v4"}}`,
		},
		{
			name: "secret binary",
			ref:  Ref{Path: "ci/stackql"},
			out:  &secretsmanager.GetSecretValueOutput{SecretBinary: []byte("bin")},
			want: "bin",
		},
		{
			name:   "version id",
			ref:    Ref{Path: "ci/stackql", Version: "a1b2c3d4-e5f6-4a5b-8c9d-0e1f2a3b4c5d"},
			out:    &secretsmanager.GetSecretValueOutput{SecretString: aws.String("v")},
			want:   "v",
			wantID: aws.String("a1b2c3d4-e5f6-4a5b-8c9d-0e1f2a3b4c5d"),
		},
		{
			name:      "version stage",
			ref:       Ref{Path: "ci/stackql", Version: "AWSPREVIOUS"},
			out:       &secretsmanager.GetSecretValueOutput{SecretString: aws.String("v")},
			want:      "v",
			wantStage: aws.String("AWSPREVIOUS"),
		},
		{
			name: "latest is no version",
			ref:  Ref{Path: "ci/stackql", Version: "latest"},
			out:  &secretsmanager.GetSecretValueOutput{SecretString: aws.String("v")},
			want: "v",
		},
		{
			name:    "empty secret",
			ref:     Ref{Path: "ci/stackql"},
			out:     &secretsmanager.GetSecretValueOutput{},
			wantErr: "has no value",
		},
		{
			name:    "api error",
			ref:     Ref{Path: "ci/stackql"},
			err:     errors.New("ResourceNotFoundException"),
			wantErr: "ResourceNotFoundException",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			mock := &mockSecretsManager{out: tt.out, err: tt.err}
			store := NewAWSSecretsManager(WithSecretsManagerClient(mock))
			assert.Equal(t, KindAWSSecretsManager, store.Kind())

			got, err := store.Fetch(context.Background(), tt.ref)
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			require.NotNil(t, mock.input)
			assert.Equal(t, tt.ref.Path, aws.ToString(mock.input.SecretId))
			assert.Equal(t, tt.wantID, mock.input.VersionId)
			assert.Equal(t, tt.wantStage, mock.input.VersionStage)
		})
	}
}

type mockSSM struct {
	out   *ssm.GetParameterOutput
	err   error
	input *ssm.GetParameterInput
}

func (m *mockSSM) GetParameter(_ context.Context, params *ssm.GetParameterInput, _ ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	m.input = params
	return m.out, m.err
}

func TestAWSSSMFetch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		ref         Ref
		out         *ssm.GetParameterOutput
		err         error
		want        string
		wantName    string
		wantDecrypt bool
		wantErr     string
	}{
		{
			name:        "adds leading slash",
			ref:         Ref{Path: "ci/stackql/auth", Options: map[string]string{}},
			out:         &ssm.GetParameterOutput{Parameter: &ssmtypes.Parameter{Value: aws.String("secret")}},
			want:        "secret",
			wantName:    "/ci/stackql/auth",
			wantDecrypt: true,
		},
		{
			name:        "version selector",
			ref:         Ref{Path: "/ci/auth", Version: "7"},
			out:         &ssm.GetParameterOutput{Parameter: &ssmtypes.Parameter{Value: aws.String("v7")}},
			want:        "v7",
			wantName:    "/ci/auth:7",
			wantDecrypt: true,
		},
		{
			name:     "decryption disabled",
			ref:      Ref{Path: "/ci/auth", Options: map[string]string{"with_decryption": "false"}},
			out:      &ssm.GetParameterOutput{Parameter: &ssmtypes.Parameter{Value: aws.String("plain")}},
			want:     "plain",
			wantName: "/ci/auth",
		},
		{
			name:    "no parameter",
			ref:     Ref{Path: "/ci/auth"},
			out:     &ssm.GetParameterOutput{},
			wantErr: "has no value",
		},
		{
			name:    "api error",
			ref:     Ref{Path: "/ci/auth"},
			err:     errors.New("ParameterNotFound"),
			wantErr: "ParameterNotFound",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			mock := &mockSSM{out: tt.out, err: tt.err}
			store := NewAWSSSM(WithSSMClient(mock))
			assert.Equal(t, KindAWSSSM, store.Kind())

			got, err := store.Fetch(context.Background(), tt.ref)
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantName, aws.ToString(mock.input.Name))
			assert.Equal(t, tt.wantDecrypt, aws.ToBool(mock.input.WithDecryption))
		})
	}
}

func TestLoadAWSConfig(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "")
	t.Setenv("AWS_CONFIG_FILE", "/dev/null")
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", "/dev/null")

	cfg, endpoint, err := loadAWSConfig(context.Background(), Ref{Options: map[string]string{
		"region":   "eu-west-1",
		"endpoint": "http://localhost:4566",
	}})
	require.NoError(t, err)
	assert.Equal(t, "eu-west-1", cfg.Region)
	assert.Equal(t, "http://localhost:4566", endpoint)

	creds, err := cfg.Credentials.Retrieve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "test", creds.AccessKeyID)

	cfg, _, err = loadAWSConfig(context.Background(), Ref{Options: map[string]string{
		"region":   "eu-west-1",
		"role_arn": "arn:aws:iam::123456789012:role/stackql",
	}})
	require.NoError(t, err)
	_, isCache := cfg.Credentials.(*aws.CredentialsCache)
	assert.True(t, isCache)
}
