package secretstores

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type fakeAccessor struct {
	data []byte
	err  error
	name string
}

func (f *fakeAccessor) AccessSecretVersion(_ context.Context, name string) ([]byte, error) {
	f.name = name
	return f.data, f.err
}

func TestGCPSecretManagerFetch(t *testing.T) {
	t.Parallel()

	env := map[string]string{"GOOGLE_CLOUD_PROJECT": "env-project"}
	getenv := func(k string) string { return env[k] }

	tests := []struct {
		name     string
		ref      Ref
		getenv   func(string) string
		wantName string
		wantErr  string
	}{
		{
			name:     "project and secret",
			ref:      Ref{Path: "my-project/stackql-auth"},
			getenv:   getenv,
			wantName: "projects/my-project/secrets/stackql-auth/versions/latest",
		},
		{
			name:     "pinned version",
			ref:      Ref{Path: "my-project/stackql-auth", Version: "5"},
			getenv:   getenv,
			wantName: "projects/my-project/secrets/stackql-auth/versions/5",
		},
		{
			name:     "bare secret uses env project",
			ref:      Ref{Path: "stackql-auth"},
			getenv:   getenv,
			wantName: "projects/env-project/secrets/stackql-auth/versions/latest",
		},
		{
			name:     "project option beats env",
			ref:      Ref{Path: "stackql-auth", Options: map[string]string{"project": "opt-project"}},
			getenv:   getenv,
			wantName: "projects/opt-project/secrets/stackql-auth/versions/latest",
		},
		{
			name:     "full resource name",
			ref:      Ref{Path: "projects/p/secrets/s"},
			getenv:   getenv,
			wantName: "projects/p/secrets/s/versions/latest",
		},
		{
			name:     "full resource name with version",
			ref:      Ref{Path: "projects/p/secrets/s/versions/2"},
			getenv:   getenv,
			wantName: "projects/p/secrets/s/versions/2",
		},
		{
			name:    "no project anywhere",
			ref:     Ref{Path: "stackql-auth"},
			getenv:  func(string) string { return "" },
			wantErr: "cannot determine project",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			accessor := &fakeAccessor{data: []byte("payload")}
			store := NewGCPSecretManager(WithSecretVersionAccessor(accessor), WithGCPEnv(tt.getenv))
			assert.Equal(t, KindGCPSecretManager, store.Kind())

			got, err := store.Fetch(context.Background(), tt.ref)
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "payload", got)
			assert.Equal(t, tt.wantName, accessor.name)
		})
	}
}

func TestGCPSecretManagerFetchError(t *testing.T) {
	t.Parallel()

	accessor := &fakeAccessor{err: errors.New("rpc error: code = PermissionDenied")}
	store := NewGCPSecretManager(WithSecretVersionAccessor(accessor))

	_, err := store.Fetch(context.Background(), Ref{Path: "p/s"})
	assert.ErrorContains(t, err, "PermissionDenied")
}

func TestGCPSecretManagerStatusCodes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "not found", err: status.Error(codes.NotFound, "missing"), want: "NotFound: secret version projects/p/secrets/s/versions/latest does not exist"},
		{name: "denied", err: status.Error(codes.PermissionDenied, "nope"), want: "PermissionDenied: access to projects/p/secrets/s/versions/latest was denied"},
		{name: "unauthenticated", err: status.Error(codes.Unauthenticated, "no creds"), want: "could not find default credentials"},
		{name: "other code kept", err: status.Error(codes.Unavailable, "down"), want: "rpc error: code = Unavailable desc = down"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			store := NewGCPSecretManager(WithSecretVersionAccessor(&fakeAccessor{err: tt.err}))
			_, err := store.Fetch(context.Background(), Ref{Path: "p/s"})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
