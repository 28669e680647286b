package examclient_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onlineexam/examsvc/internal/domain"
	context_ "github.com/onlineexam/examsvc/internal/infra/context"
	"github.com/onlineexam/examsvc/internal/svc/examsvc"
	"github.com/onlineexam/examsvc/internal/svc/examsvc/examclient"
)

type userCreatorFunc func(ctx context.Context, candidate domain.User) (domain.User, error)

func (f userCreatorFunc) CreateUser(ctx context.Context, candidate domain.User) (domain.User, error) {
	return f(ctx, candidate)
}

func setupTestClient(t *testing.T, create userCreatorFunc) *examclient.HTTPClient {
	t.Helper()

	//nolint:exhaustruct
	server := httptest.NewServer(examsvc.NewHTTPTransport(create, examsvc.HTTPTransportConfig{}))
	t.Cleanup(server.Close)

	return examclient.NewHTTPClient(examclient.HTTPClientConfig{ServerURL: server.URL + "/"}, server.Client())
}

func TestHTTPClient_CreateUser(t *testing.T) {
	t.Parallel()

	received := make(chan domain.User, 1)

	client := setupTestClient(t, func(_ context.Context, candidate domain.User) (domain.User, error) {
		received <- candidate
		candidate.ID = 7

		return candidate, nil
	})

	got, err := client.CreateUser(context.Background(), domain.User{
		Email:    "a@x.com",
		Username: "alice",
		Password: "secret",
	})
	require.NoError(t, err)

	assert.Equal(t, "secret", (<-received).Password)
	assert.Equal(t, int64(7), got.ID)
	assert.Equal(t, "alice", got.Username)
	assert.Empty(t, got.Password)
}

func TestHTTPClient_CreateUserRejected(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		svcErr   error
		wantKind domain.ErrorKind
		wantErr  error
	}{
		{
			name:     "duplicate email",
			svcErr:   domain.NewDuplicateEmailError("a@x.com"),
			wantKind: domain.DuplicateEmail,
			wantErr:  domain.ErrEmailAlreadyExists,
		},
		{
			name:     "duplicate username",
			svcErr:   domain.NewDuplicateUsernameError("alice"),
			wantKind: domain.DuplicateUsername,
			wantErr:  domain.ErrUsernameAlreadyExists,
		},
		{
			name:     "missing username",
			svcErr:   errors.Join(domain.ErrInvalidUser, domain.ErrNoUsername),
			wantKind: domain.InvalidInput,
			wantErr:  domain.ErrNoUsername,
		},
		{
			name:     "store failure",
			svcErr:   domain.ErrStoreFailure,
			wantKind: domain.Unknown,
			wantErr:  examclient.ErrUnexpectedStatus,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			client := setupTestClient(t, func(context.Context, domain.User) (domain.User, error) {
				return domain.User{}, tt.svcErr
			})

			_, err := client.CreateUser(context.Background(), domain.User{Email: "a@x.com", Username: "alice"})
			require.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, tt.wantKind, domain.KindOf(err))
		})
	}
}

func TestHTTPClient_ForwardsTraceID(t *testing.T) {
	t.Parallel()

	seen := make(chan string, 1)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen <- r.Header.Get(examclient.TraceIDHeader)

		http.Error(w, "Nope", http.StatusBadRequest)
	}))
	t.Cleanup(server.Close)

	client := examclient.NewHTTPClient(examclient.HTTPClientConfig{ServerURL: server.URL}, nil)
	ctx := context_.WithTraceID(context.Background(), "req-9")

	_, err := client.CreateUser(ctx, domain.User{Email: "a@x.com", Username: "alice"})
	require.ErrorIs(t, err, examclient.ErrRejected)
	assert.Contains(t, err.Error(), "Nope")
	assert.Equal(t, "req-9", <-seen)
}
