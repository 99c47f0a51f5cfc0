package auth

import (
	"context"
	"io"
	"testing"

	"tameer/pkg/types"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUserStore struct {
	users map[string]*types.User
	creds map[string]*types.Credential
}

func (f *fakeUserStore) UserByEmail(_ context.Context, email string) (*types.User, error) {
	user, ok := f.users[email]
	if !ok {
		return nil, types.ErrUserNotFound
	}
	return user, nil
}

func (f *fakeUserStore) Credential(_ context.Context, userID string) (*types.Credential, error) {
	cred, ok := f.creds[userID]
	if !ok {
		return nil, types.ErrUserNotFound
	}
	return cred, nil
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newVerifierFixture(t *testing.T) (*Verifier, *fakeUserStore) {
	t.Helper()

	hash, err := HashPassword("correct horse battery")
	require.NoError(t, err)

	store := &fakeUserStore{
		users: map[string]*types.User{
			"admin@company.com": {
				ID:    "user-1",
				Email: "admin@company.com",
				Name:  "Super Admin",
				Role:  types.RoleAdmin,
			},
			"visitor@company.com": {
				ID:    "user-2",
				Email: "visitor@company.com",
				Name:  "Just Visiting",
				Role:  types.RoleVisitor,
			},
		},
		creds: map[string]*types.Credential{
			"user-1": {Identifier: types.CredentialIdentifier("user-1"), Hash: hash},
			"user-2": {Identifier: types.CredentialIdentifier("user-2"), Hash: hash},
		},
	}

	return NewVerifier(store, testLogger()), store
}

func TestVerify_Success(t *testing.T) {
	verifier, _ := newVerifierFixture(t)

	identity, err := verifier.Verify(context.Background(), "admin@company.com", "correct horse battery")
	require.NoError(t, err)
	assert.Equal(t, "user-1", identity.UserID)
	assert.Equal(t, types.RoleAdmin, identity.Role)
	assert.Equal(t, "Super Admin", identity.Name)
}

func TestVerify_EmailNormalized(t *testing.T) {
	verifier, _ := newVerifierFixture(t)

	identity, err := verifier.Verify(context.Background(), "  Admin@Company.COM ", "correct horse battery")
	require.NoError(t, err)
	assert.Equal(t, "user-1", identity.UserID)
}

// Wrong password and unknown email must be indistinguishable to the caller.
func TestVerify_FailuresCollapse(t *testing.T) {
	verifier, _ := newVerifierFixture(t)

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"wrong password", "admin@company.com", "not it"},
		{"unknown email", "nobody@company.com", "correct horse battery"},
		{"empty email", "", "correct horse battery"},
		{"empty password", "admin@company.com", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			identity, err := verifier.Verify(context.Background(), tt.email, tt.password)
			assert.Nil(t, identity)
			assert.ErrorIs(t, err, types.ErrInvalidCredentials)
		})
	}
}

// A visitor account with a valid credential still cannot sign in to the
// console, and learns nothing from the error.
func TestVerify_NonConsoleRoleRejected(t *testing.T) {
	verifier, _ := newVerifierFixture(t)

	identity, err := verifier.Verify(context.Background(), "visitor@company.com", "correct horse battery")
	assert.Nil(t, identity)
	assert.ErrorIs(t, err, types.ErrInvalidCredentials)
}

func TestVerify_MissingCredentialRejected(t *testing.T) {
	verifier, store := newVerifierFixture(t)
	delete(store.creds, "user-1")

	identity, err := verifier.Verify(context.Background(), "admin@company.com", "correct horse battery")
	assert.Nil(t, identity)
	assert.ErrorIs(t, err, types.ErrInvalidCredentials)
}
